package persistence

import (
	"context"
	"testing"
	"time"

	appfinance "github.com/erp/apcontrols/internal/application/finance"
	"github.com/erp/apcontrols/internal/domain/finance"
	"github.com/erp/apcontrols/internal/domain/shared"
	"github.com/erp/apcontrols/internal/infrastructure/config"
	"github.com/erp/apcontrols/internal/infrastructure/persistence/models"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := Open(sqlite.Open(":memory:"))
	require.NoError(t, err)

	// every pooled connection to :memory: would get its own empty database
	sqlDB, err := db.DB.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	require.NoError(t, db.DB.AutoMigrate(models.AllModels()...))
	return db.DB
}

func testActor() finance.Actor {
	return finance.Actor{UserID: uuid.New(), TenantID: uuid.New(), Role: "ap_clerk"}
}

func newTestPayment(t *testing.T, actor finance.Actor, key string) *finance.Payment {
	t.Helper()
	p, err := finance.NewPayment(finance.NewPaymentParams{
		VendorID:       uuid.New(),
		VendorName:     "Acme Supplies",
		Amount:         "1234.5678",
		Currency:       "EUR",
		PaymentDate:    time.Date(2026, 3, 14, 0, 0, 0, 0, time.UTC),
		IdempotencyKey: key,
	}, actor)
	require.NoError(t, err)
	return p
}

func newExceptionMatch(t *testing.T, actor finance.Actor, code finance.ExceptionCode) *finance.MatchResult {
	t.Helper()
	poTotal := int64(10000)
	result, err := finance.NewMatchResult(&finance.InvoiceForMatch{
		ID:       uuid.New(),
		TenantID: actor.TenantID,
		VendorID: uuid.New(),
		Status:   finance.InvoiceStatusSubmitted,
	}, finance.MatchOutcome{
		Mode:          finance.MatchModeThreeWay,
		Status:        finance.MatchStatusException,
		ExceptionCode: &code,
		Detail: finance.MatchDetail{
			Codes:             []finance.ExceptionCode{code},
			InvoiceTotalCents: 12000,
			POTotalCents:      &poTotal,
			GRNNumbers:        []string{"GRN-1"},
		},
	}, actor)
	require.NoError(t, err)
	return result
}

func TestGormPaymentRepository(t *testing.T) {
	ctx := context.Background()

	t.Run("create and reload", func(t *testing.T) {
		repo := NewGormPaymentRepository(setupTestDB(t))
		actor := testActor()
		p := newTestPayment(t, actor, "key-1")

		require.NoError(t, repo.Create(ctx, p))

		got, err := repo.FindByID(ctx, actor.TenantID, p.ID)
		require.NoError(t, err)
		assert.True(t, got.Amount.Equal(decimal.RequireFromString("1234.5678")))
		assert.Equal(t, "EUR", got.Currency)
		assert.Equal(t, finance.PaymentStatusDraft, got.Status)
		assert.Equal(t, 1, got.Version)
		assert.Equal(t, actor.UserID, got.CreatedBy)
		assert.True(t, got.PaymentDate.Equal(p.PaymentDate))

		byKey, err := repo.FindByIdempotencyKey(ctx, actor.TenantID, "key-1")
		require.NoError(t, err)
		assert.Equal(t, p.ID, byKey.ID)
	})

	t.Run("other tenant cannot see payment", func(t *testing.T) {
		repo := NewGormPaymentRepository(setupTestDB(t))
		actor := testActor()
		p := newTestPayment(t, actor, "key-1")
		require.NoError(t, repo.Create(ctx, p))

		_, err := repo.FindByID(ctx, uuid.New(), p.ID)
		assert.ErrorIs(t, err, shared.ErrNotFound)
		_, err = repo.FindByIdempotencyKey(ctx, uuid.New(), "key-1")
		assert.ErrorIs(t, err, shared.ErrNotFound)
	})

	t.Run("duplicate idempotency key", func(t *testing.T) {
		repo := NewGormPaymentRepository(setupTestDB(t))
		actor := testActor()
		require.NoError(t, repo.Create(ctx, newTestPayment(t, actor, "key-1")))

		err := repo.Create(ctx, newTestPayment(t, actor, "key-1"))
		assert.ErrorIs(t, err, finance.ErrDuplicateIdempotencyKey)

		other := testActor()
		assert.NoError(t, repo.Create(ctx, newTestPayment(t, other, "key-1")), "keys are scoped per tenant")
	})

	t.Run("conditional update", func(t *testing.T) {
		repo := NewGormPaymentRepository(setupTestDB(t))
		actor := testActor()
		p := newTestPayment(t, actor, "key-1")
		require.NoError(t, repo.Create(ctx, p))

		require.NoError(t, p.Submit(actor))
		require.NoError(t, repo.Update(ctx, p, 1))

		got, err := repo.FindByID(ctx, actor.TenantID, p.ID)
		require.NoError(t, err)
		assert.Equal(t, finance.PaymentStatusPendingApproval, got.Status)
		assert.Equal(t, 2, got.Version)
		assert.NotNil(t, got.SubmittedAt)

		err = repo.Update(ctx, p, 1)
		assert.ErrorIs(t, err, finance.ErrConcurrencyConflict)
	})
}

func TestGormPaymentApprovalRepository(t *testing.T) {
	ctx := context.Background()
	repo := NewGormPaymentApprovalRepository(setupTestDB(t))
	tenantID := uuid.New()
	paymentID := uuid.New()
	base := time.Date(2026, 3, 14, 9, 0, 0, 0, time.UTC)

	for i, comment := range []string{"first", "second"} {
		require.NoError(t, repo.Create(ctx, &finance.PaymentApproval{
			ID:         uuid.New(),
			PaymentID:  paymentID,
			TenantID:   tenantID,
			ApproverID: uuid.New(),
			Decision:   finance.ApprovalDecisionApproved,
			Comment:    comment,
			Timestamp:  base.Add(time.Duration(1-i) * time.Hour),
		}))
	}

	approvals, err := repo.ListByPayment(ctx, tenantID, paymentID)
	require.NoError(t, err)
	require.Len(t, approvals, 2)
	assert.Equal(t, "second", approvals[0].Comment)
	assert.Equal(t, "first", approvals[1].Comment)

	none, err := repo.ListByPayment(ctx, uuid.New(), paymentID)
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestGormMatchResultRepository(t *testing.T) {
	ctx := context.Background()

	t.Run("one result per invoice", func(t *testing.T) {
		repo := NewGormMatchResultRepository(setupTestDB(t))
		actor := testActor()
		result := newExceptionMatch(t, actor, finance.ExceptionCodePriceVariance)
		require.NoError(t, repo.Create(ctx, result))

		exists, err := repo.ExistsForInvoice(ctx, actor.TenantID, result.InvoiceID)
		require.NoError(t, err)
		assert.True(t, exists)

		again := *result
		again.ID = uuid.New()
		err = repo.Create(ctx, &again)
		assert.ErrorIs(t, err, finance.ErrMatchAlreadyExists)

		got, err := repo.FindByInvoice(ctx, actor.TenantID, result.InvoiceID)
		require.NoError(t, err)
		assert.Equal(t, result.ID, got.ID)
		require.NotNil(t, got.ExceptionCode)
		assert.Equal(t, finance.ExceptionCodePriceVariance, *got.ExceptionCode)
		assert.Equal(t, []string{"GRN-1"}, got.Detail.GRNNumbers)
		require.NotNil(t, got.Detail.POTotalCents)
		assert.Equal(t, int64(10000), *got.Detail.POTotalCents)
	})

	t.Run("override is versioned", func(t *testing.T) {
		repo := NewGormMatchResultRepository(setupTestDB(t))
		actor := testActor()
		result := newExceptionMatch(t, actor, finance.ExceptionCodeQuantityVariance)
		require.NoError(t, repo.Create(ctx, result))

		manager := finance.Actor{UserID: uuid.New(), TenantID: actor.TenantID, Role: "ap_manager"}
		require.NoError(t, result.ApplyOverride(manager, "vendor credit agreed"))
		require.NoError(t, repo.Update(ctx, result, 1))

		got, err := repo.FindByID(ctx, actor.TenantID, result.ID)
		require.NoError(t, err)
		assert.True(t, got.IsOverridden)
		assert.Equal(t, finance.MatchStatusPassed, got.Status)
		assert.Equal(t, "vendor credit agreed", got.OverrideReason)
		assert.Equal(t, manager.UserID, *got.OverrideApprovedBy)
		assert.Equal(t, 2, got.Version)

		assert.ErrorIs(t, repo.Update(ctx, result, 1), finance.ErrMatchConcurrency)
	})

	t.Run("not found", func(t *testing.T) {
		repo := NewGormMatchResultRepository(setupTestDB(t))
		_, err := repo.FindByInvoice(ctx, uuid.New(), uuid.New())
		assert.ErrorIs(t, err, shared.ErrNotFound)

		exists, err := repo.ExistsForInvoice(ctx, uuid.New(), uuid.New())
		require.NoError(t, err)
		assert.False(t, exists)
	})
}

func TestGormMatchExceptionRepository(t *testing.T) {
	ctx := context.Background()
	db := setupTestDB(t)
	repo := NewGormMatchExceptionRepository(db)
	actor := testActor()

	codes := []finance.ExceptionCode{
		finance.ExceptionCodeMissingPO,
		finance.ExceptionCodePriceVariance,
		finance.ExceptionCodePriceVariance,
		finance.ExceptionCodeTotalVariance,
	}
	var created []*finance.MatchException
	for _, code := range codes {
		ex, err := finance.NewMatchException(newExceptionMatch(t, actor, code))
		require.NoError(t, err)
		require.NoError(t, repo.Create(ctx, ex))
		created = append(created, ex)
	}

	reviewer := finance.Actor{UserID: uuid.New(), TenantID: actor.TenantID}
	require.NoError(t, created[0].Resolve(finance.ResolutionPOAmended, "PO raised late", reviewer))
	require.NoError(t, repo.Update(ctx, created[0], 1))
	assert.ErrorIs(t, repo.Update(ctx, created[0], 1), finance.ErrExceptionConcurrency)

	t.Run("open queue", func(t *testing.T) {
		open := finance.ResolutionStatusOpen
		items, total, err := repo.List(ctx, actor.TenantID, finance.ExceptionFilter{ResolutionStatus: &open})
		require.NoError(t, err)
		assert.Equal(t, int64(3), total)
		assert.Len(t, items, 3)
	})

	t.Run("by code with paging", func(t *testing.T) {
		code := finance.ExceptionCodePriceVariance
		items, total, err := repo.List(ctx, actor.TenantID, finance.ExceptionFilter{
			Filter:        shared.Filter{Page: 2, PageSize: 1},
			ExceptionCode: &code,
		})
		require.NoError(t, err)
		assert.Equal(t, int64(2), total)
		assert.Len(t, items, 1)
	})

	t.Run("by severity", func(t *testing.T) {
		severity := finance.SeverityFor(finance.ExceptionCodeMissingPO)
		items, _, err := repo.List(ctx, actor.TenantID, finance.ExceptionFilter{Severity: &severity})
		require.NoError(t, err)
		for _, item := range items {
			assert.Equal(t, severity, item.Severity)
		}
	})

	t.Run("resolved fields persist", func(t *testing.T) {
		got, err := repo.FindByMatchResult(ctx, actor.TenantID, created[0].MatchResultID)
		require.NoError(t, err)
		assert.Equal(t, finance.ResolutionStatusResolved, got.ResolutionStatus)
		require.NotNil(t, got.ResolutionAction)
		assert.Equal(t, finance.ResolutionPOAmended, *got.ResolutionAction)
		assert.Equal(t, reviewer.UserID, *got.ResolvedBy)
	})

	t.Run("unknown sort column falls back", func(t *testing.T) {
		_, total, err := repo.List(ctx, actor.TenantID, finance.ExceptionFilter{
			Filter: shared.Filter{OrderBy: "resolution_note; DROP TABLE ap_payments", OrderDir: "asc"},
		})
		require.NoError(t, err)
		assert.Equal(t, int64(4), total)
	})
}

func TestGormTransactionScope(t *testing.T) {
	ctx := context.Background()
	db := setupTestDB(t)
	scope := NewGormTransactionScope(db)
	actor := testActor()

	t.Run("commit writes entity and audit together", func(t *testing.T) {
		p := newTestPayment(t, actor, "commit")
		err := scope.Execute(ctx, func(repos appfinance.TransactionalRepositories) error {
			if err := repos.Payments().Create(ctx, p); err != nil {
				return err
			}
			return repos.Audit().Record(ctx, finance.NewAuditEvent(finance.AuditPaymentCreated, actor,
				finance.AuditResourcePayment, p.ID, map[string]any{"amount": p.Amount.String()}))
		})
		require.NoError(t, err)

		events, err := NewGormAuditRecorder(db).ListByResource(ctx, actor.TenantID, finance.AuditResourcePayment, p.ID)
		require.NoError(t, err)
		require.Len(t, events, 1)
		assert.Equal(t, finance.AuditPaymentCreated, events[0].EventType)
		assert.Equal(t, "1234.5678", events[0].Payload["amount"])
	})

	t.Run("rollback discards both", func(t *testing.T) {
		p := newTestPayment(t, actor, "rollback")
		err := scope.Execute(ctx, func(repos appfinance.TransactionalRepositories) error {
			require.NoError(t, repos.Payments().Create(ctx, p))
			require.NoError(t, repos.Audit().Record(ctx, finance.NewAuditEvent(finance.AuditPaymentCreated, actor,
				finance.AuditResourcePayment, p.ID, nil)))
			return assert.AnError
		})
		assert.ErrorIs(t, err, assert.AnError)

		_, err = NewGormPaymentRepository(db).FindByID(ctx, actor.TenantID, p.ID)
		assert.ErrorIs(t, err, shared.ErrNotFound)
		events, err := NewGormAuditRecorder(db).ListByResource(ctx, actor.TenantID, finance.AuditResourcePayment, p.ID)
		require.NoError(t, err)
		assert.Empty(t, events)
	})
}

func TestReferenceReaders(t *testing.T) {
	ctx := context.Background()
	db := setupTestDB(t)
	tenantID := uuid.New()
	poNumber := "PO-100"

	invoice := models.InvoiceModel{
		ID:               uuid.New(),
		TenantID:         tenantID,
		VendorID:         uuid.New(),
		InvoiceNumber:    "INV-1",
		Status:           finance.InvoiceStatusSubmitted,
		PONumber:         &poNumber,
		TotalAmountCents: 3000,
	}
	require.NoError(t, db.Create(&invoice).Error)
	for _, n := range []int{2, 1} {
		require.NoError(t, db.Create(&models.InvoiceLineModel{
			ID:             uuid.New(),
			InvoiceID:      invoice.ID,
			LineNumber:     n,
			Quantity:       decimal.NewFromInt(int64(n)),
			UnitPriceCents: 1000,
			AmountCents:    int64(n) * 1000,
		}).Error)
	}

	po := models.PurchaseOrderModel{ID: uuid.New(), TenantID: tenantID, PONumber: poNumber, VendorID: invoice.VendorID, TotalAmountCents: 3000}
	require.NoError(t, db.Create(&po).Error)
	require.NoError(t, db.Create(&models.PurchaseOrderLineModel{
		ID: uuid.New(), PurchaseOrderID: po.ID, LineNumber: 1,
		OrderedQuantity: decimal.NewFromInt(3), UnitPriceCents: 1000, AmountCents: 3000,
	}).Error)

	grn := models.GoodsReceiptModel{ID: uuid.New(), TenantID: tenantID, PONumber: poNumber, GRNNumber: "GRN-7", ReceivedAt: time.Now().UTC()}
	require.NoError(t, db.Create(&grn).Error)
	require.NoError(t, db.Create(&models.GoodsReceiptLineModel{
		ID: uuid.New(), GoodsReceiptID: grn.ID, LineNumber: 1, ReceivedQuantity: decimal.NewFromInt(3),
	}).Error)

	t.Run("invoice lines come back ordered", func(t *testing.T) {
		got, err := NewGormInvoiceReader(db).FindForMatch(ctx, tenantID, invoice.ID)
		require.NoError(t, err)
		require.Len(t, got.Lines, 2)
		assert.Equal(t, 1, got.Lines[0].LineNumber)
		assert.Equal(t, 2, got.Lines[1].LineNumber)
		assert.True(t, got.IsSubmitted())

		_, err = NewGormInvoiceReader(db).FindForMatch(ctx, uuid.New(), invoice.ID)
		assert.ErrorIs(t, err, shared.ErrNotFound)
	})

	t.Run("purchase order by number", func(t *testing.T) {
		got, err := NewGormPurchaseOrderReader(db).FindByNumber(ctx, tenantID, poNumber)
		require.NoError(t, err)
		require.Len(t, got.Lines, 1)
		assert.True(t, got.Lines[0].OrderedQuantity.Equal(decimal.NewFromInt(3)))

		_, err = NewGormPurchaseOrderReader(db).FindByNumber(ctx, tenantID, "PO-404")
		assert.ErrorIs(t, err, shared.ErrNotFound)
	})

	t.Run("goods receipts", func(t *testing.T) {
		got, err := NewGormGoodsReceiptReader(db).FindByPONumber(ctx, tenantID, poNumber)
		require.NoError(t, err)
		require.Len(t, got, 1)
		assert.Equal(t, "GRN-7", got[0].GRNNumber)

		none, err := NewGormGoodsReceiptReader(db).FindByPONumber(ctx, tenantID, "PO-404")
		require.NoError(t, err)
		assert.NotNil(t, none)
		assert.Empty(t, none)
	})
}

func TestGormMatchPolicyProvider(t *testing.T) {
	ctx := context.Background()
	db := setupTestDB(t)
	tenantID := uuid.New()
	vendorID := uuid.New()

	stored := finance.MatchPolicy{
		Mode: finance.MatchModeTwoWay,
		Tolerance: finance.ToleranceConfig{
			Price: finance.ToleranceBand{Percent: decimal.NewFromInt(2)},
		},
	}
	require.NoError(t, NewGormMatchPolicyProvider(db, nil).SavePolicy(ctx, tenantID, vendorID, stored))

	t.Run("vendor row wins", func(t *testing.T) {
		fallback := &finance.MatchPolicy{Mode: finance.MatchModeThreeWay}
		got, err := NewGormMatchPolicyProvider(db, fallback).PolicyForVendor(ctx, tenantID, vendorID)
		require.NoError(t, err)
		assert.Equal(t, finance.MatchModeTwoWay, got.Mode)
		assert.True(t, got.Tolerance.Price.Percent.Equal(decimal.NewFromInt(2)))
	})

	t.Run("fallback for unknown vendor", func(t *testing.T) {
		fallback := &finance.MatchPolicy{Mode: finance.MatchModeThreeWay}
		got, err := NewGormMatchPolicyProvider(db, fallback).PolicyForVendor(ctx, tenantID, uuid.New())
		require.NoError(t, err)
		assert.Equal(t, finance.MatchModeThreeWay, got.Mode)
		got.Mode = finance.MatchModeOneWay
		assert.Equal(t, finance.MatchModeThreeWay, fallback.Mode, "callers get a copy")
	})

	t.Run("unconfigured without fallback", func(t *testing.T) {
		_, err := NewGormMatchPolicyProvider(db, nil).PolicyForVendor(ctx, tenantID, uuid.New())
		assert.ErrorIs(t, err, finance.ErrMatchModeNotConfigured)
	})

	t.Run("invalid policy is not saved", func(t *testing.T) {
		err := NewGormMatchPolicyProvider(db, nil).SavePolicy(ctx, tenantID, uuid.New(), finance.MatchPolicy{Mode: "4-way"})
		assert.ErrorIs(t, err, finance.ErrMatchModeNotConfigured)
	})
}

func TestGormFiscalCalendar(t *testing.T) {
	ctx := context.Background()
	db := setupTestDB(t)
	tenantID := uuid.New()

	strict := NewGormFiscalCalendar(db, true)
	lenient := NewGormFiscalCalendar(db, false)

	periods := []finance.FiscalPeriod{
		{TenantID: tenantID, Name: "2026-02", StartDate: time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC), EndDate: time.Date(2026, 2, 28, 0, 0, 0, 0, time.UTC), Status: finance.FiscalPeriodHardClose},
		{TenantID: tenantID, Name: "2026-03", StartDate: time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC), EndDate: time.Date(2026, 3, 31, 0, 0, 0, 0, time.UTC), Status: finance.FiscalPeriodSoftClose},
	}
	for _, p := range periods {
		require.NoError(t, strict.SavePeriod(ctx, p))
	}

	tests := []struct {
		name     string
		calendar *GormFiscalCalendar
		date     time.Time
		want     bool
	}{
		{"hard closed", strict, time.Date(2026, 2, 14, 10, 0, 0, 0, time.UTC), false},
		{"last day of closed period", strict, time.Date(2026, 2, 28, 23, 59, 0, 0, time.UTC), false},
		{"soft close still open", strict, time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC), true},
		{"undefined strict", strict, time.Date(2026, 4, 1, 0, 0, 0, 0, time.UTC), false},
		{"undefined lenient", lenient, time.Date(2026, 4, 1, 0, 0, 0, 0, time.UTC), true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			open, err := tt.calendar.IsPeriodOpen(ctx, tenantID, tt.date)
			require.NoError(t, err)
			assert.Equal(t, tt.want, open)
		})
	}

	t.Run("other tenant sees no periods", func(t *testing.T) {
		open, err := strict.IsPeriodOpen(ctx, uuid.New(), time.Date(2026, 2, 14, 0, 0, 0, 0, time.UTC))
		require.NoError(t, err)
		assert.False(t, open)
	})

	t.Run("invalid period rejected", func(t *testing.T) {
		err := strict.SavePeriod(ctx, finance.FiscalPeriod{TenantID: tenantID, Status: "ARCHIVED"})
		assert.ErrorIs(t, err, finance.ErrInvalidFiscalPeriod)
	})
}

func TestGormGLPostingQueue(t *testing.T) {
	ctx := context.Background()
	db := setupTestDB(t)
	queue := NewGormGLPostingQueue(db)
	actor := testActor()

	p := newTestPayment(t, actor, "gl")
	assert.Error(t, queue.Post(ctx, p), "draft payments are not posted")

	p.Status = finance.PaymentStatusCompleted
	require.NoError(t, queue.Post(ctx, p))
	require.NoError(t, queue.Post(ctx, p), "second post is a no-op")

	pending, err := queue.Pending(ctx, actor.TenantID)
	require.NoError(t, err)
	require.Len(t, pending, 1)
	assert.Equal(t, p.ID, pending[0].PaymentID)
	assert.True(t, pending[0].Amount.Equal(p.Amount))
	assert.Equal(t, models.GLPostingPending, pending[0].Status)
}

func TestMatchPolicyFromConfig(t *testing.T) {
	t.Run("empty mode leaves vendors unconfigured", func(t *testing.T) {
		policy, err := MatchPolicyFromConfig(matchConfig("", "", ""))
		require.NoError(t, err)
		assert.Nil(t, policy)
	})

	t.Run("parses mode and bands", func(t *testing.T) {
		policy, err := MatchPolicyFromConfig(matchConfig("3-way", "50", "1.5"))
		require.NoError(t, err)
		require.NotNil(t, policy)
		assert.Equal(t, finance.MatchModeThreeWay, policy.Mode)
		assert.True(t, policy.Tolerance.Price.Absolute.Equal(decimal.NewFromInt(50)))
		assert.True(t, policy.Tolerance.Price.Percent.Equal(decimal.RequireFromString("1.5")))
		assert.True(t, policy.Tolerance.Quantity.Absolute.IsZero())
	})

	t.Run("rejects garbage", func(t *testing.T) {
		_, err := MatchPolicyFromConfig(matchConfig("3-way", "lots", ""))
		assert.Error(t, err)
		_, err = MatchPolicyFromConfig(matchConfig("3-way", "-1", ""))
		assert.Error(t, err)
		_, err = MatchPolicyFromConfig(matchConfig("5-way", "", ""))
		assert.Error(t, err)
	})
}

func matchConfig(mode, priceAbsolute, pricePercent string) config.MatchConfig {
	return config.MatchConfig{
		DefaultMode:    mode,
		PriceTolerance: config.ToleranceSetting{Absolute: priceAbsolute, Percent: pricePercent},
	}
}
