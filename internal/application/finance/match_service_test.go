package finance

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/erp/apcontrols/internal/domain/finance"
	"github.com/erp/apcontrols/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type matchFixture struct {
	repos     *testRepos
	invoices  *MockInvoiceReader
	pos       *MockPurchaseOrderReader
	grns      *MockGoodsReceiptReader
	policies  *MockMatchPolicyProvider
	publisher *MockEventPublisher
	service   *MatchService
	actor     finance.Actor
}

func newMatchFixture() *matchFixture {
	f := &matchFixture{
		repos:     newTestRepos(),
		invoices:  new(MockInvoiceReader),
		pos:       new(MockPurchaseOrderReader),
		grns:      new(MockGoodsReceiptReader),
		policies:  new(MockMatchPolicyProvider),
		publisher: new(MockEventPublisher),
		actor:     newActor(uuid.New(), "ap_clerk"),
	}
	f.service = NewMatchService(MatchServiceConfig{
		Invoices:       f.invoices,
		PurchaseOrders: f.pos,
		GoodsReceipts:  f.grns,
		Policies:       f.policies,
		MatchRepo:      f.repos.matches,
		TxScope:        f.repos.scope,
		EventPublisher: f.publisher,
		Logger:         zap.NewNop(),
	})
	return f
}

// matchVendorID owns the invoices and POs built by this fixture
var matchVendorID = uuid.New()

func (f *matchFixture) invoice(poNumber *string, qty string, unitCents int64) *finance.InvoiceForMatch {
	q := decimal.RequireFromString(qty)
	amount := q.Mul(decimal.NewFromInt(unitCents)).IntPart()
	return &finance.InvoiceForMatch{
		ID:               uuid.New(),
		TenantID:         f.actor.TenantID,
		VendorID:         matchVendorID,
		InvoiceNumber:    "INV-1001",
		Status:           finance.InvoiceStatusSubmitted,
		PONumber:         poNumber,
		TotalAmountCents: amount,
		Lines: []finance.InvoiceLine{
			{LineNumber: 1, Quantity: q, UnitPriceCents: unitCents, AmountCents: amount},
		},
	}
}

func singleLinePO(number, qty string, unitCents int64) *finance.PurchaseOrderData {
	q := decimal.RequireFromString(qty)
	amount := q.Mul(decimal.NewFromInt(unitCents)).IntPart()
	return &finance.PurchaseOrderData{
		PONumber:         number,
		VendorID:         matchVendorID,
		TotalAmountCents: amount,
		Lines: []finance.PurchaseOrderLine{
			{LineNumber: 1, OrderedQuantity: q, UnitPriceCents: unitCents, AmountCents: amount},
		},
	}
}

func singleLineGRN(poNumber, received string) []finance.GoodsReceiptData {
	return []finance.GoodsReceiptData{{
		GRNNumber:  "GRN-1",
		PONumber:   poNumber,
		ReceivedAt: time.Now(),
		Lines:      []finance.GoodsReceiptLine{{LineNumber: 1, ReceivedQuantity: decimal.RequireFromString(received)}},
	}}
}

// expectPersisted wires the happy-path transaction and event expectations
func (f *matchFixture) expectPersisted(withException bool) {
	f.repos.matches.On("Create", mock.Anything, mock.AnythingOfType("*finance.MatchResult")).Return(nil).Once()
	if withException {
		f.repos.exceptions.On("Create", mock.Anything, mock.AnythingOfType("*finance.MatchException")).Return(nil).Once()
	}
	f.repos.audit.On("Record", mock.Anything, auditOf(finance.AuditMatchEvaluated)).Return(nil).Once()
	f.publisher.On("Publish", mock.Anything, mock.Anything).Return(nil).Once()
}

func strPtr(s string) *string { return &s }

func TestMatchService_Evaluate_OneWayPasses(t *testing.T) {
	f := newMatchFixture()
	ctx := context.Background()
	invoice := f.invoice(nil, "3", 2500)

	f.invoices.On("FindForMatch", mock.Anything, f.actor.TenantID, invoice.ID).Return(invoice, nil)
	f.repos.matches.On("ExistsForInvoice", mock.Anything, f.actor.TenantID, invoice.ID).Return(false, nil)
	f.policies.On("PolicyForVendor", mock.Anything, f.actor.TenantID, invoice.VendorID).
		Return(&finance.MatchPolicy{Mode: finance.MatchModeOneWay}, nil)
	f.expectPersisted(false)

	result, err := f.service.Evaluate(ctx, invoice.ID, f.actor)

	require.NoError(t, err)
	assert.Equal(t, finance.MatchStatusPassed, result.Status)
	assert.Equal(t, finance.MatchModeOneWay, result.MatchMode)
	assert.Equal(t, 1, result.Version)
	assert.Equal(t, f.actor.UserID, result.CreatedBy)
	f.pos.AssertNotCalled(t, "FindByNumber", mock.Anything, mock.Anything, mock.Anything)
	f.repos.exceptions.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
	f.repos.audit.AssertExpectations(t)
	f.publisher.AssertExpectations(t)
}

func TestMatchService_Evaluate_TwoWayWithoutPOReference(t *testing.T) {
	f := newMatchFixture()
	ctx := context.Background()
	invoice := f.invoice(nil, "1", 1000)

	f.invoices.On("FindForMatch", mock.Anything, f.actor.TenantID, invoice.ID).Return(invoice, nil)
	f.repos.matches.On("ExistsForInvoice", mock.Anything, f.actor.TenantID, invoice.ID).Return(false, nil)
	f.policies.On("PolicyForVendor", mock.Anything, f.actor.TenantID, invoice.VendorID).
		Return(&finance.MatchPolicy{Mode: finance.MatchModeTwoWay}, nil)
	f.expectPersisted(true)

	result, err := f.service.Evaluate(ctx, invoice.ID, f.actor)

	require.NoError(t, err)
	assert.Equal(t, finance.MatchStatusException, result.Status)
	require.NotNil(t, result.ExceptionCode)
	assert.Equal(t, finance.ExceptionCodeMissingPO, *result.ExceptionCode)
	assert.False(t, result.WithinTolerance)
	f.repos.exceptions.AssertExpectations(t)
}

func TestMatchService_Evaluate_TwoWayUnknownPONumber(t *testing.T) {
	f := newMatchFixture()
	ctx := context.Background()
	invoice := f.invoice(strPtr("PO-404"), "1", 1000)

	f.invoices.On("FindForMatch", mock.Anything, f.actor.TenantID, invoice.ID).Return(invoice, nil)
	f.repos.matches.On("ExistsForInvoice", mock.Anything, f.actor.TenantID, invoice.ID).Return(false, nil)
	f.policies.On("PolicyForVendor", mock.Anything, f.actor.TenantID, invoice.VendorID).
		Return(&finance.MatchPolicy{Mode: finance.MatchModeTwoWay}, nil)
	f.pos.On("FindByNumber", mock.Anything, f.actor.TenantID, "PO-404").Return(nil, shared.ErrNotFound)
	f.expectPersisted(true)

	result, err := f.service.Evaluate(ctx, invoice.ID, f.actor)

	require.NoError(t, err)
	require.NotNil(t, result.ExceptionCode)
	assert.Equal(t, finance.ExceptionCodeMissingPO, *result.ExceptionCode)
}

func TestMatchService_Evaluate_ThreeWayInsufficientReceipt(t *testing.T) {
	f := newMatchFixture()
	ctx := context.Background()
	invoice := f.invoice(strPtr("PO-7"), "2", 1500)

	f.invoices.On("FindForMatch", mock.Anything, f.actor.TenantID, invoice.ID).Return(invoice, nil)
	f.repos.matches.On("ExistsForInvoice", mock.Anything, f.actor.TenantID, invoice.ID).Return(false, nil)
	f.policies.On("PolicyForVendor", mock.Anything, f.actor.TenantID, invoice.VendorID).
		Return(&finance.MatchPolicy{Mode: finance.MatchModeThreeWay}, nil)
	f.pos.On("FindByNumber", mock.Anything, f.actor.TenantID, "PO-7").Return(singleLinePO("PO-7", "2", 1500), nil)
	f.grns.On("FindByPONumber", mock.Anything, f.actor.TenantID, "PO-7").Return(singleLineGRN("PO-7", "1"), nil)
	f.expectPersisted(true)

	result, err := f.service.Evaluate(ctx, invoice.ID, f.actor)

	require.NoError(t, err)
	assert.Equal(t, finance.MatchStatusException, result.Status)
	require.NotNil(t, result.ExceptionCode)
	assert.Equal(t, finance.ExceptionCodeInsufficientReceipt, *result.ExceptionCode)
}

func TestMatchService_Evaluate_ThreeWayFullyReceivedPasses(t *testing.T) {
	f := newMatchFixture()
	ctx := context.Background()
	invoice := f.invoice(strPtr("PO-8"), "4", 1000)

	f.invoices.On("FindForMatch", mock.Anything, f.actor.TenantID, invoice.ID).Return(invoice, nil)
	f.repos.matches.On("ExistsForInvoice", mock.Anything, f.actor.TenantID, invoice.ID).Return(false, nil)
	f.policies.On("PolicyForVendor", mock.Anything, f.actor.TenantID, invoice.VendorID).
		Return(&finance.MatchPolicy{Mode: finance.MatchModeThreeWay}, nil)
	f.pos.On("FindByNumber", mock.Anything, f.actor.TenantID, "PO-8").Return(singleLinePO("PO-8", "4", 1000), nil)
	f.grns.On("FindByPONumber", mock.Anything, f.actor.TenantID, "PO-8").Return(singleLineGRN("PO-8", "4"), nil)
	f.expectPersisted(false)

	result, err := f.service.Evaluate(ctx, invoice.ID, f.actor)

	require.NoError(t, err)
	assert.Equal(t, finance.MatchStatusPassed, result.Status)
	assert.True(t, result.WithinTolerance)
	assert.Equal(t, []string{"GRN-1"}, result.Detail.GRNNumbers)
}

func TestMatchService_Evaluate_Preconditions(t *testing.T) {
	t.Run("invoice not found", func(t *testing.T) {
		f := newMatchFixture()
		invoiceID := uuid.New()
		f.invoices.On("FindForMatch", mock.Anything, f.actor.TenantID, invoiceID).Return(nil, shared.ErrNotFound)

		result, err := f.service.Evaluate(context.Background(), invoiceID, f.actor)

		assert.Nil(t, result)
		assert.ErrorIs(t, err, finance.ErrInvoiceNotFoundForMatch)
		kind, _ := shared.KindOf(err)
		assert.Equal(t, shared.KindNotFound, kind)
	})

	t.Run("invoice not submitted", func(t *testing.T) {
		f := newMatchFixture()
		invoice := f.invoice(nil, "1", 100)
		invoice.Status = "draft"
		f.invoices.On("FindForMatch", mock.Anything, f.actor.TenantID, invoice.ID).Return(invoice, nil)

		_, err := f.service.Evaluate(context.Background(), invoice.ID, f.actor)

		assert.ErrorIs(t, err, finance.ErrInvoiceNotSubmitted)
		f.repos.matches.AssertNotCalled(t, "ExistsForInvoice", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("second evaluation conflicts", func(t *testing.T) {
		f := newMatchFixture()
		invoice := f.invoice(nil, "1", 100)
		f.invoices.On("FindForMatch", mock.Anything, f.actor.TenantID, invoice.ID).Return(invoice, nil)
		f.repos.matches.On("ExistsForInvoice", mock.Anything, f.actor.TenantID, invoice.ID).Return(true, nil)

		_, err := f.service.Evaluate(context.Background(), invoice.ID, f.actor)

		assert.ErrorIs(t, err, finance.ErrMatchAlreadyExists)
		assert.True(t, shared.IsConflict(err))
		f.repos.matches.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
	})

	t.Run("vendor without match mode", func(t *testing.T) {
		f := newMatchFixture()
		invoice := f.invoice(nil, "1", 100)
		f.invoices.On("FindForMatch", mock.Anything, f.actor.TenantID, invoice.ID).Return(invoice, nil)
		f.repos.matches.On("ExistsForInvoice", mock.Anything, f.actor.TenantID, invoice.ID).Return(false, nil)
		f.policies.On("PolicyForVendor", mock.Anything, f.actor.TenantID, invoice.VendorID).Return(nil, nil)

		_, err := f.service.Evaluate(context.Background(), invoice.ID, f.actor)

		assert.ErrorIs(t, err, finance.ErrMatchModeNotConfigured)
		kind, _ := shared.KindOf(err)
		assert.Equal(t, shared.KindUnconfigured, kind)
	})

	t.Run("invalid actor", func(t *testing.T) {
		f := newMatchFixture()

		_, err := f.service.Evaluate(context.Background(), uuid.New(), finance.Actor{})

		require.Error(t, err)
		f.invoices.AssertNotCalled(t, "FindForMatch", mock.Anything, mock.Anything, mock.Anything)
	})
}

func TestMatchService_Evaluate_UniqueViolationOnCreate(t *testing.T) {
	f := newMatchFixture()
	ctx := context.Background()
	invoice := f.invoice(nil, "1", 100)

	f.invoices.On("FindForMatch", mock.Anything, f.actor.TenantID, invoice.ID).Return(invoice, nil)
	f.repos.matches.On("ExistsForInvoice", mock.Anything, f.actor.TenantID, invoice.ID).Return(false, nil)
	f.policies.On("PolicyForVendor", mock.Anything, f.actor.TenantID, invoice.VendorID).
		Return(&finance.MatchPolicy{Mode: finance.MatchModeOneWay}, nil)
	f.repos.matches.On("Create", mock.Anything, mock.Anything).Return(finance.NewMatchAlreadyExistsError(invoice.ID))

	_, err := f.service.Evaluate(ctx, invoice.ID, f.actor)

	assert.ErrorIs(t, err, finance.ErrMatchAlreadyExists)
	f.repos.audit.AssertNotCalled(t, "Record", mock.Anything, mock.Anything)
	f.publisher.AssertNotCalled(t, "Publish", mock.Anything, mock.Anything)
}

func TestMatchService_Evaluate_StorageFailurePropagates(t *testing.T) {
	f := newMatchFixture()
	ctx := context.Background()
	invoice := f.invoice(nil, "1", 100)
	dbErr := errors.New("connection reset")

	f.invoices.On("FindForMatch", mock.Anything, f.actor.TenantID, invoice.ID).Return(invoice, nil)
	f.repos.matches.On("ExistsForInvoice", mock.Anything, f.actor.TenantID, invoice.ID).Return(false, nil)
	f.policies.On("PolicyForVendor", mock.Anything, f.actor.TenantID, invoice.VendorID).
		Return(&finance.MatchPolicy{Mode: finance.MatchModeOneWay}, nil)
	f.repos.matches.On("Create", mock.Anything, mock.Anything).Return(nil)
	f.repos.audit.On("Record", mock.Anything, mock.Anything).Return(dbErr)

	_, err := f.service.Evaluate(ctx, invoice.ID, f.actor)

	assert.ErrorIs(t, err, dbErr)
	f.publisher.AssertNotCalled(t, "Publish", mock.Anything, mock.Anything)
}

func TestMatchService_Evaluate_PublishFailureIsLoggedOnly(t *testing.T) {
	f := newMatchFixture()
	ctx := context.Background()
	invoice := f.invoice(nil, "1", 100)

	f.invoices.On("FindForMatch", mock.Anything, f.actor.TenantID, invoice.ID).Return(invoice, nil)
	f.repos.matches.On("ExistsForInvoice", mock.Anything, f.actor.TenantID, invoice.ID).Return(false, nil)
	f.policies.On("PolicyForVendor", mock.Anything, f.actor.TenantID, invoice.VendorID).
		Return(&finance.MatchPolicy{Mode: finance.MatchModeOneWay}, nil)
	f.repos.matches.On("Create", mock.Anything, mock.Anything).Return(nil)
	f.repos.audit.On("Record", mock.Anything, mock.Anything).Return(nil)
	f.publisher.On("Publish", mock.Anything, mock.Anything).Return(errors.New("broker down"))

	result, err := f.service.Evaluate(ctx, invoice.ID, f.actor)

	require.NoError(t, err)
	assert.Equal(t, finance.MatchStatusPassed, result.Status)
}

func TestMatchService_GetByInvoice_NotFound(t *testing.T) {
	f := newMatchFixture()
	invoiceID := uuid.New()
	f.repos.matches.On("FindByInvoice", mock.Anything, f.actor.TenantID, invoiceID).Return(nil, shared.ErrNotFound)

	_, err := f.service.GetByInvoice(context.Background(), f.actor, invoiceID)

	assert.ErrorIs(t, err, finance.ErrMatchResultNotFound)
}
