package finance

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/erp/apcontrols/internal/domain/finance"
	"github.com/erp/apcontrols/internal/domain/shared"
	"github.com/erp/apcontrols/internal/infrastructure/telemetry"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// CreatePaymentInput is the caller-supplied payment data
type CreatePaymentInput struct {
	VendorID         uuid.UUID  `json:"vendor_id"`
	VendorName       string     `json:"vendor_name"`
	Amount           string     `json:"amount"`
	Currency         string     `json:"currency"`
	PaymentDate      time.Time  `json:"payment_date"`
	SourceDocumentID *uuid.UUID `json:"source_document_id,omitempty"`
	Memo             string     `json:"memo,omitempty"`
}

// PaymentService creates payments idempotently, gated by the fiscal calendar
type PaymentService struct {
	paymentRepo finance.PaymentRepository
	calendar    finance.FiscalCalendar
	txScope     TransactionScope
	metrics     *telemetry.ControlMetrics
	events      eventDispatcher
	logger      *zap.Logger
}

// PaymentServiceConfig holds the collaborators of PaymentService
type PaymentServiceConfig struct {
	PaymentRepo    finance.PaymentRepository
	Calendar       finance.FiscalCalendar
	TxScope        TransactionScope
	EventPublisher shared.EventPublisher
	Metrics        *telemetry.ControlMetrics
	Logger         *zap.Logger
}

// NewPaymentService creates a new PaymentService
func NewPaymentService(cfg PaymentServiceConfig) *PaymentService {
	logger := loggerOrNop(cfg.Logger)
	return &PaymentService{
		paymentRepo: cfg.PaymentRepo,
		calendar:    cfg.Calendar,
		txScope:     cfg.TxScope,
		metrics:     cfg.Metrics,
		events:      eventDispatcher{publisher: cfg.EventPublisher, logger: logger},
		logger:      logger,
	}
}

// Create records a draft payment. A repeated idempotency key returns the payment
// created first, unchanged, whatever the second caller sent.
func (s *PaymentService) Create(
	ctx context.Context,
	input CreatePaymentInput,
	actor finance.Actor,
	idempotencyKey string,
) (*finance.Payment, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "payment", "create")
	defer span.End()

	telemetry.SetAttributes(span,
		telemetry.SpanAttrTenantID, actor.TenantID.String(),
		telemetry.SpanAttrActorID, actor.UserID.String(),
		telemetry.SpanAttrAmount, input.Amount,
		telemetry.SpanAttrCurrency, input.Currency,
	)

	if err := actor.Validate(); err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}
	key := strings.TrimSpace(idempotencyKey)
	if key == "" {
		telemetry.RecordError(span, finance.ErrIdempotencyKeyRequired)
		return nil, finance.ErrIdempotencyKeyRequired
	}

	existing, err := s.findReplay(ctx, actor.TenantID, key)
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}
	if existing != nil {
		s.metrics.RecordPaymentCreated(ctx, existing.Currency, true)
		telemetry.AddEvent(span, "idempotent_replay", telemetry.SpanAttrPaymentID, existing.ID.String())
		return existing, nil
	}

	if input.PaymentDate.IsZero() {
		err := finance.ErrInvalidPaymentInput.WithMessage("Payment date is required")
		telemetry.RecordError(span, err)
		return nil, err
	}
	open, err := s.calendar.IsPeriodOpen(ctx, actor.TenantID, input.PaymentDate)
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, fmt.Errorf("failed to resolve fiscal period: %w", err)
	}
	if !open {
		err := finance.NewPeriodClosedError(actor.TenantID, input.PaymentDate.Format(time.DateOnly))
		telemetry.RecordError(span, err)
		return nil, err
	}

	payment, err := finance.NewPayment(finance.NewPaymentParams{
		VendorID:         input.VendorID,
		VendorName:       input.VendorName,
		Amount:           input.Amount,
		Currency:         input.Currency,
		PaymentDate:      input.PaymentDate,
		SourceDocumentID: input.SourceDocumentID,
		Memo:             input.Memo,
		IdempotencyKey:   key,
	}, actor)
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}

	err = s.txScope.Execute(ctx, func(repos TransactionalRepositories) error {
		if err := repos.Payments().Create(ctx, payment); err != nil {
			return err
		}
		return repos.Audit().Record(ctx, finance.NewAuditEvent(
			finance.AuditPaymentCreated,
			actor,
			finance.AuditResourcePayment,
			payment.ID,
			map[string]any{
				"vendor_id":       payment.VendorID.String(),
				"amount":          payment.Amount.String(),
				"currency":        payment.Currency,
				"payment_date":    payment.PaymentDate.Format(time.DateOnly),
				"idempotency_key": payment.IdempotencyKey,
			},
		))
	})
	if errors.Is(err, finance.ErrDuplicateIdempotencyKey) {
		// Lost the race to a concurrent create with the same key; the winner's row is authoritative.
		existing, findErr := s.findReplay(ctx, actor.TenantID, key)
		if findErr != nil {
			telemetry.RecordError(span, findErr)
			return nil, findErr
		}
		if existing != nil {
			s.metrics.RecordPaymentCreated(ctx, existing.Currency, true)
			return existing, nil
		}
	}
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}

	telemetry.SetAttribute(span, telemetry.SpanAttrPaymentID, payment.ID.String())
	s.metrics.RecordPaymentCreated(ctx, payment.Currency, false)
	s.logger.Info("Payment created",
		zap.String("tenant_id", actor.TenantID.String()),
		zap.String("payment_id", payment.ID.String()),
		zap.String("amount", payment.Amount.String()),
		zap.String("currency", payment.Currency))

	s.events.dispatch(ctx, payment.PullDomainEvents()...)

	return payment, nil
}

// Get returns a payment for the actor's tenant
func (s *PaymentService) Get(ctx context.Context, actor finance.Actor, id uuid.UUID) (*finance.Payment, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "payment", "get")
	defer span.End()

	payment, err := s.paymentRepo.FindByID(ctx, actor.TenantID, id)
	if err != nil {
		telemetry.RecordError(span, err)
		if isNotFound(err) {
			return nil, finance.ErrPaymentNotFound.WithDetails("payment_id", id.String())
		}
		return nil, fmt.Errorf("failed to get payment: %w", err)
	}
	return payment, nil
}

func (s *PaymentService) findReplay(ctx context.Context, tenantID uuid.UUID, key string) (*finance.Payment, error) {
	existing, err := s.paymentRepo.FindByIdempotencyKey(ctx, tenantID, key)
	if err != nil {
		if isNotFound(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to look up idempotency key: %w", err)
	}
	return existing, nil
}
