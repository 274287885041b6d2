package finance

import (
	"context"
	"fmt"

	"github.com/erp/apcontrols/internal/domain/finance"
	"github.com/erp/apcontrols/internal/domain/shared"
	"github.com/erp/apcontrols/internal/infrastructure/telemetry"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// ExecutionService drives a payment through submit, execute, complete, fail and retry
type ExecutionService struct {
	txScope  TransactionScope
	glPoster finance.GLPoster
	metrics  *telemetry.ControlMetrics
	events   eventDispatcher
	logger   *zap.Logger
}

// ExecutionServiceConfig holds the collaborators of ExecutionService
type ExecutionServiceConfig struct {
	TxScope        TransactionScope
	GLPoster       finance.GLPoster
	EventPublisher shared.EventPublisher
	Metrics        *telemetry.ControlMetrics
	Logger         *zap.Logger
}

// NewExecutionService creates a new ExecutionService
func NewExecutionService(cfg ExecutionServiceConfig) *ExecutionService {
	logger := loggerOrNop(cfg.Logger)
	return &ExecutionService{
		txScope:  cfg.TxScope,
		glPoster: cfg.GLPoster,
		metrics:  cfg.Metrics,
		events:   eventDispatcher{publisher: cfg.EventPublisher, logger: logger},
		logger:   logger,
	}
}

// paymentMutation describes one lifecycle step applied under a version check
type paymentMutation struct {
	operation string
	auditType string
	apply     func(p *finance.Payment) error
	// afterUpdate runs inside the transaction once the payment row is written
	afterUpdate func(ctx context.Context, repos TransactionalRepositories, p *finance.Payment) error
}

// Submit moves a draft payment to pending_approval
func (s *ExecutionService) Submit(ctx context.Context, paymentID uuid.UUID, actor finance.Actor, expectedVersion int) (*finance.Payment, error) {
	return mutatePayment(ctx, s.txScope, s.metrics, s.events, s.logger, paymentID, actor, expectedVersion, paymentMutation{
		operation: "submit",
		auditType: finance.AuditPaymentSubmitted,
		apply:     func(p *finance.Payment) error { return p.Submit(actor) },
	})
}

// Execute moves an approved payment to processing
func (s *ExecutionService) Execute(ctx context.Context, paymentID uuid.UUID, actor finance.Actor, expectedVersion int) (*finance.Payment, error) {
	return mutatePayment(ctx, s.txScope, s.metrics, s.events, s.logger, paymentID, actor, expectedVersion, paymentMutation{
		operation: "execute",
		auditType: finance.AuditPaymentProcessing,
		apply:     func(p *finance.Payment) error { return p.StartProcessing(actor) },
	})
}

// Complete moves a processing payment to completed, then posts it to the general ledger.
// The transition is committed before posting. A posting failure does not revert it:
// the completed payment is returned together with a *finance.GLPostingError for the
// caller to reconcile.
func (s *ExecutionService) Complete(ctx context.Context, paymentID uuid.UUID, actor finance.Actor, expectedVersion int) (*finance.Payment, error) {
	payment, err := mutatePayment(ctx, s.txScope, s.metrics, s.events, s.logger, paymentID, actor, expectedVersion, paymentMutation{
		operation: "complete",
		auditType: finance.AuditPaymentCompleted,
		apply:     func(p *finance.Payment) error { return p.Complete(actor) },
	})
	if err != nil {
		return nil, err
	}
	if s.glPoster == nil {
		return payment, nil
	}

	ctx, span := telemetry.StartServiceSpan(ctx, "payment", "gl_post")
	defer span.End()
	telemetry.SetAttribute(span, telemetry.SpanAttrPaymentID, payment.ID.String())

	if err := s.glPoster.Post(ctx, payment); err != nil {
		telemetry.RecordError(span, err)
		s.metrics.RecordGLPostingFailure(ctx)
		s.logger.Error("GL posting failed after payment completion",
			zap.String("tenant_id", payment.TenantID.String()),
			zap.String("payment_id", payment.ID.String()),
			zap.Int("version", payment.Version),
			zap.Error(err))
		return payment, &finance.GLPostingError{Payment: payment, Cause: err}
	}
	return payment, nil
}

// Fail moves a processing payment to failed
func (s *ExecutionService) Fail(ctx context.Context, paymentID uuid.UUID, reason string, actor finance.Actor, expectedVersion int) (*finance.Payment, error) {
	return mutatePayment(ctx, s.txScope, s.metrics, s.events, s.logger, paymentID, actor, expectedVersion, paymentMutation{
		operation: "fail",
		auditType: finance.AuditPaymentFailed,
		apply:     func(p *finance.Payment) error { return p.Fail(reason, actor) },
	})
}

// Retry moves a failed payment back to pending_approval
func (s *ExecutionService) Retry(ctx context.Context, paymentID uuid.UUID, actor finance.Actor, expectedVersion int) (*finance.Payment, error) {
	return mutatePayment(ctx, s.txScope, s.metrics, s.events, s.logger, paymentID, actor, expectedVersion, paymentMutation{
		operation: "retry",
		auditType: finance.AuditPaymentRetried,
		apply:     func(p *finance.Payment) error { return p.Retry(actor) },
	})
}

// mutatePayment loads a payment, checks the expected version before the state
// machine, applies the step and writes the payment with its audit event in one transaction.
func mutatePayment(
	ctx context.Context,
	txScope TransactionScope,
	metrics *telemetry.ControlMetrics,
	events eventDispatcher,
	logger *zap.Logger,
	paymentID uuid.UUID,
	actor finance.Actor,
	expectedVersion int,
	m paymentMutation,
) (*finance.Payment, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "payment", m.operation)
	defer span.End()

	telemetry.SetAttributes(span,
		telemetry.SpanAttrTenantID, actor.TenantID.String(),
		telemetry.SpanAttrActorID, actor.UserID.String(),
		telemetry.SpanAttrPaymentID, paymentID.String(),
		telemetry.SpanAttrExpectedVersion, expectedVersion,
	)

	if err := actor.Validate(); err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}

	var (
		payment *finance.Payment
		from    finance.PaymentStatus
	)
	err := txScope.Execute(ctx, func(repos TransactionalRepositories) error {
		var err error
		payment, err = repos.Payments().FindByID(ctx, actor.TenantID, paymentID)
		if err != nil {
			if isNotFound(err) {
				return finance.ErrPaymentNotFound.WithDetails("payment_id", paymentID.String())
			}
			return fmt.Errorf("failed to load payment: %w", err)
		}

		if err := payment.CheckVersion(expectedVersion); err != nil {
			return err
		}

		from = payment.Status
		if err := m.apply(payment); err != nil {
			return err
		}
		if err := repos.Payments().Update(ctx, payment, expectedVersion); err != nil {
			return err
		}
		if m.afterUpdate != nil {
			if err := m.afterUpdate(ctx, repos, payment); err != nil {
				return err
			}
		}

		payload := map[string]any{
			"from":    string(from),
			"to":      string(payment.Status),
			"version": payment.Version,
		}
		if payment.Status == finance.PaymentStatusFailed {
			payload["reason"] = payment.FailureReason
		}
		return repos.Audit().Record(ctx, finance.NewAuditEvent(
			m.auditType,
			actor,
			finance.AuditResourcePayment,
			payment.ID,
			payload,
		))
	})
	if err != nil {
		telemetry.RecordError(span, err)
		if shared.IsConflict(err) {
			metrics.RecordConcurrencyConflict(ctx, finance.AuditResourcePayment)
		}
		return nil, err
	}

	telemetry.SetAttribute(span, telemetry.SpanAttrPaymentStatus, payment.Status.String())
	metrics.RecordPaymentTransition(ctx, from.String(), payment.Status.String())
	logger.Info("Payment status changed",
		zap.String("tenant_id", actor.TenantID.String()),
		zap.String("payment_id", payment.ID.String()),
		zap.String("from", from.String()),
		zap.String("to", payment.Status.String()),
		zap.Int("version", payment.Version))

	events.dispatch(ctx, payment.PullDomainEvents()...)

	return payment, nil
}
