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

// ApprovalService approves pending payments under segregation of duties
type ApprovalService struct {
	approvalRepo finance.PaymentApprovalRepository
	txScope      TransactionScope
	metrics      *telemetry.ControlMetrics
	events       eventDispatcher
	logger       *zap.Logger
}

// ApprovalServiceConfig holds the collaborators of ApprovalService
type ApprovalServiceConfig struct {
	ApprovalRepo   finance.PaymentApprovalRepository
	TxScope        TransactionScope
	EventPublisher shared.EventPublisher
	Metrics        *telemetry.ControlMetrics
	Logger         *zap.Logger
}

// NewApprovalService creates a new ApprovalService
func NewApprovalService(cfg ApprovalServiceConfig) *ApprovalService {
	logger := loggerOrNop(cfg.Logger)
	return &ApprovalService{
		approvalRepo: cfg.ApprovalRepo,
		txScope:      cfg.TxScope,
		metrics:      cfg.Metrics,
		events:       eventDispatcher{publisher: cfg.EventPublisher, logger: logger},
		logger:       logger,
	}
}

// Approve approves a pending_approval payment and records one approval row.
// A stale version is reported before the status and creator checks.
func (s *ApprovalService) Approve(
	ctx context.Context,
	paymentID uuid.UUID,
	actor finance.Actor,
	expectedVersion int,
	comment string,
) (*finance.Payment, error) {
	return mutatePayment(ctx, s.txScope, s.metrics, s.events, s.logger, paymentID, actor, expectedVersion, paymentMutation{
		operation: "approve",
		auditType: finance.AuditPaymentApproved,
		apply:     func(p *finance.Payment) error { return p.Approve(actor) },
		afterUpdate: func(ctx context.Context, repos TransactionalRepositories, p *finance.Payment) error {
			if err := repos.PaymentApprovals().Create(ctx, finance.NewPaymentApproval(p, actor, comment)); err != nil {
				return fmt.Errorf("failed to record payment approval: %w", err)
			}
			return nil
		},
	})
}

// History lists the approvals recorded for a payment, oldest first
func (s *ApprovalService) History(ctx context.Context, actor finance.Actor, paymentID uuid.UUID) ([]finance.PaymentApproval, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "payment", "approval_history")
	defer span.End()

	approvals, err := s.approvalRepo.ListByPayment(ctx, actor.TenantID, paymentID)
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, fmt.Errorf("failed to list payment approvals: %w", err)
	}
	return approvals, nil
}
