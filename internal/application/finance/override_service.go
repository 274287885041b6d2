package finance

import (
	"context"
	"fmt"
	"strings"

	"github.com/erp/apcontrols/internal/domain/finance"
	"github.com/erp/apcontrols/internal/domain/shared"
	"github.com/erp/apcontrols/internal/infrastructure/telemetry"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// OverrideInput is the caller-supplied part of an override
type OverrideInput struct {
	Reason string `json:"reason"`
}

// OverrideService manually passes exception-status match results
type OverrideService struct {
	permissions finance.OverridePermissionChecker
	txScope     TransactionScope
	metrics     *telemetry.ControlMetrics
	events      eventDispatcher
	logger      *zap.Logger
}

// OverrideServiceConfig holds the collaborators of OverrideService
type OverrideServiceConfig struct {
	Permissions    finance.OverridePermissionChecker
	TxScope        TransactionScope
	EventPublisher shared.EventPublisher
	Metrics        *telemetry.ControlMetrics
	Logger         *zap.Logger
}

// NewOverrideService creates a new OverrideService
func NewOverrideService(cfg OverrideServiceConfig) *OverrideService {
	logger := loggerOrNop(cfg.Logger)
	return &OverrideService{
		permissions: cfg.Permissions,
		txScope:     cfg.TxScope,
		metrics:     cfg.Metrics,
		events:      eventDispatcher{publisher: cfg.EventPublisher, logger: logger},
		logger:      logger,
	}
}

// Override forces an exception match result to passed.
// Checks run in order: existence, already overridden, status, segregation of duties,
// permission, reason, version. The linked exception entry is closed in the same transaction.
func (s *OverrideService) Override(
	ctx context.Context,
	matchID uuid.UUID,
	input OverrideInput,
	actor finance.Actor,
	expectedVersion int,
) (*finance.MatchResult, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "match", "override")
	defer span.End()

	telemetry.SetAttributes(span,
		telemetry.SpanAttrTenantID, actor.TenantID.String(),
		telemetry.SpanAttrActorID, actor.UserID.String(),
		telemetry.SpanAttrMatchID, matchID.String(),
		telemetry.SpanAttrExpectedVersion, expectedVersion,
	)

	if err := actor.Validate(); err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}

	var (
		result    *finance.MatchResult
		exception *finance.MatchException
	)
	err := s.txScope.Execute(ctx, func(repos TransactionalRepositories) error {
		var err error
		result, err = repos.MatchResults().FindByID(ctx, actor.TenantID, matchID)
		if err != nil {
			if isNotFound(err) {
				return finance.ErrMatchResultNotFound.WithDetails("match_id", matchID.String())
			}
			return fmt.Errorf("failed to load match result: %w", err)
		}

		if err := result.CanBeOverriddenBy(actor); err != nil {
			return err
		}

		allowed, err := s.permissions.CanOverride(ctx, actor)
		if err != nil {
			return fmt.Errorf("failed to check override permission: %w", err)
		}
		if !allowed {
			return finance.ErrOverrideNotAllowed.WithDetails("user_id", actor.UserID.String(), "role", actor.Role)
		}

		reason := strings.TrimSpace(input.Reason)
		if reason == "" {
			return finance.ErrOverrideReasonRequired
		}

		if err := result.CheckVersion(expectedVersion); err != nil {
			return err
		}

		if err := result.ApplyOverride(actor, reason); err != nil {
			return err
		}
		if err := repos.MatchResults().Update(ctx, result, expectedVersion); err != nil {
			return err
		}

		exception, err = s.closeException(ctx, repos, result, reason, actor)
		if err != nil {
			return err
		}

		return repos.Audit().Record(ctx, finance.NewAuditEvent(
			finance.AuditMatchOverridden,
			actor,
			finance.AuditResourceMatch,
			result.ID,
			map[string]any{
				"reason":        reason,
				"createdBy":     result.CreatedBy.String(),
				"overriddenBy":  actor.UserID.String(),
				"invoice_id":    result.InvoiceID.String(),
				"prior_code":    exceptionCodeLabel(result.ExceptionCode),
				"match_version": result.Version,
			},
		))
	})
	if err != nil {
		telemetry.RecordError(span, err)
		if shared.IsConflict(err) {
			s.metrics.RecordConcurrencyConflict(ctx, finance.AuditResourceMatch)
		}
		return nil, err
	}

	s.metrics.RecordOverride(ctx, exceptionCodeLabel(result.ExceptionCode))
	s.logger.Info("Match result overridden",
		zap.String("tenant_id", actor.TenantID.String()),
		zap.String("match_id", result.ID.String()),
		zap.String("created_by", result.CreatedBy.String()),
		zap.String("overridden_by", actor.UserID.String()))

	events := result.PullDomainEvents()
	if exception != nil {
		events = append(events, exception.PullDomainEvents()...)
	}
	s.events.dispatch(ctx, events...)

	return result, nil
}

// closeException resolves the open queue entry of an overridden match, if any
func (s *OverrideService) closeException(
	ctx context.Context,
	repos TransactionalRepositories,
	result *finance.MatchResult,
	reason string,
	actor finance.Actor,
) (*finance.MatchException, error) {
	exception, err := repos.MatchExceptions().FindByMatchResult(ctx, result.TenantID, result.ID)
	if err != nil {
		if isNotFound(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to load match exception: %w", err)
	}
	if !exception.IsOpen() {
		return nil, nil
	}

	version := exception.Version
	if err := exception.CloseByOverride(reason, actor); err != nil {
		return nil, err
	}
	if err := repos.MatchExceptions().Update(ctx, exception, version); err != nil {
		return nil, err
	}
	return exception, nil
}
