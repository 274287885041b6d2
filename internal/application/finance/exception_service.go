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

// ResolveExceptionInput is a reviewer's resolution of a match exception
type ResolveExceptionInput struct {
	Action string `json:"action"`
	Note   string `json:"note"`
}

// ExceptionService manages the queue of unresolved match exceptions
type ExceptionService struct {
	exceptionRepo finance.MatchExceptionRepository
	txScope       TransactionScope
	metrics       *telemetry.ControlMetrics
	events        eventDispatcher
	logger        *zap.Logger
}

// ExceptionServiceConfig holds the collaborators of ExceptionService
type ExceptionServiceConfig struct {
	ExceptionRepo  finance.MatchExceptionRepository
	TxScope        TransactionScope
	EventPublisher shared.EventPublisher
	Metrics        *telemetry.ControlMetrics
	Logger         *zap.Logger
}

// NewExceptionService creates a new ExceptionService
func NewExceptionService(cfg ExceptionServiceConfig) *ExceptionService {
	logger := loggerOrNop(cfg.Logger)
	return &ExceptionService{
		exceptionRepo: cfg.ExceptionRepo,
		txScope:       cfg.TxScope,
		metrics:       cfg.Metrics,
		events:        eventDispatcher{publisher: cfg.EventPublisher, logger: logger},
		logger:        logger,
	}
}

// List returns a page of exceptions. Without an explicit status only open entries are listed.
func (s *ExceptionService) List(
	ctx context.Context,
	actor finance.Actor,
	filter finance.ExceptionFilter,
) (*shared.Paginated[finance.MatchException], error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "exception", "list")
	defer span.End()

	if err := actor.Validate(); err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}
	if filter.Severity != nil && !filter.Severity.IsValid() {
		err := finance.ErrInvalidSeverityFilter.WithDetails("severity", string(*filter.Severity))
		telemetry.RecordError(span, err)
		return nil, err
	}
	if filter.ResolutionStatus == nil {
		open := finance.ResolutionStatusOpen
		filter.ResolutionStatus = &open
	}
	filter.Filter = filter.Filter.Normalize()

	items, total, err := s.exceptionRepo.List(ctx, actor.TenantID, filter)
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, fmt.Errorf("failed to list match exceptions: %w", err)
	}

	page := shared.NewPaginated(items, total, filter.Page, filter.PageSize)
	return &page, nil
}

// Get returns one exception for the actor's tenant
func (s *ExceptionService) Get(ctx context.Context, actor finance.Actor, id uuid.UUID) (*finance.MatchException, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "exception", "get")
	defer span.End()

	exception, err := s.exceptionRepo.FindByID(ctx, actor.TenantID, id)
	if err != nil {
		telemetry.RecordError(span, err)
		if isNotFound(err) {
			return nil, finance.ErrMatchExceptionNotFound.WithDetails("exception_id", id.String())
		}
		return nil, fmt.Errorf("failed to get match exception: %w", err)
	}
	return exception, nil
}

// Resolve closes an open exception through a documented resolution action.
// Only the exception's own resolution markers change; the match result is untouched.
func (s *ExceptionService) Resolve(
	ctx context.Context,
	id uuid.UUID,
	input ResolveExceptionInput,
	actor finance.Actor,
	expectedVersion int,
) (*finance.MatchException, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "exception", "resolve")
	defer span.End()

	telemetry.SetAttributes(span,
		telemetry.SpanAttrTenantID, actor.TenantID.String(),
		telemetry.SpanAttrActorID, actor.UserID.String(),
		telemetry.SpanAttrExceptionID, id.String(),
		telemetry.SpanAttrExpectedVersion, expectedVersion,
	)

	if err := actor.Validate(); err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}

	var exception *finance.MatchException
	err := s.txScope.Execute(ctx, func(repos TransactionalRepositories) error {
		var err error
		exception, err = repos.MatchExceptions().FindByID(ctx, actor.TenantID, id)
		if err != nil {
			if isNotFound(err) {
				return finance.ErrMatchExceptionNotFound.WithDetails("exception_id", id.String())
			}
			return fmt.Errorf("failed to load match exception: %w", err)
		}

		action, err := finance.ParseResolutionAction(input.Action)
		if err != nil {
			return err
		}
		if !exception.IsOpen() {
			return finance.ErrExceptionAlreadyResolved.WithDetails("exception_id", id.String())
		}
		if err := exception.CheckVersion(expectedVersion); err != nil {
			return err
		}

		if err := exception.Resolve(action, input.Note, actor); err != nil {
			return err
		}
		if err := repos.MatchExceptions().Update(ctx, exception, expectedVersion); err != nil {
			return err
		}

		return repos.Audit().Record(ctx, finance.NewAuditEvent(
			finance.AuditExceptionResolved,
			actor,
			finance.AuditResourceException,
			exception.ID,
			map[string]any{
				"match_id":       exception.MatchResultID.String(),
				"invoice_id":     exception.InvoiceID.String(),
				"exception_code": exception.ExceptionCode.String(),
				"action":         string(action),
				"note":           exception.ResolutionNote,
			},
		))
	})
	if err != nil {
		telemetry.RecordError(span, err)
		if shared.IsConflict(err) {
			s.metrics.RecordConcurrencyConflict(ctx, finance.AuditResourceException)
		}
		return nil, err
	}

	s.metrics.RecordExceptionResolved(ctx, string(*exception.ResolutionAction))
	s.logger.Info("Match exception resolved",
		zap.String("tenant_id", actor.TenantID.String()),
		zap.String("exception_id", exception.ID.String()),
		zap.String("action", string(*exception.ResolutionAction)))

	s.events.dispatch(ctx, exception.PullDomainEvents()...)

	return exception, nil
}
