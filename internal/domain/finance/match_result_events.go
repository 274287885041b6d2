package finance

import (
	"time"

	"github.com/erp/apcontrols/internal/domain/shared"
	"github.com/google/uuid"
)

// Aggregate type names
const (
	AggregateTypeMatchResult    = "MatchResult"
	AggregateTypeMatchException = "MatchException"
	AggregateTypePayment        = "Payment"
)

// Event type names
const (
	EventTypeMatchEvaluated       = "MatchEvaluated"
	EventTypeMatchOverridden      = "MatchOverridden"
	EventTypeExceptionResolved    = "ExceptionResolved"
	EventTypePaymentCreated       = "PaymentCreated"
	EventTypePaymentStatusChanged = "PaymentStatusChanged"
)

// MatchEvaluatedEvent is raised when an invoice match is recorded
type MatchEvaluatedEvent struct {
	shared.BaseDomainEvent
	MatchID         uuid.UUID      `json:"match_id"`
	InvoiceID       uuid.UUID      `json:"invoice_id"`
	VendorID        uuid.UUID      `json:"vendor_id"`
	MatchMode       MatchMode      `json:"match_mode"`
	Status          MatchStatus    `json:"status"`
	ExceptionCode   *ExceptionCode `json:"exception_code,omitempty"`
	WithinTolerance bool           `json:"within_tolerance"`
}

// EventType returns the event type name
func (e *MatchEvaluatedEvent) EventType() string {
	return EventTypeMatchEvaluated
}

// NewMatchEvaluatedEvent creates a new MatchEvaluatedEvent
func NewMatchEvaluatedEvent(m *MatchResult) *MatchEvaluatedEvent {
	return &MatchEvaluatedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeMatchEvaluated, AggregateTypeMatchResult, m.ID, m.TenantID, m.CreatedBy),
		MatchID:         m.ID,
		InvoiceID:       m.InvoiceID,
		VendorID:        m.VendorID,
		MatchMode:       m.MatchMode,
		Status:          m.Status,
		ExceptionCode:   m.ExceptionCode,
		WithinTolerance: m.WithinTolerance,
	}
}

// MatchOverriddenEvent is raised when an exception match is manually passed
type MatchOverriddenEvent struct {
	shared.BaseDomainEvent
	MatchID      uuid.UUID `json:"match_id"`
	InvoiceID    uuid.UUID `json:"invoice_id"`
	Reason       string    `json:"reason"`
	CreatedBy    uuid.UUID `json:"created_by"`
	OverriddenBy uuid.UUID `json:"overridden_by"`
	OverriddenAt time.Time `json:"overridden_at"`
}

// EventType returns the event type name
func (e *MatchOverriddenEvent) EventType() string {
	return EventTypeMatchOverridden
}

// NewMatchOverriddenEvent creates a new MatchOverriddenEvent
func NewMatchOverriddenEvent(m *MatchResult) *MatchOverriddenEvent {
	var overriddenBy uuid.UUID
	if m.OverrideApprovedBy != nil {
		overriddenBy = *m.OverrideApprovedBy
	}
	overriddenAt := time.Now().UTC()
	if m.OverriddenAt != nil {
		overriddenAt = *m.OverriddenAt
	}
	return &MatchOverriddenEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeMatchOverridden, AggregateTypeMatchResult, m.ID, m.TenantID, overriddenBy),
		MatchID:         m.ID,
		InvoiceID:       m.InvoiceID,
		Reason:          m.OverrideReason,
		CreatedBy:       m.CreatedBy,
		OverriddenBy:    overriddenBy,
		OverriddenAt:    overriddenAt,
	}
}

// ExceptionResolvedEvent is raised when a match exception is closed
type ExceptionResolvedEvent struct {
	shared.BaseDomainEvent
	ExceptionID   uuid.UUID        `json:"exception_id"`
	MatchID       uuid.UUID        `json:"match_id"`
	ExceptionCode ExceptionCode    `json:"exception_code"`
	Action        ResolutionAction `json:"action"`
	Note          string           `json:"note,omitempty"`
}

// EventType returns the event type name
func (e *ExceptionResolvedEvent) EventType() string {
	return EventTypeExceptionResolved
}

// NewExceptionResolvedEvent creates a new ExceptionResolvedEvent
func NewExceptionResolvedEvent(ex *MatchException) *ExceptionResolvedEvent {
	var resolvedBy uuid.UUID
	if ex.ResolvedBy != nil {
		resolvedBy = *ex.ResolvedBy
	}
	var action ResolutionAction
	if ex.ResolutionAction != nil {
		action = *ex.ResolutionAction
	}
	return &ExceptionResolvedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeExceptionResolved, AggregateTypeMatchException, ex.ID, ex.TenantID, resolvedBy),
		ExceptionID:     ex.ID,
		MatchID:         ex.MatchResultID,
		ExceptionCode:   ex.ExceptionCode,
		Action:          action,
		Note:            ex.ResolutionNote,
	}
}
