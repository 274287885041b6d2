package finance

import (
	"time"

	"github.com/google/uuid"
)

// Audit event types. Every mutating operation records exactly one.
const (
	AuditMatchEvaluated    = "finance.ap.match.evaluated"
	AuditMatchOverridden   = "finance.ap.match.overridden"
	AuditExceptionResolved = "finance.ap.exception.resolved"
	AuditPaymentCreated    = "finance.ap.payment.created"
	AuditPaymentSubmitted  = "finance.ap.payment.submitted"
	AuditPaymentApproved   = "finance.ap.payment.approved"
	AuditPaymentProcessing = "finance.ap.payment.processing"
	AuditPaymentCompleted  = "finance.ap.payment.completed"
	AuditPaymentFailed     = "finance.ap.payment.failed"
	AuditPaymentRetried    = "finance.ap.payment.retried"
)

// Audited resource types
const (
	AuditResourceMatch     = "match_result"
	AuditResourceException = "match_exception"
	AuditResourcePayment   = "payment"
)

// AuditEvent is an append-only record of a control decision
type AuditEvent struct {
	ID           uuid.UUID      `json:"id"`
	TenantID     uuid.UUID      `json:"tenant_id"`
	EventType    string         `json:"event_type"`
	ActorID      uuid.UUID      `json:"actor_id"`
	ResourceType string         `json:"resource_type"`
	ResourceID   uuid.UUID      `json:"resource_id"`
	Payload      map[string]any `json:"payload"`
	Timestamp    time.Time      `json:"timestamp"`
}

// NewAuditEvent creates an audit event attributed to actor
func NewAuditEvent(eventType string, actor Actor, resourceType string, resourceID uuid.UUID, payload map[string]any) *AuditEvent {
	if payload == nil {
		payload = map[string]any{}
	}
	return &AuditEvent{
		ID:           uuid.New(),
		TenantID:     actor.TenantID,
		EventType:    eventType,
		ActorID:      actor.UserID,
		ResourceType: resourceType,
		ResourceID:   resourceID,
		Payload:      payload,
		Timestamp:    time.Now().UTC(),
	}
}
