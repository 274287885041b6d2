package finance

import (
	"time"

	"github.com/erp/apcontrols/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// PaymentCreatedEvent is raised when a draft payment is recorded
type PaymentCreatedEvent struct {
	shared.BaseDomainEvent
	PaymentID      uuid.UUID       `json:"payment_id"`
	VendorID       uuid.UUID       `json:"vendor_id"`
	VendorName     string          `json:"vendor_name"`
	Amount         decimal.Decimal `json:"amount"`
	Currency       string          `json:"currency"`
	PaymentDate    time.Time       `json:"payment_date"`
	IdempotencyKey string          `json:"idempotency_key"`
}

// EventType returns the event type name
func (e *PaymentCreatedEvent) EventType() string {
	return EventTypePaymentCreated
}

// NewPaymentCreatedEvent creates a new PaymentCreatedEvent
func NewPaymentCreatedEvent(p *Payment) *PaymentCreatedEvent {
	return &PaymentCreatedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypePaymentCreated, AggregateTypePayment, p.ID, p.TenantID, p.CreatedBy),
		PaymentID:       p.ID,
		VendorID:        p.VendorID,
		VendorName:      p.VendorName,
		Amount:          p.Amount,
		Currency:        p.Currency,
		PaymentDate:     p.PaymentDate,
		IdempotencyKey:  p.IdempotencyKey,
	}
}

// PaymentStatusChangedEvent is raised on every lifecycle transition
type PaymentStatusChangedEvent struct {
	shared.BaseDomainEvent
	PaymentID     uuid.UUID     `json:"payment_id"`
	FromStatus    PaymentStatus `json:"from_status"`
	ToStatus      PaymentStatus `json:"to_status"`
	Version       int           `json:"version"`
	FailureReason string        `json:"failure_reason,omitempty"`
}

// EventType returns the event type name
func (e *PaymentStatusChangedEvent) EventType() string {
	return EventTypePaymentStatusChanged
}

// NewPaymentStatusChangedEvent creates a new PaymentStatusChangedEvent
func NewPaymentStatusChangedEvent(p *Payment, from PaymentStatus, actor Actor) *PaymentStatusChangedEvent {
	return &PaymentStatusChangedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypePaymentStatusChanged, AggregateTypePayment, p.ID, p.TenantID, actor.UserID),
		PaymentID:       p.ID,
		FromStatus:      from,
		ToStatus:        p.Status,
		Version:         p.Version,
		FailureReason:   p.FailureReason,
	}
}
