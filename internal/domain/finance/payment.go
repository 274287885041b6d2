package finance

import (
	"strings"
	"time"

	"github.com/erp/apcontrols/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"golang.org/x/text/currency"
)

// MaxAmountScale is the number of fractional digits a payment amount may carry
const MaxAmountScale = 4

// maxAmount is the exclusive upper bound that fits numeric(19,4)
var maxAmount = decimal.New(1, 15)

// PaymentStatus represents the lifecycle state of a payment
type PaymentStatus string

const (
	PaymentStatusDraft           PaymentStatus = "draft"
	PaymentStatusPendingApproval PaymentStatus = "pending_approval"
	PaymentStatusApproved        PaymentStatus = "approved"
	PaymentStatusProcessing      PaymentStatus = "processing"
	PaymentStatusCompleted       PaymentStatus = "completed"
	PaymentStatusFailed          PaymentStatus = "failed"
)

// legalPaymentTransitions is the payment state machine
var legalPaymentTransitions = map[PaymentStatus][]PaymentStatus{
	PaymentStatusDraft:           {PaymentStatusPendingApproval},
	PaymentStatusPendingApproval: {PaymentStatusApproved},
	PaymentStatusApproved:        {PaymentStatusProcessing},
	PaymentStatusProcessing:      {PaymentStatusCompleted, PaymentStatusFailed},
	PaymentStatusFailed:          {PaymentStatusPendingApproval},
}

// IsValid checks if the status is a valid PaymentStatus
func (s PaymentStatus) IsValid() bool {
	switch s {
	case PaymentStatusDraft, PaymentStatusPendingApproval, PaymentStatusApproved,
		PaymentStatusProcessing, PaymentStatusCompleted, PaymentStatusFailed:
		return true
	}
	return false
}

// String returns the string representation of PaymentStatus
func (s PaymentStatus) String() string {
	return string(s)
}

// IsTerminal returns true for completed and failed payments
func (s PaymentStatus) IsTerminal() bool {
	return s == PaymentStatusCompleted || s == PaymentStatusFailed
}

// IsLocked returns true once the payment reached approved.
// Locked rows only change through forward lifecycle transitions.
func (s PaymentStatus) IsLocked() bool {
	switch s {
	case PaymentStatusApproved, PaymentStatusProcessing, PaymentStatusCompleted, PaymentStatusFailed:
		return true
	}
	return false
}

// CanTransitionTo reports whether the state machine allows moving to target
func (s PaymentStatus) CanTransitionTo(target PaymentStatus) bool {
	for _, allowed := range legalPaymentTransitions[s] {
		if allowed == target {
			return true
		}
	}
	return false
}

// ParseAmount parses a positive decimal amount without rounding.
// Amounts with more than MaxAmountScale significant fractional digits are rejected.
func ParseAmount(raw string) (decimal.Decimal, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return decimal.Zero, ErrInvalidAmount.WithDetails("amount", raw)
	}
	amount, err := decimal.NewFromString(trimmed)
	if err != nil {
		return decimal.Zero, ErrInvalidAmount.WithDetails("amount", raw)
	}
	if !amount.IsPositive() {
		return decimal.Zero, ErrInvalidAmount.WithMessage("Amount must be greater than zero").WithDetails("amount", raw)
	}
	if !amount.Equal(amount.Truncate(MaxAmountScale)) {
		return decimal.Zero, ErrInvalidAmount.
			WithMessage("Amount cannot have more than %d fractional digits", MaxAmountScale).
			WithDetails("amount", raw)
	}
	if amount.GreaterThanOrEqual(maxAmount) {
		return decimal.Zero, ErrInvalidAmount.WithMessage("Amount exceeds the supported range").WithDetails("amount", raw)
	}
	return amount, nil
}

// ParseCurrency returns the canonical ISO 4217 code for raw
func ParseCurrency(raw string) (string, error) {
	code := strings.ToUpper(strings.TrimSpace(raw))
	if len(code) != 3 {
		return "", ErrInvalidCurrency.WithDetails("currency", raw)
	}
	unit, err := currency.ParseISO(code)
	if err != nil {
		return "", ErrInvalidCurrency.WithDetails("currency", raw)
	}
	return unit.String(), nil
}

// Payment is an outgoing vendor payment moving through the approval lifecycle
type Payment struct {
	shared.TenantAggregateRoot
	VendorID         uuid.UUID       `json:"vendor_id"`
	VendorName       string          `json:"vendor_name"`
	Amount           decimal.Decimal `json:"amount"`
	Currency         string          `json:"currency"`
	Status           PaymentStatus   `json:"status"`
	IdempotencyKey   string          `json:"idempotency_key"`
	SourceDocumentID *uuid.UUID      `json:"source_document_id,omitempty"`
	PaymentDate      time.Time       `json:"payment_date"`
	Memo             string          `json:"memo,omitempty"`
	SubmittedAt      *time.Time      `json:"submitted_at,omitempty"`
	ApprovedBy       *uuid.UUID      `json:"approved_by,omitempty"`
	ApprovedAt       *time.Time      `json:"approved_at,omitempty"`
	ProcessingAt     *time.Time      `json:"processing_at,omitempty"`
	CompletedAt      *time.Time      `json:"completed_at,omitempty"`
	FailedAt         *time.Time      `json:"failed_at,omitempty"`
	FailureReason    string          `json:"failure_reason,omitempty"`
	RetryCount       int             `json:"retry_count"`
}

// NewPaymentParams is the raw input for a new payment
type NewPaymentParams struct {
	VendorID         uuid.UUID
	VendorName       string
	Amount           string
	Currency         string
	PaymentDate      time.Time
	SourceDocumentID *uuid.UUID
	Memo             string
	IdempotencyKey   string
}

// NewPayment creates a draft payment owned by actor
func NewPayment(params NewPaymentParams, actor Actor) (*Payment, error) {
	key := strings.TrimSpace(params.IdempotencyKey)
	if key == "" {
		return nil, ErrIdempotencyKeyRequired
	}
	if len(key) > 255 {
		return nil, ErrInvalidPaymentInput.WithMessage("Idempotency key cannot exceed 255 characters")
	}
	if params.VendorID == uuid.Nil {
		return nil, ErrInvalidPaymentInput.WithMessage("Vendor ID cannot be empty")
	}
	if params.PaymentDate.IsZero() {
		return nil, ErrInvalidPaymentInput.WithMessage("Payment date is required")
	}
	amount, err := ParseAmount(params.Amount)
	if err != nil {
		return nil, err
	}
	code, err := ParseCurrency(params.Currency)
	if err != nil {
		return nil, err
	}

	p := &Payment{
		TenantAggregateRoot: shared.NewTenantAggregateRoot(actor.TenantID, actor.UserID),
		VendorID:            params.VendorID,
		VendorName:          strings.TrimSpace(params.VendorName),
		Amount:              amount,
		Currency:            code,
		Status:              PaymentStatusDraft,
		IdempotencyKey:      key,
		SourceDocumentID:    params.SourceDocumentID,
		PaymentDate:         truncateToDate(params.PaymentDate),
		Memo:                params.Memo,
	}

	p.AddDomainEvent(NewPaymentCreatedEvent(p))

	return p, nil
}

// CheckVersion compares the stored version with the caller's expectation
func (p *Payment) CheckVersion(expectedVersion int) error {
	if p.Version != expectedVersion {
		return NewConcurrencyConflictError(p.ID, expectedVersion, p.Version)
	}
	return nil
}

// Submit moves a draft payment into the approval queue
func (p *Payment) Submit(actor Actor) error {
	return p.transition(PaymentStatusDraft, PaymentStatusPendingApproval, actor, func(now time.Time) {
		p.SubmittedAt = &now
	})
}

// CanBeApprovedBy checks the state and segregation-of-duties rules for approval
func (p *Payment) CanBeApprovedBy(actor Actor) error {
	if p.Status != PaymentStatusPendingApproval {
		return NewIllegalStateTransitionError(p.ID, p.Status, PaymentStatusApproved)
	}
	if actor.Is(p.CreatedBy) {
		return ErrApprovalSoDViolation.WithDetails("payment_id", p.ID.String(), "user_id", actor.UserID.String())
	}
	return nil
}

// Approve approves a pending payment. The approver must not be the creator.
func (p *Payment) Approve(actor Actor) error {
	if err := p.CanBeApprovedBy(actor); err != nil {
		return err
	}
	return p.transition(PaymentStatusPendingApproval, PaymentStatusApproved, actor, func(now time.Time) {
		approvedBy := actor.UserID
		p.ApprovedBy = &approvedBy
		p.ApprovedAt = &now
	})
}

// StartProcessing hands an approved payment to execution
func (p *Payment) StartProcessing(actor Actor) error {
	return p.transition(PaymentStatusApproved, PaymentStatusProcessing, actor, func(now time.Time) {
		p.ProcessingAt = &now
	})
}

// Complete marks a processing payment as settled
func (p *Payment) Complete(actor Actor) error {
	return p.transition(PaymentStatusProcessing, PaymentStatusCompleted, actor, func(now time.Time) {
		p.CompletedAt = &now
	})
}

// Fail marks a processing payment as failed
func (p *Payment) Fail(reason string, actor Actor) error {
	reason = strings.TrimSpace(reason)
	if reason == "" {
		return ErrFailureReasonRequired
	}
	return p.transition(PaymentStatusProcessing, PaymentStatusFailed, actor, func(now time.Time) {
		p.FailedAt = &now
		p.FailureReason = reason
	})
}

// Retry sends a failed payment back for a fresh approval.
// The previous approval and failure stay on the approval and audit trail.
func (p *Payment) Retry(actor Actor) error {
	return p.transition(PaymentStatusFailed, PaymentStatusPendingApproval, actor, func(now time.Time) {
		p.SubmittedAt = &now
		p.ApprovedBy = nil
		p.ApprovedAt = nil
		p.ProcessingAt = nil
		p.FailedAt = nil
		p.RetryCount++
	})
}

// transition moves the payment from source to target. Each operation names its
// own source state, so two operations sharing a target cannot borrow each
// other's edge (submit is draft only, retry is failed only).
func (p *Payment) transition(source, target PaymentStatus, actor Actor, apply func(now time.Time)) error {
	if p.Status != source || !source.CanTransitionTo(target) {
		return NewIllegalStateTransitionError(p.ID, p.Status, target)
	}
	from := p.Status
	p.Status = target
	apply(time.Now().UTC())
	p.IncrementVersion()
	p.AddDomainEvent(NewPaymentStatusChangedEvent(p, from, actor))
	return nil
}

func truncateToDate(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
