package finance

import (
	"context"

	"github.com/google/uuid"
)

// MatchResultRepository defines the interface for match result persistence.
// Create must surface a uniqueness violation on (tenant, invoice) as ErrMatchAlreadyExists.
type MatchResultRepository interface {
	// FindByID finds a match result by ID for a tenant
	FindByID(ctx context.Context, tenantID, id uuid.UUID) (*MatchResult, error)

	// FindByInvoice finds the match result recorded for an invoice
	FindByInvoice(ctx context.Context, tenantID, invoiceID uuid.UUID) (*MatchResult, error)

	// ExistsForInvoice checks whether the invoice already has a match result
	ExistsForInvoice(ctx context.Context, tenantID, invoiceID uuid.UUID) (bool, error)

	// Create inserts a new match result
	Create(ctx context.Context, result *MatchResult) error

	// Update writes result only if the stored version still equals expectedVersion
	Update(ctx context.Context, result *MatchResult, expectedVersion int) error
}

// MatchExceptionRepository defines the interface for the exception queue
type MatchExceptionRepository interface {
	// FindByID finds an exception by ID for a tenant
	FindByID(ctx context.Context, tenantID, id uuid.UUID) (*MatchException, error)

	// FindByMatchResult finds the exception opened for a match result
	FindByMatchResult(ctx context.Context, tenantID, matchResultID uuid.UUID) (*MatchException, error)

	// List returns one page of exceptions and the total count
	List(ctx context.Context, tenantID uuid.UUID, filter ExceptionFilter) ([]MatchException, int64, error)

	// Create inserts a new exception
	Create(ctx context.Context, exception *MatchException) error

	// Update writes exception only if the stored version still equals expectedVersion
	Update(ctx context.Context, exception *MatchException, expectedVersion int) error
}

// PaymentRepository defines the interface for payment persistence.
// Create must surface a uniqueness violation on (tenant, idempotency key) as ErrDuplicateIdempotencyKey.
type PaymentRepository interface {
	// FindByID finds a payment by ID for a tenant
	FindByID(ctx context.Context, tenantID, id uuid.UUID) (*Payment, error)

	// FindByIdempotencyKey finds the payment created with key
	FindByIdempotencyKey(ctx context.Context, tenantID uuid.UUID, key string) (*Payment, error)

	// Create inserts a new payment
	Create(ctx context.Context, payment *Payment) error

	// Update writes lifecycle fields only if the stored version still equals expectedVersion
	Update(ctx context.Context, payment *Payment, expectedVersion int) error
}

// PaymentApprovalRepository stores immutable approval records
type PaymentApprovalRepository interface {
	// Create inserts an approval record
	Create(ctx context.Context, approval *PaymentApproval) error

	// ListByPayment returns every approval recorded for a payment, oldest first
	ListByPayment(ctx context.Context, tenantID, paymentID uuid.UUID) ([]PaymentApproval, error)
}

// AuditRecorder appends audit events. Implementations write within the caller's transaction.
type AuditRecorder interface {
	Record(ctx context.Context, event *AuditEvent) error
}
