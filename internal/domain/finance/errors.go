package finance

import (
	"github.com/erp/apcontrols/internal/domain/shared"
	"github.com/google/uuid"
)

// Match errors
var (
	ErrInvoiceNotFoundForMatch = shared.NewDomainError(shared.KindNotFound, "INVOICE_NOT_FOUND_FOR_MATCH", "Invoice not found for matching")
	ErrInvoiceNotSubmitted     = shared.NewDomainError(shared.KindPolicyViolation, "INVOICE_NOT_SUBMITTED", "Invoice must be submitted before it can be matched")
	ErrMatchAlreadyExists      = shared.NewDomainError(shared.KindConflict, "MATCH_ALREADY_EXISTS", "A match result already exists for this invoice")
	ErrMatchModeNotConfigured  = shared.NewDomainError(shared.KindUnconfigured, "MATCH_MODE_NOT_CONFIGURED", "No match mode is configured for this vendor")
	ErrMatchResultNotFound     = shared.NewDomainError(shared.KindNotFound, "MATCH_RESULT_NOT_FOUND", "Match result not found")
	ErrMatchConcurrency        = shared.NewDomainError(shared.KindConflict, "MATCH_CONCURRENCY_CONFLICT", "Match result was modified by another process")
)

// Override errors
var (
	ErrInvalidMatchStatus     = shared.NewDomainError(shared.KindPolicyViolation, "INVALID_MATCH_STATUS", "Only exception matches can be overridden")
	ErrOverrideAlreadyApplied = shared.NewDomainError(shared.KindConflict, "OVERRIDE_ALREADY_APPLIED", "Match result has already been overridden")
	ErrOverrideSoDViolation   = shared.NewDomainError(shared.KindPolicyViolation, "OVERRIDE_SOD_VIOLATION", "The creator of a match result cannot override it")
	ErrOverrideNotAllowed     = shared.NewDomainError(shared.KindPolicyViolation, "OVERRIDE_NOT_ALLOWED", "Actor is not permitted to override match exceptions")
	ErrOverrideReasonRequired = shared.NewDomainError(shared.KindValidation, "OVERRIDE_REASON_REQUIRED", "Override reason is required")
)

// Exception errors
var (
	ErrMatchExceptionNotFound     = shared.NewDomainError(shared.KindNotFound, "MATCH_EXCEPTION_NOT_FOUND", "Match exception not found")
	ErrExceptionAlreadyResolved   = shared.NewDomainError(shared.KindConflict, "EXCEPTION_ALREADY_RESOLVED", "Match exception is already resolved")
	ErrInvalidExceptionResolution = shared.NewDomainError(shared.KindValidation, "INVALID_EXCEPTION_RESOLUTION", "Unrecognized exception resolution action")
	ErrExceptionConcurrency       = shared.NewDomainError(shared.KindConflict, "EXCEPTION_CONCURRENCY_CONFLICT", "Match exception was modified by another process")
	ErrInvalidSeverityFilter      = shared.NewDomainError(shared.KindValidation, "INVALID_SEVERITY_FILTER", "Unrecognized exception severity")
)

// Payment errors
var (
	ErrPaymentNotFound         = shared.NewDomainError(shared.KindNotFound, "PAYMENT_NOT_FOUND", "Payment not found")
	ErrPeriodClosed            = shared.NewDomainError(shared.KindPolicyViolation, "PERIOD_CLOSED", "The fiscal period for the payment date is closed")
	ErrInvalidAmount           = shared.NewDomainError(shared.KindValidation, "INVALID_AMOUNT", "Amount must be a positive decimal")
	ErrInvalidCurrency         = shared.NewDomainError(shared.KindValidation, "INVALID_CURRENCY", "Currency must be a recognized ISO 4217 code")
	ErrIdempotencyKeyRequired  = shared.NewDomainError(shared.KindValidation, "IDEMPOTENCY_KEY_REQUIRED", "Idempotency key is required")
	ErrInvalidPaymentInput     = shared.NewDomainError(shared.KindValidation, "INVALID_PAYMENT_INPUT", "Payment input is invalid")
	ErrDuplicateIdempotencyKey = shared.NewDomainError(shared.KindConflict, "DUPLICATE_IDEMPOTENCY_KEY", "A payment with this idempotency key already exists")
	ErrConcurrencyConflict     = shared.NewDomainError(shared.KindConflict, "CONCURRENCY_CONFLICT", "Payment was modified by another process")
	ErrIllegalStateTransition  = shared.NewDomainError(shared.KindPolicyViolation, "ILLEGAL_STATE_TRANSITION", "Payment status does not allow this transition")
	ErrApprovalSoDViolation    = shared.NewDomainError(shared.KindPolicyViolation, "APPROVAL_SOD_VIOLATION", "The creator of a payment cannot approve it")
	ErrGLPostingFailed         = shared.NewDomainError(shared.KindPartialFailure, "GL_POSTING_FAILED", "Payment was completed but GL posting failed")
	ErrFailureReasonRequired   = shared.NewDomainError(shared.KindValidation, "FAILURE_REASON_REQUIRED", "Failure reason is required")
)

// Fiscal calendar errors
var (
	ErrInvalidFiscalPeriod = shared.NewDomainError(shared.KindValidation, "INVALID_FISCAL_PERIOD", "Fiscal period is invalid")
)

// NewMatchAlreadyExistsError reports a second evaluation of the same invoice.
func NewMatchAlreadyExistsError(invoiceID uuid.UUID) *shared.DomainError {
	return ErrMatchAlreadyExists.WithDetails("invoice_id", invoiceID.String())
}

// NewMatchConcurrencyError reports a stale expected version on a match result.
func NewMatchConcurrencyError(matchID uuid.UUID, expected, actual int) *shared.DomainError {
	return ErrMatchConcurrency.WithDetails(
		"match_id", matchID.String(),
		"expected_version", expected,
		"current_version", actual,
	)
}

// NewConcurrencyConflictError reports a stale expected version on a payment.
func NewConcurrencyConflictError(paymentID uuid.UUID, expected, actual int) *shared.DomainError {
	return ErrConcurrencyConflict.WithDetails(
		"payment_id", paymentID.String(),
		"expected_version", expected,
		"current_version", actual,
	)
}

// NewIllegalStateTransitionError reports a transition the state machine forbids.
func NewIllegalStateTransitionError(paymentID uuid.UUID, from, to PaymentStatus) *shared.DomainError {
	return ErrIllegalStateTransition.
		WithMessage("Cannot move payment from %s to %s", from, to).
		WithDetails("payment_id", paymentID.String(), "from", string(from), "to", string(to))
}

// NewPeriodClosedError reports a payment date that falls into a closed period.
func NewPeriodClosedError(tenantID uuid.UUID, date string) *shared.DomainError {
	return ErrPeriodClosed.WithDetails("tenant_id", tenantID.String(), "payment_date", date)
}

// NewExceptionConcurrencyError reports a stale expected version on a match exception.
func NewExceptionConcurrencyError(exceptionID uuid.UUID, expected, actual int) *shared.DomainError {
	return ErrExceptionConcurrency.WithDetails(
		"exception_id", exceptionID.String(),
		"expected_version", expected,
		"current_version", actual,
	)
}

// GLPostingError is returned by Complete when the payment transition committed
// but the GL posting port failed. It unwraps to both ErrGLPostingFailed and the
// port's original error.
type GLPostingError struct {
	Payment *Payment
	Cause   error
}

// Error implements the error interface
func (e *GLPostingError) Error() string {
	return ErrGLPostingFailed.Message + ": " + e.Cause.Error()
}

// Unwrap exposes the domain sentinel and the underlying port failure.
func (e *GLPostingError) Unwrap() []error {
	return []error{
		ErrGLPostingFailed.WithDetails("payment_id", e.Payment.ID.String()),
		e.Cause,
	}
}
