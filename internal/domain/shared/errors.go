package shared

import (
	"errors"
	"fmt"
)

// ErrorKind classifies a domain error. The set is closed; callers map kinds to
// transport status codes.
type ErrorKind string

const (
	KindNotFound        ErrorKind = "NOT_FOUND"
	KindConflict        ErrorKind = "CONFLICT"
	KindPolicyViolation ErrorKind = "POLICY_VIOLATION"
	KindValidation      ErrorKind = "VALIDATION"
	KindUnconfigured    ErrorKind = "UNCONFIGURED"
	// KindPartialFailure marks an outcome where a committed state change was
	// followed by a failing side effect the caller must reconcile.
	KindPartialFailure ErrorKind = "PARTIAL_FAILURE"
)

// DomainError represents a domain-level error
type DomainError struct {
	Kind    ErrorKind      `json:"kind"`
	Code    string         `json:"code"`
	Message string         `json:"message"`
	Details map[string]any `json:"details,omitempty"`
}

// Error implements the error interface
func (e *DomainError) Error() string {
	return e.Message
}

// Is reports whether target is a DomainError with the same code, so that
// sentinel errors match errors built with additional details.
func (e *DomainError) Is(target error) bool {
	t, ok := target.(*DomainError)
	if !ok {
		return false
	}
	return e.Code == t.Code
}

// WithDetails returns a copy of the error carrying the given key/value details.
func (e *DomainError) WithDetails(keyValues ...any) *DomainError {
	details := make(map[string]any, len(e.Details)+len(keyValues)/2)
	for k, v := range e.Details {
		details[k] = v
	}
	for i := 0; i+1 < len(keyValues); i += 2 {
		key, ok := keyValues[i].(string)
		if !ok {
			continue
		}
		details[key] = keyValues[i+1]
	}
	return &DomainError{
		Kind:    e.Kind,
		Code:    e.Code,
		Message: e.Message,
		Details: details,
	}
}

// WithMessage returns a copy of the error with a formatted message.
func (e *DomainError) WithMessage(format string, args ...any) *DomainError {
	return &DomainError{
		Kind:    e.Kind,
		Code:    e.Code,
		Message: fmt.Sprintf(format, args...),
		Details: e.Details,
	}
}

// NewDomainError creates a new domain error
func NewDomainError(kind ErrorKind, code, message string) *DomainError {
	return &DomainError{
		Kind:    kind,
		Code:    code,
		Message: message,
	}
}

// KindOf returns the kind of the first DomainError in err's chain
func KindOf(err error) (ErrorKind, bool) {
	var domainErr *DomainError
	if errors.As(err, &domainErr) {
		return domainErr.Kind, true
	}
	return "", false
}

// IsConflict reports whether err is a CONFLICT domain error
func IsConflict(err error) bool {
	kind, ok := KindOf(err)
	return ok && kind == KindConflict
}

// Common domain errors
var (
	ErrNotFound            = NewDomainError(KindNotFound, "NOT_FOUND", "Resource not found")
	ErrAlreadyExists       = NewDomainError(KindConflict, "ALREADY_EXISTS", "Resource already exists")
	ErrInvalidInput        = NewDomainError(KindValidation, "INVALID_INPUT", "Invalid input provided")
	ErrConcurrencyConflict = NewDomainError(KindConflict, "CONCURRENCY_CONFLICT", "Resource was modified by another process")
	ErrForbidden           = NewDomainError(KindPolicyViolation, "FORBIDDEN", "Access to this resource is forbidden")
	ErrInvalidState        = NewDomainError(KindPolicyViolation, "INVALID_STATE", "Operation not allowed in current state")
)
