package dto

import (
	"net/http"

	"github.com/erp/apcontrols/internal/domain/shared"
)

// Transport error codes raised by the HTTP layer itself
const (
	// ErrCodeBadRequest is used for malformed requests
	ErrCodeBadRequest = "BAD_REQUEST"
	// ErrCodeValidation is used when request binding fails
	ErrCodeValidation = "VALIDATION_ERROR"
	// ErrCodeUnauthorized is used when the actor headers are missing or invalid
	ErrCodeUnauthorized = "UNAUTHORIZED"
	// ErrCodeRequestTooLarge is used when the body exceeds the configured limit
	ErrCodeRequestTooLarge = "REQUEST_TOO_LARGE"
	// ErrCodeInternal is used for internal server errors
	ErrCodeInternal = "INTERNAL_ERROR"
	// ErrCodeRouteNotFound is used for unknown routes
	ErrCodeRouteNotFound = "ROUTE_NOT_FOUND"
)

// KindHTTPStatus maps domain error kinds to HTTP status codes
var KindHTTPStatus = map[shared.ErrorKind]int{
	shared.KindNotFound:        http.StatusNotFound,
	shared.KindConflict:        http.StatusConflict,
	shared.KindValidation:      http.StatusBadRequest,
	shared.KindPolicyViolation: http.StatusUnprocessableEntity,
	shared.KindUnconfigured:    http.StatusUnprocessableEntity,
	shared.KindPartialFailure:  http.StatusBadGateway,
}

// CodeHTTPStatus overrides the kind mapping for individual codes.
// Segregation-of-duties and permission refusals are reported as 403.
var CodeHTTPStatus = map[string]int{
	"OVERRIDE_NOT_ALLOWED":   http.StatusForbidden,
	"OVERRIDE_SOD_VIOLATION": http.StatusForbidden,
	"APPROVAL_SOD_VIOLATION": http.StatusForbidden,
	"FORBIDDEN":              http.StatusForbidden,

	ErrCodeBadRequest:      http.StatusBadRequest,
	ErrCodeValidation:      http.StatusBadRequest,
	ErrCodeUnauthorized:    http.StatusUnauthorized,
	ErrCodeRequestTooLarge: http.StatusRequestEntityTooLarge,
	ErrCodeInternal:        http.StatusInternalServerError,
	ErrCodeRouteNotFound:   http.StatusNotFound,
}

// GetHTTPStatus returns the HTTP status for an error kind and code.
// Code overrides win; unknown kinds map to 500.
func GetHTTPStatus(kind shared.ErrorKind, code string) int {
	if status, ok := CodeHTTPStatus[code]; ok {
		return status
	}
	if status, ok := KindHTTPStatus[kind]; ok {
		return status
	}
	return http.StatusInternalServerError
}
