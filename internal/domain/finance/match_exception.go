package finance

import (
	"strings"
	"time"

	"github.com/erp/apcontrols/internal/domain/shared"
	"github.com/google/uuid"
)

// ResolutionStatus tracks whether an exception is still in the queue
type ResolutionStatus string

const (
	ResolutionStatusOpen     ResolutionStatus = "open"
	ResolutionStatusResolved ResolutionStatus = "resolved"
)

// IsValid checks if the resolution status is known
func (s ResolutionStatus) IsValid() bool {
	return s == ResolutionStatusOpen || s == ResolutionStatusResolved
}

// ResolutionAction is the documented path by which an exception was closed
type ResolutionAction string

const (
	ResolutionInvoiceCorrected ResolutionAction = "invoice_corrected"
	ResolutionPOAmended        ResolutionAction = "po_amended"
	ResolutionReceiptPosted    ResolutionAction = "receipt_posted"
	ResolutionInvoiceRejected  ResolutionAction = "invoice_rejected"
	ResolutionDuplicateClosed  ResolutionAction = "duplicate_closed"
	// ResolutionOverridden is set only by the override path.
	ResolutionOverridden ResolutionAction = "overridden"
)

// IsValid checks if the action is known
func (a ResolutionAction) IsValid() bool {
	return a.IsManual() || a == ResolutionOverridden
}

// IsManual returns true for actions a reviewer may choose directly
func (a ResolutionAction) IsManual() bool {
	switch a {
	case ResolutionInvoiceCorrected, ResolutionPOAmended, ResolutionReceiptPosted,
		ResolutionInvoiceRejected, ResolutionDuplicateClosed:
		return true
	}
	return false
}

// ParseResolutionAction parses a reviewer-supplied action
func ParseResolutionAction(raw string) (ResolutionAction, error) {
	action := ResolutionAction(strings.ToLower(strings.TrimSpace(raw)))
	if !action.IsManual() {
		return "", ErrInvalidExceptionResolution.WithDetails("action", raw)
	}
	return action, nil
}

// MatchException is the queue entry derived from an exception-status MatchResult.
// CreatedBy is copied from the match so the queue can be filtered by evaluator.
type MatchException struct {
	shared.TenantAggregateRoot
	MatchResultID    uuid.UUID         `json:"match_result_id"`
	InvoiceID        uuid.UUID         `json:"invoice_id"`
	VendorID         uuid.UUID         `json:"vendor_id"`
	ExceptionCode    ExceptionCode     `json:"exception_code"`
	Severity         ExceptionSeverity `json:"severity"`
	ResolutionStatus ResolutionStatus  `json:"resolution_status"`
	ResolutionAction *ResolutionAction `json:"resolution_action,omitempty"`
	ResolutionNote   string            `json:"resolution_note,omitempty"`
	ResolvedBy       *uuid.UUID        `json:"resolved_by,omitempty"`
	ResolvedAt       *time.Time        `json:"resolved_at,omitempty"`
}

// NewMatchException opens a queue entry for an exception match result
func NewMatchException(m *MatchResult) (*MatchException, error) {
	if m == nil || !m.IsException() || m.ExceptionCode == nil {
		return nil, ErrInvalidMatchStatus.WithMessage("Only exception match results open an exception")
	}
	code := *m.ExceptionCode
	return &MatchException{
		TenantAggregateRoot: shared.NewTenantAggregateRoot(m.TenantID, m.CreatedBy),
		MatchResultID:       m.ID,
		InvoiceID:           m.InvoiceID,
		VendorID:            m.VendorID,
		ExceptionCode:       code,
		Severity:            SeverityFor(code),
		ResolutionStatus:    ResolutionStatusOpen,
	}, nil
}

// IsOpen returns true while the exception awaits resolution
func (e *MatchException) IsOpen() bool {
	return e.ResolutionStatus == ResolutionStatusOpen
}

// CheckVersion compares the stored version with the caller's expectation
func (e *MatchException) CheckVersion(expectedVersion int) error {
	if e.Version != expectedVersion {
		return NewExceptionConcurrencyError(e.ID, expectedVersion, e.Version)
	}
	return nil
}

// Resolve closes the exception through a reviewer action
func (e *MatchException) Resolve(action ResolutionAction, note string, actor Actor) error {
	if !action.IsManual() {
		return ErrInvalidExceptionResolution.WithDetails("action", string(action))
	}
	return e.close(action, note, actor)
}

// CloseByOverride closes the exception when its match result was overridden
func (e *MatchException) CloseByOverride(reason string, actor Actor) error {
	return e.close(ResolutionOverridden, reason, actor)
}

func (e *MatchException) close(action ResolutionAction, note string, actor Actor) error {
	if !e.IsOpen() {
		return ErrExceptionAlreadyResolved.WithDetails("exception_id", e.ID.String())
	}
	now := time.Now().UTC()
	resolvedBy := actor.UserID
	e.ResolutionStatus = ResolutionStatusResolved
	e.ResolutionAction = &action
	e.ResolutionNote = strings.TrimSpace(note)
	e.ResolvedBy = &resolvedBy
	e.ResolvedAt = &now
	e.IncrementVersion()

	e.AddDomainEvent(NewExceptionResolvedEvent(e))

	return nil
}

// ExceptionFilter narrows the exception queue
type ExceptionFilter struct {
	shared.Filter
	Severity         *ExceptionSeverity
	ResolutionStatus *ResolutionStatus
	VendorID         *uuid.UUID
	ExceptionCode    *ExceptionCode
}
