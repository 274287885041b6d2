package finance

import (
	"strings"
	"time"

	"github.com/erp/apcontrols/internal/domain/shared"
	"github.com/google/uuid"
)

// MatchResult is the recorded outcome of matching one invoice.
// At most one exists per invoice; after creation it only changes through ApplyOverride.
type MatchResult struct {
	shared.TenantAggregateRoot
	InvoiceID          uuid.UUID      `json:"invoice_id"`
	VendorID           uuid.UUID      `json:"vendor_id"`
	MatchMode          MatchMode      `json:"match_mode"`
	Status             MatchStatus    `json:"status"`
	ExceptionCode      *ExceptionCode `json:"exception_code,omitempty"`
	WithinTolerance    bool           `json:"within_tolerance"`
	IsOverridden       bool           `json:"is_overridden"`
	OverrideApprovedBy *uuid.UUID     `json:"override_approved_by,omitempty"`
	OverrideReason     string         `json:"override_reason,omitempty"`
	OverriddenAt       *time.Time     `json:"overridden_at,omitempty"`
	Detail             MatchDetail    `json:"detail"`
}

// NewMatchResult records an outcome for a submitted invoice
func NewMatchResult(invoice *InvoiceForMatch, outcome MatchOutcome, actor Actor) (*MatchResult, error) {
	if invoice == nil || invoice.ID == uuid.Nil {
		return nil, ErrInvoiceNotFoundForMatch
	}
	if !invoice.IsSubmitted() {
		return nil, ErrInvoiceNotSubmitted.WithDetails("invoice_id", invoice.ID.String(), "status", invoice.Status)
	}
	if !outcome.Mode.IsValid() {
		return nil, ErrMatchModeNotConfigured.WithDetails("vendor_id", invoice.VendorID.String())
	}
	if !outcome.Status.IsValid() {
		return nil, shared.NewDomainError(shared.KindValidation, "INVALID_MATCH_STATUS_VALUE", "Match status is not valid")
	}
	if outcome.IsException() && outcome.ExceptionCode == nil {
		return nil, shared.NewDomainError(shared.KindValidation, "EXCEPTION_CODE_REQUIRED", "Exception outcome must carry an exception code")
	}

	m := &MatchResult{
		TenantAggregateRoot: shared.NewTenantAggregateRoot(actor.TenantID, actor.UserID),
		InvoiceID:           invoice.ID,
		VendorID:            invoice.VendorID,
		MatchMode:           outcome.Mode,
		Status:              outcome.Status,
		ExceptionCode:       outcome.ExceptionCode,
		WithinTolerance:     outcome.WithinTolerance,
		Detail:              outcome.Detail,
	}

	m.AddDomainEvent(NewMatchEvaluatedEvent(m))

	return m, nil
}

// IsException returns true if the result still needs resolution
func (m *MatchResult) IsException() bool {
	return m.Status == MatchStatusException
}

// CheckVersion compares the stored version with the caller's expectation
func (m *MatchResult) CheckVersion(expectedVersion int) error {
	if m.Version != expectedVersion {
		return NewMatchConcurrencyError(m.ID, expectedVersion, m.Version)
	}
	return nil
}

// CanBeOverriddenBy checks the state and segregation-of-duties rules for an override.
// An overridden result is forced to passed, so the already-applied check runs first.
func (m *MatchResult) CanBeOverriddenBy(actor Actor) error {
	if m.IsOverridden {
		return ErrOverrideAlreadyApplied.WithDetails("match_id", m.ID.String())
	}
	if !m.IsException() {
		return ErrInvalidMatchStatus.WithDetails("match_id", m.ID.String(), "status", string(m.Status))
	}
	if actor.Is(m.CreatedBy) {
		return ErrOverrideSoDViolation.WithDetails("match_id", m.ID.String(), "user_id", actor.UserID.String())
	}
	return nil
}

// ApplyOverride forces the result to passed on behalf of actor.
// Permission and version checks belong to the caller.
func (m *MatchResult) ApplyOverride(actor Actor, reason string) error {
	if err := m.CanBeOverriddenBy(actor); err != nil {
		return err
	}
	reason = strings.TrimSpace(reason)
	if reason == "" {
		return ErrOverrideReasonRequired
	}

	now := time.Now().UTC()
	approvedBy := actor.UserID
	m.IsOverridden = true
	m.Status = MatchStatusPassed
	m.OverrideApprovedBy = &approvedBy
	m.OverrideReason = reason
	m.OverriddenAt = &now
	m.IncrementVersion()

	m.AddDomainEvent(NewMatchOverriddenEvent(m))

	return nil
}
