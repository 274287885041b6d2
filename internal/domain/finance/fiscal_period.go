package finance

import (
	"time"

	"github.com/google/uuid"
)

// FiscalPeriodStatus is the posting state of an accounting period
type FiscalPeriodStatus string

const (
	FiscalPeriodOpen      FiscalPeriodStatus = "OPEN"
	FiscalPeriodSoftClose FiscalPeriodStatus = "SOFT_CLOSE"
	FiscalPeriodHardClose FiscalPeriodStatus = "HARD_CLOSE"
	FiscalPeriodLocked    FiscalPeriodStatus = "LOCKED"
)

// IsValid checks if the status is a valid FiscalPeriodStatus
func (s FiscalPeriodStatus) IsValid() bool {
	switch s {
	case FiscalPeriodOpen, FiscalPeriodSoftClose, FiscalPeriodHardClose, FiscalPeriodLocked:
		return true
	}
	return false
}

// AcceptsPostings reports whether new payments may be dated in the period.
// A soft-closed period still accepts them.
func (s FiscalPeriodStatus) AcceptsPostings() bool {
	return s == FiscalPeriodOpen || s == FiscalPeriodSoftClose
}

// FiscalPeriod is a closed date range [StartDate, EndDate] of one tenant's calendar
type FiscalPeriod struct {
	TenantID  uuid.UUID          `json:"tenant_id"`
	Name      string             `json:"name"`
	StartDate time.Time          `json:"start_date"`
	EndDate   time.Time          `json:"end_date"`
	Status    FiscalPeriodStatus `json:"status"`
}

// Contains reports whether date falls in the period, compared by calendar day
func (p FiscalPeriod) Contains(date time.Time) bool {
	day := truncateToDate(date)
	return !day.Before(truncateToDate(p.StartDate)) && !day.After(truncateToDate(p.EndDate))
}

// Validate checks the status and that the range is not inverted
func (p FiscalPeriod) Validate() error {
	if !p.Status.IsValid() {
		return ErrInvalidFiscalPeriod.WithDetails("status", string(p.Status))
	}
	if p.StartDate.IsZero() || p.EndDate.IsZero() {
		return ErrInvalidFiscalPeriod.WithMessage("Fiscal period needs a start and end date")
	}
	if truncateToDate(p.EndDate).Before(truncateToDate(p.StartDate)) {
		return ErrInvalidFiscalPeriod.WithMessage("Fiscal period ends before it starts")
	}
	return nil
}
