// Package fiscal provides an in-process fiscal calendar.
package fiscal

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/erp/apcontrols/internal/domain/finance"
	"github.com/google/uuid"
)

// InMemoryCalendar holds fiscal periods per tenant in memory.
// It answers IsPeriodOpen the same way as the database calendar: the period
// with the latest start date containing the day decides, and a day outside
// every period is open unless requireDefinedPeriod is set.
type InMemoryCalendar struct {
	mu                   sync.RWMutex
	periods              map[uuid.UUID][]finance.FiscalPeriod
	requireDefinedPeriod bool
}

// NewInMemoryCalendar creates an empty calendar
func NewInMemoryCalendar(requireDefinedPeriod bool) *InMemoryCalendar {
	return &InMemoryCalendar{
		periods:              make(map[uuid.UUID][]finance.FiscalPeriod),
		requireDefinedPeriod: requireDefinedPeriod,
	}
}

// AddPeriod validates and stores a period. A period with the same name for
// the tenant is replaced.
func (c *InMemoryCalendar) AddPeriod(period finance.FiscalPeriod) error {
	if err := period.Validate(); err != nil {
		return err
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	periods := c.periods[period.TenantID]
	replaced := false
	for i := range periods {
		if periods[i].Name == period.Name {
			periods[i] = period
			replaced = true
			break
		}
	}
	if !replaced {
		periods = append(periods, period)
	}
	sort.SliceStable(periods, func(i, j int) bool {
		return periods[i].StartDate.After(periods[j].StartDate)
	})
	c.periods[period.TenantID] = periods
	return nil
}

// SetStatus changes the status of a named period
func (c *InMemoryCalendar) SetStatus(tenantID uuid.UUID, name string, status finance.FiscalPeriodStatus) error {
	if !status.IsValid() {
		return finance.ErrInvalidFiscalPeriod.WithDetails("status", string(status))
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	for i := range c.periods[tenantID] {
		if c.periods[tenantID][i].Name == name {
			c.periods[tenantID][i].Status = status
			return nil
		}
	}
	return finance.ErrInvalidFiscalPeriod.WithMessage("Fiscal period %q is not defined", name)
}

// Periods returns the tenant's periods, latest start first
func (c *InMemoryCalendar) Periods(tenantID uuid.UUID) []finance.FiscalPeriod {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return append([]finance.FiscalPeriod(nil), c.periods[tenantID]...)
}

// IsPeriodOpen reports whether payments may be dated on date
func (c *InMemoryCalendar) IsPeriodOpen(_ context.Context, tenantID uuid.UUID, date time.Time) (bool, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	for _, period := range c.periods[tenantID] {
		if period.Contains(date) {
			return period.Status.AcceptsPostings(), nil
		}
	}
	return !c.requireDefinedPeriod, nil
}

var _ finance.FiscalCalendar = (*InMemoryCalendar)(nil)
