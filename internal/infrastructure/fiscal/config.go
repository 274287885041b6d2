package fiscal

import (
	"fmt"
	"strings"
	"time"

	"github.com/erp/apcontrols/internal/domain/finance"
	"github.com/erp/apcontrols/internal/infrastructure/config"
	"github.com/google/uuid"
)

const dateLayout = "2006-01-02"

// FromConfig builds a calendar from the periods declared under fiscal.periods
func FromConfig(cfg config.FiscalConfig) (*InMemoryCalendar, error) {
	cal := NewInMemoryCalendar(cfg.RequireDefinedPeriod)
	for i, s := range cfg.Periods {
		period, err := parsePeriod(s)
		if err != nil {
			return nil, fmt.Errorf("fiscal.periods[%d]: %w", i, err)
		}
		if err := cal.AddPeriod(period); err != nil {
			return nil, fmt.Errorf("fiscal.periods[%d]: %w", i, err)
		}
	}
	return cal, nil
}

func parsePeriod(s config.FiscalPeriodSetting) (finance.FiscalPeriod, error) {
	tenantID, err := uuid.Parse(s.TenantID)
	if err != nil {
		return finance.FiscalPeriod{}, fmt.Errorf("invalid tenant_id %q: %w", s.TenantID, err)
	}
	start, err := time.Parse(dateLayout, s.Start)
	if err != nil {
		return finance.FiscalPeriod{}, fmt.Errorf("invalid start %q: %w", s.Start, err)
	}
	end, err := time.Parse(dateLayout, s.End)
	if err != nil {
		return finance.FiscalPeriod{}, fmt.Errorf("invalid end %q: %w", s.End, err)
	}
	return finance.FiscalPeriod{
		TenantID:  tenantID,
		Name:      s.Name,
		StartDate: start,
		EndDate:   end,
		Status:    finance.FiscalPeriodStatus(strings.ToUpper(s.Status)),
	}, nil
}
