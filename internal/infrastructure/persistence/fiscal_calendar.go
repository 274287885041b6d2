package persistence

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/erp/apcontrols/internal/domain/finance"
	"github.com/erp/apcontrols/internal/infrastructure/persistence/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// GormFiscalCalendar answers period questions from ap_fiscal_periods
type GormFiscalCalendar struct {
	db                   *gorm.DB
	requireDefinedPeriod bool
}

// NewGormFiscalCalendar creates a new GormFiscalCalendar.
// With requireDefinedPeriod set, a date outside every defined period counts as closed.
func NewGormFiscalCalendar(db *gorm.DB, requireDefinedPeriod bool) *GormFiscalCalendar {
	return &GormFiscalCalendar{db: db, requireDefinedPeriod: requireDefinedPeriod}
}

// IsPeriodOpen reports whether postings dated on date are allowed
func (c *GormFiscalCalendar) IsPeriodOpen(ctx context.Context, tenantID uuid.UUID, date time.Time) (bool, error) {
	day := calendarDay(date)

	var model models.FiscalPeriodModel
	err := c.db.WithContext(ctx).
		Where("tenant_id = ? AND start_date <= ? AND end_date >= ?", tenantID, day, day).
		Order("start_date DESC").
		First(&model).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return !c.requireDefinedPeriod, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to load fiscal period: %w", err)
	}
	return model.Status.AcceptsPostings(), nil
}

// SavePeriod stores a new period
func (c *GormFiscalCalendar) SavePeriod(ctx context.Context, period finance.FiscalPeriod) error {
	if err := period.Validate(); err != nil {
		return err
	}
	model := models.FiscalPeriodModel{
		ID:        uuid.New(),
		TenantID:  period.TenantID,
		Name:      period.Name,
		StartDate: calendarDay(period.StartDate),
		EndDate:   calendarDay(period.EndDate),
		Status:    period.Status,
	}
	if err := c.db.WithContext(ctx).Create(&model).Error; err != nil {
		return fmt.Errorf("failed to save fiscal period: %w", err)
	}
	return nil
}

var _ finance.FiscalCalendar = (*GormFiscalCalendar)(nil)

func calendarDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
