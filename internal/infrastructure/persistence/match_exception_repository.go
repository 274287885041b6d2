package persistence

import (
	"context"
	"errors"
	"fmt"

	"github.com/erp/apcontrols/internal/domain/finance"
	"github.com/erp/apcontrols/internal/domain/shared"
	"github.com/erp/apcontrols/internal/infrastructure/persistence/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// GormMatchExceptionRepository implements MatchExceptionRepository using GORM
type GormMatchExceptionRepository struct {
	db *gorm.DB
}

// NewGormMatchExceptionRepository creates a new GormMatchExceptionRepository
func NewGormMatchExceptionRepository(db *gorm.DB) *GormMatchExceptionRepository {
	return &GormMatchExceptionRepository{db: db}
}

// FindByID finds an exception by ID for a tenant
func (r *GormMatchExceptionRepository) FindByID(ctx context.Context, tenantID, id uuid.UUID) (*finance.MatchException, error) {
	var model models.MatchExceptionModel
	if err := r.db.WithContext(ctx).
		Where("tenant_id = ? AND id = ?", tenantID, id).
		First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindByMatchResult finds the exception opened for a match result
func (r *GormMatchExceptionRepository) FindByMatchResult(ctx context.Context, tenantID, matchResultID uuid.UUID) (*finance.MatchException, error) {
	var model models.MatchExceptionModel
	if err := r.db.WithContext(ctx).
		Where("tenant_id = ? AND match_result_id = ?", tenantID, matchResultID).
		First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// List returns one page of exceptions and the total count
func (r *GormMatchExceptionRepository) List(ctx context.Context, tenantID uuid.UUID, filter finance.ExceptionFilter) ([]finance.MatchException, int64, error) {
	query := r.db.WithContext(ctx).
		Model(&models.MatchExceptionModel{}).
		Where("tenant_id = ?", tenantID)

	if filter.ResolutionStatus != nil {
		query = query.Where("resolution_status = ?", *filter.ResolutionStatus)
	}
	if filter.Severity != nil {
		query = query.Where("severity = ?", *filter.Severity)
	}
	if filter.VendorID != nil {
		query = query.Where("vendor_id = ?", *filter.VendorID)
	}
	if filter.ExceptionCode != nil {
		query = query.Where("exception_code = ?", *filter.ExceptionCode)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count match exceptions: %w", err)
	}

	page := filter.Filter.Normalize()

	var rows []models.MatchExceptionModel
	if err := query.
		Clauses(exceptionSortColumns.OrderBy(page.OrderBy, page.OrderDir)).
		Limit(page.PageSize).
		Offset(page.Offset()).
		Find(&rows).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to list match exceptions: %w", err)
	}

	exceptions := make([]finance.MatchException, 0, len(rows))
	for i := range rows {
		exceptions = append(exceptions, *rows[i].ToDomain())
	}
	return exceptions, total, nil
}

// Create inserts a new exception
func (r *GormMatchExceptionRepository) Create(ctx context.Context, exception *finance.MatchException) error {
	model := models.MatchExceptionModelFromDomain(exception)
	if err := r.db.WithContext(ctx).Create(model).Error; err != nil {
		if isUniqueViolation(err) {
			return finance.NewMatchAlreadyExistsError(exception.InvoiceID)
		}
		return fmt.Errorf("failed to create match exception: %w", err)
	}
	return nil
}

// Update writes the resolution columns only if the stored version still equals expectedVersion
func (r *GormMatchExceptionRepository) Update(ctx context.Context, exception *finance.MatchException, expectedVersion int) error {
	model := models.MatchExceptionModelFromDomain(exception)
	tx := r.db.WithContext(ctx).
		Model(&models.MatchExceptionModel{}).
		Where("tenant_id = ? AND id = ? AND version = ?", exception.TenantID, exception.ID, expectedVersion).
		Updates(model.ResolutionColumns())
	if tx.Error != nil {
		return fmt.Errorf("failed to update match exception: %w", tx.Error)
	}
	if tx.RowsAffected == 0 {
		return finance.ErrExceptionConcurrency.WithDetails(
			"exception_id", exception.ID.String(),
			"expected_version", expectedVersion,
		)
	}
	return nil
}

// Ensure GormMatchExceptionRepository implements MatchExceptionRepository
var _ finance.MatchExceptionRepository = (*GormMatchExceptionRepository)(nil)
