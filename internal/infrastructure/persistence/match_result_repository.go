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

// GormMatchResultRepository implements MatchResultRepository using GORM
type GormMatchResultRepository struct {
	db *gorm.DB
}

// NewGormMatchResultRepository creates a new GormMatchResultRepository
func NewGormMatchResultRepository(db *gorm.DB) *GormMatchResultRepository {
	return &GormMatchResultRepository{db: db}
}

// FindByID finds a match result by ID for a tenant
func (r *GormMatchResultRepository) FindByID(ctx context.Context, tenantID, id uuid.UUID) (*finance.MatchResult, error) {
	var model models.MatchResultModel
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

// FindByInvoice finds the match result recorded for an invoice
func (r *GormMatchResultRepository) FindByInvoice(ctx context.Context, tenantID, invoiceID uuid.UUID) (*finance.MatchResult, error) {
	var model models.MatchResultModel
	if err := r.db.WithContext(ctx).
		Where("tenant_id = ? AND invoice_id = ?", tenantID, invoiceID).
		First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// ExistsForInvoice checks whether the invoice already has a match result
func (r *GormMatchResultRepository) ExistsForInvoice(ctx context.Context, tenantID, invoiceID uuid.UUID) (bool, error) {
	var count int64
	if err := r.db.WithContext(ctx).
		Model(&models.MatchResultModel{}).
		Where("tenant_id = ? AND invoice_id = ?", tenantID, invoiceID).
		Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

// Create inserts a new match result.
// A concurrent evaluation of the same invoice loses on the unique index.
func (r *GormMatchResultRepository) Create(ctx context.Context, result *finance.MatchResult) error {
	model := models.MatchResultModelFromDomain(result)
	if err := r.db.WithContext(ctx).Create(model).Error; err != nil {
		if isUniqueViolation(err) {
			return finance.NewMatchAlreadyExistsError(result.InvoiceID)
		}
		return fmt.Errorf("failed to create match result: %w", err)
	}
	return nil
}

// Update writes the override columns only if the stored version still equals expectedVersion
func (r *GormMatchResultRepository) Update(ctx context.Context, result *finance.MatchResult, expectedVersion int) error {
	model := models.MatchResultModelFromDomain(result)
	tx := r.db.WithContext(ctx).
		Model(&models.MatchResultModel{}).
		Where("tenant_id = ? AND id = ? AND version = ?", result.TenantID, result.ID, expectedVersion).
		Updates(model.OverrideColumns())
	if tx.Error != nil {
		return fmt.Errorf("failed to update match result: %w", tx.Error)
	}
	if tx.RowsAffected == 0 {
		return finance.ErrMatchConcurrency.WithDetails(
			"match_id", result.ID.String(),
			"expected_version", expectedVersion,
		)
	}
	return nil
}

// Ensure GormMatchResultRepository implements MatchResultRepository
var _ finance.MatchResultRepository = (*GormMatchResultRepository)(nil)
