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

// GormPaymentRepository implements PaymentRepository using GORM
type GormPaymentRepository struct {
	db *gorm.DB
}

// NewGormPaymentRepository creates a new GormPaymentRepository
func NewGormPaymentRepository(db *gorm.DB) *GormPaymentRepository {
	return &GormPaymentRepository{db: db}
}

// FindByID finds a payment by ID for a tenant
func (r *GormPaymentRepository) FindByID(ctx context.Context, tenantID, id uuid.UUID) (*finance.Payment, error) {
	var model models.PaymentModel
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

// FindByIdempotencyKey finds the payment created with key
func (r *GormPaymentRepository) FindByIdempotencyKey(ctx context.Context, tenantID uuid.UUID, key string) (*finance.Payment, error) {
	var model models.PaymentModel
	if err := r.db.WithContext(ctx).
		Where("tenant_id = ? AND idempotency_key = ?", tenantID, key).
		First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// Create inserts a new payment
func (r *GormPaymentRepository) Create(ctx context.Context, payment *finance.Payment) error {
	model := models.PaymentModelFromDomain(payment)
	if err := r.db.WithContext(ctx).Create(model).Error; err != nil {
		if isUniqueViolation(err) {
			return finance.ErrDuplicateIdempotencyKey.WithDetails("idempotency_key", payment.IdempotencyKey)
		}
		return fmt.Errorf("failed to create payment: %w", err)
	}
	return nil
}

// Update writes lifecycle columns only if the stored version still equals expectedVersion
func (r *GormPaymentRepository) Update(ctx context.Context, payment *finance.Payment, expectedVersion int) error {
	model := models.PaymentModelFromDomain(payment)
	tx := r.db.WithContext(ctx).
		Model(&models.PaymentModel{}).
		Where("tenant_id = ? AND id = ? AND version = ?", payment.TenantID, payment.ID, expectedVersion).
		Updates(model.LifecycleColumns())
	if tx.Error != nil {
		return fmt.Errorf("failed to update payment: %w", tx.Error)
	}
	if tx.RowsAffected == 0 {
		return finance.ErrConcurrencyConflict.WithDetails(
			"payment_id", payment.ID.String(),
			"expected_version", expectedVersion,
		)
	}
	return nil
}

// Ensure GormPaymentRepository implements PaymentRepository
var _ finance.PaymentRepository = (*GormPaymentRepository)(nil)

// GormPaymentApprovalRepository implements PaymentApprovalRepository using GORM
type GormPaymentApprovalRepository struct {
	db *gorm.DB
}

// NewGormPaymentApprovalRepository creates a new GormPaymentApprovalRepository
func NewGormPaymentApprovalRepository(db *gorm.DB) *GormPaymentApprovalRepository {
	return &GormPaymentApprovalRepository{db: db}
}

// Create inserts an approval record
func (r *GormPaymentApprovalRepository) Create(ctx context.Context, approval *finance.PaymentApproval) error {
	if err := r.db.WithContext(ctx).Create(models.PaymentApprovalModelFromDomain(approval)).Error; err != nil {
		return fmt.Errorf("failed to create payment approval: %w", err)
	}
	return nil
}

// ListByPayment returns every approval recorded for a payment, oldest first
func (r *GormPaymentApprovalRepository) ListByPayment(ctx context.Context, tenantID, paymentID uuid.UUID) ([]finance.PaymentApproval, error) {
	var rows []models.PaymentApprovalModel
	if err := r.db.WithContext(ctx).
		Where("tenant_id = ? AND payment_id = ?", tenantID, paymentID).
		Order("decided_at ASC").
		Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("failed to list payment approvals: %w", err)
	}
	approvals := make([]finance.PaymentApproval, 0, len(rows))
	for i := range rows {
		approvals = append(approvals, rows[i].ToDomain())
	}
	return approvals, nil
}

// Ensure GormPaymentApprovalRepository implements PaymentApprovalRepository
var _ finance.PaymentApprovalRepository = (*GormPaymentApprovalRepository)(nil)
