package persistence

import (
	"context"
	"fmt"
	"time"

	"github.com/erp/apcontrols/internal/domain/finance"
	"github.com/erp/apcontrols/internal/infrastructure/persistence/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// GormGLPostingQueue hands completed payments to the general ledger by queueing
// a posting request row. The ledger side consumes ap_gl_posting_requests.
type GormGLPostingQueue struct {
	db *gorm.DB
}

// NewGormGLPostingQueue creates a new GormGLPostingQueue
func NewGormGLPostingQueue(db *gorm.DB) *GormGLPostingQueue {
	return &GormGLPostingQueue{db: db}
}

// Post queues payment. Posting the same payment twice is a no-op.
func (q *GormGLPostingQueue) Post(ctx context.Context, payment *finance.Payment) error {
	if payment.Status != finance.PaymentStatusCompleted {
		return fmt.Errorf("failed to queue gl posting: payment %s is %s", payment.ID, payment.Status)
	}
	request := models.GLPostingRequestModel{
		ID:          uuid.New(),
		TenantID:    payment.TenantID,
		PaymentID:   payment.ID,
		VendorID:    payment.VendorID,
		Amount:      payment.Amount,
		Currency:    payment.Currency,
		PaymentDate: payment.PaymentDate,
		Status:      models.GLPostingPending,
		RequestedAt: time.Now().UTC(),
	}
	if err := q.db.WithContext(ctx).Create(&request).Error; err != nil {
		if isUniqueViolation(err) {
			return nil
		}
		return fmt.Errorf("failed to queue gl posting: %w", err)
	}
	return nil
}

// Pending returns queued requests of a tenant that the ledger has not picked up
func (q *GormGLPostingQueue) Pending(ctx context.Context, tenantID uuid.UUID) ([]models.GLPostingRequestModel, error) {
	var rows []models.GLPostingRequestModel
	if err := q.db.WithContext(ctx).
		Where("tenant_id = ? AND status = ?", tenantID, models.GLPostingPending).
		Order("requested_at ASC").
		Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("failed to list gl posting requests: %w", err)
	}
	return rows, nil
}

var _ finance.GLPoster = (*GormGLPostingQueue)(nil)
