package persistence

import (
	"context"
	"fmt"

	"github.com/erp/apcontrols/internal/domain/finance"
	"github.com/erp/apcontrols/internal/infrastructure/persistence/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// GormAuditRecorder appends audit events to ap_audit_events
type GormAuditRecorder struct {
	db *gorm.DB
}

// NewGormAuditRecorder creates a new GormAuditRecorder
func NewGormAuditRecorder(db *gorm.DB) *GormAuditRecorder {
	return &GormAuditRecorder{db: db}
}

// Record inserts event. Bound to a transaction, it commits with the audited change.
func (r *GormAuditRecorder) Record(ctx context.Context, event *finance.AuditEvent) error {
	if err := r.db.WithContext(ctx).Create(models.AuditEventModelFromDomain(event)).Error; err != nil {
		return fmt.Errorf("failed to record audit event: %w", err)
	}
	return nil
}

// ListByResource returns the audit trail of one resource, oldest first
func (r *GormAuditRecorder) ListByResource(ctx context.Context, tenantID uuid.UUID, resourceType string, resourceID uuid.UUID) ([]finance.AuditEvent, error) {
	var rows []models.AuditEventModel
	if err := r.db.WithContext(ctx).
		Where("tenant_id = ? AND resource_type = ? AND resource_id = ?", tenantID, resourceType, resourceID).
		Order("occurred_at ASC").
		Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("failed to list audit events: %w", err)
	}
	events := make([]finance.AuditEvent, 0, len(rows))
	for i := range rows {
		events = append(events, rows[i].ToDomain())
	}
	return events, nil
}

var _ finance.AuditRecorder = (*GormAuditRecorder)(nil)
