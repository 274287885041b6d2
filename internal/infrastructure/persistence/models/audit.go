package models

import (
	"time"

	"github.com/erp/apcontrols/internal/domain/finance"
	"github.com/google/uuid"
)

// AuditEventModel is an append-only audit row
type AuditEventModel struct {
	ID           uuid.UUID      `gorm:"type:uuid;primaryKey"`
	TenantID     uuid.UUID      `gorm:"type:uuid;not null;index:idx_audit_resource,priority:1"`
	EventType    string         `gorm:"type:varchar(100);not null;index"`
	ActorID      uuid.UUID      `gorm:"type:uuid;not null"`
	ResourceType string         `gorm:"type:varchar(50);not null;index:idx_audit_resource,priority:2"`
	ResourceID   uuid.UUID      `gorm:"type:uuid;not null;index:idx_audit_resource,priority:3"`
	Payload      map[string]any `gorm:"type:jsonb;serializer:json"`
	OccurredAt   time.Time      `gorm:"not null;index"`
}

// TableName returns the table name for GORM
func (AuditEventModel) TableName() string {
	return "ap_audit_events"
}

// AuditEventModelFromDomain creates a persistence model from a domain AuditEvent.
func AuditEventModelFromDomain(e *finance.AuditEvent) *AuditEventModel {
	return &AuditEventModel{
		ID:           e.ID,
		TenantID:     e.TenantID,
		EventType:    e.EventType,
		ActorID:      e.ActorID,
		ResourceType: e.ResourceType,
		ResourceID:   e.ResourceID,
		Payload:      e.Payload,
		OccurredAt:   e.Timestamp,
	}
}

// ToDomain converts the persistence model to a domain AuditEvent.
func (m *AuditEventModel) ToDomain() finance.AuditEvent {
	return finance.AuditEvent{
		ID:           m.ID,
		TenantID:     m.TenantID,
		EventType:    m.EventType,
		ActorID:      m.ActorID,
		ResourceType: m.ResourceType,
		ResourceID:   m.ResourceID,
		Payload:      m.Payload,
		Timestamp:    m.OccurredAt,
	}
}
