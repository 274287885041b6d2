package models

import (
	"time"

	"github.com/erp/apcontrols/internal/domain/finance"
	"github.com/google/uuid"
)

// MatchResultModel is the persistence model for the MatchResult aggregate root.
type MatchResultModel struct {
	AggregateModel
	TenantID           uuid.UUID              `gorm:"type:uuid;not null;uniqueIndex:idx_match_results_tenant_invoice,priority:1"`
	InvoiceID          uuid.UUID              `gorm:"type:uuid;not null;uniqueIndex:idx_match_results_tenant_invoice,priority:2"`
	VendorID           uuid.UUID              `gorm:"type:uuid;not null;index"`
	MatchMode          finance.MatchMode      `gorm:"type:varchar(10);not null"`
	Status             finance.MatchStatus    `gorm:"type:varchar(20);not null;index"`
	ExceptionCode      *finance.ExceptionCode `gorm:"type:varchar(40)"`
	WithinTolerance    bool                   `gorm:"not null;default:false"`
	IsOverridden       bool                   `gorm:"not null;default:false"`
	OverrideApprovedBy *uuid.UUID             `gorm:"type:uuid"`
	OverrideReason     string                 `gorm:"type:text"`
	OverriddenAt       *time.Time
	Detail             finance.MatchDetail `gorm:"type:jsonb;serializer:json"`
}

// TableName returns the table name for GORM
func (MatchResultModel) TableName() string {
	return "ap_match_results"
}

// ToDomain converts the persistence model to a domain MatchResult.
func (m *MatchResultModel) ToDomain() *finance.MatchResult {
	return &finance.MatchResult{
		TenantAggregateRoot: m.ToDomainTenantAggregateRoot(m.TenantID),
		InvoiceID:           m.InvoiceID,
		VendorID:            m.VendorID,
		MatchMode:           m.MatchMode,
		Status:              m.Status,
		ExceptionCode:       m.ExceptionCode,
		WithinTolerance:     m.WithinTolerance,
		IsOverridden:        m.IsOverridden,
		OverrideApprovedBy:  m.OverrideApprovedBy,
		OverrideReason:      m.OverrideReason,
		OverriddenAt:        m.OverriddenAt,
		Detail:              m.Detail,
	}
}

// MatchResultModelFromDomain creates a persistence model from a domain MatchResult.
func MatchResultModelFromDomain(r *finance.MatchResult) *MatchResultModel {
	m := &MatchResultModel{
		TenantID:           r.TenantID,
		InvoiceID:          r.InvoiceID,
		VendorID:           r.VendorID,
		MatchMode:          r.MatchMode,
		Status:             r.Status,
		ExceptionCode:      r.ExceptionCode,
		WithinTolerance:    r.WithinTolerance,
		IsOverridden:       r.IsOverridden,
		OverrideApprovedBy: r.OverrideApprovedBy,
		OverrideReason:     r.OverrideReason,
		OverriddenAt:       r.OverriddenAt,
		Detail:             r.Detail,
	}
	m.FromDomainTenantAggregateRoot(r.TenantAggregateRoot)
	return m
}

// OverrideColumns are the only columns an override may change
func (m *MatchResultModel) OverrideColumns() map[string]any {
	return map[string]any{
		"status":               m.Status,
		"is_overridden":        m.IsOverridden,
		"override_approved_by": m.OverrideApprovedBy,
		"override_reason":      m.OverrideReason,
		"overridden_at":        m.OverriddenAt,
		"version":              m.Version,
		"updated_at":           m.UpdatedAt,
	}
}

// MatchExceptionModel is the persistence model for the exception queue.
type MatchExceptionModel struct {
	AggregateModel
	TenantID         uuid.UUID                 `gorm:"type:uuid;not null;uniqueIndex:idx_match_exceptions_tenant_match,priority:1;index:idx_match_exceptions_queue,priority:1"`
	MatchResultID    uuid.UUID                 `gorm:"type:uuid;not null;uniqueIndex:idx_match_exceptions_tenant_match,priority:2"`
	InvoiceID        uuid.UUID                 `gorm:"type:uuid;not null;index"`
	VendorID         uuid.UUID                 `gorm:"type:uuid;not null;index"`
	ExceptionCode    finance.ExceptionCode     `gorm:"type:varchar(40);not null;index"`
	Severity         finance.ExceptionSeverity `gorm:"type:varchar(10);not null;index"`
	ResolutionStatus finance.ResolutionStatus  `gorm:"type:varchar(20);not null;default:'open';index:idx_match_exceptions_queue,priority:2"`
	ResolutionAction *finance.ResolutionAction `gorm:"type:varchar(30)"`
	ResolutionNote   string                    `gorm:"type:text"`
	ResolvedBy       *uuid.UUID                `gorm:"type:uuid"`
	ResolvedAt       *time.Time
}

// TableName returns the table name for GORM
func (MatchExceptionModel) TableName() string {
	return "ap_match_exceptions"
}

// ToDomain converts the persistence model to a domain MatchException.
func (m *MatchExceptionModel) ToDomain() *finance.MatchException {
	return &finance.MatchException{
		TenantAggregateRoot: m.ToDomainTenantAggregateRoot(m.TenantID),
		MatchResultID:       m.MatchResultID,
		InvoiceID:           m.InvoiceID,
		VendorID:            m.VendorID,
		ExceptionCode:       m.ExceptionCode,
		Severity:            m.Severity,
		ResolutionStatus:    m.ResolutionStatus,
		ResolutionAction:    m.ResolutionAction,
		ResolutionNote:      m.ResolutionNote,
		ResolvedBy:          m.ResolvedBy,
		ResolvedAt:          m.ResolvedAt,
	}
}

// MatchExceptionModelFromDomain creates a persistence model from a domain MatchException.
func MatchExceptionModelFromDomain(e *finance.MatchException) *MatchExceptionModel {
	m := &MatchExceptionModel{
		TenantID:         e.TenantID,
		MatchResultID:    e.MatchResultID,
		InvoiceID:        e.InvoiceID,
		VendorID:         e.VendorID,
		ExceptionCode:    e.ExceptionCode,
		Severity:         e.Severity,
		ResolutionStatus: e.ResolutionStatus,
		ResolutionAction: e.ResolutionAction,
		ResolutionNote:   e.ResolutionNote,
		ResolvedBy:       e.ResolvedBy,
		ResolvedAt:       e.ResolvedAt,
	}
	m.FromDomainTenantAggregateRoot(e.TenantAggregateRoot)
	return m
}

// ResolutionColumns are the columns changed when an exception is closed
func (m *MatchExceptionModel) ResolutionColumns() map[string]any {
	return map[string]any{
		"resolution_status": m.ResolutionStatus,
		"resolution_action": m.ResolutionAction,
		"resolution_note":   m.ResolutionNote,
		"resolved_by":       m.ResolvedBy,
		"resolved_at":       m.ResolvedAt,
		"version":           m.Version,
		"updated_at":        m.UpdatedAt,
	}
}
