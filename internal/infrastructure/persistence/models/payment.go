package models

import (
	"time"

	"github.com/erp/apcontrols/internal/domain/finance"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// PaymentModel is the persistence model for the Payment aggregate root.
// Amount keeps four fractional digits so no caller-supplied precision is lost.
type PaymentModel struct {
	AggregateModel
	TenantID         uuid.UUID             `gorm:"type:uuid;not null;uniqueIndex:idx_payments_tenant_key,priority:1;index:idx_payments_tenant_status,priority:1"`
	IdempotencyKey   string                `gorm:"type:varchar(255);not null;uniqueIndex:idx_payments_tenant_key,priority:2"`
	VendorID         uuid.UUID             `gorm:"type:uuid;not null;index"`
	VendorName       string                `gorm:"type:varchar(200)"`
	Amount           decimal.Decimal       `gorm:"type:decimal(19,4);not null"`
	Currency         string                `gorm:"type:char(3);not null"`
	Status           finance.PaymentStatus `gorm:"type:varchar(20);not null;default:'draft';index:idx_payments_tenant_status,priority:2"`
	SourceDocumentID *uuid.UUID            `gorm:"type:uuid"`
	PaymentDate      time.Time             `gorm:"type:date;not null"`
	Memo             string                `gorm:"type:text"`
	SubmittedAt      *time.Time
	ApprovedBy       *uuid.UUID `gorm:"type:uuid"`
	ApprovedAt       *time.Time
	ProcessingAt     *time.Time
	CompletedAt      *time.Time
	FailedAt         *time.Time
	FailureReason    string `gorm:"type:text"`
	RetryCount       int    `gorm:"not null;default:0"`
}

// TableName returns the table name for GORM
func (PaymentModel) TableName() string {
	return "ap_payments"
}

// ToDomain converts the persistence model to a domain Payment.
func (m *PaymentModel) ToDomain() *finance.Payment {
	return &finance.Payment{
		TenantAggregateRoot: m.ToDomainTenantAggregateRoot(m.TenantID),
		VendorID:            m.VendorID,
		VendorName:          m.VendorName,
		Amount:              m.Amount,
		Currency:            m.Currency,
		Status:              m.Status,
		IdempotencyKey:      m.IdempotencyKey,
		SourceDocumentID:    m.SourceDocumentID,
		PaymentDate:         m.PaymentDate.UTC(),
		Memo:                m.Memo,
		SubmittedAt:         m.SubmittedAt,
		ApprovedBy:          m.ApprovedBy,
		ApprovedAt:          m.ApprovedAt,
		ProcessingAt:        m.ProcessingAt,
		CompletedAt:         m.CompletedAt,
		FailedAt:            m.FailedAt,
		FailureReason:       m.FailureReason,
		RetryCount:          m.RetryCount,
	}
}

// PaymentModelFromDomain creates a persistence model from a domain Payment.
func PaymentModelFromDomain(p *finance.Payment) *PaymentModel {
	m := &PaymentModel{
		TenantID:         p.TenantID,
		IdempotencyKey:   p.IdempotencyKey,
		VendorID:         p.VendorID,
		VendorName:       p.VendorName,
		Amount:           p.Amount,
		Currency:         p.Currency,
		Status:           p.Status,
		SourceDocumentID: p.SourceDocumentID,
		PaymentDate:      p.PaymentDate,
		Memo:             p.Memo,
		SubmittedAt:      p.SubmittedAt,
		ApprovedBy:       p.ApprovedBy,
		ApprovedAt:       p.ApprovedAt,
		ProcessingAt:     p.ProcessingAt,
		CompletedAt:      p.CompletedAt,
		FailedAt:         p.FailedAt,
		FailureReason:    p.FailureReason,
		RetryCount:       p.RetryCount,
	}
	m.FromDomainTenantAggregateRoot(p.TenantAggregateRoot)
	return m
}

// LifecycleColumns are the columns a status transition may change.
// Amount, currency, vendor and key are never part of an update.
func (m *PaymentModel) LifecycleColumns() map[string]any {
	return map[string]any{
		"status":         m.Status,
		"submitted_at":   m.SubmittedAt,
		"approved_by":    m.ApprovedBy,
		"approved_at":    m.ApprovedAt,
		"processing_at":  m.ProcessingAt,
		"completed_at":   m.CompletedAt,
		"failed_at":      m.FailedAt,
		"failure_reason": m.FailureReason,
		"retry_count":    m.RetryCount,
		"version":        m.Version,
		"updated_at":     m.UpdatedAt,
	}
}

// PaymentApprovalModel is an immutable approval row
type PaymentApprovalModel struct {
	ID         uuid.UUID                `gorm:"type:uuid;primaryKey"`
	TenantID   uuid.UUID                `gorm:"type:uuid;not null;index:idx_payment_approvals_payment,priority:1"`
	PaymentID  uuid.UUID                `gorm:"type:uuid;not null;index:idx_payment_approvals_payment,priority:2"`
	ApproverID uuid.UUID                `gorm:"type:uuid;not null"`
	Decision   finance.ApprovalDecision `gorm:"type:varchar(20);not null"`
	Comment    string                   `gorm:"type:text"`
	DecidedAt  time.Time                `gorm:"not null"`
}

// TableName returns the table name for GORM
func (PaymentApprovalModel) TableName() string {
	return "ap_payment_approvals"
}

// ToDomain converts the persistence model to a domain PaymentApproval.
func (m *PaymentApprovalModel) ToDomain() finance.PaymentApproval {
	return finance.PaymentApproval{
		ID:         m.ID,
		PaymentID:  m.PaymentID,
		TenantID:   m.TenantID,
		ApproverID: m.ApproverID,
		Decision:   m.Decision,
		Comment:    m.Comment,
		Timestamp:  m.DecidedAt,
	}
}

// PaymentApprovalModelFromDomain creates a persistence model from a domain PaymentApproval.
func PaymentApprovalModelFromDomain(a *finance.PaymentApproval) *PaymentApprovalModel {
	return &PaymentApprovalModel{
		ID:         a.ID,
		TenantID:   a.TenantID,
		PaymentID:  a.PaymentID,
		ApproverID: a.ApproverID,
		Decision:   a.Decision,
		Comment:    a.Comment,
		DecidedAt:  a.Timestamp,
	}
}
