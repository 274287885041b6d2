package handler

import (
	"time"

	"github.com/erp/apcontrols/internal/domain/finance"
)

// IdempotencyKeyHeader carries the caller's payment creation key
const IdempotencyKeyHeader = "Idempotency-Key"

// paymentDateLayout is the calendar-date wire format of payment_date
const paymentDateLayout = "2006-01-02"

// CreatePaymentRequest creates a draft vendor payment.
// Amount is a decimal string so no precision is lost in transit.
type CreatePaymentRequest struct {
	VendorID         string  `json:"vendor_id" binding:"required,uuid"`
	VendorName       string  `json:"vendor_name" binding:"required,max=200"`
	Amount           string  `json:"amount" binding:"required,decimal"`
	Currency         string  `json:"currency" binding:"required"`
	PaymentDate      string  `json:"payment_date" binding:"required,datetime=2006-01-02"`
	SourceDocumentID *string `json:"source_document_id" binding:"omitempty,uuid"`
	Memo             string  `json:"memo" binding:"max=1000"`
}

// PaymentTransitionRequest carries the version a lifecycle step expects
type PaymentTransitionRequest struct {
	ExpectedVersion int `json:"expected_version" binding:"required,gte=1"`
}

// ApprovePaymentRequest approves a pending payment
type ApprovePaymentRequest struct {
	ExpectedVersion int    `json:"expected_version" binding:"required,gte=1"`
	Comment         string `json:"comment" binding:"max=1000"`
}

// FailPaymentRequest records a processing failure
type FailPaymentRequest struct {
	ExpectedVersion int    `json:"expected_version" binding:"required,gte=1"`
	Reason          string `json:"reason"`
}

// PaymentResponse represents a payment in API responses
type PaymentResponse struct {
	ID               string  `json:"id"`
	TenantID         string  `json:"tenant_id"`
	VendorID         string  `json:"vendor_id"`
	VendorName       string  `json:"vendor_name"`
	Amount           string  `json:"amount"`
	Currency         string  `json:"currency"`
	Status           string  `json:"status"`
	IdempotencyKey   string  `json:"idempotency_key"`
	SourceDocumentID *string `json:"source_document_id,omitempty"`
	PaymentDate      string  `json:"payment_date"`
	Memo             string  `json:"memo,omitempty"`
	SubmittedAt      *string `json:"submitted_at,omitempty"`
	ApprovedBy       *string `json:"approved_by,omitempty"`
	ApprovedAt       *string `json:"approved_at,omitempty"`
	ProcessingAt     *string `json:"processing_at,omitempty"`
	CompletedAt      *string `json:"completed_at,omitempty"`
	FailedAt         *string `json:"failed_at,omitempty"`
	FailureReason    string  `json:"failure_reason,omitempty"`
	RetryCount       int     `json:"retry_count"`
	CreatedBy        string  `json:"created_by"`
	CreatedAt        string  `json:"created_at"`
	UpdatedAt        string  `json:"updated_at"`
	Version          int     `json:"version"`
}

// PaymentApprovalResponse represents one recorded approval
type PaymentApprovalResponse struct {
	ID         string `json:"id"`
	PaymentID  string `json:"payment_id"`
	ApproverID string `json:"approver_id"`
	Decision   string `json:"decision"`
	Comment    string `json:"comment,omitempty"`
	Timestamp  string `json:"timestamp"`
}

// NewPaymentResponse converts a domain payment
func NewPaymentResponse(p *finance.Payment) PaymentResponse {
	resp := PaymentResponse{
		ID:             p.ID.String(),
		TenantID:       p.TenantID.String(),
		VendorID:       p.VendorID.String(),
		VendorName:     p.VendorName,
		Amount:         p.Amount.StringFixed(2),
		Currency:       p.Currency,
		Status:         string(p.Status),
		IdempotencyKey: p.IdempotencyKey,
		PaymentDate:    p.PaymentDate.Format(paymentDateLayout),
		Memo:           p.Memo,
		SubmittedAt:    formatTimePtr(p.SubmittedAt),
		ApprovedAt:     formatTimePtr(p.ApprovedAt),
		ProcessingAt:   formatTimePtr(p.ProcessingAt),
		CompletedAt:    formatTimePtr(p.CompletedAt),
		FailedAt:       formatTimePtr(p.FailedAt),
		FailureReason:  p.FailureReason,
		RetryCount:     p.RetryCount,
		CreatedBy:      p.CreatedBy.String(),
		CreatedAt:      p.CreatedAt.Format(time.RFC3339),
		UpdatedAt:      p.UpdatedAt.Format(time.RFC3339),
		Version:        p.Version,
	}
	if !p.Amount.Equal(p.Amount.Round(2)) {
		resp.Amount = p.Amount.String()
	}
	if p.SourceDocumentID != nil {
		id := p.SourceDocumentID.String()
		resp.SourceDocumentID = &id
	}
	if p.ApprovedBy != nil {
		by := p.ApprovedBy.String()
		resp.ApprovedBy = &by
	}
	return resp
}

// NewPaymentApprovalResponse converts a domain approval record
func NewPaymentApprovalResponse(a *finance.PaymentApproval) PaymentApprovalResponse {
	return PaymentApprovalResponse{
		ID:         a.ID.String(),
		PaymentID:  a.PaymentID.String(),
		ApproverID: a.ApproverID.String(),
		Decision:   string(a.Decision),
		Comment:    a.Comment,
		Timestamp:  a.Timestamp.Format(time.RFC3339),
	}
}
