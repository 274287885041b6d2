package finance

import (
	"time"

	"github.com/google/uuid"
)

// ApprovalDecision records what an approver decided
type ApprovalDecision string

const (
	ApprovalDecisionApproved ApprovalDecision = "approved"
)

// PaymentApproval is an immutable record of one approval event
type PaymentApproval struct {
	ID         uuid.UUID        `json:"id"`
	PaymentID  uuid.UUID        `json:"payment_id"`
	TenantID   uuid.UUID        `json:"tenant_id"`
	ApproverID uuid.UUID        `json:"approver_id"`
	Decision   ApprovalDecision `json:"decision"`
	Comment    string           `json:"comment,omitempty"`
	Timestamp  time.Time        `json:"timestamp"`
}

// NewPaymentApproval records that actor approved p
func NewPaymentApproval(p *Payment, actor Actor, comment string) *PaymentApproval {
	timestamp := time.Now().UTC()
	if p.ApprovedAt != nil {
		timestamp = *p.ApprovedAt
	}
	return &PaymentApproval{
		ID:         uuid.New(),
		PaymentID:  p.ID,
		TenantID:   p.TenantID,
		ApproverID: actor.UserID,
		Decision:   ApprovalDecisionApproved,
		Comment:    comment,
		Timestamp:  timestamp,
	}
}
