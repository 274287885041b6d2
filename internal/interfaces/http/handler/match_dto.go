package handler

import (
	"time"

	"github.com/erp/apcontrols/internal/domain/finance"
)

// EvaluateMatchRequest asks for a match evaluation of a submitted invoice
type EvaluateMatchRequest struct {
	InvoiceID string `json:"invoice_id" binding:"required,uuid"`
}

// OverrideMatchRequest manually passes an exception-status match result
type OverrideMatchRequest struct {
	Reason          string `json:"reason"`
	ExpectedVersion int    `json:"expected_version" binding:"required,gte=1"`
}

// ResolveExceptionRequest closes an open match exception
type ResolveExceptionRequest struct {
	Action          string `json:"action" binding:"required"`
	Note            string `json:"note" binding:"max=2000"`
	ExpectedVersion int    `json:"expected_version" binding:"required,gte=1"`
}

// ListExceptionsQuery filters the exception queue
type ListExceptionsQuery struct {
	Page          int    `form:"page" binding:"omitempty,min=1"`
	PageSize      int    `form:"page_size" binding:"omitempty,min=1,max=100"`
	OrderBy       string `form:"order_by"`
	OrderDir      string `form:"order_dir" binding:"omitempty,oneof=asc desc"`
	Severity      string `form:"severity"`
	Status        string `form:"status" binding:"omitempty,oneof=open resolved"`
	VendorID      string `form:"vendor_id" binding:"omitempty,uuid"`
	ExceptionCode string `form:"exception_code"`
}

// LineVarianceResponse is the per-line evidence of a match
type LineVarianceResponse struct {
	LineNumber        int      `json:"line_number"`
	Codes             []string `json:"codes,omitempty"`
	InvoicedQuantity  string   `json:"invoiced_quantity"`
	InvoicedForLine   string   `json:"invoiced_for_line"`
	OrderedQuantity   *string  `json:"ordered_quantity,omitempty"`
	ReceivedQuantity  *string  `json:"received_quantity,omitempty"`
	InvoicedUnitCents int64    `json:"invoiced_unit_cents"`
	OrderedUnitCents  *int64   `json:"ordered_unit_cents,omitempty"`
}

// MatchDetailResponse is the evidence kept with a match result
type MatchDetailResponse struct {
	Codes             []string                `json:"codes,omitempty"`
	Lines             []LineVarianceResponse  `json:"lines,omitempty"`
	InvoiceTotalCents int64                   `json:"invoice_total_cents"`
	POTotalCents      *int64                  `json:"po_total_cents,omitempty"`
	GRNNumbers        []string                `json:"grn_numbers,omitempty"`
	VendorMismatch    *VendorMismatchResponse `json:"vendor_mismatch,omitempty"`
}

// VendorMismatchResponse names both vendors when the PO belongs to another vendor
type VendorMismatchResponse struct {
	InvoiceVendorID string `json:"invoice_vendor_id"`
	POVendorID      string `json:"po_vendor_id"`
}

// MatchResultResponse represents a match result in API responses
type MatchResultResponse struct {
	ID                 string              `json:"id"`
	TenantID           string              `json:"tenant_id"`
	InvoiceID          string              `json:"invoice_id"`
	VendorID           string              `json:"vendor_id"`
	MatchMode          string              `json:"match_mode"`
	Status             string              `json:"status"`
	ExceptionCode      *string             `json:"exception_code,omitempty"`
	WithinTolerance    bool                `json:"within_tolerance"`
	IsOverridden       bool                `json:"is_overridden"`
	OverrideApprovedBy *string             `json:"override_approved_by,omitempty"`
	OverrideReason     string              `json:"override_reason,omitempty"`
	OverriddenAt       *string             `json:"overridden_at,omitempty"`
	Detail             MatchDetailResponse `json:"detail"`
	CreatedBy          string              `json:"created_by"`
	CreatedAt          string              `json:"created_at"`
	UpdatedAt          string              `json:"updated_at"`
	Version            int                 `json:"version"`
}

// MatchExceptionResponse represents a queued match exception
type MatchExceptionResponse struct {
	ID               string  `json:"id"`
	TenantID         string  `json:"tenant_id"`
	MatchResultID    string  `json:"match_result_id"`
	InvoiceID        string  `json:"invoice_id"`
	VendorID         string  `json:"vendor_id"`
	ExceptionCode    string  `json:"exception_code"`
	Severity         string  `json:"severity"`
	ResolutionStatus string  `json:"resolution_status"`
	ResolutionAction *string `json:"resolution_action,omitempty"`
	ResolutionNote   string  `json:"resolution_note,omitempty"`
	ResolvedBy       *string `json:"resolved_by,omitempty"`
	ResolvedAt       *string `json:"resolved_at,omitempty"`
	CreatedAt        string  `json:"created_at"`
	UpdatedAt        string  `json:"updated_at"`
	Version          int     `json:"version"`
}

// NewMatchResultResponse converts a domain match result
func NewMatchResultResponse(r *finance.MatchResult) MatchResultResponse {
	resp := MatchResultResponse{
		ID:              r.ID.String(),
		TenantID:        r.TenantID.String(),
		InvoiceID:       r.InvoiceID.String(),
		VendorID:        r.VendorID.String(),
		MatchMode:       string(r.MatchMode),
		Status:          string(r.Status),
		WithinTolerance: r.WithinTolerance,
		IsOverridden:    r.IsOverridden,
		OverrideReason:  r.OverrideReason,
		OverriddenAt:    formatTimePtr(r.OverriddenAt),
		Detail:          newMatchDetailResponse(r.Detail),
		CreatedBy:       r.CreatedBy.String(),
		CreatedAt:       r.CreatedAt.Format(time.RFC3339),
		UpdatedAt:       r.UpdatedAt.Format(time.RFC3339),
		Version:         r.Version,
	}
	if r.ExceptionCode != nil {
		code := string(*r.ExceptionCode)
		resp.ExceptionCode = &code
	}
	if r.OverrideApprovedBy != nil {
		by := r.OverrideApprovedBy.String()
		resp.OverrideApprovedBy = &by
	}
	return resp
}

func newMatchDetailResponse(d finance.MatchDetail) MatchDetailResponse {
	resp := MatchDetailResponse{
		Codes:             exceptionCodeStrings(d.Codes),
		InvoiceTotalCents: d.InvoiceTotalCents,
		POTotalCents:      d.POTotalCents,
		GRNNumbers:        d.GRNNumbers,
	}
	if d.VendorMismatch != nil {
		resp.VendorMismatch = &VendorMismatchResponse{
			InvoiceVendorID: d.VendorMismatch.InvoiceVendorID.String(),
			POVendorID:      d.VendorMismatch.POVendorID.String(),
		}
	}
	for _, line := range d.Lines {
		lr := LineVarianceResponse{
			LineNumber:        line.LineNumber,
			Codes:             exceptionCodeStrings(line.Codes),
			InvoicedQuantity:  line.InvoicedQuantity.String(),
			InvoicedForLine:   line.InvoicedForLine.String(),
			InvoicedUnitCents: line.InvoicedUnitCents,
			OrderedUnitCents:  line.OrderedUnitCents,
		}
		if line.OrderedQuantity != nil {
			q := line.OrderedQuantity.String()
			lr.OrderedQuantity = &q
		}
		if line.ReceivedQuantity != nil {
			q := line.ReceivedQuantity.String()
			lr.ReceivedQuantity = &q
		}
		resp.Lines = append(resp.Lines, lr)
	}
	return resp
}

// NewMatchExceptionResponse converts a domain match exception
func NewMatchExceptionResponse(e *finance.MatchException) MatchExceptionResponse {
	resp := MatchExceptionResponse{
		ID:               e.ID.String(),
		TenantID:         e.TenantID.String(),
		MatchResultID:    e.MatchResultID.String(),
		InvoiceID:        e.InvoiceID.String(),
		VendorID:         e.VendorID.String(),
		ExceptionCode:    string(e.ExceptionCode),
		Severity:         string(e.Severity),
		ResolutionStatus: string(e.ResolutionStatus),
		ResolutionNote:   e.ResolutionNote,
		ResolvedAt:       formatTimePtr(e.ResolvedAt),
		CreatedAt:        e.CreatedAt.Format(time.RFC3339),
		UpdatedAt:        e.UpdatedAt.Format(time.RFC3339),
		Version:          e.Version,
	}
	if e.ResolutionAction != nil {
		action := string(*e.ResolutionAction)
		resp.ResolutionAction = &action
	}
	if e.ResolvedBy != nil {
		by := e.ResolvedBy.String()
		resp.ResolvedBy = &by
	}
	return resp
}

func exceptionCodeStrings(codes []finance.ExceptionCode) []string {
	if len(codes) == 0 {
		return nil
	}
	out := make([]string, len(codes))
	for i, c := range codes {
		out[i] = string(c)
	}
	return out
}

func formatTimePtr(t *time.Time) *string {
	if t == nil {
		return nil
	}
	s := t.Format(time.RFC3339)
	return &s
}
