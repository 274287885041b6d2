package finance

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// InvoiceReader loads invoices for matching.
// Returns shared.ErrNotFound when the invoice does not exist for the tenant.
type InvoiceReader interface {
	FindForMatch(ctx context.Context, tenantID, invoiceID uuid.UUID) (*InvoiceForMatch, error)
}

// PurchaseOrderReader looks up purchase orders by number.
// Returns shared.ErrNotFound when no PO carries that number.
type PurchaseOrderReader interface {
	FindByNumber(ctx context.Context, tenantID uuid.UUID, poNumber string) (*PurchaseOrderData, error)
}

// GoodsReceiptReader returns every receipt recorded against a PO, possibly none
type GoodsReceiptReader interface {
	FindByPONumber(ctx context.Context, tenantID uuid.UUID, poNumber string) ([]GoodsReceiptData, error)
}

// MatchPolicyProvider resolves the match policy configured for a vendor.
// Returns ErrMatchModeNotConfigured when the vendor has no mode.
type MatchPolicyProvider interface {
	PolicyForVendor(ctx context.Context, tenantID, vendorID uuid.UUID) (*MatchPolicy, error)
}

// FiscalCalendar answers whether postings dated on a day are still allowed
type FiscalCalendar interface {
	IsPeriodOpen(ctx context.Context, tenantID uuid.UUID, date time.Time) (bool, error)
}

// OverridePermissionChecker decides whether an actor may override match exceptions
type OverridePermissionChecker interface {
	CanOverride(ctx context.Context, actor Actor) (bool, error)
}

// GLPoster hands a completed payment to the general ledger
type GLPoster interface {
	Post(ctx context.Context, payment *Payment) error
}
