package finance

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// InvoiceStatusSubmitted is the only invoice status that can be matched
const InvoiceStatusSubmitted = "submitted"

// InvoiceForMatch is the read-only projection of a vendor invoice used for matching
type InvoiceForMatch struct {
	ID               uuid.UUID     `json:"id"`
	TenantID         uuid.UUID     `json:"tenant_id"`
	VendorID         uuid.UUID     `json:"vendor_id"`
	InvoiceNumber    string        `json:"invoice_number"`
	Status           string        `json:"status"`
	PONumber         *string       `json:"po_number,omitempty"`
	TotalAmountCents int64         `json:"total_amount_cents"`
	Lines            []InvoiceLine `json:"lines"`
}

// IsSubmitted returns true if the invoice can be evaluated
func (i *InvoiceForMatch) IsSubmitted() bool {
	return i.Status == InvoiceStatusSubmitted
}

// HasPurchaseOrder returns true when the invoice references a PO number
func (i *InvoiceForMatch) HasPurchaseOrder() bool {
	return i.PONumber != nil && *i.PONumber != ""
}

// InvoiceLine is a single billed line
type InvoiceLine struct {
	LineNumber     int             `json:"line_number"`
	Quantity       decimal.Decimal `json:"quantity"`
	UnitPriceCents int64           `json:"unit_price_cents"`
	AmountCents    int64           `json:"amount_cents"`
}

// PurchaseOrderData is the ordering document an invoice is matched against
type PurchaseOrderData struct {
	PONumber         string              `json:"po_number"`
	VendorID         uuid.UUID           `json:"vendor_id"`
	TotalAmountCents int64               `json:"total_amount_cents"`
	Lines            []PurchaseOrderLine `json:"lines"`
}

// Line returns the PO line with the given number
func (p *PurchaseOrderData) Line(lineNumber int) (PurchaseOrderLine, bool) {
	for _, line := range p.Lines {
		if line.LineNumber == lineNumber {
			return line, true
		}
	}
	return PurchaseOrderLine{}, false
}

// PurchaseOrderLine is a single ordered line
type PurchaseOrderLine struct {
	LineNumber      int             `json:"line_number"`
	OrderedQuantity decimal.Decimal `json:"ordered_quantity"`
	UnitPriceCents  int64           `json:"unit_price_cents"`
	AmountCents     int64           `json:"amount_cents"`
}

// GoodsReceiptData records goods received against a PO
type GoodsReceiptData struct {
	GRNNumber  string             `json:"grn_number"`
	PONumber   string             `json:"po_number"`
	ReceivedAt time.Time          `json:"received_at"`
	Lines      []GoodsReceiptLine `json:"lines"`
}

// GoodsReceiptLine is the received quantity for one PO line
type GoodsReceiptLine struct {
	LineNumber       int             `json:"line_number"`
	ReceivedQuantity decimal.Decimal `json:"received_quantity"`
}

// InvoicedQuantities sums invoiced quantities per PO line. Several invoice
// lines may bill the same PO line.
func InvoicedQuantities(lines []InvoiceLine) map[int]decimal.Decimal {
	invoiced := make(map[int]decimal.Decimal, len(lines))
	for _, line := range lines {
		invoiced[line.LineNumber] = invoiced[line.LineNumber].Add(line.Quantity)
	}
	return invoiced
}

// ReceivedQuantities sums received quantities per PO line across all receipts
func ReceivedQuantities(grns []GoodsReceiptData) map[int]decimal.Decimal {
	received := make(map[int]decimal.Decimal)
	for _, grn := range grns {
		for _, line := range grn.Lines {
			received[line.LineNumber] = received[line.LineNumber].Add(line.ReceivedQuantity)
		}
	}
	return received
}
