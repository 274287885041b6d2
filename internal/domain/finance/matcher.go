package finance

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// LineVariance describes how one invoice line compared against its references
type LineVariance struct {
	LineNumber        int              `json:"line_number"`
	Codes             []ExceptionCode  `json:"codes,omitempty"`
	InvoicedQuantity  decimal.Decimal  `json:"invoiced_quantity"`
	InvoicedForLine   decimal.Decimal  `json:"invoiced_for_line"`
	OrderedQuantity   *decimal.Decimal `json:"ordered_quantity,omitempty"`
	ReceivedQuantity  *decimal.Decimal `json:"received_quantity,omitempty"`
	InvoicedUnitCents int64            `json:"invoiced_unit_cents"`
	OrderedUnitCents  *int64           `json:"ordered_unit_cents,omitempty"`
}

// MatchDetail is the evidence kept alongside a match result
type MatchDetail struct {
	Codes             []ExceptionCode `json:"codes,omitempty"`
	Lines             []LineVariance  `json:"lines,omitempty"`
	InvoiceTotalCents int64           `json:"invoice_total_cents"`
	POTotalCents      *int64          `json:"po_total_cents,omitempty"`
	GRNNumbers        []string        `json:"grn_numbers,omitempty"`
	VendorMismatch    *VendorMismatch `json:"vendor_mismatch,omitempty"`
}

// MatchOutcome is the pure result of comparing an invoice against its references
type MatchOutcome struct {
	Mode            MatchMode
	Status          MatchStatus
	ExceptionCode   *ExceptionCode
	WithinTolerance bool
	Detail          MatchDetail
}

// IsException returns true when the outcome needs resolution
func (o MatchOutcome) IsException() bool {
	return o.Status == MatchStatusException
}

// VendorMismatch is set when the PO belongs to a different vendor than the invoice
type VendorMismatch struct {
	InvoiceVendorID uuid.UUID `json:"invoice_vendor_id"`
	POVendorID      uuid.UUID `json:"po_vendor_id"`
}

// Matcher is a domain service that evaluates an invoice under a match policy.
// It performs no I/O: the caller supplies the PO (nil when it could not be found)
// and every goods receipt recorded against it.
type Matcher struct{}

// NewMatcher creates a new matcher
func NewMatcher() *Matcher {
	return &Matcher{}
}

// Evaluate compares the invoice against the PO and receipts required by policy.Mode.
// Every applicable exception code is collected in the detail; the reported code is
// the one with the highest precedence.
func (m *Matcher) Evaluate(
	invoice *InvoiceForMatch,
	po *PurchaseOrderData,
	grns []GoodsReceiptData,
	policy MatchPolicy,
) MatchOutcome {
	detail := MatchDetail{InvoiceTotalCents: invoice.TotalAmountCents}

	if !policy.Mode.RequiresPurchaseOrder() {
		return m.passed(policy.Mode, detail)
	}

	if !invoice.HasPurchaseOrder() || po == nil {
		detail.Codes = []ExceptionCode{ExceptionCodeMissingPO}
		return m.exception(policy.Mode, detail)
	}
	// another vendor's PO cannot support the invoice
	if po.VendorID != invoice.VendorID {
		detail.Codes = []ExceptionCode{ExceptionCodeMissingPO}
		detail.VendorMismatch = &VendorMismatch{InvoiceVendorID: invoice.VendorID, POVendorID: po.VendorID}
		return m.exception(policy.Mode, detail)
	}
	poTotal := po.TotalAmountCents
	detail.POTotalCents = &poTotal

	var codes []ExceptionCode
	var received map[int]decimal.Decimal
	if policy.Mode.RequiresGoodsReceipt() {
		if len(grns) == 0 {
			codes = append(codes, ExceptionCodeMissingGRN)
		} else {
			received = ReceivedQuantities(grns)
			for _, grn := range grns {
				detail.GRNNumbers = append(detail.GRNNumbers, grn.GRNNumber)
			}
		}
	}

	invoiced := InvoicedQuantities(invoice.Lines)
	for _, line := range invoice.Lines {
		variance := m.compareLine(line, invoiced[line.LineNumber], po, received, policy)
		codes = append(codes, variance.Codes...)
		detail.Lines = append(detail.Lines, variance)
	}

	if !policy.Tolerance.Total.Allows(
		decimal.NewFromInt(po.TotalAmountCents),
		decimal.NewFromInt(invoice.TotalAmountCents),
	) {
		codes = append(codes, ExceptionCodeTotalVariance)
	}

	detail.Codes = dedupeCodes(codes)
	if len(detail.Codes) == 0 {
		return m.passed(policy.Mode, detail)
	}
	return m.exception(policy.Mode, detail)
}

// compareLine checks one invoice line. Receipt and quantity checks use
// invoicedForLine, the quantity billed across every invoice line on the same
// PO line, while the price check uses the line's own unit price.
func (m *Matcher) compareLine(
	line InvoiceLine,
	invoicedForLine decimal.Decimal,
	po *PurchaseOrderData,
	received map[int]decimal.Decimal,
	policy MatchPolicy,
) LineVariance {
	variance := LineVariance{
		LineNumber:        line.LineNumber,
		InvoicedQuantity:  line.Quantity,
		InvoicedForLine:   invoicedForLine,
		InvoicedUnitCents: line.UnitPriceCents,
	}

	poLine, ok := po.Line(line.LineNumber)
	if !ok {
		variance.Codes = append(variance.Codes, ExceptionCodePOLineNotFound)
		return variance
	}
	ordered := poLine.OrderedQuantity
	orderedUnit := poLine.UnitPriceCents
	variance.OrderedQuantity = &ordered
	variance.OrderedUnitCents = &orderedUnit

	// received is nil outside 3-way mode or when no receipt exists
	if received != nil {
		got := received[line.LineNumber]
		variance.ReceivedQuantity = &got
		if got.LessThan(invoicedForLine) {
			variance.Codes = append(variance.Codes, ExceptionCodeInsufficientReceipt)
		}
	}

	if !policy.Tolerance.Quantity.Allows(ordered, invoicedForLine) {
		variance.Codes = append(variance.Codes, ExceptionCodeQuantityVariance)
	}
	if !policy.Tolerance.Price.Allows(decimal.NewFromInt(orderedUnit), decimal.NewFromInt(line.UnitPriceCents)) {
		variance.Codes = append(variance.Codes, ExceptionCodePriceVariance)
	}
	return variance
}

func (m *Matcher) passed(mode MatchMode, detail MatchDetail) MatchOutcome {
	return MatchOutcome{
		Mode:            mode,
		Status:          MatchStatusPassed,
		WithinTolerance: true,
		Detail:          detail,
	}
}

func (m *Matcher) exception(mode MatchMode, detail MatchDetail) MatchOutcome {
	outcome := MatchOutcome{
		Mode:   mode,
		Status: MatchStatusException,
		Detail: detail,
	}
	if code, ok := PrimaryExceptionCode(detail.Codes); ok {
		outcome.ExceptionCode = &code
	}
	return outcome
}

func dedupeCodes(codes []ExceptionCode) []ExceptionCode {
	if len(codes) == 0 {
		return nil
	}
	seen := make(map[ExceptionCode]struct{}, len(codes))
	result := make([]ExceptionCode, 0, len(codes))
	for _, code := range codes {
		if _, ok := seen[code]; ok {
			continue
		}
		seen[code] = struct{}{}
		result = append(result, code)
	}
	return result
}
