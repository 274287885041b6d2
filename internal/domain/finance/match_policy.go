package finance

import (
	"strings"

	"github.com/erp/apcontrols/internal/domain/shared"
	"github.com/shopspring/decimal"
)

// MatchMode selects which documents an invoice is matched against
type MatchMode string

const (
	MatchModeOneWay   MatchMode = "1-way" // Invoice only
	MatchModeTwoWay   MatchMode = "2-way" // Invoice vs purchase order
	MatchModeThreeWay MatchMode = "3-way" // Invoice vs purchase order vs goods receipt
)

// IsValid checks if the match mode is known
func (m MatchMode) IsValid() bool {
	switch m {
	case MatchModeOneWay, MatchModeTwoWay, MatchModeThreeWay:
		return true
	}
	return false
}

// String returns the string representation of MatchMode
func (m MatchMode) String() string {
	return string(m)
}

// RequiresPurchaseOrder returns true for the 2-way and 3-way modes
func (m MatchMode) RequiresPurchaseOrder() bool {
	return m == MatchModeTwoWay || m == MatchModeThreeWay
}

// RequiresGoodsReceipt returns true for the 3-way mode
func (m MatchMode) RequiresGoodsReceipt() bool {
	return m == MatchModeThreeWay
}

// ParseMatchMode parses a configured mode, accepting "3way" and "3-WAY" spellings.
func ParseMatchMode(raw string) (MatchMode, error) {
	normalized := strings.ToLower(strings.TrimSpace(raw))
	switch normalized {
	case "1way", "one-way":
		normalized = string(MatchModeOneWay)
	case "2way", "two-way":
		normalized = string(MatchModeTwoWay)
	case "3way", "three-way":
		normalized = string(MatchModeThreeWay)
	}
	mode := MatchMode(normalized)
	if !mode.IsValid() {
		return "", ErrMatchModeNotConfigured.WithMessage("Unknown match mode %q", raw)
	}
	return mode, nil
}

// MatchStatus is the outcome of an evaluation
type MatchStatus string

const (
	MatchStatusPassed    MatchStatus = "passed"
	MatchStatusException MatchStatus = "exception"
)

// IsValid checks if the status is known
func (s MatchStatus) IsValid() bool {
	return s == MatchStatusPassed || s == MatchStatusException
}

// String returns the string representation of MatchStatus
func (s MatchStatus) String() string {
	return string(s)
}

// ExceptionCode identifies why a match was flagged
type ExceptionCode string

const (
	ExceptionCodeMissingPO           ExceptionCode = "missing_po"
	ExceptionCodeMissingGRN          ExceptionCode = "missing_grn"
	ExceptionCodePOLineNotFound      ExceptionCode = "po_line_not_found"
	ExceptionCodeInsufficientReceipt ExceptionCode = "insufficient_receipt"
	ExceptionCodeQuantityVariance    ExceptionCode = "quantity_variance"
	ExceptionCodePriceVariance       ExceptionCode = "price_variance"
	ExceptionCodeTotalVariance       ExceptionCode = "total_variance"
)

// exceptionRank orders codes for reporting. Lower wins.
var exceptionRank = map[ExceptionCode]int{
	ExceptionCodeMissingPO:           0,
	ExceptionCodeMissingGRN:          1,
	ExceptionCodePOLineNotFound:      2,
	ExceptionCodeInsufficientReceipt: 3,
	ExceptionCodeQuantityVariance:    4,
	ExceptionCodePriceVariance:       5,
	ExceptionCodeTotalVariance:       6,
}

// IsValid checks if the exception code is known
func (c ExceptionCode) IsValid() bool {
	_, ok := exceptionRank[c]
	return ok
}

// String returns the string representation of ExceptionCode
func (c ExceptionCode) String() string {
	return string(c)
}

// IsMissingReference returns true when the code reports absent PO/GRN data
func (c ExceptionCode) IsMissingReference() bool {
	return c == ExceptionCodeMissingPO || c == ExceptionCodeMissingGRN || c == ExceptionCodePOLineNotFound
}

// Severity returns the severity derived from the code
func (c ExceptionCode) Severity() ExceptionSeverity {
	return SeverityFor(c)
}

// PrimaryExceptionCode returns the code reported when several apply.
// Missing reference data always outranks receipt shortfalls, which outrank variances.
func PrimaryExceptionCode(codes []ExceptionCode) (ExceptionCode, bool) {
	var (
		primary ExceptionCode
		found   bool
	)
	for _, code := range codes {
		rank, ok := exceptionRank[code]
		if !ok {
			continue
		}
		if !found || rank < exceptionRank[primary] {
			primary = code
			found = true
		}
	}
	return primary, found
}

// ExceptionSeverity classifies how urgently an exception needs attention
type ExceptionSeverity string

const (
	SeverityHigh   ExceptionSeverity = "high"
	SeverityMedium ExceptionSeverity = "medium"
	SeverityLow    ExceptionSeverity = "low"
)

// IsValid checks if the severity is known
func (s ExceptionSeverity) IsValid() bool {
	switch s {
	case SeverityHigh, SeverityMedium, SeverityLow:
		return true
	}
	return false
}

// String returns the string representation of ExceptionSeverity
func (s ExceptionSeverity) String() string {
	return string(s)
}

// ParseExceptionSeverity parses a severity filter value
func ParseExceptionSeverity(raw string) (ExceptionSeverity, error) {
	severity := ExceptionSeverity(strings.ToLower(strings.TrimSpace(raw)))
	if !severity.IsValid() {
		return "", ErrInvalidSeverityFilter.WithDetails("severity", raw)
	}
	return severity, nil
}

// SeverityFor maps an exception code to its severity
func SeverityFor(code ExceptionCode) ExceptionSeverity {
	switch code {
	case ExceptionCodeMissingPO, ExceptionCodeMissingGRN, ExceptionCodePOLineNotFound:
		return SeverityHigh
	case ExceptionCodeInsufficientReceipt, ExceptionCodeQuantityVariance:
		return SeverityMedium
	default:
		return SeverityLow
	}
}

var hundred = decimal.NewFromInt(100)

// ToleranceBand is an allowed over-billing margin. Absolute is expressed in the
// unit of the compared value (cents for prices and totals, units for quantities);
// Percent is a percentage of the reference value. A zero field is not configured.
type ToleranceBand struct {
	Absolute decimal.Decimal `json:"absolute" mapstructure:"absolute"`
	Percent  decimal.Decimal `json:"percent" mapstructure:"percent"`
}

// Allows reports whether actual stays within the band around reference.
// Under-billing never counts as a variance and the boundary is inclusive.
func (b ToleranceBand) Allows(reference, actual decimal.Decimal) bool {
	variance := actual.Sub(reference)
	if !variance.IsPositive() {
		return true
	}
	if b.Absolute.IsPositive() && variance.LessThanOrEqual(b.Absolute) {
		return true
	}
	if b.Percent.IsPositive() {
		limit := reference.Abs().Mul(b.Percent).Div(hundred)
		if variance.LessThanOrEqual(limit) {
			return true
		}
	}
	return false
}

// Validate rejects negative bands
func (b ToleranceBand) Validate() error {
	if b.Absolute.IsNegative() || b.Percent.IsNegative() {
		return shared.NewDomainError(shared.KindValidation, "INVALID_TOLERANCE", "Tolerance values cannot be negative")
	}
	return nil
}

// ToleranceConfig holds the bands applied to each comparison
type ToleranceConfig struct {
	Price    ToleranceBand `json:"price" mapstructure:"price"`
	Quantity ToleranceBand `json:"quantity" mapstructure:"quantity"`
	Total    ToleranceBand `json:"total" mapstructure:"total"`
}

// Validate validates every band
func (c ToleranceConfig) Validate() error {
	for _, band := range []ToleranceBand{c.Price, c.Quantity, c.Total} {
		if err := band.Validate(); err != nil {
			return err
		}
	}
	return nil
}

// MatchPolicy is the per-vendor match configuration
type MatchPolicy struct {
	Mode      MatchMode       `json:"mode"`
	Tolerance ToleranceConfig `json:"tolerance"`
}

// Validate checks the mode and tolerance
func (p MatchPolicy) Validate() error {
	if !p.Mode.IsValid() {
		return ErrMatchModeNotConfigured.WithDetails("mode", string(p.Mode))
	}
	return p.Tolerance.Validate()
}
