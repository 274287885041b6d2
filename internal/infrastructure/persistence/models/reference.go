package models

import (
	"time"

	"github.com/erp/apcontrols/internal/domain/finance"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// InvoiceModel mirrors the vendor invoices this service matches
type InvoiceModel struct {
	ID               uuid.UUID          `gorm:"type:uuid;primaryKey"`
	TenantID         uuid.UUID          `gorm:"type:uuid;not null;index"`
	VendorID         uuid.UUID          `gorm:"type:uuid;not null;index"`
	InvoiceNumber    string             `gorm:"type:varchar(50);not null"`
	Status           string             `gorm:"type:varchar(20);not null"`
	PONumber         *string            `gorm:"type:varchar(50)"`
	TotalAmountCents int64              `gorm:"not null"`
	Lines            []InvoiceLineModel `gorm:"foreignKey:InvoiceID;references:ID"`
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

// TableName returns the table name for GORM
func (InvoiceModel) TableName() string {
	return "ap_invoices"
}

// InvoiceLineModel is one billed line
type InvoiceLineModel struct {
	ID             uuid.UUID       `gorm:"type:uuid;primaryKey"`
	InvoiceID      uuid.UUID       `gorm:"type:uuid;not null;index"`
	LineNumber     int             `gorm:"not null"`
	Quantity       decimal.Decimal `gorm:"type:decimal(19,4);not null"`
	UnitPriceCents int64           `gorm:"not null"`
	AmountCents    int64           `gorm:"not null"`
}

// TableName returns the table name for GORM
func (InvoiceLineModel) TableName() string {
	return "ap_invoice_lines"
}

// ToDomain converts the invoice and its lines into the match projection
func (m *InvoiceModel) ToDomain() *finance.InvoiceForMatch {
	lines := make([]finance.InvoiceLine, 0, len(m.Lines))
	for _, l := range m.Lines {
		lines = append(lines, finance.InvoiceLine{
			LineNumber:     l.LineNumber,
			Quantity:       l.Quantity,
			UnitPriceCents: l.UnitPriceCents,
			AmountCents:    l.AmountCents,
		})
	}
	return &finance.InvoiceForMatch{
		ID:               m.ID,
		TenantID:         m.TenantID,
		VendorID:         m.VendorID,
		InvoiceNumber:    m.InvoiceNumber,
		Status:           m.Status,
		PONumber:         m.PONumber,
		TotalAmountCents: m.TotalAmountCents,
		Lines:            lines,
	}
}

// PurchaseOrderModel mirrors an issued purchase order
type PurchaseOrderModel struct {
	ID               uuid.UUID                `gorm:"type:uuid;primaryKey"`
	TenantID         uuid.UUID                `gorm:"type:uuid;not null;uniqueIndex:idx_purchase_orders_tenant_number,priority:1"`
	PONumber         string                   `gorm:"type:varchar(50);not null;uniqueIndex:idx_purchase_orders_tenant_number,priority:2"`
	VendorID         uuid.UUID                `gorm:"type:uuid;not null"`
	TotalAmountCents int64                    `gorm:"not null"`
	Lines            []PurchaseOrderLineModel `gorm:"foreignKey:PurchaseOrderID;references:ID"`
	CreatedAt        time.Time
}

// TableName returns the table name for GORM
func (PurchaseOrderModel) TableName() string {
	return "ap_purchase_orders"
}

// PurchaseOrderLineModel is one ordered line
type PurchaseOrderLineModel struct {
	ID              uuid.UUID       `gorm:"type:uuid;primaryKey"`
	PurchaseOrderID uuid.UUID       `gorm:"type:uuid;not null;index"`
	LineNumber      int             `gorm:"not null"`
	OrderedQuantity decimal.Decimal `gorm:"type:decimal(19,4);not null"`
	UnitPriceCents  int64           `gorm:"not null"`
	AmountCents     int64           `gorm:"not null"`
}

// TableName returns the table name for GORM
func (PurchaseOrderLineModel) TableName() string {
	return "ap_purchase_order_lines"
}

// ToDomain converts the order and its lines into match input
func (m *PurchaseOrderModel) ToDomain() *finance.PurchaseOrderData {
	lines := make([]finance.PurchaseOrderLine, 0, len(m.Lines))
	for _, l := range m.Lines {
		lines = append(lines, finance.PurchaseOrderLine{
			LineNumber:      l.LineNumber,
			OrderedQuantity: l.OrderedQuantity,
			UnitPriceCents:  l.UnitPriceCents,
			AmountCents:     l.AmountCents,
		})
	}
	return &finance.PurchaseOrderData{
		PONumber:         m.PONumber,
		VendorID:         m.VendorID,
		TotalAmountCents: m.TotalAmountCents,
		Lines:            lines,
	}
}

// GoodsReceiptModel mirrors a goods receipt note
type GoodsReceiptModel struct {
	ID         uuid.UUID               `gorm:"type:uuid;primaryKey"`
	TenantID   uuid.UUID               `gorm:"type:uuid;not null;index:idx_goods_receipts_po,priority:1"`
	PONumber   string                  `gorm:"type:varchar(50);not null;index:idx_goods_receipts_po,priority:2"`
	GRNNumber  string                  `gorm:"type:varchar(50);not null"`
	ReceivedAt time.Time               `gorm:"not null"`
	Lines      []GoodsReceiptLineModel `gorm:"foreignKey:GoodsReceiptID;references:ID"`
}

// TableName returns the table name for GORM
func (GoodsReceiptModel) TableName() string {
	return "ap_goods_receipts"
}

// GoodsReceiptLineModel is the quantity received for one PO line
type GoodsReceiptLineModel struct {
	ID               uuid.UUID       `gorm:"type:uuid;primaryKey"`
	GoodsReceiptID   uuid.UUID       `gorm:"type:uuid;not null;index"`
	LineNumber       int             `gorm:"not null"`
	ReceivedQuantity decimal.Decimal `gorm:"type:decimal(19,4);not null"`
}

// TableName returns the table name for GORM
func (GoodsReceiptLineModel) TableName() string {
	return "ap_goods_receipt_lines"
}

// ToDomain converts the receipt and its lines into match input
func (m *GoodsReceiptModel) ToDomain() finance.GoodsReceiptData {
	lines := make([]finance.GoodsReceiptLine, 0, len(m.Lines))
	for _, l := range m.Lines {
		lines = append(lines, finance.GoodsReceiptLine{
			LineNumber:       l.LineNumber,
			ReceivedQuantity: l.ReceivedQuantity,
		})
	}
	return finance.GoodsReceiptData{
		GRNNumber:  m.GRNNumber,
		PONumber:   m.PONumber,
		ReceivedAt: m.ReceivedAt,
		Lines:      lines,
	}
}

// VendorMatchPolicyModel stores the match policy configured for one vendor
type VendorMatchPolicyModel struct {
	TenantID  uuid.UUID               `gorm:"type:uuid;primaryKey"`
	VendorID  uuid.UUID               `gorm:"type:uuid;primaryKey"`
	MatchMode finance.MatchMode       `gorm:"type:varchar(10);not null"`
	Tolerance finance.ToleranceConfig `gorm:"type:jsonb;serializer:json"`
	UpdatedAt time.Time
}

// TableName returns the table name for GORM
func (VendorMatchPolicyModel) TableName() string {
	return "ap_vendor_match_policies"
}

// ToDomain converts the row into a match policy
func (m *VendorMatchPolicyModel) ToDomain() *finance.MatchPolicy {
	return &finance.MatchPolicy{Mode: m.MatchMode, Tolerance: m.Tolerance}
}

// FiscalPeriodModel is one period of a tenant's fiscal calendar
type FiscalPeriodModel struct {
	ID        uuid.UUID                  `gorm:"type:uuid;primaryKey"`
	TenantID  uuid.UUID                  `gorm:"type:uuid;not null;index:idx_fiscal_periods_range,priority:1"`
	Name      string                     `gorm:"type:varchar(50);not null"`
	StartDate time.Time                  `gorm:"type:date;not null;index:idx_fiscal_periods_range,priority:2"`
	EndDate   time.Time                  `gorm:"type:date;not null"`
	Status    finance.FiscalPeriodStatus `gorm:"type:varchar(20);not null"`
}

// TableName returns the table name for GORM
func (FiscalPeriodModel) TableName() string {
	return "ap_fiscal_periods"
}

// ToDomain converts the row into a fiscal period
func (m *FiscalPeriodModel) ToDomain() finance.FiscalPeriod {
	return finance.FiscalPeriod{
		TenantID:  m.TenantID,
		Name:      m.Name,
		StartDate: m.StartDate,
		EndDate:   m.EndDate,
		Status:    m.Status,
	}
}

// GL posting request states
const (
	GLPostingPending = "pending"
)

// GLPostingRequestModel queues a completed payment for the general ledger
type GLPostingRequestModel struct {
	ID          uuid.UUID       `gorm:"type:uuid;primaryKey"`
	TenantID    uuid.UUID       `gorm:"type:uuid;not null;uniqueIndex:idx_gl_posting_payment,priority:1"`
	PaymentID   uuid.UUID       `gorm:"type:uuid;not null;uniqueIndex:idx_gl_posting_payment,priority:2"`
	VendorID    uuid.UUID       `gorm:"type:uuid;not null"`
	Amount      decimal.Decimal `gorm:"type:decimal(19,4);not null"`
	Currency    string          `gorm:"type:char(3);not null"`
	PaymentDate time.Time       `gorm:"type:date;not null"`
	Status      string          `gorm:"type:varchar(20);not null;default:'pending'"`
	RequestedAt time.Time       `gorm:"not null"`
}

// TableName returns the table name for GORM
func (GLPostingRequestModel) TableName() string {
	return "ap_gl_posting_requests"
}

// AllModels lists every model in creation order, for AutoMigrate in tests and tools
func AllModels() []any {
	return []any{
		&MatchResultModel{},
		&MatchExceptionModel{},
		&PaymentModel{},
		&PaymentApprovalModel{},
		&AuditEventModel{},
		&InvoiceModel{},
		&InvoiceLineModel{},
		&PurchaseOrderModel{},
		&PurchaseOrderLineModel{},
		&GoodsReceiptModel{},
		&GoodsReceiptLineModel{},
		&VendorMatchPolicyModel{},
		&FiscalPeriodModel{},
		&GLPostingRequestModel{},
	}
}
