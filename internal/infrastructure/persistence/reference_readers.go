package persistence

import (
	"context"
	"errors"
	"fmt"

	"github.com/erp/apcontrols/internal/domain/finance"
	"github.com/erp/apcontrols/internal/domain/shared"
	"github.com/erp/apcontrols/internal/infrastructure/persistence/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

func orderedLines(db *gorm.DB) *gorm.DB {
	return db.Order("line_number ASC")
}

// GormInvoiceReader loads invoices and their lines for matching
type GormInvoiceReader struct {
	db *gorm.DB
}

// NewGormInvoiceReader creates a new GormInvoiceReader
func NewGormInvoiceReader(db *gorm.DB) *GormInvoiceReader {
	return &GormInvoiceReader{db: db}
}

// FindForMatch loads an invoice with its lines
func (r *GormInvoiceReader) FindForMatch(ctx context.Context, tenantID, invoiceID uuid.UUID) (*finance.InvoiceForMatch, error) {
	var model models.InvoiceModel
	if err := r.db.WithContext(ctx).
		Preload("Lines", orderedLines).
		Where("tenant_id = ? AND id = ?", tenantID, invoiceID).
		First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, fmt.Errorf("failed to load invoice: %w", err)
	}
	return model.ToDomain(), nil
}

// GormPurchaseOrderReader looks up purchase orders by number
type GormPurchaseOrderReader struct {
	db *gorm.DB
}

// NewGormPurchaseOrderReader creates a new GormPurchaseOrderReader
func NewGormPurchaseOrderReader(db *gorm.DB) *GormPurchaseOrderReader {
	return &GormPurchaseOrderReader{db: db}
}

// FindByNumber loads a purchase order with its lines
func (r *GormPurchaseOrderReader) FindByNumber(ctx context.Context, tenantID uuid.UUID, poNumber string) (*finance.PurchaseOrderData, error) {
	var model models.PurchaseOrderModel
	if err := r.db.WithContext(ctx).
		Preload("Lines", orderedLines).
		Where("tenant_id = ? AND po_number = ?", tenantID, poNumber).
		First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, fmt.Errorf("failed to load purchase order: %w", err)
	}
	return model.ToDomain(), nil
}

// GormGoodsReceiptReader lists goods receipts recorded against a PO
type GormGoodsReceiptReader struct {
	db *gorm.DB
}

// NewGormGoodsReceiptReader creates a new GormGoodsReceiptReader
func NewGormGoodsReceiptReader(db *gorm.DB) *GormGoodsReceiptReader {
	return &GormGoodsReceiptReader{db: db}
}

// FindByPONumber returns every receipt for the PO in the order received.
// No receipts is an empty slice, not an error.
func (r *GormGoodsReceiptReader) FindByPONumber(ctx context.Context, tenantID uuid.UUID, poNumber string) ([]finance.GoodsReceiptData, error) {
	var rows []models.GoodsReceiptModel
	if err := r.db.WithContext(ctx).
		Preload("Lines", orderedLines).
		Where("tenant_id = ? AND po_number = ?", tenantID, poNumber).
		Order("received_at ASC").
		Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("failed to load goods receipts: %w", err)
	}
	receipts := make([]finance.GoodsReceiptData, 0, len(rows))
	for i := range rows {
		receipts = append(receipts, rows[i].ToDomain())
	}
	return receipts, nil
}

var (
	_ finance.InvoiceReader       = (*GormInvoiceReader)(nil)
	_ finance.PurchaseOrderReader = (*GormPurchaseOrderReader)(nil)
	_ finance.GoodsReceiptReader  = (*GormGoodsReceiptReader)(nil)
)
