package persistence

import (
	"context"

	appfinance "github.com/erp/apcontrols/internal/application/finance"
	"github.com/erp/apcontrols/internal/domain/finance"
	"gorm.io/gorm"
)

// GormTransactionScope implements TransactionScope using GORM transactions.
type GormTransactionScope struct {
	db *gorm.DB
}

// NewGormTransactionScope creates a new GormTransactionScope.
func NewGormTransactionScope(db *gorm.DB) *GormTransactionScope {
	return &GormTransactionScope{db: db}
}

// Execute runs fn within a database transaction.
// Returning an error from fn rolls back every write made through repos.
func (s *GormTransactionScope) Execute(ctx context.Context, fn func(repos appfinance.TransactionalRepositories) error) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&gormTransactionalRepositories{tx: tx})
	})
}

// gormTransactionalRepositories hands out repositories bound to one transaction.
type gormTransactionalRepositories struct {
	tx *gorm.DB
}

func (r *gormTransactionalRepositories) MatchResults() finance.MatchResultRepository {
	return NewGormMatchResultRepository(r.tx)
}

func (r *gormTransactionalRepositories) MatchExceptions() finance.MatchExceptionRepository {
	return NewGormMatchExceptionRepository(r.tx)
}

func (r *gormTransactionalRepositories) Payments() finance.PaymentRepository {
	return NewGormPaymentRepository(r.tx)
}

func (r *gormTransactionalRepositories) PaymentApprovals() finance.PaymentApprovalRepository {
	return NewGormPaymentApprovalRepository(r.tx)
}

func (r *gormTransactionalRepositories) Audit() finance.AuditRecorder {
	return NewGormAuditRecorder(r.tx)
}

var _ appfinance.TransactionScope = (*GormTransactionScope)(nil)
var _ appfinance.TransactionalRepositories = (*gormTransactionalRepositories)(nil)
