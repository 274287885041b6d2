package finance

import (
	"context"

	"github.com/erp/apcontrols/internal/domain/finance"
)

// TransactionScope provides transactional access to the AP control repositories.
// Every repository obtained inside Execute shares one database transaction, so an
// entity write and its audit record commit or roll back together.
type TransactionScope interface {
	// Execute runs fn within a database transaction.
	// If fn returns an error, the transaction is rolled back.
	Execute(ctx context.Context, fn func(repos TransactionalRepositories) error) error
}

// TransactionalRepositories provides access to all repositories within a transaction.
type TransactionalRepositories interface {
	MatchResults() finance.MatchResultRepository
	MatchExceptions() finance.MatchExceptionRepository
	Payments() finance.PaymentRepository
	PaymentApprovals() finance.PaymentApprovalRepository
	Audit() finance.AuditRecorder
}

// NoOpTransactionScope runs fn against the given repositories without a real transaction.
// Used by tests and by in-memory wiring.
type NoOpTransactionScope struct {
	matchRepo     finance.MatchResultRepository
	exceptionRepo finance.MatchExceptionRepository
	paymentRepo   finance.PaymentRepository
	approvalRepo  finance.PaymentApprovalRepository
	audit         finance.AuditRecorder
}

// NewNoOpTransactionScope creates a NoOpTransactionScope with the given repositories.
func NewNoOpTransactionScope(
	matchRepo finance.MatchResultRepository,
	exceptionRepo finance.MatchExceptionRepository,
	paymentRepo finance.PaymentRepository,
	approvalRepo finance.PaymentApprovalRepository,
	audit finance.AuditRecorder,
) *NoOpTransactionScope {
	return &NoOpTransactionScope{
		matchRepo:     matchRepo,
		exceptionRepo: exceptionRepo,
		paymentRepo:   paymentRepo,
		approvalRepo:  approvalRepo,
		audit:         audit,
	}
}

// Execute runs the function without a real transaction.
func (s *NoOpTransactionScope) Execute(_ context.Context, fn func(repos TransactionalRepositories) error) error {
	return fn(s)
}

// MatchResults returns the match result repository.
func (s *NoOpTransactionScope) MatchResults() finance.MatchResultRepository {
	return s.matchRepo
}

// MatchExceptions returns the match exception repository.
func (s *NoOpTransactionScope) MatchExceptions() finance.MatchExceptionRepository {
	return s.exceptionRepo
}

// Payments returns the payment repository.
func (s *NoOpTransactionScope) Payments() finance.PaymentRepository {
	return s.paymentRepo
}

// PaymentApprovals returns the payment approval repository.
func (s *NoOpTransactionScope) PaymentApprovals() finance.PaymentApprovalRepository {
	return s.approvalRepo
}

// Audit returns the audit recorder.
func (s *NoOpTransactionScope) Audit() finance.AuditRecorder {
	return s.audit
}

// Ensure NoOpTransactionScope implements both interfaces
var _ TransactionScope = (*NoOpTransactionScope)(nil)
var _ TransactionalRepositories = (*NoOpTransactionScope)(nil)
