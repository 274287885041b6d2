package finance

import (
	"context"
	"time"

	"github.com/erp/apcontrols/internal/domain/finance"
	"github.com/erp/apcontrols/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
)

// MockMatchResultRepository is a mock implementation of MatchResultRepository
type MockMatchResultRepository struct {
	mock.Mock
}

func (m *MockMatchResultRepository) FindByID(ctx context.Context, tenantID, id uuid.UUID) (*finance.MatchResult, error) {
	args := m.Called(ctx, tenantID, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*finance.MatchResult), args.Error(1)
}

func (m *MockMatchResultRepository) FindByInvoice(ctx context.Context, tenantID, invoiceID uuid.UUID) (*finance.MatchResult, error) {
	args := m.Called(ctx, tenantID, invoiceID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*finance.MatchResult), args.Error(1)
}

func (m *MockMatchResultRepository) ExistsForInvoice(ctx context.Context, tenantID, invoiceID uuid.UUID) (bool, error) {
	args := m.Called(ctx, tenantID, invoiceID)
	return args.Bool(0), args.Error(1)
}

func (m *MockMatchResultRepository) Create(ctx context.Context, result *finance.MatchResult) error {
	args := m.Called(ctx, result)
	return args.Error(0)
}

func (m *MockMatchResultRepository) Update(ctx context.Context, result *finance.MatchResult, expectedVersion int) error {
	args := m.Called(ctx, result, expectedVersion)
	return args.Error(0)
}

// MockMatchExceptionRepository is a mock implementation of MatchExceptionRepository
type MockMatchExceptionRepository struct {
	mock.Mock
}

func (m *MockMatchExceptionRepository) FindByID(ctx context.Context, tenantID, id uuid.UUID) (*finance.MatchException, error) {
	args := m.Called(ctx, tenantID, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*finance.MatchException), args.Error(1)
}

func (m *MockMatchExceptionRepository) FindByMatchResult(ctx context.Context, tenantID, matchResultID uuid.UUID) (*finance.MatchException, error) {
	args := m.Called(ctx, tenantID, matchResultID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*finance.MatchException), args.Error(1)
}

func (m *MockMatchExceptionRepository) List(ctx context.Context, tenantID uuid.UUID, filter finance.ExceptionFilter) ([]finance.MatchException, int64, error) {
	args := m.Called(ctx, tenantID, filter)
	return args.Get(0).([]finance.MatchException), args.Get(1).(int64), args.Error(2)
}

func (m *MockMatchExceptionRepository) Create(ctx context.Context, exception *finance.MatchException) error {
	args := m.Called(ctx, exception)
	return args.Error(0)
}

func (m *MockMatchExceptionRepository) Update(ctx context.Context, exception *finance.MatchException, expectedVersion int) error {
	args := m.Called(ctx, exception, expectedVersion)
	return args.Error(0)
}

// MockPaymentRepository is a mock implementation of PaymentRepository
type MockPaymentRepository struct {
	mock.Mock
}

func (m *MockPaymentRepository) FindByID(ctx context.Context, tenantID, id uuid.UUID) (*finance.Payment, error) {
	args := m.Called(ctx, tenantID, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*finance.Payment), args.Error(1)
}

func (m *MockPaymentRepository) FindByIdempotencyKey(ctx context.Context, tenantID uuid.UUID, key string) (*finance.Payment, error) {
	args := m.Called(ctx, tenantID, key)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*finance.Payment), args.Error(1)
}

func (m *MockPaymentRepository) Create(ctx context.Context, payment *finance.Payment) error {
	args := m.Called(ctx, payment)
	return args.Error(0)
}

func (m *MockPaymentRepository) Update(ctx context.Context, payment *finance.Payment, expectedVersion int) error {
	args := m.Called(ctx, payment, expectedVersion)
	return args.Error(0)
}

// MockPaymentApprovalRepository is a mock implementation of PaymentApprovalRepository
type MockPaymentApprovalRepository struct {
	mock.Mock
}

func (m *MockPaymentApprovalRepository) Create(ctx context.Context, approval *finance.PaymentApproval) error {
	args := m.Called(ctx, approval)
	return args.Error(0)
}

func (m *MockPaymentApprovalRepository) ListByPayment(ctx context.Context, tenantID, paymentID uuid.UUID) ([]finance.PaymentApproval, error) {
	args := m.Called(ctx, tenantID, paymentID)
	return args.Get(0).([]finance.PaymentApproval), args.Error(1)
}

// MockAuditRecorder is a mock implementation of AuditRecorder
type MockAuditRecorder struct {
	mock.Mock
}

func (m *MockAuditRecorder) Record(ctx context.Context, event *finance.AuditEvent) error {
	args := m.Called(ctx, event)
	return args.Error(0)
}

// MockInvoiceReader is a mock implementation of InvoiceReader
type MockInvoiceReader struct {
	mock.Mock
}

func (m *MockInvoiceReader) FindForMatch(ctx context.Context, tenantID, invoiceID uuid.UUID) (*finance.InvoiceForMatch, error) {
	args := m.Called(ctx, tenantID, invoiceID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*finance.InvoiceForMatch), args.Error(1)
}

// MockPurchaseOrderReader is a mock implementation of PurchaseOrderReader
type MockPurchaseOrderReader struct {
	mock.Mock
}

func (m *MockPurchaseOrderReader) FindByNumber(ctx context.Context, tenantID uuid.UUID, poNumber string) (*finance.PurchaseOrderData, error) {
	args := m.Called(ctx, tenantID, poNumber)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*finance.PurchaseOrderData), args.Error(1)
}

// MockGoodsReceiptReader is a mock implementation of GoodsReceiptReader
type MockGoodsReceiptReader struct {
	mock.Mock
}

func (m *MockGoodsReceiptReader) FindByPONumber(ctx context.Context, tenantID uuid.UUID, poNumber string) ([]finance.GoodsReceiptData, error) {
	args := m.Called(ctx, tenantID, poNumber)
	return args.Get(0).([]finance.GoodsReceiptData), args.Error(1)
}

// MockMatchPolicyProvider is a mock implementation of MatchPolicyProvider
type MockMatchPolicyProvider struct {
	mock.Mock
}

func (m *MockMatchPolicyProvider) PolicyForVendor(ctx context.Context, tenantID, vendorID uuid.UUID) (*finance.MatchPolicy, error) {
	args := m.Called(ctx, tenantID, vendorID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*finance.MatchPolicy), args.Error(1)
}

// MockFiscalCalendar is a mock implementation of FiscalCalendar
type MockFiscalCalendar struct {
	mock.Mock
}

func (m *MockFiscalCalendar) IsPeriodOpen(ctx context.Context, tenantID uuid.UUID, date time.Time) (bool, error) {
	args := m.Called(ctx, tenantID, date)
	return args.Bool(0), args.Error(1)
}

// MockOverridePermissionChecker is a mock implementation of OverridePermissionChecker
type MockOverridePermissionChecker struct {
	mock.Mock
}

func (m *MockOverridePermissionChecker) CanOverride(ctx context.Context, actor finance.Actor) (bool, error) {
	args := m.Called(ctx, actor)
	return args.Bool(0), args.Error(1)
}

// MockGLPoster is a mock implementation of GLPoster
type MockGLPoster struct {
	mock.Mock
}

func (m *MockGLPoster) Post(ctx context.Context, payment *finance.Payment) error {
	args := m.Called(ctx, payment)
	return args.Error(0)
}

// MockEventPublisher is a mock implementation of shared.EventPublisher
type MockEventPublisher struct {
	mock.Mock
}

func (m *MockEventPublisher) Publish(ctx context.Context, events ...shared.DomainEvent) error {
	args := m.Called(ctx, events)
	return args.Error(0)
}

// testRepos bundles the transactional mocks behind a NoOpTransactionScope
type testRepos struct {
	matches    *MockMatchResultRepository
	exceptions *MockMatchExceptionRepository
	payments   *MockPaymentRepository
	approvals  *MockPaymentApprovalRepository
	audit      *MockAuditRecorder
	scope      *NoOpTransactionScope
}

func newTestRepos() *testRepos {
	r := &testRepos{
		matches:    new(MockMatchResultRepository),
		exceptions: new(MockMatchExceptionRepository),
		payments:   new(MockPaymentRepository),
		approvals:  new(MockPaymentApprovalRepository),
		audit:      new(MockAuditRecorder),
	}
	r.scope = NewNoOpTransactionScope(r.matches, r.exceptions, r.payments, r.approvals, r.audit)
	return r
}

// auditOf matches an audit event by type
func auditOf(eventType string) any {
	return mock.MatchedBy(func(e *finance.AuditEvent) bool { return e.EventType == eventType })
}

func newActor(tenantID uuid.UUID, role string) finance.Actor {
	return finance.Actor{UserID: uuid.New(), TenantID: tenantID, Role: role}
}
