package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	apfinance "github.com/erp/apcontrols/internal/application/finance"
	"github.com/erp/apcontrols/internal/domain/finance"
	"github.com/erp/apcontrols/internal/domain/shared"
	"github.com/erp/apcontrols/internal/interfaces/http/dto"
	"github.com/erp/apcontrols/internal/interfaces/http/middleware"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func init() {
	gin.SetMode(gin.TestMode)
	middleware.SetupValidator()
}

// MockMatchEvaluator implements MatchEvaluator for testing
type MockMatchEvaluator struct {
	mock.Mock
}

func (m *MockMatchEvaluator) Evaluate(ctx context.Context, invoiceID uuid.UUID, actor finance.Actor) (*finance.MatchResult, error) {
	args := m.Called(ctx, invoiceID, actor)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*finance.MatchResult), args.Error(1)
}

func (m *MockMatchEvaluator) GetByID(ctx context.Context, actor finance.Actor, id uuid.UUID) (*finance.MatchResult, error) {
	args := m.Called(ctx, actor, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*finance.MatchResult), args.Error(1)
}

func (m *MockMatchEvaluator) GetByInvoice(ctx context.Context, actor finance.Actor, invoiceID uuid.UUID) (*finance.MatchResult, error) {
	args := m.Called(ctx, actor, invoiceID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*finance.MatchResult), args.Error(1)
}

// MockMatchOverrider implements MatchOverrider for testing
type MockMatchOverrider struct {
	mock.Mock
}

func (m *MockMatchOverrider) Override(ctx context.Context, matchID uuid.UUID, input apfinance.OverrideInput, actor finance.Actor, expectedVersion int) (*finance.MatchResult, error) {
	args := m.Called(ctx, matchID, input, actor, expectedVersion)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*finance.MatchResult), args.Error(1)
}

// MockExceptionQueue implements ExceptionQueue for testing
type MockExceptionQueue struct {
	mock.Mock
}

func (m *MockExceptionQueue) List(ctx context.Context, actor finance.Actor, filter finance.ExceptionFilter) (*shared.Paginated[finance.MatchException], error) {
	args := m.Called(ctx, actor, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*shared.Paginated[finance.MatchException]), args.Error(1)
}

func (m *MockExceptionQueue) Get(ctx context.Context, actor finance.Actor, id uuid.UUID) (*finance.MatchException, error) {
	args := m.Called(ctx, actor, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*finance.MatchException), args.Error(1)
}

func (m *MockExceptionQueue) Resolve(ctx context.Context, id uuid.UUID, input apfinance.ResolveExceptionInput, actor finance.Actor, expectedVersion int) (*finance.MatchException, error) {
	args := m.Called(ctx, id, input, actor, expectedVersion)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*finance.MatchException), args.Error(1)
}

// MockPaymentRegistry implements PaymentRegistry for testing
type MockPaymentRegistry struct {
	mock.Mock
}

func (m *MockPaymentRegistry) Create(ctx context.Context, input apfinance.CreatePaymentInput, actor finance.Actor, idempotencyKey string) (*finance.Payment, error) {
	args := m.Called(ctx, input, actor, idempotencyKey)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*finance.Payment), args.Error(1)
}

func (m *MockPaymentRegistry) Get(ctx context.Context, actor finance.Actor, id uuid.UUID) (*finance.Payment, error) {
	args := m.Called(ctx, actor, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*finance.Payment), args.Error(1)
}

// MockPaymentApprover implements PaymentApprover for testing
type MockPaymentApprover struct {
	mock.Mock
}

func (m *MockPaymentApprover) Approve(ctx context.Context, paymentID uuid.UUID, actor finance.Actor, expectedVersion int, comment string) (*finance.Payment, error) {
	args := m.Called(ctx, paymentID, actor, expectedVersion, comment)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*finance.Payment), args.Error(1)
}

func (m *MockPaymentApprover) History(ctx context.Context, actor finance.Actor, paymentID uuid.UUID) ([]finance.PaymentApproval, error) {
	args := m.Called(ctx, actor, paymentID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]finance.PaymentApproval), args.Error(1)
}

// MockPaymentExecutor implements PaymentExecutor for testing
type MockPaymentExecutor struct {
	mock.Mock
}

func (m *MockPaymentExecutor) result(args mock.Arguments) (*finance.Payment, error) {
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*finance.Payment), args.Error(1)
}

func (m *MockPaymentExecutor) Submit(ctx context.Context, paymentID uuid.UUID, actor finance.Actor, expectedVersion int) (*finance.Payment, error) {
	return m.result(m.Called(ctx, paymentID, actor, expectedVersion))
}

func (m *MockPaymentExecutor) Execute(ctx context.Context, paymentID uuid.UUID, actor finance.Actor, expectedVersion int) (*finance.Payment, error) {
	return m.result(m.Called(ctx, paymentID, actor, expectedVersion))
}

func (m *MockPaymentExecutor) Complete(ctx context.Context, paymentID uuid.UUID, actor finance.Actor, expectedVersion int) (*finance.Payment, error) {
	return m.result(m.Called(ctx, paymentID, actor, expectedVersion))
}

func (m *MockPaymentExecutor) Fail(ctx context.Context, paymentID uuid.UUID, reason string, actor finance.Actor, expectedVersion int) (*finance.Payment, error) {
	return m.result(m.Called(ctx, paymentID, reason, actor, expectedVersion))
}

func (m *MockPaymentExecutor) Retry(ctx context.Context, paymentID uuid.UUID, actor finance.Actor, expectedVersion int) (*finance.Payment, error) {
	return m.result(m.Called(ctx, paymentID, actor, expectedVersion))
}

// testActor is the caller every handler test authenticates as
var testActor = finance.Actor{
	UserID:   uuid.MustParse("11111111-1111-1111-1111-111111111111"),
	TenantID: uuid.MustParse("22222222-2222-2222-2222-222222222222"),
	Role:     "ap_manager",
}

// newTestRouter mounts routes behind the real RequestID and Actor middleware
func newTestRouter(register func(r *gin.Engine)) *gin.Engine {
	r := gin.New()
	r.Use(middleware.RequestID(), middleware.Actor())
	register(r)
	return r
}

// doJSON sends a request as testActor
func doJSON(t *testing.T, r http.Handler, method, path string, body any, headers ...string) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		switch b := body.(type) {
		case string:
			buf.WriteString(b)
		default:
			require.NoError(t, json.NewEncoder(&buf).Encode(b))
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set(middleware.UserIDHeader, testActor.UserID.String())
	req.Header.Set(middleware.TenantIDHeader, testActor.TenantID.String())
	req.Header.Set(middleware.UserRoleHeader, testActor.Role)
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

// envelope is a decoded response with raw data for per-test decoding
type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   *dto.ErrorInfo  `json:"error"`
	Meta    *dto.Meta       `json:"meta"`
}

func decode(t *testing.T, w *httptest.ResponseRecorder) envelope {
	t.Helper()
	var env envelope
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env))
	return env
}

func decodeData[T any](t *testing.T, env envelope) T {
	t.Helper()
	var out T
	require.NoError(t, json.Unmarshal(env.Data, &out))
	return out
}
