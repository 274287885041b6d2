package event

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/erp/apcontrols/internal/domain/finance"
	"github.com/erp/apcontrols/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type recordingHandler struct {
	eventTypes []string
	err        error
	panicWith  any
	mu         sync.Mutex
	handled    []shared.DomainEvent
}

func (h *recordingHandler) Handle(_ context.Context, event shared.DomainEvent) error {
	h.mu.Lock()
	h.handled = append(h.handled, event)
	h.mu.Unlock()
	if h.panicWith != nil {
		panic(h.panicWith)
	}
	return h.err
}

func (h *recordingHandler) EventTypes() []string { return h.eventTypes }

func (h *recordingHandler) count() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.handled)
}

func testPayment(t *testing.T) *finance.Payment {
	t.Helper()
	actor := finance.Actor{UserID: uuid.New(), TenantID: uuid.New()}
	p, err := finance.NewPayment(finance.NewPaymentParams{
		VendorID:       uuid.New(),
		Amount:         "250.00",
		Currency:       "USD",
		PaymentDate:    time.Now().UTC(),
		IdempotencyKey: "evt-" + uuid.NewString(),
	}, actor)
	require.NoError(t, err)
	return p
}

func TestInMemoryEventBus_RoutesByType(t *testing.T) {
	bus := NewInMemoryEventBus(zap.NewNop())
	created := &recordingHandler{eventTypes: []string{finance.EventTypePaymentCreated}}
	changed := &recordingHandler{eventTypes: []string{finance.EventTypePaymentStatusChanged}}
	everything := &recordingHandler{}
	bus.Subscribe(created)
	bus.Subscribe(changed)
	bus.Subscribe(everything)

	p := testPayment(t)
	require.NoError(t, bus.Publish(context.Background(), p.PullDomainEvents()...))

	assert.Equal(t, 1, created.count())
	assert.Equal(t, 0, changed.count())
	assert.Equal(t, 1, everything.count())
	assert.Equal(t, int64(1), bus.Published())
}

func TestInMemoryEventBus_HandlerFailuresAreIsolated(t *testing.T) {
	bus := NewInMemoryEventBus(nil)
	failing := &recordingHandler{err: errors.New("boom")}
	panicking := &recordingHandler{panicWith: "kaboom"}
	healthy := &recordingHandler{}
	bus.Subscribe(failing, finance.EventTypePaymentCreated)
	bus.Subscribe(panicking, finance.EventTypePaymentCreated)
	bus.Subscribe(healthy, finance.EventTypePaymentCreated)

	err := bus.Publish(context.Background(), testPayment(t).PullDomainEvents()...)

	assert.NoError(t, err)
	assert.Equal(t, 1, failing.count())
	assert.Equal(t, 1, panicking.count())
	assert.Equal(t, 1, healthy.count())
}

func TestInMemoryEventBus_Unsubscribe(t *testing.T) {
	bus := NewInMemoryEventBus(zap.NewNop())
	h := &recordingHandler{}
	bus.Subscribe(h, finance.EventTypePaymentCreated, finance.EventTypePaymentStatusChanged)
	bus.Unsubscribe(h)

	require.NoError(t, bus.Publish(context.Background(), testPayment(t).PullDomainEvents()...))
	assert.Equal(t, 0, h.count())
	assert.Empty(t, bus.handlersFor(finance.EventTypePaymentStatusChanged))
}

func TestInMemoryEventBus_Lifecycle(t *testing.T) {
	bus := NewInMemoryEventBus(zap.NewNop())
	assert.False(t, bus.IsRunning())
	require.NoError(t, bus.Start(context.Background()))
	assert.True(t, bus.IsRunning())
	require.NoError(t, bus.Stop(context.Background()))
	assert.False(t, bus.IsRunning())
}

func TestInMemoryEventBus_HandlersForKeepsSubscriptionOrder(t *testing.T) {
	bus := NewInMemoryEventBus(nil)
	all := &recordingHandler{}
	a := &recordingHandler{}
	b := &recordingHandler{}

	bus.Subscribe(all)
	bus.Subscribe(a, "MatchEvaluated", "MatchOverridden")
	bus.Subscribe(b, "MatchEvaluated")

	assert.Equal(t, []shared.EventHandler{all, a, b}, bus.handlersFor("MatchEvaluated"))
	assert.Equal(t, []shared.EventHandler{all, a}, bus.handlersFor("MatchOverridden"))
	assert.Equal(t, []shared.EventHandler{all}, bus.handlersFor("PaymentCreated"))

	bus.Unsubscribe(a)
	assert.Equal(t, []shared.EventHandler{all, b}, bus.handlersFor("MatchEvaluated"))
	assert.Equal(t, []shared.EventHandler{all}, bus.handlersFor("MatchOverridden"))
}
