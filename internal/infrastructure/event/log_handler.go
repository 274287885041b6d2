package event

import (
	"context"

	"github.com/erp/apcontrols/internal/domain/shared"
	"go.uber.org/zap"
)

// LogHandler writes every control event it receives to the application log.
// The memory driver subscribes it so decisions leave a trail even without a broker.
type LogHandler struct {
	logger *zap.Logger
}

func NewLogHandler(logger *zap.Logger) *LogHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &LogHandler{logger: logger.Named("events")}
}

// Handle logs the event envelope
func (h *LogHandler) Handle(_ context.Context, event shared.DomainEvent) error {
	h.logger.Info("control event",
		zap.String("event_type", event.EventType()),
		zap.String("event_id", event.EventID().String()),
		zap.String("aggregate_type", event.AggregateType()),
		zap.String("aggregate_id", event.AggregateID().String()),
		zap.String("tenant_id", event.TenantID().String()),
		zap.String("actor_id", event.ActorID().String()),
		zap.Time("occurred_at", event.OccurredAt()),
	)
	return nil
}

// EventTypes is empty, so the handler receives everything
func (h *LogHandler) EventTypes() []string { return nil }

var _ shared.EventHandler = (*LogHandler)(nil)
