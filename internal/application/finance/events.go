package finance

import (
	"context"
	"errors"

	"github.com/erp/apcontrols/internal/domain/shared"
	"go.uber.org/zap"
)

// eventDispatcher publishes domain events after the owning transaction commits.
// Publish failures are logged and never change the outcome of the operation.
type eventDispatcher struct {
	publisher shared.EventPublisher
	logger    *zap.Logger
}

func (d eventDispatcher) dispatch(ctx context.Context, events ...shared.DomainEvent) {
	if d.publisher == nil || len(events) == 0 {
		return
	}
	if err := d.publisher.Publish(ctx, events...); err != nil {
		types := make([]string, 0, len(events))
		for _, event := range events {
			types = append(types, event.EventType())
		}
		d.logger.Warn("Failed to publish domain events",
			zap.Strings("event_types", types),
			zap.String("aggregate_id", events[0].AggregateID().String()),
			zap.Error(err))
	}
}

// isNotFound reports whether a repository or reader error means the record is absent
func isNotFound(err error) bool {
	return errors.Is(err, shared.ErrNotFound)
}

func loggerOrNop(logger *zap.Logger) *zap.Logger {
	if logger == nil {
		return zap.NewNop()
	}
	return logger
}
