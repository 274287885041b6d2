package event

import (
	"context"
	"errors"
	"fmt"

	"github.com/erp/apcontrols/internal/domain/shared"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// RedisClient is the subset of *redis.Client the publisher needs
type RedisClient interface {
	Publish(ctx context.Context, channel string, message any) *redis.IntCmd
	Close() error
}

// RedisPublisher publishes events as JSON on a Redis pub/sub channel
type RedisPublisher struct {
	client     RedisClient
	channel    string
	serializer *EventSerializer
	logger     *zap.Logger
}

// NewRedisPublisher creates a publisher on channel
func NewRedisPublisher(client RedisClient, channel string, serializer *EventSerializer, logger *zap.Logger) *RedisPublisher {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RedisPublisher{client: client, channel: channel, serializer: serializer, logger: logger}
}

// Publish sends each event. Every event is attempted; failures are joined.
func (p *RedisPublisher) Publish(ctx context.Context, events ...shared.DomainEvent) error {
	var errs []error
	for _, event := range events {
		data, err := p.serializer.Serialize(event)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		receivers, err := p.client.Publish(ctx, p.channel, data).Result()
		if err != nil {
			errs = append(errs, fmt.Errorf("failed to publish %s to %s: %w", event.EventType(), p.channel, err))
			continue
		}
		p.logger.Debug("event published",
			zap.String("channel", p.channel),
			zap.String("event_type", event.EventType()),
			zap.Int64("receivers", receivers),
		)
	}
	return errors.Join(errs...)
}

// Close closes the underlying client
func (p *RedisPublisher) Close() error {
	return p.client.Close()
}

var _ shared.EventPublisher = (*RedisPublisher)(nil)
