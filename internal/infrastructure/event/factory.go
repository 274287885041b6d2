package event

import (
	"fmt"
	"io"

	"github.com/erp/apcontrols/internal/domain/shared"
	"github.com/erp/apcontrols/internal/infrastructure/config"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

type nopCloser struct{}

func (nopCloser) Close() error { return nil }

// NewPublisher builds the publisher selected by cfg.EventBus.Driver.
// The returned closer releases the broker connection on shutdown.
func NewPublisher(cfg *config.Config, logger *zap.Logger) (shared.EventPublisher, io.Closer, error) {
	serializer := NewControlEventSerializer()

	switch cfg.EventBus.Driver {
	case "", config.EventBusMemory:
		bus := NewInMemoryEventBus(logger)
		bus.Subscribe(NewLogHandler(logger))
		return bus, nopCloser{}, nil
	case config.EventBusRedis:
		client := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr(),
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		p := NewRedisPublisher(client, cfg.EventBus.Channel, serializer, logger)
		return p, p, nil
	case config.EventBusKafka:
		writer := NewKafkaWriter(cfg.Kafka, cfg.EventBus.Topic)
		p := NewKafkaPublisher(writer, cfg.EventBus.Topic, serializer, logger)
		return p, p, nil
	default:
		return nil, nil, fmt.Errorf("unknown event bus driver: %q", cfg.EventBus.Driver)
	}
}
