package event

import (
	"context"
	"fmt"
	"time"

	"github.com/erp/apcontrols/internal/domain/shared"
	"github.com/erp/apcontrols/internal/infrastructure/config"
	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"
)

// KafkaWriter wraps kafka.Writer methods for testing
type KafkaWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// KafkaPublisher writes events to one topic, keyed by aggregate ID so that
// the events of one payment or match stay ordered within a partition.
type KafkaPublisher struct {
	writer     KafkaWriter
	topic      string
	serializer *EventSerializer
	logger     *zap.Logger
}

// NewKafkaWriter builds a synchronous writer from the kafka section
func NewKafkaWriter(cfg config.KafkaConfig, topic string) *kafka.Writer {
	return &kafka.Writer{
		Addr:         kafka.TCP(cfg.Brokers...),
		Topic:        topic,
		Balancer:     &kafka.Hash{},
		RequiredAcks: kafka.RequiredAcks(cfg.RequiredAcks),
		WriteTimeout: cfg.WriteTimeout,
		Transport:    &kafka.Transport{ClientID: cfg.ClientID},
	}
}

// NewKafkaPublisher creates a publisher over writer
func NewKafkaPublisher(writer KafkaWriter, topic string, serializer *EventSerializer, logger *zap.Logger) *KafkaPublisher {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &KafkaPublisher{writer: writer, topic: topic, serializer: serializer, logger: logger}
}

// Publish writes all events in one batch
func (p *KafkaPublisher) Publish(ctx context.Context, events ...shared.DomainEvent) error {
	if len(events) == 0 {
		return nil
	}
	msgs := make([]kafka.Message, 0, len(events))
	for _, event := range events {
		data, err := p.serializer.Serialize(event)
		if err != nil {
			return err
		}
		msgs = append(msgs, kafka.Message{
			Key:   []byte(event.AggregateID().String()),
			Value: data,
			Time:  event.OccurredAt(),
			Headers: []kafka.Header{
				{Key: "event_type", Value: []byte(event.EventType())},
				{Key: "tenant_id", Value: []byte(event.TenantID().String())},
			},
		})
	}

	start := time.Now()
	if err := p.writer.WriteMessages(ctx, msgs...); err != nil {
		return fmt.Errorf("failed to publish %d events to %s: %w", len(msgs), p.topic, err)
	}
	p.logger.Debug("events published",
		zap.String("topic", p.topic),
		zap.Int("count", len(msgs)),
		zap.Duration("took", time.Since(start)),
	)
	return nil
}

// Close flushes and closes the writer
func (p *KafkaPublisher) Close() error {
	if err := p.writer.Close(); err != nil {
		return fmt.Errorf("failed to close kafka writer for topic %s: %w", p.topic, err)
	}
	return nil
}

var _ shared.EventPublisher = (*KafkaPublisher)(nil)
