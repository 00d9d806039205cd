package events

import (
	"context"
	"fmt"
	"time"

	"github.com/segmentio/kafka-go"

	"github.com/akriventsev/catalog/framework/core"
	"github.com/akriventsev/catalog/framework/events"
)

// KafkaConfig конфигурация Kafka публикатора
type KafkaConfig struct {
	Brokers       []string
	TopicPrefix   string
	Compression   string // none, gzip, snappy, lz4, zstd
	BatchSize     int
	FlushInterval time.Duration
}

// DefaultKafkaConfig возвращает конфигурацию Kafka по умолчанию
func DefaultKafkaConfig() KafkaConfig {
	return KafkaConfig{
		Brokers:       []string{"localhost:9092"},
		TopicPrefix:   "events",
		Compression:   "snappy",
		BatchSize:     100,
		FlushInterval: 10 * time.Millisecond,
	}
}

// Validate проверяет конфигурацию
func (c KafkaConfig) Validate() error {
	if len(c.Brokers) == 0 {
		return core.NewError(core.ErrInvalidConfig, "kafka brokers cannot be empty")
	}
	switch c.Compression {
	case "", "none", "gzip", "snappy", "lz4", "zstd":
	default:
		return core.NewError(core.ErrInvalidConfig, fmt.Sprintf("unknown kafka compression %q", c.Compression))
	}
	return nil
}

// getKafkaCompression преобразует строку в kafka.Compression
func getKafkaCompression(compression string) kafka.Compression {
	switch compression {
	case "gzip":
		return kafka.Gzip
	case "snappy":
		return kafka.Snappy
	case "lz4":
		return kafka.Lz4
	case "zstd":
		return kafka.Zstd
	default:
		return kafka.Compression(0)
	}
}

// messageWriter часть *kafka.Writer, используемая публикатором
type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// KafkaEventPublisher публикация событий в Kafka.
// Ключ сообщения = aggregate ID, поэтому события одной сущности
// попадают в одну партицию и сохраняют порядок.
type KafkaEventPublisher struct {
	config KafkaConfig
	writer messageWriter
}

// NewKafkaEventPublisher создает публикатор
func NewKafkaEventPublisher(config KafkaConfig) (*KafkaEventPublisher, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	writer := &kafka.Writer{
		Addr:                   kafka.TCP(config.Brokers...),
		Balancer:               &kafka.Hash{},
		RequiredAcks:           kafka.RequireAll,
		BatchSize:              config.BatchSize,
		BatchTimeout:           config.FlushInterval,
		Compression:            getKafkaCompression(config.Compression),
		WriteTimeout:           10 * time.Second,
		AllowAutoTopicCreation: true,
	}

	return newKafkaEventPublisher(writer, config), nil
}

func newKafkaEventPublisher(writer messageWriter, config KafkaConfig) *KafkaEventPublisher {
	return &KafkaEventPublisher{config: config, writer: writer}
}

// Name возвращает имя компонента (реализация core.Component)
func (k *KafkaEventPublisher) Name() string {
	return "kafka-event-publisher"
}

// Publish публикует событие в topic {prefix}.{aggregate_type}.{event_type}
func (k *KafkaEventPublisher) Publish(ctx context.Context, event events.Event) error {
	data, err := Marshal(event)
	if err != nil {
		return err
	}

	msg := kafka.Message{
		Topic: Destination(k.config.TopicPrefix, event),
		Key:   []byte(event.AggregateID()),
		Value: data,
		Headers: []kafka.Header{
			{Key: "event_id", Value: []byte(event.EventID())},
			{Key: "event_type", Value: []byte(event.EventType())},
			{Key: "aggregate_id", Value: []byte(event.AggregateID())},
			{Key: "occurred_at", Value: []byte(event.OccurredAt().Format(time.RFC3339Nano))},
		},
	}

	if correlationID := event.Metadata().CorrelationID(); correlationID != "" {
		msg.Headers = append(msg.Headers, kafka.Header{
			Key:   "correlation_id",
			Value: []byte(correlationID),
		})
	}

	if err := k.writer.WriteMessages(ctx, msg); err != nil {
		return fmt.Errorf("failed to publish event to %s: %w", msg.Topic, err)
	}
	return nil
}

// Close закрывает writer
func (k *KafkaEventPublisher) Close() error {
	return k.writer.Close()
}
