package events

import (
	"context"
	"fmt"
	"time"

	"github.com/nats-io/nats.go"

	"github.com/akriventsev/catalog/framework/core"
	"github.com/akriventsev/catalog/framework/events"
)

// NATSConfig конфигурация NATS публикатора
type NATSConfig struct {
	URL           string
	SubjectPrefix string
	Timeout       time.Duration
	Retry         events.RetryConfig
}

// DefaultNATSConfig возвращает конфигурацию NATS по умолчанию
func DefaultNATSConfig() NATSConfig {
	return NATSConfig{
		URL:           nats.DefaultURL,
		SubjectPrefix: "events",
		Timeout:       5 * time.Second,
		Retry:         events.DefaultRetryConfig(),
	}
}

// Validate проверяет конфигурацию
func (c NATSConfig) Validate() error {
	if c.URL == "" {
		return core.NewError(core.ErrInvalidConfig, "nats url cannot be empty")
	}
	return nil
}

// ConnectNATS подключается к NATS
func ConnectNATS(config NATSConfig) (*nats.Conn, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	conn, err := nats.Connect(config.URL,
		nats.Name("catalog"),
		nats.Timeout(config.Timeout),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to NATS: %w", err)
	}
	return conn, nil
}

// natsConn часть *nats.Conn, используемая публикатором
type natsConn interface {
	Publish(subject string, data []byte) error
	Flush() error
	Close()
}

// NATSEventPublisher публикация событий в NATS
type NATSEventPublisher struct {
	config NATSConfig
	conn   natsConn
}

// NewNATSEventPublisher создает публикатор поверх подключения
func NewNATSEventPublisher(conn *nats.Conn, config NATSConfig) (*NATSEventPublisher, error) {
	if conn == nil {
		return nil, fmt.Errorf("NATS connection is required")
	}
	return newNATSEventPublisher(conn, config), nil
}

func newNATSEventPublisher(conn natsConn, config NATSConfig) *NATSEventPublisher {
	return &NATSEventPublisher{config: config, conn: conn}
}

// Name возвращает имя компонента (реализация core.Component)
func (n *NATSEventPublisher) Name() string {
	return "nats-event-publisher"
}

// Publish публикует событие в subject {prefix}.{aggregate_type}.{event_type}
func (n *NATSEventPublisher) Publish(ctx context.Context, event events.Event) error {
	data, err := Marshal(event)
	if err != nil {
		return err
	}

	subject := Destination(n.config.SubjectPrefix, event)
	err = events.Retry(ctx, n.config.Retry, func(ctx context.Context) error {
		return n.conn.Publish(subject, data)
	})
	if err != nil {
		return fmt.Errorf("failed to publish event to %s: %w", subject, err)
	}
	return nil
}

// Close сбрасывает буфер и закрывает подключение
func (n *NATSEventPublisher) Close() error {
	err := n.conn.Flush()
	n.conn.Close()
	return err
}
