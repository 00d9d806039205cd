package events

import (
	"fmt"
	"io"

	"github.com/akriventsev/catalog/framework/core"
	"github.com/akriventsev/catalog/framework/events"
)

// Драйверы публикации
const (
	DriverNone  = "none"
	DriverNATS  = "nats"
	DriverKafka = "kafka"
)

// Config выбор и настройки внешнего публикатора
type Config struct {
	Driver string
	NATS   NATSConfig
	Kafka  KafkaConfig
}

// DefaultConfig возвращает конфигурацию по умолчанию (без брокера)
func DefaultConfig() Config {
	return Config{
		Driver: DriverNone,
		NATS:   DefaultNATSConfig(),
		Kafka:  DefaultKafkaConfig(),
	}
}

// Validate проверяет конфигурацию выбранного драйвера
func (c Config) Validate() error {
	switch c.Driver {
	case DriverNone, "":
		return nil
	case DriverNATS:
		return c.NATS.Validate()
	case DriverKafka:
		return c.Kafka.Validate()
	}
	return fmt.Errorf("unknown events driver: %s", c.Driver)
}

// ClosablePublisher именованный публикатор с освобождением ресурсов
type ClosablePublisher interface {
	events.EventPublisher
	core.Component
	io.Closer
}

type noopCloser struct {
	events.NoopPublisher
}

func (noopCloser) Name() string { return "noop-event-publisher" }

func (noopCloser) Close() error { return nil }

// NewPublisher создает публикатор по конфигурации
func NewPublisher(config Config) (ClosablePublisher, error) {
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid events config: %w", err)
	}

	switch config.Driver {
	case DriverNATS:
		conn, err := ConnectNATS(config.NATS)
		if err != nil {
			return nil, err
		}
		return NewNATSEventPublisher(conn, config.NATS)
	case DriverKafka:
		return NewKafkaEventPublisher(config.Kafka)
	}
	return noopCloser{}, nil
}
