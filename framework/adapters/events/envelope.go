// Package events предоставляет адаптеры для публикации доменных событий во внешние брокеры.
package events

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/akriventsev/catalog/framework/events"
)

// Envelope формат события на проводе: базовые поля и payload события
type Envelope struct {
	EventID       string               `json:"event_id"`
	EventType     string               `json:"event_type"`
	AggregateID   string               `json:"aggregate_id"`
	AggregateType string               `json:"aggregate_type"`
	OccurredAt    time.Time            `json:"occurred_at"`
	Metadata      events.EventMetadata `json:"metadata,omitempty"`
	Payload       json.RawMessage      `json:"payload"`
}

// NewEnvelope сериализует payload события и заполняет базовые поля
func NewEnvelope(event events.Event) (Envelope, error) {
	payload, err := json.Marshal(event)
	if err != nil {
		return Envelope{}, fmt.Errorf("failed to serialize event %s: %w", event.EventType(), err)
	}

	return Envelope{
		EventID:       event.EventID(),
		EventType:     event.EventType(),
		AggregateID:   event.AggregateID(),
		AggregateType: event.AggregateType(),
		OccurredAt:    event.OccurredAt(),
		Metadata:      event.Metadata(),
		Payload:       payload,
	}, nil
}

// Marshal сериализует событие в JSON envelope
func Marshal(event events.Event) ([]byte, error) {
	envelope, err := NewEnvelope(event)
	if err != nil {
		return nil, err
	}
	return json.Marshal(envelope)
}

// Destination формирует subject/topic: {prefix}.{aggregate_type}.{event_type}
func Destination(prefix string, event events.Event) string {
	aggregateType := event.AggregateType()
	if aggregateType == "" {
		aggregateType = "unknown"
	}
	if prefix == "" {
		return fmt.Sprintf("%s.%s", aggregateType, event.EventType())
	}
	return fmt.Sprintf("%s.%s.%s", prefix, aggregateType, event.EventType())
}
