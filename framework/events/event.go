// Package events предоставляет базовые интерфейсы для работы с доменными событиями.
package events

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Event представляет доменное событие
type Event interface {
	// EventID возвращает уникальный идентификатор события
	EventID() string
	// EventType возвращает тип события
	EventType() string
	// OccurredAt возвращает время возникновения события
	OccurredAt() time.Time
	// AggregateID возвращает идентификатор агрегата
	AggregateID() string
	// AggregateType возвращает тип агрегата (category, ...)
	AggregateType() string
	// Metadata возвращает метаданные события
	Metadata() EventMetadata
}

// Ключи метаданных
const (
	MetadataCorrelationID = "correlation_id"
	MetadataCausationID   = "causation_id"
)

// EventMetadata метаданные события
type EventMetadata map[string]string

// Get получает значение метаданных по ключу
func (m EventMetadata) Get(key string) (string, bool) {
	val, ok := m[key]
	return val, ok
}

// CorrelationID возвращает correlation ID
func (m EventMetadata) CorrelationID() string {
	return m[MetadataCorrelationID]
}

// CausationID возвращает causation ID
func (m EventMetadata) CausationID() string {
	return m[MetadataCausationID]
}

// BaseEvent базовая реализация события. Встраивается в конкретные события,
// поля которых сериализуются отдельно от базовых.
type BaseEvent struct {
	eventID       string
	eventType     string
	occurredAt    time.Time
	aggregateID   string
	aggregateType string
	metadata      EventMetadata
}

// NewBaseEvent создает новое базовое событие
func NewBaseEvent(eventType, aggregateType, aggregateID string) *BaseEvent {
	return &BaseEvent{
		eventID:       uuid.NewString(),
		eventType:     eventType,
		occurredAt:    time.Now().UTC(),
		aggregateID:   aggregateID,
		aggregateType: aggregateType,
		metadata:      make(EventMetadata),
	}
}

// WithMetadata добавляет метаданные к событию
func (e *BaseEvent) WithMetadata(key, value string) *BaseEvent {
	e.metadata[key] = value
	return e
}

// WithCorrelationID устанавливает correlation ID
func (e *BaseEvent) WithCorrelationID(id string) *BaseEvent {
	return e.WithMetadata(MetadataCorrelationID, id)
}

func (e *BaseEvent) EventID() string {
	return e.eventID
}

func (e *BaseEvent) EventType() string {
	return e.eventType
}

func (e *BaseEvent) OccurredAt() time.Time {
	return e.occurredAt
}

func (e *BaseEvent) AggregateID() string {
	return e.aggregateID
}

func (e *BaseEvent) AggregateType() string {
	return e.aggregateType
}

func (e *BaseEvent) Metadata() EventMetadata {
	return e.metadata
}

// EventHandler обработчик доменных событий
type EventHandler interface {
	// Handle обрабатывает событие
	Handle(ctx context.Context, event Event) error
}

// EventHandlerFunc адаптер функции к EventHandler
type EventHandlerFunc func(ctx context.Context, event Event) error

// Handle вызывает f
func (f EventHandlerFunc) Handle(ctx context.Context, event Event) error {
	return f(ctx, event)
}

// EventPublisher публикатор событий
type EventPublisher interface {
	// Publish публикует событие
	Publish(ctx context.Context, event Event) error
}

// EventSubscriber подписчик на события
type EventSubscriber interface {
	// Subscribe подписывается на тип события; "*" - на все типы
	Subscribe(eventType string, handler EventHandler) error
}

// EventBus объединяет Publisher и Subscriber
type EventBus interface {
	EventPublisher
	EventSubscriber
}

// correlationKey ключ контекста для correlation ID
type correlationKey struct{}

// WithCorrelationID сохраняет correlation ID в контексте
func WithCorrelationID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, correlationKey{}, id)
}

// CorrelationIDFromContext извлекает correlation ID из контекста
func CorrelationIDFromContext(ctx context.Context) string {
	id, _ := ctx.Value(correlationKey{}).(string)
	return id
}
