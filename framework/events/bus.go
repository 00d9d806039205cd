// Package events предоставляет реализацию EventBus.
package events

import (
	"context"
	"errors"
	"fmt"
	"sync"
)

// WildcardEventType подписка на все типы событий
const WildcardEventType = "*"

// EventMiddleware middleware для событий
type EventMiddleware func(ctx context.Context, event Event, next func(ctx context.Context, event Event) error) error

// InMemoryEventBus синхронная шина событий в памяти.
// Обработчики вызываются последовательно в порядке подписки.
type InMemoryEventBus struct {
	handlers   map[string][]EventHandler
	middleware []EventMiddleware
	mu         sync.RWMutex
	stopped    bool
}

// NewInMemoryEventBus создает новую шину событий
func NewInMemoryEventBus() *InMemoryEventBus {
	return &InMemoryEventBus{
		handlers: make(map[string][]EventHandler),
	}
}

// WithMiddleware добавляет middleware к шине
func (b *InMemoryEventBus) WithMiddleware(middleware EventMiddleware) *InMemoryEventBus {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.middleware = append(b.middleware, middleware)
	return b
}

// Subscribe подписывается на тип события
func (b *InMemoryEventBus) Subscribe(eventType string, handler EventHandler) error {
	if eventType == "" {
		return fmt.Errorf("event type cannot be empty")
	}
	if handler == nil {
		return fmt.Errorf("handler cannot be nil")
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	b.handlers[eventType] = append(b.handlers[eventType], handler)
	return nil
}

// Publish публикует событие всем подписчикам. Ошибки обработчиков
// объединяются; один упавший обработчик не останавливает остальных.
func (b *InMemoryEventBus) Publish(ctx context.Context, event Event) error {
	b.mu.RLock()
	if b.stopped {
		b.mu.RUnlock()
		return fmt.Errorf("event bus is stopped")
	}
	handlers := make([]EventHandler, 0, len(b.handlers[event.EventType()])+len(b.handlers[WildcardEventType]))
	handlers = append(handlers, b.handlers[event.EventType()]...)
	handlers = append(handlers, b.handlers[WildcardEventType]...)
	middleware := append([]EventMiddleware(nil), b.middleware...)
	b.mu.RUnlock()

	next := func(ctx context.Context, event Event) error {
		var errs []error
		for _, handler := range handlers {
			if err := handler.Handle(ctx, event); err != nil {
				errs = append(errs, err)
			}
		}
		if len(errs) > 0 {
			return fmt.Errorf("event %s: %w", event.EventType(), errors.Join(errs...))
		}
		return nil
	}

	for i := len(middleware) - 1; i >= 0; i-- {
		mw := middleware[i]
		prevNext := next
		next = func(ctx context.Context, event Event) error {
			return mw(ctx, event, prevNext)
		}
	}

	return next(ctx, event)
}

// Shutdown останавливает шину; последующие Publish возвращают ошибку
func (b *InMemoryEventBus) Shutdown(ctx context.Context) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.stopped = true
	return nil
}
