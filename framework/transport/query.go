// Package transport предоставляет интерфейсы и реализации для работы с запросами CQRS.
package transport

import (
	"context"
	"fmt"
)

// Query представляет запрос CQRS
type Query interface {
	QueryName() string
}

// QueryNext следующий шаг цепочки обработки запроса
type QueryNext func(ctx context.Context, q Query) (any, error)

// QueryHandler обработчик запросов
type QueryHandler interface {
	Handle(ctx context.Context, q Query) (any, error)
	QueryName() string
}

// QueryInterceptor интерфейс для перехвата запросов
type QueryInterceptor interface {
	// Intercept вызывается вокруг выполнения запроса
	Intercept(ctx context.Context, q Query, next QueryNext) (any, error)
}

// QueryInterceptorFunc адаптер функции к QueryInterceptor
type QueryInterceptorFunc func(ctx context.Context, q Query, next QueryNext) (any, error)

// Intercept вызывает f
func (f QueryInterceptorFunc) Intercept(ctx context.Context, q Query, next QueryNext) (any, error) {
	return f(ctx, q, next)
}

// QueryCache интерфейс для кэширования результатов запросов
type QueryCache interface {
	// Get возвращает закэшированный результат
	Get(ctx context.Context, query Query) (any, bool)
	// Set сохраняет результат в кэш
	Set(ctx context.Context, query Query, result any) error
	// Invalidate инвалидирует результат одного запроса
	Invalidate(ctx context.Context, query Query) error
	// Clear инвалидирует весь кэш
	Clear(ctx context.Context) error
}

// QueryBus шина запросов
type QueryBus interface {
	Ask(ctx context.Context, q Query) (any, error)
	Register(handler QueryHandler) error
}

// QueryHandlerFunc типизированный обработчик запроса Q
type QueryHandlerFunc[Q Query] func(ctx context.Context, q Q) (any, error)

type typedQueryHandler[Q Query] struct {
	name    string
	handler QueryHandlerFunc[Q]
}

// NewQueryHandler оборачивает типизированную функцию в QueryHandler
func NewQueryHandler[Q Query](handler QueryHandlerFunc[Q]) QueryHandler {
	var zero Q
	return &typedQueryHandler[Q]{name: zero.QueryName(), handler: handler}
}

func (h *typedQueryHandler[Q]) Handle(ctx context.Context, q Query) (any, error) {
	typed, ok := q.(Q)
	if !ok {
		return nil, unexpectedTypeError(h.name, q)
	}
	return h.handler(ctx, typed)
}

func (h *typedQueryHandler[Q]) QueryName() string {
	return h.name
}

func unexpectedTypeError(name string, value any) error {
	return fmt.Errorf("handler %s received unexpected type %T", name, value)
}
