// Package transport предоставляет интерфейсы и реализации для работы с командами CQRS.
package transport

import "context"

// Command представляет команду CQRS
type Command interface {
	CommandName() string
}

// CommandNext следующий шаг цепочки обработки команды
type CommandNext func(ctx context.Context, cmd Command) (any, error)

// CommandHandler обработчик команд. Результат может быть nil
// (например, для удаления).
type CommandHandler interface {
	Handle(ctx context.Context, cmd Command) (any, error)
	CommandName() string
}

// CommandInterceptor интерфейс для перехвата команд
type CommandInterceptor interface {
	// Intercept вызывается вокруг выполнения команды
	Intercept(ctx context.Context, cmd Command, next CommandNext) (any, error)
}

// CommandInterceptorFunc адаптер функции к CommandInterceptor
type CommandInterceptorFunc func(ctx context.Context, cmd Command, next CommandNext) (any, error)

// Intercept вызывает f
func (f CommandInterceptorFunc) Intercept(ctx context.Context, cmd Command, next CommandNext) (any, error) {
	return f(ctx, cmd, next)
}

// CommandBus шина команд
type CommandBus interface {
	Send(ctx context.Context, cmd Command) (any, error)
	Register(handler CommandHandler) error
}

// CommandHandlerFunc типизированный обработчик команды C
type CommandHandlerFunc[C Command] func(ctx context.Context, cmd C) (any, error)

type typedCommandHandler[C Command] struct {
	name    string
	handler CommandHandlerFunc[C]
}

// NewCommandHandler оборачивает типизированную функцию в CommandHandler.
// Команда неподходящего типа возвращает ошибку.
func NewCommandHandler[C Command](handler CommandHandlerFunc[C]) CommandHandler {
	var zero C
	return &typedCommandHandler[C]{name: zero.CommandName(), handler: handler}
}

func (h *typedCommandHandler[C]) Handle(ctx context.Context, cmd Command) (any, error) {
	typed, ok := cmd.(C)
	if !ok {
		return nil, unexpectedTypeError(h.name, cmd)
	}
	return h.handler(ctx, typed)
}

func (h *typedCommandHandler[C]) CommandName() string {
	return h.name
}
