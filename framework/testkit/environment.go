// Package testkit предоставляет in-memory окружение для тестов сервисов.
package testkit

import (
	"context"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"

	"github.com/akriventsev/catalog/framework/container"
	"github.com/akriventsev/catalog/framework/events"
	"github.com/akriventsev/catalog/framework/transport"
)

// Environment тестовая среда с готовыми in-memory компонентами
type Environment struct {
	CommandBus *transport.InMemoryCommandBus
	QueryBus   *transport.InMemoryQueryBus
	EventBus   *events.InMemoryEventBus
	// Events все опубликованные события
	Events *events.RecordingPublisher
	Logger *logrus.Logger
	// Logs записи Logger
	Logs      *test.Hook
	Container *container.Container
}

// NewEnvironment создает тестовую среду. Shutdown вызывается в t.Cleanup.
func NewEnvironment(t testing.TB) *Environment {
	t.Helper()

	logger, hook := test.NewNullLogger()
	logger.SetLevel(logrus.DebugLevel)

	env := &Environment{
		CommandBus: transport.NewInMemoryCommandBus(),
		QueryBus:   transport.NewInMemoryQueryBus(),
		EventBus:   events.NewInMemoryEventBus(),
		Events:     &events.RecordingPublisher{},
		Logger:     logger,
		Logs:       hook,
		Container:  container.NewContainer(nil, logger),
	}
	env.Container.OnStop("event-bus", env.EventBus.Shutdown)

	t.Cleanup(func() {
		if err := env.Shutdown(context.Background()); err != nil {
			t.Errorf("failed to shutdown test environment: %v", err)
		}
	})
	return env
}

// Publisher публикует в EventBus и записывает в Events
func (e *Environment) Publisher() events.EventPublisher {
	return events.MultiPublisher{e.EventBus, e.Events}
}

// Shutdown корректно завершает работу тестовой среды
func (e *Environment) Shutdown(ctx context.Context) error {
	return e.Container.Shutdown(ctx)
}
