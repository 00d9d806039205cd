// Package container управляет зависимостями сервиса и их жизненным циклом.
package container

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/akriventsev/catalog/framework/core"
)

// Config конфигурация контейнера
type Config struct {
	ShutdownTimeout time.Duration
}

// Hook запуск и остановка компонента. Любая из функций может быть nil.
type Hook struct {
	Name    string
	OnStart func(ctx context.Context) error
	OnStop  func(ctx context.Context) error
}

// Container контейнер зависимостей
type Container struct {
	config Config
	logger logrus.FieldLogger

	dependencies map[string]any
	hooks        []Hook
	started      int
	mu           sync.RWMutex
}

// NewContainer создает новый контейнер
func NewContainer(config *Config, logger logrus.FieldLogger) *Container {
	if config == nil || config.ShutdownTimeout <= 0 {
		config = &Config{ShutdownTimeout: 30 * time.Second}
	}
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &Container{
		config:       *config,
		logger:       logger,
		dependencies: make(map[string]any),
	}
}

// Get[T] получает зависимость по ключу
func Get[T any](c *Container, key string) (T, error) {
	var zero T
	c.mu.RLock()
	defer c.mu.RUnlock()

	dep, exists := c.dependencies[key]
	if !exists {
		return zero, fmt.Errorf("dependency %s not found", key)
	}

	typed, ok := dep.(T)
	if !ok {
		return zero, fmt.Errorf("dependency %s has wrong type", key)
	}
	return typed, nil
}

// MustGet[T] как Get, но паникует при ошибке
func MustGet[T any](c *Container, key string) T {
	value, err := Get[T](c, key)
	if err != nil {
		panic(err)
	}
	return value
}

// Set[T] регистрирует зависимость
func Set[T any](c *Container, key string, value T) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, exists := c.dependencies[key]; exists {
		return fmt.Errorf("dependency %s already registered", key)
	}
	c.dependencies[key] = value
	return nil
}

// Append добавляет hook. Hooks запускаются в порядке добавления
// и останавливаются в обратном.
func (c *Container) Append(hook Hook) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.hooks = append(c.hooks, hook)
}

// AppendService добавляет компонент с жизненным циклом. Stop вызывается,
// только если компонент еще работает.
func (c *Container) AppendService(service core.Service) {
	c.Append(Hook{
		Name:    service.Name(),
		OnStart: service.Start,
		OnStop: func(ctx context.Context) error {
			if !service.IsRunning() {
				return nil
			}
			return service.Stop(ctx)
		},
	})
}

// OnStop добавляет hook, который только освобождает ресурс
func (c *Container) OnStop(name string, stop func(ctx context.Context) error) {
	c.Append(Hook{Name: name, OnStop: stop})
}

// Start запускает hooks. При ошибке уже запущенные останавливаются.
func (c *Container) Start(ctx context.Context) error {
	c.mu.Lock()
	hooks := c.hooks[c.started:]
	c.mu.Unlock()

	for _, hook := range hooks {
		if hook.OnStart != nil {
			if err := hook.OnStart(ctx); err != nil {
				startErr := fmt.Errorf("failed to start %s: %w", hook.Name, err)
				if stopErr := c.Shutdown(ctx); stopErr != nil {
					return errors.Join(startErr, stopErr)
				}
				return startErr
			}
			c.logger.WithField("component", hook.Name).Debug("started")
		}

		c.mu.Lock()
		c.started++
		c.mu.Unlock()
	}
	return nil
}

// Shutdown останавливает запущенные hooks в обратном порядке, а hooks
// без OnStart закрывает всегда. Ошибки собираются, остановка продолжается.
func (c *Container) Shutdown(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, c.config.ShutdownTimeout)
	defer cancel()

	c.mu.Lock()
	hooks := c.hooks
	started := c.started
	c.hooks = nil
	c.started = 0
	c.mu.Unlock()

	var errs []error
	for i := len(hooks) - 1; i >= 0; i-- {
		hook := hooks[i]
		if hook.OnStop == nil || (i >= started && hook.OnStart != nil) {
			continue
		}
		if err := hook.OnStop(ctx); err != nil {
			c.logger.WithError(err).WithField("component", hook.Name).Error("failed to stop")
			errs = append(errs, fmt.Errorf("%s: %w", hook.Name, err))
		}
	}
	return errors.Join(errs...)
}
