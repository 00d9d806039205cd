package repository

import (
	"context"
	"fmt"
	"slices"
	"sync"

	"github.com/akriventsev/catalog/framework/core"
)

// InMemoryConfig конфигурация для InMemory репозитория
type InMemoryConfig struct {
	// EntityName используется в сообщениях NotFound
	EntityName string
	// MaxEntities максимальное количество сущностей (0 = без ограничений)
	// При достижении лимита Insert вернет ошибку
	MaxEntities int
}

// DefaultInMemoryConfig возвращает конфигурацию InMemory по умолчанию
func DefaultInMemoryConfig() InMemoryConfig {
	return InMemoryConfig{
		EntityName:  "Entity",
		MaxEntities: 0, // Без ограничений по умолчанию
	}
}

// InMemoryRepository[T Entity] generic in-memory репозиторий.
// Хранит сущности в порядке вставки.
type InMemoryRepository[T Entity] struct {
	config   InMemoryConfig
	entities []T
	mu       sync.RWMutex
}

// NewInMemoryRepository создает новый in-memory репозиторий
func NewInMemoryRepository[T Entity](config InMemoryConfig) *InMemoryRepository[T] {
	return &InMemoryRepository[T]{
		config:   config,
		entities: make([]T, 0),
	}
}

// Insert сохраняет новую entity
func (r *InMemoryRepository[T]) Insert(ctx context.Context, entity T) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.insertLocked(entity)
}

// BulkInsert сохраняет несколько entities; при ошибке ничего не сохраняется
func (r *InMemoryRepository[T]) BulkInsert(ctx context.Context, entities []T) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	snapshot := r.entities
	r.entities = slices.Clone(r.entities)
	for _, entity := range entities {
		if err := r.insertLocked(entity); err != nil {
			r.entities = snapshot
			return err
		}
	}
	return nil
}

func (r *InMemoryRepository[T]) insertLocked(entity T) error {
	id := entity.ID()
	if id == "" {
		return fmt.Errorf("entity ID cannot be empty")
	}

	if r.indexOf(id) >= 0 {
		return core.Wrap(core.ErrEntityExists, core.ErrAlreadyExists,
			fmt.Sprintf("%s with ID %s already exists", r.config.EntityName, id))
	}

	// Проверяем лимит, если он установлен
	if r.config.MaxEntities > 0 && len(r.entities) >= r.config.MaxEntities {
		return fmt.Errorf("repository limit reached: max %d entities", r.config.MaxEntities)
	}

	r.entities = append(r.entities, entity)
	return nil
}

// FindByID находит entity по ID
func (r *InMemoryRepository[T]) FindByID(ctx context.Context, id string) (T, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var zero T
	idx := r.indexOf(id)
	if idx < 0 {
		return zero, core.NewNotFoundError(r.config.EntityName, id)
	}
	return r.entities[idx], nil
}

// FindAll возвращает все entities в порядке вставки
func (r *InMemoryRepository[T]) FindAll(ctx context.Context) ([]T, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return slices.Clone(r.entities), nil
}

// Update заменяет существующую entity
func (r *InMemoryRepository[T]) Update(ctx context.Context, entity T) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	idx := r.indexOf(entity.ID())
	if idx < 0 {
		return core.NewNotFoundError(r.config.EntityName, entity.ID())
	}
	r.entities[idx] = entity
	return nil
}

// Delete удаляет entity
func (r *InMemoryRepository[T]) Delete(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	idx := r.indexOf(id)
	if idx < 0 {
		return core.NewNotFoundError(r.config.EntityName, id)
	}
	r.entities = slices.Delete(slices.Clone(r.entities), idx, idx+1)
	return nil
}

// Count возвращает количество entities
func (r *InMemoryRepository[T]) Count(ctx context.Context) (int, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.entities), nil
}

// Clear очищает репозиторий (для тестирования)
func (r *InMemoryRepository[T]) Clear(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.entities = make([]T, 0)
	return nil
}

// snapshot возвращает копию коллекции для чтения вне блокировки
func (r *InMemoryRepository[T]) snapshot() []T {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return slices.Clone(r.entities)
}

func (r *InMemoryRepository[T]) indexOf(id string) int {
	for i, entity := range r.entities {
		if entity.ID() == id {
			return i
		}
	}
	return -1
}
