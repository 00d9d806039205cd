package repository

import (
	"context"
	"fmt"
	"sort"
	"sync"
)

// Creator создает searchable репозиторий
type Creator[T Entity] func(ctx context.Context) (SearchableRepository[T], error)

// Factory реестр именованных backends для одного типа entity
type Factory[T Entity] struct {
	creators map[string]Creator[T]
	mu       sync.RWMutex
}

// NewFactory создает новую фабрику Repository
func NewFactory[T Entity]() *Factory[T] {
	return &Factory[T]{
		creators: make(map[string]Creator[T]),
	}
}

// Register регистрирует backend
func (f *Factory[T]) Register(name string, creator Creator[T]) error {
	if name == "" {
		return fmt.Errorf("adapter name cannot be empty")
	}
	if creator == nil {
		return fmt.Errorf("creator function cannot be nil")
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	if _, exists := f.creators[name]; exists {
		return fmt.Errorf("adapter %s already registered", name)
	}

	f.creators[name] = creator
	return nil
}

// Create создает репозиторий указанного типа
func (f *Factory[T]) Create(ctx context.Context, name string) (SearchableRepository[T], error) {
	f.mu.RLock()
	creator, exists := f.creators[name]
	f.mu.RUnlock()

	if !exists {
		return nil, fmt.Errorf("unknown repository type: %s", name)
	}

	repo, err := creator(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to create %s repository: %w", name, err)
	}
	return repo, nil
}

// Names возвращает зарегистрированные имена в алфавитном порядке
func (f *Factory[T]) Names() []string {
	f.mu.RLock()
	defer f.mu.RUnlock()

	names := make([]string, 0, len(f.creators))
	for name := range f.creators {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
