// Package repository предоставляет generic адаптеры для работы с различными storage backends.
//
// Все backends реализуют один и тот же контракт SearchableRepository: CRUD примитивы
// и Search, который последовательно применяет filter -> sort -> paginate.
package repository

import (
	"context"
	"time"
)

// Entity интерфейс для entity с ID и временем создания.
// CreatedAt используется как порядок по умолчанию в Search.
type Entity interface {
	ID() string
	CreatedAt() time.Time
}

// Repository интерфейс для репозитория
type Repository[T Entity] interface {
	Insert(ctx context.Context, entity T) error
	BulkInsert(ctx context.Context, entities []T) error
	FindByID(ctx context.Context, id string) (T, error)
	FindAll(ctx context.Context) ([]T, error)
	Update(ctx context.Context, entity T) error
	Delete(ctx context.Context, id string) error
}

// SearchableRepository репозиторий с поиском, сортировкой и пагинацией
type SearchableRepository[T Entity] interface {
	Repository[T]
	SortableFields() []string
	Search(ctx context.Context, params SearchParams) (SearchResult[T], error)
}

// FilterFunc предикат фильтрации для in-memory backend
type FilterFunc[T Entity] func(entity T, filter string) bool

// FieldFunc возвращает значение поля для сортировки (false если поля нет)
type FieldFunc[T Entity] func(entity T, field string) (any, bool)

// isSortable проверяет, входит ли поле в список разрешенных
func isSortable(sortable []string, field string) bool {
	for _, f := range sortable {
		if f == field {
			return true
		}
	}
	return false
}
