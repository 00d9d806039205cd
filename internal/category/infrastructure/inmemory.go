// Package infrastructure содержит реализации CategoryRepository для
// in-memory, PostgreSQL и MongoDB хранилищ.
package infrastructure

import (
	"github.com/akriventsev/catalog/framework/adapters/repository"
	"github.com/akriventsev/catalog/internal/category/domain"
)

// NewCategoryInMemoryRepository создает in-memory репозиторий категорий.
// Фильтр по подстроке имени без учета регистра, сортировка по name и created_at.
func NewCategoryInMemoryRepository() *repository.InMemorySearchableRepository[domain.Category] {
	return repository.NewInMemorySearchableRepository(repository.InMemorySearchConfig[domain.Category]{
		InMemoryConfig: repository.InMemoryConfig{EntityName: domain.EntityName},
		SortableFields: domain.SortableFields(),
		Filter:         domain.FilterByName,
		Field:          domain.Field,
		DefaultOrder:   repository.Asc,
	})
}
