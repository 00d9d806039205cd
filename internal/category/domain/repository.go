package domain

import (
	"strings"

	"github.com/akriventsev/catalog/framework/adapters/repository"
)

// CategoryRepository репозиторий категорий с поиском
type CategoryRepository = repository.SearchableRepository[Category]

// Поля категории, используемые в поиске
const (
	FieldName      = "name"
	FieldCreatedAt = "created_at"
)

// SortableFields поля, по которым разрешена сортировка
func SortableFields() []string {
	return []string{FieldName, FieldCreatedAt}
}

// FilterByName подстрока имени без учета регистра
func FilterByName(category Category, filter string) bool {
	return strings.Contains(strings.ToLower(category.Name()), strings.ToLower(filter))
}

// Field значение поля для сортировки
func Field(category Category, field string) (any, bool) {
	switch field {
	case FieldName:
		return category.Name(), true
	case FieldCreatedAt:
		return category.CreatedAt(), true
	}
	return nil, false
}
