package application

import (
	"time"

	"github.com/akriventsev/catalog/framework/adapters/repository"
	"github.com/akriventsev/catalog/internal/category/domain"
)

// CategoryOutput представление категории для внешних слоев
type CategoryOutput struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Description *string   `json:"description"`
	IsActive    bool      `json:"is_active"`
	CreatedAt   time.Time `json:"created_at"`
}

// ToCategoryOutput преобразует категорию в CategoryOutput
func ToCategoryOutput(category domain.Category) CategoryOutput {
	return CategoryOutput{
		ID:          category.ID(),
		Name:        category.Name(),
		Description: category.Description(),
		IsActive:    category.IsActive(),
		CreatedAt:   category.CreatedAt(),
	}
}

// PaginationOutput страница результатов поиска
type PaginationOutput[T any] struct {
	Items       []T `json:"items"`
	Total       int `json:"total"`
	CurrentPage int `json:"current_page"`
	LastPage    int `json:"last_page"`
	PerPage     int `json:"per_page"`
}

// ToPaginationOutput преобразует SearchResult, отображая элементы через fn
func ToPaginationOutput[E, O any](result repository.SearchResult[E], fn func(E) O) PaginationOutput[O] {
	items := make([]O, 0, len(result.Items()))
	for _, item := range result.Items() {
		items = append(items, fn(item))
	}
	return PaginationOutput[O]{
		Items:       items,
		Total:       result.Total(),
		CurrentPage: result.CurrentPage(),
		LastPage:    result.LastPage(),
		PerPage:     result.PerPage(),
	}
}
