package application

import "github.com/akriventsev/catalog/framework/adapters/repository"

// Имена запросов
const (
	GetCategoryQuery    = "get_category"
	ListCategoriesQuery = "list_categories"
)

// GetCategory получить категорию по ID
type GetCategory struct {
	ID string `json:"id" uri:"id"`
}

func (GetCategory) QueryName() string { return GetCategoryQuery }

// ListCategories поиск категорий. Значения передаются как есть и
// нормализуются repository.NewSearchParams, некорректные заменяются
// значениями по умолчанию.
type ListCategories struct {
	Page    string `json:"page,omitempty" form:"page"`
	PerPage string `json:"per_page,omitempty" form:"per_page"`
	Sort    string `json:"sort,omitempty" form:"sort"`
	SortDir string `json:"sort_dir,omitempty" form:"sort_dir"`
	Filter  string `json:"filter,omitempty" form:"filter"`
}

func (ListCategories) QueryName() string { return ListCategoriesQuery }

// SearchParams нормализованные параметры поиска
func (q ListCategories) SearchParams() repository.SearchParams {
	return repository.NewSearchParams(repository.SearchProps{
		Page:    q.Page,
		PerPage: q.PerPage,
		Sort:    q.Sort,
		SortDir: q.SortDir,
		Filter:  q.Filter,
	})
}
