// Package application содержит use case'ы категорий: команды, запросы
// и их обработчики для шин transport.
package application

// Имена команд
const (
	CreateCategoryCommand = "create_category"
	UpdateCategoryCommand = "update_category"
	DeleteCategoryCommand = "delete_category"
)

// CreateCategory создать категорию
type CreateCategory struct {
	Name        string  `json:"name"`
	Description *string `json:"description"`
	IsActive    *bool   `json:"is_active"`
}

func (CreateCategory) CommandName() string { return CreateCategoryCommand }

// UpdateCategory изменить имя и описание. IsActive != nil
// дополнительно активирует или деактивирует категорию.
type UpdateCategory struct {
	ID          string  `json:"id" uri:"id"`
	Name        string  `json:"name"`
	Description *string `json:"description"`
	IsActive    *bool   `json:"is_active"`
}

func (UpdateCategory) CommandName() string { return UpdateCategoryCommand }

// DeleteCategory удалить категорию
type DeleteCategory struct {
	ID string `json:"id" uri:"id"`
}

func (DeleteCategory) CommandName() string { return DeleteCategoryCommand }
