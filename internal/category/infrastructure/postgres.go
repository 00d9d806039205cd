package infrastructure

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/akriventsev/catalog/framework/adapters/repository"
	"github.com/akriventsev/catalog/framework/core"
	"github.com/akriventsev/catalog/internal/category/domain"
)

// CategoriesTable таблица категорий
const CategoriesTable = "categories"

// CategoryTableConfig описание таблицы categories для поиска
func CategoryTableConfig() repository.PostgresTableConfig {
	return repository.PostgresTableConfig{
		EntityName:      domain.EntityName,
		TableName:       CategoriesTable,
		IDColumn:        "id",
		CreatedAtColumn: domain.FieldCreatedAt,
		FilterColumns:   []string{domain.FieldName},
		SortableColumns: domain.SortableFields(),
		DefaultOrder:    repository.Asc,
	}
}

// CategoryRowMapper маппинг Category <-> строка categories
type CategoryRowMapper struct {
	validator domain.Validator
}

// NewCategoryRowMapper создает mapper. Загруженные строки проходят ту же
// валидацию, что и новые категории.
func NewCategoryRowMapper(validator domain.Validator) CategoryRowMapper {
	if validator == nil {
		validator = domain.NewCategoryValidator()
	}
	return CategoryRowMapper{validator: validator}
}

func (CategoryRowMapper) Columns() []string {
	return []string{"id", "name", "description", "is_active", "created_at"}
}

func (CategoryRowMapper) ToRow(category domain.Category) ([]any, error) {
	var description sql.NullString
	if d := category.Description(); d != nil {
		description = sql.NullString{String: *d, Valid: true}
	}
	return []any{category.ID(), category.Name(), description, category.IsActive(), category.CreatedAt()}, nil
}

func (m CategoryRowMapper) Scan(row repository.RowScanner) (domain.Category, error) {
	var (
		id          string
		name        string
		description sql.NullString
		isActive    bool
		createdAt   time.Time
	)
	if err := row.Scan(&id, &name, &description, &isActive, &createdAt); err != nil {
		return domain.Category{}, err
	}

	props := domain.CategoryProps{
		Name:      name,
		IsActive:  &isActive,
		CreatedAt: &createdAt,
	}
	if description.Valid {
		props.Description = &description.String
	}
	return restore(id, props, m.validator)
}

// restore восстанавливает категорию из хранилища; невалидная запись
// превращается в LoadEntityError
func restore(id string, props domain.CategoryProps, validator domain.Validator) (domain.Category, error) {
	category, err := domain.RestoreCategory(id, props, validator)
	if err == nil {
		return category, nil
	}

	var validationErr *core.EntityValidationError
	switch {
	case errors.As(err, &validationErr):
		return domain.Category{}, &core.LoadEntityError{Errors: validationErr.Errors}
	case errors.Is(err, domain.ErrInvalidUUID):
		errs := core.FieldErrors{}
		errs.Add("id", fmt.Sprintf("%s is not a valid UUID", id))
		return domain.Category{}, &core.LoadEntityError{Errors: errs}
	}
	return domain.Category{}, err
}

// NewCategoryPostgresRepository создает PostgreSQL репозиторий категорий
func NewCategoryPostgresRepository(db *sql.DB) (*repository.PostgresSearchableRepository[domain.Category], error) {
	return repository.NewPostgresSearchableRepository[domain.Category](db, CategoryTableConfig(), NewCategoryRowMapper(nil))
}
