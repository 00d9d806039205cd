// Package domain содержит сущность Category, ее валидацию, события и
// контракт репозитория.
package domain

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/akriventsev/catalog/framework/core"
)

// EntityName имя сущности в ошибках и метриках
const EntityName = "Category"

// ErrInvalidUUID ID категории не является UUID
var ErrInvalidUUID = core.NewError(core.ErrValidationFailed, "ID must be a valid UUID")

// CategoryProps входные данные категории. Указатели означают
// необязательные поля: nil описание хранится как null, nil IsActive = true,
// nil CreatedAt = текущее время.
type CategoryProps struct {
	Name        string     `json:"name" validate:"required,max=255"`
	Description *string    `json:"description"`
	IsActive    *bool      `json:"is_active"`
	CreatedAt   *time.Time `json:"created_at"`
}

// Category неизменяемое значение категории. Update/Activate/Deactivate
// возвращают новое значение.
type Category struct {
	id          string
	name        string
	description *string
	isActive    bool
	createdAt   time.Time
}

// NewCategory создает новую категорию с новым UUID
func NewCategory(props CategoryProps, validator Validator) (Category, error) {
	return RestoreCategory("", props, validator)
}

// RestoreCategory восстанавливает категорию с известным ID (пустой ID = новый UUID)
func RestoreCategory(id string, props CategoryProps, validator Validator) (Category, error) {
	if id == "" {
		id = uuid.NewString()
	} else if err := uuid.Validate(id); err != nil {
		return Category{}, fmt.Errorf("%w: %s", ErrInvalidUUID, id)
	}

	if errs := validator.Validate(props); len(errs) > 0 {
		return Category{}, core.NewEntityValidationError(errs)
	}

	category := Category{
		id:          id,
		name:        props.Name,
		description: cloneString(props.Description),
		isActive:    true,
		createdAt:   time.Now().UTC(),
	}
	if props.IsActive != nil {
		category.isActive = *props.IsActive
	}
	if props.CreatedAt != nil {
		category.createdAt = props.CreatedAt.UTC()
	}
	return category, nil
}

func (c Category) ID() string { return c.id }

func (c Category) Name() string { return c.name }

// Description описание или nil
func (c Category) Description() *string { return cloneString(c.description) }

func (c Category) IsActive() bool { return c.isActive }

func (c Category) CreatedAt() time.Time { return c.createdAt }

// Update меняет имя и описание с повторной валидацией
func (c Category) Update(name string, description *string, validator Validator) (Category, error) {
	props := c.Props()
	props.Name = name
	props.Description = description

	if errs := validator.Validate(props); len(errs) > 0 {
		return c, core.NewEntityValidationError(errs)
	}

	updated := c
	updated.name = name
	updated.description = cloneString(description)
	return updated, nil
}

// Activate возвращает активную копию
func (c Category) Activate() Category {
	c.isActive = true
	return c
}

// Deactivate возвращает неактивную копию
func (c Category) Deactivate() Category {
	c.isActive = false
	return c
}

// Props возвращает данные категории
func (c Category) Props() CategoryProps {
	isActive := c.isActive
	createdAt := c.createdAt
	return CategoryProps{
		Name:        c.name,
		Description: cloneString(c.description),
		IsActive:    &isActive,
		CreatedAt:   &createdAt,
	}
}

// Equal сравнивает категории по значению
func (c Category) Equal(other Category) bool {
	if c.id != other.id || c.name != other.name || c.isActive != other.isActive || !c.createdAt.Equal(other.createdAt) {
		return false
	}
	if c.description == nil || other.description == nil {
		return c.description == nil && other.description == nil
	}
	return *c.description == *other.description
}

type categoryJSON struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Description *string   `json:"description"`
	IsActive    bool      `json:"is_active"`
	CreatedAt   time.Time `json:"created_at"`
}

// MarshalJSON сериализует категорию в snake_case
func (c Category) MarshalJSON() ([]byte, error) {
	return json.Marshal(categoryJSON{
		ID:          c.id,
		Name:        c.name,
		Description: c.description,
		IsActive:    c.isActive,
		CreatedAt:   c.createdAt,
	})
}

func cloneString(s *string) *string {
	if s == nil {
		return nil
	}
	v := *s
	return &v
}
