package domain

import (
	"time"

	"github.com/akriventsev/catalog/framework/events"
)

// Типы событий категории
const (
	AggregateType       = "category"
	CategoryCreatedType = "category.created"
	CategoryUpdatedType = "category.updated"
	CategoryDeletedType = "category.deleted"
)

// CategoryCreatedEvent категория создана
type CategoryCreatedEvent struct {
	*events.BaseEvent
	Name        string    `json:"name"`
	Description *string   `json:"description"`
	IsActive    bool      `json:"is_active"`
	CreatedAt   time.Time `json:"created_at"`
}

// NewCategoryCreatedEvent создает событие category.created
func NewCategoryCreatedEvent(category Category) *CategoryCreatedEvent {
	return &CategoryCreatedEvent{
		BaseEvent:   events.NewBaseEvent(CategoryCreatedType, AggregateType, category.ID()),
		Name:        category.Name(),
		Description: category.Description(),
		IsActive:    category.IsActive(),
		CreatedAt:   category.CreatedAt(),
	}
}

// CategoryUpdatedEvent имя, описание или активность изменены
type CategoryUpdatedEvent struct {
	*events.BaseEvent
	Name        string  `json:"name"`
	Description *string `json:"description"`
	IsActive    bool    `json:"is_active"`
}

// NewCategoryUpdatedEvent создает событие category.updated
func NewCategoryUpdatedEvent(category Category) *CategoryUpdatedEvent {
	return &CategoryUpdatedEvent{
		BaseEvent:   events.NewBaseEvent(CategoryUpdatedType, AggregateType, category.ID()),
		Name:        category.Name(),
		Description: category.Description(),
		IsActive:    category.IsActive(),
	}
}

// CategoryDeletedEvent категория удалена
type CategoryDeletedEvent struct {
	*events.BaseEvent
}

// NewCategoryDeletedEvent создает событие category.deleted
func NewCategoryDeletedEvent(id string) *CategoryDeletedEvent {
	return &CategoryDeletedEvent{
		BaseEvent: events.NewBaseEvent(CategoryDeletedType, AggregateType, id),
	}
}
