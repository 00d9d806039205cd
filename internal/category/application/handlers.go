package application

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/akriventsev/catalog/framework/core"
	"github.com/akriventsev/catalog/framework/events"
	"github.com/akriventsev/catalog/framework/transport"
	"github.com/akriventsev/catalog/internal/category/domain"
)

// Handlers use case'ы категорий поверх CategoryRepository
type Handlers struct {
	repo      domain.CategoryRepository
	validator domain.Validator
	publisher events.EventPublisher
	logger    logrus.FieldLogger
}

// NewHandlers создает обработчики. nil publisher = события не публикуются.
func NewHandlers(repo domain.CategoryRepository, validator domain.Validator, publisher events.EventPublisher, logger logrus.FieldLogger) *Handlers {
	if publisher == nil {
		publisher = events.NoopPublisher{}
	}
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &Handlers{
		repo:      repo,
		validator: validator,
		publisher: publisher,
		logger:    logger.WithField("component", "category"),
	}
}

// Register регистрирует все команды и запросы категорий на шинах
func (h *Handlers) Register(commandBus transport.CommandBus, queryBus transport.QueryBus) error {
	commandHandlers := []transport.CommandHandler{
		transport.NewCommandHandler(func(ctx context.Context, cmd CreateCategory) (any, error) {
			return h.Create(ctx, cmd)
		}),
		transport.NewCommandHandler(func(ctx context.Context, cmd UpdateCategory) (any, error) {
			return h.Update(ctx, cmd)
		}),
		transport.NewCommandHandler(func(ctx context.Context, cmd DeleteCategory) (any, error) {
			return nil, h.Delete(ctx, cmd)
		}),
	}
	for _, handler := range commandHandlers {
		if err := commandBus.Register(handler); err != nil {
			return fmt.Errorf("failed to register %s: %w", handler.CommandName(), err)
		}
	}

	queryHandlers := []transport.QueryHandler{
		transport.NewQueryHandler(func(ctx context.Context, q GetCategory) (any, error) {
			return h.Get(ctx, q)
		}),
		transport.NewQueryHandler(func(ctx context.Context, q ListCategories) (any, error) {
			return h.List(ctx, q)
		}),
	}
	for _, handler := range queryHandlers {
		if err := queryBus.Register(handler); err != nil {
			return fmt.Errorf("failed to register %s: %w", handler.QueryName(), err)
		}
	}
	return nil
}

// Create создает категорию
func (h *Handlers) Create(ctx context.Context, cmd CreateCategory) (CategoryOutput, error) {
	category, err := domain.NewCategory(domain.CategoryProps{
		Name:        cmd.Name,
		Description: cmd.Description,
		IsActive:    cmd.IsActive,
	}, h.validator)
	if err != nil {
		return CategoryOutput{}, err
	}

	if err := h.repo.Insert(ctx, category); err != nil {
		return CategoryOutput{}, fmt.Errorf("failed to insert category: %w", err)
	}

	h.publish(ctx, domain.NewCategoryCreatedEvent(category))
	return ToCategoryOutput(category), nil
}

// Get возвращает категорию по ID
func (h *Handlers) Get(ctx context.Context, q GetCategory) (CategoryOutput, error) {
	category, err := h.find(ctx, q.ID)
	if err != nil {
		return CategoryOutput{}, err
	}
	return ToCategoryOutput(category), nil
}

// List выполняет поиск категорий
func (h *Handlers) List(ctx context.Context, q ListCategories) (PaginationOutput[CategoryOutput], error) {
	result, err := h.repo.Search(ctx, q.SearchParams())
	if err != nil {
		return PaginationOutput[CategoryOutput]{}, fmt.Errorf("failed to search categories: %w", err)
	}
	return ToPaginationOutput(result, ToCategoryOutput), nil
}

// Update меняет категорию
func (h *Handlers) Update(ctx context.Context, cmd UpdateCategory) (CategoryOutput, error) {
	category, err := h.find(ctx, cmd.ID)
	if err != nil {
		return CategoryOutput{}, err
	}

	category, err = category.Update(cmd.Name, cmd.Description, h.validator)
	if err != nil {
		return CategoryOutput{}, err
	}

	if cmd.IsActive != nil {
		if *cmd.IsActive {
			category = category.Activate()
		} else {
			category = category.Deactivate()
		}
	}

	if err := h.repo.Update(ctx, category); err != nil {
		return CategoryOutput{}, fmt.Errorf("failed to update category: %w", err)
	}

	h.publish(ctx, domain.NewCategoryUpdatedEvent(category))
	return ToCategoryOutput(category), nil
}

// Delete удаляет категорию
func (h *Handlers) Delete(ctx context.Context, cmd DeleteCategory) error {
	if err := uuid.Validate(cmd.ID); err != nil {
		return core.NewNotFoundError(domain.EntityName, cmd.ID)
	}

	if err := h.repo.Delete(ctx, cmd.ID); err != nil {
		return fmt.Errorf("failed to delete category: %w", err)
	}

	h.publish(ctx, domain.NewCategoryDeletedEvent(cmd.ID))
	return nil
}

// find загружает категорию; некорректный UUID трактуется как отсутствующая запись
func (h *Handlers) find(ctx context.Context, id string) (domain.Category, error) {
	if err := uuid.Validate(id); err != nil {
		return domain.Category{}, core.NewNotFoundError(domain.EntityName, id)
	}

	category, err := h.repo.FindByID(ctx, id)
	if err != nil {
		return domain.Category{}, fmt.Errorf("failed to find category: %w", err)
	}
	return category, nil
}

// publish публикует событие после записи. Ошибка публикации не отменяет
// уже выполненную запись и только логируется.
func (h *Handlers) publish(ctx context.Context, event interface {
	events.Event
	WithCorrelationID(id string) *events.BaseEvent
}) {
	if correlationID := events.CorrelationIDFromContext(ctx); correlationID != "" {
		event.WithCorrelationID(correlationID)
	}

	if err := h.publisher.Publish(ctx, event); err != nil {
		h.logger.WithError(err).WithFields(logrus.Fields{
			"event_type":   event.EventType(),
			"aggregate_id": event.AggregateID(),
		}).Warn("failed to publish category event")
	}
}
