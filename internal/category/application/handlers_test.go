package application

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/akriventsev/catalog/framework/adapters/repository"
	"github.com/akriventsev/catalog/framework/core"
	"github.com/akriventsev/catalog/framework/events"
	"github.com/akriventsev/catalog/framework/transport"
	"github.com/akriventsev/catalog/internal/category/domain"
)

func ptr[T any](v T) *T { return &v }

func newRepo() *repository.InMemorySearchableRepository[domain.Category] {
	return repository.NewInMemorySearchableRepository(repository.InMemorySearchConfig[domain.Category]{
		InMemoryConfig: repository.InMemoryConfig{EntityName: domain.EntityName},
		SortableFields: domain.SortableFields(),
		Filter:         domain.FilterByName,
		Field:          domain.Field,
	})
}

func newHandlers(t *testing.T) (*Handlers, *repository.InMemorySearchableRepository[domain.Category], *events.RecordingPublisher) {
	t.Helper()
	repo := newRepo()
	publisher := &events.RecordingPublisher{}
	logger, _ := test.NewNullLogger()
	return NewHandlers(repo, domain.NewCategoryValidator(), publisher, logger), repo, publisher
}

func seed(t *testing.T, repo domain.CategoryRepository, names ...string) []domain.Category {
	t.Helper()
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	categories := make([]domain.Category, 0, len(names))
	for i, name := range names {
		createdAt := base.Add(time.Duration(i) * time.Second)
		category, err := domain.NewCategory(domain.CategoryProps{Name: name, CreatedAt: &createdAt}, domain.NewCategoryValidator())
		require.NoError(t, err)
		categories = append(categories, category)
	}
	require.NoError(t, repo.BulkInsert(context.Background(), categories))
	return categories
}

func TestHandlers_Create(t *testing.T) {
	h, repo, publisher := newHandlers(t)
	ctx := context.Background()

	output, err := h.Create(ctx, CreateCategory{Name: "Movie", Description: ptr("some"), IsActive: ptr(false)})
	require.NoError(t, err)

	assert.Equal(t, "Movie", output.Name)
	assert.Equal(t, "some", *output.Description)
	assert.False(t, output.IsActive)

	stored, err := repo.FindByID(ctx, output.ID)
	require.NoError(t, err)
	assert.Equal(t, output, ToCategoryOutput(stored))
	assert.Equal(t, []string{domain.CategoryCreatedType}, publisher.Types())
}

func TestHandlers_CreateDefaults(t *testing.T) {
	h, _, _ := newHandlers(t)

	output, err := h.Create(context.Background(), CreateCategory{Name: "Movie"})
	require.NoError(t, err)

	assert.Nil(t, output.Description)
	assert.True(t, output.IsActive)
	assert.False(t, output.CreatedAt.IsZero())
}

func TestHandlers_CreateInvalid(t *testing.T) {
	h, repo, publisher := newHandlers(t)

	_, err := h.Create(context.Background(), CreateCategory{Name: ""})

	var validationErr *core.EntityValidationError
	require.ErrorAs(t, err, &validationErr)
	assert.Equal(t, []string{"name should not be empty"}, validationErr.Errors["name"])

	all, _ := repo.FindAll(context.Background())
	assert.Empty(t, all)
	assert.Empty(t, publisher.Events)
}

func TestHandlers_Get(t *testing.T) {
	h, repo, _ := newHandlers(t)
	categories := seed(t, repo, "Movie")

	output, err := h.Get(context.Background(), GetCategory{ID: categories[0].ID()})
	require.NoError(t, err)
	assert.Equal(t, ToCategoryOutput(categories[0]), output)
}

func TestHandlers_NotFound(t *testing.T) {
	h, _, publisher := newHandlers(t)
	ctx := context.Background()
	missing := uuid.NewString()

	for _, id := range []string{missing, "fake id"} {
		_, err := h.Get(ctx, GetCategory{ID: id})
		var notFound *core.NotFoundError
		require.ErrorAs(t, err, &notFound)
		assert.Equal(t, id, notFound.ID)
		assert.Equal(t, domain.EntityName, notFound.EntityName)

		_, err = h.Update(ctx, UpdateCategory{ID: id, Name: "x"})
		assert.ErrorIs(t, err, core.ErrEntityNotFound)

		err = h.Delete(ctx, DeleteCategory{ID: id})
		require.ErrorAs(t, err, &notFound)
		assert.Equal(t, id, notFound.ID)
	}

	assert.Empty(t, publisher.Events)
}

func TestHandlers_List(t *testing.T) {
	h, repo, _ := newHandlers(t)
	seed(t, repo, "a", "AaA", "AAA", "b", "c")
	ctx := context.Background()

	page1, err := h.List(ctx, ListCategories{Filter: "a", Sort: "name", SortDir: "asc", PerPage: "2"})
	require.NoError(t, err)
	assert.Equal(t, []string{"AAA", "AaA"}, names(page1.Items))
	assert.Equal(t, 3, page1.Total)
	assert.Equal(t, 1, page1.CurrentPage)
	assert.Equal(t, 2, page1.LastPage)
	assert.Equal(t, 2, page1.PerPage)

	page2, err := h.List(ctx, ListCategories{Filter: "a", Sort: "name", PerPage: "2", Page: "2"})
	require.NoError(t, err)
	assert.Equal(t, []string{"a"}, names(page2.Items))
}

func TestHandlers_ListDefaults(t *testing.T) {
	h, repo, _ := newHandlers(t)
	seed(t, repo, "c", "b", "a")

	output, err := h.List(context.Background(), ListCategories{Page: "abc", PerPage: "-1", Sort: "description", SortDir: "desc"})
	require.NoError(t, err)

	// сортировка по недоступному полю: по created_at ASC
	assert.Equal(t, []string{"c", "b", "a"}, names(output.Items))
	assert.Equal(t, 1, output.CurrentPage)
	assert.Equal(t, repository.DefaultPerPage, output.PerPage)
	assert.Equal(t, 1, output.LastPage)
}

func TestHandlers_ListEmpty(t *testing.T) {
	h, _, _ := newHandlers(t)

	output, err := h.List(context.Background(), ListCategories{})
	require.NoError(t, err)

	assert.NotNil(t, output.Items)
	assert.Empty(t, output.Items)
	assert.Equal(t, 1, output.LastPage)
}

func TestHandlers_Update(t *testing.T) {
	h, repo, publisher := newHandlers(t)
	categories := seed(t, repo, "Movie")
	ctx := context.Background()
	id := categories[0].ID()

	output, err := h.Update(ctx, UpdateCategory{ID: id, Name: "Documentary", Description: ptr("d")})
	require.NoError(t, err)
	assert.Equal(t, "Documentary", output.Name)
	assert.True(t, output.IsActive)

	output, err = h.Update(ctx, UpdateCategory{ID: id, Name: "Documentary", IsActive: ptr(false)})
	require.NoError(t, err)
	assert.False(t, output.IsActive)
	assert.Nil(t, output.Description)

	output, err = h.Update(ctx, UpdateCategory{ID: id, Name: "Documentary", IsActive: ptr(true)})
	require.NoError(t, err)
	assert.True(t, output.IsActive)

	stored, err := repo.FindByID(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, output, ToCategoryOutput(stored))
	assert.Equal(t, []string{domain.CategoryUpdatedType, domain.CategoryUpdatedType, domain.CategoryUpdatedType}, publisher.Types())

	_, err = h.Update(ctx, UpdateCategory{ID: id, Name: ""})
	assert.ErrorIs(t, err, core.ErrValidation)
}

func TestHandlers_Delete(t *testing.T) {
	h, repo, publisher := newHandlers(t)
	categories := seed(t, repo, "Movie")
	ctx := context.Background()

	require.NoError(t, h.Delete(ctx, DeleteCategory{ID: categories[0].ID()}))

	_, err := repo.FindByID(ctx, categories[0].ID())
	assert.ErrorIs(t, err, core.ErrEntityNotFound)
	assert.Equal(t, []string{domain.CategoryDeletedType}, publisher.Types())
}

func TestHandlers_PublishFailureIsLogged(t *testing.T) {
	repo := newRepo()
	publisher := &events.RecordingPublisher{Err: errors.New("broker down")}
	logger, hook := test.NewNullLogger()
	h := NewHandlers(repo, domain.NewCategoryValidator(), publisher, logger)

	output, err := h.Create(context.Background(), CreateCategory{Name: "Movie"})
	require.NoError(t, err)

	_, err = repo.FindByID(context.Background(), output.ID)
	assert.NoError(t, err)

	require.NotNil(t, hook.LastEntry())
	assert.Equal(t, logrus.WarnLevel, hook.LastEntry().Level)
	assert.Equal(t, domain.CategoryCreatedType, hook.LastEntry().Data["event_type"])
}

func TestHandlers_CorrelationID(t *testing.T) {
	h, _, publisher := newHandlers(t)
	ctx := events.WithCorrelationID(context.Background(), "corr-1")

	_, err := h.Create(ctx, CreateCategory{Name: "Movie"})
	require.NoError(t, err)

	require.Len(t, publisher.Events, 1)
	assert.Equal(t, "corr-1", publisher.Events[0].Metadata().CorrelationID())
}

func TestHandlers_RegisterOnBuses(t *testing.T) {
	h, _, _ := newHandlers(t)
	commandBus := transport.NewInMemoryCommandBus()
	queryBus := transport.NewInMemoryQueryBus()
	ctx := context.Background()

	require.NoError(t, h.Register(commandBus, queryBus))
	assert.Error(t, h.Register(commandBus, queryBus))

	created, err := commandBus.Send(ctx, CreateCategory{Name: "Movie"})
	require.NoError(t, err)
	output, ok := created.(CategoryOutput)
	require.True(t, ok)

	found, err := queryBus.Ask(ctx, GetCategory{ID: output.ID})
	require.NoError(t, err)
	assert.Equal(t, output, found)

	list, err := queryBus.Ask(ctx, ListCategories{})
	require.NoError(t, err)
	assert.Equal(t, 1, list.(PaginationOutput[CategoryOutput]).Total)

	deleted, err := commandBus.Send(ctx, DeleteCategory{ID: output.ID})
	require.NoError(t, err)
	assert.Nil(t, deleted)
}

func TestHandlers_CacheInvalidatedByCommands(t *testing.T) {
	h, _, _ := newHandlers(t)
	cache := transport.NewGenerationCache(&mapCache{data: map[string]any{}})
	commandBus := transport.NewInMemoryCommandBus().WithMiddleware(transport.CacheInvalidationInterceptor(cache))
	queryBus := transport.NewInMemoryQueryBus().WithCache(cache)
	require.NoError(t, h.Register(commandBus, queryBus))
	ctx := context.Background()

	first, err := queryBus.Ask(ctx, ListCategories{})
	require.NoError(t, err)
	assert.Equal(t, 0, first.(PaginationOutput[CategoryOutput]).Total)

	_, err = commandBus.Send(ctx, CreateCategory{Name: "Movie"})
	require.NoError(t, err)

	second, err := queryBus.Ask(ctx, ListCategories{})
	require.NoError(t, err)
	assert.Equal(t, 1, second.(PaginationOutput[CategoryOutput]).Total)
}

type mapCache struct {
	data map[string]any
}

func (m *mapCache) Get(ctx context.Context, q transport.Query) (any, bool) {
	key, _ := transport.CacheKey(q)
	value, ok := m.data[key]
	return value, ok
}

func (m *mapCache) Set(ctx context.Context, q transport.Query, result any) error {
	key, err := transport.CacheKey(q)
	if err != nil {
		return err
	}
	m.data[key] = result
	return nil
}

func (m *mapCache) Invalidate(ctx context.Context, q transport.Query) error {
	key, _ := transport.CacheKey(q)
	delete(m.data, key)
	return nil
}

func (m *mapCache) Clear(ctx context.Context) error {
	m.data = map[string]any{}
	return nil
}

func names(items []CategoryOutput) []string {
	result := make([]string, 0, len(items))
	for _, item := range items {
		result = append(result, item.Name)
	}
	return result
}
