package infrastructure

import (
	"context"
	"database/sql/driver"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/akriventsev/catalog/framework/adapters/repository"
	"github.com/akriventsev/catalog/framework/core"
	"github.com/akriventsev/catalog/internal/category/domain"
)

const categorySelect = "SELECT id, name, description, is_active, created_at FROM categories"

var baseTime = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

func ptr[T any](v T) *T { return &v }

func newPostgresRepository(t *testing.T) (*repository.PostgresSearchableRepository[domain.Category], sqlmock.Sqlmock) {
	t.Helper()

	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	repo, err := NewCategoryPostgresRepository(db)
	require.NoError(t, err)
	return repo, mock
}

func categoryRows() *sqlmock.Rows {
	return sqlmock.NewRows([]string{"id", "name", "description", "is_active", "created_at"})
}

func TestCategoryPostgresRepository_Insert(t *testing.T) {
	repo, mock := newPostgresRepository(t)

	category, err := domain.NewCategory(domain.CategoryProps{Name: "Movie", CreatedAt: &baseTime}, domain.NewCategoryValidator())
	require.NoError(t, err)

	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO categories (id, name, description, is_active, created_at) VALUES ($1, $2, $3, $4, $5)")).
		WithArgs(category.ID(), "Movie", nil, true, baseTime).
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, repo.Insert(context.Background(), category))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCategoryPostgresRepository_FindByID(t *testing.T) {
	repo, mock := newPostgresRepository(t)
	id := uuid.NewString()

	mock.ExpectQuery(regexp.QuoteMeta(categorySelect + " WHERE id = $1")).
		WithArgs(id).
		WillReturnRows(categoryRows().AddRow(id, "Movie", "desc", false, baseTime))

	category, err := repo.FindByID(context.Background(), id)
	require.NoError(t, err)

	assert.Equal(t, id, category.ID())
	assert.Equal(t, "desc", *category.Description())
	assert.False(t, category.IsActive())
	assert.True(t, baseTime.Equal(category.CreatedAt()))
}

func TestCategoryPostgresRepository_FindByID_NullDescription(t *testing.T) {
	repo, mock := newPostgresRepository(t)
	id := uuid.NewString()

	mock.ExpectQuery(regexp.QuoteMeta(categorySelect)).
		WillReturnRows(categoryRows().AddRow(id, "Movie", nil, true, baseTime))

	category, err := repo.FindByID(context.Background(), id)
	require.NoError(t, err)
	assert.Nil(t, category.Description())
}

func TestCategoryPostgresRepository_FindByID_InvalidRow(t *testing.T) {
	repo, mock := newPostgresRepository(t)
	id := uuid.NewString()

	mock.ExpectQuery(regexp.QuoteMeta(categorySelect)).
		WillReturnRows(categoryRows().AddRow(id, "", nil, true, baseTime))

	_, err := repo.FindByID(context.Background(), id)

	var loadErr *core.LoadEntityError
	require.ErrorAs(t, err, &loadErr)
	assert.Contains(t, loadErr.Errors, "name")
	assert.Equal(t, core.ErrLoadEntityFailed, core.CodeOf(err))
}

func TestCategoryPostgresRepository_FindByID_NotFound(t *testing.T) {
	repo, mock := newPostgresRepository(t)
	id := uuid.NewString()

	mock.ExpectQuery(regexp.QuoteMeta(categorySelect)).
		WillReturnRows(categoryRows())

	_, err := repo.FindByID(context.Background(), id)

	var notFound *core.NotFoundError
	require.ErrorAs(t, err, &notFound)
	assert.Equal(t, id, notFound.ID)
	assert.Equal(t, domain.EntityName, notFound.EntityName)
}

func TestCategoryPostgresRepository_SearchQuery(t *testing.T) {
	repo, _ := newPostgresRepository(t)

	tests := []struct {
		name      string
		props     repository.SearchProps
		wantQuery string
	}{
		{
			name:      "defaults",
			props:     repository.SearchProps{},
			wantQuery: categorySelect + " ORDER BY created_at ASC LIMIT 15 OFFSET 0",
		},
		{
			name:      "filter and sort by name",
			props:     repository.SearchProps{Page: 2, PerPage: 2, Sort: "name", Filter: "a"},
			wantQuery: categorySelect + ` WHERE name ILIKE $1 ORDER BY name COLLATE "C" ASC, created_at ASC LIMIT 2 OFFSET 2`,
		},
		{
			name:      "description is not sortable",
			props:     repository.SearchProps{Sort: "description", SortDir: "desc"},
			wantQuery: categorySelect + " ORDER BY created_at ASC LIMIT 15 OFFSET 0",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			query, _ := repo.SearchQuery(repository.NewSearchParams(tt.props)).Build()
			assert.Equal(t, tt.wantQuery, query)
		})
	}
}

func TestCategoryPostgresRepository_Search(t *testing.T) {
	repo, mock := newPostgresRepository(t)

	mock.ExpectQuery(regexp.QuoteMeta(categorySelect + ` WHERE name ILIKE $1 ORDER BY name COLLATE "C" ASC, created_at ASC LIMIT 2 OFFSET 0`)).
		WithArgs("%a%").
		WillReturnRows(categoryRows().
			AddRow(uuid.NewString(), "AAA", nil, true, baseTime.Add(4*time.Second)).
			AddRow(uuid.NewString(), "AaA", nil, true, baseTime.Add(3*time.Second)))
	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*) FROM categories WHERE name ILIKE $1")).
		WithArgs("%a%").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(3))

	result, err := repo.Search(context.Background(), repository.NewSearchParams(repository.SearchProps{
		Page: 1, PerPage: 2, Sort: "name", Filter: "a",
	}))
	require.NoError(t, err)

	assert.Equal(t, []string{"AAA", "AaA"}, categoryNames(result.Items()))
	assert.Equal(t, 3, result.Total())
	assert.Equal(t, 2, result.LastPage())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCategoryRowMapper_ToRow(t *testing.T) {
	category, err := domain.NewCategory(domain.CategoryProps{
		Name:        "Movie",
		Description: ptr("desc"),
		IsActive:    ptr(false),
		CreatedAt:   &baseTime,
	}, domain.NewCategoryValidator())
	require.NoError(t, err)

	row, err := NewCategoryRowMapper(nil).ToRow(category)
	require.NoError(t, err)
	require.Len(t, row, len(NewCategoryRowMapper(nil).Columns()))

	description, ok := row[2].(driver.Valuer)
	require.True(t, ok)
	value, err := description.Value()
	require.NoError(t, err)
	assert.Equal(t, "desc", value)
	assert.Equal(t, false, row[3])
}

func categoryNames(categories []domain.Category) []string {
	names := make([]string, len(categories))
	for i, c := range categories {
		names[i] = c.Name()
	}
	return names
}
