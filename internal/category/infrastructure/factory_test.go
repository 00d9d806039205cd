package infrastructure

import (
	"context"
	"io/fs"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewRepositoryFactory_Names(t *testing.T) {
	factory, err := NewRepositoryFactory(Dependencies{})
	require.NoError(t, err)

	assert.Equal(t, []string{BackendInMemory, BackendMongoDB, BackendPostgres}, factory.Names())
}

func TestNewRepositoryFactory_InMemory(t *testing.T) {
	factory, err := NewRepositoryFactory(Dependencies{})
	require.NoError(t, err)

	repo, err := factory.Create(context.Background(), BackendInMemory)
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"name", "created_at"}, repo.SortableFields())
}

func TestNewRepositoryFactory_MissingConnections(t *testing.T) {
	factory, err := NewRepositoryFactory(Dependencies{})
	require.NoError(t, err)

	_, err = factory.Create(context.Background(), BackendPostgres)
	assert.Error(t, err)

	_, err = factory.Create(context.Background(), BackendMongoDB)
	assert.Error(t, err)

	_, err = factory.Create(context.Background(), "sqlite")
	assert.Error(t, err)
}

func TestNewRepositoryFactory_Postgres(t *testing.T) {
	db, _, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	factory, err := NewRepositoryFactory(Dependencies{Postgres: db})
	require.NoError(t, err)

	repo, err := factory.Create(context.Background(), BackendPostgres)
	require.NoError(t, err)
	assert.NotNil(t, repo)
}

func TestMigrations(t *testing.T) {
	files, err := fs.Glob(Migrations(), "*.sql")
	require.NoError(t, err)
	assert.Equal(t, []string{
		"00001_create_categories.sql",
		"00002_add_categories_search_indexes.sql",
	}, files)

	data, err := fs.ReadFile(Migrations(), "00001_create_categories.sql")
	require.NoError(t, err)
	assert.Contains(t, string(data), "-- +goose Up")
	assert.Contains(t, string(data), "CREATE TABLE IF NOT EXISTS categories")
}
