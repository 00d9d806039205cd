package infrastructure

import (
	"context"
	"database/sql"
	"fmt"

	"go.mongodb.org/mongo-driver/mongo"

	"github.com/akriventsev/catalog/framework/adapters/repository"
	"github.com/akriventsev/catalog/internal/category/domain"
)

// Имена backends фабрики
const (
	BackendInMemory = "inmemory"
	BackendPostgres = "postgres"
	BackendMongoDB  = "mongodb"
)

// Dependencies подключения к хранилищам. Заполняются только для выбранного backend.
type Dependencies struct {
	Postgres *sql.DB
	Mongo    *mongo.Database
	// Collection имя коллекции MongoDB (по умолчанию categories)
	Collection string
	// EnsureIndexes создавать индексы MongoDB при создании репозитория
	EnsureIndexes bool
}

// NewRepositoryFactory регистрирует inmemory, postgres и mongodb backends
func NewRepositoryFactory(deps Dependencies) (*repository.Factory[domain.Category], error) {
	factory := repository.NewFactory[domain.Category]()

	creators := map[string]repository.Creator[domain.Category]{
		BackendInMemory: func(ctx context.Context) (repository.SearchableRepository[domain.Category], error) {
			return NewCategoryInMemoryRepository(), nil
		},
		BackendPostgres: func(ctx context.Context) (repository.SearchableRepository[domain.Category], error) {
			if deps.Postgres == nil {
				return nil, fmt.Errorf("postgres connection is not configured")
			}
			repo, err := NewCategoryPostgresRepository(deps.Postgres)
			if err != nil {
				return nil, err
			}
			return repo, nil
		},
		BackendMongoDB: func(ctx context.Context) (repository.SearchableRepository[domain.Category], error) {
			if deps.Mongo == nil {
				return nil, fmt.Errorf("mongodb connection is not configured")
			}
			name := deps.Collection
			if name == "" {
				name = CategoriesCollection
			}
			collection := deps.Mongo.Collection(name)
			if deps.EnsureIndexes {
				if err := EnsureCategoryIndexes(ctx, collection); err != nil {
					return nil, err
				}
			}
			repo, err := NewCategoryMongoRepository(collection)
			if err != nil {
				return nil, err
			}
			return repo, nil
		},
	}

	for name, creator := range creators {
		if err := factory.Register(name, creator); err != nil {
			return nil, err
		}
	}
	return factory, nil
}
