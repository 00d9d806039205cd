package repository

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/akriventsev/catalog/framework/core"
)

// MongoConfig конфигурация подключения к MongoDB
type MongoConfig struct {
	URI         string
	Database    string
	Timeout     int // в секундах
	MaxPoolSize int
	MinPoolSize int
}

// Validate проверяет корректность конфигурации
func (c MongoConfig) Validate() error {
	if c.URI == "" {
		return fmt.Errorf("URI cannot be empty")
	}
	if c.Database == "" {
		return fmt.Errorf("database cannot be empty")
	}
	if c.MaxPoolSize <= 0 {
		return fmt.Errorf("MaxPoolSize must be greater than 0")
	}
	return nil
}

// DefaultMongoConfig возвращает конфигурацию MongoDB по умолчанию
func DefaultMongoConfig() MongoConfig {
	return MongoConfig{
		Database:    "catalog",
		Timeout:     10,
		MaxPoolSize: 100,
		MinPoolSize: 10,
	}
}

// ConnectMongo подключается к MongoDB и проверяет соединение
func ConnectMongo(ctx context.Context, config MongoConfig) (*mongo.Client, error) {
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid mongodb config: %w", err)
	}

	opts := options.Client().
		ApplyURI(config.URI).
		SetMaxPoolSize(uint64(config.MaxPoolSize)).
		SetMinPoolSize(uint64(config.MinPoolSize))
	if config.Timeout > 0 {
		opts.SetTimeout(time.Duration(config.Timeout) * time.Second)
	}

	client, err := mongo.Connect(ctx, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to MongoDB: %w", err)
	}

	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(ctx)
		return nil, fmt.Errorf("failed to ping MongoDB: %w", err)
	}

	return client, nil
}

// DocumentMapper преобразует entity в BSON документ и обратно.
// ToDocument должен положить ID в поле "_id".
type DocumentMapper[T Entity] interface {
	ToDocument(entity T) (bson.M, error)
	FromDocument(doc bson.M) (T, error)
}

// MongoCollectionConfig описывает коллекцию searchable репозитория
type MongoCollectionConfig struct {
	EntityName     string
	CreatedAtField string
	FilterFields   []string
	SortableFields []string
	DefaultOrder   SortDirection
}

// MongoSearchableRepository[T Entity] generic MongoDB репозиторий с поиском
type MongoSearchableRepository[T Entity] struct {
	config     MongoCollectionConfig
	collection *mongo.Collection
	mapper     DocumentMapper[T]
}

// NewMongoSearchableRepository создает новый MongoDB репозиторий
func NewMongoSearchableRepository[T Entity](collection *mongo.Collection, config MongoCollectionConfig, mapper DocumentMapper[T]) (*MongoSearchableRepository[T], error) {
	if collection == nil {
		return nil, fmt.Errorf("collection cannot be nil")
	}
	if mapper == nil {
		return nil, fmt.Errorf("mapper cannot be nil")
	}
	return &MongoSearchableRepository[T]{
		config:     normalizeMongoCollectionConfig(config),
		collection: collection,
		mapper:     mapper,
	}, nil
}

func normalizeMongoCollectionConfig(config MongoCollectionConfig) MongoCollectionConfig {
	if config.EntityName == "" {
		config.EntityName = "Entity"
	}
	if config.CreatedAtField == "" {
		config.CreatedAtField = "created_at"
	}
	if config.DefaultOrder != Desc {
		config.DefaultOrder = Asc
	}
	return config
}

// Name возвращает имя компонента (реализация core.Component)
func (m *MongoSearchableRepository[T]) Name() string {
	return "mongodb-repository"
}

// HealthCheck проверяет соединение (реализация core.HealthCheckable)
func (m *MongoSearchableRepository[T]) HealthCheck(ctx context.Context) error {
	return m.collection.Database().Client().Ping(ctx, nil)
}

// SortableFields возвращает поля, по которым разрешена сортировка
func (m *MongoSearchableRepository[T]) SortableFields() []string {
	return slices.Clone(m.config.SortableFields)
}

// Insert сохраняет новую entity
func (m *MongoSearchableRepository[T]) Insert(ctx context.Context, entity T) error {
	doc, err := m.mapper.ToDocument(entity)
	if err != nil {
		return fmt.Errorf("failed to convert entity to document: %w", err)
	}

	if _, err := m.collection.InsertOne(ctx, doc); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return m.existsError(entity.ID())
		}
		return fmt.Errorf("failed to insert entity: %w", err)
	}
	return nil
}

// BulkInsert сохраняет несколько entities одним InsertMany
func (m *MongoSearchableRepository[T]) BulkInsert(ctx context.Context, entities []T) error {
	if len(entities) == 0 {
		return nil
	}

	docs := make([]any, len(entities))
	for i, entity := range entities {
		doc, err := m.mapper.ToDocument(entity)
		if err != nil {
			return fmt.Errorf("failed to convert entity to document: %w", err)
		}
		docs[i] = doc
	}

	if _, err := m.collection.InsertMany(ctx, docs); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return core.Wrap(core.ErrEntityExists, core.ErrAlreadyExists,
				fmt.Sprintf("%s bulk insert contains existing IDs", m.config.EntityName))
		}
		return fmt.Errorf("failed to insert entities: %w", err)
	}
	return nil
}

// FindByID находит entity по ID
func (m *MongoSearchableRepository[T]) FindByID(ctx context.Context, id string) (T, error) {
	var zero T

	var doc bson.M
	if err := m.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return zero, core.NewNotFoundError(m.config.EntityName, id)
		}
		return zero, fmt.Errorf("failed to find entity: %w", err)
	}

	return m.mapper.FromDocument(doc)
}

// FindAll возвращает все entities в порядке CreatedAt
func (m *MongoSearchableRepository[T]) FindAll(ctx context.Context) ([]T, error) {
	opts := NewMongoQueryBuilder().OrderBy(m.config.CreatedAtField, Asc).FindOptions()
	return m.find(ctx, bson.M{}, opts)
}

// Update заменяет существующую entity
func (m *MongoSearchableRepository[T]) Update(ctx context.Context, entity T) error {
	doc, err := m.mapper.ToDocument(entity)
	if err != nil {
		return fmt.Errorf("failed to convert entity to document: %w", err)
	}

	result, err := m.collection.ReplaceOne(ctx, bson.M{"_id": entity.ID()}, doc)
	if err != nil {
		return fmt.Errorf("failed to update entity: %w", err)
	}
	if result.MatchedCount == 0 {
		return core.NewNotFoundError(m.config.EntityName, entity.ID())
	}
	return nil
}

// Delete удаляет entity
func (m *MongoSearchableRepository[T]) Delete(ctx context.Context, id string) error {
	result, err := m.collection.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return fmt.Errorf("failed to delete entity: %w", err)
	}
	if result.DeletedCount == 0 {
		return core.NewNotFoundError(m.config.EntityName, id)
	}
	return nil
}

// Search выполняет поиск: $regex фильтр, сортировка, skip/limit и CountDocuments
func (m *MongoSearchableRepository[T]) Search(ctx context.Context, params SearchParams) (SearchResult[T], error) {
	filter := BuildMongoFilter(m.config, params)

	items, err := m.find(ctx, filter, BuildMongoFindOptions(m.config, params))
	if err != nil {
		return SearchResult[T]{}, err
	}

	total, err := m.collection.CountDocuments(ctx, filter)
	if err != nil {
		return SearchResult[T]{}, fmt.Errorf("failed to count: %w", err)
	}

	return NewSearchResultFromParams(items, int(total), params), nil
}

// BuildMongoFilter строит фильтр поиска для params
func BuildMongoFilter(config MongoCollectionConfig, params SearchParams) bson.M {
	builder := NewMongoQueryBuilder()
	if params.Filter().IsSome() {
		builder.WhereContains(config.FilterFields, params.Filter().Value())
	}
	return builder.Filter()
}

// BuildMongoFindOptions строит сортировку и пагинацию для params
func BuildMongoFindOptions(config MongoCollectionConfig, params SearchParams) *options.FindOptions {
	config = normalizeMongoCollectionConfig(config)
	builder := NewMongoQueryBuilder()

	if params.Sort().IsSome() && isSortable(config.SortableFields, params.Sort().Value()) {
		sort := params.Sort().Value()
		builder.OrderBy(sort, params.SortDir().ValueOr(Asc))
		if sort != config.CreatedAtField {
			builder.OrderBy(config.CreatedAtField, Asc)
		}
	} else {
		builder.OrderBy(config.CreatedAtField, config.DefaultOrder)
	}

	return builder.Page(params.Page(), params.PerPage()).FindOptions()
}

func (m *MongoSearchableRepository[T]) find(ctx context.Context, filter bson.M, opts *options.FindOptions) ([]T, error) {
	cursor, err := m.collection.Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to execute query: %w", err)
	}
	defer func() {
		_ = cursor.Close(ctx)
	}()

	entities := make([]T, 0)
	for cursor.Next(ctx) {
		var doc bson.M
		if err := cursor.Decode(&doc); err != nil {
			return nil, fmt.Errorf("failed to decode document: %w", err)
		}
		entity, err := m.mapper.FromDocument(doc)
		if err != nil {
			return nil, err
		}
		entities = append(entities, entity)
	}
	if err := cursor.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate cursor: %w", err)
	}
	return entities, nil
}

func (m *MongoSearchableRepository[T]) existsError(id string) error {
	return core.Wrap(core.ErrEntityExists, core.ErrAlreadyExists,
		fmt.Sprintf("%s with ID %s already exists", m.config.EntityName, id))
}
