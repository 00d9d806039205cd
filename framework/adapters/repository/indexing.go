package repository

import (
	"context"
	"fmt"
	"strings"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// IndexSpec спецификация индекса
type IndexSpec struct {
	Name   string
	Fields []string
	// Directions направление по каждому полю (1 или -1); пусто = все 1
	Directions []int
	Unique     bool
}

// Keys возвращает ключи индекса в порядке Fields
func (s IndexSpec) Keys() bson.D {
	keys := make(bson.D, 0, len(s.Fields))
	for i, field := range s.Fields {
		dir := 1
		if i < len(s.Directions) && s.Directions[i] == -1 {
			dir = -1
		}
		keys = append(keys, bson.E{Key: field, Value: dir})
	}
	return keys
}

// IndexName имя индекса; по умолчанию idx_<fields>
func (s IndexSpec) IndexName() string {
	if s.Name != "" {
		return s.Name
	}
	return "idx_" + strings.Join(s.Fields, "_")
}

// SearchIndexSpecs индексы, покрывающие ORDER BY поиска: по created_at
// и по каждому sortable полю с tie-break по created_at
func SearchIndexSpecs(config MongoCollectionConfig) []IndexSpec {
	config = normalizeMongoCollectionConfig(config)

	specs := []IndexSpec{{Fields: []string{config.CreatedAtField}}}
	for _, field := range config.SortableFields {
		if field == config.CreatedAtField {
			continue
		}
		specs = append(specs, IndexSpec{Fields: []string{field, config.CreatedAtField}})
	}
	return specs
}

// MongoIndexManager управляет индексами коллекции
type MongoIndexManager struct {
	collection *mongo.Collection
}

// NewMongoIndexManager создает новый MongoIndexManager
func NewMongoIndexManager(collection *mongo.Collection) *MongoIndexManager {
	return &MongoIndexManager{collection: collection}
}

// CreateIndex создает индекс (повторное создание с теми же ключами не ошибка)
func (m *MongoIndexManager) CreateIndex(ctx context.Context, spec IndexSpec) error {
	if len(spec.Fields) == 0 {
		return fmt.Errorf("index must have at least one field")
	}

	indexModel := mongo.IndexModel{
		Keys: spec.Keys(),
		Options: options.Index().
			SetName(spec.IndexName()).
			SetUnique(spec.Unique),
	}

	if _, err := m.collection.Indexes().CreateOne(ctx, indexModel); err != nil {
		return fmt.Errorf("failed to create index %s: %w", spec.IndexName(), err)
	}
	return nil
}

// EnsureIndexes создает все индексы из списка
func (m *MongoIndexManager) EnsureIndexes(ctx context.Context, specs []IndexSpec) error {
	for _, spec := range specs {
		if err := m.CreateIndex(ctx, spec); err != nil {
			return err
		}
	}
	return nil
}
