package infrastructure

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/akriventsev/catalog/framework/adapters/repository"
	"github.com/akriventsev/catalog/framework/core"
	"github.com/akriventsev/catalog/internal/category/domain"
)

// CategoriesCollection коллекция по умолчанию
const CategoriesCollection = "categories"

// CategoryCollectionConfig описание коллекции категорий для поиска
func CategoryCollectionConfig() repository.MongoCollectionConfig {
	return repository.MongoCollectionConfig{
		EntityName:     domain.EntityName,
		CreatedAtField: domain.FieldCreatedAt,
		FilterFields:   []string{domain.FieldName},
		SortableFields: domain.SortableFields(),
		DefaultOrder:   repository.Asc,
	}
}

// CategoryDocumentMapper маппинг Category <-> BSON документ
type CategoryDocumentMapper struct {
	validator domain.Validator
}

// NewCategoryDocumentMapper создает mapper
func NewCategoryDocumentMapper(validator domain.Validator) CategoryDocumentMapper {
	if validator == nil {
		validator = domain.NewCategoryValidator()
	}
	return CategoryDocumentMapper{validator: validator}
}

func (CategoryDocumentMapper) ToDocument(category domain.Category) (bson.M, error) {
	doc := bson.M{
		"_id":                 category.ID(),
		domain.FieldName:      category.Name(),
		"description":         nil,
		"is_active":           category.IsActive(),
		domain.FieldCreatedAt: category.CreatedAt(),
	}
	if d := category.Description(); d != nil {
		doc["description"] = *d
	}
	return doc, nil
}

func (m CategoryDocumentMapper) FromDocument(doc bson.M) (domain.Category, error) {
	errs := core.FieldErrors{}

	id, ok := doc["_id"].(string)
	if !ok {
		errs.Add("id", "id must be a string")
	}
	name, ok := doc[domain.FieldName].(string)
	if !ok {
		errs.Add("name", "name must be a string")
	}

	var description *string
	switch v := doc["description"].(type) {
	case nil:
	case string:
		description = &v
	default:
		errs.Add("description", "description must be a string or null")
	}

	isActive, ok := doc["is_active"].(bool)
	if !ok {
		errs.Add("is_active", "is_active must be a boolean")
	}

	createdAt, ok := documentTime(doc[domain.FieldCreatedAt])
	if !ok {
		errs.Add("created_at", "created_at must be a date")
	}

	if len(errs) > 0 {
		return domain.Category{}, &core.LoadEntityError{Errors: errs}
	}

	return restore(id, domain.CategoryProps{
		Name:        name,
		Description: description,
		IsActive:    &isActive,
		CreatedAt:   &createdAt,
	}, m.validator)
}

func documentTime(v any) (time.Time, bool) {
	switch t := v.(type) {
	case primitive.DateTime:
		return t.Time().UTC(), true
	case time.Time:
		return t.UTC(), true
	}
	return time.Time{}, false
}

// NewCategoryMongoRepository создает MongoDB репозиторий категорий
func NewCategoryMongoRepository(collection *mongo.Collection) (*repository.MongoSearchableRepository[domain.Category], error) {
	return repository.NewMongoSearchableRepository[domain.Category](collection, CategoryCollectionConfig(), NewCategoryDocumentMapper(nil))
}

// EnsureCategoryIndexes создает индексы под сортировки поиска
func EnsureCategoryIndexes(ctx context.Context, collection *mongo.Collection) error {
	specs := repository.SearchIndexSpecs(CategoryCollectionConfig())
	if err := repository.NewMongoIndexManager(collection).EnsureIndexes(ctx, specs); err != nil {
		return fmt.Errorf("failed to ensure category indexes: %w", err)
	}
	return nil
}
