package infrastructure

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo/integration/mtest"

	"github.com/akriventsev/catalog/framework/adapters/repository"
	"github.com/akriventsev/catalog/framework/core"
	"github.com/akriventsev/catalog/internal/category/domain"
)

func TestCategoryDocumentMapper_RoundTrip(t *testing.T) {
	mapper := NewCategoryDocumentMapper(nil)
	category, err := domain.NewCategory(domain.CategoryProps{
		Name:        "Movie",
		Description: ptr("desc"),
		CreatedAt:   &baseTime,
	}, domain.NewCategoryValidator())
	require.NoError(t, err)

	doc, err := mapper.ToDocument(category)
	require.NoError(t, err)
	assert.Equal(t, category.ID(), doc["_id"])
	assert.Equal(t, "desc", doc["description"])

	restored, err := mapper.FromDocument(doc)
	require.NoError(t, err)
	assert.True(t, category.Equal(restored))
}

func TestCategoryDocumentMapper_FromDecodedDocument(t *testing.T) {
	id := uuid.NewString()
	createdAt := time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)

	category, err := NewCategoryDocumentMapper(nil).FromDocument(bson.M{
		"_id":         id,
		"name":        "Movie",
		"description": nil,
		"is_active":   false,
		"created_at":  primitive.NewDateTimeFromTime(createdAt),
	})
	require.NoError(t, err)

	assert.Equal(t, id, category.ID())
	assert.Nil(t, category.Description())
	assert.False(t, category.IsActive())
	assert.True(t, createdAt.Equal(category.CreatedAt()))
}

func TestCategoryDocumentMapper_InvalidDocument(t *testing.T) {
	tests := []struct {
		name      string
		doc       bson.M
		wantField string
	}{
		{
			name:      "missing created_at",
			doc:       bson.M{"_id": uuid.NewString(), "name": "Movie", "is_active": true},
			wantField: "created_at",
		},
		{
			name:      "name too long",
			doc:       bson.M{"_id": uuid.NewString(), "name": strings.Repeat("a", 256), "is_active": true, "created_at": baseTime},
			wantField: "name",
		},
		{
			name:      "id is not uuid",
			doc:       bson.M{"_id": "fake", "name": "Movie", "is_active": true, "created_at": baseTime},
			wantField: "id",
		},
		{
			name:      "description has wrong type",
			doc:       bson.M{"_id": uuid.NewString(), "name": "Movie", "description": 1, "is_active": true, "created_at": baseTime},
			wantField: "description",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewCategoryDocumentMapper(nil).FromDocument(tt.doc)

			var loadErr *core.LoadEntityError
			require.ErrorAs(t, err, &loadErr)
			assert.Contains(t, loadErr.Errors, tt.wantField)
			assert.ErrorIs(t, err, core.ErrLoadEntity)
		})
	}
}

func TestCategoryCollectionConfig_Indexes(t *testing.T) {
	specs := repository.SearchIndexSpecs(CategoryCollectionConfig())

	names := make([]string, len(specs))
	for i, spec := range specs {
		names[i] = spec.IndexName()
	}
	assert.Equal(t, []string{"idx_created_at", "idx_name_created_at"}, names)
}

func TestCategoryMongoFilter(t *testing.T) {
	filter := repository.BuildMongoFilter(CategoryCollectionConfig(), repository.NewSearchParams(repository.SearchProps{Filter: "a.b"}))
	assert.Equal(t, bson.M{"name": bson.M{"$regex": `a\.b`, "$options": "i"}}, filter)
}

func TestCategoryMongoRepository_FindByID(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))

	mt.Run("decodes stored category", func(mt *mtest.T) {
		repo, err := NewCategoryMongoRepository(mt.Coll)
		require.NoError(mt, err)

		id := uuid.NewString()
		createdAt := time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)
		ns := mt.Coll.Database().Name() + "." + mt.Coll.Name()
		mt.AddMockResponses(mtest.CreateCursorResponse(0, ns, mtest.FirstBatch, bson.D{
			{Key: "_id", Value: id},
			{Key: "name", Value: "Movie"},
			{Key: "description", Value: nil},
			{Key: "is_active", Value: true},
			{Key: "created_at", Value: primitive.NewDateTimeFromTime(createdAt)},
		}))

		category, err := repo.FindByID(context.Background(), id)
		require.NoError(mt, err)
		assert.Equal(mt, id, category.ID())
		assert.Equal(mt, "Movie", category.Name())
		assert.True(mt, createdAt.Equal(category.CreatedAt()))
	})

	mt.Run("invalid stored document", func(mt *mtest.T) {
		repo, err := NewCategoryMongoRepository(mt.Coll)
		require.NoError(mt, err)

		ns := mt.Coll.Database().Name() + "." + mt.Coll.Name()
		mt.AddMockResponses(mtest.CreateCursorResponse(0, ns, mtest.FirstBatch, bson.D{
			{Key: "_id", Value: "fake"},
			{Key: "name", Value: "Movie"},
			{Key: "is_active", Value: true},
			{Key: "created_at", Value: primitive.NewDateTimeFromTime(baseTime)},
		}))

		_, err = repo.FindByID(context.Background(), "fake")
		var loadErr *core.LoadEntityError
		require.ErrorAs(mt, err, &loadErr)
	})
}
