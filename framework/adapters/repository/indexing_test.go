package repository

import (
	"testing"

	"go.mongodb.org/mongo-driver/bson"
)

func TestIndexSpec_Keys(t *testing.T) {
	spec := IndexSpec{Fields: []string{"name", "created_at"}, Directions: []int{-1}}

	keys := spec.Keys()
	want := bson.D{{Key: "name", Value: -1}, {Key: "created_at", Value: 1}}

	if len(keys) != len(want) {
		t.Fatalf("Expected %d keys, got %d", len(want), len(keys))
	}
	for i := range want {
		if keys[i] != want[i] {
			t.Errorf("Expected key %v at %d, got %v", want[i], i, keys[i])
		}
	}
}

func TestIndexSpec_IndexName(t *testing.T) {
	if name := (IndexSpec{Fields: []string{"name", "created_at"}}).IndexName(); name != "idx_name_created_at" {
		t.Errorf("Expected generated name, got %s", name)
	}

	if name := (IndexSpec{Name: "custom", Fields: []string{"name"}}).IndexName(); name != "custom" {
		t.Errorf("Expected custom name, got %s", name)
	}
}

func TestSearchIndexSpecs(t *testing.T) {
	specs := SearchIndexSpecs(MongoCollectionConfig{
		SortableFields: []string{"name", "created_at"},
	})

	if len(specs) != 2 {
		t.Fatalf("Expected 2 index specs, got %d", len(specs))
	}

	if specs[0].IndexName() != "idx_created_at" {
		t.Errorf("Expected created_at index first, got %s", specs[0].IndexName())
	}

	if specs[1].IndexName() != "idx_name_created_at" {
		t.Errorf("Expected compound name index, got %s", specs[1].IndexName())
	}
}
