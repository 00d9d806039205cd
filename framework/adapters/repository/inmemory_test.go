package repository

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/akriventsev/catalog/framework/core"
)

// TestEntity для тестирования
type TestEntity struct {
	IDField string
	Name    string
	Price   int
	Created time.Time
}

func (e TestEntity) ID() string {
	return e.IDField
}

func (e TestEntity) CreatedAt() time.Time {
	return e.Created
}

var baseTime = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

func newTestEntity(id, name string, offset time.Duration) TestEntity {
	return TestEntity{IDField: id, Name: name, Created: baseTime.Add(offset)}
}

func TestInMemoryRepository_Insert(t *testing.T) {
	repo := NewInMemoryRepository[TestEntity](DefaultInMemoryConfig())
	ctx := context.Background()

	entity := newTestEntity("test-1", "Test", 0)
	if err := repo.Insert(ctx, entity); err != nil {
		t.Errorf("Expected no error, got %v", err)
	}
}

func TestInMemoryRepository_Insert_EmptyID(t *testing.T) {
	repo := NewInMemoryRepository[TestEntity](DefaultInMemoryConfig())
	ctx := context.Background()

	if err := repo.Insert(ctx, newTestEntity("", "Test", 0)); err == nil {
		t.Error("Expected error for empty ID")
	}
}

func TestInMemoryRepository_Insert_Duplicate(t *testing.T) {
	repo := NewInMemoryRepository[TestEntity](DefaultInMemoryConfig())
	ctx := context.Background()

	if err := repo.Insert(ctx, newTestEntity("test-1", "Test", 0)); err != nil {
		t.Fatalf("Failed to insert entity: %v", err)
	}

	err := repo.Insert(ctx, newTestEntity("test-1", "Other", 0))
	if !errors.Is(err, core.ErrEntityExists) {
		t.Errorf("Expected ErrEntityExists, got %v", err)
	}
}

func TestInMemoryRepository_BulkInsert_Atomic(t *testing.T) {
	repo := NewInMemoryRepository[TestEntity](DefaultInMemoryConfig())
	ctx := context.Background()

	if err := repo.Insert(ctx, newTestEntity("test-2", "Existing", 0)); err != nil {
		t.Fatalf("Failed to insert entity: %v", err)
	}

	err := repo.BulkInsert(ctx, []TestEntity{
		newTestEntity("test-1", "A", 0),
		newTestEntity("test-2", "B", 0),
	})
	if err == nil {
		t.Fatal("Expected error for duplicate ID in bulk insert")
	}

	count, _ := repo.Count(ctx)
	if count != 1 {
		t.Errorf("Expected bulk insert to be rolled back, got %d entities", count)
	}
}

func TestInMemoryRepository_FindByID(t *testing.T) {
	repo := NewInMemoryRepository[TestEntity](DefaultInMemoryConfig())
	ctx := context.Background()

	if err := repo.Insert(ctx, newTestEntity("test-1", "Test", 0)); err != nil {
		t.Fatalf("Failed to insert entity: %v", err)
	}

	found, err := repo.FindByID(ctx, "test-1")
	if err != nil {
		t.Errorf("Expected no error, got %v", err)
	}

	if found.ID() != "test-1" {
		t.Errorf("Expected ID 'test-1', got %s", found.ID())
	}

	if found.Name != "Test" {
		t.Errorf("Expected Name 'Test', got %s", found.Name)
	}
}

func TestInMemoryRepository_FindByID_NotFound(t *testing.T) {
	repo := NewInMemoryRepository[TestEntity](InMemoryConfig{EntityName: "Widget"})
	ctx := context.Background()

	_, err := repo.FindByID(ctx, "nonexistent")
	if !errors.Is(err, core.ErrEntityNotFound) {
		t.Fatalf("Expected ErrEntityNotFound, got %v", err)
	}

	var notFound *core.NotFoundError
	if !errors.As(err, &notFound) || notFound.ID != "nonexistent" {
		t.Errorf("Expected NotFoundError carrying the ID, got %v", err)
	}
	if err.Error() != "Widget not found using ID nonexistent" {
		t.Errorf("Unexpected message: %s", err.Error())
	}
}

func TestInMemoryRepository_FindAll_InsertionOrder(t *testing.T) {
	repo := NewInMemoryRepository[TestEntity](DefaultInMemoryConfig())
	ctx := context.Background()

	for i := 3; i > 0; i-- {
		if err := repo.Insert(ctx, newTestEntity(fmt.Sprintf("test-%d", i), "Test", 0)); err != nil {
			t.Fatalf("Failed to insert entity: %v", err)
		}
	}

	all, err := repo.FindAll(ctx)
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	if len(all) != 3 {
		t.Fatalf("Expected 3 entities, got %d", len(all))
	}
	for i, want := range []string{"test-3", "test-2", "test-1"} {
		if all[i].ID() != want {
			t.Errorf("Expected %s at position %d, got %s", want, i, all[i].ID())
		}
	}
}

func TestInMemoryRepository_Update(t *testing.T) {
	repo := NewInMemoryRepository[TestEntity](DefaultInMemoryConfig())
	ctx := context.Background()

	if err := repo.Insert(ctx, newTestEntity("test-1", "Test", 0)); err != nil {
		t.Fatalf("Failed to insert entity: %v", err)
	}

	if err := repo.Update(ctx, newTestEntity("test-1", "Updated", 0)); err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	found, _ := repo.FindByID(ctx, "test-1")
	if found.Name != "Updated" {
		t.Errorf("Expected Name 'Updated', got %s", found.Name)
	}
}

func TestInMemoryRepository_Update_NotFound(t *testing.T) {
	repo := NewInMemoryRepository[TestEntity](DefaultInMemoryConfig())
	ctx := context.Background()

	err := repo.Update(ctx, newTestEntity("missing", "Test", 0))
	if !errors.Is(err, core.ErrEntityNotFound) {
		t.Errorf("Expected ErrEntityNotFound, got %v", err)
	}
}

func TestInMemoryRepository_Delete(t *testing.T) {
	repo := NewInMemoryRepository[TestEntity](DefaultInMemoryConfig())
	ctx := context.Background()

	if err := repo.Insert(ctx, newTestEntity("test-1", "Test", 0)); err != nil {
		t.Fatalf("Failed to insert entity: %v", err)
	}

	if err := repo.Delete(ctx, "test-1"); err != nil {
		t.Errorf("Expected no error, got %v", err)
	}

	_, err := repo.FindByID(ctx, "test-1")
	if err == nil {
		t.Error("Expected error after deletion")
	}

	if err := repo.Delete(ctx, "test-1"); !errors.Is(err, core.ErrEntityNotFound) {
		t.Errorf("Expected ErrEntityNotFound on second delete, got %v", err)
	}
}

func TestInMemoryRepository_MaxEntities(t *testing.T) {
	repo := NewInMemoryRepository[TestEntity](InMemoryConfig{MaxEntities: 1})
	ctx := context.Background()

	if err := repo.Insert(ctx, newTestEntity("test-1", "Test", 0)); err != nil {
		t.Fatalf("Failed to insert entity: %v", err)
	}
	if err := repo.Insert(ctx, newTestEntity("test-2", "Test", 0)); err == nil {
		t.Error("Expected error when limit is reached")
	}
}

func TestInMemoryRepository_Clear(t *testing.T) {
	repo := NewInMemoryRepository[TestEntity](DefaultInMemoryConfig())
	ctx := context.Background()

	_ = repo.Insert(ctx, newTestEntity("test-1", "Test", 0))
	if err := repo.Clear(ctx); err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	count, _ := repo.Count(ctx)
	if count != 0 {
		t.Errorf("Expected 0 entities after clear, got %d", count)
	}
}
