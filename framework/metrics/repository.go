package metrics

import (
	"context"
	"time"

	"github.com/akriventsev/catalog/framework/adapters/repository"
)

// InstrumentedRepository декоратор SearchableRepository, записывающий
// метрики каждой операции
type InstrumentedRepository[T repository.Entity] struct {
	next    repository.SearchableRepository[T]
	metrics *Metrics
	entity  string
}

// InstrumentRepository оборачивает репозиторий метриками
func InstrumentRepository[T repository.Entity](repo repository.SearchableRepository[T], m *Metrics, entity string) *InstrumentedRepository[T] {
	return &InstrumentedRepository[T]{next: repo, metrics: m, entity: entity}
}

func (r *InstrumentedRepository[T]) record(ctx context.Context, operation string, start time.Time, err error) {
	r.metrics.RecordRepository(ctx, r.entity, operation, time.Since(start), err == nil)
}

func (r *InstrumentedRepository[T]) Insert(ctx context.Context, entity T) error {
	start := time.Now()
	err := r.next.Insert(ctx, entity)
	r.record(ctx, "insert", start, err)
	return err
}

func (r *InstrumentedRepository[T]) BulkInsert(ctx context.Context, entities []T) error {
	start := time.Now()
	err := r.next.BulkInsert(ctx, entities)
	r.record(ctx, "bulk_insert", start, err)
	return err
}

func (r *InstrumentedRepository[T]) FindByID(ctx context.Context, id string) (T, error) {
	start := time.Now()
	entity, err := r.next.FindByID(ctx, id)
	r.record(ctx, "find_by_id", start, err)
	return entity, err
}

func (r *InstrumentedRepository[T]) FindAll(ctx context.Context) ([]T, error) {
	start := time.Now()
	entities, err := r.next.FindAll(ctx)
	r.record(ctx, "find_all", start, err)
	return entities, err
}

func (r *InstrumentedRepository[T]) Update(ctx context.Context, entity T) error {
	start := time.Now()
	err := r.next.Update(ctx, entity)
	r.record(ctx, "update", start, err)
	return err
}

func (r *InstrumentedRepository[T]) Delete(ctx context.Context, id string) error {
	start := time.Now()
	err := r.next.Delete(ctx, id)
	r.record(ctx, "delete", start, err)
	return err
}

func (r *InstrumentedRepository[T]) SortableFields() []string {
	return r.next.SortableFields()
}

func (r *InstrumentedRepository[T]) Search(ctx context.Context, params repository.SearchParams) (repository.SearchResult[T], error) {
	start := time.Now()
	result, err := r.next.Search(ctx, params)
	r.record(ctx, "search", start, err)
	return result, err
}

var _ repository.SearchableRepository[repository.Entity] = (*InstrumentedRepository[repository.Entity])(nil)
