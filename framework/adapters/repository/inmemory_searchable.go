package repository

import (
	"cmp"
	"context"
	"fmt"
	"reflect"
	"slices"
	"strings"
	"time"

	"github.com/akriventsev/catalog/framework/core"
)

// InMemorySearchConfig конфигурация поиска для in-memory backend
type InMemorySearchConfig[T Entity] struct {
	InMemoryConfig
	// SortableFields поля, по которым разрешена сортировка
	SortableFields []string
	// Filter предикат фильтрации; nil означает "фильтр игнорируется"
	Filter FilterFunc[T]
	// Field возвращает значение поля для сортировки
	Field FieldFunc[T]
	// DefaultOrder направление сортировки по CreatedAt, когда sort не задан
	// или не входит в SortableFields. Пустое значение = ASC.
	DefaultOrder SortDirection
}

// InMemorySearchableRepository in-memory репозиторий с конвейером
// filter -> sort -> paginate
type InMemorySearchableRepository[T Entity] struct {
	*InMemoryRepository[T]
	config InMemorySearchConfig[T]
}

// NewInMemorySearchableRepository создает новый searchable in-memory репозиторий
func NewInMemorySearchableRepository[T Entity](config InMemorySearchConfig[T]) *InMemorySearchableRepository[T] {
	if config.EntityName == "" {
		config.EntityName = DefaultInMemoryConfig().EntityName
	}
	if config.DefaultOrder == "" {
		config.DefaultOrder = Asc
	}
	return &InMemorySearchableRepository[T]{
		InMemoryRepository: NewInMemoryRepository[T](config.InMemoryConfig),
		config:             config,
	}
}

// SortableFields возвращает поля, по которым разрешена сортировка
func (r *InMemorySearchableRepository[T]) SortableFields() []string {
	return slices.Clone(r.config.SortableFields)
}

// Search выполняет поиск по снимку коллекции
func (r *InMemorySearchableRepository[T]) Search(ctx context.Context, params SearchParams) (SearchResult[T], error) {
	if err := ctx.Err(); err != nil {
		return SearchResult[T]{}, err
	}

	items := r.snapshot()
	filtered := r.ApplyFilter(items, params.Filter())
	sorted := r.ApplySort(filtered, params.Sort(), params.SortDir())
	paginated := r.ApplyPagination(sorted, params.Page(), params.PerPage())

	return NewSearchResultFromParams(paginated, len(filtered), params), nil
}

// ApplyFilter возвращает элементы, удовлетворяющие фильтру.
// Без фильтра возвращает исходный срез и не вызывает предикат.
func (r *InMemorySearchableRepository[T]) ApplyFilter(items []T, filter core.Option[string]) []T {
	if filter.IsNone() || r.config.Filter == nil {
		return items
	}

	value := filter.Value()
	result := make([]T, 0, len(items))
	for _, item := range items {
		if r.config.Filter(item, value) {
			result = append(result, item)
		}
	}
	return result
}

// ApplySort возвращает отсортированную копию. Сортировка стабильная:
// при равных значениях сохраняется порядок входного среза.
func (r *InMemorySearchableRepository[T]) ApplySort(items []T, sort core.Option[string], dir core.Option[SortDirection]) []T {
	sorted := slices.Clone(items)

	if sort.IsNone() || !isSortable(r.config.SortableFields, sort.Value()) || r.config.Field == nil {
		// sort_dir здесь игнорируется
		slices.SortStableFunc(sorted, func(a, b T) int {
			c := a.CreatedAt().Compare(b.CreatedAt())
			if r.config.DefaultOrder == Desc {
				return -c
			}
			return c
		})
		return sorted
	}

	field := sort.Value()
	desc := dir.ValueOr(Asc) == Desc
	slices.SortStableFunc(sorted, func(a, b T) int {
		av, aok := r.config.Field(a, field)
		bv, bok := r.config.Field(b, field)
		if !aok || !bok {
			return 0
		}
		c := CompareValues(av, bv)
		if desc {
			return -c
		}
		return c
	})
	return sorted
}

// ApplyPagination возвращает окно [(page-1)*perPage, page*perPage).
// Страница за пределами коллекции дает пустой срез.
func (r *InMemorySearchableRepository[T]) ApplyPagination(items []T, page, perPage int) []T {
	if page < 1 || perPage < 1 {
		return []T{}
	}
	start := (page - 1) * perPage
	if start >= len(items) {
		return []T{}
	}
	end := min(start+perPage, len(items))
	return slices.Clone(items[start:end])
}

// CompareValues сравнивает значения полей одного типа.
// Строки сравниваются побайтно (как ORDER BY ... COLLATE "C").
func CompareValues(a, b any) int {
	switch av := a.(type) {
	case string:
		if bv, ok := b.(string); ok {
			return strings.Compare(av, bv)
		}
	case time.Time:
		if bv, ok := b.(time.Time); ok {
			return av.Compare(bv)
		}
	case bool:
		if bv, ok := b.(bool); ok {
			switch {
			case av == bv:
				return 0
			case !av:
				return -1
			default:
				return 1
			}
		}
	case *string:
		if bv, ok := b.(*string); ok {
			return compareNullable(av, bv, strings.Compare)
		}
	}

	ra, rb := reflect.ValueOf(a), reflect.ValueOf(b)
	if ra.IsValid() && rb.IsValid() {
		switch {
		case isInt(ra) && isInt(rb):
			return cmp.Compare(ra.Int(), rb.Int())
		case isUint(ra) && isUint(rb):
			return cmp.Compare(ra.Uint(), rb.Uint())
		case isNumber(ra) && isNumber(rb):
			return cmp.Compare(toFloat(ra), toFloat(rb))
		}
	}

	return strings.Compare(fmt.Sprint(a), fmt.Sprint(b))
}

// compareNullable: NULL считается меньше любого значения
func compareNullable[V any](a, b *V, compare func(V, V) int) int {
	switch {
	case a == nil && b == nil:
		return 0
	case a == nil:
		return -1
	case b == nil:
		return 1
	}
	return compare(*a, *b)
}

func isInt(v reflect.Value) bool {
	switch v.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return true
	}
	return false
}

func isUint(v reflect.Value) bool {
	switch v.Kind() {
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return true
	}
	return false
}

func isNumber(v reflect.Value) bool {
	return isInt(v) || isUint(v) || v.Kind() == reflect.Float32 || v.Kind() == reflect.Float64
}

func toFloat(v reflect.Value) float64 {
	switch {
	case isInt(v):
		return float64(v.Int())
	case isUint(v):
		return float64(v.Uint())
	default:
		return v.Float()
	}
}
