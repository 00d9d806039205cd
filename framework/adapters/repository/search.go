package repository

import (
	"encoding/json"
	"fmt"
	"math"
	"reflect"
	"strconv"
	"strings"

	"github.com/akriventsev/catalog/framework/core"
)

// DefaultPerPage размер страницы по умолчанию
const DefaultPerPage = 15

// MaxPageValue верхняя граница page и per_page; большие значения
// урезаются до нее, чтобы Offset не переполнял int
const MaxPageValue = math.MaxInt32

// SortDirection направление сортировки
type SortDirection string

const (
	Asc  SortDirection = "ASC"
	Desc SortDirection = "DESC"
)

// SearchProps сырые параметры поиска. Значения могут прийти из query string,
// JSON или кода, поэтому поля нетипизированы; NewSearchParams нормализует их.
type SearchProps struct {
	Page    any `json:"page" form:"page"`
	PerPage any `json:"per_page" form:"per_page"`
	Sort    any `json:"sort" form:"sort"`
	SortDir any `json:"sort_dir" form:"sort_dir"`
	Filter  any `json:"filter" form:"filter"`
}

// SearchParams нормализованный дескриптор запроса.
// Конструирование никогда не завершается ошибкой: любое некорректное значение
// заменяется значением по умолчанию.
type SearchParams struct {
	page    int
	perPage int
	sort    core.Option[string]
	sortDir core.Option[SortDirection]
	filter  core.Option[string]
}

// NewSearchParams нормализует сырые параметры
func NewSearchParams(props SearchProps) SearchParams {
	p := SearchParams{page: 1, perPage: DefaultPerPage}

	if page, ok := toPositiveInt(props.Page); ok {
		p.page = page
	}

	// true не меняет предыдущее значение (а не превращается в 1)
	if perPage, ok := toPositiveInt(props.PerPage); ok {
		p.perPage = perPage
	}

	p.sort = toOptionalString(props.Sort)

	// sort_dir имеет смысл только вместе с sort
	if p.sort.IsSome() {
		dir := SortDirection(strings.ToUpper(stringify(props.SortDir)))
		if dir != Asc && dir != Desc {
			dir = Asc
		}
		p.sortDir = core.Some(dir)
	}

	p.filter = toOptionalString(props.Filter)
	return p
}

// Page номер страницы (>= 1)
func (p SearchParams) Page() int { return p.page }

// PerPage размер страницы (>= 1)
func (p SearchParams) PerPage() int { return p.perPage }

// Sort поле сортировки
func (p SearchParams) Sort() core.Option[string] { return p.sort }

// SortDir направление сортировки; None когда Sort пуст
func (p SearchParams) SortDir() core.Option[SortDirection] { return p.sortDir }

// Filter строка фильтра
func (p SearchParams) Filter() core.Option[string] { return p.filter }

// Offset смещение первой записи страницы
func (p SearchParams) Offset() int { return (p.page - 1) * p.perPage }

// Props возвращает нормализованные значения в виде SearchProps.
// NewSearchParams(p.Props()) == p.
func (p SearchParams) Props() SearchProps {
	props := SearchProps{Page: p.page, PerPage: p.perPage}
	if p.sort.IsSome() {
		props.Sort = p.sort.Value()
	}
	if p.sortDir.IsSome() {
		props.SortDir = string(p.sortDir.Value())
	}
	if p.filter.IsSome() {
		props.Filter = p.filter.Value()
	}
	return props
}

func (p SearchParams) String() string {
	return fmt.Sprintf("page=%d per_page=%d sort=%s sort_dir=%s filter=%s",
		p.page, p.perPage, p.sort, p.sortDir, p.filter)
}

// toPositiveInt приводит значение к положительному целому.
// bool, нечисловые строки, дробные и неположительные числа отклоняются,
// значения больше MaxPageValue урезаются до MaxPageValue.
func toPositiveInt(value any) (int, bool) {
	value = deref(value)

	var f float64
	switch v := value.(type) {
	case nil, bool:
		return 0, false
	case string:
		s := strings.TrimSpace(v)
		if s == "" {
			return 0, false
		}
		parsed, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return 0, false
		}
		f = parsed
	case json.Number:
		parsed, err := v.Float64()
		if err != nil {
			return 0, false
		}
		f = parsed
	default:
		rv := reflect.ValueOf(v)
		switch rv.Kind() {
		case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
			f = float64(rv.Int())
		case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
			f = float64(rv.Uint())
		case reflect.Float32, reflect.Float64:
			f = rv.Float()
		default:
			return 0, false
		}
	}

	if math.IsNaN(f) || math.IsInf(f, 0) || f < 1 || f != math.Trunc(f) {
		return 0, false
	}
	if f > MaxPageValue {
		return MaxPageValue, true
	}
	return int(f), true
}

// toOptionalString: nil и "" -> None, остальное приводится к строке
func toOptionalString(value any) core.Option[string] {
	value = deref(value)
	if value == nil {
		return core.None[string]()
	}
	s := stringify(value)
	if s == "" {
		return core.None[string]()
	}
	return core.Some(s)
}

func stringify(value any) string {
	value = deref(value)
	switch v := value.(type) {
	case nil:
		return ""
	case string:
		return v
	case SortDirection:
		return string(v)
	case fmt.Stringer:
		return v.String()
	default:
		return fmt.Sprint(v)
	}
}

// deref снимает указатели; typed nil превращается в nil
func deref(value any) any {
	for value != nil {
		rv := reflect.ValueOf(value)
		if rv.Kind() != reflect.Pointer {
			return value
		}
		if rv.IsNil() {
			return nil
		}
		value = rv.Elem().Interface()
	}
	return value
}

// SearchResultProps параметры для построения SearchResult
type SearchResultProps[T any] struct {
	Items       []T
	Total       int
	CurrentPage int
	PerPage     int
	Sort        core.Option[string]
	SortDir     core.Option[SortDirection]
	Filter      core.Option[string]
}

// SearchResult неизменяемый результат поиска
type SearchResult[T any] struct {
	items       []T
	total       int
	currentPage int
	perPage     int
	lastPage    int
	sort        core.Option[string]
	sortDir     core.Option[SortDirection]
	filter      core.Option[string]
}

// NewSearchResult создает результат; last_page = ceil(total/per_page), минимум 1
func NewSearchResult[T any](props SearchResultProps[T]) SearchResult[T] {
	items := make([]T, len(props.Items))
	copy(items, props.Items)

	return SearchResult[T]{
		items:       items,
		total:       props.Total,
		currentPage: props.CurrentPage,
		perPage:     props.PerPage,
		lastPage:    lastPage(props.Total, props.PerPage),
		sort:        props.Sort,
		sortDir:     props.SortDir,
		filter:      props.Filter,
	}
}

// NewSearchResultFromParams создает результат, повторяя параметры запроса
func NewSearchResultFromParams[T any](items []T, total int, params SearchParams) SearchResult[T] {
	return NewSearchResult(SearchResultProps[T]{
		Items:       items,
		Total:       total,
		CurrentPage: params.Page(),
		PerPage:     params.PerPage(),
		Sort:        params.Sort(),
		SortDir:     params.SortDir(),
		Filter:      params.Filter(),
	})
}

func lastPage(total, perPage int) int {
	if perPage <= 0 || total <= 0 {
		return 1
	}
	pages := (total + perPage - 1) / perPage
	if pages < 1 {
		return 1
	}
	return pages
}

// Items возвращает копию элементов страницы
func (r SearchResult[T]) Items() []T {
	items := make([]T, len(r.items))
	copy(items, r.items)
	return items
}

func (r SearchResult[T]) Total() int                          { return r.total }
func (r SearchResult[T]) CurrentPage() int                    { return r.currentPage }
func (r SearchResult[T]) PerPage() int                        { return r.perPage }
func (r SearchResult[T]) LastPage() int                       { return r.lastPage }
func (r SearchResult[T]) Sort() core.Option[string]           { return r.sort }
func (r SearchResult[T]) SortDir() core.Option[SortDirection] { return r.sortDir }
func (r SearchResult[T]) Filter() core.Option[string]         { return r.filter }

// MarshalJSON сериализует результат в формате API
func (r SearchResult[T]) MarshalJSON() ([]byte, error) {
	items := r.items
	if items == nil {
		items = []T{}
	}
	return json.Marshal(struct {
		Items       []T                        `json:"items"`
		Total       int                        `json:"total"`
		CurrentPage int                        `json:"current_page"`
		PerPage     int                        `json:"per_page"`
		LastPage    int                        `json:"last_page"`
		Sort        core.Option[string]        `json:"sort"`
		SortDir     core.Option[SortDirection] `json:"sort_dir"`
		Filter      core.Option[string]        `json:"filter"`
	}{items, r.total, r.currentPage, r.perPage, r.lastPage, r.sort, r.sortDir, r.filter})
}

// MapSearchResult преобразует элементы результата, сохраняя метаданные
func MapSearchResult[T, O any](r SearchResult[T], fn func(T) O) SearchResult[O] {
	mapped := make([]O, len(r.items))
	for i, item := range r.items {
		mapped[i] = fn(item)
	}
	return SearchResult[O]{
		items:       mapped,
		total:       r.total,
		currentPage: r.currentPage,
		perPage:     r.perPage,
		lastPage:    r.lastPage,
		sort:        r.sort,
		sortDir:     r.sortDir,
		filter:      r.filter,
	}
}
