package repository

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/akriventsev/catalog/framework/core"
)

func newTestSearchableRepository(filter FilterFunc[TestEntity]) *InMemorySearchableRepository[TestEntity] {
	return NewInMemorySearchableRepository(InMemorySearchConfig[TestEntity]{
		InMemoryConfig: InMemoryConfig{EntityName: "TestEntity"},
		SortableFields: []string{"name", "price"},
		Filter:         filter,
		Field: func(e TestEntity, field string) (any, bool) {
			switch field {
			case "name":
				return e.Name, true
			case "price":
				return e.Price, true
			}
			return nil, false
		},
	})
}

func containsFold(e TestEntity, filter string) bool {
	return strings.Contains(strings.ToLower(e.Name), strings.ToLower(filter))
}

func names(items []TestEntity) []string {
	result := make([]string, len(items))
	for i, item := range items {
		result[i] = item.Name
	}
	return result
}

func TestApplyFilter_NilFilterSkipsPredicate(t *testing.T) {
	calls := 0
	repo := newTestSearchableRepository(func(e TestEntity, filter string) bool {
		calls++
		return true
	})

	items := []TestEntity{newTestEntity("1", "a", 0), newTestEntity("2", "b", 0)}
	got := repo.ApplyFilter(items, core.None[string]())

	assert.Equal(t, items, got)
	assert.Same(t, &items[0], &got[0])
	assert.Zero(t, calls)
}

func TestApplyFilter_CaseInsensitive(t *testing.T) {
	repo := newTestSearchableRepository(containsFold)

	items := []TestEntity{
		newTestEntity("1", "test", 0),
		newTestEntity("2", "a", 0),
		newTestEntity("3", "TEST", 0),
		newTestEntity("4", "TeSt", 0),
	}
	got := repo.ApplyFilter(items, core.Some("TEST"))

	assert.Equal(t, []string{"test", "TEST", "TeSt"}, names(got))
}

func TestApplySort_DefaultByCreatedAt(t *testing.T) {
	repo := newTestSearchableRepository(containsFold)

	items := []TestEntity{
		newTestEntity("1", "b", 2*time.Second),
		newTestEntity("2", "a", 0),
		newTestEntity("3", "c", time.Second),
	}

	for _, tc := range []struct {
		name string
		sort core.Option[string]
		dir  core.Option[SortDirection]
	}{
		{"no sort", core.None[string](), core.None[SortDirection]()},
		{"unsortable field", core.Some("created_at"), core.Some(Desc)},
		{"unknown field", core.Some("unknown"), core.Some(Asc)},
	} {
		t.Run(tc.name, func(t *testing.T) {
			got := repo.ApplySort(items, tc.sort, tc.dir)
			assert.Equal(t, []string{"a", "c", "b"}, names(got))
		})
	}
}

func TestApplySort_DefaultOrderDesc(t *testing.T) {
	repo := NewInMemorySearchableRepository(InMemorySearchConfig[TestEntity]{DefaultOrder: Desc})

	items := []TestEntity{
		newTestEntity("1", "a", 0),
		newTestEntity("2", "b", time.Second),
	}
	got := repo.ApplySort(items, core.None[string](), core.None[SortDirection]())

	assert.Equal(t, []string{"b", "a"}, names(got))
}

func TestApplySort_ByField(t *testing.T) {
	repo := newTestSearchableRepository(containsFold)

	items := []TestEntity{
		newTestEntity("1", "b", 0),
		newTestEntity("2", "a", 0),
		newTestEntity("3", "c", 0),
	}

	asc := repo.ApplySort(items, core.Some("name"), core.Some(Asc))
	assert.Equal(t, []string{"a", "b", "c"}, names(asc))

	desc := repo.ApplySort(items, core.Some("name"), core.Some(Desc))
	assert.Equal(t, []string{"c", "b", "a"}, names(desc))

	// исходный срез не меняется
	assert.Equal(t, []string{"b", "a", "c"}, names(items))
}

func TestApplySort_DescReversesAsc(t *testing.T) {
	repo := newTestSearchableRepository(containsFold)

	items := []TestEntity{
		{IDField: "1", Name: "x", Price: 30},
		{IDField: "2", Name: "y", Price: 10},
		{IDField: "3", Name: "z", Price: 20},
		{IDField: "4", Name: "w", Price: 5},
	}

	asc := names(repo.ApplySort(items, core.Some("price"), core.Some(Asc)))
	desc := names(repo.ApplySort(items, core.Some("price"), core.Some(Desc)))

	reversed := make([]string, len(asc))
	for i := range asc {
		reversed[len(asc)-1-i] = asc[i]
	}
	assert.Equal(t, []string{"w", "y", "z", "x"}, asc)
	assert.Equal(t, reversed, desc)
}

func TestApplySort_StableTies(t *testing.T) {
	repo := newTestSearchableRepository(containsFold)

	items := []TestEntity{
		{IDField: "1", Name: "same", Price: 1},
		{IDField: "2", Name: "same", Price: 2},
		{IDField: "3", Name: "same", Price: 3},
	}
	got := repo.ApplySort(items, core.Some("name"), core.Some(Desc))

	ids := []string{got[0].ID(), got[1].ID(), got[2].ID()}
	assert.Equal(t, []string{"1", "2", "3"}, ids)
}

func TestApplyPagination(t *testing.T) {
	repo := newTestSearchableRepository(containsFold)

	items := make([]TestEntity, 0, 7)
	for _, name := range []string{"a", "b", "c", "d", "e", "f", "g"} {
		items = append(items, newTestEntity(name, name, 0))
	}

	assert.Equal(t, []string{"a", "b"}, names(repo.ApplyPagination(items, 1, 2)))
	assert.Equal(t, []string{"c", "d"}, names(repo.ApplyPagination(items, 2, 2)))
	assert.Equal(t, []string{"g"}, names(repo.ApplyPagination(items, 4, 2)))

	empty := repo.ApplyPagination(items, 5, 4)
	assert.NotNil(t, empty)
	assert.Empty(t, empty)
}

func TestSearch_DefaultParams(t *testing.T) {
	repo := newTestSearchableRepository(containsFold)
	ctx := context.Background()

	entities := make([]TestEntity, 16)
	for i := range entities {
		entities[i] = newTestEntity(string(rune('a'+i)), "n", time.Duration(i)*time.Second)
	}
	require.NoError(t, repo.BulkInsert(ctx, entities))

	result, err := repo.Search(ctx, NewSearchParams(SearchProps{}))
	require.NoError(t, err)

	assert.Len(t, result.Items(), 15)
	assert.Equal(t, 16, result.Total())
	assert.Equal(t, 1, result.CurrentPage())
	assert.Equal(t, 15, result.PerPage())
	assert.Equal(t, 2, result.LastPage())
	assert.Equal(t, "a", result.Items()[0].ID())
}

func TestSearch_FilterSortPaginate(t *testing.T) {
	repo := newTestSearchableRepository(containsFold)
	ctx := context.Background()

	for i, name := range []string{"a", "AaA", "AAA", "b", "c"} {
		require.NoError(t, repo.Insert(ctx, newTestEntity(name+"-id", name, time.Duration(i)*time.Second)))
	}

	page1, err := repo.Search(ctx, NewSearchParams(SearchProps{
		Page: 1, PerPage: 2, Sort: "name", Filter: "a",
	}))
	require.NoError(t, err)
	assert.Equal(t, []string{"AAA", "AaA"}, names(page1.Items()))
	assert.Equal(t, 3, page1.Total())
	assert.Equal(t, 2, page1.LastPage())
	assert.Equal(t, core.Some(Asc), page1.SortDir())
	assert.Equal(t, core.Some("a"), page1.Filter())

	page2, err := repo.Search(ctx, NewSearchParams(SearchProps{
		Page: 2, PerPage: 2, Sort: "name", Filter: "a",
	}))
	require.NoError(t, err)
	assert.Equal(t, []string{"a"}, names(page2.Items()))
	assert.Equal(t, 3, page2.Total())
}

func TestSearch_CanceledContext(t *testing.T) {
	repo := newTestSearchableRepository(containsFold)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := repo.Search(ctx, NewSearchParams(SearchProps{}))
	assert.ErrorIs(t, err, context.Canceled)
}

func TestSortableFields_ReturnsCopy(t *testing.T) {
	repo := newTestSearchableRepository(containsFold)

	fields := repo.SortableFields()
	fields[0] = "changed"

	assert.Equal(t, []string{"name", "price"}, repo.SortableFields())
}

func TestCompareValues(t *testing.T) {
	earlier := baseTime
	later := baseTime.Add(time.Hour)
	a, b := "a", "b"

	tests := []struct {
		name string
		a, b any
		want int
	}{
		{"strings byte order", "B", "a", -1},
		{"equal strings", "x", "x", 0},
		{"ints", 2, 10, -1},
		{"mixed int kinds", int8(5), int64(3), 1},
		{"uints", uint(1), uint(1), 0},
		{"floats", 1.5, 0.5, 1},
		{"int and float", 1, 1.5, -1},
		{"bools", false, true, -1},
		{"times", later, earlier, 1},
		{"nullable strings", &a, &b, -1},
		{"nil nullable string", (*string)(nil), &a, -1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, CompareValues(tt.a, tt.b))
		})
	}
}
