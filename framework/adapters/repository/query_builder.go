package repository

import (
	"fmt"
	"regexp"
	"strings"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// condition сравнивает одно значение с любым из полей (OR) через один плейсхолдер
type condition struct {
	fields   []string
	operator string
	value    any
}

var identifierPattern = regexp.MustCompile(`^[a-zA-Z_][a-zA-Z0-9_]*$`)

// ValidateIdentifier проверяет имя таблицы/колонки перед подстановкой в SQL
func ValidateIdentifier(name string) error {
	if !identifierPattern.MatchString(name) {
		return fmt.Errorf("invalid SQL identifier %q", name)
	}
	return nil
}

// EscapeLike экранирует спецсимволы LIKE/ILIKE ('\' - escape по умолчанию в PostgreSQL)
func EscapeLike(s string) string {
	return strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(s)
}

// PostgresQueryBuilder строит SELECT/COUNT запросы с плейсхолдерами $n.
// Имена таблиц и колонок должны быть проверены вызывающим кодом (ValidateIdentifier).
type PostgresQueryBuilder struct {
	table       string
	columns     []string
	conditions  []condition
	orderBy     []string
	limitValue  *int
	offsetValue *int
}

// NewPostgresQueryBuilder создает новый PostgresQueryBuilder
func NewPostgresQueryBuilder(table string, columns ...string) *PostgresQueryBuilder {
	return &PostgresQueryBuilder{
		table:   table,
		columns: columns,
		orderBy: make([]string, 0),
	}
}

// WhereEq добавляет условие field = value
func (q *PostgresQueryBuilder) WhereEq(field string, value any) *PostgresQueryBuilder {
	q.conditions = append(q.conditions, condition{fields: []string{field}, operator: "=", value: value})
	return q
}

// WhereILike добавляет регистронезависимый поиск подстроки по одному или
// нескольким полям: (a ILIKE $n OR b ILIKE $n). Спецсимволы LIKE экранируются.
func (q *PostgresQueryBuilder) WhereILike(fields []string, substring string) *PostgresQueryBuilder {
	if len(fields) == 0 {
		return q
	}
	q.conditions = append(q.conditions, condition{
		fields:   fields,
		operator: "ILIKE",
		value:    "%" + EscapeLike(substring) + "%",
	})
	return q
}

// OrderBy добавляет сортировку
func (q *PostgresQueryBuilder) OrderBy(field string, dir SortDirection) *PostgresQueryBuilder {
	q.orderBy = append(q.orderBy, fmt.Sprintf("%s %s", field, normalizeDirection(dir)))
	return q
}

// OrderByCollate добавляет сортировку с явным collation, например "C" для побайтного порядка
func (q *PostgresQueryBuilder) OrderByCollate(field, collation string, dir SortDirection) *PostgresQueryBuilder {
	q.orderBy = append(q.orderBy, fmt.Sprintf("%s COLLATE %q %s", field, collation, normalizeDirection(dir)))
	return q
}

// Limit устанавливает лимит результатов
func (q *PostgresQueryBuilder) Limit(limit int) *PostgresQueryBuilder {
	q.limitValue = &limit
	return q
}

// Offset устанавливает смещение
func (q *PostgresQueryBuilder) Offset(offset int) *PostgresQueryBuilder {
	q.offsetValue = &offset
	return q
}

// Page устанавливает пагинацию
func (q *PostgresQueryBuilder) Page(page, pageSize int) *PostgresQueryBuilder {
	q.Limit(pageSize)
	q.Offset((page - 1) * pageSize)
	return q
}

// buildWhereClause строит WHERE clause начиная с плейсхолдера $1,
// условия объединяются через AND
func (q *PostgresQueryBuilder) buildWhereClause() (string, []any) {
	if len(q.conditions) == 0 {
		return "", nil
	}

	parts := make([]string, 0, len(q.conditions))
	args := make([]any, 0, len(q.conditions))

	for i, cond := range q.conditions {
		alternatives := make([]string, len(cond.fields))
		for j, field := range cond.fields {
			alternatives[j] = fmt.Sprintf("%s %s $%d", field, cond.operator, i+1)
		}
		part := strings.Join(alternatives, " OR ")
		if len(alternatives) > 1 {
			part = "(" + part + ")"
		}
		parts = append(parts, part)
		args = append(args, cond.value)
	}

	return "WHERE " + strings.Join(parts, " AND "), args
}

// Build строит SELECT запрос
func (q *PostgresQueryBuilder) Build() (string, []any) {
	columns := "*"
	if len(q.columns) > 0 {
		columns = strings.Join(q.columns, ", ")
	}
	parts := []string{"SELECT", columns, "FROM", q.table}

	whereClause, args := q.buildWhereClause()
	if whereClause != "" {
		parts = append(parts, whereClause)
	}

	if len(q.orderBy) > 0 {
		parts = append(parts, "ORDER BY", strings.Join(q.orderBy, ", "))
	}

	if q.limitValue != nil {
		parts = append(parts, fmt.Sprintf("LIMIT %d", *q.limitValue))
	}

	if q.offsetValue != nil {
		parts = append(parts, fmt.Sprintf("OFFSET %d", *q.offsetValue))
	}

	return strings.Join(parts, " "), args
}

// BuildCount строит COUNT(*) запрос с тем же WHERE (без ORDER BY/LIMIT/OFFSET)
func (q *PostgresQueryBuilder) BuildCount() (string, []any) {
	parts := []string{"SELECT COUNT(*) FROM", q.table}

	whereClause, args := q.buildWhereClause()
	if whereClause != "" {
		parts = append(parts, whereClause)
	}

	return strings.Join(parts, " "), args
}

func normalizeDirection(dir SortDirection) SortDirection {
	if dir == Desc {
		return Desc
	}
	return Asc
}

// MongoQueryBuilder строит фильтр и FindOptions для MongoDB
type MongoQueryBuilder struct {
	or         bson.A
	sort       bson.D
	limitValue *int64
	skipValue  *int64
}

// NewMongoQueryBuilder создает новый MongoQueryBuilder
func NewMongoQueryBuilder() *MongoQueryBuilder {
	return &MongoQueryBuilder{
		sort: bson.D{},
	}
}

// WhereContains ищет подстроку без учета регистра в любом из полей ($or).
// Значение экранируется, поэтому спецсимволы regex совпадают буквально.
func (q *MongoQueryBuilder) WhereContains(fields []string, substring string) *MongoQueryBuilder {
	pattern := regexp.QuoteMeta(substring)
	for _, field := range fields {
		q.or = append(q.or, bson.M{field: bson.M{"$regex": pattern, "$options": "i"}})
	}
	return q
}

// OrderBy добавляет сортировку
func (q *MongoQueryBuilder) OrderBy(field string, dir SortDirection) *MongoQueryBuilder {
	direction := 1
	if dir == Desc {
		direction = -1
	}
	q.sort = append(q.sort, bson.E{Key: field, Value: direction})
	return q
}

// Limit устанавливает лимит результатов
func (q *MongoQueryBuilder) Limit(limit int) *MongoQueryBuilder {
	limit64 := int64(limit)
	q.limitValue = &limit64
	return q
}

// Offset устанавливает смещение
func (q *MongoQueryBuilder) Offset(offset int) *MongoQueryBuilder {
	offset64 := int64(offset)
	q.skipValue = &offset64
	return q
}

// Page устанавливает пагинацию
func (q *MongoQueryBuilder) Page(page, pageSize int) *MongoQueryBuilder {
	q.Limit(pageSize)
	q.Offset((page - 1) * pageSize)
	return q
}

// Filter возвращает итоговый фильтр
func (q *MongoQueryBuilder) Filter() bson.M {
	switch len(q.or) {
	case 0:
		return bson.M{}
	case 1:
		return q.or[0].(bson.M)
	default:
		return bson.M{"$or": q.or}
	}
}

// FindOptions возвращает опции сортировки и пагинации
func (q *MongoQueryBuilder) FindOptions() *options.FindOptions {
	opts := options.Find()
	if len(q.sort) > 0 {
		opts.SetSort(q.sort)
	}
	if q.limitValue != nil {
		opts.SetLimit(*q.limitValue)
	}
	if q.skipValue != nil {
		opts.SetSkip(*q.skipValue)
	}
	return opts
}
