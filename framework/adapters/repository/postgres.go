package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	_ "github.com/jackc/pgx/v5/stdlib" // регистрирует драйвер "pgx" для database/sql

	"github.com/akriventsev/catalog/framework/core"
)

// SQLSTATE коды PostgreSQL
const (
	pgUniqueViolation           = "23505"
	pgInvalidTextRepresentation = "22P02" // например, некорректный UUID
)

// PostgresConfig конфигурация подключения к PostgreSQL
type PostgresConfig struct {
	DSN             string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime int // в секундах
}

// Validate проверяет корректность конфигурации
func (c PostgresConfig) Validate() error {
	if c.DSN == "" {
		return fmt.Errorf("DSN cannot be empty")
	}
	if c.MaxOpenConns <= 0 {
		return fmt.Errorf("MaxOpenConns must be greater than 0")
	}
	if c.MaxIdleConns <= 0 {
		return fmt.Errorf("MaxIdleConns must be greater than 0")
	}
	return nil
}

// DefaultPostgresConfig возвращает конфигурацию PostgreSQL по умолчанию
func DefaultPostgresConfig() PostgresConfig {
	return PostgresConfig{
		MaxOpenConns:    25,
		MaxIdleConns:    5,
		ConnMaxLifetime: 300,
	}
}

// OpenPostgres открывает пул соединений через pgx stdlib и проверяет подключение
func OpenPostgres(ctx context.Context, config PostgresConfig) (*sql.DB, error) {
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid postgres config: %w", err)
	}

	db, err := sql.Open("pgx", config.DSN)
	if err != nil {
		return nil, fmt.Errorf("failed to open PostgreSQL: %w", err)
	}
	db.SetMaxOpenConns(config.MaxOpenConns)
	db.SetMaxIdleConns(config.MaxIdleConns)
	db.SetConnMaxLifetime(time.Duration(config.ConnMaxLifetime) * time.Second)

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to connect to PostgreSQL: %w", err)
	}
	return db, nil
}

// PostgresTableConfig описывает таблицу searchable репозитория
type PostgresTableConfig struct {
	EntityName      string
	SchemaName      string
	TableName       string
	IDColumn        string
	CreatedAtColumn string
	// FilterColumns колонки для ILIKE поиска (объединяются через OR)
	FilterColumns []string
	// SortableColumns разрешенные поля сортировки; имена совпадают с колонками.
	// Все, кроме CreatedAtColumn, должны быть текстовыми (сортировка COLLATE "C").
	SortableColumns []string
	// DefaultOrder направление сортировки по CreatedAtColumn без sort
	DefaultOrder SortDirection
}

// Validate проверяет идентификаторы, которые попадают в SQL без плейсхолдеров
func (c PostgresTableConfig) Validate() error {
	if c.TableName == "" {
		return fmt.Errorf("TableName cannot be empty")
	}
	idents := []string{c.TableName, c.IDColumn, c.CreatedAtColumn}
	if c.SchemaName != "" {
		idents = append(idents, c.SchemaName)
	}
	idents = append(idents, c.FilterColumns...)
	idents = append(idents, c.SortableColumns...)
	for _, ident := range idents {
		if err := ValidateIdentifier(ident); err != nil {
			return err
		}
	}
	if c.DefaultOrder != "" && c.DefaultOrder != Asc && c.DefaultOrder != Desc {
		return fmt.Errorf("invalid default order %q", c.DefaultOrder)
	}
	return nil
}

func (c PostgresTableConfig) qualifiedTable() string {
	if c.SchemaName == "" {
		return c.TableName
	}
	return c.SchemaName + "." + c.TableName
}

// RowScanner общий интерфейс *sql.Row и *sql.Rows
type RowScanner interface {
	Scan(dest ...any) error
}

// RowMapper преобразует entity в строку таблицы и обратно.
// ToRow возвращает значения в порядке Columns().
type RowMapper[T Entity] interface {
	Columns() []string
	ToRow(entity T) ([]any, error)
	Scan(row RowScanner) (T, error)
}

// PostgresSearchableRepository[T Entity] generic PostgreSQL репозиторий с поиском.
// Filter/sort/paginate выполняются на стороне БД.
type PostgresSearchableRepository[T Entity] struct {
	config PostgresTableConfig
	db     *sql.DB
	mapper RowMapper[T]
}

// NewPostgresSearchableRepository создает новый PostgreSQL репозиторий
func NewPostgresSearchableRepository[T Entity](db *sql.DB, config PostgresTableConfig, mapper RowMapper[T]) (*PostgresSearchableRepository[T], error) {
	if db == nil {
		return nil, fmt.Errorf("db cannot be nil")
	}
	if mapper == nil {
		return nil, fmt.Errorf("mapper cannot be nil")
	}
	if config.IDColumn == "" {
		config.IDColumn = "id"
	}
	if config.CreatedAtColumn == "" {
		config.CreatedAtColumn = "created_at"
	}
	if config.EntityName == "" {
		config.EntityName = "Entity"
	}
	if config.DefaultOrder == "" {
		config.DefaultOrder = Asc
	}
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid postgres table config: %w", err)
	}
	for _, column := range mapper.Columns() {
		if err := ValidateIdentifier(column); err != nil {
			return nil, fmt.Errorf("invalid mapper column: %w", err)
		}
	}
	if !slices.Contains(mapper.Columns(), config.IDColumn) {
		return nil, fmt.Errorf("mapper columns must include id column %q", config.IDColumn)
	}

	return &PostgresSearchableRepository[T]{
		config: config,
		db:     db,
		mapper: mapper,
	}, nil
}

// Name возвращает имя компонента (реализация core.Component)
func (p *PostgresSearchableRepository[T]) Name() string {
	return "postgres-repository"
}

// HealthCheck проверяет соединение с БД (реализация core.HealthCheckable)
func (p *PostgresSearchableRepository[T]) HealthCheck(ctx context.Context) error {
	return p.db.PingContext(ctx)
}

// SortableFields возвращает поля, по которым разрешена сортировка
func (p *PostgresSearchableRepository[T]) SortableFields() []string {
	return slices.Clone(p.config.SortableColumns)
}

type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

// Insert сохраняет новую entity
func (p *PostgresSearchableRepository[T]) Insert(ctx context.Context, entity T) error {
	return p.insert(ctx, p.db, entity)
}

// BulkInsert сохраняет entities в одной транзакции
func (p *PostgresSearchableRepository[T]) BulkInsert(ctx context.Context, entities []T) error {
	if len(entities) == 0 {
		return nil
	}

	tx, err := p.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}

	for _, entity := range entities {
		if err := p.insert(ctx, tx, entity); err != nil {
			_ = tx.Rollback()
			return err
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

func (p *PostgresSearchableRepository[T]) insert(ctx context.Context, exec execer, entity T) error {
	values, err := p.mapper.ToRow(entity)
	if err != nil {
		return fmt.Errorf("failed to convert entity to row: %w", err)
	}

	columns := p.mapper.Columns()
	placeholders := make([]string, len(columns))
	for i := range columns {
		placeholders[i] = fmt.Sprintf("$%d", i+1)
	}
	query := fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s)",
		p.config.qualifiedTable(), strings.Join(columns, ", "), strings.Join(placeholders, ", "))

	if _, err := exec.ExecContext(ctx, query, values...); err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation {
			return core.Wrap(core.ErrEntityExists, core.ErrAlreadyExists,
				fmt.Sprintf("%s with ID %s already exists", p.config.EntityName, entity.ID()))
		}
		return fmt.Errorf("failed to insert entity: %w", err)
	}
	return nil
}

// FindByID находит entity по ID
func (p *PostgresSearchableRepository[T]) FindByID(ctx context.Context, id string) (T, error) {
	var zero T

	query, args := NewPostgresQueryBuilder(p.config.qualifiedTable(), p.mapper.Columns()...).
		WhereEq(p.config.IDColumn, id).
		Build()

	entity, err := p.mapper.Scan(p.db.QueryRowContext(ctx, query, args...))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) || isInvalidID(err) {
			return zero, core.NewNotFoundError(p.config.EntityName, id)
		}
		return zero, fmt.Errorf("failed to find entity: %w", err)
	}
	return entity, nil
}

// FindAll возвращает все entities в порядке CreatedAt
func (p *PostgresSearchableRepository[T]) FindAll(ctx context.Context) ([]T, error) {
	query, args := NewPostgresQueryBuilder(p.config.qualifiedTable(), p.mapper.Columns()...).
		OrderBy(p.config.CreatedAtColumn, Asc).
		Build()
	return p.query(ctx, query, args)
}

// Update заменяет существующую entity
func (p *PostgresSearchableRepository[T]) Update(ctx context.Context, entity T) error {
	values, err := p.mapper.ToRow(entity)
	if err != nil {
		return fmt.Errorf("failed to convert entity to row: %w", err)
	}

	columns := p.mapper.Columns()
	sets := make([]string, 0, len(columns))
	args := make([]any, 0, len(columns))
	for i, column := range columns {
		if column == p.config.IDColumn {
			continue
		}
		args = append(args, values[i])
		sets = append(sets, fmt.Sprintf("%s = $%d", column, len(args)))
	}
	args = append(args, entity.ID())

	query := fmt.Sprintf("UPDATE %s SET %s WHERE %s = $%d",
		p.config.qualifiedTable(), strings.Join(sets, ", "), p.config.IDColumn, len(args))

	result, err := p.db.ExecContext(ctx, query, args...)
	if err != nil {
		if isInvalidID(err) {
			return core.NewNotFoundError(p.config.EntityName, entity.ID())
		}
		return fmt.Errorf("failed to update entity: %w", err)
	}
	return p.expectAffected(result, entity.ID())
}

// Delete удаляет entity
func (p *PostgresSearchableRepository[T]) Delete(ctx context.Context, id string) error {
	query := fmt.Sprintf("DELETE FROM %s WHERE %s = $1", p.config.qualifiedTable(), p.config.IDColumn)

	result, err := p.db.ExecContext(ctx, query, id)
	if err != nil {
		if isInvalidID(err) {
			return core.NewNotFoundError(p.config.EntityName, id)
		}
		return fmt.Errorf("failed to delete entity: %w", err)
	}
	return p.expectAffected(result, id)
}

// isInvalidID значение ID не приводится к типу колонки: такой записи быть не может
func isInvalidID(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == pgInvalidTextRepresentation
}

func (p *PostgresSearchableRepository[T]) expectAffected(result sql.Result, id string) error {
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read affected rows: %w", err)
	}
	if affected == 0 {
		return core.NewNotFoundError(p.config.EntityName, id)
	}
	return nil
}

// Search выполняет поиск: WHERE ILIKE, ORDER BY, LIMIT/OFFSET и отдельный COUNT(*)
func (p *PostgresSearchableRepository[T]) Search(ctx context.Context, params SearchParams) (SearchResult[T], error) {
	builder := p.SearchQuery(params)

	query, args := builder.Build()
	items, err := p.query(ctx, query, args)
	if err != nil {
		return SearchResult[T]{}, err
	}

	countQuery, countArgs := builder.BuildCount()
	var total int
	if err := p.db.QueryRowContext(ctx, countQuery, countArgs...).Scan(&total); err != nil {
		return SearchResult[T]{}, fmt.Errorf("failed to count: %w", err)
	}

	return NewSearchResultFromParams(items, total, params), nil
}

// SearchQuery строит запрос для params (экспортирован для тестирования)
func (p *PostgresSearchableRepository[T]) SearchQuery(params SearchParams) *PostgresQueryBuilder {
	builder := NewPostgresQueryBuilder(p.config.qualifiedTable(), p.mapper.Columns()...)

	if params.Filter().IsSome() {
		builder.WhereILike(p.config.FilterColumns, params.Filter().Value())
	}

	if params.Sort().IsSome() && isSortable(p.config.SortableColumns, params.Sort().Value()) {
		sort, dir := params.Sort().Value(), params.SortDir().ValueOr(Asc)
		if sort == p.config.CreatedAtColumn {
			builder.OrderBy(sort, dir)
		} else {
			builder.OrderByCollate(sort, "C", dir).OrderBy(p.config.CreatedAtColumn, Asc)
		}
	} else {
		builder.OrderBy(p.config.CreatedAtColumn, p.config.DefaultOrder)
	}

	return builder.Page(params.Page(), params.PerPage())
}

func (p *PostgresSearchableRepository[T]) query(ctx context.Context, query string, args []any) ([]T, error) {
	rows, err := p.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to execute query: %w", err)
	}
	defer func() {
		_ = rows.Close()
	}()

	entities := make([]T, 0)
	for rows.Next() {
		entity, err := p.mapper.Scan(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan entity: %w", err)
		}
		entities = append(entities, entity)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate rows: %w", err)
	}
	return entities, nil
}
