// Package migrations предоставляет обертку над goose для управления миграциями схемы базы данных.
package migrations

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/pressly/goose/v3"
)

// Статусы миграции
const (
	StatusPending = "pending"
	StatusApplied = "applied"
)

// MigrationStatus представляет статус миграции
type MigrationStatus struct {
	Version   int64
	Name      string
	AppliedAt *time.Time
	Status    string
}

// MigrationResult результат применения/отката одной миграции
type MigrationResult struct {
	Version   int64
	Name      string
	Direction string
	Duration  time.Duration
}

// Migrator применяет SQL миграции из fs.FS (обычно embed.FS)
type Migrator struct {
	provider *goose.Provider
}

// NewMigrator создает Migrator для PostgreSQL. Файлы миграций должны лежать в корне fsys.
func NewMigrator(db *sql.DB, fsys fs.FS) (*Migrator, error) {
	if db == nil {
		return nil, fmt.Errorf("database connection is required")
	}

	provider, err := goose.NewProvider(goose.DialectPostgres, db, fsys)
	if err != nil {
		return nil, fmt.Errorf("failed to create migration provider: %w", err)
	}
	return &Migrator{provider: provider}, nil
}

// Up применяет все pending миграции
func (m *Migrator) Up(ctx context.Context) ([]MigrationResult, error) {
	results, err := m.provider.Up(ctx)
	if err != nil {
		return convertResults(results), fmt.Errorf("failed to run migrations: %w", err)
	}
	return convertResults(results), nil
}

// UpBy применяет не более steps pending миграций; steps <= 0 означает все
func (m *Migrator) UpBy(ctx context.Context, steps int) ([]MigrationResult, error) {
	if steps <= 0 {
		return m.Up(ctx)
	}

	var applied []MigrationResult
	for i := 0; i < steps; i++ {
		result, err := m.provider.UpByOne(ctx)
		if errors.Is(err, goose.ErrNoNextVersion) {
			break
		}
		if err != nil {
			return applied, fmt.Errorf("failed to run migrations: %w", err)
		}
		applied = append(applied, convertResults([]*goose.MigrationResult{result})...)
	}
	return applied, nil
}

// Down откатывает steps последних миграций (минимум одну)
func (m *Migrator) Down(ctx context.Context, steps int) ([]MigrationResult, error) {
	if steps < 1 {
		steps = 1
	}

	var rolledBack []MigrationResult
	for i := 0; i < steps; i++ {
		result, err := m.provider.Down(ctx)
		if errors.Is(err, goose.ErrNoNextVersion) {
			break
		}
		if err != nil {
			return rolledBack, fmt.Errorf("failed to rollback migration: %w", err)
		}
		rolledBack = append(rolledBack, convertResults([]*goose.MigrationResult{result})...)
	}
	return rolledBack, nil
}

// Status возвращает статус всех миграций
func (m *Migrator) Status(ctx context.Context) ([]MigrationStatus, error) {
	statuses, err := m.provider.Status(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get migration status: %w", err)
	}

	result := make([]MigrationStatus, 0, len(statuses))
	for _, s := range statuses {
		status := MigrationStatus{
			Version: s.Source.Version,
			Name:    filepath.Base(s.Source.Path),
			Status:  StatusPending,
		}
		if s.State == goose.StateApplied {
			appliedAt := s.AppliedAt
			status.AppliedAt = &appliedAt
			status.Status = StatusApplied
		}
		result = append(result, status)
	}
	return result, nil
}

// Version возвращает текущую версию БД
func (m *Migrator) Version(ctx context.Context) (int64, error) {
	version, err := m.provider.GetDBVersion(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to get current version: %w", err)
	}
	return version, nil
}

// Sources возвращает известные миграции в порядке версий
func (m *Migrator) Sources() []MigrationStatus {
	sources := m.provider.ListSources()
	result := make([]MigrationStatus, 0, len(sources))
	for _, s := range sources {
		result = append(result, MigrationStatus{
			Version: s.Version,
			Name:    filepath.Base(s.Path),
			Status:  StatusPending,
		})
	}
	return result
}

// Close закрывает provider
func (m *Migrator) Close() error {
	return m.provider.Close()
}

func convertResults(results []*goose.MigrationResult) []MigrationResult {
	converted := make([]MigrationResult, 0, len(results))
	for _, r := range results {
		if r == nil || r.Source == nil {
			continue
		}
		converted = append(converted, MigrationResult{
			Version:   r.Source.Version,
			Name:      filepath.Base(r.Source.Path),
			Direction: r.Direction,
			Duration:  r.Duration,
		})
	}
	return converted
}

// CreateMigration создает новый файл SQL миграции и возвращает его путь
func CreateMigration(dir, name string) (string, error) {
	if name == "" {
		return "", fmt.Errorf("migration name cannot be empty")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create migrations directory: %w", err)
	}

	// Формат имени goose: YYYYMMDDHHMMSS_name.sql
	now := time.Now().UTC()
	filename := fmt.Sprintf("%s_%s.sql", now.Format("20060102150405"), name)
	path := filepath.Join(dir, filename)

	content := fmt.Sprintf(`-- +goose Up
-- Migration: %s
-- Created: %s


-- +goose Down

`, name, now.Format("2006-01-02 15:04:05"))

	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		return "", fmt.Errorf("failed to create migration file: %w", err)
	}
	return path, nil
}
