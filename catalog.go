// Package catalog сервис каталога видео: категории с поиском, пагинацией
// и сортировкой поверх in-memory, PostgreSQL или MongoDB хранилища.
//
// Запуск:
//
//	catalog --config catalog.toml serve
package catalog

import "fmt"

// Версия сервиса
const (
	Version = "1.0.0"
	Major   = 1
	Minor   = 0
	Patch   = 0
)

// Metadata метаданные сервиса
type Metadata struct {
	Name        string
	Version     string
	Description string
	License     string
}

// GetMetadata возвращает метаданные сервиса
func GetMetadata() Metadata {
	return Metadata{
		Name:        "catalog",
		Version:     Version,
		Description: "Video catalog categories service",
		License:     "MIT",
	}
}

func (m Metadata) String() string {
	return fmt.Sprintf("%s %s", m.Name, m.Version)
}
