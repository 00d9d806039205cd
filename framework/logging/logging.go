// Package logging предоставляет настройку logrus и логирующие interceptors
// для шин команд/запросов и HTTP.
package logging

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/sirupsen/logrus"
	"gopkg.in/natefinch/lumberjack.v2"
)

// Форматы вывода
const (
	FormatJSON = "json"
	FormatText = "text"
)

// Config конфигурация логирования
type Config struct {
	Level  string `toml:"level"`
	Format string `toml:"format"`
	// File путь к файлу лога; пусто = stdout
	File       string `toml:"file"`
	MaxSizeMB  int    `toml:"max_size_mb"`
	MaxBackups int    `toml:"max_backups"`
	MaxAgeDays int    `toml:"max_age_days"`
}

// DefaultConfig возвращает конфигурацию по умолчанию
func DefaultConfig() Config {
	return Config{
		Level:      "info",
		Format:     FormatText,
		MaxSizeMB:  500,
		MaxBackups: 3,
		MaxAgeDays: 28,
	}
}

// Validate проверяет конфигурацию
func (c Config) Validate() error {
	if _, err := logrus.ParseLevel(c.Level); err != nil {
		return fmt.Errorf("invalid log level %q: %w", c.Level, err)
	}
	switch strings.ToLower(c.Format) {
	case FormatJSON, FormatText:
	default:
		return fmt.Errorf("invalid log format %q (expected json or text)", c.Format)
	}
	if c.File != "" && c.MaxSizeMB <= 0 {
		return fmt.Errorf("max_size_mb must be positive when file is set")
	}
	return nil
}

// New создает logger по конфигурации. Возвращаемый io.Closer закрывает файл лога.
func New(cfg Config) (*logrus.Logger, io.Closer, error) {
	if err := cfg.Validate(); err != nil {
		return nil, nil, err
	}

	logger := logrus.New()
	level, _ := logrus.ParseLevel(cfg.Level)
	logger.SetLevel(level)

	if strings.ToLower(cfg.Format) == FormatJSON {
		logger.SetFormatter(&logrus.JSONFormatter{})
	} else {
		logger.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	}

	if cfg.File == "" {
		logger.SetOutput(os.Stdout)
		return logger, nopCloser{}, nil
	}

	file := &lumberjack.Logger{
		Filename:   cfg.File,
		MaxSize:    cfg.MaxSizeMB,
		MaxBackups: cfg.MaxBackups,
		MaxAge:     cfg.MaxAgeDays,
		Compress:   true,
	}
	logger.SetOutput(file)
	return logger, file, nil
}

// Discard logger без вывода (для тестов и утилит)
func Discard() *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return logger
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }
