// Package config загружает конфигурацию сервиса каталога из TOML файла
// с переопределением через переменные окружения CATALOG_*.
package config

import (
	_ "embed"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"

	"github.com/akriventsev/catalog/framework/adapters/cache"
	adapterevents "github.com/akriventsev/catalog/framework/adapters/events"
	"github.com/akriventsev/catalog/framework/adapters/repository"
	"github.com/akriventsev/catalog/framework/adapters/transport"
	"github.com/akriventsev/catalog/framework/core"
	"github.com/akriventsev/catalog/framework/events"
	"github.com/akriventsev/catalog/framework/logging"
	"github.com/akriventsev/catalog/framework/metrics"
	"github.com/akriventsev/catalog/framework/observability"
)

//go:embed catalog.toml.sample
var sampleConfig string

// EnvPrefix префикс переменных окружения
const EnvPrefix = "CATALOG_"

// Драйверы хранилища
const (
	StorageInMemory = "inmemory"
	StoragePostgres = "postgres"
	StorageMongoDB  = "mongodb"
)

// Драйверы кэша запросов
const (
	CacheNone   = "none"
	CacheMemory = "memory"
	CacheRedis  = "redis"
)

// Config конфигурация сервиса
type Config struct {
	HTTP     HTTPConfig                  `toml:"http"`
	Storage  StorageConfig               `toml:"storage"`
	Postgres PostgresConfig              `toml:"postgres"`
	Mongo    MongoConfig                 `toml:"mongo"`
	Cache    CacheConfig                 `toml:"cache"`
	Events   EventsConfig                `toml:"events"`
	Logging  logging.Config              `toml:"logging"`
	Metrics  metrics.MetricsConfig       `toml:"metrics"`
	Tracing  observability.TracingConfig `toml:"tracing"`
	Debug    observability.DebugConfig   `toml:"debug"`
}

// Duration time.Duration в виде строки ("15s", "1m")
type Duration struct {
	time.Duration
}

func (d Duration) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

func (d *Duration) UnmarshalText(text []byte) error {
	var err error
	d.Duration, err = time.ParseDuration(string(text))
	return err
}

// HTTPConfig REST сервер
type HTTPConfig struct {
	Addr            string   `toml:"addr"`
	BasePath        string   `toml:"base_path"`
	ReadTimeout     Duration `toml:"read_timeout"`
	WriteTimeout    Duration `toml:"write_timeout"`
	ShutdownTimeout Duration `toml:"shutdown_timeout"`
	CORSOrigins     []string `toml:"cors_origins"`
	// HandlerTimeout ограничение на выполнение команды/запроса, 0 = без ограничения
	HandlerTimeout Duration `toml:"handler_timeout"`
	// ValidateRequests проверять запросы по встроенной OpenAPI спецификации
	ValidateRequests bool `toml:"validate_requests"`
}

// REST конфигурация REST адаптера
func (c HTTPConfig) REST() transport.RESTConfig {
	return transport.RESTConfig{
		Addr:            c.Addr,
		BasePath:        c.BasePath,
		ReadTimeout:     c.ReadTimeout.Duration,
		WriteTimeout:    c.WriteTimeout.Duration,
		ShutdownTimeout: c.ShutdownTimeout.Duration,
		CORSOrigins:     c.CORSOrigins,
	}
}

// StorageConfig выбор хранилища категорий
type StorageConfig struct {
	Driver string `toml:"driver"`
}

// PostgresConfig подключение к PostgreSQL
type PostgresConfig struct {
	DSN             string   `toml:"dsn"`
	MaxOpenConns    int      `toml:"max_open_conns"`
	MaxIdleConns    int      `toml:"max_idle_conns"`
	ConnMaxLifetime Duration `toml:"conn_max_lifetime"`
	// AutoMigrate применять миграции при старте serve
	AutoMigrate bool `toml:"auto_migrate"`
}

// Repository конфигурация соединения для repository.OpenPostgres
func (c PostgresConfig) Repository() repository.PostgresConfig {
	return repository.PostgresConfig{
		DSN:             c.DSN,
		MaxOpenConns:    c.MaxOpenConns,
		MaxIdleConns:    c.MaxIdleConns,
		ConnMaxLifetime: int(c.ConnMaxLifetime.Seconds()),
	}
}

// MongoConfig подключение к MongoDB
type MongoConfig struct {
	URI         string   `toml:"uri"`
	Database    string   `toml:"database"`
	Collection  string   `toml:"collection"`
	Timeout     Duration `toml:"timeout"`
	MaxPoolSize int      `toml:"max_pool_size"`
	MinPoolSize int      `toml:"min_pool_size"`
	// EnsureIndexes создавать индексы поиска при старте
	EnsureIndexes bool `toml:"ensure_indexes"`
}

// Repository конфигурация соединения для repository.ConnectMongo
func (c MongoConfig) Repository() repository.MongoConfig {
	return repository.MongoConfig{
		URI:         c.URI,
		Database:    c.Database,
		Timeout:     int(c.Timeout.Seconds()),
		MaxPoolSize: c.MaxPoolSize,
		MinPoolSize: c.MinPoolSize,
	}
}

// CacheConfig кэш результатов запросов
type CacheConfig struct {
	Driver          string      `toml:"driver"`
	TTL             Duration    `toml:"ttl"`
	CleanupInterval Duration    `toml:"cleanup_interval"`
	Redis           RedisConfig `toml:"redis"`
}

// RedisConfig подключение к Redis
type RedisConfig struct {
	Addr       string `toml:"addr"`
	Password   string `toml:"password"`
	DB         int    `toml:"db"`
	PoolSize   int    `toml:"pool_size"`
	MaxRetries int    `toml:"max_retries"`
	Prefix     string `toml:"prefix"`
}

// Memory конфигурация go-cache
func (c CacheConfig) Memory() cache.MemoryConfig {
	return cache.MemoryConfig{
		TTL:             c.TTL.Duration,
		CleanupInterval: c.CleanupInterval.Duration,
	}
}

// RedisCache конфигурация Redis кэша
func (c CacheConfig) RedisCache() cache.RedisConfig {
	return cache.RedisConfig{
		Addr:       c.Redis.Addr,
		Password:   c.Redis.Password,
		DB:         c.Redis.DB,
		PoolSize:   c.Redis.PoolSize,
		MaxRetries: c.Redis.MaxRetries,
		Prefix:     c.Redis.Prefix,
		TTL:        c.TTL.Duration,
	}
}

// EventsConfig публикация доменных событий
type EventsConfig struct {
	Driver string      `toml:"driver"`
	NATS   NATSConfig  `toml:"nats"`
	Kafka  KafkaConfig `toml:"kafka"`
	Retry  RetryConfig `toml:"retry"`
}

// NATSConfig NATS publisher
type NATSConfig struct {
	URL           string   `toml:"url"`
	SubjectPrefix string   `toml:"subject_prefix"`
	Timeout       Duration `toml:"timeout"`
}

// KafkaConfig Kafka publisher
type KafkaConfig struct {
	Brokers       []string `toml:"brokers"`
	TopicPrefix   string   `toml:"topic_prefix"`
	Compression   string   `toml:"compression"`
	BatchSize     int      `toml:"batch_size"`
	FlushInterval Duration `toml:"flush_interval"`
}

// RetryConfig повторы публикации
type RetryConfig struct {
	MaxAttempts       int      `toml:"max_attempts"`
	InitialDelay      Duration `toml:"initial_delay"`
	MaxDelay          Duration `toml:"max_delay"`
	BackoffMultiplier float64  `toml:"backoff_multiplier"`
}

// Publisher конфигурация фабрики publisher'ов
func (c EventsConfig) Publisher() adapterevents.Config {
	return adapterevents.Config{
		Driver: c.Driver,
		NATS: adapterevents.NATSConfig{
			URL:           c.NATS.URL,
			SubjectPrefix: c.NATS.SubjectPrefix,
			Timeout:       c.NATS.Timeout.Duration,
			Retry: events.RetryConfig{
				MaxAttempts:       c.Retry.MaxAttempts,
				InitialDelay:      c.Retry.InitialDelay.Duration,
				MaxDelay:          c.Retry.MaxDelay.Duration,
				BackoffMultiplier: c.Retry.BackoffMultiplier,
			},
		},
		Kafka: adapterevents.KafkaConfig{
			Brokers:       c.Kafka.Brokers,
			TopicPrefix:   c.Kafka.TopicPrefix,
			Compression:   c.Kafka.Compression,
			BatchSize:     c.Kafka.BatchSize,
			FlushInterval: c.Kafka.FlushInterval.Duration,
		},
	}
}

// Default конфигурация по умолчанию
func Default() *Config {
	rest := transport.DefaultRESTConfig()
	pg := repository.DefaultPostgresConfig()
	mongo := repository.DefaultMongoConfig()
	memory := cache.DefaultMemoryConfig()
	redis := cache.DefaultRedisConfig()
	publisher := adapterevents.DefaultConfig()

	return &Config{
		HTTP: HTTPConfig{
			Addr:            rest.Addr,
			BasePath:        rest.BasePath,
			ReadTimeout:     Duration{rest.ReadTimeout},
			WriteTimeout:    Duration{rest.WriteTimeout},
			ShutdownTimeout: Duration{rest.ShutdownTimeout},
		},
		Storage: StorageConfig{Driver: StorageInMemory},
		Postgres: PostgresConfig{
			MaxOpenConns:    pg.MaxOpenConns,
			MaxIdleConns:    pg.MaxIdleConns,
			ConnMaxLifetime: Duration{time.Duration(pg.ConnMaxLifetime) * time.Second},
		},
		Mongo: MongoConfig{
			Database:    mongo.Database,
			Collection:  "categories",
			Timeout:     Duration{time.Duration(mongo.Timeout) * time.Second},
			MaxPoolSize: mongo.MaxPoolSize,
			MinPoolSize: mongo.MinPoolSize,
		},
		Cache: CacheConfig{
			Driver:          CacheMemory,
			TTL:             Duration{memory.TTL},
			CleanupInterval: Duration{memory.CleanupInterval},
			Redis: RedisConfig{
				Addr:       redis.Addr,
				PoolSize:   redis.PoolSize,
				MaxRetries: redis.MaxRetries,
				Prefix:     redis.Prefix,
			},
		},
		Events: EventsConfig{
			Driver: publisher.Driver,
			NATS: NATSConfig{
				URL:           publisher.NATS.URL,
				SubjectPrefix: publisher.NATS.SubjectPrefix,
				Timeout:       Duration{publisher.NATS.Timeout},
			},
			Kafka: KafkaConfig{
				Brokers:       publisher.Kafka.Brokers,
				TopicPrefix:   publisher.Kafka.TopicPrefix,
				Compression:   publisher.Kafka.Compression,
				BatchSize:     publisher.Kafka.BatchSize,
				FlushInterval: Duration{publisher.Kafka.FlushInterval},
			},
			Retry: RetryConfig{
				MaxAttempts:       publisher.NATS.Retry.MaxAttempts,
				InitialDelay:      Duration{publisher.NATS.Retry.InitialDelay},
				MaxDelay:          Duration{publisher.NATS.Retry.MaxDelay},
				BackoffMultiplier: publisher.NATS.Retry.BackoffMultiplier,
			},
		},
		Logging: logging.DefaultConfig(),
		Metrics: metrics.DefaultMetricsConfig(),
		Tracing: observability.DefaultTracingConfig(),
		Debug:   observability.DefaultDebugConfig(),
	}
}

// Load читает конфигурацию из файла поверх значений по умолчанию.
// Отсутствующий файл не ошибка. Переменные окружения применяются последними.
func Load(path string) (*Config, error) {
	config := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case errors.Is(err, os.ErrNotExist):
		case err != nil:
			return nil, fmt.Errorf("reading config file: %w", err)
		default:
			if err := toml.Unmarshal(data, config); err != nil {
				return nil, fmt.Errorf("unmarshaling config: %w", err)
			}
		}
	}

	if err := config.applyEnv(os.LookupEnv); err != nil {
		return nil, err
	}
	return config, nil
}

// applyEnv переопределяет адреса и DSN из окружения
func (c *Config) applyEnv(lookup func(string) (string, bool)) error {
	strs := map[string]*string{
		"HTTP_ADDR":      &c.HTTP.Addr,
		"STORAGE_DRIVER": &c.Storage.Driver,
		"POSTGRES_DSN":   &c.Postgres.DSN,
		"MONGO_URI":      &c.Mongo.URI,
		"MONGO_DATABASE": &c.Mongo.Database,
		"CACHE_DRIVER":   &c.Cache.Driver,
		"REDIS_ADDR":     &c.Cache.Redis.Addr,
		"REDIS_PASSWORD": &c.Cache.Redis.Password,
		"EVENTS_DRIVER":  &c.Events.Driver,
		"NATS_URL":       &c.Events.NATS.URL,
		"LOG_LEVEL":      &c.Logging.Level,
		"LOG_FORMAT":     &c.Logging.Format,
		"OTLP_ENDPOINT":  &c.Tracing.ExporterEndpoint,
	}
	for name, target := range strs {
		if value, ok := lookup(EnvPrefix + name); ok {
			*target = value
		}
	}

	if value, ok := lookup(EnvPrefix + "KAFKA_BROKERS"); ok {
		brokers := make([]string, 0)
		for _, broker := range strings.Split(value, ",") {
			if broker = strings.TrimSpace(broker); broker != "" {
				brokers = append(brokers, broker)
			}
		}
		c.Events.Kafka.Brokers = brokers
	}

	if value, ok := lookup(EnvPrefix + "TRACING_ENABLED"); ok {
		enabled, err := strconv.ParseBool(value)
		if err != nil {
			return fmt.Errorf("parsing %sTRACING_ENABLED: %w", EnvPrefix, err)
		}
		c.Tracing.Enabled = enabled
	}
	return nil
}

// Validate проверяет секции, которые будут использоваться
func (c *Config) Validate() error {
	if err := c.HTTP.REST().Validate(); err != nil {
		return err
	}
	if c.HTTP.HandlerTimeout.Duration < 0 {
		return core.NewError(core.ErrInvalidConfig, "handler timeout must not be negative")
	}

	switch c.Storage.Driver {
	case StorageInMemory:
	case StoragePostgres:
		if err := c.Postgres.Repository().Validate(); err != nil {
			return fmt.Errorf("postgres: %w", err)
		}
	case StorageMongoDB:
		if err := c.Mongo.Repository().Validate(); err != nil {
			return fmt.Errorf("mongo: %w", err)
		}
		if c.Mongo.Collection == "" {
			return core.NewError(core.ErrInvalidConfig, "mongo collection is required")
		}
	default:
		return core.NewError(core.ErrInvalidConfig, fmt.Sprintf("unknown storage driver: %s", c.Storage.Driver))
	}

	switch c.Cache.Driver {
	case CacheNone, CacheMemory:
	case CacheRedis:
		if err := c.Cache.RedisCache().Validate(); err != nil {
			return fmt.Errorf("redis: %w", err)
		}
	default:
		return core.NewError(core.ErrInvalidConfig, fmt.Sprintf("unknown cache driver: %s", c.Cache.Driver))
	}

	if err := c.Events.Publisher().Validate(); err != nil {
		return fmt.Errorf("events: %w", err)
	}
	if err := c.Logging.Validate(); err != nil {
		return fmt.Errorf("logging: %w", err)
	}
	if err := c.Metrics.Validate(); err != nil {
		return fmt.Errorf("metrics: %w", err)
	}
	if err := c.Tracing.Validate(); err != nil {
		return fmt.Errorf("tracing: %w", err)
	}
	return nil
}

// Save записывает конфигурацию в TOML
func (c *Config) Save(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}

	data, err := toml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}
	return os.WriteFile(path, data, 0644)
}

// WriteSample записывает закомментированный пример конфигурации
func WriteSample(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}
	return os.WriteFile(path, []byte(sampleConfig), 0644)
}
