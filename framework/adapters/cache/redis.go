// Package cache предоставляет реализации transport.QueryCache.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/akriventsev/catalog/framework/core"
	"github.com/akriventsev/catalog/framework/transport"
)

// RedisConfig конфигурация для Redis кэша
type RedisConfig struct {
	Addr       string
	Password   string
	DB         int
	PoolSize   int
	MaxRetries int
	Prefix     string
	TTL        time.Duration
}

// Validate проверяет корректность конфигурации
func (c RedisConfig) Validate() error {
	if c.Addr == "" {
		return core.NewError(core.ErrInvalidConfig, "redis addr cannot be empty")
	}
	if c.Prefix == "" {
		return core.NewError(core.ErrInvalidConfig, "redis cache prefix cannot be empty")
	}
	if c.TTL < 0 {
		return core.NewError(core.ErrInvalidConfig, "redis cache ttl cannot be negative")
	}
	return nil
}

// DefaultRedisConfig возвращает конфигурацию Redis по умолчанию
func DefaultRedisConfig() RedisConfig {
	return RedisConfig{
		Addr:       "localhost:6379",
		PoolSize:   10,
		MaxRetries: 3,
		Prefix:     "catalog:query",
		TTL:        time.Minute,
	}
}

// NewRedisClient создает клиента и проверяет подключение
func NewRedisClient(ctx context.Context, config RedisConfig) (*redis.Client, error) {
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid redis config: %w", err)
	}

	client := redis.NewClient(&redis.Options{
		Addr:       config.Addr,
		Password:   config.Password,
		DB:         config.DB,
		PoolSize:   config.PoolSize,
		MaxRetries: config.MaxRetries,
	})

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}
	return client, nil
}

// RedisQueryCache кэш результатов запросов в Redis.
// Результаты хранятся как JSON; Get возвращает json.RawMessage.
type RedisQueryCache struct {
	client redis.UniversalClient
	prefix string
	ttl    time.Duration
}

// NewRedisQueryCache создает RedisQueryCache поверх существующего клиента
func NewRedisQueryCache(client redis.UniversalClient, config RedisConfig) *RedisQueryCache {
	prefix := config.Prefix
	if prefix == "" {
		prefix = DefaultRedisConfig().Prefix
	}
	return &RedisQueryCache{client: client, prefix: prefix, ttl: config.TTL}
}

// Key полный ключ Redis для запроса
func (c *RedisQueryCache) Key(q transport.Query) (string, error) {
	key, err := transport.CacheKey(q)
	if err != nil {
		return "", err
	}
	return c.prefix + ":" + key, nil
}

// Get возвращает закэшированный результат. Ошибка Redis трактуется как промах.
func (c *RedisQueryCache) Get(ctx context.Context, q transport.Query) (any, bool) {
	key, err := c.Key(q)
	if err != nil {
		return nil, false
	}

	payload, err := c.client.Get(ctx, key).Bytes()
	if err != nil {
		return nil, false
	}
	return json.RawMessage(payload), true
}

// Set сохраняет результат с TTL (0 = без истечения)
func (c *RedisQueryCache) Set(ctx context.Context, q transport.Query, result any) error {
	key, err := c.Key(q)
	if err != nil {
		return err
	}

	payload, err := json.Marshal(result)
	if err != nil {
		return fmt.Errorf("failed to marshal result of %s: %w", q.QueryName(), err)
	}

	if err := c.client.Set(ctx, key, payload, c.ttl).Err(); err != nil {
		return fmt.Errorf("failed to cache result of %s: %w", q.QueryName(), err)
	}
	return nil
}

// Invalidate удаляет результат одного запроса
func (c *RedisQueryCache) Invalidate(ctx context.Context, q transport.Query) error {
	key, err := c.Key(q)
	if err != nil {
		return err
	}
	if err := c.client.Del(ctx, key).Err(); err != nil && !errors.Is(err, redis.Nil) {
		return fmt.Errorf("failed to invalidate %s: %w", key, err)
	}
	return nil
}

// Clear удаляет все ключи с префиксом кэша
func (c *RedisQueryCache) Clear(ctx context.Context) error {
	iter := c.client.Scan(ctx, 0, c.prefix+":*", 100).Iterator()

	keys := make([]string, 0, 100)
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
		if len(keys) == cap(keys) {
			if err := c.client.Del(ctx, keys...).Err(); err != nil {
				return fmt.Errorf("failed to clear query cache: %w", err)
			}
			keys = keys[:0]
		}
	}
	if err := iter.Err(); err != nil {
		return fmt.Errorf("failed to scan query cache: %w", err)
	}

	if len(keys) > 0 {
		if err := c.client.Del(ctx, keys...).Err(); err != nil {
			return fmt.Errorf("failed to clear query cache: %w", err)
		}
	}
	return nil
}

var _ transport.QueryCache = (*RedisQueryCache)(nil)
