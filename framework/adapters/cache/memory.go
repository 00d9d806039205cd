package cache

import (
	"context"
	"time"

	gocache "github.com/patrickmn/go-cache"

	"github.com/akriventsev/catalog/framework/transport"
)

// MemoryConfig конфигурация in-process кэша
type MemoryConfig struct {
	TTL             time.Duration
	CleanupInterval time.Duration
}

// DefaultMemoryConfig возвращает конфигурацию по умолчанию
func DefaultMemoryConfig() MemoryConfig {
	return MemoryConfig{
		TTL:             time.Minute,
		CleanupInterval: 5 * time.Minute,
	}
}

// MemoryQueryCache кэш результатов запросов в памяти процесса (go-cache).
// Значения хранятся как есть, без сериализации.
type MemoryQueryCache struct {
	cache *gocache.Cache
}

// NewMemoryQueryCache создает MemoryQueryCache
func NewMemoryQueryCache(config MemoryConfig) *MemoryQueryCache {
	ttl := config.TTL
	if ttl <= 0 {
		ttl = gocache.NoExpiration
	}
	return &MemoryQueryCache{cache: gocache.New(ttl, config.CleanupInterval)}
}

// Get возвращает закэшированный результат
func (c *MemoryQueryCache) Get(ctx context.Context, q transport.Query) (any, bool) {
	key, err := transport.CacheKey(q)
	if err != nil {
		return nil, false
	}
	return c.cache.Get(key)
}

// Set сохраняет результат с TTL по умолчанию
func (c *MemoryQueryCache) Set(ctx context.Context, q transport.Query, result any) error {
	key, err := transport.CacheKey(q)
	if err != nil {
		return err
	}
	c.cache.SetDefault(key, result)
	return nil
}

// Invalidate удаляет результат одного запроса
func (c *MemoryQueryCache) Invalidate(ctx context.Context, q transport.Query) error {
	key, err := transport.CacheKey(q)
	if err != nil {
		return err
	}
	c.cache.Delete(key)
	return nil
}

// Clear очищает кэш
func (c *MemoryQueryCache) Clear(ctx context.Context) error {
	c.cache.Flush()
	return nil
}

// Count количество записей (включая истекшие, но еще не удаленные)
func (c *MemoryQueryCache) Count() int {
	return c.cache.ItemCount()
}

var _ transport.QueryCache = (*MemoryQueryCache)(nil)
