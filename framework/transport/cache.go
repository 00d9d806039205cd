package transport

import (
	"context"
	"sync"
)

// GenerationalCache QueryCache с номером поколения. Clear и Invalidate
// увеличивают поколение; результат запроса, начатого в предыдущем
// поколении, не записывается.
type GenerationalCache interface {
	QueryCache
	Generation() uint64
	SetIfGeneration(ctx context.Context, query Query, result any, generation uint64) (bool, error)
}

// GenerationCache оборачивает QueryCache счетчиком поколений.
// Командная шина и шина запросов должны использовать один экземпляр.
type GenerationCache struct {
	mu         sync.Mutex
	cache      QueryCache
	generation uint64
}

// NewGenerationCache создает обертку над cache
func NewGenerationCache(cache QueryCache) *GenerationCache {
	return &GenerationCache{cache: cache}
}

// Generation текущее поколение
func (c *GenerationCache) Generation() uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.generation
}

func (c *GenerationCache) Get(ctx context.Context, query Query) (any, bool) {
	return c.cache.Get(ctx, query)
}

// Set записывает результат без проверки поколения
func (c *GenerationCache) Set(ctx context.Context, query Query, result any) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.cache.Set(ctx, query, result)
}

// SetIfGeneration записывает результат, только если с generation не было инвалидации
func (c *GenerationCache) SetIfGeneration(ctx context.Context, query Query, result any, generation uint64) (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.generation != generation {
		return false, nil
	}
	return true, c.cache.Set(ctx, query, result)
}

func (c *GenerationCache) Invalidate(ctx context.Context, query Query) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.generation++
	return c.cache.Invalidate(ctx, query)
}

func (c *GenerationCache) Clear(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.generation++
	return c.cache.Clear(ctx)
}
