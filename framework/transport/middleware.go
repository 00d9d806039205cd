package transport

import (
	"context"
	"encoding/json"
	"fmt"
	"time"
)

// RecoveryCommandInterceptor превращает панику обработчика в ошибку
func RecoveryCommandInterceptor() CommandInterceptor {
	return CommandInterceptorFunc(func(ctx context.Context, cmd Command, next CommandNext) (result any, err error) {
		defer func() {
			if r := recover(); r != nil {
				err = fmt.Errorf("panic recovered in command %s: %v", cmd.CommandName(), r)
			}
		}()
		return next(ctx, cmd)
	})
}

// RecoveryQueryInterceptor превращает панику обработчика в ошибку
func RecoveryQueryInterceptor() QueryInterceptor {
	return QueryInterceptorFunc(func(ctx context.Context, q Query, next QueryNext) (result any, err error) {
		defer func() {
			if r := recover(); r != nil {
				err = fmt.Errorf("panic recovered in query %s: %v", q.QueryName(), r)
			}
		}()
		return next(ctx, q)
	})
}

// TimeoutCommandInterceptor добавляет timeout к выполнению команды
func TimeoutCommandInterceptor(timeout time.Duration) CommandInterceptor {
	return CommandInterceptorFunc(func(ctx context.Context, cmd Command, next CommandNext) (any, error) {
		ctx, cancel := context.WithTimeout(ctx, timeout)
		defer cancel()
		return next(ctx, cmd)
	})
}

// TimeoutQueryInterceptor добавляет timeout к выполнению запроса
func TimeoutQueryInterceptor(timeout time.Duration) QueryInterceptor {
	return QueryInterceptorFunc(func(ctx context.Context, q Query, next QueryNext) (any, error) {
		ctx, cancel := context.WithTimeout(ctx, timeout)
		defer cancel()
		return next(ctx, q)
	})
}

// CacheInvalidationInterceptor очищает кэш запросов после успешной команды
func CacheInvalidationInterceptor(cache QueryCache) CommandInterceptor {
	return CommandInterceptorFunc(func(ctx context.Context, cmd Command, next CommandNext) (any, error) {
		result, err := next(ctx, cmd)
		if err == nil && cache != nil {
			if cacheErr := cache.Clear(ctx); cacheErr != nil {
				return result, fmt.Errorf("command %s succeeded but cache invalidation failed: %w", cmd.CommandName(), cacheErr)
			}
		}
		return result, err
	})
}

// CacheKey ключ кэша запроса: имя и JSON представление полей
func CacheKey(q Query) (string, error) {
	payload, err := json.Marshal(q)
	if err != nil {
		return "", fmt.Errorf("failed to build cache key for %s: %w", q.QueryName(), err)
	}
	return q.QueryName() + ":" + string(payload), nil
}
