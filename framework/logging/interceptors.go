package logging

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/akriventsev/catalog/framework/transport"
)

// CommandInterceptor логирует каждую команду: имя, длительность, ошибку
func CommandInterceptor(logger logrus.FieldLogger) transport.CommandInterceptor {
	return transport.CommandInterceptorFunc(func(ctx context.Context, cmd transport.Command, next transport.CommandNext) (any, error) {
		start := time.Now()
		result, err := next(ctx, cmd)

		entry := logger.WithFields(logrus.Fields{
			"command":  cmd.CommandName(),
			"duration": time.Since(start),
		})
		if err != nil {
			entry.WithError(err).Warn("command failed")
		} else {
			entry.Debug("command handled")
		}
		return result, err
	})
}

// QueryInterceptor логирует каждый запрос. Попадания в кэш сюда не доходят.
func QueryInterceptor(logger logrus.FieldLogger) transport.QueryInterceptor {
	return transport.QueryInterceptorFunc(func(ctx context.Context, q transport.Query, next transport.QueryNext) (any, error) {
		start := time.Now()
		result, err := next(ctx, q)

		entry := logger.WithFields(logrus.Fields{
			"query":    q.QueryName(),
			"duration": time.Since(start),
		})
		if err != nil {
			entry.WithError(err).Warn("query failed")
		} else {
			entry.Debug("query handled")
		}
		return result, err
	})
}
