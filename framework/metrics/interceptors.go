package metrics

import (
	"context"
	"time"

	"github.com/akriventsev/catalog/framework/events"
	"github.com/akriventsev/catalog/framework/transport"
)

// CommandInterceptor записывает метрики команд
func CommandInterceptor(m *Metrics) transport.CommandInterceptor {
	return transport.CommandInterceptorFunc(func(ctx context.Context, cmd transport.Command, next transport.CommandNext) (any, error) {
		m.IncrementActiveCommands(ctx)
		defer m.DecrementActiveCommands(ctx)

		start := time.Now()
		result, err := next(ctx, cmd)
		m.RecordCommand(ctx, cmd.CommandName(), time.Since(start), err == nil)
		return result, err
	})
}

// QueryInterceptor записывает метрики запросов
func QueryInterceptor(m *Metrics) transport.QueryInterceptor {
	return transport.QueryInterceptorFunc(func(ctx context.Context, q transport.Query, next transport.QueryNext) (any, error) {
		m.IncrementActiveQueries(ctx)
		defer m.DecrementActiveQueries(ctx)

		start := time.Now()
		result, err := next(ctx, q)
		m.RecordQuery(ctx, q.QueryName(), time.Since(start), err == nil)
		return result, err
	})
}

// EventPublisher оборачивает публикатор метриками событий
func EventPublisher(m *Metrics, publisher events.EventPublisher) events.EventPublisher {
	return &instrumentedPublisher{metrics: m, next: publisher}
}

type instrumentedPublisher struct {
	metrics *Metrics
	next    events.EventPublisher
}

func (p *instrumentedPublisher) Publish(ctx context.Context, event events.Event) error {
	err := p.next.Publish(ctx, event)
	p.metrics.RecordEvent(ctx, event.EventType(), err == nil)
	return err
}
