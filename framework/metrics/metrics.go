// Package metrics предоставляет систему метрик на основе OpenTelemetry.
package metrics

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// MeterName имя meter сервиса
const MeterName = "catalog"

// Metrics сборщик метрик приложения
type Metrics struct {
	commandsTotal      metric.Int64Counter
	queriesTotal       metric.Int64Counter
	eventsTotal        metric.Int64Counter
	commandDuration    metric.Float64Histogram
	queryDuration      metric.Float64Histogram
	errorsTotal        metric.Int64Counter
	activeCommands     metric.Int64UpDownCounter
	activeQueries      metric.Int64UpDownCounter
	repositoryOps      metric.Int64Counter
	repositoryDuration metric.Float64Histogram
}

// New создает сборщик метрик на указанном MeterProvider
func New(provider metric.MeterProvider) (*Metrics, error) {
	meter := provider.Meter(MeterName)
	m := &Metrics{}

	var err error
	if m.commandsTotal, err = meter.Int64Counter(
		"commands_total",
		metric.WithDescription("Total number of commands processed"),
	); err != nil {
		return nil, err
	}

	if m.queriesTotal, err = meter.Int64Counter(
		"queries_total",
		metric.WithDescription("Total number of queries processed"),
	); err != nil {
		return nil, err
	}

	if m.eventsTotal, err = meter.Int64Counter(
		"events_total",
		metric.WithDescription("Total number of events published"),
	); err != nil {
		return nil, err
	}

	if m.commandDuration, err = meter.Float64Histogram(
		"command_duration_seconds",
		metric.WithDescription("Command processing duration in seconds"),
		metric.WithUnit("s"),
	); err != nil {
		return nil, err
	}

	if m.queryDuration, err = meter.Float64Histogram(
		"query_duration_seconds",
		metric.WithDescription("Query processing duration in seconds"),
		metric.WithUnit("s"),
	); err != nil {
		return nil, err
	}

	if m.errorsTotal, err = meter.Int64Counter(
		"errors_total",
		metric.WithDescription("Total number of errors"),
	); err != nil {
		return nil, err
	}

	if m.activeCommands, err = meter.Int64UpDownCounter(
		"active_commands",
		metric.WithDescription("Number of active commands being processed"),
	); err != nil {
		return nil, err
	}

	if m.activeQueries, err = meter.Int64UpDownCounter(
		"active_queries",
		metric.WithDescription("Number of active queries being processed"),
	); err != nil {
		return nil, err
	}

	if m.repositoryOps, err = meter.Int64Counter(
		"repository_operations_total",
		metric.WithDescription("Total number of repository operations"),
	); err != nil {
		return nil, err
	}

	if m.repositoryDuration, err = meter.Float64Histogram(
		"repository_operation_duration_seconds",
		metric.WithDescription("Repository operation duration in seconds"),
		metric.WithUnit("s"),
	); err != nil {
		return nil, err
	}

	return m, nil
}

// RecordCommand записывает метрику команды
func (m *Metrics) RecordCommand(ctx context.Context, commandName string, duration time.Duration, success bool) {
	attrs := []attribute.KeyValue{
		attribute.String("command", commandName),
		attribute.Bool("success", success),
	}

	m.commandsTotal.Add(ctx, 1, metric.WithAttributes(attrs...))
	m.commandDuration.Record(ctx, duration.Seconds(), metric.WithAttributes(attrs...))

	if !success {
		m.errorsTotal.Add(ctx, 1, metric.WithAttributes(
			attribute.String("type", "command"),
			attribute.String("command", commandName),
		))
	}
}

// RecordQuery записывает метрику запроса
func (m *Metrics) RecordQuery(ctx context.Context, queryName string, duration time.Duration, success bool) {
	attrs := []attribute.KeyValue{
		attribute.String("query", queryName),
		attribute.Bool("success", success),
	}

	m.queriesTotal.Add(ctx, 1, metric.WithAttributes(attrs...))
	m.queryDuration.Record(ctx, duration.Seconds(), metric.WithAttributes(attrs...))

	if !success {
		m.errorsTotal.Add(ctx, 1, metric.WithAttributes(
			attribute.String("type", "query"),
			attribute.String("query", queryName),
		))
	}
}

// RecordEvent записывает метрику события
func (m *Metrics) RecordEvent(ctx context.Context, eventType string, success bool) {
	m.eventsTotal.Add(ctx, 1, metric.WithAttributes(
		attribute.String("event", eventType),
		attribute.Bool("success", success),
	))

	if !success {
		m.errorsTotal.Add(ctx, 1, metric.WithAttributes(
			attribute.String("type", "event"),
			attribute.String("event", eventType),
		))
	}
}

// RecordRepository записывает метрику операции репозитория
func (m *Metrics) RecordRepository(ctx context.Context, entity, operation string, duration time.Duration, success bool) {
	attrs := []attribute.KeyValue{
		attribute.String("entity", entity),
		attribute.String("operation", operation),
		attribute.Bool("success", success),
	}

	m.repositoryOps.Add(ctx, 1, metric.WithAttributes(attrs...))
	m.repositoryDuration.Record(ctx, duration.Seconds(), metric.WithAttributes(attrs...))
}

// IncrementActiveCommands увеличивает счетчик активных команд
func (m *Metrics) IncrementActiveCommands(ctx context.Context) {
	m.activeCommands.Add(ctx, 1)
}

// DecrementActiveCommands уменьшает счетчик активных команд
func (m *Metrics) DecrementActiveCommands(ctx context.Context) {
	m.activeCommands.Add(ctx, -1)
}

// IncrementActiveQueries увеличивает счетчик активных запросов
func (m *Metrics) IncrementActiveQueries(ctx context.Context) {
	m.activeQueries.Add(ctx, 1)
}

// DecrementActiveQueries уменьшает счетчик активных запросов
func (m *Metrics) DecrementActiveQueries(ctx context.Context) {
	m.activeQueries.Add(ctx, -1)
}
