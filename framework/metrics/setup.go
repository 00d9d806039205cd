// Package metrics предоставляет функции для настройки системы метрик.
package metrics

import (
	"context"
	"fmt"
	"net/http"

	promclient "github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/prometheus"
	"go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
)

// Типы экспортеров
const (
	ExporterPrometheus = "prometheus"
	ExporterNone       = "none"
)

// MetricsConfig конфигурация метрик
type MetricsConfig struct {
	ExporterType  string            `toml:"exporter"`
	Path          string            `toml:"path"`
	ServiceName   string            `toml:"service_name"`
	ResourceAttrs map[string]string `toml:"resource_attrs"`
}

// DefaultMetricsConfig возвращает конфигурацию по умолчанию
func DefaultMetricsConfig() MetricsConfig {
	return MetricsConfig{
		ExporterType: ExporterPrometheus,
		Path:         "/metrics",
		ServiceName:  "catalog",
	}
}

// Validate проверяет конфигурацию
func (c MetricsConfig) Validate() error {
	switch c.ExporterType {
	case ExporterPrometheus:
		if c.Path == "" || c.Path[0] != '/' {
			return fmt.Errorf("metrics path must start with '/': %q", c.Path)
		}
	case ExporterNone:
	default:
		return fmt.Errorf("unknown exporter type: %s", c.ExporterType)
	}
	return nil
}

// Provider настроенный MeterProvider и HTTP handler для scrape (nil для ExporterNone)
type Provider struct {
	MeterProvider *metric.MeterProvider
	Handler       http.Handler
}

// SetupMetrics настраивает экспорт метрик и регистрирует глобальный MeterProvider
func SetupMetrics(config MetricsConfig) (*Provider, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	res, err := resource.New(context.Background(),
		resource.WithAttributes(buildResourceAttributes(config)...),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create resource: %w", err)
	}

	opts := []metric.Option{metric.WithResource(res)}
	result := &Provider{}

	if config.ExporterType == ExporterPrometheus {
		registry := promclient.NewRegistry()
		exporter, err := prometheus.New(prometheus.WithRegisterer(registry))
		if err != nil {
			return nil, fmt.Errorf("failed to create prometheus exporter: %w", err)
		}
		opts = append(opts, metric.WithReader(exporter))
		result.Handler = promhttp.HandlerFor(registry, promhttp.HandlerOpts{})
	}

	result.MeterProvider = metric.NewMeterProvider(opts...)
	otel.SetMeterProvider(result.MeterProvider)

	return result, nil
}

// buildResourceAttributes строит resource attributes
func buildResourceAttributes(config MetricsConfig) []attribute.KeyValue {
	result := make([]attribute.KeyValue, 0, len(config.ResourceAttrs)+1)
	if config.ServiceName != "" {
		result = append(result, attribute.String("service.name", config.ServiceName))
	}
	for k, v := range config.ResourceAttrs {
		result = append(result, attribute.String(k, v))
	}
	return result
}

// Shutdown корректно завершает работу метрик
func (p *Provider) Shutdown(ctx context.Context) error {
	if p == nil || p.MeterProvider == nil {
		return nil
	}
	return p.MeterProvider.Shutdown(ctx)
}
