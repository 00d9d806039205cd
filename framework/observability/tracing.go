// Copyright 2024 Potter Framework Contributors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package observability предоставляет distributed tracing, correlation ID и health checks.
package observability

import (
	"context"
	"fmt"
	"io"
	"sync"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/baggage"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.21.0"
	"go.opentelemetry.io/otel/trace"

	"github.com/akriventsev/catalog/framework/events"
	"github.com/akriventsev/catalog/framework/transport"
)

const (
	// CorrelationIDHeader заголовок и ключ baggage для correlation ID
	CorrelationIDHeader = "X-Correlation-ID"
	correlationBaggage  = "correlation_id"
)

// Экспортеры трейсов
const (
	ExporterStdout = "stdout"
	ExporterOTLP   = "otlp"
)

// TracingConfig конфигурация для distributed tracing
type TracingConfig struct {
	Enabled          bool    `toml:"enabled"`
	ServiceName      string  `toml:"service_name"`
	ServiceVersion   string  `toml:"-"`
	Exporter         string  `toml:"exporter"` // "otlp", "stdout"
	ExporterEndpoint string  `toml:"endpoint"`
	SamplingRate     float64 `toml:"sampling_rate"` // 0.0 - 1.0
	Environment      string  `toml:"environment"`
	// Writer вывод stdout exporter (по умолчанию os.Stdout)
	Writer io.Writer `toml:"-"`
}

// DefaultTracingConfig возвращает конфигурацию по умолчанию (tracing выключен)
func DefaultTracingConfig() TracingConfig {
	return TracingConfig{
		Enabled:      false,
		ServiceName:  "catalog",
		Exporter:     ExporterStdout,
		SamplingRate: 1.0,
		Environment:  "development",
	}
}

// Validate проверяет конфигурацию
func (c TracingConfig) Validate() error {
	if !c.Enabled {
		return nil
	}
	if c.ServiceName == "" {
		return fmt.Errorf("tracing service_name cannot be empty")
	}
	switch c.Exporter {
	case ExporterStdout:
	case ExporterOTLP:
		if c.ExporterEndpoint == "" {
			return fmt.Errorf("tracing endpoint is required for otlp exporter")
		}
	default:
		return fmt.Errorf("unknown tracing exporter: %s", c.Exporter)
	}
	if c.SamplingRate < 0 || c.SamplingRate > 1 {
		return fmt.Errorf("tracing sampling_rate must be within [0, 1], got %v", c.SamplingRate)
	}
	return nil
}

// TracingManager менеджер для distributed tracing
type TracingManager struct {
	config   TracingConfig
	tracer   trace.Tracer
	provider *sdktrace.TracerProvider
	mu       sync.Mutex
}

// NewTracingManager создает TracingManager и регистрирует глобальный TracerProvider.
// При Enabled=false используется no-op tracer глобального провайдера.
func NewTracingManager(config TracingConfig) (*TracingManager, error) {
	if !config.Enabled {
		return &TracingManager{config: config, tracer: otel.Tracer(config.ServiceName)}, nil
	}
	if err := config.Validate(); err != nil {
		return nil, err
	}

	res, err := resource.New(context.Background(),
		resource.WithAttributes(
			semconv.ServiceNameKey.String(config.ServiceName),
			semconv.ServiceVersionKey.String(config.ServiceVersion),
			semconv.DeploymentEnvironmentKey.String(config.Environment),
		),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create resource: %w", err)
	}

	exporter, err := createExporter(config)
	if err != nil {
		return nil, fmt.Errorf("failed to create exporter: %w", err)
	}

	sampler := sdktrace.TraceIDRatioBased(config.SamplingRate)
	if config.SamplingRate >= 1.0 {
		sampler = sdktrace.AlwaysSample()
	} else if config.SamplingRate <= 0.0 {
		sampler = sdktrace.NeverSample()
	}

	tp := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exporter),
		sdktrace.WithResource(res),
		sdktrace.WithSampler(sdktrace.ParentBased(sampler)),
	)

	otel.SetTracerProvider(tp)
	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(
		propagation.TraceContext{},
		propagation.Baggage{},
	))

	return &TracingManager{
		config:   config,
		tracer:   tp.Tracer(config.ServiceName),
		provider: tp,
	}, nil
}

// createExporter создает exporter на основе конфигурации
func createExporter(config TracingConfig) (sdktrace.SpanExporter, error) {
	switch config.Exporter {
	case ExporterOTLP:
		client := otlptracehttp.NewClient(
			otlptracehttp.WithEndpoint(config.ExporterEndpoint),
			otlptracehttp.WithInsecure(),
		)
		return otlptrace.New(context.Background(), client)
	default:
		opts := []stdouttrace.Option{stdouttrace.WithPrettyPrint()}
		if config.Writer != nil {
			opts = append(opts, stdouttrace.WithWriter(config.Writer))
		}
		return stdouttrace.New(opts...)
	}
}

// Stop сбрасывает буферы и останавливает провайдер
func (tm *TracingManager) Stop(ctx context.Context) error {
	tm.mu.Lock()
	defer tm.mu.Unlock()

	if tm.provider == nil {
		return nil
	}
	err := tm.provider.Shutdown(ctx)
	tm.provider = nil
	return err
}

// Tracer возвращает tracer для создания spans
func (tm *TracingManager) Tracer() trace.Tracer {
	return tm.tracer
}

// HTTPTracingMiddleware Gin middleware для инструментации HTTP requests
func HTTPTracingMiddleware(serviceName string) gin.HandlerFunc {
	tracer := otel.Tracer(serviceName)

	return func(c *gin.Context) {
		ctx := otel.GetTextMapPropagator().Extract(c.Request.Context(), propagation.HeaderCarrier(c.Request.Header))

		route := c.FullPath()
		if route == "" {
			route = c.Request.URL.Path
		}
		ctx, span := tracer.Start(ctx, fmt.Sprintf("%s %s", c.Request.Method, route),
			trace.WithSpanKind(trace.SpanKindServer),
		)
		defer span.End()

		span.SetAttributes(
			attribute.String("http.method", c.Request.Method),
			attribute.String("http.url", c.Request.URL.String()),
			attribute.String("http.route", route),
		)

		c.Request = c.Request.WithContext(ctx)
		c.Next()

		status := c.Writer.Status()
		span.SetAttributes(attribute.Int("http.status_code", status))
		if status >= 500 {
			span.SetStatus(codes.Error, fmt.Sprintf("HTTP %d", status))
		}
		if len(c.Errors) > 0 {
			span.RecordError(c.Errors.Last())
		}

		otel.GetTextMapPropagator().Inject(ctx, propagation.HeaderCarrier(c.Writer.Header()))
	}
}

// ExtractCorrelationID извлекает correlation ID из context:
// baggage, затем trace ID текущего span
func ExtractCorrelationID(ctx context.Context) string {
	if member := baggage.FromContext(ctx).Member(correlationBaggage); member.Value() != "" {
		return member.Value()
	}
	if id := events.CorrelationIDFromContext(ctx); id != "" {
		return id
	}

	spanContext := trace.SpanFromContext(ctx).SpanContext()
	if spanContext.TraceID().IsValid() {
		return spanContext.TraceID().String()
	}
	return ""
}

// InjectCorrelationID добавляет correlation ID в baggage и в контекст событий
func InjectCorrelationID(ctx context.Context, correlationID string) context.Context {
	ctx = events.WithCorrelationID(ctx, correlationID)

	member, err := baggage.NewMember(correlationBaggage, correlationID)
	if err != nil {
		return ctx
	}
	b, err := baggage.FromContext(ctx).SetMember(member)
	if err != nil {
		return ctx
	}
	return baggage.ContextWithBaggage(ctx, b)
}

// CorrelationIDMiddleware Gin middleware: берет correlation ID из заголовка
// или генерирует новый и возвращает его в ответе
func CorrelationIDMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		correlationID := c.GetHeader(CorrelationIDHeader)
		if correlationID == "" {
			correlationID = ExtractCorrelationID(c.Request.Context())
		}
		if correlationID == "" {
			correlationID = uuid.NewString()
		}

		c.Request = c.Request.WithContext(InjectCorrelationID(c.Request.Context(), correlationID))
		c.Writer.Header().Set(CorrelationIDHeader, correlationID)

		c.Next()
	}
}

// CommandTracingInterceptor создает span на каждую команду
func CommandTracingInterceptor() transport.CommandInterceptor {
	tracer := otel.Tracer("catalog.command")

	return transport.CommandInterceptorFunc(func(ctx context.Context, cmd transport.Command, next transport.CommandNext) (any, error) {
		ctx, span := tracer.Start(ctx, "command."+cmd.CommandName())
		defer span.End()

		span.SetAttributes(attribute.String("command.name", cmd.CommandName()))

		result, err := next(ctx, cmd)
		recordOutcome(span, "command", err)
		return result, err
	})
}

// QueryTracingInterceptor создает span на каждый запрос
func QueryTracingInterceptor() transport.QueryInterceptor {
	tracer := otel.Tracer("catalog.query")

	return transport.QueryInterceptorFunc(func(ctx context.Context, q transport.Query, next transport.QueryNext) (any, error) {
		ctx, span := tracer.Start(ctx, "query."+q.QueryName())
		defer span.End()

		span.SetAttributes(attribute.String("query.name", q.QueryName()))

		result, err := next(ctx, q)
		recordOutcome(span, "query", err)
		return result, err
	})
}

func recordOutcome(span trace.Span, kind string, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	span.SetAttributes(attribute.Bool(kind+".success", err == nil))
}
