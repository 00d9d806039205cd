package observability

import (
	"bytes"
	"context"
	"database/sql"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"

	"github.com/akriventsev/catalog/framework/events"
	"github.com/akriventsev/catalog/framework/transport"
)

func init() {
	gin.SetMode(gin.TestMode)
}

// withSpanRecorder подменяет глобальный TracerProvider на время теста
func withSpanRecorder(t *testing.T) *tracetest.SpanRecorder {
	t.Helper()
	recorder := tracetest.NewSpanRecorder()
	provider := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(recorder))

	previous := otel.GetTracerProvider()
	otel.SetTracerProvider(provider)
	t.Cleanup(func() {
		otel.SetTracerProvider(previous)
		_ = provider.Shutdown(context.Background())
	})
	return recorder
}

type traceCommand struct{}

func (traceCommand) CommandName() string { return "create_category" }

type traceQuery struct{}

func (traceQuery) QueryName() string { return "list_categories" }

func TestCommandTracingInterceptor(t *testing.T) {
	recorder := withSpanRecorder(t)

	bus := transport.NewInMemoryCommandBus().WithMiddleware(CommandTracingInterceptor())
	handlerErr := errors.New("boom")
	require.NoError(t, bus.Register(transport.NewCommandHandler(func(ctx context.Context, cmd traceCommand) (any, error) {
		return nil, handlerErr
	})))

	_, err := bus.Send(context.Background(), traceCommand{})
	assert.ErrorIs(t, err, handlerErr)

	spans := recorder.Ended()
	require.Len(t, spans, 1)
	assert.Equal(t, "command.create_category", spans[0].Name())
	assert.Equal(t, codes.Error, spans[0].Status().Code)
}

func TestQueryTracingInterceptor(t *testing.T) {
	recorder := withSpanRecorder(t)

	bus := transport.NewInMemoryQueryBus().WithMiddleware(QueryTracingInterceptor())
	require.NoError(t, bus.Register(transport.NewQueryHandler(func(ctx context.Context, q traceQuery) (any, error) {
		return "ok", nil
	})))

	_, err := bus.Ask(context.Background(), traceQuery{})
	require.NoError(t, err)

	spans := recorder.Ended()
	require.Len(t, spans, 1)
	assert.Equal(t, "query.list_categories", spans[0].Name())
	assert.NotEqual(t, codes.Error, spans[0].Status().Code)
}

func TestHTTPTracingMiddleware(t *testing.T) {
	recorder := withSpanRecorder(t)

	router := gin.New()
	router.Use(HTTPTracingMiddleware("catalog"))
	router.GET("/categories/:id", func(c *gin.Context) { c.Status(http.StatusInternalServerError) })

	router.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/categories/1", nil))

	spans := recorder.Ended()
	require.Len(t, spans, 1)
	assert.Equal(t, "GET /categories/:id", spans[0].Name())
	assert.Equal(t, codes.Error, spans[0].Status().Code)
}

func TestCorrelationIDMiddleware(t *testing.T) {
	router := gin.New()
	router.Use(CorrelationIDMiddleware())

	var seen string
	router.GET("/", func(c *gin.Context) {
		seen = events.CorrelationIDFromContext(c.Request.Context())
		assert.Equal(t, seen, ExtractCorrelationID(c.Request.Context()))
		c.Status(http.StatusNoContent)
	})

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(CorrelationIDHeader, "corr-42")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, "corr-42", seen)
	assert.Equal(t, "corr-42", rec.Header().Get(CorrelationIDHeader))

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.NotEmpty(t, rec.Header().Get(CorrelationIDHeader))
	assert.Equal(t, rec.Header().Get(CorrelationIDHeader), seen)
}

func TestTracingConfig_Validate(t *testing.T) {
	assert.NoError(t, DefaultTracingConfig().Validate())

	config := DefaultTracingConfig()
	config.Enabled = true
	assert.NoError(t, config.Validate())

	config.Exporter = ExporterOTLP
	assert.Error(t, config.Validate())

	config.ExporterEndpoint = "localhost:4318"
	assert.NoError(t, config.Validate())

	config.SamplingRate = 2
	assert.Error(t, config.Validate())

	config = DefaultTracingConfig()
	config.Enabled = true
	config.Exporter = "zipkin"
	assert.Error(t, config.Validate())
}

func TestTracingManager_Stdout(t *testing.T) {
	previous := otel.GetTracerProvider()
	t.Cleanup(func() { otel.SetTracerProvider(previous) })

	var out bytes.Buffer
	config := DefaultTracingConfig()
	config.Enabled = true
	config.Writer = &out

	manager, err := NewTracingManager(config)
	require.NoError(t, err)

	_, span := manager.Tracer().Start(context.Background(), "unit")
	span.End()

	require.NoError(t, manager.Stop(context.Background()))
	assert.Contains(t, out.String(), `"Name": "unit"`)
	assert.NoError(t, manager.Stop(context.Background()))
}

func TestDebugManager_HealthCheckHandler(t *testing.T) {
	manager := NewDebugManager(DefaultDebugConfig())
	manager.RegisterHealthCheck(NewFuncHealthCheck("ok", func(ctx context.Context) error { return nil }))

	router := gin.New()
	router.GET("/health", manager.HealthCheckHandler())
	router.GET("/ready", manager.ReadinessCheckHandler())

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusOK, rec.Code)

	manager.RegisterHealthCheck(NewFuncHealthCheck("broken", func(ctx context.Context) error { return errors.New("down") }))
	manager.RegisterReadinessCheck(NewFuncHealthCheck("broken", func(ctx context.Context) error { return errors.New("down") }))

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Contains(t, rec.Body.String(), `"broken"`)

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/ready", nil))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

type pingable struct {
	err error
}

func (pingable) Name() string { return "postgres-repository" }

func (p pingable) HealthCheck(ctx context.Context) error { return p.err }

func TestDebugManager_ReadinessUsesHealthCheckable(t *testing.T) {
	manager := NewDebugManager(DefaultDebugConfig())
	manager.RegisterReadinessCheck(pingable{})

	router := gin.New()
	router.GET("/ready", manager.ReadinessCheckHandler())

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/ready", nil))
	assert.Equal(t, http.StatusOK, rec.Code)

	manager.RegisterReadinessCheck(pingable{err: sql.ErrConnDone})
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/ready", nil))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Contains(t, rec.Body.String(), `"postgres-repository"`)
}

func TestDebugManager_Lifecycle(t *testing.T) {
	disabled := NewDebugManager(DefaultDebugConfig())
	require.NoError(t, disabled.Start(context.Background()))
	assert.False(t, disabled.IsRunning())

	manager := NewDebugManager(DebugConfig{EnablePprof: true, PprofAddr: "127.0.0.1:0"})
	require.NoError(t, manager.Start(context.Background()))
	assert.True(t, manager.IsRunning())
	assert.Equal(t, "pprof", manager.Name())

	require.NoError(t, manager.Stop(context.Background()))
	assert.False(t, manager.IsRunning())
}
