// Package transport предоставляет REST адаптер поверх шин команд и запросов.
package transport

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/akriventsev/catalog/framework/core"
	"github.com/akriventsev/catalog/framework/transport"
)

// RESTConfig конфигурация для REST адаптера
type RESTConfig struct {
	Addr            string
	BasePath        string
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	ShutdownTimeout time.Duration
	// CORSOrigins пусто = CORS middleware не подключается
	CORSOrigins []string
}

// DefaultRESTConfig возвращает конфигурацию REST по умолчанию
func DefaultRESTConfig() RESTConfig {
	return RESTConfig{
		Addr:            ":8080",
		BasePath:        "/api/v1",
		ReadTimeout:     15 * time.Second,
		WriteTimeout:    15 * time.Second,
		ShutdownTimeout: 30 * time.Second,
	}
}

// Validate проверяет корректность конфигурации
func (c RESTConfig) Validate() error {
	if c.Addr == "" {
		return core.NewError(core.ErrInvalidConfig, "http addr is required")
	}
	if c.ShutdownTimeout < 0 {
		return core.NewError(core.ErrInvalidConfig, "http shutdown_timeout must not be negative")
	}
	return nil
}

// RESTAdapter HTTP API поверх CommandBus и QueryBus
type RESTAdapter struct {
	config     RESTConfig
	router     *gin.Engine
	api        *gin.RouterGroup
	commandBus transport.CommandBus
	queryBus   transport.QueryBus

	mu       sync.Mutex
	running  bool
	server   *http.Server
	listener net.Listener
	serveErr chan error
}

// NewRESTAdapter создает новый REST адаптер. middleware подключаются
// после recovery и CORS в переданном порядке.
func NewRESTAdapter(config RESTConfig, commandBus transport.CommandBus, queryBus transport.QueryBus, middleware ...gin.HandlerFunc) *RESTAdapter {
	router := gin.New()
	router.Use(gin.Recovery())

	if len(config.CORSOrigins) > 0 {
		corsConfig := cors.DefaultConfig()
		corsConfig.AllowOrigins = config.CORSOrigins
		corsConfig.AddAllowHeaders("Authorization", "X-Correlation-ID")
		corsConfig.AddExposeHeaders("X-Correlation-ID")
		router.Use(cors.New(corsConfig))
	}
	router.Use(middleware...)

	return &RESTAdapter{
		config:     config,
		router:     router,
		api:        router.Group(config.BasePath),
		commandBus: commandBus,
		queryBus:   queryBus,
	}
}

// Router возвращает gin.Engine (служебные маршруты: health, metrics)
func (r *RESTAdapter) Router() *gin.Engine {
	return r.router
}

// Group возвращает группу маршрутов с BasePath
func (r *RESTAdapter) Group() *gin.RouterGroup {
	return r.api
}

// ServeHTTP позволяет использовать адаптер как http.Handler
func (r *RESTAdapter) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	r.router.ServeHTTP(w, req)
}

// Start запускает адаптер (реализация core.Lifecycle). Ошибка bind
// возвращается сразу, а не теряется в горутине.
func (r *RESTAdapter) Start(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.running {
		return fmt.Errorf("rest adapter already running")
	}

	listener, err := net.Listen("tcp", r.config.Addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", r.config.Addr, err)
	}

	r.server = &http.Server{
		Handler:      r.router,
		ReadTimeout:  r.config.ReadTimeout,
		WriteTimeout: r.config.WriteTimeout,
	}
	r.listener = listener
	r.serveErr = make(chan error, 1)
	r.running = true

	go func(server *http.Server, errCh chan<- error) {
		if err := server.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}(r.server, r.serveErr)

	return nil
}

// Errors канал ошибок Serve; закрывается после остановки сервера
func (r *RESTAdapter) Errors() <-chan error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.serveErr
}

// Addr фактический адрес слушателя (полезно при ":0")
func (r *RESTAdapter) Addr() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.listener == nil {
		return r.config.Addr
	}
	return r.listener.Addr().String()
}

// Stop останавливает адаптер (реализация core.Lifecycle)
func (r *RESTAdapter) Stop(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if !r.running {
		return nil
	}
	r.running = false

	timeout := r.config.ShutdownTimeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	shutdownCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	if err := r.server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("failed to shutdown http server: %w", err)
	}
	return nil
}

// IsRunning проверяет, запущен ли адаптер (реализация core.Lifecycle)
func (r *RESTAdapter) IsRunning() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.running
}

// Name возвращает имя компонента (реализация core.Component)
func (r *RESTAdapter) Name() string {
	return "rest-adapter"
}

// RegisterCommand регистрирует маршрут команды C. На каждый запрос
// создается новое значение C: JSON body, затем параметры пути (uri теги),
// так что id из пути имеет приоритет. nil результат отдается как 204.
func RegisterCommand[C transport.Command](r *RESTAdapter, method, path string, successStatus int) {
	r.api.Handle(method, path, func(c *gin.Context) {
		var cmd C
		if err := bindCommand(c, &cmd); err != nil {
			WriteError(c, err)
			return
		}

		result, err := r.commandBus.Send(c.Request.Context(), cmd)
		if err != nil {
			WriteError(c, err)
			return
		}

		if result == nil {
			c.Status(http.StatusNoContent)
			return
		}
		c.JSON(successStatus, result)
	})
}

// RegisterQuery регистрирует маршрут запроса Q: параметры пути и query string
func RegisterQuery[Q transport.Query](r *RESTAdapter, method, path string) {
	r.api.Handle(method, path, func(c *gin.Context) {
		var query Q
		if err := c.ShouldBindUri(&query); err != nil {
			WriteError(c, &BindError{Cause: err})
			return
		}
		if err := c.ShouldBindQuery(&query); err != nil {
			WriteError(c, &BindError{Cause: err})
			return
		}

		result, err := r.queryBus.Ask(c.Request.Context(), query)
		if err != nil {
			WriteError(c, err)
			return
		}
		c.JSON(http.StatusOK, result)
	})
}

func bindCommand(c *gin.Context, target any) error {
	if c.Request.Body != nil && c.Request.ContentLength != 0 {
		if err := c.ShouldBindJSON(target); err != nil {
			return &BindError{Cause: err}
		}
	}
	if err := c.ShouldBindUri(target); err != nil {
		return &BindError{Cause: err}
	}
	return nil
}

// BindError запрос не удалось разобрать
type BindError struct {
	Cause error
}

func (e *BindError) Error() string {
	return fmt.Sprintf("invalid request: %v", e.Cause)
}

func (e *BindError) Unwrap() error {
	return e.Cause
}

// ErrorResponse тело ответа с ошибкой
type ErrorResponse struct {
	StatusCode int              `json:"status_code"`
	Error      string           `json:"error"`
	Message    string           `json:"message"`
	Errors     core.FieldErrors `json:"errors,omitempty"`
}

// WriteError отображает ошибку в HTTP ответ:
// NotFound 404, Validation 422, AlreadyExists 409, BindError 400, иначе 500
func WriteError(c *gin.Context, err error) {
	status := StatusFor(err)

	resp := ErrorResponse{
		StatusCode: status,
		Error:      http.StatusText(status),
		Message:    err.Error(),
	}

	var validationErr *core.EntityValidationError
	if errors.As(err, &validationErr) {
		resp.Errors = validationErr.Errors
	}
	if status == http.StatusInternalServerError {
		resp.Message = "internal server error"
	}

	_ = c.Error(err)
	c.AbortWithStatusJSON(status, resp)
}

// StatusFor HTTP статус для ошибки
func StatusFor(err error) int {
	var bindErr *BindError
	if errors.As(err, &bindErr) {
		return http.StatusBadRequest
	}

	switch core.CodeOf(err) {
	case core.ErrNotFound:
		return http.StatusNotFound
	case core.ErrValidationFailed:
		return http.StatusUnprocessableEntity
	case core.ErrAlreadyExists:
		return http.StatusConflict
	}

	switch {
	case errors.Is(err, core.ErrEntityNotFound):
		return http.StatusNotFound
	case errors.Is(err, core.ErrValidation):
		return http.StatusUnprocessableEntity
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	}
	return http.StatusInternalServerError
}
