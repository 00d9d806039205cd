// Package app собирает сервис каталога из конфигурации.
package app

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/akriventsev/catalog"
	"github.com/akriventsev/catalog/framework/adapters/cache"
	adapterevents "github.com/akriventsev/catalog/framework/adapters/events"
	"github.com/akriventsev/catalog/framework/adapters/repository"
	rest "github.com/akriventsev/catalog/framework/adapters/transport"
	"github.com/akriventsev/catalog/framework/container"
	"github.com/akriventsev/catalog/framework/events"
	"github.com/akriventsev/catalog/framework/logging"
	"github.com/akriventsev/catalog/framework/metrics"
	"github.com/akriventsev/catalog/framework/migrations"
	"github.com/akriventsev/catalog/framework/observability"
	"github.com/akriventsev/catalog/framework/transport"
	"github.com/akriventsev/catalog/internal/category/application"
	"github.com/akriventsev/catalog/internal/category/domain"
	"github.com/akriventsev/catalog/internal/category/httpapi"
	"github.com/akriventsev/catalog/internal/category/infrastructure"
	"github.com/akriventsev/catalog/internal/config"
)

// Ключи зависимостей в контейнере
const (
	KeyCommandBus = "command_bus"
	KeyQueryBus   = "query_bus"
	KeyRepository = "category_repository"
	KeyREST       = "rest"
	KeyEventBus   = "event_bus"
)

// Пути служебных маршрутов
const (
	HealthPath    = "/health"
	ReadinessPath = "/ready"
)

// App собранный сервис
type App struct {
	config    *config.Config
	logger    *logrus.Logger
	container *container.Container
	rest      *rest.RESTAdapter
	debug     *observability.DebugManager
}

// New собирает сервис: хранилище, кэш, события, шины, обработчики
// категорий и REST адаптер. При ошибке уже открытые ресурсы закрываются.
func New(ctx context.Context, cfg *config.Config, logger *logrus.Logger) (*App, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if logger == nil {
		logger = logging.Discard()
	}

	a := &App{
		config:    cfg,
		logger:    logger,
		container: container.NewContainer(&container.Config{ShutdownTimeout: cfg.HTTP.ShutdownTimeout.Duration}, logger),
		debug:     observability.NewDebugManager(cfg.Debug),
	}
	if err := a.build(ctx); err != nil {
		if closeErr := a.container.Shutdown(ctx); closeErr != nil {
			return nil, errors.Join(err, closeErr)
		}
		return nil, err
	}
	return a, nil
}

func (a *App) build(ctx context.Context) error {
	cfg := a.config

	provider, err := metrics.SetupMetrics(cfg.Metrics)
	if err != nil {
		return fmt.Errorf("failed to setup metrics: %w", err)
	}
	a.container.OnStop("metrics", provider.Shutdown)

	m, err := metrics.New(provider.MeterProvider)
	if err != nil {
		return fmt.Errorf("failed to create metrics: %w", err)
	}

	tracingConfig := cfg.Tracing
	tracingConfig.ServiceVersion = catalog.Version
	tracing, err := observability.NewTracingManager(tracingConfig)
	if err != nil {
		return fmt.Errorf("failed to setup tracing: %w", err)
	}
	a.container.OnStop("tracing", tracing.Stop)

	repo, err := a.repository(ctx)
	if err != nil {
		return err
	}
	instrumented := metrics.InstrumentRepository(repo, m, domain.EntityName)

	queryCache, err := a.queryCache(ctx)
	if err != nil {
		return err
	}

	publisher, err := adapterevents.NewPublisher(cfg.Events.Publisher())
	if err != nil {
		return fmt.Errorf("failed to create event publisher: %w", err)
	}
	a.container.OnStop(publisher.Name(), func(context.Context) error { return publisher.Close() })

	// in-process подписчики получают события раньше внешнего брокера
	eventBus := events.NewInMemoryEventBus()
	if err := eventBus.Subscribe(events.WildcardEventType, events.EventHandlerFunc(a.logEvent)); err != nil {
		return err
	}
	a.container.OnStop("event-bus", eventBus.Shutdown)

	commandInterceptors := []transport.CommandInterceptor{
		transport.RecoveryCommandInterceptor(),
		observability.CommandTracingInterceptor(),
		logging.CommandInterceptor(a.logger),
		metrics.CommandInterceptor(m),
	}
	queryInterceptors := []transport.QueryInterceptor{
		transport.RecoveryQueryInterceptor(),
		observability.QueryTracingInterceptor(),
		logging.QueryInterceptor(a.logger),
		metrics.QueryInterceptor(m),
	}

	if timeout := cfg.HTTP.HandlerTimeout.Duration; timeout > 0 {
		commandInterceptors = append(commandInterceptors, transport.TimeoutCommandInterceptor(timeout))
		queryInterceptors = append(queryInterceptors, transport.TimeoutQueryInterceptor(timeout))
	}

	commandBus := transport.NewInMemoryCommandBus()
	queryBus := transport.NewInMemoryQueryBus()
	if queryCache != nil {
		guarded := transport.NewGenerationCache(queryCache)
		commandInterceptors = append(commandInterceptors, transport.CacheInvalidationInterceptor(guarded))
		queryBus.WithCache(guarded)
	}
	commandBus.WithMiddleware(commandInterceptors...)
	queryBus.WithMiddleware(queryInterceptors...)

	handlers := application.NewHandlers(
		instrumented,
		domain.NewCategoryValidator(),
		events.MultiPublisher{eventBus, metrics.EventPublisher(m, publisher)},
		a.logger,
	)
	if err := handlers.Register(commandBus, queryBus); err != nil {
		return err
	}

	if err := a.setupREST(commandBus, queryBus, provider); err != nil {
		return err
	}

	return errors.Join(
		container.Set[transport.CommandBus](a.container, KeyCommandBus, commandBus),
		container.Set[transport.QueryBus](a.container, KeyQueryBus, queryBus),
		container.Set[domain.CategoryRepository](a.container, KeyRepository, instrumented),
		container.Set(a.container, KeyREST, a.rest),
		container.Set[events.EventBus](a.container, KeyEventBus, eventBus),
	)
}

func (a *App) logEvent(ctx context.Context, event events.Event) error {
	a.logger.WithFields(logrus.Fields{
		"event_id":       event.EventID(),
		"event_type":     event.EventType(),
		"aggregate_id":   event.AggregateID(),
		"correlation_id": event.Metadata().CorrelationID(),
	}).Debug("domain event")
	return nil
}

// repository открывает выбранное хранилище и создает репозиторий через фабрику
func (a *App) repository(ctx context.Context) (repository.SearchableRepository[domain.Category], error) {
	cfg := a.config
	deps := infrastructure.Dependencies{
		Collection:    cfg.Mongo.Collection,
		EnsureIndexes: cfg.Mongo.EnsureIndexes,
	}

	switch cfg.Storage.Driver {
	case config.StoragePostgres:
		db, err := repository.OpenPostgres(ctx, cfg.Postgres.Repository())
		if err != nil {
			return nil, err
		}
		a.container.OnStop("postgres", func(context.Context) error { return db.Close() })

		if cfg.Postgres.AutoMigrate {
			if err := a.migrate(ctx, db); err != nil {
				return nil, err
			}
		}
		deps.Postgres = db
	case config.StorageMongoDB:
		client, err := repository.ConnectMongo(ctx, cfg.Mongo.Repository())
		if err != nil {
			return nil, err
		}
		a.container.OnStop("mongodb", client.Disconnect)
		deps.Mongo = client.Database(cfg.Mongo.Database)
	}

	factory, err := infrastructure.NewRepositoryFactory(deps)
	if err != nil {
		return nil, err
	}
	repo, err := factory.Create(ctx, cfg.Storage.Driver)
	if err != nil {
		return nil, err
	}
	// postgres и mongodb репозитории сами проверяют соединение
	if check, ok := repo.(observability.HealthCheck); ok {
		a.debug.RegisterReadinessCheck(check)
	}
	return repo, nil
}

func (a *App) migrate(ctx context.Context, db *sql.DB) error {
	migrator, err := migrations.NewMigrator(db, infrastructure.Migrations())
	if err != nil {
		return err
	}
	results, err := migrator.Up(ctx)
	if err != nil {
		return fmt.Errorf("failed to apply migrations: %w", err)
	}
	for _, result := range results {
		a.logger.WithFields(logrus.Fields{
			"version":  result.Version,
			"duration": result.Duration,
		}).Info("migration applied")
	}
	return nil
}

// queryCache создает кэш запросов; nil если кэш выключен
func (a *App) queryCache(ctx context.Context) (transport.QueryCache, error) {
	cfg := a.config.Cache

	switch cfg.Driver {
	case config.CacheMemory:
		return cache.NewMemoryQueryCache(cfg.Memory()), nil
	case config.CacheRedis:
		client, err := cache.NewRedisClient(ctx, cfg.RedisCache())
		if err != nil {
			return nil, err
		}
		a.container.OnStop("redis", func(context.Context) error { return client.Close() })
		a.debug.RegisterReadinessCheck(observability.NewFuncHealthCheck("redis", func(ctx context.Context) error {
			return client.Ping(ctx).Err()
		}))
		return cache.NewRedisQueryCache(client, cfg.RedisCache()), nil
	}
	return nil, nil
}

func (a *App) setupREST(commandBus transport.CommandBus, queryBus transport.QueryBus, provider *metrics.Provider) error {
	cfg := a.config
	restConfig := cfg.HTTP.REST()

	middleware := []gin.HandlerFunc{
		observability.CorrelationIDMiddleware(),
		logging.GinMiddleware(a.logger),
	}
	if cfg.Tracing.Enabled {
		middleware = append(middleware, observability.HTTPTracingMiddleware(cfg.Tracing.ServiceName))
	}

	var validator *rest.OpenAPIValidator
	if cfg.HTTP.ValidateRequests {
		var err error
		if validator, err = httpapi.NewRequestValidator(restConfig.BasePath); err != nil {
			return err
		}
		middleware = append(middleware, validator.Middleware())
	}

	a.rest = rest.NewRESTAdapter(restConfig, commandBus, queryBus, middleware...)
	httpapi.RegisterRoutes(a.rest)
	if validator != nil {
		httpapi.RegisterSpec(a.rest, validator)
	}

	router := a.rest.Router()
	router.GET(HealthPath, a.debug.HealthCheckHandler())
	router.GET(ReadinessPath, a.debug.ReadinessCheckHandler())
	if provider.Handler != nil {
		router.GET(cfg.Metrics.Path, gin.WrapH(provider.Handler))
	}
	return nil
}

// Handler HTTP handler сервиса (без запуска сервера)
func (a *App) Handler() http.Handler {
	return a.rest
}

// Container контейнер зависимостей
func (a *App) Container() *container.Container {
	return a.container
}

// Start запускает pprof и REST сервер
func (a *App) Start(ctx context.Context) error {
	a.container.AppendService(a.debug)
	a.container.AppendService(a.rest)

	if err := a.container.Start(ctx); err != nil {
		return err
	}
	a.logger.WithFields(logrus.Fields{
		"addr":    a.rest.Addr(),
		"storage": a.config.Storage.Driver,
		"cache":   a.config.Cache.Driver,
		"events":  a.config.Events.Driver,
		"version": catalog.Version,
	}).Info("catalog started")
	return nil
}

// Run запускает сервис и ждет отмены ctx или падения HTTP сервера,
// после чего выполняет graceful shutdown.
func (a *App) Run(ctx context.Context) error {
	if err := a.Start(ctx); err != nil {
		return err
	}

	var runErr error
	select {
	case <-ctx.Done():
		a.logger.Info("shutting down")
	case err, ok := <-a.rest.Errors():
		if ok && err != nil {
			runErr = fmt.Errorf("http server failed: %w", err)
		}
	}

	// ctx уже отменен, останавливаемся с собственным таймаутом
	if err := a.Shutdown(context.Background()); err != nil {
		return errors.Join(runErr, err)
	}
	return runErr
}

// Shutdown останавливает сервер и закрывает ресурсы
func (a *App) Shutdown(ctx context.Context) error {
	return a.container.Shutdown(ctx)
}
