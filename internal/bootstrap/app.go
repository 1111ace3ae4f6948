package bootstrap

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/Domenick1991/flightontime/api"
	"github.com/Domenick1991/flightontime/config"
	"github.com/Domenick1991/flightontime/internal/cache"
	"github.com/Domenick1991/flightontime/internal/catalog"
	"github.com/Domenick1991/flightontime/internal/kafka"
	"github.com/Domenick1991/flightontime/internal/logging"
	"github.com/Domenick1991/flightontime/internal/metrics"
	"github.com/Domenick1991/flightontime/internal/model"
	"github.com/Domenick1991/flightontime/internal/repository"
	"github.com/Domenick1991/flightontime/internal/retry"
	"github.com/Domenick1991/flightontime/internal/service/history"
	"github.com/Domenick1991/flightontime/internal/service/prediction"
	"github.com/Domenick1991/flightontime/internal/validation"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.uber.org/zap"
)

// App is the wired prediction service.
type App struct {
	Handler     http.Handler
	Predictions *prediction.PredictionService
	History     *history.HistoryService
	Registry    *prometheus.Registry

	closers []func() error
}

// Build wires every component from cfg. Catalogs are loaded before it
// returns, so missing reference data fails startup.
func Build(ctx context.Context, cfg *config.Config, logger *zap.SugaredLogger, handlerOpts ...api.HandlerOption) (*App, error) {
	logger = logging.OrNop(logger)
	app := &App{Registry: prometheus.NewRegistry()}
	app.Registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	reg := metrics.NewRegistry(app.Registry)

	catalogs := catalog.NewDirStore(cfg.Catalog.Dir, catalog.WithMetrics(reg), catalog.WithLogger(logger))
	if err := catalogs.Warm(ctx); err != nil {
		return nil, fmt.Errorf("load catalogs: %w", err)
	}

	repo, err := app.openRepository(ctx, cfg.Database)
	if err != nil {
		app.Close()
		return nil, err
	}

	historyOpts := []history.Option{history.WithLogger(logger)}
	if cfg.Redis.Addr != "" {
		redisCache := cache.NewRedisCache(cfg.Redis)
		app.closers = append(app.closers, redisCache.Close)
		checkDependency(ctx, logger, "redis", redisCache.Ping)
		historyOpts = append(historyOpts, history.WithCache(redisCache))
	}
	if len(cfg.Kafka.Brokers) > 0 {
		producer := kafka.NewProducer(cfg.Kafka.Brokers)
		app.closers = append(app.closers, producer.Close)
		checkDependency(ctx, logger, "kafka", producer.CheckConnection)
		historyOpts = append(historyOpts, history.WithProducer(producer, cfg.Kafka.PredictionTopic))
	}
	app.History = history.NewHistoryService(repo, historyOpts...)

	client := model.NewClient(cfg.Model.URL,
		model.WithTimeout(cfg.Model.Timeout()),
		model.WithRetryPolicy(RetryPolicy(cfg.Model)),
		model.WithRateLimit(cfg.Model.RateLimitPerSec, cfg.Model.RateLimitBurst),
		model.WithMetrics(reg),
		model.WithLogger(logger),
	)
	if client.MockMode() {
		logger.Warnw("no prediction model url configured, serving mock predictions")
	}

	app.Predictions = prediction.NewPredictionService(
		validation.New(catalogs),
		client,
		app.History,
		prediction.WithMetrics(reg),
		prediction.WithLogger(logger),
	)

	app.Handler = NewHTTPHandler(HTTPDeps{
		Handler:        api.NewPredictionHandler(app.Predictions, app.History, handlerOpts...),
		Metrics:        reg,
		Gatherer:       app.Registry,
		Logger:         logger,
		AllowedOrigins: cfg.HTTP.CORSAllowedOrigins,
	})
	return app, nil
}

func (a *App) openRepository(ctx context.Context, cfg config.DatabaseConfig) (repository.HistoryRepository, error) {
	switch cfg.Driver {
	case config.DriverPostgres:
		pool, err := pgxpool.New(ctx, cfg.DSN())
		if err != nil {
			return nil, fmt.Errorf("connect postgres: %w", err)
		}
		a.closers = append(a.closers, func() error { pool.Close(); return nil })
		if err := repository.InitSchema(ctx, pool); err != nil {
			return nil, fmt.Errorf("init schema: %w", err)
		}
		return repository.NewHistoryRepository(pool), nil
	default:
		db, err := repository.OpenSQLite(cfg.SQLitePath)
		if err != nil {
			return nil, err
		}
		sqlDB, err := db.DB()
		if err != nil {
			return nil, err
		}
		a.closers = append(a.closers, sqlDB.Close)
		return repository.NewGormHistoryRepository(db), nil
	}
}

const dependencyCheckTimeout = 2 * time.Second

// checkDependency logs whether an optional backend answers. An unreachable
// cache or broker does not stop startup: history reads then go to the store
// and events are dropped with a warning.
func checkDependency(ctx context.Context, logger *zap.SugaredLogger, name string, check func(context.Context) error) {
	ctx, cancel := context.WithTimeout(ctx, dependencyCheckTimeout)
	defer cancel()
	if err := check(ctx); err != nil {
		logger.Warnw("dependency unreachable at startup", "dependency", name, "error", err)
		return
	}
	logger.Infow("dependency reachable", "dependency", name)
}

// Close releases connections in reverse order of creation.
func (a *App) Close() error {
	var first error
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil && first == nil {
			first = err
		}
	}
	a.closers = nil
	return first
}

func RetryPolicy(m config.ModelConfig) retry.Policy {
	return retry.Policy{
		MaxAttempts:  m.MaxAttempts,
		InitialDelay: m.InitialBackoff(),
		Multiplier:   m.BackoffMultiplier,
		MaxDelay:     m.MaxBackoff(),
	}
}
