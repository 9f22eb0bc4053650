package app

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/hibiken/asynq"
	"github.com/redis/go-redis/extra/redisotel/v9"
	redis "github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/vincent8494/ecomerce-platform-sub000/internal/auth"
	"github.com/vincent8494/ecomerce-platform-sub000/internal/catalog"
	"github.com/vincent8494/ecomerce-platform-sub000/internal/checkout"
	"github.com/vincent8494/ecomerce-platform-sub000/internal/config"
	"github.com/vincent8494/ecomerce-platform-sub000/internal/discount"
	"github.com/vincent8494/ecomerce-platform-sub000/internal/events"
	"github.com/vincent8494/ecomerce-platform-sub000/internal/lock"
	"github.com/vincent8494/ecomerce-platform-sub000/internal/order"
	"github.com/vincent8494/ecomerce-platform-sub000/internal/repo"
	"github.com/vincent8494/ecomerce-platform-sub000/internal/repo/mongorepo"
	"github.com/vincent8494/ecomerce-platform-sub000/internal/repo/pgrepo"
)

const serviceName = "ecommerce-api"

// Dependencies enumerates the services shared by the HTTP router and the worker.
type Dependencies struct {
	Config *config.Config
	Logger zerolog.Logger
	Store  repo.Store
	// Redis is optional; without it locking, idempotency and the sliding limiter are off.
	Redis      *redis.Client
	TaskClient *asynq.Client
	Now        func() time.Time

	Tokens    *auth.Tokens
	Bus       *events.Bus
	Catalog   *catalog.Service
	Discounts *discount.Service
	Admin     *discount.Admin
	Orders    *order.Service
	Checkout  *checkout.Service
}

// Build opens the configured store and Redis, then wires every service on top.
func Build(ctx context.Context, cfg *config.Config, logger zerolog.Logger) (*Dependencies, error) {
	store, err := OpenStore(ctx, cfg)
	if err != nil {
		return nil, err
	}
	var rdb *redis.Client
	if cfg.RedisURL != "" {
		rdb, err = OpenRedis(ctx, cfg, logger)
		if err != nil {
			_ = store.Close(ctx)
			return nil, err
		}
	}
	deps, err := Wire(cfg, logger, store, rdb)
	if err != nil {
		_ = store.Close(ctx)
		if rdb != nil {
			_ = rdb.Close()
		}
		return nil, err
	}
	return deps, nil
}

// Wire assembles the services over an already opened store and optional Redis client.
func Wire(cfg *config.Config, logger zerolog.Logger, store repo.Store, rdb *redis.Client) (*Dependencies, error) {
	if store == nil {
		return nil, errors.New("app: store is required")
	}
	tokens, err := auth.NewTokens(auth.Config{
		Secret:    cfg.JWTSecret,
		Issuer:    cfg.JWTIssuer,
		Audience:  cfg.JWTAudience,
		AccessTTL: cfg.AccessTokenTTL,
	})
	if err != nil {
		return nil, err
	}
	catalogSvc, err := catalog.NewService(catalog.ServiceConfig{
		Store: store,
		Cache: catalog.NewCache(rdb, cfg.CatalogCacheTTL),
	})
	if err != nil {
		return nil, err
	}

	d := &Dependencies{
		Config:  cfg,
		Logger:  logger,
		Store:   store,
		Redis:   rdb,
		Now:     time.Now,
		Tokens:  tokens,
		Catalog: catalogSvc,
	}

	eventLogger := logger.With().Str("component", "events").Logger()
	d.Bus = &events.Bus{Notifiers: []events.Notifier{events.LogNotifier{Logger: &eventLogger}}}
	if rdb != nil {
		d.TaskClient = asynq.NewClientFromRedisClient(rdb)
		d.Bus.Scheduler = events.TaskScheduler{
			Client:      d.TaskClient,
			Queue:       cfg.QueueName,
			MaxRetry:    cfg.QueueMaxRetry,
			SkipUnknown: true,
		}
	}

	discountLogger := logger.With().Str("component", "discount").Logger()
	d.Discounts = &discount.Service{Q: store, Logger: &discountLogger}
	d.Admin = &discount.Admin{Store: store, Logger: &discountLogger}

	orderLogger := logger.With().Str("component", "order").Logger()
	d.Orders = &order.Service{Store: store, Logger: &orderLogger}

	checkoutLogger := logger.With().Str("component", "checkout").Logger()
	d.Checkout = &checkout.Service{
		Store:     store,
		Catalog:   catalogSvc,
		Discounts: d.Discounts,
		Policy:    cfg.Pricing(),
		Currency:  cfg.CurrencyCode,
		Events:    d.Bus,
		LockTTL:   cfg.CheckoutLockTTL,
		Logger:    &checkoutLogger,
	}
	if rdb != nil {
		d.Checkout.Locker = lock.Locker{R: rdb, RetryBackoff: cfg.LockRetryBackoff, MaxWait: cfg.LockMaxWait}
	}
	return d, nil
}

// OpenStore connects the persistence driver selected by STORE_DRIVER.
func OpenStore(ctx context.Context, cfg *config.Config) (repo.Store, error) {
	switch cfg.StoreDriver {
	case config.DriverMemory:
		return repo.NewMemory(), nil
	case config.DriverPostgres:
		if cfg.MigrateOnStart {
			if err := pgrepo.Migrate(cfg.DatabaseURL); err != nil {
				return nil, fmt.Errorf("run migrations: %w", err)
			}
		}
		return pgrepo.Open(ctx, pgrepo.Config{
			URL:      cfg.DatabaseURL,
			AppName:  serviceName,
			MaxConns: int32(cfg.DatabaseMaxConns),
		})
	case config.DriverMongo:
		return mongorepo.Open(ctx, mongorepo.Config{
			URI:      cfg.MongoURI,
			Database: cfg.MongoDatabase,
			AppName:  serviceName,
			Timeout:  10 * time.Second,
		})
	}
	return nil, fmt.Errorf("unknown store driver %q", cfg.StoreDriver)
}

// OpenRedis connects to REDIS_URL with tracing and, when Prometheus is enabled, metrics.
func OpenRedis(ctx context.Context, cfg *config.Config, logger zerolog.Logger) (*redis.Client, error) {
	opts, err := redis.ParseURL(cfg.RedisURL)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	client := redis.NewClient(opts)
	if err := redisotel.InstrumentTracing(client); err != nil {
		logger.Error().Err(err).Msg("instrument redis tracing")
	}
	if cfg.Obs.EnablePrometheus {
		if err := redisotel.InstrumentMetrics(client); err != nil {
			logger.Error().Err(err).Msg("instrument redis metrics")
		}
	}
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("ping redis: %w", err)
	}
	return client, nil
}

// Close releases Redis and the store. The task client shares the Redis pool and is
// not closed separately.
func (d *Dependencies) Close(ctx context.Context) error {
	var errs []error
	if d.Redis != nil {
		errs = append(errs, d.Redis.Close())
	}
	if d.Store != nil {
		errs = append(errs, d.Store.Close(ctx))
	}
	return errors.Join(errs...)
}
