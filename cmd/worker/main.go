package main

import (
	"context"
	"os/signal"
	"syscall"
	"time"

	"github.com/hibiken/asynq"
	"github.com/rs/zerolog"

	"github.com/vincent8494/ecomerce-platform-sub000/internal/app"
	"github.com/vincent8494/ecomerce-platform-sub000/internal/config"
	"github.com/vincent8494/ecomerce-platform-sub000/internal/events"
	"github.com/vincent8494/ecomerce-platform-sub000/internal/obs"
	"github.com/vincent8494/ecomerce-platform-sub000/internal/order"
	"github.com/vincent8494/ecomerce-platform-sub000/internal/pricing"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}

	logger := obs.NewLogger(cfg.Obs.LogFormat, cfg.Obs.LogLevel).With().Str("component", "worker").Logger()
	if cfg.Obs.EnablePrometheus {
		obs.MustRegisterDomainMetrics(cfg.Obs.MetricsNamespace, nil)
	}
	if cfg.RedisURL == "" {
		logger.Fatal().Msg("REDIS_URL is required for the worker")
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	bootCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	deps, err := app.Build(bootCtx, cfg, logger)
	cancel()
	if err != nil {
		logger.Fatal().Err(err).Msg("initialise dependencies")
	}
	defer func() {
		if err := deps.Close(context.Background()); err != nil {
			logger.Error().Err(err).Msg("close dependencies")
		}
	}()

	processor := events.Processor{
		Logger: &logger,
		Handlers: map[string]events.HandlerFunc{
			events.TopicOrderCreated: confirmOrder(deps.Orders, logger),
		},
	}
	mux := asynq.NewServeMux()
	processor.Register(mux)

	srv := asynq.NewServerFromRedisClient(deps.Redis, asynq.Config{
		Concurrency:     cfg.QueueConcurrency,
		Queues:          map[string]int{cfg.QueueName: 1},
		ShutdownTimeout: 10 * time.Second,
	})

	logger.Info().Str("queue", cfg.QueueName).Int("concurrency", cfg.QueueConcurrency).Msg("worker starting")
	if err := srv.Start(mux); err != nil {
		logger.Fatal().Err(err).Msg("start task server")
	}
	<-ctx.Done()
	srv.Shutdown()
	logger.Info().Msg("worker shutdown complete")
}

// confirmOrder reloads the committed order and records its confirmed totals.
func confirmOrder(orders *order.Service, logger zerolog.Logger) events.HandlerFunc {
	return func(ctx context.Context, event events.Event) error {
		ord, err := orders.Get(ctx, event.AggregateID, "")
		if err != nil {
			return err
		}
		logger.Info().
			Str("order_id", ord.ID).
			Str("user_id", ord.UserID).
			Float64("total", pricing.Major(ord.TotalPrice)).
			Float64("discount_total", pricing.Major(ord.DiscountTotal)).
			Int("discount_codes", len(ord.Discounts)).
			Msg("order confirmed")
		return nil
	}
}
