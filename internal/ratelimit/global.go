package ratelimit

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	limiter "github.com/ulule/limiter/v3"
	"github.com/ulule/limiter/v3/drivers/middleware/stdlib"
	"github.com/ulule/limiter/v3/drivers/store/memory"
	limiterredis "github.com/ulule/limiter/v3/drivers/store/redis"

	"github.com/vincent8494/ecomerce-platform-sub000/internal/common"
)

// GlobalConfig configures the fixed-window per-IP limit applied to every API request.
type GlobalConfig struct {
	// Rate uses the ulule format, e.g. "300-M" for 300 requests per minute. Empty disables it.
	Rate   string
	Prefix string
	Redis  *redis.Client
	Logger *zerolog.Logger
}

// NewStore picks a Redis store when a client is available and falls back to process memory.
func NewStore(rdb *redis.Client, prefix string) (limiter.Store, error) {
	if prefix == "" {
		prefix = "ratelimit:global"
	}
	if rdb == nil {
		return memory.NewStoreWithOptions(limiter.StoreOptions{Prefix: prefix}), nil
	}
	return limiterredis.NewStoreWithOptions(rdb, limiter.StoreOptions{Prefix: prefix})
}

// Global returns the per-IP middleware, or a pass-through when no rate is configured.
func Global(cfg GlobalConfig) (func(http.Handler) http.Handler, error) {
	if strings.TrimSpace(cfg.Rate) == "" {
		return func(next http.Handler) http.Handler { return next }, nil
	}
	rate, err := limiter.NewRateFromFormatted(strings.TrimSpace(cfg.Rate))
	if err != nil {
		return nil, fmt.Errorf("ratelimit: parse rate %q: %w", cfg.Rate, err)
	}
	store, err := NewStore(cfg.Redis, cfg.Prefix)
	if err != nil {
		return nil, fmt.Errorf("ratelimit: store: %w", err)
	}
	mw := stdlib.NewMiddleware(limiter.New(store, rate),
		stdlib.WithLimitReachedHandler(func(w http.ResponseWriter, _ *http.Request) {
			common.JSONError(w, http.StatusTooManyRequests, "RATE_LIMITED", "too many requests", nil)
		}),
		stdlib.WithErrorHandler(func(w http.ResponseWriter, _ *http.Request, err error) {
			if cfg.Logger != nil {
				cfg.Logger.Error().Err(err).Msg("global rate limiter failed")
			}
			common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "rate limiter unavailable", nil)
		}),
	)
	return mw.Handler, nil
}
