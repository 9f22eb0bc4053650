package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/v2"
	"github.com/shopspring/decimal"

	"github.com/vincent8494/ecomerce-platform-sub000/internal/pricing"
)

// Store drivers accepted by STORE_DRIVER.
const (
	DriverMemory   = "memory"
	DriverPostgres = "postgres"
	DriverMongo    = "mongo"
)

// Config holds application configuration loaded from the environment.
type Config struct {
	AppEnv string
	Port   string

	StoreDriver      string
	DatabaseURL      string
	DatabaseMaxConns int
	MigrateOnStart   bool
	MongoURI         string
	MongoDatabase    string
	RedisURL         string

	JWTSecret      string
	JWTIssuer      string
	JWTAudience    string
	AccessTokenTTL time.Duration

	CORSAllowedOrigins []string
	BodyLimitBytes     int64
	SecurityHSTS       bool

	CurrencyCode                 string
	PricingTaxRateBPS            int
	PricingFlatShipping          int64
	PricingFreeShippingThreshold int64

	IdempotencyTTL   time.Duration
	CheckoutLockTTL  time.Duration
	LockRetryBackoff time.Duration
	LockMaxWait      time.Duration
	CatalogCacheTTL  time.Duration

	RateLimitDiscountMax    int
	RateLimitDiscountWindow time.Duration
	RateLimitGlobal         string

	QueueName        string
	QueueConcurrency int
	QueueMaxRetry    int

	Obs Observability
}

// Observability groups the OBS_* settings.
type Observability struct {
	LogFormat        string
	LogLevel         string
	MetricsNamespace string
	MetricsBuckets   string
	EnablePrometheus bool
	EnableTracing    bool
	TracingExporter  string
	OTLPEndpoint     string
	SamplingRatio    float64
	EnablePprof      bool
	PprofUser        string
	PprofPass        string
	ReadyTimeout     time.Duration
}

// Load reads configuration from environment variables and optional .env files.
func Load() (*Config, error) {
	_ = godotenv.Load()

	k := koanf.New(".")
	if err := k.Load(env.Provider("", ".", func(s string) string { return s }), nil); err != nil {
		return nil, fmt.Errorf("load env: %w", err)
	}

	flat, err := parseMajor(k.String("PRICING_FLAT_SHIPPING"), "0")
	if err != nil {
		return nil, fmt.Errorf("PRICING_FLAT_SHIPPING: %w", err)
	}
	threshold, err := parseMajor(k.String("PRICING_FREE_SHIPPING_THRESHOLD"), "0")
	if err != nil {
		return nil, fmt.Errorf("PRICING_FREE_SHIPPING_THRESHOLD: %w", err)
	}

	cfg := &Config{
		AppEnv: valueOrDefault(k.String("APP_ENV"), "development"),
		Port:   valueOrDefault(k.String("PORT"), "8080"),

		StoreDriver:      strings.ToLower(valueOrDefault(k.String("STORE_DRIVER"), DriverPostgres)),
		DatabaseURL:      strings.TrimSpace(k.String("DATABASE_URL")),
		DatabaseMaxConns: parseInt(k.String("DATABASE_MAX_CONNS"), 0),
		MigrateOnStart:   parseBool(k.String("MIGRATE_ON_START"), false),
		MongoURI:         strings.TrimSpace(k.String("MONGO_URI")),
		MongoDatabase:    valueOrDefault(k.String("MONGO_DATABASE"), "ecommerce"),
		RedisURL:         strings.TrimSpace(k.String("REDIS_URL")),

		JWTSecret:      k.String("JWT_SECRET"),
		JWTIssuer:      valueOrDefault(k.String("JWT_ISSUER"), "ecommerce-platform"),
		JWTAudience:    valueOrDefault(k.String("JWT_AUDIENCE"), "storefront"),
		AccessTokenTTL: parseDuration(k.String("ACCESS_TOKEN_TTL"), "15m"),

		CORSAllowedOrigins: splitAndTrim(k.String("CORS_ALLOWED_ORIGINS")),
		BodyLimitBytes:     int64(parseInt(k.String("BODY_LIMIT_BYTES"), 1<<20)),
		SecurityHSTS:       parseBool(k.String("SECURITY_HSTS"), false),

		CurrencyCode:                 strings.ToUpper(valueOrDefault(k.String("CURRENCY_CODE"), "USD")),
		PricingTaxRateBPS:            parseInt(k.String("PRICING_TAX_RATE_BPS"), 0),
		PricingFlatShipping:          flat,
		PricingFreeShippingThreshold: threshold,

		IdempotencyTTL:   parseDuration(k.String("IDEMPOTENCY_TTL"), "24h"),
		CheckoutLockTTL:  parseDuration(k.String("CHECKOUT_LOCK_TTL"), "10s"),
		LockRetryBackoff: parseDuration(k.String("LOCK_RETRY_BACKOFF"), "50ms"),
		LockMaxWait:      parseDuration(k.String("LOCK_MAX_WAIT"), "3s"),
		CatalogCacheTTL:  parseDuration(k.String("CATALOG_CACHE_TTL"), "60s"),

		RateLimitDiscountMax:    parseInt(k.String("RATE_LIMIT_DISCOUNT_MAX"), 20),
		RateLimitDiscountWindow: parseDuration(k.String("RATE_LIMIT_DISCOUNT_WINDOW"), "1m"),
		RateLimitGlobal:         strings.TrimSpace(k.String("RATE_LIMIT_GLOBAL")),

		QueueName:        valueOrDefault(k.String("QUEUE_NAME"), "events"),
		QueueConcurrency: parseInt(k.String("QUEUE_CONCURRENCY"), 10),
		QueueMaxRetry:    parseInt(k.String("QUEUE_MAX_RETRY"), 8),

		Obs: Observability{
			LogFormat:        valueOrDefault(k.String("OBS_LOG_FORMAT"), "json"),
			LogLevel:         valueOrDefault(k.String("OBS_LOG_LEVEL"), "info"),
			MetricsNamespace: valueOrDefault(k.String("OBS_METRICS_NAMESPACE"), "shop"),
			MetricsBuckets:   k.String("OBS_METRICS_BUCKETS_MS"),
			EnablePrometheus: parseBool(k.String("OBS_ENABLE_PROMETHEUS"), true),
			EnableTracing:    parseBool(k.String("OBS_ENABLE_TRACING"), false),
			TracingExporter:  valueOrDefault(k.String("OBS_TRACING_EXPORTER"), "otlp"),
			OTLPEndpoint:     strings.TrimSpace(k.String("OBS_OTLP_ENDPOINT")),
			SamplingRatio:    parseFloat(k.String("OBS_TRACING_SAMPLING_RATIO"), 1),
			EnablePprof:      parseBool(k.String("OBS_ENABLE_PPROF"), false),
			PprofUser:        strings.TrimSpace(k.String("SECURE_PPROF_BASIC_AUTH_USER")),
			PprofPass:        strings.TrimSpace(k.String("SECURE_PPROF_BASIC_AUTH_PASS")),
			ReadyTimeout:     time.Duration(parseInt(k.String("HEALTH_READY_TIMEOUT_MS"), 500)) * time.Millisecond,
		},
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	switch c.StoreDriver {
	case DriverMemory:
	case DriverPostgres:
		if c.DatabaseURL == "" {
			return errors.New("DATABASE_URL is required for the postgres store")
		}
	case DriverMongo:
		if c.MongoURI == "" {
			return errors.New("MONGO_URI is required for the mongo store")
		}
	default:
		return fmt.Errorf("STORE_DRIVER %q is not one of memory, postgres, mongo", c.StoreDriver)
	}
	if strings.TrimSpace(c.JWTSecret) == "" {
		return errors.New("JWT_SECRET is required")
	}
	if c.PricingTaxRateBPS < 0 || c.PricingTaxRateBPS > 10000 {
		return errors.New("PRICING_TAX_RATE_BPS must be between 0 and 10000")
	}
	if len(c.CurrencyCode) != 3 {
		return errors.New("CURRENCY_CODE must be a 3-letter code")
	}
	return nil
}

// Pricing returns the store-wide shipping and tax policy.
func (c *Config) Pricing() pricing.Policy {
	return pricing.Policy{
		FlatShipping:          c.PricingFlatShipping,
		FreeShippingThreshold: c.PricingFreeShippingThreshold,
		TaxBps:                c.PricingTaxRateBPS,
	}
}

// HTTPAddr returns the address the HTTP server should bind to.
func (c *Config) HTTPAddr() string {
	port := strings.TrimSpace(c.Port)
	if port == "" {
		port = "8080"
	}
	if strings.HasPrefix(port, ":") {
		return port
	}
	return ":" + port
}

func splitAndTrim(value string) []string {
	if value == "" {
		return nil
	}
	parts := strings.Split(value, ",")
	result := make([]string, 0, len(parts))
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed != "" {
			result = append(result, trimmed)
		}
	}
	return result
}

func valueOrDefault(value, fallback string) string {
	if trimmed := strings.TrimSpace(value); trimmed != "" {
		return trimmed
	}
	return fallback
}

func parseDuration(value, fallback string) time.Duration {
	base := strings.TrimSpace(value)
	if base == "" {
		base = fallback
	}
	d, err := time.ParseDuration(base)
	if err != nil {
		d, _ = time.ParseDuration(fallback)
	}
	return d
}

func parseBool(value string, fallback bool) bool {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "1", "t", "true", "yes", "on":
		return true
	case "0", "f", "false", "no", "off":
		return false
	default:
		return fallback
	}
}

func parseInt(value string, fallback int) int {
	parsed, err := strconv.Atoi(strings.TrimSpace(value))
	if err != nil {
		return fallback
	}
	return parsed
}

func parseFloat(value string, fallback float64) float64 {
	parsed, err := strconv.ParseFloat(strings.TrimSpace(value), 64)
	if err != nil {
		return fallback
	}
	return parsed
}

// parseMajor reads a major-unit amount such as "9.99" into minor units.
func parseMajor(value, fallback string) (int64, error) {
	d, err := decimal.NewFromString(valueOrDefault(value, fallback))
	if err != nil {
		return 0, err
	}
	if d.IsNegative() {
		return 0, errors.New("must not be negative")
	}
	return pricing.FromMajor(d), nil
}

// MustLoad behaves like Load but panics on error. Useful for tests and command entrypoints.
func MustLoad() *Config {
	cfg, err := Load()
	if err != nil {
		panic(err)
	}
	return cfg
}

// LoadForTests allows tests to override environment variables without touching the real environment.
func LoadForTests(env map[string]string) (*Config, error) {
	original := make(map[string]string, len(env))
	for key := range env {
		original[key] = os.Getenv(key)
		if err := setEnvVar(key, env[key]); err != nil {
			return nil, err
		}
	}
	cfg, err := Load()
	restoreErr := restoreEnv(original)
	if err != nil {
		return nil, err
	}
	return cfg, restoreErr
}

func setEnvVar(key, value string) error {
	if value == "" {
		return os.Unsetenv(key)
	}
	return os.Setenv(key, value)
}

func restoreEnv(values map[string]string) error {
	var errs []string
	for key, value := range values {
		if err := setEnvVar(key, value); err != nil {
			errs = append(errs, fmt.Sprintf("%s: %v", key, err))
		}
	}
	if len(errs) > 0 {
		return fmt.Errorf("restore env: %s", strings.Join(errs, "; "))
	}
	return nil
}
