package app

import (
	"context"
	"crypto/subtle"
	"net/http"
	"net/http/pprof"
	"strings"

	"github.com/NYTimes/gziphandler"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	redis "github.com/redis/go-redis/v9"

	"github.com/vincent8494/ecomerce-platform-sub000/internal/audit"
	"github.com/vincent8494/ecomerce-platform-sub000/internal/auth"
	"github.com/vincent8494/ecomerce-platform-sub000/internal/catalog"
	"github.com/vincent8494/ecomerce-platform-sub000/internal/checkout"
	"github.com/vincent8494/ecomerce-platform-sub000/internal/common"
	"github.com/vincent8494/ecomerce-platform-sub000/internal/discount"
	"github.com/vincent8494/ecomerce-platform-sub000/internal/health"
	"github.com/vincent8494/ecomerce-platform-sub000/internal/obs"
	"github.com/vincent8494/ecomerce-platform-sub000/internal/order"
	"github.com/vincent8494/ecomerce-platform-sub000/internal/ratelimit"
	"github.com/vincent8494/ecomerce-platform-sub000/internal/security"
)

// NewRouter builds the HTTP surface over the wired dependencies.
func NewRouter(d *Dependencies) (http.Handler, error) {
	cfg := d.Config
	logger := d.Logger

	// interface values stay nil when Redis is not configured
	var shared redis.UniversalClient
	if d.Redis != nil {
		shared = d.Redis
	}

	globalLimit, err := ratelimit.Global(ratelimit.GlobalConfig{
		Rate:   cfg.RateLimitGlobal,
		Redis:  d.Redis,
		Logger: &logger,
	})
	if err != nil {
		return nil, err
	}
	discountLimit := ratelimit.Handler{
		Limiter: ratelimit.Limiter{Client: shared, Prefix: "ratelimit:discount:"},
		Config: ratelimit.Config{
			Key:    ratelimit.ByUserOrIP("discount"),
			Window: cfg.RateLimitDiscountWindow,
			Max:    cfg.RateLimitDiscountMax,
		},
		OnError: func(err error) { logger.Warn().Err(err).Msg("discount rate limiter failed") },
	}
	idem := common.Idem{R: shared, TTL: cfg.IdempotencyTTL}
	authMiddleware := auth.Middleware{Tokens: d.Tokens}

	catalogHandler := catalog.NewHandler(catalog.HandlerConfig{Service: d.Catalog})
	discountHandler := &discount.Handler{Svc: d.Discounts, Currency: discount.Currency(cfg.CurrencyCode)}
	discountAdmin := &discount.AdminHandler{Admin: d.Admin}
	checkoutHandler := &checkout.Handler{Svc: d.Checkout}
	orderHandler := &order.Handler{Svc: d.Orders}
	orderAdmin := &order.AdminHandler{Svc: d.Orders}
	auditLogger := logger.With().Str("component", "audit").Logger()
	recorder := audit.Recorder{Logger: &auditLogger}
	audited := func(action, resource, idParam string) func(http.Handler) http.Handler {
		return recorder.Middleware(audit.HTTPConfig{Action: action, ResourceType: resource, ResourceIDParam: idParam})
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(obs.RoutePatternMiddleware)
	if cfg.Obs.EnableTracing {
		r.Use(obs.Tracing(serviceName))
	}
	if cfg.Obs.EnablePrometheus {
		metrics := obs.NewHTTPMetrics(cfg.Obs.MetricsNamespace, obs.ParseBucketsCSV(cfg.Obs.MetricsBuckets), nil)
		r.Use(obs.HTTPObs{Metrics: metrics}.Middleware)
	}
	r.Use(obs.RequestLogger{Logger: logger, SkipPaths: []string{"/health/live", "/health/ready", "/metrics"}}.Middleware)
	r.Use(security.CORS(allowedOrigins(cfg.CORSAllowedOrigins)))
	r.Use(gziphandler.GzipHandler)

	if cfg.Obs.EnablePrometheus {
		r.Handle("/metrics", promhttp.Handler())
	}
	if cfg.Obs.EnablePprof {
		r.Mount("/debug/pprof", protectPprof(newPprofMux(), cfg.Obs.PprofUser, cfg.Obs.PprofPass))
	}

	healthHandler := health.Handler{Probes: probes(d), Timeout: cfg.Obs.ReadyTimeout}
	r.Get("/health/live", healthHandler.Live)
	r.Get("/health/ready", healthHandler.Ready)

	r.Route("/api/v1", func(v chi.Router) {
		v.Use(security.Headers{Enable: true, EnableHSTS: cfg.SecurityHSTS}.Middleware)
		v.Use(security.BodyLimit{Max: cfg.BodyLimitBytes}.Middleware)
		v.Use(globalLimit)
		v.Use(authMiddleware.Authenticate)
		v.Use(obs.CaptureUser)

		v.Get("/products", catalogHandler.Products)
		v.Get("/products/{id}", catalogHandler.Product)

		v.Route("/discounts", func(dr chi.Router) {
			dr.Use(authMiddleware.RequireAuth)
			dr.Use(discountLimit.Middleware)
			dr.Post("/validate", discountHandler.Validate)
			dr.Post("/apply", discountHandler.Apply)
		})

		v.Group(func(authR chi.Router) {
			authR.Use(authMiddleware.RequireAuth)
			authR.With(idem.Middleware).Post("/orders", checkoutHandler.PlaceOrder)
			authR.Get("/orders", orderHandler.List)
			authR.Get("/orders/{orderId}", orderHandler.Get)
			authR.Post("/orders/{orderId}/cancel", orderHandler.Cancel)
			authR.With(idem.Middleware).Post("/orders/{orderId}/pay", orderHandler.Pay)
		})

		v.Route("/admin", func(admin chi.Router) {
			admin.Use(authMiddleware.RequireAuth)
			admin.Use(auth.RequireRole(auth.RoleAdmin))

			admin.With(audited("product.create", "product", "")).Post("/products", catalogHandler.Create)
			admin.With(audited("product.update", "product", "id")).Put("/products/{id}", catalogHandler.Update)

			admin.Get("/coupons", discountAdmin.ListCoupons)
			admin.With(audited("coupon.create", "coupon", "")).Post("/coupons", discountAdmin.CreateCoupon)
			admin.Get("/coupons/{code}", discountAdmin.GetCoupon)
			admin.With(audited("coupon.update", "coupon", "code")).Put("/coupons/{code}", discountAdmin.UpdateCoupon)
			admin.With(audited("coupon.deactivate", "coupon", "code")).Delete("/coupons/{code}", discountAdmin.DeleteCoupon)

			admin.Get("/gift-cards", discountAdmin.ListGiftCards)
			admin.With(audited("gift_card.issue", "gift_card", "")).Post("/gift-cards", discountAdmin.IssueGiftCard)
			admin.Get("/gift-cards/{code}", discountAdmin.GetGiftCard)
			admin.With(audited("gift_card.deactivate", "gift_card", "code")).Delete("/gift-cards/{code}", discountAdmin.DeactivateGiftCard)

			admin.Get("/redemptions", discountAdmin.ListRedemptions)

			admin.Get("/orders", orderAdmin.List)
			admin.With(audited("order.status", "order", "id")).Patch("/orders/{id}/status", orderAdmin.PatchStatus)
		})
	})
	return r, nil
}

func probes(d *Dependencies) map[string]health.Probe {
	checks := map[string]health.Probe{"store": d.Store.Ping}
	if d.Redis != nil {
		checks["redis"] = func(ctx context.Context) error { return d.Redis.Ping(ctx).Err() }
	}
	return checks
}

func allowedOrigins(origins []string) []string {
	if len(origins) == 0 {
		return []string{"*"}
	}
	return origins
}

func newPprofMux() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/debug/pprof/", pprof.Index)
	mux.HandleFunc("/debug/pprof/cmdline", pprof.Cmdline)
	mux.HandleFunc("/debug/pprof/profile", pprof.Profile)
	mux.HandleFunc("/debug/pprof/symbol", pprof.Symbol)
	mux.HandleFunc("/debug/pprof/trace", pprof.Trace)
	return mux
}

func protectPprof(handler http.Handler, user, pass string) http.Handler {
	user = strings.TrimSpace(user)
	pass = strings.TrimSpace(pass)
	if user == "" {
		return handler
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		u, p, ok := r.BasicAuth()
		if !ok || subtle.ConstantTimeCompare([]byte(u), []byte(user)) != 1 || subtle.ConstantTimeCompare([]byte(p), []byte(pass)) != 1 {
			w.Header().Set("WWW-Authenticate", "Basic realm=restricted")
			http.Error(w, "unauthorised", http.StatusUnauthorized)
			return
		}
		handler.ServeHTTP(w, r)
	})
}
