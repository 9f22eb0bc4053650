package app

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/goccy/go-json"
	redis "github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/vincent8494/ecomerce-platform-sub000/internal/auth"
	"github.com/vincent8494/ecomerce-platform-sub000/internal/catalog"
	"github.com/vincent8494/ecomerce-platform-sub000/internal/config"
	"github.com/vincent8494/ecomerce-platform-sub000/internal/discount"
	"github.com/vincent8494/ecomerce-platform-sub000/internal/repo"
)

const checkoutBody = `{
  "lineItems": [{"productId": "p1", "quantity": 2}],
  "shippingAddress": {"fullName": "Ada Lovelace", "line1": "1 Main St", "city": "Springfield", "postalCode": "12345", "country": "US"},
  "paymentMethod": {"type": "card", "cardNumber": "4242424242424242", "holder": "Ada Lovelace", "expMonth": 12, "expYear": 2099},
  "appliedCodes": ["SAVE20"]
}`

type testServer struct {
	handler http.Handler
	deps    *Dependencies
}

func newTestServer(t *testing.T) testServer {
	t.Helper()
	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })

	cfg := &config.Config{
		StoreDriver:             config.DriverMemory,
		JWTSecret:               "router-secret",
		CurrencyCode:            "USD",
		PricingTaxRateBPS:       1300,
		PricingFlatShipping:     1000,
		IdempotencyTTL:          time.Minute,
		CheckoutLockTTL:         5 * time.Second,
		LockMaxWait:             time.Second,
		RateLimitDiscountMax:    100,
		RateLimitDiscountWindow: time.Minute,
		BodyLimitBytes:          1 << 20,
		Obs:                     config.Observability{EnablePrometheus: true, MetricsNamespace: "shop_test"},
	}
	store := repo.NewMemory()
	ctx := context.Background()
	require.NoError(t, store.InsertProduct(ctx, catalog.Product{ID: "p1", Name: "Lamp", Price: 5000, Active: true}))
	require.NoError(t, store.InsertCoupon(ctx, discount.Coupon{ID: "c1", Code: "SAVE20", Kind: discount.KindFixed, Amount: 2000, Active: true, UsedBy: []string{}}))

	deps, err := Wire(cfg, zerolog.Nop(), store, rdb)
	require.NoError(t, err)
	// events are exercised by the events package; keep the router test off the task queue
	deps.Bus.Scheduler = nil

	h, err := NewRouter(deps)
	require.NoError(t, err)
	return testServer{handler: h, deps: deps}
}

func (s testServer) token(t *testing.T, user string, roles ...string) string {
	t.Helper()
	signed, _, err := s.deps.Tokens.Issue(user, roles...)
	require.NoError(t, err)
	return signed
}

func (s testServer) do(method, path, token, body string, headers map[string]string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	rr := httptest.NewRecorder()
	s.handler.ServeHTTP(rr, req)
	return rr
}

func TestRouterHealthAndMetrics(t *testing.T) {
	s := newTestServer(t)
	require.Equal(t, http.StatusOK, s.do(http.MethodGet, "/health/live", "", "", nil).Code)

	rr := s.do(http.MethodGet, "/health/ready", "", "", nil)
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())

	s.do(http.MethodGet, "/api/v1/products", "", "", nil)
	rr = s.do(http.MethodGet, "/metrics", "", "", nil)
	require.Equal(t, http.StatusOK, rr.Code)
	require.Contains(t, rr.Body.String(), "shop_test_http_requests_total")
}

func TestRouterDiscountValidate(t *testing.T) {
	s := newTestServer(t)

	rr := s.do(http.MethodPost, "/api/v1/discounts/validate", "", `{"code":"SAVE20"}`, nil)
	require.Equal(t, http.StatusUnauthorized, rr.Code)

	rr = s.do(http.MethodPost, "/api/v1/discounts/validate", s.token(t, "u1"), `{"code":"save20","cartSubtotal":100}`, nil)
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	var resp struct {
		Data struct {
			Valid  bool    `json:"valid"`
			Amount float64 `json:"amount"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	require.True(t, resp.Data.Valid)
	require.InDelta(t, 20.0, resp.Data.Amount, 0.001)
	require.NotEmpty(t, rr.Header().Get("X-RateLimit-Remaining"))
}

func TestRouterPlaceOrderIsIdempotent(t *testing.T) {
	s := newTestServer(t)
	shopper := s.token(t, "u1")
	headers := map[string]string{"Idempotency-Key": "order-attempt-1"}

	first := s.do(http.MethodPost, "/api/v1/orders", shopper, checkoutBody, headers)
	require.Equal(t, http.StatusCreated, first.Code, first.Body.String())
	var created struct {
		Data struct {
			ID         string  `json:"id"`
			TotalPrice float64 `json:"totalPrice"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(first.Body.Bytes(), &created))
	require.InDelta(t, 103.0, created.Data.TotalPrice, 0.001)

	replay := s.do(http.MethodPost, "/api/v1/orders", shopper, checkoutBody, headers)
	require.Equal(t, http.StatusCreated, replay.Code)
	require.Equal(t, "true", replay.Header().Get("Idempotency-Replayed"))
	require.JSONEq(t, first.Body.String(), replay.Body.String())

	rr := s.do(http.MethodGet, "/api/v1/orders/"+created.Data.ID, shopper, "", nil)
	require.Equal(t, http.StatusOK, rr.Code)

	rr = s.do(http.MethodGet, "/api/v1/orders/"+created.Data.ID, s.token(t, "u2"), "", nil)
	require.Equal(t, http.StatusNotFound, rr.Code)

	// the coupon is single use per user
	again := s.do(http.MethodPost, "/api/v1/orders", shopper, checkoutBody, map[string]string{"Idempotency-Key": "order-attempt-2"})
	require.Equal(t, http.StatusUnprocessableEntity, again.Code)
	require.Contains(t, again.Body.String(), "ALREADY_USED")
}

func TestRouterAdminRequiresRole(t *testing.T) {
	s := newTestServer(t)

	rr := s.do(http.MethodGet, "/api/v1/admin/coupons", s.token(t, "u1"), "", nil)
	require.Equal(t, http.StatusForbidden, rr.Code)

	admin := s.token(t, "boss", auth.RoleAdmin)
	rr = s.do(http.MethodGet, "/api/v1/admin/coupons", admin, "", nil)
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	require.Contains(t, rr.Body.String(), "SAVE20")
	require.Equal(t, "no-store", rr.Header().Get("Cache-Control"))
}
