package common_test

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	redis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"

	"github.com/vincent8494/ecomerce-platform-sub000/internal/common"
)

func newIdem(t *testing.T) (*miniredis.Miniredis, common.Idem) {
	t.Helper()
	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return mr, common.Idem{R: client, TTL: time.Minute}
}

func post(h http.Handler, key, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/api/v1/orders", strings.NewReader(body))
	if key != "" {
		req.Header.Set("Idempotency-Key", key)
	}
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	return rr
}

func TestIdempotencyReplaysStoredResponse(t *testing.T) {
	_, idem := newIdem(t)
	var calls atomic.Int32
	h := idem.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		n := calls.Add(1)
		common.JSON(w, http.StatusCreated, map[string]any{"call": n})
	}))

	first := post(h, "k1", `{"a":1}`)
	require.Equal(t, http.StatusCreated, first.Code)

	second := post(h, "k1", `{"a":1}`)
	require.Equal(t, http.StatusCreated, second.Code)
	require.Equal(t, "true", second.Header().Get("Idempotency-Replayed"))
	require.JSONEq(t, first.Body.String(), second.Body.String())
	require.Equal(t, int32(1), calls.Load())

	reused := post(h, "k1", `{"a":2}`)
	require.Equal(t, http.StatusUnprocessableEntity, reused.Code)

	post(h, "", `{"a":1}`)
	require.Equal(t, int32(2), calls.Load())
}

func TestIdempotencyDoesNotStoreServerErrors(t *testing.T) {
	mr, idem := newIdem(t)
	var calls atomic.Int32
	h := idem.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) == 1 {
			common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "boom", nil)
			return
		}
		w.WriteHeader(http.StatusCreated)
	}))

	require.Equal(t, http.StatusInternalServerError, post(h, "k2", `{}`).Code)
	require.Empty(t, mr.Keys())
	require.Equal(t, http.StatusCreated, post(h, "k2", `{}`).Code)
	require.Equal(t, int32(2), calls.Load())
}

func TestIdempotencyInProgress(t *testing.T) {
	_, idem := newIdem(t)
	entered := make(chan struct{})
	release := make(chan struct{})
	h := idem.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		close(entered)
		<-release
		w.WriteHeader(http.StatusCreated)
	}))

	done := make(chan int, 1)
	go func() { done <- post(h, "k3", `{}`).Code }()
	<-entered
	require.Equal(t, http.StatusConflict, post(h, "k3", `{}`).Code)
	close(release)
	require.Equal(t, http.StatusCreated, <-done)
}
