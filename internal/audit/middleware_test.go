package audit

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/goccy/go-json"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/vincent8494/ecomerce-platform-sub000/internal/common"
)

func TestRecorderLogsAdminAction(t *testing.T) {
	var buf bytes.Buffer
	logger := zerolog.New(&buf)
	rec := Recorder{Logger: &logger}

	r := chi.NewRouter()
	r.With(rec.Middleware(HTTPConfig{Action: "coupon.deactivate", ResourceType: "coupon", ResourceIDParam: "code"})).
		Delete("/admin/coupons/{code}", func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusNoContent)
		})

	req := httptest.NewRequest(http.MethodDelete, "/admin/coupons/SPRING15", nil)
	req = req.WithContext(common.WithUserID(req.Context(), "boss"))
	r.ServeHTTP(httptest.NewRecorder(), req)

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	require.Equal(t, "audit", entry["message"])
	require.Equal(t, "coupon.deactivate", entry["audit_action"])
	require.Equal(t, "SPRING15", entry["resource_id"])
	require.Equal(t, "boss", entry["actor"])
	require.Equal(t, float64(http.StatusNoContent), entry["status"])
	require.Equal(t, "info", entry["level"])
}

func TestRecorderWarnsOnFailure(t *testing.T) {
	var buf bytes.Buffer
	logger := zerolog.New(&buf)
	h := Recorder{Logger: &logger}.Middleware(HTTPConfig{Action: "gift_card.issue", ResourceType: "gift_card"})(
		http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusBadRequest)
		}))
	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodPost, "/admin/gift-cards", nil))

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	require.Equal(t, "warn", entry["level"])
	require.Equal(t, "anonymous", entry["actor"])
}

func TestRecorderWithoutLoggerPassesThrough(t *testing.T) {
	called := false
	h := Recorder{}.Middleware(HTTPConfig{Action: "noop"})(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
	}))
	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))
	require.True(t, called)
}
