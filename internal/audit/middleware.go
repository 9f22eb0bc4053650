package audit

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"

	"github.com/vincent8494/ecomerce-platform-sub000/internal/common"
	"github.com/vincent8494/ecomerce-platform-sub000/internal/obs"
)

// Recorder writes one audit line per administrative request after it was handled.
type Recorder struct {
	Logger *zerolog.Logger
}

// HTTPConfig customises how the audit entry is produced for a route.
type HTTPConfig struct {
	Action          string
	ResourceType    string
	ResourceIDParam string
}

// Middleware returns a chi-compatible middleware that records audit entries.
func (r Recorder) Middleware(cfg HTTPConfig) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		if r.Logger == nil {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
			recorder := obs.NewStatusRecorder(w)
			next.ServeHTTP(recorder, req)

			actor := "anonymous"
			if userID, ok := common.UserID(req.Context()); ok && userID != "" {
				actor = userID
			}
			event := r.Logger.Info()
			if recorder.Status() >= http.StatusBadRequest {
				event = r.Logger.Warn()
			}
			event = event.
				Str("audit_action", cfg.Action).
				Str("resource_type", cfg.ResourceType).
				Str("actor", actor).
				Int("status", recorder.Status())
			if cfg.ResourceIDParam != "" {
				event = event.Str("resource_id", chi.URLParam(req, cfg.ResourceIDParam))
			}
			if reqID := middleware.GetReqID(req.Context()); reqID != "" {
				event = event.Str("request_id", reqID)
			}
			event.Msg("audit")
		})
	}
}
