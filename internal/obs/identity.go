package obs

import (
	"context"
	"net/http"

	"github.com/vincent8494/ecomerce-platform-sub000/internal/common"
)

type identityKey struct{}

type identity struct {
	userID string
}

func withIdentity(ctx context.Context, id *identity) context.Context {
	return context.WithValue(ctx, identityKey{}, id)
}

// CaptureUser copies the authenticated user id to the request logger. Mount it after
// the auth middleware.
func CaptureUser(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if id, ok := r.Context().Value(identityKey{}).(*identity); ok {
			if user, ok := common.UserID(r.Context()); ok {
				id.userID = user
			}
		}
		next.ServeHTTP(w, r)
	})
}
