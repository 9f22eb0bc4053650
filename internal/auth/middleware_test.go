package auth

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/lestrrat-go/jwx/v2/jwa"
	"github.com/lestrrat-go/jwx/v2/jwt"
	"github.com/stretchr/testify/require"

	"github.com/vincent8494/ecomerce-platform-sub000/internal/common"
)

func newTestTokens(t *testing.T) *Tokens {
	t.Helper()
	tokens, err := NewTokens(Config{Secret: "test-secret", Issuer: "issuer", Audience: "aud", AccessTTL: time.Minute})
	require.NoError(t, err)
	return tokens
}

func TestIssueAndParse(t *testing.T) {
	tokens := newTestTokens(t)
	signed, exp, err := tokens.Issue("user-1", RoleAdmin)
	require.NoError(t, err)
	require.False(t, exp.IsZero())

	claims, err := tokens.Parse(signed)
	require.NoError(t, err)
	require.Equal(t, "user-1", claims.UserID)
	require.Equal(t, []string{RoleAdmin}, claims.Roles)
}

func TestParseRejectsForeignAndExpiredTokens(t *testing.T) {
	tokens := newTestTokens(t)

	other, err := NewTokens(Config{Secret: "other-secret", Issuer: "issuer", Audience: "aud"})
	require.NoError(t, err)
	forged, _, err := other.Issue("user-1")
	require.NoError(t, err)
	_, err = tokens.Parse(forged)
	require.Error(t, err)

	past := time.Now().Add(-time.Hour)
	tokens.WithNow(func() time.Time { return past })
	stale, _, err := tokens.Issue("user-1")
	require.NoError(t, err)
	tokens.WithNow(time.Now)
	_, err = tokens.Parse(stale)
	require.Error(t, err)

	_, err = tokens.Parse("   ")
	require.Error(t, err)
}

func TestParseRejectsUnsignedToken(t *testing.T) {
	tokens := newTestTokens(t)
	tok, err := jwt.NewBuilder().Subject("user-1").Issuer("issuer").Audience([]string{"aud"}).Expiration(time.Now().Add(time.Minute)).Build()
	require.NoError(t, err)
	signed, err := jwt.Sign(tok, jwt.WithKey(jwa.HS512, []byte("test-secret")))
	require.NoError(t, err)
	_, err = tokens.Parse(string(signed))
	require.Error(t, err)
}

func TestRequireAuthAndRole(t *testing.T) {
	tokens := newTestTokens(t)
	mw := Middleware{Tokens: tokens}
	var seenUser string
	var seenAdmin bool
	h := mw.RequireAuth(RequireRole(RoleAdmin)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seenUser, _ = common.UserID(r.Context())
		seenAdmin = common.HasRole(r.Context(), RoleAdmin)
		w.WriteHeader(http.StatusNoContent)
	})))

	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/admin/coupons", nil))
	require.Equal(t, http.StatusUnauthorized, rr.Code)

	shopper, _, err := tokens.Issue("shopper")
	require.NoError(t, err)
	req := httptest.NewRequest(http.MethodGet, "/admin/coupons", nil)
	req.Header.Set("Authorization", "Bearer "+shopper)
	rr = httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	require.Equal(t, http.StatusForbidden, rr.Code)

	admin, _, err := tokens.Issue("boss", RoleAdmin)
	require.NoError(t, err)
	req = httptest.NewRequest(http.MethodGet, "/admin/coupons", nil)
	req.Header.Set("Authorization", "bearer "+admin)
	rr = httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	require.Equal(t, http.StatusNoContent, rr.Code)
	require.Equal(t, "boss", seenUser)
	require.True(t, seenAdmin)

	req = httptest.NewRequest(http.MethodGet, "/admin/coupons", nil)
	req.Header.Set("Authorization", "Bearer not-a-token")
	rr = httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	require.Equal(t, http.StatusUnauthorized, rr.Code)
	require.True(t, strings.Contains(rr.Body.String(), "UNAUTHORIZED"))
}

func TestAuthenticateReadsCookie(t *testing.T) {
	tokens := newTestTokens(t)
	mw := Middleware{Tokens: tokens, AccessCookie: "access_token"}
	signed, _, err := tokens.Issue("cookie-user")
	require.NoError(t, err)

	var seen string
	h := mw.Authenticate(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen, _ = common.UserID(r.Context())
	}))
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(&http.Cookie{Name: "access_token", Value: signed})
	h.ServeHTTP(httptest.NewRecorder(), req)
	require.Equal(t, "cookie-user", seen)

	seen = ""
	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))
	require.Empty(t, seen)
}
