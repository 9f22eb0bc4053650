package discount

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/goccy/go-json"
	"github.com/stretchr/testify/require"

	"github.com/vincent8494/ecomerce-platform-sub000/internal/common"
)

type evaluationResponse struct {
	Data evaluationView `json:"data"`
}

type errorResponse struct {
	Error struct {
		Code    string         `json:"code"`
		Message string         `json:"message"`
		Details map[string]any `json:"details"`
	} `json:"error"`
}

func authed(req *http.Request) *http.Request {
	return req.WithContext(common.WithUserID(context.Background(), "u1"))
}

func TestValidateEndpoint(t *testing.T) {
	store := newStubStore()
	store.coupons["SAVE10"] = percentCoupon("SAVE10", 1000)
	h := &Handler{Svc: newService(store), Currency: CurrencyUSD}

	rec := httptest.NewRecorder()
	h.Validate(rec, authed(httptest.NewRequest(http.MethodPost, "/discounts/validate", strings.NewReader(`{"code":"save10","cartSubtotal":200}`))))
	require.Equal(t, http.StatusOK, rec.Code)

	var resp evaluationResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.True(t, resp.Data.Valid)
	require.Equal(t, 10.0, resp.Data.Value)
	require.Equal(t, 20.0, resp.Data.Amount)

	rec = httptest.NewRecorder()
	h.Validate(rec, authed(httptest.NewRequest(http.MethodPost, "/discounts/validate", strings.NewReader(`{"code":"UNKNOWN"}`))))
	require.Equal(t, http.StatusOK, rec.Code)
	resp = evaluationResponse{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.False(t, resp.Data.Valid)
	require.Equal(t, ReasonNotFound, resp.Data.Reason)
}

func TestApplyEndpoint(t *testing.T) {
	store := newStubStore()
	store.coupons["FIFTY"] = fixedCoupon("FIFTY", 5_000)
	g := giftCard("USED", 1_000)
	g.Redeemed = true
	store.giftCards["USED"] = g
	h := &Handler{Svc: newService(store), Currency: CurrencyUSD}

	rec := httptest.NewRecorder()
	h.Apply(rec, authed(httptest.NewRequest(http.MethodPost, "/discounts/apply", strings.NewReader(`{"code":"FIFTY","cartSubtotal":30}`))))
	require.Equal(t, http.StatusOK, rec.Code)
	var resp evaluationResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Equal(t, 30.0, resp.Data.Amount)

	rec = httptest.NewRecorder()
	h.Apply(rec, authed(httptest.NewRequest(http.MethodPost, "/discounts/apply", strings.NewReader(`{"code":"USED","cartSubtotal":30}`))))
	require.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	var errResp errorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &errResp))
	require.Equal(t, string(ReasonAlreadyRedeemed), errResp.Error.Code)

	rec = httptest.NewRecorder()
	h.Apply(rec, authed(httptest.NewRequest(http.MethodPost, "/discounts/apply", strings.NewReader(`{"code":"FIFTY"}`))))
	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestApplyRequiresUser(t *testing.T) {
	h := &Handler{Svc: newService(newStubStore())}
	rec := httptest.NewRecorder()
	h.Apply(rec, httptest.NewRequest(http.MethodPost, "/discounts/apply", strings.NewReader(`{"code":"X","cartSubtotal":1}`)))
	require.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestAdminCouponLifecycle(t *testing.T) {
	store := newStubStore()
	h := &AdminHandler{Admin: &Admin{Store: store, Now: clock}}
	r := chi.NewRouter()
	r.Post("/admin/coupons", h.CreateCoupon)
	r.Get("/admin/coupons/{code}", h.GetCoupon)
	r.Delete("/admin/coupons/{code}", h.DeleteCoupon)

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/admin/coupons", strings.NewReader(`{"code":"spring15","type":"percentage","amount":15,"maxUses":100}`)))
	require.Equal(t, http.StatusCreated, rec.Code)
	require.Equal(t, int64(1500), store.coupons["SPRING15"].Amount)

	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/admin/coupons", strings.NewReader(`{"code":"BAD","type":"bogus","amount":1}`)))
	require.Equal(t, http.StatusBadRequest, rec.Code)

	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodDelete, "/admin/coupons/SPRING15", nil))
	require.Equal(t, http.StatusNoContent, rec.Code)
	require.False(t, store.coupons["SPRING15"].Active)

	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/admin/coupons/NOPE", nil))
	require.Equal(t, http.StatusNotFound, rec.Code)
}

func TestAdminIssueGiftCard(t *testing.T) {
	store := newStubStore()
	h := &AdminHandler{Admin: &Admin{Store: store, Now: clock}}

	rec := httptest.NewRecorder()
	h.IssueGiftCard(rec, httptest.NewRequest(http.MethodPost, "/admin/gift-cards", strings.NewReader(`{"amount":75}`)))
	require.Equal(t, http.StatusCreated, rec.Code)
	require.Len(t, store.giftCards, 1)
	for code, g := range store.giftCards {
		require.Len(t, code, GiftCardCodeLength)
		require.Equal(t, int64(7_500), g.Amount)
	}

	rec = httptest.NewRecorder()
	h.IssueGiftCard(rec, httptest.NewRequest(http.MethodPost, "/admin/gift-cards", strings.NewReader(`{"amount":0}`)))
	require.Equal(t, http.StatusBadRequest, rec.Code)
}
