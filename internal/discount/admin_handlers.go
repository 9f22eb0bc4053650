package discount

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"github.com/vincent8494/ecomerce-platform-sub000/internal/common"
	"github.com/vincent8494/ecomerce-platform-sub000/internal/pricing"
)

// AdminHandler exposes coupon, gift card and redemption management endpoints.
type AdminHandler struct {
	Admin *Admin
}

type restrictionsPayload struct {
	UserIDs     []string         `json:"userIds" validate:"omitempty,max=1000,dive,required"`
	ProductIDs  []string         `json:"productIds" validate:"omitempty,max=1000,dive,required"`
	CategoryIDs []string         `json:"categoryIds" validate:"omitempty,max=1000,dive,required"`
	MinPurchase *decimal.Decimal `json:"minPurchase"`
}

type couponPayload struct {
	Code         string              `json:"code" validate:"omitempty,max=64"`
	Type         string              `json:"type" validate:"required,oneof=percentage fixed"`
	Amount       decimal.Decimal     `json:"amount"`
	ExpiresAt    *time.Time          `json:"expiresAt"`
	MaxUses      *int                `json:"maxUses" validate:"omitempty,min=0"`
	Restrictions restrictionsPayload `json:"restrictions"`
	Active       *bool               `json:"active"`
}

type giftCardPayload struct {
	Amount       decimal.Decimal     `json:"amount"`
	Currency     string              `json:"currency" validate:"omitempty,len=3"`
	ExpiresAt    *time.Time          `json:"expiresAt"`
	Restrictions restrictionsPayload `json:"restrictions"`
}

type restrictionsView struct {
	UserIDs     []string `json:"userIds,omitempty"`
	ProductIDs  []string `json:"productIds,omitempty"`
	CategoryIDs []string `json:"categoryIds,omitempty"`
	MinPurchase *float64 `json:"minPurchase,omitempty"`
}

type couponView struct {
	ID           string           `json:"id"`
	Code         string           `json:"code"`
	Type         Kind             `json:"type"`
	Amount       float64          `json:"amount"`
	ExpiresAt    *time.Time       `json:"expiresAt,omitempty"`
	MaxUses      *int             `json:"maxUses,omitempty"`
	UsedCount    int              `json:"usedCount"`
	UsedBy       []string         `json:"usedBy"`
	Restrictions restrictionsView `json:"restrictions"`
	Active       bool             `json:"active"`
	CreatedAt    time.Time        `json:"createdAt"`
	UpdatedAt    time.Time        `json:"updatedAt"`
}

type giftCardView struct {
	ID              string           `json:"id"`
	Code            string           `json:"code"`
	Amount          float64          `json:"amount"`
	Currency        Currency         `json:"currency"`
	ExpiresAt       *time.Time       `json:"expiresAt,omitempty"`
	Restrictions    restrictionsView `json:"restrictions"`
	Active          bool             `json:"active"`
	Redeemed        bool             `json:"redeemed"`
	RedeemedAt      *time.Time       `json:"redeemedAt,omitempty"`
	RedeemedBy      string           `json:"redeemedBy,omitempty"`
	RedeemedOrderID string           `json:"redeemedOrderId,omitempty"`
	CreatedAt       time.Time        `json:"createdAt"`
}

type redemptionView struct {
	ID         string    `json:"id"`
	Code       string    `json:"code"`
	Source     Source    `json:"source"`
	UserID     string    `json:"userId"`
	OrderID    string    `json:"orderId"`
	Amount     float64   `json:"amount"`
	RedeemedAt time.Time `json:"redeemedAt"`
}

// CreateCoupon handles POST /admin/coupons.
func (h *AdminHandler) CreateCoupon(w http.ResponseWriter, r *http.Request) {
	var payload couponPayload
	if !h.decode(w, r, &payload) {
		return
	}
	if payload.Code == "" {
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "code is required", nil)
		return
	}
	c, err := payload.coupon(payload.Code)
	if err != nil {
		common.WriteAppError(w, err)
		return
	}
	created, err := h.Admin.CreateCoupon(r.Context(), c)
	if err != nil {
		writeAdminError(w, err)
		return
	}
	common.JSON(w, http.StatusCreated, map[string]any{"data": viewOfCoupon(created)})
}

// UpdateCoupon handles PUT /admin/coupons/{code}.
func (h *AdminHandler) UpdateCoupon(w http.ResponseWriter, r *http.Request) {
	var payload couponPayload
	if !h.decode(w, r, &payload) {
		return
	}
	c, err := payload.coupon(chi.URLParam(r, "code"))
	if err != nil {
		common.WriteAppError(w, err)
		return
	}
	updated, err := h.Admin.UpdateCoupon(r.Context(), c)
	if err != nil {
		writeAdminError(w, err)
		return
	}
	common.JSON(w, http.StatusOK, map[string]any{"data": viewOfCoupon(updated)})
}

// GetCoupon handles GET /admin/coupons/{code}.
func (h *AdminHandler) GetCoupon(w http.ResponseWriter, r *http.Request) {
	if !h.ready(w) {
		return
	}
	c, err := h.Admin.GetCoupon(r.Context(), chi.URLParam(r, "code"))
	if err != nil {
		writeAdminError(w, err)
		return
	}
	common.JSON(w, http.StatusOK, map[string]any{"data": viewOfCoupon(c)})
}

// ListCoupons handles GET /admin/coupons.
func (h *AdminHandler) ListCoupons(w http.ResponseWriter, r *http.Request) {
	if !h.ready(w) {
		return
	}
	page, perPage := pageParams(r)
	rows, total, err := h.Admin.ListCoupons(r.Context(), perPage, common.Offset(page, perPage))
	if err != nil {
		writeAdminError(w, err)
		return
	}
	views := make([]couponView, 0, len(rows))
	for _, c := range rows {
		views = append(views, viewOfCoupon(c))
	}
	writePage(w, views, total, page, perPage)
}

// DeleteCoupon handles DELETE /admin/coupons/{code} as a soft deactivation.
func (h *AdminHandler) DeleteCoupon(w http.ResponseWriter, r *http.Request) {
	if !h.ready(w) {
		return
	}
	if err := h.Admin.DeactivateCoupon(r.Context(), chi.URLParam(r, "code")); err != nil {
		writeAdminError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// IssueGiftCard handles POST /admin/gift-cards.
func (h *AdminHandler) IssueGiftCard(w http.ResponseWriter, r *http.Request) {
	var payload giftCardPayload
	if !h.decode(w, r, &payload) {
		return
	}
	if !payload.Amount.IsPositive() {
		common.JSONError(w, http.StatusBadRequest, "VALIDATION_FAILED", "amount must be positive", nil)
		return
	}
	restrictions, err := payload.Restrictions.restrictions()
	if err != nil {
		common.WriteAppError(w, err)
		return
	}
	card, err := h.Admin.IssueGiftCard(r.Context(), GiftCard{
		Amount:       pricing.FromMajor(payload.Amount),
		Currency:     Currency(payload.Currency),
		ExpiresAt:    payload.ExpiresAt,
		Restrictions: restrictions,
	})
	if err != nil {
		writeAdminError(w, err)
		return
	}
	common.JSON(w, http.StatusCreated, map[string]any{"data": viewOfGiftCard(card)})
}

// GetGiftCard handles GET /admin/gift-cards/{code}.
func (h *AdminHandler) GetGiftCard(w http.ResponseWriter, r *http.Request) {
	if !h.ready(w) {
		return
	}
	g, err := h.Admin.GetGiftCard(r.Context(), chi.URLParam(r, "code"))
	if err != nil {
		writeAdminError(w, err)
		return
	}
	common.JSON(w, http.StatusOK, map[string]any{"data": viewOfGiftCard(g)})
}

// ListGiftCards handles GET /admin/gift-cards.
func (h *AdminHandler) ListGiftCards(w http.ResponseWriter, r *http.Request) {
	if !h.ready(w) {
		return
	}
	page, perPage := pageParams(r)
	rows, total, err := h.Admin.ListGiftCards(r.Context(), perPage, common.Offset(page, perPage))
	if err != nil {
		writeAdminError(w, err)
		return
	}
	views := make([]giftCardView, 0, len(rows))
	for _, g := range rows {
		views = append(views, viewOfGiftCard(g))
	}
	writePage(w, views, total, page, perPage)
}

// DeactivateGiftCard handles POST /admin/gift-cards/{code}/deactivate.
func (h *AdminHandler) DeactivateGiftCard(w http.ResponseWriter, r *http.Request) {
	if !h.ready(w) {
		return
	}
	if err := h.Admin.DeactivateGiftCard(r.Context(), chi.URLParam(r, "code")); err != nil {
		writeAdminError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ListRedemptions handles GET /admin/redemptions?code=.
func (h *AdminHandler) ListRedemptions(w http.ResponseWriter, r *http.Request) {
	if !h.ready(w) {
		return
	}
	page, perPage := pageParams(r)
	rows, total, err := h.Admin.ListRedemptions(r.Context(), r.URL.Query().Get("code"), perPage, common.Offset(page, perPage))
	if err != nil {
		writeAdminError(w, err)
		return
	}
	views := make([]redemptionView, 0, len(rows))
	for _, rd := range rows {
		views = append(views, redemptionView{
			ID:         rd.ID,
			Code:       rd.Code,
			Source:     rd.Source,
			UserID:     rd.UserID,
			OrderID:    rd.OrderID,
			Amount:     pricing.Major(rd.Amount),
			RedeemedAt: rd.RedeemedAt,
		})
	}
	writePage(w, views, total, page, perPage)
}

func (h *AdminHandler) ready(w http.ResponseWriter) bool {
	if h.Admin == nil || h.Admin.Store == nil {
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "discount admin not configured", nil)
		return false
	}
	return true
}

func (h *AdminHandler) decode(w http.ResponseWriter, r *http.Request, dst any) bool {
	if !h.ready(w) {
		return false
	}
	if err := common.DecodeJSON(r, dst); err != nil {
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "invalid payload", nil)
		return false
	}
	if err := common.ValidateStruct(dst); err != nil {
		common.WriteAppError(w, err)
		return false
	}
	return true
}

func (p couponPayload) coupon(code string) (Coupon, error) {
	if p.Amount.IsNegative() {
		return Coupon{}, common.NewAppError("VALIDATION_FAILED", "amount must not be negative", http.StatusBadRequest, nil)
	}
	restrictions, err := p.Restrictions.restrictions()
	if err != nil {
		return Coupon{}, err
	}
	kind := Kind(p.Type)
	amount := pricing.FromMajor(p.Amount)
	if kind == KindPercentage {
		amount = pricing.PercentToBps(p.Amount)
	}
	active := true
	if p.Active != nil {
		active = *p.Active
	}
	return Coupon{
		Code:         code,
		Kind:         kind,
		Amount:       amount,
		ExpiresAt:    p.ExpiresAt,
		MaxUses:      p.MaxUses,
		Restrictions: restrictions,
		Active:       active,
	}, nil
}

func (p restrictionsPayload) restrictions() (Restrictions, error) {
	r := Restrictions{UserIDs: p.UserIDs, ProductIDs: p.ProductIDs, CategoryIDs: p.CategoryIDs}
	if p.MinPurchase != nil {
		if p.MinPurchase.IsNegative() {
			return Restrictions{}, common.NewAppError("VALIDATION_FAILED", "minPurchase must not be negative", http.StatusBadRequest, nil)
		}
		v := pricing.FromMajor(*p.MinPurchase)
		r.MinPurchase = &v
	}
	return r, nil
}

func viewOfRestrictions(r Restrictions) restrictionsView {
	v := restrictionsView{UserIDs: r.UserIDs, ProductIDs: r.ProductIDs, CategoryIDs: r.CategoryIDs}
	if r.MinPurchase != nil {
		m := pricing.Major(*r.MinPurchase)
		v.MinPurchase = &m
	}
	return v
}

func viewOfCoupon(c Coupon) couponView {
	usedBy := c.UsedBy
	if usedBy == nil {
		usedBy = []string{}
	}
	return couponView{
		ID:           c.ID,
		Code:         c.Code,
		Type:         c.Kind,
		Amount:       displayAmount(c.Kind, c.Amount),
		ExpiresAt:    c.ExpiresAt,
		MaxUses:      c.MaxUses,
		UsedCount:    c.UsedCount,
		UsedBy:       usedBy,
		Restrictions: viewOfRestrictions(c.Restrictions),
		Active:       c.Active,
		CreatedAt:    c.CreatedAt,
		UpdatedAt:    c.UpdatedAt,
	}
}

func viewOfGiftCard(g GiftCard) giftCardView {
	return giftCardView{
		ID:              g.ID,
		Code:            g.Code,
		Amount:          pricing.Major(g.Amount),
		Currency:        g.Currency,
		ExpiresAt:       g.ExpiresAt,
		Restrictions:    viewOfRestrictions(g.Restrictions),
		Active:          g.Active,
		Redeemed:        g.Redeemed,
		RedeemedAt:      g.RedeemedAt,
		RedeemedBy:      g.RedeemedBy,
		RedeemedOrderID: g.RedeemedOrderID,
		CreatedAt:       g.CreatedAt,
	}
}

func pageParams(r *http.Request) (int, int) {
	page, perPage := common.ParsePagination(r, 50)
	if perPage > 200 {
		perPage = 200
	}
	return page, perPage
}

func writePage(w http.ResponseWriter, data any, total, page, perPage int) {
	w.Header().Set("X-Total-Count", strconv.Itoa(total))
	common.JSON(w, http.StatusOK, map[string]any{
		"data": data,
		"pagination": common.NewPagination(page, perPage, total),
	})
}

func writeAdminError(w http.ResponseWriter, err error) {
	if errors.Is(err, ErrNotFound) {
		common.JSONError(w, http.StatusNotFound, string(ReasonNotFound), "discount code not found", nil)
		return
	}
	WriteError(w, err)
}
