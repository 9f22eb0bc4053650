package checkout

import (
	"errors"
	"net/http"

	"github.com/vincent8494/ecomerce-platform-sub000/internal/common"
	"github.com/vincent8494/ecomerce-platform-sub000/internal/discount"
	"github.com/vincent8494/ecomerce-platform-sub000/internal/order"
)

type Handler struct {
	Svc *Service
}

// PlaceOrder handles POST /orders.
func (h *Handler) PlaceOrder(w http.ResponseWriter, r *http.Request) {
	if h.Svc == nil {
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "checkout service not configured", nil)
		return
	}
	userID, ok := common.UserID(r.Context())
	if !ok || userID == "" {
		common.JSONError(w, http.StatusUnauthorized, "UNAUTHORIZED", "authentication required", nil)
		return
	}
	var payload Input
	if err := common.DecodeJSON(r, &payload); err != nil {
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "invalid payload", nil)
		return
	}
	if len(payload.LineItems) > 0 {
		if err := common.ValidateStruct(payload); err != nil {
			common.WriteAppError(w, err)
			return
		}
	}
	ord, err := h.Svc.PlaceOrder(r.Context(), userID, payload)
	if err != nil {
		h.writeError(w, err)
		return
	}
	common.JSON(w, http.StatusCreated, map[string]any{"data": order.View(ord)})
}

func (h *Handler) writeError(w http.ResponseWriter, err error) {
	if err == nil {
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "unknown error", nil)
		return
	}
	var ruleErr *discount.RuleError
	if errors.As(err, &ruleErr) {
		discount.WriteError(w, err)
		return
	}
	var appErr *common.AppError
	if errors.As(err, &appErr) {
		common.WriteAppError(w, err)
		return
	}
	common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "failed to place order", nil)
}
