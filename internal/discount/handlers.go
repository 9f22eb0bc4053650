package discount

import (
	"errors"
	"net/http"

	"github.com/shopspring/decimal"

	"github.com/vincent8494/ecomerce-platform-sub000/internal/common"
	"github.com/vincent8494/ecomerce-platform-sub000/internal/pricing"
)

// Handler exposes the shopper-facing discount endpoints. Neither endpoint writes state.
type Handler struct {
	Svc      *Service
	Currency Currency
}

type evaluateRequest struct {
	Code         string           `json:"code" validate:"required,max=64"`
	CartSubtotal *decimal.Decimal `json:"cartSubtotal"`
	Items        []itemPayload    `json:"items" validate:"omitempty,max=200,dive"`
}

type itemPayload struct {
	ProductID  string          `json:"productId" validate:"required,max=100"`
	CategoryID string          `json:"categoryId" validate:"max=100"`
	Subtotal   decimal.Decimal `json:"subtotal"`
}

type evaluationView struct {
	Valid  bool   `json:"valid"`
	Code   string `json:"code"`
	Source Source `json:"source,omitempty"`
	Type   Kind   `json:"type,omitempty"`
	// Value is the configured amount: a percentage for percentage coupons, major units otherwise.
	Value     float64 `json:"value"`
	Amount    float64 `json:"amount"`
	Remainder float64 `json:"remainder,omitempty"`
	Reason    Reason  `json:"reason,omitempty"`
	Message   string  `json:"message,omitempty"`
}

// Validate handles POST /discounts/validate. Rule failures are reported in the body with status 200.
func (h *Handler) Validate(w http.ResponseWriter, r *http.Request) {
	subject, code, ok := h.decode(w, r, false)
	if !ok {
		return
	}
	eval, err := h.Svc.Validate(r.Context(), code, subject)
	if err != nil {
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "failed to evaluate code", nil)
		return
	}
	common.JSON(w, http.StatusOK, map[string]any{"data": viewOfEvaluation(eval)})
}

// Apply handles POST /discounts/apply. It computes the discount for a cart without committing it.
func (h *Handler) Apply(w http.ResponseWriter, r *http.Request) {
	subject, code, ok := h.decode(w, r, true)
	if !ok {
		return
	}
	eval, err := h.Svc.Apply(r.Context(), code, subject)
	if err != nil {
		WriteError(w, err)
		return
	}
	common.JSON(w, http.StatusOK, map[string]any{"data": viewOfEvaluation(eval)})
}

func (h *Handler) decode(w http.ResponseWriter, r *http.Request, needSubtotal bool) (Subject, string, bool) {
	if h.Svc == nil {
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "discount service not configured", nil)
		return Subject{}, "", false
	}
	userID, ok := common.UserID(r.Context())
	if !ok || userID == "" {
		common.JSONError(w, http.StatusUnauthorized, "UNAUTHORIZED", "authentication required", nil)
		return Subject{}, "", false
	}
	var req evaluateRequest
	if err := common.DecodeJSON(r, &req); err != nil {
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "invalid payload", nil)
		return Subject{}, "", false
	}
	if err := common.ValidateStruct(req); err != nil {
		common.WriteAppError(w, err)
		return Subject{}, "", false
	}
	subject := Subject{UserID: userID, Currency: h.Currency}
	var itemsTotal int64
	for _, it := range req.Items {
		if it.Subtotal.IsNegative() {
			common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "item subtotal must not be negative", nil)
			return Subject{}, "", false
		}
		minor := pricing.FromMajor(it.Subtotal)
		itemsTotal += minor
		subject.Items = append(subject.Items, Item{ProductID: it.ProductID, CategoryID: it.CategoryID, Subtotal: minor})
	}
	switch {
	case req.CartSubtotal != nil:
		if req.CartSubtotal.IsNegative() {
			common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "cartSubtotal must not be negative", nil)
			return Subject{}, "", false
		}
		subtotal := pricing.FromMajor(*req.CartSubtotal)
		subject.Subtotal = &subtotal
	case len(subject.Items) > 0:
		subject.Subtotal = &itemsTotal
	case needSubtotal:
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "cartSubtotal is required", nil)
		return Subject{}, "", false
	}
	return subject, req.Code, true
}

func viewOfEvaluation(e Evaluation) evaluationView {
	v := evaluationView{
		Valid:     e.Valid,
		Code:      e.Code,
		Source:    e.Source,
		Type:      e.Kind,
		Value:     displayAmount(e.Kind, e.Value),
		Amount:    pricing.Major(e.Amount),
		Remainder: pricing.Major(e.Remainder),
		Reason:    e.Reason,
	}
	if e.Reason != "" {
		v.Message = (&RuleError{Reason: e.Reason}).Message()
	}
	return v
}

// displayAmount renders a stored amount in the units administrators and shoppers use.
func displayAmount(kind Kind, amount int64) float64 {
	if kind == KindPercentage {
		return pricing.BpsToPercent(amount).InexactFloat64()
	}
	return pricing.Major(amount)
}

// StatusFor maps a rejection reason to the HTTP status used for hard failures.
func StatusFor(reason Reason) int {
	switch reason {
	case ReasonConflict:
		return http.StatusConflict
	case "":
		return http.StatusInternalServerError
	}
	return http.StatusUnprocessableEntity
}

// WriteError renders rule rejections with their reason as the error code.
func WriteError(w http.ResponseWriter, err error) {
	var ruleErr *RuleError
	if errors.As(err, &ruleErr) {
		var details any
		if ruleErr.Code != "" || ruleErr.Cause != "" {
			d := map[string]any{"code": ruleErr.Code}
			if ruleErr.Cause != "" {
				d["cause"] = ruleErr.Cause
			}
			details = d
		}
		message := ruleErr.Message()
		if ruleErr.Cause != "" {
			message = (&RuleError{Reason: ruleErr.Cause}).Message()
		}
		common.JSONError(w, StatusFor(ruleErr.Reason), string(ruleErr.Reason), message, details)
		return
	}
	common.WriteAppError(w, err)
}
