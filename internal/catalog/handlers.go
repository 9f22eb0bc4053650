package catalog

import (
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"github.com/vincent8494/ecomerce-platform-sub000/internal/common"
	"github.com/vincent8494/ecomerce-platform-sub000/internal/pricing"
)

// Handler exposes public and admin catalog endpoints.
type Handler struct {
	service *Service
}

// HandlerConfig configures the Handler dependencies.
type HandlerConfig struct {
	Service *Service
}

// NewHandler constructs a Handler.
func NewHandler(cfg HandlerConfig) *Handler {
	return &Handler{service: cfg.Service}
}

type productRequest struct {
	Name       string          `json:"name" validate:"required,max=200"`
	Image      string          `json:"image" validate:"omitempty,max=500"`
	CategoryID string          `json:"categoryId" validate:"max=100"`
	Price      decimal.Decimal `json:"price"`
	Active     *bool           `json:"active"`
}

// ProductView is the API representation of a product with its price in major units.
type ProductView struct {
	ID         string    `json:"id"`
	Name       string    `json:"name"`
	Image      string    `json:"image,omitempty"`
	CategoryID string    `json:"categoryId,omitempty"`
	Price      float64   `json:"price"`
	Active     bool      `json:"active"`
	CreatedAt  time.Time `json:"createdAt"`
	UpdatedAt  time.Time `json:"updatedAt"`
}

func viewOf(p Product) ProductView {
	return ProductView{
		ID:         p.ID,
		Name:       p.Name,
		Image:      p.Image,
		CategoryID: p.CategoryID,
		Price:      pricing.Major(p.Price),
		Active:     p.Active,
		CreatedAt:  p.CreatedAt,
		UpdatedAt:  p.UpdatedAt,
	}
}

func (req productRequest) product(id string) (Product, error) {
	if req.Price.IsNegative() {
		return Product{}, common.NewAppError("VALIDATION_FAILED", "price must not be negative", http.StatusBadRequest, nil)
	}
	active := true
	if req.Active != nil {
		active = *req.Active
	}
	return Product{
		ID:         id,
		Name:       req.Name,
		Image:      req.Image,
		CategoryID: req.CategoryID,
		Price:      pricing.FromMajor(req.Price),
		Active:     active,
	}, nil
}

// Products handles GET /api/v1/products.
func (h *Handler) Products(w http.ResponseWriter, r *http.Request) {
	if h.service == nil {
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "catalog service not configured", nil)
		return
	}
	page, limit := common.ParsePagination(r, 0)
	res, err := h.service.List(r.Context(), page, limit)
	if err != nil {
		h.writeError(w, err)
		return
	}
	views := make([]ProductView, 0, len(res.Items))
	for _, p := range res.Items {
		views = append(views, viewOf(p))
	}
	common.JSON(w, http.StatusOK, map[string]any{
		"data": views,
		"pagination": common.NewPagination(res.Page, res.Limit, res.Total),
	})
}

// Product handles GET /api/v1/products/{id}.
func (h *Handler) Product(w http.ResponseWriter, r *http.Request) {
	if h.service == nil {
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "catalog service not configured", nil)
		return
	}
	p, err := h.service.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.writeError(w, err)
		return
	}
	common.JSON(w, http.StatusOK, map[string]any{"data": viewOf(p)})
}

// Create handles POST /api/v1/admin/products.
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	p, ok := h.decode(w, r, "")
	if !ok {
		return
	}
	created, err := h.service.Create(r.Context(), p)
	if err != nil {
		h.writeError(w, err)
		return
	}
	common.JSON(w, http.StatusCreated, map[string]any{"data": viewOf(created)})
}

// Update handles PUT /api/v1/admin/products/{id}.
func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	p, ok := h.decode(w, r, chi.URLParam(r, "id"))
	if !ok {
		return
	}
	updated, err := h.service.Update(r.Context(), p)
	if err != nil {
		h.writeError(w, err)
		return
	}
	common.JSON(w, http.StatusOK, map[string]any{"data": viewOf(updated)})
}

func (h *Handler) decode(w http.ResponseWriter, r *http.Request, id string) (Product, bool) {
	if h.service == nil {
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "catalog service not configured", nil)
		return Product{}, false
	}
	var req productRequest
	if err := common.DecodeJSON(r, &req); err != nil {
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "invalid payload", nil)
		return Product{}, false
	}
	if err := common.ValidateStruct(req); err != nil {
		common.WriteAppError(w, err)
		return Product{}, false
	}
	p, err := req.product(id)
	if err != nil {
		common.WriteAppError(w, err)
		return Product{}, false
	}
	return p, true
}

func (h *Handler) writeError(w http.ResponseWriter, err error) {
	if errors.Is(err, ErrProductNotFound) {
		common.JSONError(w, http.StatusNotFound, "NOT_FOUND", "product not found", nil)
		return
	}
	common.WriteAppError(w, err)
}
