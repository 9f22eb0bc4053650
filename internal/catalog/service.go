package catalog

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/vincent8494/ecomerce-platform-sub000/internal/common"
)

// Store is the persistence boundary for products. Missing records are common.ErrNotFound.
type Store interface {
	GetProduct(ctx context.Context, id string) (Product, error)
	ListProducts(ctx context.Context, limit, offset int) ([]Product, int, error)
	GetProductsByIDs(ctx context.Context, ids []string) ([]Product, error)
	InsertProduct(ctx context.Context, p Product) error
	UpdateProduct(ctx context.Context, p Product) error
}

// Service orchestrates catalog queries and caching.
type Service struct {
	store        Store
	cache        *Cache
	now          func() time.Time
	defaultLimit int
	maxLimit     int
}

// ServiceConfig groups Service dependencies.
type ServiceConfig struct {
	Store        Store
	Cache        *Cache
	Now          func() time.Time
	DefaultLimit int
	MaxLimit     int
}

// ListResult is one page of products.
type ListResult struct {
	Items []Product `json:"items"`
	Total int       `json:"total"`
	Page  int       `json:"page"`
	Limit int       `json:"limit"`
}

type cachedList struct {
	Items []Product `json:"items"`
	Total int       `json:"total"`
}

const (
	productKeyPrefix = "catalog:product:"
	listKeyPrefix    = "catalog:list:"
)

// NewService validates the configuration and constructs a Service.
func NewService(cfg ServiceConfig) (*Service, error) {
	if cfg.Store == nil {
		return nil, errors.New("catalog store is required")
	}
	svc := &Service{
		store:        cfg.Store,
		cache:        cfg.Cache,
		now:          cfg.Now,
		defaultLimit: cfg.DefaultLimit,
		maxLimit:     cfg.MaxLimit,
	}
	if svc.now == nil {
		svc.now = time.Now
	}
	if svc.defaultLimit <= 0 {
		svc.defaultLimit = 20
	}
	if svc.maxLimit <= 0 {
		svc.maxLimit = 100
	}
	return svc, nil
}

// Get returns a single product.
func (s *Service) Get(ctx context.Context, id string) (Product, error) {
	key := productKeyPrefix + id
	var cached Product
	if ok, err := s.cache.GetJSON(ctx, key, &cached); err == nil && ok {
		return cached, nil
	}
	p, err := s.store.GetProduct(ctx, id)
	if err != nil {
		if errors.Is(err, common.ErrNotFound) {
			return Product{}, ErrProductNotFound
		}
		return Product{}, err
	}
	_ = s.cache.SetJSON(ctx, key, p)
	return p, nil
}

// List returns a page of products ordered by creation time.
func (s *Service) List(ctx context.Context, page, limit int) (ListResult, error) {
	if page <= 0 {
		page = 1
	}
	if limit <= 0 {
		limit = s.defaultLimit
	}
	if limit > s.maxLimit {
		limit = s.maxLimit
	}
	key := fmt.Sprintf("%s%d:%d", listKeyPrefix, page, limit)
	var cached cachedList
	if ok, err := s.cache.GetJSON(ctx, key, &cached); err == nil && ok {
		return ListResult{Items: cached.Items, Total: cached.Total, Page: page, Limit: limit}, nil
	}
	items, total, err := s.store.ListProducts(ctx, limit, (page-1)*limit)
	if err != nil {
		return ListResult{}, err
	}
	if items == nil {
		items = []Product{}
	}
	_ = s.cache.SetJSON(ctx, key, cachedList{Items: items, Total: total})
	return ListResult{Items: items, Total: total, Page: page, Limit: limit}, nil
}

// Lookup resolves products by id, bypassing the cache so checkout always prices from the store.
func (s *Service) Lookup(ctx context.Context, ids []string) (map[string]Product, error) {
	unique := make([]string, 0, len(ids))
	seen := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok || id == "" {
			continue
		}
		seen[id] = struct{}{}
		unique = append(unique, id)
	}
	if len(unique) == 0 {
		return map[string]Product{}, nil
	}
	rows, err := s.store.GetProductsByIDs(ctx, unique)
	if err != nil {
		return nil, err
	}
	out := make(map[string]Product, len(rows))
	for _, p := range rows {
		out[p.ID] = p
	}
	return out, nil
}

// Create stores a new product.
func (s *Service) Create(ctx context.Context, p Product) (Product, error) {
	p.Name = strings.TrimSpace(p.Name)
	if err := p.Validate(); err != nil {
		return Product{}, common.NewAppError("VALIDATION_FAILED", err.Error(), http.StatusBadRequest, err)
	}
	now := s.now().UTC()
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	p.CreatedAt = now
	p.UpdatedAt = now
	if err := s.store.InsertProduct(ctx, p); err != nil {
		if errors.Is(err, common.ErrDuplicate) {
			return Product{}, common.NewAppError("CONFLICT", "product already exists", http.StatusConflict, err)
		}
		return Product{}, err
	}
	_ = s.cache.DeletePrefix(ctx, listKeyPrefix)
	return p, nil
}

// Update replaces the mutable fields of an existing product.
func (s *Service) Update(ctx context.Context, p Product) (Product, error) {
	p.Name = strings.TrimSpace(p.Name)
	if err := p.Validate(); err != nil {
		return Product{}, common.NewAppError("VALIDATION_FAILED", err.Error(), http.StatusBadRequest, err)
	}
	existing, err := s.store.GetProduct(ctx, p.ID)
	if err != nil {
		if errors.Is(err, common.ErrNotFound) {
			return Product{}, ErrProductNotFound
		}
		return Product{}, err
	}
	p.CreatedAt = existing.CreatedAt
	p.UpdatedAt = s.now().UTC()
	if err := s.store.UpdateProduct(ctx, p); err != nil {
		if errors.Is(err, common.ErrNotFound) {
			return Product{}, ErrProductNotFound
		}
		return Product{}, err
	}
	_ = s.cache.Delete(ctx, productKeyPrefix+p.ID)
	_ = s.cache.DeletePrefix(ctx, listKeyPrefix)
	return p, nil
}
