package catalog

import (
	"errors"
	"strings"
	"time"

	"github.com/vincent8494/ecomerce-platform-sub000/internal/pricing"
)

// ErrProductNotFound is returned when a product does not exist.
var ErrProductNotFound = errors.New("product not found")

// Product is a sellable catalog entry. Price is in minor units.
type Product struct {
	ID         string        `json:"id"`
	Name       string        `json:"name"`
	Image      string        `json:"image,omitempty"`
	CategoryID string        `json:"categoryId,omitempty"`
	Price      pricing.Money `json:"price"`
	Active     bool          `json:"active"`
	CreatedAt  time.Time     `json:"createdAt"`
	UpdatedAt  time.Time     `json:"updatedAt"`
}

// Validate checks a product before it is written.
func (p Product) Validate() error {
	if strings.TrimSpace(p.Name) == "" {
		return errors.New("name is required")
	}
	if p.Price < 0 {
		return errors.New("price must not be negative")
	}
	return nil
}
