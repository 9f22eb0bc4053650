package order

import (
	"errors"
	"time"

	"github.com/vincent8494/ecomerce-platform-sub000/internal/discount"
	"github.com/vincent8494/ecomerce-platform-sub000/internal/payment"
	"github.com/vincent8494/ecomerce-platform-sub000/internal/pricing"
)

// AssembleInput carries everything needed to build an order. ID and Now are injected so
// assembly stays deterministic.
type AssembleInput struct {
	ID              string
	UserID          string
	Lines           []Line
	Summary         pricing.Summary
	ShippingAddress Address
	Payment         payment.Snapshot
	Currency        string
	Now             time.Time
}

// Assemble builds a new pending order from line snapshots and composed prices.
// Input slices are copied so later changes by the caller never reach the order.
func Assemble(in AssembleInput) (Order, error) {
	if len(in.Lines) == 0 {
		return Order{}, discount.Reject(discount.ReasonEmptyCart, "")
	}
	if in.ID == "" || in.UserID == "" {
		return Order{}, errors.New("order id and user id are required")
	}
	for _, l := range in.Lines {
		if l.Quantity <= 0 {
			return Order{}, errors.New("line quantity must be positive")
		}
	}
	now := in.Now
	if now.IsZero() {
		now = time.Now()
	}
	now = now.UTC()
	s := in.Summary
	return Order{
		ID:              in.ID,
		UserID:          in.UserID,
		Lines:           append([]Line(nil), in.Lines...),
		ShippingAddress: in.ShippingAddress,
		Payment:         in.Payment,
		ItemsPrice:      s.ItemsPrice,
		ShippingPrice:   s.ShippingPrice,
		TaxPrice:        s.TaxPrice,
		DiscountTotal:   s.DiscountTotal,
		TotalPrice:      s.TotalPrice,
		Discounts:       append([]pricing.Applied{}, s.Discounts...),
		Currency:        in.Currency,
		Status:          StatusPending,
		IsPaid:          false,
		IsDelivered:     false,
		CreatedAt:       now,
		UpdatedAt:       now,
	}, nil
}

// PricingItems converts order lines into pricing inputs.
func PricingItems(lines []Line) []pricing.Item {
	items := make([]pricing.Item, 0, len(lines))
	for _, l := range lines {
		items = append(items, pricing.Item{Qty: l.Quantity, UnitPrice: l.UnitPrice})
	}
	return items
}

// DiscountItems converts order lines into the shape rule evaluators scope against.
func DiscountItems(lines []Line) []discount.Item {
	items := make([]discount.Item, 0, len(lines))
	for _, l := range lines {
		items = append(items, discount.Item{ProductID: l.ProductID, CategoryID: l.CategoryID, Subtotal: l.Subtotal()})
	}
	return items
}
