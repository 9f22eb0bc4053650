package order

import (
	"time"

	"github.com/vincent8494/ecomerce-platform-sub000/internal/payment"
	"github.com/vincent8494/ecomerce-platform-sub000/internal/pricing"
)

// LineView is the API representation of a line with prices in major units.
type LineView struct {
	ProductID  string  `json:"productId"`
	Name       string  `json:"name"`
	Image      string  `json:"image,omitempty"`
	CategoryID string  `json:"categoryId,omitempty"`
	UnitPrice  float64 `json:"unitPrice"`
	Quantity   int     `json:"quantity"`
	Subtotal   float64 `json:"subtotal"`
}

// DiscountView is one applied discount in major units.
type DiscountView struct {
	Code      string  `json:"code"`
	Source    string  `json:"source"`
	Type      string  `json:"type,omitempty"`
	Amount    float64 `json:"amount"`
	Remainder float64 `json:"remainder,omitempty"`
}

// OrderView is the API representation of an order with prices in major units.
type OrderView struct {
	ID              string           `json:"id"`
	UserID          string           `json:"userId"`
	LineItems       []LineView       `json:"lineItems"`
	ShippingAddress Address          `json:"shippingAddress"`
	PaymentMethod   payment.Snapshot `json:"paymentMethod"`
	ItemsPrice      float64          `json:"itemsPrice"`
	ShippingPrice   float64          `json:"shippingPrice"`
	TaxPrice        float64          `json:"taxPrice"`
	DiscountTotal   float64          `json:"discountTotal"`
	TotalPrice      float64          `json:"totalPrice"`
	Discounts       []DiscountView   `json:"discounts"`
	Currency        string           `json:"currency"`
	Status          Status           `json:"status"`
	IsPaid          bool             `json:"isPaid"`
	PaidAt          *time.Time       `json:"paidAt,omitempty"`
	IsDelivered     bool             `json:"isDelivered"`
	DeliveredAt     *time.Time       `json:"deliveredAt,omitempty"`
	CreatedAt       time.Time        `json:"createdAt"`
	UpdatedAt       time.Time        `json:"updatedAt"`
}

// View converts an order for API responses.
func View(o Order) OrderView {
	lines := make([]LineView, 0, len(o.Lines))
	for _, l := range o.Lines {
		lines = append(lines, LineView{
			ProductID:  l.ProductID,
			Name:       l.Name,
			Image:      l.Image,
			CategoryID: l.CategoryID,
			UnitPrice:  pricing.Major(l.UnitPrice),
			Quantity:   l.Quantity,
			Subtotal:   pricing.Major(l.Subtotal()),
		})
	}
	discounts := make([]DiscountView, 0, len(o.Discounts))
	for _, d := range o.Discounts {
		discounts = append(discounts, DiscountView{
			Code:      d.Code,
			Source:    d.Source,
			Type:      d.Kind,
			Amount:    pricing.Major(d.Amount),
			Remainder: pricing.Major(d.Remainder),
		})
	}
	return OrderView{
		ID:              o.ID,
		UserID:          o.UserID,
		LineItems:       lines,
		ShippingAddress: o.ShippingAddress,
		PaymentMethod:   o.Payment,
		ItemsPrice:      pricing.Major(o.ItemsPrice),
		ShippingPrice:   pricing.Major(o.ShippingPrice),
		TaxPrice:        pricing.Major(o.TaxPrice),
		DiscountTotal:   pricing.Major(o.DiscountTotal),
		TotalPrice:      pricing.Major(o.TotalPrice),
		Discounts:       discounts,
		Currency:        o.Currency,
		Status:          o.Status,
		IsPaid:          o.IsPaid,
		PaidAt:          o.PaidAt,
		IsDelivered:     o.IsDelivered,
		DeliveredAt:     o.DeliveredAt,
		CreatedAt:       o.CreatedAt,
		UpdatedAt:       o.UpdatedAt,
	}
}

// Views converts a page of orders.
func Views(orders []Order) []OrderView {
	out := make([]OrderView, 0, len(orders))
	for _, o := range orders {
		out = append(out, View(o))
	}
	return out
}
