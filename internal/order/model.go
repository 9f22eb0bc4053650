package order

import (
	"time"

	"github.com/vincent8494/ecomerce-platform-sub000/internal/payment"
	"github.com/vincent8494/ecomerce-platform-sub000/internal/pricing"
)

// Status is the fulfillment state of an order.
type Status string

const (
	StatusPending    Status = "pending"
	StatusProcessing Status = "processing"
	StatusShipped    Status = "shipped"
	StatusDelivered  Status = "delivered"
	StatusCancelled  Status = "cancelled"
	StatusReturned   Status = "returned"
)

var transitions = map[Status][]Status{
	StatusPending:    {StatusProcessing, StatusCancelled},
	StatusProcessing: {StatusShipped, StatusCancelled},
	StatusShipped:    {StatusDelivered},
	StatusDelivered:  {StatusReturned},
}

// Valid reports whether the status is known.
func (s Status) Valid() bool {
	switch s {
	case StatusPending, StatusProcessing, StatusShipped, StatusDelivered, StatusCancelled, StatusReturned:
		return true
	}
	return false
}

// Terminal reports whether no further transitions are possible.
func (s Status) Terminal() bool {
	return len(transitions[s]) == 0
}

// CanTransition reports whether an order may move from one status to another.
func CanTransition(from, to Status) bool {
	for _, next := range transitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// Line is a product snapshot taken when the order was placed.
type Line struct {
	ProductID  string        `json:"productId"`
	Name       string        `json:"name"`
	Image      string        `json:"image,omitempty"`
	CategoryID string        `json:"categoryId,omitempty"`
	UnitPrice  pricing.Money `json:"unitPrice"`
	Quantity   int           `json:"quantity"`
}

// Subtotal returns unit price × quantity.
func (l Line) Subtotal() pricing.Money {
	if l.Quantity <= 0 {
		return 0
	}
	return l.UnitPrice * pricing.Money(l.Quantity)
}

// Address is the shipping destination captured on the order.
type Address struct {
	FullName   string `json:"fullName" validate:"required,max=200"`
	Line1      string `json:"line1" validate:"required,max=300"`
	Line2      string `json:"line2,omitempty" validate:"max=300"`
	City       string `json:"city" validate:"required,max=120"`
	PostalCode string `json:"postalCode" validate:"required,max=20"`
	Country    string `json:"country" validate:"required,max=80"`
	Phone      string `json:"phone,omitempty" validate:"max=40"`
}

// Order is the immutable record of a purchase. Only status and payment/delivery flags change after creation.
type Order struct {
	ID              string            `json:"id"`
	UserID          string            `json:"userId"`
	Lines           []Line            `json:"lineItems"`
	ShippingAddress Address           `json:"shippingAddress"`
	Payment         payment.Snapshot  `json:"paymentMethod"`
	ItemsPrice      pricing.Money     `json:"itemsPrice"`
	ShippingPrice   pricing.Money     `json:"shippingPrice"`
	TaxPrice        pricing.Money     `json:"taxPrice"`
	DiscountTotal   pricing.Money     `json:"discountTotal"`
	TotalPrice      pricing.Money     `json:"totalPrice"`
	Discounts       []pricing.Applied `json:"discounts"`
	Currency        string            `json:"currency"`
	Status          Status            `json:"status"`
	IsPaid          bool              `json:"isPaid"`
	PaidAt          *time.Time        `json:"paidAt,omitempty"`
	IsDelivered     bool              `json:"isDelivered"`
	DeliveredAt     *time.Time        `json:"deliveredAt,omitempty"`
	CreatedAt       time.Time         `json:"createdAt"`
	UpdatedAt       time.Time         `json:"updatedAt"`
}

// Clone returns a deep copy of the order.
func (o Order) Clone() Order {
	out := o
	out.Lines = append([]Line(nil), o.Lines...)
	out.Discounts = append([]pricing.Applied(nil), o.Discounts...)
	if o.PaidAt != nil {
		t := *o.PaidAt
		out.PaidAt = &t
	}
	if o.DeliveredAt != nil {
		t := *o.DeliveredAt
		out.DeliveredAt = &t
	}
	return out
}

// Filter narrows order listings. An empty UserID lists every user's orders.
type Filter struct {
	UserID string
	Status Status
	Limit  int
	Offset int
}
