package mongorepo

import (
	"time"

	"github.com/vincent8494/ecomerce-platform-sub000/internal/catalog"
	"github.com/vincent8494/ecomerce-platform-sub000/internal/discount"
	"github.com/vincent8494/ecomerce-platform-sub000/internal/order"
	"github.com/vincent8494/ecomerce-platform-sub000/internal/payment"
	"github.com/vincent8494/ecomerce-platform-sub000/internal/pricing"
)

type restrictionsDoc struct {
	UserIDs     []string `bson:"userIds,omitempty"`
	ProductIDs  []string `bson:"productIds,omitempty"`
	CategoryIDs []string `bson:"categoryIds,omitempty"`
	MinPurchase *int64   `bson:"minPurchase,omitempty"`
}

type couponDoc struct {
	ID           string          `bson:"_id"`
	Code         string          `bson:"code"`
	Kind         string          `bson:"type"`
	Amount       int64           `bson:"amount"`
	ExpiresAt    *time.Time      `bson:"expiresAt"`
	MaxUses      *int            `bson:"maxUses"`
	UsedCount    int             `bson:"usedCount"`
	UsedBy       []string        `bson:"usedBy"`
	Restrictions restrictionsDoc `bson:"restrictions"`
	Active       bool            `bson:"active"`
	CreatedAt    time.Time       `bson:"createdAt"`
	UpdatedAt    time.Time       `bson:"updatedAt"`
}

type giftCardDoc struct {
	ID              string          `bson:"_id"`
	Code            string          `bson:"code"`
	Amount          int64           `bson:"amount"`
	Currency        string          `bson:"currency"`
	ExpiresAt       *time.Time      `bson:"expiresAt"`
	Restrictions    restrictionsDoc `bson:"restrictions"`
	Active          bool            `bson:"active"`
	Redeemed        bool            `bson:"redeemed"`
	RedeemedAt      *time.Time      `bson:"redeemedAt"`
	RedeemedBy      string          `bson:"redeemedBy"`
	RedeemedOrderID string          `bson:"redeemedOrderId"`
	CreatedAt       time.Time       `bson:"createdAt"`
	UpdatedAt       time.Time       `bson:"updatedAt"`
}

type redemptionDoc struct {
	ID         string    `bson:"_id"`
	Code       string    `bson:"code"`
	Source     string    `bson:"source"`
	UserID     string    `bson:"userId"`
	OrderID    string    `bson:"orderId"`
	Amount     int64     `bson:"amount"`
	RedeemedAt time.Time `bson:"redeemedAt"`
}

type productDoc struct {
	ID         string    `bson:"_id"`
	Name       string    `bson:"name"`
	Image      string    `bson:"image"`
	CategoryID string    `bson:"categoryId"`
	Price      int64     `bson:"price"`
	Active     bool      `bson:"active"`
	CreatedAt  time.Time `bson:"createdAt"`
	UpdatedAt  time.Time `bson:"updatedAt"`
}

type lineDoc struct {
	ProductID  string `bson:"productId"`
	Name       string `bson:"name"`
	Image      string `bson:"image"`
	CategoryID string `bson:"categoryId"`
	UnitPrice  int64  `bson:"unitPrice"`
	Quantity   int    `bson:"quantity"`
}

type addressDoc struct {
	FullName   string `bson:"fullName"`
	Line1      string `bson:"line1"`
	Line2      string `bson:"line2"`
	City       string `bson:"city"`
	PostalCode string `bson:"postalCode"`
	Country    string `bson:"country"`
	Phone      string `bson:"phone"`
}

type paymentDoc struct {
	Type   string `bson:"type"`
	Brand  string `bson:"brand,omitempty"`
	Last4  string `bson:"last4,omitempty"`
	Holder string `bson:"holder,omitempty"`
	Email  string `bson:"email,omitempty"`
}

type appliedDoc struct {
	Code      string `bson:"code"`
	Source    string `bson:"source"`
	Kind      string `bson:"type"`
	Amount    int64  `bson:"amount"`
	Remainder int64  `bson:"remainder"`
}

type orderDoc struct {
	ID              string       `bson:"_id"`
	UserID          string       `bson:"userId"`
	Lines           []lineDoc    `bson:"lineItems"`
	ShippingAddress addressDoc   `bson:"shippingAddress"`
	Payment         paymentDoc   `bson:"paymentMethod"`
	ItemsPrice      int64        `bson:"itemsPrice"`
	ShippingPrice   int64        `bson:"shippingPrice"`
	TaxPrice        int64        `bson:"taxPrice"`
	DiscountTotal   int64        `bson:"discountTotal"`
	TotalPrice      int64        `bson:"totalPrice"`
	Discounts       []appliedDoc `bson:"discounts"`
	Currency        string       `bson:"currency"`
	Status          string       `bson:"status"`
	IsPaid          bool         `bson:"isPaid"`
	PaidAt          *time.Time   `bson:"paidAt"`
	IsDelivered     bool         `bson:"isDelivered"`
	DeliveredAt     *time.Time   `bson:"deliveredAt"`
	CreatedAt       time.Time    `bson:"createdAt"`
	UpdatedAt       time.Time    `bson:"updatedAt"`
}

func toRestrictionsDoc(r discount.Restrictions) restrictionsDoc {
	return restrictionsDoc(r)
}

func fromRestrictionsDoc(d restrictionsDoc) discount.Restrictions {
	return discount.Restrictions(d)
}

func toCouponDoc(c discount.Coupon) couponDoc {
	usedBy := c.UsedBy
	if usedBy == nil {
		usedBy = []string{}
	}
	return couponDoc{
		ID:           c.ID,
		Code:         c.Code,
		Kind:         string(c.Kind),
		Amount:       c.Amount,
		ExpiresAt:    c.ExpiresAt,
		MaxUses:      c.MaxUses,
		UsedCount:    c.UsedCount,
		UsedBy:       usedBy,
		Restrictions: toRestrictionsDoc(c.Restrictions),
		Active:       c.Active,
		CreatedAt:    c.CreatedAt,
		UpdatedAt:    c.UpdatedAt,
	}
}

func (d couponDoc) model() discount.Coupon {
	usedBy := d.UsedBy
	if usedBy == nil {
		usedBy = []string{}
	}
	return discount.Coupon{
		ID:           d.ID,
		Code:         d.Code,
		Kind:         discount.Kind(d.Kind),
		Amount:       d.Amount,
		ExpiresAt:    utcPtr(d.ExpiresAt),
		MaxUses:      d.MaxUses,
		UsedCount:    d.UsedCount,
		UsedBy:       usedBy,
		Restrictions: fromRestrictionsDoc(d.Restrictions),
		Active:       d.Active,
		CreatedAt:    d.CreatedAt.UTC(),
		UpdatedAt:    d.UpdatedAt.UTC(),
	}
}

func toGiftCardDoc(g discount.GiftCard) giftCardDoc {
	return giftCardDoc{
		ID:              g.ID,
		Code:            g.Code,
		Amount:          g.Amount,
		Currency:        string(g.Currency),
		ExpiresAt:       g.ExpiresAt,
		Restrictions:    toRestrictionsDoc(g.Restrictions),
		Active:          g.Active,
		Redeemed:        g.Redeemed,
		RedeemedAt:      g.RedeemedAt,
		RedeemedBy:      g.RedeemedBy,
		RedeemedOrderID: g.RedeemedOrderID,
		CreatedAt:       g.CreatedAt,
		UpdatedAt:       g.UpdatedAt,
	}
}

func (d giftCardDoc) model() discount.GiftCard {
	return discount.GiftCard{
		ID:              d.ID,
		Code:            d.Code,
		Amount:          d.Amount,
		Currency:        discount.Currency(d.Currency),
		ExpiresAt:       utcPtr(d.ExpiresAt),
		Restrictions:    fromRestrictionsDoc(d.Restrictions),
		Active:          d.Active,
		Redeemed:        d.Redeemed,
		RedeemedAt:      utcPtr(d.RedeemedAt),
		RedeemedBy:      d.RedeemedBy,
		RedeemedOrderID: d.RedeemedOrderID,
		CreatedAt:       d.CreatedAt.UTC(),
		UpdatedAt:       d.UpdatedAt.UTC(),
	}
}

func (d redemptionDoc) model() discount.Redemption {
	return discount.Redemption{
		ID:         d.ID,
		Code:       d.Code,
		Source:     discount.Source(d.Source),
		UserID:     d.UserID,
		OrderID:    d.OrderID,
		Amount:     d.Amount,
		RedeemedAt: d.RedeemedAt.UTC(),
	}
}

func toProductDoc(p catalog.Product) productDoc {
	return productDoc{
		ID:         p.ID,
		Name:       p.Name,
		Image:      p.Image,
		CategoryID: p.CategoryID,
		Price:      p.Price,
		Active:     p.Active,
		CreatedAt:  p.CreatedAt,
		UpdatedAt:  p.UpdatedAt,
	}
}

func (d productDoc) model() catalog.Product {
	return catalog.Product{
		ID:         d.ID,
		Name:       d.Name,
		Image:      d.Image,
		CategoryID: d.CategoryID,
		Price:      d.Price,
		Active:     d.Active,
		CreatedAt:  d.CreatedAt.UTC(),
		UpdatedAt:  d.UpdatedAt.UTC(),
	}
}

func toOrderDoc(o order.Order) orderDoc {
	doc := orderDoc{
		ID:              o.ID,
		UserID:          o.UserID,
		Lines:           make([]lineDoc, 0, len(o.Lines)),
		ShippingAddress: addressDoc(o.ShippingAddress),
		Payment: paymentDoc{
			Type:   string(o.Payment.Type),
			Brand:  o.Payment.Brand,
			Last4:  o.Payment.Last4,
			Holder: o.Payment.Holder,
			Email:  o.Payment.Email,
		},
		ItemsPrice:    o.ItemsPrice,
		ShippingPrice: o.ShippingPrice,
		TaxPrice:      o.TaxPrice,
		DiscountTotal: o.DiscountTotal,
		TotalPrice:    o.TotalPrice,
		Discounts:     make([]appliedDoc, 0, len(o.Discounts)),
		Currency:      o.Currency,
		Status:        string(o.Status),
		IsPaid:        o.IsPaid,
		PaidAt:        o.PaidAt,
		IsDelivered:   o.IsDelivered,
		DeliveredAt:   o.DeliveredAt,
		CreatedAt:     o.CreatedAt,
		UpdatedAt:     o.UpdatedAt,
	}
	for _, l := range o.Lines {
		doc.Lines = append(doc.Lines, lineDoc(l))
	}
	for _, a := range o.Discounts {
		doc.Discounts = append(doc.Discounts, appliedDoc(a))
	}
	return doc
}

func (d orderDoc) model() order.Order {
	o := order.Order{
		ID:              d.ID,
		UserID:          d.UserID,
		Lines:           make([]order.Line, 0, len(d.Lines)),
		ShippingAddress: order.Address(d.ShippingAddress),
		Payment: payment.Snapshot{
			Type:   payment.Type(d.Payment.Type),
			Brand:  d.Payment.Brand,
			Last4:  d.Payment.Last4,
			Holder: d.Payment.Holder,
			Email:  d.Payment.Email,
		},
		ItemsPrice:    d.ItemsPrice,
		ShippingPrice: d.ShippingPrice,
		TaxPrice:      d.TaxPrice,
		DiscountTotal: d.DiscountTotal,
		TotalPrice:    d.TotalPrice,
		Discounts:     make([]pricing.Applied, 0, len(d.Discounts)),
		Currency:      d.Currency,
		Status:        order.Status(d.Status),
		IsPaid:        d.IsPaid,
		PaidAt:        utcPtr(d.PaidAt),
		IsDelivered:   d.IsDelivered,
		DeliveredAt:   utcPtr(d.DeliveredAt),
		CreatedAt:     d.CreatedAt.UTC(),
		UpdatedAt:     d.UpdatedAt.UTC(),
	}
	for _, l := range d.Lines {
		o.Lines = append(o.Lines, order.Line(l))
	}
	for _, a := range d.Discounts {
		o.Discounts = append(o.Discounts, pricing.Applied(a))
	}
	return o
}

func utcPtr(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	v := t.UTC()
	return &v
}
