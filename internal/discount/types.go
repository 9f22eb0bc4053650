package discount

import (
	"errors"
	"slices"
	"strings"
	"time"
)

// Kind describes how a coupon amount is interpreted.
type Kind string

const (
	// KindPercentage amounts are basis points of the eligible subtotal.
	KindPercentage Kind = "percentage"
	// KindFixed amounts are minor currency units.
	KindFixed Kind = "fixed"
)

// Valid reports whether the kind is known.
func (k Kind) Valid() bool {
	return k == KindPercentage || k == KindFixed
}

// Source identifies which kind of record a code resolved to.
type Source string

const (
	SourceCoupon   Source = "coupon"
	SourceGiftCard Source = "gift_card"
)

// Currency is the closed set of currencies a gift card may be issued in.
type Currency string

const (
	CurrencyUSD Currency = "USD"
	CurrencyEUR Currency = "EUR"
	CurrencyGBP Currency = "GBP"
	CurrencyCAD Currency = "CAD"
	CurrencyAUD Currency = "AUD"
	CurrencyIDR Currency = "IDR"
)

// Valid reports whether the currency is supported.
func (c Currency) Valid() bool {
	switch c {
	case CurrencyUSD, CurrencyEUR, CurrencyGBP, CurrencyCAD, CurrencyAUD, CurrencyIDR:
		return true
	}
	return false
}

// MaxPercentBps caps percentage coupons at 100%.
const MaxPercentBps = 10_000

// Restrictions narrows who and what a code applies to. Empty slices and nil pointers mean unrestricted.
type Restrictions struct {
	UserIDs     []string `json:"userIds,omitempty"`
	ProductIDs  []string `json:"productIds,omitempty"`
	CategoryIDs []string `json:"categoryIds,omitempty"`
	MinPurchase *int64   `json:"minPurchase,omitempty"`
}

// Scoped reports whether the code is limited to specific products or categories.
func (r Restrictions) Scoped() bool {
	return len(r.ProductIDs) > 0 || len(r.CategoryIDs) > 0
}

func (r Restrictions) clone() Restrictions {
	out := Restrictions{
		UserIDs:     slices.Clone(r.UserIDs),
		ProductIDs:  slices.Clone(r.ProductIDs),
		CategoryIDs: slices.Clone(r.CategoryIDs),
	}
	if r.MinPurchase != nil {
		v := *r.MinPurchase
		out.MinPurchase = &v
	}
	return out
}

// Coupon is a multi-user, usage-capped discount code.
type Coupon struct {
	ID           string       `json:"id"`
	Code         string       `json:"code"`
	Kind         Kind         `json:"type"`
	Amount       int64        `json:"amount"`
	ExpiresAt    *time.Time   `json:"expiresAt,omitempty"`
	MaxUses      *int         `json:"maxUses,omitempty"`
	UsedCount    int          `json:"usedCount"`
	Restrictions Restrictions `json:"restrictions"`
	Active       bool         `json:"active"`
	UsedBy       []string     `json:"usedBy"`
	CreatedAt    time.Time    `json:"createdAt"`
	UpdatedAt    time.Time    `json:"updatedAt"`
}

// Validate checks the stored invariants of a coupon before it is persisted.
func (c *Coupon) Validate() error {
	if c == nil {
		return errors.New("coupon is required")
	}
	if strings.TrimSpace(c.Code) == "" {
		return errors.New("code is required")
	}
	if !c.Kind.Valid() {
		return errors.New("type must be percentage or fixed")
	}
	if c.Amount < 0 {
		return errors.New("amount must not be negative")
	}
	if c.Kind == KindPercentage && c.Amount > MaxPercentBps {
		return errors.New("percentage amount must be between 0 and 100")
	}
	if c.MaxUses != nil {
		if *c.MaxUses < 0 {
			return errors.New("maxUses must not be negative")
		}
		if c.UsedCount > *c.MaxUses {
			return errors.New("usedCount exceeds maxUses")
		}
	}
	if c.UsedCount < 0 {
		return errors.New("usedCount must not be negative")
	}
	if c.Restrictions.MinPurchase != nil && *c.Restrictions.MinPurchase < 0 {
		return errors.New("minPurchase must not be negative")
	}
	return nil
}

// HasBeenUsedBy reports whether the user already redeemed the coupon.
func (c *Coupon) HasBeenUsedBy(userID string) bool {
	return c != nil && userID != "" && slices.Contains(c.UsedBy, userID)
}

// Clone returns a deep copy safe to hand to callers.
func (c Coupon) Clone() Coupon {
	out := c
	out.UsedBy = slices.Clone(c.UsedBy)
	out.Restrictions = c.Restrictions.clone()
	if c.ExpiresAt != nil {
		t := *c.ExpiresAt
		out.ExpiresAt = &t
	}
	if c.MaxUses != nil {
		m := *c.MaxUses
		out.MaxUses = &m
	}
	return out
}

// GiftCard is a single-use bearer credential worth a fixed amount.
type GiftCard struct {
	ID              string       `json:"id"`
	Code            string       `json:"code"`
	Amount          int64        `json:"amount"`
	Currency        Currency     `json:"currency"`
	ExpiresAt       *time.Time   `json:"expiresAt,omitempty"`
	Restrictions    Restrictions `json:"restrictions"`
	Active          bool         `json:"active"`
	Redeemed        bool         `json:"redeemed"`
	RedeemedAt      *time.Time   `json:"redeemedAt,omitempty"`
	RedeemedBy      string       `json:"redeemedBy,omitempty"`
	RedeemedOrderID string       `json:"redeemedOrderId,omitempty"`
	CreatedAt       time.Time    `json:"createdAt"`
	UpdatedAt       time.Time    `json:"updatedAt"`
}

// Validate checks the stored invariants of a gift card before it is persisted.
func (g *GiftCard) Validate() error {
	if g == nil {
		return errors.New("gift card is required")
	}
	if strings.TrimSpace(g.Code) == "" {
		return errors.New("code is required")
	}
	if g.Amount < 0 {
		return errors.New("amount must not be negative")
	}
	if !g.Currency.Valid() {
		return errors.New("unsupported currency")
	}
	if g.Restrictions.MinPurchase != nil && *g.Restrictions.MinPurchase < 0 {
		return errors.New("minPurchase must not be negative")
	}
	return nil
}

// Clone returns a deep copy safe to hand to callers.
func (g GiftCard) Clone() GiftCard {
	out := g
	out.Restrictions = g.Restrictions.clone()
	if g.ExpiresAt != nil {
		t := *g.ExpiresAt
		out.ExpiresAt = &t
	}
	if g.RedeemedAt != nil {
		t := *g.RedeemedAt
		out.RedeemedAt = &t
	}
	return out
}

// Item is a cart line as seen by the rule evaluators.
type Item struct {
	ProductID  string `json:"productId"`
	CategoryID string `json:"categoryId,omitempty"`
	Subtotal   int64  `json:"subtotal"`
}

// Subject is the requesting context a code is evaluated against.
type Subject struct {
	UserID string
	// Subtotal is nil when no cart is known; minimum purchase checks are then skipped.
	Subtotal *int64
	Items    []Item
	Currency Currency
	Now      time.Time
}

// Redemption is one ledger row recording that a code was consumed.
type Redemption struct {
	ID         string    `json:"id"`
	Code       string    `json:"code"`
	Source     Source    `json:"source"`
	UserID     string    `json:"userId"`
	OrderID    string    `json:"orderId"`
	Amount     int64     `json:"amount"`
	RedeemedAt time.Time `json:"redeemedAt"`
}

// NormalizeCode canonicalises a user-supplied code for lookups.
func NormalizeCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}
