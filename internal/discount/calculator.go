package discount

import (
	"slices"

	"github.com/vincent8494/ecomerce-platform-sub000/internal/pricing"
)

// EligibleSubtotal calculates the portion of the cart affected by the restrictions.
func EligibleSubtotal(items []Item, r Restrictions) int64 {
	var total int64
	for _, it := range items {
		if it.Subtotal <= 0 {
			continue
		}
		if !r.Scoped() || itemInScope(r, it) {
			total += it.Subtotal
		}
	}
	return total
}

// An item is in scope when it matches any listed product or any listed category.
func itemInScope(r Restrictions, it Item) bool {
	if it.ProductID != "" && slices.Contains(r.ProductIDs, it.ProductID) {
		return true
	}
	if it.CategoryID != "" && slices.Contains(r.CategoryIDs, it.CategoryID) {
		return true
	}
	return false
}

// CouponBase returns the amount a coupon is computed against: the eligible part of the
// cart when line items are known, otherwise the whole subtotal.
func CouponBase(c *Coupon, subtotal int64, items []Item) int64 {
	if c == nil {
		return 0
	}
	if len(items) == 0 || !c.Restrictions.Scoped() {
		return subtotal
	}
	return EligibleSubtotal(items, c.Restrictions)
}

// CouponAmount determines the discount of a coupon against the eligible subtotal.
// The result never exceeds the subtotal it is applied to and is never negative.
func CouponAmount(c *Coupon, eligible int64) int64 {
	if c == nil || eligible <= 0 || c.Amount <= 0 {
		return 0
	}
	var amount int64
	switch c.Kind {
	case KindFixed:
		amount = c.Amount
	case KindPercentage:
		amount = pricing.ApplyBps(eligible, min(c.Amount, MaxPercentBps))
	default:
		return 0
	}
	return min(amount, eligible)
}

// GiftCardAmount caps the card's value at what is still owed.
func GiftCardAmount(g *GiftCard, remainingPayable int64) int64 {
	if g == nil || remainingPayable <= 0 || g.Amount <= 0 {
		return 0
	}
	return min(g.Amount, remainingPayable)
}
