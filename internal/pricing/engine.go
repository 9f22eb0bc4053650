package pricing

// Item describes a line item used for pricing calculation.
type Item struct {
	Qty       int
	UnitPrice Money
}

// Policy holds the store-wide shipping and tax settings.
type Policy struct {
	FlatShipping Money
	// FreeShippingThreshold waives shipping when the items price is strictly above it. Zero disables it.
	FreeShippingThreshold Money
	TaxBps                int
}

// Applied is one discount that has already been computed against the order.
type Applied struct {
	Code   string `json:"code"`
	Source string `json:"source"`
	Kind   string `json:"type,omitempty"`
	Amount Money  `json:"amount"`
	// Remainder is the part of a gift card's value left unused by this order.
	Remainder Money `json:"remainder,omitempty"`
}

// Summary aggregates computed pricing components.
type Summary struct {
	ItemsPrice    Money     `json:"itemsPrice"`
	ShippingPrice Money     `json:"shippingPrice"`
	TaxPrice      Money     `json:"taxPrice"`
	DiscountTotal Money     `json:"discountTotal"`
	TotalPrice    Money     `json:"totalPrice"`
	Discounts     []Applied `json:"discounts"`
}

// Payable returns what is still owed before any discount is applied.
func (s Summary) Payable() Money {
	return s.ItemsPrice + s.ShippingPrice + s.TaxPrice
}

// Subtotal sums price × quantity across the items, ignoring non-positive quantities.
func Subtotal(items []Item) Money {
	var subtotal Money
	for _, it := range items {
		if it.Qty <= 0 {
			continue
		}
		subtotal += Money(it.Qty) * it.UnitPrice
	}
	return subtotal
}

// Shipping returns the shipping price for the given items price.
func (p Policy) Shipping(itemsPrice Money) Money {
	if p.FreeShippingThreshold > 0 && itemsPrice > p.FreeShippingThreshold {
		return 0
	}
	if p.FlatShipping < 0 {
		return 0
	}
	return p.FlatShipping
}

// Tax returns the tax owed on the pre-discount items price.
func (p Policy) Tax(itemsPrice Money) Money {
	return ApplyBps(itemsPrice, int64(p.TaxBps))
}

// Base computes items, shipping and tax without any discount.
func Base(items []Item, policy Policy) Summary {
	itemsPrice := Subtotal(items)
	shipping := policy.Shipping(itemsPrice)
	tax := policy.Tax(itemsPrice)
	return Summary{
		ItemsPrice:    itemsPrice,
		ShippingPrice: shipping,
		TaxPrice:      tax,
		TotalPrice:    itemsPrice + shipping + tax,
	}
}

// Compose calculates order totals. The steps run in a fixed order: items, shipping,
// tax on the pre-discount items price, discount sum, then a total clamped at zero.
func Compose(items []Item, policy Policy, discounts []Applied) Summary {
	summary := Base(items, policy)
	var discountTotal Money
	applied := make([]Applied, 0, len(discounts))
	for _, d := range discounts {
		discountTotal += d.Amount
		applied = append(applied, d)
	}
	total := summary.Payable() - discountTotal
	if total < 0 {
		total = 0
	}
	summary.DiscountTotal = discountTotal
	summary.TotalPrice = total
	summary.Discounts = applied
	return summary
}
