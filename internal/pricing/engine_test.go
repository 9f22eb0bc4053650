package pricing

import (
	"testing"

	"github.com/shopspring/decimal"
)

func TestComposeReferenceOrder(t *testing.T) {
	items := []Item{{Qty: 2, UnitPrice: 5000}}
	policy := Policy{FlatShipping: 1000, TaxBps: 1300}
	s := Compose(items, policy, []Applied{{Code: "SAVE20", Source: "coupon", Amount: 2000}})

	if s.ItemsPrice != 10000 || s.ShippingPrice != 1000 || s.TaxPrice != 1300 {
		t.Fatalf("unexpected components: %+v", s)
	}
	if s.DiscountTotal != 2000 {
		t.Fatalf("expected discount 2000, got %d", s.DiscountTotal)
	}
	if s.TotalPrice != 10300 {
		t.Fatalf("expected total 10300, got %d", s.TotalPrice)
	}
	if len(s.Discounts) != 1 || s.Discounts[0].Code != "SAVE20" {
		t.Fatalf("expected applied discount to be kept, got %+v", s.Discounts)
	}
}

func TestComposeClampsAtZero(t *testing.T) {
	s := Compose([]Item{{Qty: 1, UnitPrice: 1000}}, Policy{}, []Applied{
		{Code: "A", Amount: 800},
		{Code: "B", Amount: 800},
	})
	if s.DiscountTotal != 1600 {
		t.Fatalf("expected discount sum 1600, got %d", s.DiscountTotal)
	}
	if s.TotalPrice != 0 {
		t.Fatalf("expected total clamped to 0, got %d", s.TotalPrice)
	}
}

func TestComposeWithoutDiscounts(t *testing.T) {
	s := Compose([]Item{{Qty: 3, UnitPrice: 333}, {Qty: 0, UnitPrice: 1000}}, Policy{TaxBps: 1000}, nil)
	if s.ItemsPrice != 999 {
		t.Fatalf("expected items 999, got %d", s.ItemsPrice)
	}
	if s.TaxPrice != 100 {
		t.Fatalf("expected tax 100 after half-up rounding, got %d", s.TaxPrice)
	}
	if s.TotalPrice != 1099 || s.Discounts == nil || len(s.Discounts) != 0 {
		t.Fatalf("unexpected summary %+v", s)
	}
}

func TestShippingThreshold(t *testing.T) {
	p := Policy{FlatShipping: 1000, FreeShippingThreshold: 10000}
	cases := map[Money]Money{
		9999:  1000,
		10000: 1000,
		10001: 0,
	}
	for items, want := range cases {
		if got := p.Shipping(items); got != want {
			t.Fatalf("shipping(%d) = %d, want %d", items, got, want)
		}
	}
	if got := (Policy{FlatShipping: 1000}).Shipping(1_000_000); got != 1000 {
		t.Fatalf("zero threshold must not waive shipping, got %d", got)
	}
}

func TestApplyBpsRoundsHalfUp(t *testing.T) {
	cases := []struct {
		amount Money
		bps    int64
		want   Money
	}{
		{amount: 10000, bps: 1300, want: 1300},
		{amount: 5, bps: 1000, want: 1},
		{amount: 4, bps: 1000, want: 0},
		{amount: 1999, bps: 2500, want: 500},
		{amount: 100, bps: 0, want: 0},
		{amount: -100, bps: 1000, want: 0},
	}
	for _, tc := range cases {
		if got := ApplyBps(tc.amount, tc.bps); got != tc.want {
			t.Fatalf("ApplyBps(%d, %d) = %d, want %d", tc.amount, tc.bps, got, tc.want)
		}
	}
}

func TestMajorConversions(t *testing.T) {
	if got := FromMajor(decimal.RequireFromString("19.995")); got != 2000 {
		t.Fatalf("expected 2000, got %d", got)
	}
	if got := FromMajor(decimal.RequireFromString("103")); got != 10300 {
		t.Fatalf("expected 10300, got %d", got)
	}
	if got := Major(10300); got != 103 {
		t.Fatalf("expected 103, got %v", got)
	}
	if got := PercentToBps(decimal.RequireFromString("12.5")); got != 1250 {
		t.Fatalf("expected 1250 bps, got %d", got)
	}
	if got := BpsToPercent(1250).String(); got != "12.5" {
		t.Fatalf("expected 12.5, got %s", got)
	}
}
