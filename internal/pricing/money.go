package pricing

import "github.com/shopspring/decimal"

// Money represents a monetary value stored in minor units.
type Money = int64

var (
	minorPerMajor = decimal.NewFromInt(100)
	bpsDenom      = decimal.NewFromInt(10_000)
)

// ApplyBps returns amount × bps / 10000 rounded half-up to the minor unit.
func ApplyBps(amount Money, bps int64) Money {
	if amount <= 0 || bps <= 0 {
		return 0
	}
	return decimal.NewFromInt(amount).
		Mul(decimal.NewFromInt(bps)).
		Div(bpsDenom).
		Round(0).
		IntPart()
}

// FromMajor converts a major-unit amount (e.g. 12.345 dollars) into minor units, rounding half-up.
func FromMajor(v decimal.Decimal) Money {
	return v.Mul(minorPerMajor).Round(0).IntPart()
}

// ToMajor converts minor units back into a major-unit decimal with two places.
func ToMajor(m Money) decimal.Decimal {
	return decimal.NewFromInt(m).Div(minorPerMajor).Round(2)
}

// PercentToBps converts a percentage (10.5 = 10.5%) into basis points.
func PercentToBps(v decimal.Decimal) int64 {
	return v.Mul(minorPerMajor).Round(0).IntPart()
}

// BpsToPercent converts basis points back into a percentage.
func BpsToPercent(bps int64) decimal.Decimal {
	return decimal.NewFromInt(bps).Div(minorPerMajor).Round(2)
}

// Major renders minor units as a JSON-friendly major-unit number (1999 -> 19.99).
func Major(m Money) float64 {
	return ToMajor(m).InexactFloat64()
}
