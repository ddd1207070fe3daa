// Package money centralizes the 2-decimal-place fixed-point rules used
// across the cart, checkout and payment paths. Every aggregation
// boundary (cart total, remaining due, change) must round through here
// so cent drift cannot accumulate.
package money

import "github.com/shopspring/decimal"

// Epsilon absorbs rounding noise when deciding whether an order is
// fully paid.
var Epsilon = decimal.NewFromFloat(0.01)

// Round normalizes an amount to two decimal places, rounding half away
// from zero.
func Round(d decimal.Decimal) decimal.Decimal {
	return d.Round(2)
}

// FromFloat converts a float amount (e.g. parsed user input) into a
// normalized 2dp decimal.
func FromFloat(f float64) decimal.Decimal {
	return decimal.NewFromFloat(f).Round(2)
}

// Parse reads a user-supplied amount string ("12.50") into a 2dp
// decimal. The bool reports whether the string was a valid number.
func Parse(s string) (decimal.Decimal, bool) {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, false
	}
	return d.Round(2), true
}

// Covered reports whether remaining is close enough to zero, within
// Epsilon, to consider a total fully paid.
func Covered(remaining decimal.Decimal) bool {
	return remaining.LessThanOrEqual(Epsilon)
}

// Format renders an amount with exactly two decimals for receipts and
// API payloads.
func Format(d decimal.Decimal) string {
	return d.StringFixed(2)
}
