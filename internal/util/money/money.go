package money

import "github.com/shopspring/decimal"

// Round rounds half away from zero to the given number of decimal
// places. All order maths shares this one rounding rule so inclusive
// tax extraction stays consistent with stored totals.
func Round(d decimal.Decimal, precision int32) decimal.Decimal {
	return d.Round(precision)
}

// FromFloat converts a float amount, e.g. parsed from a form field.
func FromFloat(f float64) decimal.Decimal {
	return decimal.NewFromFloat(f)
}
