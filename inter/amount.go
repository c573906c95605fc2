package inter

import (
	"strings"

	"github.com/shopspring/decimal"
)

// ParseAmount parses a decimal amount string. Empty, non-numeric and
// negative values are validation failures.
func ParseAmount(s string) (decimal.Decimal, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return decimal.Zero, Errorf(KindValidation, "amount", "amount is required")
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, Errorf(KindValidation, "amount", "invalid amount %q", s)
	}
	if d.IsNegative() {
		return decimal.Zero, Errorf(KindValidation, "amount", "negative amount %q", s)
	}
	return d, nil
}

// MustAmount parses a literal amount, panicking on malformed input. Intended
// for rule tables and tests.
func MustAmount(s string) decimal.Decimal {
	d, err := ParseAmount(s)
	if err != nil {
		panic(err)
	}
	return d
}

// MinDecimal returns the smaller of a and b.
func MinDecimal(a, b decimal.Decimal) decimal.Decimal {
	if a.LessThan(b) {
		return a
	}
	return b
}
