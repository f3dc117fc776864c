package util

import (
	"strings"

	"github.com/shopspring/decimal"
)

// CurrencyScale is the number of decimal places money is stored with
const CurrencyScale = 2

// ParseAmount coerces operator-entered text to a currency amount.
// Empty or un-parseable input yields zero.
func ParseAmount(s string) decimal.Decimal {
	d, ok := ParseRequiredAmount(s)
	if !ok {
		return decimal.Zero
	}
	return d
}

// ParseRequiredAmount parses a currency amount and reports whether s held a number.
// Thousands separators are accepted ("1,250.50"). The result is rounded to CurrencyScale places.
func ParseRequiredAmount(s string) (decimal.Decimal, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return decimal.Zero, false
	}
	s = strings.ReplaceAll(s, ",", "")
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, false
	}
	return d.Round(CurrencyScale), true
}
