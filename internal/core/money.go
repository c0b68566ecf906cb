// Package core provides the exchange transaction model and money parsing.
//
// Amounts, rates and base-currency totals travel as decimal strings. This file
// turns them into decimal.Decimal values, either strictly (for writes) or
// leniently (for reports, where a malformed value counts as zero).
package core

import (
	"strings"

	"github.com/shopspring/decimal"
)

// ParseStrictDecimal parses a decimal string, rejecting empty or malformed input.
// Surrounding whitespace is ignored.
func ParseStrictDecimal(s string) (decimal.Decimal, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return decimal.Zero, ErrInvalidAmount
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, ErrInvalidAmount
	}
	return d, nil
}

// ParseDecimal parses a decimal string and falls back to zero when the value
// is missing or unparsable.
//
// Examples:
//
//	ParseDecimal("35.5")  -> 35.5
//	ParseDecimal(" 100 ") -> 100
//	ParseDecimal("abc")   -> 0
//	ParseDecimal("")      -> 0
func ParseDecimal(s string) decimal.Decimal {
	d, err := ParseStrictDecimal(s)
	if err != nil {
		return decimal.Zero
	}
	return d
}

// CalculateExchangeTotal returns the base-currency value of amount at rate,
// rounded down to a whole unit. Unparsable inputs count as zero.
func CalculateExchangeTotal(rate, amount string) string {
	total := ParseDecimal(rate).Mul(ParseDecimal(amount))
	return total.Floor().String()
}
