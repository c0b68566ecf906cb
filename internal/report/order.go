package report

import (
	"cmp"
	"slices"
)

// currencyPriority is the display order used at the counter and in every
// summary table. Codes not listed here follow, sorted by code.
var currencyPriority = []string{
	"USD", "USD2", "USD1", "EUR", "JPY", "GBP", "SGD", "AUD",
	"CHF", "HKD", "CAD", "NZD", "TWD", "MYR", "CNY", "KRW",
}

var priorityIndex = func() map[string]int {
	m := make(map[string]int, len(currencyPriority))
	for i, code := range currencyPriority {
		m[code] = i
	}
	return m
}()

// CurrencyPriority returns a copy of the fixed currency order.
func CurrencyPriority() []string {
	return slices.Clone(currencyPriority)
}

// CompareCurrencies orders currency codes: listed codes by list position,
// then unlisted codes by case-sensitive byte comparison.
func CompareCurrencies(a, b string) int {
	ai, aok := priorityIndex[a]
	bi, bok := priorityIndex[b]
	switch {
	case aok && bok:
		return cmp.Compare(ai, bi)
	case aok:
		return -1
	case bok:
		return 1
	default:
		return cmp.Compare(a, b)
	}
}

// SortCurrencies sorts codes in place with CompareCurrencies.
func SortCurrencies(codes []string) {
	slices.SortStableFunc(codes, CompareCurrencies)
}

func sortBranches(branches []BranchSummary) {
	slices.SortStableFunc(branches, func(a, b BranchSummary) int {
		return cmp.Compare(a.BranchID, b.BranchID)
	})
}
