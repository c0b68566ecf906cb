package report

import (
	"time"

	"fxdesk/internal/core"
)

// Aggregate folds entries into per-branch summaries and a cross-branch
// currency rollup. Branches come back sorted by id and every currency table
// in CompareCurrencies order.
func Aggregate(entries []Entry) Summary {
	var (
		branches []BranchSummary
		index    = make(map[string]int)
	)
	for _, e := range entries {
		i, ok := index[e.BranchID]
		if !ok {
			i = len(branches)
			branches = append(branches, BranchSummary{BranchID: e.BranchID})
			index[e.BranchID] = i
		}
		branches[i].add(e)
	}

	sortBranches(branches)

	var overall CurrencyTable
	for i := range branches {
		branches[i].Currencies.sort()
		for _, row := range branches[i].Currencies.rows {
			overall.entry(row.Currency).merge(row)
		}
	}
	overall.sort()

	if branches == nil {
		branches = []BranchSummary{}
	}
	return Summary{Branches: branches, Overall: overall}
}

// Build normalizes txs, keeps those inside w and aggregates them.
func Build(txs []core.Transaction, w Window, now time.Time) Summary {
	return Aggregate(Filter(Normalize(txs, w.location()), w, now))
}
