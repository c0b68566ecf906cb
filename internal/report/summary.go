package report

import (
	"encoding/json"
	"slices"

	"github.com/shopspring/decimal"
)

// CurrencySummary holds the running sums for one currency in one scope.
// Net fields always equal buying plus selling.
type CurrencySummary struct {
	Currency         string          `json:"currency"`
	BuyingAmount     decimal.Decimal `json:"buying_amount"`
	SellingAmount    decimal.Decimal `json:"selling_amount"`
	NetAmount        decimal.Decimal `json:"net_amount"`
	BuyingTotalBase  decimal.Decimal `json:"buying_total_base"`
	SellingTotalBase decimal.Decimal `json:"selling_total_base"`
	NetTotalBase     decimal.Decimal `json:"net_total_base"`
}

func (c *CurrencySummary) add(e Entry) {
	c.NetAmount = c.NetAmount.Add(e.Amount)
	c.NetTotalBase = c.NetTotalBase.Add(e.TotalBase)
	if e.Direction.IsBuying() {
		c.BuyingAmount = c.BuyingAmount.Add(e.Amount)
		c.BuyingTotalBase = c.BuyingTotalBase.Add(e.TotalBase)
	} else {
		c.SellingAmount = c.SellingAmount.Add(e.Amount)
		c.SellingTotalBase = c.SellingTotalBase.Add(e.TotalBase)
	}
}

func (c *CurrencySummary) merge(o CurrencySummary) {
	c.BuyingAmount = c.BuyingAmount.Add(o.BuyingAmount)
	c.SellingAmount = c.SellingAmount.Add(o.SellingAmount)
	c.NetAmount = c.NetAmount.Add(o.NetAmount)
	c.BuyingTotalBase = c.BuyingTotalBase.Add(o.BuyingTotalBase)
	c.SellingTotalBase = c.SellingTotalBase.Add(o.SellingTotalBase)
	c.NetTotalBase = c.NetTotalBase.Add(o.NetTotalBase)
}

// CurrencyTable is an ordered currency-keyed map of summaries. Each code
// appears once. After Aggregate the rows are in CompareCurrencies order.
type CurrencyTable struct {
	rows  []CurrencySummary
	index map[string]int
}

// entry returns the row for code, inserting a zero row first if needed. The
// pointer is valid until the next insert.
func (t *CurrencyTable) entry(code string) *CurrencySummary {
	if t.index == nil {
		t.index = make(map[string]int)
	}
	i, ok := t.index[code]
	if !ok {
		i = len(t.rows)
		t.rows = append(t.rows, CurrencySummary{Currency: code})
		t.index[code] = i
	}
	return &t.rows[i]
}

func (t *CurrencyTable) sort() {
	slices.SortStableFunc(t.rows, func(a, b CurrencySummary) int {
		return CompareCurrencies(a.Currency, b.Currency)
	})
	for i, row := range t.rows {
		t.index[row.Currency] = i
	}
}

// Get returns the summary for code.
func (t CurrencyTable) Get(code string) (CurrencySummary, bool) {
	i, ok := t.index[code]
	if !ok {
		return CurrencySummary{}, false
	}
	return t.rows[i], true
}

// Len is the number of currencies in the table.
func (t CurrencyTable) Len() int { return len(t.rows) }

// Rows returns a copy of the summaries in table order.
func (t CurrencyTable) Rows() []CurrencySummary {
	return slices.Clone(t.rows)
}

// Codes returns the currency codes in table order.
func (t CurrencyTable) Codes() []string {
	codes := make([]string, len(t.rows))
	for i, row := range t.rows {
		codes[i] = row.Currency
	}
	return codes
}

// MarshalJSON encodes the table as an ordered array.
func (t CurrencyTable) MarshalJSON() ([]byte, error) {
	if t.rows == nil {
		return []byte("[]"), nil
	}
	return json.Marshal(t.rows)
}

// BranchSummary aggregates one branch's transactions.
type BranchSummary struct {
	BranchID          string          `json:"branch_id"`
	TotalTransactions int             `json:"total_transactions"`
	TotalAmount       decimal.Decimal `json:"total_amount"`
	NetTotalBase      decimal.Decimal `json:"net_total_base"`
	BuyingCount       int             `json:"buying_count"`
	SellingCount      int             `json:"selling_count"`
	BuyingTotal       decimal.Decimal `json:"buying_total"`
	SellingTotal      decimal.Decimal `json:"selling_total"`
	Currencies        CurrencyTable   `json:"currencies"`
}

func (b *BranchSummary) add(e Entry) {
	b.TotalTransactions++
	b.TotalAmount = b.TotalAmount.Add(e.Amount)
	b.NetTotalBase = b.NetTotalBase.Add(e.TotalBase)
	if e.Direction.IsBuying() {
		b.BuyingCount++
		b.BuyingTotal = b.BuyingTotal.Add(e.TotalBase)
	} else {
		b.SellingCount++
		b.SellingTotal = b.SellingTotal.Add(e.TotalBase)
	}
	b.Currencies.entry(e.Currency).add(e)
}

// Summary is the full result of one aggregation pass.
type Summary struct {
	Branches []BranchSummary `json:"branches"`
	Overall  CurrencyTable   `json:"overall"`
}

// Branch returns the summary for id.
func (s Summary) Branch(id string) (BranchSummary, bool) {
	for _, b := range s.Branches {
		if b.BranchID == id {
			return b, true
		}
	}
	return BranchSummary{}, false
}

// GrandTotals are the cross-branch figures shown above the tables.
type GrandTotals struct {
	Transactions int             `json:"transactions"`
	NetTotalBase decimal.Decimal `json:"net_total_base"`
	BuyingCount  int             `json:"buying_count"`
	SellingCount int             `json:"selling_count"`
	BuyingTotal  decimal.Decimal `json:"buying_total"`
	SellingTotal decimal.Decimal `json:"selling_total"`
}

// Totals sums the branch list.
func (s Summary) Totals() GrandTotals {
	var g GrandTotals
	for _, b := range s.Branches {
		g.Transactions += b.TotalTransactions
		g.NetTotalBase = g.NetTotalBase.Add(b.NetTotalBase)
		g.BuyingCount += b.BuyingCount
		g.SellingCount += b.SellingCount
		g.BuyingTotal = g.BuyingTotal.Add(b.BuyingTotal)
		g.SellingTotal = g.SellingTotal.Add(b.SellingTotal)
	}
	return g
}
