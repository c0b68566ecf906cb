package report

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"fxdesk/internal/core"
)

func listing() []core.Transaction {
	return []core.Transaction{
		{ID: 11, CurrencyCode: "USD", BranchID: "Silom", Type: core.Buying, Amount: "100", Rate: "35.5", TotalBase: "3550"},
		{ID: 12, CurrencyCode: "EUR", BranchID: "Sukhumvit", Type: core.Selling, Amount: "20", Rate: "38.1", TotalBase: "762"},
		{ID: 13, CurrencyCode: "USD", BranchID: "Sukhumvit", Type: core.Selling, Amount: "5", Rate: "35.9", TotalBase: "179"},
		{ID: 14, CurrencyCode: "JPY", BranchID: "Silom", Type: core.Buying, Amount: "10000", Rate: "0.2345", TotalBase: "2345"},
	}
}

func pageIDs(p Page) []int64 {
	out := []int64{}
	for _, tx := range p.Items {
		out = append(out, tx.ID)
	}
	return out
}

func TestSearchTerm(t *testing.T) {
	assert.Equal(t, []int64{12, 13}, pageIDs(Search(listing(), Query{Term: "sukhumvit"})))
	assert.Equal(t, []int64{12, 13}, pageIDs(Search(listing(), Query{Term: "SELL"})))
	assert.Equal(t, []int64{14}, pageIDs(Search(listing(), Query{Term: "0.2345"})))
	assert.Equal(t, []int64{13}, pageIDs(Search(listing(), Query{Term: "13"})))
	assert.Empty(t, Search(listing(), Query{Term: "nothing"}).Items)
}

func TestSearchCurrencyFilter(t *testing.T) {
	p := Search(listing(), Query{Currency: "USD"})
	assert.Equal(t, []int64{11, 13}, pageIDs(p))
	assert.Equal(t, 2, p.Total)
}

func TestSearchPagination(t *testing.T) {
	p := Search(listing(), Query{Page: 2, PerPage: 3})
	assert.Equal(t, []int64{14}, pageIDs(p))
	assert.Equal(t, 2, p.TotalPages)

	p = Search(listing(), Query{Page: 9, PerPage: 3})
	assert.Equal(t, 2, p.Page)

	p = Search(nil, Query{Page: 3})
	assert.Equal(t, 1, p.Page)
	assert.Equal(t, 0, p.TotalPages)
	assert.Empty(t, p.Items)
	assert.Equal(t, DefaultPerPage, p.PerPage)
}

func TestCurrencies(t *testing.T) {
	assert.Equal(t, []string{"EUR", "JPY", "USD"}, Currencies(listing()))
	assert.Equal(t, []string{}, Currencies(nil))
}
