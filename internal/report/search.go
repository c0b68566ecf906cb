package report

import (
	"slices"
	"strconv"
	"strings"

	"fxdesk/internal/core"
)

// Query narrows a transaction listing. Term matches currency code, branch and
// type case-insensitively, and amount, rate, total and id as substrings.
type Query struct {
	Term     string
	Currency string
	Page     int
	PerPage  int
}

// Page is one slice of a filtered listing.
type Page struct {
	Items      []core.Transaction `json:"items"`
	Total      int                `json:"total"`
	Page       int                `json:"page"`
	PerPage    int                `json:"per_page"`
	TotalPages int                `json:"total_pages"`
}

const (
	DefaultPerPage = 20
	MaxPerPage     = 200
)

// Search applies q to txs, keeping input order, and returns the requested
// page. Out-of-range pages are clamped.
func Search(txs []core.Transaction, q Query) Page {
	term := strings.TrimSpace(q.Term)
	matched := make([]core.Transaction, 0, len(txs))
	for _, tx := range txs {
		if q.Currency != "" && tx.CurrencyCode != q.Currency {
			continue
		}
		if term != "" && !matches(tx, term) {
			continue
		}
		matched = append(matched, tx)
	}

	perPage := q.PerPage
	if perPage <= 0 {
		perPage = DefaultPerPage
	}
	if perPage > MaxPerPage {
		perPage = MaxPerPage
	}
	totalPages := (len(matched) + perPage - 1) / perPage
	page := q.Page
	if page > totalPages {
		page = totalPages
	}
	if page < 1 {
		page = 1
	}

	start := (page - 1) * perPage
	end := min(start+perPage, len(matched))
	items := []core.Transaction{}
	if start < end {
		items = matched[start:end]
	}
	return Page{Items: items, Total: len(matched), Page: page, PerPage: perPage, TotalPages: totalPages}
}

func matches(tx core.Transaction, term string) bool {
	lower := strings.ToLower(term)
	for _, field := range []string{tx.CurrencyCode, tx.BranchID, string(tx.Type)} {
		if strings.Contains(strings.ToLower(field), lower) {
			return true
		}
	}
	for _, field := range []string{tx.Amount, tx.Rate, tx.TotalBase} {
		if strings.Contains(field, term) {
			return true
		}
	}
	return tx.ID != 0 && strings.Contains(strconv.FormatInt(tx.ID, 10), term)
}

// Currencies returns the distinct currency codes in txs, sorted by code.
func Currencies(txs []core.Transaction) []string {
	seen := make(map[string]struct{}, len(txs))
	var codes []string
	for _, tx := range txs {
		if _, ok := seen[tx.CurrencyCode]; ok {
			continue
		}
		seen[tx.CurrencyCode] = struct{}{}
		codes = append(codes, tx.CurrencyCode)
	}
	slices.Sort(codes)
	if codes == nil {
		codes = []string{}
	}
	return codes
}
