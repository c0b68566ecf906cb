// Package report turns a snapshot of exchange transactions into branch and
// currency summaries.
//
// Everything here is a pure function of its input: the caller fetches a
// snapshot, picks a Window, and calls Build (or Normalize, Filter and
// Aggregate separately). Nothing is cached or retained between calls.
package report

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"fxdesk/internal/core"
)

// Entry is a transaction with its text fields parsed once.
type Entry struct {
	Source    core.Transaction
	BranchID  string
	Currency  string
	Direction core.Direction
	Rate      decimal.Decimal
	Amount    decimal.Decimal
	TotalBase decimal.Decimal

	// HasTimestamp is false when CreatedAt was empty. Parsed is false when it
	// was present but could not be read.
	HasTimestamp bool
	Parsed       bool
	CreatedAt    time.Time
}

// timestamp layouts accepted for created_at, tried in order. Layouts without a
// zone are read in the report location.
var (
	zonedLayouts = []string{
		time.RFC3339Nano,
		"2006-01-02 15:04:05.999999999Z07:00",
		"2006-01-02T15:04:05.999999999Z07",
		"2006-01-02 15:04:05.999999999Z07",
	}
	localLayouts = []string{
		"2006-01-02T15:04:05.999999999",
		"2006-01-02 15:04:05.999999999",
		"2006-01-02T15:04",
		dateLayout,
	}
)

// Normalize parses every transaction in txs. Branch and currency fall back to
// core.UnknownKey, malformed numbers become zero. Order is preserved.
func Normalize(txs []core.Transaction, loc *time.Location) []Entry {
	if loc == nil {
		loc = time.Local
	}
	out := make([]Entry, 0, len(txs))
	for _, tx := range txs {
		out = append(out, normalizeOne(tx, loc))
	}
	return out
}

func normalizeOne(tx core.Transaction, loc *time.Location) Entry {
	e := Entry{
		Source:    tx,
		BranchID:  orUnknown(tx.BranchID),
		Currency:  orUnknown(tx.CurrencyCode),
		Direction: tx.Type,
		Rate:      core.ParseDecimal(tx.Rate),
		Amount:    core.ParseDecimal(tx.Amount),
		TotalBase: core.ParseDecimal(tx.TotalBase),
	}
	raw := strings.TrimSpace(tx.CreatedAt)
	if raw == "" {
		return e
	}
	e.HasTimestamp = true
	e.CreatedAt, e.Parsed = ParseTimestamp(raw, loc)
	return e
}

// ParseTimestamp reads a created_at value. Values without an offset are taken
// as wall-clock time in loc.
func ParseTimestamp(s string, loc *time.Location) (time.Time, bool) {
	s = strings.TrimSpace(s)
	for _, layout := range zonedLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	for _, layout := range localLayouts {
		if t, err := time.ParseInLocation(layout, s, loc); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

func orUnknown(s string) string {
	if s == "" {
		return core.UnknownKey
	}
	return s
}
