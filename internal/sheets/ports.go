package sheets

import (
	"context"

	"fxdesk/internal/core"
)

// Ports for outbound adapters.
type (
	// JournalWriter appends one transaction per row to a bookkeeping journal.
	JournalWriter interface {
		AppendTransaction(ctx context.Context, tx core.Transaction) (rowRef string, err error)
	}

	// HeaderEnsurer writes the journal header row when the sheet is empty.
	HeaderEnsurer interface {
		EnsureHeader(ctx context.Context) error
	}
)

// JournalHeader names the journal columns in order.
var JournalHeader = []string{
	"Created At", "ID", "Branch", "Type", "Currency", "Currency Name",
	"Amount", "Rate", "Total (Base)", "Customer", "Nationality", "Passport No",
}

// JournalRow renders tx in JournalHeader order. Empty branch and currency
// become "Unknown" to match the reports.
func JournalRow(tx core.Transaction) []any {
	branch := tx.BranchID
	if branch == "" {
		branch = core.UnknownKey
	}
	code := tx.CurrencyCode
	if code == "" {
		code = core.UnknownKey
	}
	return []any{
		tx.CreatedAt, tx.ID, branch, string(tx.Type), code, tx.CurrencyName,
		tx.Amount, tx.Rate, tx.TotalBase, tx.CustomerName, tx.CustomerNationality, tx.CustomerPassportNo,
	}
}
