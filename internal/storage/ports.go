package storage

import (
	"context"
	"time"

	"fxdesk/internal/core"
)

// Ports implemented by every transaction store.
type (
	// TransactionLister returns transactions newest first, limited to one
	// branch when branchID is not empty.
	TransactionLister interface {
		ListTransactions(ctx context.Context, branchID string) ([]core.Transaction, error)
	}

	TransactionWriter interface {
		CreateTransaction(ctx context.Context, tx core.Transaction) (core.Transaction, error)
	}

	TransactionGetter interface {
		GetTransaction(ctx context.Context, id int64) (core.Transaction, error)
	}

	TransactionUpdater interface {
		UpdateTransaction(ctx context.Context, id int64, patch core.TransactionPatch) (core.Transaction, error)
	}

	TransactionDeleter interface {
		DeleteTransaction(ctx context.Context, id int64) (core.Transaction, error)
	}

	// JournalTracker records the outcome of exporting a transaction to the
	// spreadsheet journal.
	//
	// ClaimJournal moves an unexported row that is due at now to exporting
	// and holds it until leaseUntil, so only one exporter appends it. It
	// reports the failed attempts so far and whether the claim succeeded.
	// MarkJournalError releases the claim and makes the row due again at retryAt.
	JournalTracker interface {
		ClaimJournal(ctx context.Context, id int64, now, leaseUntil time.Time) (attempts int, claimed bool, err error)
		MarkJournaled(ctx context.Context, id int64, rowRef string) error
		MarkJournalError(ctx context.Context, id int64, retryAt time.Time) error
	}

	// PendingJournalLister returns unexported transactions due at now, oldest
	// first. Failed rows come back once their retry time has passed.
	PendingJournalLister interface {
		PendingJournal(ctx context.Context, now time.Time, limit int) ([]core.Transaction, error)
	}

	// Store is the full set of transaction operations.
	Store interface {
		TransactionLister
		TransactionWriter
		TransactionGetter
		TransactionUpdater
		TransactionDeleter
		JournalTracker
		PendingJournalLister
		Close() error
	}
)

// TimestampLayout is how stores stamp created_at when the caller leaves it empty.
// Fixed-width fractions keep lexical and chronological order in step.
const TimestampLayout = "2006-01-02T15:04:05.000000Z07:00"

// Journal export states.
const (
	JournalPending   = "pending"
	JournalExporting = "exporting"
	JournalSynced    = "synced"
	JournalError     = "error"
)

// journalTime formats retry and lease times so they compare as strings.
func journalTime(t time.Time) string {
	return t.UTC().Format(TimestampLayout)
}
