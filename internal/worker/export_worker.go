package worker

import (
	"context"
	"errors"
	"fmt"
	"time"

	"fxdesk/internal/amqp"
	"fxdesk/internal/core"
	"fxdesk/internal/log"
	"fxdesk/internal/sheets"
	"fxdesk/internal/storage"
)

// ExportStore is what the worker reads and updates while exporting.
type ExportStore interface {
	storage.TransactionGetter
	storage.JournalTracker
	storage.PendingJournalLister
}

// Retry policy for journal exports.
const (
	DefaultClaimLease = 5 * time.Minute
	baseRetryDelay    = 30 * time.Second
	maxRetryDelay     = time.Hour
)

// ExportWorker copies stored transactions into the spreadsheet journal.
type ExportWorker struct {
	store     ExportStore
	journal   sheets.JournalWriter
	batchSize int
	lease     time.Duration
	now       func() time.Time
	logger    *log.Logger
}

func NewExportWorker(store ExportStore, journal sheets.JournalWriter, batchSize int) *ExportWorker {
	if batchSize < 1 {
		batchSize = 10
	}
	return &ExportWorker{
		store:     store,
		journal:   journal,
		batchSize: batchSize,
		lease:     DefaultClaimLease,
		now:       time.Now,
		logger:    log.New(log.DefaultConfig()).WithComponent(log.ComponentWorker),
	}
}

// WithLogger replaces the worker logger.
func (w *ExportWorker) WithLogger(l *log.Logger) *ExportWorker {
	w.logger = l.WithComponent(log.ComponentWorker)
	return w
}

// WithClock replaces the clock used for claims and retry times.
func (w *ExportWorker) WithClock(now func() time.Time) *ExportWorker {
	w.now = now
	return w
}

// retryDelay doubles from 30s per failed attempt, capped at an hour.
func retryDelay(attempts int) time.Duration {
	if attempts < 1 {
		attempts = 1
	}
	if attempts > 8 {
		return maxRetryDelay
	}
	return min(baseRetryDelay<<(attempts-1), maxRetryDelay)
}

// HandleEvent processes one AMQP transaction event. A returned error makes the
// consumer requeue the delivery.
func (w *ExportWorker) HandleEvent(ctx context.Context, msg *amqp.TransactionEventMessage) error {
	w.logger.InfoContext(ctx, "Processing transaction event",
		log.FieldTransaction, msg.ID,
		log.FieldAction, string(msg.Action))

	switch msg.Action {
	case amqp.ActionDeleted:
		// The journal is append-only; deletions stay visible there.
		w.logger.InfoContext(ctx, "Skipping journal for deleted transaction", log.FieldTransaction, msg.ID)
		return nil
	case amqp.ActionCreated, amqp.ActionUpdated:
	default:
		return fmt.Errorf("unknown action %q", msg.Action)
	}

	tx, err := w.store.GetTransaction(ctx, msg.ID)
	if errors.Is(err, core.ErrNotFound) {
		w.logger.WarnContext(ctx, "Transaction gone before export", log.FieldTransaction, msg.ID)
		return nil
	}
	if err != nil {
		return fmt.Errorf("get transaction from storage: %w", err)
	}
	_, err = w.Export(ctx, tx)
	return err
}

// Export claims tx, appends it to the journal and records the outcome on the
// row. It reports false without error when the row is synced, held by
// another exporter, or waiting for its retry time.
func (w *ExportWorker) Export(ctx context.Context, tx core.Transaction) (bool, error) {
	now := w.now()
	attempts, claimed, err := w.store.ClaimJournal(ctx, tx.ID, now, now.Add(w.lease))
	if err != nil {
		return false, fmt.Errorf("claim transaction %d: %w", tx.ID, err)
	}
	if !claimed {
		w.logger.DebugContext(ctx, "Transaction not due for export", log.FieldTransaction, tx.ID)
		return false, nil
	}

	ref, err := w.journal.AppendTransaction(ctx, tx)
	if err != nil {
		retryAt := w.now().Add(retryDelay(attempts + 1))
		if markErr := w.store.MarkJournalError(ctx, tx.ID, retryAt); markErr != nil {
			w.logger.ErrorContext(ctx, "Failed to mark journal error",
				log.FieldTransaction, tx.ID, log.FieldError, markErr)
		}
		return false, fmt.Errorf("append transaction %d to journal: %w", tx.ID, err)
	}

	if err := w.store.MarkJournaled(ctx, tx.ID, ref); err != nil {
		return false, fmt.Errorf("mark transaction %d journaled: %w", tx.ID, err)
	}

	w.logger.InfoContext(ctx, "Transaction exported to journal",
		log.FieldTransaction, tx.ID,
		log.FieldRowRef, ref)
	return true, nil
}

// ProcessPending exports one batch of rows that are not journaled yet,
// including failed rows whose retry time has passed. It covers events lost
// while no consumer was running.
func (w *ExportWorker) ProcessPending(ctx context.Context) (int, error) {
	pending, err := w.store.PendingJournal(ctx, w.now(), w.batchSize)
	if err != nil {
		return 0, fmt.Errorf("get pending transactions: %w", err)
	}
	if len(pending) == 0 {
		return 0, nil
	}

	w.logger.InfoContext(ctx, "Processing pending transactions", "count", len(pending))

	exported := 0
	for _, tx := range pending {
		if err := ctx.Err(); err != nil {
			return exported, err
		}
		ok, err := w.Export(ctx, tx)
		if err != nil {
			w.logger.ErrorContext(ctx, "Failed to export pending transaction",
				log.FieldTransaction, tx.ID, log.FieldError, err)
			continue
		}
		if ok {
			exported++
		}
	}
	return exported, nil
}

// RunSweeper calls ProcessPending immediately and then every interval until
// ctx is cancelled.
func (w *ExportWorker) RunSweeper(ctx context.Context, interval time.Duration) error {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		if _, err := w.ProcessPending(ctx); err != nil && ctx.Err() == nil {
			w.logger.ErrorContext(ctx, "Pending sweep failed", log.FieldError, err)
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}
