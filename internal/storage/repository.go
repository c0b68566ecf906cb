package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"fxdesk/internal/core"

	_ "modernc.org/sqlite"
)

type SQLiteRepository struct {
	db      *sql.DB
	queries *Queries
	now     func() time.Time
}

var _ Store = (*SQLiteRepository)(nil)

func NewSQLiteRepository(dbPath string) (*SQLiteRepository, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}
	// SQLite serializes writers anyway; one connection avoids SQLITE_BUSY.
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if err := RunMigrations(dbPath); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &SQLiteRepository{
		db:      db,
		queries: New(db),
		now:     time.Now,
	}, nil
}

func (r *SQLiteRepository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

// Ping reports whether the database is reachable.
func (r *SQLiteRepository) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}

// ListTransactions implements TransactionLister.
func (r *SQLiteRepository) ListTransactions(ctx context.Context, branchID string) ([]core.Transaction, error) {
	var (
		rows []Transaction
		err  error
	)
	if branchID == "" {
		rows, err = r.queries.ListTransactions(ctx)
	} else {
		rows, err = r.queries.ListTransactionsByBranch(ctx, branchID)
	}
	if err != nil {
		return nil, fmt.Errorf("list transactions: %w", err)
	}

	out := make([]core.Transaction, 0, len(rows))
	for _, row := range rows {
		out = append(out, toCore(row))
	}
	return out, nil
}

// CreateTransaction implements TransactionWriter. An empty created_at is
// stamped with the current time.
func (r *SQLiteRepository) CreateTransaction(ctx context.Context, tx core.Transaction) (core.Transaction, error) {
	createdAt := strings.TrimSpace(tx.CreatedAt)
	if createdAt == "" {
		createdAt = r.now().UTC().Format(TimestampLayout)
	}

	row, err := r.queries.CreateTransaction(ctx, CreateTransactionParams{
		CreatedAt:           sql.NullString{String: createdAt, Valid: true},
		CurrencyName:        tx.CurrencyName,
		CurrencyCode:        tx.CurrencyCode,
		Rate:                tx.Rate,
		Amount:              tx.Amount,
		TotalBase:           tx.TotalBase,
		BranchID:            tx.BranchID,
		TransactionType:     string(tx.Type),
		CustomerPassportNo:  tx.CustomerPassportNo,
		CustomerNationality: tx.CustomerNationality,
		CustomerName:        tx.CustomerName,
	})
	if err != nil {
		return core.Transaction{}, fmt.Errorf("create transaction: %w", err)
	}

	slog.DebugContext(ctx, "Transaction saved to SQLite",
		"id", row.ID,
		"branch_id", row.BranchID,
		"currency", row.CurrencyCode,
		"transaction_type", row.TransactionType)

	return toCore(row), nil
}

// GetTransaction implements TransactionGetter.
func (r *SQLiteRepository) GetTransaction(ctx context.Context, id int64) (core.Transaction, error) {
	row, err := r.queries.GetTransaction(ctx, id)
	if err != nil {
		return core.Transaction{}, notFound("get transaction", id, err)
	}
	return toCore(row), nil
}

// UpdateTransaction implements TransactionUpdater. The row goes back to
// pending so the journal picks up the new values.
func (r *SQLiteRepository) UpdateTransaction(ctx context.Context, id int64, patch core.TransactionPatch) (core.Transaction, error) {
	sqlTx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return core.Transaction{}, fmt.Errorf("begin update: %w", err)
	}
	defer sqlTx.Rollback()

	q := r.queries.WithTx(sqlTx)
	current, err := q.GetTransaction(ctx, id)
	if err != nil {
		return core.Transaction{}, notFound("update transaction", id, err)
	}

	next := patch.Apply(toCore(current))
	row, err := q.UpdateTransaction(ctx, UpdateTransactionParams{
		CurrencyName:        next.CurrencyName,
		CurrencyCode:        next.CurrencyCode,
		Rate:                next.Rate,
		Amount:              next.Amount,
		TotalBase:           next.TotalBase,
		BranchID:            next.BranchID,
		TransactionType:     string(next.Type),
		CustomerPassportNo:  next.CustomerPassportNo,
		CustomerNationality: next.CustomerNationality,
		CustomerName:        next.CustomerName,
		ID:                  id,
	})
	if err != nil {
		return core.Transaction{}, notFound("update transaction", id, err)
	}
	if err := sqlTx.Commit(); err != nil {
		return core.Transaction{}, fmt.Errorf("commit update %d: %w", id, err)
	}
	return toCore(row), nil
}

// DeleteTransaction implements TransactionDeleter and returns the removed row.
func (r *SQLiteRepository) DeleteTransaction(ctx context.Context, id int64) (core.Transaction, error) {
	row, err := r.queries.DeleteTransaction(ctx, id)
	if err != nil {
		return core.Transaction{}, notFound("delete transaction", id, err)
	}
	slog.InfoContext(ctx, "Transaction deleted from SQLite", "id", id)
	return toCore(row), nil
}

// ClaimJournal implements JournalTracker.
func (r *SQLiteRepository) ClaimJournal(ctx context.Context, id int64, now, leaseUntil time.Time) (int, bool, error) {
	attempts, err := r.queries.ClaimJournal(ctx, journalTime(leaseUntil), id, journalTime(now))
	if errors.Is(err, sql.ErrNoRows) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, fmt.Errorf("claim transaction %d: %w", id, err)
	}
	return int(attempts), true, nil
}

// MarkJournaled implements JournalTracker.
func (r *SQLiteRepository) MarkJournaled(ctx context.Context, id int64, rowRef string) error {
	n, err := r.queries.MarkJournaled(ctx, rowRef, id)
	if err != nil {
		return fmt.Errorf("mark transaction %d journaled: %w", id, err)
	}
	if n == 0 {
		return fmt.Errorf("mark transaction %d journaled: %w", id, core.ErrNotFound)
	}
	return nil
}

// MarkJournalError implements JournalTracker.
func (r *SQLiteRepository) MarkJournalError(ctx context.Context, id int64, retryAt time.Time) error {
	n, err := r.queries.MarkJournalError(ctx, journalTime(retryAt), id)
	if err != nil {
		return fmt.Errorf("mark transaction %d journal error: %w", id, err)
	}
	if n == 0 {
		return fmt.Errorf("mark transaction %d journal error: %w", id, core.ErrNotFound)
	}
	return nil
}

// PendingJournal returns up to limit transactions due for export at now.
func (r *SQLiteRepository) PendingJournal(ctx context.Context, now time.Time, limit int) ([]core.Transaction, error) {
	rows, err := r.queries.ListPendingJournal(ctx, journalTime(now), int64(limit))
	if err != nil {
		return nil, fmt.Errorf("list pending journal: %w", err)
	}
	out := make([]core.Transaction, 0, len(rows))
	for _, row := range rows {
		out = append(out, toCore(row))
	}
	return out, nil
}

func notFound(op string, id int64, err error) error {
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("%s %d: %w", op, id, core.ErrNotFound)
	}
	return fmt.Errorf("%s %d: %w", op, id, err)
}

func toCore(row Transaction) core.Transaction {
	return core.Transaction{
		ID:                  row.ID,
		CreatedAt:           row.CreatedAt.String,
		CurrencyName:        row.CurrencyName,
		CurrencyCode:        row.CurrencyCode,
		Rate:                row.Rate,
		Amount:              row.Amount,
		TotalBase:           row.TotalBase,
		BranchID:            row.BranchID,
		Type:                core.Direction(row.TransactionType),
		CustomerPassportNo:  row.CustomerPassportNo,
		CustomerNationality: row.CustomerNationality,
		CustomerName:        row.CustomerName,
	}
}
