package storage

import (
	"context"
	"database/sql"
)

type DBTX interface {
	ExecContext(context.Context, string, ...interface{}) (sql.Result, error)
	QueryContext(context.Context, string, ...interface{}) (*sql.Rows, error)
	QueryRowContext(context.Context, string, ...interface{}) *sql.Row
}

func New(db DBTX) *Queries {
	return &Queries{db: db}
}

type Queries struct {
	db DBTX
}

func (q *Queries) WithTx(tx *sql.Tx) *Queries {
	return &Queries{db: tx}
}

// Transaction is a row of the transactions table.
type Transaction struct {
	ID                  int64
	CreatedAt           sql.NullString
	CurrencyName        string
	CurrencyCode        string
	Rate                string
	Amount              string
	TotalBase           string
	BranchID            string
	TransactionType     string
	CustomerPassportNo  string
	CustomerNationality string
	CustomerName        string
	JournalStatus       string
	JournalRef          string
}

const transactionColumns = `id, created_at, currency_name, currency_code, rate, amount, total_base,
    branch_id, transaction_type, customer_passport_no, customer_nationality, customer_name,
    journal_status, journal_ref`

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanTransaction(row rowScanner) (Transaction, error) {
	var i Transaction
	err := row.Scan(
		&i.ID,
		&i.CreatedAt,
		&i.CurrencyName,
		&i.CurrencyCode,
		&i.Rate,
		&i.Amount,
		&i.TotalBase,
		&i.BranchID,
		&i.TransactionType,
		&i.CustomerPassportNo,
		&i.CustomerNationality,
		&i.CustomerName,
		&i.JournalStatus,
		&i.JournalRef,
	)
	return i, err
}

const createTransaction = `-- name: CreateTransaction :one
INSERT INTO transactions (
    created_at, currency_name, currency_code, rate, amount, total_base,
    branch_id, transaction_type, customer_passport_no, customer_nationality, customer_name
) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
RETURNING ` + transactionColumns

type CreateTransactionParams struct {
	CreatedAt           sql.NullString
	CurrencyName        string
	CurrencyCode        string
	Rate                string
	Amount              string
	TotalBase           string
	BranchID            string
	TransactionType     string
	CustomerPassportNo  string
	CustomerNationality string
	CustomerName        string
}

func (q *Queries) CreateTransaction(ctx context.Context, arg CreateTransactionParams) (Transaction, error) {
	row := q.db.QueryRowContext(ctx, createTransaction,
		arg.CreatedAt,
		arg.CurrencyName,
		arg.CurrencyCode,
		arg.Rate,
		arg.Amount,
		arg.TotalBase,
		arg.BranchID,
		arg.TransactionType,
		arg.CustomerPassportNo,
		arg.CustomerNationality,
		arg.CustomerName,
	)
	return scanTransaction(row)
}

const getTransaction = `-- name: GetTransaction :one
SELECT ` + transactionColumns + ` FROM transactions WHERE id = ?`

func (q *Queries) GetTransaction(ctx context.Context, id int64) (Transaction, error) {
	return scanTransaction(q.db.QueryRowContext(ctx, getTransaction, id))
}

const listTransactions = `-- name: ListTransactions :many
SELECT ` + transactionColumns + ` FROM transactions
ORDER BY created_at DESC, id DESC`

func (q *Queries) ListTransactions(ctx context.Context) ([]Transaction, error) {
	return q.list(ctx, listTransactions)
}

const listTransactionsByBranch = `-- name: ListTransactionsByBranch :many
SELECT ` + transactionColumns + ` FROM transactions
WHERE branch_id = ?
ORDER BY created_at DESC, id DESC`

func (q *Queries) ListTransactionsByBranch(ctx context.Context, branchID string) ([]Transaction, error) {
	return q.list(ctx, listTransactionsByBranch, branchID)
}

const listPendingJournal = `-- name: ListPendingJournal :many
SELECT ` + transactionColumns + ` FROM transactions
WHERE journal_status <> 'synced' AND journal_retry_at <= ?
ORDER BY id
LIMIT ?`

func (q *Queries) ListPendingJournal(ctx context.Context, now string, limit int64) ([]Transaction, error) {
	return q.list(ctx, listPendingJournal, now, limit)
}

const claimJournal = `-- name: ClaimJournal :one
UPDATE transactions SET journal_status = 'exporting', journal_retry_at = ?
WHERE id = ? AND journal_status <> 'synced' AND journal_retry_at <= ?
RETURNING journal_attempts`

func (q *Queries) ClaimJournal(ctx context.Context, leaseUntil string, id int64, now string) (int64, error) {
	var attempts int64
	err := q.db.QueryRowContext(ctx, claimJournal, leaseUntil, id, now).Scan(&attempts)
	return attempts, err
}

func (q *Queries) list(ctx context.Context, query string, args ...interface{}) ([]Transaction, error) {
	rows, err := q.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []Transaction
	for rows.Next() {
		i, err := scanTransaction(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	if err := rows.Close(); err != nil {
		return nil, err
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

const updateTransaction = `-- name: UpdateTransaction :one
UPDATE transactions SET
    currency_name = ?,
    currency_code = ?,
    rate = ?,
    amount = ?,
    total_base = ?,
    branch_id = ?,
    transaction_type = ?,
    customer_passport_no = ?,
    customer_nationality = ?,
    customer_name = ?,
    journal_status = 'pending',
    journal_attempts = 0,
    journal_retry_at = ''
WHERE id = ?
RETURNING ` + transactionColumns

type UpdateTransactionParams struct {
	CurrencyName        string
	CurrencyCode        string
	Rate                string
	Amount              string
	TotalBase           string
	BranchID            string
	TransactionType     string
	CustomerPassportNo  string
	CustomerNationality string
	CustomerName        string
	ID                  int64
}

func (q *Queries) UpdateTransaction(ctx context.Context, arg UpdateTransactionParams) (Transaction, error) {
	row := q.db.QueryRowContext(ctx, updateTransaction,
		arg.CurrencyName,
		arg.CurrencyCode,
		arg.Rate,
		arg.Amount,
		arg.TotalBase,
		arg.BranchID,
		arg.TransactionType,
		arg.CustomerPassportNo,
		arg.CustomerNationality,
		arg.CustomerName,
		arg.ID,
	)
	return scanTransaction(row)
}

const deleteTransaction = `-- name: DeleteTransaction :one
DELETE FROM transactions WHERE id = ?
RETURNING ` + transactionColumns

func (q *Queries) DeleteTransaction(ctx context.Context, id int64) (Transaction, error) {
	return scanTransaction(q.db.QueryRowContext(ctx, deleteTransaction, id))
}

const markJournaled = `-- name: MarkJournaled :execrows
UPDATE transactions SET journal_status = 'synced', journal_ref = ?, journal_retry_at = '' WHERE id = ?`

func (q *Queries) MarkJournaled(ctx context.Context, ref string, id int64) (int64, error) {
	result, err := q.db.ExecContext(ctx, markJournaled, ref, id)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}

const markJournalError = `-- name: MarkJournalError :execrows
UPDATE transactions SET
    journal_status = 'error',
    journal_attempts = journal_attempts + 1,
    journal_retry_at = ?
WHERE id = ?`

func (q *Queries) MarkJournalError(ctx context.Context, retryAt string, id int64) (int64, error) {
	result, err := q.db.ExecContext(ctx, markJournalError, retryAt, id)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}
