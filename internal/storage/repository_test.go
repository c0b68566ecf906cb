package storage

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fxdesk/internal/core"
)

func newTestRepo(t *testing.T) (*SQLiteRepository, string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "nested", "fxdesk.db")
	repo, err := NewSQLiteRepository(path)
	require.NoError(t, err)
	t.Cleanup(func() { repo.Close() })
	return repo, path
}

func sample(branch, code string, dir core.Direction, createdAt string) core.Transaction {
	return core.Transaction{
		CreatedAt:    createdAt,
		CurrencyName: code + " note",
		CurrencyCode: code,
		Rate:         "35.5",
		Amount:       "100",
		TotalBase:    "3550",
		BranchID:     branch,
		Type:         dir,
	}
}

func TestSQLiteRepository_Migrations(t *testing.T) {
	_, path := newTestRepo(t)

	version, dirty, err := SchemaVersion(path)
	require.NoError(t, err)
	assert.Equal(t, uint(3), version)
	assert.False(t, dirty)

	// Idempotent on an already migrated database.
	require.NoError(t, RunMigrations(path))
}

func TestSQLiteRepository_CreateAndGet(t *testing.T) {
	repo, _ := newTestRepo(t)
	repo.now = func() time.Time { return time.Date(2024, 3, 1, 4, 5, 6, 7000, time.UTC) }
	ctx := context.Background()

	tx := sample("Silom", "USD", core.Buying, "")
	tx.CustomerName = "A. Traveller"
	created, err := repo.CreateTransaction(ctx, tx)
	require.NoError(t, err)
	assert.NotZero(t, created.ID)
	assert.Equal(t, "2024-03-01T04:05:06.000007Z", created.CreatedAt)
	assert.Equal(t, "A. Traveller", created.CustomerName)

	got, err := repo.GetTransaction(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, created, got)

	_, err = repo.GetTransaction(ctx, created.ID+100)
	assert.ErrorIs(t, err, core.ErrNotFound)
}

func TestSQLiteRepository_KeepsRawValues(t *testing.T) {
	repo, _ := newTestRepo(t)
	ctx := context.Background()

	tx := sample("Silom", "USD", core.Buying, "2024-03-01T10:00:00+07:00")
	tx.Amount = "not-a-number"
	created, err := repo.CreateTransaction(ctx, tx)
	require.NoError(t, err)
	assert.Equal(t, "not-a-number", created.Amount)
	assert.Equal(t, "2024-03-01T10:00:00+07:00", created.CreatedAt)
}

func TestSQLiteRepository_ListNewestFirst(t *testing.T) {
	repo, _ := newTestRepo(t)
	ctx := context.Background()

	for _, tx := range []core.Transaction{
		sample("Silom", "USD", core.Buying, "2024-03-01T01:00:00.000000Z"),
		sample("Sukhumvit", "EUR", core.Selling, "2024-03-03T01:00:00.000000Z"),
		sample("Silom", "JPY", core.Selling, "2024-03-02T01:00:00.000000Z"),
	} {
		_, err := repo.CreateTransaction(ctx, tx)
		require.NoError(t, err)
	}

	all, err := repo.ListTransactions(ctx, "")
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, []string{"EUR", "JPY", "USD"}, codes(all))

	silom, err := repo.ListTransactions(ctx, "Silom")
	require.NoError(t, err)
	assert.Equal(t, []string{"JPY", "USD"}, codes(silom))

	none, err := repo.ListTransactions(ctx, "Nowhere")
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestSQLiteRepository_Update(t *testing.T) {
	repo, _ := newTestRepo(t)
	ctx := context.Background()

	created, err := repo.CreateTransaction(ctx, sample("Silom", "USD", core.Buying, ""))
	require.NoError(t, err)
	require.NoError(t, repo.MarkJournaled(ctx, created.ID, "Journal!A2"))

	amount := "250"
	dir := core.Selling
	updated, err := repo.UpdateTransaction(ctx, created.ID, core.TransactionPatch{Amount: &amount, Type: &dir})
	require.NoError(t, err)
	assert.Equal(t, "250", updated.Amount)
	assert.Equal(t, core.Selling, updated.Type)
	assert.Equal(t, created.Rate, updated.Rate)
	assert.Equal(t, created.CreatedAt, updated.CreatedAt)

	pending, err := repo.PendingJournal(ctx, time.Now(), 10)
	require.NoError(t, err)
	require.Len(t, pending, 1, "update puts the row back in the journal queue")

	_, err = repo.UpdateTransaction(ctx, 999, core.TransactionPatch{Amount: &amount})
	assert.ErrorIs(t, err, core.ErrNotFound)
}

func TestSQLiteRepository_Delete(t *testing.T) {
	repo, _ := newTestRepo(t)
	ctx := context.Background()

	created, err := repo.CreateTransaction(ctx, sample("Silom", "USD", core.Buying, ""))
	require.NoError(t, err)

	removed, err := repo.DeleteTransaction(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, created.ID, removed.ID)

	_, err = repo.DeleteTransaction(ctx, created.ID)
	assert.ErrorIs(t, err, core.ErrNotFound)
}

func TestSQLiteRepository_JournalStatus(t *testing.T) {
	repo, _ := newTestRepo(t)
	ctx := context.Background()
	now := time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)

	a, err := repo.CreateTransaction(ctx, sample("Silom", "USD", core.Buying, ""))
	require.NoError(t, err)
	b, err := repo.CreateTransaction(ctx, sample("Silom", "EUR", core.Buying, ""))
	require.NoError(t, err)

	require.NoError(t, repo.MarkJournaled(ctx, a.ID, "Journal!A2"))
	require.NoError(t, repo.MarkJournalError(ctx, b.ID, now.Add(time.Minute)))

	pending, err := repo.PendingJournal(ctx, now, 10)
	require.NoError(t, err)
	assert.Empty(t, pending, "failed row waits for its retry time")

	pending, err = repo.PendingJournal(ctx, now.Add(time.Minute), 10)
	require.NoError(t, err)
	require.Len(t, pending, 1)
	assert.Equal(t, b.ID, pending[0].ID)

	assert.ErrorIs(t, repo.MarkJournaled(ctx, 999, "x"), core.ErrNotFound)
	assert.ErrorIs(t, repo.MarkJournalError(ctx, 999, now), core.ErrNotFound)
}

func TestSQLiteRepository_ClaimJournal(t *testing.T) {
	repo, _ := newTestRepo(t)
	ctx := context.Background()
	now := time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)
	lease := now.Add(5 * time.Minute)

	tx, err := repo.CreateTransaction(ctx, sample("Silom", "USD", core.Buying, ""))
	require.NoError(t, err)

	attempts, ok, err := repo.ClaimJournal(ctx, tx.ID, now, lease)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Zero(t, attempts)

	_, ok, err = repo.ClaimJournal(ctx, tx.ID, now, lease)
	require.NoError(t, err)
	assert.False(t, ok, "claimed rows are held until the lease ends")

	pending, err := repo.PendingJournal(ctx, now, 10)
	require.NoError(t, err)
	assert.Empty(t, pending)

	require.NoError(t, repo.MarkJournalError(ctx, tx.ID, now.Add(time.Minute)))
	attempts, ok, err = repo.ClaimJournal(ctx, tx.ID, now.Add(time.Minute), lease.Add(time.Minute))
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, 1, attempts)

	_, ok, err = repo.ClaimJournal(ctx, tx.ID, lease.Add(time.Minute), lease.Add(2*time.Minute))
	require.NoError(t, err)
	assert.True(t, ok, "an expired lease can be claimed again")

	require.NoError(t, repo.MarkJournaled(ctx, tx.ID, "Journal!A2"))
	_, ok, err = repo.ClaimJournal(ctx, tx.ID, lease.Add(time.Hour), lease.Add(2*time.Hour))
	require.NoError(t, err)
	assert.False(t, ok, "synced rows are never claimed")

	_, ok, err = repo.ClaimJournal(ctx, 999, now, lease)
	require.NoError(t, err)
	assert.False(t, ok)
}

func codes(txs []core.Transaction) []string {
	out := make([]string, 0, len(txs))
	for _, tx := range txs {
		out = append(out, tx.CurrencyCode)
	}
	return out
}
