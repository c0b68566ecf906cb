package worker

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fxdesk/internal/amqp"
	"fxdesk/internal/core"
	sheetsmem "fxdesk/internal/sheets/memory"
	"fxdesk/internal/storage/memory"
)

type failingJournal struct{ calls atomic.Int32 }

func (f *failingJournal) AppendTransaction(context.Context, core.Transaction) (string, error) {
	f.calls.Add(1)
	return "", errors.New("quota exceeded")
}

func seed() *memory.Store {
	return memory.New(
		core.Transaction{ID: 1, CurrencyCode: "USD", Type: core.Buying, Amount: "10"},
		core.Transaction{ID: 2, CurrencyCode: "EUR", Type: core.Selling, Amount: "5"},
	)
}

func TestHandleEvent_CreatedExports(t *testing.T) {
	store := seed()
	journal := sheetsmem.New()
	w := NewExportWorker(store, journal, 10)

	err := w.HandleEvent(context.Background(), amqp.NewTransactionEventMessage(2, amqp.ActionCreated))
	require.NoError(t, err)

	rows := journal.Rows()
	require.Len(t, rows, 1)
	assert.Equal(t, "EUR", rows[0][4])

	status, ref, _ := store.JournalStatus(2)
	assert.Equal(t, "synced", status)
	assert.Equal(t, "mem:1", ref)
}

func TestHandleEvent_DeletedAndMissing(t *testing.T) {
	store := seed()
	journal := sheetsmem.New()
	w := NewExportWorker(store, journal, 10)
	ctx := context.Background()

	require.NoError(t, w.HandleEvent(ctx, amqp.NewTransactionEventMessage(1, amqp.ActionDeleted)))
	require.NoError(t, w.HandleEvent(ctx, amqp.NewTransactionEventMessage(99, amqp.ActionUpdated)))
	assert.Empty(t, journal.Rows())

	err := w.HandleEvent(ctx, &amqp.TransactionEventMessage{ID: 1, Action: "archived"})
	assert.Error(t, err)
}

func TestHandleEvent_JournalFailureMarksError(t *testing.T) {
	store := seed()
	w := NewExportWorker(store, &failingJournal{}, 10)

	err := w.HandleEvent(context.Background(), amqp.NewTransactionEventMessage(1, amqp.ActionCreated))
	assert.ErrorContains(t, err, "quota exceeded")

	status, _, _ := store.JournalStatus(1)
	assert.Equal(t, "error", status)
}

func TestProcessPending(t *testing.T) {
	store := seed()
	journal := sheetsmem.New()
	w := NewExportWorker(store, journal, 1)
	ctx := context.Background()

	n, err := w.ProcessPending(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n, "batch size bounds each sweep")

	n, err = w.ProcessPending(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	n, err = w.ProcessPending(ctx)
	require.NoError(t, err)
	assert.Zero(t, n)
	assert.Len(t, journal.Rows(), 2)
}

func TestRunSweeper_StopsOnCancel(t *testing.T) {
	store := seed()
	journal := sheetsmem.New()
	w := NewExportWorker(store, journal, 10)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- w.RunSweeper(ctx, 10*time.Millisecond) }()

	assert.Eventually(t, func() bool { return len(journal.Rows()) == 2 }, time.Second, 5*time.Millisecond)
	cancel()

	select {
	case err := <-done:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(time.Second):
		t.Fatal("sweeper did not stop")
	}
}

// flakyJournal fails the first n appends, then writes to the memory journal.
type flakyJournal struct {
	*sheetsmem.Journal
	failures atomic.Int32
}

func (f *flakyJournal) AppendTransaction(ctx context.Context, tx core.Transaction) (string, error) {
	if f.failures.Add(-1) >= 0 {
		return "", errors.New("503 service unavailable")
	}
	return f.Journal.AppendTransaction(ctx, tx)
}

func TestProcessPending_RetriesFailedRows(t *testing.T) {
	store := memory.New(core.Transaction{ID: 1, CurrencyCode: "USD", Type: core.Buying, Amount: "10"})
	journal := &flakyJournal{Journal: sheetsmem.New()}
	journal.failures.Store(1)

	now := time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)
	w := NewExportWorker(store, journal, 10).WithClock(func() time.Time { return now })
	ctx := context.Background()

	n, err := w.ProcessPending(ctx)
	require.NoError(t, err)
	assert.Zero(t, n)
	status, _, _ := store.JournalStatus(1)
	assert.Equal(t, "error", status)

	n, err = w.ProcessPending(ctx)
	require.NoError(t, err)
	assert.Zero(t, n, "waits for the retry delay")

	now = now.Add(retryDelay(1))
	n, err = w.ProcessPending(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	assert.Len(t, journal.Rows(), 1)
	status, _, _ = store.JournalStatus(1)
	assert.Equal(t, "synced", status)
}

// blockingJournal holds appends until released.
type blockingJournal struct {
	*sheetsmem.Journal
	entered chan struct{}
	release chan struct{}
}

func (b *blockingJournal) AppendTransaction(ctx context.Context, tx core.Transaction) (string, error) {
	b.entered <- struct{}{}
	<-b.release
	return b.Journal.AppendTransaction(ctx, tx)
}

func TestExport_ClaimPreventsDuplicateRows(t *testing.T) {
	store := memory.New(core.Transaction{ID: 1, CurrencyCode: "USD", Type: core.Buying, Amount: "10"})
	journal := &blockingJournal{Journal: sheetsmem.New(), entered: make(chan struct{}, 1), release: make(chan struct{})}
	w := NewExportWorker(store, journal, 10)
	ctx := context.Background()

	done := make(chan error, 1)
	go func() { done <- w.HandleEvent(ctx, amqp.NewTransactionEventMessage(1, amqp.ActionCreated)) }()
	<-journal.entered

	n, err := w.ProcessPending(ctx)
	require.NoError(t, err)
	assert.Zero(t, n, "row is claimed by the event handler")

	close(journal.release)
	require.NoError(t, <-done)
	assert.Len(t, journal.Rows(), 1)
}

func TestRetryDelay(t *testing.T) {
	assert.Equal(t, 30*time.Second, retryDelay(0))
	assert.Equal(t, 30*time.Second, retryDelay(1))
	assert.Equal(t, time.Minute, retryDelay(2))
	assert.Equal(t, 16*time.Minute, retryDelay(6))
	assert.Equal(t, time.Hour, retryDelay(8))
	assert.Equal(t, time.Hour, retryDelay(50))
}
