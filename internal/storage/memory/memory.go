// Package memory is an in-process transaction store for development and tests.
package memory

import (
	"cmp"
	"context"
	"fmt"
	"slices"
	"strings"
	"sync"
	"time"

	"fxdesk/internal/core"
	"fxdesk/internal/storage"
)

type record struct {
	tx       core.Transaction
	status   string
	ref      string
	attempts int
	retryAt  time.Time
}

// due reports whether the journal exporter may pick the record up at now.
func (r record) due(now time.Time) bool {
	return r.status != storage.JournalSynced && !r.retryAt.After(now)
}

type Store struct {
	mu     sync.Mutex
	nextID int64
	items  []record
	now    func() time.Time
}

var _ storage.Store = (*Store)(nil)

func New(seed ...core.Transaction) *Store {
	s := &Store{now: time.Now}
	for _, tx := range seed {
		s.insert(tx)
	}
	return s
}

// WithClock replaces the clock used to stamp created_at.
func (s *Store) WithClock(now func() time.Time) *Store {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.now = now
	return s
}

func (s *Store) insert(tx core.Transaction) core.Transaction {
	s.nextID++
	if tx.ID == 0 || tx.ID < s.nextID {
		tx.ID = s.nextID
	} else {
		s.nextID = tx.ID
	}
	s.items = append(s.items, record{tx: tx, status: storage.JournalPending})
	return tx
}

func (s *Store) find(id int64) int {
	return slices.IndexFunc(s.items, func(r record) bool { return r.tx.ID == id })
}

// ListTransactions implements storage.TransactionLister.
func (s *Store) ListTransactions(_ context.Context, branchID string) ([]core.Transaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]core.Transaction, 0, len(s.items))
	for _, r := range s.items {
		if branchID != "" && r.tx.BranchID != branchID {
			continue
		}
		out = append(out, r.tx)
	}
	// Same order as the SQL store: created_at desc, missing last, id desc.
	slices.SortStableFunc(out, func(a, b core.Transaction) int {
		switch {
		case a.CreatedAt == "" && b.CreatedAt != "":
			return 1
		case a.CreatedAt != "" && b.CreatedAt == "":
			return -1
		}
		if c := strings.Compare(b.CreatedAt, a.CreatedAt); c != 0 {
			return c
		}
		return cmp.Compare(b.ID, a.ID)
	})
	return out, nil
}

// CreateTransaction implements storage.TransactionWriter.
func (s *Store) CreateTransaction(_ context.Context, tx core.Transaction) (core.Transaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if strings.TrimSpace(tx.CreatedAt) == "" {
		tx.CreatedAt = s.now().UTC().Format(storage.TimestampLayout)
	}
	tx.ID = 0
	return s.insert(tx), nil
}

// GetTransaction implements storage.TransactionGetter.
func (s *Store) GetTransaction(_ context.Context, id int64) (core.Transaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	i := s.find(id)
	if i < 0 {
		return core.Transaction{}, fmt.Errorf("get transaction %d: %w", id, core.ErrNotFound)
	}
	return s.items[i].tx, nil
}

// UpdateTransaction implements storage.TransactionUpdater.
func (s *Store) UpdateTransaction(_ context.Context, id int64, patch core.TransactionPatch) (core.Transaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	i := s.find(id)
	if i < 0 {
		return core.Transaction{}, fmt.Errorf("update transaction %d: %w", id, core.ErrNotFound)
	}
	s.items[i] = record{tx: patch.Apply(s.items[i].tx), status: storage.JournalPending}
	return s.items[i].tx, nil
}

// DeleteTransaction implements storage.TransactionDeleter.
func (s *Store) DeleteTransaction(_ context.Context, id int64) (core.Transaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	i := s.find(id)
	if i < 0 {
		return core.Transaction{}, fmt.Errorf("delete transaction %d: %w", id, core.ErrNotFound)
	}
	removed := s.items[i].tx
	s.items = slices.Delete(s.items, i, i+1)
	return removed, nil
}

// ClaimJournal implements storage.JournalTracker.
func (s *Store) ClaimJournal(_ context.Context, id int64, now, leaseUntil time.Time) (int, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	i := s.find(id)
	if i < 0 || !s.items[i].due(now) {
		return 0, false, nil
	}
	s.items[i].status = storage.JournalExporting
	s.items[i].retryAt = leaseUntil
	return s.items[i].attempts, true, nil
}

// MarkJournaled implements storage.JournalTracker.
func (s *Store) MarkJournaled(_ context.Context, id int64, rowRef string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	i := s.find(id)
	if i < 0 {
		return fmt.Errorf("mark transaction %d journaled: %w", id, core.ErrNotFound)
	}
	s.items[i].status = storage.JournalSynced
	s.items[i].ref = rowRef
	s.items[i].retryAt = time.Time{}
	return nil
}

// MarkJournalError implements storage.JournalTracker.
func (s *Store) MarkJournalError(_ context.Context, id int64, retryAt time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	i := s.find(id)
	if i < 0 {
		return fmt.Errorf("mark transaction %d journal error: %w", id, core.ErrNotFound)
	}
	s.items[i].status = storage.JournalError
	s.items[i].attempts++
	s.items[i].retryAt = retryAt
	return nil
}

// PendingJournal implements storage.PendingJournalLister.
func (s *Store) PendingJournal(_ context.Context, now time.Time, limit int) ([]core.Transaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []core.Transaction
	for _, r := range s.items {
		if len(out) >= limit {
			break
		}
		if r.due(now) {
			out = append(out, r.tx)
		}
	}
	return out, nil
}

// JournalStatus returns the export status and row reference of a transaction.
func (s *Store) JournalStatus(id int64) (status, ref string, ok bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	i := s.find(id)
	if i < 0 {
		return "", "", false
	}
	return s.items[i].status, s.items[i].ref, true
}

func (s *Store) Close() error { return nil }
