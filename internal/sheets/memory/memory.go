package memory

import (
	"context"
	"fmt"
	"sync"

	"fxdesk/internal/core"
	"fxdesk/internal/sheets"
)

// Journal is an in-memory journal used when no spreadsheet is configured.
type Journal struct {
	mu     sync.Mutex
	header bool
	rows   [][]any
}

var (
	_ sheets.JournalWriter = (*Journal)(nil)
	_ sheets.HeaderEnsurer = (*Journal)(nil)
)

func New() *Journal {
	return &Journal{}
}

// EnsureHeader records that the header row exists; it is written once.
func (j *Journal) EnsureHeader(_ context.Context) error {
	j.mu.Lock()
	defer j.mu.Unlock()
	if !j.header {
		j.header = true
		row := make([]any, len(sheets.JournalHeader))
		for i, h := range sheets.JournalHeader {
			row[i] = h
		}
		j.rows = append([][]any{row}, j.rows...)
	}
	return nil
}

// AppendTransaction stores the row and returns a synthetic row reference.
func (j *Journal) AppendTransaction(_ context.Context, tx core.Transaction) (string, error) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.rows = append(j.rows, sheets.JournalRow(tx))
	return fmt.Sprintf("mem:%d", len(j.rows)), nil
}

// Rows returns a copy of every row, header included.
func (j *Journal) Rows() [][]any {
	j.mu.Lock()
	defer j.mu.Unlock()
	out := make([][]any, len(j.rows))
	for i, r := range j.rows {
		out[i] = append([]any(nil), r...)
	}
	return out
}
