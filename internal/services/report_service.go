package services

import (
	"context"
	"fmt"
	"time"

	"fxdesk/internal/cache"
	"fxdesk/internal/core"
	"fxdesk/internal/log"
	"fxdesk/internal/report"
	"fxdesk/internal/storage"
)

// ReportRequest selects the records a summary covers.
type ReportRequest struct {
	BranchID  string
	TodayOnly bool
	From      string // YYYY-MM-DD
	To        string // YYYY-MM-DD
}

// Report is a computed summary with the window that produced it.
type Report struct {
	Summary     report.Summary
	Window      report.Window
	GeneratedAt time.Time
}

type ReportService struct {
	lister    storage.TransactionLister
	snapshots cache.Cache[[]core.Transaction]
	logger    *log.Logger

	Now      func() time.Time
	Location *time.Location
}

// NewReportService builds summaries in loc. snapshots may be nil.
func NewReportService(lister storage.TransactionLister, snapshots cache.Cache[[]core.Transaction], loc *time.Location) *ReportService {
	if snapshots == nil {
		snapshots = cache.Nop[[]core.Transaction]{}
	}
	if loc == nil {
		loc = time.Local
	}
	return &ReportService{
		lister:    lister,
		snapshots: snapshots,
		logger:    log.New(log.DefaultConfig()).WithComponent(log.ComponentReport),
		Now:       time.Now,
		Location:  loc,
	}
}

// WithLogger replaces the service logger.
func (s *ReportService) WithLogger(l *log.Logger) *ReportService {
	s.logger = l.WithComponent(log.ComponentReport)
	return s
}

// Report returns the summary for req.
func (s *ReportService) Report(ctx context.Context, req ReportRequest) (report.Summary, error) {
	r, err := s.Generate(ctx, req)
	if err != nil {
		return report.Summary{}, err
	}
	return r.Summary, nil
}

// Generate resolves the window, loads the snapshot and aggregates it.
// Invalid dates fail with report.ErrInvalidDate.
func (s *ReportService) Generate(ctx context.Context, req ReportRequest) (Report, error) {
	w, err := report.NewWindow(req.TodayOnly, req.From, req.To, s.Location)
	if err != nil {
		return Report{}, err
	}

	txs, hit, err := s.snapshot(ctx, req.BranchID)
	if err != nil {
		return Report{}, err
	}

	now := s.Now()
	summary := report.Build(txs, w, now)

	s.logger.DebugContext(ctx, "Report built",
		log.NewFields().
			WithOperation(log.OpReport).
			WithReport(w.Label(), len(summary.Branches), len(txs)).
			ToSlice()...,
	)
	s.logger.DebugContext(ctx, "Report snapshot", log.FieldBranch, req.BranchID, log.FieldCacheHit, hit)

	return Report{Summary: summary, Window: w, GeneratedAt: now}, nil
}

// Transactions returns the cached snapshot for a branch, or all branches.
func (s *ReportService) Transactions(ctx context.Context, branchID string) ([]core.Transaction, error) {
	txs, _, err := s.snapshot(ctx, branchID)
	return txs, err
}

func (s *ReportService) snapshot(ctx context.Context, branchID string) ([]core.Transaction, bool, error) {
	key := "branch:" + branchID
	if txs, ok := s.snapshots.Get(key); ok {
		return txs, true, nil
	}
	gen := s.snapshots.Generation()
	txs, err := s.lister.ListTransactions(ctx, branchID)
	if err != nil {
		return nil, false, fmt.Errorf("load transactions: %w", err)
	}
	if !s.snapshots.SetIfGeneration(key, txs, gen) {
		s.logger.DebugContext(ctx, "Snapshot invalidated during load", log.FieldBranch, branchID)
	}
	return txs, false, nil
}
