package http

import (
	"bytes"
	"fmt"
	"net/http"
	"strings"
	"time"

	"fxdesk/internal/export"
	applog "fxdesk/internal/log"
	"fxdesk/internal/report"
	"fxdesk/internal/services"
)

type windowBody struct {
	Mode  string `json:"mode"`
	Label string `json:"label"`
	From  string `json:"from,omitempty"`
	To    string `json:"to,omitempty"`
}

type summaryResponse struct {
	Window      windowBody             `json:"window"`
	GeneratedAt time.Time              `json:"generated_at"`
	Branches    []report.BranchSummary `json:"branches"`
	Overall     report.CurrencyTable   `json:"overall"`
	Totals      report.GrandTotals     `json:"totals"`
}

func newSummaryResponse(rep services.Report) summaryResponse {
	w := windowBody{Mode: rep.Window.Mode.String(), Label: rep.Window.Label()}
	if rep.Window.Mode == report.ModeRange {
		w.From = rep.Window.From.Format(time.DateOnly)
		w.To = rep.Window.To.Format(time.DateOnly)
	}
	branches := rep.Summary.Branches
	if branches == nil {
		branches = []report.BranchSummary{}
	}
	return summaryResponse{
		Window:      w,
		GeneratedAt: rep.GeneratedAt,
		Branches:    branches,
		Overall:     rep.Summary.Overall,
		Totals:      rep.Summary.Totals(),
	}
}

// handleReportSummary serves GET /api/reports/summary.
func (s *Server) handleReportSummary(w http.ResponseWriter, r *http.Request) {
	rep, err := s.reports.Generate(r.Context(), ParseReportRequest(r.URL.Query()))
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	NewJSONResponse().Body(newSummaryResponse(rep)).Write(w)
}

// handleReportXLSX serves the same summary as a workbook download.
func (s *Server) handleReportXLSX(w http.ResponseWriter, r *http.Request) {
	rep, err := s.reports.Generate(r.Context(), ParseReportRequest(r.URL.Query()))
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	var buf bytes.Buffer
	if err := export.WriteSummaryXLSX(&buf, rep.Summary); err != nil {
		writeServiceError(w, r, fmt.Errorf("render workbook: %w", err))
		return
	}

	applog.FromContext(r.Context()).InfoContext(r.Context(), "Report exported",
		applog.NewFields().
			WithOperation(applog.OpExport).
			WithReport(rep.Window.Label(), len(rep.Summary.Branches), rep.Summary.Totals().Transactions).
			ToSlice()...)

	filename := "summary-" + strings.ReplaceAll(rep.Window.Label(), "..", "_") + ".xlsx"
	w.Header().Set("Content-Type", export.ContentTypeXLSX)
	w.Header().Set("Content-Disposition", `attachment; filename="`+filename+`"`)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(buf.Bytes())
}
