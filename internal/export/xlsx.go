// Package export renders report summaries as spreadsheet files.
package export

import (
	"fmt"
	"io"

	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"

	"fxdesk/internal/report"
)

const (
	SheetOverall  = "Overall"
	SheetBranches = "Branches"
	SheetTotals   = "Totals"

	// ContentTypeXLSX is the media type of WriteSummaryXLSX output.
	ContentTypeXLSX = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
)

var currencyHeader = []any{
	"Currency", "Buying Amount", "Selling Amount", "Net Amount",
	"Buying Total (THB)", "Selling Total (THB)", "Net Total (THB)",
}

var totalsHeader = []any{
	"Branch", "Transactions", "Buying Count", "Selling Count",
	"Buying Total (THB)", "Selling Total (THB)", "Net Total (THB)", "Total Amount",
}

// WriteSummaryXLSX writes s as a workbook with three sheets: the cross-branch
// rollup, one row per branch and currency, and per-branch totals ending with
// a grand total row. Row order follows the summary.
func WriteSummaryXLSX(w io.Writer, s report.Summary) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", SheetOverall); err != nil {
		return fmt.Errorf("rename sheet: %w", err)
	}
	for _, name := range []string{SheetBranches, SheetTotals} {
		if _, err := f.NewSheet(name); err != nil {
			return fmt.Errorf("create sheet %s: %w", name, err)
		}
	}

	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return fmt.Errorf("create style: %w", err)
	}

	if err := writeOverall(f, s, bold); err != nil {
		return err
	}
	if err := writeBranches(f, s, bold); err != nil {
		return err
	}
	if err := writeTotals(f, s, bold); err != nil {
		return err
	}

	f.SetActiveSheet(0)
	if err := f.Write(w); err != nil {
		return fmt.Errorf("write workbook: %w", err)
	}
	return nil
}

func writeOverall(f *excelize.File, s report.Summary, style int) error {
	rows := [][]any{currencyHeader}
	for _, c := range s.Overall.Rows() {
		rows = append(rows, currencyRow(nil, c))
	}
	return writeRows(f, SheetOverall, rows, style)
}

func writeBranches(f *excelize.File, s report.Summary, style int) error {
	rows := [][]any{append([]any{"Branch"}, currencyHeader...)}
	for _, b := range s.Branches {
		for _, c := range b.Currencies.Rows() {
			rows = append(rows, currencyRow([]any{b.BranchID}, c))
		}
	}
	return writeRows(f, SheetBranches, rows, style)
}

func writeTotals(f *excelize.File, s report.Summary, style int) error {
	rows := [][]any{totalsHeader}
	for _, b := range s.Branches {
		rows = append(rows, []any{
			b.BranchID, b.TotalTransactions, b.BuyingCount, b.SellingCount,
			num(b.BuyingTotal), num(b.SellingTotal), num(b.NetTotalBase), num(b.TotalAmount),
		})
	}
	g := s.Totals()
	rows = append(rows, []any{
		"Total", g.Transactions, g.BuyingCount, g.SellingCount,
		num(g.BuyingTotal), num(g.SellingTotal), num(g.NetTotalBase), "",
	})
	if err := writeRows(f, SheetTotals, rows, style); err != nil {
		return err
	}

	last, err := excelize.CoordinatesToCellName(len(totalsHeader), len(rows))
	if err != nil {
		return err
	}
	first, _ := excelize.CoordinatesToCellName(1, len(rows))
	return f.SetCellStyle(SheetTotals, first, last, style)
}

func currencyRow(prefix []any, c report.CurrencySummary) []any {
	return append(prefix,
		c.Currency,
		num(c.BuyingAmount), num(c.SellingAmount), num(c.NetAmount),
		num(c.BuyingTotalBase), num(c.SellingTotalBase), num(c.NetTotalBase),
	)
}

func writeRows(f *excelize.File, sheet string, rows [][]any, headerStyle int) error {
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(sheet, cell, &row); err != nil {
			return fmt.Errorf("write %s row %d: %w", sheet, i+1, err)
		}
	}
	if len(rows) == 0 {
		return nil
	}
	end, err := excelize.CoordinatesToCellName(len(rows[0]), 1)
	if err != nil {
		return err
	}
	if err := f.SetCellStyle(sheet, "A1", end, headerStyle); err != nil {
		return fmt.Errorf("style %s header: %w", sheet, err)
	}
	lastCol, _ := excelize.ColumnNumberToName(len(rows[0]))
	return f.SetColWidth(sheet, "A", lastCol, 18)
}

// num keeps cells numeric so spreadsheet formulas work on them.
func num(d decimal.Decimal) float64 {
	return d.InexactFloat64()
}
