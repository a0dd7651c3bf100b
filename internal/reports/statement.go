// Package reports renders printable statements from aggregated finance data.
package reports

import (
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/phpdave11/gofpdf"

	"hisab/internal/core"
	"hisab/internal/debtloan"
	"hisab/internal/finance"
)

const maxRecentRows = 50

// Statement is everything a PDF statement shows. The caller aggregates; the
// renderer only lays it out.
type Statement struct {
	OwnerName   string
	GeneratedAt time.Time
	Months      int
	Summary     finance.Summary
	Monthly     []finance.MonthlyData
	Expenses    []finance.CategoryData
	Income      []finance.CategoryData
	Debts       debtloan.Totals
	Recent      []core.Transaction
}

// Filename is the suggested download name for s.
func (s Statement) Filename() string {
	return "hisab-statement-" + s.GeneratedAt.UTC().Format("2006-01-02") + ".pdf"
}

// RenderStatement writes s as an A4 PDF to w.
func RenderStatement(w io.Writer, s Statement) error {
	if w == nil {
		return errors.New("nil writer")
	}

	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetMargins(14, 14, 14)
	pdf.SetAutoPageBreak(true, 20)
	tr := pdf.UnicodeTranslatorFromDescriptor("")

	pdf.SetFooterFunc(func() {
		pdf.SetY(-15)
		pdf.SetFont("Helvetica", "", 8)
		pdf.SetTextColor(120, 120, 120)
		footer := fmt.Sprintf("Generated by hisab %s  |  page %d", s.GeneratedAt.UTC().Format(time.RFC3339), pdf.PageNo())
		pdf.CellFormat(0, 8, footer, "", 0, "C", false, 0, "")
	})
	pdf.AddPage()

	pdf.SetTextColor(20, 20, 20)
	pdf.SetFont("Helvetica", "B", 18)
	pdf.Cell(0, 10, "Hisab Statement")
	pdf.Ln(9)

	pdf.SetFont("Helvetica", "", 10)
	pdf.SetTextColor(80, 80, 80)
	if s.OwnerName != "" {
		pdf.Cell(0, 6, tr("Account: "+s.OwnerName))
		pdf.Ln(5)
	}
	pdf.Cell(0, 6, periodLabel(s))
	pdf.Ln(10)

	summaryTable(pdf, s.Summary)
	monthlyTable(pdf, s.Monthly)
	categoryTable(pdf, tr, "Expenses by category", s.Expenses)
	categoryTable(pdf, tr, "Income by category", s.Income)
	debtTable(pdf, s.Debts)
	recentTable(pdf, tr, s.Recent)

	if err := pdf.Output(w); err != nil {
		return fmt.Errorf("render statement pdf: %w", err)
	}
	return nil
}

func periodLabel(s Statement) string {
	if len(s.Monthly) == 0 {
		return "Period: all time"
	}
	first, last := s.Monthly[0], s.Monthly[len(s.Monthly)-1]
	return "Period: " + first.Label + " to " + last.Label
}

func sectionTitle(pdf *gofpdf.Fpdf, title string) {
	pdf.SetFont("Helvetica", "B", 12)
	pdf.SetTextColor(20, 20, 20)
	pdf.Cell(0, 8, title)
	pdf.Ln(8)
}

func headerRow(pdf *gofpdf.Fpdf, widths []float64, labels []string, aligns string) {
	pdf.SetFont("Helvetica", "B", 9)
	pdf.SetFillColor(245, 245, 245)
	pdf.SetDrawColor(200, 200, 200)
	for i, label := range labels {
		ln := 0
		if i == len(labels)-1 {
			ln = 1
		}
		pdf.CellFormat(widths[i], 7, label, "1", ln, aligns[i:i+1], true, 0, "")
	}
	pdf.SetFont("Helvetica", "", 9)
}

func row(pdf *gofpdf.Fpdf, widths []float64, cells []string, aligns string) {
	for i, cell := range cells {
		ln := 0
		if i == len(cells)-1 {
			ln = 1
		}
		pdf.CellFormat(widths[i], 7, cell, "1", ln, aligns[i:i+1], false, 0, "")
	}
}

func summaryTable(pdf *gofpdf.Fpdf, sum finance.Summary) {
	widths := []float64{60, 60, 62}
	pdf.SetFont("Helvetica", "B", 11)
	pdf.SetFillColor(248, 248, 248)
	pdf.SetDrawColor(200, 200, 200)
	pdf.CellFormat(widths[0], 10, "Income", "1", 0, "C", true, 0, "")
	pdf.CellFormat(widths[1], 10, "Expense", "1", 0, "C", true, 0, "")
	pdf.CellFormat(widths[2], 10, "Balance", "1", 1, "C", true, 0, "")

	pdf.SetFont("Helvetica", "", 11)
	pdf.CellFormat(widths[0], 10, sum.TotalIncome.Format(), "1", 0, "C", false, 0, "")
	pdf.CellFormat(widths[1], 10, sum.TotalExpense.Format(), "1", 0, "C", false, 0, "")
	pdf.CellFormat(widths[2], 10, sum.Balance.Format(), "1", 1, "C", false, 0, "")

	pdf.SetFont("Helvetica", "", 9)
	pdf.SetTextColor(80, 80, 80)
	pdf.Cell(0, 6, strconv.Itoa(sum.TransactionCount)+" transactions")
	pdf.SetTextColor(20, 20, 20)
	pdf.Ln(10)
}

func monthlyTable(pdf *gofpdf.Fpdf, monthly []finance.MonthlyData) {
	if len(monthly) == 0 {
		return
	}
	sectionTitle(pdf, "Monthly")
	widths := []float64{40, 47, 47, 48}
	headerRow(pdf, widths, []string{"Month", "Income", "Expense", "Balance"}, "LRRR")
	for _, m := range monthly {
		row(pdf, widths, []string{m.Label, m.Income.Format(), m.Expense.Format(), m.Balance.Format()}, "LRRR")
	}
	pdf.Ln(6)
}

func categoryTable(pdf *gofpdf.Fpdf, tr func(string) string, title string, cats []finance.CategoryData) {
	if len(cats) == 0 {
		return
	}
	sectionTitle(pdf, title)
	widths := []float64{82, 50, 25, 25}
	headerRow(pdf, widths, []string{"Category", "Amount", "Share", "Count"}, "LRRR")
	for _, c := range cats {
		row(pdf, widths, []string{
			tr(trimTo(c.Name, 48)),
			c.Amount.Format(),
			strconv.FormatFloat(c.Percentage, 'f', 1, 64) + "%",
			strconv.Itoa(c.Count),
		}, "LRRR")
	}
	pdf.Ln(6)
}

func debtTable(pdf *gofpdf.Fpdf, t debtloan.Totals) {
	if t.OutstandingCount == 0 && t.PaidCount == 0 {
		return
	}
	sectionTitle(pdf, "Debts and loans")
	widths := []float64{60, 60, 62}
	headerRow(pdf, widths, []string{"To receive", "To give", "Net"}, "RRR")
	row(pdf, widths, []string{t.ToReceive.Format(), t.ToGive.Format(), t.Net.Format()}, "RRR")

	pdf.SetFont("Helvetica", "", 9)
	pdf.SetTextColor(80, 80, 80)
	pdf.Cell(0, 6, fmt.Sprintf("%d people, %d outstanding, %d paid", t.People, t.OutstandingCount, t.PaidCount))
	pdf.SetTextColor(20, 20, 20)
	pdf.Ln(10)
}

func recentTable(pdf *gofpdf.Fpdf, tr func(string) string, txs []core.Transaction) {
	if len(txs) == 0 {
		return
	}
	sectionTitle(pdf, "Recent transactions")
	widths := []float64{26, 22, 50, 50, 34}
	headerRow(pdf, widths, []string{"Date", "Type", "Title", "Category", "Amount"}, "LLLLR")
	for i, tx := range txs {
		if i >= maxRecentRows {
			pdf.SetFont("Helvetica", "I", 9)
			pdf.CellFormat(0, 7, "truncated", "1", 1, "C", false, 0, "")
			break
		}
		date := "-"
		if tx.Date.IsValid() {
			date = tx.Date.String()
		}
		row(pdf, widths, []string{
			date,
			string(tx.Type),
			tr(trimTo(tx.Title, 28)),
			tr(trimTo(tx.EffectiveCategory(), 28)),
			signedAmount(tx),
		}, "LLLLR")
	}
}

func signedAmount(tx core.Transaction) string {
	if tx.Type == core.Expense && tx.Amount.Paisa > 0 {
		return tx.Amount.Neg().Format()
	}
	return tx.Amount.Format()
}

func trimTo(s string, max int) string {
	s = strings.TrimSpace(s)
	r := []rune(s)
	if len(r) <= max {
		return s
	}
	return string(r[:max-3]) + "..."
}
