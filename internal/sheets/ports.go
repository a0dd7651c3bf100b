package sheets

import (
	"context"
	"time"

	"hisab/internal/finance"
)

// Report is one already-aggregated export of a user's finances.
type Report struct {
	ID          string
	UserID      string
	UserName    string
	Months      int
	GeneratedAt time.Time
	Summary     finance.Summary
	Monthly     []finance.MonthlyData
	Categories  []finance.CategoryData
}

// Ports for outbound adapters.
type (
	ReportExporter interface {
		// ExportReport writes the report rows and returns a reference to where
		// they landed.
		ExportReport(ctx context.Context, r Report) (ref string, err error)
	}
)
