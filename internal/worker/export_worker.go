package worker

import (
	"context"
	"fmt"
	"time"

	"hisab/internal/amqp"
	"hisab/internal/cache"
	applog "hisab/internal/log"
	"hisab/internal/sheets"
)

// Recorder counts export outcomes.
type Recorder interface {
	Export(stage string)
}

// ExportWorker writes report export messages to a spreadsheet.
type ExportWorker struct {
	exporter sheets.ReportExporter
	seen     cache.Cache[string]
	metrics  Recorder
	logger   *applog.Logger
}

// NewExportWorker creates a worker. seen remembers recently written report
// IDs so a redelivered message is not appended twice; it may be nil.
func NewExportWorker(exporter sheets.ReportExporter, seen cache.Cache[string], metrics Recorder, logger *applog.Logger) *ExportWorker {
	if logger == nil {
		logger = applog.New(applog.DefaultConfig())
	}
	return &ExportWorker{
		exporter: exporter,
		seen:     seen,
		metrics:  metrics,
		logger:   logger.WithComponent(applog.ComponentWorker),
	}
}

// HandleReportExport processes a single report export message from AMQP.
func (w *ExportWorker) HandleReportExport(ctx context.Context, msg *amqp.ReportExportMessage) error {
	start := time.Now()
	w.logger.InfoContext(ctx, "Processing report export",
		"id", msg.ID,
		applog.FieldUserID, msg.UserID,
		"months", msg.Months)

	if w.seen != nil {
		if ref, ok := w.seen.Get(msg.ID); ok {
			w.logger.InfoContext(ctx, "Report already exported, skipping",
				"id", msg.ID,
				"sheets_ref", ref)
			w.record("skipped")
			return nil
		}
	}

	ref, err := w.exporter.ExportReport(ctx, ToReport(msg))
	if err != nil {
		w.record("failed")
		return fmt.Errorf("export report %s: %w", msg.ID, err)
	}

	if w.seen != nil {
		w.seen.Set(msg.ID, ref)
	}
	w.record("written")

	w.logger.InfoContext(ctx, "Report exported",
		"id", msg.ID,
		applog.FieldUserID, msg.UserID,
		"sheets_ref", ref,
		"monthly_rows", len(msg.Monthly),
		"category_rows", len(msg.Categories),
		applog.FieldDuration, time.Since(start).Milliseconds())
	return nil
}

func (w *ExportWorker) record(stage string) {
	if w.metrics != nil {
		w.metrics.Export(stage)
	}
}

// ToReport maps the wire message onto the exporter's report type.
func ToReport(msg *amqp.ReportExportMessage) sheets.Report {
	return sheets.Report{
		ID:          msg.ID,
		UserID:      msg.UserID,
		UserName:    msg.UserName,
		Months:      msg.Months,
		GeneratedAt: msg.GeneratedAt,
		Summary:     msg.Summary,
		Monthly:     msg.Monthly,
		Categories:  msg.Categories,
	}
}
