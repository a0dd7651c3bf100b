package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"hisab/internal/amqp"
	"hisab/internal/finance"
	"hisab/internal/wordpress"
)

// ErrExportDisabled is returned when no report queue is configured.
var ErrExportDisabled = errors.New("report export is not configured")

// ReportService aggregates a report and hands it to the export queue.
type ReportService struct {
	transactions TransactionLister
	publisher    ReportPublisher
	metrics      ExportRecorder
	now          func() time.Time
}

// NewReportService creates the service. publisher may be nil, in which case
// Export returns ErrExportDisabled.
func NewReportService(transactions TransactionLister, publisher ReportPublisher, metrics ExportRecorder) *ReportService {
	return &ReportService{
		transactions: transactions,
		publisher:    publisher,
		metrics:      metrics,
		now:          time.Now,
	}
}

// Export publishes the trailing months report for the session's user. The
// message carries finished aggregates so the worker never calls WordPress.
func (s *ReportService) Export(ctx context.Context, sess wordpress.Session, userName string, months int) (*amqp.ReportExportMessage, error) {
	if s.publisher == nil {
		return nil, ErrExportDisabled
	}
	months = finance.ClampMonths(months)

	txs, err := s.transactions.ListTransactions(ctx, sess)
	if err != nil {
		return nil, fmt.Errorf("list transactions: %w", err)
	}

	now := s.now()
	window := finance.InWindow(txs, months, now)
	msg := amqp.NewReportExportMessage(sess.UserID, userName, months,
		finance.CalculateSummary(window),
		finance.MonthlyDataAt(txs, months, now),
		finance.GetCategoryData(window, finance.AllTypes))

	if err := s.publisher.PublishReportExport(ctx, msg); err != nil {
		s.record("failed")
		return nil, fmt.Errorf("publish report export: %w", err)
	}
	s.record("published")

	slog.InfoContext(ctx, "Report export queued",
		"id", msg.ID,
		"user_id", sess.UserID,
		"months", months)
	return msg, nil
}

func (s *ReportService) record(stage string) {
	if s.metrics != nil {
		s.metrics.Export(stage)
	}
}
