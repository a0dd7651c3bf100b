// Package services orchestrates the WordPress ledger, the share store and the
// report queue behind the HTTP handlers.
package services

import (
	"context"

	"hisab/internal/amqp"
	"hisab/internal/core"
	"hisab/internal/wordpress"
)

type (
	TransactionLister interface {
		ListTransactions(ctx context.Context, s wordpress.Session) ([]core.Transaction, error)
	}

	DebtLister interface {
		ListDebtLoans(ctx context.Context, s wordpress.Session) ([]core.DebtLoanItem, error)
	}

	// Ledger is the read side of the WordPress backend.
	Ledger interface {
		TransactionLister
		DebtLister
	}

	ReportPublisher interface {
		PublishReportExport(ctx context.Context, msg *amqp.ReportExportMessage) error
	}

	ShareRecorder interface {
		ShareIssued()
		ShareViewed(outcome string)
		SharePurged(n int64)
	}

	ExportRecorder interface {
		Export(stage string)
	}
)
