package services

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"

	"hisab/internal/core"
	"hisab/internal/debtloan"
	"hisab/internal/finance"
	"hisab/internal/reports"
	"hisab/internal/wordpress"
)

const recentLimit = 10

// Dashboard is the landing page payload. Summary and Categories cover the
// same trailing window as Monthly; AllTime covers every transaction.
type Dashboard struct {
	Months     int                    `json:"months"`
	Summary    finance.Summary        `json:"summary"`
	AllTime    finance.Summary        `json:"all_time"`
	Monthly    []finance.MonthlyData  `json:"monthly"`
	Categories []finance.CategoryData `json:"categories"`
	Debts      debtloan.Totals        `json:"debts"`
	Recent     []core.Transaction     `json:"recent"`
}

// FinanceService builds the composite finance views.
type FinanceService struct {
	ledger Ledger
	now    func() time.Time
}

func NewFinanceService(ledger Ledger) *FinanceService {
	return &FinanceService{ledger: ledger, now: time.Now}
}

// fetch loads transactions and debts in parallel.
func (s *FinanceService) fetch(ctx context.Context, sess wordpress.Session) ([]core.Transaction, []core.DebtLoanItem, error) {
	var (
		txs   []core.Transaction
		items []core.DebtLoanItem
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		txs, err = s.ledger.ListTransactions(gctx, sess)
		if err != nil {
			return fmt.Errorf("list transactions: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		var err error
		items, err = s.ledger.ListDebtLoans(gctx, sess)
		if err != nil {
			return fmt.Errorf("list debts: %w", err)
		}
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, nil, err
	}
	return txs, items, nil
}

// Dashboard aggregates the trailing months window plus whole-ledger debt totals.
func (s *FinanceService) Dashboard(ctx context.Context, sess wordpress.Session, months int) (Dashboard, error) {
	months = finance.ClampMonths(months)
	txs, items, err := s.fetch(ctx, sess)
	if err != nil {
		return Dashboard{}, err
	}

	now := s.now()
	window := finance.InWindow(txs, months, now)
	return Dashboard{
		Months:     months,
		Summary:    finance.CalculateSummary(window),
		AllTime:    finance.CalculateSummary(txs),
		Monthly:    finance.MonthlyDataAt(txs, months, now),
		Categories: finance.GetCategoryData(window, finance.OnlyExpense),
		Debts:      debtloan.CalculateTotals(items),
		Recent:     nonNil(finance.Recent(txs, recentLimit)),
	}, nil
}

// Statement gathers what the PDF statement prints.
func (s *FinanceService) Statement(ctx context.Context, sess wordpress.Session, ownerName string, months int) (reports.Statement, error) {
	months = finance.ClampMonths(months)
	txs, items, err := s.fetch(ctx, sess)
	if err != nil {
		return reports.Statement{}, err
	}

	now := s.now()
	window := finance.InWindow(txs, months, now)
	return reports.Statement{
		OwnerName:   ownerName,
		GeneratedAt: now.UTC(),
		Months:      months,
		Summary:     finance.CalculateSummary(window),
		Monthly:     finance.MonthlyDataAt(txs, months, now),
		Expenses:    finance.GetCategoryData(window, finance.OnlyExpense),
		Income:      finance.GetCategoryData(window, finance.OnlyIncome),
		Debts:       debtloan.CalculateTotals(items),
		Recent:      finance.Recent(window, len(window)),
	}, nil
}

func nonNil[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}
