package services

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"hisab/internal/amqp"
	"hisab/internal/core"
	"hisab/internal/share"
	"hisab/internal/storage"
	"hisab/internal/wordpress"
)

type fakeLedger struct {
	txs      []core.Transaction
	items    []core.DebtLoanItem
	txErr    error
	debtErr  error
	sessions []wordpress.Session
	mu       sync.Mutex
}

func (f *fakeLedger) ListTransactions(_ context.Context, s wordpress.Session) ([]core.Transaction, error) {
	f.mu.Lock()
	f.sessions = append(f.sessions, s)
	f.mu.Unlock()
	return f.txs, f.txErr
}

func (f *fakeLedger) ListDebtLoans(_ context.Context, s wordpress.Session) ([]core.DebtLoanItem, error) {
	f.mu.Lock()
	f.sessions = append(f.sessions, s)
	f.mu.Unlock()
	return f.items, f.debtErr
}

type fakePublisher struct {
	msgs []*amqp.ReportExportMessage
	err  error
}

func (f *fakePublisher) PublishReportExport(_ context.Context, msg *amqp.ReportExportMessage) error {
	if f.err != nil {
		return f.err
	}
	f.msgs = append(f.msgs, msg)
	return nil
}

type fakeRecorder struct {
	mu      sync.Mutex
	issued  int
	views   map[string]int
	purged  int64
	exports map[string]int
}

func (f *fakeRecorder) ShareIssued() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.issued++
}

func (f *fakeRecorder) ShareViewed(outcome string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.views == nil {
		f.views = map[string]int{}
	}
	f.views[outcome]++
}

func (f *fakeRecorder) SharePurged(n int64) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.purged += n
}

func (f *fakeRecorder) Export(stage string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.exports == nil {
		f.exports = map[string]int{}
	}
	f.exports[stage]++
}

var fixedNow = time.Date(2026, 3, 15, 12, 0, 0, 0, time.UTC)

func ledgerFixture() *fakeLedger {
	return &fakeLedger{
		txs: []core.Transaction{
			{ID: 1, Amount: core.NewMoney(1000, 0), Type: core.Income, Category: "Salary", Date: core.NewDate(2026, 3, 1)},
			{ID: 2, Amount: core.NewMoney(200, 0), Type: core.Expense, Category: "Food", Date: core.NewDate(2026, 2, 10)},
			{ID: 3, Amount: core.NewMoney(500, 0), Type: core.Expense, Category: "Rent", Date: core.NewDate(2025, 1, 10)},
		},
		items: []core.DebtLoanItem{
			{ID: 1, Person: "Ram", Amount: core.NewMoney(300, 0), Type: core.Lent, Status: core.Outstanding},
			{ID: 2, Person: "ram", Amount: core.NewMoney(100, 0), Type: core.Borrowed, Status: core.Outstanding},
			{ID: 3, Person: "Sita", Amount: core.NewMoney(50, 0), Type: core.Lent, Status: core.Paid},
		},
	}
}

var session = wordpress.Session{UserID: "7", Token: "tok"}

func TestFinanceService_Dashboard(t *testing.T) {
	ledger := ledgerFixture()
	svc := NewFinanceService(ledger)
	svc.now = func() time.Time { return fixedNow }

	d, err := svc.Dashboard(context.Background(), session, 3)
	if err != nil {
		t.Fatalf("dashboard: %v", err)
	}
	if d.Months != 3 || len(d.Monthly) != 3 {
		t.Fatalf("months = %d, buckets = %d", d.Months, len(d.Monthly))
	}
	if d.Summary.TotalIncome != core.NewMoney(1000, 0) || d.Summary.TotalExpense != core.NewMoney(200, 0) {
		t.Errorf("window summary = %+v", d.Summary)
	}
	if d.AllTime.TotalExpense != core.NewMoney(700, 0) || d.AllTime.TransactionCount != 3 {
		t.Errorf("all time summary = %+v", d.AllTime)
	}
	if len(d.Categories) != 1 || d.Categories[0].Name != "Food" {
		t.Errorf("categories = %+v", d.Categories)
	}
	if d.Debts.ToReceive != core.NewMoney(300, 0) || d.Debts.ToGive != core.NewMoney(100, 0) || d.Debts.People != 2 {
		t.Errorf("debts = %+v", d.Debts)
	}
	if len(d.Recent) != 3 || d.Recent[0].ID != 1 {
		t.Errorf("recent = %+v", d.Recent)
	}
	if len(ledger.sessions) != 2 || ledger.sessions[0] != session {
		t.Errorf("ledger calls = %+v", ledger.sessions)
	}
}

func TestFinanceService_DashboardDefaultsMonths(t *testing.T) {
	svc := NewFinanceService(&fakeLedger{})
	d, err := svc.Dashboard(context.Background(), session, 0)
	if err != nil {
		t.Fatalf("dashboard: %v", err)
	}
	if d.Months != 6 || len(d.Monthly) != 6 {
		t.Errorf("months = %d", d.Months)
	}
	if d.Recent == nil || d.Categories == nil {
		t.Error("empty lists must encode as []")
	}
}

func TestFinanceService_DashboardUpstreamError(t *testing.T) {
	ledger := ledgerFixture()
	ledger.debtErr = wordpress.ErrUnauthorized
	svc := NewFinanceService(ledger)

	_, err := svc.Dashboard(context.Background(), session, 3)
	if !errors.Is(err, wordpress.ErrUnauthorized) {
		t.Fatalf("expected ErrUnauthorized, got %v", err)
	}
}

func TestFinanceService_Statement(t *testing.T) {
	svc := NewFinanceService(ledgerFixture())
	svc.now = func() time.Time { return fixedNow }

	st, err := svc.Statement(context.Background(), session, "Asha", 3)
	if err != nil {
		t.Fatalf("statement: %v", err)
	}
	if st.OwnerName != "Asha" || st.Months != 3 || !st.GeneratedAt.Equal(fixedNow) {
		t.Errorf("statement header = %+v", st)
	}
	if len(st.Recent) != 2 || len(st.Income) != 1 || len(st.Expenses) != 1 {
		t.Errorf("statement rows: recent=%d income=%d expenses=%d", len(st.Recent), len(st.Income), len(st.Expenses))
	}
}

func TestReportService_Export(t *testing.T) {
	pub := &fakePublisher{}
	rec := &fakeRecorder{}
	svc := NewReportService(ledgerFixture(), pub, rec)
	svc.now = func() time.Time { return fixedNow }

	msg, err := svc.Export(context.Background(), session, "Asha", 3)
	if err != nil {
		t.Fatalf("export: %v", err)
	}
	if len(pub.msgs) != 1 || pub.msgs[0] != msg {
		t.Fatalf("published = %d", len(pub.msgs))
	}
	if msg.UserID != "7" || msg.UserName != "Asha" || msg.Months != 3 || msg.ID == "" {
		t.Errorf("message = %+v", msg)
	}
	if len(msg.Monthly) != 3 || msg.Summary.TransactionCount != 2 || len(msg.Categories) != 2 {
		t.Errorf("aggregates: monthly=%d count=%d categories=%d", len(msg.Monthly), msg.Summary.TransactionCount, len(msg.Categories))
	}
	if rec.exports["published"] != 1 {
		t.Errorf("exports = %v", rec.exports)
	}
}

func TestReportService_ExportErrors(t *testing.T) {
	t.Run("disabled", func(t *testing.T) {
		svc := NewReportService(ledgerFixture(), nil, nil)
		if _, err := svc.Export(context.Background(), session, "", 3); !errors.Is(err, ErrExportDisabled) {
			t.Fatalf("expected ErrExportDisabled, got %v", err)
		}
	})

	t.Run("publish failure", func(t *testing.T) {
		rec := &fakeRecorder{}
		svc := NewReportService(ledgerFixture(), &fakePublisher{err: amqp.ErrCircuitOpen}, rec)
		_, err := svc.Export(context.Background(), session, "", 3)
		if !errors.Is(err, amqp.ErrCircuitOpen) {
			t.Fatalf("expected ErrCircuitOpen, got %v", err)
		}
		if rec.exports["failed"] != 1 {
			t.Errorf("exports = %v", rec.exports)
		}
	})

	t.Run("upstream failure", func(t *testing.T) {
		ledger := ledgerFixture()
		ledger.txErr = wordpress.ErrUpstream
		svc := NewReportService(ledger, &fakePublisher{}, nil)
		if _, err := svc.Export(context.Background(), session, "", 3); !errors.Is(err, wordpress.ErrUpstream) {
			t.Fatalf("expected ErrUpstream, got %v", err)
		}
	})
}

func TestShareService(t *testing.T) {
	ctx := context.Background()
	rec := &fakeRecorder{}
	svc := NewShareService(ledgerFixture(), share.NewService(storage.NewMemoryShareStore(), time.Hour), rec)

	d, err := svc.Issue(ctx, session, IssueShareRequest{OwnerName: "Asha", Person: "RAM"})
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	if len(d.Transactions) != 2 || d.OwnerID != "7" {
		t.Errorf("snapshot = %+v", d)
	}

	l, err := svc.View(ctx, d.Token)
	if err != nil {
		t.Fatalf("view: %v", err)
	}
	// owner lent 300 and borrowed 100, so the viewer owes 200
	if l.NetBalance != core.NewMoney(-200, 0) {
		t.Errorf("net = %v", l.NetBalance)
	}

	if _, err := svc.View(ctx, share.NewToken()); !errors.Is(err, share.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}

	links, err := svc.List(ctx, session)
	if err != nil || len(links) != 1 {
		t.Fatalf("list: %d %v", len(links), err)
	}

	other := wordpress.Session{UserID: "8"}
	if err := svc.Revoke(ctx, other, d.Token); !errors.Is(err, share.ErrForbidden) {
		t.Errorf("expected ErrForbidden, got %v", err)
	}
	if err := svc.Revoke(ctx, session, d.Token); err != nil {
		t.Fatalf("revoke: %v", err)
	}

	if rec.issued != 1 || rec.views["ok"] != 1 || rec.views["not_found"] != 1 {
		t.Errorf("recorder = %+v", rec)
	}

	if _, err := svc.Issue(ctx, session, IssueShareRequest{Person: "Nobody"}); !errors.Is(err, share.ErrNoTransactions) {
		t.Errorf("expected ErrNoTransactions, got %v", err)
	}
}

func TestViewOutcome(t *testing.T) {
	tests := []struct {
		err  error
		want string
	}{
		{nil, "ok"},
		{share.ErrExpired, "expired"},
		{share.ErrNotFound, "not_found"},
		{errors.New("db down"), "error"},
	}
	for _, tt := range tests {
		if got := viewOutcome(tt.err); got != tt.want {
			t.Errorf("viewOutcome(%v) = %q, want %q", tt.err, got, tt.want)
		}
	}
}

type countingPurger struct{ calls atomic.Int32 }

func (p *countingPurger) PurgeExpired(context.Context) (int64, error) {
	p.calls.Add(1)
	return 0, nil
}

func TestJanitor_Lifecycle(t *testing.T) {
	p := &countingPurger{}
	j := NewJanitor(p, JanitorConfig{Interval: 10 * time.Millisecond})
	if j.IsRunning() {
		t.Fatal("janitor should not be running initially")
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	if err := j.Start(ctx); err != nil {
		t.Fatalf("start: %v", err)
	}
	if err := j.Start(ctx); err == nil {
		t.Error("expected error when starting a running janitor")
	}

	deadline := time.Now().Add(2 * time.Second)
	for p.calls.Load() < 2 && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}
	if p.calls.Load() < 2 {
		t.Errorf("purge calls = %d, want at least 2", p.calls.Load())
	}

	stopCtx, stopCancel := context.WithTimeout(context.Background(), time.Second)
	defer stopCancel()
	if err := j.Stop(stopCtx); err != nil {
		t.Fatalf("stop: %v", err)
	}
	if j.IsRunning() {
		t.Error("janitor should be stopped")
	}
	if err := j.Stop(stopCtx); err != nil {
		t.Errorf("second stop should be a no-op: %v", err)
	}
}

func TestDefaultJanitorConfig(t *testing.T) {
	j := NewJanitor(&countingPurger{}, JanitorConfig{})
	if j.config.Interval != time.Hour {
		t.Errorf("interval = %v", j.config.Interval)
	}
}
