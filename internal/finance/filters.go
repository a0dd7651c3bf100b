package finance

import (
	"sort"
	"time"

	"hisab/internal/core"
)

// InMonth returns the transactions dated in the given calendar month.
func InMonth(txs []core.Transaction, year int, month time.Month) []core.Transaction {
	var out []core.Transaction
	for _, tx := range txs {
		if tx.Date.IsValid() && tx.Date.Year() == year && tx.Date.Month() == month {
			out = append(out, tx)
		}
	}
	return out
}

// Recent returns up to n transactions, newest first. Undated transactions sort last.
// The input slice is not modified.
func Recent(txs []core.Transaction, n int) []core.Transaction {
	if n <= 0 {
		return nil
	}
	sorted := append([]core.Transaction(nil), txs...)
	sort.SliceStable(sorted, func(a, b int) bool {
		da, db := sorted[a].Date, sorted[b].Date
		if da.IsValid() != db.IsValid() {
			return da.IsValid()
		}
		if !da.Equal(db.Time) {
			return da.After(db.Time)
		}
		return sorted[a].ID > sorted[b].ID
	})
	if len(sorted) > n {
		sorted = sorted[:n]
	}
	return sorted
}

const (
	DefaultMonths = 6
	MaxMonths     = 60
)

// ClampMonths maps a requested window size into [1, MaxMonths]; zero or
// negative means DefaultMonths.
func ClampMonths(n int) int {
	switch {
	case n <= 0:
		return DefaultMonths
	case n > MaxMonths:
		return MaxMonths
	default:
		return n
	}
}

// InWindow returns the transactions dated inside the trailing months window
// that MonthlyDataAt buckets for the same now.
func InWindow(txs []core.Transaction, months int, now time.Time) []core.Transaction {
	if months <= 0 {
		return nil
	}
	first := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC).AddDate(0, -(months - 1), 0)
	end := first.AddDate(0, months, 0)
	var out []core.Transaction
	for _, tx := range txs {
		if !tx.Date.IsValid() {
			continue
		}
		if !tx.Date.Before(first) && tx.Date.Before(end) {
			out = append(out, tx)
		}
	}
	return out
}
