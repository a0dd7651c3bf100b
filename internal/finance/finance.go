// Package finance reduces transaction lists into the summary, monthly and
// category views used by dashboards and reports. Every function is pure and
// total over its input.
package finance

import (
	"fmt"
	"sort"
	"time"

	"hisab/internal/core"
)

// Palette is assigned to categories by first-seen order.
var Palette = [...]string{
	"#3B82F6",
	"#EF4444",
	"#10B981",
	"#F59E0B",
	"#8B5CF6",
	"#EC4899",
	"#06B6D4",
	"#84CC16",
	"#F97316",
	"#6366F1",
}

type (
	Summary struct {
		TotalIncome      core.Money `json:"total_income"`
		TotalExpense     core.Money `json:"total_expense"`
		Balance          core.Money `json:"balance"`
		TransactionCount int        `json:"transaction_count"`
	}

	MonthlyData struct {
		Key     string     `json:"key"`   // YYYY-MM
		Label   string     `json:"label"` // Jan 2026
		Year    int        `json:"year"`
		Month   int        `json:"month"`
		Income  core.Money `json:"income"`
		Expense core.Money `json:"expense"`
		Balance core.Money `json:"balance"`
	}

	CategoryData struct {
		Name       string     `json:"name"`
		Amount     core.Money `json:"amount"`
		Percentage float64    `json:"percentage"`
		Color      string     `json:"color"`
		Count      int        `json:"count"`
	}

	// TypeFilter restricts the category breakdown to one transaction type.
	TypeFilter string
)

const (
	AllTypes    TypeFilter = ""
	OnlyIncome  TypeFilter = TypeFilter(core.Income)
	OnlyExpense TypeFilter = TypeFilter(core.Expense)
)

// ParseTypeFilter maps "income"/"expense" to their filter; anything else means all types.
func ParseTypeFilter(s string) TypeFilter {
	switch TypeFilter(s) {
	case OnlyIncome, OnlyExpense:
		return TypeFilter(s)
	default:
		return AllTypes
	}
}

func (f TypeFilter) match(t core.TransactionType) bool {
	return f == AllTypes || string(f) == string(t)
}

// CalculateSummary totals income and expense. Every transaction is counted,
// whatever its content.
func CalculateSummary(txs []core.Transaction) Summary {
	var s Summary
	for _, tx := range txs {
		if tx.Type == core.Income {
			s.TotalIncome = s.TotalIncome.Add(tx.Amount)
		} else {
			s.TotalExpense = s.TotalExpense.Add(tx.Amount)
		}
		s.TransactionCount++
	}
	s.Balance = s.TotalIncome.Sub(s.TotalExpense)
	return s
}

// GetMonthlyData buckets transactions into the trailing months ending at the current month.
func GetMonthlyData(txs []core.Transaction, months int) []MonthlyData {
	return MonthlyDataAt(txs, months, time.Now())
}

// MonthlyDataAt returns exactly months buckets, oldest first, the last one being now's month.
// Buckets exist even when empty. Transactions with invalid dates or dates
// outside the window are ignored.
func MonthlyDataAt(txs []core.Transaction, months int, now time.Time) []MonthlyData {
	if months <= 0 {
		return []MonthlyData{}
	}

	out := make([]MonthlyData, months)
	index := make(map[string]int, months)
	first := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC).AddDate(0, -(months - 1), 0)
	for i := 0; i < months; i++ {
		m := first.AddDate(0, i, 0)
		key := monthKey(m.Year(), m.Month())
		out[i] = MonthlyData{
			Key:   key,
			Label: m.Format("Jan 2006"),
			Year:  m.Year(),
			Month: int(m.Month()),
		}
		index[key] = i
	}

	for _, tx := range txs {
		if !tx.Date.IsValid() {
			continue
		}
		i, ok := index[monthKey(tx.Date.Year(), tx.Date.Month())]
		if !ok {
			continue
		}
		if tx.Type == core.Income {
			out[i].Income = out[i].Income.Add(tx.Amount)
		} else {
			out[i].Expense = out[i].Expense.Add(tx.Amount)
		}
	}

	for i := range out {
		out[i].Balance = out[i].Income.Sub(out[i].Expense)
	}
	return out
}

func monthKey(year int, month time.Month) string {
	return fmt.Sprintf("%04d-%02d", year, int(month))
}

// GetCategoryData groups the filtered transactions by category label and
// sorts the result by amount, largest first.
func GetCategoryData(txs []core.Transaction, filter TypeFilter) []CategoryData {
	out := []CategoryData{}
	index := map[string]int{}
	var total core.Money

	for _, tx := range txs {
		if !filter.match(tx.Type) {
			continue
		}
		name := tx.EffectiveCategory()
		i, ok := index[name]
		if !ok {
			i = len(out)
			index[name] = i
			out = append(out, CategoryData{
				Name:  name,
				Color: Palette[i%len(Palette)],
			})
		}
		out[i].Amount = out[i].Amount.Add(tx.Amount)
		out[i].Count++
		total = total.Add(tx.Amount)
	}

	for i := range out {
		if total.Paisa != 0 {
			out[i].Percentage = float64(out[i].Amount.Paisa) / float64(total.Paisa) * 100
		}
	}

	sort.SliceStable(out, func(a, b int) bool {
		return out[a].Amount.Paisa > out[b].Amount.Paisa
	})
	return out
}
