package google

import (
	"strconv"
	"time"

	"hisab/internal/sheets"
)

// monthlyRows lays out one row per month followed by a totals row. Amounts are
// plain decimals so USER_ENTERED stores them as numbers.
func monthlyRows(r sheets.Report) [][]any {
	generated := r.GeneratedAt.UTC().Format(time.DateTime)
	rows := make([][]any, 0, len(r.Monthly)+1)
	for _, m := range r.Monthly {
		rows = append(rows, []any{
			r.ID, generated, userLabel(r), m.Key, m.Label,
			m.Income.Decimal(), m.Expense.Decimal(), m.Balance.Decimal(), "",
		})
	}
	rows = append(rows, []any{
		r.ID, generated, userLabel(r), "total", strconv.Itoa(r.Months) + " months",
		r.Summary.TotalIncome.Decimal(), r.Summary.TotalExpense.Decimal(), r.Summary.Balance.Decimal(),
		r.Summary.TransactionCount,
	})
	return rows
}

func categoryRows(r sheets.Report) [][]any {
	generated := r.GeneratedAt.UTC().Format(time.DateTime)
	rows := make([][]any, 0, len(r.Categories))
	for _, c := range r.Categories {
		rows = append(rows, []any{
			r.ID, generated, userLabel(r), c.Name,
			c.Amount.Decimal(), strconv.FormatFloat(c.Percentage, 'f', 2, 64), c.Count, c.Color,
		})
	}
	return rows
}

func userLabel(r sheets.Report) string {
	if r.UserName != "" {
		return r.UserName
	}
	return r.UserID
}
