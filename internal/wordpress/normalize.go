package wordpress

import (
	"strings"

	"hisab/internal/core"
)

// NormalizeTransaction converts a remote record into the strict internal type.
// It never fails: the amount defaults to 0, the type to expense, the category
// to Uncategorized and an unparseable date to the zero Date.
func NormalizeTransaction(r RawTransaction) core.Transaction {
	typ, err := core.ParseTransactionType(r.ACF.Type.String())
	if err != nil {
		typ = core.Expense
	}

	category := r.ACF.Category.String()
	if category == "" {
		category = core.UncategorizedLabel
	}

	return core.Transaction{
		ID:       r.ID,
		Title:    r.Title.String(),
		Amount:   r.ACF.Amount.Money(),
		Type:     typ,
		Category: category,
		Date:     effectiveDate(r.ACF.Date, r.Date),
		Note:     r.ACF.Note.String(),
	}
}

func NormalizeTransactions(rs []RawTransaction) []core.Transaction {
	out := make([]core.Transaction, 0, len(rs))
	for _, r := range rs {
		out = append(out, NormalizeTransaction(r))
	}
	return out
}

// NormalizeDebtLoan converts a remote record. ok is false when the record has
// no counterparty or its type is neither lent nor borrowed; such records are
// unusable for any balance and are skipped. Status "paid" means paid and every
// other value means outstanding.
func NormalizeDebtLoan(r RawDebtLoan) (core.DebtLoanItem, bool) {
	typ, err := core.ParseDebtType(r.ACF.Type.String())
	if err != nil {
		return core.DebtLoanItem{}, false
	}

	person := r.ACF.PersonName.String()
	if person == "" {
		person = r.Title.String()
	}
	if person == "" {
		return core.DebtLoanItem{}, false
	}

	status := core.Outstanding
	if strings.EqualFold(r.ACF.Status.String(), string(core.Paid)) {
		status = core.Paid
	}

	return core.DebtLoanItem{
		ID:          r.ID,
		Person:      person,
		Amount:      r.ACF.Amount.Money(),
		Type:        typ,
		Status:      status,
		Date:        effectiveDate(r.ACF.Date, r.Date),
		Description: r.ACF.Description.String(),
	}, true
}

// NormalizeDebtLoans returns the usable items and how many records were skipped.
func NormalizeDebtLoans(rs []RawDebtLoan) ([]core.DebtLoanItem, int) {
	out := make([]core.DebtLoanItem, 0, len(rs))
	skipped := 0
	for _, r := range rs {
		item, ok := NormalizeDebtLoan(r)
		if !ok {
			skipped++
			continue
		}
		out = append(out, item)
	}
	return out, skipped
}

// effectiveDate prefers the ACF date and falls back to the post date.
func effectiveDate(acf, post Text) core.Date {
	if d, ok := core.ParseDate(acf.String()); ok {
		return d
	}
	d, _ := core.ParseDate(post.String())
	return d
}

func transactionPayload(t core.Transaction) map[string]any {
	title := strings.TrimSpace(t.Title)
	if title == "" {
		title = t.EffectiveCategory()
	}
	return map[string]any{
		"title":  title,
		"status": "publish",
		"acf": map[string]any{
			"amount":   t.Amount.Decimal(),
			"type":     string(t.Type),
			"category": t.EffectiveCategory(),
			"date":     t.Date.String(),
			"note":     t.Note,
		},
	}
}

func debtLoanPayload(i core.DebtLoanItem) map[string]any {
	return map[string]any{
		"title":  strings.TrimSpace(i.Person),
		"status": "publish",
		"acf": map[string]any{
			"person_name": strings.TrimSpace(i.Person),
			"amount":      i.Amount.Decimal(),
			"type":        string(i.Type),
			"status":      string(i.Status),
			"date":        i.Date.String(),
			"description": i.Description,
		},
	}
}
