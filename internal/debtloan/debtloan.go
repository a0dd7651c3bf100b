// Package debtloan aggregates debt/loan entries per counterparty.
//
// Entries are always recorded from the owner's side: "lent" means the owner
// gave money to the person, "borrowed" means the owner received it. A
// positive net balance therefore means the person owes the owner.
//
// Only outstanding entries move balances. Paid entries stay in each person's
// history and are summed separately in PaidTotal.
package debtloan

import (
	"strings"

	"hisab/internal/core"
)

// Filter selects person summaries by the sign of their net balance.
type Filter string

const (
	FilterAll       Filter = "all"
	FilterToReceive Filter = "to_receive"
	FilterToGive    Filter = "to_give"
	FilterSettled   Filter = "settled"
)

// ParseFilter returns FilterAll for anything it does not recognise.
func ParseFilter(s string) Filter {
	switch f := Filter(strings.ToLower(strings.TrimSpace(s))); f {
	case FilterToReceive, FilterToGive, FilterSettled:
		return f
	default:
		return FilterAll
	}
}

type (
	PersonSummary struct {
		Person        string              `json:"person"`
		TotalLent     core.Money          `json:"total_lent"`
		TotalBorrowed core.Money          `json:"total_borrowed"`
		NetBalance    core.Money          `json:"net_balance"`
		PaidTotal     core.Money          `json:"paid_total"`
		Transactions  []core.DebtLoanItem `json:"transactions"`
	}

	// Totals is the owner's whole-ledger position.
	Totals struct {
		ToReceive        core.Money `json:"to_receive"`
		ToGive           core.Money `json:"to_give"`
		Net              core.Money `json:"net"`
		OutstandingCount int        `json:"outstanding_count"`
		PaidCount        int        `json:"paid_count"`
		People           int        `json:"people"`
	}
)

// PersonKey is the grouping key for a counterparty name.
func PersonKey(person string) string {
	return strings.ToLower(person)
}

// GroupByPerson groups items by case-insensitive person name. The display
// name is the casing of the first item seen for that person, and summaries
// come back in first-seen order.
func GroupByPerson(items []core.DebtLoanItem) []PersonSummary {
	out := []PersonSummary{}
	index := map[string]int{}

	for _, item := range items {
		key := PersonKey(item.Person)
		i, ok := index[key]
		if !ok {
			i = len(out)
			index[key] = i
			out = append(out, PersonSummary{Person: item.Person})
		}
		s := &out[i]
		s.Transactions = append(s.Transactions, item)

		if !item.IsOutstanding() {
			s.PaidTotal = s.PaidTotal.Add(item.Amount)
			continue
		}
		switch item.Type {
		case core.Lent:
			s.TotalLent = s.TotalLent.Add(item.Amount)
		case core.Borrowed:
			s.TotalBorrowed = s.TotalBorrowed.Add(item.Amount)
		}
	}

	for i := range out {
		out[i].NetBalance = out[i].TotalLent.Sub(out[i].TotalBorrowed)
	}
	return out
}

// FilterByStatus keeps summaries whose net balance matches f. Settled means
// exactly zero; amounts are integer paisa so no tolerance is needed.
func FilterByStatus(summaries []PersonSummary, f Filter) []PersonSummary {
	if f == FilterAll || f == "" {
		return summaries
	}
	out := []PersonSummary{}
	for _, s := range summaries {
		n := s.NetBalance.Paisa
		switch {
		case f == FilterToReceive && n > 0,
			f == FilterToGive && n < 0,
			f == FilterSettled && n == 0:
			out = append(out, s)
		}
	}
	return out
}

// SearchByName keeps summaries whose person contains query, ignoring case.
// A blank query returns the input unmodified.
func SearchByName(summaries []PersonSummary, query string) []PersonSummary {
	q := strings.ToLower(strings.TrimSpace(query))
	if q == "" {
		return summaries
	}
	out := []PersonSummary{}
	for _, s := range summaries {
		if strings.Contains(strings.ToLower(s.Person), q) {
			out = append(out, s)
		}
	}
	return out
}

// ItemsForPerson returns the items whose person matches name case-insensitively.
func ItemsForPerson(items []core.DebtLoanItem, name string) []core.DebtLoanItem {
	key := PersonKey(strings.TrimSpace(name))
	var out []core.DebtLoanItem
	for _, item := range items {
		if PersonKey(strings.TrimSpace(item.Person)) == key {
			out = append(out, item)
		}
	}
	return out
}

// CalculateTotals sums the owner's outstanding position over all people.
func CalculateTotals(items []core.DebtLoanItem) Totals {
	var t Totals
	people := map[string]struct{}{}
	for _, item := range items {
		people[PersonKey(item.Person)] = struct{}{}
		if !item.IsOutstanding() {
			t.PaidCount++
			continue
		}
		t.OutstandingCount++
		switch item.Type {
		case core.Lent:
			t.ToReceive = t.ToReceive.Add(item.Amount)
		case core.Borrowed:
			t.ToGive = t.ToGive.Add(item.Amount)
		}
	}
	t.Net = t.ToReceive.Sub(t.ToGive)
	t.People = len(people)
	return t
}
