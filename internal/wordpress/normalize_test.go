package wordpress

import (
	"encoding/json"
	"testing"

	"hisab/internal/core"
)

func decodeTx(t *testing.T, s string) core.Transaction {
	t.Helper()
	var raw RawTransaction
	if err := json.Unmarshal([]byte(s), &raw); err != nil {
		t.Fatalf("unmarshal %s: %v", s, err)
	}
	return NormalizeTransaction(raw)
}

func TestNormalizeTransaction(t *testing.T) {
	tests := []struct {
		name     string
		json     string
		amount   core.Money
		typ      core.TransactionType
		category string
		date     string
		title    string
	}{
		{
			name:     "full record",
			json:     `{"id":1,"date":"2025-03-09T10:00:00","title":{"rendered":"Salary &amp; bonus"},"acf":{"amount":"50000.50","type":"income","category":"Salary","date":"20250301"}}`,
			amount:   core.NewMoney(50000, 50),
			typ:      core.Income,
			category: "Salary",
			date:     "2025-03-01",
			title:    "Salary & bonus",
		},
		{
			name:     "numeric amount and plain title",
			json:     `{"id":2,"title":"Tea","acf":{"amount":120,"type":"EXPENSE","category":"Food","date":"2025-03-02"}}`,
			amount:   core.NewMoney(120, 0),
			typ:      core.Expense,
			category: "Food",
			date:     "2025-03-02",
			title:    "Tea",
		},
		{
			name:     "empty acf array",
			json:     `{"id":3,"date":"2025-01-05T08:00:00","title":null,"acf":[]}`,
			typ:      core.Expense,
			category: core.UncategorizedLabel,
			date:     "2025-01-05",
		},
		{
			name:     "acf false and garbage fields",
			json:     `{"id":4,"acf":false}`,
			typ:      core.Expense,
			category: core.UncategorizedLabel,
		},
		{
			name:     "malformed values fall back",
			json:     `{"id":5,"date":"not a date","acf":{"amount":"abc","type":"refund","category":false,"date":"31/31/2025"}}`,
			typ:      core.Expense,
			category: core.UncategorizedLabel,
		},
		{
			name:     "negative amount becomes zero",
			json:     `{"id":6,"acf":{"amount":-40,"type":"income"}}`,
			typ:      core.Income,
			category: core.UncategorizedLabel,
		},
		{
			name:     "grouped amount string",
			json:     `{"id":8,"acf":{"amount":"12,34,567.50","type":"income"}}`,
			amount:   core.NewMoney(1234567, 50),
			typ:      core.Income,
			category: core.UncategorizedLabel,
		},
		{
			name:     "acf date wins over post date",
			json:     `{"id":7,"date":"2025-05-01T00:00:00","acf":{"amount":"1","date":"2025-04-30"}}`,
			amount:   core.NewMoney(1, 0),
			typ:      core.Expense,
			category: core.UncategorizedLabel,
			date:     "2025-04-30",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tx := decodeTx(t, tt.json)
			if tx.Amount != tt.amount {
				t.Errorf("amount = %v, want %v", tx.Amount, tt.amount)
			}
			if tx.Type != tt.typ {
				t.Errorf("type = %q, want %q", tx.Type, tt.typ)
			}
			if tx.Category != tt.category {
				t.Errorf("category = %q, want %q", tx.Category, tt.category)
			}
			if tx.Date.String() != tt.date {
				t.Errorf("date = %q, want %q", tx.Date.String(), tt.date)
			}
			if tx.Title != tt.title {
				t.Errorf("title = %q, want %q", tx.Title, tt.title)
			}
		})
	}
}

func TestNormalizeDebtLoans(t *testing.T) {
	payload := `[
		{"id":1,"acf":{"person_name":" Ram ","amount":"5000","type":"lent","status":"outstanding","date":"2025-02-01"}},
		{"id":2,"title":{"rendered":"Sita"},"acf":{"amount":2000,"type":"Borrowed","status":"PAID"}},
		{"id":3,"acf":{"person_name":"Hari","amount":"10","type":"gift"}},
		{"id":4,"acf":{"amount":"10","type":"lent"}},
		{"id":5,"acf":{"person_name":"Gita","amount":"10","type":"lent","status":"pending"}},
		{"id":6,"acf":[]}
	]`
	var raws []RawDebtLoan
	if err := json.Unmarshal([]byte(payload), &raws); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}

	items, skipped := NormalizeDebtLoans(raws)
	if skipped != 3 {
		t.Errorf("skipped = %d, want 3", skipped)
	}
	if len(items) != 3 {
		t.Fatalf("items = %d, want 3", len(items))
	}

	if items[0].Person != "Ram" || items[0].Type != core.Lent || items[0].Status != core.Outstanding || items[0].Amount != core.NewMoney(5000, 0) {
		t.Errorf("item 0 = %+v", items[0])
	}
	if items[1].Person != "Sita" || items[1].Type != core.Borrowed || items[1].Status != core.Paid {
		t.Errorf("title should be the person fallback, got %+v", items[1])
	}
	if items[2].Status != core.Outstanding {
		t.Errorf("unknown status must mean outstanding, got %q", items[2].Status)
	}
}

func TestRenderedShapes(t *testing.T) {
	tests := map[string]string{
		`{"rendered":"A &#8211; B"}`: "A – B",
		`{"raw":"raw only"}`:         "raw only",
		`"plain"`:                    "plain",
		`null`:                       "",
		`42`:                         "",
		`{"rendered":5}`:             "",
	}
	for in, want := range tests {
		var r Rendered
		if err := json.Unmarshal([]byte(in), &r); err != nil {
			t.Errorf("%s: unexpected error %v", in, err)
		}
		if r.String() != want {
			t.Errorf("%s: got %q, want %q", in, r.String(), want)
		}
	}
}

func TestPayloads(t *testing.T) {
	p := transactionPayload(core.Transaction{Amount: core.NewMoney(12, 5), Type: core.Income, Date: core.NewDate(2025, 1, 2)})
	acf := p["acf"].(map[string]any)
	if p["title"] != core.UncategorizedLabel || acf["amount"] != "12.05" || acf["date"] != "2025-01-02" {
		t.Errorf("transaction payload = %v", p)
	}

	d := debtLoanPayload(core.DebtLoanItem{Person: " Ram ", Amount: core.NewMoney(1, 0), Type: core.Lent, Status: core.Outstanding})
	if d["acf"].(map[string]any)["person_name"] != "Ram" {
		t.Errorf("debt payload = %v", d)
	}
}
