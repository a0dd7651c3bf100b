package core

import (
	"errors"
	"strings"
	"time"
)

const (
	Income  TransactionType = "income"
	Expense TransactionType = "expense"

	Lent     DebtType = "lent"
	Borrowed DebtType = "borrowed"

	Outstanding DebtStatus = "outstanding"
	Paid        DebtStatus = "paid"
)

// UncategorizedLabel is used for transactions without a category.
const UncategorizedLabel = "Uncategorized"

type (
	TransactionType string
	DebtType        string
	DebtStatus      string

	Date struct {
		time.Time
	}

	Money struct {
		Paisa int64
	}

	Transaction struct {
		ID       int64           `json:"id"`
		Title    string          `json:"title,omitempty"`
		Amount   Money           `json:"amount"`
		Type     TransactionType `json:"type"`
		Category string          `json:"category"`
		Date     Date            `json:"date"` // zero when the remote date is missing or unparseable
		Note     string          `json:"note,omitempty"`
	}

	// DebtLoanItem is one ledger entry recorded from the owner's point of view.
	DebtLoanItem struct {
		ID          int64      `json:"id"`
		Person      string     `json:"person"`
		Amount      Money      `json:"amount"`
		Type        DebtType   `json:"type"`
		Status      DebtStatus `json:"status"`
		Date        Date       `json:"date"`
		Description string     `json:"description,omitempty"`
	}
)

var (
	ErrInvalidAmount   = errors.New("invalid amount")
	ErrInvalidType     = errors.New("invalid type")
	ErrInvalidStatus   = errors.New("invalid status")
	ErrEmptyPerson     = errors.New("empty person")
	ErrInvalidDate     = errors.New("invalid date")
	ErrDescriptionSize = errors.New("description too long (max 500 characters)")
)

// Valid reports whether t is income or expense.
func (t TransactionType) Valid() bool {
	return t == Income || t == Expense
}

// Valid reports whether t is lent or borrowed.
func (t DebtType) Valid() bool {
	return t == Lent || t == Borrowed
}

// Invert returns the counterparty's view of the same entry.
func (t DebtType) Invert() DebtType {
	switch t {
	case Lent:
		return Borrowed
	case Borrowed:
		return Lent
	default:
		return t
	}
}

func (s DebtStatus) Valid() bool {
	return s == Outstanding || s == Paid
}

// ParseTransactionType is case-insensitive; anything unknown is reported as invalid.
func ParseTransactionType(s string) (TransactionType, error) {
	t := TransactionType(strings.ToLower(strings.TrimSpace(s)))
	if !t.Valid() {
		return "", ErrInvalidType
	}
	return t, nil
}

func ParseDebtType(s string) (DebtType, error) {
	t := DebtType(strings.ToLower(strings.TrimSpace(s)))
	if !t.Valid() {
		return "", ErrInvalidType
	}
	return t, nil
}

func ParseDebtStatus(s string) (DebtStatus, error) {
	st := DebtStatus(strings.ToLower(strings.TrimSpace(s)))
	if !st.Valid() {
		return "", ErrInvalidStatus
	}
	return st, nil
}

// NewDate creates a new Date from year, month, day
func NewDate(year, month, day int) Date {
	return Date{Time: time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)}
}

// IsValid returns false for the zero date used to mark missing or malformed input.
func (d Date) IsValid() bool {
	return !d.IsZero()
}

// String renders the date as YYYY-MM-DD, or "" when invalid.
func (d Date) String() string {
	if d.IsZero() {
		return ""
	}
	return d.Format(DateLayout)
}

// EffectiveCategory returns the category label, defaulting to Uncategorized.
func (t Transaction) EffectiveCategory() string {
	c := strings.TrimSpace(t.Category)
	if c == "" {
		return UncategorizedLabel
	}
	return c
}

// Validate checks a transaction before it is sent to the remote store.
func (t Transaction) Validate() error {
	if !t.Type.Valid() {
		return ErrInvalidType
	}
	if t.Amount.Paisa <= 0 {
		return ErrInvalidAmount
	}
	if !t.Date.IsValid() {
		return ErrInvalidDate
	}
	if len(t.Note) > 500 {
		return ErrDescriptionSize
	}
	return nil
}

// IsOutstanding reports whether the item still counts toward live balances.
func (i DebtLoanItem) IsOutstanding() bool {
	return i.Status == Outstanding
}

func (i DebtLoanItem) Validate() error {
	if strings.TrimSpace(i.Person) == "" {
		return ErrEmptyPerson
	}
	if !i.Type.Valid() {
		return ErrInvalidType
	}
	if !i.Status.Valid() {
		return ErrInvalidStatus
	}
	if i.Amount.Paisa <= 0 {
		return ErrInvalidAmount
	}
	if !i.Date.IsValid() {
		return ErrInvalidDate
	}
	if len(i.Description) > 500 {
		return ErrDescriptionSize
	}
	return nil
}
