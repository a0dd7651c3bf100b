// Package core provides money parsing and handling utilities.
//
// Amounts are kept in paisa (1/100 NPR) so that sums and zero checks are exact.
// Parsing goes through shopspring/decimal, formatting through one shared contract.
package core

import (
	"fmt"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/shopspring/decimal"
)

// CurrencyCode is the only currency the ledger deals in.
const CurrencyCode = "NPR"

var hundred = decimal.NewFromInt(100)

// ParseMoney converts a decimal string to paisa with half-up rounding on the third decimal.
//
// The decimal separator is a dot. Commas are accepted only as digit grouping in the
// whole part, in either international (1,234,567) or lakh (12,34,567) style; the
// last group must have three digits. Negative values and malformed input return
// ErrInvalidAmount. Zero is accepted; callers that need a strictly
// positive amount check Paisa themselves.
//
// Examples:
//
//	ParseMoney("12.34")  -> 1234
//	ParseMoney("1,500")  -> 150000
//	ParseMoney("12.345") -> 1235
//	ParseMoney("0")      -> 0
func ParseMoney(s string) (Money, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return Money{}, ErrInvalidAmount
	}
	if strings.Count(s, ".") > 1 || strings.HasPrefix(s, "+") {
		return Money{}, ErrInvalidAmount
	}
	s, ok := stripGrouping(s)
	if !ok {
		return Money{}, ErrInvalidAmount
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return Money{}, ErrInvalidAmount
	}
	return MoneyFromDecimal(d)
}

// stripGrouping removes thousands separators from the whole part of s.
func stripGrouping(s string) (string, bool) {
	whole, frac, hasFrac := strings.Cut(s, ".")
	if strings.Contains(frac, ",") {
		return "", false
	}
	if !strings.Contains(whole, ",") {
		return s, true
	}
	groups := strings.Split(whole, ",")
	for i, g := range groups {
		if g == "" || strings.Trim(g, "0123456789") != "" {
			return "", false
		}
		if i == len(groups)-1 && len(g) != 3 {
			return "", false
		}
		if i > 0 && i < len(groups)-1 && len(g) != 2 && len(g) != 3 {
			return "", false
		}
		if i == 0 && len(g) > 3 {
			return "", false
		}
	}
	whole = strings.Join(groups, "")
	if hasFrac {
		return whole + "." + frac, true
	}
	return whole, true
}

// MoneyFromDecimal rounds d to two places and converts it to paisa.
func MoneyFromDecimal(d decimal.Decimal) (Money, error) {
	if d.IsNegative() {
		return Money{}, ErrInvalidAmount
	}
	p := d.Round(2).Mul(hundred)
	if !p.IsInteger() || p.GreaterThan(decimal.NewFromInt(1<<62)) {
		return Money{}, ErrInvalidAmount
	}
	return Money{Paisa: p.IntPart()}, nil
}

// NewMoney builds an amount from whole rupees and paisa.
func NewMoney(rupees, paisa int64) Money {
	return Money{Paisa: rupees*100 + paisa}
}

func (m Money) Add(o Money) Money { return Money{Paisa: m.Paisa + o.Paisa} }

func (m Money) Sub(o Money) Money { return Money{Paisa: m.Paisa - o.Paisa} }

func (m Money) Neg() Money { return Money{Paisa: -m.Paisa} }

func (m Money) Abs() Money {
	if m.Paisa < 0 {
		return m.Neg()
	}
	return m
}

func (m Money) IsZero() bool { return m.Paisa == 0 }

// Rupees returns the value as a float64 for charts and percentages.
// Note: use Paisa for calculations.
func (m Money) Rupees() float64 {
	return float64(m.Paisa) / 100.0
}

// Decimal returns the amount in rupees as an exact decimal string, e.g. "1234.50".
func (m Money) Decimal() string {
	return decimal.New(m.Paisa, -2).StringFixed(2)
}

// Format is the single display contract for every view: "NPR 1,234.50".
// Always two decimals, thousands grouped, leading "-" for negatives.
func (m Money) Format() string {
	p := m.Paisa
	sign := ""
	if p < 0 {
		sign = "-"
		p = -p
	}
	return fmt.Sprintf("%s%s %s.%02d", sign, CurrencyCode, humanize.Comma(p/100), p%100)
}

func (m Money) String() string {
	return m.Format()
}

// MarshalJSON emits the amount in rupees as a JSON number with two decimals.
func (m Money) MarshalJSON() ([]byte, error) {
	return []byte(m.Decimal()), nil
}

// UnmarshalJSON accepts a JSON number or a numeric string in rupees.
func (m *Money) UnmarshalJSON(b []byte) error {
	s := strings.Trim(strings.TrimSpace(string(b)), `"`)
	if s == "" || s == "null" {
		*m = Money{}
		return nil
	}
	v, err := ParseMoney(s)
	if err != nil {
		return err
	}
	*m = v
	return nil
}
