package wordpress

import (
	"bytes"
	"encoding/json"
	"html"
	"strconv"
	"strings"

	"hisab/internal/core"
)

// Rendered decodes the WordPress {"rendered": "..."} | "..." | null shapes
// into plain text. Anything else decodes to "".
type Rendered string

func (r *Rendered) UnmarshalJSON(b []byte) error {
	*r = ""
	b = bytes.TrimSpace(b)
	switch {
	case len(b) == 0:
		return nil
	case b[0] == '"':
		var s string
		if json.Unmarshal(b, &s) == nil {
			*r = Rendered(html.UnescapeString(s))
		}
	case b[0] == '{':
		var obj struct {
			Rendered *string `json:"rendered"`
			Raw      *string `json:"raw"`
		}
		if json.Unmarshal(b, &obj) != nil {
			return nil
		}
		switch {
		case obj.Rendered != nil:
			*r = Rendered(html.UnescapeString(*obj.Rendered))
		case obj.Raw != nil:
			*r = Rendered(*obj.Raw)
		}
	}
	return nil
}

func (r Rendered) String() string { return strings.TrimSpace(string(r)) }

// Text decodes ACF scalars. Strings pass through, numbers and booleans are
// stringified, and null, false or objects become "".
type Text string

func (t *Text) UnmarshalJSON(b []byte) error {
	*t = ""
	b = bytes.TrimSpace(b)
	if len(b) == 0 {
		return nil
	}
	switch b[0] {
	case '"':
		var s string
		if json.Unmarshal(b, &s) == nil {
			*t = Text(s)
		}
	case 't':
		*t = "true"
	case 'n', 'f', '{', '[':
		// ACF uses false for an empty field
	default:
		if _, err := strconv.ParseFloat(string(b), 64); err == nil {
			*t = Text(b)
		}
	}
	return nil
}

func (t Text) String() string { return strings.TrimSpace(string(t)) }

// Amount decodes a JSON number or numeric string. Anything that is not a
// non-negative decimal becomes zero.
type Amount core.Money

func (a *Amount) UnmarshalJSON(b []byte) error {
	var t Text
	_ = t.UnmarshalJSON(b)
	m, err := core.ParseMoney(t.String())
	if err != nil {
		*a = Amount{}
		return nil
	}
	*a = Amount(m)
	return nil
}

func (a Amount) Money() core.Money { return core.Money(a) }

// RawTransaction is a transactions post as returned by the REST API.
type RawTransaction struct {
	ID    int64             `json:"id"`
	Date  Text              `json:"date"`
	Title Rendered          `json:"title"`
	ACF   TransactionFields `json:"acf"`
}

type TransactionFields struct {
	Amount   Amount `json:"amount"`
	Type     Text   `json:"type"`
	Category Text   `json:"category"`
	Date     Text   `json:"date"`
	Note     Text   `json:"note"`
}

// UnmarshalJSON tolerates "acf": [] and "acf": false, which WordPress emits
// when no custom field is set.
func (f *TransactionFields) UnmarshalJSON(b []byte) error {
	type plain TransactionFields
	var p plain
	if decodeObject(b, &p) {
		*f = TransactionFields(p)
	} else {
		*f = TransactionFields{}
	}
	return nil
}

// RawDebtLoan is a debt-loans post as returned by the REST API.
type RawDebtLoan struct {
	ID    int64          `json:"id"`
	Date  Text           `json:"date"`
	Title Rendered       `json:"title"`
	ACF   DebtLoanFields `json:"acf"`
}

type DebtLoanFields struct {
	PersonName  Text   `json:"person_name"`
	Amount      Amount `json:"amount"`
	Type        Text   `json:"type"`
	Status      Text   `json:"status"`
	Date        Text   `json:"date"`
	Description Text   `json:"description"`
}

func (f *DebtLoanFields) UnmarshalJSON(b []byte) error {
	type plain DebtLoanFields
	var p plain
	if decodeObject(b, &p) {
		*f = DebtLoanFields(p)
	} else {
		*f = DebtLoanFields{}
	}
	return nil
}

func decodeObject(b []byte, v any) bool {
	b = bytes.TrimSpace(b)
	if len(b) == 0 || b[0] != '{' {
		return false
	}
	return json.Unmarshal(b, v) == nil
}

// User is the subset of /wp/v2/users/me the app needs.
type User struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

// LoginResult is the jwt-auth token endpoint response.
type LoginResult struct {
	Token       string `json:"token"`
	Email       string `json:"user_email"`
	NiceName    string `json:"user_nicename"`
	DisplayName string `json:"user_display_name"`
}

type apiError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}
