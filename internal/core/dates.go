package core

import (
	"strings"
	"time"
)

// DateLayout is the canonical wire layout for calendar dates.
const DateLayout = "2006-01-02"

// dateLayouts are tried in order. "20060102" is what ACF date pickers store.
var dateLayouts = []string{
	DateLayout,
	"20060102",
	"2006-01-02T15:04:05",
	time.RFC3339,
	"2006-01-02 15:04:05",
	"2006/01/02",
}

// ParseDate parses any of the layouts the remote store is known to emit.
// Only the calendar day is kept; the result is normalized to UTC midnight.
func ParseDate(s string) (Date, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return Date{}, false
	}
	for _, layout := range dateLayouts {
		t, err := time.Parse(layout, s)
		if err != nil {
			continue
		}
		return NewDate(t.Year(), int(t.Month()), t.Day()), true
	}
	return Date{}, false
}

// MustParseDate is for tests and fixed data only.
func MustParseDate(s string) Date {
	d, ok := ParseDate(s)
	if !ok {
		panic("core: invalid date " + s)
	}
	return d
}

// MarshalJSON emits "YYYY-MM-DD", or null for an invalid date.
func (d Date) MarshalJSON() ([]byte, error) {
	if d.IsZero() {
		return []byte("null"), nil
	}
	return []byte(`"` + d.Format(DateLayout) + `"`), nil
}

// UnmarshalJSON is lenient: anything unparseable becomes the zero (invalid) date.
func (d *Date) UnmarshalJSON(b []byte) error {
	s := strings.Trim(strings.TrimSpace(string(b)), `"`)
	parsed, _ := ParseDate(s)
	*d = parsed
	return nil
}
