package domain

import (
	"bytes"
	"fmt"
	"strings"
	"time"
)

// dateLayout is the wire format for every calendar date in the dataset,
// scene script and timeline events.
const dateLayout = "2006-01-02"

// Date is a UTC calendar day stored as the number of days since 1970-01-01.
// The zero value is the epoch.
type Date int32

// DateOf truncates t to its UTC calendar day.
func DateOf(t time.Time) Date {
	u := t.UTC()
	midnight := time.Date(u.Year(), u.Month(), u.Day(), 0, 0, 0, 0, time.UTC)
	return Date(midnight.Unix() / 86400)
}

// NewDate builds a Date from a year, month and day.
func NewDate(year int, month time.Month, day int) Date {
	return DateOf(time.Date(year, month, day, 0, 0, 0, 0, time.UTC))
}

// ParseDate accepts "YYYY-MM-DD" and full RFC 3339 timestamps.
func ParseDate(s string) (Date, error) {
	s = strings.TrimSpace(s)
	if t, err := time.Parse(dateLayout, s); err == nil {
		return DateOf(t), nil
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return 0, fmt.Errorf("parse date %q: %w", s, err)
	}
	return DateOf(t), nil
}

// MustParseDate is ParseDate for literals in tests and generators.
func MustParseDate(s string) Date {
	d, err := ParseDate(s)
	if err != nil {
		panic(err)
	}
	return d
}

// Time returns midnight UTC of the day.
func (d Date) Time() time.Time {
	return time.Unix(int64(d)*86400, 0).UTC()
}

// AddDays shifts the date by n calendar days.
func (d Date) AddDays(n int) Date { return d + Date(n) }

// DaysSince returns d - other in days.
func (d Date) DaysSince(other Date) int { return int(d - other) }

func (d Date) Before(other Date) bool { return d < other }
func (d Date) After(other Date) bool  { return d > other }

// String formats the date as YYYY-MM-DD.
func (d Date) String() string { return d.Time().Format(dateLayout) }

// Label formats the date for the on-screen date label, e.g. "March 11, 2020".
func (d Date) Label() string { return d.Time().Format("January 2, 2006") }

func (d Date) MarshalText() ([]byte, error) { return []byte(d.String()), nil }

func (d *Date) UnmarshalText(b []byte) error {
	parsed, err := ParseDate(string(b))
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

// UnmarshalYAML lets scene scripts write dates bare or quoted.
func (d *Date) UnmarshalYAML(b []byte) error {
	return d.UnmarshalText(bytes.Trim(bytes.TrimSpace(b), `"'`))
}

// ClampDate bounds d to [lo, hi]. An inverted range returns d unchanged.
func ClampDate(d, lo, hi Date) Date {
	if lo > hi {
		return d
	}
	if d < lo {
		return lo
	}
	if d > hi {
		return hi
	}
	return d
}
