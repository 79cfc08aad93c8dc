package render

import (
	"github.com/biter777/countries"
)

// CodeTable maps topology ids to ISO3 country codes. Many ids are expected
// to be unmapped.
type CodeTable interface {
	Lookup(id int) (string, bool)
}

// ISOTable resolves topology ids as ISO 3166-1 numeric codes, the convention
// of the world-atlas topology files, with optional overrides for regions the
// standard does not cover.
type ISOTable struct {
	overrides map[int]string
}

// NewISOTable creates a table. Overrides take precedence over the standard.
func NewISOTable(overrides map[int]string) *ISOTable {
	return &ISOTable{overrides: overrides}
}

// Lookup returns the ISO3 code for a topology id.
func (t *ISOTable) Lookup(id int) (string, bool) {
	if code, ok := t.overrides[id]; ok {
		return code, code != ""
	}
	if id <= 0 {
		return "", false
	}
	c := countries.ByNumeric(id)
	if c == countries.Unknown {
		return "", false
	}
	return c.Alpha3(), true
}

// MapTable is a fixed id→code table, mostly for tests and fixtures.
type MapTable map[int]string

func (m MapTable) Lookup(id int) (string, bool) {
	code, ok := m[id]
	return code, ok && code != ""
}
