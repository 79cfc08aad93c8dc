package domain

import (
	"errors"
	"fmt"
)

// ErrEmptyDataset is returned when a dataset carries no dated rows at all.
var ErrEmptyDataset = errors.New("dataset contains no dated records")

// DataShapeError reports input that violates the dataset's structural
// invariants: unsorted or duplicate dates, negative figures, or cumulative
// totals that decrease.
type DataShapeError struct {
	Country string // ISO3 code, or "global" for aggregates
	Index   int    // position in the offending series, -1 when not applicable
	Field   string
	Reason  string
}

func (e *DataShapeError) Error() string {
	if e.Index < 0 {
		return fmt.Sprintf("data shape: %s: %s: %s", e.Country, e.Field, e.Reason)
	}
	return fmt.Sprintf("data shape: %s[%d]: %s: %s", e.Country, e.Index, e.Field, e.Reason)
}
