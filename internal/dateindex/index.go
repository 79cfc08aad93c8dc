// Package dateindex builds the read-only lookup structures the scroll map
// queries on every frame: per-date country snapshots, global aggregates and
// timeline events.
package dateindex

import (
	"sort"

	"github.com/couchcryptid/pandemic-scrollmap/internal/domain"
)

// Index maps calendar dates to per-country snapshots and global aggregates.
// It is immutable after Build and safe for concurrent readers.
type Index struct {
	dates     []domain.Date // sorted, unique; dates with any country data
	snapshots map[domain.Date]map[string]domain.CountrySnapshot

	globalDates []domain.Date
	global      map[domain.Date]domain.GlobalAggregate
}

// Build validates every series and indexes it. It returns a
// *domain.DataShapeError if any timeline is unsorted or has a decreasing
// cumulative total, and domain.ErrEmptyDataset if nothing is dated.
func Build(countries []domain.CountryRecord, global []domain.GlobalAggregate) (*Index, error) {
	idx := &Index{
		snapshots: make(map[domain.Date]map[string]domain.CountrySnapshot),
		global:    make(map[domain.Date]domain.GlobalAggregate, len(global)),
	}

	for _, c := range countries {
		if err := domain.ValidateTimeline(c.Code, c.Timeline); err != nil {
			return nil, err
		}
		for _, p := range c.Timeline {
			byCode, ok := idx.snapshots[p.Date]
			if !ok {
				byCode = make(map[string]domain.CountrySnapshot)
				idx.snapshots[p.Date] = byCode
				idx.dates = append(idx.dates, p.Date)
			}
			byCode[c.Code] = domain.CountrySnapshot{
				Code:       c.Code,
				Name:       c.Name,
				Population: c.Population,
				DailyPoint: p,
			}
		}
	}

	if err := domain.ValidateGlobal(global); err != nil {
		return nil, err
	}
	for _, g := range global {
		idx.global[g.Date] = g
		idx.globalDates = append(idx.globalDates, g.Date)
	}

	if len(idx.dates) == 0 && len(idx.globalDates) == 0 {
		return nil, domain.ErrEmptyDataset
	}
	sort.Slice(idx.dates, func(i, j int) bool { return idx.dates[i] < idx.dates[j] })
	return idx, nil
}

// Snapshot returns the countries with data on exactly d. An absent date
// yields an empty snapshot, not an error.
func (idx *Index) Snapshot(d domain.Date) domain.Snapshot {
	byCode, ok := idx.snapshots[d]
	if !ok {
		return domain.Snapshot{Date: d, Countries: map[string]domain.CountrySnapshot{}}
	}
	return domain.Snapshot{Date: d, Countries: byCode}
}

// Closest returns the indexed date nearest to d and its snapshot. Ties go to
// the earlier date; queries outside Range resolve to the nearest boundary.
func (idx *Index) Closest(d domain.Date) (domain.Date, domain.Snapshot) {
	nearest, ok := closest(idx.dates, d)
	if !ok {
		return d, idx.Snapshot(d)
	}
	return nearest, idx.Snapshot(nearest)
}

// Global returns the aggregate for exactly d, or a zeroed aggregate dated d
// when the series has no entry for it.
func (idx *Index) Global(d domain.Date) domain.GlobalAggregate {
	if g, ok := idx.global[d]; ok {
		return g
	}
	return domain.GlobalAggregate{Date: d}
}

// GlobalClosest returns the aggregate for the nearest global date.
func (idx *Index) GlobalClosest(d domain.Date) domain.GlobalAggregate {
	nearest, ok := closest(idx.globalDates, d)
	if !ok {
		return domain.GlobalAggregate{Date: d}
	}
	return idx.global[nearest]
}

// Range returns the first and last indexed dates. When no country has data it
// falls back to the global series.
func (idx *Index) Range() (lo, hi domain.Date) {
	dates := idx.dates
	if len(dates) == 0 {
		dates = idx.globalDates
	}
	return dates[0], dates[len(dates)-1]
}

// Dates returns a copy of the sorted indexed dates.
func (idx *Index) Dates() []domain.Date {
	return append([]domain.Date(nil), idx.dates...)
}

// GlobalSeries returns the global aggregates in date order.
func (idx *Index) GlobalSeries() []domain.GlobalAggregate {
	out := make([]domain.GlobalAggregate, len(idx.globalDates))
	for i, d := range idx.globalDates {
		out[i] = idx.global[d]
	}
	return out
}

// closest binary-searches a sorted date slice for the element minimising
// |x - d|, preferring the earlier element on a tie.
func closest(dates []domain.Date, d domain.Date) (domain.Date, bool) {
	if len(dates) == 0 {
		return 0, false
	}
	i := sort.Search(len(dates), func(i int) bool { return dates[i] >= d })
	switch {
	case i == 0:
		return dates[0], true
	case i == len(dates):
		return dates[len(dates)-1], true
	}
	before, after := dates[i-1], dates[i]
	if after == d {
		return after, true
	}
	if d.DaysSince(before) <= after.DaysSince(d) {
		return before, true
	}
	return after, true
}
