package dateindex

import (
	"sort"

	"github.com/couchcryptid/pandemic-scrollmap/internal/domain"
)

// EventLog answers date-range queries over timeline events.
type EventLog struct {
	events []domain.TimelineEvent
}

// NewEventLog copies and date-sorts events. Events on the same date keep
// their input order.
func NewEventLog(events []domain.TimelineEvent) *EventLog {
	sorted := append([]domain.TimelineEvent(nil), events...)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].Date < sorted[j].Date })
	return &EventLog{events: sorted}
}

// EventsInRange returns events dated within [from, to], inclusive.
func (l *EventLog) EventsInRange(from, to domain.Date) []domain.TimelineEvent {
	if l == nil || from > to {
		return nil
	}
	start := sort.Search(len(l.events), func(i int) bool { return l.events[i].Date >= from })
	end := sort.Search(len(l.events), func(i int) bool { return l.events[i].Date > to })
	if start >= end {
		return nil
	}
	return append([]domain.TimelineEvent(nil), l.events[start:end]...)
}

// EventsAround returns events within ±days of d.
func (l *EventLog) EventsAround(d domain.Date, days int) []domain.TimelineEvent {
	return l.EventsInRange(d.AddDays(-days), d.AddDays(days))
}

// Len reports the number of events.
func (l *EventLog) Len() int {
	if l == nil {
		return 0
	}
	return len(l.events)
}
