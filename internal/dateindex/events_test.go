package dateindex

import (
	"testing"

	"github.com/couchcryptid/pandemic-scrollmap/internal/domain"
	"github.com/stretchr/testify/assert"
)

func TestEventLog_EventsInRange(t *testing.T) {
	log := NewEventLog([]domain.TimelineEvent{
		{Date: domain.MustParseDate("2020-03-11"), Title: "WHO declares pandemic"},
		{Date: domain.MustParseDate("2020-01-30"), Title: "PHEIC declared"},
		{Date: domain.MustParseDate("2020-12-08"), Title: "First vaccine dose"},
		{Date: domain.MustParseDate("2020-03-11"), Title: "Travel ban"},
	})

	got := log.EventsInRange(domain.MustParseDate("2020-01-30"), domain.MustParseDate("2020-03-11"))
	titles := make([]string, len(got))
	for i, e := range got {
		titles[i] = e.Title
	}
	assert.Equal(t, []string{"PHEIC declared", "WHO declares pandemic", "Travel ban"}, titles)

	assert.Empty(t, log.EventsInRange(domain.MustParseDate("2021-01-01"), domain.MustParseDate("2021-02-01")))
	assert.Empty(t, log.EventsInRange(domain.MustParseDate("2020-12-31"), domain.MustParseDate("2020-01-01")))
}

func TestEventLog_EventsAround(t *testing.T) {
	log := NewEventLog([]domain.TimelineEvent{
		{Date: domain.MustParseDate("2020-12-08"), Title: "First vaccine dose"},
		{Date: domain.MustParseDate("2020-12-20"), Title: "Later"},
	})

	got := log.EventsAround(domain.MustParseDate("2020-12-01"), 7)
	assert.Len(t, got, 1)
	assert.Equal(t, "First vaccine dose", got[0].Title)
}

func TestEventLog_Nil(t *testing.T) {
	var log *EventLog
	assert.Nil(t, log.EventsAround(domain.MustParseDate("2020-12-01"), 7))
	assert.Equal(t, 0, log.Len())
}
