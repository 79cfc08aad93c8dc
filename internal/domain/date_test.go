package domain

import (
	"testing"
	"time"

	"github.com/goccy/go-yaml"
	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseDate(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"plain day", "2020-03-11", "2020-03-11"},
		{"padded", "  2021-01-01 ", "2021-01-01"},
		{"rfc3339 truncated to UTC day", "2020-03-11T23:30:00-02:00", "2020-03-12"},
		{"leap day", "2020-02-29", "2020-02-29"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d, err := ParseDate(tt.input)
			require.NoError(t, err)
			assert.Equal(t, tt.want, d.String())
		})
	}
}

func TestParseDate_Invalid(t *testing.T) {
	for _, in := range []string{"", "2020-13-01", "11/03/2020", "2021-02-29"} {
		_, err := ParseDate(in)
		assert.Error(t, err, in)
	}
}

func TestDate_Arithmetic(t *testing.T) {
	d := NewDate(2020, time.December, 31)
	assert.Equal(t, "2021-01-01", d.AddDays(1).String())
	assert.Equal(t, 366, NewDate(2021, time.January, 1).DaysSince(NewDate(2020, time.January, 1)))
	assert.True(t, d.Before(d.AddDays(1)))
	assert.True(t, d.After(d.AddDays(-1)))
	assert.Equal(t, time.Date(2020, time.December, 31, 0, 0, 0, 0, time.UTC), d.Time())
}

func TestDate_Label(t *testing.T) {
	assert.Equal(t, "March 11, 2020", MustParseDate("2020-03-11").Label())
	assert.Equal(t, "January 1, 2021", MustParseDate("2021-01-01").Label())
}

func TestDate_TextRoundTrip(t *testing.T) {
	d := MustParseDate("2020-06-01")
	b, err := d.MarshalText()
	require.NoError(t, err)
	assert.Equal(t, "2020-06-01", string(b))

	var got Date
	require.NoError(t, got.UnmarshalText(b))
	assert.Equal(t, d, got)
}

func TestDate_YAMLBareAndQuoted(t *testing.T) {
	var v struct {
		Bare   Date `yaml:"bare"`
		Quoted Date `yaml:"quoted"`
	}
	require.NoError(t, yaml.Unmarshal([]byte("bare: 2020-03-11\nquoted: \"2020-12-08\"\n"), &v))
	assert.Equal(t, "2020-03-11", v.Bare.String())
	assert.Equal(t, "2020-12-08", v.Quoted.String())
}

func TestClampDate(t *testing.T) {
	lo, hi := MustParseDate("2020-01-22"), MustParseDate("2021-06-01")
	assert.Equal(t, lo, ClampDate(MustParseDate("2019-12-31"), lo, hi))
	assert.Equal(t, hi, ClampDate(MustParseDate("2022-01-01"), lo, hi))
	mid := MustParseDate("2020-06-01")
	assert.Equal(t, mid, ClampDate(mid, lo, hi))
	assert.Equal(t, mid, ClampDate(mid, hi, lo), "inverted range leaves the date alone")
}

func TestSetClock(t *testing.T) {
	fixed := time.Date(2021, time.March, 4, 22, 0, 0, 0, time.UTC)
	SetClock(clockwork.NewFakeClockAt(fixed))
	defer SetClock(nil)

	assert.Equal(t, fixed, Now())
	assert.Equal(t, "2021-03-04", Today().String())
}
