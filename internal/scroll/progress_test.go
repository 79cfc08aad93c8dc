package scroll

import (
	"testing"

	"github.com/couchcryptid/pandemic-scrollmap/internal/domain"
	"github.com/stretchr/testify/assert"
)

func threeMarkers() MarkerState {
	return MarkerState{
		{Date: domain.MustParseDate("2020-01-01"), Position: 0},
		{Date: domain.MustParseDate("2020-02-01"), Position: 0.2},
		{Date: domain.MustParseDate("2020-03-01"), Position: 0.8},
	}
}

func TestComputeProgressFraction_ArithmeticFallback(t *testing.T) {
	lo := domain.MustParseDate("2020-01-01")
	hi := lo.AddDays(100)

	assert.InDelta(t, 0.0, ComputeProgressFraction(lo, nil, lo, hi), 1e-9)
	assert.InDelta(t, 0.25, ComputeProgressFraction(lo.AddDays(25), nil, lo, hi), 1e-9)
	assert.InDelta(t, 1.0, ComputeProgressFraction(hi, nil, lo, hi), 1e-9)
}

func TestComputeProgressFraction_NoCrossedMarkerFallsBack(t *testing.T) {
	lo := domain.MustParseDate("2020-01-01")
	hi := lo.AddDays(100)

	got := ComputeProgressFraction(lo.AddDays(50), threeMarkers(), lo, hi)
	assert.InDelta(t, 0.5, got, 1e-9)
}

func TestComputeProgressFraction_AnchorsOnLatestCrossedMarker(t *testing.T) {
	lo := domain.MustParseDate("2020-01-01")
	hi := domain.MustParseDate("2020-04-01")
	markers := threeMarkers()
	markers[0].Crossed = true
	markers[1].Crossed = true

	// On the marker date itself.
	assert.InDelta(t, 0.2, ComputeProgressFraction(markers[1].Date, markers, lo, hi), 1e-9)

	// Feb 1 to Mar 1 is 29 days in 2020.
	mid := markers[1].Date.AddDays(15)
	want := 0.2 + 0.6*15.0/29.0
	assert.InDelta(t, want, ComputeProgressFraction(mid, markers, lo, hi), 1e-9)
}

func TestComputeProgressFraction_LastMarkerRunsToEnd(t *testing.T) {
	lo := domain.MustParseDate("2020-01-01")
	hi := domain.MustParseDate("2020-03-11")
	markers := threeMarkers()
	markers[2].Crossed = true

	got := ComputeProgressFraction(domain.MustParseDate("2020-03-06"), markers, lo, hi)
	assert.InDelta(t, 0.9, got, 1e-9)
	assert.InDelta(t, 1.0, ComputeProgressFraction(hi.AddDays(30), markers, lo, hi), 1e-9)
}

func TestComputeProgressFraction_AlwaysInUnitInterval(t *testing.T) {
	lo := domain.MustParseDate("2020-01-01")
	hi := domain.MustParseDate("2020-03-01")
	markers := threeMarkers()
	markers[0].Crossed = true

	for d := lo.AddDays(-40); d <= hi.AddDays(40); d = d.AddDays(3) {
		f := ComputeProgressFraction(d, markers, lo, hi)
		assert.GreaterOrEqual(t, f, 0.0)
		assert.LessOrEqual(t, f, 1.0)
		f = ComputeProgressFraction(d, nil, lo, hi)
		assert.GreaterOrEqual(t, f, 0.0)
		assert.LessOrEqual(t, f, 1.0)
	}
}

func TestComputeProgressFraction_EmptyRange(t *testing.T) {
	d := domain.MustParseDate("2020-01-01")
	assert.Equal(t, 0.0, ComputeProgressFraction(d, nil, d, d))
}

func TestEvenMarkers(t *testing.T) {
	scenes := []domain.Scene{
		{Date: domain.MustParseDate("2020-01-01")},
		{Date: domain.MustParseDate("2020-02-01")},
		{Date: domain.MustParseDate("2020-03-01")},
	}
	markers := EvenMarkers(scenes)

	assert.Len(t, markers, 3)
	assert.InDelta(t, 0.0, markers[0].Position, 1e-9)
	assert.InDelta(t, 0.5, markers[1].Position, 1e-9)
	assert.InDelta(t, 1.0, markers[2].Position, 1e-9)
	assert.Equal(t, scenes[1].Date, markers[1].Date)

	single := EvenMarkers(scenes[:1])
	assert.Equal(t, 0.0, single[0].Position)
}
