package scroll

import (
	"github.com/couchcryptid/pandemic-scrollmap/internal/domain"
)

// Marker is a scene's tick on the vertical progress indicator. Position is
// the tick's authored offset along the indicator in [0, 1]. Crossed turns on
// when the scene is entered and stays on.
type Marker struct {
	Date     domain.Date
	Position float64
	Crossed  bool
}

// MarkerState is the indicator layout, one Marker per scene in script order.
// A nil MarkerState means the layout is unavailable.
type MarkerState []Marker

// EvenMarkers lays scenes out at equal spacing, matching a script whose steps
// all have the same height.
func EvenMarkers(scenes []domain.Scene) MarkerState {
	markers := make(MarkerState, len(scenes))
	for i, s := range scenes {
		pos := 0.0
		if len(scenes) > 1 {
			pos = float64(i) / float64(len(scenes)-1)
		}
		markers[i] = Marker{Date: s.Date, Position: pos}
	}
	return markers
}

// ComputeProgressFraction places date d on the progress indicator.
//
// When a crossed marker dated on or before d exists, the latest such marker
// anchors the result: d is interpolated between that marker's position and
// the next marker's (or the end of the indicator at hi when it is the last).
// Without one, the fraction is plain date arithmetic over [lo, hi]. The
// result is always in [0, 1].
func ComputeProgressFraction(d domain.Date, markers MarkerState, lo, hi domain.Date) float64 {
	anchor := -1
	for i, m := range markers {
		if m.Crossed && m.Date <= d && (anchor < 0 || m.Date >= markers[anchor].Date) {
			anchor = i
		}
	}
	if anchor < 0 {
		return dateFraction(d, lo, hi)
	}

	from := markers[anchor]
	toPos, toDate := 1.0, hi
	if anchor+1 < len(markers) {
		toPos, toDate = markers[anchor+1].Position, markers[anchor+1].Date
	}
	span := toDate.DaysSince(from.Date)
	if span <= 0 {
		return clamp01(from.Position)
	}
	t := clamp01(float64(d.DaysSince(from.Date)) / float64(span))
	return clamp01(from.Position + (toPos-from.Position)*t)
}

func dateFraction(d, lo, hi domain.Date) float64 {
	span := hi.DaysSince(lo)
	if span <= 0 {
		return 0
	}
	return clamp01(float64(d.DaysSince(lo)) / float64(span))
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
