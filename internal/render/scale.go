package render

import (
	"fmt"
	"math"

	"github.com/wcharczuk/go-chart/v2/drawing"
)

// ScaleKind selects how a ColorScale maps its domain.
type ScaleKind int

const (
	ScaleLinear ScaleKind = iota
	ScaleLog
)

func (k ScaleKind) String() string {
	if k == ScaleLog {
		return "log"
	}
	return "linear"
}

// ColorScale maps a metric onto a two-colour gradient. It is always clamped:
// values outside the domain take the boundary colour.
type ColorScale struct {
	kind     ScaleKind
	min, max float64
	low      drawing.Color
	high     drawing.Color
}

// NewColorScale validates the domain for the kind. A log scale needs a
// strictly positive domain.
func NewColorScale(kind ScaleKind, min, max float64, low, high drawing.Color) (*ColorScale, error) {
	if !(min < max) {
		return nil, fmt.Errorf("color scale: domain [%g, %g] is empty", min, max)
	}
	if kind == ScaleLog && min <= 0 {
		return nil, fmt.Errorf("color scale: log domain must be positive, got [%g, %g]", min, max)
	}
	return &ColorScale{kind: kind, min: min, max: max, low: low, high: high}, nil
}

// Position returns where x falls along the gradient, in [0, 1]. It is
// non-decreasing in x. NaN and, for log scales, non-positive inputs map to 0.
func (s *ColorScale) Position(x float64) float64 {
	if math.IsNaN(x) {
		return 0
	}
	var t float64
	switch s.kind {
	case ScaleLog:
		if x <= 0 {
			return 0
		}
		t = (math.Log(x) - math.Log(s.min)) / (math.Log(s.max) - math.Log(s.min))
	default:
		t = (x - s.min) / (s.max - s.min)
	}
	return math.Max(0, math.Min(1, t))
}

// Color returns the gradient colour for x.
func (s *ColorScale) Color(x float64) drawing.Color {
	return lerpColor(s.low, s.high, s.Position(x))
}

// Kind reports the scale's mapping.
func (s *ColorScale) Kind() ScaleKind { return s.kind }

// Domain returns the clamped input bounds.
func (s *ColorScale) Domain() (min, max float64) { return s.min, s.max }
