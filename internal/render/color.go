package render

import (
	"fmt"
	"math"
	"strings"

	"github.com/wcharczuk/go-chart/v2/drawing"
)

// Fill is a polygon's paint state.
type Fill struct {
	Color   drawing.Color
	Opacity float64
}

// Hex formats the fill colour as #rrggbb.
func (f Fill) Hex() string { return hexColor(f.Color) }

// ParseColor reads "#rrggbb" or "rrggbb".
func ParseColor(s string) (drawing.Color, error) {
	hex := strings.TrimPrefix(strings.TrimSpace(s), "#")
	if len(hex) != 6 {
		return drawing.Color{}, fmt.Errorf("parse color %q: want 6 hex digits", s)
	}
	for _, r := range hex {
		if !strings.ContainsRune("0123456789abcdefABCDEF", r) {
			return drawing.Color{}, fmt.Errorf("parse color %q: invalid hex digit %q", s, r)
		}
	}
	return drawing.ColorFromHex(hex), nil
}

func mustColor(s string) drawing.Color {
	c, err := ParseColor(s)
	if err != nil {
		panic(err)
	}
	return c
}

func hexColor(c drawing.Color) string {
	return fmt.Sprintf("#%02x%02x%02x", c.R, c.G, c.B)
}

// lerpColor blends two colours channel by channel in RGB space.
func lerpColor(a, b drawing.Color, t float64) drawing.Color {
	return drawing.Color{
		R: lerpChannel(a.R, b.R, t),
		G: lerpChannel(a.G, b.G, t),
		B: lerpChannel(a.B, b.B, t),
		A: lerpChannel(a.A, b.A, t),
	}
}

func lerpChannel(a, b uint8, t float64) uint8 {
	v := float64(a) + (float64(b)-float64(a))*t
	return uint8(math.Round(math.Max(0, math.Min(255, v))))
}

func lerpFill(a, b Fill, t float64) Fill {
	return Fill{
		Color:   lerpColor(a.Color, b.Color, t),
		Opacity: a.Opacity + (b.Opacity-a.Opacity)*t,
	}
}

// easeCubicInOut is the default transition curve. It is monotonic on [0, 1]
// and never overshoots.
func easeCubicInOut(t float64) float64 {
	switch {
	case t <= 0:
		return 0
	case t >= 1:
		return 1
	case t < 0.5:
		return 4 * t * t * t
	}
	u := -2*t + 2
	return 1 - u*u*u/2
}
