// Package chart renders the global cumulative totals as an SVG time series.
package chart

import (
	"errors"
	"fmt"
	"io"
	"math"

	gochart "github.com/wcharczuk/go-chart/v2"
	"github.com/wcharczuk/go-chart/v2/drawing"

	"github.com/couchcryptid/pandemic-scrollmap/internal/domain"
)

// ErrTooFewPoints is returned when fewer than two aggregates fall in range.
var ErrTooFewPoints = errors.New("chart: need at least two dates")

var (
	casesColor  = drawing.ColorFromHex("b30000")
	deathsColor = drawing.ColorFromHex("404040")
	vaxColor    = drawing.ColorFromHex("238b45")
)

// Options controls chart size and the plotted window.
type Options struct {
	Width, Height int
	// Until cuts the series at this date; zero plots everything.
	Until domain.Date
	// Vaccinations adds the cumulative doses series.
	Vaccinations bool
}

// WriteGlobalSVG renders cumulative cases and deaths from series, which must
// be date-ascending.
func WriteGlobalSVG(w io.Writer, series []domain.GlobalAggregate, opts Options) error {
	if opts.Until != 0 {
		cut := len(series)
		for cut > 0 && series[cut-1].Date > opts.Until {
			cut--
		}
		series = series[:cut]
	}
	if len(series) < 2 {
		return ErrTooFewPoints
	}

	cases := gochart.TimeSeries{Name: "Cases", Style: lineStyle(casesColor)}
	deaths := gochart.TimeSeries{Name: "Deaths", Style: lineStyle(deathsColor)}
	vax := gochart.TimeSeries{Name: "Vaccinations", Style: lineStyle(vaxColor)}
	for _, g := range series {
		t := g.Date.Time()
		cases.XValues = append(cases.XValues, t)
		cases.YValues = append(cases.YValues, float64(g.TotalCases))
		deaths.XValues = append(deaths.XValues, t)
		deaths.YValues = append(deaths.YValues, float64(g.TotalDeaths))
		vax.XValues = append(vax.XValues, t)
		vax.YValues = append(vax.YValues, float64(g.TotalVaccinations))
	}

	all := []gochart.Series{cases, deaths}
	if opts.Vaccinations {
		all = append(all, vax)
	}

	ch := gochart.Chart{
		Width:      opts.Width,
		Height:     opts.Height,
		Background: gochart.Style{Padding: gochart.Box{Top: 14, Left: 16, Right: 12, Bottom: 14}},
		XAxis:      gochart.XAxis{ValueFormatter: gochart.TimeValueFormatterWithFormat("Jan 2006")},
		YAxis:      gochart.YAxis{ValueFormatter: compact},
		Series:     all,
	}
	ch.Elements = []gochart.Renderable{gochart.Legend(&ch)}

	if err := ch.Render(gochart.SVG, w); err != nil {
		return fmt.Errorf("render global chart: %w", err)
	}
	return nil
}

func lineStyle(c drawing.Color) gochart.Style {
	return gochart.Style{
		StrokeColor: c,
		StrokeWidth: 2,
	}
}

// compact formats axis ticks as 1.2K, 3.4M, 5B.
func compact(v any) string {
	f, ok := v.(float64)
	if !ok {
		return fmt.Sprint(v)
	}
	abs := math.Abs(f)
	switch {
	case abs >= 1e9:
		return trimZero(f/1e9) + "B"
	case abs >= 1e6:
		return trimZero(f/1e6) + "M"
	case abs >= 1e3:
		return trimZero(f/1e3) + "K"
	}
	return trimZero(f)
}

func trimZero(f float64) string {
	if f == math.Trunc(f) {
		return fmt.Sprintf("%.0f", f)
	}
	return fmt.Sprintf("%.1f", f)
}
