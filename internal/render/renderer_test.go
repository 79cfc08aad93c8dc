package render

import (
	"bytes"
	"io"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/couchcryptid/pandemic-scrollmap/internal/domain"
	"github.com/couchcryptid/pandemic-scrollmap/internal/observability"
	"github.com/jonboulle/clockwork"
	"github.com/paulmach/orb"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testDate = domain.MustParseDate("2021-06-01")

func square(lon, lat, size float64) orb.Polygon {
	return orb.Polygon{orb.Ring{
		{lon, lat}, {lon + size, lat}, {lon + size, lat + size}, {lon, lat + size}, {lon, lat},
	}}
}

func testFeatures() []Feature {
	return []Feature{
		{ID: 840, Name: "United States", Polygons: []orb.Polygon{square(-100, 30, 20)}},
		{ID: 380, Name: "Italy", Polygons: []orb.Polygon{square(10, 40, 5)}},
		{ID: 724, Name: "Spain", Polygons: []orb.Polygon{square(-5, 38, 5)}},
		{ID: 999, Name: "Nowhere", Polygons: []orb.Polygon{square(60, -20, 5)}},
	}
}

func testCodes() MapTable {
	return MapTable{840: "USA", 380: "ITA", 724: "ESP"}
}

func testSnapshot() domain.Snapshot {
	return domain.Snapshot{
		Date: testDate,
		Countries: map[string]domain.CountrySnapshot{
			"USA": {Code: "USA", Population: 1_000_000, DailyPoint: domain.DailyPoint{
				CasesPerMillion: 50_000, PeopleFullyVaccinated: 400_000,
			}},
			"ITA": {Code: "ITA", Population: 1_000_000, DailyPoint: domain.DailyPoint{
				CasesPerMillion: 0,
			}},
		},
	}
}

func newTestRenderer(t *testing.T, clock clockwork.Clock, cache *FillCache) *GeoRenderer {
	t.Helper()
	r, err := NewGeoRenderer(DefaultConfig(), testCodes(), cache, clock,
		slog.New(slog.NewTextHandler(io.Discard, nil)), observability.NewMetricsForTesting())
	require.NoError(t, err)
	r.Init(testFeatures())
	return r
}

func fillByID(fills []PolygonFill) map[int]PolygonFill {
	out := make(map[int]PolygonFill, len(fills))
	for _, f := range fills {
		out[f.ID] = f
	}
	return out
}

func TestInit_StartsAsNoData(t *testing.T) {
	r := newTestRenderer(t, clockwork.NewFakeClock(), nil)

	for _, f := range r.Fills() {
		assert.Equal(t, "#cccccc", f.Color)
		assert.Equal(t, 0.3, f.Opacity)
	}
}

func TestPaintInstant_ColourRule(t *testing.T) {
	r := newTestRenderer(t, clockwork.NewFakeClock(), nil)

	r.PaintInstant(testSnapshot(), Mode{})
	fills := fillByID(r.Fills())

	usa := fills[840]
	assert.Equal(t, "USA", usa.Code)
	assert.Equal(t, hexColor(r.cases.Color(50_000)), usa.Color)
	assert.Equal(t, 1.0, usa.Opacity)

	assert.Equal(t, "#e6e2d6", fills[380].Color, "zero cases renders as land")
	assert.Equal(t, 1.0, fills[380].Opacity)

	assert.Equal(t, "#cccccc", fills[724].Color, "mapped but absent from snapshot")
	assert.Equal(t, 0.3, fills[724].Opacity)
}

func TestPaintInstant_VaccinationMode(t *testing.T) {
	r := newTestRenderer(t, clockwork.NewFakeClock(), nil)

	r.PaintInstant(testSnapshot(), Mode{ShowVaccinations: true})
	fills := fillByID(r.Fills())

	assert.Equal(t, hexColor(r.vaccinations.Color(40)), fills[840].Color)
	// Italy has no fully vaccinated count, so it falls back to the case rule.
	assert.Equal(t, "#e6e2d6", fills[380].Color)
}

func TestPaintInstant_UnmappedIDPaintsNoData(t *testing.T) {
	r := newTestRenderer(t, clockwork.NewFakeClock(), nil)

	require.NotPanics(t, func() { r.PaintInstant(testSnapshot(), Mode{}) })
	fill := fillByID(r.Fills())[999]
	assert.Empty(t, fill.Code)
	assert.Equal(t, "#cccccc", fill.Color)
	assert.Equal(t, 0.3, fill.Opacity)
}

func TestPaintInstant_Idempotent(t *testing.T) {
	r := newTestRenderer(t, clockwork.NewFakeClock(), nil)

	r.PaintInstant(testSnapshot(), Mode{})
	first := append([]polygon(nil), r.polygons...)
	firstFills := r.Fills()

	r.PaintInstant(testSnapshot(), Mode{})
	assert.Equal(t, firstFills, r.Fills())
	for i := range r.polygons {
		assert.Equal(t, first[i].fill, r.polygons[i].fill)
		assert.Nil(t, r.polygons[i].transition)
	}
	assert.Zero(t, r.PendingTransitions())
}

func TestPaintDiscrete_TransitionsOverDuration(t *testing.T) {
	clock := clockwork.NewFakeClock()
	r := newTestRenderer(t, clock, nil)

	r.PaintDiscrete(testSnapshot(), Mode{})
	// USA and ITA change; ESP and the unmapped polygon stay "no data".
	assert.Equal(t, 2, r.PendingTransitions())

	start := fillByID(r.Fills())[840]
	assert.Equal(t, "#cccccc", start.Color)

	clock.Advance(375 * time.Millisecond)
	mid := fillByID(r.Fills())[840]
	assert.NotEqual(t, "#cccccc", mid.Color)
	assert.Greater(t, mid.Opacity, 0.3)
	assert.Less(t, mid.Opacity, 1.0)

	clock.Advance(375 * time.Millisecond)
	assert.Zero(t, r.PendingTransitions())
	assert.Equal(t, hexColor(r.cases.Color(50_000)), fillByID(r.Fills())[840].Color)
}

func TestPaintInstant_CancelsPendingTransitions(t *testing.T) {
	clock := clockwork.NewFakeClock()
	r := newTestRenderer(t, clock, nil)

	r.PaintDiscrete(testSnapshot(), Mode{})
	clock.Advance(100 * time.Millisecond)

	for i := 0; i < 60; i++ {
		r.PaintInstant(testSnapshot(), Mode{ShowVaccinations: i%2 == 0})
	}
	assert.Zero(t, r.PendingTransitions())
}

func TestPaintDiscrete_ResumesFromOnScreenFill(t *testing.T) {
	clock := clockwork.NewFakeClock()
	r := newTestRenderer(t, clock, nil)

	r.PaintDiscrete(testSnapshot(), Mode{})
	clock.Advance(375 * time.Millisecond)
	onScreen := r.sample(&r.polygons[0], clock.Now())

	r.PaintDiscrete(testSnapshot(), Mode{ShowVaccinations: true})
	require.NotNil(t, r.polygons[0].transition)
	assert.Equal(t, onScreen, r.polygons[0].transition.from)
}

func TestResize_KeepsFillsChangesGeometry(t *testing.T) {
	r := newTestRenderer(t, clockwork.NewFakeClock(), nil)
	r.PaintInstant(testSnapshot(), Mode{})

	beforeFills := r.Fills()
	beforePath := r.polygons[0].path

	r.Resize(480, 250)

	assert.Equal(t, beforeFills, r.Fills())
	assert.NotEqual(t, beforePath, r.polygons[0].path)
	w, h := r.Size()
	assert.Equal(t, 480.0, w)
	assert.Equal(t, 250.0, h)
}

func TestResize_IgnoresEmptyViewport(t *testing.T) {
	r := newTestRenderer(t, clockwork.NewFakeClock(), nil)
	before := r.polygons[0].path

	r.Resize(0, 100)

	assert.Equal(t, before, r.polygons[0].path)
}

func TestFillCache_SharedAcrossRenderers(t *testing.T) {
	cache := NewFillCache(8)
	clock := clockwork.NewFakeClock()

	a := newTestRenderer(t, clock, cache)
	b := newTestRenderer(t, clock, cache)

	a.PaintInstant(testSnapshot(), Mode{})
	assert.Equal(t, 1, cache.Len())

	b.PaintInstant(testSnapshot(), Mode{})
	assert.Equal(t, 1, cache.Len())
	assert.Equal(t, a.Fills(), b.Fills())

	// Empty snapshots are never cached.
	a.PaintInstant(domain.Snapshot{Date: testDate}, Mode{})
	assert.Equal(t, 1, cache.Len())
}

func TestWriteSVG(t *testing.T) {
	r := newTestRenderer(t, clockwork.NewFakeClock(), nil)
	r.PaintInstant(testSnapshot(), Mode{})

	var buf bytes.Buffer
	require.NoError(t, r.WriteSVG(&buf))
	svg := buf.String()

	assert.True(t, strings.HasPrefix(svg, "<svg"))
	assert.True(t, strings.HasSuffix(svg, "</svg>"))
	assert.Equal(t, 4, strings.Count(svg, "<path "))
	assert.Contains(t, svg, `data-code="USA"`)
	assert.Contains(t, svg, `data-id="999"`)
	assert.Contains(t, svg, `fill="#e6e2d6"`)
}

func TestFitProjection_StaysInViewport(t *testing.T) {
	features := testFeatures()
	proj := FitProjection(features, 960, 500, 10)

	for _, f := range features {
		for _, ring := range f.Polygons[0] {
			for _, pt := range ring {
				x, y := proj.Project(pt[0], pt[1])
				assert.GreaterOrEqual(t, x, 9.9)
				assert.LessOrEqual(t, x, 950.1)
				assert.GreaterOrEqual(t, y, 9.9)
				assert.LessOrEqual(t, y, 490.1)
			}
		}
	}

	// North is up.
	_, yNorth := proj.Project(0, 50)
	_, ySouth := proj.Project(0, 0)
	assert.Less(t, yNorth, ySouth)
}
