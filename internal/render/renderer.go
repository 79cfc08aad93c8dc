package render

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/couchcryptid/pandemic-scrollmap/internal/domain"
	"github.com/couchcryptid/pandemic-scrollmap/internal/observability"
	"github.com/jonboulle/clockwork"
)

// Mode selects which metric colours the map.
type Mode struct {
	ShowVaccinations bool
}

// Config holds the renderer's viewport, palette and transition settings.
type Config struct {
	Width   float64
	Height  float64
	Padding float64

	TransitionDuration time.Duration

	CaseDomain        [2]float64 // cases per million, log scale
	CaseColors        [2]string
	VaccinationDomain [2]float64 // percent fully vaccinated, linear scale
	VaccinationColors [2]string

	LandColor     string
	NoDataColor   string
	NoDataOpacity float64
	StrokeColor   string
	StrokeWidth   float64
}

// DefaultConfig returns the palette and timings used by the dashboard.
func DefaultConfig() Config {
	return Config{
		Width:              960,
		Height:             500,
		Padding:            10,
		TransitionDuration: 750 * time.Millisecond,
		CaseDomain:         [2]float64{1, 100_000},
		CaseColors:         [2]string{"#fee8c8", "#b30000"},
		VaccinationDomain:  [2]float64{0, 100},
		VaccinationColors:  [2]string{"#e5f5e0", "#00441b"},
		LandColor:          "#e6e2d6",
		NoDataColor:        "#cccccc",
		NoDataOpacity:      0.3,
		StrokeColor:        "#ffffff",
		StrokeWidth:        0.5,
	}
}

// PolygonFill is one region's paint state at a point in time.
type PolygonFill struct {
	ID      int     `json:"id"`
	Code    string  `json:"code,omitempty"`
	Color   string  `json:"color"`
	Opacity float64 `json:"opacity"`
}

type transition struct {
	from, to Fill
	start    time.Time
}

type polygon struct {
	feature    *Feature
	path       string
	fill       Fill // settled fill; the transition target while one is pending
	transition *transition
}

// GeoRenderer owns the projection, the polygon set and both metric colour
// scales for one viewer. Transitions are state sampled against the clock at
// read time, so painting never schedules work.
type GeoRenderer struct {
	cfg     Config
	clock   clockwork.Clock
	codes   CodeTable
	cache   *FillCache
	logger  *slog.Logger
	metrics *observability.Metrics

	cases        *ColorScale
	vaccinations *ColorScale
	land         Fill
	noData       Fill
	stroke       string

	width, height float64
	projection    Projection
	features      []Feature
	polygons      []polygon
}

// NewGeoRenderer builds the colour scales from cfg. cache may be nil.
func NewGeoRenderer(cfg Config, codes CodeTable, cache *FillCache, clock clockwork.Clock, logger *slog.Logger, metrics *observability.Metrics) (*GeoRenderer, error) {
	caseLow, err := ParseColor(cfg.CaseColors[0])
	if err != nil {
		return nil, err
	}
	caseHigh, err := ParseColor(cfg.CaseColors[1])
	if err != nil {
		return nil, err
	}
	vaxLow, err := ParseColor(cfg.VaccinationColors[0])
	if err != nil {
		return nil, err
	}
	vaxHigh, err := ParseColor(cfg.VaccinationColors[1])
	if err != nil {
		return nil, err
	}
	cases, err := NewColorScale(ScaleLog, cfg.CaseDomain[0], cfg.CaseDomain[1], caseLow, caseHigh)
	if err != nil {
		return nil, fmt.Errorf("case scale: %w", err)
	}
	vaccinations, err := NewColorScale(ScaleLinear, cfg.VaccinationDomain[0], cfg.VaccinationDomain[1], vaxLow, vaxHigh)
	if err != nil {
		return nil, fmt.Errorf("vaccination scale: %w", err)
	}
	land, err := ParseColor(cfg.LandColor)
	if err != nil {
		return nil, err
	}
	noData, err := ParseColor(cfg.NoDataColor)
	if err != nil {
		return nil, err
	}

	return &GeoRenderer{
		cfg:          cfg,
		clock:        clock,
		codes:        codes,
		cache:        cache,
		logger:       logger,
		metrics:      metrics,
		cases:        cases,
		vaccinations: vaccinations,
		land:         Fill{Color: land, Opacity: 1},
		noData:       Fill{Color: noData, Opacity: cfg.NoDataOpacity},
		stroke:       cfg.StrokeColor,
		width:        cfg.Width,
		height:       cfg.Height,
	}, nil
}

// Init converts the features into drawable polygons at the current viewport
// size. Every polygon starts in the "no data" state. Unmapped ids are logged
// and counted, never rejected.
func (r *GeoRenderer) Init(features []Feature) {
	r.features = features
	r.polygons = make([]polygon, len(features))
	r.projection = FitProjection(features, r.width, r.height, r.cfg.Padding)

	var unmapped []int
	for i := range features {
		f := &features[i]
		r.polygons[i] = polygon{feature: f, path: buildPath(r.projection, f), fill: r.noData}
		if _, ok := r.codes.Lookup(f.ID); !ok {
			unmapped = append(unmapped, f.ID)
		}
	}

	r.metrics.UnmappedPolygons.Set(float64(len(unmapped)))
	if len(unmapped) > 0 {
		r.logger.Debug("topology ids without country code", "ids", unmapped)
	}
	r.logger.Info("map initialised",
		"polygons", len(features),
		"unmapped", len(unmapped),
		"width", r.width,
		"height", r.height,
	)
}

// FillFor applies the colour rule for one country code.
//
// No snapshot entry renders "no data". With vaccinations shown and any fully
// vaccinated count recorded, the linear vaccination scale colours the share of
// the population fully vaccinated. Otherwise the log case-rate scale colours
// cases per million, except that exactly zero renders as plain land.
func (r *GeoRenderer) FillFor(code string, snap domain.Snapshot, mode Mode) Fill {
	c, ok := snap.Get(code)
	if code == "" || !ok {
		return r.noData
	}
	if mode.ShowVaccinations && c.PeopleFullyVaccinated > 0 {
		return Fill{Color: r.vaccinations.Color(c.FullyVaccinatedPercent()), Opacity: 1}
	}
	if c.CasesPerMillion == 0 {
		return r.land
	}
	return Fill{Color: r.cases.Color(c.CasesPerMillion), Opacity: 1}
}

// PaintDiscrete starts an eased transition on every polygon whose fill
// changes, from whatever is on screen now toward the snapshot's colour. Used
// on scene entry.
func (r *GeoRenderer) PaintDiscrete(snap domain.Snapshot, mode Mode) {
	start := r.clock.Now()
	defer r.observe("discrete", start)

	targets := r.targets(snap, mode)
	for i := range r.polygons {
		p := &r.polygons[i]
		current := r.sample(p, start)
		p.fill = targets[i]
		if current == targets[i] || r.cfg.TransitionDuration <= 0 {
			p.transition = nil
			continue
		}
		p.transition = &transition{from: current, to: targets[i], start: start}
	}
}

// PaintInstant sets every polygon straight to the snapshot's colour and drops
// any pending transition. Calling it repeatedly with the same input leaves
// identical state and schedules nothing.
func (r *GeoRenderer) PaintInstant(snap domain.Snapshot, mode Mode) {
	start := r.clock.Now()
	defer r.observe("instant", start)

	targets := r.targets(snap, mode)
	for i := range r.polygons {
		r.polygons[i].fill = targets[i]
		r.polygons[i].transition = nil
	}
}

// Resize refits the projection to a new viewport and rebuilds the polygon
// paths. Fill and transition state are untouched. Non-positive sizes are
// ignored.
func (r *GeoRenderer) Resize(width, height float64) {
	if width <= 0 || height <= 0 {
		r.logger.Debug("ignoring resize to empty viewport", "width", width, "height", height)
		return
	}
	r.width, r.height = width, height
	r.projection = FitProjection(r.features, width, height, r.cfg.Padding)
	for i := range r.polygons {
		r.polygons[i].path = buildPath(r.projection, r.polygons[i].feature)
	}
}

// Fills samples every polygon's paint state at the current clock time.
func (r *GeoRenderer) Fills() []PolygonFill {
	now := r.clock.Now()
	out := make([]PolygonFill, len(r.polygons))
	for i := range r.polygons {
		p := &r.polygons[i]
		f := r.sample(p, now)
		code, _ := r.codes.Lookup(p.feature.ID)
		out[i] = PolygonFill{ID: p.feature.ID, Code: code, Color: f.Hex(), Opacity: round3(f.Opacity)}
	}
	return out
}

// PendingTransitions counts polygons still mid-transition.
func (r *GeoRenderer) PendingTransitions() int {
	now := r.clock.Now()
	n := 0
	for i := range r.polygons {
		if t := r.polygons[i].transition; t != nil && now.Sub(t.start) < r.cfg.TransitionDuration {
			n++
		}
	}
	return n
}

// Size returns the current viewport.
func (r *GeoRenderer) Size() (width, height float64) { return r.width, r.height }

// targets computes the destination fill of every polygon, in feature order.
// Codes are looked up per polygon on every call.
func (r *GeoRenderer) targets(snap domain.Snapshot, mode Mode) []Fill {
	key := fillKey{date: snap.Date, mode: mode}
	cacheable := snap.Len() > 0
	if cacheable {
		if fills, ok := r.cache.get(key); ok && len(fills) == len(r.polygons) {
			r.metrics.FillCache.WithLabelValues("hit").Inc()
			return fills
		}
	}

	fills := make([]Fill, len(r.polygons))
	for i := range r.polygons {
		code, _ := r.codes.Lookup(r.polygons[i].feature.ID)
		fills[i] = r.FillFor(code, snap, mode)
	}
	if cacheable && r.cache != nil {
		r.metrics.FillCache.WithLabelValues("miss").Inc()
		r.cache.put(key, fills)
	}
	return fills
}

// sample returns the fill on screen at now, settling finished transitions.
func (r *GeoRenderer) sample(p *polygon, now time.Time) Fill {
	t := p.transition
	if t == nil {
		return p.fill
	}
	elapsed := now.Sub(t.start)
	if elapsed >= r.cfg.TransitionDuration {
		p.transition = nil
		return p.fill
	}
	progress := float64(elapsed) / float64(r.cfg.TransitionDuration)
	return lerpFill(t.from, t.to, easeCubicInOut(progress))
}

func (r *GeoRenderer) observe(mode string, start time.Time) {
	r.metrics.PaintDuration.WithLabelValues(mode).Observe(r.clock.Since(start).Seconds())
}

func round3(v float64) float64 {
	return float64(int64(v*1000+0.5)) / 1000
}
