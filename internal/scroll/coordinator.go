// Package scroll turns scroll-library step callbacks into map, counter and
// narrative updates. The Coordinator is a small state machine over scene
// indices; it knows nothing about how scrolling is detected.
package scroll

import (
	"errors"
	"log/slog"
	"time"

	"github.com/couchcryptid/pandemic-scrollmap/internal/dateindex"
	"github.com/couchcryptid/pandemic-scrollmap/internal/domain"
	"github.com/couchcryptid/pandemic-scrollmap/internal/interp"
	"github.com/couchcryptid/pandemic-scrollmap/internal/observability"
	"github.com/couchcryptid/pandemic-scrollmap/internal/render"
)

// Counter ids written by the coordinator.
const (
	CounterCases        = "cases"
	CounterDeaths       = "deaths"
	CounterVaccinations = "vaccinations"
)

// Painter recolours the map from a snapshot.
type Painter interface {
	PaintDiscrete(snap domain.Snapshot, mode render.Mode)
	PaintInstant(snap domain.Snapshot, mode render.Mode)
}

// Counters drives the statistic counters.
type Counters interface {
	AnimateTo(id string, target int64, duration time.Duration)
	SetInstant(id string, value int64)
}

// Deps are the collaborators a Coordinator drives.
type Deps struct {
	Index  *dateindex.Index
	Events *dateindex.EventLog
	Interp *interp.Interpolator

	Painter  Painter
	Counters Counters
	View     View

	CounterDuration time.Duration
	EventWindowDays int

	Logger  *slog.Logger
	Metrics *observability.Metrics
}

// Coordinator tracks the active scene and applies Enter, Progress and Exit
// transitions. It is not safe for concurrent use; one event stream drives it.
type Coordinator struct {
	deps      Deps
	scenes    []domain.Scene
	lo, hi    domain.Date
	current   int
	crossed   []bool
	listeners []Listener
}

// New validates deps and builds a Coordinator positioned at scene 0. Call
// Start to render the initial scene.
func New(deps Deps, listeners ...Listener) (*Coordinator, error) {
	switch {
	case deps.Index == nil:
		return nil, errors.New("scroll: date index is required")
	case deps.Interp == nil || deps.Interp.Len() == 0:
		return nil, errors.New("scroll: scene script is empty")
	case deps.Painter == nil || deps.Counters == nil || deps.View == nil:
		return nil, errors.New("scroll: painter, counters and view are required")
	}
	if deps.Logger == nil {
		deps.Logger = slog.Default()
	}
	if deps.Metrics == nil {
		deps.Metrics = observability.NewMetricsForTesting()
	}

	scenes := deps.Interp.Scenes()
	lo, hi := deps.Index.Range()
	return &Coordinator{
		deps:      deps,
		scenes:    scenes,
		lo:        lo,
		hi:        hi,
		crossed:   make([]bool, len(scenes)),
		listeners: listeners,
	}, nil
}

// Start enters scene 0 synchronously so the map is drawn before any scroll.
func (c *Coordinator) Start() {
	c.Enter(0, DirectionDown)
}

// Current returns the active scene index.
func (c *Coordinator) Current() int { return c.current }

// Scenes returns the script.
func (c *Coordinator) Scenes() []domain.Scene { return c.scenes }

// Enter makes scene i current: it swaps the narrative, paints the scene's
// date with a transition, tweens the counters toward the global totals on
// that date and moves the progress indicator. Out-of-range indices are
// ignored and reported as false.
func (c *Coordinator) Enter(i int, dir Direction) bool {
	if i < 0 || i >= len(c.scenes) {
		c.deps.Logger.Warn("enter for unknown scene", "scene_index", i, "scenes", len(c.scenes))
		return false
	}
	scene := c.scenes[i]
	c.current = i
	c.crossed[i] = true

	v := c.deps.View
	v.SetNarrative(scene.Title, scene.Narrative)
	v.SetSubtitle(scene.Subtitle)

	date := c.deps.Interp.Resolve(i, 0)
	_, snap := c.deps.Index.Closest(date)
	c.deps.Painter.PaintDiscrete(snap, render.Mode{ShowVaccinations: scene.ShowVaccinations})

	global := c.deps.Index.Global(scene.Date)
	c.deps.Counters.AnimateTo(CounterCases, global.TotalCases, c.deps.CounterDuration)
	c.deps.Counters.AnimateTo(CounterDeaths, global.TotalDeaths, c.deps.CounterDuration)
	c.deps.Counters.AnimateTo(CounterVaccinations, global.TotalVaccinations, c.deps.CounterDuration)

	v.SetDateLabel(date.Label())
	v.SetProgress(ComputeProgressFraction(scene.Date, c.markerState(), c.lo, c.hi))

	c.deps.Metrics.SceneEntries.Inc()
	c.deps.Logger.Debug("scene entered", "scene_index", i, "date", date.String(), "direction", string(dir))

	c.emit(Event{
		Kind:      EventEnter,
		Index:     i,
		Scene:     scene,
		Date:      date,
		Direction: dir,
		Timeline:  c.deps.Events.EventsAround(scene.Date, c.deps.EventWindowDays),
	})
	return true
}

// Progress applies continuous scroll progress p through scene i. The map and
// counters update with no transition so repeated calls never stack
// animations. The last scene has no segment to scroll through, so progress
// there is a no-op and returns false.
func (c *Coordinator) Progress(i int, p float64) bool {
	if i < 0 || i >= len(c.scenes)-1 {
		return false
	}
	p = interp.ClampProgress(p)

	date := c.deps.Interp.Resolve(i, p)
	_, snap := c.deps.Index.Closest(date)
	c.deps.Painter.PaintInstant(snap, render.Mode{ShowVaccinations: c.deps.Interp.ShowVaccinations(i)})

	global := c.deps.Index.GlobalClosest(date)
	c.deps.Counters.SetInstant(CounterCases, global.TotalCases)
	c.deps.Counters.SetInstant(CounterDeaths, global.TotalDeaths)
	c.deps.Counters.SetInstant(CounterVaccinations, global.TotalVaccinations)

	c.deps.View.SetDateLabel(date.Label())
	c.deps.View.SetProgress(ComputeProgressFraction(date, c.markerState(), c.lo, c.hi))

	c.deps.Metrics.ProgressEvents.Inc()
	c.emit(Event{Kind: EventProgress, Index: i, Scene: c.scenes[i], Date: date, Progress: p})
	return true
}

// Exit notifies listeners that scene i was left. It has no other effect.
func (c *Coordinator) Exit(i int, dir Direction) {
	if i < 0 || i >= len(c.scenes) {
		return
	}
	c.emit(Event{Kind: EventExit, Index: i, Scene: c.scenes[i], Date: c.scenes[i].Date, Direction: dir})
}

// Markers returns the current indicator layout, or nil when the view cannot
// report one.
func (c *Coordinator) Markers() MarkerState { return c.markerState() }

// markerState reads marker positions from the view and overlays the crossed
// flags.
func (c *Coordinator) markerState() MarkerState {
	layout, ok := c.deps.View.(MarkerLayout)
	if !ok {
		return nil
	}
	positions, ok := layout.MarkerPositions()
	if !ok || len(positions) != len(c.scenes) {
		return nil
	}
	markers := make(MarkerState, len(c.scenes))
	for i, s := range c.scenes {
		markers[i] = Marker{Date: s.Date, Position: positions[i], Crossed: c.crossed[i]}
	}
	return markers
}

func (c *Coordinator) emit(e Event) {
	for _, l := range c.listeners {
		l.HandleScrollEvent(e)
	}
}
