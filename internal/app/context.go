// Package app wires the temporal map core into one explicit application
// context. The context is built once after every startup input has loaded and
// hands out per-viewer sessions that share its immutable index.
package app

import (
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"github.com/couchcryptid/pandemic-scrollmap/internal/dateindex"
	"github.com/couchcryptid/pandemic-scrollmap/internal/domain"
	"github.com/couchcryptid/pandemic-scrollmap/internal/interp"
	"github.com/couchcryptid/pandemic-scrollmap/internal/observability"
	"github.com/couchcryptid/pandemic-scrollmap/internal/render"
	"github.com/couchcryptid/pandemic-scrollmap/internal/scroll"
	"github.com/jonboulle/clockwork"
)

// Inputs are the decoded startup files.
type Inputs struct {
	Dataset  domain.Dataset
	Features []render.Feature
	Scenes   []domain.Scene
	Events   []domain.TimelineEvent
}

// Options tune the sessions a Context creates.
type Options struct {
	Render          render.Config
	Codes           render.CodeTable
	CounterDuration time.Duration
	EventWindowDays int
	FillCacheSize   int
}

// SessionListeners builds scroll listeners bound to one session id.
type SessionListeners interface {
	ForSession(sessionID string) scroll.Listener
}

// Context is the application context. Everything it holds is read-only after
// New returns, so it is safe to share across goroutines.
type Context struct {
	index    *dateindex.Index
	events   *dateindex.EventLog
	interp   *interp.Interpolator
	scenes   []domain.Scene
	features []render.Feature
	cache    *render.FillCache
	opts     Options

	hooks   []SessionListeners
	clock   clockwork.Clock
	logger  *slog.Logger
	metrics *observability.Metrics
}

// New builds the index and interpolator from in. A malformed dataset is
// returned as a *domain.DataShapeError.
func New(in Inputs, opts Options, clock clockwork.Clock, logger *slog.Logger, metrics *observability.Metrics, hooks ...SessionListeners) (*Context, error) {
	if len(in.Scenes) == 0 {
		return nil, errors.New("app: scene script is empty")
	}
	if len(in.Features) == 0 {
		return nil, errors.New("app: topology has no features")
	}
	if opts.Codes == nil {
		opts.Codes = render.NewISOTable(nil)
	}

	idx, err := dateindex.Build(in.Dataset.CountryRecords(), in.Dataset.Global)
	if err != nil {
		return nil, fmt.Errorf("build date index: %w", err)
	}
	lo, hi := idx.Range()

	if !sort.SliceIsSorted(in.Scenes, func(i, j int) bool { return in.Scenes[i].Date < in.Scenes[j].Date }) {
		logger.Warn("scene script is not in date order")
	}
	for i, s := range in.Scenes {
		if s.Date < lo || s.Date > hi {
			logger.Warn("scene dated outside dataset range", "scene_index", i, "date", s.Date.String(),
				"range_start", lo.String(), "range_end", hi.String())
		}
	}

	metrics.DatasetDates.Set(float64(len(idx.Dates())))
	logger.Info("application context ready",
		"countries", len(in.Dataset.Countries),
		"dates", len(idx.Dates()),
		"range_start", lo.String(),
		"range_end", hi.String(),
		"scenes", len(in.Scenes),
		"events", len(in.Events),
		"features", len(in.Features),
	)

	return &Context{
		index:    idx,
		events:   dateindex.NewEventLog(in.Events),
		interp:   interp.New(in.Scenes, lo, hi),
		scenes:   in.Scenes,
		features: in.Features,
		cache:    render.NewFillCache(opts.FillCacheSize),
		opts:     opts,
		hooks:    hooks,
		clock:    clock,
		logger:   logger,
		metrics:  metrics,
	}, nil
}

// Index returns the shared date index.
func (c *Context) Index() *dateindex.Index { return c.index }

// Events returns the timeline event log.
func (c *Context) Events() *dateindex.EventLog { return c.events }

// Scenes returns the scene script.
func (c *Context) Scenes() []domain.Scene { return c.scenes }

// Range returns the dataset's first and last indexed dates.
func (c *Context) Range() (lo, hi domain.Date) { return c.index.Range() }

// Clock returns the clock every session reads.
func (c *Context) Clock() clockwork.Clock { return c.clock }
