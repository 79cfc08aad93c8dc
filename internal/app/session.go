package app

import (
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/couchcryptid/pandemic-scrollmap/internal/animate"
	"github.com/couchcryptid/pandemic-scrollmap/internal/domain"
	"github.com/couchcryptid/pandemic-scrollmap/internal/render"
	"github.com/couchcryptid/pandemic-scrollmap/internal/scroll"
)

// Session is one viewer's renderer, counters and scroll state. Methods are
// safe for concurrent use; calls are serialised.
type Session struct {
	ID string

	mu       sync.Mutex
	ctx      *Context
	view     *FrameView
	renderer *render.GeoRenderer
	counters *animate.Animator
	coord    *scroll.Coordinator
	lastSeen time.Time
}

// NewSession builds a session and renders scene 0 before returning.
func (c *Context) NewSession(id string) (*Session, error) {
	renderer, err := render.NewGeoRenderer(c.opts.Render, c.opts.Codes, c.cache, c.clock, c.logger, c.metrics)
	if err != nil {
		return nil, fmt.Errorf("create renderer: %w", err)
	}
	renderer.Init(c.features)

	view := NewFrameView(c.scenes)
	counters := animate.New(c.clock)

	listeners := []scroll.Listener{view}
	for _, h := range c.hooks {
		listeners = append(listeners, h.ForSession(id))
	}

	coord, err := scroll.New(scroll.Deps{
		Index:           c.index,
		Events:          c.events,
		Interp:          c.interp,
		Painter:         renderer,
		Counters:        counters,
		View:            view,
		CounterDuration: c.opts.CounterDuration,
		EventWindowDays: c.opts.EventWindowDays,
		Logger:          c.logger.With("session_id", id),
		Metrics:         c.metrics,
	}, listeners...)
	if err != nil {
		return nil, fmt.Errorf("create coordinator: %w", err)
	}

	s := &Session{
		ID:       id,
		ctx:      c,
		view:     view,
		renderer: renderer,
		counters: counters,
		coord:    coord,
		lastSeen: c.clock.Now(),
	}
	coord.Start()
	s.countTweens()
	return s, nil
}

// Enter applies a scene entry. ok is false for an unknown scene index.
func (s *Session) Enter(i int, dir scroll.Direction) (frame Frame, ok bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.touch()
	ok = s.coord.Enter(i, dir)
	s.countTweens()
	return s.frame(true), ok
}

// Progress applies scroll progress through scene i. Progress on the last
// scene is accepted and changes nothing.
func (s *Session) Progress(i int, p float64) Frame {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.touch()
	s.coord.Progress(i, p)
	return s.frame(true)
}

// Exit records leaving scene i.
func (s *Session) Exit(i int, dir scroll.Direction) Frame {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.touch()
	s.coord.Exit(i, dir)
	return s.frame(false)
}

// Resize refits the map to a new viewport.
func (s *Session) Resize(width, height float64) Frame {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.touch()
	s.renderer.Resize(width, height)
	return s.frame(true)
}

// SetMarkerPositions records where the page laid out the scene markers.
// An empty slice reverts to evenly spaced markers.
func (s *Session) SetMarkerPositions(positions []float64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.view.SetMarkerPositions(positions)
}

// Frame samples the current state. fills controls whether polygon fills are
// included.
func (s *Session) Frame(fills bool) Frame {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.frame(fills)
}

// Animating reports whether a map transition or counter tween is in flight.
func (s *Session) Animating() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.animating()
}

// WriteSVG writes the map at its current fills.
func (s *Session) WriteSVG(w io.Writer) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.renderer.WriteSVG(w)
}

// CurrentDate is the date last painted.
func (s *Session) CurrentDate() domain.Date {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.view.date
}

// LastSeen is when the session last received an event.
func (s *Session) LastSeen() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastSeen
}

func (s *Session) touch() { s.lastSeen = s.ctx.clock.Now() }

func (s *Session) animating() bool {
	return s.counters.Animating() || s.renderer.PendingTransitions() > 0
}

func (s *Session) countTweens() {
	if n := s.counters.TweensStarted(); n > 0 {
		s.ctx.metrics.CounterTweens.Add(float64(n))
	}
}

func (s *Session) frame(fills bool) Frame {
	v := s.view
	f := Frame{
		SessionID:  s.ID,
		SceneIndex: s.coord.Current(),
		Title:      v.title,
		Subtitle:   v.subtitle,
		Narrative:  v.narrative,
		Date:       v.date,
		DateLabel:  v.dateLabel,
		Progress:   v.progress,
		Timeline:   v.timeline,
		Counters:   make(map[string]CounterFrame, 3),
		Animating:  s.animating(),
	}
	for _, id := range s.counters.IDs() {
		f.Counters[id] = CounterFrame{Value: s.counters.Value(id), Text: s.counters.Formatted(id)}
	}
	if fills {
		f.Fills = s.renderer.Fills()
	}
	return f
}
