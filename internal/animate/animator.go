// Package animate tweens the on-screen statistic counters.
package animate

import (
	"math"
	"sort"
	"time"

	"github.com/jonboulle/clockwork"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// tween is one counter's state. Between tweens from == to.
type tween struct {
	from, to float64
	start    time.Time
	duration time.Duration
}

// Animator owns the displayed value of every counter it has seen. Values are
// computed from the clock when read, so a tween is nothing more than its
// endpoints and start time; a newer AnimateTo or SetInstant on the same
// counter replaces it.
//
// An Animator is not safe for concurrent use. Each viewer session owns one
// and drives it from a single event loop.
type Animator struct {
	clock    clockwork.Clock
	counters map[string]*tween
	printer  *message.Printer
	started  int // tweens started, for metrics
}

// New creates an Animator reading time from clock.
func New(clock clockwork.Clock) *Animator {
	return &Animator{
		clock:    clock,
		counters: make(map[string]*tween),
		printer:  message.NewPrinter(language.English),
	}
}

// AnimateTo tweens counter id from the value displayed right now to target.
// Restarting mid-flight resumes from the on-screen value, never from the
// superseded tween's start.
func (a *Animator) AnimateTo(id string, target int64, duration time.Duration) {
	now := a.clock.Now()
	from := float64(a.valueAt(id, now))
	a.started++
	if duration <= 0 {
		a.counters[id] = &tween{from: float64(target), to: float64(target), start: now}
		return
	}
	a.counters[id] = &tween{from: from, to: float64(target), start: now, duration: duration}
}

// SetInstant sets counter id with no tween, cancelling any in flight.
func (a *Animator) SetInstant(id string, value int64) {
	a.counters[id] = &tween{from: float64(value), to: float64(value), start: a.clock.Now()}
}

// Flush settles every counter on its target, ending any tween in flight.
func (a *Animator) Flush() {
	now := a.clock.Now()
	for _, t := range a.counters {
		*t = tween{from: t.to, to: t.to, start: now}
	}
}

// Value returns the integer currently displayed for id; unknown counters read 0.
func (a *Animator) Value(id string) int64 {
	return a.valueAt(id, a.clock.Now())
}

// Formatted returns Value with thousands separators, e.g. "1,234,567".
func (a *Animator) Formatted(id string) string {
	return a.printer.Sprintf("%d", a.Value(id))
}

// Target returns where id is heading.
func (a *Animator) Target(id string) int64 {
	t, ok := a.counters[id]
	if !ok {
		return 0
	}
	return int64(t.to)
}

// Animating reports whether any counter is mid-tween.
func (a *Animator) Animating() bool {
	now := a.clock.Now()
	for _, t := range a.counters {
		if t.duration > 0 && now.Sub(t.start) < t.duration {
			return true
		}
	}
	return false
}

// IDs lists known counters in sorted order.
func (a *Animator) IDs() []string {
	ids := make([]string, 0, len(a.counters))
	for id := range a.counters {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// TweensStarted reports and resets the number of tweens started since the
// last call.
func (a *Animator) TweensStarted() int {
	n := a.started
	a.started = 0
	return n
}

func (a *Animator) valueAt(id string, now time.Time) int64 {
	t, ok := a.counters[id]
	if !ok {
		return 0
	}
	if t.duration <= 0 {
		return int64(math.Round(t.to))
	}
	elapsed := now.Sub(t.start)
	if elapsed >= t.duration {
		return int64(math.Round(t.to))
	}
	progress := easeOutCubic(float64(elapsed) / float64(t.duration))
	return int64(math.Round(t.from + (t.to-t.from)*progress))
}

// easeOutCubic decelerates into the target. Monotonic on [0, 1], so the
// displayed value never overshoots.
func easeOutCubic(t float64) float64 {
	u := 1 - t
	return 1 - u*u*u
}
