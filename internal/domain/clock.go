package domain

import (
	"time"

	"github.com/jonboulle/clockwork"
)

// clock stamps generated datasets and scene-change notifications. Tests and
// the fixture generator freeze it via SetClock for reproducible output.
var clock = clockwork.NewRealClock()

// SetClock swaps the time source. Pass nil to reset to real time.
func SetClock(c clockwork.Clock) {
	if c == nil {
		clock = clockwork.NewRealClock()
		return
	}
	clock = c
}

// Now returns the current time from the package clock.
func Now() time.Time { return clock.Now() }

// Today returns the current UTC calendar day from the package clock.
func Today() Date { return DateOf(clock.Now()) }
