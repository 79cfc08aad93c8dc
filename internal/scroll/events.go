package scroll

import (
	"github.com/couchcryptid/pandemic-scrollmap/internal/domain"
)

// EventKind distinguishes the coordinator's transitions.
type EventKind int

const (
	EventEnter EventKind = iota
	EventProgress
	EventExit
)

func (k EventKind) String() string {
	switch k {
	case EventEnter:
		return "enter"
	case EventProgress:
		return "progress"
	case EventExit:
		return "exit"
	default:
		return "unknown"
	}
}

// Direction is the scroll direction reported with Enter and Exit.
type Direction string

const (
	DirectionDown Direction = "down"
	DirectionUp   Direction = "up"
)

// Event is emitted to listeners after the coordinator has applied a
// transition.
type Event struct {
	Kind      EventKind
	Index     int
	Scene     domain.Scene
	Date      domain.Date
	Progress  float64
	Direction Direction
	// Timeline events near the scene date; set on Enter only.
	Timeline []domain.TimelineEvent
}

// Listener receives coordinator events. Listeners are fixed at construction.
type Listener interface {
	HandleScrollEvent(Event)
}

// ListenerFunc adapts a function to Listener.
type ListenerFunc func(Event)

func (f ListenerFunc) HandleScrollEvent(e Event) { f(e) }

// View is the set of write targets the coordinator updates. It is only ever
// written to.
type View interface {
	SetNarrative(title, narrative string)
	SetSubtitle(subtitle string)
	SetDateLabel(label string)
	SetProgress(fraction float64)
}

// MarkerLayout is implemented by views that can report where the scene
// markers sit on the progress indicator. ok is false when the layout cannot
// be read, in which case the coordinator falls back to date arithmetic.
type MarkerLayout interface {
	MarkerPositions() (positions []float64, ok bool)
}
