package app

import (
	"github.com/couchcryptid/pandemic-scrollmap/internal/domain"
	"github.com/couchcryptid/pandemic-scrollmap/internal/render"
	"github.com/couchcryptid/pandemic-scrollmap/internal/scroll"
)

// CounterFrame is one counter as displayed.
type CounterFrame struct {
	Value int64  `json:"value"`
	Text  string `json:"text"`
}

// Frame is everything a page needs to draw one moment of a session.
type Frame struct {
	SessionID  string                  `json:"sessionId"`
	SceneIndex int                     `json:"sceneIndex"`
	Title      string                  `json:"title"`
	Subtitle   string                  `json:"subtitle"`
	Narrative  string                  `json:"narrative"`
	Date       domain.Date             `json:"date"`
	DateLabel  string                  `json:"dateLabel"`
	Progress   float64                 `json:"progress"`
	Counters   map[string]CounterFrame `json:"counters"`
	Timeline   []domain.TimelineEvent  `json:"timeline,omitempty"`
	Fills      []render.PolygonFill    `json:"fills,omitempty"`
	Animating  bool                    `json:"animating"`
}

// FrameView is the write-only target the coordinator updates, held in memory
// until a Frame is taken. It also listens for events to keep the painted date
// and the timeline of the entered scene.
type FrameView struct {
	title, subtitle, narrative string
	dateLabel                  string
	progress                   float64
	date                       domain.Date
	timeline                   []domain.TimelineEvent

	even      []float64
	positions []float64
}

// NewFrameView creates a view for the scene script with evenly spaced
// markers.
func NewFrameView(scenes []domain.Scene) *FrameView {
	markers := scroll.EvenMarkers(scenes)
	even := make([]float64, len(markers))
	for i, m := range markers {
		even[i] = m.Position
	}
	return &FrameView{even: even}
}

func (v *FrameView) SetNarrative(title, narrative string) { v.title, v.narrative = title, narrative }
func (v *FrameView) SetSubtitle(subtitle string)          { v.subtitle = subtitle }
func (v *FrameView) SetDateLabel(label string)            { v.dateLabel = label }
func (v *FrameView) SetProgress(fraction float64)         { v.progress = fraction }

// SetMarkerPositions stores page-measured marker offsets. An empty slice
// restores even spacing; a slice of the wrong length is kept and makes
// MarkerPositions report the layout unavailable.
func (v *FrameView) SetMarkerPositions(positions []float64) {
	if len(positions) == 0 {
		v.positions = nil
		return
	}
	v.positions = make([]float64, len(positions))
	copy(v.positions, positions)
}

// MarkerPositions returns the measured offsets, or even spacing when the page
// never sent any.
func (v *FrameView) MarkerPositions() ([]float64, bool) {
	if v.positions == nil {
		return v.even, true
	}
	if len(v.positions) != len(v.even) {
		return nil, false
	}
	return v.positions, true
}

// HandleScrollEvent records the painted date; Enter also replaces the
// timeline.
func (v *FrameView) HandleScrollEvent(e scroll.Event) {
	switch e.Kind {
	case scroll.EventEnter:
		v.date = e.Date
		v.timeline = e.Timeline
	case scroll.EventProgress:
		v.date = e.Date
	}
}
