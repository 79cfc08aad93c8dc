package http

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/couchcryptid/pandemic-scrollmap/internal/app"
	"github.com/couchcryptid/pandemic-scrollmap/internal/chart"
	"github.com/couchcryptid/pandemic-scrollmap/internal/domain"
	"github.com/couchcryptid/pandemic-scrollmap/internal/scroll"
)

type sessionKey struct{}

func sessionFrom(ctx context.Context) *app.Session {
	return ctx.Value(sessionKey{}).(*app.Session)
}

// withSession resolves {id} to a session. The id "default" names the shared
// session and is created on demand.
func (s *Server) withSession(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		st := s.state.Load()
		id := chi.URLParam(r, "id")

		var (
			sess *app.Session
			ok   bool
		)
		if id == app.DefaultSessionID {
			var err error
			sess, err = st.store.Default()
			if err != nil {
				s.logger.Error("create default session", "error", err)
				writeError(w, http.StatusInternalServerError, "session unavailable")
				return
			}
			ok = true
		} else {
			sess, ok = st.store.Get(id)
		}
		if !ok {
			writeError(w, http.StatusNotFound, "unknown session")
			return
		}
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), sessionKey{}, sess)))
	})
}

type rangeResponse struct {
	Start domain.Date `json:"start"`
	End   domain.Date `json:"end"`
}

func (s *Server) handleRange(w http.ResponseWriter, _ *http.Request) {
	lo, hi := s.state.Load().app.Range()
	writeJSON(w, http.StatusOK, rangeResponse{Start: lo, End: hi})
}

func (s *Server) handleScenes(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, s.state.Load().app.Scenes())
}

func (s *Server) handleEvents(w http.ResponseWriter, r *http.Request) {
	ctx := s.state.Load().app
	lo, hi := ctx.Range()
	from, err := dateParam(r, "from", lo)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	to, err := dateParam(r, "to", hi)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	events := ctx.Events().EventsInRange(from, to)
	if events == nil {
		events = []domain.TimelineEvent{}
	}
	writeJSON(w, http.StatusOK, events)
}

func (s *Server) handleCreateSession(w http.ResponseWriter, _ *http.Request) {
	sess, err := s.state.Load().store.Create()
	if err != nil {
		s.logger.Error("create session", "error", err)
		writeError(w, http.StatusInternalServerError, "session unavailable")
		return
	}
	s.logger.Debug("session created", "session_id", sess.ID)
	writeJSON(w, http.StatusCreated, sess.Frame(true))
}

func (s *Server) handleDeleteSession(w http.ResponseWriter, r *http.Request) {
	s.state.Load().store.Delete(sessionFrom(r.Context()).ID)
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleFrame(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, sessionFrom(r.Context()).Frame(true))
}

func (s *Server) handleEnter(w http.ResponseWriter, r *http.Request) {
	step, err := intParam(r, "step")
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	frame, ok := sessionFrom(r.Context()).Enter(step, directionParam(r))
	if !ok {
		writeError(w, http.StatusBadRequest, "step out of range")
		return
	}
	writeJSON(w, http.StatusOK, frame)
}

func (s *Server) handleProgress(w http.ResponseWriter, r *http.Request) {
	step, err := intParam(r, "step")
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	p, err := strconv.ParseFloat(r.URL.Query().Get("p"), 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid p")
		return
	}
	writeJSON(w, http.StatusOK, sessionFrom(r.Context()).Progress(step, p))
}

func (s *Server) handleExit(w http.ResponseWriter, r *http.Request) {
	step, err := intParam(r, "step")
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, sessionFrom(r.Context()).Exit(step, directionParam(r)))
}

func (s *Server) handleResize(w http.ResponseWriter, r *http.Request) {
	width, errW := strconv.ParseFloat(r.URL.Query().Get("w"), 64)
	height, errH := strconv.ParseFloat(r.URL.Query().Get("h"), 64)
	if errW != nil || errH != nil || !validSize(width) || !validSize(height) {
		writeError(w, http.StatusBadRequest, "invalid w or h")
		return
	}
	writeJSON(w, http.StatusOK, sessionFrom(r.Context()).Resize(width, height))
}

type markersRequest struct {
	Positions []float64 `json:"positions"`
}

func (s *Server) handleMarkers(w http.ResponseWriter, r *http.Request) {
	var req markersRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, 64<<10)).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid body")
		return
	}
	sess := sessionFrom(r.Context())
	sess.SetMarkerPositions(req.Positions)
	writeJSON(w, http.StatusOK, sess.Frame(false))
}

func (s *Server) handleMapSVG(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "image/svg+xml")
	w.Header().Set("Cache-Control", "no-store")
	if err := sessionFrom(r.Context()).WriteSVG(w); err != nil {
		s.logger.Warn("write map svg", "error", err)
	}
}

func (s *Server) handleGlobalChart(w http.ResponseWriter, r *http.Request) {
	ctx := s.state.Load().app
	_, hi := ctx.Range()
	until, err := dateParam(r, "until", hi)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	opts := chart.Options{
		Width:        sizeParam(r, "w", 640),
		Height:       sizeParam(r, "h", 240),
		Until:        until,
		Vaccinations: r.URL.Query().Get("vaccinations") == "true",
	}

	w.Header().Set("Content-Type", "image/svg+xml")
	if err := chart.WriteGlobalSVG(w, ctx.Index().GlobalSeries(), opts); err != nil {
		if errors.Is(err, chart.ErrTooFewPoints) {
			w.Header().Del("Content-Type")
			writeError(w, http.StatusUnprocessableEntity, err.Error())
			return
		}
		s.logger.Warn("write global chart", "error", err)
	}
}

func intParam(r *http.Request, name string) (int, error) {
	n, err := strconv.Atoi(r.URL.Query().Get(name))
	if err != nil {
		return 0, errors.New("invalid " + name)
	}
	return n, nil
}

func dateParam(r *http.Request, name string, def domain.Date) (domain.Date, error) {
	v := r.URL.Query().Get(name)
	if v == "" {
		return def, nil
	}
	d, err := domain.ParseDate(v)
	if err != nil {
		return 0, errors.New("invalid " + name)
	}
	return d, nil
}

// Map and chart dimensions, in pixels.
const (
	minSize = 64
	maxSize = 4096
)

func validSize(v float64) bool {
	return v >= minSize && v <= maxSize
}

func sizeParam(r *http.Request, name string, def int) int {
	n, err := strconv.Atoi(r.URL.Query().Get(name))
	if err != nil || !validSize(float64(n)) {
		return def
	}
	return n
}

func directionParam(r *http.Request) scroll.Direction {
	if r.URL.Query().Get("direction") == string(scroll.DirectionUp) {
		return scroll.DirectionUp
	}
	return scroll.DirectionDown
}
