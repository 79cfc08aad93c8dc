package http

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	"golang.org/x/time/rate"

	"github.com/couchcryptid/pandemic-scrollmap/internal/app"
	"github.com/couchcryptid/pandemic-scrollmap/internal/scroll"
)

const (
	wsWriteWait   = 10 * time.Second
	wsMaxMessage  = 64 << 10
	wsInboxLength = 32
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  4096,
	WriteBufferSize: 16384,
}

// clientMessage is one scroll-library callback forwarded by the page.
type clientMessage struct {
	Type      string    `json:"type"` // enter, progress, exit, resize, markers, frame
	Step      int       `json:"step"`
	Progress  float64   `json:"progress"`
	Direction string    `json:"direction"`
	Width     float64   `json:"width"`
	Height    float64   `json:"height"`
	Positions []float64 `json:"positions"`
}

type errorMessage struct {
	Type  string `json:"type"`
	Error string `json:"error"`
}

// handleWebSocket streams frames for one session. ?session=<id> attaches to an
// existing session; otherwise a new one is created and dropped on disconnect.
//
// A single goroutine owns the session and all writes. Progress beyond the rate
// limit is held back and only the newest is applied on the next tick. While a
// transition or tween is running the loop pushes a frame every tick.
func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	st := s.state.Load()

	var (
		sess  *app.Session
		owned bool
	)
	if id := r.URL.Query().Get("session"); id != "" {
		var ok bool
		if id == app.DefaultSessionID {
			var err error
			sess, err = st.store.Default()
			ok = err == nil
		} else {
			sess, ok = st.store.Get(id)
		}
		if !ok {
			writeError(w, http.StatusNotFound, "unknown session")
			return
		}
	} else {
		var err error
		sess, err = st.store.Create()
		if err != nil {
			s.logger.Error("create session", "error", err)
			writeError(w, http.StatusInternalServerError, "session unavailable")
			return
		}
		owned = true
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Warn("websocket upgrade failed", "error", err)
		if owned {
			st.store.Delete(sess.ID)
		}
		return
	}
	defer conn.Close()
	if owned {
		defer st.store.Delete(sess.ID)
	}
	conn.SetReadLimit(wsMaxMessage)

	logger := s.logger.With("session_id", sess.ID)
	logger.Debug("websocket connected", "owned", owned)

	inbox := make(chan clientMessage, wsInboxLength)
	done := make(chan struct{})
	defer close(done)
	go readMessages(conn, inbox, done)

	interval := time.Duration(float64(time.Second) / s.opts.ProgressRateHz)
	ticker := s.clock.NewTicker(interval)
	defer ticker.Stop()
	limiter := rate.NewLimiter(rate.Limit(s.opts.ProgressRateHz), 1)

	send := func(v any) bool {
		_ = conn.SetWriteDeadline(time.Now().Add(wsWriteWait))
		if err := conn.WriteJSON(v); err != nil {
			logger.Debug("websocket write failed", "error", err)
			return false
		}
		return true
	}

	if !send(sess.Frame(true)) {
		return
	}

	var (
		pending   *clientMessage
		animating = sess.Animating()
	)
	for {
		select {
		case msg, ok := <-inbox:
			if !ok {
				logger.Debug("websocket closed")
				return
			}
			if msg.Type == "progress" && !limiter.AllowN(s.clock.Now(), 1) {
				if pending != nil {
					s.metrics.ProgressCoalesced.Inc()
				}
				pending = &msg
				continue
			}
			if msg.Type == "enter" || msg.Type == "exit" {
				// A held-back progress must not land after a newer scene
				// change.
				if pending != nil {
					s.metrics.ProgressCoalesced.Inc()
				}
				pending = nil
			}
			reply, ok := s.apply(sess, msg)
			if !send(reply) {
				return
			}
			if ok {
				animating = sess.Animating()
			}

		case <-ticker.Chan():
			switch {
			case pending != nil:
				reply, _ := s.apply(sess, *pending)
				pending = nil
				if !send(reply) {
					return
				}
				animating = sess.Animating()
			case animating:
				animating = sess.Animating()
				if !send(sess.Frame(true)) {
					return
				}
			}
		}
	}
}

// apply runs one client message against the session. ok is false when the
// reply is an error message.
func (s *Server) apply(sess *app.Session, msg clientMessage) (reply any, ok bool) {
	dir := scroll.DirectionDown
	if msg.Direction == string(scroll.DirectionUp) {
		dir = scroll.DirectionUp
	}
	switch msg.Type {
	case "enter":
		frame, ok := sess.Enter(msg.Step, dir)
		if !ok {
			return errorMessage{Type: "error", Error: "step out of range"}, false
		}
		return frame, true
	case "progress":
		return sess.Progress(msg.Step, msg.Progress), true
	case "exit":
		return sess.Exit(msg.Step, dir), true
	case "resize":
		if !validSize(msg.Width) || !validSize(msg.Height) {
			return errorMessage{Type: "error", Error: "invalid size"}, false
		}
		return sess.Resize(msg.Width, msg.Height), true
	case "markers":
		sess.SetMarkerPositions(msg.Positions)
		return sess.Frame(false), true
	case "frame":
		return sess.Frame(true), true
	}
	return errorMessage{Type: "error", Error: "unknown message type " + msg.Type}, false
}

// readMessages decodes client messages until the connection fails or done
// closes, then closes inbox.
func readMessages(conn *websocket.Conn, inbox chan<- clientMessage, done <-chan struct{}) {
	defer close(inbox)
	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			return
		}
		var msg clientMessage
		if err := json.Unmarshal(data, &msg); err != nil {
			msg = clientMessage{Type: "invalid"}
		}
		select {
		case inbox <- msg:
		case <-done:
			return
		}
	}
}
