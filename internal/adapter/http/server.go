package http

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"sync/atomic"
	"time"

	sharedobs "github.com/couchcryptid/storm-data-shared/observability"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/jonboulle/clockwork"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/couchcryptid/pandemic-scrollmap/internal/app"
	"github.com/couchcryptid/pandemic-scrollmap/internal/observability"
)

var (
	errLoading = errors.New("startup inputs still loading")
	errFailed  = errors.New("startup failed")
)

// Options tune the transport.
type Options struct {
	// ProgressRateHz caps applied progress events per WebSocket connection;
	// extra events are coalesced, latest wins.
	ProgressRateHz float64
	// SessionIdle drops sessions that have seen no events for this long.
	SessionIdle time.Duration
}

// state is swapped in once startup finishes, successfully or not.
type state struct {
	app   *app.Context
	store *app.SessionStore
	err   error
}

// Server exposes the scroll map API alongside health, readiness, and metrics
// endpoints. It serves liveness immediately; everything else waits for Ready
// or Failed.
type Server struct {
	httpServer *http.Server
	opts       Options
	state      atomic.Pointer[state]
	clock      clockwork.Clock
	logger     *slog.Logger
	metrics    *observability.Metrics
}

// NewServer creates the HTTP server and its routes.
func NewServer(addr string, opts Options, clock clockwork.Clock, logger *slog.Logger, metrics *observability.Metrics) *Server {
	if opts.ProgressRateHz <= 0 {
		opts.ProgressRateHz = 30
	}
	r := chi.NewRouter()

	s := &Server{
		httpServer: &http.Server{
			Addr:        addr,
			Handler:     r,
			ReadTimeout: 10 * time.Second,
			IdleTimeout: 60 * time.Second,
		},
		opts:    opts,
		clock:   clock,
		logger:  logger,
		metrics: metrics,
	}

	r.Use(middleware.Recoverer)

	r.Method(http.MethodGet, "/healthz", http.HandlerFunc(sharedobs.LivenessHandler()))
	r.Method(http.MethodGet, "/readyz", http.HandlerFunc(sharedobs.ReadinessHandler(s)))
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())

	r.Get("/", s.handleIndex)
	r.Group(func(r chi.Router) {
		r.Use(s.requireReady)
		r.Get("/ws", s.handleWebSocket)
		r.Get("/chart/global.svg", s.handleGlobalChart)
		r.Route("/api", func(r chi.Router) {
			r.Get("/range", s.handleRange)
			r.Get("/scenes", s.handleScenes)
			r.Get("/events", s.handleEvents)
			r.Post("/sessions", s.handleCreateSession)
			r.Route("/sessions/{id}", func(r chi.Router) {
				r.Use(s.withSession)
				r.Get("/", s.handleFrame)
				r.Delete("/", s.handleDeleteSession)
				r.Post("/enter", s.handleEnter)
				r.Post("/progress", s.handleProgress)
				r.Post("/exit", s.handleExit)
				r.Post("/resize", s.handleResize)
				r.Post("/markers", s.handleMarkers)
				r.Get("/map.svg", s.handleMapSVG)
			})
		})
	})

	return s
}

// Ready switches the server to serving ctx.
func (s *Server) Ready(ctx *app.Context) {
	s.state.Store(&state{app: ctx, store: app.NewSessionStore(ctx, s.opts.SessionIdle)})
	s.logger.Info("scroll map ready")
}

// Failed records a fatal startup error. The index page then explains the
// failure and readiness never succeeds.
func (s *Server) Failed(err error) {
	s.state.Store(&state{err: err})
}

// CheckReadiness implements the readiness probe.
func (s *Server) CheckReadiness(_ context.Context) error {
	st := s.state.Load()
	switch {
	case st == nil:
		return errLoading
	case st.err != nil:
		return errFailed
	}
	return nil
}

// Start begins listening. Returns http.ErrServerClosed on graceful shutdown.
func (s *Server) Start() error {
	s.logger.Info("http server starting", "addr", s.httpServer.Addr)
	return s.httpServer.ListenAndServe()
}

// Shutdown gracefully drains connections within the given context deadline.
// Hijacked WebSocket connections are not tracked by net/http; they end when
// their peer goes away.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

// ServeHTTP delegates to the underlying handler, useful for testing.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.httpServer.Handler.ServeHTTP(w, r)
}

func (s *Server) requireReady(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := s.CheckReadiness(r.Context()); err != nil {
			writeError(w, http.StatusServiceUnavailable, err.Error())
			return
		}
		next.ServeHTTP(w, r)
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v) //nolint:errcheck // client may have gone away
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
