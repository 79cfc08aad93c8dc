package app

import (
	"sync"
	"time"

	"github.com/google/uuid"
)

// DefaultSessionID names the session shared by REST callers that never
// created their own.
const DefaultSessionID = "default"

// SessionStore tracks live sessions. Sessions idle for longer than maxIdle
// are dropped whenever a new one is created; the default session is never
// dropped.
type SessionStore struct {
	ctx     *Context
	maxIdle time.Duration

	// createMu serialises session construction so a racing Default never
	// starts, and notifies hooks about, a session it then throws away.
	createMu sync.Mutex

	mu       sync.Mutex
	sessions map[string]*Session
}

// NewSessionStore creates a store handing out sessions from ctx.
func NewSessionStore(ctx *Context, maxIdle time.Duration) *SessionStore {
	return &SessionStore{ctx: ctx, maxIdle: maxIdle, sessions: make(map[string]*Session)}
}

// Create starts a session under a fresh random id.
func (s *SessionStore) Create() (*Session, error) {
	return s.create(uuid.NewString())
}

// Default returns the shared default session, creating it on first use.
func (s *SessionStore) Default() (*Session, error) {
	if sess, ok := s.Get(DefaultSessionID); ok {
		return sess, nil
	}
	return s.create(DefaultSessionID)
}

// Get looks up a session.
func (s *SessionStore) Get(id string) (*Session, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, ok := s.sessions[id]
	return sess, ok
}

// Delete drops a session.
func (s *SessionStore) Delete(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.sessions[id]; ok {
		delete(s.sessions, id)
		s.ctx.metrics.SessionsActive.Dec()
	}
}

// Len reports the number of live sessions.
func (s *SessionStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.sessions)
}

func (s *SessionStore) create(id string) (*Session, error) {
	s.createMu.Lock()
	defer s.createMu.Unlock()
	if existing, ok := s.Get(id); ok {
		return existing, nil
	}

	sess, err := s.ctx.NewSession(id)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.sweepLocked()
	s.sessions[id] = sess
	s.ctx.metrics.SessionsActive.Inc()
	return sess, nil
}

func (s *SessionStore) sweepLocked() {
	if s.maxIdle <= 0 {
		return
	}
	now := s.ctx.clock.Now()
	for id, sess := range s.sessions {
		if id == DefaultSessionID {
			continue
		}
		if now.Sub(sess.LastSeen()) > s.maxIdle {
			delete(s.sessions, id)
			s.ctx.metrics.SessionsActive.Dec()
			s.ctx.logger.Debug("idle session dropped", "session_id", id)
		}
	}
}
