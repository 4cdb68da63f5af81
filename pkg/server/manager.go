package server

import (
	"errors"
	"log/slog"
	"sync"
)

// ErrTooManySessions is returned by Add when the session limit is reached.
var ErrTooManySessions = errors.New("server: too many live sessions")

// SessionManager tracks the live sessions.
type SessionManager struct {
	mu       sync.RWMutex
	sessions map[string]*Session
	max      int
	logger   *slog.Logger
}

// NewSessionManager creates a manager. max <= 0 means no limit.
func NewSessionManager(max int, logger *slog.Logger) *SessionManager {
	if logger == nil {
		logger = slog.Default()
	}
	return &SessionManager{
		sessions: make(map[string]*Session),
		max:      max,
		logger:   logger,
	}
}

// Add tracks s and removes it again when it closes.
func (sm *SessionManager) Add(s *Session) error {
	sm.mu.Lock()
	defer sm.mu.Unlock()
	if sm.max > 0 && len(sm.sessions) >= sm.max {
		return ErrTooManySessions
	}
	sm.sessions[s.ID] = s
	s.onClose = sm.remove
	sm.logger.Debug("session added", "session", s.ID, "count", len(sm.sessions))
	return nil
}

// Full reports whether Add would fail.
func (sm *SessionManager) Full() bool {
	sm.mu.RLock()
	defer sm.mu.RUnlock()
	return sm.max > 0 && len(sm.sessions) >= sm.max
}

func (sm *SessionManager) remove(s *Session) {
	sm.mu.Lock()
	defer sm.mu.Unlock()
	delete(sm.sessions, s.ID)
}

// Get returns a session by ID.
func (sm *SessionManager) Get(id string) *Session {
	sm.mu.RLock()
	defer sm.mu.RUnlock()
	return sm.sessions[id]
}

// Count returns the number of live sessions.
func (sm *SessionManager) Count() int {
	sm.mu.RLock()
	defer sm.mu.RUnlock()
	return len(sm.sessions)
}

// ForEach calls fn for each session until fn returns false.
func (sm *SessionManager) ForEach(fn func(*Session) bool) {
	sm.mu.RLock()
	sessions := make([]*Session, 0, len(sm.sessions))
	for _, s := range sm.sessions {
		sessions = append(sessions, s)
	}
	sm.mu.RUnlock()

	for _, s := range sessions {
		if !fn(s) {
			return
		}
	}
}

// Broadcast queues f on every session.
func (sm *SessionManager) Broadcast(f Frame) {
	sm.ForEach(func(s *Session) bool {
		s.Send(f)
		return true
	})
}

// Shutdown closes every session.
func (sm *SessionManager) Shutdown() {
	sm.ForEach(func(s *Session) bool {
		s.Close()
		return true
	})
}
