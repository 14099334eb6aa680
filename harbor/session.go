package harbor

import (
	"sync"
	"time"
)

// =============================================================================
// SESSION CONTEXT - Injected reachability state
// =============================================================================

// SessionContext tracks whether Harbor is reachable. It is injected into the
// client and the status handler rather than held as package-level state, so
// tests stay isolated and multiple portal instances can each track their own
// upstream session.
type SessionContext struct {
	mu          sync.RWMutex
	reachable   bool
	checked     bool
	lastSuccess time.Time
	lastFailure time.Time
	lastError   string
}

// NewSessionContext returns a session with no observations yet.
func NewSessionContext() *SessionContext {
	return &SessionContext{}
}

// RecordSuccess marks the upstream as reachable. Nil-safe.
func (s *SessionContext) RecordSuccess() {
	if s == nil {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.reachable = true
	s.checked = true
	s.lastSuccess = time.Now().UTC()
	s.lastError = ""
}

// RecordFailure marks the upstream as unreachable. Nil-safe.
func (s *SessionContext) RecordFailure(err error) {
	if s == nil {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.reachable = false
	s.checked = true
	s.lastFailure = time.Now().UTC()
	if err != nil {
		s.lastError = err.Error()
	}
}

// Status describes the current upstream session.
type Status struct {
	Reachable   bool      `json:"reachable"`
	Checked     bool      `json:"checked"`
	LastSuccess time.Time `json:"lastSuccess,omitempty"`
	LastFailure time.Time `json:"lastFailure,omitempty"`
	LastError   string    `json:"lastError,omitempty"`
}

// Status returns a copy of the current session state.
func (s *SessionContext) Status() Status {
	if s == nil {
		return Status{}
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	return Status{
		Reachable:   s.reachable,
		Checked:     s.checked,
		LastSuccess: s.lastSuccess,
		LastFailure: s.lastFailure,
		LastError:   s.lastError,
	}
}
