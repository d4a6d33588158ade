package engine

import (
	"sync"

	"github.com/ggoodman/mcp-hello-world/sessions"
)

var _ sessions.Session = (*SessionHandle)(nil)

// SessionHandle is the engine's view of a live session: the immutable
// session plus its lifecycle state.
type SessionHandle struct {
	sessions.Session

	mu    sync.Mutex
	state sessions.SessionState
}

func newSessionHandle(s sessions.Session) *SessionHandle {
	return &SessionHandle{Session: s, state: sessions.SessionStatePending}
}

// State reports whether the client has sent notifications/initialized yet.
func (s *SessionHandle) State() sessions.SessionState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// markOpen transitions the session to open and reports whether this call
// performed the transition.
func (s *SessionHandle) markOpen() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state == sessions.SessionStateOpen {
		return false
	}
	s.state = sessions.SessionStateOpen
	return true
}
