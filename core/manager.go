package dialogue

import (
	"context"
	"sync"
	"time"
)

// Manager owns session lifecycle. It routes each call to its own session
// and keeps the live-call status surface; it never touches session state
// directly.
type Manager struct {
	mu       sync.Mutex
	sessions map[string]*Session

	defaults  []SessionOption
	closeHook func(Summary)
}

type ManagerOption func(*Manager)

// WithSessionDefaults applies the given options to every session the
// manager starts. Per-call options passed to StartSession come after and
// can override them.
func WithSessionDefaults(opts ...SessionOption) ManagerOption {
	return func(m *Manager) { m.defaults = append(m.defaults, opts...) }
}

// WithCloseHook registers a callback invoked with each session's closing
// summary, e.g. to persist a call log.
func WithCloseHook(hook func(Summary)) ManagerOption {
	return func(m *Manager) { m.closeHook = hook }
}

func NewManager(opts ...ManagerOption) *Manager {
	m := &Manager{sessions: map[string]*Session{}}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// StartSession creates and registers a session for a new call.
func (m *Manager) StartSession(ctx context.Context, callerID string, voice Voice, opts ...SessionOption) (*Session, error) {
	options := make([]SessionOption, 0, len(m.defaults)+len(opts)+1)
	options = append(options, m.defaults...)
	options = append(options, opts...)

	options = append(options, withCloseHook(func(summary Summary) {
		m.mu.Lock()
		delete(m.sessions, summary.ID)
		m.mu.Unlock()
		if m.closeHook != nil {
			m.closeHook(summary)
		}
	}))

	session, err := NewSession(ctx, callerID, voice, options...)
	if err != nil {
		return nil, err
	}

	m.mu.Lock()
	m.sessions[session.ID] = session
	m.mu.Unlock()

	logger.InfoContext(ctx, "Session registered",
		"session_id", session.ID, "caller", MaskPhone(callerID), "active", m.ActiveCalls())
	return session, nil
}

// Session looks up a live session by ID.
func (m *Manager) Session(id string) (*Session, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	session, ok := m.sessions[id]
	return session, ok
}

// EndSession closes a live session. Unknown IDs are a no-op.
func (m *Manager) EndSession(id, reason string) {
	if session, ok := m.Session(id); ok {
		session.Close(reason)
	}
}

// ActiveCalls returns the number of live sessions.
func (m *Manager) ActiveCalls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.sessions)
}

// Report is the live-call status surface.
type Report struct {
	ActiveCalls int          `json:"active_calls"`
	Sessions    []CallStatus `json:"sessions"`
}

// CallStatus describes one live session. Caller identity is masked.
type CallStatus struct {
	ID        string    `json:"id"`
	Caller    string    `json:"caller"`
	State     string    `json:"state"`
	StartedAt time.Time `json:"started_at"`
}

// Status snapshots every live session.
func (m *Manager) Status() Report {
	m.mu.Lock()
	sessions := make([]*Session, 0, len(m.sessions))
	for _, session := range m.sessions {
		sessions = append(sessions, session)
	}
	m.mu.Unlock()

	report := Report{ActiveCalls: len(sessions), Sessions: make([]CallStatus, 0, len(sessions))}
	for _, session := range sessions {
		report.Sessions = append(report.Sessions, CallStatus{
			ID:        session.ID,
			Caller:    MaskPhone(session.CallerID),
			State:     session.State().String(),
			StartedAt: session.startedAt,
		})
	}
	return report
}

// Close ends every live session and waits for their loops to stop.
func (m *Manager) Close(reason string) {
	m.mu.Lock()
	sessions := make([]*Session, 0, len(m.sessions))
	for _, session := range m.sessions {
		sessions = append(sessions, session)
	}
	m.mu.Unlock()

	for _, session := range sessions {
		session.Close(reason)
	}
	for _, session := range sessions {
		<-session.Done()
	}
}
