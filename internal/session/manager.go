package session

import (
	"errors"
	"sort"
	"sync"

	"github.com/google/uuid"

	"github.com/kinetic-data/form.report/internal/exercise"
	"github.com/kinetic-data/form.report/internal/timeutil"
)

// ErrSessionNotFound reports a session ID with no active session, either
// never started or already ended.
var ErrSessionNotFound = errors.New("session not found")

// Manager owns the active session map shared by the HTTP and UDP transports.
// An RWMutex guards the map itself; per-frame work happens under each
// session's own lock so slow frames on one session never stall another.
type Manager struct {
	mu       sync.RWMutex
	sessions map[string]*Session
	registry *exercise.Registry
	cfg      Config
	clock    timeutil.Clock
}

// NewManager builds a manager over a seeded registry. A nil clock gets the
// real clock; tests pass timeutil.NewMockClock.
func NewManager(registry *exercise.Registry, cfg Config, clock timeutil.Clock) *Manager {
	if clock == nil {
		clock = timeutil.RealClock{}
	}
	return &Manager{
		sessions: make(map[string]*Session),
		registry: registry,
		cfg:      cfg,
		clock:    clock,
	}
}

// Start creates a session for clientID performing exerciseID. Unknown
// exercises fail here, before any frame is scored, with an
// UnknownExerciseError.
func (m *Manager) Start(clientID, exerciseID string) (*Session, error) {
	tpl, err := m.registry.Lookup(exerciseID)
	if err != nil {
		return nil, err
	}
	s := NewSession(uuid.NewString(), clientID, tpl, m.clock.Now(), m.cfg)

	m.mu.Lock()
	m.sessions[s.ID()] = s
	m.mu.Unlock()
	return s, nil
}

// Get returns the active session with the given ID.
func (m *Manager) Get(id string) (*Session, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	s, ok := m.sessions[id]
	return s, ok
}

// End closes the session, removes it from the active set, and returns its
// final summary.
func (m *Manager) End(id string) (Summary, error) {
	m.mu.Lock()
	s, ok := m.sessions[id]
	if ok {
		delete(m.sessions, id)
	}
	m.mu.Unlock()

	if !ok {
		return Summary{}, ErrSessionNotFound
	}
	return s.End(), nil
}

// States snapshots every active session, ordered by start time then ID for
// stable listings.
func (m *Manager) States() []LiveState {
	m.mu.RLock()
	sessions := make([]*Session, 0, len(m.sessions))
	for _, s := range m.sessions {
		sessions = append(sessions, s)
	}
	m.mu.RUnlock()

	states := make([]LiveState, 0, len(sessions))
	for _, s := range sessions {
		states = append(states, s.State())
	}
	sort.Slice(states, func(i, j int) bool {
		if !states[i].StartedAt.Equal(states[j].StartedAt) {
			return states[i].StartedAt.Before(states[j].StartedAt)
		}
		return states[i].ID < states[j].ID
	})
	return states
}

// Len returns the number of active sessions.
func (m *Manager) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.sessions)
}

// RecordHeartRate fans one wearable sample out to every active session.
// The deployment model is a single chest strap at a scoring station, so a
// sample belongs to whichever sessions are live when it arrives.
func (m *Manager) RecordHeartRate(bpm int) {
	m.mu.RLock()
	sessions := make([]*Session, 0, len(m.sessions))
	for _, s := range m.sessions {
		sessions = append(sessions, s)
	}
	m.mu.RUnlock()

	for _, s := range sessions {
		s.RecordHeartRate(bpm)
	}
}
