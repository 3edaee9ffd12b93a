package wizard

import (
	"sync"

	apperrors "glidepath/internal/errors"
)

// Manager tracks the single in-progress wizard session each user may have.
type Manager struct {
	mu       sync.Mutex
	saver    Saver
	sessions map[string]*Session
}

// NewManager creates a manager whose sessions persist through saver.
func NewManager(saver Saver) *Manager {
	return &Manager{
		saver:    saver,
		sessions: make(map[string]*Session),
	}
}

// Start begins a fresh session for the user, discarding any existing one.
func (m *Manager) Start(userID string) *Session {
	m.mu.Lock()
	defer m.mu.Unlock()

	session := NewSession(userID, m.saver)
	m.sessions[userID] = session
	return session
}

// Get returns the user's in-progress session.
func (m *Manager) Get(userID string) (*Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	session, ok := m.sessions[userID]
	if !ok {
		return nil, apperrors.ErrWizardNotStarted
	}
	return session, nil
}

// Cancel discards the user's session, if any.
func (m *Manager) Cancel(userID string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.sessions, userID)
}
