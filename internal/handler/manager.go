package handler

import (
	"context"
	"sync"

	"github.com/go-faster/errors"
	"github.com/google/uuid"

	"github.com/carlosalbertonunes2035/menusummo-checkout/internal/domain/checkout"
)

// ErrSessionNotFound is returned for unknown or already-closed session ids.
var ErrSessionNotFound = errors.New("checkout session not found")

// SessionFactory builds a fresh checkout session (with its own cart and
// profile store) for the given customer.
type SessionFactory func(ctx context.Context, customerID string) (*checkout.Session, error)

// sessionEntry pairs a session with its mutex. Sessions are single-owner
// state; the mutex serializes HTTP requests racing on the same session id.
type sessionEntry struct {
	mu      sync.Mutex
	session *checkout.Session
}

// SessionManager keeps the live checkout sessions in memory. Sessions are
// never persisted: closing one discards it, matching the session lifecycle
// of the checkout flow.
type SessionManager struct {
	factory SessionFactory

	mu       sync.RWMutex
	sessions map[string]*sessionEntry
}

// NewSessionManager creates a SessionManager using factory for new sessions.
func NewSessionManager(factory SessionFactory) *SessionManager {
	return &SessionManager{
		factory:  factory,
		sessions: make(map[string]*sessionEntry),
	}
}

// Open creates and opens a new session for the customer and returns its id.
func (m *SessionManager) Open(ctx context.Context, customerID string) (string, *checkout.Session, error) {
	s, err := m.factory(ctx, customerID)
	if err != nil {
		return "", nil, errors.Wrap(err, "create session")
	}
	if err := s.Open(ctx); err != nil {
		return "", nil, errors.Wrap(err, "open session")
	}

	id := uuid.New().String()
	m.mu.Lock()
	m.sessions[id] = &sessionEntry{session: s}
	m.mu.Unlock()
	return id, s, nil
}

// With runs fn with the session locked. Returns ErrSessionNotFound for
// unknown ids.
func (m *SessionManager) With(id string, fn func(s *checkout.Session) error) error {
	m.mu.RLock()
	entry, ok := m.sessions[id]
	m.mu.RUnlock()
	if !ok {
		return ErrSessionNotFound
	}

	entry.mu.Lock()
	defer entry.mu.Unlock()
	return fn(entry.session)
}

// Close discards the session. Closing an unknown id is a no-op.
func (m *SessionManager) Close(id string) {
	m.mu.Lock()
	delete(m.sessions, id)
	m.mu.Unlock()
}
