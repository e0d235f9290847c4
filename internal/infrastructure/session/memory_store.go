// Package session provides identity.SessionStore implementations.
package session

import (
	"context"
	"sync"

	"github.com/google/uuid"
	"github.com/tuition/backend/internal/domain/identity"
	"github.com/tuition/backend/internal/domain/shared"
)

// MemoryStore keeps sessions in process memory, for development and tests.
// Expired sessions are dropped lazily on read.
type MemoryStore struct {
	mu       sync.RWMutex
	sessions map[uuid.UUID]identity.Session
	clock    shared.Clock
}

// NewMemoryStore creates an empty store. A nil clock uses the wall clock.
func NewMemoryStore(clock shared.Clock) *MemoryStore {
	if clock == nil {
		clock = shared.SystemClock{}
	}
	return &MemoryStore{sessions: make(map[uuid.UUID]identity.Session), clock: clock}
}

// Save stores a copy of the session
func (s *MemoryStore) Save(_ context.Context, sess *identity.Session) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions[sess.ID] = *sess
	return nil
}

// Get returns a copy of a live session
func (s *MemoryStore) Get(_ context.Context, id uuid.UUID) (*identity.Session, error) {
	s.mu.RLock()
	sess, ok := s.sessions[id]
	s.mu.RUnlock()
	if !ok {
		return nil, shared.ErrNotFound
	}
	if sess.IsExpired(s.clock.Now()) {
		s.mu.Lock()
		delete(s.sessions, id)
		s.mu.Unlock()
		return nil, shared.ErrNotFound
	}
	return &sess, nil
}

// Delete removes a session
func (s *MemoryStore) Delete(_ context.Context, id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.sessions[id]; !ok {
		return shared.ErrNotFound
	}
	delete(s.sessions, id)
	return nil
}

var _ identity.SessionStore = (*MemoryStore)(nil)
