package identity

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/tuition/backend/internal/domain/shared"
)

// Session is passed explicitly to every operation that needs the caller
type Session struct {
	ID        uuid.UUID
	Subject   string
	Role      Role
	IssuedAt  time.Time
	ExpiresAt time.Time
}

// NewSession opens a session for role lasting ttl
func NewSession(subject string, role Role, now time.Time, ttl time.Duration) (*Session, error) {
	if role == nil {
		return nil, shared.NewDomainError("INVALID_ROLE", "Session requires a role")
	}
	if ttl <= 0 {
		return nil, shared.NewDomainError("INVALID_INPUT", "Session TTL must be positive")
	}
	return &Session{
		ID:        uuid.New(),
		Subject:   subject,
		Role:      role,
		IssuedAt:  now,
		ExpiresAt: now.Add(ttl),
	}, nil
}

// IsExpired returns true once the session is past its expiry
func (s *Session) IsExpired(now time.Time) bool {
	return !now.Before(s.ExpiresAt)
}

// IsAdmin is shorthand for an AdminRole check
func (s *Session) IsAdmin() bool {
	_, ok := s.Role.(AdminRole)
	return ok
}

// Require returns ErrForbidden unless the session's role grants capability on target
func (s *Session) Require(capability Capability, target uuid.UUID) error {
	if s == nil || s.Role == nil {
		return shared.ErrUnauthorized
	}
	if !Can(s.Role, capability, target) {
		return shared.ErrForbidden
	}
	return nil
}

// SessionStore keeps active sessions so they can be revoked before expiry
type SessionStore interface {
	Save(ctx context.Context, session *Session) error
	// Get returns shared.ErrNotFound for unknown or expired sessions
	Get(ctx context.Context, id uuid.UUID) (*Session, error)
	Delete(ctx context.Context, id uuid.UUID) error
}
