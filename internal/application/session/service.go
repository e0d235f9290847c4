// Package session opens, resolves and closes caller sessions. A session is
// the only carrier of the caller's role; services receive it explicitly.
package session

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/tuition/backend/internal/domain/identity"
	"github.com/tuition/backend/internal/domain/shared"
	"github.com/tuition/backend/internal/infrastructure/telemetry"
	"go.uber.org/zap"
)

// TokenCodec turns sessions into bearer tokens and back
type TokenCodec interface {
	Issue(session *identity.Session) (string, error)
	ParseSessionID(token string) (uuid.UUID, error)
}

// Service manages the session lifecycle
type Service struct {
	store  identity.SessionStore
	tokens TokenCodec
	clock  shared.Clock
	ttl    time.Duration
	logger *zap.Logger
}

// NewService creates a session service. A nil clock uses the wall clock.
func NewService(store identity.SessionStore, tokens TokenCodec, clock shared.Clock, ttl time.Duration, logger *zap.Logger) *Service {
	if clock == nil {
		clock = shared.SystemClock{}
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{store: store, tokens: tokens, clock: clock, ttl: ttl, logger: logger}
}

// Opened is a freshly stored session and its bearer token
type Opened struct {
	Session *identity.Session `json:"-"`
	Token   string            `json:"token"`
	Expires time.Time         `json:"expires_at"`
}

// Open stores a new session for role and signs its token
func (s *Service) Open(ctx context.Context, subject string, role identity.Role) (*Opened, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "session", "open")
	defer span.End()

	sess, err := identity.NewSession(subject, role, s.clock.Now(), s.ttl)
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}
	span.SetAttributes(telemetry.AttrRole.String(string(role.Kind())))

	token, err := s.tokens.Issue(sess)
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, fmt.Errorf("sign session token: %w", err)
	}
	if err := s.store.Save(ctx, sess); err != nil {
		telemetry.RecordError(span, err)
		return nil, fmt.Errorf("store session: %w", err)
	}

	s.logger.Info("session opened",
		zap.String("session_id", sess.ID.String()),
		zap.String("role", string(role.Kind())),
		zap.Time("expires_at", sess.ExpiresAt),
	)
	telemetry.SetOK(span)
	return &Opened{Session: sess, Token: token, Expires: sess.ExpiresAt}, nil
}

// Resolve maps a bearer token to its live session. Invalid, unknown, revoked
// and expired tokens all return shared.ErrUnauthorized; store failures are
// returned wrapped so callers can tell an outage from a bad token.
func (s *Service) Resolve(ctx context.Context, token string) (*identity.Session, error) {
	id, err := s.tokens.ParseSessionID(token)
	if err != nil {
		return nil, shared.WrapDomainError(shared.ErrUnauthorized.Code, "Invalid or expired session token", err)
	}

	sess, err := s.store.Get(ctx, id)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return nil, shared.NewDomainError(shared.ErrUnauthorized.Code, "Session has ended")
		}
		return nil, fmt.Errorf("load session: %w", err)
	}
	if sess.IsExpired(s.clock.Now()) {
		return nil, shared.NewDomainError(shared.ErrUnauthorized.Code, "Session has ended")
	}
	return sess, nil
}

// Close revokes the caller's own session
func (s *Service) Close(ctx context.Context, sess *identity.Session) error {
	if err := sess.Require(identity.CapManageSession, uuid.Nil); err != nil {
		return err
	}
	if err := s.store.Delete(ctx, sess.ID); err != nil && !errors.Is(err, shared.ErrNotFound) {
		return fmt.Errorf("revoke session: %w", err)
	}
	s.logger.Info("session closed", zap.String("session_id", sess.ID.String()))
	return nil
}
