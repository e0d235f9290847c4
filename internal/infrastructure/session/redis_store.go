package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/tuition/backend/internal/domain/identity"
	"github.com/tuition/backend/internal/domain/shared"
	"github.com/tuition/backend/internal/infrastructure/config"
)

// DefaultKeyPrefix namespaces session keys
const DefaultKeyPrefix = "tuition:session:"

// RedisStore keeps sessions in Redis with a TTL equal to their remaining life,
// so revocation is a DEL and expiry needs no sweeper.
type RedisStore struct {
	client    redis.UniversalClient
	keyPrefix string
	clock     shared.Clock
}

// storedSession is the JSON value under each key
type storedSession struct {
	Subject   string          `json:"subject"`
	Role      json.RawMessage `json:"role"`
	IssuedAt  time.Time       `json:"issued_at"`
	ExpiresAt time.Time       `json:"expires_at"`
}

// NewRedisClient opens a client and verifies it with PING
func NewRedisClient(ctx context.Context, cfg config.RedisConfig) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:         cfg.Addr(),
		Password:     cfg.Password,
		DB:           cfg.DB,
		PoolSize:     10,
		MinIdleConns: 2,
		MaxRetries:   3,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
	})

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to connect to Redis for sessions: %w", err)
	}
	return client, nil
}

// NewRedisStore wraps an existing client
func NewRedisStore(client redis.UniversalClient, keyPrefix string, clock shared.Clock) *RedisStore {
	if keyPrefix == "" {
		keyPrefix = DefaultKeyPrefix
	}
	if clock == nil {
		clock = shared.SystemClock{}
	}
	return &RedisStore{client: client, keyPrefix: keyPrefix, clock: clock}
}

func (s *RedisStore) key(id uuid.UUID) string {
	return s.keyPrefix + id.String()
}

// Save writes the session with its remaining lifetime as TTL
func (s *RedisStore) Save(ctx context.Context, sess *identity.Session) error {
	ttl := sess.ExpiresAt.Sub(s.clock.Now())
	if ttl <= 0 {
		return shared.NewDomainError("SESSION_EXPIRED", "Session is already expired")
	}

	role, err := identity.MarshalRole(sess.Role)
	if err != nil {
		return err
	}
	payload, err := json.Marshal(storedSession{
		Subject:   sess.Subject,
		Role:      role,
		IssuedAt:  sess.IssuedAt,
		ExpiresAt: sess.ExpiresAt,
	})
	if err != nil {
		return fmt.Errorf("encode session: %w", err)
	}

	if err := s.client.Set(ctx, s.key(sess.ID), payload, ttl).Err(); err != nil {
		return fmt.Errorf("failed to save session: %w", err)
	}
	return nil
}

// Get loads a session; missing keys return shared.ErrNotFound
func (s *RedisStore) Get(ctx context.Context, id uuid.UUID) (*identity.Session, error) {
	raw, err := s.client.Get(ctx, s.key(id)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, shared.ErrNotFound
		}
		return nil, fmt.Errorf("failed to load session: %w", err)
	}

	var stored storedSession
	if err := json.Unmarshal(raw, &stored); err != nil {
		return nil, fmt.Errorf("decode session: %w", err)
	}
	role, err := identity.UnmarshalRole(stored.Role)
	if err != nil {
		return nil, err
	}
	return &identity.Session{
		ID:        id,
		Subject:   stored.Subject,
		Role:      role,
		IssuedAt:  stored.IssuedAt,
		ExpiresAt: stored.ExpiresAt,
	}, nil
}

// Delete revokes a session
func (s *RedisStore) Delete(ctx context.Context, id uuid.UUID) error {
	n, err := s.client.Del(ctx, s.key(id)).Result()
	if err != nil {
		return fmt.Errorf("failed to delete session: %w", err)
	}
	if n == 0 {
		return shared.ErrNotFound
	}
	return nil
}

var _ identity.SessionStore = (*RedisStore)(nil)
