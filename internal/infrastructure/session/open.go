package session

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"
	"github.com/tuition/backend/internal/domain/identity"
	"github.com/tuition/backend/internal/domain/shared"
	"github.com/tuition/backend/internal/infrastructure/config"
)

// Backend is an opened session store with its lifecycle hooks
type Backend struct {
	Store identity.SessionStore
	Kind  string
	// Redis is the shared client when Kind is redis, nil otherwise
	Redis redis.UniversalClient
	// Ping reports whether the store is reachable
	Ping  func(ctx context.Context) error
	Close func() error
}

// Open builds the store selected by cfg.Session.Store
func Open(ctx context.Context, cfg *config.Config, clock shared.Clock) (*Backend, error) {
	switch cfg.Session.Store {
	case config.SessionStoreMemory:
		return &Backend{
			Store: NewMemoryStore(clock),
			Kind:  config.SessionStoreMemory,
			Ping:  func(context.Context) error { return nil },
			Close: func() error { return nil },
		}, nil
	case config.SessionStoreRedis, "":
		client, err := NewRedisClient(ctx, cfg.Redis)
		if err != nil {
			return nil, err
		}
		return &Backend{
			Store: NewRedisStore(client, cfg.Session.KeyPrefix, clock),
			Kind:  config.SessionStoreRedis,
			Redis: client,
			Ping:  func(ctx context.Context) error { return client.Ping(ctx).Err() },
			Close: client.Close,
		}, nil
	default:
		return nil, fmt.Errorf("unknown session store %q", cfg.Session.Store)
	}
}
