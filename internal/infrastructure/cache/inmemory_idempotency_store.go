package cache

import (
	"context"
	"sync"
	"time"

	"github.com/tuition/backend/internal/domain/shared"
)

const defaultSweepInterval = 5 * time.Minute

// InMemoryIdempotencyStore keeps Idempotency-Key claims in process memory.
// Claims are not shared between replicas; use it with the memory session
// store or in tests.
type InMemoryIdempotencyStore struct {
	clock shared.Clock

	mu     sync.Mutex
	claims map[string]time.Time // key -> claim expiry

	stop context.CancelFunc
	done chan struct{}
}

// NewInMemoryIdempotencyStore starts a sweeper that drops expired claims every
// interval. A nil clock reads the wall clock.
func NewInMemoryIdempotencyStore(clock shared.Clock, interval time.Duration) *InMemoryIdempotencyStore {
	if clock == nil {
		clock = shared.SystemClock{}
	}
	if interval <= 0 {
		interval = defaultSweepInterval
	}
	ctx, cancel := context.WithCancel(context.Background())
	s := &InMemoryIdempotencyStore{
		clock:  clock,
		claims: make(map[string]time.Time),
		stop:   cancel,
		done:   make(chan struct{}),
	}
	go s.run(ctx, interval)
	return s
}

// MarkProcessed claims key until now+ttl. A claim stops holding at exactly
// its expiry.
func (s *InMemoryIdempotencyStore) MarkProcessed(_ context.Context, key string, ttl time.Duration) (bool, error) {
	now := s.clock.Now()

	s.mu.Lock()
	defer s.mu.Unlock()
	if until, held := s.claims[key]; held && now.Before(until) {
		return false, nil
	}
	s.claims[key] = now.Add(ttl)
	return true, nil
}

func (s *InMemoryIdempotencyStore) Forget(_ context.Context, key string) error {
	s.mu.Lock()
	delete(s.claims, key)
	s.mu.Unlock()
	return nil
}

// Close stops the sweeper and waits for it. Calling it again is harmless.
func (s *InMemoryIdempotencyStore) Close() error {
	s.stop()
	<-s.done
	return nil
}

// Len reports the claims currently held, expired ones included until swept
func (s *InMemoryIdempotencyStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.claims)
}

func (s *InMemoryIdempotencyStore) run(ctx context.Context, interval time.Duration) {
	defer close(s.done)
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.sweep()
		}
	}
}

// sweep removes expired claims and returns how many went
func (s *InMemoryIdempotencyStore) sweep() int {
	now := s.clock.Now()

	s.mu.Lock()
	defer s.mu.Unlock()
	removed := 0
	for key, until := range s.claims {
		if !now.Before(until) {
			delete(s.claims, key)
			removed++
		}
	}
	return removed
}

var _ shared.IdempotencyStore = (*InMemoryIdempotencyStore)(nil)
