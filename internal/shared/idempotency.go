package shared

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

// ErrIdempotencyConflict indicates a duplicate key.
var ErrIdempotencyConflict = errors.New("idempotent request already processed")

// memoryPruneThreshold bounds the in-memory key set before expired keys are swept.
const memoryPruneThreshold = 1024

// IdempotencyStore records processed request keys for a retention window.
// With a nil client keys are held in process memory.
type IdempotencyStore struct {
	client    redis.UniversalClient
	retention time.Duration

	mu   sync.Mutex
	seen map[string]time.Time
	now  func() time.Time
}

// NewIdempotencyStore constructs the store.
func NewIdempotencyStore(client redis.UniversalClient, retention time.Duration) *IdempotencyStore {
	return &IdempotencyStore{
		client:    client,
		retention: retention,
		seen:      make(map[string]time.Time),
		now:       time.Now,
	}
}

// CheckAndInsert ensures key uniqueness per module.
func (s *IdempotencyStore) CheckAndInsert(ctx context.Context, key, module string) error {
	if s == nil {
		return errors.New("idempotency store not initialised")
	}
	if key == "" {
		return errors.New("idempotency key required")
	}
	if module == "" {
		return errors.New("idempotency module required")
	}
	full := "idempotency:" + module + ":" + key
	if s.client != nil {
		ok, err := s.client.SetNX(ctx, full, s.now().Unix(), s.retention).Result()
		if err != nil {
			return err
		}
		if !ok {
			return ErrIdempotencyConflict
		}
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	now := s.now()
	if len(s.seen) >= memoryPruneThreshold {
		s.pruneLocked(now)
	}
	if at, ok := s.seen[full]; ok && now.Sub(at) < s.retention {
		return ErrIdempotencyConflict
	}
	s.seen[full] = now
	return nil
}

// Cleanup removes in-memory entries older than the retention window.
func (s *IdempotencyStore) Cleanup() {
	if s == nil {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pruneLocked(s.now())
}

func (s *IdempotencyStore) pruneLocked(now time.Time) {
	cutoff := now.Add(-s.retention)
	for key, at := range s.seen {
		if at.Before(cutoff) {
			delete(s.seen, key)
		}
	}
}

// Delete removes a key, typically used to roll back failed processing.
func (s *IdempotencyStore) Delete(ctx context.Context, key, module string) error {
	if s == nil {
		return nil
	}
	if key == "" {
		return errors.New("idempotency key required")
	}
	full := "idempotency:" + module + ":" + key
	if s.client != nil {
		return s.client.Del(ctx, full).Err()
	}
	s.mu.Lock()
	delete(s.seen, full)
	s.mu.Unlock()
	return nil
}
