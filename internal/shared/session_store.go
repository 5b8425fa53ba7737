package shared

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisSessionStore keeps sessions in Redis and relies on key expiry.
type RedisSessionStore struct {
	client redis.UniversalClient
	prefix string
}

// NewRedisSessionStore constructs a Redis-backed store.
func NewRedisSessionStore(client redis.UniversalClient) *RedisSessionStore {
	return &RedisSessionStore{client: client, prefix: "session:"}
}

func (s *RedisSessionStore) Get(ctx context.Context, id string) ([]byte, error) {
	payload, err := s.client.Get(ctx, s.prefix+id).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrSessionNotFound
	}
	return payload, err
}

func (s *RedisSessionStore) Set(ctx context.Context, id string, payload []byte, ttl time.Duration) error {
	return s.client.Set(ctx, s.prefix+id, payload, ttl).Err()
}

func (s *RedisSessionStore) Delete(ctx context.Context, id string) error {
	err := s.client.Del(ctx, s.prefix+id).Err()
	if errors.Is(err, redis.Nil) {
		return nil
	}
	return err
}

type memoryEntry struct {
	payload   []byte
	expiresAt time.Time
}

// MemorySessionStore keeps sessions in process memory. Expired entries are
// hidden on read and removed by Prune.
type MemorySessionStore struct {
	mu      sync.Mutex
	entries map[string]memoryEntry
	now     func() time.Time
}

// NewMemorySessionStore constructs an empty in-memory store.
func NewMemorySessionStore() *MemorySessionStore {
	return &MemorySessionStore{entries: make(map[string]memoryEntry), now: time.Now}
}

func (s *MemorySessionStore) Get(_ context.Context, id string) ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	entry, ok := s.entries[id]
	if !ok || !s.now().Before(entry.expiresAt) {
		return nil, ErrSessionNotFound
	}
	return append([]byte(nil), entry.payload...), nil
}

func (s *MemorySessionStore) Set(_ context.Context, id string, payload []byte, ttl time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries[id] = memoryEntry{payload: append([]byte(nil), payload...), expiresAt: s.now().Add(ttl)}
	return nil
}

func (s *MemorySessionStore) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.entries, id)
	return nil
}

// Prune drops expired sessions and reports how many were removed.
func (s *MemorySessionStore) Prune() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := s.now()
	removed := 0
	for id, entry := range s.entries {
		if !now.Before(entry.expiresAt) {
			delete(s.entries, id)
			removed++
		}
	}
	return removed
}

// Len returns the number of stored sessions, expired or not.
func (s *MemorySessionStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.entries)
}

// RunPruner calls Prune every interval until ctx is cancelled.
func (s *MemorySessionStore) RunPruner(ctx context.Context, interval time.Duration, logger *slog.Logger) {
	if interval <= 0 {
		return
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n := s.Prune(); n > 0 && logger != nil {
				logger.Info("pruned expired sessions", slog.Int("count", n))
			}
		}
	}
}
