package auth

import (
	"context"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

// RevocationStore remembers refresh tokens that may no longer be used.
type RevocationStore interface {
	Revoke(ctx context.Context, tokenID string, until time.Time) error
	// Claim revokes tokenID and reports whether this call did so. Exactly one
	// of several concurrent claims of the same id succeeds.
	Claim(ctx context.Context, tokenID string, until time.Time) (bool, error)
}

// RedisRevocationStore keeps revoked token ids as expiring Redis keys.
type RedisRevocationStore struct {
	client *redis.Client
	prefix string
}

func NewRedisRevocationStore(client *redis.Client) *RedisRevocationStore {
	return &RedisRevocationStore{client: client, prefix: "auth:revoked:"}
}

func (s *RedisRevocationStore) Revoke(ctx context.Context, tokenID string, until time.Time) error {
	return s.client.Set(ctx, s.prefix+tokenID, "1", revocationTTL(until)).Err()
}

func (s *RedisRevocationStore) Claim(ctx context.Context, tokenID string, until time.Time) (bool, error) {
	return s.client.SetNX(ctx, s.prefix+tokenID, "1", revocationTTL(until)).Result()
}

// revocationTTL keeps a key at least a second so a token at the edge of its
// lifetime cannot be claimed twice.
func revocationTTL(until time.Time) time.Duration {
	ttl := time.Until(until)
	if ttl < time.Second {
		return time.Second
	}
	return ttl
}

// MemoryRevocationStore is an in-process RevocationStore.
type MemoryRevocationStore struct {
	mu      sync.Mutex
	now     func() time.Time
	revoked map[string]time.Time
}

func NewMemoryRevocationStore() *MemoryRevocationStore {
	return &MemoryRevocationStore{now: time.Now, revoked: make(map[string]time.Time)}
}

func (s *MemoryRevocationStore) Revoke(_ context.Context, tokenID string, until time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.revoked[tokenID] = until
	return nil
}

func (s *MemoryRevocationStore) Claim(_ context.Context, tokenID string, until time.Time) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if prev, ok := s.revoked[tokenID]; ok && s.now().Before(prev) {
		return false, nil
	}
	s.revoked[tokenID] = until
	s.prune()
	return true, nil
}

// prune drops ids whose tokens have expired. Callers hold mu.
func (s *MemoryRevocationStore) prune() {
	now := s.now()
	for id, until := range s.revoked {
		if !now.Before(until) {
			delete(s.revoked, id)
		}
	}
}
