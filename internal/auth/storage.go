package auth

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

// SessionStorage persists the client session between process restarts.
// Load returns nil without an error when nothing is stored.
type SessionStorage interface {
	Load(ctx context.Context, key string) (*Session, error)
	Save(ctx context.Context, key string, session *Session) error
	Delete(ctx context.Context, key string) error
}

// RedisSessionStorage stores sessions as JSON values.
type RedisSessionStorage struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisSessionStorage keeps sessions for ttl after their last save; zero
// keeps them until deleted.
func NewRedisSessionStorage(client *redis.Client, ttl time.Duration) *RedisSessionStorage {
	return &RedisSessionStorage{client: client, ttl: ttl}
}

func (s *RedisSessionStorage) Load(ctx context.Context, key string) (*Session, error) {
	raw, err := s.client.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var session Session
	if err := json.Unmarshal(raw, &session); err != nil {
		return nil, err
	}
	return &session, nil
}

func (s *RedisSessionStorage) Save(ctx context.Context, key string, session *Session) error {
	raw, err := json.Marshal(session)
	if err != nil {
		return err
	}
	return s.client.Set(ctx, key, raw, s.ttl).Err()
}

func (s *RedisSessionStorage) Delete(ctx context.Context, key string) error {
	return s.client.Del(ctx, key).Err()
}

// MemorySessionStorage keeps sessions in process memory.
type MemorySessionStorage struct {
	mu       sync.Mutex
	sessions map[string]Session
}

func NewMemorySessionStorage() *MemorySessionStorage {
	return &MemorySessionStorage{sessions: make(map[string]Session)}
}

func (s *MemorySessionStorage) Load(_ context.Context, key string) (*Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	session, ok := s.sessions[key]
	if !ok {
		return nil, nil
	}
	return &session, nil
}

func (s *MemorySessionStorage) Save(_ context.Context, key string, session *Session) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions[key] = *session
	return nil
}

func (s *MemorySessionStorage) Delete(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, key)
	return nil
}
