// Package session tracks issued tokens so logins can be revoked before the
// token itself expires.
package session

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"sync"
	"time"

	"github.com/go-redis/redis/v8"
)

// Store records issued-token sessions keyed by token hash.
type Store interface {
	Register(ctx context.Context, tokenHash, principal string, ttl time.Duration) error
	Revoke(ctx context.Context, tokenHash string) error
	Active(ctx context.Context, tokenHash string) (string, bool, error)
}

// HashToken derives the storage key for a raw token. Raw tokens are never
// persisted.
func HashToken(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}

const keyPrefix = "session:"

// RedisStore keeps sessions in redis with a TTL matching the token expiry.
type RedisStore struct {
	client *redis.Client
}

// NewRedisStore creates a redis-backed session store.
func NewRedisStore(addr, password string, db int) *RedisStore {
	return &RedisStore{
		client: redis.NewClient(&redis.Options{
			Addr:     addr,
			Password: password,
			DB:       db,
		}),
	}
}

func (s *RedisStore) Register(ctx context.Context, tokenHash, principal string, ttl time.Duration) error {
	return s.client.Set(ctx, keyPrefix+tokenHash, principal, ttl).Err()
}

func (s *RedisStore) Revoke(ctx context.Context, tokenHash string) error {
	return s.client.Del(ctx, keyPrefix+tokenHash).Err()
}

func (s *RedisStore) Active(ctx context.Context, tokenHash string) (string, bool, error) {
	principal, err := s.client.Get(ctx, keyPrefix+tokenHash).Result()
	if err == redis.Nil {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return principal, true, nil
}

// Ping verifies connectivity to redis.
func (s *RedisStore) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}

// MemoryStore is an in-process session store for tests and local runs.
type MemoryStore struct {
	mu       sync.RWMutex
	sessions map[string]memorySession
}

type memorySession struct {
	principal string
	expiresAt time.Time
}

// NewMemoryStore creates an empty in-memory session store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{sessions: make(map[string]memorySession)}
}

func (s *MemoryStore) Register(ctx context.Context, tokenHash, principal string, ttl time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions[tokenHash] = memorySession{
		principal: principal,
		expiresAt: time.Now().Add(ttl),
	}
	return nil
}

func (s *MemoryStore) Revoke(ctx context.Context, tokenHash string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, tokenHash)
	return nil
}

func (s *MemoryStore) Active(ctx context.Context, tokenHash string) (string, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	sess, ok := s.sessions[tokenHash]
	if !ok || time.Now().After(sess.expiresAt) {
		return "", false, nil
	}
	return sess.principal, true, nil
}

var (
	_ Store = (*RedisStore)(nil)
	_ Store = (*MemoryStore)(nil)
)
