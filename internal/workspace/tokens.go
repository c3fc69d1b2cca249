package workspace

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

// TokenStore remembers the session token of each client so a workspace that
// was evicted, or lost in a restart, comes back signed in.
type TokenStore interface {
	// Get returns the client's token, or "" when there is none.
	Get(ctx context.Context, clientID string) (string, error)
	Set(ctx context.Context, clientID, token string) error
	Delete(ctx context.Context, clientID string) error
}

// MemoryTokenStore keeps tokens in process memory.
type MemoryTokenStore struct {
	mu     sync.RWMutex
	tokens map[string]string
}

// NewMemoryTokenStore creates an empty in-memory store.
func NewMemoryTokenStore() *MemoryTokenStore {
	return &MemoryTokenStore{tokens: make(map[string]string)}
}

func (m *MemoryTokenStore) Get(_ context.Context, clientID string) (string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.tokens[clientID], nil
}

func (m *MemoryTokenStore) Set(_ context.Context, clientID, token string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.tokens[clientID] = token
	return nil
}

func (m *MemoryTokenStore) Delete(_ context.Context, clientID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.tokens, clientID)
	return nil
}

const redisKeyPrefix = "session:"

// RedisTokenStore keeps tokens in Redis with an expiry.
type RedisTokenStore struct {
	rdb *redis.Client
	ttl time.Duration
}

// NewRedisTokenStore creates a store over rdb. Tokens expire after ttl; zero
// keeps them until deleted.
func NewRedisTokenStore(rdb *redis.Client, ttl time.Duration) *RedisTokenStore {
	return &RedisTokenStore{rdb: rdb, ttl: ttl}
}

// ConnectRedis dials addr and pings it.
func ConnectRedis(ctx context.Context, addr string) (*redis.Client, error) {
	rdb := redis.NewClient(&redis.Options{Addr: addr})
	if _, err := rdb.Ping(ctx).Result(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("ping redis at %s: %w", addr, err)
	}
	return rdb, nil
}

func (r *RedisTokenStore) Get(ctx context.Context, clientID string) (string, error) {
	token, err := r.rdb.Get(ctx, redisKeyPrefix+clientID).Result()
	if errors.Is(err, redis.Nil) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("read session token: %w", err)
	}
	return token, nil
}

func (r *RedisTokenStore) Set(ctx context.Context, clientID, token string) error {
	if err := r.rdb.Set(ctx, redisKeyPrefix+clientID, token, r.ttl).Err(); err != nil {
		return fmt.Errorf("store session token: %w", err)
	}
	return nil
}

func (r *RedisTokenStore) Delete(ctx context.Context, clientID string) error {
	if err := r.rdb.Del(ctx, redisKeyPrefix+clientID).Err(); err != nil {
		return fmt.Errorf("delete session token: %w", err)
	}
	return nil
}
