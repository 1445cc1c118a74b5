package payment

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/go-redis/redis/v8"
)

// ErrSessionNotFound means no gateway session is known for an order id.
var ErrSessionNotFound = errors.New("payment session not found")

// SessionIndex maps our order ids to the gateway's own session ids.
type SessionIndex interface {
	Put(ctx context.Context, orderID, sessionID string, ttl time.Duration) error
	Get(ctx context.Context, orderID string) (string, error)
}

const sessionKeyPrefix = "slotbook:payment:session:"

// RedisSessionIndex shares the mapping across instances.
type RedisSessionIndex struct {
	client *redis.Client
}

func NewRedisSessionIndex(client *redis.Client) *RedisSessionIndex {
	return &RedisSessionIndex{client: client}
}

func (r *RedisSessionIndex) Put(ctx context.Context, orderID, sessionID string, ttl time.Duration) error {
	if err := r.client.Set(ctx, sessionKeyPrefix+orderID, sessionID, ttl).Err(); err != nil {
		return fmt.Errorf("store payment session for %s: %w", orderID, err)
	}
	return nil
}

func (r *RedisSessionIndex) Get(ctx context.Context, orderID string) (string, error) {
	id, err := r.client.Get(ctx, sessionKeyPrefix+orderID).Result()
	if errors.Is(err, redis.Nil) {
		return "", ErrSessionNotFound
	}
	if err != nil {
		return "", fmt.Errorf("load payment session for %s: %w", orderID, err)
	}
	return id, nil
}

// MemorySessionIndex is the single-instance fallback. Lapsed entries are
// dropped on the next Put.
type MemorySessionIndex struct {
	mu      sync.RWMutex
	entries map[string]memorySession
	now     func() time.Time
}

type memorySession struct {
	sessionID string
	expiresAt time.Time
}

func NewMemorySessionIndex() *MemorySessionIndex {
	return &MemorySessionIndex{entries: make(map[string]memorySession), now: time.Now}
}

func (m *MemorySessionIndex) Put(_ context.Context, orderID, sessionID string, ttl time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	now := m.now()
	for id, e := range m.entries {
		if !now.Before(e.expiresAt) {
			delete(m.entries, id)
		}
	}
	m.entries[orderID] = memorySession{sessionID: sessionID, expiresAt: now.Add(ttl)}
	return nil
}

func (m *MemorySessionIndex) Get(_ context.Context, orderID string) (string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	e, ok := m.entries[orderID]
	if !ok || !m.now().Before(e.expiresAt) {
		return "", ErrSessionNotFound
	}
	return e.sessionID, nil
}
