package sweeper

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/google/uuid"
)

// Locker elects at most one sweeping instance per tick. Holding the lock is an
// optimisation only; every delete is conditional anyway.
type Locker interface {
	TryLock(ctx context.Context, ttl time.Duration) (bool, error)
	Unlock(ctx context.Context) error
}

// NoopLocker always grants the lock.
type NoopLocker struct{}

func (NoopLocker) TryLock(context.Context, time.Duration) (bool, error) { return true, nil }
func (NoopLocker) Unlock(context.Context) error                         { return nil }

const lockKey = "slotbook:sweeper:lock"

// releaseScript deletes the lease only while it still carries our token, so a
// lease that lapsed and was taken by another instance is left alone.
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// RedisLocker takes a SET NX PX lease. The ttl bounds how long a crashed
// holder can block the others; a healthy holder releases it after each sweep.
type RedisLocker struct {
	client *redis.Client
	token  string
}

func NewRedisLocker(client *redis.Client) *RedisLocker {
	return &RedisLocker{client: client, token: uuid.NewString()}
}

func (l *RedisLocker) TryLock(ctx context.Context, ttl time.Duration) (bool, error) {
	ok, err := l.client.SetNX(ctx, lockKey, l.token, ttl).Result()
	if err != nil {
		return false, fmt.Errorf("acquire sweeper lock: %w", err)
	}
	return ok, nil
}

func (l *RedisLocker) Unlock(ctx context.Context) error {
	if err := releaseScript.Run(ctx, l.client, []string{lockKey}, l.token).Err(); err != nil && !errors.Is(err, redis.Nil) {
		return fmt.Errorf("release sweeper lock: %w", err)
	}
	return nil
}
