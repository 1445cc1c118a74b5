package utils

import (
	"context"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"

	"slotbook/config"
)

var (
	// CacheClient holds the payment session index.
	CacheClient *redis.Client
	// LockClient holds the sweeper lease.
	LockClient *redis.Client
)

func newRedisClient(db int) *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr:     config.AppConfig.RedisAddr,
		Password: config.AppConfig.RedisPassword,
		DB:       db,
	})
}

func ping(client *redis.Client, name string) error {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("failed to connect to Redis (%s): %w", name, err)
	}
	return nil
}

// InitRedis connects the cache and lock clients.
func InitRedis() error {
	cache := newRedisClient(config.AppConfig.RedisCacheDB)
	if err := ping(cache, "cache"); err != nil {
		cache.Close()
		return err
	}
	lock := newRedisClient(config.AppConfig.RedisLockDB)
	if err := ping(lock, "lock"); err != nil {
		cache.Close()
		lock.Close()
		return err
	}
	CacheClient = cache
	LockClient = lock
	return nil
}

// RedisClients lists the connected clients for health checks.
func RedisClients() []*redis.Client {
	var out []*redis.Client
	for _, c := range []*redis.Client{CacheClient, LockClient} {
		if c != nil {
			out = append(out, c)
		}
	}
	return out
}

func CloseRedis() {
	for _, c := range RedisClients() {
		c.Close()
	}
}
