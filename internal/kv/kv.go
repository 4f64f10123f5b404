// Package kv wraps the shared Redis instance used for pub/sub and
// cross-replica locks.
package kv

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/google/uuid"

	"instainstru/internal/config"
)

// ErrNotHeld is returned when releasing a lock whose token no longer matches.
var ErrNotHeld = errors.New("lock not held")

// NewClient connects to Redis and verifies the connection with PING.
func NewClient(ctx context.Context, cfg config.RedisConfig) (*redis.Client, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})
	pingCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	if err := rdb.Ping(pingCtx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("redis ping %s: %w", cfg.Addr, err)
	}
	return rdb, nil
}

// Locker hands out expiring exclusive locks.
type Locker interface {
	// TryLock returns a non-nil release func when the lock was taken and nil
	// when another holder has it.
	TryLock(ctx context.Context, key string, ttl time.Duration) (func(context.Context) error, error)
}

// compare-and-delete so a holder whose TTL lapsed cannot drop a newer lock.
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// RedisLocker implements Locker with SET NX PX.
type RedisLocker struct {
	rdb redis.Cmdable
}

// NewRedisLocker creates a Locker backed by rdb.
func NewRedisLocker(rdb redis.Cmdable) *RedisLocker {
	return &RedisLocker{rdb: rdb}
}

func (l *RedisLocker) TryLock(ctx context.Context, key string, ttl time.Duration) (func(context.Context) error, error) {
	token := uuid.NewString()
	ok, err := l.rdb.SetNX(ctx, key, token, ttl).Result()
	if err != nil {
		return nil, fmt.Errorf("lock %s: %w", key, err)
	}
	if !ok {
		return nil, nil
	}
	return func(ctx context.Context) error {
		n, err := releaseScript.Run(ctx, l.rdb, []string{key}, token).Int()
		if err != nil {
			return fmt.Errorf("unlock %s: %w", key, err)
		}
		if n == 0 {
			return ErrNotHeld
		}
		return nil
	}, nil
}
