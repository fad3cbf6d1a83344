package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const lockPrefix = "lunch:lock:"

var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0`)

// Locker hands out short-lived mutual exclusion keys in Redis. With a nil
// client every acquisition succeeds.
type Locker struct {
	client *redis.Client
	ttl    time.Duration
	logger *zap.Logger
}

// NewLocker constructs a Redis backed locker.
func NewLocker(client *redis.Client, ttl time.Duration, logger *zap.Logger) *Locker {
	if ttl <= 0 {
		ttl = 10 * time.Minute
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Locker{client: client, ttl: ttl, logger: logger}
}

// Acquire tries to take the named lock. The returned release func is never nil.
func (l *Locker) Acquire(ctx context.Context, name string) (bool, func(), error) {
	noop := func() {}
	if l == nil || l.client == nil {
		return true, noop, nil
	}

	key := lockPrefix + name
	owner := uuid.NewString()
	ok, err := l.client.SetNX(ctx, key, owner, l.ttl).Result()
	if err != nil {
		return false, noop, fmt.Errorf("redis setnx %s: %w", key, err)
	}
	if !ok {
		return false, noop, nil
	}

	release := func() {
		releaseCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		if err := releaseScript.Run(releaseCtx, l.client, []string{key}, owner).Err(); err != nil && err != redis.Nil {
			l.logger.Sugar().Warnw("failed to release lock", "key", key, "error", err)
		}
	}
	return true, release, nil
}
