package store

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"album-rotation/internal/status"
	"album-rotation/utils"

	"github.com/redis/go-redis/v9"
)

// Deletes the lock only if it still holds our token.
const releaseLockScript = `
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`

// RedisLocker is a SET NX PX lock shared by every worker pointing at the
// same Redis. The TTL bounds how long a crashed holder blocks others.
type RedisLocker struct {
	client        *redis.Client
	key           string
	ttl           time.Duration
	retryInterval time.Duration
	waitTimeout   time.Duration
	newToken      func() (string, error)
}

func NewRedisLocker(client *redis.Client, key string, ttl, retryInterval, waitTimeout time.Duration) *RedisLocker {
	return &RedisLocker{
		client:        client,
		key:           key,
		ttl:           ttl,
		retryInterval: retryInterval,
		waitTimeout:   waitTimeout,
		newToken: func() (string, error) {
			return utils.GenerateCode(16)
		},
	}
}

func (l *RedisLocker) Lock(ctx context.Context) (func(), error) {
	token, err := l.newToken()
	if err != nil {
		return nil, fmt.Errorf("generate lock token: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, l.waitTimeout)
	defer cancel()

	for {
		ok, err := l.client.SetNX(ctx, l.key, token, l.ttl).Result()
		if err != nil {
			if ctx.Err() != nil {
				return nil, fmt.Errorf("%w: %s", status.ErrLockTimeout, l.key)
			}
			return nil, fmt.Errorf("acquire lock %s: %w", l.key, err)
		}
		if ok {
			return func() { l.release(token) }, nil
		}

		select {
		case <-ctx.Done():
			return nil, fmt.Errorf("%w: %s", status.ErrLockTimeout, l.key)
		case <-time.After(l.retryInterval):
		}
	}
}

func (l *RedisLocker) release(token string) {
	// The caller's context may already be cancelled; release regardless.
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	deleted, err := l.client.Eval(ctx, releaseLockScript, []string{l.key}, token).Int()
	if err != nil {
		slog.Error("Failed to release snapshot lock", "key", l.key, "error", err)
		return
	}
	if deleted == 0 {
		slog.Warn("Snapshot lock expired before release", "key", l.key)
	}
}
