package scheduler

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/google/uuid"
)

// Locker guards a job so that only one instance runs it at a time.
type Locker interface {
	// Acquire returns ok=false when another holder owns key.
	Acquire(ctx context.Context, key string, ttl time.Duration) (release func(), ok bool, err error)
}

// LocalLock guards keys within one process. Used when the service runs as a
// single instance. The ttl is ignored: a local holder always releases.
type LocalLock struct {
	mu   sync.Mutex
	held map[string]bool
}

// NewLocalLock creates an in-process lock.
func NewLocalLock() *LocalLock {
	return &LocalLock{held: map[string]bool{}}
}

func (l *LocalLock) Acquire(_ context.Context, key string, _ time.Duration) (func(), bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.held[key] {
		return nil, false, nil
	}
	l.held[key] = true

	var once sync.Once
	release := func() {
		once.Do(func() {
			l.mu.Lock()
			delete(l.held, key)
			l.mu.Unlock()
		})
	}
	return release, true, nil
}

// releaseScript deletes the key only if it still holds our token.
const releaseScript = `if redis.call("get", KEYS[1]) == ARGV[1] then return redis.call("del", KEYS[1]) else return 0 end`

// RedisLock is a SET NX PX lock shared by all instances using the same Redis.
type RedisLock struct {
	client redis.Cmdable
	logger *slog.Logger
}

// NewRedisLock creates a lock backed by client. logger may be nil.
func NewRedisLock(client redis.Cmdable, logger *slog.Logger) *RedisLock {
	if logger == nil {
		logger = slog.Default()
	}
	return &RedisLock{client: client, logger: logger}
}

// Acquire sets key to a random token if it is unset. The lock expires after
// ttl even if the holder never releases it.
func (l *RedisLock) Acquire(ctx context.Context, key string, ttl time.Duration) (func(), bool, error) {
	token := uuid.New().String()
	ok, err := l.client.SetNX(ctx, key, token, ttl).Result()
	if err != nil {
		return nil, false, fmt.Errorf("failed to acquire lock %s: %w", key, err)
	}
	if !ok {
		return nil, false, nil
	}

	release := func() {
		// Use a fresh context: the caller's may already be cancelled.
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		deleted, err := l.client.Eval(ctx, releaseScript, []string{key}, token).Int64()
		if err != nil {
			l.logger.Warn("failed to release lock, it expires after its ttl", "key", key, "error", err)
			return
		}
		if deleted == 0 {
			l.logger.Warn("lock expired before release", "key", key, "ttl", ttl)
		}
	}
	return release, true, nil
}
