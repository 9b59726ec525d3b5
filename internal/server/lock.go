package server

import (
	"context"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

// Locker serializes multi-step mutations against one competition so
// two admins cannot interleave a stage transition. Acquire reports
// ok=false when the key is already held.
type Locker interface {
	Acquire(ctx context.Context, key string) (release func(), ok bool, err error)
}

const lockTTL = 30 * time.Second

// redisLocker takes a SET NX lock, so serialization holds across
// multiple server instances sharing one Redis.
type redisLocker struct {
	client *redis.Client
}

func NewRedisLocker(client *redis.Client) Locker {
	return &redisLocker{client: client}
}

func (l *redisLocker) Acquire(ctx context.Context, key string) (func(), bool, error) {
	ok, err := l.client.SetNX(ctx, "lock:"+key, 1, lockTTL).Result()
	if err != nil {
		return nil, false, err
	}
	if !ok {
		return nil, false, nil
	}
	release := func() {
		l.client.Del(context.Background(), "lock:"+key)
	}
	return release, true, nil
}

// memoryLocker is the single-process fallback used when Redis is not
// configured, and in tests.
type memoryLocker struct {
	mu   sync.Mutex
	held map[string]bool
}

func NewMemoryLocker() Locker {
	return &memoryLocker{held: make(map[string]bool)}
}

func (l *memoryLocker) Acquire(_ context.Context, key string) (func(), bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.held[key] {
		return nil, false, nil
	}
	l.held[key] = true
	release := func() {
		l.mu.Lock()
		delete(l.held, key)
		l.mu.Unlock()
	}
	return release, true, nil
}
