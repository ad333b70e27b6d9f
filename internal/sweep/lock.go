package sweep

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/bilsportlisens/lisensbutikk-backend/pkg/redis"
)

const defaultLockTTL = 10 * time.Minute

// Lock coordinates exclusive sweeper runs across instances.
type Lock interface {
	Acquire(ctx context.Context) (bool, error)
	Release(ctx context.Context) error
}

// RedisLock implements Lock using the shared Redis lock helpers.
type RedisLock struct {
	locker redis.Locker
	name   string
	ttl    time.Duration
	held   bool
}

// NewRedisLock constructs a Redis backed sweep lock.
func NewRedisLock(locker redis.Locker, name string, ttl time.Duration) (*RedisLock, error) {
	if locker == nil {
		return nil, errors.New("redis locker required")
	}
	if name == "" {
		return nil, errors.New("lock name is required")
	}
	if ttl <= 0 {
		ttl = defaultLockTTL
	}
	return &RedisLock{locker: locker, name: name, ttl: ttl}, nil
}

// Acquire tries to own the lock for the configured TTL.
func (l *RedisLock) Acquire(ctx context.Context) (bool, error) {
	ok, err := l.locker.AcquireLock(ctx, l.name, uuid.NewString(), l.ttl)
	if err != nil {
		return false, fmt.Errorf("acquire sweep lock: %w", err)
	}
	l.held = ok
	return ok, nil
}

// Release frees the lock if this instance holds it.
func (l *RedisLock) Release(ctx context.Context) error {
	if !l.held {
		return nil
	}
	if err := l.locker.ReleaseLock(ctx, l.name); err != nil {
		return fmt.Errorf("release sweep lock: %w", err)
	}
	l.held = false
	return nil
}
