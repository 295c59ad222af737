// Package lock serializes work on a single resource across engine instances.
package lock

import (
	"context"
	"errors"
	"time"
)

var (
	// ErrNotAcquired is returned when the lock stayed held for every attempt.
	ErrNotAcquired = errors.New("lock_not_acquired")

	errEmptyKey   = errors.New("lock key is empty")
	errInvalidTTL = errors.New("lock ttl must be positive")
)

// Locker is a try-lock keyed by string. The returned token must be handed
// back to Release; a release with a stale token is a no-op.
type Locker interface {
	TryLock(ctx context.Context, key string, ttl time.Duration) (token string, ok bool, err error)
	Release(ctx context.Context, key, token string) error
}

func validate(key string, ttl time.Duration) error {
	if key == "" {
		return errEmptyKey
	}
	if ttl <= 0 {
		return errInvalidTTL
	}
	return nil
}
