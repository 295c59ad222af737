package lock

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/smallbiznis/billingengine/internal/clock"
)

type heldLock struct {
	token     string
	expiresAt time.Time
}

// MemoryLocker is a process-local Locker for single-instance deployments
// and tests. Expired locks are reclaimed on the next TryLock.
type MemoryLocker struct {
	mu    sync.Mutex
	clock clock.Clock
	held  map[string]heldLock
}

func NewMemoryLocker(c clock.Clock) *MemoryLocker {
	if c == nil {
		c = clock.NewSystemClock()
	}
	return &MemoryLocker{
		clock: c,
		held:  make(map[string]heldLock),
	}
}

func (l *MemoryLocker) TryLock(_ context.Context, key string, ttl time.Duration) (string, bool, error) {
	if err := validate(key, ttl); err != nil {
		return "", false, err
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.clock.Now()
	if cur, ok := l.held[key]; ok && now.Before(cur.expiresAt) {
		return "", false, nil
	}

	token := uuid.NewString()
	l.held[key] = heldLock{token: token, expiresAt: now.Add(ttl)}
	return token, true, nil
}

func (l *MemoryLocker) Release(_ context.Context, key, token string) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if cur, ok := l.held[key]; ok && cur.token == token {
		delete(l.held, key)
	}
	return nil
}
