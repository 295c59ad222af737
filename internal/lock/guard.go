package lock

import (
	"context"
	"errors"
	"time"

	"github.com/smallbiznis/billingengine/internal/config"
	obsmetrics "github.com/smallbiznis/billingengine/internal/observability/metrics"
	"github.com/smallbiznis/billingengine/pkg/retry"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

var errHeld = errors.New("lock held")

type GuardParam struct {
	fx.In

	Locker     Locker
	Log        *zap.Logger
	Engine     *config.EngineConfigHolder
	ObsMetrics *obsmetrics.Metrics `optional:"true"`
}

// Guard runs a function while holding a lock, retrying acquisition with the
// configured bounded policy.
type Guard struct {
	locker     Locker
	log        *zap.Logger
	engine     *config.EngineConfigHolder
	obsMetrics *obsmetrics.Metrics
}

func NewGuard(p GuardParam) *Guard {
	return &Guard{
		locker:     p.Locker,
		log:        p.Log.Named("lock.guard"),
		engine:     p.Engine,
		obsMetrics: p.ObsMetrics,
	}
}

// WithLock acquires key, runs fn and releases key. resource labels
// contention metrics. It returns ErrNotAcquired when the lock stayed held.
func (g *Guard) WithLock(ctx context.Context, resource, key string, fn func(ctx context.Context) error) error {
	cfg := g.engine.Get()
	policy := retry.Policy{
		MaxAttempts:    cfg.LockRetry.MaxAttempts,
		InitialBackoff: cfg.LockRetry.InitialBackoff,
		MaxBackoff:     cfg.LockRetry.MaxBackoff,
		Retryable:      func(err error) bool { return errors.Is(err, errHeld) },
	}

	var token string
	err := policy.Do(ctx, func(ctx context.Context) error {
		t, ok, err := g.locker.TryLock(ctx, key, cfg.RecalculationLockTTL)
		if err != nil {
			return err
		}
		if !ok {
			g.obsMetrics.RecordLockContention(ctx, resource)
			return errHeld
		}
		token = t
		return nil
	})
	if err != nil {
		if errors.Is(err, errHeld) {
			g.log.Warn("lock not acquired", zap.String("key", key))
			return ErrNotAcquired
		}
		return err
	}

	defer func() {
		releaseCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
		defer cancel()
		if err := g.locker.Release(releaseCtx, key, token); err != nil {
			g.log.Warn("failed to release lock", zap.String("key", key), zap.Error(err))
		}
	}()

	return fn(ctx)
}
