package lock

import (
	"context"

	redis "github.com/redis/go-redis/v9"
	"github.com/smallbiznis/billingengine/internal/clock"
	"github.com/smallbiznis/billingengine/internal/config"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

var Module = fx.Module("lock",
	fx.Provide(NewLocker),
	fx.Provide(NewGuard),
)

// NewLocker returns a redis-backed Locker when REDIS_ADDR is set and a
// process-local one otherwise.
func NewLocker(lc fx.Lifecycle, cfg config.Config, c clock.Clock, log *zap.Logger) Locker {
	if cfg.RedisAddr == "" {
		log.Info("redis not configured, using in-process locks")
		return NewMemoryLocker(c)
	}

	client := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})
	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			return client.Ping(ctx).Err()
		},
		OnStop: func(context.Context) error {
			return client.Close()
		},
	})
	return NewRedisLocker(client)
}
