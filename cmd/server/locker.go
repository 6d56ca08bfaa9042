package main

import (
	"context"
	"log/slog"

	"contactlink/internal/contact/lock"
	contactmetrics "contactlink/internal/contact/metrics"
	"contactlink/internal/platform/config"
	"contactlink/internal/platform/redis"
)

// newLocker builds the per-key locker. With REDIS_URL set the Redis locker
// is always installed, even when Redis is down at boot, so the fallback's
// breaker can move back to it once Redis recovers. The returned client is
// nil when Redis is not configured.
func newLocker(ctx context.Context, cfg config.Server, log *slog.Logger, m *contactmetrics.Metrics) (*lock.Fallback, *redis.Client, error) {
	client, err := redis.New(cfg.Redis)
	if err != nil {
		return nil, nil, err
	}

	var distributed lock.Distributed
	if client != nil {
		if err := client.Health(ctx); err != nil {
			log.Warn("redis unreachable at startup, locking in-process until it recovers", "error", err)
		}
		distributed = lock.NewRedis(client.Client,
			lock.WithTTL(cfg.Lock.TTL),
			lock.WithKeyPrefix(cfg.Lock.KeyPrefix),
		)
	}
	locker := lock.NewFallback(distributed,
		lock.WithWait(cfg.Lock.Wait),
		lock.WithMetrics(m),
		lock.WithLogger(log),
	)
	return locker, client, nil
}
