package lock

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const (
	defaultKeyPrefix = "contactlink:lock:"
	defaultTTL       = 10 * time.Second
	defaultRetryMin  = 5 * time.Millisecond
	defaultRetryMax  = 100 * time.Millisecond
	releaseTimeout   = time.Second
)

// releaseScript deletes the key only while it still holds our token, so an
// expired lock taken over by someone else is left alone.
var releaseScript = redis.NewScript(`
if redis.call("get", KEYS[1]) == ARGV[1] then
	return redis.call("del", KEYS[1])
end
return 0
`)

// Redis is a distributed key locker. Each key is a SET NX PX entry holding
// a random token; keys are taken in sorted order.
type Redis struct {
	client redis.UniversalClient
	prefix string
	ttl    time.Duration
}

// RedisOption configures Redis.
type RedisOption func(*Redis)

// WithTTL sets how long a lock survives a crashed holder.
func WithTTL(ttl time.Duration) RedisOption {
	return func(r *Redis) {
		if ttl > 0 {
			r.ttl = ttl
		}
	}
}

// WithKeyPrefix namespaces lock keys.
func WithKeyPrefix(prefix string) RedisOption {
	return func(r *Redis) {
		r.prefix = prefix
	}
}

// NewRedis creates a Redis-backed locker.
func NewRedis(client redis.UniversalClient, opts ...RedisOption) *Redis {
	r := &Redis{client: client, prefix: defaultKeyPrefix, ttl: defaultTTL}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Lock acquires every key or none. It spins with backoff until ctx is done;
// a Redis failure is returned as is so callers can fall back.
func (r *Redis) Lock(ctx context.Context, keys []string) (func(), error) {
	token := uuid.NewString()
	var held []string
	release := func() {
		// The request context may already be cancelled; release on a fresh one.
		ctx, cancel := context.WithTimeout(context.Background(), releaseTimeout)
		defer cancel()
		for _, key := range held {
			_ = releaseScript.Run(ctx, r.client, []string{key}, token).Err()
		}
	}

	for _, key := range sortedKeys(keys) {
		redisKey := r.prefix + key
		if err := r.acquire(ctx, redisKey, token); err != nil {
			release()
			return nil, err
		}
		held = append(held, redisKey)
	}
	return release, nil
}

func (r *Redis) acquire(ctx context.Context, key, token string) error {
	wait := defaultRetryMin
	for {
		ok, err := r.client.SetNX(ctx, key, token, r.ttl).Result()
		if err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return ctxErr
			}
			return fmt.Errorf("acquire %s: %w", key, err)
		}
		if ok {
			return nil
		}
		timer := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}
		wait = min(wait*2, defaultRetryMax)
	}
}

// Ping reports whether Redis is reachable.
func (r *Redis) Ping(ctx context.Context) error {
	return r.client.Ping(ctx).Err()
}

// IsContextError reports whether err only means the caller gave up waiting.
func IsContextError(err error) bool {
	return errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)
}
