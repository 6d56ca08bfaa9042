package main

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	contactmetrics "contactlink/internal/contact/metrics"
	"contactlink/internal/platform/config"
)

func lockConfig(redisURL string) config.Server {
	return config.Server{
		Redis: config.RedisConfig{URL: redisURL, DialTimeout: 100 * time.Millisecond},
		Lock:  config.LockConfig{TTL: time.Second, Wait: 3 * time.Second, KeyPrefix: "test:lock:"},
	}
}

func TestNewLockerKeepsRedisWhenDownAtBoot(t *testing.T) {
	m := contactmetrics.New(prometheus.NewRegistry())
	log := slog.New(slog.NewTextHandler(io.Discard, nil))

	locker, client, err := newLocker(context.Background(), lockConfig("redis://127.0.0.1:1/0"), log, m)
	require.NoError(t, err)
	require.NotNil(t, client)
	t.Cleanup(func() { _ = client.Close() })

	unlock, err := locker.Lock(context.Background(), []string{"email:doc@hillvalley.edu"})
	require.NoError(t, err)
	unlock()

	assert.Equal(t, 1.0, testutil.ToFloat64(m.LockFallbacks), "unreachable redis is served by the local fallback")
}

func TestNewLockerWithoutRedis(t *testing.T) {
	m := contactmetrics.New(prometheus.NewRegistry())
	log := slog.New(slog.NewTextHandler(io.Discard, nil))

	locker, client, err := newLocker(context.Background(), lockConfig(""), log, m)
	require.NoError(t, err)
	assert.Nil(t, client)

	unlock, err := locker.Lock(context.Background(), []string{"phone:123456"})
	require.NoError(t, err)
	unlock()
	assert.Equal(t, 0.0, testutil.ToFloat64(m.LockFallbacks))
}

func TestNewLockerRejectsBadRedisURL(t *testing.T) {
	_, _, err := newLocker(context.Background(), lockConfig("memcached://localhost"), slog.Default(), nil)
	assert.Error(t, err)
}
