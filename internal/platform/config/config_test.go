package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestFromEnvDefaults(t *testing.T) {
	for _, key := range []string{"CONTACTLINK_ADDR", "STORE_DRIVER", "DATABASE_URL", "REDIS_URL", "LOCK_TTL", "TX_MAX_RETRIES", "CORS_ALLOWED_ORIGINS", "LOCK_KEY_PREFIX"} {
		t.Setenv(key, "")
	}

	cfg := FromEnv()

	assert.Equal(t, ":8080", cfg.Addr)
	assert.Equal(t, DriverSQLite, cfg.Store.Driver)
	assert.Equal(t, "./contactlink.db", cfg.Store.DatabaseURL)
	assert.Equal(t, 3, cfg.Store.TxMaxRetries)
	assert.Equal(t, 10*time.Second, cfg.Lock.TTL)
	assert.Empty(t, cfg.Redis.URL)
	assert.Nil(t, cfg.CORSOrigins)
	assert.Equal(t, "contactlink:lock:", cfg.Lock.KeyPrefix)
}

func TestFromEnvOverrides(t *testing.T) {
	t.Setenv("CONTACTLINK_ADDR", ":9090")
	t.Setenv("STORE_DRIVER", "postgres")
	t.Setenv("DATABASE_URL", "postgres://localhost/contacts")
	t.Setenv("LOCK_TTL", "3s")
	t.Setenv("TX_MAX_RETRIES", "7")
	t.Setenv("CORS_ALLOWED_ORIGINS", "https://shop.example.com, https://admin.example.com, ,https://shop.example.com")
	t.Setenv("LOCK_KEY_PREFIX", "staging:lock:")
	t.Setenv("INTEGRITY_SWEEP_SCHEDULE", "@every 1h")

	cfg := FromEnv()

	assert.Equal(t, ":9090", cfg.Addr)
	assert.Equal(t, DriverPostgres, cfg.Store.Driver)
	assert.Equal(t, "postgres://localhost/contacts", cfg.Store.DatabaseURL)
	assert.Equal(t, 3*time.Second, cfg.Lock.TTL)
	assert.Equal(t, 7, cfg.Store.TxMaxRetries)
	assert.Equal(t, []string{"https://shop.example.com", "https://admin.example.com"}, cfg.CORSOrigins)
	assert.Equal(t, "@every 1h", cfg.IntegrityCron)
	assert.Equal(t, "staging:lock:", cfg.Lock.KeyPrefix)
}

func TestInvalidDurationFallsBack(t *testing.T) {
	t.Setenv("TX_TIMEOUT", "soon")
	assert.Equal(t, 5*time.Second, FromEnv().Store.TxTimeout)
}
