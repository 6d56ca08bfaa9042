package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	pstrings "contactlink/pkg/platform/strings"
)

// Store drivers accepted by STORE_DRIVER.
const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
	DriverMemory   = "memory"
)

// Server captures process level configuration.
type Server struct {
	Addr            string
	LogLevel        string
	ShutdownTimeout time.Duration
	RequestTimeout  time.Duration
	CORSOrigins     []string

	Store         StoreConfig
	Redis         RedisConfig
	Lock          LockConfig
	IntegrityCron string
}

// StoreConfig selects and tunes the contact store.
type StoreConfig struct {
	Driver       string
	DatabaseURL  string
	TxTimeout    time.Duration
	TxMaxRetries int
	MaxOpenConns int
}

// RedisConfig configures the optional Redis client. An empty URL disables Redis.
type RedisConfig struct {
	URL          string
	PoolSize     int
	MinIdleConns int
	DialTimeout  time.Duration
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

// LockConfig tunes per-key request serialization. KeyPrefix namespaces the
// Redis lock keys so several deployments can share one Redis.
type LockConfig struct {
	TTL       time.Duration
	Wait      time.Duration
	KeyPrefix string
}

// FromEnv builds a Server config from environment variables so main stays lean.
// A .env file in the working directory is loaded first when present; variables
// already set in the environment win.
func FromEnv() Server {
	_ = godotenv.Load()

	return Server{
		Addr:            envString("CONTACTLINK_ADDR", ":8080"),
		LogLevel:        envString("LOG_LEVEL", "info"),
		ShutdownTimeout: envDuration("SHUTDOWN_TIMEOUT", 10*time.Second),
		RequestTimeout:  envDuration("REQUEST_TIMEOUT", 30*time.Second),
		CORSOrigins:     envList("CORS_ALLOWED_ORIGINS"),
		Store: StoreConfig{
			Driver:       envString("STORE_DRIVER", DriverSQLite),
			DatabaseURL:  envString("DATABASE_URL", "./contactlink.db"),
			TxTimeout:    envDuration("TX_TIMEOUT", 5*time.Second),
			TxMaxRetries: envInt("TX_MAX_RETRIES", 3),
			MaxOpenConns: envInt("DB_MAX_OPEN_CONNS", 20),
		},
		Redis: RedisConfig{
			URL:          os.Getenv("REDIS_URL"),
			PoolSize:     envInt("REDIS_POOL_SIZE", 10),
			MinIdleConns: envInt("REDIS_MIN_IDLE_CONNS", 2),
			DialTimeout:  envDuration("REDIS_DIAL_TIMEOUT", 2*time.Second),
			ReadTimeout:  envDuration("REDIS_READ_TIMEOUT", time.Second),
			WriteTimeout: envDuration("REDIS_WRITE_TIMEOUT", time.Second),
		},
		Lock: LockConfig{
			TTL:       envDuration("LOCK_TTL", 10*time.Second),
			Wait:      envDuration("LOCK_WAIT", 5*time.Second),
			KeyPrefix: envString("LOCK_KEY_PREFIX", "contactlink:lock:"),
		},
		IntegrityCron: os.Getenv("INTEGRITY_SWEEP_SCHEDULE"),
	}
}

func envString(key, fallback string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	if v, err := strconv.Atoi(os.Getenv(key)); err == nil {
		return v
	}
	return fallback
}

func envDuration(key string, fallback time.Duration) time.Duration {
	if v, err := time.ParseDuration(os.Getenv(key)); err == nil && v > 0 {
		return v
	}
	return fallback
}

func envList(key string) []string {
	out := pstrings.DedupeAndTrim(strings.Split(os.Getenv(key), ","))
	if len(out) == 0 {
		return nil
	}
	return out
}
