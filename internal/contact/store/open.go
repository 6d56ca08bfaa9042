package store

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"strings"

	_ "github.com/jackc/pgx/v5/stdlib"

	"contactlink/internal/contact/service"
	"contactlink/internal/platform/config"
)

// Backend is an opened contact store ready for the service.
type Backend struct {
	Tx      service.ContactStoreTx
	DB      *sql.DB
	Dialect Dialect
}

// Open connects the backend selected by cfg.Driver. The memory driver needs
// no connection and leaves DB nil.
func Open(ctx context.Context, cfg config.StoreConfig, logger *slog.Logger, opts ...Option) (*Backend, error) {
	var (
		driverName string
		dsn        string
		dialect    Dialect
		isolation  = sql.LevelDefault
	)
	switch cfg.Driver {
	case config.DriverMemory:
		return &Backend{Tx: NewInMemory(opts...)}, nil
	case config.DriverPostgres:
		driverName, dsn, dialect, isolation = "pgx", cfg.DatabaseURL, DialectPostgres, sql.LevelSerializable
	case config.DriverSQLite:
		driverName, dsn, dialect = "sqlite3", sqliteDSN(cfg.DatabaseURL), DialectSQLite
	default:
		return nil, fmt.Errorf("unknown store driver %q", cfg.Driver)
	}

	db, err := sql.Open(driverName, dsn)
	if err != nil {
		return nil, fmt.Errorf("open %s database: %w", dialect, err)
	}
	if dialect == DialectSQLite {
		db.SetMaxOpenConns(1)
	} else if cfg.MaxOpenConns > 0 {
		db.SetMaxOpenConns(cfg.MaxOpenConns)
		db.SetMaxIdleConns(cfg.MaxOpenConns)
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping %s database: %w", dialect, err)
	}

	var contacts service.Store
	if dialect == DialectPostgres {
		contacts = NewPostgres(db, opts...)
	} else {
		contacts = NewSQLite(db, opts...)
	}
	return &Backend{
		Tx: NewSQLTx(db, contacts,
			WithTxTimeout(cfg.TxTimeout),
			WithMaxRetries(cfg.TxMaxRetries),
			WithIsolation(isolation),
			WithTxLogger(logger),
		),
		DB:      db,
		Dialect: dialect,
	}, nil
}

// Migrate applies the schema for SQL backends and is a no-op for memory.
func (b *Backend) Migrate(ctx context.Context) error {
	if b.DB == nil {
		return nil
	}
	return Migrate(ctx, b.DB, b.Dialect)
}

// Health pings the database when there is one.
func (b *Backend) Health(ctx context.Context) error {
	if b.DB == nil {
		return nil
	}
	return b.DB.PingContext(ctx)
}

func (b *Backend) Close() error {
	if b.DB == nil {
		return nil
	}
	return b.DB.Close()
}

// sqliteDSN turns a path into a go-sqlite3 DSN with foreign keys on, a busy
// timeout and write transactions that take the lock up front.
func sqliteDSN(path string) string {
	if strings.Contains(path, "?") {
		return path
	}
	if !strings.HasPrefix(path, "file:") {
		path = "file:" + path
	}
	return path + "?_foreign_keys=on&_busy_timeout=5000&_journal_mode=WAL&_txlock=immediate"
}
