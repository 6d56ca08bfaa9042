package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"contactlink/internal/contact/service"
	dErrors "contactlink/pkg/domain-errors"
	"contactlink/pkg/platform/sentinel"
	"contactlink/pkg/platform/tx"
)

const (
	defaultContactTxTimeout = 5 * time.Second
	retryBackoff            = 20 * time.Millisecond
)

// SQLTx runs identify pipelines inside a database transaction. Stores built
// on the same *sql.DB pick the transaction up from the context.
type SQLTx struct {
	db         *sql.DB
	store      service.Store
	timeout    time.Duration
	maxRetries int
	isolation  sql.IsolationLevel
	logger     *slog.Logger
}

// SQLTxOption configures SQLTx.
type SQLTxOption func(*SQLTx)

func WithTxTimeout(d time.Duration) SQLTxOption {
	return func(t *SQLTx) {
		t.timeout = d
	}
}

// WithMaxRetries bounds how often a transaction is replayed after a
// serialization failure or a busy database.
func WithMaxRetries(n int) SQLTxOption {
	return func(t *SQLTx) {
		if n >= 0 {
			t.maxRetries = n
		}
	}
}

func WithIsolation(level sql.IsolationLevel) SQLTxOption {
	return func(t *SQLTx) {
		t.isolation = level
	}
}

func WithTxLogger(logger *slog.Logger) SQLTxOption {
	return func(t *SQLTx) {
		if logger != nil {
			t.logger = logger
		}
	}
}

// NewSQLTx builds a transaction runner for store over db.
func NewSQLTx(db *sql.DB, store service.Store, opts ...SQLTxOption) *SQLTx {
	t := &SQLTx{
		db:         db,
		store:      store,
		timeout:    defaultContactTxTimeout,
		maxRetries: 3,
		isolation:  sql.LevelDefault,
		logger:     slog.Default(),
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

func (t *SQLTx) RunInTx(ctx context.Context, fn func(ctx context.Context, store service.Store) error) error {
	if err := ctx.Err(); err != nil {
		return dErrors.Wrap(err, dErrors.CodeTimeout, "transaction aborted: context cancelled")
	}

	if _, hasDeadline := ctx.Deadline(); !hasDeadline && t.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, t.timeout)
		defer cancel()
	}

	for attempt := 0; ; attempt++ {
		err := t.runOnce(ctx, fn)
		if err == nil || !IsRetryable(err) {
			return err
		}
		if attempt >= t.maxRetries {
			return fmt.Errorf("contact transaction gave up after %d attempts: %w", attempt+1, errors.Join(sentinel.ErrConflict, err))
		}
		t.logger.WarnContext(ctx, "retrying contact transaction", "attempt", attempt+1, "error", err)
		select {
		case <-ctx.Done():
			return dErrors.Wrap(ctx.Err(), dErrors.CodeTimeout, "transaction aborted while retrying")
		case <-time.After(retryBackoff * time.Duration(attempt+1)):
		}
	}
}

func (t *SQLTx) runOnce(ctx context.Context, fn func(ctx context.Context, store service.Store) error) error {
	sqlTx, err := t.db.BeginTx(ctx, &sql.TxOptions{Isolation: t.isolation})
	if err != nil {
		return err
	}
	defer func() {
		_ = sqlTx.Rollback()
	}()

	if err := fn(tx.WithTx(ctx, sqlTx), t.store); err != nil {
		return err
	}
	return sqlTx.Commit()
}
