package lock

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"contactlink/internal/contact/metrics"
	"contactlink/pkg/platform/circuit"
)

const defaultProbeInterval = 5 * time.Second

// Distributed is a cross-instance locker that can report its own health.
type Distributed interface {
	Lock(ctx context.Context, keys []string) (func(), error)
	Ping(ctx context.Context) error
}

// Fallback prefers the distributed locker and degrades to the in-process one
// when it fails. While the breaker is open Redis is only pinged, at most
// once per probe interval, until enough probes succeed to close it again.
// A nil distributed locker means in-process locking only.
type Fallback struct {
	primary Distributed
	local   *Local
	breaker *circuit.Breaker
	wait    time.Duration
	metrics *metrics.Metrics
	logger  *slog.Logger

	probeInterval time.Duration
	now           func() time.Time
	probeMu       sync.Mutex
	lastProbe     time.Time
}

// FallbackOption configures Fallback.
type FallbackOption func(*Fallback)

// WithWait bounds how long Lock waits for contended keys.
func WithWait(d time.Duration) FallbackOption {
	return func(f *Fallback) {
		f.wait = d
	}
}

func WithBreaker(b *circuit.Breaker) FallbackOption {
	return func(f *Fallback) {
		if b != nil {
			f.breaker = b
		}
	}
}

func WithProbeInterval(d time.Duration) FallbackOption {
	return func(f *Fallback) {
		if d > 0 {
			f.probeInterval = d
		}
	}
}

func WithMetrics(m *metrics.Metrics) FallbackOption {
	return func(f *Fallback) {
		f.metrics = m
	}
}

func WithLogger(logger *slog.Logger) FallbackOption {
	return func(f *Fallback) {
		if logger != nil {
			f.logger = logger
		}
	}
}

// WithClock overrides the clock used to space out probes.
func WithClock(now func() time.Time) FallbackOption {
	return func(f *Fallback) {
		if now != nil {
			f.now = now
		}
	}
}

// NewFallback builds a locker over primary with an in-process fallback.
func NewFallback(primary Distributed, opts ...FallbackOption) *Fallback {
	f := &Fallback{
		primary:       primary,
		local:         NewLocal(),
		breaker:       circuit.New("redis-lock"),
		logger:        slog.Default(),
		probeInterval: defaultProbeInterval,
		now:           time.Now,
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

func (f *Fallback) Lock(ctx context.Context, keys []string) (func(), error) {
	if f.wait > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, f.wait)
		defer cancel()
	}
	if f.primary == nil {
		return f.local.Lock(ctx, keys)
	}
	if f.breaker.IsOpen() && !f.probe(ctx) {
		f.metrics.IncrementLockFallbacks()
		return f.local.Lock(ctx, keys)
	}

	unlock, err := f.primary.Lock(ctx, keys)
	if err == nil {
		f.breaker.RecordSuccess()
		return unlock, nil
	}
	if IsContextError(err) {
		return nil, err
	}

	_, change := f.breaker.RecordFailure()
	if change.Opened {
		f.logger.WarnContext(ctx, "lock circuit opened", "breaker", f.breaker.Name())
	}
	f.metrics.IncrementLockFallbacks()
	f.logger.WarnContext(ctx, "distributed lock unavailable, using local lock", "error", err)
	return f.local.Lock(ctx, keys)
}

// probe pings the distributed locker if the interval has passed and reports
// whether the breaker is closed afterwards.
func (f *Fallback) probe(ctx context.Context) bool {
	f.probeMu.Lock()
	now := f.now()
	if now.Sub(f.lastProbe) < f.probeInterval {
		f.probeMu.Unlock()
		return false
	}
	f.lastProbe = now
	f.probeMu.Unlock()

	if err := f.primary.Ping(ctx); err != nil {
		f.breaker.RecordFailure()
		return false
	}
	usePrimary, change := f.breaker.RecordSuccess()
	if change.Closed {
		f.logger.InfoContext(ctx, "lock circuit closed", "breaker", f.breaker.Name())
	}
	return usePrimary
}
