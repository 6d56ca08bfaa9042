// Package integrity periodically checks stored clusters for broken links.
package integrity

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/robfig/cron"

	"contactlink/internal/contact/models"
)

const defaultSweepTimeout = time.Minute

// Checker lists link violations without repairing them.
type Checker interface {
	CheckIntegrity(ctx context.Context) ([]models.LinkViolation, error)
}

// Sweeper runs Checker on a cron schedule. Runs never overlap; a tick that
// fires while the previous sweep is still going is skipped.
type Sweeper struct {
	checker  Checker
	schedule string
	timeout  time.Duration
	logger   *slog.Logger
	cron     *cron.Cron
	running  atomic.Bool
}

// NewSweeper validates schedule and prepares a stopped sweeper.
func NewSweeper(checker Checker, schedule string, logger *slog.Logger) (*Sweeper, error) {
	if checker == nil {
		return nil, errors.New("integrity checker is required")
	}
	if logger == nil {
		logger = slog.Default()
	}
	s := &Sweeper{
		checker:  checker,
		schedule: schedule,
		timeout:  defaultSweepTimeout,
		logger:   logger,
		cron:     cron.New(),
	}
	if err := s.cron.AddFunc(schedule, s.tick); err != nil {
		return nil, fmt.Errorf("parse integrity schedule %q: %w", schedule, err)
	}
	return s, nil
}

// Run starts the schedule and blocks until ctx is done.
func (s *Sweeper) Run(ctx context.Context) error {
	s.logger.InfoContext(ctx, "integrity sweep scheduled", "schedule", s.schedule)
	s.cron.Start()
	<-ctx.Done()
	s.cron.Stop()
	return nil
}

// RunOnce performs one sweep and returns the violations it found.
func (s *Sweeper) RunOnce(ctx context.Context) ([]models.LinkViolation, error) {
	if !s.running.CompareAndSwap(false, true) {
		s.logger.WarnContext(ctx, "integrity sweep already running")
		return nil, nil
	}
	defer s.running.Store(false)

	start := time.Now()
	violations, err := s.checker.CheckIntegrity(ctx)
	if err != nil {
		s.logger.ErrorContext(ctx, "integrity sweep failed", "error", err)
		return nil, err
	}
	for _, v := range violations {
		s.logger.ErrorContext(ctx, "contact link violation",
			"contact_id", v.ContactID,
			"linked_id", v.LinkedID,
			"reason", v.Reason,
		)
	}
	s.logger.InfoContext(ctx, "integrity sweep finished",
		"violations", len(violations),
		"duration", time.Since(start),
	)
	return violations, nil
}

func (s *Sweeper) tick() {
	ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
	defer cancel()
	_, _ = s.RunOnce(ctx)
}
