package store

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
)

// RetentionScheduler prunes stored assessments older than a maximum age
// on a cron schedule (e.g. daily at 3 AM).
type RetentionScheduler struct {
	store      *SQLiteStore
	maxAge     time.Duration
	schedule   string
	cron       *cron.Cron
	logger     *slog.Logger
	mu         sync.Mutex
	running    bool
	entryAdded bool
}

// NewRetentionScheduler creates a scheduler that deletes assessments
// older than maxAge. The schedule is a standard five-field cron
// expression and is validated here.
//
// Common schedules:
//   - "0 3 * * *"   - Daily at 3 AM
//   - "0 */6 * * *" - Every 6 hours
//   - "0 0 * * 0"   - Weekly on Sunday at midnight
func NewRetentionScheduler(s *SQLiteStore, maxAge time.Duration, schedule string, logger *slog.Logger) (*RetentionScheduler, error) {
	if maxAge <= 0 {
		return nil, fmt.Errorf("retention max age must be positive, got %v", maxAge)
	}
	if _, err := cron.ParseStandard(schedule); err != nil {
		return nil, fmt.Errorf("invalid cron schedule %q: %w", schedule, err)
	}
	if logger == nil {
		logger = slog.Default().With("component", "store.retention")
	}

	return &RetentionScheduler{
		store:    s,
		maxAge:   maxAge,
		schedule: schedule,
		cron:     cron.New(),
		logger:   logger,
	}, nil
}

// Start begins scheduled pruning. Starting a running scheduler is a
// no-op, and a stopped scheduler may be started again. The scheduler
// stops itself when the context is cancelled.
func (r *RetentionScheduler) Start(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.running {
		return nil
	}

	if !r.entryAdded {
		if _, err := r.cron.AddFunc(r.schedule, r.runPruning); err != nil {
			return fmt.Errorf("failed to schedule pruning: %w", err)
		}
		r.entryAdded = true
	}

	r.cron.Start()
	r.running = true

	r.logger.Info("retention scheduler started",
		"schedule", r.schedule,
		"max_age", r.maxAge.String(),
	)

	go func() {
		<-ctx.Done()
		r.Stop()
	}()

	return nil
}

// runPruning executes one pruning cycle.
func (r *RetentionScheduler) runPruning() {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	cutoff := time.Now().Add(-r.maxAge)

	deleted, err := r.store.DeleteBefore(ctx, cutoff)
	if err != nil {
		r.logger.Error("scheduled pruning failed", "error", err)
		return
	}

	if deleted > 0 {
		r.logger.Info("scheduled pruning completed",
			"deleted_count", deleted,
			"cutoff", cutoff.UTC().Format(time.RFC3339),
		)
	} else {
		r.logger.Debug("scheduled pruning completed, no rows deleted")
	}
}

// Prune runs one pruning cycle immediately, outside the schedule.
func (r *RetentionScheduler) Prune(ctx context.Context) (int64, error) {
	return r.store.DeleteBefore(ctx, time.Now().Add(-r.maxAge))
}

// Stop stops the scheduler and waits for any running job to complete.
// Stopping a stopped scheduler is a no-op.
func (r *RetentionScheduler) Stop() {
	r.mu.Lock()
	defer r.mu.Unlock()

	if !r.running {
		return
	}

	ctx := r.cron.Stop()
	<-ctx.Done()
	r.running = false
	r.logger.Info("retention scheduler stopped")
}

// IsRunning reports whether the scheduler is running.
func (r *RetentionScheduler) IsRunning() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.running
}

// NextRun returns the next scheduled pruning time, or the zero time when
// the scheduler is not running.
func (r *RetentionScheduler) NextRun() time.Time {
	r.mu.Lock()
	defer r.mu.Unlock()

	entries := r.cron.Entries()
	if len(entries) == 0 {
		return time.Time{}
	}
	return entries[0].Next
}
