// Package scheduler triggers due dividend runs and the monthly usage reset on
// a cron schedule.
package scheduler

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/ndewijer/Dividend-Admin-Backend/internal/model"
	"github.com/robfig/cron/v3"
)

// RunDueLockKey guards the due scan, whether started by cron or over HTTP.
const RunDueLockKey = "dividend-admin:lock:run-due"

const (
	usageResetLockKey = "dividend-admin:lock:usage-reset"

	// monthlyResetSpec fires at 00:05 UTC on the 1st of each month.
	monthlyResetSpec = "5 0 1 * *"
)

// DueRunner executes every schedule due at now.
type DueRunner interface {
	RunDue(ctx context.Context, now time.Time) (*model.RunDueSummary, error)
}

// UsageResetter zeroes monthly counters for a new usage period.
type UsageResetter interface {
	ResetMonthly(ctx context.Context, now time.Time) (int64, error)
}

// Scheduler owns the cron instance and its jobs.
type Scheduler struct {
	cron    *cron.Cron
	spec    string
	lockTTL time.Duration
	runner  DueRunner
	usage   UsageResetter
	lock    Locker
	logger  *slog.Logger
	now     func() time.Time
}

// New creates a Scheduler running in UTC. A nil lock means a new LocalLock.
func New(spec string, lockTTL time.Duration, runner DueRunner, usage UsageResetter, lock Locker, logger *slog.Logger) *Scheduler {
	if lock == nil {
		lock = NewLocalLock()
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Scheduler{
		cron:    cron.New(cron.WithLocation(time.UTC)),
		spec:    spec,
		lockTTL: lockTTL,
		runner:  runner,
		usage:   usage,
		lock:    lock,
		logger:  logger,
		now:     func() time.Time { return time.Now().UTC() },
	}
}

// Start registers the jobs and starts the cron loop. It returns once the jobs
// are registered; call Stop to shut down.
func (s *Scheduler) Start() error {
	if _, err := s.cron.AddFunc(s.spec, func() { s.RunDueOnce(context.Background()) }); err != nil {
		return fmt.Errorf("add run-due job: %w", err)
	}
	if s.usage != nil {
		if _, err := s.cron.AddFunc(monthlyResetSpec, func() { s.ResetUsageOnce(context.Background()) }); err != nil {
			return fmt.Errorf("add usage reset job: %w", err)
		}
	}

	s.cron.Start()
	s.logger.Info("scheduler started", "spec", s.spec)
	return nil
}

// Stop waits for running jobs to finish.
func (s *Scheduler) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
	s.logger.Info("scheduler stopped")
}

// RunDueOnce runs one due scan under the shared lock. It reports whether the
// scan ran; false means another instance held the lock or the scan failed.
func (s *Scheduler) RunDueOnce(ctx context.Context) bool {
	release, ok, err := s.lock.Acquire(ctx, RunDueLockKey, s.lockTTL)
	if err != nil {
		s.logger.Error("run-due lock failed", "error", err)
		return false
	}
	if !ok {
		s.logger.Debug("run-due skipped, lock held elsewhere")
		return false
	}
	defer release()

	summary, err := s.runner.RunDue(ctx, s.now())
	if err != nil {
		s.logger.Error("run-due scan failed", "error", err)
		return false
	}
	s.logger.Info("run-due scan finished",
		"due", summary.Due,
		"completed", summary.Completed,
		"failed", summary.Failed,
		"skipped", summary.Skipped,
	)
	return true
}

// ResetUsageOnce zeroes usage counters under the shared lock.
func (s *Scheduler) ResetUsageOnce(ctx context.Context) bool {
	release, ok, err := s.lock.Acquire(ctx, usageResetLockKey, s.lockTTL)
	if err != nil {
		s.logger.Error("usage reset lock failed", "error", err)
		return false
	}
	if !ok {
		return false
	}
	defer release()

	n, err := s.usage.ResetMonthly(ctx, s.now())
	if err != nil {
		s.logger.Error("monthly usage reset failed", "error", err)
		return false
	}
	s.logger.Info("monthly usage reset", "profiles", n)
	return true
}
