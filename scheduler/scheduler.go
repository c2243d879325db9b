// Package scheduler runs the periodic model self-check: the reference
// scenarios are replayed through the engine at start and then every
// configured interval, and the report is stored for the health endpoint.
package scheduler

import (
	"fmt"
	"time"

	"github.com/go-co-op/gocron"

	"github.com/giygas/pkpd-api/interfaces"
	"github.com/giygas/pkpd-api/logging"
	"github.com/giygas/pkpd-api/metrics"
)

// Compile-time check to ensure Scheduler implements Scheduler interface
var _ interfaces.Scheduler = (*Scheduler)(nil)

// Scheduler handles the self-check job using dependency injection
type Scheduler struct {
	status    interfaces.StatusStore
	evaluator interfaces.Evaluator
	checks    []ReferenceCheck
	interval  time.Duration
	scheduler *gocron.Scheduler
}

// NewScheduler creates a scheduler running DefaultChecks every interval
func NewScheduler(status interfaces.StatusStore, evaluator interfaces.Evaluator, interval time.Duration) *Scheduler {
	return NewSchedulerWithChecks(status, evaluator, interval, DefaultChecks())
}

// NewSchedulerWithChecks creates a scheduler running the given checks
func NewSchedulerWithChecks(status interfaces.StatusStore, evaluator interfaces.Evaluator, interval time.Duration, checks []ReferenceCheck) *Scheduler {
	return &Scheduler{
		status:    status,
		evaluator: evaluator,
		checks:    checks,
		interval:  interval,
		scheduler: gocron.NewScheduler(time.Local),
	}
}

// Start runs the initial self-check, then schedules the next ones. A failed
// check is logged and reported by /health; only a scheduling error is
// returned.
func (s *Scheduler) Start() error {
	if s.interval <= 0 {
		return fmt.Errorf("self-check interval must be positive, got %s", s.interval)
	}

	s.RunOnce()

	_, err := s.scheduler.Every(s.interval).WaitForSchedule().SingletonMode().Do(func() { s.RunOnce() })
	if err != nil {
		logging.Error("Failed to schedule self-check", "error", err)
		return fmt.Errorf("failed to schedule self-check: %w", err)
	}

	s.scheduler.StartAsync()
	logging.Info("Self-check scheduled", "interval", s.interval.String())

	return nil
}

// Stop stops the scheduler
func (s *Scheduler) Stop() {
	s.scheduler.Stop()
}

// RunOnce replays the reference scenarios unless a check is already running.
// It reports whether a check ran.
func (s *Scheduler) RunOnce() bool {
	if !s.status.BeginCheck() {
		logging.Info("Self-check already in progress, skipping...")
		return false
	}
	defer s.status.EndCheck()

	report := RunSelfCheck(s.evaluator, s.checks)
	s.status.StoreSelfCheck(report)

	elapsed := report.FinishedAt.Sub(report.StartedAt)
	metrics.RecordSelfCheck(report.Passed, elapsed.Seconds())

	if !report.Passed {
		for _, c := range report.Checks {
			if !c.Passed {
				logging.Error("Self-check failed", "check", c.Name, "detail", c.Detail)
			}
		}
		return true
	}

	logging.Info("Self-check completed", "duration", elapsed.String(), "checks", len(report.Checks))
	return true
}
