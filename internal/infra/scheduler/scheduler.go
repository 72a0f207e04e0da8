package scheduler

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"
)

// ErrCycleInProgress is returned when a trigger arrives while a detection
// cycle is still running. Cycles never interleave.
var ErrCycleInProgress = fmt.Errorf("a detection cycle is already in progress")

// CycleRunner runs one full detect-then-deliver pass over the roster.
type CycleRunner interface {
	RunCycle(ctx context.Context) error
}

// CheckScheduler triggers a detection cycle on a cron cadence and on demand.
// At most one cycle runs at any time; an overlapping trigger is rejected,
// not queued. Stop cancels the in-flight cycle and waits for it to wind down.
type CheckScheduler struct {
	cronEngine *cron.Cron
	runner     CycleRunner
	logger     *logrus.Entry
	cronSpec   string

	mu       sync.Mutex // held for the duration of a cycle
	baseCtx  context.Context
	cancel   context.CancelFunc
	stopOnce sync.Once
}

func NewCheckScheduler(runner CycleRunner, logger *logrus.Entry, cronSpec string) *CheckScheduler {
	ctx, cancel := context.WithCancel(context.Background())
	return &CheckScheduler{
		cronEngine: cron.New(cron.WithLocation(time.Local)),
		runner:     runner,
		logger:     logger,
		cronSpec:   cronSpec,
		baseCtx:    ctx,
		cancel:     cancel,
	}
}

// Start registers the daily job and starts the cron engine.
func (s *CheckScheduler) Start() error {
	_, err := s.cronEngine.AddFunc(s.cronSpec, func() {
		s.logger.Info("Cron job triggered for daily occasion check")
		if err := s.run(); err != nil {
			if err == ErrCycleInProgress {
				s.logger.Warn("Scheduled cycle skipped: previous cycle still running")
				return
			}
			s.logger.WithError(err).Error("Scheduled detection cycle failed")
		}
	})
	if err != nil {
		return fmt.Errorf("could not add daily check cron job: %w", err)
	}

	s.cronEngine.Start()
	s.logger.WithField("spec", s.cronSpec).Info("Scheduler started")
	return nil
}

// TriggerNow runs one cycle on demand. Returns ErrCycleInProgress when a
// scheduled or manual cycle is already running.
func (s *CheckScheduler) TriggerNow() error {
	s.logger.Info("Manual cycle trigger received")
	return s.run()
}

func (s *CheckScheduler) run() error {
	if !s.mu.TryLock() {
		return ErrCycleInProgress
	}
	defer s.mu.Unlock()

	if err := s.baseCtx.Err(); err != nil {
		return fmt.Errorf("scheduler is stopped: %w", err)
	}
	return s.runner.RunCycle(s.baseCtx)
}

// Stop cancels the in-flight cycle (in-flight per-occasion work finishes or
// fails cleanly and is recorded in the ledger) and shuts the cron engine down.
func (s *CheckScheduler) Stop() {
	s.stopOnce.Do(func() {
		s.logger.Info("Stopping scheduler...")
		s.cancel()
		ctx := s.cronEngine.Stop()
		<-ctx.Done()

		// Wait for a running cycle to release the lock.
		s.mu.Lock()
		s.mu.Unlock() //nolint:staticcheck // lock-then-unlock is the wait
		s.logger.Info("Scheduler gracefully stopped")
	})
}
