package scheduler_test

import (
	"context"
	"errors"
	"io"
	"sync"
	"testing"
	"time"

	"office_cheer_bot/internal/infra/scheduler"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// blockingRunner holds each cycle until release is closed, so tests can pin a
// cycle in flight.
type blockingRunner struct {
	mu      sync.Mutex
	started chan struct{}
	release chan struct{}
	runs    int
	err     error
	lastCtx context.Context
}

func newBlockingRunner() *blockingRunner {
	return &blockingRunner{
		started: make(chan struct{}, 1),
		release: make(chan struct{}),
	}
}

func (r *blockingRunner) RunCycle(ctx context.Context) error {
	r.mu.Lock()
	r.runs++
	r.lastCtx = ctx
	r.mu.Unlock()

	select {
	case r.started <- struct{}{}:
	default:
	}
	<-r.release
	return r.err
}

func (r *blockingRunner) runCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.runs
}

type instantRunner struct {
	mu   sync.Mutex
	runs int
	err  error
}

func (r *instantRunner) RunCycle(context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.runs++
	return r.err
}

func testLogger() *logrus.Entry {
	log := logrus.New()
	log.SetOutput(io.Discard)
	return log.WithField("component", "scheduler")
}

func TestTriggerNow_RunsOneCycle(t *testing.T) {
	runner := &instantRunner{}
	s := scheduler.NewCheckScheduler(runner, testLogger(), "0 8 * * *")
	defer s.Stop()

	require.NoError(t, s.TriggerNow())
	assert.Equal(t, 1, runner.runs)
}

func TestTriggerNow_PropagatesCycleError(t *testing.T) {
	cause := errors.New("roster unavailable")
	runner := &instantRunner{err: cause}
	s := scheduler.NewCheckScheduler(runner, testLogger(), "0 8 * * *")
	defer s.Stop()

	assert.ErrorIs(t, s.TriggerNow(), cause)
}

func TestTriggerNow_RejectsOverlappingCycle(t *testing.T) {
	runner := newBlockingRunner()
	s := scheduler.NewCheckScheduler(runner, testLogger(), "0 8 * * *")

	firstDone := make(chan error, 1)
	go func() { firstDone <- s.TriggerNow() }()

	select {
	case <-runner.started:
	case <-time.After(2 * time.Second):
		t.Fatal("first cycle never started")
	}

	// The first cycle still holds the lock.
	assert.ErrorIs(t, s.TriggerNow(), scheduler.ErrCycleInProgress)

	close(runner.release)
	require.NoError(t, <-firstDone)

	// Once released, a new trigger succeeds.
	require.NoError(t, s.TriggerNow())
	assert.Equal(t, 2, runner.runCount())

	s.Stop()
}

func TestStop_CancelsInFlightCycleAndWaits(t *testing.T) {
	runner := newBlockingRunner()
	s := scheduler.NewCheckScheduler(runner, testLogger(), "0 8 * * *")

	cycleDone := make(chan error, 1)
	go func() { cycleDone <- s.TriggerNow() }()

	select {
	case <-runner.started:
	case <-time.After(2 * time.Second):
		t.Fatal("cycle never started")
	}

	stopDone := make(chan struct{})
	go func() {
		s.Stop()
		close(stopDone)
	}()

	// Stop must not return while the cycle holds the lock.
	select {
	case <-stopDone:
		t.Fatal("Stop returned before the cycle finished")
	case <-time.After(100 * time.Millisecond):
	}

	// The in-flight cycle sees the cancellation.
	runner.mu.Lock()
	ctx := runner.lastCtx
	runner.mu.Unlock()
	select {
	case <-ctx.Done():
	case <-time.After(2 * time.Second):
		t.Fatal("cycle context was not cancelled")
	}

	close(runner.release)
	<-cycleDone

	select {
	case <-stopDone:
	case <-time.After(2 * time.Second):
		t.Fatal("Stop did not return after the cycle finished")
	}

	// Triggers after Stop are refused.
	err := s.TriggerNow()
	require.Error(t, err)
	assert.NotErrorIs(t, err, scheduler.ErrCycleInProgress)
	assert.Equal(t, 1, runner.runCount())
}
