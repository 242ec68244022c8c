package scheduler

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"phonehub/pkg/models"
)

// fakeClock feeds the scheduler a manual ticker channel.
type fakeClock struct {
	tick chan time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{tick: make(chan time.Time)}
}

func (f *fakeClock) Now() time.Time                 { return time.Unix(0, 0) }
func (f *fakeClock) NewTicker(time.Duration) Ticker { return fakeTicker{c: f.tick} }

type fakeTicker struct{ c chan time.Time }

func (t fakeTicker) C() <-chan time.Time { return t.c }
func (t fakeTicker) Stop()               {}

// blockingRunner counts runs and holds each one until released.
type blockingRunner struct {
	runs    atomic.Int32
	entered chan struct{}
	release chan struct{}
}

func newBlockingRunner() *blockingRunner {
	return &blockingRunner{
		entered: make(chan struct{}, 16),
		release: make(chan struct{}),
	}
}

func (r *blockingRunner) ImportPopularBrands(context.Context) (models.ImportResult, error) {
	r.runs.Add(1)
	r.entered <- struct{}{}
	<-r.release
	return models.ImportResult{}, nil
}

func (r *blockingRunner) ImportLatest(context.Context, int) (models.ImportResult, error) {
	return models.ImportResult{}, nil
}

func TestStartTriggersImmediateRun(t *testing.T) {
	runner := newBlockingRunner()
	s := New(runner, newFakeClock(), time.Hour)

	s.Start()
	select {
	case <-runner.entered:
	case <-time.After(2 * time.Second):
		t.Fatal("no immediate run on start")
	}
	assert.True(t, s.Running())

	close(runner.release)
	s.Stop()
	assert.False(t, s.Running())
	assert.Equal(t, int32(1), runner.runs.Load())
}

func TestDoubleStartIsSingleFlight(t *testing.T) {
	runner := newBlockingRunner()
	s := New(runner, newFakeClock(), time.Hour)

	s.Start()
	s.Start() // no-op
	<-runner.entered

	close(runner.release)
	s.Stop()
	assert.Equal(t, int32(1), runner.runs.Load())
}

func TestTickDuringRunIsSkipped(t *testing.T) {
	runner := newBlockingRunner()
	clock := newFakeClock()
	s := New(runner, clock, time.Hour)

	s.Start()
	<-runner.entered // immediate run is now blocked inside the runner

	clock.tick <- time.Unix(1, 0) // fires while Running: must not start a second run

	close(runner.release)
	s.Stop()
	assert.Equal(t, int32(1), runner.runs.Load())
}

func TestTickAfterRunStartsNewRun(t *testing.T) {
	runner := newBlockingRunner()
	clock := newFakeClock()
	s := New(runner, clock, time.Hour)

	s.Start()
	<-runner.entered
	runner.release <- struct{}{} // let the immediate run finish

	// wait for the terminal Idle transition
	require.Eventually(t, func() bool { return !s.Running() }, 2*time.Second, 5*time.Millisecond)

	clock.tick <- time.Unix(2, 0)
	select {
	case <-runner.entered:
	case <-time.After(2 * time.Second):
		t.Fatal("timer fire did not start a run")
	}

	close(runner.release)
	s.Stop()
	assert.Equal(t, int32(2), runner.runs.Load())
}

func TestStopSuppressesFutureFires(t *testing.T) {
	runner := newBlockingRunner()
	clock := newFakeClock()
	s := New(runner, clock, time.Hour)

	s.Start()
	<-runner.entered
	runner.release <- struct{}{}
	s.Stop()

	select {
	case clock.tick <- time.Unix(3, 0):
		// the loop may have exited; a buffered send must not start a run
	default:
	}
	time.Sleep(20 * time.Millisecond)
	assert.Equal(t, int32(1), runner.runs.Load())
}
