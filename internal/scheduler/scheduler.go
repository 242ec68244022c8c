// Package scheduler owns the recurring import trigger. One scheduler
// instance exists per process; overlapping triggers are single-flight:
// a fire while a run is active is a logged no-op.
package scheduler

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog/log"

	"phonehub/pkg/models"
)

// Runner is the import surface the scheduler drives.
type Runner interface {
	ImportPopularBrands(ctx context.Context) (models.ImportResult, error)
	ImportLatest(ctx context.Context, limit int) (models.ImportResult, error)
}

// Clock abstracts time so tests can fire the trigger without real delays.
type Clock interface {
	Now() time.Time
	NewTicker(d time.Duration) Ticker
}

// Ticker is the minimal recurring-trigger surface.
type Ticker interface {
	C() <-chan time.Time
	Stop()
}

// RealClock is the production Clock.
type RealClock struct{}

func (RealClock) Now() time.Time                   { return time.Now() }
func (RealClock) NewTicker(d time.Duration) Ticker { return &realTicker{t: time.NewTicker(d)} }

type realTicker struct{ t *time.Ticker }

func (rt *realTicker) C() <-chan time.Time { return rt.t.C }
func (rt *realTicker) Stop()               { rt.t.Stop() }

// States.
const (
	stateIdle int32 = iota
	stateRunning
)

// Scheduler triggers a full catalog refresh at a fixed cadence, starting
// with an immediate run. Stop prevents future fires; an in-flight run always
// reaches Idle on its own.
type Scheduler struct {
	runner   Runner
	clock    Clock
	interval time.Duration

	state   int32
	mu      sync.Mutex
	started bool
	stopCh  chan struct{}
	runWG   sync.WaitGroup
}

// New creates a scheduler. interval is the configured cadence.
func New(runner Runner, clock Clock, interval time.Duration) *Scheduler {
	if clock == nil {
		clock = RealClock{}
	}
	return &Scheduler{
		runner:   runner,
		clock:    clock,
		interval: interval,
	}
}

// Start arms the timer and triggers an immediate run. Calling Start while
// already started is a no-op.
func (s *Scheduler) Start() {
	s.mu.Lock()
	if s.started {
		s.mu.Unlock()
		log.Warn().Msg("scheduler already started")
		return
	}
	s.started = true
	s.stopCh = make(chan struct{})
	stopCh := s.stopCh
	s.mu.Unlock()

	log.Info().Dur("interval", s.interval).Msg("scheduler started")
	s.trigger()

	go s.loop(stopCh)
}

// Stop suppresses future timer fires. The in-flight run, if any, completes;
// Stop waits for it so callers observe a terminal Idle state.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	if !s.started {
		s.mu.Unlock()
		return
	}
	s.started = false
	close(s.stopCh)
	s.mu.Unlock()

	s.runWG.Wait()
	log.Info().Msg("scheduler stopped")
}

// Running reports whether an import run is currently executing.
func (s *Scheduler) Running() bool {
	return atomic.LoadInt32(&s.state) == stateRunning
}

func (s *Scheduler) loop(stopCh chan struct{}) {
	ticker := s.clock.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C():
			s.trigger()
		case <-stopCh:
			return
		}
	}
}

// trigger starts one run unless a run is already active.
func (s *Scheduler) trigger() {
	if !atomic.CompareAndSwapInt32(&s.state, stateIdle, stateRunning) {
		log.Info().Msg("import run already in progress, skipping trigger")
		return
	}

	s.runWG.Add(1)
	go func() {
		defer s.runWG.Done()
		defer atomic.StoreInt32(&s.state, stateIdle)
		s.runOnce()
	}()
}

// runOnce executes the scheduled refresh. Failures are caught and logged,
// never propagated to the timer.
func (s *Scheduler) runOnce() {
	ctx := context.Background()
	started := s.clock.Now()

	popular, err := s.runner.ImportPopularBrands(ctx)
	if err != nil {
		log.Error().Err(err).Msg("scheduled popular-brand import failed")
	}

	latest, err := s.runner.ImportLatest(ctx, 0)
	if err != nil {
		log.Error().Err(err).Msg("scheduled latest import failed")
	}

	log.Info().
		Dur("took", s.clock.Now().Sub(started)).
		Int("popular_processed", popular.Processed).
		Int("latest_processed", latest.Processed).
		Int("errors", len(popular.Errors)+len(latest.Errors)).
		Msg("scheduled import finished")
}
