package runtime

import (
	"sync"
	"time"

	"github.com/anizeninc-lab/trading-algo/internal/logger"
	"github.com/anizeninc-lab/trading-algo/internal/types"
	"github.com/anizeninc-lab/trading-algo/pkg/errors"
	"go.uber.org/zap"
)

// DefaultIdleDelay is the fixed pause between loop iterations. The delay is
// the only suspension point in a strategy's loop; a tick body never yields
// mid-computation.
const DefaultIdleDelay = time.Second

// TickSource produces the next tick for a runner iteration. A nil source
// yields empty ticks stamped with the wall clock.
type TickSource func() (types.Tick, error)

// Runner drives one strategy through the cooperative
// Stopped -> Running -> (Stopped | Error) lifecycle. Cancellation is a flag
// checked once per loop iteration: a tick already in progress cannot be
// interrupted, and there is no per-tick timeout.
type Runner struct {
	strategy  Strategy
	logger    *logger.Logger
	source    TickSource
	idleDelay time.Duration

	mu       sync.Mutex
	status   Status
	stopping bool
	lastErr  error
	stopCh   chan struct{}
	doneCh   chan struct{}
}

// NewRunner creates a runner for the given strategy. source may be nil.
func NewRunner(strategy Strategy, source TickSource, idleDelay time.Duration, logger *logger.Logger) *Runner {
	if idleDelay <= 0 {
		idleDelay = DefaultIdleDelay
	}

	return &Runner{
		strategy:  strategy,
		logger:    logger,
		source:    source,
		idleDelay: idleDelay,
		status:    StatusStopped,
		lastErr:   nil,
		stopCh:    nil,
		doneCh:    nil,
	}
}

// Start runs the setup hook synchronously, then spawns the tick loop.
// Idempotent while already running.
func (r *Runner) Start() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.status == StatusRunning {
		return nil
	}

	r.logger.Info("starting strategy", zap.String("strategy", r.strategy.Name()))

	if err := r.strategy.OnStart(); err != nil {
		r.status = StatusError
		r.lastErr = err

		return errors.Wrapf(errors.ErrCodeStrategyRuntimeError, err, "strategy %s failed to start", r.strategy.Name())
	}

	r.status = StatusRunning
	r.lastErr = nil
	r.stopCh = make(chan struct{})
	r.doneCh = make(chan struct{})

	go r.loop(r.stopCh, r.doneCh)

	return nil
}

func (r *Runner) loop(stopCh <-chan struct{}, doneCh chan<- struct{}) {
	defer close(doneCh)

	for {
		select {
		case <-stopCh:
			return
		default:
		}

		tick, err := r.nextTick()
		if err == nil {
			err = r.strategy.OnTick(tick)
		}

		if err != nil {
			// the fault halts only this strategy's loop; siblings and the
			// scheduler are unaffected
			r.logger.Error("strategy encountered error",
				zap.String("strategy", r.strategy.Name()),
				zap.Error(err),
			)

			r.mu.Lock()
			r.status = StatusError
			r.lastErr = err
			r.mu.Unlock()

			return
		}

		select {
		case <-stopCh:
			return
		case <-time.After(r.idleDelay):
		}
	}
}

func (r *Runner) nextTick() (types.Tick, error) {
	if r.source == nil {
		return types.Tick{LastPrice: 0, Timestamp: time.Now()}, nil
	}

	return r.source()
}

// Stop flags the loop to exit, waits for the in-flight iteration to finish,
// then runs the teardown hook. Idempotent while already stopped. A strategy
// that has transitioned to Error is left in that state.
func (r *Runner) Stop() error {
	r.mu.Lock()

	if r.status != StatusRunning || r.stopping {
		r.mu.Unlock()

		return nil
	}

	r.stopping = true

	r.logger.Info("stopping strategy", zap.String("strategy", r.strategy.Name()))

	stopCh := r.stopCh
	doneCh := r.doneCh
	r.mu.Unlock()

	close(stopCh)
	<-doneCh

	r.mu.Lock()
	defer r.mu.Unlock()

	// the loop may have errored while we were waiting
	if r.status == StatusRunning {
		r.status = StatusStopped
	}

	r.stopping = false

	if err := r.strategy.OnStop(); err != nil {
		return errors.Wrapf(errors.ErrCodeStrategyRuntimeError, err, "strategy %s failed to stop", r.strategy.Name())
	}

	return nil
}

// Status returns the current lifecycle state.
func (r *Runner) Status() Status {
	r.mu.Lock()
	defer r.mu.Unlock()

	return r.status
}

// Err returns the error that moved the runner to StatusError, if any.
func (r *Runner) Err() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	return r.lastErr
}
