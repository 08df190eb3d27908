package supervisor

import (
	"context"
	"fmt"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/giantswarm/workergateway/pkg/logging"
)

// State is one value of the supervisor's finite state machine.
type State string

const (
	StateNotStarted       State = "NOT_STARTED"
	StateStarting         State = "STARTING"
	StateRunningHealthy   State = "RUNNING_HEALTHY"
	StateRunningUnhealthy State = "RUNNING_UNHEALTHY"
	StateStopped          State = "STOPPED"
	StateFailed           State = "FAILED"
)

// StatusUpdate describes one state transition, delivered to a
// StatusUpdateFunc outside of the Supervisor's internal lock.
type StatusUpdate struct {
	Previous     State
	Current      State
	RestartCount int
	Err          error
	Time         time.Time
}

// StatusUpdateFunc receives every state transition a Supervisor makes.
type StatusUpdateFunc func(StatusUpdate)

// Supervisor owns one child process's full lifecycle: spawning it,
// capturing its stdout/stderr into a LogBuffer, probing its health
// endpoint on an interval, and restarting it within a capped, stability
// windowed budget when probes fail or it exits unexpectedly.
type Supervisor struct {
	config   Config
	logger   logging.Logger
	onStatus StatusUpdateFunc

	logs *LogBuffer

	mu           sync.RWMutex
	state        State
	restartCount int
	stableSince  time.Time
	lastErr      error
	proc         *childProcess
	stopping     bool

	cancelRun context.CancelFunc
	runDone   chan struct{}
}

// New builds a Supervisor. onStatus may be nil.
func New(cfg Config, logger logging.Logger, onStatus StatusUpdateFunc) (*Supervisor, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &Supervisor{
		config:   cfg,
		logger:   logger,
		onStatus: onStatus,
		logs:     NewLogBuffer(cfg.LogBufferSize),
		state:    StateNotStarted,
	}, nil
}

// Logs returns the ring buffer capturing the supervised child's output.
func (s *Supervisor) Logs() *LogBuffer {
	return s.logs
}

// State returns the current lifecycle state.
func (s *Supervisor) State() State {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state
}

// RestartCount returns the number of unhealthy cycles (failed probes or
// unexpected exits) seen in the current unbroken unhealthy window, reset
// once the child has stayed healthy for StabilityPeriod.
func (s *Supervisor) RestartCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.restartCount
}

// Start spawns the child and begins health probing. It returns
// ErrAlreadyStarted if the supervisor is already running.
func (s *Supervisor) Start(ctx context.Context) error {
	s.mu.Lock()
	if s.state != StateNotStarted && s.state != StateStopped && s.state != StateFailed {
		s.mu.Unlock()
		return ErrAlreadyStarted
	}
	s.setStateLocked(StateStarting, nil)
	s.restartCount = 0
	s.mu.Unlock()

	if err := s.spawnAndMonitor(ctx); err != nil {
		s.mu.Lock()
		s.setStateLocked(StateFailed, err)
		s.mu.Unlock()
		return err
	}
	return nil
}

// spawnAndMonitor starts the child, wires its log capture, and launches
// either the probe scheduler or, when probing is disabled, marks the child
// healthy immediately. It does not block past the initial spawn.
func (s *Supervisor) spawnAndMonitor(parent context.Context) error {
	proc, err := spawn(parent, s.config)
	if err != nil {
		return err
	}

	runCtx, cancel := context.WithCancel(parent)
	done := make(chan struct{})

	s.mu.Lock()
	s.proc = proc
	s.cancelRun = cancel
	s.runDone = done
	s.stopping = false
	s.mu.Unlock()

	go captureStream(proc.stdout, StreamStdout, s.logs)
	go captureStream(proc.stderr, StreamStderr, s.logs)

	// waiter is the single goroutine allowed to reap this child. A child
	// that exits on its own is a first-class unhealthy trigger, equal to a
	// failed probe; Stop and restart set s.stopping before tearing a child
	// down deliberately, and a restart replaces s.proc, so the waiter can
	// tell the two apart.
	go func() {
		waitErr := proc.cmd.Wait()
		cancel()

		s.mu.RLock()
		stopping := s.stopping || s.proc != proc
		s.mu.RUnlock()
		if !stopping {
			s.handleChildExit(waitErr)
		}
	}()

	if s.config.ProbePath == "" {
		s.mu.Lock()
		s.setStateLocked(StateRunningHealthy, nil)
		s.stableSince = time.Now()
		s.mu.Unlock()
		close(done)
		return nil
	}

	probe, err := newProber(s.config)
	if err != nil {
		cancel()
		return err
	}

	go func() {
		defer close(done)
		runProbeLoop(runCtx, probe, s.config.ProbeInterval, s.handleProbeResult)
	}()

	return nil
}

// handleProbeResult applies one probe outcome to the state machine:
// successive successes move to RunningHealthy and, after StabilityPeriod
// of unbroken health, reset the restart counter; failures move to
// RunningUnhealthy and evaluate the restart policy via handleUnhealthy.
func (s *Supervisor) handleProbeResult(probeErr error) {
	s.mu.Lock()
	now := time.Now()

	if probeErr == nil {
		wasHealthy := s.state == StateRunningHealthy
		s.setStateLocked(StateRunningHealthy, nil)
		if !wasHealthy {
			s.stableSince = now
		} else if s.restartCount > 0 && now.Sub(s.stableSince) >= s.config.StabilityPeriod {
			s.restartCount = 0
		}
		s.mu.Unlock()
		return
	}

	// handleUnhealthy's restart/exhausted branches run asynchronously:
	// handleProbeResult executes inside the probe loop's own goroutine, and
	// stopRunLocked waits for that same goroutine to exit, so acting
	// in-place would deadlock.
	s.handleUnhealthy(probeErr, true)
}

// handleChildExit runs on the dedicated waiter goroutine when the
// supervised child terminates on its own, outside of a deliberate Stop or
// restart. It is not the probe loop goroutine, so it may drive the state
// machine synchronously.
func (s *Supervisor) handleChildExit(waitErr error) {
	exitErr := ErrProcessExited
	if waitErr != nil {
		exitErr = fmt.Errorf("%w: %v", ErrProcessExited, waitErr)
	}
	s.handleUnhealthy(exitErr, false)
}

// handleUnhealthy records one unhealthy cycle (a failed probe or an
// unexpected process exit) and evaluates the restart policy against it.
// restartCount tracks the number of unhealthy cycles seen in the current
// unbroken window; once it reaches MaxRestartAttempts the supervisor
// transitions to Failed instead of attempting another restart. async
// controls whether the restart/exhausted branches run on a fresh goroutine,
// required when the caller is the probe loop goroutine itself.
func (s *Supervisor) handleUnhealthy(cause error, async bool) {
	s.mu.Lock()
	s.setStateLocked(StateRunningUnhealthy, cause)
	s.stableSince = time.Time{}
	s.restartCount++
	shouldRestart := s.config.AutoRestart
	exhausted := s.restartCount >= s.config.MaxRestartAttempts
	s.mu.Unlock()

	if !shouldRestart {
		return
	}

	exhaust := func() {
		s.mu.Lock()
		s.setStateLocked(StateFailed, ErrRestartsExhausted)
		s.mu.Unlock()
		s.stopRunLocked()
	}

	switch {
	case exhausted && async:
		go exhaust()
	case exhausted:
		exhaust()
	case async:
		go s.restart()
	default:
		s.restart()
	}
}

// restart tears down the current child and probe loop and spawns a fresh
// one. Failures to respawn transition the supervisor to Failed.
func (s *Supervisor) restart() {
	s.mu.RLock()
	attempt := s.restartCount
	s.mu.RUnlock()
	s.logger.Info("Supervisor", "restarting supervised process, attempt %d", attempt)

	s.stopRunLocked()

	if err := s.spawnAndMonitor(context.Background()); err != nil {
		s.mu.Lock()
		s.setStateLocked(StateFailed, err)
		s.mu.Unlock()
	}
}

// stopRunLocked cancels the running probe loop and terminates the child,
// then waits for the probe loop goroutine to exit. Safe to call when
// nothing is running. Must never be called from within the probe loop
// goroutine it is waiting on.
func (s *Supervisor) stopRunLocked() {
	s.mu.Lock()
	s.stopping = true
	cancel := s.cancelRun
	done := s.runDone
	proc := s.proc
	s.mu.Unlock()

	if proc != nil {
		_ = proc.terminate()
	}
	if cancel != nil {
		cancel()
	}
	if done != nil {
		<-done
	}
}

// Stop cancels the probe scheduler and log capture goroutines, terminates
// the child, and transitions to Stopped. It returns ErrNotRunning if no
// child is active.
func (s *Supervisor) Stop(ctx context.Context) error {
	s.mu.RLock()
	proc := s.proc
	s.mu.RUnlock()
	if proc == nil {
		return ErrNotRunning
	}

	group, groupCtx := errgroup.WithContext(ctx)
	group.Go(func() error {
		s.stopRunLocked()
		return nil
	})

	done := make(chan error, 1)
	go func() { done <- group.Wait() }()

	select {
	case err := <-done:
		if err != nil {
			return err
		}
	case <-groupCtx.Done():
		return groupCtx.Err()
	}

	s.mu.Lock()
	s.proc = nil
	s.setStateLocked(StateStopped, nil)
	s.mu.Unlock()
	return nil
}

// setStateLocked updates state/lastErr and fires onStatus outside of the
// lock. Callers must hold s.mu.
func (s *Supervisor) setStateLocked(next State, err error) {
	prev := s.state
	s.state = next
	s.lastErr = err
	restartCount := s.restartCount
	callback := s.onStatus

	if callback == nil || prev == next {
		return
	}
	update := StatusUpdate{Previous: prev, Current: next, RestartCount: restartCount, Err: err, Time: time.Now()}
	s.mu.Unlock()
	callback(update)
	s.mu.Lock()
}
