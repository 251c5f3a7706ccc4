package device

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
)

// Washer is an in-memory washer whose state changes only through guarded
// transitions or an explicit override.
type Washer struct {
	mu       sync.Mutex
	state    State
	reporter Reporter
	timeout  time.Duration

	pending sync.WaitGroup
}

// NewWasher creates a washer in the all-off state. A nil reporter disables
// reporting.
func NewWasher(reporter Reporter) *Washer {
	if reporter == nil {
		reporter = NewNullReporter()
	}
	return &Washer{reporter: reporter, timeout: 10 * time.Second}
}

// State returns a snapshot of the current state.
func (w *Washer) State() State {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.state
}

// TurnOn switches the washer on.
func (w *Washer) TurnOn() bool {
	return w.mutate(func(s *State) bool {
		if s.On {
			return false
		}
		s.On = true
		return true
	})
}

// TurnOff switches the washer off, also stopping and un-pausing it.
func (w *Washer) TurnOff() bool {
	return w.mutate(func(s *State) bool {
		if !s.On {
			return false
		}
		*s = State{}
		return true
	})
}

// Start begins a cycle on a washer that is on and idle.
func (w *Washer) Start() bool {
	return w.mutate(func(s *State) bool {
		if !s.On || s.IsRunning {
			return false
		}
		s.IsRunning = true
		s.IsPaused = false
		return true
	})
}

// Stop ends the running cycle and clears any pause.
func (w *Washer) Stop() bool {
	return w.mutate(func(s *State) bool {
		if !s.On || !s.IsRunning {
			return false
		}
		s.IsRunning = false
		s.IsPaused = false
		return true
	})
}

// Pause pauses a running cycle.
func (w *Washer) Pause() bool {
	return w.mutate(func(s *State) bool {
		if !s.On || !s.IsRunning || s.IsPaused {
			return false
		}
		s.IsPaused = true
		return true
	})
}

// Resume resumes a paused cycle.
func (w *Washer) Resume() bool {
	return w.mutate(func(s *State) bool {
		if !s.On || !s.IsRunning || !s.IsPaused {
			return false
		}
		s.IsPaused = false
		return true
	})
}

// Apply runs the named transition.
func (w *Washer) Apply(_ context.Context, name string) (State, error) {
	var fn func() bool
	switch name {
	case TransitionOn:
		fn = w.TurnOn
	case TransitionOff:
		fn = w.TurnOff
	case TransitionStart:
		fn = w.Start
	case TransitionStop:
		fn = w.Stop
	case TransitionPause:
		fn = w.Pause
	case TransitionResume:
		fn = w.Resume
	default:
		return w.State(), fmt.Errorf("%q: %w", name, ErrUnknownTransition)
	}

	if !fn() {
		log.Debug().Str("transition", name).Msg("transition guard not satisfied, state unchanged")
	}
	return w.State(), nil
}

// Override merges the present fields of p into the state without checking
// any invariant.
func (w *Washer) Override(_ context.Context, p Patch) State {
	w.mutate(func(s *State) bool {
		if p.On != nil {
			s.On = *p.On
		}
		if p.IsRunning != nil {
			s.IsRunning = *p.IsRunning
		}
		if p.IsPaused != nil {
			s.IsPaused = *p.IsPaused
		}
		return true
	})
	return w.State()
}

// Report pushes the current state without mutating it.
func (w *Washer) Report() {
	w.report(w.State())
}

// Wait blocks until every in-flight report has finished.
func (w *Washer) Wait() {
	w.pending.Wait()
}

func (w *Washer) mutate(fn func(*State) bool) bool {
	w.mu.Lock()
	changed := fn(&w.state)
	snapshot := w.state
	w.mu.Unlock()

	if !changed {
		return false
	}

	log.Info().
		Bool("on", snapshot.On).
		Bool("isRunning", snapshot.IsRunning).
		Bool("isPaused", snapshot.IsPaused).
		Msgf("***** The washer is %s *****", snapshot.Status())
	w.report(snapshot)
	return true
}

// report is fire-and-forget; failures are logged only.
func (w *Washer) report(s State) {
	w.pending.Add(1)
	go func() {
		defer w.pending.Done()

		ctx, cancel := context.WithTimeout(context.Background(), w.timeout)
		defer cancel()

		if err := w.reporter.Report(ctx, s); err != nil {
			log.Error().Err(err).Msg("report state failed")
			return
		}
		log.Debug().Msg("report state successful")
	}()
}
