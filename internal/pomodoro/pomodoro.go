// Package pomodoro models the work/break cadence the planner lays
// slots over: a fixed number of work periods separated by short
// breaks, then a long break, repeating.
package pomodoro

import "time"

// Phase names one kind of period in the cadence.
type Phase string

const (
	PhaseWork       Phase = "work"
	PhaseShortBreak Phase = "short-break"
	PhaseLongBreak  Phase = "long-break"
)

// State is one position in the cadence. Countdown tracks how many
// work periods remain before the next long break; it is meaningful
// for PhaseWork and PhaseShortBreak only. The zero value normalizes
// to a long break, which is where a fresh day starts.
type State struct {
	Phase     Phase `yaml:"phase"`
	Countdown int   `yaml:"countdown"`
}

// Start is the state a cadence begins from.
func Start() State {
	return State{Phase: PhaseLongBreak}
}

// Tick advances to the next state. breakInterval is how many work
// periods fit between long breaks and must be at least 1.
func (s State) Tick(breakInterval int) State {
	switch s.Phase {
	case PhaseWork:
		if s.Countdown == 0 {
			return State{Phase: PhaseLongBreak}
		}
		return State{Phase: PhaseShortBreak, Countdown: s.Countdown - 1}
	case PhaseShortBreak:
		return State{Phase: PhaseWork, Countdown: s.Countdown}
	default:
		return State{Phase: PhaseWork, Countdown: breakInterval - 1}
	}
}

// Untick steps backwards, undoing exactly one Tick with the same
// interval.
func (s State) Untick(breakInterval int) State {
	switch s.Phase {
	case PhaseWork:
		if s.Countdown >= breakInterval-1 {
			return State{Phase: PhaseLongBreak}
		}
		return State{Phase: PhaseShortBreak, Countdown: s.Countdown}
	case PhaseShortBreak:
		return State{Phase: PhaseWork, Countdown: s.Countdown + 1}
	default:
		return State{Phase: PhaseWork, Countdown: 0}
	}
}

// IsWork reports whether this period is schedulable working time.
func (s State) IsWork() bool {
	return s.Phase == PhaseWork
}

// Span is one realized period of the cadence on the clock. The
// planner keeps a ledger of spans and lays schedule slots over the
// work ones.
type Span struct {
	Start time.Time `yaml:"start"`
	End   time.Time `yaml:"end"`
	State State     `yaml:"state"`
}
