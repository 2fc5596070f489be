package pomodoro

import (
	"math/rand"
	"testing"
)

func TestTickWalksTheCadence(t *testing.T) {
	want := []State{
		{Phase: PhaseWork, Countdown: 3},
		{Phase: PhaseShortBreak, Countdown: 2},
		{Phase: PhaseWork, Countdown: 2},
		{Phase: PhaseShortBreak, Countdown: 1},
		{Phase: PhaseWork, Countdown: 1},
		{Phase: PhaseShortBreak, Countdown: 0},
		{Phase: PhaseWork, Countdown: 0},
		{Phase: PhaseLongBreak},
		{Phase: PhaseWork, Countdown: 3},
		{Phase: PhaseShortBreak, Countdown: 2},
	}
	state := Start()
	for i, expect := range want {
		state = state.Tick(4)
		if state != expect {
			t.Fatalf("step %d: got %+v, want %+v", i, state, expect)
		}
	}
}

func TestUntickReversesTick(t *testing.T) {
	rng := rand.New(rand.NewSource(128))
	for round := 0; round < 128; round++ {
		interval := 2 + rng.Intn(62)
		var state State
		switch rng.Intn(3) {
		case 0:
			state = State{Phase: PhaseLongBreak}
		case 1:
			state = State{Phase: PhaseShortBreak, Countdown: rng.Intn(interval - 1)}
		default:
			state = State{Phase: PhaseWork, Countdown: rng.Intn(interval - 1)}
		}
		initial := state
		steps := rng.Intn(256)
		for i := 0; i < steps; i++ {
			state = state.Tick(interval)
		}
		for i := 0; i < steps; i++ {
			state = state.Untick(interval)
		}
		if state != initial {
			t.Fatalf("interval %d: walked %d steps out and back, got %+v want %+v", interval, steps, state, initial)
		}
	}
}

func TestZeroValueBehavesLikeLongBreak(t *testing.T) {
	var zero State
	if got := zero.Tick(4); got != (State{Phase: PhaseWork, Countdown: 3}) {
		t.Fatalf("zero value tick = %+v, want first work period", got)
	}
	if zero.IsWork() {
		t.Fatalf("zero value must not count as working time")
	}
}
