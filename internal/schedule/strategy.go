package schedule

import (
	"math/rand"
	"time"
)

// Goal scores a layout. Higher is better; ShuffleMaximizing keeps the
// best-scoring layout it finds.
type Goal func(*Schedule) float64

// Strategy pairs a display name with its goal.
type Strategy struct {
	Name string
	Goal Goal
}

// Strategies lists the built-in layout preferences, anchored at now.
func Strategies(now time.Time) []Strategy {
	return []Strategy{
		{Name: "Small Victories", Goal: Invert(MeanCompletion(now))},
		{Name: "Procrastinator", Goal: MeanCompletion(now)},
		{Name: "Early Riser", Goal: MeanFreeDistance(now)},
		{Name: "Problem for Future Me", Goal: Invert(MeanFreeDistance(now))},
		{Name: "PWM", Goal: Invert(MeanFreeRun())},
		{Name: "Explosive", Goal: MeanFreeRun()},
		{Name: "Context Switch", Goal: Invert(MeanFocusRun())},
		{Name: "Hyperfocus", Goal: MeanFocusRun()},
	}
}

// Invert flips a goal, turning a preference into its opposite.
func Invert(g Goal) Goal {
	return func(s *Schedule) float64 { return -g(s) }
}

// MeanCompletion scores the average time from now to each task's last
// slot. Maximizing it pushes completions late; inverted, every task
// finishes as soon as its window allows.
func MeanCompletion(now time.Time) Goal {
	return func(s *Schedule) float64 {
		last := make(map[string]time.Time)
		for _, slot := range s.Slots {
			if slot.TaskID != "" {
				last[slot.TaskID] = slot.Start
			}
		}
		if len(last) == 0 {
			return 0
		}
		var total float64
		for _, at := range last {
			total += at.Sub(now).Seconds()
		}
		return total / float64(len(last))
	}
}

// MeanFreeDistance scores the average time from now to each free slot.
// Maximizing it front-loads the work and banks the free time for
// later.
func MeanFreeDistance(now time.Time) Goal {
	return func(s *Schedule) float64 {
		var total float64
		count := 0
		for _, slot := range s.Slots {
			if slot.TaskID == "" {
				total += slot.Start.Sub(now).Seconds()
				count++
			}
		}
		if count == 0 {
			return 0
		}
		return total / float64(count)
	}
}

// MeanFreeRun scores the average length of consecutive free-slot runs:
// long unbroken stretches of rest rather than scattered gaps.
func MeanFreeRun() Goal {
	return func(s *Schedule) float64 {
		var runs []int
		inRun := false
		for _, slot := range s.Slots {
			if slot.TaskID != "" {
				inRun = false
				continue
			}
			if inRun {
				runs[len(runs)-1]++
			} else {
				runs = append(runs, 1)
				inRun = true
			}
		}
		return meanRun(runs)
	}
}

// MeanFocusRun scores the average length of consecutive same-task
// runs: maximize for deep focus blocks, invert to rotate tasks often.
func MeanFocusRun() Goal {
	return func(s *Schedule) float64 {
		var runs []int
		current := ""
		for _, slot := range s.Slots {
			switch {
			case slot.TaskID == "":
				current = ""
			case slot.TaskID == current:
				runs[len(runs)-1]++
			default:
				current = slot.TaskID
				runs = append(runs, 1)
			}
		}
		return meanRun(runs)
	}
}

func meanRun(runs []int) float64 {
	if len(runs) == 0 {
		return 0
	}
	total := 0
	for _, r := range runs {
		total += r
	}
	return float64(total) / float64(len(runs))
}

// ShuffleMaximizing reshuffles copies of the layout for up to the
// given wall-clock budget and commits the best-scoring one. The
// current layout is the score to beat, so the result never gets
// worse. Returns the winning score and how many layouts were tried.
func (s *Schedule) ShuffleMaximizing(goal Goal, budget time.Duration, seed int64) (float64, int) {
	rng := rand.New(rand.NewSource(seed))
	best := goal(s)
	deadline := time.Now().Add(budget)
	tried := 0
	for time.Now().Before(deadline) {
		candidate := s.clone()
		candidate.shuffleWith(rng)
		if score := goal(candidate); score > best {
			best = score
			copy(s.Slots, candidate.Slots)
		}
		tried++
	}
	return best, tried
}
