package schedule

import (
	"fmt"
	"sort"
)

// triage resolves the contention the claim pass left behind. It loops
// full passes over the still-unsatisfied tasks until a pass captures
// nothing. Within a pass the least-favored unsatisfied task goes
// first, so slots ripple toward favored tasks one hop at a time
// instead of cascading; a task evicted mid-pass gets its own turn on
// a later pass.
//
// Each capture either fills a free slot or moves an occupied one to a
// strictly more favored task, so a slot can change hands at most
// (task count - 1) times and the loop must reach a fixpoint within
// slots*tasks passes. Going past that bound means the bookkeeping is
// corrupted, which is not a condition to limp through.
func (s *Schedule) triage() {
	unsat := make(map[string]*slotTask)
	for _, t := range s.tasks {
		if len(t.window) > 0 && t.claimed < t.Duration {
			unsat[t.ID] = t
		}
	}

	bound := len(s.Slots)*len(s.tasks) + 1
	for pass := 0; len(unsat) > 0; pass++ {
		if pass >= bound {
			panic(fmt.Sprintf("schedule: triage still moving after %d passes", pass))
		}
		captured := false
		for _, t := range passOrder(unsat) {
			for _, idx := range t.window {
				if t.claimed == t.Duration {
					break
				}
				occupant := s.occupant(idx)
				if occupant == t {
					continue
				}
				if occupant != nil {
					if !t.moreFavored(occupant) {
						continue
					}
					occupant.claimed--
					if occupant.claimed < occupant.Duration {
						unsat[occupant.ID] = occupant
					}
				}
				s.Slots[idx].TaskID = t.ID
				t.claimed++
				captured = true
			}
			if t.claimed == t.Duration {
				delete(unsat, t.ID)
			}
		}
		if !captured {
			break
		}
	}
}

// passOrder sorts the unsatisfied set least-favored first, ties broken
// on task id.
func passOrder(unsat map[string]*slotTask) []*slotTask {
	order := make([]*slotTask, 0, len(unsat))
	for _, t := range unsat {
		order = append(order, t)
	}
	sort.Slice(order, func(i, j int) bool {
		if order[i].Priority != order[j].Priority {
			return order[i].Priority < order[j].Priority
		}
		return order[i].ID < order[j].ID
	})
	return order
}
