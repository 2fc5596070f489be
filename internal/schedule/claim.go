package schedule

import "sort"

// claim runs the greedy first pass. Tasks pick in ascending order of
// working-period length, so the tightest-constrained tasks choose
// before flexible ones can crowd them out; ties break on task id to
// keep runs deterministic. Each task walks its window front to back
// taking free slots until it is satisfied or out of window. This pass
// never touches a slot another task already holds.
func (s *Schedule) claim() {
	order := make([]*slotTask, 0, len(s.tasks))
	for _, t := range s.tasks {
		if len(t.window) > 0 {
			order = append(order, t)
		}
	}
	sort.Slice(order, func(i, j int) bool {
		if len(order[i].window) != len(order[j].window) {
			return len(order[i].window) < len(order[j].window)
		}
		return order[i].ID < order[j].ID
	})

	for _, t := range order {
		for _, idx := range t.window {
			if t.claimed == t.Duration {
				break
			}
			if s.Slots[idx].TaskID != "" {
				continue
			}
			s.Slots[idx].TaskID = t.ID
			t.claimed++
		}
	}
}
