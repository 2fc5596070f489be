package schedule

import "math/rand"

// shuffleWith walks the layout left to right and, at each position,
// swaps with one later slot chosen uniformly from the legal
// candidates. A swap is legal only when both occupants stay inside
// their own working periods; a free slot may sit anywhere. The current
// position always counts as a candidate, so "no swap" is one of the
// uniform outcomes. Legality is pair-dependent, so this is an explicit
// filtered scan rather than a stock shuffle.
func (s *Schedule) shuffleWith(rng *rand.Rand) {
	candidates := make([]int, 0, len(s.Slots))
	for i := range s.Slots {
		left := s.occupant(i)

		// An occupied slot can never legally move past the end of its
		// own window, so stop scanning there.
		limit := len(s.Slots) - 1
		if left != nil {
			limit = left.window[len(left.window)-1]
		}

		candidates = candidates[:0]
		candidates = append(candidates, i)
		for j := i + 1; j <= limit; j++ {
			if left != nil && !left.inWindow(j) {
				continue
			}
			if right := s.occupant(j); right != nil && !right.inWindow(i) {
				continue
			}
			candidates = append(candidates, j)
		}

		pick := candidates[rng.Intn(len(candidates))]
		if pick != i {
			s.Slots[i].TaskID, s.Slots[pick].TaskID = s.Slots[pick].TaskID, s.Slots[i].TaskID
		}
	}
}
