package schedule

import "sort"

// sliceHorizon lays slots over the active periods between Now and the
// furthest due date. Each period is cut into slice-length slots from
// its start; a trailing remainder shorter than one slice is dropped,
// since partial slots are not schedulable. A slot that is already
// underway at Now (started earlier, ends later) is kept.
func sliceHorizon(in Input) ([]Slot, error) {
	end := in.Tasks[0].Due
	for _, t := range in.Tasks[1:] {
		if t.Due.After(end) {
			end = t.Due
		}
	}

	periods := make([]ActivePeriod, len(in.ActivePeriods))
	copy(periods, in.ActivePeriods)
	sort.Slice(periods, func(i, j int) bool { return periods[i].Start.Before(periods[j].Start) })

	var slots []Slot
	for _, p := range periods {
		for cursor := p.Start; !cursor.Add(in.SliceLength).After(p.End); cursor = cursor.Add(in.SliceLength) {
			if !cursor.Add(in.SliceLength).After(in.Now) {
				continue
			}
			if !cursor.Before(end) {
				break
			}
			slots = append(slots, Slot{Index: len(slots), Start: cursor})
		}
	}
	if len(slots) == 0 {
		return nil, ErrNoSlots
	}
	return slots, nil
}
