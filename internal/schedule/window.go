package schedule

// resolveWindows computes each task's working period: the slot indices
// between max(Now, task start) and the due date. A task whose window
// comes back empty can never be placed and is reported unschedulable
// immediately; it takes no part in claiming or triage.
func (s *Schedule) resolveWindows(in Input) {
	for i := range in.Tasks {
		t := &slotTask{Task: in.Tasks[i]}
		earliest := t.Start
		if earliest.Before(in.Now) {
			earliest = in.Now
		}
		for _, slot := range s.Slots {
			if slot.Start.Before(earliest) {
				continue
			}
			if !slot.Start.Before(t.Due) {
				break
			}
			t.window = append(t.window, slot.Index)
		}
		s.tasks[t.ID] = t
		if len(t.window) == 0 {
			s.Reports[t.ID] = Report{Status: StatusUnschedulable, Shortfall: t.Duration}
		}
	}
}
