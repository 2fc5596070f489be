package schedule

import (
	"errors"
	"strings"
	"testing"
	"time"
)

var t0 = time.Date(2024, 3, 30, 9, 0, 0, 0, time.UTC)

const slice = 25 * time.Minute

// slotTime returns the start of slot i when one active period covers
// the whole horizon.
func slotTime(i int) time.Time {
	return t0.Add(time.Duration(i) * slice)
}

func singlePeriod(slots int) []ActivePeriod {
	return []ActivePeriod{{Start: t0, End: slotTime(slots)}}
}

// checkPlacement fails the test if any assigned slot sits outside its
// task's working period or any report disagrees with the layout.
func checkPlacement(t *testing.T, s *Schedule) {
	t.Helper()
	held := make(map[string]int)
	for _, slot := range s.Slots {
		if slot.TaskID == "" {
			continue
		}
		task, ok := s.tasks[slot.TaskID]
		if !ok {
			t.Fatalf("slot %d assigned to unknown task %q", slot.Index, slot.TaskID)
		}
		if !task.inWindow(slot.Index) {
			t.Fatalf("task %q holds slot %d outside its window %v", slot.TaskID, slot.Index, task.window)
		}
		held[slot.TaskID]++
	}
	for id, task := range s.tasks {
		report, ok := s.Reports[id]
		if !ok {
			t.Fatalf("task %q has no report", id)
		}
		want := task.Duration - report.Shortfall
		if held[id] != want {
			t.Fatalf("task %q holds %d slots, report implies %d", id, held[id], want)
		}
		if report.Status == StatusSatisfied && report.Shortfall != 0 {
			t.Fatalf("task %q satisfied with shortfall %d", id, report.Shortfall)
		}
	}
}

func assignedCount(s *Schedule) int {
	n := 0
	for _, slot := range s.Slots {
		if slot.TaskID != "" {
			n++
		}
	}
	return n
}

// The canonical contention scenario: ten slots, a long flexible task
// that comes up one slot short after claiming, and two tighter tasks
// sitting on the slots it needs. Triage must ripple exactly one slot
// down the priority chain so the favored task finishes and the
// least-favored one ends short by one.
func TestRunWorkedScenario(t *testing.T) {
	in := Input{
		Now:           t0,
		SliceLength:   slice,
		ActivePeriods: singlePeriod(10),
		Tasks: []Task{
			{ID: "alpha", Duration: 7, Start: t0, Due: slotTime(10), Priority: 9},
			{ID: "bravo", Duration: 1, Start: slotTime(4), Due: slotTime(6), Priority: 5},
			{ID: "charlie", Duration: 3, Start: slotTime(5), Due: slotTime(10), Priority: 3},
		},
		Seed: 1,
	}

	slots, err := sliceHorizon(in)
	if err != nil {
		t.Fatalf("slice horizon: %v", err)
	}
	s := &Schedule{
		Slots:   slots,
		Reports: make(map[string]Report),
		tasks:   make(map[string]*slotTask),
	}
	s.resolveWindows(in)

	if got := len(s.Slots); got != 10 {
		t.Fatalf("laid out %d slots, want 10", got)
	}
	if w := s.tasks["bravo"].window; len(w) != 2 || w[0] != 4 || w[1] != 5 {
		t.Fatalf("bravo window = %v, want [4 5]", w)
	}
	if w := s.tasks["charlie"].window; len(w) != 5 || w[0] != 5 {
		t.Fatalf("charlie window = %v, want slots 5..9", w)
	}

	s.claim()
	checkClaims := map[string][]int{
		"bravo":   {4},
		"charlie": {5, 6, 7},
		"alpha":   {0, 1, 2, 3, 8, 9},
	}
	for id, want := range checkClaims {
		if got := s.HeldSlots(id); !equalInts(got, want) {
			t.Fatalf("after claim, %s holds %v, want %v", id, got, want)
		}
	}
	if got := s.tasks["alpha"].claimed; got != 6 {
		t.Fatalf("alpha claimed %d slots, want 6 (one short)", got)
	}
	before := assignedCount(s)

	s.triage()
	// No free slots existed, so triage only moved occupancy around.
	if after := assignedCount(s); after != before {
		t.Fatalf("triage changed total occupancy %d -> %d", before, after)
	}
	s.finalize()

	if r := s.Reports["alpha"]; r.Status != StatusSatisfied {
		t.Fatalf("alpha report = %+v, want satisfied", r)
	}
	if r := s.Reports["bravo"]; r.Status != StatusSatisfied {
		t.Fatalf("bravo report = %+v, want satisfied", r)
	}
	if r := s.Reports["charlie"]; r.Status != StatusUnschedulable || r.Shortfall != 1 {
		t.Fatalf("charlie report = %+v, want unschedulable with shortfall 1", r)
	}
	checkPlacement(t, s)

	// Triage already reached its fixpoint: another round moves nothing.
	layout := heldLayout(s)
	s.triage()
	if got := heldLayout(s); got != layout {
		t.Fatalf("second triage changed the layout:\n%s\nvs\n%s", layout, got)
	}
}

func TestRunIsDeterministicForASeed(t *testing.T) {
	in := Input{
		Now:           t0,
		SliceLength:   slice,
		ActivePeriods: singlePeriod(12),
		Tasks: []Task{
			{ID: "a", Duration: 3, Start: t0, Due: slotTime(12), Priority: 1},
			{ID: "b", Duration: 2, Start: t0, Due: slotTime(8), Priority: 2},
			{ID: "c", Duration: 4, Start: slotTime(2), Due: slotTime(12), Priority: 3},
		},
		Seed: 42,
	}
	first, err := Run(in)
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	second, err := Run(in)
	if err != nil {
		t.Fatalf("rerun: %v", err)
	}
	if heldLayout(first) != heldLayout(second) {
		t.Fatalf("same input and seed produced different layouts:\n%s\nvs\n%s", heldLayout(first), heldLayout(second))
	}
	checkPlacement(t, first)
}

func TestRunReportsEmptyWindowTasks(t *testing.T) {
	in := Input{
		Now:           t0,
		SliceLength:   slice,
		ActivePeriods: singlePeriod(4),
		Tasks: []Task{
			{ID: "doable", Duration: 2, Start: t0, Due: slotTime(4), Priority: 1},
			// Window closed before the horizon even starts.
			{ID: "stale", Duration: 3, Start: t0.Add(-2 * time.Hour), Due: t0, Priority: 9},
		},
		Seed: 7,
	}
	s, err := Run(in)
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if r := s.Reports["stale"]; r.Status != StatusUnschedulable || r.Shortfall != 3 {
		t.Fatalf("stale report = %+v, want unschedulable with full shortfall", r)
	}
	if held := s.HeldSlots("stale"); len(held) != 0 {
		t.Fatalf("stale holds %v despite empty window", held)
	}
	if r := s.Reports["doable"]; r.Status != StatusSatisfied {
		t.Fatalf("doable report = %+v, want satisfied", r)
	}
	checkPlacement(t, s)
}

func TestRunValidation(t *testing.T) {
	good := Task{ID: "ok", Duration: 1, Start: t0, Due: slotTime(4), Priority: 1}
	cases := []struct {
		name    string
		in      Input
		sentinel error
		substr  string
	}{
		{
			name:     "no tasks",
			in:       Input{Now: t0, SliceLength: slice, ActivePeriods: singlePeriod(4)},
			sentinel: ErrNoTasks,
		},
		{
			name:   "zero duration",
			in:     Input{Now: t0, SliceLength: slice, ActivePeriods: singlePeriod(4), Tasks: []Task{{ID: "t", Duration: 0, Start: t0, Due: slotTime(4)}}},
			substr: "below one slot",
		},
		{
			name:   "due before start",
			in:     Input{Now: t0, SliceLength: slice, ActivePeriods: singlePeriod(4), Tasks: []Task{{ID: "t", Duration: 1, Start: slotTime(4), Due: t0}}},
			substr: "precedes start",
		},
		{
			name:   "inverted active period",
			in:     Input{Now: t0, SliceLength: slice, ActivePeriods: []ActivePeriod{{Start: slotTime(4), End: t0}}, Tasks: []Task{good}},
			substr: "ends before it starts",
		},
		{
			name:   "duplicate task id",
			in:     Input{Now: t0, SliceLength: slice, ActivePeriods: singlePeriod(4), Tasks: []Task{good, good}},
			substr: "duplicate task id",
		},
		{
			name:     "horizon with no slots",
			in:       Input{Now: t0, SliceLength: slice, ActivePeriods: []ActivePeriod{{Start: t0.Add(-3 * time.Hour), End: t0.Add(-2 * time.Hour)}}, Tasks: []Task{good}},
			sentinel: ErrNoSlots,
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Run(tc.in)
			if err == nil {
				t.Fatalf("expected a validation error")
			}
			if tc.sentinel != nil && !errors.Is(err, tc.sentinel) {
				t.Fatalf("err = %v, want %v", err, tc.sentinel)
			}
			if tc.substr != "" && !strings.Contains(err.Error(), tc.substr) {
				t.Fatalf("err = %v, missing %q", err, tc.substr)
			}
		})
	}
}

func TestSlicerSkipsGapsAndPartialSlices(t *testing.T) {
	in := Input{
		Now:         t0,
		SliceLength: slice,
		ActivePeriods: []ActivePeriod{
			// Two slots, then a 40-minute remainder that fits one more
			// slot with 15 minutes left over.
			{Start: t0, End: t0.Add(3*slice + 15*time.Minute)},
			// A gap, then two more slots.
			{Start: t0.Add(5 * time.Hour), End: t0.Add(5*time.Hour + 2*slice)},
		},
		Tasks: []Task{{ID: "t", Duration: 1, Start: t0, Due: t0.Add(8 * time.Hour), Priority: 1}},
	}
	slots, err := sliceHorizon(in)
	if err != nil {
		t.Fatalf("slice horizon: %v", err)
	}
	if len(slots) != 5 {
		t.Fatalf("laid out %d slots, want 5", len(slots))
	}
	if !slots[3].Start.Equal(t0.Add(5 * time.Hour)) {
		t.Fatalf("slot 3 starts at %v, want the second active period", slots[3].Start)
	}
	for i, slot := range slots {
		if slot.Index != i {
			t.Fatalf("slot %d carries index %d", i, slot.Index)
		}
	}
}

func TestTriageCapturesFreeSlotsFirst(t *testing.T) {
	// One task, window over slots 2..5 of 6, all free: triage is a
	// no-op because claiming already fills from free slots; but a task
	// whose window opens mid-horizon must not take earlier slots.
	in := Input{
		Now:           t0,
		SliceLength:   slice,
		ActivePeriods: singlePeriod(6),
		Tasks: []Task{
			{ID: "late", Duration: 2, Start: slotTime(2), Due: slotTime(6), Priority: 1},
		},
		Seed: 3,
	}
	s, err := Run(in)
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	for _, idx := range s.HeldSlots("late") {
		if idx < 2 {
			t.Fatalf("late holds slot %d before its window opens", idx)
		}
	}
	checkPlacement(t, s)
}

// Overcommitted horizon: more demand than slots. The favored tasks
// must finish and the least favored absorbs the entire deficit.
func TestTriageStarvesLeastFavoredTask(t *testing.T) {
	in := Input{
		Now:           t0,
		SliceLength:   slice,
		ActivePeriods: singlePeriod(6),
		Tasks: []Task{
			{ID: "low", Duration: 4, Start: t0, Due: slotTime(6), Priority: 1},
			{ID: "mid", Duration: 2, Start: t0, Due: slotTime(6), Priority: 2},
			{ID: "high", Duration: 3, Start: t0, Due: slotTime(6), Priority: 3},
		},
		Seed: 11,
	}
	s, err := Run(in)
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if r := s.Reports["high"]; r.Status != StatusSatisfied {
		t.Fatalf("high report = %+v, want satisfied", r)
	}
	if r := s.Reports["mid"]; r.Status != StatusSatisfied {
		t.Fatalf("mid report = %+v, want satisfied", r)
	}
	if r := s.Reports["low"]; r.Status != StatusUnschedulable || r.Shortfall != 3 {
		t.Fatalf("low report = %+v, want shortfall 3", r)
	}
	if got := s.Unsatisfied(); len(got) != 1 || got[0] != "low" {
		t.Fatalf("unsatisfied = %v, want [low]", got)
	}
	checkPlacement(t, s)
}

func heldLayout(s *Schedule) string {
	var b strings.Builder
	for _, slot := range s.Slots {
		if slot.TaskID == "" {
			b.WriteString("_.")
			continue
		}
		b.WriteString(slot.TaskID)
		b.WriteString(".")
	}
	return b.String()
}

func equalInts(a, b []int) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
