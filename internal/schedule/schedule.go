package schedule

import (
	"errors"
	"fmt"
	"math/rand"
	"sort"
	"time"
)

// Status describes where a task ended up after a run.
type Status string

const (
	// StatusSatisfied means the task secured every slot it needs.
	StatusSatisfied Status = "satisfied"
	// StatusUnschedulable means the task could not secure its full
	// duration. The slots it did secure are kept; Shortfall records the
	// remaining deficit.
	StatusUnschedulable Status = "unschedulable"
)

// ActivePeriod is a contiguous range of time the user is willing to
// work during. Only time inside an active period is sliced into slots.
type ActivePeriod struct {
	Start time.Time
	End   time.Time
}

// Task is one unit of work to place. Duration is measured in slots.
// Higher Priority values win contested slots during triage.
type Task struct {
	ID       string
	Duration int
	Start    time.Time
	Due      time.Time
	Priority int
}

// Slot is one schedulable slice of time. TaskID is empty for free
// slots; a slot never carries more than one task.
type Slot struct {
	Index  int
	Start  time.Time
	TaskID string
}

// Report is the per-task outcome of a run.
type Report struct {
	Status    Status
	Shortfall int
}

// Input is the immutable snapshot a run computes over.
type Input struct {
	// Now anchors the horizon; slots that have already ended are not
	// laid out, and no task may be placed before Now.
	Now time.Time
	// SliceLength is the length of one slot.
	SliceLength time.Duration
	// ActivePeriods are the ranges to slice into slots, in time order.
	ActivePeriods []ActivePeriod
	// Tasks to place.
	Tasks []Task
	// Seed drives the layout shuffle. Runs with equal inputs and equal
	// seeds produce identical layouts.
	Seed int64
}

// Validation failures reported before any placement happens. A task
// missing its duration is a caller error; a task missing its slots is
// a scheduling outcome, reported per task in Reports instead.
var (
	ErrNoTasks = errors.New("schedule: no tasks to place")
	ErrNoSlots = errors.New("schedule: horizon contains no slots")
)

// Schedule is the result of a run: the slot layout plus per-task
// reports. The shuffle methods re-randomize the layout in place without
// changing any report.
type Schedule struct {
	Slots   []Slot
	Reports map[string]Report

	tasks map[string]*slotTask
}

// slotTask is the run-local mutable view of a task.
type slotTask struct {
	Task
	window  []int // slot indices this task may occupy, ascending
	claimed int
}

func (t *slotTask) inWindow(idx int) bool {
	i := sort.SearchInts(t.window, idx)
	return i < len(t.window) && t.window[i] == idx
}

// moreFavored reports whether t beats other for a contested slot.
// Strictly greater priority only: equal-priority tasks never evict
// each other.
func (t *slotTask) moreFavored(other *slotTask) bool {
	return t.Priority > other.Priority
}

// Run validates the input, lays out the slot sequence, places every
// task, and shuffles the layout with the input seed.
func Run(in Input) (*Schedule, error) {
	if err := in.validate(); err != nil {
		return nil, err
	}
	slots, err := sliceHorizon(in)
	if err != nil {
		return nil, err
	}
	s := &Schedule{
		Slots:   slots,
		Reports: make(map[string]Report, len(in.Tasks)),
		tasks:   make(map[string]*slotTask, len(in.Tasks)),
	}
	s.resolveWindows(in)
	s.claim()
	s.triage()
	s.finalize()
	s.Shuffle(in.Seed)
	return s, nil
}

func (in Input) validate() error {
	if len(in.Tasks) == 0 {
		return ErrNoTasks
	}
	if in.SliceLength <= 0 {
		return fmt.Errorf("schedule: slice length %v must be positive", in.SliceLength)
	}
	seen := make(map[string]struct{}, len(in.Tasks))
	for _, t := range in.Tasks {
		if t.ID == "" {
			return fmt.Errorf("schedule: task without an id")
		}
		if _, dup := seen[t.ID]; dup {
			return fmt.Errorf("schedule: duplicate task id %q", t.ID)
		}
		seen[t.ID] = struct{}{}
		if t.Duration < 1 {
			return fmt.Errorf("schedule: task %q: duration %d is below one slot", t.ID, t.Duration)
		}
		if t.Due.Before(t.Start) {
			return fmt.Errorf("schedule: task %q: due %s precedes start %s", t.ID, t.Due.Format(time.RFC3339), t.Start.Format(time.RFC3339))
		}
	}
	for i, p := range in.ActivePeriods {
		if p.End.Before(p.Start) {
			return fmt.Errorf("schedule: active period %d ends before it starts", i)
		}
	}
	return nil
}

// finalize turns claim counts into reports. Empty-window tasks were
// already reported by the window resolver.
func (s *Schedule) finalize() {
	for id, t := range s.tasks {
		if len(t.window) == 0 {
			continue
		}
		if t.claimed == t.Duration {
			s.Reports[id] = Report{Status: StatusSatisfied}
			continue
		}
		s.Reports[id] = Report{Status: StatusUnschedulable, Shortfall: t.Duration - t.claimed}
	}
}

// HeldSlots returns the slot indices currently assigned to the task,
// in ascending order.
func (s *Schedule) HeldSlots(id string) []int {
	var held []int
	for _, slot := range s.Slots {
		if slot.TaskID == id {
			held = append(held, slot.Index)
		}
	}
	return held
}

// Unsatisfied returns the ids of tasks that ended the run short of
// their duration, sorted for stable display.
func (s *Schedule) Unsatisfied() []string {
	var ids []string
	for id, report := range s.Reports {
		if report.Shortfall > 0 {
			ids = append(ids, id)
		}
	}
	sort.Strings(ids)
	return ids
}

// Shuffle re-randomizes the slot layout from the given seed. Window
// membership and every task's held-slot count are preserved.
func (s *Schedule) Shuffle(seed int64) {
	s.shuffleWith(rand.New(rand.NewSource(seed)))
}

func (s *Schedule) occupant(idx int) *slotTask {
	id := s.Slots[idx].TaskID
	if id == "" {
		return nil
	}
	t, ok := s.tasks[id]
	if !ok {
		panic(fmt.Sprintf("schedule: slot %d assigned to unknown task %q", idx, id))
	}
	return t
}

// clone shares the immutable task records but copies the layout, so a
// candidate shuffle can be scored without committing it.
func (s *Schedule) clone() *Schedule {
	slots := make([]Slot, len(s.Slots))
	copy(slots, s.Slots)
	return &Schedule{Slots: slots, Reports: s.Reports, tasks: s.tasks}
}
