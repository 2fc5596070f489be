// Package planner turns stored state into a live plan. It keeps the
// pomodoro ledger rolled forward over the user's working hours, feeds
// the work spans to the schedule core as active periods, and converts
// stored effort estimates into slot units.
package planner

import (
	"time"

	"github.com/marlowe/pommel/internal/pomodoro"
	"github.com/marlowe/pommel/internal/schedule"
	"github.com/marlowe/pommel/internal/store"
)

// Plan is a finished replan: the schedule plus the ledger it was laid
// over, ready to persist back into the snapshot.
type Plan struct {
	Schedule *schedule.Schedule
	Ledger   []pomodoro.Span
}

// Prune drops ledger spans that have fully elapsed. A span still
// underway at now is kept so the current pomodoro survives a restart.
func Prune(ledger []pomodoro.Span, now time.Time) []pomodoro.Span {
	kept := ledger[:0]
	for _, span := range ledger {
		if span.End.After(now) {
			kept = append(kept, span)
		}
	}
	return kept
}

// Extend rolls the cadence forward until the ledger covers the target
// time. New spans pick up from the last recorded state; when a span
// would run past the day's active hours, the cadence jumps to the next
// morning and restarts from a long break. loc fixes which wall clock
// the active hours are read against.
func Extend(ledger []pomodoro.Span, settings store.Settings, now, until time.Time, loc *time.Location) ([]pomodoro.Span, error) {
	activeStart, activeEnd, err := settings.ActiveWindow()
	if err != nil {
		return nil, err
	}

	cursor := now
	state := pomodoro.Start()
	if len(ledger) > 0 {
		last := ledger[len(ledger)-1]
		state = last.State
		if last.End.After(cursor) {
			cursor = last.End
		}
	}

	for !cursor.After(until) {
		state = state.Tick(settings.BreakInterval)
		var length time.Duration
		switch {
		case state.IsWork():
			length = settings.SliceLength.Std()
		case state.Phase == pomodoro.PhaseShortBreak:
			length = settings.ShortBreak.Std()
		default:
			length = settings.LongBreak.Std()
		}
		ledger = append(ledger, pomodoro.Span{Start: cursor, End: cursor.Add(length), State: state})
		cursor = cursor.Add(length)

		local := cursor.In(loc)
		midnight := time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, loc)
		if local.After(midnight.Add(activeEnd)) {
			cursor = midnight.AddDate(0, 0, 1).Add(activeStart)
			state = pomodoro.Start()
		}
	}
	return ledger, nil
}

// Replan prunes and extends the ledger to cover every due date, then
// runs the schedule core over the work spans. Finished tasks are left
// out; the rest are sized by their remaining effort, rounded up to
// whole slots. Validation errors from the core (including
// schedule.ErrNoTasks when nothing is pending) pass through.
func Replan(snap *store.Snapshot, now time.Time, loc *time.Location, seed int64) (*Plan, error) {
	slice := snap.Settings.SliceLength.Std()

	var tasks []schedule.Task
	until := now
	for _, t := range snap.Tasks {
		units := t.SlotUnits(slice)
		if units == 0 {
			continue
		}
		tasks = append(tasks, schedule.Task{
			ID:       t.ID,
			Duration: units,
			Start:    t.Start,
			Due:      t.Due,
			Priority: t.Priority,
		})
		if t.Due.After(until) {
			until = t.Due
		}
	}

	ledger, err := Extend(Prune(snap.Ledger, now), snap.Settings, now, until, loc)
	if err != nil {
		return nil, err
	}

	var periods []schedule.ActivePeriod
	for _, span := range ledger {
		if span.State.IsWork() {
			periods = append(periods, schedule.ActivePeriod{Start: span.Start, End: span.End})
		}
	}

	sched, err := schedule.Run(schedule.Input{
		Now:           now,
		SliceLength:   slice,
		ActivePeriods: periods,
		Tasks:         tasks,
		Seed:          seed,
	})
	if err != nil {
		return nil, err
	}
	return &Plan{Schedule: sched, Ledger: ledger}, nil
}
