// Package schedule assigns pomodoro-length slots to tasks. A run slices
// the caller's active periods into an ordered slot sequence, resolves
// each task's working period inside that sequence, then hands out slots
// in three phases: a greedy claim pass that gives the tightest-window
// tasks first pick, a triage loop that lets favored tasks capture
// contested slots until nothing moves, and a constrained shuffle that
// randomizes the layout without moving any task outside its window.
//
// A run is a pure function over its input snapshot: callers keep their
// own task records, and all mutable bookkeeping lives inside the run.
// Randomness comes only from the explicit seed, so runs are
// reproducible.
package schedule
