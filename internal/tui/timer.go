package tui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/progress"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/marlowe/pommel/internal/pomodoro"
)

// tickMsg fires once a second while the timer screen is up.
type tickMsg time.Time

// timerView tracks the span being worked through. entered is when the
// user actually sat down on this span, so a timer started mid-span
// only credits the time really spent.
type timerView struct {
	span     pomodoro.Span
	taskID   string
	taskName string
	entered  time.Time
	gauge    progress.Model
}

func tickCmd() tea.Cmd {
	return tea.Tick(time.Second, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

// startTimer opens the timer on the span covering now.
func (a *App) startTimer() (tea.Model, tea.Cmd) {
	now := a.clock()
	span, ok := spanAt(a.plan.Ledger, now)
	if !ok {
		a.statusMsg = "No working hours left on the ledger"
		return a, nil
	}
	a.timer = a.newTimerView(span, now)
	a.notifier.PhaseStarted(span.State.Phase, a.timer.taskName)
	a.logbook.Info("Timer · %s span started", span.State.Phase)
	a.screen = screenTimer
	return a, tickCmd()
}

func (a *App) newTimerView(span pomodoro.Span, now time.Time) *timerView {
	entered := now
	if span.Start.After(entered) {
		entered = span.Start
	}
	taskID, taskName := a.occupantOf(span)
	gauge := progress.New(progress.WithDefaultGradient())
	return &timerView{span: span, taskID: taskID, taskName: taskName, entered: entered, gauge: gauge}
}

// occupantOf finds which task holds the slot laid over a work span.
func (a *App) occupantOf(span pomodoro.Span) (id, name string) {
	if !span.State.IsWork() || a.plan == nil {
		return "", ""
	}
	for _, slot := range a.plan.Schedule.Slots {
		if slot.Start.Equal(span.Start) {
			if slot.TaskID == "" {
				return "", ""
			}
			if task, ok := a.snap.TaskByID(slot.TaskID); ok {
				return task.ID, task.Name
			}
			return slot.TaskID, slot.TaskID
		}
	}
	return "", ""
}

// spanAt returns the ledger span covering now, or the next one after
// it.
func spanAt(ledger []pomodoro.Span, now time.Time) (pomodoro.Span, bool) {
	for _, span := range ledger {
		if span.End.After(now) {
			return span, true
		}
	}
	return pomodoro.Span{}, false
}

// updateTimer advances the timer on a tick: either keep counting, or
// close out the span and roll onto the next one.
func (a *App) updateTimer() tea.Cmd {
	now := a.clock()
	t := a.timer
	if now.Before(t.span.End) {
		return tickCmd()
	}

	a.creditWork(t, t.span.End)
	a.notifier.SpanFinished(t.span.State.Phase)

	next, ok := spanAt(a.plan.Ledger, now)
	if !ok {
		a.statusMsg = "Ledger exhausted · replan to keep going"
		a.screen = screenMenu
		a.timer = nil
		return nil
	}
	a.timer = a.newTimerView(next, now)
	a.notifier.PhaseStarted(next.State.Phase, a.timer.taskName)
	a.logbook.Info("Timer · rolled onto %s span", next.State.Phase)
	return tickCmd()
}

// stopTimer credits the partial span worked before the user quit.
func (a *App) stopTimer() {
	t := a.timer
	until := a.clock()
	if until.After(t.span.End) {
		until = t.span.End
	}
	a.creditWork(t, until)
	a.logbook.Info("Timer · stopped")
}

// creditWork books time spent on a work span against its task.
func (a *App) creditWork(t *timerView, until time.Time) {
	if t.taskID == "" || !t.span.State.IsWork() {
		return
	}
	elapsed := until.Sub(t.entered)
	if elapsed <= 0 {
		return
	}
	if err := a.snap.RecordWork(t.taskID, elapsed); err != nil {
		a.logbook.Error("Record work: %v", err)
		return
	}
	a.saveSnapshot()
	a.logbook.Info("Worked %s on %s", elapsed.Round(time.Second), t.taskName)
}

func (a *App) renderTimer(width int) string {
	t := a.timer
	now := a.clock()

	var headline string
	switch t.span.State.Phase {
	case pomodoro.PhaseWork:
		headline = "Working"
		if t.taskName != "" {
			headline = fmt.Sprintf("Working on %s", t.taskName)
		}
	case pomodoro.PhaseShortBreak:
		headline = "Short break"
	default:
		headline = "Long break"
	}

	total := t.span.End.Sub(t.span.Start)
	elapsed := now.Sub(t.span.Start)
	fraction := 0.0
	if total > 0 {
		fraction = float64(elapsed) / float64(total)
	}
	if fraction < 0 {
		fraction = 0
	}
	if fraction > 1 {
		fraction = 1
	}
	remaining := t.span.End.Sub(now)
	if remaining < 0 {
		remaining = 0
	}

	t.gauge.Width = max(20, width-4)
	title := lipgloss.NewStyle().Bold(true).Render(headline)
	clock := lipgloss.NewStyle().
		Foreground(lipgloss.Color("#5B8DEF")).
		Render(fmt.Sprintf("%s remaining · ends %s", remaining.Round(time.Second), t.span.End.In(a.loc).Format("15:04")))
	hint := lipgloss.NewStyle().
		Foreground(lipgloss.Color("#AAAAAA")).
		MarginTop(1).
		Render("q → stop and bank the time    Esc → back to menu")
	return strings.Join([]string{title, clock, "", t.gauge.ViewAs(fraction), hint}, "\n")
}
