package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

var (
	dayStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#5B8DEF"))
	freeStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#666666"))
	warnStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#E8554E"))
)

// renderPlan draws the slot listing, one line per slot, grouped by
// day, with unsatisfied tasks called out underneath.
func (a *App) renderPlan(width int) string {
	if a.plan == nil {
		return "No plan yet"
	}
	sched := a.plan.Schedule

	var rows []string
	lastDay := ""
	for _, slot := range sched.Slots {
		local := slot.Start.In(a.loc)
		day := local.Format("Mon Jan 2")
		if day != lastDay {
			if lastDay != "" {
				rows = append(rows, "")
			}
			rows = append(rows, dayStyle.Render(day))
			lastDay = day
		}
		label := freeStyle.Render("· free")
		if slot.TaskID != "" {
			name := slot.TaskID
			if task, ok := a.snap.TaskByID(slot.TaskID); ok {
				name = task.Name
			}
			label = name
		}
		rows = append(rows, fmt.Sprintf("  %s  %s", local.Format("15:04"), label))
	}
	if len(rows) == 0 {
		rows = append(rows, "The horizon holds no slots")
	}

	if unsat := sched.Unsatisfied(); len(unsat) > 0 {
		rows = append(rows, "")
		for _, id := range unsat {
			name := id
			if task, ok := a.snap.TaskByID(id); ok {
				name = task.Name
			}
			report := sched.Reports[id]
			rows = append(rows, warnStyle.Render(
				fmt.Sprintf("⚠ %s is short %d slot(s) · extend its due date or shrink its estimate", name, report.Shortfall)))
		}
	}

	hint := lipgloss.NewStyle().
		Foreground(lipgloss.Color("#AAAAAA")).
		MarginTop(1).
		Render("q or Esc → back to menu")
	rows = append(rows, hint)

	return lipgloss.NewStyle().Width(max(20, width)).Render(strings.Join(rows, "\n"))
}
