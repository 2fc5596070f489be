package tui

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/marlowe/pommel/internal/store"
)

// timeLayout is how the form reads and writes timestamps.
const timeLayout = "2006-01-02 15:04"

// Field order in the task form.
const (
	fieldName = iota
	fieldPriority
	fieldStart
	fieldDue
	fieldEstimate
	fieldCount
)

var fieldLabels = [fieldCount]string{
	"Name",
	"Priority (higher wins contested slots)",
	"Start (yyyy-mm-dd hh:mm)",
	"Due (yyyy-mm-dd hh:mm)",
	"Estimate (e.g. 2h30m)",
}

// taskForm edits one task. It keeps the fields the form does not show
// (id, worked time, remote id) so an edit never loses them.
type taskForm struct {
	id     string
	remote string
	worked store.Duration
	loc    *time.Location

	inputs [fieldCount]textinput.Model
	focus  int
	errMsg string
}

// newTaskForm builds a form over the given task. A task with no ID is
// a fresh add; defaults put its window between now and tomorrow.
func newTaskForm(t store.Task, loc *time.Location, now time.Time) *taskForm {
	f := &taskForm{id: t.ID, remote: t.RemoteID, worked: t.Worked, loc: loc}

	start := t.Start
	due := t.Due
	if start.IsZero() {
		start = now
	}
	if due.IsZero() {
		due = now.AddDate(0, 0, 1)
	}

	values := [fieldCount]string{
		fieldName:     t.Name,
		fieldPriority: strconv.Itoa(t.Priority),
		fieldStart:    start.In(loc).Format(timeLayout),
		fieldDue:      due.In(loc).Format(timeLayout),
		fieldEstimate: t.Estimated.Std().String(),
	}
	if t.ID == "" {
		values[fieldEstimate] = "1h0m0s"
	}

	for i := range f.inputs {
		input := textinput.New()
		input.SetValue(values[i])
		input.CharLimit = 128
		f.inputs[i] = input
	}
	f.inputs[fieldName].Focus()
	return f
}

// route forwards a message to the focused input.
func (f *taskForm) route(msg tea.Msg) tea.Cmd {
	if key, ok := msg.(tea.KeyMsg); ok {
		switch key.String() {
		case "tab", "down":
			f.focusNext()
			return nil
		case "shift+tab", "up":
			f.focusPrev()
			return nil
		}
	}
	var cmd tea.Cmd
	f.inputs[f.focus], cmd = f.inputs[f.focus].Update(msg)
	return cmd
}

func (f *taskForm) atLastField() bool { return f.focus == fieldCount-1 }

func (f *taskForm) focusNext() { f.setFocus((f.focus + 1) % fieldCount) }

func (f *taskForm) focusPrev() { f.setFocus((f.focus + fieldCount - 1) % fieldCount) }

func (f *taskForm) setFocus(idx int) {
	f.inputs[f.focus].Blur()
	f.focus = idx
	f.inputs[f.focus].Focus()
}

// task parses the form into a store.Task, validating every field.
func (f *taskForm) task() (store.Task, error) {
	name := strings.TrimSpace(f.inputs[fieldName].Value())
	if name == "" {
		return store.Task{}, fmt.Errorf("a task needs a name")
	}
	priority, err := strconv.Atoi(strings.TrimSpace(f.inputs[fieldPriority].Value()))
	if err != nil {
		return store.Task{}, fmt.Errorf("priority must be a whole number")
	}
	start, err := time.ParseInLocation(timeLayout, strings.TrimSpace(f.inputs[fieldStart].Value()), f.loc)
	if err != nil {
		return store.Task{}, fmt.Errorf("start must look like %s", timeLayout)
	}
	due, err := time.ParseInLocation(timeLayout, strings.TrimSpace(f.inputs[fieldDue].Value()), f.loc)
	if err != nil {
		return store.Task{}, fmt.Errorf("due must look like %s", timeLayout)
	}
	if due.Before(start) {
		return store.Task{}, fmt.Errorf("due %s is before start %s", due.Format(timeLayout), start.Format(timeLayout))
	}
	estimate, err := time.ParseDuration(strings.TrimSpace(f.inputs[fieldEstimate].Value()))
	if err != nil || estimate <= 0 {
		return store.Task{}, fmt.Errorf("estimate must be a positive duration like 2h30m")
	}

	return store.Task{
		ID:        f.id,
		Name:      name,
		Priority:  priority,
		Start:     start,
		Due:       due,
		Estimated: store.Duration(estimate),
		Worked:    f.worked,
		RemoteID:  f.remote,
	}, nil
}

func (f *taskForm) View() string {
	title := "Add Task"
	if f.id != "" {
		title = "Edit Task"
	}
	titleLine := lipgloss.NewStyle().Bold(true).Render(title)

	labelStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("#5B8DEF"))
	rows := make([]string, 0, fieldCount+3)
	rows = append(rows, titleLine, "")
	for i, input := range f.inputs {
		rows = append(rows, labelStyle.Render(fieldLabels[i]), input.View())
	}
	if f.errMsg != "" {
		rows = append(rows, "", lipgloss.NewStyle().Foreground(lipgloss.Color("#E8554E")).Render("⚠ "+f.errMsg))
	}
	hint := lipgloss.NewStyle().
		Foreground(lipgloss.Color("#AAAAAA")).
		MarginTop(1).
		Render("Tab → next field    Enter on last field → save    Esc → cancel")
	rows = append(rows, hint)
	return lipgloss.JoinVertical(lipgloss.Left, rows...)
}
