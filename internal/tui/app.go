// internal/tui/app.go
//
// The main TUI for pommel, built on bubbletea's Elm architecture:
//
// 1. Model: the App struct holds all state
// 2. Update: advances state in response to messages
// 3. View: renders state to a string
//
// The flow is: User Input -> Message -> Update -> New Model -> View -> Screen

package tui

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"net/http"
	"path/filepath"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/marlowe/pommel/internal/config"
	"github.com/marlowe/pommel/internal/ics"
	"github.com/marlowe/pommel/internal/logbook"
	"github.com/marlowe/pommel/internal/notify"
	"github.com/marlowe/pommel/internal/planner"
	"github.com/marlowe/pommel/internal/schedule"
	"github.com/marlowe/pommel/internal/store"
)

// screen represents which view is on top.
type screen int

const (
	screenMenu     screen = iota // main menu
	screenPlan                   // slot listing
	screenTaskForm               // add/edit a task
	screenTaskPick               // choose a task to edit or remove
	screenStrategy               // choose a shuffle strategy
	screenTimer                  // run the pomodoro timer
	screenImport                 // calendar subscription URL prompt
)

// pickAction says what the task picker is picking for.
type pickAction int

const (
	pickEdit pickAction = iota
	pickRemove
)

// shuffleBudget bounds how long a strategy search runs. Long enough to
// try thousands of layouts, short enough to feel instant.
const shuffleBudget = 300 * time.Millisecond

const importTimeout = 15 * time.Second

// FetchFunc downloads and parses a calendar subscription.
type FetchFunc func(ctx context.Context, url string, now time.Time) ([]store.Task, error)

// AppOption customizes App construction for tests and alternate runtimes.
type AppOption func(*App)

// WithClock overrides the wall clock.
func WithClock(clock func() time.Time) AppOption {
	return func(a *App) {
		if clock != nil {
			a.clock = clock
		}
	}
}

// WithSeedSource overrides the shuffle seed source.
func WithSeedSource(seed func() int64) AppOption {
	return func(a *App) {
		if seed != nil {
			a.seed = seed
		}
	}
}

// WithFetcher overrides the calendar fetcher.
func WithFetcher(fetch FetchFunc) AppOption {
	return func(a *App) {
		if fetch != nil {
			a.fetch = fetch
		}
	}
}

// WithLocation fixes which wall clock the active hours are read
// against.
func WithLocation(loc *time.Location) AppOption {
	return func(a *App) {
		if loc != nil {
			a.loc = loc
		}
	}
}

type importResultMsg struct {
	tasks []store.Task
	err   error
}

// App is the main application model. In bubbletea, this holds ALL state.
type App struct {
	cfg      *config.Config
	store    *store.Store
	snap     *store.Snapshot
	logbook  *logbook.Logbook
	notifier *notify.Notifier
	loc      *time.Location

	clock func() time.Time
	seed  func() int64
	fetch FetchFunc

	screen       screen
	mainMenu     list.Model
	picker       list.Model
	pickAction   pickAction
	strategies   []schedule.Strategy
	strategyMenu list.Model
	importInput  textinput.Model
	form         *taskForm
	timer        *timerView
	plan         *planner.Plan

	statusMsg string
	width     int
	height    int
}

// menuItem implements list.Item for the main menu.
type menuItem struct {
	title string
	desc  string
}

func (i menuItem) Title() string       { return i.title }
func (i menuItem) Description() string { return i.desc }
func (i menuItem) FilterValue() string { return i.title }

// taskItem implements list.Item for the task picker.
type taskItem struct {
	task store.Task
}

func (i taskItem) Title() string { return i.task.Name }

func (i taskItem) Description() string {
	return fmt.Sprintf("due %s · %s left · priority %d",
		i.task.Due.Format("Mon Jan 2 15:04"), i.task.Remaining(), i.task.Priority)
}

func (i taskItem) FilterValue() string { return i.task.Name }

// strategyItem implements list.Item for the strategy picker.
type strategyItem struct {
	name string
	desc string
}

func (i strategyItem) Title() string       { return i.name }
func (i strategyItem) Description() string { return i.desc }
func (i strategyItem) FilterValue() string { return i.name }

var strategyBlurbs = map[string]string{
	"Small Victories":       "Finish everything as early as possible",
	"Procrastinator":        "Finish everything as late as possible",
	"Early Riser":           "Front-load the work, bank the free time",
	"Problem for Future Me": "Coast now, cram later",
	"PWM":                   "Scatter the breathing room evenly",
	"Explosive":             "Cluster the breathing room into long stretches",
	"Context Switch":        "Rotate between tasks often",
	"Hyperfocus":            "Long unbroken runs on one task",
}

// NewApp loads state from the data directory and builds the model.
func NewApp(cfg *config.Config, opts ...AppOption) (*App, error) {
	if err := cfg.Init(); err != nil {
		return nil, err
	}
	st := store.New(cfg.StatePath())
	snap, err := st.Load()
	if err != nil {
		return nil, err
	}
	lb, err := logbook.Open(cfg.LogPath())
	if err != nil {
		return nil, err
	}

	mainMenu := list.New(buildMainMenu(snap), list.NewDefaultDelegate(), 0, 0)
	mainMenu.Title = "◉ POMMEL"
	mainMenu.SetShowStatusBar(false)
	mainMenu.SetFilteringEnabled(false)

	picker := list.New(nil, list.NewDefaultDelegate(), 0, 0)
	picker.SetShowStatusBar(false)
	picker.SetFilteringEnabled(false)

	strategyMenu := list.New(nil, list.NewDefaultDelegate(), 0, 0)
	strategyMenu.Title = "Shuffle Strategy"
	strategyMenu.SetShowStatusBar(false)
	strategyMenu.SetFilteringEnabled(false)

	importInput := textinput.New()
	importInput.Placeholder = "https://example.edu/calendar.ics"
	importInput.CharLimit = 512

	app := &App{
		cfg:         cfg,
		store:       st,
		snap:        snap,
		logbook:     lb,
		notifier:    notify.New(lb),
		loc:         time.Local,
		clock:       time.Now,
		seed:        func() int64 { return rand.Int63() },
		fetch:       defaultFetcher,
		screen:      screenMenu,
		mainMenu:    mainMenu,
		picker:      picker,
		strategyMenu: strategyMenu,
		importInput: importInput,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(app)
		}
	}
	lb.Info("Session opened · %d task(s) on file", len(snap.Tasks))
	return app, nil
}

func defaultFetcher(ctx context.Context, url string, now time.Time) ([]store.Task, error) {
	ctx, cancel := context.WithTimeout(ctx, importTimeout)
	defer cancel()
	return ics.Fetch(ctx, http.DefaultClient, url, now)
}

// buildMainMenu creates the menu items. The descriptions carry live
// counts so the menu doubles as a status line.
func buildMainMenu(snap *store.Snapshot) []list.Item {
	return []list.Item{
		menuItem{title: "View Plan", desc: fmt.Sprintf("See where your %d task(s) landed", len(snap.Tasks))},
		menuItem{title: "Start Working", desc: "Run the pomodoro timer on the current slot"},
		menuItem{title: "Add Task", desc: "Put a new task on the schedule"},
		menuItem{title: "Edit Task", desc: "Change a task's window, priority, or estimate"},
		menuItem{title: "Remove Task", desc: "Take a task off the schedule"},
		menuItem{title: "Shuffle Strategy", desc: "Rearrange the plan toward a preference"},
		menuItem{title: "Import Calendar", desc: "Pull tasks from an iCal subscription"},
		menuItem{title: "Reschedule", desc: "Throw the layout out and replan from scratch"},
		menuItem{title: "Exit", desc: "Quit pommel"},
	}
}

// Close flushes the session log.
func (a *App) Close() error {
	a.logbook.Info("Session closed")
	return a.logbook.Close()
}

// Init is called once when the program starts.
func (a *App) Init() tea.Cmd {
	return nil
}

// Update is called when a message is received.
func (a *App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {

	case tea.WindowSizeMsg:
		a.width = msg.Width
		a.height = msg.Height
		listWidth := max(0, msg.Width-6)
		listHeight := max(0, msg.Height-12)
		a.mainMenu.SetSize(listWidth, listHeight)
		a.picker.SetSize(listWidth, listHeight)
		a.strategyMenu.SetSize(listWidth, listHeight)
		return a, nil

	case tickMsg:
		if a.screen == screenTimer && a.timer != nil {
			return a, a.updateTimer()
		}
		return a, nil

	case importResultMsg:
		return a.handleImportResult(msg)

	case tea.KeyMsg:
		return a.handleKey(msg)
	}

	return a, a.routeToFocused(msg)
}

func (a *App) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	key := msg.String()
	switch key {
	case "ctrl+c":
		return a, tea.Quit
	case "q":
		switch a.screen {
		case screenMenu:
			return a, tea.Quit
		case screenPlan, screenTimer:
			return a.leaveToMenu()
		}
	case "esc":
		if a.screen != screenMenu {
			return a.leaveToMenu()
		}
		return a, nil
	case "enter":
		switch a.screen {
		case screenMenu:
			return a.handleMenuSelection()
		case screenTaskPick:
			return a.handlePickSelection()
		case screenStrategy:
			return a.handleStrategySelection()
		case screenImport:
			return a.beginImport()
		case screenTaskForm:
			return a.advanceForm()
		}
	}
	return a, a.routeToFocused(msg)
}

// routeToFocused forwards a message to whichever component owns the
// current screen.
func (a *App) routeToFocused(msg tea.Msg) tea.Cmd {
	var cmd tea.Cmd
	switch a.screen {
	case screenMenu:
		a.mainMenu, cmd = a.mainMenu.Update(msg)
	case screenTaskPick:
		a.picker, cmd = a.picker.Update(msg)
	case screenStrategy:
		a.strategyMenu, cmd = a.strategyMenu.Update(msg)
	case screenImport:
		a.importInput, cmd = a.importInput.Update(msg)
	case screenTaskForm:
		if a.form != nil {
			cmd = a.form.route(msg)
		}
	}
	return cmd
}

// handleMenuSelection processes main menu choices.
func (a *App) handleMenuSelection() (tea.Model, tea.Cmd) {
	item, ok := a.mainMenu.SelectedItem().(menuItem)
	if !ok {
		return a, nil
	}
	a.logbook.Info("Menu · %s", item.title)

	switch item.title {
	case "View Plan":
		if a.replan() {
			a.screen = screenPlan
		}
		return a, nil

	case "Start Working":
		if !a.replan() {
			return a, nil
		}
		return a.startTimer()

	case "Add Task":
		a.form = newTaskForm(store.Task{Priority: 1}, a.loc, a.clock())
		a.screen = screenTaskForm
		return a, nil

	case "Edit Task":
		return a.openPicker(pickEdit)

	case "Remove Task":
		return a.openPicker(pickRemove)

	case "Shuffle Strategy":
		if !a.replan() {
			return a, nil
		}
		a.strategies = schedule.Strategies(a.clock())
		items := make([]list.Item, len(a.strategies))
		for i, s := range a.strategies {
			items[i] = strategyItem{name: s.Name, desc: strategyBlurbs[s.Name]}
		}
		a.strategyMenu.SetItems(items)
		a.screen = screenStrategy
		return a, nil

	case "Import Calendar":
		a.importInput.SetValue("")
		a.importInput.Focus()
		a.screen = screenImport
		return a, textinput.Blink

	case "Reschedule":
		if a.replan() {
			a.statusMsg = "Replanned from scratch"
			a.screen = screenPlan
		}
		return a, nil

	case "Exit":
		return a, tea.Quit
	}
	return a, nil
}

func (a *App) openPicker(action pickAction) (tea.Model, tea.Cmd) {
	if len(a.snap.Tasks) == 0 {
		a.statusMsg = "No tasks on file yet"
		return a, nil
	}
	items := make([]list.Item, len(a.snap.Tasks))
	for i, t := range a.snap.Tasks {
		items[i] = taskItem{task: t}
	}
	a.picker.SetItems(items)
	a.pickAction = action
	if action == pickRemove {
		a.picker.Title = "Remove which task?"
	} else {
		a.picker.Title = "Edit which task?"
	}
	a.screen = screenTaskPick
	return a, nil
}

func (a *App) handlePickSelection() (tea.Model, tea.Cmd) {
	item, ok := a.picker.SelectedItem().(taskItem)
	if !ok {
		return a, nil
	}
	switch a.pickAction {
	case pickEdit:
		a.form = newTaskForm(item.task, a.loc, a.clock())
		a.screen = screenTaskForm
		return a, nil
	case pickRemove:
		if a.snap.RemoveTask(item.task.ID) {
			a.logbook.Info("Task removed · %s", item.task.Name)
			a.saveSnapshot()
			a.statusMsg = fmt.Sprintf("Removed %q", item.task.Name)
		}
		return a.leaveToMenu()
	}
	return a, nil
}

func (a *App) handleStrategySelection() (tea.Model, tea.Cmd) {
	idx := a.strategyMenu.Index()
	if a.plan == nil || idx < 0 || idx >= len(a.strategies) {
		return a.leaveToMenu()
	}
	strat := a.strategies[idx]
	score, tried := a.plan.Schedule.ShuffleMaximizing(strat.Goal, shuffleBudget, a.seed())
	a.logbook.Info("Shuffle · %s kept best of %d layouts (score %.1f)", strat.Name, tried, score)
	a.statusMsg = fmt.Sprintf("%s · best of %d layouts", strat.Name, tried)
	a.screen = screenPlan
	return a, nil
}

func (a *App) beginImport() (tea.Model, tea.Cmd) {
	url := strings.TrimSpace(a.importInput.Value())
	if url == "" {
		a.statusMsg = "Enter a calendar URL first"
		return a, nil
	}
	a.statusMsg = "Fetching calendar..."
	now := a.clock()
	fetch := a.fetch
	return a, func() tea.Msg {
		tasks, err := fetch(context.Background(), url, now)
		return importResultMsg{tasks: tasks, err: err}
	}
}

func (a *App) handleImportResult(msg importResultMsg) (tea.Model, tea.Cmd) {
	if msg.err != nil {
		a.statusMsg = fmt.Sprintf("Import failed: %v", msg.err)
		a.logbook.Error("Import failed: %v", msg.err)
		return a, nil
	}
	added := ics.Merge(a.snap, msg.tasks)
	a.logbook.Info("Import · %d new task(s)", added)
	a.saveSnapshot()
	a.statusMsg = fmt.Sprintf("Imported %d new task(s)", added)
	if added > 0 && a.replan() {
		a.screen = screenPlan
		return a, nil
	}
	return a.leaveToMenu()
}

// advanceForm moves focus through the task form, submitting on the
// last field.
func (a *App) advanceForm() (tea.Model, tea.Cmd) {
	if a.form == nil {
		return a.leaveToMenu()
	}
	if !a.form.atLastField() {
		a.form.focusNext()
		return a, nil
	}
	task, err := a.form.task()
	if err != nil {
		a.form.errMsg = err.Error()
		return a, nil
	}
	if task.ID == "" {
		task = a.snap.AddTask(task)
		a.logbook.Info("Task added · %s", task.Name)
	} else {
		if err := a.snap.UpdateTask(task); err != nil {
			a.form.errMsg = err.Error()
			return a, nil
		}
		a.logbook.Info("Task updated · %s", task.Name)
	}
	a.saveSnapshot()
	a.form = nil
	if a.replan() {
		a.screen = screenPlan
		return a, nil
	}
	return a.leaveToMenu()
}

// replan recomputes the schedule and persists the rolled-forward
// ledger. Returns false when there is nothing to plan; the status line
// explains why.
func (a *App) replan() bool {
	plan, err := planner.Replan(a.snap, a.clock(), a.loc, a.seed())
	if err != nil {
		if errors.Is(err, schedule.ErrNoTasks) {
			a.statusMsg = "Nothing pending · add a task first"
			return false
		}
		a.statusMsg = fmt.Sprintf("Replan failed: %v", err)
		a.logbook.Error("Replan failed: %v", err)
		return false
	}
	a.plan = plan
	a.snap.Ledger = plan.Ledger
	a.saveSnapshot()
	if unsat := plan.Schedule.Unsatisfied(); len(unsat) > 0 {
		a.logbook.Warn("Replan · %d task(s) could not be fully placed", len(unsat))
	} else {
		a.logbook.Info("Replan · all tasks placed")
	}
	return true
}

func (a *App) saveSnapshot() {
	if err := a.store.Save(a.snap); err != nil {
		a.statusMsg = fmt.Sprintf("Save failed: %v", err)
		a.logbook.Error("Save failed: %v", err)
	}
}

// leaveToMenu transitions back to the main menu.
func (a *App) leaveToMenu() (tea.Model, tea.Cmd) {
	if a.screen == screenTimer && a.timer != nil {
		a.stopTimer()
	}
	a.screen = screenMenu
	a.form = nil
	a.timer = nil
	a.mainMenu.SetItems(buildMainMenu(a.snap))
	return a, nil
}

// View renders the current state to a string.
func (a *App) View() string {
	width := a.width
	if width <= 0 {
		width = 100
	}

	var content string
	switch a.screen {
	case screenMenu:
		content = a.mainMenu.View()
	case screenPlan:
		content = a.renderPlan(width - 6)
	case screenTaskForm:
		if a.form != nil {
			content = a.form.View()
		}
	case screenTaskPick:
		content = a.picker.View()
	case screenStrategy:
		content = a.strategyMenu.View()
	case screenTimer:
		if a.timer != nil {
			content = a.renderTimer(width - 6)
		}
	case screenImport:
		content = a.renderImportPrompt()
	}

	header := lipgloss.NewStyle().
		Bold(true).
		Foreground(lipgloss.Color("#E8554E")).
		MarginBottom(1).
		Render("◉ POMMEL")
	box := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color("#444444")).
		Padding(0, 1).
		Width(max(20, width-2)).
		Render(content)

	sections := []string{header, box}
	if logPanel := a.renderLogPanel(); logPanel != "" {
		sections = append(sections, logPanel)
	}
	footer := lipgloss.NewStyle().
		Foreground(lipgloss.Color("#888888")).
		MarginTop(1).
		Render(a.statusMsg)
	sections = append(sections, footer)
	return strings.Join(sections, "\n")
}

func (a *App) renderImportPrompt() string {
	title := lipgloss.NewStyle().Bold(true).Render("Import Calendar")
	hint := lipgloss.NewStyle().
		Foreground(lipgloss.Color("#AAAAAA")).
		MarginTop(1).
		Render("Enter → fetch    Esc → cancel")
	return lipgloss.JoinVertical(lipgloss.Left, title, "", a.importInput.View(), hint)
}

func (a *App) renderLogPanel() string {
	lines := a.logbook.Tail(6)
	if len(lines) == 0 {
		return ""
	}
	fileName := filepath.Base(a.logbook.Path())
	if fileName == "." || fileName == "" {
		fileName = "log"
	}
	head := lipgloss.NewStyle().
		Bold(true).
		Foreground(lipgloss.Color("#5B8DEF")).
		Render(fmt.Sprintf("LOG · %s", fileName))
	body := lipgloss.NewStyle().
		Foreground(lipgloss.Color("#AAAAAA")).
		Render(strings.Join(lines, "\n"))
	return lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color("#444444")).
		Padding(0, 1).
		Render(fmt.Sprintf("%s\n%s", head, body))
}

func max(a, b int) int {
	if a > b {
		return a
	}
	return b
}
