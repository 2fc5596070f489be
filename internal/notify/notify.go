// Package notify posts desktop notifications for timer transitions.
// Notifications are best effort: a machine without a notification
// daemon still gets a working timer.
package notify

import (
	"fmt"

	"github.com/gen2brain/beeep"

	"github.com/marlowe/pommel/internal/logbook"
	"github.com/marlowe/pommel/internal/pomodoro"
)

const appTitle = "pommel"

// Notifier posts phase-change notifications and logs failures.
type Notifier struct {
	log  *logbook.Logbook
	post func(title, message, icon string) error
}

// New returns a Notifier writing failures to log. A nil log is fine.
func New(log *logbook.Logbook) *Notifier {
	return &Notifier{log: log, post: beeep.Notify}
}

// PhaseStarted announces the beginning of a span. The task name is
// only shown for work phases.
func (n *Notifier) PhaseStarted(phase pomodoro.Phase, taskName string) {
	var message string
	switch phase {
	case pomodoro.PhaseWork:
		message = "Time to work"
		if taskName != "" {
			message = fmt.Sprintf("Time to work on %s", taskName)
		}
	case pomodoro.PhaseShortBreak:
		message = "Take a short break"
	case pomodoro.PhaseLongBreak:
		message = "Take a long break, you earned it"
	default:
		return
	}
	n.send(message)
}

// SpanFinished announces that the current span ran out.
func (n *Notifier) SpanFinished(phase pomodoro.Phase) {
	if phase == pomodoro.PhaseWork {
		n.send("Work span finished")
		return
	}
	n.send("Break is over")
}

func (n *Notifier) send(message string) {
	if err := n.post(appTitle, message, ""); err != nil {
		n.log.Warn("notify: %v", err)
	}
}
