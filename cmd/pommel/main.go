// Command pommel is a pomodoro planner: it slices your working hours
// into pomodoro-length slots and assigns them to your tasks. Run with
// no arguments for the interactive TUI, or use the subcommands for
// scripting.
package main

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"net/http"
	"os"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/marlowe/pommel/internal/config"
	"github.com/marlowe/pommel/internal/ics"
	"github.com/marlowe/pommel/internal/planner"
	"github.com/marlowe/pommel/internal/schedule"
	"github.com/marlowe/pommel/internal/store"
	"github.com/marlowe/pommel/internal/tui"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var dataDir string

	root := &cobra.Command{
		Use:   "pommel",
		Short: "Slot your tasks into pomodoro-sized pieces of the day",
		Long: "Pommel divides your working hours into pomodoro-length slots,\n" +
			"assigns them to your tasks by deadline and priority, and runs the\n" +
			"timer while you work. State lives under ~/.pommel (override with\n" +
			"--data-dir or POMMEL_HOME).",
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.New(dataDir)
			if err != nil {
				return err
			}
			app, err := tui.NewApp(cfg)
			if err != nil {
				return err
			}
			defer app.Close()
			_, err = tea.NewProgram(app, tea.WithAltScreen()).Run()
			return err
		},
	}
	root.PersistentFlags().StringVar(&dataDir, "data-dir", "", "data directory (default ~/.pommel, env "+config.EnvHome+")")

	root.AddCommand(newPlanCmd(&dataDir))
	root.AddCommand(newImportCmd(&dataDir))
	return root
}

func newPlanCmd(dataDir *string) *cobra.Command {
	return &cobra.Command{
		Use:   "plan",
		Short: "Print the current slot plan without the TUI",
		RunE: func(cmd *cobra.Command, args []string) error {
			snap, st, err := loadState(*dataDir)
			if err != nil {
				return err
			}
			now := time.Now()
			plan, err := planner.Replan(snap, now, time.Local, rand.Int63())
			if err != nil {
				if errors.Is(err, schedule.ErrNoTasks) {
					fmt.Fprintln(cmd.OutOrStdout(), "Nothing pending. Add a task in the TUI first.")
					return nil
				}
				return err
			}
			snap.Ledger = plan.Ledger
			if err := st.Save(snap); err != nil {
				return err
			}
			printPlan(cmd, snap, plan)
			return nil
		},
	}
}

func newImportCmd(dataDir *string) *cobra.Command {
	return &cobra.Command{
		Use:   "import <url>",
		Short: "Import tasks from an iCal subscription",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			snap, st, err := loadState(*dataDir)
			if err != nil {
				return err
			}
			ctx, cancel := context.WithTimeout(cmd.Context(), 30*time.Second)
			defer cancel()
			now := time.Now()
			tasks, err := ics.Fetch(ctx, http.DefaultClient, args[0], now)
			if err != nil {
				return err
			}
			added := ics.Merge(snap, tasks)
			if err := st.Save(snap); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Imported %d new task(s) (%d in the feed).\n", added, len(tasks))
			return nil
		},
	}
}

func loadState(dataDir string) (*store.Snapshot, *store.Store, error) {
	cfg, err := config.New(dataDir)
	if err != nil {
		return nil, nil, err
	}
	if err := cfg.Init(); err != nil {
		return nil, nil, err
	}
	st := store.New(cfg.StatePath())
	snap, err := st.Load()
	if err != nil {
		return nil, nil, err
	}
	return snap, st, nil
}

func printPlan(cmd *cobra.Command, snap *store.Snapshot, plan *planner.Plan) {
	out := cmd.OutOrStdout()
	lastDay := ""
	for _, slot := range plan.Schedule.Slots {
		local := slot.Start.Local()
		day := local.Format("Mon Jan 2")
		if day != lastDay {
			fmt.Fprintf(out, "%s\n", day)
			lastDay = day
		}
		name := "(free)"
		if slot.TaskID != "" {
			name = slot.TaskID
			if task, ok := snap.TaskByID(slot.TaskID); ok {
				name = task.Name
			}
		}
		fmt.Fprintf(out, "  %s  %s\n", local.Format("15:04"), name)
	}
	for _, id := range plan.Schedule.Unsatisfied() {
		name := id
		if task, ok := snap.TaskByID(id); ok {
			name = task.Name
		}
		report := plan.Schedule.Reports[id]
		fmt.Fprintf(out, "WARNING: %s is short %d slot(s) before its deadline\n", name, report.Shortfall)
	}
}
