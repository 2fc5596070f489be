// Package ics imports tasks from an iCal subscription, the kind of
// feed a course portal or shared calendar publishes. Events become
// tasks due at their start time; the user fills in estimates after
// the fact.
package ics

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	ical "github.com/arran4/golang-ical"

	"github.com/marlowe/pommel/internal/store"
)

// defaultEstimate is booked against events due in the future, so an
// import is schedulable straight away. Events already past get zero.
const defaultEstimate = time.Hour

// Fetch downloads the calendar at url and converts its events. The
// context bounds the whole request.
func Fetch(ctx context.Context, client *http.Client, url string, now time.Time) ([]store.Task, error) {
	if client == nil {
		client = http.DefaultClient
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("ics: build request for %s: %w", url, err)
	}
	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("ics: fetch %s: %w", url, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("ics: fetch %s: unexpected status %s", url, resp.Status)
	}
	return Parse(resp.Body, now)
}

// Parse reads an iCal stream and maps each well-formed event to a
// task. Events without a summary or start time are skipped rather
// than failing the whole import.
func Parse(r io.Reader, now time.Time) ([]store.Task, error) {
	cal, err := ical.ParseCalendar(r)
	if err != nil {
		return nil, fmt.Errorf("ics: parse calendar: %w", err)
	}
	var tasks []store.Task
	for _, event := range cal.Events() {
		summary := event.GetProperty(ical.ComponentPropertySummary)
		if summary == nil || summary.Value == "" {
			continue
		}
		due, err := event.GetStartAt()
		if err != nil {
			continue
		}
		estimate := time.Duration(0)
		if due.After(now) {
			estimate = defaultEstimate
		}
		tasks = append(tasks, store.Task{
			Name:      summary.Value,
			Start:     now,
			Due:       due,
			Estimated: store.Duration(estimate),
			RemoteID:  event.Id(),
		})
	}
	return tasks, nil
}

// Merge adds imported tasks to the snapshot, skipping ones already
// present under the same remote id. Returns how many were added.
func Merge(snap *store.Snapshot, tasks []store.Task) int {
	added := 0
	for _, t := range tasks {
		if snap.HasRemote(t.RemoteID) {
			continue
		}
		snap.AddTask(t)
		added++
	}
	return added
}
