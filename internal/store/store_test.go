package store

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/marlowe/pommel/internal/pomodoro"
)

func testTask(name string) Task {
	return Task{
		Name:      name,
		Priority:  3,
		Start:     time.Date(2024, 4, 1, 9, 0, 0, 0, time.UTC),
		Due:       time.Date(2024, 4, 3, 17, 0, 0, 0, time.UTC),
		Estimated: Duration(2 * time.Hour),
	}
}

func TestLoadMissingFileStartsFresh(t *testing.T) {
	s := New(filepath.Join(t.TempDir(), "state", "pommel.yaml"))
	snap, err := s.Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if len(snap.Tasks) != 0 || len(snap.Ledger) != 0 {
		t.Fatalf("fresh snapshot is not empty: %+v", snap)
	}
	if snap.Settings != DefaultSettings() {
		t.Fatalf("fresh snapshot settings = %+v, want defaults", snap.Settings)
	}
}

func TestSaveLoadRoundTrip(t *testing.T) {
	s := New(filepath.Join(t.TempDir(), "pommel.yaml"))
	snap := &Snapshot{Settings: DefaultSettings()}
	added := snap.AddTask(testTask("write the report"))
	if added.ID == "" {
		t.Fatalf("AddTask did not assign an id")
	}
	start := time.Date(2024, 4, 1, 9, 0, 0, 0, time.UTC)
	snap.Ledger = append(snap.Ledger, pomodoro.Span{
		Start: start,
		End:   start.Add(25 * time.Minute),
		State: pomodoro.State{Phase: pomodoro.PhaseWork, Countdown: 3},
	})
	if err := s.Save(snap); err != nil {
		t.Fatalf("save: %v", err)
	}

	loaded, err := s.Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	got, ok := loaded.TaskByID(added.ID)
	if !ok {
		t.Fatalf("task %s missing after round trip", added.ID)
	}
	if got.Name != "write the report" || got.Estimated.Std() != 2*time.Hour {
		t.Fatalf("task came back as %+v", got)
	}
	if len(loaded.Ledger) != 1 || !loaded.Ledger[0].State.IsWork() {
		t.Fatalf("ledger came back as %+v", loaded.Ledger)
	}
}

func TestDurationsAreHumanReadableOnDisk(t *testing.T) {
	path := filepath.Join(t.TempDir(), "pommel.yaml")
	s := New(path)
	if err := s.Save(&Snapshot{Settings: DefaultSettings()}); err != nil {
		t.Fatalf("save: %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read state file: %v", err)
	}
	if !strings.Contains(string(data), "25m0s") {
		t.Fatalf("slice length not written in clock form:\n%s", data)
	}
}

func TestRecordWorkClampsToEstimate(t *testing.T) {
	snap := &Snapshot{Settings: DefaultSettings()}
	task := snap.AddTask(testTask("clamped"))
	if err := snap.RecordWork(task.ID, 3*time.Hour); err != nil {
		t.Fatalf("record work: %v", err)
	}
	got, _ := snap.TaskByID(task.ID)
	if got.Worked.Std() != 2*time.Hour {
		t.Fatalf("worked = %v, want clamped to the 2h estimate", got.Worked.Std())
	}
	if got.Remaining() != 0 {
		t.Fatalf("remaining = %v, want 0", got.Remaining())
	}
	if err := snap.RecordWork("nope", time.Minute); err == nil {
		t.Fatalf("recording against a missing task must fail")
	}
}

func TestSlotUnitsRoundsUp(t *testing.T) {
	task := testTask("sizing")
	task.Estimated = Duration(55 * time.Minute)
	if got := task.SlotUnits(25 * time.Minute); got != 3 {
		t.Fatalf("55m over 25m slices = %d units, want 3", got)
	}
	task.Worked = Duration(55 * time.Minute)
	if got := task.SlotUnits(25 * time.Minute); got != 0 {
		t.Fatalf("finished task wants %d units, want 0", got)
	}
}

func TestRemoveTask(t *testing.T) {
	snap := &Snapshot{}
	task := snap.AddTask(testTask("doomed"))
	if !snap.RemoveTask(task.ID) {
		t.Fatalf("remove reported task missing")
	}
	if snap.RemoveTask(task.ID) {
		t.Fatalf("second remove should report missing")
	}
}

func TestActiveWindowValidation(t *testing.T) {
	settings := DefaultSettings()
	start, end, err := settings.ActiveWindow()
	if err != nil {
		t.Fatalf("default window: %v", err)
	}
	if start != 9*time.Hour || end != 17*time.Hour {
		t.Fatalf("window = %v..%v, want 9h..17h", start, end)
	}
	settings.ActiveEnd = "08:00"
	if _, _, err := settings.ActiveWindow(); err == nil {
		t.Fatalf("inverted hours must be rejected")
	}
	settings.ActiveEnd = "bedtime"
	if _, _, err := settings.ActiveWindow(); err == nil {
		t.Fatalf("unparseable hours must be rejected")
	}
}
