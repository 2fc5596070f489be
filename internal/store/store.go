// Package store persists the planner's state as a single YAML
// snapshot: the user's cadence settings, the task list, and the
// pomodoro ledger. The file is meant to be hand-editable, so
// durations are written in clock form ("25m") rather than
// nanoseconds.
package store

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"gopkg.in/yaml.v3"

	"github.com/marlowe/pommel/internal/pomodoro"
)

// Duration wraps time.Duration with YAML encoding in "25m" form.
type Duration time.Duration

// Std returns the plain time.Duration.
func (d Duration) Std() time.Duration { return time.Duration(d) }

func (d Duration) MarshalYAML() (interface{}, error) {
	return time.Duration(d).String(), nil
}

func (d *Duration) UnmarshalYAML(node *yaml.Node) error {
	var raw string
	if err := node.Decode(&raw); err != nil {
		return err
	}
	parsed, err := time.ParseDuration(raw)
	if err != nil {
		return fmt.Errorf("store: parse duration %q: %w", raw, err)
	}
	*d = Duration(parsed)
	return nil
}

// Settings holds the user's cadence and daily working hours.
// ActiveStart and ActiveEnd are local wall-clock times in "HH:MM"
// form.
type Settings struct {
	ActiveStart   string   `yaml:"active_start"`
	ActiveEnd     string   `yaml:"active_end"`
	SliceLength   Duration `yaml:"slice_length"`
	BreakInterval int      `yaml:"break_interval"`
	ShortBreak    Duration `yaml:"short_break"`
	LongBreak     Duration `yaml:"long_break"`
}

// DefaultSettings is the classic pomodoro cadence over a nine-to-five
// day.
func DefaultSettings() Settings {
	return Settings{
		ActiveStart:   "09:00",
		ActiveEnd:     "17:00",
		SliceLength:   Duration(25 * time.Minute),
		BreakInterval: 4,
		ShortBreak:    Duration(5 * time.Minute),
		LongBreak:     Duration(30 * time.Minute),
	}
}

// ActiveWindow returns the daily working hours as offsets from local
// midnight.
func (s Settings) ActiveWindow() (start, end time.Duration, err error) {
	start, err = parseClock(s.ActiveStart)
	if err != nil {
		return 0, 0, fmt.Errorf("store: active_start: %w", err)
	}
	end, err = parseClock(s.ActiveEnd)
	if err != nil {
		return 0, 0, fmt.Errorf("store: active_end: %w", err)
	}
	if end <= start {
		return 0, 0, fmt.Errorf("store: active hours %s-%s end before they begin", s.ActiveStart, s.ActiveEnd)
	}
	return start, end, nil
}

func parseClock(value string) (time.Duration, error) {
	parsed, err := time.Parse("15:04", value)
	if err != nil {
		return 0, fmt.Errorf("clock value %q is not HH:MM", value)
	}
	return time.Duration(parsed.Hour())*time.Hour + time.Duration(parsed.Minute())*time.Minute, nil
}

// Task is a stored task. Estimated and Worked are wall-clock effort;
// the planner converts the remainder into slot units per run.
type Task struct {
	ID        string    `yaml:"id"`
	Name      string    `yaml:"name"`
	Priority  int       `yaml:"priority"`
	Start     time.Time `yaml:"start"`
	Due       time.Time `yaml:"due"`
	Estimated Duration  `yaml:"estimated"`
	Worked    Duration  `yaml:"worked"`
	RemoteID  string    `yaml:"remote_id,omitempty"`
}

// Remaining is the effort still owed on this task.
func (t Task) Remaining() time.Duration {
	left := t.Estimated.Std() - t.Worked.Std()
	if left < 0 {
		return 0
	}
	return left
}

// SlotUnits converts the remaining effort into whole slots, rounding
// up so a task is never underbooked.
func (t Task) SlotUnits(slice time.Duration) int {
	if slice <= 0 {
		return 0
	}
	left := t.Remaining()
	units := int(left / slice)
	if left%slice != 0 {
		units++
	}
	return units
}

// Snapshot is everything the planner persists between sessions.
type Snapshot struct {
	Settings Settings        `yaml:"settings"`
	Tasks    []Task          `yaml:"tasks"`
	Ledger   []pomodoro.Span `yaml:"ledger"`
}

// TaskByID returns the task and whether it exists.
func (s *Snapshot) TaskByID(id string) (Task, bool) {
	for _, t := range s.Tasks {
		if t.ID == id {
			return t, true
		}
	}
	return Task{}, false
}

// HasRemote reports whether a task imported under this remote id is
// already present.
func (s *Snapshot) HasRemote(remoteID string) bool {
	if remoteID == "" {
		return false
	}
	for _, t := range s.Tasks {
		if t.RemoteID == remoteID {
			return true
		}
	}
	return false
}

// AddTask appends a task, assigning an id when the caller did not.
func (s *Snapshot) AddTask(t Task) Task {
	if t.ID == "" {
		t.ID = uuid.NewString()
	}
	s.Tasks = append(s.Tasks, t)
	return t
}

// UpdateTask replaces the stored task with the same id.
func (s *Snapshot) UpdateTask(t Task) error {
	for i := range s.Tasks {
		if s.Tasks[i].ID == t.ID {
			s.Tasks[i] = t
			return nil
		}
	}
	return fmt.Errorf("store: no task with id %q", t.ID)
}

// RemoveTask deletes the task and reports whether it was present.
func (s *Snapshot) RemoveTask(id string) bool {
	for i := range s.Tasks {
		if s.Tasks[i].ID == id {
			s.Tasks = append(s.Tasks[:i], s.Tasks[i+1:]...)
			return true
		}
	}
	return false
}

// RecordWork adds time worked on a task, clamped to its estimate so
// the remainder never goes negative.
func (s *Snapshot) RecordWork(id string, d time.Duration) error {
	for i := range s.Tasks {
		if s.Tasks[i].ID != id {
			continue
		}
		worked := s.Tasks[i].Worked.Std() + d
		if worked > s.Tasks[i].Estimated.Std() {
			worked = s.Tasks[i].Estimated.Std()
		}
		s.Tasks[i].Worked = Duration(worked)
		return nil
	}
	return fmt.Errorf("store: no task with id %q", id)
}

// Store reads and writes snapshots at a fixed path.
type Store struct {
	path string
}

// New creates a store over the given file path.
func New(path string) *Store {
	return &Store{path: path}
}

// Path returns the backing file.
func (s *Store) Path() string { return s.path }

// Load reads the snapshot. A missing file is a fresh start, not an
// error.
func (s *Store) Load() (*Snapshot, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return &Snapshot{Settings: DefaultSettings()}, nil
		}
		return nil, fmt.Errorf("store: read %s: %w", s.path, err)
	}
	var snap Snapshot
	if err := yaml.Unmarshal(data, &snap); err != nil {
		return nil, fmt.Errorf("store: parse %s: %w", s.path, err)
	}
	if snap.Settings == (Settings{}) {
		snap.Settings = DefaultSettings()
	}
	return &snap, nil
}

// Save writes the snapshot atomically: a temp file in the same
// directory, then a rename over the old state.
func (s *Store) Save(snap *Snapshot) error {
	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return fmt.Errorf("store: ensure state dir: %w", err)
	}
	data, err := yaml.Marshal(snap)
	if err != nil {
		return fmt.Errorf("store: encode snapshot: %w", err)
	}
	tmp, err := os.CreateTemp(filepath.Dir(s.path), ".pommel-*.yaml")
	if err != nil {
		return fmt.Errorf("store: temp file: %w", err)
	}
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return fmt.Errorf("store: write snapshot: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("store: close snapshot: %w", err)
	}
	if err := os.Rename(tmp.Name(), s.path); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("store: commit snapshot: %w", err)
	}
	return nil
}
