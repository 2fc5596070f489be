// Package logbook records what a pommel session did, so schedule
// decisions can be inspected after the TUI closes. Entries go to the
// log file and to a small in-memory ring the TUI tails on screen.
package logbook

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"
)

// Level is the severity of an entry.
type Level string

const (
	LevelInfo  Level = "INFO"
	LevelWarn  Level = "WARN"
	LevelError Level = "ERROR"
)

const ringSize = 64

// Logbook appends timestamped entries to a file and keeps the most
// recent ones in memory for display. Safe for concurrent use. A nil
// Logbook discards everything, so callers don't guard every log line.
type Logbook struct {
	mu     sync.Mutex
	file   *os.File
	path   string
	recent []string
}

// Open creates (or appends to) the log file at path.
func Open(path string) (*Logbook, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("logbook: ensure log dir: %w", err)
	}
	file, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, fmt.Errorf("logbook: open %s: %w", path, err)
	}
	return &Logbook{file: file, path: path}, nil
}

// Close releases the file handle.
func (l *Logbook) Close() error {
	if l == nil || l.file == nil {
		return nil
	}
	return l.file.Close()
}

// Path returns the backing file.
func (l *Logbook) Path() string {
	if l == nil {
		return ""
	}
	return l.path
}

func (l *Logbook) append(level Level, format string, args ...any) {
	if l == nil {
		return
	}
	message := strings.TrimRight(fmt.Sprintf(format, args...), "\n")
	line := fmt.Sprintf("%s %-5s %s", time.Now().UTC().Format(time.RFC3339), level, message)

	l.mu.Lock()
	defer l.mu.Unlock()
	l.recent = append(l.recent, line)
	if len(l.recent) > ringSize {
		l.recent = l.recent[len(l.recent)-ringSize:]
	}
	if l.file != nil {
		fmt.Fprintln(l.file, line)
	}
}

// Info records an informational entry.
func (l *Logbook) Info(format string, args ...any) { l.append(LevelInfo, format, args...) }

// Warn records a warning.
func (l *Logbook) Warn(format string, args ...any) { l.append(LevelWarn, format, args...) }

// Error records an error.
func (l *Logbook) Error(format string, args ...any) { l.append(LevelError, format, args...) }

// Tail returns up to n of the most recent entries, oldest first.
func (l *Logbook) Tail(n int) []string {
	if l == nil || n <= 0 {
		return nil
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	if len(l.recent) == 0 {
		return nil
	}
	start := 0
	if len(l.recent) > n {
		start = len(l.recent) - n
	}
	out := make([]string, len(l.recent)-start)
	copy(out, l.recent[start:])
	return out
}
