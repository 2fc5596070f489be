package logbook

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestTailReturnsMostRecentEntries(t *testing.T) {
	path := filepath.Join(t.TempDir(), "pommel.log")
	book, err := Open(path)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer book.Close()
	for i := 0; i < 5; i++ {
		book.Info("entry-%d", i)
	}
	lines := book.Tail(3)
	if len(lines) != 3 {
		t.Fatalf("tail returned %d lines, want 3", len(lines))
	}
	for i, want := range []string{"entry-2", "entry-3", "entry-4"} {
		if !strings.Contains(lines[i], want) {
			t.Fatalf("line %d = %q, missing %s", i, lines[i], want)
		}
	}
}

func TestEntriesReachTheFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "pommel.log")
	book, err := Open(path)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	book.Warn("slot bookkeeping looked odd")
	if err := book.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read log: %v", err)
	}
	if !strings.Contains(string(data), "WARN") || !strings.Contains(string(data), "bookkeeping") {
		t.Fatalf("log file missing entry:\n%s", data)
	}
}

func TestNilLogbookIsSilent(t *testing.T) {
	var book *Logbook
	book.Info("nobody home")
	if got := book.Tail(5); got != nil {
		t.Fatalf("nil tail = %v, want nil", got)
	}
	if err := book.Close(); err != nil {
		t.Fatalf("nil close: %v", err)
	}
}
