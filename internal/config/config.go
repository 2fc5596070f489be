// Package config resolves where pommel keeps its files. Every user
// gets a data directory (default ~/.pommel, overridable with
// POMMEL_HOME or --data-dir) holding the state snapshot and the
// session logs:
//
// ~/.pommel/
// ├── state/
// │   └── pommel.yaml   <- tasks, settings, pomodoro ledger
// └── logs/
//     └── pommel.log    <- session logbook
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

const (
	// EnvHome is the environment variable that overrides the data
	// directory.
	EnvHome = "POMMEL_HOME"

	defaultDirName = ".pommel"
)

// Config holds the resolved locations for one pommel instance.
type Config struct {
	// DataDir is the root of everything pommel writes.
	DataDir string
}

// New resolves the data directory. An explicit dir wins, then
// POMMEL_HOME, then ~/.pommel.
func New(explicit string) (*Config, error) {
	dir := strings.TrimSpace(explicit)
	if dir == "" {
		dir = strings.TrimSpace(os.Getenv(EnvHome))
	}
	if dir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("config: resolve home directory: %w", err)
		}
		dir = filepath.Join(home, defaultDirName)
	}
	abs, err := filepath.Abs(dir)
	if err != nil {
		return nil, fmt.Errorf("config: resolve data dir %s: %w", dir, err)
	}
	return &Config{DataDir: abs}, nil
}

// Init creates the directory structure. Called once at startup;
// existing directories are left alone.
func (c *Config) Init() error {
	for _, dir := range []string{c.StateDir(), c.LogsDir()} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("config: ensure %s: %w", dir, err)
		}
	}
	return nil
}

// StateDir holds the persistent snapshot.
func (c *Config) StateDir() string {
	return filepath.Join(c.DataDir, "state")
}

// StatePath is the snapshot file itself.
func (c *Config) StatePath() string {
	return filepath.Join(c.StateDir(), "pommel.yaml")
}

// LogsDir holds the session logs.
func (c *Config) LogsDir() string {
	return filepath.Join(c.DataDir, "logs")
}

// LogPath is the session logbook file.
func (c *Config) LogPath() string {
	return filepath.Join(c.LogsDir(), "pommel.log")
}
