// Package config defines process configuration structures and loading hooks.
//
// Conventions:
// - Provide New(ctx) to build a Config with defaults.
// - Load layers defaults, an optional YAML file, RUBIK_ env vars and flags.
// - Validation errors wrap ErrInvalidConfig.
package config

import (
	"context"
	"fmt"
	"path/filepath"
	"runtime"
	"strings"
)

// Storage backends.
const (
	BackendJSON   = "json"
	BackendSQLite = "sqlite"
)

// Config contains process configuration.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`

	// LogFormat selects text or json log lines.
	LogFormat string `koanf:"log_format"`

	// Addr configures the HTTP listen address, e.g. ":9080".
	Addr string `koanf:"addr"`

	// DataDir holds the roster, observations and group files.
	DataDir string `koanf:"data_dir"`

	// Backend selects the storage collaborator: json or sqlite.
	Backend string `koanf:"backend"`

	// SQLitePath is the database file used by the sqlite backend.
	// Relative paths resolve against DataDir.
	SQLitePath string `koanf:"sqlite_path"`

	// RosterFile, ObservationsFile and GroupsDir are relative to DataDir.
	RosterFile       string `koanf:"roster_file"`
	ObservationsFile string `koanf:"observations_file"`
	GroupsDir        string `koanf:"groups_dir"`

	// WorkerCount sets the number of resolution workers. Values <= 1 resolve inline.
	WorkerCount int `koanf:"worker_count"`

	// QueueSize bounds the resolution queue. Zero sizes it to the distinct names of a pass.
	QueueSize int `koanf:"queue_size"`

	// Enrich copies first/last name and rating fields onto linked references.
	Enrich bool `koanf:"enrich"`
}

// New creates a Config with defaults. Context is accepted first to satisfy
// the project-wide convention and is currently unused.
func New(_ context.Context) *Config {
	return &Config{
		LogLevel:         "info",
		LogFormat:        "text",
		Addr:             ":9080",
		DataDir:          "data",
		Backend:          BackendJSON,
		SQLitePath:       "rubik.db",
		RosterFile:       "professor_ratings_index.json",
		ObservationsFile: "professor_observations.json",
		GroupsDir:        "groups",
		WorkerCount:      runtime.NumCPU(),
		QueueSize:        0,
		Enrich:           false,
	}
}

// Validate reports the first invalid setting.
func (c *Config) Validate() error {
	switch {
	case c.Addr == "":
		return fmt.Errorf("%w: addr must not be empty", ErrInvalidConfig)
	case c.DataDir == "":
		return fmt.Errorf("%w: data_dir must not be empty", ErrInvalidConfig)
	case c.QueueSize < 0:
		return fmt.Errorf("%w: queue_size must not be negative", ErrInvalidConfig)
	}
	switch strings.ToLower(c.Backend) {
	case BackendJSON, BackendSQLite:
	default:
		return fmt.Errorf("%w %q", ErrUnknownBackend, c.Backend)
	}
	switch strings.ToLower(c.LogFormat) {
	case "text", "json":
	default:
		return fmt.Errorf("%w: unknown log_format %q", ErrInvalidConfig, c.LogFormat)
	}
	return nil
}

// RosterPath returns the absolute-or-relative path of the canonical roster.
func (c *Config) RosterPath() string { return c.within(c.RosterFile) }

// ObservationsPath returns the path of the raw observations file.
func (c *Config) ObservationsPath() string { return c.within(c.ObservationsFile) }

// GroupsPath returns the directory holding one JSON file per reference group.
func (c *Config) GroupsPath() string { return c.within(c.GroupsDir) }

// DatabasePath returns the sqlite database file.
func (c *Config) DatabasePath() string { return c.within(c.SQLitePath) }

// LockPath returns the file used to serialize linkage passes.
func (c *Config) LockPath() string { return filepath.Join(c.DataDir, ".rubik.lock") }

func (c *Config) within(p string) string {
	if filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(c.DataDir, p)
}
