// Package config defines service configuration and how it is loaded.
package config

import (
	"fmt"
	"runtime"
	"strings"
	"time"
)

// Config contains process configuration.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`

	// LogFormat selects the handler: json or text.
	LogFormat string `koanf:"log_format"`

	// Addr configures the HTTP listen address, e.g. ":9080".
	Addr string `koanf:"addr"`

	// QueueSize bounds the in-memory result submission queue.
	QueueSize int `koanf:"queue_size"`

	// WorkerCount sets the number of ingestion workers.
	WorkerCount int `koanf:"worker_count"`

	// DedupeSize bounds the (athlete, race) keys remembered at ingestion.
	DedupeSize int `koanf:"dedupe_size"`

	// MaxLeaderboardLimit caps every ?limit= query parameter.
	MaxLeaderboardLimit int `koanf:"max_leaderboard_limit"`

	// CatalogPath is an optional YAML catalog loaded at start.
	CatalogPath string `koanf:"catalog_path"`

	// DBPath selects the SQLite store. Empty keeps everything in memory.
	DBPath string `koanf:"db_path"`

	// Scorers and Displacers configure team scoring.
	Scorers    int `koanf:"scorers"`
	Displacers int `koanf:"displacers"`

	// MoversLimit is the default size of the big-movers lists.
	MoversLimit int `koanf:"movers_limit"`

	// SnapshotInterval is how often the live leaderboard publishes a snapshot.
	SnapshotInterval time.Duration `koanf:"snapshot_interval"`

	// SnapshotTop is how many rows per gender a snapshot keeps.
	SnapshotTop int `koanf:"snapshot_top"`
}

// New returns a Config populated with defaults.
func New() *Config {
	return &Config{
		LogLevel:            "info",
		LogFormat:           "json",
		Addr:                ":9080",
		QueueSize:           10_000,
		WorkerCount:         runtime.NumCPU(),
		DedupeSize:          500_000,
		MaxLeaderboardLimit: 100,
		Scorers:             5,
		Displacers:          2,
		MoversLimit:         10,
		SnapshotInterval:    time.Second,
		SnapshotTop:         100,
	}
}

// Validate checks structural constraints. Every failure wraps ErrInvalidConfig.
func (c *Config) Validate() error {
	switch {
	case strings.TrimSpace(c.Addr) == "":
		return fmt.Errorf("%w: addr must not be empty", ErrInvalidConfig)
	case c.QueueSize < 1:
		return fmt.Errorf("%w: queue_size %d must be positive", ErrInvalidConfig, c.QueueSize)
	case c.WorkerCount < 1:
		return fmt.Errorf("%w: worker_count %d must be positive", ErrInvalidConfig, c.WorkerCount)
	case c.DedupeSize < 1:
		return fmt.Errorf("%w: dedupe_size %d must be positive", ErrInvalidConfig, c.DedupeSize)
	case c.MaxLeaderboardLimit < 1:
		return fmt.Errorf("%w: max_leaderboard_limit %d must be positive", ErrInvalidConfig, c.MaxLeaderboardLimit)
	case c.Scorers < 1:
		return fmt.Errorf("%w: scorers %d must be positive", ErrInvalidConfig, c.Scorers)
	case c.Displacers < 0:
		return fmt.Errorf("%w: displacers %d must not be negative", ErrInvalidConfig, c.Displacers)
	case c.MoversLimit < 1:
		return fmt.Errorf("%w: movers_limit %d must be positive", ErrInvalidConfig, c.MoversLimit)
	case c.SnapshotInterval <= 0:
		return fmt.Errorf("%w: snapshot_interval %s must be positive", ErrInvalidConfig, c.SnapshotInterval)
	case c.SnapshotTop < 1:
		return fmt.Errorf("%w: snapshot_top %d must be positive", ErrInvalidConfig, c.SnapshotTop)
	}
	switch c.LogFormat {
	case "json", "text":
	default:
		return fmt.Errorf("%w: log_format %q unknown: want json|text", ErrInvalidConfig, c.LogFormat)
	}
	switch strings.ToLower(strings.TrimSpace(c.LogLevel)) {
	case "", "debug", "info", "warn", "warning", "error":
	default:
		return fmt.Errorf("%w: log_level %q unknown", ErrInvalidConfig, c.LogLevel)
	}
	return nil
}
