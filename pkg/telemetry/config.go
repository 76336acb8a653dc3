package telemetry

import (
	"errors"
	"time"
)

// Config controls telemetry logging.
type Config struct {
	// MaxEntries bounds the in-memory log.
	MaxEntries int `json:"max_entries"`

	// LogInterval is how often the latest reading is logged.
	LogInterval time.Duration `json:"log_interval"`

	// DBPath enables the SQLite archive when non-empty.
	DBPath string `json:"db_path"`
}

// DefaultConfig returns the standard logging setup without an archive.
func DefaultConfig() Config {
	return Config{
		MaxEntries:  DefaultMaxEntries,
		LogInterval: time.Second,
	}
}

// Validate checks the configuration.
func (c Config) Validate() error {
	var errs []error
	if c.MaxEntries <= 0 {
		errs = append(errs, errors.New("telemetry: max_entries must be positive"))
	}
	if c.LogInterval <= 0 {
		errs = append(errs, errors.New("telemetry: log_interval must be positive"))
	}
	return errors.Join(errs...)
}
