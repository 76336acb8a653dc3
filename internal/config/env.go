// Package config provides environment helpers for go-rover commands.
// Every variable is read with the ROVER_ prefix, e.g. Int("TURN_SPEED", 55)
// reads ROVER_TURN_SPEED.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Prefix is prepended to every variable name.
const Prefix = "ROVER_"

// Default network configuration.
const (
	DefaultHTTPPort = "5000"
	DefaultHost     = "0.0.0.0"
)

func lookup(name string) (string, bool) {
	v, ok := os.LookupEnv(Prefix + name)
	if !ok {
		return "", false
	}
	v = strings.TrimSpace(v)
	return v, v != ""
}

// String returns ROVER_<name> or def when unset.
func String(name, def string) string {
	if v, ok := lookup(name); ok {
		return v
	}
	return def
}

// Int returns ROVER_<name> parsed as an int.
// Unparseable values fall back to def and are reported via Invalid.
func Int(name string, def int) int {
	v, ok := lookup(name)
	if !ok {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		invalid(name, v, err)
		return def
	}
	return n
}

// Float returns ROVER_<name> parsed as a float64.
func Float(name string, def float64) float64 {
	v, ok := lookup(name)
	if !ok {
		return def
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		invalid(name, v, err)
		return def
	}
	return f
}

// Bool returns ROVER_<name> parsed with strconv.ParseBool.
func Bool(name string, def bool) bool {
	v, ok := lookup(name)
	if !ok {
		return def
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		invalid(name, v, err)
		return def
	}
	return b
}

// Duration returns ROVER_<name> parsed as a time.Duration.
// A bare number is read as seconds ("2" and "2s" are equivalent).
func Duration(name string, def time.Duration) time.Duration {
	v, ok := lookup(name)
	if !ok {
		return def
	}
	if secs, err := strconv.ParseFloat(v, 64); err == nil {
		return time.Duration(secs * float64(time.Second))
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		invalid(name, v, err)
		return def
	}
	return d
}

// Invalid collects variables that were set but could not be parsed, so the
// command can refuse to start instead of silently running on defaults.
var Invalid []error

func invalid(name, value string, err error) {
	Invalid = append(Invalid, fmt.Errorf("%s%s=%q: %w", Prefix, name, value, err))
}
