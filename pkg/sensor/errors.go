package sensor

import (
	"errors"
	"fmt"
)

// Sentinel errors for common error conditions.
var (
	// ErrNoEcho is returned when the ultrasonic echo never arrives or is out of range.
	ErrNoEcho = errors.New("sensor: no echo")

	// ErrNoSerialPorts is returned when auto-detection finds no candidate port.
	ErrNoSerialPorts = errors.New("sensor: no serial ports found")

	// ErrAlreadyStarted is returned when Start is called twice.
	ErrAlreadyStarted = errors.New("sensor: already started")

	// ErrUnknownSource is returned for an unrecognised source name.
	ErrUnknownSource = errors.New("sensor: unknown source")
)

// ParseError reports a telemetry line that matched neither supported format.
type ParseError struct {
	Line string
	Err  error
}

// Error implements the error interface.
func (e *ParseError) Error() string {
	return fmt.Sprintf("sensor: cannot parse %q: %v", e.Line, e.Err)
}

// Unwrap returns the underlying error.
func (e *ParseError) Unwrap() error {
	return e.Err
}
