package rover

import (
	"errors"
	"fmt"
	"strings"
)

// Mode selects who drives the motors.
type Mode string

const (
	ModeManual Mode = "manual"
	ModeAuto   Mode = "auto"
)

// Errors returned by control operations.
var (
	ErrInvalidMode    = errors.New("rover: invalid mode")
	ErrNotManual      = errors.New("rover: manual control is only accepted in manual mode")
	ErrUnknownCommand = errors.New("rover: unknown drive command")
)

// ParseMode accepts "manual" or "auto" in any case.
func ParseMode(s string) (Mode, error) {
	switch m := Mode(strings.ToLower(strings.TrimSpace(s))); m {
	case ModeManual, ModeAuto:
		return m, nil
	}
	return "", fmt.Errorf("%w: %q", ErrInvalidMode, s)
}
