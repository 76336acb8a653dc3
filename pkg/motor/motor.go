// Package motor drives the two DC motors of the car.
//
// Driver is implemented by L298N for real hardware, Dummy when no GPIO is
// available, and Mock for tests.
package motor

import (
	"errors"
	"fmt"
)

// Direction is the current drive state.
type Direction string

const (
	DirStop     Direction = "stop"
	DirForward  Direction = "forward"
	DirBackward Direction = "backward"
	DirLeft     Direction = "left"
	DirRight    Direction = "right"
)

// Status reports the last command applied.
type Status struct {
	Direction Direction `json:"direction"`
	Speed     int       `json:"speed"`
}

// Driver accepts direction and speed commands. Speeds are percentages and
// are clamped to [0,100].
type Driver interface {
	Forward(speed int) error
	Backward(speed int) error
	TurnLeft(speed int) error
	TurnRight(speed int) error
	Stop() error
	Status() Status
	Close() error
}

// ErrClosed is returned for commands after Close.
var ErrClosed = errors.New("motor: driver closed")

// CommandError reports a failed motor command.
type CommandError struct {
	Direction Direction
	Err       error
}

func (e *CommandError) Error() string {
	return fmt.Sprintf("motor: %s: %v", e.Direction, e.Err)
}

func (e *CommandError) Unwrap() error {
	return e.Err
}

// ClampSpeed limits a speed to [0,100].
func ClampSpeed(speed int) int {
	return min(max(speed, 0), 100)
}

// Drive issues the command named by dir. It is used by manual control,
// where the direction arrives as text.
func Drive(d Driver, dir Direction, speed int) error {
	switch dir {
	case DirForward:
		return d.Forward(speed)
	case DirBackward:
		return d.Backward(speed)
	case DirLeft:
		return d.TurnLeft(speed)
	case DirRight:
		return d.TurnRight(speed)
	case DirStop:
		return d.Stop()
	default:
		return fmt.Errorf("motor: unknown direction %q", dir)
	}
}
