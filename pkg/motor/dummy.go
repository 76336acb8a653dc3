package motor

import (
	"sync"

	"github.com/teslashibe/go-rover/internal/log"
)

// Dummy logs commands instead of driving hardware.
type Dummy struct {
	mu     sync.Mutex
	status Status
}

// NewDummy returns a stopped dummy driver.
func NewDummy() *Dummy {
	log.Warn("motors in dummy mode")
	return &Dummy{status: Status{Direction: DirStop}}
}

func (d *Dummy) set(dir Direction, speed int) error {
	speed = ClampSpeed(speed)
	if dir == DirStop {
		speed = 0
	}
	d.mu.Lock()
	d.status = Status{Direction: dir, Speed: speed}
	d.mu.Unlock()
	log.Debug("dummy motor command", "direction", dir, "speed", speed)
	return nil
}

func (d *Dummy) Forward(speed int) error   { return d.set(DirForward, speed) }
func (d *Dummy) Backward(speed int) error  { return d.set(DirBackward, speed) }
func (d *Dummy) TurnLeft(speed int) error  { return d.set(DirLeft, speed) }
func (d *Dummy) TurnRight(speed int) error { return d.set(DirRight, speed) }
func (d *Dummy) Stop() error               { return d.set(DirStop, 0) }

func (d *Dummy) Status() Status {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.status
}

func (d *Dummy) Close() error { return d.Stop() }
