package motor

import (
	"fmt"
	"sync"

	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/gpio/gpioreg"
	"periph.io/x/conn/v3/physic"
	"periph.io/x/host/v3"

	"github.com/teslashibe/go-rover/internal/log"
)

// PWMFrequency is the enable-line PWM frequency.
const PWMFrequency = 1 * physic.KiloHertz

// PinConfig names the L298N lines by periph pin name (BCM numbering).
type PinConfig struct {
	ENA, IN1, IN2 string // Motor A (left)
	ENB, IN3, IN4 string // Motor B (right)
}

// DefaultPinConfig returns the stock wiring.
func DefaultPinConfig() PinConfig {
	return PinConfig{
		ENA: "GPIO17", IN1: "GPIO27", IN2: "GPIO22",
		ENB: "GPIO18", IN3: "GPIO23", IN4: "GPIO24",
	}
}

// Pins holds resolved output pins.
type Pins struct {
	ENA, IN1, IN2 gpio.PinOut
	ENB, IN3, IN4 gpio.PinOut
}

// L298N drives two motors through an L298N dual H-bridge.
type L298N struct {
	pins Pins

	mu     sync.Mutex
	status Status
	closed bool
}

// OpenL298N initializes the GPIO host and resolves the named pins.
func OpenL298N(cfg PinConfig) (*L298N, error) {
	if _, err := host.Init(); err != nil {
		return nil, fmt.Errorf("gpio host init: %w", err)
	}

	var pins Pins
	for _, p := range []struct {
		name string
		dst  *gpio.PinOut
	}{
		{cfg.ENA, &pins.ENA}, {cfg.IN1, &pins.IN1}, {cfg.IN2, &pins.IN2},
		{cfg.ENB, &pins.ENB}, {cfg.IN3, &pins.IN3}, {cfg.IN4, &pins.IN4},
	} {
		pin := gpioreg.ByName(p.name)
		if pin == nil {
			return nil, fmt.Errorf("motor pin %s not found", p.name)
		}
		*p.dst = pin
	}
	return NewL298N(pins)
}

// NewL298N wraps resolved pins and leaves the motors stopped.
func NewL298N(pins Pins) (*L298N, error) {
	d := &L298N{pins: pins}
	if err := d.apply(DirStop, 0); err != nil {
		return nil, err
	}
	log.Info("motors initialized", "driver", "l298n", "pwm", PWMFrequency.String())
	return d, nil
}

// Forward implements Driver.
func (d *L298N) Forward(speed int) error { return d.apply(DirForward, speed) }

// Backward implements Driver.
func (d *L298N) Backward(speed int) error { return d.apply(DirBackward, speed) }

// TurnLeft implements Driver. The left wheel runs backward at half speed.
func (d *L298N) TurnLeft(speed int) error { return d.apply(DirLeft, speed) }

// TurnRight implements Driver. The right wheel runs backward at half speed.
func (d *L298N) TurnRight(speed int) error { return d.apply(DirRight, speed) }

// Stop implements Driver.
func (d *L298N) Stop() error { return d.apply(DirStop, 0) }

// Status implements Driver.
func (d *L298N) Status() Status {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.status
}

// Close stops the motors. Further commands return ErrClosed.
func (d *L298N) Close() error {
	err := d.Stop()
	d.mu.Lock()
	d.closed = true
	d.mu.Unlock()
	log.Info("motors cleanup complete")
	return err
}

// bridge is the line state for one command: IN1..IN4 and the two duty
// cycles in percent.
type bridge struct {
	in           [4]gpio.Level
	dutyA, dutyB int
}

func bridgeFor(dir Direction, speed int) bridge {
	const H, L = gpio.High, gpio.Low
	switch dir {
	case DirForward:
		return bridge{[4]gpio.Level{H, L, H, L}, speed, speed}
	case DirBackward:
		return bridge{[4]gpio.Level{L, H, L, H}, speed, speed}
	case DirLeft:
		return bridge{[4]gpio.Level{L, H, H, L}, speed / 2, speed}
	case DirRight:
		return bridge{[4]gpio.Level{H, L, L, H}, speed, speed / 2}
	default:
		return bridge{[4]gpio.Level{L, L, L, L}, 0, 0}
	}
}

func (d *L298N) apply(dir Direction, speed int) error {
	speed = ClampSpeed(speed)
	if dir == DirStop {
		speed = 0
	}

	d.mu.Lock()
	defer d.mu.Unlock()
	if d.closed {
		return &CommandError{Direction: dir, Err: ErrClosed}
	}

	b := bridgeFor(dir, speed)
	for i, pin := range []gpio.PinOut{d.pins.IN1, d.pins.IN2, d.pins.IN3, d.pins.IN4} {
		if err := pin.Out(b.in[i]); err != nil {
			return &CommandError{Direction: dir, Err: fmt.Errorf("%s: %w", pin.Name(), err)}
		}
	}
	if err := d.pins.ENA.PWM(Duty(b.dutyA), PWMFrequency); err != nil {
		return &CommandError{Direction: dir, Err: fmt.Errorf("ENA: %w", err)}
	}
	if err := d.pins.ENB.PWM(Duty(b.dutyB), PWMFrequency); err != nil {
		return &CommandError{Direction: dir, Err: fmt.Errorf("ENB: %w", err)}
	}

	d.status = Status{Direction: dir, Speed: speed}
	return nil
}

// Duty converts a percentage to a periph duty cycle.
func Duty(percent int) gpio.Duty {
	return gpio.Duty(int64(ClampSpeed(percent)) * int64(gpio.DutyMax) / 100)
}
