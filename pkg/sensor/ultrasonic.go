package sensor

import (
	"context"
	"fmt"
	"sync"
	"time"

	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/gpio/gpioreg"
	"periph.io/x/host/v3"

	"github.com/teslashibe/go-rover/internal/log"
)

// Speed of sound in cm/s at ~20°C.
const speedOfSoundCMPerSec = 34300.0

// UltrasonicConfig holds HC-SR04 wiring and timing.
type UltrasonicConfig struct {
	TrigPin     string        // periph pin name, e.g. "GPIO5"
	EchoPin     string        // periph pin name, e.g. "GPIO6"
	Interval    time.Duration // Time between measurements
	EchoTimeout time.Duration // Give up waiting for each echo edge after this
}

// DefaultUltrasonicConfig returns the default wiring. The pins avoid the
// L298N lines used by pkg/motor.
func DefaultUltrasonicConfig() UltrasonicConfig {
	return UltrasonicConfig{
		TrigPin:     "GPIO5",
		EchoPin:     "GPIO6",
		Interval:    100 * time.Millisecond,
		EchoTimeout: 100 * time.Millisecond,
	}
}

// Ultrasonic measures distance with an HC-SR04 on two GPIO lines.
type Ultrasonic struct {
	cfg  UltrasonicConfig
	trig gpio.PinOut
	echo gpio.PinIn

	latest Latest[Reading]

	mu      sync.Mutex
	started bool
	cancel  context.CancelFunc
	done    chan struct{}
}

// OpenUltrasonic initializes the GPIO host drivers and claims the pins.
func OpenUltrasonic(cfg UltrasonicConfig) (*Ultrasonic, error) {
	if _, err := host.Init(); err != nil {
		return nil, fmt.Errorf("gpio host init: %w", err)
	}
	trig := gpioreg.ByName(cfg.TrigPin)
	if trig == nil {
		return nil, fmt.Errorf("trigger pin %s not found", cfg.TrigPin)
	}
	echo := gpioreg.ByName(cfg.EchoPin)
	if echo == nil {
		return nil, fmt.Errorf("echo pin %s not found", cfg.EchoPin)
	}
	return NewUltrasonic(cfg, trig, echo)
}

// NewUltrasonic configures already resolved pins.
func NewUltrasonic(cfg UltrasonicConfig, trig gpio.PinOut, echo gpio.PinIn) (*Ultrasonic, error) {
	if err := trig.Out(gpio.Low); err != nil {
		return nil, fmt.Errorf("trigger pin: %w", err)
	}
	if err := echo.In(gpio.PullDown, gpio.NoEdge); err != nil {
		return nil, fmt.Errorf("echo pin: %w", err)
	}
	log.Info("ultrasonic sensor ready", "trig", cfg.TrigPin, "echo", cfg.EchoPin)
	return &Ultrasonic{
		cfg:  cfg,
		trig: trig,
		echo: echo,
		done: make(chan struct{}),
	}, nil
}

// Name implements Source.
func (u *Ultrasonic) Name() string {
	return "ultrasonic"
}

// PulseToDistance converts an echo pulse width to a distance. The pulse
// covers the round trip, hence the division by two.
func PulseToDistance(pulse time.Duration) Distance {
	return NewDistance(pulse.Seconds() * speedOfSoundCMPerSec / 2)
}

// Measure fires one 10µs trigger pulse and times the echo.
func (u *Ultrasonic) Measure() (Distance, error) {
	if err := u.trig.Out(gpio.High); err != nil {
		return Distance{}, err
	}
	time.Sleep(10 * time.Microsecond)
	if err := u.trig.Out(gpio.Low); err != nil {
		return Distance{}, err
	}

	start, ok := u.waitFor(gpio.High)
	if !ok {
		return Distance{}, ErrNoEcho
	}
	end, ok := u.waitFor(gpio.Low)
	if !ok {
		return Distance{}, ErrNoEcho
	}

	d := PulseToDistance(end.Sub(start))
	if !d.Known() {
		return Distance{}, ErrNoEcho
	}
	return d, nil
}

// waitFor busy-polls the echo line until it reaches level or the timeout
// expires, returning when the level was first observed.
func (u *Ultrasonic) waitFor(level gpio.Level) (time.Time, bool) {
	deadline := time.Now().Add(u.cfg.EchoTimeout)
	for {
		now := time.Now()
		if u.echo.Read() == level {
			return now, true
		}
		if now.After(deadline) {
			return now, false
		}
	}
}

// Start implements Source. Failed measurements keep the previous reading.
func (u *Ultrasonic) Start(ctx context.Context) error {
	u.mu.Lock()
	defer u.mu.Unlock()
	if u.started {
		return ErrAlreadyStarted
	}
	u.started = true

	ctx, u.cancel = context.WithCancel(ctx)
	go func() {
		defer close(u.done)
		Poll(ctx, u.cfg.Interval, u.sample)
	}()
	return nil
}

func (u *Ultrasonic) sample() {
	d, err := u.Measure()
	if err != nil {
		return
	}
	u.latest.Store(Reading{Distance: d, Timestamp: time.Now(), Source: u.Name()})
}

// Latest implements Source.
func (u *Ultrasonic) Latest() Reading {
	r, _ := u.latest.Load()
	return r
}

// Close implements Source. The trigger line is left low.
func (u *Ultrasonic) Close() error {
	u.mu.Lock()
	cancel, started := u.cancel, u.started
	u.mu.Unlock()

	if started && cancel != nil {
		cancel()
		select {
		case <-u.done:
		case <-time.After(time.Second):
		}
	}
	return u.trig.Out(gpio.Low)
}
