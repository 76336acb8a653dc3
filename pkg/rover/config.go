// Package rover wires the camera, detector, sensors, motors and tracking
// controller into the running robot car.
package rover

import (
	"errors"
	"fmt"
	"time"

	"github.com/teslashibe/go-rover/internal/config"
	"github.com/teslashibe/go-rover/pkg/camera"
	"github.com/teslashibe/go-rover/pkg/motor"
	"github.com/teslashibe/go-rover/pkg/sensor"
	"github.com/teslashibe/go-rover/pkg/telemetry"
	"github.com/teslashibe/go-rover/pkg/tracking"
	"github.com/teslashibe/go-rover/pkg/tracking/detection"
)

// Sensor source names.
const (
	SensorArduino    = "arduino"
	SensorUltrasonic = "ultrasonic"
	SensorSim        = "sim"
)

// Motor driver names.
const (
	MotorsL298N = "l298n"
	MotorsDummy = "dummy"
)

// Config holds all configuration for the rover application.
// Flag parsing is done in cmd/rover/main.go; this struct is data only.
type Config struct {
	// Debug enables verbose logging.
	Debug bool

	// HTTP server.
	Host string
	Port string

	// Mode is the control mode at startup.
	Mode Mode

	// Hardware selection.
	SensorSource string // arduino, ultrasonic or sim
	MotorDriver  string // l298n or dummy

	// ProcessEveryN runs the detector on every Nth camera frame.
	ProcessEveryN int

	// ManualSpeed is used when a manual command carries no speed.
	ManualSpeed int

	// SimInterval is the simulated sensor update period.
	SimInterval time.Duration

	Camera     camera.Config
	Detection  detection.Config
	Tracking   tracking.Config
	Motors     motor.PinConfig
	Arduino    sensor.ArduinoConfig
	Ultrasonic sensor.UltrasonicConfig
	Telemetry  telemetry.Config
}

// DefaultConfig returns the stock rover configuration.
func DefaultConfig() Config {
	cam := camera.DefaultConfig()
	return Config{
		Host:          config.DefaultHost,
		Port:          config.DefaultHTTPPort,
		Mode:          ModeManual,
		SensorSource:  SensorArduino,
		MotorDriver:   MotorsL298N,
		ProcessEveryN: 3,
		ManualSpeed:   60,
		SimInterval:   500 * time.Millisecond,
		Camera:        cam,
		Detection:     detection.DefaultConfig(),
		Tracking:      tracking.DefaultConfig().WithCameraWidth(cam.Width),
		Motors:        motor.DefaultPinConfig(),
		Arduino:       sensor.DefaultArduinoConfig(),
		Ultrasonic:    sensor.DefaultUltrasonicConfig(),
		Telemetry:     telemetry.DefaultConfig(),
	}
}

// LoadEnv applies ROVER_* environment overrides.
// Call this before applying flags so flags win.
func (c Config) LoadEnv() Config {
	c.Host = config.String("HOST", c.Host)
	c.Port = config.String("PORT", c.Port)
	c.Mode = Mode(config.String("MODE", string(c.Mode)))
	c.SensorSource = config.String("SENSOR", c.SensorSource)
	c.MotorDriver = config.String("MOTORS", c.MotorDriver)
	c.ProcessEveryN = config.Int("PROCESS_EVERY_N", c.ProcessEveryN)
	c.ManualSpeed = config.Int("MANUAL_SPEED", c.ManualSpeed)
	c.Camera.Device = config.Int("CAMERA", c.Camera.Device)
	c.Detection.ModelPath = config.String("MODEL", c.Detection.ModelPath)
	c.Arduino.Port = config.String("SERIAL", c.Arduino.Port)
	c.Telemetry.DBPath = config.String("TELEMETRY_DB", c.Telemetry.DBPath)
	c.Tracking = c.Tracking.LoadEnv()
	return c
}

// Validate checks every section and reports all problems at once.
func (c Config) Validate() error {
	var errs []error
	if _, err := ParseMode(string(c.Mode)); err != nil {
		errs = append(errs, err)
	}
	switch c.SensorSource {
	case SensorArduino, SensorUltrasonic, SensorSim:
	default:
		errs = append(errs, fmt.Errorf("%w: %q", sensor.ErrUnknownSource, c.SensorSource))
	}
	switch c.MotorDriver {
	case MotorsL298N, MotorsDummy:
	default:
		errs = append(errs, fmt.Errorf("rover: unknown motor driver %q", c.MotorDriver))
	}
	if c.Port == "" {
		errs = append(errs, errors.New("rover: port is required"))
	}
	if c.ProcessEveryN < 1 {
		errs = append(errs, errors.New("rover: process_every_n must be at least 1"))
	}
	if c.ManualSpeed < 0 || c.ManualSpeed > 100 {
		errs = append(errs, errors.New("rover: manual_speed must be in [0,100]"))
	}
	if c.SensorSource == SensorSim && c.SimInterval <= 0 {
		errs = append(errs, errors.New("rover: sim_interval must be positive"))
	}
	errs = append(errs,
		c.Camera.Validate(),
		c.Detection.Validate(),
		c.Tracking.Validate(),
		c.Telemetry.Validate(),
	)
	return errors.Join(errs...)
}
