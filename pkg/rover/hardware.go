package rover

import (
	"errors"
	"fmt"
	"time"

	"github.com/teslashibe/go-rover/internal/log"
	"github.com/teslashibe/go-rover/pkg/camera"
	"github.com/teslashibe/go-rover/pkg/motor"
	"github.com/teslashibe/go-rover/pkg/sensor"
	"github.com/teslashibe/go-rover/pkg/telemetry"
	"github.com/teslashibe/go-rover/pkg/tracking/detection"
)

// Open opens the hardware named by cfg and builds an App around it.
//
// Missing hardware degrades instead of failing: the L298N falls back to the
// dummy driver, a missing Arduino or HC-SR04 to the simulator, and a missing
// camera or model disables streaming or detection. Only a telemetry
// database that cannot be opened is fatal.
func Open(cfg Config) (*App, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	deps := Deps{
		Motors:  openMotors(cfg),
		Sensors: openSensors(cfg),
	}

	if cam, err := camera.Open(cfg.Camera); err != nil {
		log.Warn("camera unavailable, video disabled", "device", cfg.Camera.Device, "error", err)
	} else {
		deps.Camera = cam
	}

	if det, err := detection.NewYOLO(cfg.Detection); err != nil {
		log.Warn("detector unavailable, auto mode only stops for obstacles and lost targets", "model", cfg.Detection.ModelPath, "error", err)
	} else {
		deps.Detector = det
	}

	if cfg.Telemetry.DBPath != "" {
		store, err := telemetry.OpenStore(cfg.Telemetry.DBPath)
		if err != nil {
			closeDeps(deps)
			return nil, err
		}
		deps.Store = store
	}

	app, err := New(cfg, deps)
	if err != nil {
		closeDeps(deps)
		return nil, err
	}
	return app, nil
}

func openMotors(cfg Config) motor.Driver {
	if cfg.MotorDriver == MotorsDummy {
		return motor.NewDummy()
	}
	d, err := motor.OpenL298N(cfg.Motors)
	if err != nil {
		log.Warn("L298N unavailable, motors in dummy mode", "error", err)
		return motor.NewDummy()
	}
	return d
}

func openSensors(cfg Config) sensor.Source {
	var (
		src sensor.Source
		err error
	)
	switch cfg.SensorSource {
	case SensorArduino:
		src, err = sensor.OpenArduino(cfg.Arduino, nil)
	case SensorUltrasonic:
		src, err = sensor.OpenUltrasonic(cfg.Ultrasonic)
	case SensorSim:
		return newSimulator(cfg)
	default:
		err = fmt.Errorf("%w: %q", sensor.ErrUnknownSource, cfg.SensorSource)
	}
	if err != nil {
		log.Warn("sensor unavailable, using simulated data", "source", cfg.SensorSource, "error", err)
		return newSimulator(cfg)
	}
	return src
}

func newSimulator(cfg Config) sensor.Source {
	interval := cfg.SimInterval
	if interval <= 0 {
		interval = 500 * time.Millisecond
	}
	return sensor.NewSimulator(interval, uint64(time.Now().UnixNano()))
}

func closeDeps(d Deps) {
	errs := []error{d.Motors.Close(), d.Sensors.Close()}
	if d.Camera != nil {
		errs = append(errs, d.Camera.Close())
	}
	if d.Detector != nil {
		errs = append(errs, d.Detector.Close())
	}
	if d.Store != nil {
		errs = append(errs, d.Store.Close())
	}
	if err := errors.Join(errs...); err != nil {
		log.Warn("cleanup after failed start", "error", err)
	}
}
