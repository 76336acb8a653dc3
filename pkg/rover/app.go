package rover

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/teslashibe/go-rover/internal/log"
	"github.com/teslashibe/go-rover/pkg/camera"
	"github.com/teslashibe/go-rover/pkg/hub"
	"github.com/teslashibe/go-rover/pkg/motor"
	"github.com/teslashibe/go-rover/pkg/protocol"
	"github.com/teslashibe/go-rover/pkg/sensor"
	"github.com/teslashibe/go-rover/pkg/telemetry"
	"github.com/teslashibe/go-rover/pkg/tracking"
	"github.com/teslashibe/go-rover/pkg/tracking/detection"
)

// Deps are the hardware handles an App drives. Motors and Sensors are
// required; without a Camera nothing is streamed and without a Detector the
// tracker never sees a person.
type Deps struct {
	Motors   motor.Driver
	Sensors  sensor.Source
	Camera   camera.Source
	Detector detection.Detector
	Store    *telemetry.Store
}

// configurable is implemented by camera sources that accept new settings
// while open.
type configurable interface {
	Apply(cfg camera.Config) error
}

// App is the rover application orchestrator.
// It manages all components and their lifecycle.
type App struct {
	cfg Config
	now func() time.Time

	// Hardware
	motors   motor.Driver
	sensors  sensor.Source
	camera   camera.Source
	detector detection.Detector

	// Control
	tracker *tracking.Controller

	// Telemetry
	telemetry *telemetry.Logger
	store     *telemetry.Store

	// Streaming
	camMgr    *camera.Manager
	throttle  *camera.Throttle
	fps       camera.FPSMeter
	feed      *FrameFeed
	control   *hub.Hub
	cameraHub *hub.Hub

	// ctrlMu serializes mode changes and drive commands.
	ctrlMu sync.Mutex

	mu        sync.RWMutex
	mode      Mode
	emergency bool
	dets      []detection.Detection

	// Touched only by the camera goroutine.
	frameIndex int

	started  time.Time
	shutdown sync.Once
}

// New creates an App around already opened hardware.
func New(cfg Config, deps Deps) (*App, error) {
	if deps.Motors == nil {
		return nil, errors.New("rover: motor driver is required")
	}
	if deps.Sensors == nil {
		return nil, errors.New("rover: sensor source is required")
	}
	cfg.Tracking = cfg.Tracking.WithCameraWidth(cfg.Camera.Width)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	cfg.Mode, _ = ParseMode(string(cfg.Mode))

	a := &App{
		cfg:       cfg,
		now:       time.Now,
		motors:    deps.Motors,
		sensors:   deps.Sensors,
		camera:    deps.Camera,
		detector:  deps.Detector,
		store:     deps.Store,
		tracker:   tracking.New(cfg.Tracking, deps.Motors),
		telemetry: telemetry.NewLogger(cfg.Telemetry.MaxEntries),
		camMgr:    camera.NewManager(cfg.Camera),
		throttle:  camera.NewThrottle(cfg.Camera.StreamFPSLimit),
		feed:      NewFrameFeed(),
		control:   hub.New("control"),
		cameraHub: hub.New("camera"),
		mode:      ModeManual,
		started:   time.Now(),
	}
	if a.store != nil {
		a.telemetry.SetSink(a.store)
	}
	a.camMgr.OnConfigChange = a.applyCameraConfig
	a.control.SetHandlers(a.controlHandlers())

	if cfg.Mode == ModeAuto {
		a.mode = ModeAuto
		a.tracker.Enable()
	}
	return a, nil
}

func (a *App) applyCameraConfig(cfg camera.Config) error {
	a.throttle.SetLimit(cfg.StreamFPSLimit)
	a.tracker.SetFrameWidth(cfg.Width)
	if c, ok := a.camera.(configurable); ok {
		return c.Apply(cfg)
	}
	return nil
}

// Run starts the sensors and background loops and blocks until ctx is
// cancelled. Call Shutdown afterwards to release the hardware.
func (a *App) Run(ctx context.Context) error {
	if err := a.sensors.Start(ctx); err != nil {
		return fmt.Errorf("start %s sensor: %w", a.sensors.Name(), err)
	}
	log.Info("rover running",
		"mode", a.Mode(),
		"sensor", a.sensors.Name(),
		"camera", a.camera != nil,
		"detector", a.detector != nil,
	)

	var wg sync.WaitGroup
	run := func(fn func(context.Context)) {
		wg.Add(1)
		go func() {
			defer wg.Done()
			fn(ctx)
		}()
	}
	run(a.control.Run)
	run(a.cameraHub.Run)
	run(a.runTelemetry)
	if a.camera != nil {
		run(a.runCamera)
	} else {
		run(a.runBlindTracking)
	}

	<-ctx.Done()
	wg.Wait()
	return nil
}

// Shutdown stops the car and releases every component. It is safe to call
// more than once.
func (a *App) Shutdown() error {
	var errs []error
	a.shutdown.Do(func() {
		log.Info("shutting down")
		a.ctrlMu.Lock()
		defer a.ctrlMu.Unlock()

		errs = append(errs, a.tracker.Disable(), a.motors.Stop(), a.motors.Close(), a.sensors.Close())
		a.feed.Close()
		if a.camera != nil {
			errs = append(errs, a.camera.Close())
		}
		if a.detector != nil {
			errs = append(errs, a.detector.Close())
		}
		if a.store != nil {
			errs = append(errs, a.store.Close())
		}
		log.Info("cleanup complete")
	})
	return errors.Join(errs...)
}

// Mode returns the active control mode.
func (a *App) Mode() Mode {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.mode
}

// SetMode switches between manual and automatic control. Entering auto
// enables the tracker; leaving it disables the tracker, which stops the
// motors. The mode is changed even when the stop command fails.
func (a *App) SetMode(mode Mode) error {
	m, err := ParseMode(string(mode))
	if err != nil {
		return err
	}

	a.ctrlMu.Lock()
	defer a.ctrlMu.Unlock()

	a.mu.Lock()
	a.mode = m
	a.emergency = false
	a.mu.Unlock()

	if m == ModeAuto {
		// The car stands still until the tracker makes its first decision.
		if err = a.motors.Stop(); err != nil {
			log.Warn("stop before auto failed", "error", err)
		}
		a.tracker.Enable()
	} else {
		err = a.tracker.Disable()
	}
	log.Info("mode switched", "mode", m)
	a.broadcast(protocol.NewModeChangedMessage(string(m), false))
	return err
}

// ManualControl drives the motors from a keyboard-style command. Commands
// are forward, backward, left, right and stop, or w, s, a, d. A missing
// speed uses Config.ManualSpeed. Commands are rejected with ErrNotManual
// outside manual mode.
func (a *App) ManualControl(cmd protocol.ManualControlData) (motor.Status, error) {
	a.ctrlMu.Lock()
	defer a.ctrlMu.Unlock()

	if a.Mode() != ModeManual {
		return a.motors.Status(), ErrNotManual
	}
	dir, ok := ParseCommand(cmd.Command)
	if !ok {
		return a.motors.Status(), fmt.Errorf("%w: %q", ErrUnknownCommand, cmd.Command)
	}
	speed := a.cfg.ManualSpeed
	if cmd.Speed != nil {
		speed = motor.ClampSpeed(*cmd.Speed)
	}

	err := motor.Drive(a.motors, dir, speed)
	if err != nil {
		log.Warn("manual command failed", "command", dir, "speed", speed, "error", err)
	}
	status := a.motors.Status()
	a.broadcast(protocol.NewMotorStatusMessage(status))
	return status, err
}

// ParseCommand maps a manual command or its WASD key to a direction.
func ParseCommand(cmd string) (motor.Direction, bool) {
	switch cmd {
	case "forward", "w":
		return motor.DirForward, true
	case "backward", "s":
		return motor.DirBackward, true
	case "left", "a":
		return motor.DirLeft, true
	case "right", "d":
		return motor.DirRight, true
	case "stop", "":
		return motor.DirStop, true
	}
	return "", false
}

// EmergencyStop disables tracking, stops the motors and falls back to
// manual mode. Clients are told the switch was an emergency.
func (a *App) EmergencyStop() error {
	a.ctrlMu.Lock()
	defer a.ctrlMu.Unlock()

	disableErr := a.tracker.Disable()
	stopErr := a.motors.Stop()

	a.mu.Lock()
	a.mode = ModeManual
	a.emergency = true
	a.mu.Unlock()

	log.Warn("EMERGENCY STOP activated")
	a.broadcast(protocol.NewModeChangedMessage(string(ModeManual), true))
	return errors.Join(disableErr, stopErr)
}

// ClientDisconnected stops the car when a manual driver goes away.
func (a *App) ClientDisconnected() error {
	a.ctrlMu.Lock()
	defer a.ctrlMu.Unlock()

	if a.Mode() != ModeManual {
		return nil
	}
	err := a.motors.Stop()
	if err != nil {
		log.Error("stop on disconnect failed", "error", err)
	}
	return err
}

// Snapshot is the JSON status document.
type Snapshot struct {
	Status           string          `json:"status"`
	Mode             Mode            `json:"mode"`
	Emergency        bool            `json:"emergency"`
	CameraResolution string          `json:"camera_resolution"`
	Model            string          `json:"model"`
	SensorSource     string          `json:"sensor_source"`
	Sensors          sensor.Reading  `json:"sensors"`
	Motors           motor.Status    `json:"motors"`
	TrackingEnabled  bool            `json:"tracking_enabled"`
	Tracking         tracking.Status `json:"tracking"`
	Humans           int             `json:"humans"`
	FPS              float64         `json:"fps"`
	Clients          int             `json:"clients"`
	Logging          bool            `json:"logging"`
	LoggedEntries    int             `json:"logged_entries"`
	UptimeSeconds    float64         `json:"uptime_seconds"`
}

// Snapshot returns the current state of every component.
func (a *App) Snapshot() Snapshot {
	cam := a.camMgr.GetConfig()
	ts := a.tracker.Status()

	a.mu.RLock()
	mode, emergency, humans := a.mode, a.emergency, len(a.dets)
	a.mu.RUnlock()

	model := ""
	if a.detector != nil {
		model = a.cfg.Detection.ModelPath
	}
	return Snapshot{
		Status:           "running",
		Mode:             mode,
		Emergency:        emergency,
		CameraResolution: strconv.Itoa(cam.Width) + "x" + strconv.Itoa(cam.Height),
		Model:            model,
		SensorSource:     a.sensors.Name(),
		Sensors:          a.sensors.Latest(),
		Motors:           a.motors.Status(),
		TrackingEnabled:  ts.Enabled,
		Tracking:         ts,
		Humans:           humans,
		FPS:              a.fps.FPS(),
		Clients:          a.control.ClientCount(),
		Logging:          a.telemetry.Enabled(),
		LoggedEntries:    a.telemetry.Len(),
		UptimeSeconds:    time.Since(a.started).Seconds(),
	}
}

// Sensors returns the latest sensor reading.
func (a *App) Sensors() sensor.Reading {
	return a.sensors.Latest()
}

// Tracker returns the tracking controller.
func (a *App) Tracker() *tracking.Controller {
	return a.tracker
}

// Telemetry returns the telemetry log.
func (a *App) Telemetry() *telemetry.Logger {
	return a.telemetry
}

// Store returns the telemetry archive, or nil when archiving is off.
func (a *App) Store() *telemetry.Store {
	return a.store
}

// CameraManager returns the live camera configuration.
func (a *App) CameraManager() *camera.Manager {
	return a.camMgr
}

// Feed returns the MJPEG frame feed.
func (a *App) Feed() *FrameFeed {
	return a.feed
}

// ControlHub returns the hub for control WebSocket clients.
func (a *App) ControlHub() *hub.Hub {
	return a.control
}

// CameraHub returns the hub for binary camera WebSocket clients.
func (a *App) CameraHub() *hub.Hub {
	return a.cameraHub
}

// runTelemetry logs and broadcasts the latest reading every LogInterval.
func (a *App) runTelemetry(ctx context.Context) {
	sensor.Poll(ctx, a.cfg.Telemetry.LogInterval, a.recordTelemetry)
}

func (a *App) recordTelemetry() {
	r := a.sensors.Latest()
	if r.Timestamp.IsZero() {
		return
	}
	a.telemetry.Log(r)
	a.broadcast(protocol.NewSensorDataMessage(r))
}
