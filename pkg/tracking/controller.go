// Package tracking turns per-frame person detections and the latest range
// reading into one motor decision per frame.
package tracking

import (
	"math"
	"sync"
	"time"

	"github.com/teslashibe/go-rover/internal/log"
	"github.com/teslashibe/go-rover/pkg/sensor"
	"github.com/teslashibe/go-rover/pkg/tracking/detection"
)

// MotorController is the subset of the motor driver the controller uses.
type MotorController interface {
	Forward(speed int) error
	TurnLeft(speed int) error
	TurnRight(speed int) error
	Stop() error
}

// State is the outcome reported for one frame.
type State string

const (
	StateDisabled      State = "disabled"
	StateEmergencyStop State = "EMERGENCY_STOP"
	StateStopped       State = "stopped"
	StateSearching     State = "searching"
	StateTracking      State = "tracking"
	StateCommandFailed State = "command_failed"
)

// Reasons accompanying non-tracking states.
const (
	ReasonObstacleTooClose = "obstacle_too_close"
	ReasonNoPerson         = "no_person_detected"
	ReasonTemporaryLoss    = "temporary_loss"
)

// Action is the motor command issued for a frame.
type Action string

const (
	ActionNone      Action = ""
	ActionStop      Action = "stop"
	ActionForward   Action = "forward"
	ActionTurnLeft  Action = "turn_left"
	ActionTurnRight Action = "turn_right"
)

// Result is the per-frame tracking report.
type Result struct {
	Status       State           `json:"status"`
	Reason       string          `json:"reason,omitempty"`
	Action       Action          `json:"action,omitempty"`
	Offset       float64         `json:"offset"`
	TargetCenter float64         `json:"person_center"`
	Distance     sensor.Distance `json:"distance"`
	ThresholdCM  float64         `json:"threshold,omitempty"`
	Locked       bool            `json:"target_locked"`
	Humans       int             `json:"humans"`

	// CommandFailed is set when the motor command for this frame failed.
	CommandFailed bool   `json:"command_failed,omitempty"`
	Error         string `json:"error,omitempty"`
}

// Summary is a one-line description for the video overlay,
// e.g. "tracking turn_left" or "searching (temporary_loss)".
func (r Result) Summary() string {
	s := string(r.Status)
	if r.Action != ActionNone {
		s += " " + string(r.Action)
	}
	if r.Reason != "" {
		s += " (" + r.Reason + ")"
	}
	if r.CommandFailed && r.Status != StateCommandFailed {
		s += " [command_failed]"
	}
	return s
}

// Status is a point-in-time view of the controller.
type Status struct {
	Enabled       bool                 `json:"enabled"`
	FrameCount    int                  `json:"frame_count"`
	TargetLocked  bool                 `json:"target_locked"`
	Target        *detection.Detection `json:"target,omitempty"`
	SinceLastSeen *float64             `json:"last_detection,omitempty"` // seconds
	Last          Result               `json:"last_result"`
}

// Controller is the person-following state machine. It is safe for
// concurrent use: Process runs on the video goroutine while Enable and
// Disable arrive from the control plane.
type Controller struct {
	motors MotorController
	now    func() time.Time

	// mu is held across the motor command so nothing is issued after
	// Disable returns.
	mu                sync.Mutex
	config            Config
	enabled           bool
	lastDetectionTime time.Time
	frameCount        int
	targetLocked      bool
	lastTarget        *detection.Detection
	last              Result
}

// New creates a disabled controller.
func New(cfg Config, motors MotorController) *Controller {
	return &Controller{
		config: cfg,
		motors: motors,
		now:    time.Now,
		last:   Result{Status: StateDisabled},
	}
}

// SetClock replaces the clock used by Enable and Status.
func (c *Controller) SetClock(now func() time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = now
}

// Enable starts autonomous control. The lost-person timer starts now.
func (c *Controller) Enable() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.enabled = true
	c.lastDetectionTime = c.now()
	c.frameCount = 0
	c.unlock()
	log.Info("auto-tracking enabled")
}

// Disable stops autonomous control and commands the motors to stop.
// The stop error, if any, is returned after the controller is disabled.
func (c *Controller) Disable() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.enabled = false
	c.unlock()
	c.last = Result{Status: StateDisabled}
	err := c.motors.Stop()
	if err != nil {
		log.Error("stop on disable failed", "error", err)
	}
	log.Info("auto-tracking disabled")
	return err
}

// Enabled reports whether the controller is driving the motors.
func (c *Controller) Enabled() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.enabled
}

// Process makes the decision for one frame. detections are authoritative;
// humanCount is only reported back.
func (c *Controller) Process(dets []detection.Detection, humanCount int, distance sensor.Distance, now time.Time) Result {
	c.mu.Lock()
	defer c.mu.Unlock()

	r := c.process(dets, distance, now)
	r.Humans = humanCount
	c.last = r
	return r
}

func (c *Controller) process(dets []detection.Detection, distance sensor.Distance, now time.Time) Result {
	if !c.enabled {
		return Result{Status: StateDisabled}
	}

	if distance.Known() && distance.CM < c.config.EmergencyStopCM {
		r := Result{
			Status:      StateEmergencyStop,
			Reason:      ReasonObstacleTooClose,
			Action:      ActionStop,
			Distance:    distance,
			ThresholdCM: c.config.EmergencyStopCM,
			Locked:      c.targetLocked,
		}
		return c.command(r, c.motors.Stop)
	}

	if len(dets) == 0 {
		if now.Sub(c.lastDetectionTime) >= c.config.LostTimeout {
			c.unlock()
			r := Result{Status: StateStopped, Reason: ReasonNoPerson, Action: ActionStop, Distance: distance}
			return c.command(r, c.motors.Stop)
		}
		return Result{Status: StateSearching, Reason: ReasonTemporaryLoss, Distance: distance, Locked: c.targetLocked}
	}

	c.lastDetectionTime = now
	c.frameCount++

	// A locked flag without a box is treated as no lock.
	if !c.targetLocked || c.lastTarget == nil || c.frameCount%c.config.ReselectFrames == 0 {
		idx, _ := detection.SelectLargest(dets)
		target := dets[idx]
		c.lastTarget = &target
		c.targetLocked = true
	}

	center := c.lastTarget.CenterX()
	offset := center - c.config.FrameCenterX

	r := Result{
		Status:       StateTracking,
		Offset:       offset,
		TargetCenter: center,
		Distance:     distance,
		Locked:       c.targetLocked,
	}

	switch {
	case math.Abs(offset) > c.config.CenterThresholdPX && offset < 0:
		r.Action = ActionTurnLeft
		return c.command(r, func() error { return c.motors.TurnLeft(c.config.TurnSpeed) })
	case math.Abs(offset) > c.config.CenterThresholdPX:
		r.Action = ActionTurnRight
		return c.command(r, func() error { return c.motors.TurnRight(c.config.TurnSpeed) })
	default:
		r.Action = ActionForward
		return c.command(r, func() error { return c.motors.Forward(c.config.ForwardSpeed) })
	}
}

// command issues one motor command. A failure is reported in the result
// rather than returned so the video loop keeps running. An emergency stop
// keeps its status so clients still see it.
func (c *Controller) command(r Result, fn func() error) Result {
	if err := fn(); err != nil {
		log.Warn("motor command failed", "action", r.Action, "status", r.Status, "error", err)
		r.CommandFailed = true
		r.Error = err.Error()
		if r.Status != StateEmergencyStop {
			r.Status = StateCommandFailed
		}
	}
	return r
}

func (c *Controller) unlock() {
	c.targetLocked = false
	c.lastTarget = nil
}

// Status returns a snapshot of the controller state.
func (c *Controller) Status() Status {
	c.mu.Lock()
	defer c.mu.Unlock()

	s := Status{
		Enabled:      c.enabled,
		FrameCount:   c.frameCount,
		TargetLocked: c.targetLocked,
		Last:         c.last,
	}
	if c.lastTarget != nil {
		t := *c.lastTarget
		s.Target = &t
	}
	if !c.lastDetectionTime.IsZero() {
		since := c.now().Sub(c.lastDetectionTime).Seconds()
		s.SinceLastSeen = &since
	}
	return s
}
