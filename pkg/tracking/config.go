package tracking

import (
	"fmt"
	"time"

	"github.com/teslashibe/go-rover/internal/config"
)

// Config holds all tunable parameters for person following
type Config struct {
	// Safety
	EmergencyStopCM float64       // Stop when an obstacle is closer than this (cm)
	LostTimeout     time.Duration // Stop once no person has been seen for this long

	// Target selection
	ReselectFrames int // Re-pick the largest person every N detection frames

	// Steering
	FrameCenterX      float64 // Horizontal frame center in pixels (camera width / 2)
	CenterThresholdPX float64 // Turn when the target is further off-center than this

	// Motor speeds (percent)
	ForwardSpeed int
	TurnSpeed    int
}

// DefaultConfig returns the configuration for a 320px wide camera.
func DefaultConfig() Config {
	return Config{
		EmergencyStopCM:   20,
		LostTimeout:       2 * time.Second,
		ReselectFrames:    5,
		FrameCenterX:      160,
		CenterThresholdPX: 40,
		ForwardSpeed:      50,
		TurnSpeed:         55,
	}
}

// WithCameraWidth returns a copy of c with FrameCenterX derived from width.
func (c Config) WithCameraWidth(width int) Config {
	c.FrameCenterX = float64(width) / 2
	return c
}

// LoadEnv overrides fields from ROVER_* environment variables.
func (c Config) LoadEnv() Config {
	c.EmergencyStopCM = config.Float("EMERGENCY_STOP_CM", c.EmergencyStopCM)
	c.LostTimeout = config.Duration("LOST_TIMEOUT", c.LostTimeout)
	c.ReselectFrames = config.Int("RESELECT_FRAMES", c.ReselectFrames)
	c.CenterThresholdPX = config.Float("CENTER_THRESHOLD_PX", c.CenterThresholdPX)
	c.ForwardSpeed = config.Int("FORWARD_SPEED", c.ForwardSpeed)
	c.TurnSpeed = config.Int("TURN_SPEED", c.TurnSpeed)
	return c
}

// Validate checks the configuration.
func (c Config) Validate() error {
	switch {
	case c.EmergencyStopCM < 0:
		return &ConfigError{Field: "EmergencyStopCM", Message: fmt.Sprintf("must not be negative, got %v", c.EmergencyStopCM)}
	case c.LostTimeout <= 0:
		return &ConfigError{Field: "LostTimeout", Message: fmt.Sprintf("must be positive, got %v", c.LostTimeout)}
	case c.ReselectFrames < 1:
		return &ConfigError{Field: "ReselectFrames", Message: fmt.Sprintf("must be at least 1, got %d", c.ReselectFrames)}
	case c.FrameCenterX <= 0:
		return &ConfigError{Field: "FrameCenterX", Message: fmt.Sprintf("must be positive, got %v", c.FrameCenterX)}
	case c.CenterThresholdPX < 0:
		return &ConfigError{Field: "CenterThresholdPX", Message: fmt.Sprintf("must not be negative, got %v", c.CenterThresholdPX)}
	case c.ForwardSpeed < 0 || c.ForwardSpeed > 100:
		return &ConfigError{Field: "ForwardSpeed", Message: fmt.Sprintf("must be 0-100, got %d", c.ForwardSpeed)}
	case c.TurnSpeed < 0 || c.TurnSpeed > 100:
		return &ConfigError{Field: "TurnSpeed", Message: fmt.Sprintf("must be 0-100, got %d", c.TurnSpeed)}
	}
	return nil
}

// ConfigError represents a configuration validation error.
type ConfigError struct {
	Field   string
	Message string
}

func (e *ConfigError) Error() string {
	return "tracking: " + e.Field + " " + e.Message
}
