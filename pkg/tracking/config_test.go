package tracking

import (
	"errors"
	"testing"
	"time"

	"github.com/teslashibe/go-rover/internal/config"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if cfg.EmergencyStopCM != 20 {
		t.Errorf("EmergencyStopCM: got %v, want 20", cfg.EmergencyStopCM)
	}
	if cfg.LostTimeout != 2*time.Second {
		t.Errorf("LostTimeout: got %v, want 2s", cfg.LostTimeout)
	}
	if cfg.ReselectFrames != 5 {
		t.Errorf("ReselectFrames: got %d, want 5", cfg.ReselectFrames)
	}
	if cfg.CenterThresholdPX != 40 {
		t.Errorf("CenterThresholdPX: got %v, want 40", cfg.CenterThresholdPX)
	}
	if cfg.ForwardSpeed != 50 || cfg.TurnSpeed != 55 {
		t.Errorf("speeds: got %d/%d, want 50/55", cfg.ForwardSpeed, cfg.TurnSpeed)
	}
	if cfg.FrameCenterX != 160 {
		t.Errorf("FrameCenterX: got %v, want 160", cfg.FrameCenterX)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("Validate: %v", err)
	}
}

func TestConfig_WithCameraWidth(t *testing.T) {
	cfg := DefaultConfig().WithCameraWidth(640)
	if cfg.FrameCenterX != 320 {
		t.Errorf("FrameCenterX: got %v, want 320", cfg.FrameCenterX)
	}
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		field  string
		mutate func(*Config)
	}{
		{"EmergencyStopCM", func(c *Config) { c.EmergencyStopCM = -1 }},
		{"LostTimeout", func(c *Config) { c.LostTimeout = 0 }},
		{"ReselectFrames", func(c *Config) { c.ReselectFrames = 0 }},
		{"FrameCenterX", func(c *Config) { c.FrameCenterX = 0 }},
		{"CenterThresholdPX", func(c *Config) { c.CenterThresholdPX = -5 }},
		{"ForwardSpeed", func(c *Config) { c.ForwardSpeed = 101 }},
		{"TurnSpeed", func(c *Config) { c.TurnSpeed = -1 }},
	}

	for _, tc := range tests {
		t.Run(tc.field, func(t *testing.T) {
			cfg := DefaultConfig()
			tc.mutate(&cfg)

			err := cfg.Validate()
			var ce *ConfigError
			if !errors.As(err, &ce) {
				t.Fatalf("Validate: got %v, want *ConfigError", err)
			}
			if ce.Field != tc.field {
				t.Errorf("Field: got %q, want %q", ce.Field, tc.field)
			}
		})
	}
}

func TestConfig_LoadEnv(t *testing.T) {
	t.Setenv("ROVER_EMERGENCY_STOP_CM", "12.5")
	t.Setenv("ROVER_LOST_TIMEOUT", "3")
	t.Setenv("ROVER_RESELECT_FRAMES", "10")
	t.Setenv("ROVER_CENTER_THRESHOLD_PX", "25")
	t.Setenv("ROVER_FORWARD_SPEED", "70")
	t.Setenv("ROVER_TURN_SPEED", "60")

	cfg := DefaultConfig().LoadEnv()

	if cfg.EmergencyStopCM != 12.5 {
		t.Errorf("EmergencyStopCM: got %v, want 12.5", cfg.EmergencyStopCM)
	}
	if cfg.LostTimeout != 3*time.Second {
		t.Errorf("LostTimeout: got %v, want 3s", cfg.LostTimeout)
	}
	if cfg.ReselectFrames != 10 {
		t.Errorf("ReselectFrames: got %d, want 10", cfg.ReselectFrames)
	}
	if cfg.CenterThresholdPX != 25 {
		t.Errorf("CenterThresholdPX: got %v, want 25", cfg.CenterThresholdPX)
	}
	if cfg.ForwardSpeed != 70 || cfg.TurnSpeed != 60 {
		t.Errorf("speeds: got %d/%d, want 70/60", cfg.ForwardSpeed, cfg.TurnSpeed)
	}
}

func TestConfig_LoadEnvInvalidKeepsDefault(t *testing.T) {
	saved := config.Invalid
	t.Cleanup(func() { config.Invalid = saved })
	config.Invalid = nil

	t.Setenv("ROVER_RESELECT_FRAMES", "often")
	cfg := DefaultConfig().LoadEnv()

	if cfg.ReselectFrames != 5 {
		t.Errorf("ReselectFrames: got %d, want default 5", cfg.ReselectFrames)
	}
	if len(config.Invalid) != 1 {
		t.Errorf("config.Invalid: got %v, want one entry", config.Invalid)
	}
}
