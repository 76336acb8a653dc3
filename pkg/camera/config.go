// Package camera captures frames, draws the status overlay and encodes JPEG
// for streaming.
package camera

import (
	"errors"
	"fmt"
)

// Config holds all camera configuration parameters.
// Quality and stream rate can be modified via the camera API at runtime.
type Config struct {
	Device         int `json:"device"`           // /dev/videoN index
	Width          int `json:"width"`            // Frame width in pixels
	Height         int `json:"height"`           // Frame height in pixels
	FPS            int `json:"fps"`              // Requested capture rate
	JPEGQuality    int `json:"quality"`          // JPEG quality 1-100
	StreamFPSLimit int `json:"stream_fps_limit"` // Max frames/s sent to viewers
}

// Limits for a USB webcam or the Pi camera in V4L2 mode.
const (
	MaxWidth  = 1920
	MaxHeight = 1080
	MaxFPS    = 60
)

// DefaultConfig returns a low resolution tuned for detection on a Pi.
func DefaultConfig() Config {
	return Config{
		Device:         0,
		Width:          320,
		Height:         240,
		FPS:            15,
		JPEGQuality:    60,
		StreamFPSLimit: 12,
	}
}

// Validate checks if the config values are within valid ranges.
func (c Config) Validate() error {
	var errs []error
	if c.Device < 0 {
		errs = append(errs, fmt.Errorf("device must not be negative, got %d", c.Device))
	}
	if c.Width < 160 || c.Width > MaxWidth {
		errs = append(errs, fmt.Errorf("width must be between 160 and %d", MaxWidth))
	}
	if c.Height < 120 || c.Height > MaxHeight {
		errs = append(errs, fmt.Errorf("height must be between 120 and %d", MaxHeight))
	}
	if c.FPS < 1 || c.FPS > MaxFPS {
		errs = append(errs, fmt.Errorf("fps must be between 1 and %d", MaxFPS))
	}
	if c.JPEGQuality < 1 || c.JPEGQuality > 100 {
		errs = append(errs, errors.New("quality must be between 1 and 100"))
	}
	if c.StreamFPSLimit < 1 || c.StreamFPSLimit > MaxFPS {
		errs = append(errs, fmt.Errorf("stream_fps_limit must be between 1 and %d", MaxFPS))
	}
	if len(errs) > 0 {
		return fmt.Errorf("camera: invalid config: %w", errors.Join(errs...))
	}
	return nil
}
