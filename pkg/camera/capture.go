package camera

import (
	"errors"
	"fmt"
	"sync"

	"gocv.io/x/gocv"

	"github.com/teslashibe/go-rover/internal/log"
)

// ErrReadFailed is returned when the device yields no frame.
var ErrReadFailed = errors.New("camera: failed to read frame")

// Source produces frames. Capture implements it for V4L2 devices.
type Source interface {
	Read(dst *gocv.Mat) error
	Close() error
}

// Capture wraps an OpenCV video capture device.
type Capture struct {
	mu  sync.Mutex
	dev *gocv.VideoCapture
	cfg Config
}

// Open opens the configured device and requests size and rate.
func Open(cfg Config) (*Capture, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	dev, err := gocv.VideoCaptureDevice(cfg.Device)
	if err != nil {
		return nil, fmt.Errorf("open camera %d: %w", cfg.Device, err)
	}
	if !dev.IsOpened() {
		dev.Close()
		return nil, fmt.Errorf("failed to open camera at index %d", cfg.Device)
	}

	c := &Capture{dev: dev}
	c.apply(cfg)
	log.Info("camera initialized", "device", cfg.Device, "width", cfg.Width, "height", cfg.Height, "fps", cfg.FPS)
	return c, nil
}

// Apply changes resolution and rate on the open device. It is suitable as
// a Manager.OnConfigChange callback.
func (c *Capture) Apply(cfg Config) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.apply(cfg)
	return nil
}

func (c *Capture) apply(cfg Config) {
	c.dev.Set(gocv.VideoCaptureFrameWidth, float64(cfg.Width))
	c.dev.Set(gocv.VideoCaptureFrameHeight, float64(cfg.Height))
	c.dev.Set(gocv.VideoCaptureFPS, float64(cfg.FPS))
	c.cfg = cfg
}

// Read implements Source.
func (c *Capture) Read(dst *gocv.Mat) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if ok := c.dev.Read(dst); !ok || dst.Empty() {
		return ErrReadFailed
	}
	return nil
}

// Close implements Source.
func (c *Capture) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.dev.Close()
}
