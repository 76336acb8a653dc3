// Package detection finds people in camera frames.
package detection

import (
	"errors"
	"fmt"

	"gocv.io/x/gocv"
)

// Detection is one person box in camera pixel coordinates.
// X1 < X2 and Y1 < Y2 for every box a detector returns.
type Detection struct {
	X1         int     `json:"x1"`
	Y1         int     `json:"y1"`
	X2         int     `json:"x2"`
	Y2         int     `json:"y2"`
	Confidence float64 `json:"confidence"`
}

// Area returns the box area in pixels.
func (d Detection) Area() int {
	return (d.X2 - d.X1) * (d.Y2 - d.Y1)
}

// CenterX returns the horizontal center in pixels.
func (d Detection) CenterX() float64 {
	return float64(d.X1+d.X2) / 2
}

// CenterY returns the vertical center in pixels.
func (d Detection) CenterY() float64 {
	return float64(d.Y1+d.Y2) / 2
}

// Width returns the box width in pixels.
func (d Detection) Width() int {
	return d.X2 - d.X1
}

// Valid reports whether the corners are ordered.
func (d Detection) Valid() bool {
	return d.X1 < d.X2 && d.Y1 < d.Y2
}

// Detector is the interface for person detection backends.
type Detector interface {
	// Detect returns the people found in img, in detector order.
	Detect(img gocv.Mat) ([]Detection, error)

	// Close releases resources
	Close() error
}

// SelectLargest returns the index of the detection with the largest area.
// Ties go to the first maximal element. ok is false for an empty slice.
func SelectLargest(dets []Detection) (idx int, ok bool) {
	if len(dets) == 0 {
		return 0, false
	}
	best := 0
	for i := 1; i < len(dets); i++ {
		if dets[i].Area() > dets[best].Area() {
			best = i
		}
	}
	return best, true
}

// Config holds detector configuration
type Config struct {
	ModelPath        string  // Path to YOLOv8 ONNX export
	ConfidenceThresh float32 // Minimum person score
	NMSThresh        float32 // IoU threshold for non-maximum suppression
	InputSize        int     // Square network input, in pixels
}

// DefaultConfig returns defaults tuned for a Raspberry Pi at 320x240.
func DefaultConfig() Config {
	return Config{
		ModelPath:        "models/yolov8n.onnx",
		ConfidenceThresh: 0.35,
		NMSThresh:        0.5,
		InputSize:        256,
	}
}

// ErrEmptyFrame is returned when Detect is given an empty image.
var ErrEmptyFrame = errors.New("detection: empty frame")

// Validate checks the configuration.
func (c Config) Validate() error {
	if c.ModelPath == "" {
		return errors.New("detection: model path is required")
	}
	if c.ConfidenceThresh <= 0 || c.ConfidenceThresh >= 1 {
		return fmt.Errorf("detection: confidence threshold %v out of (0,1)", c.ConfidenceThresh)
	}
	if c.NMSThresh <= 0 || c.NMSThresh > 1 {
		return fmt.Errorf("detection: NMS threshold %v out of (0,1]", c.NMSThresh)
	}
	if c.InputSize <= 0 || c.InputSize%32 != 0 {
		return fmt.Errorf("detection: input size %d must be a positive multiple of 32", c.InputSize)
	}
	return nil
}
