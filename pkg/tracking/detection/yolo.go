package detection

import (
	"fmt"
	"image"
	"os"
	"sync"

	"gocv.io/x/gocv"

	"github.com/teslashibe/go-rover/internal/log"
)

// personClassID is the COCO index of "person".
const personClassID = 0

// YOLODetector runs a YOLOv8 ONNX model through OpenCV DNN and keeps only
// person detections.
type YOLODetector struct {
	net    gocv.Net
	config Config
	mu     sync.Mutex
}

// NewYOLO loads the model.
func NewYOLO(cfg Config) (*YOLODetector, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if _, err := os.Stat(cfg.ModelPath); os.IsNotExist(err) {
		return nil, fmt.Errorf("model file not found: %s", cfg.ModelPath)
	}

	net := gocv.ReadNetFromONNX(cfg.ModelPath)
	if net.Empty() {
		return nil, fmt.Errorf("failed to load YOLO model from %s", cfg.ModelPath)
	}
	net.SetPreferableBackend(gocv.NetBackendDefault)
	net.SetPreferableTarget(gocv.NetTargetCPU)

	log.Info("person detector loaded", "model", cfg.ModelPath, "input", cfg.InputSize)
	return &YOLODetector{net: net, config: cfg}, nil
}

// Detect implements Detector.
func (d *YOLODetector) Detect(img gocv.Mat) ([]Detection, error) {
	if img.Empty() {
		return nil, ErrEmptyFrame
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	size := image.Pt(d.config.InputSize, d.config.InputSize)
	blob := gocv.BlobFromImage(img, 1.0/255.0, size, gocv.NewScalar(0, 0, 0, 0), true, false)
	defer blob.Close()

	d.net.SetInput(blob, "")
	output := d.net.Forward("")
	defer output.Close()

	// YOLOv8 output is [1, 84, N]: 4 box values then 80 class scores per anchor.
	sizes := output.Size()
	if len(sizes) != 3 {
		return nil, fmt.Errorf("unexpected YOLO output shape %v", sizes)
	}
	data, err := output.DataPtrFloat32()
	if err != nil {
		return nil, fmt.Errorf("read YOLO output: %w", err)
	}

	cand := decodePersons(data, sizes[1], sizes[2], d.config.InputSize, img.Cols(), img.Rows(), d.config.ConfidenceThresh)
	if len(cand.boxes) == 0 {
		return nil, nil
	}

	indices := gocv.NMSBoxes(cand.boxes, cand.scores, d.config.ConfidenceThresh, d.config.NMSThresh)
	dets := make([]Detection, 0, len(indices))
	for _, idx := range indices {
		b := cand.boxes[idx]
		dets = append(dets, Detection{
			X1: b.Min.X, Y1: b.Min.Y,
			X2: b.Max.X, Y2: b.Max.Y,
			Confidence: float64(cand.scores[idx]),
		})
	}
	log.Debug("persons detected", "count", len(dets))
	return dets, nil
}

type candidates struct {
	boxes  []image.Rectangle
	scores []float32
}

// decodePersons reads a channel-major YOLOv8 tensor of channels x anchors,
// keeps anchors whose best class is person with a score of at least thresh,
// and scales boxes from the square network input to the frame size. Boxes
// are clamped to the frame and degenerate ones dropped.
func decodePersons(data []float32, channels, anchors, inputSize, frameW, frameH int, thresh float32) candidates {
	var out candidates
	if channels < 5 || len(data) < channels*anchors {
		return out
	}

	sx := float32(frameW) / float32(inputSize)
	sy := float32(frameH) / float32(inputSize)

	for i := 0; i < anchors; i++ {
		bestClass, bestScore := 0, float32(0)
		for c := 4; c < channels; c++ {
			if s := data[c*anchors+i]; s > bestScore {
				bestScore, bestClass = s, c-4
			}
		}
		if bestClass != personClassID || bestScore < thresh {
			continue
		}

		cx := data[0*anchors+i]
		cy := data[1*anchors+i]
		w := data[2*anchors+i]
		h := data[3*anchors+i]

		r := image.Rect(
			int((cx-w/2)*sx), int((cy-h/2)*sy),
			int((cx+w/2)*sx), int((cy+h/2)*sy),
		).Intersect(image.Rect(0, 0, frameW, frameH))
		if r.Empty() {
			continue
		}
		out.boxes = append(out.boxes, r)
		out.scores = append(out.scores, bestScore)
	}
	return out
}

// Close implements Detector.
func (d *YOLODetector) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.net.Close()
}
