package camera

import (
	"testing"

	"gocv.io/x/gocv"

	"github.com/teslashibe/go-rover/pkg/sensor"
	"github.com/teslashibe/go-rover/pkg/tracking/detection"
)

func TestOverlay_Text(t *testing.T) {
	o := Overlay{Humans: 2, Distance: sensor.NewDistance(42.26), FPS: 11.96, Mode: "auto"}

	tests := []struct {
		name string
		got  string
		want string
	}{
		{"count", o.CountText(), "Humans: 2"},
		{"distance", o.DistanceText(), "Distance: 42.3 cm"},
		{"fps", o.FPSText(), "FPS: 12.0"},
		{"mode", o.ModeText(), "Mode: AUTO"},
		{"box", BoxLabel(detection.Detection{Confidence: 0.871}), "Person 0.87"},
	}
	for _, tc := range tests {
		if tc.got != tc.want {
			t.Errorf("%s: got %q, want %q", tc.name, tc.got, tc.want)
		}
	}
}

func TestOverlay_UnknownDistance(t *testing.T) {
	o := Overlay{Distance: sensor.Unknown()}
	if got := o.DistanceText(); got != "Distance: -- cm" {
		t.Errorf("DistanceText: got %q, want %q", got, "Distance: -- cm")
	}
	if got := o.FPSText(); got != "" {
		t.Errorf("FPSText: got %q, want empty before first frame", got)
	}
}

func TestOverlay_DrawAndEncode(t *testing.T) {
	img := gocv.NewMatWithSize(240, 320, gocv.MatTypeCV8UC3)
	defer img.Close()

	o := Overlay{
		Detections: []detection.Detection{{X1: 100, Y1: 50, X2: 180, Y2: 200, Confidence: 0.9}},
		Humans:     1,
		Distance:   sensor.NewDistance(30),
		FPS:        10,
		Mode:       "manual",
		Tracking:   "tracking: forward",
	}
	o.Draw(&img)

	jpeg, err := EncodeJPEG(img, 60)
	if err != nil {
		t.Fatalf("EncodeJPEG: %v", err)
	}
	if len(jpeg) < 4 || jpeg[0] != 0xFF || jpeg[1] != 0xD8 {
		t.Fatalf("EncodeJPEG: output is not a JPEG (%d bytes)", len(jpeg))
	}

	decoded, err := gocv.IMDecode(jpeg, gocv.IMReadColor)
	if err != nil {
		t.Fatalf("IMDecode: %v", err)
	}
	defer decoded.Close()
	if decoded.Cols() != 320 || decoded.Rows() != 240 {
		t.Errorf("decoded size: got %dx%d, want 320x240", decoded.Cols(), decoded.Rows())
	}
}

func TestEncodeJPEG_Empty(t *testing.T) {
	img := gocv.NewMat()
	defer img.Close()
	if _, err := EncodeJPEG(img, 60); err == nil {
		t.Error("EncodeJPEG: expected error for empty frame")
	}
}
