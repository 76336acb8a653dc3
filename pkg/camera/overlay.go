package camera

import (
	"fmt"
	"image"
	"image/color"
	"strings"

	"gocv.io/x/gocv"

	"github.com/teslashibe/go-rover/pkg/sensor"
	"github.com/teslashibe/go-rover/pkg/tracking/detection"
)

// Overlay colors (RGBA; gocv converts to BGR).
var (
	colorGreen  = color.RGBA{0, 255, 0, 255}
	colorBlack  = color.RGBA{0, 0, 0, 255}
	colorWhite  = color.RGBA{255, 255, 255, 255}
	colorCyan   = color.RGBA{0, 255, 255, 255}
	colorYellow = color.RGBA{255, 255, 0, 255}
)

const font = gocv.FontHersheySimplex

// Overlay is everything drawn on top of a frame.
type Overlay struct {
	Detections []detection.Detection
	Humans     int
	Distance   sensor.Distance
	FPS        float64
	Mode       string
	Tracking   string // One-line tracking status, empty when idle
}

// BoxLabel is the text drawn above a person box.
func BoxLabel(d detection.Detection) string {
	return fmt.Sprintf("Person %.2f", d.Confidence)
}

// CountText is the top-left label.
func (o Overlay) CountText() string {
	return fmt.Sprintf("Humans: %d", o.Humans)
}

// DistanceText is the top-right label.
func (o Overlay) DistanceText() string {
	return "Distance: " + o.Distance.String()
}

// FPSText is the bottom-left label, empty before the first measurement.
func (o Overlay) FPSText() string {
	if o.FPS <= 0 {
		return ""
	}
	return fmt.Sprintf("FPS: %.1f", o.FPS)
}

// ModeText is the mode indicator.
func (o Overlay) ModeText() string {
	if o.Mode == "" {
		return ""
	}
	return "Mode: " + strings.ToUpper(o.Mode)
}

// Draw renders the overlay onto img in place.
func (o Overlay) Draw(img *gocv.Mat) {
	w, h := img.Cols(), img.Rows()

	for _, d := range o.Detections {
		gocv.Rectangle(img, image.Rect(d.X1, d.Y1, d.X2, d.Y2), colorGreen, 2)
		label := BoxLabel(d)
		size := gocv.GetTextSize(label, font, 0.5, 2)
		bg := image.Rect(d.X1, d.Y1-size.Y-10, d.X1+size.X, d.Y1)
		gocv.Rectangle(img, bg, colorGreen, -1)
		gocv.PutText(img, label, image.Pt(d.X1, d.Y1-5), font, 0.5, colorBlack, 2)
	}

	count := o.CountText()
	shade(img, image.Rect(5, 5, 5+gocv.GetTextSize(count, font, 0.6, 2).X+10, 30))
	gocv.PutText(img, count, image.Pt(10, 24), font, 0.6, colorGreen, 2)

	dist := o.DistanceText()
	size := gocv.GetTextSize(dist, font, 0.5, 1)
	shade(img, image.Rect(w-size.X-15, 5, w-5, 30))
	gocv.PutText(img, dist, image.Pt(w-size.X-10, 23), font, 0.5, colorYellow, 1)

	if t := o.Tracking; t != "" {
		gocv.PutText(img, t, image.Pt(10, 48), font, 0.45, colorWhite, 1)
	}
	if fps := o.FPSText(); fps != "" {
		gocv.PutText(img, fps, image.Pt(10, h-30), font, 0.5, colorWhite, 1)
	}
	if mode := o.ModeText(); mode != "" {
		gocv.PutText(img, mode, image.Pt(10, h-10), font, 0.5, colorCyan, 1)
	}
}

// shade darkens r to 40% so text stays readable.
func shade(img *gocv.Mat, r image.Rectangle) {
	r = r.Intersect(image.Rect(0, 0, img.Cols(), img.Rows()))
	if r.Empty() {
		return
	}
	roi := img.Region(r)
	defer roi.Close()

	black := gocv.NewMatWithSizeFromScalar(gocv.NewScalar(0, 0, 0, 0), roi.Rows(), roi.Cols(), roi.Type())
	defer black.Close()
	gocv.AddWeighted(black, 0.6, roi, 0.4, 0, &roi)
}
