package camera

import (
	"errors"
	"fmt"

	"gocv.io/x/gocv"
)

// EncodeJPEG compresses img at the given quality (1-100).
func EncodeJPEG(img gocv.Mat, quality int) ([]byte, error) {
	if img.Empty() {
		return nil, errors.New("camera: empty frame")
	}
	buf, err := gocv.IMEncodeWithParams(gocv.JPEGFileExt, img, []int{int(gocv.IMWriteJpegQuality), quality})
	if err != nil {
		return nil, fmt.Errorf("encode jpeg: %w", err)
	}
	defer buf.Close()

	// The native buffer is freed on Close.
	out := make([]byte, buf.Len())
	copy(out, buf.GetBytes())
	return out, nil
}
