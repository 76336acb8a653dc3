package sensor

import (
	"encoding/json"
	"fmt"
	"math"
)

// HC-SR04 measurable range. Anything outside is reported as no echo.
const (
	MinRangeCM = 2.0
	MaxRangeCM = 400.0
)

// Distance is an optional ranging measurement in centimeters.
// The zero value is an unknown reading.
type Distance struct {
	CM    float64
	Valid bool
}

// NewDistance validates a raw measurement. Non-finite values and values
// outside [MinRangeCM, MaxRangeCM] produce an unknown Distance.
func NewDistance(cm float64) Distance {
	if math.IsNaN(cm) || math.IsInf(cm, 0) || cm < MinRangeCM || cm > MaxRangeCM {
		return Distance{}
	}
	return Distance{CM: cm, Valid: true}
}

// Unknown returns a reading with no usable value.
func Unknown() Distance {
	return Distance{}
}

// Known reports whether the reading can be used for decisions.
// A hand-built Distance with Valid set but a non-positive or out-of-range
// value is still treated as unknown.
func (d Distance) Known() bool {
	return d.Valid && d.CM > 0 && d.CM <= MaxRangeCM
}

// String renders the reading for overlays and logs.
func (d Distance) String() string {
	if !d.Known() {
		return "-- cm"
	}
	return fmt.Sprintf("%.1f cm", d.CM)
}

// MarshalJSON encodes a known reading as a number and an unknown one as null.
func (d Distance) MarshalJSON() ([]byte, error) {
	if !d.Known() {
		return []byte("null"), nil
	}
	return json.Marshal(math.Round(d.CM*10) / 10)
}

// UnmarshalJSON accepts a number or null.
func (d *Distance) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		*d = Distance{}
		return nil
	}
	var cm float64
	if err := json.Unmarshal(data, &cm); err != nil {
		return err
	}
	*d = NewDistance(cm)
	return nil
}
