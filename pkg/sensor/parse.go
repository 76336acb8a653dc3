package sensor

import (
	"encoding/json"
	"errors"
	"strconv"
	"strings"
)

var errFieldCount = errors.New("expected 3 or 9 comma-separated values")

// arduinoJSON is the sketch's JSON line format. The IMU fields are only sent
// by boards with an MPU6050 attached.
type arduinoJSON struct {
	Gas  float64 `json:"gas"`
	Temp float64 `json:"temp"`
	Dist float64 `json:"dist"`
	AX   float64 `json:"ax"`
	AY   float64 `json:"ay"`
	AZ   float64 `json:"az"`
	GX   float64 `json:"gx"`
	GY   float64 `json:"gy"`
	GZ   float64 `json:"gz"`
}

// ParseLine decodes one telemetry line from the Arduino.
//
// Two formats are accepted:
//
//	{"gas":450,"temp":25.5,"dist":10.2}
//	450,25.5,10.2[,ax,ay,az,gx,gy,gz]
//
// The returned Reading has no Timestamp or Source; the caller sets them.
func ParseLine(line string) (Reading, error) {
	line = strings.TrimSpace(line)
	if line == "" {
		return Reading{}, &ParseError{Line: line, Err: errors.New("empty line")}
	}

	if strings.HasPrefix(line, "{") {
		var raw arduinoJSON
		if err := json.Unmarshal([]byte(line), &raw); err != nil {
			return Reading{}, &ParseError{Line: line, Err: err}
		}
		return Reading{
			Gas:         raw.Gas,
			Temperature: raw.Temp,
			Distance:    NewDistance(raw.Dist),
			Accel:       [3]float64{raw.AX, raw.AY, raw.AZ},
			Gyro:        [3]float64{raw.GX, raw.GY, raw.GZ},
		}, nil
	}

	parts := strings.Split(line, ",")
	if len(parts) != 3 && len(parts) != 9 {
		return Reading{}, &ParseError{Line: line, Err: errFieldCount}
	}
	vals := make([]float64, len(parts))
	for i, p := range parts {
		v, err := strconv.ParseFloat(strings.TrimSpace(p), 64)
		if err != nil {
			return Reading{}, &ParseError{Line: line, Err: err}
		}
		vals[i] = v
	}

	r := Reading{
		Gas:         vals[0],
		Temperature: vals[1],
		Distance:    NewDistance(vals[2]),
	}
	if len(vals) == 9 {
		r.Accel = [3]float64{vals[3], vals[4], vals[5]}
		r.Gyro = [3]float64{vals[6], vals[7], vals[8]}
	}
	return r, nil
}
