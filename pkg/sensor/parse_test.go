package sensor

import (
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLine(t *testing.T) {
	tests := []struct {
		name     string
		line     string
		gas      float64
		temp     float64
		distance Distance
		accel    [3]float64
		gyro     [3]float64
	}{
		{
			name:     "json",
			line:     `{"gas":450,"temp":25.5,"dist":10.2}`,
			gas:      450,
			temp:     25.5,
			distance: Distance{CM: 10.2, Valid: true},
		},
		{
			name:     "json with imu",
			line:     `{"gas":410,"temp":22,"dist":35,"ax":0.1,"ay":-0.2,"az":9.8}`,
			gas:      410,
			temp:     22,
			distance: Distance{CM: 35, Valid: true},
			accel:    [3]float64{0.1, -0.2, 9.8},
		},
		{
			name:     "json missing distance is unknown",
			line:     `{"gas":300,"temp":21}`,
			gas:      300,
			temp:     21,
			distance: Distance{},
		},
		{
			name:     "csv",
			line:     "450,25.5,10.2",
			gas:      450,
			temp:     25.5,
			distance: Distance{CM: 10.2, Valid: true},
		},
		{
			name:     "csv with padding and newline",
			line:     " 420 , 24.0 , 999\r\n",
			gas:      420,
			temp:     24,
			distance: Distance{},
		},
		{
			name:     "csv with imu",
			line:     "400,23,50,0,0,9.81,1,2,3",
			gas:      400,
			temp:     23,
			distance: Distance{CM: 50, Valid: true},
			accel:    [3]float64{0, 0, 9.81},
			gyro:     [3]float64{1, 2, 3},
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			r, err := ParseLine(tc.line)
			require.NoError(t, err)

			want := Reading{
				Gas:         tc.gas,
				Temperature: tc.temp,
				Distance:    tc.distance,
				Accel:       tc.accel,
				Gyro:        tc.gyro,
			}
			if diff := cmp.Diff(want, r); diff != "" {
				t.Errorf("ParseLine(%q) mismatch (-want +got):\n%s", tc.line, diff)
			}
		})
	}
}

func TestParseLine_Invalid(t *testing.T) {
	for _, line := range []string{
		"",
		"hello",
		"1,2",
		"1,2,x",
		`{"gas":`,
	} {
		t.Run(line, func(t *testing.T) {
			_, err := ParseLine(line)
			require.Error(t, err)

			var pe *ParseError
			assert.True(t, errors.As(err, &pe), "error should be a *ParseError")
		})
	}
}
