package sensor

import (
	"encoding/json"
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewDistance(t *testing.T) {
	tests := []struct {
		cm    float64
		known bool
	}{
		{-1, false},
		{0, false},
		{1.9, false},
		{2, true},
		{15, true},
		{400, true},
		{400.1, false},
		{math.NaN(), false},
		{math.Inf(1), false},
	}

	for _, tc := range tests {
		d := NewDistance(tc.cm)
		assert.Equal(t, tc.known, d.Known(), "NewDistance(%v)", tc.cm)
	}
}

func TestDistance_KnownGuardsHandBuiltValues(t *testing.T) {
	assert.False(t, Distance{CM: 0, Valid: true}.Known())
	assert.False(t, Distance{CM: -3, Valid: true}.Known())
	assert.False(t, Distance{CM: 15}.Known())
	assert.True(t, Distance{CM: 15, Valid: true}.Known())
}

func TestDistance_String(t *testing.T) {
	assert.Equal(t, "-- cm", Unknown().String())
	assert.Equal(t, "42.5 cm", NewDistance(42.5).String())
}

func TestDistance_JSON(t *testing.T) {
	data, err := json.Marshal(struct {
		A Distance `json:"a"`
		B Distance `json:"b"`
	}{A: NewDistance(12.34), B: Unknown()})
	require.NoError(t, err)
	assert.JSONEq(t, `{"a":12.3,"b":null}`, string(data))

	var back struct {
		A Distance `json:"a"`
		B Distance `json:"b"`
	}
	require.NoError(t, json.Unmarshal(data, &back))
	assert.True(t, back.A.Known())
	assert.False(t, back.B.Known())
}

func TestPulseToDistance(t *testing.T) {
	// 1ms round trip ≈ 17.15 cm
	d := PulseToDistance(time.Millisecond)
	require.True(t, d.Known())
	assert.InDelta(t, 17.15, d.CM, 0.01)

	// Too short to be a real echo
	assert.False(t, PulseToDistance(50*time.Microsecond).Known())

	// Beyond 400 cm
	assert.False(t, PulseToDistance(30*time.Millisecond).Known())
}

func TestLatest(t *testing.T) {
	var l Latest[Reading]

	_, ok := l.Load()
	assert.False(t, ok, "empty cell should report no value")

	l.Store(Reading{Gas: 1})
	l.Store(Reading{Gas: 2})

	r, ok := l.Load()
	require.True(t, ok)
	assert.Equal(t, 2.0, r.Gas, "only the newest value is kept")
}
