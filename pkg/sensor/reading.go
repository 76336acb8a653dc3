package sensor

import (
	"context"
	"sync/atomic"
	"time"
)

// Reading is one telemetry sample. Fields a source does not measure stay zero.
type Reading struct {
	Gas         float64    `json:"gas"`
	Temperature float64    `json:"temperature"`
	Distance    Distance   `json:"distance"`
	Accel       [3]float64 `json:"accel"` // m/s²
	Gyro        [3]float64 `json:"gyro"`  // °/s
	Timestamp   time.Time  `json:"timestamp"`
	Source      string     `json:"source"`
}

// Latest is a single-slot cell holding the newest value published by a
// poller. Store never blocks and older values are simply replaced.
type Latest[T any] struct {
	v atomic.Pointer[T]
}

// Store publishes v.
func (l *Latest[T]) Store(v T) {
	l.v.Store(&v)
}

// Load returns the newest value and whether anything was stored yet.
func (l *Latest[T]) Load() (T, bool) {
	p := l.v.Load()
	if p == nil {
		var zero T
		return zero, false
	}
	return *p, true
}

// Source is a running telemetry producer.
type Source interface {
	// Name identifies the source in logs and status output.
	Name() string

	// Start launches the background polling loop. It returns once the loop
	// is running; the loop stops when ctx is cancelled or Close is called.
	Start(ctx context.Context) error

	// Latest returns the newest reading. Before the first sample arrives it
	// returns a zero Reading with an unknown distance.
	Latest() Reading

	// Close stops polling and releases the hardware.
	Close() error
}
