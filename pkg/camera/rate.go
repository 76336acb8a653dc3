package camera

import (
	"sync"
	"time"
)

// FPSMeter reports the instantaneous frame rate between consecutive ticks.
type FPSMeter struct {
	mu   sync.Mutex
	last time.Time
	fps  float64
}

// Tick records a frame at now and returns the current rate.
func (m *FPSMeter) Tick(now time.Time) float64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.last.IsZero() {
		if dt := now.Sub(m.last); dt > 0 {
			m.fps = 1 / dt.Seconds()
		}
	}
	m.last = now
	return m.fps
}

// FPS returns the last measured rate.
func (m *FPSMeter) FPS() float64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.fps
}

// Throttle admits at most limit events per second.
type Throttle struct {
	mu       sync.Mutex
	interval time.Duration
	next     time.Time
}

// NewThrottle returns a throttle for limit events per second. A limit of
// zero or less admits everything.
func NewThrottle(limit int) *Throttle {
	t := &Throttle{}
	t.SetLimit(limit)
	return t
}

// SetLimit changes the rate.
func (t *Throttle) SetLimit(limit int) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if limit <= 0 {
		t.interval = 0
		return
	}
	t.interval = time.Second / time.Duration(limit)
}

// Allow reports whether an event at now may pass.
func (t *Throttle) Allow(now time.Time) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	if now.Before(t.next) {
		return false
	}
	t.next = now.Add(t.interval)
	return true
}
