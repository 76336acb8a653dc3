// Package telemetry records sensor readings for later export.
//
// A Logger keeps the most recent entries in memory for CSV export and
// summary statistics. Entries can also be forwarded to a Sink such as the
// SQLite Store for long-term archiving.
package telemetry

import (
	"errors"
	"sync"
	"time"

	"github.com/teslashibe/go-rover/internal/log"
	"github.com/teslashibe/go-rover/pkg/sensor"
)

// DefaultMaxEntries is the ring buffer capacity used when none is given.
const DefaultMaxEntries = 1000

// ErrNoData is returned by exports when nothing has been logged yet.
var ErrNoData = errors.New("telemetry: no data logged yet")

// Entry is one logged reading.
type Entry struct {
	Time    time.Time      `json:"time"`
	Reading sensor.Reading `json:"reading"`
}

// Sink receives every entry accepted by a Logger.
type Sink interface {
	Insert(e Entry) error
}

// Logger is a bounded in-memory telemetry log.
type Logger struct {
	mu      sync.RWMutex
	buf     []Entry
	head    int // index of the oldest entry once the buffer is full
	max     int
	enabled bool
	sink    Sink
	now     func() time.Time
}

// NewLogger creates an enabled logger holding at most max entries.
func NewLogger(max int) *Logger {
	if max <= 0 {
		max = DefaultMaxEntries
	}
	return &Logger{
		buf:     make([]Entry, 0, max),
		max:     max,
		enabled: true,
		now:     time.Now,
	}
}

// SetSink forwards future entries to s. Pass nil to detach.
func (l *Logger) SetSink(s Sink) {
	l.mu.Lock()
	l.sink = s
	l.mu.Unlock()
}

// Enable resumes logging.
func (l *Logger) Enable() {
	l.mu.Lock()
	l.enabled = true
	l.mu.Unlock()
	log.Info("telemetry logging enabled")
}

// Disable pauses logging. Existing entries are kept.
func (l *Logger) Disable() {
	l.mu.Lock()
	l.enabled = false
	l.mu.Unlock()
	log.Info("telemetry logging disabled")
}

// Enabled reports whether Log records anything.
func (l *Logger) Enabled() bool {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.enabled
}

// Log appends r. The reading's timestamp is used when set, the current time
// otherwise. It returns false when logging is disabled.
func (l *Logger) Log(r sensor.Reading) bool {
	l.mu.Lock()
	if !l.enabled {
		l.mu.Unlock()
		return false
	}
	ts := r.Timestamp
	if ts.IsZero() {
		ts = l.now()
	}
	e := Entry{Time: ts, Reading: r}
	if len(l.buf) < l.max {
		l.buf = append(l.buf, e)
	} else {
		l.buf[l.head] = e
		l.head = (l.head + 1) % l.max
	}
	sink := l.sink
	l.mu.Unlock()

	if sink != nil {
		if err := sink.Insert(e); err != nil {
			log.Warn("telemetry sink insert failed", "error", err)
		}
	}
	return true
}

// Len returns the number of buffered entries.
func (l *Logger) Len() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.buf)
}

// Entries returns a copy of the buffered entries, oldest first.
func (l *Logger) Entries() []Entry {
	l.mu.RLock()
	defer l.mu.RUnlock()
	out := make([]Entry, 0, len(l.buf))
	out = append(out, l.buf[l.head:]...)
	out = append(out, l.buf[:l.head]...)
	return out
}

// Clear drops all buffered entries. The sink is not touched.
func (l *Logger) Clear() {
	l.mu.Lock()
	l.buf = l.buf[:0]
	l.head = 0
	l.mu.Unlock()
	log.Info("telemetry log cleared")
}
