package motor

import (
	"fmt"
	"sync"
)

// Mock records every command for tests. Set Err to make commands fail.
type Mock struct {
	mu     sync.Mutex
	calls  []string
	status Status
	closed bool
	Err    error
}

// NewMock returns a stopped mock driver.
func NewMock() *Mock {
	return &Mock{status: Status{Direction: DirStop}}
}

// SetErr sets the error returned by subsequent commands.
func (m *Mock) SetErr(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Err = err
}

func (m *Mock) record(dir Direction, speed int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if dir == DirStop {
		m.calls = append(m.calls, "stop")
	} else {
		m.calls = append(m.calls, fmt.Sprintf("%s(%d)", dir, speed))
	}
	if m.Err != nil {
		return &CommandError{Direction: dir, Err: m.Err}
	}
	m.status = Status{Direction: dir, Speed: ClampSpeed(speed)}
	return nil
}

func (m *Mock) Forward(speed int) error   { return m.record(DirForward, speed) }
func (m *Mock) Backward(speed int) error  { return m.record(DirBackward, speed) }
func (m *Mock) TurnLeft(speed int) error  { return m.record(DirLeft, speed) }
func (m *Mock) TurnRight(speed int) error { return m.record(DirRight, speed) }
func (m *Mock) Stop() error               { return m.record(DirStop, 0) }

func (m *Mock) Status() Status {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.status
}

func (m *Mock) Close() error {
	m.mu.Lock()
	m.closed = true
	m.mu.Unlock()
	return nil
}

// Calls returns the recorded commands, e.g. "forward(50)" or "stop".
func (m *Mock) Calls() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.calls...)
}

// Last returns the most recent command or "".
func (m *Mock) Last() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.calls) == 0 {
		return ""
	}
	return m.calls[len(m.calls)-1]
}

// Closed reports whether Close was called.
func (m *Mock) Closed() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.closed
}

// Reset clears recorded calls.
func (m *Mock) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls = nil
}

var (
	_ Driver = (*L298N)(nil)
	_ Driver = (*Dummy)(nil)
	_ Driver = (*Mock)(nil)
)
