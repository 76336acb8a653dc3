package tracking

import (
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/teslashibe/go-rover/pkg/sensor"
	"github.com/teslashibe/go-rover/pkg/tracking/detection"
)

// mockMotors records every command.
type mockMotors struct {
	mu    sync.Mutex
	calls []string
	err   error
}

func (m *mockMotors) record(call string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls = append(m.calls, call)
	return m.err
}

func (m *mockMotors) Forward(speed int) error   { return m.record(fmt.Sprintf("forward(%d)", speed)) }
func (m *mockMotors) TurnLeft(speed int) error  { return m.record(fmt.Sprintf("left(%d)", speed)) }
func (m *mockMotors) TurnRight(speed int) error { return m.record(fmt.Sprintf("right(%d)", speed)) }
func (m *mockMotors) Stop() error               { return m.record("stop") }

func (m *mockMotors) Calls() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.calls...)
}

func (m *mockMotors) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls = nil
}

var t0 = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

// newEnabled returns an enabled controller whose lost timer started at t0.
func newEnabled(t *testing.T) (*Controller, *mockMotors) {
	t.Helper()
	m := &mockMotors{}
	c := New(DefaultConfig(), m)
	c.SetClock(func() time.Time { return t0 })
	c.Enable()
	return c, m
}

func box(x1, y1, x2, y2 int) detection.Detection {
	return detection.Detection{X1: x1, Y1: y1, X2: x2, Y2: y2, Confidence: 0.8}
}

var safe = sensor.NewDistance(100)

func TestProcess_Disabled(t *testing.T) {
	m := &mockMotors{}
	c := New(DefaultConfig(), m)

	inputs := []struct {
		name string
		dets []detection.Detection
		dist sensor.Distance
	}{
		{"nothing", nil, sensor.Unknown()},
		{"person", []detection.Detection{box(0, 0, 50, 50)}, safe},
		{"obstacle", []detection.Detection{box(0, 0, 50, 50)}, sensor.NewDistance(5)},
	}

	for _, tc := range inputs {
		t.Run(tc.name, func(t *testing.T) {
			r := c.Process(tc.dets, len(tc.dets), tc.dist, t0)
			if r.Status != StateDisabled {
				t.Errorf("Status: got %q, want %q", r.Status, StateDisabled)
			}
		})
	}
	if calls := m.Calls(); len(calls) != 0 {
		t.Errorf("motor calls while disabled: got %v, want none", calls)
	}
}

func TestProcess_EmergencyStop(t *testing.T) {
	for _, cm := range []float64{2, 5, 15, 19.9} {
		for _, dets := range [][]detection.Detection{nil, {box(100, 50, 180, 200)}, {box(0, 0, 30, 30), box(200, 0, 300, 200)}} {
			t.Run(fmt.Sprintf("%vcm_%ddets", cm, len(dets)), func(t *testing.T) {
				c, m := newEnabled(t)
				r := c.Process(dets, len(dets), sensor.NewDistance(cm), t0.Add(100*time.Millisecond))

				if r.Status != StateEmergencyStop {
					t.Errorf("Status: got %q, want %q", r.Status, StateEmergencyStop)
				}
				if r.Reason != ReasonObstacleTooClose {
					t.Errorf("Reason: got %q, want %q", r.Reason, ReasonObstacleTooClose)
				}
				if r.ThresholdCM != 20 {
					t.Errorf("ThresholdCM: got %v, want 20", r.ThresholdCM)
				}
				if r.Distance.CM != cm {
					t.Errorf("Distance: got %v, want %v", r.Distance.CM, cm)
				}
				if calls := m.Calls(); len(calls) != 1 || calls[0] != "stop" {
					t.Errorf("motor calls: got %v, want [stop]", calls)
				}
			})
		}
	}
}

func TestProcess_UnknownDistanceNeverStops(t *testing.T) {
	dists := []sensor.Distance{
		sensor.Unknown(),
		sensor.NewDistance(0),
		sensor.NewDistance(-1),
		sensor.NewDistance(999),
		{CM: 0, Valid: true},
	}
	for _, d := range dists {
		t.Run(d.String(), func(t *testing.T) {
			c, m := newEnabled(t)
			r := c.Process([]detection.Detection{box(140, 0, 180, 100)}, 1, d, t0)
			if r.Status != StateTracking {
				t.Errorf("Status: got %q, want %q", r.Status, StateTracking)
			}
			if calls := m.Calls(); len(calls) != 1 || calls[0] != "forward(50)" {
				t.Errorf("motor calls: got %v, want [forward(50)]", calls)
			}
		})
	}
}

func TestProcess_EmergencyStopAtThresholdDoesNotFire(t *testing.T) {
	c, m := newEnabled(t)
	r := c.Process([]detection.Detection{box(140, 0, 180, 100)}, 1, sensor.NewDistance(20), t0)
	if r.Status != StateTracking {
		t.Errorf("Status: got %q, want %q", r.Status, StateTracking)
	}
	if calls := m.Calls(); calls[0] != "forward(50)" {
		t.Errorf("motor calls: got %v, want [forward(50)]", calls)
	}
}

func TestProcess_TemporaryLoss(t *testing.T) {
	c, m := newEnabled(t)

	r := c.Process(nil, 0, safe, t0.Add(1999*time.Millisecond))
	if r.Status != StateSearching {
		t.Errorf("Status: got %q, want %q", r.Status, StateSearching)
	}
	if r.Reason != ReasonTemporaryLoss {
		t.Errorf("Reason: got %q, want %q", r.Reason, ReasonTemporaryLoss)
	}
	if calls := m.Calls(); len(calls) != 0 {
		t.Errorf("motor calls while searching: got %v, want none", calls)
	}
}

func TestProcess_StaleHumanCountIgnored(t *testing.T) {
	c, m := newEnabled(t)

	r := c.Process(nil, 3, safe, t0.Add(500*time.Millisecond))
	if r.Status != StateSearching {
		t.Errorf("Status: got %q, want %q", r.Status, StateSearching)
	}
	if r.Humans != 3 {
		t.Errorf("Humans: got %d, want 3", r.Humans)
	}
	if calls := m.Calls(); len(calls) != 0 {
		t.Errorf("motor calls: got %v, want none", calls)
	}
}

func TestProcess_PersonLost(t *testing.T) {
	for _, elapsed := range []time.Duration{2 * time.Second, 2001 * time.Millisecond, time.Minute} {
		t.Run(elapsed.String(), func(t *testing.T) {
			c, m := newEnabled(t)
			c.Process([]detection.Detection{box(140, 0, 180, 100)}, 1, safe, t0)
			m.Reset()

			r := c.Process(nil, 0, safe, t0.Add(elapsed))
			if r.Status != StateStopped {
				t.Errorf("Status: got %q, want %q", r.Status, StateStopped)
			}
			if r.Reason != ReasonNoPerson {
				t.Errorf("Reason: got %q, want %q", r.Reason, ReasonNoPerson)
			}
			if r.Locked {
				t.Error("Locked: got true, want false after losing the person")
			}
			if calls := m.Calls(); len(calls) != 1 || calls[0] != "stop" {
				t.Errorf("motor calls: got %v, want [stop]", calls)
			}
			if st := c.Status(); st.TargetLocked || st.Target != nil {
				t.Errorf("Status: lock should be cleared, got %+v", st)
			}
		})
	}
}

func TestProcess_Steering(t *testing.T) {
	tests := []struct {
		name       string
		det        detection.Detection
		wantAction Action
		wantCall   string
		wantOffset float64
	}{
		{"scenario centered", box(100, 50, 180, 200), ActionForward, "forward(50)", -20},
		{"exactly at threshold left", box(100, 0, 140, 100), ActionForward, "forward(50)", -40},
		{"exactly at threshold right", box(180, 0, 220, 100), ActionForward, "forward(50)", 40},
		{"just past threshold left", box(99, 0, 140, 100), ActionTurnLeft, "left(55)", -40.5},
		{"far left", box(0, 0, 40, 100), ActionTurnLeft, "left(55)", -140},
		{"far right", box(260, 0, 320, 100), ActionTurnRight, "right(55)", 130},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			c, m := newEnabled(t)
			r := c.Process([]detection.Detection{tc.det}, 1, safe, t0)

			if r.Status != StateTracking {
				t.Errorf("Status: got %q, want %q", r.Status, StateTracking)
			}
			if r.Action != tc.wantAction {
				t.Errorf("Action: got %q, want %q", r.Action, tc.wantAction)
			}
			if r.Offset != tc.wantOffset {
				t.Errorf("Offset: got %v, want %v", r.Offset, tc.wantOffset)
			}
			if r.TargetCenter != tc.det.CenterX() {
				t.Errorf("TargetCenter: got %v, want %v", r.TargetCenter, tc.det.CenterX())
			}
			if !r.Locked {
				t.Error("Locked: got false, want true")
			}
			if calls := m.Calls(); len(calls) != 1 || calls[0] != tc.wantCall {
				t.Errorf("motor calls: got %v, want [%s]", calls, tc.wantCall)
			}
		})
	}
}

func TestProcess_SelectsLargest(t *testing.T) {
	c, m := newEnabled(t)
	dets := []detection.Detection{
		box(0, 0, 20, 20),     // small, far left
		box(250, 0, 310, 200), // largest, right
		box(150, 0, 170, 50),  // centered but small
	}

	r := c.Process(dets, len(dets), safe, t0)
	if r.TargetCenter != 280 {
		t.Errorf("TargetCenter: got %v, want 280", r.TargetCenter)
	}
	if calls := m.Calls(); calls[0] != "right(55)" {
		t.Errorf("motor calls: got %v, want [right(55)]", calls)
	}
}

func TestProcess_TargetPersistence(t *testing.T) {
	c, m := newEnabled(t)

	// Frame 1 locks the only person, on the left.
	left := box(0, 0, 60, 100)
	c.Process([]detection.Detection{left}, 1, safe, t0)

	// Frames 2-4 show a larger centered person but the lock holds.
	bigger := box(100, 0, 220, 240)
	for frame := 2; frame <= 4; frame++ {
		r := c.Process([]detection.Detection{bigger}, 1, safe, t0.Add(time.Duration(frame)*100*time.Millisecond))
		if r.TargetCenter != left.CenterX() {
			t.Fatalf("frame %d TargetCenter: got %v, want stale %v", frame, r.TargetCenter, left.CenterX())
		}
		if r.Action != ActionTurnLeft {
			t.Errorf("frame %d Action: got %q, want %q", frame, r.Action, ActionTurnLeft)
		}
	}

	// Frame 5 is a reselection frame.
	r := c.Process([]detection.Detection{bigger}, 1, safe, t0.Add(500*time.Millisecond))
	if r.TargetCenter != bigger.CenterX() {
		t.Errorf("frame 5 TargetCenter: got %v, want %v", r.TargetCenter, bigger.CenterX())
	}
	if r.Action != ActionForward {
		t.Errorf("frame 5 Action: got %q, want %q", r.Action, ActionForward)
	}

	want := []string{"left(55)", "left(55)", "left(55)", "left(55)", "forward(50)"}
	if calls := m.Calls(); fmt.Sprint(calls) != fmt.Sprint(want) {
		t.Errorf("motor calls: got %v, want %v", calls, want)
	}
}

func TestProcess_FrameCountOnlyOnDetections(t *testing.T) {
	c, _ := newEnabled(t)
	c.Process([]detection.Detection{box(0, 0, 10, 10)}, 1, safe, t0)
	c.Process(nil, 0, safe, t0)
	c.Process(nil, 0, sensor.NewDistance(5), t0)
	c.Process([]detection.Detection{box(0, 0, 10, 10)}, 1, safe, t0)

	if got := c.Status().FrameCount; got != 2 {
		t.Errorf("FrameCount: got %d, want 2", got)
	}
}

func TestProcess_EmergencyDoesNotResetLostTimer(t *testing.T) {
	c, m := newEnabled(t)
	c.Process([]detection.Detection{box(140, 0, 180, 100)}, 1, safe, t0)

	// Obstacle frames with a person still in view do not count as detections.
	c.Process([]detection.Detection{box(140, 0, 180, 100)}, 1, sensor.NewDistance(10), t0.Add(time.Second))
	m.Reset()

	r := c.Process(nil, 0, safe, t0.Add(2*time.Second))
	if r.Status != StateStopped {
		t.Errorf("Status: got %q, want %q", r.Status, StateStopped)
	}
}

func TestProcess_CommandFailure(t *testing.T) {
	c, m := newEnabled(t)
	m.err = errors.New("pwm write failed")

	r := c.Process([]detection.Detection{box(0, 0, 40, 100)}, 1, safe, t0)
	if r.Status != StateCommandFailed {
		t.Errorf("Status: got %q, want %q", r.Status, StateCommandFailed)
	}
	if r.Action != ActionTurnLeft {
		t.Errorf("Action: got %q, want %q", r.Action, ActionTurnLeft)
	}
	if r.Error != "pwm write failed" {
		t.Errorf("Error: got %q, want %q", r.Error, "pwm write failed")
	}

	// The next frame proceeds normally.
	m.err = nil
	r = c.Process([]detection.Detection{box(0, 0, 40, 100)}, 1, safe, t0.Add(100*time.Millisecond))
	if r.Status != StateTracking {
		t.Errorf("Status after recovery: got %q, want %q", r.Status, StateTracking)
	}
}

func TestProcess_EmergencyStopFailure(t *testing.T) {
	c, m := newEnabled(t)
	m.err = errors.New("gpio busy")

	r := c.Process(nil, 0, sensor.NewDistance(10), t0)
	if r.Status != StateEmergencyStop {
		t.Errorf("Status: got %q, want %q", r.Status, StateEmergencyStop)
	}
	if !r.CommandFailed || r.Error != "gpio busy" {
		t.Errorf("CommandFailed/Error: got %v %q, want true %q", r.CommandFailed, r.Error, "gpio busy")
	}
	if r.Reason != ReasonObstacleTooClose || r.Action != ActionStop {
		t.Errorf("Result: got reason %q action %q, want %q %q", r.Reason, r.Action, ReasonObstacleTooClose, ActionStop)
	}
	if got, want := r.Summary(), "EMERGENCY_STOP stop (obstacle_too_close) [command_failed]"; got != want {
		t.Errorf("Summary: got %q, want %q", got, want)
	}
}

func TestProcess_InconsistentLockReselects(t *testing.T) {
	c, m := newEnabled(t)
	c.mu.Lock()
	c.targetLocked = true
	c.lastTarget = nil
	c.mu.Unlock()

	r := c.Process([]detection.Detection{box(260, 0, 320, 100)}, 1, safe, t0)
	if r.Status != StateTracking || r.TargetCenter != 290 {
		t.Errorf("Result: got %+v, want tracking at 290", r)
	}
	if calls := m.Calls(); calls[0] != "right(55)" {
		t.Errorf("motor calls: got %v, want [right(55)]", calls)
	}
}

func TestEnable_ResetsState(t *testing.T) {
	c, _ := newEnabled(t)
	for i := 0; i < 3; i++ {
		c.Process([]detection.Detection{box(0, 0, 10, 10)}, 1, safe, t0)
	}

	later := t0.Add(time.Hour)
	c.SetClock(func() time.Time { return later })
	c.Enable()

	st := c.Status()
	if !st.Enabled {
		t.Error("Enabled: got false, want true")
	}
	if st.FrameCount != 0 {
		t.Errorf("FrameCount: got %d, want 0", st.FrameCount)
	}
	if st.TargetLocked || st.Target != nil {
		t.Errorf("lock should be cleared on Enable, got %+v", st)
	}
	if st.SinceLastSeen == nil || *st.SinceLastSeen != 0 {
		t.Errorf("SinceLastSeen: got %v, want 0", st.SinceLastSeen)
	}

	// The lost timer restarts at Enable.
	r := c.Process(nil, 0, safe, later.Add(time.Second))
	if r.Status != StateSearching {
		t.Errorf("Status: got %q, want %q", r.Status, StateSearching)
	}
}

func TestDisable(t *testing.T) {
	c, m := newEnabled(t)
	c.Process([]detection.Detection{box(0, 0, 10, 10)}, 1, safe, t0)
	m.Reset()

	if err := c.Disable(); err != nil {
		t.Fatalf("Disable: %v", err)
	}
	if c.Enabled() {
		t.Error("Enabled: got true after Disable")
	}
	if calls := m.Calls(); len(calls) != 1 || calls[0] != "stop" {
		t.Errorf("motor calls: got %v, want [stop]", calls)
	}
	if st := c.Status(); st.TargetLocked || st.Target != nil {
		t.Errorf("lock should be cleared on Disable, got %+v", st)
	}

	r := c.Process([]detection.Detection{box(0, 0, 10, 10)}, 1, safe, t0)
	if r.Status != StateDisabled {
		t.Errorf("Status: got %q, want %q", r.Status, StateDisabled)
	}
	if calls := m.Calls(); len(calls) != 1 {
		t.Errorf("motor calls after Disable: got %v, want only the stop", calls)
	}
}

func TestDisable_StopError(t *testing.T) {
	c, m := newEnabled(t)
	m.err = errors.New("driver closed")

	if err := c.Disable(); err == nil {
		t.Error("Disable: expected error, got nil")
	}
	if c.Enabled() {
		t.Error("Enabled: got true, want false even when stop fails")
	}
}

func TestDisable_ConcurrentWithProcess(t *testing.T) {
	c, m := newEnabled(t)
	dets := []detection.Detection{box(0, 0, 40, 100)}

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		for i := 0; i < 1000; i++ {
			c.Process(dets, 1, safe, t0)
		}
	}()

	time.Sleep(time.Millisecond)
	if err := c.Disable(); err != nil {
		t.Fatalf("Disable: %v", err)
	}
	n := len(m.Calls())
	wg.Wait()

	calls := m.Calls()
	if len(calls) != n {
		t.Fatalf("commands after Disable returned: got %v", calls[n:])
	}
	if calls[n-1] != "stop" {
		t.Errorf("last command: got %q, want stop", calls[n-1])
	}
}

func TestStatus_LastResult(t *testing.T) {
	c, _ := newEnabled(t)
	c.Process([]detection.Detection{box(100, 50, 180, 200)}, 1, safe, t0)

	st := c.Status()
	if st.Last.Status != StateTracking || st.Last.Action != ActionForward {
		t.Errorf("Last: got %+v, want tracking/forward", st.Last)
	}
	if st.Target == nil || *st.Target != box(100, 50, 180, 200) {
		t.Errorf("Target: got %v, want the locked box", st.Target)
	}
}

func TestResultSummary(t *testing.T) {
	tests := []struct {
		r    Result
		want string
	}{
		{Result{Status: StateDisabled}, "disabled"},
		{Result{Status: StateTracking, Action: ActionTurnLeft}, "tracking turn_left"},
		{Result{Status: StateSearching, Reason: ReasonTemporaryLoss}, "searching (temporary_loss)"},
		{Result{Status: StateEmergencyStop, Action: ActionStop, Reason: ReasonObstacleTooClose}, "EMERGENCY_STOP stop (obstacle_too_close)"},
	}
	for _, tt := range tests {
		if got := tt.r.Summary(); got != tt.want {
			t.Errorf("Summary: got %q, want %q", got, tt.want)
		}
	}
}
