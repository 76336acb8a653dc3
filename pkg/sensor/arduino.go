package sensor

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/teslashibe/go-rover/internal/log"
)

// ArduinoConfig holds serial link settings.
type ArduinoConfig struct {
	Port       string        // Device path or AutoPort
	BaudRate   int           // Must match Serial.begin() in the sketch
	ResetDelay time.Duration // Opening the port resets the board; wait this long
}

// DefaultArduinoConfig returns the settings used by the stock sketch.
func DefaultArduinoConfig() ArduinoConfig {
	return ArduinoConfig{
		Port:       AutoPort,
		BaudRate:   9600,
		ResetDelay: 2 * time.Second,
	}
}

// Arduino reads telemetry lines from a serial port.
type Arduino struct {
	port SerialPorter
	path string
	now  func() time.Time

	latest  Latest[Reading]
	lines   atomic.Uint64
	invalid atomic.Uint64

	mu      sync.Mutex
	started bool
	done    chan struct{}
	closed  bool
}

// OpenArduino resolves the port (auto-detecting if requested), opens it with
// the given opener and waits for the board to come out of reset.
func OpenArduino(cfg ArduinoConfig, open SerialPortOpener) (*Arduino, error) {
	if open == nil {
		open = OpenSerialPort
	}
	path := cfg.Port
	if path == "" || path == AutoPort {
		detected, err := DetectPort()
		if err != nil {
			return nil, err
		}
		path = detected
	}

	port, err := open(path, cfg.BaudRate)
	if err != nil {
		return nil, err
	}
	if cfg.ResetDelay > 0 {
		time.Sleep(cfg.ResetDelay)
	}

	a := NewArduino(port)
	a.path = path
	log.Info("arduino connected", "port", path, "baud", cfg.BaudRate)
	return a, nil
}

// NewArduino wraps an already open port.
func NewArduino(port SerialPorter) *Arduino {
	return &Arduino{
		port: port,
		now:  time.Now,
		done: make(chan struct{}),
	}
}

// Name implements Source.
func (a *Arduino) Name() string {
	return "arduino"
}

// Path returns the serial device in use, if known.
func (a *Arduino) Path() string {
	return a.path
}

// Start implements Source. Lines are read until EOF, a read error, ctx
// cancellation or Close.
func (a *Arduino) Start(ctx context.Context) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.started {
		return ErrAlreadyStarted
	}
	a.started = true

	go func() {
		select {
		case <-ctx.Done():
			// Closing the port unblocks the scanner.
			a.Close()
		case <-a.done:
		}
	}()
	go a.readLoop()
	return nil
}

func (a *Arduino) readLoop() {
	scan := bufio.NewScanner(a.port)
	for scan.Scan() {
		a.handleLine(scan.Text())
	}
	if err := scan.Err(); err != nil && !a.isClosed() {
		log.Warn("arduino read failed", "port", a.path, "error", err)
	}
}

func (a *Arduino) handleLine(line string) {
	a.lines.Add(1)
	r, err := ParseLine(line)
	if err != nil {
		a.invalid.Add(1)
		var pe *ParseError
		if errors.As(err, &pe) {
			log.Debug("arduino line skipped", "line", pe.Line, "error", pe.Err)
		}
		return
	}
	r.Timestamp = a.now()
	r.Source = a.Name()
	a.latest.Store(r)
}

// Latest implements Source.
func (a *Arduino) Latest() Reading {
	r, _ := a.latest.Load()
	return r
}

// Counters returns the number of lines read and how many failed to parse.
func (a *Arduino) Counters() (lines, invalid uint64) {
	return a.lines.Load(), a.invalid.Load()
}

// Send writes a newline-terminated command to the board.
func (a *Arduino) Send(command string) error {
	if len(command) == 0 || command[len(command)-1] != '\n' {
		command += "\n"
	}
	n, err := a.port.Write([]byte(command))
	if err != nil {
		return fmt.Errorf("arduino write: %w", err)
	}
	if n != len(command) {
		return fmt.Errorf("arduino write: short write %d/%d", n, len(command))
	}
	return nil
}

func (a *Arduino) isClosed() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.closed
}

// Close implements Source.
func (a *Arduino) Close() error {
	a.mu.Lock()
	if a.closed {
		a.mu.Unlock()
		return nil
	}
	a.closed = true
	close(a.done)
	a.mu.Unlock()
	return a.port.Close()
}
