package sensor

import (
	"fmt"
	"io"
	"sort"
	"strings"

	"go.bug.st/serial"
)

// SerialPorter defines the minimal interface needed for a serial port.
// This abstraction enables unit testing without an Arduino attached.
type SerialPorter interface {
	io.ReadWriter
	io.Closer
}

// SerialPortOpener opens a serial port at path with the given baud rate.
type SerialPortOpener func(path string, baud int) (SerialPorter, error)

// AutoPort asks OpenArduino to pick the port itself.
const AutoPort = "auto"

// OpenSerialPort opens a real port in 8N1 mode, the Arduino default.
func OpenSerialPort(path string, baud int) (SerialPorter, error) {
	mode := &serial.Mode{
		BaudRate: baud,
		DataBits: 8,
		Parity:   serial.NoParity,
		StopBits: serial.OneStopBit,
	}
	port, err := serial.Open(path, mode)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	return port, nil
}

// listPorts is replaced in tests.
var listPorts = serial.GetPortsList

// DetectPort returns the most likely Arduino port. USB-serial adapters
// (ttyUSB*) win over native USB boards (ttyACM*), which win over anything
// else the OS reports. Ties are broken by name.
func DetectPort() (string, error) {
	ports, err := listPorts()
	if err != nil {
		return "", fmt.Errorf("list serial ports: %w", err)
	}
	if len(ports) == 0 {
		return "", ErrNoSerialPorts
	}

	sort.SliceStable(ports, func(i, j int) bool {
		ri, rj := portRank(ports[i]), portRank(ports[j])
		if ri != rj {
			return ri < rj
		}
		return ports[i] < ports[j]
	})
	return ports[0], nil
}

func portRank(name string) int {
	switch {
	case strings.Contains(name, "ttyUSB"):
		return 0
	case strings.Contains(name, "ttyACM"):
		return 1
	case strings.Contains(name, "usbserial"), strings.Contains(name, "usbmodem"):
		return 2
	default:
		return 3
	}
}
