// Package device defines a unified interface for line-oriented serial devices
// and the discovery of the telemetry probe among the system's ports.
package device

import (
	"errors"
	"time"
)

var (
	// ErrReadTimeout is returned by ReadLine when no complete line arrived within the timeout.
	// It is not a failure: partial data stays buffered for the next call.
	ErrReadTimeout = errors.New("read timeout")
	// ErrNotOpen is returned when the device has been closed.
	ErrNotOpen = errors.New("serial port not open")
)

// Device defines an abstract interface for communication devices.
type Device interface {
	// ReadLine reads a single line terminated by '\n'.
	// It must return ErrReadTimeout after timeout even if no data is available.
	ReadLine(timeout time.Duration) (string, error)

	// WriteLine writes s followed by '\n' to the device.
	WriteLine(s string) error

	// Close closes the device and releases underlying resources.
	Close() error
}
