// Package device implements SerialDevice using go.bug.st/serial,
// which provides real serial communication support for the telemetry probe.
package device

import (
	"bytes"
	"fmt"
	"io"
	"log"
	"time"

	serial "go.bug.st/serial"
)

// maxLineLength bounds the buffer kept for a line that never terminates.
const maxLineLength = 4096

// port is the subset of serial.Port used by SerialDevice.
type port interface {
	io.ReadWriteCloser
	SetReadTimeout(t time.Duration) error
	GetModemStatusBits() (*serial.ModemStatusBits, error)
}

var _ Device = (*SerialDevice)(nil)

// SerialDevice implements Device using go.bug.st/serial.
type SerialDevice struct {
	port    port
	dev     string
	baud    int
	timeout time.Duration
	pending []byte
	chunk   []byte
}

// NewSerialDevice opens dev at baud (8N1) with the given read timeout.
func NewSerialDevice(dev string, baud int, timeout time.Duration) (*SerialDevice, error) {
	p, err := serial.Open(dev, &serial.Mode{BaudRate: baud})
	if err != nil {
		return nil, fmt.Errorf("failed to open serial %s: %w", dev, err)
	}
	s, err := newSerialDevice(p, dev, baud, timeout)
	if err != nil {
		_ = p.Close()
		return nil, err
	}
	return s, nil
}

func newSerialDevice(p port, dev string, baud int, timeout time.Duration) (*SerialDevice, error) {
	s := &SerialDevice{port: p, dev: dev, baud: baud, chunk: make([]byte, 256)}
	if err := s.setTimeout(timeout); err != nil {
		return nil, err
	}
	return s, nil
}

// Name returns the device path the port was opened on.
func (s *SerialDevice) Name() string { return s.dev }

// Baud returns the configured baud rate.
func (s *SerialDevice) Baud() int { return s.baud }

func (s *SerialDevice) setTimeout(timeout time.Duration) error {
	if timeout <= 0 {
		timeout = serial.NoTimeout
	}
	if timeout == s.timeout {
		return nil
	}
	if err := s.port.SetReadTimeout(timeout); err != nil {
		return fmt.Errorf("set read timeout on %s: %w", s.dev, err)
	}
	s.timeout = timeout
	return nil
}

// ReadLine reads a single line from the serial port, blocking until newline or timeout.
// The timeout covers the whole call: bytes arriving without a newline do not extend it,
// and they stay buffered for the next call. The returned line keeps its terminator.
func (s *SerialDevice) ReadLine(timeout time.Duration) (string, error) {
	if s.port == nil {
		return "", ErrNotOpen
	}
	var deadline time.Time
	if timeout > 0 {
		deadline = time.Now().Add(timeout)
	}

	for {
		if i := bytes.IndexByte(s.pending, '\n'); i >= 0 {
			line := string(s.pending[:i+1])
			s.pending = append(s.pending[:0], s.pending[i+1:]...)
			return line, nil
		}

		wait := time.Duration(serial.NoTimeout)
		if !deadline.IsZero() {
			wait = time.Until(deadline)
			if wait <= 0 {
				return "", ErrReadTimeout
			}
		}
		if err := s.setTimeout(wait); err != nil {
			return "", err
		}

		started := time.Now()
		n, err := s.port.Read(s.chunk)
		if err != nil {
			return "", fmt.Errorf("serial read %s: %w", s.dev, err)
		}
		if n == 0 {
			return "", s.emptyRead(time.Since(started), wait)
		}

		s.pending = append(s.pending, s.chunk[:n]...)
		if len(s.pending) > maxLineLength && bytes.IndexByte(s.pending, '\n') < 0 {
			log.Printf("[serial] %s: discarding %d bytes without newline", s.dev, len(s.pending))
			s.pending = s.pending[:0]
		}
	}
}

// emptyRead classifies a zero-byte read. The port reports one when the timeout
// expires, but also immediately and repeatedly once the USB device is gone.
func (s *SerialDevice) emptyRead(elapsed, wait time.Duration) error {
	if wait == serial.NoTimeout || elapsed >= wait/2 {
		return ErrReadTimeout
	}
	if _, err := s.port.GetModemStatusBits(); err != nil {
		return fmt.Errorf("serial %s: %w (%v)", s.dev, io.ErrUnexpectedEOF, err)
	}
	return ErrReadTimeout
}

// WriteLine writes a single line followed by '\n' to the serial port.
func (s *SerialDevice) WriteLine(line string) error {
	if s.port == nil {
		return ErrNotOpen
	}
	_, err := s.port.Write(append([]byte(line), '\n'))
	return err
}

// Close closes the underlying serial connection.
func (s *SerialDevice) Close() error {
	if s.port == nil {
		return nil
	}
	err := s.port.Close()
	s.port = nil
	return err
}
