package device

import (
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"go.bug.st/serial/enumerator"
)

// ErrNotFound is returned when no port matched the probe marker or every matching port failed to open.
var ErrNotFound = errors.New("no matching serial port found")

// PortInfo describes one system-visible serial port.
type PortInfo struct {
	Name        string
	Description string
	IsUSB       bool
	VID         string
	PID         string
}

// PortLister enumerates the system's serial ports.
type PortLister func() ([]*enumerator.PortDetails, error)

// Opener opens a port by name.
type Opener func(name string, baud int, timeout time.Duration) (*SerialDevice, error)

// Discovery selects the telemetry probe among the system's ports.
type Discovery struct {
	Marker  string
	Baud    int
	Timeout time.Duration
	List    PortLister
	Open    Opener
}

// NewDiscovery returns a Discovery backed by the OS enumerator.
func NewDiscovery(marker string, baud int, timeout time.Duration) *Discovery {
	return &Discovery{
		Marker:  marker,
		Baud:    baud,
		Timeout: timeout,
		List:    enumerator.GetDetailedPortsList,
		Open:    NewSerialDevice,
	}
}

// FindDevicePort opens the first port whose description contains marker.
func FindDevicePort(marker string, baud int, timeout time.Duration) (*SerialDevice, PortInfo, error) {
	return NewDiscovery(marker, baud, timeout).Find()
}

// Describe builds the human-readable description matched against the marker:
// the USB product string followed by the port name, e.g. "J-Link OB (COM4)".
func Describe(p *enumerator.PortDetails) string {
	if p.Product == "" {
		return p.Name
	}
	return fmt.Sprintf("%s (%s)", p.Product, p.Name)
}

func toInfo(p *enumerator.PortDetails) PortInfo {
	return PortInfo{Name: p.Name, Description: Describe(p), IsUSB: p.IsUSB, VID: p.VID, PID: p.PID}
}

// Ports lists every port with its description.
func (d *Discovery) Ports() ([]PortInfo, error) {
	details, err := d.List()
	if err != nil {
		return nil, fmt.Errorf("enumerate serial ports: %w", err)
	}
	infos := make([]PortInfo, 0, len(details))
	for _, p := range details {
		infos = append(infos, toInfo(p))
	}
	return infos, nil
}

// Find tries every port whose description contains the marker, in enumeration order.
// Open failures are logged and the next candidate is tried.
func (d *Discovery) Find() (*SerialDevice, PortInfo, error) {
	ports, err := d.Ports()
	if err != nil {
		return nil, PortInfo{}, err
	}
	candidates := 0
	for _, p := range ports {
		if !strings.Contains(p.Description, d.Marker) {
			continue
		}
		candidates++
		dev, err := d.Open(p.Name, d.Baud, d.Timeout)
		if err != nil {
			log.Printf("[serial] error opening %s (%s): %v", p.Name, p.Description, err)
			continue
		}
		log.Printf("[serial] connected to %s (%s) @ %d baud", p.Name, p.Description, d.Baud)
		return dev, p, nil
	}
	if candidates == 0 {
		return nil, PortInfo{}, fmt.Errorf("%w: no port description contains %q", ErrNotFound, d.Marker)
	}
	return nil, PortInfo{}, fmt.Errorf("%w: %d candidate(s) matching %q failed to open", ErrNotFound, candidates, d.Marker)
}

// ListPorts enumerates the system's ports with their descriptions.
func ListPorts() ([]PortInfo, error) {
	return NewDiscovery("", 0, 0).Ports()
}
