// Package model defines the shared value types passed between the ingest loop,
// the dispatch loop and the reading sinks.
package model

import "time"

// Reading is one parsed telemetry sample.
// CapturedAt is the wall-clock time at which the line was received; the device never sends a timestamp.
type Reading struct {
	Name         string    `json:"name"`
	TemperatureC float64   `json:"temperature_c"`
	RSSI         int       `json:"rssi"`
	CapturedAt   time.Time `json:"captured_at"`
}

// EventKind distinguishes what the ingest loop is reporting.
type EventKind int

const (
	// EventReading carries a freshly parsed Reading.
	EventReading EventKind = iota
	// EventDisconnected reports that the port failed mid-stream; it is always the last event.
	EventDisconnected
)

// String returns the wire name of the kind.
func (k EventKind) String() string {
	switch k {
	case EventReading:
		return "reading"
	case EventDisconnected:
		return "disconnected"
	default:
		return "unknown"
	}
}

// MarshalText lets EventKind appear as a string in JSON payloads.
func (k EventKind) MarshalText() ([]byte, error) { return []byte(k.String()), nil }

// Event is the unit handed from the ingest goroutine to its consumer.
type Event struct {
	Kind    EventKind `json:"kind"`
	Reading Reading   `json:"reading"`
	Err     error     `json:"-"`
}
