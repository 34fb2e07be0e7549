// Package dashboard holds what the widget displays: the latest reading, the
// connection state and the time since the last update.
package dashboard

import (
	"fmt"
	"sync"
	"time"

	"TempDash/internal/model"
)

const (
	NoDataText       = "No data received yet"
	NoRSSIText       = "RSSI: N/A"
	NotConnectedText = "Not connected"
)

// Snapshot is an immutable view of the State at a given instant.
type Snapshot struct {
	Connected       bool           `json:"connected"`
	Port            string         `json:"port,omitempty"`
	Latest          *model.Reading `json:"latest,omitempty"`
	ElapsedSeconds  int            `json:"elapsed_seconds"`
	TemperatureText string         `json:"temperature_text"`
	RSSIText        string         `json:"rssi_text"`
	ElapsedText     string         `json:"elapsed_text"`
	ConnectionText  string         `json:"connection_text"`
	LastError       string         `json:"last_error,omitempty"`
}

// State is written by the dispatch loop and read by the console and HTTP handlers.
type State struct {
	mu        sync.RWMutex
	connected bool
	port      string
	latest    model.Reading
	hasLatest bool
	lastErr   error
}

func NewState() *State {
	return &State{}
}

// SetConnected marks a reader as attached to port.
func (s *State) SetConnected(port string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.connected = true
	s.port = port
	s.lastErr = nil
}

// SetDisconnected marks that no reader is active; err explains why (may be nil).
func (s *State) SetDisconnected(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.connected = false
	s.lastErr = err
}

// Apply folds an ingest event into the state.
func (s *State) Apply(ev model.Event) {
	switch ev.Kind {
	case model.EventReading:
		s.mu.Lock()
		s.latest = ev.Reading
		s.hasLatest = true
		s.mu.Unlock()
	case model.EventDisconnected:
		s.SetDisconnected(ev.Err)
	}
}

// Latest returns the last reading, if any.
func (s *State) Latest() (model.Reading, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.latest, s.hasLatest
}

// Snapshot renders the display texts as of now.
func (s *State) Snapshot(now time.Time) Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()

	snap := Snapshot{
		Connected:       s.connected,
		Port:            s.port,
		TemperatureText: "0.00 °C",
		RSSIText:        NoRSSIText,
		ElapsedText:     NoDataText,
		ConnectionText:  NotConnectedText,
	}
	if s.connected {
		snap.ConnectionText = "Connected to " + s.port
	}
	if s.lastErr != nil {
		snap.LastError = s.lastErr.Error()
	}
	if !s.hasLatest {
		return snap
	}

	latest := s.latest
	snap.Latest = &latest
	snap.TemperatureText = fmt.Sprintf("%.2f °C", latest.TemperatureC)
	snap.RSSIText = fmt.Sprintf("RSSI: %d dBm", latest.RSSI)
	elapsed := now.Sub(latest.CapturedAt)
	if elapsed < 0 {
		elapsed = 0
	}
	snap.ElapsedSeconds = int(elapsed / time.Second)
	snap.ElapsedText = fmt.Sprintf("Last update: %ds ago", snap.ElapsedSeconds)
	return snap
}
