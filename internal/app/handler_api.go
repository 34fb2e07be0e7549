package app

import (
	"encoding/json"
	"fmt"
	"log"
	"net/http"
)

func (a *App) writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("[app] warning: failed to write response: %v", err)
	}
}

// handleLatest returns the most recent reading, or 404 before the first one.
func (a *App) handleLatest(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	latest, ok := a.State.Latest()
	if !ok {
		http.Error(w, "no data available", http.StatusNotFound)
		return
	}
	a.writeJSON(w, latest)
}

// handleStatus returns the full dashboard snapshot.
func (a *App) handleStatus(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	a.writeJSON(w, a.State.Snapshot(a.now()))
}

// handleIndex renders the dashboard texts as plain text.
func (a *App) handleIndex(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}
	snap := a.State.Snapshot(a.now())
	name := "-"
	if snap.Latest != nil {
		name = snap.Latest.Name
	}
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	_, _ = fmt.Fprintf(w, "Name:        %s\nTemperature: %s\n%s\n%s\n%s\n",
		name, snap.TemperatureText, snap.RSSIText, snap.ElapsedText, snap.ConnectionText)
}

func (a *App) handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	_, _ = w.Write([]byte("ok\n"))
}
