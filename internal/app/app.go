// Package app implements the HTTP surface of the TempDash dashboard.
package app

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"strings"
	"sync"
	"time"

	"TempDash/internal/dashboard"
	"TempDash/internal/metrics"
)

type App struct {
	State   *dashboard.State
	Metrics *metrics.Metrics
	Hub     *Hub
	Mux     *http.ServeMux
	Server  *http.Server

	mu      sync.Mutex
	stopped bool
	now     func() time.Time
}

// NewApp wires the routes over the shared dashboard state.
func NewApp(state *dashboard.State, m *metrics.Metrics) *App {
	a := &App{
		State:   state,
		Metrics: m,
		Hub:     NewHub(),
		Mux:     http.NewServeMux(),
		now:     time.Now,
	}
	a.registerRoutes()
	return a
}

// Start launches the web server and blocks until stopped.
func (a *App) Start(addr string) error {
	if addr == "" {
		log.Println("[app] app server not started (empty address)")
		return nil
	}
	if a == nil || a.Mux == nil {
		return fmt.Errorf("[app] Start called on an uninitialised app")
	}

	addr = strings.TrimPrefix(addr, "http://")
	if !strings.Contains(addr, ":") {
		addr = ":" + addr
	}

	srv := &http.Server{
		Addr:              addr,
		Handler:           logRequests(a.Mux),
		ReadHeaderTimeout: 5 * time.Second,
	}
	a.mu.Lock()
	if a.stopped {
		a.mu.Unlock()
		return nil
	}
	a.Server = srv
	a.mu.Unlock()

	log.Printf("[app] Web server listening at http://%s", addr)
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("[app] HTTP server error: %w", err)
	}
	return nil
}

// Stop closes websocket clients and gracefully stops the web server.
func (a *App) Stop() {
	if a == nil {
		return
	}
	a.Hub.Close()

	a.mu.Lock()
	a.stopped = true
	srv := a.Server
	a.mu.Unlock()

	if srv != nil {
		log.Println("[app] Shutting down web server...")
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		if err := srv.Shutdown(ctx); err != nil {
			log.Printf("[app] HTTP server shutdown error: %v", err)
		} else {
			log.Println("[app] Web server stopped cleanly")
		}
	}
}
