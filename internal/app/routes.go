package app

// registerRoutes sets up all HTTP handlers for the application.
func (a *App) registerRoutes() {
	a.Mux.HandleFunc("/", a.handleIndex)
	a.Mux.HandleFunc("/healthz", a.handleHealth)

	// API routes
	a.Mux.HandleFunc("/api/latest", a.handleLatest)
	a.Mux.HandleFunc("/api/status", a.handleStatus)
	a.Mux.HandleFunc("/ws", a.Hub.ServeWS)
	a.Mux.Handle("/metrics", a.Metrics.Handler())
}
