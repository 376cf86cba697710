package monitor

import (
	"context"
	"embed"
	"fmt"
	"html/template"
	"net/http"
	"time"

	"github.com/kinetic-data/form.report/internal/config"
	"github.com/kinetic-data/form.report/internal/exercise"
	"github.com/kinetic-data/form.report/internal/monitoring"
	"github.com/kinetic-data/form.report/internal/session"
	"github.com/kinetic-data/form.report/internal/version"
)

//go:embed status.html
var StatusHTML embed.FS

var logf = monitoring.Scoped("[monitor]")

// DebugRouteAttacher lets the heart rate receiver mount its debug endpoints
// on the monitor mux without the monitor knowing which receiver variant is
// running.
type DebugRouteAttacher interface {
	AttachDebugRoutes(mux *http.ServeMux)
}

// WebServer handles the HTTP interface for the scoring daemon. It serves
// the session API, the live event stream, debug charts, generated report
// files and a status page.
type WebServer struct {
	address   string
	manager   *session.Manager
	registry  *exercise.Registry
	stats     *IngestStats
	hub       *EventHub
	tuning    *config.TuningConfig
	udpPort   int
	reportDir string
	hr        DebugRouteAttacher
	server    *http.Server
}

// WebServerConfig contains configuration options for the web server
type WebServerConfig struct {
	Address   string
	Manager   *session.Manager
	Registry  *exercise.Registry
	Stats     *IngestStats
	Hub       *EventHub
	Tuning    *config.TuningConfig
	UDPPort   int
	ReportDir string
	HR        DebugRouteAttacher
}

// NewWebServer creates a new web server with the provided configuration
func NewWebServer(cfg WebServerConfig) *WebServer {
	tuning := cfg.Tuning
	if tuning == nil {
		tuning = config.EmptyTuningConfig()
	}

	ws := &WebServer{
		address:   cfg.Address,
		manager:   cfg.Manager,
		registry:  cfg.Registry,
		stats:     cfg.Stats,
		hub:       cfg.Hub,
		tuning:    tuning,
		udpPort:   cfg.UDPPort,
		reportDir: cfg.ReportDir,
		hr:        cfg.HR,
	}

	ws.server = &http.Server{
		Addr:    ws.address,
		Handler: LoggingMiddleware(ws.setupRoutes()),
	}

	return ws
}

// Start begins the HTTP server in a goroutine and handles graceful shutdown
func (ws *WebServer) Start(ctx context.Context) error {
	// Start server in a goroutine so it doesn't block
	go func() {
		logf("Starting HTTP server on %s", ws.address)
		if err := ws.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logf("HTTP server error: %v", err)
		}
	}()

	// Wait for context cancellation to shut down server
	<-ctx.Done()
	logf("shutting down HTTP server...")

	// Create a shutdown context with a shorter timeout
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 1*time.Second)
	defer cancel()

	if err := ws.server.Shutdown(shutdownCtx); err != nil {
		logf("HTTP server shutdown error: %v", err)
		// Force close the server if graceful shutdown fails
		if err := ws.server.Close(); err != nil {
			logf("HTTP server force close error: %v", err)
		}
	}

	logf("HTTP server routine stopped")
	return nil
}

// setupRoutes configures the HTTP routes and handlers
func (ws *WebServer) setupRoutes() *http.ServeMux {
	mux := http.NewServeMux()

	mux.HandleFunc("/health", ws.handleHealth)
	mux.HandleFunc("/", ws.handleStatus)
	mux.HandleFunc("/api/sessions", ws.handleSessions)
	mux.HandleFunc("/api/sessions/", ws.handleSessionByID)
	mux.HandleFunc("/api/config", ws.handleConfig)
	mux.HandleFunc("/api/events", ws.handleEvents)
	mux.HandleFunc("/debug/charts", ws.handleDebugDashboard)
	mux.HandleFunc("/debug/charts/score", ws.handleScoreChart)
	mux.HandleFunc("/debug/charts/depth", ws.handleDepthChart)
	mux.HandleFunc("/debug/charts/ingest", ws.handleIngestChart)
	mux.HandleFunc("/reports/", ws.handleReportFile)

	if ws.hr != nil {
		ws.hr.AttachDebugRoutes(mux)
	}

	return mux
}

// handleHealth handles the health check endpoint
func (ws *WebServer) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	fmt.Fprintf(w, `{"status": "ok", "service": "formd", "timestamp": "%s"}`, time.Now().UTC().Format(time.RFC3339))
}

// handleStatus handles the main status page endpoint
func (ws *WebServer) handleStatus(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}
	w.Header().Set("Content-Type", "text/html")

	// Load and parse the HTML template from embedded filesystem
	tmpl, err := template.ParseFS(StatusHTML, "status.html")
	if err != nil {
		http.Error(w, "Error loading template: "+err.Error(), http.StatusInternalServerError)
		return
	}

	var uptime string
	var snap *StatsSnapshot
	if ws.stats != nil {
		uptime = ws.stats.GetUptime().Round(time.Second).String()
		snap = ws.stats.GetLatestSnapshot()
	}

	var sessions []session.LiveState
	if ws.manager != nil {
		sessions = ws.manager.States()
	}

	var exercises []string
	if ws.registry != nil {
		exercises = ws.registry.IDs()
	}

	// Template data
	data := struct {
		UDPPort     int
		HTTPAddress string
		Units       string
		Version     string
		Uptime      string
		Stats       *StatsSnapshot
		Sessions    []session.LiveState
		Exercises   []string
	}{
		UDPPort:     ws.udpPort,
		HTTPAddress: ws.address,
		Units:       ws.tuning.GetDisplayUnits(),
		Version:     version.Version,
		Uptime:      uptime,
		Stats:       snap,
		Sessions:    sessions,
		Exercises:   exercises,
	}

	if err := tmpl.Execute(w, data); err != nil {
		http.Error(w, "Error executing template: "+err.Error(), http.StatusInternalServerError)
		return
	}
}

// Close shuts down the web server
func (ws *WebServer) Close() error {
	if ws.server != nil {
		return ws.server.Close()
	}
	return nil
}
