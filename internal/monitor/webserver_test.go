package monitor

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/kinetic-data/form.report/internal/exercise"
	"github.com/kinetic-data/form.report/internal/session"
)

func TestNewWebServer(t *testing.T) {
	stats := NewIngestStats()
	registry := exercise.NewRegistry()
	manager := session.NewManager(registry, session.Config{}, nil)

	config := WebServerConfig{
		Address:  ":0",
		Manager:  manager,
		Registry: registry,
		Stats:    stats,
		UDPPort:  7701,
	}

	server := NewWebServer(config)

	if server == nil {
		t.Fatal("NewWebServer returned nil")
	}

	if server.stats != stats {
		t.Error("WebServer stats not set correctly")
	}

	if server.manager != manager {
		t.Error("WebServer manager not set correctly")
	}

	if server.udpPort != 7701 {
		t.Error("WebServer udpPort not set correctly")
	}

	if server.tuning == nil {
		t.Error("WebServer should default tuning when none is provided")
	}
}

func TestWebServer_StatusHandler(t *testing.T) {
	stats := NewIngestStats()
	registry := exercise.NewRegistry()
	manager := session.NewManager(registry, session.Config{}, nil)

	config := WebServerConfig{
		Address:  ":0",
		Manager:  manager,
		Registry: registry,
		Stats:    stats,
		UDPPort:  7701,
	}

	server := NewWebServer(config)

	// Add some stats data and an active session so every section renders
	stats.AddFrame(1500)
	stats.LogStats()
	if _, err := manager.Start("client-1", "squat"); err != nil {
		t.Fatalf("failed to start session: %v", err)
	}

	req, err := http.NewRequest("GET", "/", nil)
	if err != nil {
		t.Fatal(err)
	}

	rr := httptest.NewRecorder()

	mux := server.setupRoutes()
	mux.ServeHTTP(rr, req)

	if status := rr.Code; status != http.StatusOK {
		t.Errorf("Status handler returned wrong status code: got %v want %v",
			status, http.StatusOK)
	}

	body := rr.Body.String()

	if !strings.Contains(body, "Form Report Monitor") {
		t.Error("Response should contain 'Form Report Monitor'")
	}

	if !strings.Contains(body, "7701") {
		t.Error("Response should contain the UDP port")
	}

	if !strings.Contains(body, "client-1") {
		t.Error("Response should list the active session's client")
	}

	if !strings.Contains(body, "squat") {
		t.Error("Response should list the loaded exercises")
	}
}

func TestWebServer_HealthHandler(t *testing.T) {
	config := WebServerConfig{
		Address: ":0",
		Stats:   NewIngestStats(),
		UDPPort: 7701,
	}

	server := NewWebServer(config)

	req, err := http.NewRequest("GET", "/health", nil)
	if err != nil {
		t.Fatal(err)
	}

	rr := httptest.NewRecorder()

	mux := server.setupRoutes()
	mux.ServeHTTP(rr, req)

	if status := rr.Code; status != http.StatusOK {
		t.Errorf("Health handler returned wrong status code: got %v want %v",
			status, http.StatusOK)
	}

	expected := "application/json"
	if ctype := rr.Header().Get("Content-Type"); ctype != expected {
		t.Errorf("Health handler returned wrong content type: got %v want %v",
			ctype, expected)
	}

	body := rr.Body.String()

	if !strings.Contains(body, `"status": "ok"`) {
		t.Error("Response should contain status: ok (with spaces)")
	}

	if !strings.Contains(body, `"service": "formd"`) {
		t.Error("Response should contain service: formd (with spaces)")
	}
}

func TestWebServer_UnknownPathReturns404(t *testing.T) {
	server := NewWebServer(WebServerConfig{Address: ":0"})

	req, err := http.NewRequest("GET", "/no-such-page", nil)
	if err != nil {
		t.Fatal(err)
	}

	rr := httptest.NewRecorder()
	mux := server.setupRoutes()
	mux.ServeHTTP(rr, req)

	if rr.Code != http.StatusNotFound {
		t.Errorf("expected 404 for unknown path, got %d", rr.Code)
	}
}

func TestWebServer_StartStop(t *testing.T) {
	config := WebServerConfig{
		Address: ":0", // Use port 0 to get an available port
		Stats:   NewIngestStats(),
		UDPPort: 7701,
	}

	server := NewWebServer(config)

	// Start server with context
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	errChan := make(chan error, 1)
	go func() {
		err := server.Start(ctx)
		if err != nil && err != http.ErrServerClosed {
			errChan <- err
		}
	}()

	// Give the server time to start
	time.Sleep(50 * time.Millisecond)

	// Cancel the context to stop the server
	cancel()

	// Wait a bit for the server to stop
	time.Sleep(50 * time.Millisecond)

	// Check if there were any startup errors
	select {
	case err := <-errChan:
		t.Fatalf("Server start failed: %v", err)
	default:
		// No error, which is what we expect
	}
}

func TestWebServer_AttachesHRDebugRoutes(t *testing.T) {
	attacher := &recordingAttacher{}
	server := NewWebServer(WebServerConfig{Address: ":0", HR: attacher})

	mux := server.setupRoutes()
	if !attacher.called {
		t.Fatal("expected HR debug routes to be attached during route setup")
	}

	req := httptest.NewRequest(http.MethodGet, "/debug/hr-test", nil)
	rr := httptest.NewRecorder()
	mux.ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Errorf("expected attached debug route to respond 200, got %d", rr.Code)
	}
}

type recordingAttacher struct {
	called bool
}

func (a *recordingAttacher) AttachDebugRoutes(mux *http.ServeMux) {
	a.called = true
	mux.HandleFunc("/debug/hr-test", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
}

func BenchmarkWebServer_StatusHandler(b *testing.B) {
	stats := NewIngestStats()
	registry := exercise.NewRegistry()
	manager := session.NewManager(registry, session.Config{}, nil)

	config := WebServerConfig{
		Address:  ":0",
		Manager:  manager,
		Registry: registry,
		Stats:    stats,
		UDPPort:  7701,
	}

	server := NewWebServer(config)

	stats.AddFrame(1500)
	stats.LogStats()

	req, err := http.NewRequest("GET", "/", nil)
	if err != nil {
		b.Fatal(err)
	}

	mux := server.setupRoutes()

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		rr := httptest.NewRecorder()
		mux.ServeHTTP(rr, req)
	}
}

func BenchmarkWebServer_HealthHandler(b *testing.B) {
	server := NewWebServer(WebServerConfig{Address: ":0"})

	req, err := http.NewRequest("GET", "/health", nil)
	if err != nil {
		b.Fatal(err)
	}

	mux := server.setupRoutes()

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		rr := httptest.NewRecorder()
		mux.ServeHTTP(rr, req)
	}
}
