package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/kinetic-data/form.report/internal/config"
	"github.com/kinetic-data/form.report/internal/exercise"
	"github.com/kinetic-data/form.report/internal/hrmux"
	"github.com/kinetic-data/form.report/internal/monitor"
	"github.com/kinetic-data/form.report/internal/scoring"
	"github.com/kinetic-data/form.report/internal/session"
	"github.com/kinetic-data/form.report/internal/version"
)

var (
	listen       = flag.String("listen", ":7380", "HTTP listen address")
	udpPort      = flag.Int("udp-port", 7378, "UDP port to listen for frame records")
	udpAddress   = flag.String("udp-addr", "", "UDP bind address (default: listen on all interfaces)")
	rcvBuf       = flag.Int("rcvbuf", 0, "UDP receive buffer size in bytes (0 uses the tuning config value)")
	tuningFile   = flag.String("tuning", "", "Path to a tuning config JSON file (omit for built-in defaults)")
	templateFile = flag.String("templates", "", "Path to an exercise template JSON file loaded on top of the builtins")
	reportDir    = flag.String("report-dir", "", "Directory for session report plots (empty disables report generation)")
	hrPort       = flag.String("hr-port", "/dev/ttyUSB0", "Serial port for the heart rate receiver")
	hrBaud       = flag.Int("hr-baud", 9600, "Baud rate for the heart rate receiver port")
	mockHR       = flag.Bool("mock-hr", false, "Use a mock heart rate receiver instead of a serial port")
	disableHR    = flag.Bool("disable-hr", false, "Run without a heart rate receiver")
	logInterval  = flag.Int("log-interval", 0, "Ingest statistics logging interval in seconds (0 uses the tuning config value)")
)

// mockSampleLine is what the mock receiver emits once a second: a plausible
// resting heart rate with beat-to-beat timing.
const mockSampleLine = "R,12,80,750\n"

// openHeartRateMux selects the receiver implementation from the flags.
func openHeartRateMux() (hrmux.MuxInterface, error) {
	if *disableHR {
		return hrmux.NewDisabledMux(), nil
	}
	if *mockHR {
		return hrmux.NewMockMux([]byte(mockSampleLine)), nil
	}
	return hrmux.NewRealMux(*hrPort, hrmux.PortOptions{BaudRate: *hrBaud})
}

// Main
func main() {
	flag.Parse()

	if *listen == "" {
		log.Fatal("HTTP listen address is required")
	}

	// Construct UDP listen address
	var udpListenAddr string
	if *udpAddress == "" {
		udpListenAddr = fmt.Sprintf(":%d", *udpPort)
	} else {
		udpListenAddr = fmt.Sprintf("%s:%d", *udpAddress, *udpPort)
	}

	// Load engine tuning. Without a file every getter falls back to its
	// built-in default.
	tuning := config.EmptyTuningConfig()
	if *tuningFile != "" {
		var err error
		tuning, err = config.LoadTuningConfig(*tuningFile)
		if err != nil {
			log.Fatalf("Failed to load tuning config: %v", err)
		}
		log.Printf("Loaded tuning config from %s", *tuningFile)
	}

	// Build the exercise registry from the builtins plus any template file
	registry := exercise.NewRegistry()
	if *templateFile != "" {
		if err := registry.LoadFile(*templateFile); err != nil {
			log.Fatalf("Failed to load exercise templates: %v", err)
		}
		log.Printf("Loaded exercise templates from %s", *templateFile)
	}
	log.Printf("Exercises available: %v", registry.IDs())

	manager := session.NewManager(registry, session.Config{
		Scorer: scoring.NewScorer(scoring.Config{
			MaxDeviationDeg: tuning.GetMaxDeviationDeg(),
			FeedbackLimit:   tuning.GetFeedbackLimit(),
		}),
		Fold: session.FoldConfig{
			ExcellentMin:         tuning.GetExcellentMinScore(),
			GoodMin:              tuning.GetGoodMinScore(),
			TopCompensationLimit: tuning.GetTopCompensationLimit(),
		},
		SmoothDepth:    tuning.GetSmoothDepth(),
		SmootherWindow: tuning.GetSmootherWindow(),
		SmootherSigma:  tuning.GetSmootherSigma(),
		TimelineCap:    tuning.GetSessionTimelineCap(),
	}, nil)

	stats := monitor.NewIngestStats()
	hub := monitor.NewEventHub(tuning.GetSubscriberBuffer(), stats)
	defer hub.Close()

	// Open the heart rate receiver
	hr, err := openHeartRateMux()
	if err != nil {
		log.Fatalf("Failed to open heart rate receiver: %v", err)
	}
	defer hr.Close()

	if err := hr.Initialize(); err != nil {
		log.Printf("Failed to initialize heart rate receiver: %v", err)
	}

	udpBuf := *rcvBuf
	if udpBuf == 0 {
		udpBuf = tuning.GetUDPReadBufferBytes()
	}
	statsInterval := tuning.GetStatsInterval()
	if *logInterval > 0 {
		statsInterval = time.Duration(*logInterval) * time.Second
	}

	log.Printf("formd %s starting", version.Version)

	// Create a wait group for the HTTP server, UDP listener, and heart rate
	// receiver routines
	var wg sync.WaitGroup
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Start UDP listener routine
	wg.Add(1)
	go func() {
		defer wg.Done()
		udp := monitor.NewUDPListener(monitor.UDPListenerConfig{
			Address:             udpListenAddr,
			RcvBuf:              udpBuf,
			LogInterval:         statsInterval,
			Stats:               stats,
			Manager:             manager,
			Publisher:           hub,
			ConfidenceThreshold: tuning.GetConfidenceThreshold(),
		})
		if err := udp.Start(ctx); err != nil && err != context.Canceled {
			log.Printf("UDP listener error: %v", err)
		}
		log.Print("UDP listener routine terminated")
	}()

	// run the monitor routine to manage IO on the receiver port
	wg.Add(1)
	go func() {
		defer wg.Done()
		if err := hr.Monitor(ctx); err != nil && err != context.Canceled {
			log.Printf("Failed to monitor heart rate receiver: %v", err)
		}
		log.Print("heart rate monitor routine terminated")
	}()

	// subscribe to receiver lines and feed samples to the session manager
	wg.Add(1)
	go func() {
		defer wg.Done()
		id, c := hr.Subscribe()
		defer hr.Unsubscribe(id)
		for {
			select {
			case payload := <-c:
				if err := hrmux.HandleEvent(manager, payload); err != nil {
					log.Printf("error handling receiver event: %v", err)
				}
			case <-ctx.Done():
				log.Print("heart rate subscribe routine terminated")
				return
			}
		}
	}()

	// HTTP server goroutine
	wg.Add(1)
	go func() {
		defer wg.Done()
		ws := monitor.NewWebServer(monitor.WebServerConfig{
			Address:   *listen,
			Manager:   manager,
			Registry:  registry,
			Stats:     stats,
			Hub:       hub,
			Tuning:    tuning,
			UDPPort:   *udpPort,
			ReportDir: *reportDir,
			HR:        hr,
		})
		if err := ws.Start(ctx); err != nil {
			log.Printf("HTTP server error: %v", err)
		}
	}()

	// Wait for all goroutines to finish
	wg.Wait()
	log.Printf("Graceful shutdown complete")
}
