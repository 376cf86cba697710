package monitor

import (
	"context"
	"encoding/json"
	"fmt"
	"net"
	"time"

	"github.com/kinetic-data/form.report/internal/capture"
	"github.com/kinetic-data/form.report/internal/scoring"
	"github.com/kinetic-data/form.report/internal/session"
)

// IngestStatsInterface provides ingest statistics management
type IngestStatsInterface interface {
	AddFrame(bytes int)
	AddMalformed()
	AddDropped()
	LogStats()
}

// FramePublisher receives every scored frame for fan-out to stream
// subscribers.
type FramePublisher interface {
	Publish(sessionID string, res scoring.FrameResult)
}

// UDPListener receives frame records over UDP and feeds them into the
// session manager. One datagram carries one JSON frame record addressed by
// its session_id. Malformed datagrams are counted and dropped without a
// reply; the sender never blocks on scoring.
type UDPListener struct {
	address       string
	rcvBuf        int
	logInterval   time.Duration
	conn          *net.UDPConn
	stats         IngestStatsInterface
	manager       *session.Manager
	publisher     FramePublisher
	confThreshold float64
}

// UDPListenerConfig contains configuration options for the UDP listener
type UDPListenerConfig struct {
	Address             string
	RcvBuf              int
	LogInterval         time.Duration
	Stats               IngestStatsInterface
	Manager             *session.Manager
	Publisher           FramePublisher
	ConfidenceThreshold float64
}

// NewUDPListener creates a new UDP listener with the provided configuration
func NewUDPListener(config UDPListenerConfig) *UDPListener {
	// Provide a no-op stats implementation when none is supplied to avoid
	// nil pointer dereferences in the datagram handling and logging paths.
	var stats IngestStatsInterface
	if config.Stats != nil {
		stats = config.Stats
	} else {
		stats = &noopStats{}
	}

	// Default a sensible log interval if not provided
	logInterval := config.LogInterval
	if logInterval == 0 {
		logInterval = time.Minute
	}

	return &UDPListener{
		address:       config.Address,
		rcvBuf:        config.RcvBuf,
		logInterval:   logInterval,
		stats:         stats,
		manager:       config.Manager,
		publisher:     config.Publisher,
		confThreshold: config.ConfidenceThreshold,
	}
}

// noopStats is an IngestStatsInterface implementation that does nothing.
// It is used as a safe default when no stats collector is provided.
type noopStats struct{}

func (n *noopStats) AddFrame(bytes int) {}
func (n *noopStats) AddMalformed()      {}
func (n *noopStats) AddDropped()        {}
func (n *noopStats) LogStats()          {}

// Start begins listening for UDP datagrams and processing them
func (l *UDPListener) Start(ctx context.Context) error {
	addr, err := net.ResolveUDPAddr("udp", l.address)
	if err != nil {
		return fmt.Errorf("failed to resolve UDP address: %w", err)
	}

	conn, err := net.ListenUDP("udp", addr)
	if err != nil {
		return fmt.Errorf("failed to listen on UDP address: %w", err)
	}
	l.conn = conn
	defer conn.Close()

	// Set receive buffer size
	if err := conn.SetReadBuffer(l.rcvBuf); err != nil {
		logf("Warning: Failed to set UDP receive buffer size to %d: %v", l.rcvBuf, err)
	}

	logf("UDP listener started on %s with receive buffer %d bytes", l.address, l.rcvBuf)

	// Start statistics logging
	go l.startStatsLogging(ctx)

	// A full frame record is under 2KB of JSON; 64KB covers any single datagram.
	buffer := make([]byte, 65536)

	for {
		select {
		case <-ctx.Done():
			logf("UDP listener stopping due to context cancellation")
			return ctx.Err()
		default:
			// Set read deadline to allow checking context cancellation
			conn.SetReadDeadline(time.Now().Add(100 * time.Millisecond))

			n, _, err := conn.ReadFromUDP(buffer)
			if err != nil {
				if netErr, ok := err.(net.Error); ok && netErr.Timeout() {
					continue // Continue on timeout to check context
				}
				if ctx.Err() != nil {
					return ctx.Err()
				}
				logf("UDP read error: %v", err)
				continue
			}

			l.handleDatagram(buffer[:n])
		}
	}
}

// startStatsLogging starts a goroutine that periodically logs ingest statistics
func (l *UDPListener) startStatsLogging(ctx context.Context) {
	// Trigger an initial stats report shortly after startup to avoid a long
	// silence on first-run. Then continue on the configured interval.
	select {
	case <-ctx.Done():
		return
	case <-time.After(2 * time.Second):
		l.stats.LogStats()
	}

	ticker := time.NewTicker(l.logInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			l.stats.LogStats()
		}
	}
}

// handleDatagram processes a single received frame datagram. Records that
// cannot be decoded, carry no session id, or reference an unknown session
// are counted as malformed and dropped.
func (l *UDPListener) handleDatagram(packet []byte) {
	// Track ingest statistics
	l.stats.AddFrame(len(packet))

	var rec capture.FrameRecord
	if err := json.Unmarshal(packet, &rec); err != nil {
		l.stats.AddMalformed()
		return
	}
	if rec.SessionID == "" {
		l.stats.AddMalformed()
		return
	}
	if l.manager == nil {
		l.stats.AddMalformed()
		return
	}

	s, ok := l.manager.Get(rec.SessionID)
	if !ok {
		l.stats.AddMalformed()
		return
	}

	p, err := rec.Pose(l.confThreshold)
	if err != nil {
		s.RecordMalformed()
		l.stats.AddMalformed()
		return
	}

	res := s.ProcessFrame(p, rec.Time())
	if l.publisher != nil {
		l.publisher.Publish(rec.SessionID, res)
	}
}

// Close closes the UDP listener and releases resources
func (l *UDPListener) Close() error {
	if l.conn != nil {
		return l.conn.Close()
	}
	return nil
}
