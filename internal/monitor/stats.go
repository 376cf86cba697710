package monitor

import (
	"fmt"
	"sync"
	"time"

	"github.com/kinetic-data/form.report/internal/monitoring"
)

// StatsSnapshot represents a snapshot of current ingest statistics
type StatsSnapshot struct {
	FramesPerSec   float64
	KBPerSec       float64
	MalformedCount int64
	DroppedCount   int64
	Timestamp      time.Time
}

// IngestStats tracks frame ingest statistics with thread-safe operations.
// The UDP listener counts every datagram against it; the event hub counts
// deliveries dropped on full subscriber channels.
type IngestStats struct {
	mu             sync.Mutex
	frameCount     int64
	byteCount      int64
	malformedCount int64
	droppedCount   int64
	lastReset      time.Time
	startTime      time.Time
	latestSnapshot *StatsSnapshot
}

// NewIngestStats creates a new IngestStats instance
func NewIngestStats() *IngestStats {
	now := time.Now()
	return &IngestStats{
		lastReset: now,
		startTime: now,
	}
}

// AddFrame increments frame count and byte count
func (is *IngestStats) AddFrame(bytes int) {
	is.mu.Lock()
	defer is.mu.Unlock()
	is.frameCount++
	is.byteCount += int64(bytes)
}

// AddMalformed increments the malformed frame count
func (is *IngestStats) AddMalformed() {
	is.mu.Lock()
	defer is.mu.Unlock()
	is.malformedCount++
}

// AddDropped increments the dropped event count
func (is *IngestStats) AddDropped() {
	is.mu.Lock()
	defer is.mu.Unlock()
	is.droppedCount++
}

// GetAndReset returns current stats and resets counters
func (is *IngestStats) GetAndReset() (frames int64, bytes int64, malformed int64, dropped int64, duration time.Duration) {
	is.mu.Lock()
	defer is.mu.Unlock()

	now := time.Now()
	duration = now.Sub(is.lastReset)
	frames = is.frameCount
	bytes = is.byteCount
	malformed = is.malformedCount
	dropped = is.droppedCount

	is.frameCount = 0
	is.byteCount = 0
	is.malformedCount = 0
	is.droppedCount = 0
	is.lastReset = now

	return
}

// LogStats logs formatted statistics and stores a snapshot for the web
// interface
func (is *IngestStats) LogStats() {
	frames, bytes, malformed, dropped, duration := is.GetAndReset()
	if frames > 0 || malformed > 0 {
		framesPerSec := float64(frames) / duration.Seconds()
		kbPerSec := float64(bytes) / duration.Seconds() / 1024

		is.mu.Lock()
		is.latestSnapshot = &StatsSnapshot{
			FramesPerSec:   framesPerSec,
			KBPerSec:       kbPerSec,
			MalformedCount: malformed,
			DroppedCount:   dropped,
			Timestamp:      time.Now(),
		}
		is.mu.Unlock()

		logMsg := fmt.Sprintf("Ingest stats (/sec): %.1f frames, %.2f KB", framesPerSec, kbPerSec)
		if malformed > 0 {
			logMsg += fmt.Sprintf(", %d malformed", malformed)
		}
		if dropped > 0 {
			logMsg += fmt.Sprintf(", %d dropped on publish", dropped)
		}

		monitoring.Logf("%s", logMsg)
	}
}

// GetUptime returns the time since the stats were created
func (is *IngestStats) GetUptime() time.Duration {
	is.mu.Lock()
	defer is.mu.Unlock()
	return time.Since(is.startTime)
}

// GetLatestSnapshot returns the most recent stats snapshot for the web
// interface
func (is *IngestStats) GetLatestSnapshot() *StatsSnapshot {
	is.mu.Lock()
	defer is.mu.Unlock()
	if is.latestSnapshot == nil {
		return nil
	}
	// Return a copy to avoid race conditions
	snapshot := *is.latestSnapshot
	return &snapshot
}
