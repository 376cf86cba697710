package hrmux

import (
	"fmt"
	"strconv"
	"strings"
)

const (
	EventTypeSample  = "sample"
	EventTypeBattery = "battery"
	EventTypeStatus  = "status"
	EventTypeUnknown = "unknown"
)

// Classify inspects a receiver line and returns a simple event type token.
// Data lines start with "R,", battery reports with "B,", and status dumps
// are JSON objects.
func Classify(line string) string {
	switch {
	case strings.HasPrefix(line, "R,"):
		return EventTypeSample
	case strings.HasPrefix(line, "B,"):
		return EventTypeBattery
	case strings.HasPrefix(line, "{"):
		return EventTypeStatus
	default:
		return EventTypeUnknown
	}
}

// Sample is a single heart rate reading from the receiver.
type Sample struct {
	UptimeSec    int64
	BPM          int
	RRIntervalMS int
}

// ParseSample parses a receiver data line of the form
//
//	R,<uptime_s>,<bpm>,<rr_ms>
//
// The RR interval may be zero when the strap does not report beat-to-beat
// timing.
func ParseSample(line string) (Sample, error) {
	fields := strings.Split(strings.TrimSpace(line), ",")
	if len(fields) != 4 || fields[0] != "R" {
		return Sample{}, fmt.Errorf("malformed sample line %q", line)
	}

	uptime, err := strconv.ParseInt(fields[1], 10, 64)
	if err != nil {
		return Sample{}, fmt.Errorf("bad uptime in %q: %w", line, err)
	}
	bpm, err := strconv.Atoi(fields[2])
	if err != nil {
		return Sample{}, fmt.Errorf("bad bpm in %q: %w", line, err)
	}
	rr, err := strconv.Atoi(fields[3])
	if err != nil {
		return Sample{}, fmt.Errorf("bad rr interval in %q: %w", line, err)
	}

	if bpm <= 0 || bpm > 250 {
		return Sample{}, fmt.Errorf("bpm %d out of range in %q", bpm, line)
	}
	if rr < 0 {
		return Sample{}, fmt.Errorf("negative rr interval in %q", line)
	}

	return Sample{UptimeSec: uptime, BPM: bpm, RRIntervalMS: rr}, nil
}
