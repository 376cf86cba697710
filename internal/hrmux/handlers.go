package hrmux

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"sync"

	"github.com/kinetic-data/form.report/internal/monitoring"
)

var logf = monitoring.Scoped("[hrmux]")

// currentState holds the latest status values received from the device.
// Debug routes and tests can inspect a snapshot via ReceiverState.
var (
	stateMu      sync.Mutex
	currentState map[string]any
)

// ReceiverState returns a copy of the most recent receiver status values.
func ReceiverState() map[string]any {
	stateMu.Lock()
	defer stateMu.Unlock()
	out := make(map[string]any, len(currentState))
	for k, v := range currentState {
		out[k] = v
	}
	return out
}

func setState(key string, value any) {
	stateMu.Lock()
	defer stateMu.Unlock()
	if currentState == nil {
		currentState = make(map[string]any)
	}
	currentState[key] = value
}

// HeartRateRecorder receives validated heart rate samples. The session
// manager implements it and fans each sample out to active sessions.
type HeartRateRecorder interface {
	RecordHeartRate(bpm int)
}

// HandleSample parses a data line and records the reading.
func HandleSample(rec HeartRateRecorder, payload string) error {
	sample, err := ParseSample(payload)
	if err != nil {
		return err
	}
	rec.RecordHeartRate(sample.BPM)
	return nil
}

// HandleBattery records the receiver battery level from a "B,<pct>" line.
func HandleBattery(payload string) error {
	fields := strings.Split(strings.TrimSpace(payload), ",")
	if len(fields) != 2 {
		return fmt.Errorf("malformed battery line %q", payload)
	}
	pct, err := strconv.Atoi(fields[1])
	if err != nil {
		return fmt.Errorf("bad battery level in %q: %w", payload, err)
	}
	setState("battery_pct", pct)
	if pct <= 10 {
		logf("receiver battery low: %d%%", pct)
	}
	return nil
}

// HandleStatusResponse merges a JSON status dump into the receiver state.
func HandleStatusResponse(payload string) error {
	var statusValues map[string]any

	if err := json.Unmarshal([]byte(payload), &statusValues); err != nil {
		return fmt.Errorf("failed to unmarshal JSON: %v", err)
	}

	for k, v := range statusValues {
		setState(k, v)
	}

	return nil
}

// HandleEvent dispatches a single receiver line to the matching handler.
func HandleEvent(rec HeartRateRecorder, payload string) error {
	switch Classify(payload) {
	case EventTypeSample:
		if err := HandleSample(rec, payload); err != nil {
			return fmt.Errorf("failed to handle sample event: %v", err)
		}
	case EventTypeBattery:
		if err := HandleBattery(payload); err != nil {
			return fmt.Errorf("failed to handle battery event: %v", err)
		}
	case EventTypeStatus:
		if err := HandleStatusResponse(payload); err != nil {
			return fmt.Errorf("failed to handle status response: %v", err)
		}
	default:
		logf("unknown event type: %s", payload)
	}
	return nil
}
