package monitor

import (
	crand "crypto/rand"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"net/http"
	"sync"

	"github.com/kinetic-data/form.report/internal/httputil"
	"github.com/kinetic-data/form.report/internal/scoring"
)

// FrameEvent is the SSE payload published for every scored frame: the result
// addressed by the session it belongs to.
type FrameEvent struct {
	SessionID string              `json:"session_id"`
	Result    scoring.FrameResult `json:"result"`
}

type eventSubscriber struct {
	sessionID string // empty subscribes to every session
	ch        chan string
}

// EventHub fans scored frames out to SSE subscribers. Channels are buffered
// by the subscriber_buffer tunable and sends never block: a subscriber that
// falls behind drops events rather than stalling the ingest path.
type EventHub struct {
	mu          sync.Mutex
	subscribers map[string]*eventSubscriber
	buffer      int
	stats       *IngestStats
	closed      bool
}

// NewEventHub creates a hub whose subscriber channels hold buffer events.
// stats may be nil; when set, dropped deliveries are counted against it.
func NewEventHub(buffer int, stats *IngestStats) *EventHub {
	if buffer < 0 {
		buffer = 0
	}
	return &EventHub{
		subscribers: make(map[string]*eventSubscriber),
		buffer:      buffer,
		stats:       stats,
	}
}

// randomID generates a random subscriber ID (8 byte random hex encoded value)
func randomID() string {
	b := make([]byte, 8)
	crand.Read(b)
	return hex.EncodeToString(b)
}

// Subscribe registers a listener for frames from sessionID, or from every
// session when sessionID is empty.
func (h *EventHub) Subscribe(sessionID string) (string, chan string) {
	id := randomID()
	ch := make(chan string, h.buffer)
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		close(ch)
		return id, ch
	}
	h.subscribers[id] = &eventSubscriber{sessionID: sessionID, ch: ch}
	return id, ch
}

// Unsubscribe removes a subscriber and closes its channel.
func (h *EventHub) Unsubscribe(id string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if sub, ok := h.subscribers[id]; ok {
		close(sub.ch)
		delete(h.subscribers, id)
	}
}

// Publish serialises one scored frame and delivers it to every matching
// subscriber without blocking.
func (h *EventHub) Publish(sessionID string, res scoring.FrameResult) {
	payload, err := json.Marshal(FrameEvent{SessionID: sessionID, Result: res})
	if err != nil {
		return
	}
	line := string(payload)

	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return
	}
	for _, sub := range h.subscribers {
		if sub.sessionID != "" && sub.sessionID != sessionID {
			continue
		}
		select {
		case sub.ch <- line:
		default:
			// subscriber is full; skip so as not to block the ingest path
			if h.stats != nil {
				h.stats.AddDropped()
			}
		}
	}
}

// Len returns the current subscriber count.
func (h *EventHub) Len() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.subscribers)
}

// Close closes every subscriber channel. Later Subscribe calls return a
// closed channel so SSE readers finish immediately during shutdown.
func (h *EventHub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return
	}
	h.closed = true
	for id, sub := range h.subscribers {
		close(sub.ch)
		delete(h.subscribers, id)
	}
}

// handleEvents streams scored frames to the client as server-sent events.
// Query params:
//
//	session_id (optional; empty streams every session)
func (ws *WebServer) handleEvents(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		httputil.MethodNotAllowed(w)
		return
	}
	if ws.hub == nil {
		httputil.NotFound(w, "event stream not configured")
		return
	}
	flusher, ok := w.(http.Flusher)
	if !ok {
		httputil.InternalServerError(w, "Streaming unsupported")
		return
	}

	id, ch := ws.hub.Subscribe(r.URL.Query().Get("session_id"))
	defer ws.hub.Unsubscribe(id)

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no")

	// initial comment line forces proxies to open the stream
	fmt.Fprint(w, ": ping\n\n")
	flusher.Flush()

	for {
		select {
		case <-r.Context().Done():
			return
		case line, open := <-ch:
			if !open {
				return
			}
			fmt.Fprintf(w, "data: %s\n\n", line)
			flusher.Flush()
		}
	}
}
