package monitor

import (
	"bufio"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/kinetic-data/form.report/internal/scoring"
)

func receiveEvent(t *testing.T, ch chan string) FrameEvent {
	t.Helper()

	select {
	case line, ok := <-ch:
		if !ok {
			t.Fatal("subscriber channel closed unexpectedly")
		}
		var ev FrameEvent
		if err := json.Unmarshal([]byte(line), &ev); err != nil {
			t.Fatalf("decode event: %v", err)
		}
		return ev
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for event")
	}
	return FrameEvent{}
}

func TestEventHub_SubscribeAndPublish(t *testing.T) {
	hub := NewEventHub(4, nil)
	defer hub.Close()

	id, ch := hub.Subscribe("")
	if id == "" {
		t.Fatal("expected non-empty subscriber id")
	}
	if hub.Len() != 1 {
		t.Fatalf("expected 1 subscriber, got %d", hub.Len())
	}

	hub.Publish("s1", scoring.FrameResult{TotalScore: 88.5})

	ev := receiveEvent(t, ch)
	if ev.SessionID != "s1" {
		t.Errorf("expected session s1, got %s", ev.SessionID)
	}
	if ev.Result.TotalScore != 88.5 {
		t.Errorf("expected total score 88.5, got %f", ev.Result.TotalScore)
	}
}

func TestEventHub_SessionFilter(t *testing.T) {
	hub := NewEventHub(4, nil)
	defer hub.Close()

	_, ch := hub.Subscribe("s1")

	// An event for another session must not reach this subscriber.
	hub.Publish("s2", scoring.FrameResult{TotalScore: 10})
	select {
	case line := <-ch:
		t.Fatalf("expected no event for filtered session, got %s", line)
	case <-time.After(50 * time.Millisecond):
	}

	hub.Publish("s1", scoring.FrameResult{TotalScore: 95})
	ev := receiveEvent(t, ch)
	if ev.SessionID != "s1" {
		t.Errorf("expected session s1, got %s", ev.SessionID)
	}
}

func TestEventHub_EmptyFilterReceivesAllSessions(t *testing.T) {
	hub := NewEventHub(4, nil)
	defer hub.Close()

	_, chAll := hub.Subscribe("")
	_, chOne := hub.Subscribe("s1")

	hub.Publish("s1", scoring.FrameResult{TotalScore: 80})
	hub.Publish("s2", scoring.FrameResult{TotalScore: 70})

	first := receiveEvent(t, chAll)
	second := receiveEvent(t, chAll)
	if first.SessionID != "s1" || second.SessionID != "s2" {
		t.Errorf("unfiltered subscriber expected s1 then s2, got %s then %s", first.SessionID, second.SessionID)
	}

	only := receiveEvent(t, chOne)
	if only.SessionID != "s1" {
		t.Errorf("filtered subscriber expected s1, got %s", only.SessionID)
	}
}

func TestEventHub_DropsWhenSubscriberFull(t *testing.T) {
	stats := NewIngestStats()
	hub := NewEventHub(1, stats)
	defer hub.Close()

	hub.Subscribe("")

	// Nobody reads: the first publish fills the buffer, the second drops.
	hub.Publish("s1", scoring.FrameResult{TotalScore: 50})
	hub.Publish("s1", scoring.FrameResult{TotalScore: 51})

	_, _, _, dropped, _ := stats.GetAndReset()
	if dropped != 1 {
		t.Errorf("expected 1 dropped delivery, got %d", dropped)
	}
}

func TestEventHub_Unsubscribe(t *testing.T) {
	hub := NewEventHub(4, nil)
	defer hub.Close()

	id, ch := hub.Subscribe("")
	hub.Unsubscribe(id)

	if hub.Len() != 0 {
		t.Errorf("expected 0 subscribers after unsubscribe, got %d", hub.Len())
	}

	select {
	case _, ok := <-ch:
		if ok {
			t.Error("expected channel to be closed after unsubscribe")
		}
	case <-time.After(time.Second):
		t.Error("timed out waiting for channel close")
	}

	// Unsubscribing twice is a no-op.
	hub.Unsubscribe(id)
}

func TestEventHub_Close(t *testing.T) {
	hub := NewEventHub(4, nil)

	_, ch1 := hub.Subscribe("")
	_, ch2 := hub.Subscribe("s1")

	hub.Close()

	for _, ch := range []chan string{ch1, ch2} {
		select {
		case _, ok := <-ch:
			if ok {
				t.Error("expected channel closed after hub close")
			}
		case <-time.After(time.Second):
			t.Error("timed out waiting for channel close")
		}
	}

	if hub.Len() != 0 {
		t.Errorf("expected 0 subscribers after close, got %d", hub.Len())
	}

	// Publish and repeated close after close must not panic.
	hub.Publish("s1", scoring.FrameResult{})
	hub.Close()

	// Subscribing after close hands back a closed channel.
	_, ch3 := hub.Subscribe("")
	if _, ok := <-ch3; ok {
		t.Error("expected closed channel from Subscribe after Close")
	}
}

func TestEventsEndpoint_StreamsScoredFrames(t *testing.T) {
	ws, mux := newTestServer(t)

	srv := httptest.NewServer(mux)
	defer srv.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, srv.URL+"/api/events?session_id=abc", nil)
	if err != nil {
		t.Fatal(err)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	if ctype := resp.Header.Get("Content-Type"); ctype != "text/event-stream" {
		t.Fatalf("expected text/event-stream, got %s", ctype)
	}

	reader := bufio.NewReader(resp.Body)

	// The handler opens the stream with a comment frame; once it arrives the
	// subscription is registered and publishing is safe.
	line, err := reader.ReadString('\n')
	if err != nil {
		t.Fatalf("read ping: %v", err)
	}
	if !strings.HasPrefix(line, ": ping") {
		t.Fatalf("expected ping comment, got %q", line)
	}

	ws.hub.Publish("abc", scoring.FrameResult{TotalScore: 91})

	var dataLine string
	for {
		line, err := reader.ReadString('\n')
		if err != nil {
			t.Fatalf("read event: %v", err)
		}
		if strings.HasPrefix(line, "data: ") {
			dataLine = strings.TrimPrefix(strings.TrimSpace(line), "data: ")
			break
		}
	}

	var ev FrameEvent
	if err := json.Unmarshal([]byte(dataLine), &ev); err != nil {
		t.Fatalf("decode streamed event: %v", err)
	}
	if ev.SessionID != "abc" {
		t.Errorf("expected session abc, got %s", ev.SessionID)
	}
	if ev.Result.TotalScore != 91 {
		t.Errorf("expected total score 91, got %f", ev.Result.TotalScore)
	}
}

func TestEventsEndpoint_MethodNotAllowed(t *testing.T) {
	_, mux := newTestServer(t)

	req := httptest.NewRequest(http.MethodPost, "/api/events", nil)
	rr := httptest.NewRecorder()
	mux.ServeHTTP(rr, req)

	if rr.Code != http.StatusMethodNotAllowed {
		t.Errorf("expected 405, got %d", rr.Code)
	}
}
