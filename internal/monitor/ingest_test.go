package monitor

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/kinetic-data/form.report/internal/capture"
	"github.com/kinetic-data/form.report/internal/exercise"
	"github.com/kinetic-data/form.report/internal/pose"
	"github.com/kinetic-data/form.report/internal/scoring"
	"github.com/kinetic-data/form.report/internal/session"
	"github.com/kinetic-data/form.report/internal/testutil"
)

// recordingIngestStats counts interface calls for datagram handling tests.
type recordingIngestStats struct {
	frames    int
	bytes     int
	malformed int
	dropped   int
	logCalls  int
}

func (s *recordingIngestStats) AddFrame(n int) { s.frames++; s.bytes += n }
func (s *recordingIngestStats) AddMalformed()  { s.malformed++ }
func (s *recordingIngestStats) AddDropped()    { s.dropped++ }
func (s *recordingIngestStats) LogStats()      { s.logCalls++ }

type recordingPublisher struct {
	sessions []string
	results  []scoring.FrameResult
}

func (p *recordingPublisher) Publish(sessionID string, res scoring.FrameResult) {
	p.sessions = append(p.sessions, sessionID)
	p.results = append(p.results, res)
}

func newIngestManager(t *testing.T) (*session.Manager, string) {
	t.Helper()

	manager := session.NewManager(exercise.NewRegistry(), session.Config{}, nil)
	s, err := manager.Start("client-1", "squat")
	if err != nil {
		t.Fatalf("start session: %v", err)
	}
	return manager, s.ID()
}

func datagram(t *testing.T, sessionID string, conf float64, kps []pose.Keypoint) []byte {
	t.Helper()

	b, err := json.Marshal(capture.FrameRecord{
		SessionID:      sessionID,
		T:              1700000000000,
		PoseConfidence: conf,
		Keypoints:      kps,
	})
	if err != nil {
		t.Fatalf("marshal frame record: %v", err)
	}
	return b
}

func TestNewUDPListener_Defaults(t *testing.T) {
	l := NewUDPListener(UDPListenerConfig{Address: ":7701"})

	if _, ok := l.stats.(*noopStats); !ok {
		t.Errorf("expected noop stats default, got %T", l.stats)
	}
	if l.logInterval != time.Minute {
		t.Errorf("expected default log interval of 1m, got %v", l.logInterval)
	}
	if l.address != ":7701" {
		t.Errorf("expected address :7701, got %s", l.address)
	}
}

func TestNewUDPListener_ExplicitConfig(t *testing.T) {
	stats := &recordingIngestStats{}
	manager, _ := newIngestManager(t)

	l := NewUDPListener(UDPListenerConfig{
		Address:             "127.0.0.1:7701",
		RcvBuf:              1024 * 1024,
		LogInterval:         5 * time.Second,
		Stats:               stats,
		Manager:             manager,
		ConfidenceThreshold: 0.6,
	})

	if l.stats != IngestStatsInterface(stats) {
		t.Error("expected provided stats to be used")
	}
	if l.rcvBuf != 1024*1024 {
		t.Errorf("expected receive buffer 1048576, got %d", l.rcvBuf)
	}
	if l.logInterval != 5*time.Second {
		t.Errorf("expected log interval 5s, got %v", l.logInterval)
	}
	if l.confThreshold != 0.6 {
		t.Errorf("expected confidence threshold 0.6, got %f", l.confThreshold)
	}
}

func TestHandleDatagram_ValidFrame(t *testing.T) {
	stats := &recordingIngestStats{}
	pub := &recordingPublisher{}
	manager, id := newIngestManager(t)

	l := NewUDPListener(UDPListenerConfig{
		Stats:     stats,
		Manager:   manager,
		Publisher: pub,
	})

	pkt := datagram(t, id, 0.9, testutil.StandingKeypoints())
	l.handleDatagram(pkt)

	if stats.frames != 1 {
		t.Errorf("expected 1 frame counted, got %d", stats.frames)
	}
	if stats.bytes != len(pkt) {
		t.Errorf("expected %d bytes counted, got %d", len(pkt), stats.bytes)
	}
	if stats.malformed != 0 {
		t.Errorf("expected 0 malformed, got %d", stats.malformed)
	}

	s, ok := manager.Get(id)
	if !ok {
		t.Fatal("session disappeared")
	}
	if state := s.State(); state.FrameCount != 1 {
		t.Errorf("expected 1 processed frame, got %d", state.FrameCount)
	}

	if len(pub.sessions) != 1 || pub.sessions[0] != id {
		t.Fatalf("expected one published event for %s, got %v", id, pub.sessions)
	}
	if pub.results[0].TotalScore <= 0 {
		t.Errorf("expected positive score for clean standing frame, got %f", pub.results[0].TotalScore)
	}
}

func TestHandleDatagram_BadJSON(t *testing.T) {
	stats := &recordingIngestStats{}
	manager, _ := newIngestManager(t)
	l := NewUDPListener(UDPListenerConfig{Stats: stats, Manager: manager})

	l.handleDatagram([]byte("{this is not json"))

	if stats.frames != 1 {
		t.Errorf("expected datagram counted before parsing, got %d frames", stats.frames)
	}
	if stats.malformed != 1 {
		t.Errorf("expected 1 malformed, got %d", stats.malformed)
	}
}

func TestHandleDatagram_MissingSessionID(t *testing.T) {
	stats := &recordingIngestStats{}
	manager, _ := newIngestManager(t)
	l := NewUDPListener(UDPListenerConfig{Stats: stats, Manager: manager})

	l.handleDatagram(datagram(t, "", 0.9, testutil.StandingKeypoints()))

	if stats.malformed != 1 {
		t.Errorf("expected 1 malformed for missing session id, got %d", stats.malformed)
	}
}

func TestHandleDatagram_UnknownSession(t *testing.T) {
	stats := &recordingIngestStats{}
	manager, _ := newIngestManager(t)
	l := NewUDPListener(UDPListenerConfig{Stats: stats, Manager: manager})

	l.handleDatagram(datagram(t, "no-such-session", 0.9, testutil.StandingKeypoints()))

	if stats.malformed != 1 {
		t.Errorf("expected 1 malformed for unknown session, got %d", stats.malformed)
	}
}

func TestHandleDatagram_NilManager(t *testing.T) {
	stats := &recordingIngestStats{}
	l := NewUDPListener(UDPListenerConfig{Stats: stats})

	l.handleDatagram(datagram(t, "any", 0.9, testutil.StandingKeypoints()))

	if stats.malformed != 1 {
		t.Errorf("expected 1 malformed with no manager, got %d", stats.malformed)
	}
}

func TestHandleDatagram_InvalidPose(t *testing.T) {
	stats := &recordingIngestStats{}
	pub := &recordingPublisher{}
	manager, id := newIngestManager(t)
	l := NewUDPListener(UDPListenerConfig{Stats: stats, Manager: manager, Publisher: pub})

	// Confidence outside [0, 1] fails pose validation.
	l.handleDatagram(datagram(t, id, 2.0, testutil.StandingKeypoints()))

	if stats.malformed != 1 {
		t.Errorf("expected 1 malformed for invalid pose, got %d", stats.malformed)
	}
	if len(pub.sessions) != 0 {
		t.Errorf("expected no published events, got %d", len(pub.sessions))
	}

	s, _ := manager.Get(id)
	state := s.State()
	if state.MalformedCount != 1 {
		t.Errorf("expected session malformed count 1, got %d", state.MalformedCount)
	}
	if state.FrameCount != 0 {
		t.Errorf("expected no processed frames, got %d", state.FrameCount)
	}
}

func TestHandleDatagram_NilPublisher(t *testing.T) {
	manager, id := newIngestManager(t)
	l := NewUDPListener(UDPListenerConfig{Manager: manager})

	l.handleDatagram(datagram(t, id, 0.9, testutil.StandingKeypoints()))

	s, _ := manager.Get(id)
	if state := s.State(); state.FrameCount != 1 {
		t.Errorf("expected frame processed without a publisher, got %d", state.FrameCount)
	}
}

func TestUDPListener_CloseWithoutStart(t *testing.T) {
	l := NewUDPListener(UDPListenerConfig{Address: ":7701"})
	if err := l.Close(); err != nil {
		t.Errorf("expected nil error closing unstarted listener, got %v", err)
	}
}

func BenchmarkHandleDatagram(b *testing.B) {
	manager := session.NewManager(exercise.NewRegistry(), session.Config{}, nil)
	s, err := manager.Start("bench", "squat")
	if err != nil {
		b.Fatal(err)
	}

	rec := capture.FrameRecord{
		SessionID:      s.ID(),
		T:              1700000000000,
		PoseConfidence: 0.9,
		Keypoints:      testutil.StandingKeypoints(),
	}
	pkt, err := json.Marshal(rec)
	if err != nil {
		b.Fatal(err)
	}

	l := NewUDPListener(UDPListenerConfig{Manager: manager})

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		l.handleDatagram(pkt)
	}
}
