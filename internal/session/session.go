package session

import (
	"math"
	"sync"
	"time"

	"github.com/kinetic-data/form.report/internal/exercise"
	"github.com/kinetic-data/form.report/internal/pose"
	"github.com/kinetic-data/form.report/internal/reps"
	"github.com/kinetic-data/form.report/internal/scoring"
)

// DefaultTimelineCap bounds the per-session frame timeline kept for charts
// and reports. When full, the oldest half is dropped; summary statistics are
// unaffected because they aggregate incrementally.
const DefaultTimelineCap = 8192

// Config holds the per-session pipeline tunables, typically built from the
// tuning config at daemon startup.
type Config struct {
	// Scorer to use; nil gets a default-tuned scorer.
	Scorer *scoring.Scorer
	// Fold holds the summary aggregation tuning.
	Fold FoldConfig
	// SmoothDepth enables the median filter in front of the rep counter.
	SmoothDepth    bool
	SmootherWindow int
	SmootherSigma  float64
	// TimelineCap overrides DefaultTimelineCap when positive.
	TimelineCap int
}

// HRStats summarises wearable heart-rate samples recorded against a session.
type HRStats struct {
	Count   int     `json:"count"`
	MeanBPM float64 `json:"mean_bpm"`
	MinBPM  int     `json:"min_bpm"`
	MaxBPM  int     `json:"max_bpm"`
}

// LiveState is a point-in-time snapshot of an active session for the monitor
// API.
type LiveState struct {
	ID             string     `json:"id"`
	ClientID       string     `json:"client_id"`
	ExerciseID     string     `json:"exercise_id"`
	StartedAt      time.Time  `json:"started_at"`
	FrameCount     int        `json:"frame_count"`
	MalformedCount int        `json:"malformed_count"`
	RepCount       uint32     `json:"rep_count"`
	Phase          reps.Phase `json:"phase"`
	MeanScore      float64    `json:"mean_score"`
	HeartRate      HRStats    `json:"heart_rate"`
	Ended          bool       `json:"ended"`
}

// Session runs the scoring pipeline for one client performing one exercise:
// depth signal, rep counting, frame scoring, streaming aggregation. The
// engine underneath is sequential per session; the mutex only serialises the
// two transports (HTTP and UDP) that may deliver frames concurrently.
type Session struct {
	id         string
	clientID   string
	exerciseID string
	startedAt  time.Time
	template   *exercise.Template

	mu          sync.Mutex
	scorer      *scoring.Scorer
	counter     *reps.Counter
	smoother    *reps.Smoother
	agg         *aggregator
	timeline    []scoring.FrameResult
	depths      []float64
	timelineCap int
	malformed   int
	hrCount     int
	hrSum       int
	hrMin       int
	hrMax       int
	ended       bool
	final       Summary
}

// NewSession builds a session for a validated template. Callers normally go
// through Manager.Start; direct construction is for offline pipelines and
// tests.
func NewSession(id, clientID string, tpl *exercise.Template, startedAt time.Time, cfg Config) *Session {
	scorer := cfg.Scorer
	if scorer == nil {
		scorer = scoring.NewScorer(scoring.DefaultConfig())
	}
	limit := cfg.TimelineCap
	if limit <= 0 {
		limit = DefaultTimelineCap
	}
	s := &Session{
		id:         id,
		clientID:   clientID,
		exerciseID: tpl.ExerciseID,
		startedAt:  startedAt,
		template:   tpl,
		scorer:     scorer,
		counter: reps.NewCounter(reps.Config{
			BottomThreshold: tpl.RepSignal.BottomThreshold,
			TopThreshold:    tpl.RepSignal.TopThreshold,
		}),
		agg:         newAggregator(cfg.Fold),
		timelineCap: limit,
	}
	if cfg.SmoothDepth {
		s.smoother = reps.NewSmoother(cfg.SmootherWindow, cfg.SmootherSigma)
	}
	return s
}

// ID returns the session ID.
func (s *Session) ID() string { return s.id }

// ClientID returns the owning client ID.
func (s *Session) ClientID() string { return s.clientID }

// ExerciseID returns the exercise being scored.
func (s *Session) ExerciseID() string { return s.exerciseID }

// Template returns the active exercise template.
func (s *Session) Template() *exercise.Template { return s.template }

// ProcessFrame scores one pose: derives the depth signal, advances the rep
// machine (frozen when the signal is missing), scores against the anchor
// phase, and folds the result into the running aggregate. Frames arriving
// after End are ignored and return a zero result.
func (s *Session) ProcessFrame(p *pose.Pose, ts time.Time) scoring.FrameResult {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.ended {
		return scoring.FrameResult{}
	}

	depth, present := reps.DepthSignal(p, s.template.RepSignal)
	if present && s.smoother != nil {
		depth = s.smoother.Smooth(depth)
	}
	st := s.counter.Update(depth, present)

	res := s.scorer.Score(p, s.template, string(st.Anchor))
	res.Timestamp = ts

	s.agg.add(&res)
	if len(s.timeline) >= s.timelineCap {
		n := copy(s.timeline, s.timeline[len(s.timeline)/2:])
		s.timeline = s.timeline[:n]
		nd := copy(s.depths, s.depths[len(s.depths)/2:])
		s.depths = s.depths[:nd]
	}
	s.timeline = append(s.timeline, res)
	d := math.NaN()
	if present {
		d = depth
	}
	s.depths = append(s.depths, d)
	return res
}

// RecordMalformed counts a frame that failed validation and was skipped.
// Malformed frames are frame-fatal only, never session-fatal.
func (s *Session) RecordMalformed() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.malformed++
}

// RecordHeartRate folds one wearable sample into the session HR stats.
// Non-positive readings are dropped.
func (s *Session) RecordHeartRate(bpm int) {
	if bpm <= 0 {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.hrCount == 0 || bpm < s.hrMin {
		s.hrMin = bpm
	}
	if bpm > s.hrMax {
		s.hrMax = bpm
	}
	s.hrCount++
	s.hrSum += bpm
}

// State returns a snapshot of the live session.
func (s *Session) State() LiveState {
	s.mu.Lock()
	defer s.mu.Unlock()

	st := s.counter.State()
	ls := LiveState{
		ID:             s.id,
		ClientID:       s.clientID,
		ExerciseID:     s.exerciseID,
		StartedAt:      s.startedAt,
		FrameCount:     s.agg.frameCount,
		MalformedCount: s.malformed,
		RepCount:       st.RepCount,
		Phase:          st.Phase,
		MeanScore:      s.agg.runningMean(),
		Ended:          s.ended,
	}
	if s.hrCount > 0 {
		ls.HeartRate = HRStats{
			Count:   s.hrCount,
			MeanBPM: float64(s.hrSum) / float64(s.hrCount),
			MinBPM:  s.hrMin,
			MaxBPM:  s.hrMax,
		}
	}
	return ls
}

// Timeline returns a copy of the retained frame results, oldest first.
func (s *Session) Timeline() []scoring.FrameResult {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]scoring.FrameResult, len(s.timeline))
	copy(out, s.timeline)
	return out
}

// DepthSeries returns a copy of the retained depth signal samples, aligned
// index-for-index with Timeline. Frames whose signal joints were occluded
// hold NaN so the series keeps its alignment. The monitor's depth charts and
// report plots read this.
func (s *Session) DepthSeries() []float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]float64, len(s.depths))
	copy(out, s.depths)
	return out
}

// End closes the session and returns the final summary. Idempotent: later
// calls return the same summary and later frames are ignored.
func (s *Session) End() Summary {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.ended {
		s.ended = true
		s.final = s.agg.summary(s.counter.State().RepCount)
	}
	return s.final
}
