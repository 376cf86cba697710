// Package scoring turns a pose and an exercise template into a per-frame
// form score with compensation events and coaching feedback. Scoring is pure
// computation: no I/O, no clock, no state, so one Scorer may be shared across
// sessions and called concurrently.
package scoring

import (
	"time"

	"github.com/kinetic-data/form.report/internal/geom"
	"github.com/kinetic-data/form.report/internal/pose"
)

// Severity grades a compensation event by how far the angle deviated.
type Severity string

const (
	SeverityMild     Severity = "mild"
	SeverityModerate Severity = "moderate"
	SeveritySevere   Severity = "severe"
)

// rank orders severities for feedback sorting; higher is worse.
func (s Severity) rank() int {
	switch s {
	case SeveritySevere:
		return 3
	case SeverityModerate:
		return 2
	case SeverityMild:
		return 1
	}
	return 0
}

// CompensationEvent records one fired compensation rule: a named deviation
// pattern at a joint, at the highest severity threshold exceeded. At most one
// event per rule per frame.
type CompensationEvent struct {
	Joint        pose.JointID `json:"joint"`
	Label        string       `json:"label"`
	Severity     Severity     `json:"severity"`
	DeviationDeg float64      `json:"deviation_deg"`
}

// FrameResult is the full scoring output for one frame. Immutable once
// returned; owned by the caller. ScoredRatio is scored angles over total
// angles in the active phase, so consumers can discount frames scored from a
// partially occluded pose. A fully unscored frame reports TotalScore 0 with
// ScoredRatio 0, never a substituted value.
type FrameResult struct {
	Timestamp     time.Time                  `json:"timestamp"`
	TotalScore    float64                    `json:"total_score"`
	AngleScores   map[geom.AngleName]float64 `json:"angle_scores"`
	ScoredRatio   float64                    `json:"scored_ratio"`
	Compensations []CompensationEvent        `json:"compensations"`
	FeedbackNotes []string                   `json:"feedback_notes"`
}

// Score quality boundaries, shared with the session distribution buckets.
const (
	ExcellentScore = 90.0
	GoodScore      = 80.0
	FairScore      = 70.0
)

// QualityLabel buckets a score into the coaching vocabulary used in feedback
// summaries and session verdicts.
func QualityLabel(score float64) string {
	switch {
	case score >= ExcellentScore:
		return "excellent"
	case score >= GoodScore:
		return "good"
	case score >= FairScore:
		return "fair"
	default:
		return "poor"
	}
}
