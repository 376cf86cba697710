package scoring

import (
	"fmt"
	"math"
	"sort"
	"strings"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"github.com/kinetic-data/form.report/internal/exercise"
	"github.com/kinetic-data/form.report/internal/geom"
	"github.com/kinetic-data/form.report/internal/pose"
)

// Config holds the scorer tunables. Zero values fall back to defaults so a
// zero Config is usable.
type Config struct {
	// MaxDeviationDeg is the deviation at which a per-angle score reaches 0.
	MaxDeviationDeg float64
	// FeedbackLimit caps the deviation notes appended after the summary line.
	FeedbackLimit int
}

// DefaultConfig returns the standard scorer tuning.
func DefaultConfig() Config {
	return Config{
		MaxDeviationDeg: 45,
		FeedbackLimit:   3,
	}
}

// Scorer scores frames against exercise templates. Stateless; safe for
// concurrent use across sessions.
type Scorer struct {
	cfg Config
}

// NewScorer returns a Scorer with the given tuning, substituting defaults
// for unset fields.
func NewScorer(cfg Config) *Scorer {
	def := DefaultConfig()
	if cfg.MaxDeviationDeg <= 0 {
		cfg.MaxDeviationDeg = def.MaxDeviationDeg
	}
	if cfg.FeedbackLimit <= 0 {
		cfg.FeedbackLimit = def.FeedbackLimit
	}
	return &Scorer{cfg: cfg}
}

const unscoredNote = "No scorable joints visible, adjust position or camera framing"

// Score evaluates one pose against the named phase of a template.
//
// Angles whose keypoints are absent are excluded from both numerator and
// denominator rather than penalised, with the loss of coverage reported via
// ScoredRatio. An unknown phase name scores as an empty phase; the registry
// validates phase names at load time, so that only arises from caller error.
func (s *Scorer) Score(p *pose.Pose, tpl *exercise.Template, activePhase string) FrameResult {
	res := FrameResult{
		AngleScores:   make(map[geom.AngleName]float64),
		Compensations: []CompensationEvent{},
		FeedbackNotes: []string{},
	}

	ph := tpl.Phase(activePhase)
	if ph == nil {
		res.FeedbackNotes = append(res.FeedbackNotes, unscoredNote)
		return res
	}

	// Step 1: compute each angle in the active phase. Names are sorted so
	// identical input always yields identical output.
	names := make([]geom.AngleName, 0, len(ph.AngleRanges))
	for name := range ph.AngleRanges {
		names = append(names, name)
	}
	sort.Slice(names, func(i, j int) bool { return names[i] < names[j] })

	angles := make(map[geom.AngleName]float64, len(names))
	deviations := make(map[geom.AngleName]float64, len(names))
	var scores, weights []float64
	for _, name := range names {
		r := ph.AngleRanges[name]
		deg, ok := geom.ComputeAngle(p, geom.Specs[name])
		if !ok {
			continue
		}
		angles[name] = deg
		dev := rangeDeviation(deg, r)
		deviations[name] = dev

		// Step 2: 100 inside the band, linear decay to 0 at the cutoff.
		score := s.angleScore(dev)
		res.AngleScores[name] = score
		scores = append(scores, score)
		weights = append(weights, r.Weight)
	}

	res.ScoredRatio = float64(len(scores)) / float64(len(ph.AngleRanges))
	if len(scores) == 0 {
		// Step 3, degenerate case: nothing scored reports 0, never a
		// substituted or random value.
		res.FeedbackNotes = append(res.FeedbackNotes, unscoredNote)
		return res
	}

	// Step 3: weight-normalised mean. Scored angles carrying zero total
	// weight fall back to the unweighted mean.
	if floats.Sum(weights) > 0 {
		res.TotalScore = stat.Mean(scores, weights)
	} else {
		res.TotalScore = stat.Mean(scores, nil)
	}

	// Step 4: compensation rules fire once each at the highest severity
	// exceeded, in template order.
	type candidate struct {
		text    string
		sevRank int
		dev     float64
		order   int
	}
	var candidates []candidate
	ruled := make(map[geom.AngleName]bool)
	for i, rule := range tpl.CompensationRules {
		dev, computed := deviations[rule.Angle]
		if !computed || dev <= rule.Mild {
			continue
		}
		sev := SeverityMild
		switch {
		case dev > rule.Severe:
			sev = SeveritySevere
		case dev > rule.Moderate:
			sev = SeverityModerate
		}
		res.Compensations = append(res.Compensations, CompensationEvent{
			Joint:        rule.Joint,
			Label:        rule.Label,
			Severity:     sev,
			DeviationDeg: dev,
		})
		ruled[rule.Angle] = true
		candidates = append(candidates, candidate{text: rule.Advice, sevRank: sev.rank(), dev: dev, order: i})
	}

	// Step 5: feedback notes. Summary line first, then the worst deviations,
	// advice sentences before generic range notes.
	for i, name := range names {
		dev := deviations[name]
		if dev <= 0 || ruled[name] {
			continue
		}
		r := ph.AngleRanges[name]
		text := fmt.Sprintf("%s at %.0f°, target %.0f-%.0f°", angleLabel(name), angles[name], r.Min, r.Max)
		candidates = append(candidates, candidate{text: text, dev: dev, order: len(tpl.CompensationRules) + i})
	}
	sort.Slice(candidates, func(i, j int) bool {
		a, b := candidates[i], candidates[j]
		if a.sevRank != b.sevRank {
			return a.sevRank > b.sevRank
		}
		if a.dev != b.dev {
			return a.dev > b.dev
		}
		return a.order < b.order
	})

	summary := fmt.Sprintf("Form score %d, %s", int(math.Round(res.TotalScore)), QualityLabel(res.TotalScore))
	res.FeedbackNotes = append(res.FeedbackNotes, summary)
	seen := make(map[string]bool)
	added := 0
	for _, c := range candidates {
		if added == s.cfg.FeedbackLimit {
			break
		}
		if seen[c.text] {
			continue
		}
		seen[c.text] = true
		res.FeedbackNotes = append(res.FeedbackNotes, c.text)
		added++
	}
	return res
}

// angleScore maps a range deviation to [0,100].
func (s *Scorer) angleScore(dev float64) float64 {
	if dev <= 0 {
		return 100
	}
	if dev >= s.cfg.MaxDeviationDeg {
		return 0
	}
	return 100 * (1 - dev/s.cfg.MaxDeviationDeg)
}

// rangeDeviation is the distance of deg outside [r.Min, r.Max], 0 inside.
func rangeDeviation(deg float64, r exercise.AngleRange) float64 {
	switch {
	case deg < r.Min:
		return r.Min - deg
	case deg > r.Max:
		return deg - r.Max
	}
	return 0
}

// angleLabel turns "left_knee_angle" into "left knee" for feedback text.
func angleLabel(name geom.AngleName) string {
	s := strings.TrimSuffix(string(name), "_angle")
	return strings.ReplaceAll(s, "_", " ")
}
