// Package session tracks live scoring sessions and folds per-frame results
// into end-of-session summaries. The fold itself is a pure reduction; the
// Session and Manager types wrap it with the locking the transport layer
// needs when HTTP and UDP deliver frames concurrently.
package session

import (
	"sort"

	"gonum.org/v1/gonum/stat"

	"github.com/kinetic-data/form.report/internal/scoring"
)

// LabelCount is one compensation label with its frame frequency.
type LabelCount struct {
	Label string `json:"label"`
	Count int    `json:"count"`
}

// ScoreDistribution buckets scored frames by quality.
type ScoreDistribution struct {
	Excellent int `json:"excellent"`
	Good      int `json:"good"`
	NeedsWork int `json:"needs_work"`
}

// Summary is the end-of-session rollup. Score statistics cover frames that
// recorded a score (ScoredRatio > 0); FrameCount covers every folded frame,
// so the gap between FrameCount and the distribution total is the number of
// fully unscored frames.
type Summary struct {
	FrameCount        int               `json:"frame_count"`
	MeanScore         float64           `json:"mean_score"`
	MedianScore       float64           `json:"median_score"`
	P10Score          float64           `json:"p10_score"`
	ScoreDistribution ScoreDistribution `json:"score_distribution"`
	RepCount          uint32            `json:"rep_count"`
	TopCompensations  []LabelCount      `json:"top_compensations"`
}

// FoldConfig holds the aggregation tunables.
type FoldConfig struct {
	// ExcellentMin and GoodMin bound the distribution buckets: scores at or
	// above ExcellentMin are excellent, at or above GoodMin are good, the
	// rest need work.
	ExcellentMin float64
	GoodMin      float64
	// TopCompensationLimit caps the TopCompensations list.
	TopCompensationLimit int
}

// DefaultFoldConfig returns the standard aggregation tuning.
func DefaultFoldConfig() FoldConfig {
	return FoldConfig{
		ExcellentMin:         scoring.ExcellentScore,
		GoodMin:              scoring.FairScore,
		TopCompensationLimit: 5,
	}
}

// Fold reduces a result slice to a summary with the default tuning. Pure and
// idempotent; an empty slice yields the zero-value summary.
func Fold(results []scoring.FrameResult, finalRepCount uint32) Summary {
	return FoldWith(DefaultFoldConfig(), results, finalRepCount)
}

// FoldWith is Fold with explicit tuning.
func FoldWith(cfg FoldConfig, results []scoring.FrameResult, finalRepCount uint32) Summary {
	agg := newAggregator(cfg)
	for i := range results {
		agg.add(&results[i])
	}
	return agg.summary(finalRepCount)
}

// aggregator is the streaming form of the fold: the Session feeds it one
// frame at a time, and FoldWith drives it over a complete slice. Both paths
// share it so the streaming summary is exactly the fold of the same frames.
type aggregator struct {
	cfg         FoldConfig
	frameCount  int
	scores      []float64
	dist        ScoreDistribution
	labelCounts map[string]int
	labelOrder  []string
}

func newAggregator(cfg FoldConfig) *aggregator {
	if cfg.TopCompensationLimit <= 0 {
		cfg.TopCompensationLimit = DefaultFoldConfig().TopCompensationLimit
	}
	if cfg.ExcellentMin <= 0 {
		cfg.ExcellentMin = DefaultFoldConfig().ExcellentMin
	}
	if cfg.GoodMin <= 0 {
		cfg.GoodMin = DefaultFoldConfig().GoodMin
	}
	return &aggregator{
		cfg:         cfg,
		labelCounts: make(map[string]int),
	}
}

func (a *aggregator) add(res *scoring.FrameResult) {
	a.frameCount++
	if res.ScoredRatio > 0 {
		a.scores = append(a.scores, res.TotalScore)
		switch {
		case res.TotalScore >= a.cfg.ExcellentMin:
			a.dist.Excellent++
		case res.TotalScore >= a.cfg.GoodMin:
			a.dist.Good++
		default:
			a.dist.NeedsWork++
		}
	}
	for _, ev := range res.Compensations {
		if a.labelCounts[ev.Label] == 0 {
			a.labelOrder = append(a.labelOrder, ev.Label)
		}
		a.labelCounts[ev.Label]++
	}
}

func (a *aggregator) summary(finalRepCount uint32) Summary {
	s := Summary{
		FrameCount:        a.frameCount,
		ScoreDistribution: a.dist,
		RepCount:          finalRepCount,
		TopCompensations:  []LabelCount{},
	}

	if len(a.scores) > 0 {
		s.MeanScore = stat.Mean(a.scores, nil)
		sorted := make([]float64, len(a.scores))
		copy(sorted, a.scores)
		sort.Float64s(sorted)
		s.MedianScore = stat.Quantile(0.5, stat.Empirical, sorted, nil)
		s.P10Score = stat.Quantile(0.1, stat.Empirical, sorted, nil)
	}

	// Rank labels by frequency; ties keep first-seen order.
	ranked := make([]LabelCount, 0, len(a.labelOrder))
	for _, label := range a.labelOrder {
		ranked = append(ranked, LabelCount{Label: label, Count: a.labelCounts[label]})
	}
	sort.SliceStable(ranked, func(i, j int) bool { return ranked[i].Count > ranked[j].Count })
	if len(ranked) > a.cfg.TopCompensationLimit {
		ranked = ranked[:a.cfg.TopCompensationLimit]
	}
	s.TopCompensations = append(s.TopCompensations, ranked...)
	return s
}

// runningMean is the mean of scored frames so far, for live state reporting.
func (a *aggregator) runningMean() float64 {
	if len(a.scores) == 0 {
		return 0
	}
	return stat.Mean(a.scores, nil)
}
