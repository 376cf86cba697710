package reps

import (
	"sort"

	"gonum.org/v1/gonum/stat"
)

// Smoother defaults, matching the reference rep analyzer.
const (
	DefaultSmootherWindow = 5
	DefaultSmootherSigma  = 2.0
)

// Smoother is an optional median filter for the depth signal: keep a short
// window, drop samples more than sigma standard deviations from the window
// median, return the mean of the survivors. Composes in front of
// Counter.Update; sessions run unsmoothed unless tuning enables it.
type Smoother struct {
	window []float64
	size   int
	sigma  float64
}

// NewSmoother returns a smoother with the given window size and outlier
// sigma, substituting defaults for non-positive values.
func NewSmoother(window int, sigma float64) *Smoother {
	if window <= 0 {
		window = DefaultSmootherWindow
	}
	if sigma <= 0 {
		sigma = DefaultSmootherSigma
	}
	return &Smoother{
		window: make([]float64, 0, window),
		size:   window,
		sigma:  sigma,
	}
}

// Smooth folds one sample into the window and returns the filtered value.
// With fewer than three samples the raw value passes through unchanged, as
// does a sample whose whole window gets rejected as outliers.
func (s *Smoother) Smooth(sample float64) float64 {
	if len(s.window) == s.size {
		copy(s.window, s.window[1:])
		s.window[len(s.window)-1] = sample
	} else {
		s.window = append(s.window, sample)
	}
	if len(s.window) < 3 {
		return sample
	}

	med := median(s.window)
	std := stat.PopStdDev(s.window, nil)

	var kept []float64
	for _, v := range s.window {
		d := v - med
		if d < 0 {
			d = -d
		}
		if d <= s.sigma*std {
			kept = append(kept, v)
		}
	}
	if len(kept) == 0 {
		return sample
	}
	return stat.Mean(kept, nil)
}

// Reset clears the window, for reuse across sessions.
func (s *Smoother) Reset() {
	s.window = s.window[:0]
}

// median averages the two middle values on even-length input.
func median(xs []float64) float64 {
	sorted := make([]float64, len(xs))
	copy(sorted, xs)
	sort.Float64s(sorted)
	n := len(sorted)
	if n%2 == 1 {
		return sorted[n/2]
	}
	return (sorted[n/2-1] + sorted[n/2]) / 2
}
