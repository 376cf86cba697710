package reps

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSmootherPassthroughBelowThreeSamples(t *testing.T) {
	t.Parallel()
	s := NewSmoother(5, 2.0)
	assert.Equal(t, 0.5, s.Smooth(0.5))
	assert.Equal(t, 0.9, s.Smooth(0.9))
}

func TestSmootherRejectsSpike(t *testing.T) {
	t.Parallel()
	s := NewSmoother(5, 2.0)
	s.Smooth(0.5)
	s.Smooth(0.5)

	// Window [0.5, 0.5, 5.0]: the spike sits beyond two standard deviations
	// of the median and is dropped from the mean.
	assert.InDelta(t, 0.5, s.Smooth(5.0), 1e-9)
}

func TestSmootherStableSignalUnchanged(t *testing.T) {
	t.Parallel()
	s := NewSmoother(5, 2.0)
	for i := 0; i < 10; i++ {
		assert.InDelta(t, 0.42, s.Smooth(0.42), 1e-9)
	}
}

func TestSmootherTracksLevelShift(t *testing.T) {
	t.Parallel()
	s := NewSmoother(5, 2.0)
	for i := 0; i < 5; i++ {
		s.Smooth(1.0)
	}

	// A genuine level change is resisted at first and adopted once it
	// dominates the window.
	assert.InDelta(t, 1.0, s.Smooth(2.0), 1e-9)
	assert.InDelta(t, 1.0, s.Smooth(2.0), 1e-9)
	assert.InDelta(t, 2.0, s.Smooth(2.0), 1e-9)
}

func TestSmootherReset(t *testing.T) {
	t.Parallel()
	s := NewSmoother(5, 2.0)
	for i := 0; i < 5; i++ {
		s.Smooth(1.0)
	}
	s.Reset()
	assert.Equal(t, 7.0, s.Smooth(7.0), "post-reset samples pass through")
}

func TestSmootherDefaults(t *testing.T) {
	t.Parallel()
	s := NewSmoother(0, 0)
	assert.Equal(t, DefaultSmootherWindow, s.size)
	assert.Equal(t, DefaultSmootherSigma, s.sigma)
}
