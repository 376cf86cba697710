package reps

import (
	"github.com/kinetic-data/form.report/internal/exercise"
	"github.com/kinetic-data/form.report/internal/geom"
	"github.com/kinetic-data/form.report/internal/pose"
)

// DepthSignal derives a frame's scalar rep depth from the template's signal
// joints: the mean of |Y(a)-Y(b)| over the pairs with both keypoints
// present. ok is false when no pair is measurable, which callers feed as
// present=false into Counter.Update so the machine freezes instead of
// reacting to a vanished signal.
func DepthSignal(p *pose.Pose, spec exercise.RepSignalSpec) (float64, bool) {
	var sum float64
	n := 0
	for _, pair := range spec.SignalJoints {
		d, ok := geom.VerticalDistance(p, pair[0], pair[1])
		if !ok {
			continue
		}
		sum += d
		n++
	}
	if n == 0 {
		return 0, false
	}
	return sum / float64(n), true
}
