package geom

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kinetic-data/form.report/internal/pose"
)

func mustPose(t *testing.T, kps []pose.Keypoint) *pose.Pose {
	t.Helper()
	p, err := pose.New(kps, 0.95, -1)
	require.NoError(t, err)
	return p
}

func TestComputeAngle(t *testing.T) {
	t.Parallel()

	t.Run("right angle", func(t *testing.T) {
		t.Parallel()
		p := mustPose(t, []pose.Keypoint{
			{Joint: pose.LeftHip, X: 0.5, Y: 0.2, Confidence: 0.9},
			{Joint: pose.LeftKnee, X: 0.5, Y: 0.5, Confidence: 0.9},
			{Joint: pose.LeftAnkle, X: 0.8, Y: 0.5, Confidence: 0.9},
		})
		deg, ok := ComputeAngle(p, Specs[LeftKneeAngle])
		require.True(t, ok)
		assert.InDelta(t, 90.0, deg, 1e-9)
	})

	t.Run("straight limb is 180", func(t *testing.T) {
		t.Parallel()
		p := mustPose(t, []pose.Keypoint{
			{Joint: pose.LeftHip, X: 0.5, Y: 0.2, Confidence: 0.9},
			{Joint: pose.LeftKnee, X: 0.5, Y: 0.5, Confidence: 0.9},
			{Joint: pose.LeftAnkle, X: 0.5, Y: 0.8, Confidence: 0.9},
		})
		deg, ok := ComputeAngle(p, Specs[LeftKneeAngle])
		require.True(t, ok)
		assert.InDelta(t, 180.0, deg, 1e-9)
	})

	t.Run("folded limb is near zero", func(t *testing.T) {
		t.Parallel()
		p := mustPose(t, []pose.Keypoint{
			{Joint: pose.LeftShoulder, X: 0.5, Y: 0.2, Confidence: 0.9},
			{Joint: pose.LeftElbow, X: 0.5, Y: 0.5, Confidence: 0.9},
			{Joint: pose.LeftWrist, X: 0.5, Y: 0.21, Confidence: 0.9},
		})
		deg, ok := ComputeAngle(p, Specs[LeftElbowAngle])
		require.True(t, ok)
		assert.InDelta(t, 0.0, deg, 1e-9)
	})

	t.Run("result always finite and within range", func(t *testing.T) {
		t.Parallel()
		// Sweep the ankle around the knee; every angle must land in [0,180]
		// with no NaN from acos domain error on collinear rays.
		for i := 0; i < 360; i++ {
			theta := float64(i) * math.Pi / 180
			p := mustPose(t, []pose.Keypoint{
				{Joint: pose.LeftHip, X: 0.5, Y: 0.1, Confidence: 0.9},
				{Joint: pose.LeftKnee, X: 0.5, Y: 0.5, Confidence: 0.9},
				{Joint: pose.LeftAnkle, X: 0.5 + 0.3*math.Cos(theta), Y: 0.5 + 0.3*math.Sin(theta), Confidence: 0.9},
			})
			deg, ok := ComputeAngle(p, Specs[LeftKneeAngle])
			require.True(t, ok, "iteration %d", i)
			assert.False(t, math.IsNaN(deg), "iteration %d", i)
			assert.GreaterOrEqual(t, deg, 0.0, "iteration %d", i)
			assert.LessOrEqual(t, deg, 180.0, "iteration %d", i)
		}
	})

	t.Run("missing vertex yields no angle", func(t *testing.T) {
		t.Parallel()
		p := mustPose(t, []pose.Keypoint{
			{Joint: pose.LeftHip, X: 0.5, Y: 0.2, Confidence: 0.9},
			{Joint: pose.LeftAnkle, X: 0.8, Y: 0.5, Confidence: 0.9},
		})
		_, ok := ComputeAngle(p, Specs[LeftKneeAngle])
		assert.False(t, ok)
	})

	t.Run("low-confidence endpoint yields no angle", func(t *testing.T) {
		t.Parallel()
		p := mustPose(t, []pose.Keypoint{
			{Joint: pose.LeftHip, X: 0.5, Y: 0.2, Confidence: 0.9},
			{Joint: pose.LeftKnee, X: 0.5, Y: 0.5, Confidence: 0.9},
			{Joint: pose.LeftAnkle, X: 0.8, Y: 0.5, Confidence: 0.2},
		})
		_, ok := ComputeAngle(p, Specs[LeftKneeAngle])
		assert.False(t, ok)
	})

	t.Run("coincident keypoints yield no angle", func(t *testing.T) {
		t.Parallel()
		p := mustPose(t, []pose.Keypoint{
			{Joint: pose.LeftHip, X: 0.5, Y: 0.5, Confidence: 0.9},
			{Joint: pose.LeftKnee, X: 0.5, Y: 0.5, Confidence: 0.9},
			{Joint: pose.LeftAnkle, X: 0.8, Y: 0.5, Confidence: 0.9},
		})
		_, ok := ComputeAngle(p, Specs[LeftKneeAngle])
		assert.False(t, ok)
	})
}

func TestSpecsCoverBothSides(t *testing.T) {
	t.Parallel()

	assert.Len(t, Specs, 10)
	for name, spec := range Specs {
		assert.Equal(t, name, spec.Name)
		assert.True(t, spec.Vertex.IsValid(), "vertex of %s", name)
		assert.True(t, spec.From.IsValid(), "from of %s", name)
		assert.True(t, spec.To.IsValid(), "to of %s", name)
	}
}

func TestVerticalDistance(t *testing.T) {
	t.Parallel()

	p := mustPose(t, []pose.Keypoint{
		{Joint: pose.LeftHip, X: 0.5, Y: 0.3, Confidence: 0.9},
		{Joint: pose.LeftAnkle, X: 0.5, Y: 0.9, Confidence: 0.9},
	})

	t.Run("absolute difference", func(t *testing.T) {
		t.Parallel()
		d, ok := VerticalDistance(p, pose.LeftHip, pose.LeftAnkle)
		require.True(t, ok)
		assert.InDelta(t, 0.6, d, 1e-9)

		rev, ok := VerticalDistance(p, pose.LeftAnkle, pose.LeftHip)
		require.True(t, ok)
		assert.Equal(t, d, rev)
	})

	t.Run("missing joint", func(t *testing.T) {
		t.Parallel()
		_, ok := VerticalDistance(p, pose.LeftHip, pose.RightAnkle)
		assert.False(t, ok)
	})
}
