package testutil

import (
	"errors"
	"math"
	"net/http"
	"testing"

	"github.com/kinetic-data/form.report/internal/geom"
	"github.com/kinetic-data/form.report/internal/pose"
)

// TestAssertStatusCode verifies that AssertStatusCode executes without panicking.
// Note: Testing t.Errorf/t.Fatalf calls requires a mock testing.T implementation
// which adds complexity. These helpers are best validated through integration
// tests where they're actually used.
func TestAssertStatusCode(t *testing.T) {
	t.Parallel()

	// Verify the function executes without panicking for matching codes
	// We can't easily verify failure behavior without a mock T
	AssertStatusCode(t, http.StatusOK, http.StatusOK)
	AssertStatusCode(t, http.StatusNotFound, http.StatusNotFound)
}

func TestAssertNoError(t *testing.T) {
	t.Parallel()

	// Verify nil error doesn't cause issues
	AssertNoError(t, nil)
}

func TestAssertError(t *testing.T) {
	t.Parallel()

	// Verify non-nil error is handled correctly
	AssertError(t, errors.New("test error"))
}

func TestNewTestRequest(t *testing.T) {
	t.Parallel()

	req := NewTestRequest("GET", "/test")
	if req.Method != "GET" {
		t.Errorf("method = %s, want GET", req.Method)
	}
	if req.URL.Path != "/test" {
		t.Errorf("path = %s, want /test", req.URL.Path)
	}
}

func TestNewTestRecorder(t *testing.T) {
	t.Parallel()

	rec := NewTestRecorder()
	if rec == nil {
		t.Fatal("recorder is nil")
	}
	if rec.Code != http.StatusOK {
		t.Errorf("initial Code = %d, want %d", rec.Code, http.StatusOK)
	}
}

func mustAngle(t *testing.T, p *pose.Pose, name geom.AngleName) float64 {
	t.Helper()
	deg, ok := geom.ComputeAngle(p, geom.Specs[name])
	if !ok {
		t.Fatalf("angle %s not computable", name)
	}
	return deg
}

func TestStandingKeypoints(t *testing.T) {
	t.Parallel()

	kps := StandingKeypoints()
	if len(kps) != len(pose.AllJoints) {
		t.Fatalf("keypoint count = %d, want %d", len(kps), len(pose.AllJoints))
	}
	p := MustPose(t, kps)

	// Legs fully extended
	for _, name := range []geom.AngleName{
		geom.LeftKneeAngle, geom.RightKneeAngle,
		geom.LeftHipAngle, geom.RightHipAngle,
	} {
		if deg := mustAngle(t, p, name); math.Abs(deg-180) > 0.5 {
			t.Errorf("%s = %f, want ~180", name, deg)
		}
	}

	// Hip-to-knee drop above the squat top threshold
	depth, ok := geom.VerticalDistance(p, pose.LeftHip, pose.LeftKnee)
	if !ok {
		t.Fatal("depth not measurable")
	}
	if math.Abs(depth-0.20) > 1e-9 {
		t.Errorf("depth = %f, want 0.20", depth)
	}
}

func TestSquatBottomKeypoints(t *testing.T) {
	t.Parallel()

	kps := SquatBottomKeypoints()
	if len(kps) != len(pose.AllJoints) {
		t.Fatalf("keypoint count = %d, want %d", len(kps), len(pose.AllJoints))
	}
	p := MustPose(t, kps)

	for _, name := range []geom.AngleName{geom.LeftKneeAngle, geom.RightKneeAngle} {
		if deg := mustAngle(t, p, name); math.Abs(deg-90) > 0.5 {
			t.Errorf("%s = %f, want ~90", name, deg)
		}
	}
	for _, name := range []geom.AngleName{geom.LeftHipAngle, geom.RightHipAngle} {
		deg := mustAngle(t, p, name)
		if deg < 40 || deg > 50 {
			t.Errorf("%s = %f, want within [40, 50]", name, deg)
		}
	}

	// Hip-to-knee drop below the squat bottom threshold
	depth, ok := geom.VerticalDistance(p, pose.LeftHip, pose.LeftKnee)
	if !ok {
		t.Fatal("depth not measurable")
	}
	if depth > 0.08 {
		t.Errorf("depth = %f, want <= 0.08", depth)
	}
}
