// Package testutil provides shared test utilities and fixtures.
//
// This package centralises common test helpers to reduce code duplication
// across test files and improve test maintainability.
package testutil

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/kinetic-data/form.report/internal/pose"
)

// AssertStatusCode checks that the response status code matches expected.
func AssertStatusCode(t *testing.T, got, want int) {
	t.Helper()
	if got != want {
		t.Errorf("status code = %d, want %d", got, want)
	}
}

// AssertNoError fails the test if err is not nil.
func AssertNoError(t *testing.T, err error) {
	t.Helper()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

// AssertError fails the test if err is nil.
func AssertError(t *testing.T, err error) {
	t.Helper()
	if err == nil {
		t.Fatal("expected error, got nil")
	}
}

// NewTestRequest creates a test HTTP request.
func NewTestRequest(method, path string) *http.Request {
	return httptest.NewRequest(method, path, nil)
}

// NewTestRecorder creates a test response recorder.
func NewTestRecorder() *httptest.ResponseRecorder {
	return httptest.NewRecorder()
}

// Keypoint returns a fully confident keypoint at the given position.
func Keypoint(joint pose.JointID, x, y float64) pose.Keypoint {
	return pose.Keypoint{Joint: joint, X: x, Y: y, Confidence: 1.0}
}

// MustPose builds a pose from the given keypoints, failing the test on error.
func MustPose(t *testing.T, kps []pose.Keypoint) *pose.Pose {
	t.Helper()
	p, err := pose.New(kps, 1.0, -1)
	if err != nil {
		t.Fatalf("failed to build pose: %v", err)
	}
	return p
}

// StandingKeypoints returns a full 17-joint figure standing upright in
// normalised image coordinates (y grows downward). Knees and hips are
// fully extended at 180 degrees and the hip-to-knee drop is 0.20, so the
// figure sits in the top phase of the builtin squat template.
func StandingKeypoints() []pose.Keypoint {
	return []pose.Keypoint{
		Keypoint(pose.Nose, 0.50, 0.12),
		Keypoint(pose.LeftShoulder, 0.45, 0.20),
		Keypoint(pose.RightShoulder, 0.55, 0.20),
		Keypoint(pose.LeftElbow, 0.43, 0.32),
		Keypoint(pose.RightElbow, 0.57, 0.32),
		Keypoint(pose.LeftWrist, 0.43, 0.44),
		Keypoint(pose.RightWrist, 0.57, 0.44),
		Keypoint(pose.LeftHip, 0.45, 0.45),
		Keypoint(pose.RightHip, 0.55, 0.45),
		Keypoint(pose.LeftKnee, 0.45, 0.65),
		Keypoint(pose.RightKnee, 0.55, 0.65),
		Keypoint(pose.LeftAnkle, 0.45, 0.85),
		Keypoint(pose.RightAnkle, 0.55, 0.85),
		Keypoint(pose.LeftHeel, 0.44, 0.87),
		Keypoint(pose.RightHeel, 0.56, 0.87),
		Keypoint(pose.LeftFootIndex, 0.48, 0.87),
		Keypoint(pose.RightFootIndex, 0.52, 0.87),
	}
}

// SquatBottomKeypoints returns a full 17-joint figure at the bottom of a
// squat. Knee angles are 90 degrees, hip angles about 45 degrees, and the
// hip-to-knee drop is 0.058, inside the bottom band of the builtin squat
// template.
func SquatBottomKeypoints() []pose.Keypoint {
	return []pose.Keypoint{
		Keypoint(pose.Nose, 0.777, 0.314),
		Keypoint(pose.LeftShoulder, 0.727, 0.394),
		Keypoint(pose.RightShoulder, 0.737, 0.394),
		Keypoint(pose.LeftElbow, 0.827, 0.414),
		Keypoint(pose.RightElbow, 0.837, 0.414),
		Keypoint(pose.LeftWrist, 0.927, 0.424),
		Keypoint(pose.RightWrist, 0.937, 0.424),
		Keypoint(pose.LeftHip, 0.500, 0.500),
		Keypoint(pose.RightHip, 0.510, 0.500),
		Keypoint(pose.LeftKnee, 0.660, 0.558),
		Keypoint(pose.RightKnee, 0.670, 0.558),
		Keypoint(pose.LeftAnkle, 0.602, 0.718),
		Keypoint(pose.RightAnkle, 0.612, 0.718),
		Keypoint(pose.LeftHeel, 0.592, 0.738),
		Keypoint(pose.RightHeel, 0.602, 0.738),
		Keypoint(pose.LeftFootIndex, 0.642, 0.738),
		Keypoint(pose.RightFootIndex, 0.652, 0.738),
	}
}
