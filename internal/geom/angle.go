// Package geom computes joint angles from pose keypoints. All functions are
// pure and safe for concurrent use across sessions.
package geom

import (
	"math"

	"github.com/kinetic-data/form.report/internal/pose"
)

// AngleName identifies a named joint angle (e.g. "left_knee_angle").
type AngleName string

// AngleSpec defines which three joints form a named angle: the angle is
// measured at Vertex between the rays toward From and To.
type AngleSpec struct {
	Vertex pose.JointID `json:"vertex"`
	From   pose.JointID `json:"from"`
	To     pose.JointID `json:"to"`
	Name   AngleName    `json:"name"`
}

// Canonical angle names used by the builtin templates.
const (
	LeftKneeAngle      AngleName = "left_knee_angle"
	RightKneeAngle     AngleName = "right_knee_angle"
	LeftHipAngle       AngleName = "left_hip_angle"
	RightHipAngle      AngleName = "right_hip_angle"
	LeftElbowAngle     AngleName = "left_elbow_angle"
	RightElbowAngle    AngleName = "right_elbow_angle"
	LeftShoulderAngle  AngleName = "left_shoulder_angle"
	RightShoulderAngle AngleName = "right_shoulder_angle"
	LeftAnkleAngle     AngleName = "left_ankle_angle"
	RightAnkleAngle    AngleName = "right_ankle_angle"
)

// Specs maps each canonical angle name to its joint triple. Knee angles sit
// between hip and ankle, hip angles between shoulder and knee, elbow angles
// between shoulder and wrist, shoulder angles between hip and elbow, ankle
// angles between knee and heel.
var Specs = map[AngleName]AngleSpec{
	LeftKneeAngle:      {Vertex: pose.LeftKnee, From: pose.LeftHip, To: pose.LeftAnkle, Name: LeftKneeAngle},
	RightKneeAngle:     {Vertex: pose.RightKnee, From: pose.RightHip, To: pose.RightAnkle, Name: RightKneeAngle},
	LeftHipAngle:       {Vertex: pose.LeftHip, From: pose.LeftShoulder, To: pose.LeftKnee, Name: LeftHipAngle},
	RightHipAngle:      {Vertex: pose.RightHip, From: pose.RightShoulder, To: pose.RightKnee, Name: RightHipAngle},
	LeftElbowAngle:     {Vertex: pose.LeftElbow, From: pose.LeftShoulder, To: pose.LeftWrist, Name: LeftElbowAngle},
	RightElbowAngle:    {Vertex: pose.RightElbow, From: pose.RightShoulder, To: pose.RightWrist, Name: RightElbowAngle},
	LeftShoulderAngle:  {Vertex: pose.LeftShoulder, From: pose.LeftHip, To: pose.LeftElbow, Name: LeftShoulderAngle},
	RightShoulderAngle: {Vertex: pose.RightShoulder, From: pose.RightHip, To: pose.RightElbow, Name: RightShoulderAngle},
	LeftAnkleAngle:     {Vertex: pose.LeftAnkle, From: pose.LeftKnee, To: pose.LeftHeel, Name: LeftAnkleAngle},
	RightAnkleAngle:    {Vertex: pose.RightAnkle, From: pose.RightKnee, To: pose.RightHeel, Name: RightAnkleAngle},
}

// cosEpsilon clamps the cosine argument so accumulated floating point error
// on collinear rays cannot push it outside [-1,1] and produce NaN.
const cosEpsilon = 1e-9

// ComputeAngle returns the angle in degrees at spec.Vertex between the rays
// toward spec.From and spec.To, in [0,180]. ok is false when any of the three
// keypoints is absent from the pose or either ray has zero length; callers
// must treat a missing angle as unscored, never as zero.
func ComputeAngle(p *pose.Pose, spec AngleSpec) (deg float64, ok bool) {
	vertex, okV := p.Get(spec.Vertex)
	from, okF := p.Get(spec.From)
	to, okT := p.Get(spec.To)
	if !okV || !okF || !okT {
		return 0, false
	}

	ax := from.X - vertex.X
	ay := from.Y - vertex.Y
	bx := to.X - vertex.X
	by := to.Y - vertex.Y

	na := math.Hypot(ax, ay)
	nb := math.Hypot(bx, by)
	if na == 0 || nb == 0 {
		// Coincident keypoints give no direction to measure against.
		return 0, false
	}

	cos := (ax*bx + ay*by) / (na * nb)
	if cos > 1-cosEpsilon {
		cos = 1
	} else if cos < -(1 - cosEpsilon) {
		cos = -1
	}

	return math.Acos(cos) * 180 / math.Pi, true
}

// VerticalDistance returns |a.Y - b.Y| for the two joints, the scalar used
// to derive rep depth signals. ok is false when either joint is absent.
func VerticalDistance(p *pose.Pose, a, b pose.JointID) (float64, bool) {
	ka, okA := p.Get(a)
	kb, okB := p.Get(b)
	if !okA || !okB {
		return 0, false
	}
	return math.Abs(ka.Y - kb.Y), true
}
