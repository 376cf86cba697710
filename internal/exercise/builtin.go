package exercise

import (
	"github.com/kinetic-data/form.report/internal/geom"
	"github.com/kinetic-data/form.report/internal/pose"
)

// Canonical phase names shared with the rep state machine: the machine's
// anchor phase selects which template phase a frame is scored against.
const (
	PhaseTop    = "top"
	PhaseBottom = "bottom"
)

// Compensation pattern labels used by the builtin templates.
const (
	LabelKneeValgus  = "knee_valgus"
	LabelForwardLean = "forward_lean"
	LabelElbowFlare  = "elbow_flare"
	LabelHipSag      = "hip_sag"
	LabelTorsoLean   = "torso_lean"
)

// builtinTemplates returns the exercises seeded into every registry. Angle
// bands follow the reference coaching data: squat bottom knee 85-95 and hip
// 40-50, push-up bottom elbow 85-95 with shoulder tucked 15-25, lunge knees
// 85-95 over hip 45-55. Severity tiers are 10/20/30 degrees of deviation.
// Rep thresholds are in normalised image units (fractions of frame height).
func builtinTemplates() []*Template {
	return []*Template{
		{
			ExerciseID: "squat",
			Phases: []Phase{
				{
					Name: PhaseTop,
					AngleRanges: map[geom.AngleName]AngleRange{
						geom.LeftKneeAngle:  {Min: 160, Max: 180, Weight: 1.0},
						geom.RightKneeAngle: {Min: 160, Max: 180, Weight: 1.0},
						geom.LeftHipAngle:   {Min: 160, Max: 180, Weight: 0.8},
						geom.RightHipAngle:  {Min: 160, Max: 180, Weight: 0.8},
					},
				},
				{
					Name: PhaseBottom,
					AngleRanges: map[geom.AngleName]AngleRange{
						geom.LeftKneeAngle:  {Min: 85, Max: 95, Weight: 1.0},
						geom.RightKneeAngle: {Min: 85, Max: 95, Weight: 1.0},
						geom.LeftHipAngle:   {Min: 40, Max: 50, Weight: 0.8},
						geom.RightHipAngle:  {Min: 40, Max: 50, Weight: 0.8},
					},
				},
			},
			CompensationRules: []CompensationRule{
				{Joint: pose.LeftKnee, Angle: geom.LeftKneeAngle, Mild: 10, Moderate: 20, Severe: 30,
					Label: LabelKneeValgus, Advice: "Knees caving inward, push your knees out over your toes"},
				{Joint: pose.RightKnee, Angle: geom.RightKneeAngle, Mild: 10, Moderate: 20, Severe: 30,
					Label: LabelKneeValgus, Advice: "Knees caving inward, push your knees out over your toes"},
				{Joint: pose.LeftHip, Angle: geom.LeftHipAngle, Mild: 10, Moderate: 20, Severe: 30,
					Label: LabelForwardLean, Advice: "Excessive forward lean, keep your chest up"},
				{Joint: pose.RightHip, Angle: geom.RightHipAngle, Mild: 10, Moderate: 20, Severe: 30,
					Label: LabelForwardLean, Advice: "Excessive forward lean, keep your chest up"},
			},
			RepSignal: RepSignalSpec{
				SignalJoints: [][2]pose.JointID{
					{pose.LeftHip, pose.LeftKnee},
					{pose.RightHip, pose.RightKnee},
				},
				BottomThreshold: 0.08,
				TopThreshold:    0.18,
			},
		},
		{
			ExerciseID: "push_up",
			Phases: []Phase{
				{
					Name: PhaseTop,
					AngleRanges: map[geom.AngleName]AngleRange{
						geom.LeftElbowAngle:     {Min: 160, Max: 180, Weight: 1.0},
						geom.RightElbowAngle:    {Min: 160, Max: 180, Weight: 1.0},
						geom.LeftShoulderAngle:  {Min: 0, Max: 20, Weight: 0.6},
						geom.RightShoulderAngle: {Min: 0, Max: 20, Weight: 0.6},
						geom.LeftHipAngle:       {Min: 160, Max: 180, Weight: 0.4},
						geom.RightHipAngle:      {Min: 160, Max: 180, Weight: 0.4},
					},
				},
				{
					Name: PhaseBottom,
					AngleRanges: map[geom.AngleName]AngleRange{
						geom.LeftElbowAngle:     {Min: 85, Max: 95, Weight: 1.0},
						geom.RightElbowAngle:    {Min: 85, Max: 95, Weight: 1.0},
						geom.LeftShoulderAngle:  {Min: 15, Max: 25, Weight: 0.6},
						geom.RightShoulderAngle: {Min: 15, Max: 25, Weight: 0.6},
						geom.LeftHipAngle:       {Min: 160, Max: 180, Weight: 0.4},
						geom.RightHipAngle:      {Min: 160, Max: 180, Weight: 0.4},
					},
				},
			},
			CompensationRules: []CompensationRule{
				{Joint: pose.LeftShoulder, Angle: geom.LeftShoulderAngle, Mild: 10, Moderate: 20, Severe: 30,
					Label: LabelElbowFlare, Advice: "Elbows flaring out, tuck them closer to your body"},
				{Joint: pose.RightShoulder, Angle: geom.RightShoulderAngle, Mild: 10, Moderate: 20, Severe: 30,
					Label: LabelElbowFlare, Advice: "Elbows flaring out, tuck them closer to your body"},
				{Joint: pose.LeftHip, Angle: geom.LeftHipAngle, Mild: 10, Moderate: 20, Severe: 30,
					Label: LabelHipSag, Advice: "Hips sagging, keep your body in a straight line"},
				{Joint: pose.RightHip, Angle: geom.RightHipAngle, Mild: 10, Moderate: 20, Severe: 30,
					Label: LabelHipSag, Advice: "Hips sagging, keep your body in a straight line"},
			},
			RepSignal: RepSignalSpec{
				SignalJoints: [][2]pose.JointID{
					{pose.LeftShoulder, pose.LeftWrist},
					{pose.RightShoulder, pose.RightWrist},
				},
				BottomThreshold: 0.06,
				TopThreshold:    0.14,
			},
		},
		{
			ExerciseID: "lunge",
			Phases: []Phase{
				{
					Name: PhaseTop,
					AngleRanges: map[geom.AngleName]AngleRange{
						geom.LeftKneeAngle:  {Min: 160, Max: 180, Weight: 1.0},
						geom.RightKneeAngle: {Min: 160, Max: 180, Weight: 1.0},
						geom.LeftHipAngle:   {Min: 160, Max: 180, Weight: 0.6},
						geom.RightHipAngle:  {Min: 160, Max: 180, Weight: 0.6},
					},
				},
				{
					Name: PhaseBottom,
					AngleRanges: map[geom.AngleName]AngleRange{
						geom.LeftKneeAngle:  {Min: 85, Max: 95, Weight: 1.0},
						geom.RightKneeAngle: {Min: 85, Max: 95, Weight: 1.0},
						geom.LeftHipAngle:   {Min: 45, Max: 55, Weight: 0.6},
						geom.RightHipAngle:  {Min: 45, Max: 55, Weight: 0.6},
					},
				},
			},
			CompensationRules: []CompensationRule{
				{Joint: pose.LeftKnee, Angle: geom.LeftKneeAngle, Mild: 10, Moderate: 20, Severe: 30,
					Label: LabelKneeValgus, Advice: "Knees caving inward, push your knees out over your toes"},
				{Joint: pose.RightKnee, Angle: geom.RightKneeAngle, Mild: 10, Moderate: 20, Severe: 30,
					Label: LabelKneeValgus, Advice: "Knees caving inward, push your knees out over your toes"},
				{Joint: pose.LeftHip, Angle: geom.LeftHipAngle, Mild: 10, Moderate: 20, Severe: 30,
					Label: LabelTorsoLean, Advice: "Torso leaning forward, stay tall through the lunge"},
				{Joint: pose.RightHip, Angle: geom.RightHipAngle, Mild: 10, Moderate: 20, Severe: 30,
					Label: LabelTorsoLean, Advice: "Torso leaning forward, stay tall through the lunge"},
			},
			RepSignal: RepSignalSpec{
				SignalJoints: [][2]pose.JointID{
					{pose.LeftHip, pose.LeftKnee},
					{pose.RightHip, pose.RightKnee},
				},
				BottomThreshold: 0.06,
				TopThreshold:    0.16,
			},
		},
	}
}
