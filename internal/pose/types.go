// Package pose defines the canonical representation of a detected body pose:
// named keypoints with normalised 2D coordinates and per-keypoint confidence.
// The engine consumes poses produced by an external pose-estimation model and
// never mutates them after construction.
package pose

// JointID identifies a single anatomical landmark.
type JointID string

// The fixed joint set. Matches the landmark set emitted by the upstream pose
// model (nose plus left/right shoulder, elbow, wrist, hip, knee, ankle, heel
// and foot index).
const (
	Nose           JointID = "nose"
	LeftShoulder   JointID = "left_shoulder"
	RightShoulder  JointID = "right_shoulder"
	LeftElbow      JointID = "left_elbow"
	RightElbow     JointID = "right_elbow"
	LeftWrist      JointID = "left_wrist"
	RightWrist     JointID = "right_wrist"
	LeftHip        JointID = "left_hip"
	RightHip       JointID = "right_hip"
	LeftKnee       JointID = "left_knee"
	RightKnee      JointID = "right_knee"
	LeftAnkle      JointID = "left_ankle"
	RightAnkle     JointID = "right_ankle"
	LeftHeel       JointID = "left_heel"
	RightHeel      JointID = "right_heel"
	LeftFootIndex  JointID = "left_foot_index"
	RightFootIndex JointID = "right_foot_index"
)

// AllJoints lists every known joint in canonical order. Pose iteration and
// serialisation follow this order so identical inputs produce identical
// output byte-for-byte.
var AllJoints = []JointID{
	Nose,
	LeftShoulder, RightShoulder,
	LeftElbow, RightElbow,
	LeftWrist, RightWrist,
	LeftHip, RightHip,
	LeftKnee, RightKnee,
	LeftAnkle, RightAnkle,
	LeftHeel, RightHeel,
	LeftFootIndex, RightFootIndex,
}

// IsValid reports whether j is one of the known joints.
func (j JointID) IsValid() bool {
	for _, known := range AllJoints {
		if j == known {
			return true
		}
	}
	return false
}

// Keypoint is a single detected landmark.
// X and Y are normalised to [0,1] relative to the frame dimensions, with Y
// increasing downward (image coordinates). Confidence is the detector's
// visibility estimate in [0,1].
type Keypoint struct {
	Joint      JointID `json:"joint"`
	X          float64 `json:"x"`
	Y          float64 `json:"y"`
	Confidence float64 `json:"confidence"`
}

// DefaultConfidenceThreshold is the keypoint confidence below which a joint
// is treated as absent. Overridable via the tuning config.
const DefaultConfidenceThreshold = 0.5
