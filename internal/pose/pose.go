package pose

import (
	"fmt"
	"math"
)

// MalformedPoseError reports invalid numeric input in a pose under
// construction: NaN or infinite values anywhere, negative coordinates, or a
// confidence outside [0,1]. The frame carrying the pose should be skipped;
// the session is unaffected.
type MalformedPoseError struct {
	Joint JointID // offending joint, or "" for the pose-level confidence
	Field string  // "x", "y", "confidence" or "pose_confidence"
	Value float64
}

func (e *MalformedPoseError) Error() string {
	if e.Joint == "" {
		return fmt.Sprintf("malformed pose: %s = %v", e.Field, e.Value)
	}
	return fmt.Sprintf("malformed pose: %s %s = %v", e.Joint, e.Field, e.Value)
}

// Pose is the full set of keypoints observed in one frame, plus the model's
// whole-pose confidence. Immutable once constructed.
type Pose struct {
	keypoints  map[JointID]Keypoint
	confidence float64
	threshold  float64
}

// New validates the given keypoints and builds a Pose. Keypoints for unknown
// joints are rejected; duplicate joints keep the last occurrence. threshold
// is the per-keypoint confidence floor below which Get reports the joint as
// absent; pass a negative value to use DefaultConfidenceThreshold.
func New(keypoints []Keypoint, poseConfidence, threshold float64) (*Pose, error) {
	if threshold < 0 {
		threshold = DefaultConfidenceThreshold
	}
	if !isFinite(poseConfidence) || poseConfidence < 0 || poseConfidence > 1 {
		return nil, &MalformedPoseError{Field: "pose_confidence", Value: poseConfidence}
	}

	kps := make(map[JointID]Keypoint, len(keypoints))
	for _, kp := range keypoints {
		if !kp.Joint.IsValid() {
			return nil, fmt.Errorf("unknown joint %q", kp.Joint)
		}
		if !isFinite(kp.X) || kp.X < 0 {
			return nil, &MalformedPoseError{Joint: kp.Joint, Field: "x", Value: kp.X}
		}
		if !isFinite(kp.Y) || kp.Y < 0 {
			return nil, &MalformedPoseError{Joint: kp.Joint, Field: "y", Value: kp.Y}
		}
		if !isFinite(kp.Confidence) || kp.Confidence < 0 || kp.Confidence > 1 {
			return nil, &MalformedPoseError{Joint: kp.Joint, Field: "confidence", Value: kp.Confidence}
		}
		kps[kp.Joint] = kp
	}

	return &Pose{keypoints: kps, confidence: poseConfidence, threshold: threshold}, nil
}

// isFinite reports whether v is neither NaN nor ±Inf.
func isFinite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

// Get returns the keypoint for the given joint. ok is false when the joint
// was not observed or its confidence is below the pose's threshold; callers
// must treat such joints as absent, not as zero.
func (p *Pose) Get(joint JointID) (Keypoint, bool) {
	kp, present := p.keypoints[joint]
	if !present || kp.Confidence < p.threshold {
		return Keypoint{}, false
	}
	return kp, true
}

// Confidence returns the whole-pose confidence reported by the detector.
func (p *Pose) Confidence() float64 {
	return p.confidence
}

// Threshold returns the per-keypoint confidence floor in effect.
func (p *Pose) Threshold() float64 {
	return p.threshold
}

// Len returns the number of observed keypoints, present or not.
func (p *Pose) Len() int {
	return len(p.keypoints)
}

// Keypoints returns the observed keypoints in canonical joint order. The
// returned slice is a copy; mutating it does not affect the pose.
func (p *Pose) Keypoints() []Keypoint {
	out := make([]Keypoint, 0, len(p.keypoints))
	for _, j := range AllJoints {
		if kp, ok := p.keypoints[j]; ok {
			out = append(out, kp)
		}
	}
	return out
}
