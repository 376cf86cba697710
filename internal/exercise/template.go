// Package exercise holds the per-exercise form templates: correct-form angle
// ranges per movement phase, compensation rules, and the rep depth signal
// definition. Templates are static configuration, seeded at startup and
// immutable afterwards, so the registry needs no locking.
package exercise

import (
	"fmt"

	"github.com/kinetic-data/form.report/internal/geom"
	"github.com/kinetic-data/form.report/internal/pose"
)

// AngleRange is the correct-form band for one angle in one phase. A computed
// angle inside [Min,Max] scores 100; outside it decays linearly. Weight sets
// the angle's share of the phase total and only needs to be normalisable,
// the scorer divides by the sum of weights actually scored.
type AngleRange struct {
	Min    float64 `json:"min"`
	Max    float64 `json:"max"`
	Weight float64 `json:"weight"`
}

// Phase is one movement sub-stage (e.g. "top" or "bottom" of a squat) with
// its own angle ranges.
type Phase struct {
	Name        string                        `json:"name"`
	AngleRanges map[geom.AngleName]AngleRange `json:"angle_ranges"`
}

// CompensationRule detects a named deviation pattern at one joint. The rule
// fires when the angle's deviation from its template range exceeds Mild;
// severity is the highest threshold exceeded. Advice is the coaching
// sentence emitted in feedback notes when the rule fires.
type CompensationRule struct {
	Joint    pose.JointID   `json:"joint"`
	Angle    geom.AngleName `json:"angle"`
	Mild     float64        `json:"mild"`
	Moderate float64        `json:"moderate"`
	Severe   float64        `json:"severe"`
	Label    string         `json:"label"`
	Advice   string         `json:"advice"`
}

// RepSignalSpec derives the scalar depth signal driving rep counting: the
// mean of |Y(a)-Y(b)| over the joint pairs with both keypoints present.
// BottomThreshold and TopThreshold bound the hysteresis band and are in
// normalised image units, so 0.1 is a tenth of the frame height.
type RepSignalSpec struct {
	SignalJoints    [][2]pose.JointID `json:"signal_joints"`
	BottomThreshold float64           `json:"bottom_threshold"`
	TopThreshold    float64           `json:"top_threshold"`
}

// Template is the full form definition for one exercise.
type Template struct {
	ExerciseID        string             `json:"exercise_id"`
	Phases            []Phase            `json:"phases"`
	CompensationRules []CompensationRule `json:"compensation_rules"`
	RepSignal         RepSignalSpec      `json:"rep_signal"`
}

// Phase returns the named phase, or nil when the template has no phase with
// that name.
func (t *Template) Phase(name string) *Phase {
	for i := range t.Phases {
		if t.Phases[i].Name == name {
			return &t.Phases[i]
		}
	}
	return nil
}

// Validate checks a template for internal consistency. Called once at
// registry seed/load time so the scorer can assume well-formed templates.
func (t *Template) Validate() error {
	if t.ExerciseID == "" {
		return fmt.Errorf("template has empty exercise_id")
	}
	if len(t.Phases) == 0 {
		return fmt.Errorf("template %q has no phases", t.ExerciseID)
	}

	seen := make(map[string]bool, len(t.Phases))
	for _, ph := range t.Phases {
		if ph.Name == "" {
			return fmt.Errorf("template %q has a phase with empty name", t.ExerciseID)
		}
		if seen[ph.Name] {
			return fmt.Errorf("template %q has duplicate phase %q", t.ExerciseID, ph.Name)
		}
		seen[ph.Name] = true

		if len(ph.AngleRanges) == 0 {
			return fmt.Errorf("template %q phase %q has no angle ranges", t.ExerciseID, ph.Name)
		}
		var weightSum float64
		for name, r := range ph.AngleRanges {
			if _, ok := geom.Specs[name]; !ok {
				return fmt.Errorf("template %q phase %q references unknown angle %q", t.ExerciseID, ph.Name, name)
			}
			if r.Min < 0 || r.Max > 180 || r.Min > r.Max {
				return fmt.Errorf("template %q phase %q angle %q has invalid range [%v,%v]", t.ExerciseID, ph.Name, name, r.Min, r.Max)
			}
			if r.Weight < 0 {
				return fmt.Errorf("template %q phase %q angle %q has negative weight %v", t.ExerciseID, ph.Name, name, r.Weight)
			}
			weightSum += r.Weight
		}
		if weightSum <= 0 {
			return fmt.Errorf("template %q phase %q has zero total weight", t.ExerciseID, ph.Name)
		}
	}

	for _, rule := range t.CompensationRules {
		if rule.Label == "" {
			return fmt.Errorf("template %q has a compensation rule with empty label", t.ExerciseID)
		}
		if !rule.Joint.IsValid() {
			return fmt.Errorf("template %q rule %q has invalid joint %q", t.ExerciseID, rule.Label, rule.Joint)
		}
		if _, ok := geom.Specs[rule.Angle]; !ok {
			return fmt.Errorf("template %q rule %q references unknown angle %q", t.ExerciseID, rule.Label, rule.Angle)
		}
		if rule.Mild <= 0 || rule.Mild > rule.Moderate || rule.Moderate > rule.Severe {
			return fmt.Errorf("template %q rule %q has non-increasing thresholds %v/%v/%v",
				t.ExerciseID, rule.Label, rule.Mild, rule.Moderate, rule.Severe)
		}
	}

	if len(t.RepSignal.SignalJoints) == 0 {
		return fmt.Errorf("template %q has no rep signal joints", t.ExerciseID)
	}
	for _, pair := range t.RepSignal.SignalJoints {
		if !pair[0].IsValid() || !pair[1].IsValid() {
			return fmt.Errorf("template %q rep signal pair %v has invalid joint", t.ExerciseID, pair)
		}
	}
	if t.RepSignal.BottomThreshold >= t.RepSignal.TopThreshold {
		return fmt.Errorf("template %q rep thresholds leave no hysteresis band (bottom %v >= top %v)",
			t.ExerciseID, t.RepSignal.BottomThreshold, t.RepSignal.TopThreshold)
	}
	return nil
}
