// Package reps counts exercise repetitions from a scalar depth signal using
// a hysteresis state machine: two thresholds bound a dead band so signal
// jitter between them can never double-count a rep.
package reps

// Phase is the movement phase reported to consumers. The machine anchors on
// Top or Bottom; Transitioning is reported while the last signal sits
// strictly inside the hysteresis band.
type Phase string

const (
	PhaseTop           Phase = "top"
	PhaseBottom        Phase = "bottom"
	PhaseTransitioning Phase = "transitioning"
)

// Config holds the hysteresis thresholds in normalised signal units. Callers
// take them from a validated template's RepSignalSpec, so BottomThreshold <
// TopThreshold holds.
type Config struct {
	BottomThreshold float64
	TopThreshold    float64
}

// State is a snapshot of the counter after an update. Anchor is always Top
// or Bottom and selects the template phase a frame is scored against; Phase
// adds the in-band Transitioning for display.
type State struct {
	Phase      Phase   `json:"phase"`
	Anchor     Phase   `json:"anchor"`
	RepCount   uint32  `json:"rep_count"`
	LastSignal float64 `json:"last_signal"`
}

// Counter is the per-session rep state machine. One instance per active
// session, mutated by exactly one goroutine; the session layer serialises
// access.
type Counter struct {
	cfg        Config
	anchor     Phase
	reported   Phase
	repStarted bool
	repCount   uint32
	lastSignal float64
}

// NewCounter returns a counter anchored at Top with zero reps.
func NewCounter(cfg Config) *Counter {
	return &Counter{
		cfg:      cfg,
		anchor:   PhaseTop,
		reported: PhaseTop,
	}
}

// Update advances the machine with one frame's depth signal and returns the
// resulting state.
//
// present=false freezes the machine for the frame: occluded keypoints must
// never force a transition, so state and LastSignal stay untouched. A rep is
// counted exactly once per full Top to Bottom to Top cycle; a session ending
// mid-cycle never counts the partial rep. There are no timeouts, a rep may
// take arbitrarily long.
func (c *Counter) Update(signal float64, present bool) State {
	if !present {
		return c.State()
	}

	switch {
	case signal <= c.cfg.BottomThreshold:
		if c.anchor == PhaseTop {
			c.anchor = PhaseBottom
			c.repStarted = true
		}
		c.reported = PhaseBottom
	case signal >= c.cfg.TopThreshold:
		if c.anchor == PhaseBottom && c.repStarted {
			c.repCount++
			c.repStarted = false
			c.anchor = PhaseTop
		}
		c.reported = PhaseTop
	default:
		// Strictly inside the band: no anchor change.
		c.reported = PhaseTransitioning
	}
	c.lastSignal = signal
	return c.State()
}

// State returns the current snapshot without advancing the machine.
func (c *Counter) State() State {
	return State{
		Phase:      c.reported,
		Anchor:     c.anchor,
		RepCount:   c.repCount,
		LastSignal: c.lastSignal,
	}
}
