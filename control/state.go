package control

import "fmt"

// State is the refinement state of a Controller.
type State uint8

const (
	// StateIdle means the model is fully refined.
	StateIdle State = iota
	// StateInteracting means input is in progress.
	StateInteracting
	// StateSettling means input stopped and the settle delay is running.
	StateSettling
	// StateRefining means the model is adding detail between frames.
	StateRefining
)

var stateNames = [...]string{
	StateIdle:        "Idle",
	StateInteracting: "Interacting",
	StateSettling:    "Settling",
	StateRefining:    "Refining",
}

// String returns the state name.
func (s State) String() string {
	if int(s) < len(stateNames) {
		return stateNames[s]
	}
	return fmt.Sprintf("State(%d)", s)
}

// refining reports whether frames are refinement passes, which skip the
// rate correction.
func (s State) refining() bool {
	return s == StateRefining || s == StateIdle
}

// Overlay is the visibility of an on-screen indicator.
type Overlay uint8

const (
	// OverlayOff hides the indicator until it is triggered again.
	OverlayOff Overlay = iota
	// OverlayOn shows the indicator until its timeout.
	OverlayOn
	// OverlayNever disables the indicator.
	OverlayNever
)
