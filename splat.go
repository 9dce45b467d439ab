package splatview

// Splat is one surface sample drawn as a disc or ellipse. Splats are
// produced by a Model during traversal and consumed by a Backend within
// the same frame; backends must not retain the pointer past Emit.
type Splat struct {
	// Center is the world-space position.
	Center [3]float32
	// Radius is the world-space radius.
	Radius float32
	// Size is the on-screen diameter in pixels.
	Size float32
	// Normal is the unit surface normal.
	Normal [3]float32
	// Color is the linear RGB color in [0, 1]. Ignored unless HasColor.
	Color    [3]float32
	HasColor bool
}

// View is the camera state for one frame. Matrices are column-major,
// matching the layout used by GPU shading languages.
type View struct {
	Projection [16]float32
	ModelView  [16]float32

	// Width and Height are the viewport size in pixels.
	Width, Height int

	// Light is the directional light in eye space.
	Light [3]float32
}

// Identity returns a 4x4 identity matrix.
func Identity() [16]float32 {
	return [16]float32{
		1, 0, 0, 0,
		0, 1, 0, 0,
		0, 0, 1, 0,
		0, 0, 0, 1,
	}
}

// CancelFunc reports whether the current frame should be abandoned.
// It is polled at coarse granularity by long-running passes.
type CancelFunc func() bool

// Backend draws splats for one frame at a time.
//
// A frame is a Begin call, zero or more Emit calls, and one End call.
// Per-frame resources acquired in Begin are released in End whether or
// not the frame bailed. Backends are not safe for concurrent use.
type Backend interface {
	// Begin prepares per-frame state from the camera view.
	Begin(view View, hasColor bool) error

	// Emit draws exactly one splat.
	Emit(s *Splat)

	// End finishes the frame. When bailed is true, in-progress output is
	// discarded. Backends with a deferred pass poll cancel during it and
	// return true when that pass was abandoned.
	End(bailed bool, cancel CancelFunc) (aborted bool)

	// Splatted returns the number of splats accepted since Begin.
	Splatted() int
}

// Model is a hierarchical splat tree with a feedback-driven level of detail.
type Model interface {
	// Draw traverses the tree, calling emit once per visible splat. It
	// polls cancel and returns true when traversal bailed early.
	Draw(emit func(*Splat), cancel CancelFunc) (bailed bool)

	// HasColor reports whether splats carry per-sample color.
	HasColor() bool

	// MinSize is the current finest splat footprint in pixels.
	MinSize() float32

	// Coarsest reports whether the level of detail is at its coarsest.
	Coarsest() bool

	// Refine performs one incremental add-detail step.
	Refine()
	StartRefine()
	StopRefine()
	CanRefine() bool

	// ResetRate restores the default level of detail.
	ResetRate()

	// AdjustRate applies a multiplicative level-of-detail correction.
	// Factors above 1 coarsen the model, factors below 1 refine it.
	AdjustRate(factor float32)
}
