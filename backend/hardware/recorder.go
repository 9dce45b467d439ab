package hardware

import (
	"github.com/gogpu/gputypes"
)

// DefaultMaxPointSize is the Recorder's point size limit when none is set.
const DefaultMaxPointSize = 64

// Batch is one recorded Begin/End envelope.
type Batch struct {
	Topology  gputypes.PrimitiveTopology
	Textured  bool
	PointSize float32
	Vertices  []Vertex
}

// Recorder is a Pipeline that keeps the last frame's batches in memory.
// The first Begin after Finish starts a new frame.
//
// Recorder is NOT safe for concurrent use.
type Recorder struct {
	// MaxPoint overrides DefaultMaxPointSize when positive.
	MaxPoint float32

	material  Material
	pointSize float32
	batches   []Batch
	open      bool
	finished  bool
	frames    int
}

// MaxPointSize implements Pipeline.
func (r *Recorder) MaxPointSize() float32 {
	if r.MaxPoint > 0 {
		return r.MaxPoint
	}
	return DefaultMaxPointSize
}

// SetMaterial implements Pipeline.
func (r *Recorder) SetMaterial(m Material) {
	r.startFrame()
	r.material = m
}

// SetPointSize implements Pipeline.
func (r *Recorder) SetPointSize(size float32) {
	r.pointSize = size
}

// Begin implements Pipeline.
func (r *Recorder) Begin(topology gputypes.PrimitiveTopology, textured bool) {
	r.startFrame()
	r.batches = append(r.batches, Batch{
		Topology:  topology,
		Textured:  textured,
		PointSize: r.pointSize,
	})
	r.open = true
}

// Vertex implements Pipeline.
func (r *Recorder) Vertex(v Vertex) {
	if !r.open {
		return
	}
	b := &r.batches[len(r.batches)-1]
	b.Vertices = append(b.Vertices, v)
}

// End implements Pipeline.
func (r *Recorder) End() {
	r.open = false
}

// Finish implements Pipeline.
func (r *Recorder) Finish() {
	r.open = false
	r.finished = true
	r.frames++
}

func (r *Recorder) startFrame() {
	if r.finished {
		r.batches = r.batches[:0]
		r.finished = false
	}
}

// Material returns the material set for the current frame.
func (r *Recorder) Material() Material {
	return r.material
}

// Batches returns the recorded batches of the current or last frame.
func (r *Recorder) Batches() []Batch {
	return r.batches
}

// Frames returns the number of finished frames.
func (r *Recorder) Frames() int {
	return r.frames
}

// Vertices returns the total vertex count across batches.
func (r *Recorder) Vertices() int {
	n := 0
	for i := range r.batches {
		n += len(r.batches[i].Vertices)
	}
	return n
}
