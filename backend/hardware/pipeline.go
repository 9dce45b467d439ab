package hardware

import (
	"github.com/gogpu/gputypes"
)

// Vertex is one pipeline vertex.
type Vertex struct {
	Position [3]float32
	Normal   [3]float32
	Color    [3]float32
	UV       [2]float32
}

// vertexStride is the size of Vertex in bytes.
const vertexStride = 11 * 4

// Material is the per-frame shading state.
type Material struct {
	// Transform is the column-major projection times model-view matrix.
	Transform [16]float32

	// VertexColor is true when Vertex.Color carries the splat color.
	// Otherwise every vertex carries Diffuse.
	VertexColor bool
	Diffuse     [3]float32

	// Light is the directional light in model space.
	Light [3]float32

	// Mask clips textured primitives. It is nil for styles without
	// textured geometry.
	Mask           *Mask
	AlphaThreshold float32

	// RoundPoints asks for smoothed, disc-shaped points.
	RoundPoints bool
}

// Pipeline receives batched geometry from a Backend.
//
// Begin and End bracket one batch; vertices between them share the
// topology, the textured flag and the last point size. Finish ends the
// frame.
type Pipeline interface {
	// MaxPointSize is the largest point size the device rasterizes.
	MaxPointSize() float32

	SetMaterial(m Material)
	SetPointSize(size float32)

	Begin(topology gputypes.PrimitiveTopology, textured bool)
	Vertex(v Vertex)
	End()

	Finish()
}

// VertexLayout describes Vertex for a render pipeline.
func VertexLayout() gputypes.VertexBufferLayout {
	return gputypes.VertexBufferLayout{
		ArrayStride: vertexStride,
		StepMode:    gputypes.VertexStepModeVertex,
		Attributes: []gputypes.VertexAttribute{
			{Format: gputypes.VertexFormatFloat32x3, Offset: 0, ShaderLocation: 0},
			{Format: gputypes.VertexFormatFloat32x3, Offset: 12, ShaderLocation: 1},
			{Format: gputypes.VertexFormatFloat32x3, Offset: 24, ShaderLocation: 2},
			{Format: gputypes.VertexFormatFloat32x2, Offset: 36, ShaderLocation: 3},
		},
	}
}

// PrimitiveState returns the primitive state for a batch topology.
// Splats are two-sided unless cull is set.
func PrimitiveState(topology gputypes.PrimitiveTopology, cull bool) gputypes.PrimitiveState {
	mode := gputypes.CullModeNone
	if cull {
		mode = gputypes.CullModeBack
	}
	return gputypes.PrimitiveState{
		Topology:  topology,
		FrontFace: gputypes.FrontFaceCCW,
		CullMode:  mode,
	}
}
