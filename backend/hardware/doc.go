// Package hardware draws splats through a host graphics pipeline.
//
// A Backend turns each splat into point, triangle or sphere geometry for
// one of seven styles and streams the vertices into a Pipeline, opening a
// new primitive batch only when the topology, the textured flag or the
// point size changes. The Pipeline is supplied by the host: a window
// toolkit, a GPU device wrapper, or the Recorder used by tools and tests.
//
// Round styles clip triangles and points to a disc using a 64x64
// luminance-alpha mask (see RadialMask) and an alpha threshold of 0.5.
// The splat shader in shaders/splat.wgsl implements the same lighting as
// the software rasterizers and is compiled to SPIR-V with naga.
package hardware
