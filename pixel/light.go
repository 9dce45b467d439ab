package pixel

import "github.com/chewxy/math32"

// Shading constants for the flat directional light used by the software
// rasterizers.
const (
	Ambient = 0.05
	Diffuse = 0.85

	// DefaultGray is the albedo of splats without color.
	DefaultGray = 0.9
)

// Lighting returns the ambient-plus-diffuse intensity for a unit normal
// under a unit directional light. Back-facing normals get ambient only.
func Lighting(normal, light [3]float32) float32 {
	d := normal[0]*light[0] + normal[1]*light[1] + normal[2]*light[2]
	return Ambient + Diffuse*math32.Max(d, 0)
}

// Shade packs a lit splat color. Uncolored splats use DefaultGray.
func (l Layout) Shade(lighting float32, rgb [3]float32, hasColor bool) uint32 {
	if !hasColor {
		g := lighting * DefaultGray
		return l.Pack(g, g, g)
	}
	return l.Pack(lighting*rgb[0], lighting*rgb[1], lighting*rgb[2])
}
