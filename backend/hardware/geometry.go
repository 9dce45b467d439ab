package hardware

import (
	"sync"

	"github.com/chewxy/math32"

	"github.com/gogpu/splatview/internal/project"
)

// sqrt5 enlarges billboard triangles so the inscribed disc of the radial
// mask covers the splat radius.
const sqrt5 = 2.236068

// parallelEpsilon bounds |view x normal| relative to the view distance
// below which an ellipse degenerates to a billboard.
const parallelEpsilon = 1e-6

// basis holds the per-frame camera-facing directions in model space.
type basis struct {
	right   [3]float32
	upLeft  [3]float32
	lowLeft [3]float32
	ur      [3]float32
	lr      [3]float32
	camera  [3]float32
}

// newBasis derives billboard directions from the rows of a column-major
// model-view matrix.
func newBasis(m [16]float32) basis {
	right := [3]float32{m[0], m[4], m[8]}
	up := [3]float32{m[1], m[5], m[9]}
	return basis{
		right:   right,
		upLeft:  sub(up, right),
		lowLeft: sub(scale(up, -1), right),
		ur:      add(right, up),
		lr:      sub(right, up),
		camera:  project.CameraPosition(m),
	}
}

func add(a, b [3]float32) [3]float32 {
	return [3]float32{a[0] + b[0], a[1] + b[1], a[2] + b[2]}
}

func sub(a, b [3]float32) [3]float32 {
	return [3]float32{a[0] - b[0], a[1] - b[1], a[2] - b[2]}
}

func scale(a [3]float32, s float32) [3]float32 {
	return [3]float32{a[0] * s, a[1] * s, a[2] * s}
}

// madd returns a + s*b.
func madd(a [3]float32, s float32, b [3]float32) [3]float32 {
	return [3]float32{a[0] + s*b[0], a[1] + s*b[1], a[2] + s*b[2]}
}

func dot(a, b [3]float32) float32 {
	return a[0]*b[0] + a[1]*b[1] + a[2]*b[2]
}

func cross(a, b [3]float32) [3]float32 {
	return [3]float32{
		a[1]*b[2] - a[2]*b[1],
		a[2]*b[0] - a[0]*b[2],
		a[0]*b[1] - a[1]*b[0],
	}
}

func length(a [3]float32) float32 {
	return math32.Sqrt(dot(a, a))
}

// Sphere tessellation.
const (
	sphereSlices = 8
	sphereStacks = 8
)

// unitSphere returns the triangle list of a unit sphere. Positions double
// as normals.
var unitSphere = sync.OnceValue(func() [][3]float32 {
	at := func(stack, slice int) [3]float32 {
		sp, cp := math32.Sincos(math32.Pi * float32(stack) / sphereStacks)
		st, ct := math32.Sincos(2 * math32.Pi * float32(slice) / sphereSlices)
		if stack == 0 || stack == sphereStacks {
			sp = 0
		}
		return [3]float32{sp * ct, sp * st, cp}
	}
	var tris [][3]float32
	for i := range sphereStacks {
		for j := range sphereSlices {
			a, b := at(i, j), at(i+1, j)
			c, d := at(i+1, j+1), at(i, j+1)
			if i != 0 {
				tris = append(tris, a, b, d)
			}
			if i != sphereStacks-1 {
				tris = append(tris, d, b, c)
			}
		}
	}
	return tris
})
