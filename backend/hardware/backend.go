package hardware

import (
	"errors"

	"github.com/chewxy/math32"
	"github.com/gogpu/gputypes"

	"github.com/gogpu/splatview"
	"github.com/gogpu/splatview/internal/project"
	"github.com/gogpu/splatview/pixel"
)

// ErrNoPipeline is returned by Begin when the backend has no Pipeline.
var ErrNoPipeline = errors.New("hardware: no pipeline")

// Backend turns splats into pipeline geometry in one Style.
//
// Backend is NOT safe for concurrent use.
type Backend struct {
	pipe  Pipeline
	style Style

	basis     basis
	threshold float32
	maxPoint  float32
	ellipse   float32
	hasColor  bool
	active    bool

	// Current batch.
	open      bool
	topology  gputypes.PrimitiveTopology
	textured  bool
	pointSize int

	splatted int
	batches  int
}

// New returns a backend drawing style into p.
func New(p Pipeline, style Style) *Backend {
	return &Backend{pipe: p, style: style, pointSize: -1}
}

// Style returns the backend's style.
func (b *Backend) Style() Style {
	return b.style
}

// Begin implements splatview.Backend.
func (b *Backend) Begin(view splatview.View, hasColor bool) error {
	if b.pipe == nil {
		return ErrNoPipeline
	}
	b.basis = newBasis(view.ModelView)
	b.maxPoint = max(b.pipe.MaxPointSize(), 1)
	b.threshold = 0
	if b.style == StylePoints || b.style == StylePointsRound {
		b.threshold = b.maxPoint
	}
	b.ellipse = sqrt5
	if b.style == StyleEllipsesSmall {
		b.ellipse = 1
	}
	b.hasColor = hasColor
	b.open = false
	b.pointSize = -1
	b.splatted = 0
	b.batches = 0

	m := Material{
		Transform:   project.Mul(view.Projection, view.ModelView),
		VertexColor: hasColor,
		Diffuse:     [3]float32{pixel.DefaultGray, pixel.DefaultGray, pixel.DefaultGray},
		Light:       project.Normalize(project.LightToModel(view.Light, view.ModelView)),
		RoundPoints: b.style == StylePointsRound,
	}
	if b.style.Textured() {
		m.Mask = RadialMask()
		m.AlphaThreshold = AlphaThreshold
	}
	b.pipe.SetMaterial(m)
	b.active = true
	return nil
}

// Emit implements splatview.Backend.
func (b *Backend) Emit(s *splatview.Splat) {
	if !b.active {
		return
	}
	switch b.style {
	case StylePoints, StylePointsRound, StyleQuads, StylePolysRound:
		switch {
		case s.Size <= b.threshold:
			b.point(s)
		case b.style == StylePoints || b.style == StyleQuads:
			b.quad(s)
		default:
			b.billboard(s, s.Radius*sqrt5)
		}
	case StyleEllipses, StyleEllipsesSmall:
		b.ellipseTriangle(s)
	case StyleSpheres:
		b.sphere(s)
	}
	b.splatted++
}

// End implements splatview.Backend. Hardware frames draw immediately, so
// End only closes the open batch and never aborts.
func (b *Backend) End(bailed bool, _ splatview.CancelFunc) bool {
	if !b.active {
		return false
	}
	if b.open {
		b.pipe.End()
		b.open = false
	}
	b.pipe.Finish()
	b.active = false
	splatview.Logger().Debug("hardware: frame finished",
		"style", b.style, "splats", b.splatted, "batches", b.batches, "bailed", bailed)
	return false
}

// Splatted implements splatview.Backend.
func (b *Backend) Splatted() int {
	return b.splatted
}

// Batches returns the number of batches opened since Begin.
func (b *Backend) Batches() int {
	return b.batches
}

// ensure opens a batch for the given state unless the open one matches.
// Point size only matters for point batches.
func (b *Backend) ensure(topology gputypes.PrimitiveTopology, textured bool, size int) {
	points := topology == gputypes.PrimitiveTopologyPointList
	if b.open && b.topology == topology && b.textured == textured &&
		(!points || b.pointSize == size) {
		return
	}
	if b.open {
		b.pipe.End()
	}
	if points && size != b.pointSize {
		b.pipe.SetPointSize(float32(size))
		b.pointSize = size
	}
	b.pipe.Begin(topology, textured)
	b.open = true
	b.topology = topology
	b.textured = textured
	b.batches++
}

func (b *Backend) vertex(s *splatview.Splat, pos, normal [3]float32, u, v float32) {
	c := [3]float32{pixel.DefaultGray, pixel.DefaultGray, pixel.DefaultGray}
	if b.hasColor {
		c = s.Color
	}
	b.pipe.Vertex(Vertex{Position: pos, Normal: normal, Color: c, UV: [2]float32{u, v}})
}

func (b *Backend) point(s *splatview.Splat) {
	size := int(s.Size + 0.99)
	size = min(max(size, 1), int(b.maxPoint))
	b.ensure(gputypes.PrimitiveTopologyPointList, false, size)
	b.vertex(s, s.Center, s.Normal, 0, 0)
}

func (b *Backend) quad(s *splatview.Splat) {
	b.ensure(gputypes.PrimitiveTopologyTriangleList, false, 0)
	c, r := s.Center, s.Radius
	p0 := madd(c, r, b.basis.ur)
	p1 := madd(c, -r, b.basis.lr)
	p2 := madd(c, -r, b.basis.ur)
	p3 := madd(c, r, b.basis.lr)
	for _, p := range [6][3]float32{p0, p1, p2, p0, p2, p3} {
		b.vertex(s, p, s.Normal, 0, 0)
	}
}

// billboard emits one masked camera-facing triangle scaled by k.
func (b *Backend) billboard(s *splatview.Splat, k float32) {
	b.ensure(gputypes.PrimitiveTopologyTriangleList, true, 0)
	c := s.Center
	b.vertex(s, madd(c, k, b.basis.right), s.Normal, 1, 0.5)
	b.vertex(s, madd(c, k, b.basis.upLeft), s.Normal, 0, 1)
	b.vertex(s, madd(c, k, b.basis.lowLeft), s.Normal, 0, 0)
}

// ellipseTriangle emits one masked triangle in the splat's tangent plane,
// with both axes projected onto the plane facing the camera.
func (b *Backend) ellipseTriangle(s *splatview.Splat) {
	c := s.Center
	toCam := sub(b.basis.camera, c)
	x := cross(toCam, s.Normal)
	lx := length(x)
	dist2 := dot(toCam, toCam)
	if lx <= parallelEpsilon*math32.Sqrt(dist2) {
		b.billboard(s, s.Radius*b.ellipse)
		return
	}
	y := cross(s.Normal, x)

	inv := 1 / dist2
	x = madd(x, -dot(x, toCam)*inv, toCam)
	y = madd(y, -dot(y, toCam)*inv, toCam)

	k := s.Radius * b.ellipse / lx
	b.ensure(gputypes.PrimitiveTopologyTriangleList, true, 0)
	b.vertex(s, madd(c, k, x), s.Normal, 1, 0.5)
	b.vertex(s, madd(c, -k, sub(x, y)), s.Normal, 0, 1)
	b.vertex(s, madd(c, -k, add(x, y)), s.Normal, 0, 0)
}

func (b *Backend) sphere(s *splatview.Splat) {
	b.ensure(gputypes.PrimitiveTopologyTriangleList, false, 0)
	for _, n := range unitSphere() {
		b.vertex(s, madd(s.Center, s.Radius, n), n, 0, 0)
	}
}
