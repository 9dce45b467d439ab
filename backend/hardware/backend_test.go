package hardware

import (
	"errors"
	"testing"

	"github.com/chewxy/math32"
	"github.com/gogpu/gputypes"

	"github.com/gogpu/splatview"
)

// testView looks down -Z from the origin.
func testView() splatview.View {
	return splatview.View{
		Projection: splatview.Identity(),
		ModelView:  splatview.Identity(),
		Width:      64,
		Height:     64,
		Light:      [3]float32{0, 0, 2},
	}
}

func begin(t *testing.T, p Pipeline, style Style, hasColor bool) *Backend {
	t.Helper()
	b := New(p, style)
	if err := b.Begin(testView(), hasColor); err != nil {
		t.Fatalf("Begin() error = %v", err)
	}
	return b
}

func sized(size float32) *splatview.Splat {
	return &splatview.Splat{
		Center: [3]float32{0, 0, -5},
		Radius: 1,
		Size:   size,
		Normal: [3]float32{0, 0, 1},
	}
}

func near(a, b [3]float32) bool {
	for i := range a {
		if math32.Abs(a[i]-b[i]) > 1e-5 {
			return false
		}
	}
	return true
}

// TestPointsBatching verifies batches only change with topology or point size.
func TestPointsBatching(t *testing.T) {
	rec := &Recorder{MaxPoint: 8}
	b := begin(t, rec, StylePoints, false)

	for _, size := range []float32{2, 2.5, 3, 20, 20, 2} {
		b.Emit(sized(size))
	}
	if aborted := b.End(false, nil); aborted {
		t.Error("End() aborted = true, want false")
	}

	want := []struct {
		topology gputypes.PrimitiveTopology
		size     float32
		vertices int
	}{
		{gputypes.PrimitiveTopologyPointList, 2, 1},
		{gputypes.PrimitiveTopologyPointList, 3, 2},
		{gputypes.PrimitiveTopologyTriangleList, 3, 12},
		{gputypes.PrimitiveTopologyPointList, 2, 1},
	}
	got := rec.Batches()
	if len(got) != len(want) {
		t.Fatalf("len(Batches()) = %d, want %d", len(got), len(want))
	}
	for i, w := range want {
		if got[i].Topology != w.topology {
			t.Errorf("batch %d Topology = %v, want %v", i, got[i].Topology, w.topology)
		}
		if got[i].PointSize != w.size {
			t.Errorf("batch %d PointSize = %v, want %v", i, got[i].PointSize, w.size)
		}
		if len(got[i].Vertices) != w.vertices {
			t.Errorf("batch %d vertices = %d, want %d", i, len(got[i].Vertices), w.vertices)
		}
	}
	if b.Batches() != 4 {
		t.Errorf("Batches() = %d, want 4", b.Batches())
	}
	if b.Splatted() != 6 {
		t.Errorf("Splatted() = %d, want 6", b.Splatted())
	}
	if rec.Frames() != 1 {
		t.Errorf("Frames() = %d, want 1", rec.Frames())
	}
}

// TestPointSizeClamp verifies point sizes stay within the device limit.
func TestPointSizeClamp(t *testing.T) {
	tests := []struct {
		name string
		max  float32
		size float32
		want float32
	}{
		{"round up", 8, 2.1, 3},
		{"clamped to max", 3.5, 3.2, 3},
		{"at least one", 8, 0, 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := &Recorder{MaxPoint: tt.max}
			b := begin(t, rec, StylePoints, false)
			b.Emit(sized(tt.size))
			b.End(false, nil)

			got := rec.Batches()
			if len(got) != 1 || got[0].Topology != gputypes.PrimitiveTopologyPointList {
				t.Fatalf("Batches() = %+v, want one point batch", got)
			}
			if got[0].PointSize != tt.want {
				t.Errorf("PointSize = %v, want %v", got[0].PointSize, tt.want)
			}
		})
	}
}

// TestStyleGeometry verifies the primitive each style draws above the
// point threshold.
func TestStyleGeometry(t *testing.T) {
	tests := []struct {
		style    Style
		size     float32
		topology gputypes.PrimitiveTopology
		textured bool
		vertices int
	}{
		{StylePoints, 100, gputypes.PrimitiveTopologyTriangleList, false, 6},
		{StylePointsRound, 4, gputypes.PrimitiveTopologyPointList, false, 1},
		{StylePointsRound, 100, gputypes.PrimitiveTopologyTriangleList, true, 3},
		{StyleQuads, 1, gputypes.PrimitiveTopologyTriangleList, false, 6},
		{StylePolysRound, 1, gputypes.PrimitiveTopologyTriangleList, true, 3},
		{StyleEllipses, 1, gputypes.PrimitiveTopologyTriangleList, true, 3},
		{StyleEllipsesSmall, 1, gputypes.PrimitiveTopologyTriangleList, true, 3},
		{StyleSpheres, 1, gputypes.PrimitiveTopologyTriangleList, false, 336},
	}
	for _, tt := range tests {
		t.Run(tt.style.String(), func(t *testing.T) {
			rec := &Recorder{MaxPoint: 8}
			b := begin(t, rec, tt.style, true)
			b.Emit(sized(tt.size))
			b.End(false, nil)

			got := rec.Batches()
			if len(got) != 1 {
				t.Fatalf("len(Batches()) = %d, want 1", len(got))
			}
			if got[0].Topology != tt.topology {
				t.Errorf("Topology = %v, want %v", got[0].Topology, tt.topology)
			}
			if got[0].Textured != tt.textured {
				t.Errorf("Textured = %v, want %v", got[0].Textured, tt.textured)
			}
			if len(got[0].Vertices) != tt.vertices {
				t.Errorf("vertices = %d, want %d", len(got[0].Vertices), tt.vertices)
			}
		})
	}
}

// TestQuadsSingleBatch verifies consecutive quads share one batch.
func TestQuadsSingleBatch(t *testing.T) {
	rec := &Recorder{}
	b := begin(t, rec, StyleQuads, false)
	for range 10 {
		b.Emit(sized(5))
	}
	b.End(false, nil)

	if b.Batches() != 1 {
		t.Errorf("Batches() = %d, want 1", b.Batches())
	}
	if rec.Vertices() != 60 {
		t.Errorf("Vertices() = %d, want 60", rec.Vertices())
	}
}

// TestQuadCorners verifies quads span the camera-facing square.
func TestQuadCorners(t *testing.T) {
	rec := &Recorder{}
	b := begin(t, rec, StyleQuads, false)
	b.Emit(sized(5))
	b.End(false, nil)

	v := rec.Batches()[0].Vertices
	want := [][3]float32{
		{1, 1, -5}, {-1, 1, -5}, {-1, -1, -5},
		{1, 1, -5}, {-1, -1, -5}, {1, -1, -5},
	}
	for i, w := range want {
		if !near(v[i].Position, w) {
			t.Errorf("vertex %d = %v, want %v", i, v[i].Position, w)
		}
	}
}

// TestRoundTriangle verifies the masked billboard triangle.
func TestRoundTriangle(t *testing.T) {
	rec := &Recorder{}
	b := begin(t, rec, StylePolysRound, false)
	b.Emit(sized(5))
	b.End(false, nil)

	v := rec.Batches()[0].Vertices
	want := []struct {
		pos [3]float32
		uv  [2]float32
	}{
		{[3]float32{sqrt5, 0, -5}, [2]float32{1, 0.5}},
		{[3]float32{-sqrt5, sqrt5, -5}, [2]float32{0, 1}},
		{[3]float32{-sqrt5, -sqrt5, -5}, [2]float32{0, 0}},
	}
	for i, w := range want {
		if !near(v[i].Position, w.pos) {
			t.Errorf("vertex %d = %v, want %v", i, v[i].Position, w.pos)
		}
		if v[i].UV != w.uv {
			t.Errorf("vertex %d UV = %v, want %v", i, v[i].UV, w.uv)
		}
	}
}

// TestEllipseFacingCamera verifies the billboard fallback when the normal
// points at the camera.
func TestEllipseFacingCamera(t *testing.T) {
	tests := []struct {
		style Style
		k     float32
	}{
		{StyleEllipses, sqrt5},
		{StyleEllipsesSmall, 1},
	}
	for _, tt := range tests {
		t.Run(tt.style.String(), func(t *testing.T) {
			rec := &Recorder{}
			b := begin(t, rec, tt.style, false)
			b.Emit(sized(5))
			b.End(false, nil)

			v := rec.Batches()[0].Vertices
			want := [][3]float32{
				{tt.k, 0, -5},
				{-tt.k, tt.k, -5},
				{-tt.k, -tt.k, -5},
			}
			for i, w := range want {
				if !near(v[i].Position, w) {
					t.Errorf("vertex %d = %v, want %v", i, v[i].Position, w)
				}
			}
		})
	}
}

// TestEllipseEdgeOn verifies an edge-on splat collapses to a line.
func TestEllipseEdgeOn(t *testing.T) {
	rec := &Recorder{}
	b := begin(t, rec, StyleEllipsesSmall, false)
	s := sized(5)
	s.Normal = [3]float32{1, 0, 0}
	b.Emit(s)
	b.End(false, nil)

	v := rec.Batches()[0].Vertices
	want := [][3]float32{{0, 1, -5}, {0, -1, -5}, {0, -1, -5}}
	for i, w := range want {
		if !near(v[i].Position, w) {
			t.Errorf("vertex %d = %v, want %v", i, v[i].Position, w)
		}
	}
}

// TestEllipseTilted verifies a tilted splat stays in its tangent plane
// facing the camera.
func TestEllipseTilted(t *testing.T) {
	rec := &Recorder{}
	b := begin(t, rec, StyleEllipses, false)
	s := sized(5)
	s.Normal = [3]float32{0, math32.Sqrt(0.5), math32.Sqrt(0.5)}
	b.Emit(s)
	b.End(false, nil)

	for i, v := range rec.Batches()[0].Vertices {
		if math32.Abs(v.Position[2]+5) > 1e-5 {
			t.Errorf("vertex %d z = %v, want -5", i, v.Position[2])
		}
	}
}

// TestSphereSurface verifies sphere vertices lie on the splat's sphere.
func TestSphereSurface(t *testing.T) {
	rec := &Recorder{}
	b := begin(t, rec, StyleSpheres, false)
	s := sized(5)
	s.Radius = 2
	b.Emit(s)
	b.End(false, nil)

	for i, v := range rec.Batches()[0].Vertices {
		d := length(sub(v.Position, s.Center))
		if math32.Abs(d-2) > 1e-5 {
			t.Fatalf("vertex %d distance = %v, want 2", i, d)
		}
		if n := length(v.Normal); math32.Abs(n-1) > 1e-5 {
			t.Fatalf("vertex %d normal length = %v, want 1", i, n)
		}
	}
}

// TestMaterial verifies the per-frame material.
func TestMaterial(t *testing.T) {
	rec := &Recorder{}
	b := begin(t, rec, StylePolysRound, false)
	m := rec.Material()
	if m.VertexColor {
		t.Error("VertexColor = true, want false")
	}
	if m.Mask != RadialMask() {
		t.Error("Mask is not the radial mask")
	}
	if m.AlphaThreshold != AlphaThreshold {
		t.Errorf("AlphaThreshold = %v, want %v", m.AlphaThreshold, AlphaThreshold)
	}
	if !near(m.Light, [3]float32{0, 0, 1}) {
		t.Errorf("Light = %v, want [0 0 1]", m.Light)
	}

	b.Emit(sized(5))
	b.End(false, nil)
	for _, v := range rec.Batches()[0].Vertices {
		if v.Color != [3]float32{0.9, 0.9, 0.9} {
			t.Fatalf("Color = %v, want gray", v.Color)
		}
	}

	b = begin(t, rec, StyleQuads, true)
	if m := rec.Material(); m.Mask != nil || !m.VertexColor {
		t.Errorf("Material() = %+v, want vertex color without mask", m)
	}
	s := sized(5)
	s.Color = [3]float32{1, 0, 0}
	b.Emit(s)
	b.End(false, nil)
	if c := rec.Batches()[0].Vertices[0].Color; c != s.Color {
		t.Errorf("Color = %v, want %v", c, s.Color)
	}
}

// TestBackendLifecycle verifies Begin errors and idle calls.
func TestBackendLifecycle(t *testing.T) {
	b := New(nil, StylePoints)
	if err := b.Begin(testView(), false); !errors.Is(err, ErrNoPipeline) {
		t.Errorf("Begin() error = %v, want ErrNoPipeline", err)
	}
	b.Emit(sized(1))
	if b.Splatted() != 0 {
		t.Errorf("Splatted() = %d, want 0", b.Splatted())
	}
	if b.End(false, nil) {
		t.Error("End() = true, want false")
	}

	rec := &Recorder{}
	b = begin(t, rec, StylePoints, false)
	b.End(true, nil)
	if len(rec.Batches()) != 0 || rec.Frames() != 1 {
		t.Errorf("empty frame: %d batches, %d frames, want 0 and 1", len(rec.Batches()), rec.Frames())
	}
}

// TestRecorderNewFrame verifies batches reset after Finish.
func TestRecorderNewFrame(t *testing.T) {
	rec := &Recorder{}
	for frame := range 3 {
		b := begin(t, rec, StyleQuads, false)
		b.Emit(sized(5))
		b.End(false, nil)
		if len(rec.Batches()) != 1 {
			t.Errorf("frame %d: len(Batches()) = %d, want 1", frame, len(rec.Batches()))
		}
	}
	if rec.MaxPointSize() != DefaultMaxPointSize {
		t.Errorf("MaxPointSize() = %v, want %v", rec.MaxPointSize(), DefaultMaxPointSize)
	}
}

// TestStyleFor verifies driver to style mapping.
func TestStyleFor(t *testing.T) {
	for _, d := range splatview.Drivers() {
		s, ok := StyleFor(d)
		if ok == d.Software() {
			t.Errorf("StyleFor(%v) ok = %v", d, ok)
			continue
		}
		if ok && s.String() != d.String() {
			t.Errorf("StyleFor(%v) = %v", d, s)
		}
	}
}

// TestPipelineDescriptors verifies the vertex layout and primitive state.
func TestPipelineDescriptors(t *testing.T) {
	l := VertexLayout()
	if l.ArrayStride != vertexStride {
		t.Errorf("ArrayStride = %d, want %d", l.ArrayStride, vertexStride)
	}
	if len(l.Attributes) != 4 {
		t.Fatalf("len(Attributes) = %d, want 4", len(l.Attributes))
	}
	last := l.Attributes[3]
	if last.Offset != 36 || last.Format != gputypes.VertexFormatFloat32x2 {
		t.Errorf("uv attribute = %+v", last)
	}

	if s := PrimitiveState(gputypes.PrimitiveTopologyPointList, false); s.CullMode != gputypes.CullModeNone {
		t.Errorf("CullMode = %v, want none", s.CullMode)
	}
	if s := PrimitiveState(gputypes.PrimitiveTopologyTriangleList, true); s.CullMode != gputypes.CullModeBack {
		t.Errorf("CullMode = %v, want back", s.CullMode)
	}
}
