package control

import (
	"time"

	"github.com/gogpu/gpucontext"

	"github.com/gogpu/splatview"
	"github.com/gogpu/splatview/backend"
)

// fakeClock is a manually advanced clock.
type fakeClock struct {
	t time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{t: time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time { return c.t }

func (c *fakeClock) Advance(d time.Duration) { c.t = c.t.Add(d) }

// fakeModel draws for cost/scale on the fake clock and counts the
// feedback it receives.
type fakeModel struct {
	clock *fakeClock
	cost  time.Duration

	scale    float32
	minSize  float32
	finest   float32
	splats   int
	coarsest bool
	bail     bool

	// pollCancel makes Draw consult cancel after spending its cost.
	pollCancel bool

	refines     int
	starts      int
	stops       int
	resets      int
	adjustments []float32
}

func newFakeModel(clock *fakeClock, cost time.Duration) *fakeModel {
	return &fakeModel{clock: clock, cost: cost, scale: 1, minSize: 8, finest: 1, splats: 3}
}

func (m *fakeModel) Draw(emit func(*splatview.Splat), cancel splatview.CancelFunc) bool {
	for range m.splats {
		emit(&splatview.Splat{Size: m.minSize, Normal: [3]float32{0, 0, 1}})
	}
	m.clock.Advance(time.Duration(float64(m.cost) / float64(m.scale)))
	if m.pollCancel && cancel() {
		return true
	}
	return m.bail
}

func (m *fakeModel) HasColor() bool   { return false }
func (m *fakeModel) MinSize() float32 { return m.minSize }
func (m *fakeModel) Coarsest() bool   { return m.coarsest }
func (m *fakeModel) CanRefine() bool  { return m.minSize > m.finest }
func (m *fakeModel) StartRefine()     { m.starts++ }
func (m *fakeModel) StopRefine()      { m.stops++ }

func (m *fakeModel) Refine() {
	m.refines++
	m.minSize = max(m.minSize/2, m.finest)
}

func (m *fakeModel) ResetRate() {
	m.resets++
	m.scale = 1
}

func (m *fakeModel) AdjustRate(f float32) {
	m.scale *= f
	m.adjustments = append(m.adjustments, f)
}

// ratio is the last frame's elapsed time in periods.
func (m *fakeModel) ratio(rate float32) float32 {
	return float32((float64(m.cost) / float64(m.scale)) / float64(time.Second) * float64(rate))
}

// fakeRenderer counts splats and records frames.
type fakeRenderer struct {
	beginErr error
	abort    bool

	frames  []backend.Frame
	emitted int
	ends    int
	bailed  bool
}

func (r *fakeRenderer) Begin(f backend.Frame) error {
	if r.beginErr != nil {
		return r.beginErr
	}
	r.frames = append(r.frames, f)
	r.emitted = 0
	return nil
}

func (r *fakeRenderer) Emit(*splatview.Splat) { r.emitted++ }

func (r *fakeRenderer) End(bailed bool, _ splatview.CancelFunc) bool {
	r.ends++
	r.bailed = bailed
	return r.abort
}

func (r *fakeRenderer) Splatted() int { return r.emitted }

// fakeWindow counts redraw requests.
type fakeWindow struct {
	w, h    int
	scale   float64
	redraws int
}

func (w *fakeWindow) Size() (int, int)     { return w.w, w.h }
func (w *fakeWindow) ScaleFactor() float64 { return w.scale }
func (w *fakeWindow) RequestRedraw()       { w.redraws++ }

// fakeSource records the callbacks registered by Attach.
type fakeSource struct {
	gpucontext.NullEventSource

	key     func(gpucontext.Key, gpucontext.Modifiers)
	press   func(gpucontext.MouseButton, float64, float64)
	release func(gpucontext.MouseButton, float64, float64)
	move    func(float64, float64)
	scroll  func(float64, float64)
	resize  func(int, int)
}

func (s *fakeSource) OnKeyPress(fn func(gpucontext.Key, gpucontext.Modifiers)) { s.key = fn }

func (s *fakeSource) OnMousePress(fn func(gpucontext.MouseButton, float64, float64)) {
	s.press = fn
}

func (s *fakeSource) OnMouseRelease(fn func(gpucontext.MouseButton, float64, float64)) {
	s.release = fn
}

func (s *fakeSource) OnMouseMove(fn func(float64, float64)) { s.move = fn }
func (s *fakeSource) OnScroll(fn func(float64, float64))    { s.scroll = fn }
func (s *fakeSource) OnResize(fn func(int, int))            { s.resize = fn }

// pointerSource also delivers unified pointer events.
type pointerSource struct {
	fakeSource
	pointer func(gpucontext.PointerEvent)
}

func (s *pointerSource) OnPointer(fn func(gpucontext.PointerEvent)) { s.pointer = fn }

// newTestController returns a controller at 8 fps on a fake clock.
func newTestController(m *fakeModel, opts ...Option) (*Controller, *fakeRenderer, *fakeWindow) {
	r := &fakeRenderer{}
	w := &fakeWindow{w: 64, h: 48, scale: 1}
	base := []Option{WithClock(m.clock.Now), WithWindow(w), WithDesiredRate(8)}
	return New(m, r, append(base, opts...)...), r, w
}

func press() gpucontext.PointerEvent {
	return gpucontext.PointerEvent{Type: gpucontext.PointerDown, Button: gpucontext.ButtonLeft, Buttons: gpucontext.ButtonsLeft}
}

func drag() gpucontext.PointerEvent {
	return gpucontext.PointerEvent{Type: gpucontext.PointerMove, Buttons: gpucontext.ButtonsLeft}
}

func release() gpucontext.PointerEvent {
	return gpucontext.PointerEvent{Type: gpucontext.PointerUp, Button: gpucontext.ButtonLeft}
}

func scrollEvent() gpucontext.ScrollEvent {
	return gpucontext.ScrollEvent{DeltaY: 1}
}
