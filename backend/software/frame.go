package software

import (
	"errors"
	"fmt"

	"github.com/chewxy/math32"

	"github.com/gogpu/splatview"
	"github.com/gogpu/splatview/internal/project"
	"github.com/gogpu/splatview/pixel"
	"github.com/gogpu/splatview/surface"
)

// ErrEmptyViewport is returned by Begin for a zero-sized view.
var ErrEmptyViewport = errors.New("software: empty viewport")

// Option configures a software rasterizer.
type Option func(*options)

type options struct {
	presenter surface.Presenter
	workers   int
}

// WithPresenter sets where finished frames go. The default is the chain of
// available presenters in surface.Default(), resolved at the first Begin.
func WithPresenter(p surface.Presenter) Option {
	return func(o *options) {
		o.presenter = p
	}
}

// WithWorkers flushes the tiles of each band on n goroutines. Values below
// 2 flush on the caller's goroutine. ZBuffer ignores it.
func WithWorkers(n int) Option {
	return func(o *options) {
		o.workers = n
	}
}

// box is an inclusive pixel rectangle.
type box struct {
	x0, x1, y0, y1 int
}

// frame is the per-frame state shared by both rasterizers.
type frame struct {
	options

	proj     project.Projector
	light    [3]float32
	width    int
	height   int
	hasColor bool
	buf      *pixel.Buffer
	splatted int
}

func (f *frame) begin(view splatview.View, hasColor bool) error {
	if view.Width <= 0 || view.Height <= 0 {
		return fmt.Errorf("%w: %dx%d", ErrEmptyViewport, view.Width, view.Height)
	}
	if f.presenter == nil {
		f.presenter = surface.Default().Chain()
	}

	f.proj = project.New(view)
	f.light = project.LightToModel(view.Light, view.ModelView)
	f.width, f.height = view.Width, view.Height
	f.hasColor = hasColor
	f.splatted = 0

	buf, err := f.presenter.Acquire(f.width, f.height)
	if err != nil {
		splatview.Logger().Warn("software: acquire failed, drawing to heap buffer",
			"presenter", f.presenter.Name(), "err", err)
		buf, err = pixel.NewBuffer(f.width, f.height, pixel.FormatRGBA8.Layout())
		if err != nil {
			return fmt.Errorf("software: %w", err)
		}
	}
	buf.Clear()
	f.buf = buf
	return nil
}

// place projects s and returns its clipped screen rectangle, depth and
// packed color. ok is false when nothing of s is visible.
func (f *frame) place(s *splatview.Splat) (b box, z float32, word uint32, ok bool) {
	x, y, z, ok := f.proj.Project(s.Center)
	if !ok || z < 0 {
		return box{}, 0, 0, false
	}
	half := 0.5 * s.Size
	if b.x0, b.x1, ok = span(x, half, f.width); !ok {
		return box{}, 0, 0, false
	}
	if b.y0, b.y1, ok = span(y, half, f.height); !ok {
		return box{}, 0, 0, false
	}
	lighting := pixel.Lighting(s.Normal, f.light)
	word = f.buf.Layout.Shade(lighting, s.Color, f.hasColor && s.HasColor)
	return b, z, word, true
}

// span returns the pixels covered by [c-half, c+half], rounded to the
// nearest pixel and clipped to [0, limit). A zero half-width still covers
// the pixel nearest c.
func span(c, half float32, limit int) (lo, hi int, ok bool) {
	lof := math32.Floor(c - half + 0.5)
	hif := math32.Floor(c + half + 0.5)
	if !(lof <= float32(limit-1)) || !(hif >= 0) {
		return 0, 0, false
	}
	if lof > 0 {
		lo = int(lof)
	}
	hi = limit - 1
	if hif < float32(hi) {
		hi = int(hif)
	}
	return lo, hi, true
}

func (f *frame) present() {
	if err := f.presenter.Present(f.buf); err != nil {
		splatview.Logger().Warn("software: present failed", "presenter", f.presenter.Name(), "err", err)
	}
}

func (f *frame) release() {
	f.buf = nil
}

// Buffer returns the buffer of the frame in progress, or nil between frames.
func (f *frame) Buffer() *pixel.Buffer { return f.buf }

// Splatted implements splatview.Backend.
func (f *frame) Splatted() int { return f.splatted }
