package software

import (
	"context"
	"log/slog"
	"sync"
	"testing"

	"github.com/gogpu/splatview"
	"github.com/gogpu/splatview/pixel"
)

// capture is a presenter that hands out fresh buffers and keeps what it
// was asked to present.
type capture struct {
	layout     pixel.Layout
	acquireErr error
	presentErr error
	presented  []*pixel.Buffer
	acquired   []*pixel.Buffer
}

func newCapture() *capture {
	return &capture{layout: pixel.FormatRGBA8.Layout()}
}

func (c *capture) Name() string { return "capture" }

func (c *capture) Acquire(w, h int) (*pixel.Buffer, error) {
	if c.acquireErr != nil {
		return nil, c.acquireErr
	}
	buf, err := pixel.NewBuffer(w, h, c.layout)
	if err != nil {
		return nil, err
	}
	c.acquired = append(c.acquired, buf)
	return buf, nil
}

func (c *capture) Present(buf *pixel.Buffer) error {
	if c.presentErr != nil {
		return c.presentErr
	}
	c.presented = append(c.presented, buf)
	return nil
}

func (c *capture) last() *pixel.Buffer {
	if len(c.presented) == 0 {
		return nil
	}
	return c.presented[len(c.presented)-1]
}

// flatView maps model x, y in [-1, 1] onto the viewport and z in [-1, 1]
// onto depth [0, 1], with the light along +z.
func flatView(w, h int) splatview.View {
	return splatview.View{
		Projection: splatview.Identity(),
		ModelView:  splatview.Identity(),
		Width:      w,
		Height:     h,
		Light:      [3]float32{0, 0, 1},
	}
}

// rect returns a splat covering pixels x0..x0+side and y0..y0+side
// (inclusive, rows top-down) at the given window depth.
func rect(v splatview.View, x0, y0, side int, depth float32, rgb [3]float32) *splatview.Splat {
	cx := float32(x0) + float32(side)/2
	cy := float32(y0) + float32(side)/2
	return &splatview.Splat{
		Center: [3]float32{
			2*cx/float32(v.Width) - 1,
			1 - 2*cy/float32(v.Height),
			2*depth - 1,
		},
		Size:     float32(side),
		Normal:   [3]float32{0, 0, 1},
		Color:    rgb,
		HasColor: true,
	}
}

var (
	red   = [3]float32{1, 0, 0}
	green = [3]float32{0, 1, 0}
	blue  = [3]float32{0, 0, 1}
)

// lit returns the packed word for rgb under a head-on light.
func lit(l pixel.Layout, rgb [3]float32) uint32 {
	return l.Shade(pixel.Lighting([3]float32{0, 0, 1}, [3]float32{0, 0, 1}), rgb, true)
}

// logRecords is a slog.Handler that keeps every record.
type logRecords struct {
	mu   sync.Mutex
	recs []slog.Record
}

// captureLogs routes the package logger into a logRecords for the test.
func captureLogs(t *testing.T) *logRecords {
	t.Helper()
	orig := splatview.Logger()
	t.Cleanup(func() { splatview.SetLogger(orig) })
	h := &logRecords{}
	splatview.SetLogger(slog.New(h))
	return h
}

func (h *logRecords) Enabled(context.Context, slog.Level) bool { return true }

func (h *logRecords) Handle(_ context.Context, r slog.Record) error {
	h.mu.Lock()
	h.recs = append(h.recs, r.Clone())
	h.mu.Unlock()
	return nil
}

func (h *logRecords) WithAttrs([]slog.Attr) slog.Handler { return h }
func (h *logRecords) WithGroup(string) slog.Handler      { return h }

// find returns the first record with msg.
func (h *logRecords) find(msg string) (slog.Record, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for _, r := range h.recs {
		if r.Message == msg {
			return r, true
		}
	}
	return slog.Record{}, false
}

// attr returns the string form of the attribute key on r.
func attr(r slog.Record, key string) string {
	var v string
	r.Attrs(func(a slog.Attr) bool {
		if a.Key == key {
			v = a.Value.String()
			return false
		}
		return true
	})
	return v
}
