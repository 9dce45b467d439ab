package software

import (
	"github.com/chewxy/math32"

	"github.com/gogpu/splatview"
)

// ZBuffer is the non-tiled rasterizer: each covered pixel is written at
// once when the splat is strictly nearer than what the pixel holds.
//
// ZBuffer is NOT safe for concurrent use.
type ZBuffer struct {
	frame

	depth []float32
}

// NewZBuffer returns a depth-buffer rasterizer.
func NewZBuffer(opts ...Option) *ZBuffer {
	z := &ZBuffer{}
	for _, opt := range opts {
		opt(&z.options)
	}
	return z
}

// Begin implements splatview.Backend.
func (zb *ZBuffer) Begin(view splatview.View, hasColor bool) error {
	if err := zb.begin(view, hasColor); err != nil {
		return err
	}
	n := zb.width * zb.height
	if cap(zb.depth) < n {
		zb.depth = make([]float32, n)
	}
	zb.depth = zb.depth[:n]
	inf := math32.Inf(1)
	for i := range zb.depth {
		zb.depth[i] = inf
	}
	return nil
}

// Emit implements splatview.Backend.
func (zb *ZBuffer) Emit(s *splatview.Splat) {
	if zb.buf == nil {
		return
	}
	b, z, word, ok := zb.place(s)
	if !ok {
		return
	}
	bpp := zb.buf.Layout.BytesPerPixel()
	for y := b.y0; y <= b.y1; y++ {
		d := zb.depth[y*zb.width:]
		off := zb.buf.Offset(b.x0, y)
		for x := b.x0; x <= b.x1; x++ {
			if z < d[x] {
				d[x] = z
				zb.buf.PutWord(off, word)
			}
			off += bpp
		}
	}
	zb.splatted++
}

// End implements splatview.Backend. There is no deferred pass, so cancel
// is not polled and End never aborts.
func (zb *ZBuffer) End(bailed bool, _ splatview.CancelFunc) bool {
	defer zb.release()
	if bailed || zb.buf == nil {
		return false
	}
	zb.present()
	return false
}
