package control

import (
	"image"
	"image/color"
	"time"

	"github.com/chewxy/math32"
	"golang.org/x/image/draw"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"
)

// Overlay timeouts.
const (
	lightTimeout    = 2500 * time.Millisecond
	progressTimeout = 1500 * time.Millisecond
)

// indicator is an overlay that hides itself a while after it was last
// shown or drawn.
type indicator struct {
	state   Overlay
	since   time.Time
	timeout time.Duration
}

func (in *indicator) set(enabled bool) {
	if enabled {
		in.state = OverlayOff
	} else {
		in.state = OverlayNever
	}
}

// show turns a hidden indicator on.
func (in *indicator) show(now time.Time) {
	if in.state == OverlayOff {
		in.state = OverlayOn
		in.since = now
	}
}

// touch restarts the timeout of a visible indicator.
func (in *indicator) touch(now time.Time) {
	if in.state == OverlayOn {
		in.since = now
	}
}

// expire hides a visible indicator past its timeout and reports whether
// it did.
func (in *indicator) expire(now time.Time) bool {
	if in.state == OverlayOn && now.Sub(in.since) > in.timeout {
		in.state = OverlayOff
		return true
	}
	return false
}

func (in *indicator) visible() bool {
	return in.state == OverlayOn
}

// Overlays returns the light and progress indicator states.
func (c *Controller) Overlays() (light, progress Overlay) {
	return c.light.state, c.progress.state
}

// SetOverlays enables or disables the light and progress indicators.
func (c *Controller) SetOverlays(light, progress bool) {
	now := c.now()
	c.light.set(light)
	c.light.show(now)
	c.progress.set(progress)
	c.progress.show(now)
	c.requestRedraw()
}

var (
	overlayFrame = color.RGBA{R: 0x80, G: 0x80, B: 0x80, A: 0xff}
	overlayLight = color.RGBA{R: 0xff, G: 0xff, B: 0x80, A: 0xff}
	overlayBar   = color.RGBA{R: 0x40, G: 0xc0, B: 0x40, A: 0xff}
	overlayText  = color.RGBA{R: 0xff, G: 0xff, B: 0xff, A: 0xff}
)

// DrawOverlays paints the visible indicators and the rate line onto dst.
func (c *Controller) DrawOverlays(dst draw.Image) {
	b := dst.Bounds()
	if c.light.visible() {
		drawLight(dst, b, c.lightDir)
	}
	if c.progress.visible() {
		drawProgress(dst, b, c.Progress())
	}
	if c.last.Splats > 0 {
		drawText(dst, b, c.printer.Sprintf("%d points, %.3f sec.", c.last.Splats, c.last.Elapsed.Seconds()))
	}
}

// drawLight draws a centered box a quarter of the viewport wide with a
// marker where the light direction meets the view plane.
func drawLight(dst draw.Image, b image.Rectangle, dir [3]float32) {
	size := min(b.Dx(), b.Dy()) / 4
	if size < 8 {
		return
	}
	box := image.Rect(0, 0, size, size).Add(b.Min).Add(image.Pt((b.Dx()-size)/2, (b.Dy()-size)/2))
	outline(dst, box, overlayFrame)

	half := float32(size) / 2
	cx := float32(box.Min.X) + half + dir[0]*half
	cy := float32(box.Min.Y) + half - dir[1]*half
	r := max(size/16, 1)
	x, y := int(math32.Round(cx)), int(math32.Round(cy))
	draw.Draw(dst, image.Rect(x-r, y-r, x+r+1, y+r+1), image.NewUniform(overlayLight), image.Point{}, draw.Src)
}

// drawProgress fills a bar along the bottom edge in proportion to p.
func drawProgress(dst draw.Image, b image.Rectangle, p float32) {
	p = min(max(p, 0), 1)
	h := max(b.Dy()/64, 3)
	bar := image.Rect(b.Min.X, b.Max.Y-h, b.Min.X+int(p*float32(b.Dx())), b.Max.Y)
	draw.Draw(dst, bar, image.NewUniform(overlayBar), image.Point{}, draw.Src)
}

func drawText(dst draw.Image, b image.Rectangle, s string) {
	face := basicfont.Face7x13
	d := font.Drawer{
		Dst:  dst,
		Src:  image.NewUniform(overlayText),
		Face: face,
		Dot:  fixed.P(b.Min.X+4, b.Min.Y+face.Ascent+2),
	}
	d.DrawString(s)
}

func outline(dst draw.Image, r image.Rectangle, c color.Color) {
	src := image.NewUniform(c)
	for _, edge := range []image.Rectangle{
		image.Rect(r.Min.X, r.Min.Y, r.Max.X, r.Min.Y+1),
		image.Rect(r.Min.X, r.Max.Y-1, r.Max.X, r.Max.Y),
		image.Rect(r.Min.X, r.Min.Y, r.Min.X+1, r.Max.Y),
		image.Rect(r.Max.X-1, r.Min.Y, r.Max.X, r.Max.Y),
	} {
		draw.Draw(dst, edge, src, image.Point{}, draw.Src)
	}
}
