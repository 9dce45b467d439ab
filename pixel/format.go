// Package pixel packs lit splat colors into destination pixel words.
//
// A [Layout] describes where each color channel lives inside a 16- or 32-bit
// little-endian pixel word. Predefined layouts cover the formats produced by
// the software rasterizers; [NewLayout] derives one from channel masks
// reported by a display surface.
package pixel

import (
	"errors"
	"fmt"
	"math/bits"

	"github.com/gogpu/gputypes"
)

var (
	// ErrInvalidDepth is returned for pixel sizes other than 2 or 4 bytes.
	ErrInvalidDepth = errors.New("pixel: unsupported bytes per pixel")

	// ErrInvalidMask is returned when a channel mask is zero or not contiguous.
	ErrInvalidMask = errors.New("pixel: invalid channel mask")

	// ErrInvalidDimensions is returned when width or height is non-positive.
	ErrInvalidDimensions = errors.New("pixel: invalid dimensions")

	// ErrDataTooSmall is returned when a wrapped slice cannot hold the image.
	ErrDataTooSmall = errors.New("pixel: data buffer too small")
)

// Format identifies a predefined pixel layout.
type Format uint8

const (
	// FormatRGBA8 stores R, G, B, A bytes in memory order (image.RGBA layout).
	FormatRGBA8 Format = iota

	// FormatBGRA8 stores B, G, R, A bytes in memory order (Windows DIB layout).
	FormatBGRA8

	// FormatRGB565 is a 16-bit word with 5 red, 6 green and 5 blue bits.
	FormatRGB565

	formatCount
)

// String returns the format name.
func (f Format) String() string {
	switch f {
	case FormatRGBA8:
		return "RGBA8"
	case FormatBGRA8:
		return "BGRA8"
	case FormatRGB565:
		return "RGB565"
	default:
		return fmt.Sprintf("Format(%d)", uint8(f))
	}
}

// Layout returns the channel layout of a predefined format.
func (f Format) Layout() Layout {
	if f >= formatCount {
		return layouts[FormatRGBA8]
	}
	return layouts[f]
}

var layouts = [formatCount]Layout{
	FormatRGBA8:  mustLayout(4, 0x000000ff, 0x0000ff00, 0x00ff0000, 0xff000000, gputypes.TextureFormatRGBA8Unorm),
	FormatBGRA8:  mustLayout(4, 0x00ff0000, 0x0000ff00, 0x000000ff, 0xff000000, gputypes.TextureFormatBGRA8Unorm),
	FormatRGB565: mustLayout(2, 0xf800, 0x07e0, 0x001f, 0, gputypes.TextureFormatUndefined),
}

// Layout describes channel placement inside a little-endian pixel word.
// The zero value is not usable; obtain one from Format.Layout or NewLayout.
type Layout struct {
	bpp                    int
	rshift, gshift, bshift uint
	rmask, gmask, bmask    uint32
	rmult, gmult, bmult    float32
	alpha                  uint32
	texture                gputypes.TextureFormat
}

// NewLayout builds a layout from contiguous channel masks. alpha is OR-ed
// into every packed word and may be zero.
func NewLayout(bytesPerPixel int, rmask, gmask, bmask, alpha uint32) (Layout, error) {
	return newLayout(bytesPerPixel, rmask, gmask, bmask, alpha, gputypes.TextureFormatUndefined)
}

func mustLayout(bpp int, rmask, gmask, bmask, alpha uint32, tf gputypes.TextureFormat) Layout {
	l, err := newLayout(bpp, rmask, gmask, bmask, alpha, tf)
	if err != nil {
		panic(err)
	}
	return l
}

func newLayout(bpp int, rmask, gmask, bmask, alpha uint32, tf gputypes.TextureFormat) (Layout, error) {
	if bpp != 2 && bpp != 4 {
		return Layout{}, fmt.Errorf("%w: %d", ErrInvalidDepth, bpp)
	}
	l := Layout{bpp: bpp, rmask: rmask, gmask: gmask, bmask: bmask, alpha: alpha, texture: tf}
	var err error
	if l.rshift, l.rmult, err = channel(rmask); err != nil {
		return Layout{}, fmt.Errorf("red: %w", err)
	}
	if l.gshift, l.gmult, err = channel(gmask); err != nil {
		return Layout{}, fmt.Errorf("green: %w", err)
	}
	if l.bshift, l.bmult, err = channel(bmask); err != nil {
		return Layout{}, fmt.Errorf("blue: %w", err)
	}
	if l.bpp == 2 && (rmask|gmask|bmask|alpha)>>16 != 0 {
		return Layout{}, fmt.Errorf("%w: mask exceeds 16 bits", ErrInvalidMask)
	}
	return l, nil
}

// channel returns the shift of mask and the scale that maps [0, 1] onto
// its full range under truncation.
func channel(mask uint32) (uint, float32, error) {
	if mask == 0 {
		return 0, 0, ErrInvalidMask
	}
	shift := uint(bits.TrailingZeros32(mask))
	full := mask >> shift
	if full&(full+1) != 0 {
		return 0, 0, ErrInvalidMask
	}
	return shift, 0.99 + float32(full), nil
}

// BytesPerPixel returns 2 or 4.
func (l Layout) BytesPerPixel() int { return l.bpp }

// TextureFormat returns the matching GPU texture format, or
// TextureFormatUndefined when no texture format shares this layout.
func (l Layout) TextureFormat() gputypes.TextureFormat { return l.texture }

// Pack converts a color with channels in [0, 1] into a pixel word.
// Channels are truncated, not rounded or dithered, and values outside
// [0, 1] are clamped.
func (l Layout) Pack(r, g, b float32) uint32 {
	return uint32(clamp01(r)*l.rmult)<<l.rshift |
		uint32(clamp01(g)*l.gmult)<<l.gshift |
		uint32(clamp01(b)*l.bmult)<<l.bshift |
		l.alpha
}

// Unpack expands a pixel word back to 8-bit channels. Fewer-than-8-bit
// channels are replicated into the low bits.
func (l Layout) Unpack(word uint32) (r, g, b, a uint8) {
	r = expand(word&l.rmask>>l.rshift, l.rmask>>l.rshift)
	g = expand(word&l.gmask>>l.gshift, l.gmask>>l.gshift)
	b = expand(word&l.bmask>>l.bshift, l.bmask>>l.bshift)
	a = 0xff
	if l.alpha != 0 {
		a = uint8(word & l.alpha >> bits.TrailingZeros32(l.alpha))
	}
	return r, g, b, a
}

func expand(v, full uint32) uint8 {
	if full == 0xff {
		return uint8(v)
	}
	return uint8(v * 255 / full)
}

func clamp01(v float32) float32 {
	switch {
	case v < 0:
		return 0
	case v > 1:
		return 1
	default:
		return v
	}
}
