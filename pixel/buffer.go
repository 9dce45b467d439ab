package pixel

import (
	"encoding/binary"
	"fmt"
	"image"
	"image/color"
)

// Buffer is a top-down packed pixel image. Row 0 is the top of the screen.
//
// Buffer implements image.Image so finished frames can be handed to any
// image consumer without an intermediate conversion.
type Buffer struct {
	Pix    []byte
	Width  int
	Height int
	Stride int
	Layout Layout
}

// NewBuffer allocates a zeroed buffer with a tightly packed stride.
func NewBuffer(width, height int, layout Layout) (*Buffer, error) {
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("%w: %dx%d", ErrInvalidDimensions, width, height)
	}
	stride := width * layout.bpp
	return &Buffer{
		Pix:    make([]byte, stride*height),
		Width:  width,
		Height: height,
		Stride: stride,
		Layout: layout,
	}, nil
}

// WrapBuffer uses pix as backing store without copying. The caller keeps
// ownership of pix; writes through the Buffer are visible to it.
func WrapBuffer(pix []byte, width, height, stride int, layout Layout) (*Buffer, error) {
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("%w: %dx%d", ErrInvalidDimensions, width, height)
	}
	if stride < width*layout.bpp {
		return nil, fmt.Errorf("%w: stride %d for width %d", ErrDataTooSmall, stride, width)
	}
	if len(pix) < stride*(height-1)+width*layout.bpp {
		return nil, fmt.Errorf("%w: have %d bytes", ErrDataTooSmall, len(pix))
	}
	return &Buffer{Pix: pix, Width: width, Height: height, Stride: stride, Layout: layout}, nil
}

// Clear sets every pixel to opaque black.
func (b *Buffer) Clear() {
	clear(b.Pix)
	if b.Layout.alpha == 0 {
		return
	}
	for y := range b.Height {
		off := y * b.Stride
		for range b.Width {
			b.PutWord(off, b.Layout.alpha)
			off += b.Layout.bpp
		}
	}
}

// Background returns the packed word Clear writes.
func (b *Buffer) Background() uint32 {
	return b.Layout.alpha
}

// Offset returns the byte offset of pixel (x, y).
func (b *Buffer) Offset(x, y int) int {
	return y*b.Stride + x*b.Layout.bpp
}

// PutWord stores a packed pixel at byte offset off.
func (b *Buffer) PutWord(off int, word uint32) {
	if b.Layout.bpp == 4 {
		binary.LittleEndian.PutUint32(b.Pix[off:], word)
		return
	}
	binary.LittleEndian.PutUint16(b.Pix[off:], uint16(word))
}

// SetWord stores a packed pixel at (x, y). Out-of-range coordinates are ignored.
func (b *Buffer) SetWord(x, y int, word uint32) {
	if x < 0 || y < 0 || x >= b.Width || y >= b.Height {
		return
	}
	b.PutWord(b.Offset(x, y), word)
}

// Word returns the packed pixel at (x, y), or 0 outside the buffer.
func (b *Buffer) Word(x, y int) uint32 {
	if x < 0 || y < 0 || x >= b.Width || y >= b.Height {
		return 0
	}
	off := b.Offset(x, y)
	if b.Layout.bpp == 4 {
		return binary.LittleEndian.Uint32(b.Pix[off:])
	}
	return uint32(binary.LittleEndian.Uint16(b.Pix[off:]))
}

// ColorModel implements image.Image.
func (b *Buffer) ColorModel() color.Model { return color.RGBAModel }

// Bounds implements image.Image.
func (b *Buffer) Bounds() image.Rectangle { return image.Rect(0, 0, b.Width, b.Height) }

// At implements image.Image.
func (b *Buffer) At(x, y int) color.Color {
	if x < 0 || y < 0 || x >= b.Width || y >= b.Height {
		return color.RGBA{}
	}
	r, g, bl, a := b.Layout.Unpack(b.Word(x, y))
	return color.RGBA{R: r, G: g, B: bl, A: a}
}

// RGBA converts the buffer into a new *image.RGBA.
func (b *Buffer) RGBA() *image.RGBA {
	img := image.NewRGBA(b.Bounds())
	for y := range b.Height {
		row := img.Pix[y*img.Stride:]
		for x := range b.Width {
			r, g, bl, a := b.Layout.Unpack(b.Word(x, y))
			i := x * 4
			row[i], row[i+1], row[i+2], row[i+3] = r, g, bl, a
		}
	}
	return img
}
