package hardware

import (
	"sync"

	"github.com/gogpu/gputypes"
)

const (
	// MaskSize is the edge length of the radial mask texture.
	MaskSize = 64

	// MaskCutoff is the normalized squared radius inside which the mask
	// is opaque.
	MaskCutoff = 0.2

	// AlphaThreshold discards textured fragments whose mask alpha is not
	// above it.
	AlphaThreshold = 0.5
)

// Mask is a square luminance-alpha texture, two bytes per texel.
type Mask struct {
	Size int
	Pix  []byte
}

// Opaque reports whether the texel at (x, y) passes the alpha threshold.
func (m *Mask) Opaque(x, y int) bool {
	if x < 0 || y < 0 || x >= m.Size || y >= m.Size {
		return false
	}
	return float32(m.Pix[2*(y*m.Size+x)+1])/255 > AlphaThreshold
}

// RGBA expands the mask to RGBA8 texels for devices without a
// luminance-alpha format.
func (m *Mask) RGBA() []byte {
	out := make([]byte, 0, m.Size*m.Size*4)
	for i := 0; i < len(m.Pix); i += 2 {
		l, a := m.Pix[i], m.Pix[i+1]
		out = append(out, l, l, l, a)
	}
	return out
}

// TextureFormat is the upload format of RGBA.
func (m *Mask) TextureFormat() gputypes.TextureFormat {
	return gputypes.TextureFormatRGBA8Unorm
}

var radialMask = sync.OnceValue(func() *Mask {
	m := &Mask{Size: MaskSize, Pix: make([]byte, MaskSize*MaskSize*2)}
	half := float32(MaskSize / 2)
	for y := range MaskSize {
		for x := range MaskSize {
			dx := 0.5 + float32(x) - half
			dy := 0.5 + float32(y) - half
			if (dx*dx+dy*dy)/(half*half) < MaskCutoff {
				i := 2 * (y*MaskSize + x)
				m.Pix[i] = 255
				m.Pix[i+1] = 255
			}
		}
	}
	return m
})

// RadialMask returns the shared disc mask. Callers must not modify it.
func RadialMask() *Mask {
	return radialMask()
}
