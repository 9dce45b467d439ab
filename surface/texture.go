// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package surface

import (
	"fmt"

	"github.com/gogpu/gpucontext"

	"github.com/gogpu/splatview/pixel"
)

// textureDestroyer is implemented by host textures that own GPU memory.
type textureDestroyer interface {
	Destroy()
}

// Texture presents by uploading frames as a GPU texture and drawing it at
// the origin. The texture is created on first use and updated in place
// while the frame size is unchanged. A replaced texture is destroyed once
// its successor has been drawn.
type Texture struct {
	drawer gpucontext.TextureDrawer
	tex    gpucontext.Texture
	buf    *pixel.Buffer
}

// NewTexture returns a presenter drawing through d.
func NewTexture(d gpucontext.TextureDrawer) *Texture {
	return &Texture{drawer: d}
}

// TextureAvailable reports whether d can create textures. Use it as the
// registration probe for a Texture presenter.
func TextureAvailable(d gpucontext.TextureDrawer) func() bool {
	return func() bool {
		return d != nil && d.TextureCreator() != nil
	}
}

// Name implements Presenter.
func (t *Texture) Name() string { return "texture" }

// Acquire implements Presenter. Buffers are RGBA8, the upload format.
func (t *Texture) Acquire(width, height int) (*pixel.Buffer, error) {
	if t.buf != nil && t.buf.Width == width && t.buf.Height == height {
		return t.buf, nil
	}
	buf, err := pixel.NewBuffer(width, height, pixel.FormatRGBA8.Layout())
	if err != nil {
		return nil, fmt.Errorf("surface: texture: %w", err)
	}
	t.buf = buf
	return buf, nil
}

// Present implements Presenter. Buffers in other layouts are converted.
func (t *Texture) Present(buf *pixel.Buffer) error {
	if t.drawer == nil {
		return ErrNoTarget
	}
	data := rgbaBytes(buf)

	if t.tex != nil && t.tex.Width() == buf.Width && t.tex.Height() == buf.Height {
		if u, ok := t.tex.(gpucontext.TextureUpdater); ok {
			if err := u.UpdateData(data); err != nil {
				return fmt.Errorf("surface: texture update: %w", err)
			}
			return t.drawer.DrawTexture(t.tex, 0, 0)
		}
	}

	creator := t.drawer.TextureCreator()
	if creator == nil {
		return ErrNoTarget
	}
	tex, err := creator.NewTextureFromRGBA(buf.Width, buf.Height, data)
	if err != nil {
		return fmt.Errorf("surface: texture create: %w", err)
	}
	old := t.tex
	t.tex = tex
	err = t.drawer.DrawTexture(tex, 0, 0)
	destroy(old)
	return err
}

// Close destroys the current texture. The presenter may be reused; the
// next Present creates a new texture.
func (t *Texture) Close() error {
	destroy(t.tex)
	t.tex = nil
	return nil
}

func destroy(tex gpucontext.Texture) {
	if d, ok := tex.(textureDestroyer); ok {
		d.Destroy()
	}
}

// rgbaBytes returns tightly packed RGBA8 pixels for buf, sharing its
// storage when the layout already matches.
func rgbaBytes(buf *pixel.Buffer) []byte {
	if buf.Layout == pixel.FormatRGBA8.Layout() && buf.Stride == buf.Width*4 {
		return buf.Pix[:buf.Width*buf.Height*4]
	}
	return buf.RGBA().Pix
}
