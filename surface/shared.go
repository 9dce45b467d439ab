// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package surface

import (
	"image"

	"github.com/gogpu/splatview/pixel"
)

// SharedImage presents by drawing directly into an *image.RGBA that the host
// displays, so no copy is made. The image is reallocated when the requested
// size changes.
type SharedImage struct {
	img  *image.RGBA
	show func(*image.RGBA) error
}

// NewSharedImage returns a presenter over img. show, if non-nil, is called
// by Present to flush the image to the screen. img may be nil; it is then
// allocated on first Acquire.
func NewSharedImage(img *image.RGBA, show func(*image.RGBA) error) *SharedImage {
	return &SharedImage{img: img, show: show}
}

// Name implements Presenter.
func (s *SharedImage) Name() string { return "shared" }

// Image returns the shared image.
func (s *SharedImage) Image() *image.RGBA { return s.img }

// Acquire implements Presenter.
func (s *SharedImage) Acquire(width, height int) (*pixel.Buffer, error) {
	if s.img == nil || s.img.Rect.Dx() != width || s.img.Rect.Dy() != height {
		s.img = image.NewRGBA(image.Rect(0, 0, width, height))
	}
	return pixel.WrapBuffer(s.img.Pix, width, height, s.img.Stride, pixel.FormatRGBA8.Layout())
}

// Present implements Presenter. Only buffers returned by Acquire are accepted.
func (s *SharedImage) Present(buf *pixel.Buffer) error {
	if !s.owns(buf) {
		return ErrForeignBuffer
	}
	if s.show == nil {
		return nil
	}
	return s.show(s.img)
}

func (s *SharedImage) owns(buf *pixel.Buffer) bool {
	if s.img == nil || buf == nil || len(buf.Pix) == 0 || len(s.img.Pix) == 0 {
		return false
	}
	return &buf.Pix[0] == &s.img.Pix[0]
}
