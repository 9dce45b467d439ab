// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package surface

import (
	"fmt"

	"golang.org/x/image/draw"

	"github.com/gogpu/splatview/pixel"
)

// Bitmap presents by copying frames into a host draw.Image, stretching when
// the frame and destination sizes differ.
type Bitmap struct {
	dst    draw.Image
	layout pixel.Layout
	scaler draw.Scaler
	buf    *pixel.Buffer
}

// BitmapOption configures a Bitmap.
type BitmapOption func(*Bitmap)

// WithBitmapLayout sets the layout of buffers handed out by Acquire.
// The default is BGRA8, the device-independent bitmap layout.
func WithBitmapLayout(l pixel.Layout) BitmapOption {
	return func(b *Bitmap) {
		b.layout = l
	}
}

// WithScaler sets the scaler used when sizes differ. The default is
// draw.NearestNeighbor.
func WithScaler(s draw.Scaler) BitmapOption {
	return func(b *Bitmap) {
		b.scaler = s
	}
}

// NewBitmap returns a presenter copying into dst.
func NewBitmap(dst draw.Image, opts ...BitmapOption) *Bitmap {
	b := &Bitmap{
		dst:    dst,
		layout: pixel.FormatBGRA8.Layout(),
		scaler: draw.NearestNeighbor,
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Name implements Presenter.
func (b *Bitmap) Name() string { return "bitmap" }

// SetTarget replaces the destination image.
func (b *Bitmap) SetTarget(dst draw.Image) { b.dst = dst }

// Acquire implements Presenter.
func (b *Bitmap) Acquire(width, height int) (*pixel.Buffer, error) {
	if b.buf != nil && b.buf.Width == width && b.buf.Height == height {
		return b.buf, nil
	}
	buf, err := pixel.NewBuffer(width, height, b.layout)
	if err != nil {
		return nil, fmt.Errorf("surface: bitmap: %w", err)
	}
	b.buf = buf
	return buf, nil
}

// Present implements Presenter. Any buffer is accepted.
func (b *Bitmap) Present(buf *pixel.Buffer) error {
	if b.dst == nil {
		return ErrNoTarget
	}
	dr := b.dst.Bounds()
	sr := buf.Bounds()
	if dr.Size() == sr.Size() {
		draw.Copy(b.dst, dr.Min, buf, sr, draw.Src, nil)
		return nil
	}
	b.scaler.Scale(b.dst, dr, buf, sr, draw.Src, nil)
	return nil
}
