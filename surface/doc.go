// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

// Package surface moves finished software frames to the display.
//
// A [Presenter] supplies an output buffer for a frame and later shows it.
// Three mechanisms are provided:
//
//   - SharedImage: the rasterizer writes straight into an *image.RGBA the
//     host already displays (zero copy).
//   - Bitmap: the frame is drawn into a host draw.Image, scaling if sizes
//     differ.
//   - Texture: the frame is uploaded as a GPU texture through gpucontext and
//     drawn at the origin.
//
// # Registry
//
// Presenters are registered with a priority and an availability probe. The
// probe runs once, at registration, and its answer is cached:
//
//	surface.Register("shared", 100, surface.NewSharedImage(win.Backing), win.HasSharedMemory)
//	surface.Register("bitmap", 50, surface.NewBitmap(win.BackBuffer), nil)
//
// [Registry.Chain] returns a Presenter that tries available presenters in
// priority order. When none can supply a buffer the chain allocates one on
// the heap, and when presentation fails it falls through to the next
// presenter that accepts foreign buffers.
package surface
