// Package splatview renders point-sampled surfaces as splats under a
// frame-time budget.
//
// # Overview
//
// A [Model] is a hierarchical splat tree. Each frame it walks the tree down
// to a level-of-detail threshold and hands visible splats to a [Backend].
// The control package measures how long the frame took and feeds a
// multiplicative correction back into the Model, so the frame rate stays
// near a target regardless of model size. Between interactions it refines
// the image progressively.
//
// # Backends
//
//   - backend/software: CPU rasterizers. Tiles sorts splats per 32x32 tile
//     by depth and paints front to back under an occlusion mask. ZBuffer is a
//     plain per-pixel depth test, faster for tiny splats.
//   - backend/hardware: host-pipeline styles (points, quads, masked
//     triangles, ellipses, spheres) driven through a Pipeline interface.
//   - backend: the Dispatcher choosing one backend per frame.
//
// Finished software frames are handed to a presenter from the surface
// package (shared image, bitmap copy, or texture upload).
//
// # Logging
//
// All packages log through [Logger]. Nothing is logged until [SetLogger]
// is called.
package splatview
