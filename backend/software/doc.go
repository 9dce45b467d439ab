// Package software rasterizes splats on the CPU.
//
// Two rasterizers share projection, lighting and packing:
//
//   - Tiles buckets clipped splat rectangles into 32x32 tiles during Emit.
//     End sorts each tile's records by depth and paints them front to back,
//     tracking unpainted pixels in one 32-bit word per tile row so each
//     pixel is written at most once and a tile stops as soon as it is full.
//   - ZBuffer writes every covered pixel immediately, keeping the nearest
//     depth per pixel. It wins when splats are only a few pixels wide.
//
// Output buffers come from a surface.Presenter and are presented at the end
// of a frame that was neither bailed nor aborted.
package software
