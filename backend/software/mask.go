package software

import "math/bits"

// TileSize is the edge length of a tile in pixels. One row of a tile fits
// a 32-bit occlusion word.
const TileSize = 32

const (
	tileShift = 5
	tileMask  = TileSize - 1
)

// ones returns a word with the low n bits set, for n in [0, 32].
func ones(n int) uint32 {
	return uint32(uint64(1)<<uint(n) - 1)
}

// spanMask returns the bits for tile-local columns x0..x1 inclusive.
func spanMask(x0, x1 int) uint32 {
	return ones(x1+1) ^ ones(x0)
}

// occlusion tracks unpainted pixels of one tile. Bit i of row j is set
// while pixel (i, j) has not been written. Bits only ever clear.
type occlusion struct {
	rows [TileSize]uint32
	live int
}

// reset marks the tile fully unpainted. cols is the number of columns that
// exist in the tile and rows the number of rows; pixels beyond either edge
// are treated as already painted. Zero means a full tile.
func (o *occlusion) reset(cols, rows int) {
	m := ^uint32(0)
	if cols != 0 {
		m = ones(cols)
	}
	if rows == 0 {
		rows = TileSize
	}
	o.live = 0
	for r := range TileSize {
		if r < rows {
			o.rows[r] = m
			o.live++
		} else {
			o.rows[r] = 0
		}
	}
}

// paint clears the bits of rec and calls set for each bit that was still
// unpainted. It reports whether the tile is now full.
func (o *occlusion) paint(rec *record, set func(col, row int)) bool {
	cm := spanMask(int(rec.x0), int(rec.x1))
	for r := int(rec.y0); r <= int(rec.y1); r++ {
		m := o.rows[r]
		hit := m & cm
		if hit == 0 {
			continue
		}
		for hit != 0 {
			set(bits.TrailingZeros32(hit), r)
			hit &= hit - 1
		}
		m &^= cm
		o.rows[r] = m
		if m == 0 {
			o.live--
		}
	}
	return o.live == 0
}

// unpainted returns the number of pixels not yet written.
func (o *occlusion) unpainted() int {
	n := 0
	for _, m := range o.rows {
		n += bits.OnesCount32(m)
	}
	return n
}
