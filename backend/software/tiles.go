package software

import (
	"cmp"
	"slices"

	"github.com/gogpu/splatview"
	"github.com/gogpu/splatview/internal/arena"
	"github.com/gogpu/splatview/internal/parallel"
)

// cancelRows is how many tile rows are flushed between cancel polls.
const cancelRows = 8

// record is one splat clipped to one tile, in tile-local coordinates.
type record struct {
	x0, x1, y0, y1 uint8
	word           uint32
	z              float32
}

// TileStats describes the last flushed frame.
type TileStats struct {
	// Tiles is the number of non-empty tiles.
	Tiles int
	// Records is the number of enqueued tile records.
	Records int
	// Painted is the number of pixels written.
	Painted int
	// Full is the number of tiles that filled before their queue ran out.
	Full int
}

func (s *TileStats) add(o TileStats) {
	s.Tiles += o.Tiles
	s.Records += o.Records
	s.Painted += o.Painted
	s.Full += o.Full
}

// Tiles is the Z-sorted tile rasterizer.
//
// Tiles is NOT safe for concurrent use.
type Tiles struct {
	frame

	records *arena.Arena[record]
	queues  [][]*record
	tilesX  int
	tilesY  int
	occ     occlusion
	stats   TileStats

	pool  *parallel.Pool
	band  []int
	bandS []TileStats
}

// NewTiles returns a tile rasterizer.
func NewTiles(opts ...Option) *Tiles {
	t := &Tiles{records: arena.New[record](arena.DefaultChunkSize)}
	for _, opt := range opts {
		opt(&t.options)
	}
	return t
}

// Begin implements splatview.Backend.
func (t *Tiles) Begin(view splatview.View, hasColor bool) error {
	if err := t.begin(view, hasColor); err != nil {
		return err
	}
	t.tilesX = (t.width + tileMask) >> tileShift
	t.tilesY = (t.height + tileMask) >> tileShift
	n := t.tilesX * t.tilesY
	if cap(t.queues) < n {
		t.queues = make([][]*record, n)
	}
	t.queues = t.queues[:n]
	for i := range t.queues {
		t.queues[i] = t.queues[i][:0]
	}
	t.records.Reset()
	t.stats = TileStats{}
	return nil
}

// Emit implements splatview.Backend.
func (t *Tiles) Emit(s *splatview.Splat) {
	if t.buf == nil {
		return
	}
	b, z, word, ok := t.place(s)
	if !ok {
		return
	}

	tx0, tx1 := b.x0>>tileShift, b.x1>>tileShift
	ty0, ty1 := b.y0>>tileShift, b.y1>>tileShift
	for ty := ty0; ty <= ty1; ty++ {
		y0, y1 := 0, tileMask
		if ty == ty0 {
			y0 = b.y0 & tileMask
		}
		if ty == ty1 {
			y1 = b.y1 & tileMask
		}
		row := ty * t.tilesX
		for tx := tx0; tx <= tx1; tx++ {
			x0, x1 := 0, tileMask
			if tx == tx0 {
				x0 = b.x0 & tileMask
			}
			if tx == tx1 {
				x1 = b.x1 & tileMask
			}
			r := t.records.Next()
			r.x0, r.x1, r.y0, r.y1 = uint8(x0), uint8(x1), uint8(y0), uint8(y1)
			r.word = word
			r.z = z
			t.queues[row+tx] = append(t.queues[row+tx], r)
		}
	}
	t.splatted++
}

// End implements splatview.Backend. cancel is polled every 8 tile rows,
// starting with the first; when it returns true the remaining tiles are
// dropped, nothing is presented and End returns true.
func (t *Tiles) End(bailed bool, cancel splatview.CancelFunc) bool {
	defer t.reset()
	if bailed || t.buf == nil {
		return false
	}

	for ty := 0; ty < t.tilesY; ty += cancelRows {
		if cancel != nil && cancel() {
			splatview.Logger().Debug("software: tile pass aborted", "row", ty, "rows", t.tilesY)
			return true
		}
		t.flushBand(ty, min(ty+cancelRows, t.tilesY))
	}

	splatview.Logger().Debug("software: tiles flushed",
		"tiles", t.stats.Tiles, "records", t.stats.Records, "painted", t.stats.Painted)
	t.present()
	return false
}

// flushBand paints the non-empty tiles of tile rows [ty0, ty1).
func (t *Tiles) flushBand(ty0, ty1 int) {
	t.band = t.band[:0]
	for i := ty0 * t.tilesX; i < ty1*t.tilesX; i++ {
		if len(t.queues[i]) > 0 {
			t.band = append(t.band, i)
		}
	}
	if t.workers < 2 || len(t.band) < 2 {
		for _, i := range t.band {
			t.stats.add(t.flushTile(i, &t.occ))
		}
		return
	}

	if t.pool == nil {
		t.pool = parallel.New(t.workers)
	}
	if cap(t.bandS) < len(t.band) {
		t.bandS = make([]TileStats, len(t.band))
	}
	stats := t.bandS[:len(t.band)]
	t.pool.Run(len(t.band), func(j int) {
		var occ occlusion
		stats[j] = t.flushTile(t.band[j], &occ)
	})
	for _, s := range stats {
		t.stats.add(s)
	}
}

// flushTile sorts tile i front to back and paints it until it is full.
// Tiles cover disjoint pixels, so distinct tiles may flush concurrently.
func (t *Tiles) flushTile(i int, occ *occlusion) TileStats {
	tx, ty := i%t.tilesX, i/t.tilesX
	cols, rows := 0, 0
	if tx == t.tilesX-1 {
		cols = t.width & tileMask
	}
	if ty == t.tilesY-1 {
		rows = t.height & tileMask
	}
	occ.reset(cols, rows)

	q := t.queues[i]
	slices.SortStableFunc(q, func(a, b *record) int {
		return cmp.Compare(a.z, b.z)
	})

	buf := t.buf
	stride := buf.Stride
	bpp := buf.Layout.BytesPerPixel()
	base := buf.Offset(tx<<tileShift, ty<<tileShift)
	st := TileStats{Tiles: 1, Records: len(q)}
	for _, rec := range q {
		word := rec.word
		full := occ.paint(rec, func(col, row int) {
			buf.PutWord(base+row*stride+col*bpp, word)
			st.Painted++
		})
		if full {
			st.Full++
			break
		}
	}
	return st
}

// Stats returns counters for the last flushed frame.
func (t *Tiles) Stats() TileStats { return t.stats }

// Close stops the flush workers started by WithWorkers.
func (t *Tiles) Close() error {
	if t.pool != nil {
		t.pool.Close()
		t.pool = nil
	}
	return nil
}

func (t *Tiles) reset() {
	for i := range t.queues {
		t.queues[i] = t.queues[i][:0]
	}
	t.records.Reset()
	t.release()
}
