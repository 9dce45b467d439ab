// Package arena provides a growable chunked allocator for per-frame records.
//
// Records are handed out from fixed-size chunks. Reset rewinds the arena so
// the same chunks are reused by the next frame; nothing is returned to the
// garbage collector until the arena itself is dropped. Pointers returned by
// Next stay valid until the following Reset.
//
// Thread safety: Arena is NOT safe for concurrent use.
package arena

// DefaultChunkSize is the number of records per chunk.
const DefaultChunkSize = 10000

// Arena hands out *T values from chunks of equal size.
type Arena[T any] struct {
	chunks    [][]T
	chunkSize int

	// cur is the chunk being filled, n the next free slot in it.
	cur int
	n   int
}

// New returns an arena with chunks of chunkSize records. A non-positive
// chunkSize selects DefaultChunkSize.
func New[T any](chunkSize int) *Arena[T] {
	if chunkSize <= 0 {
		chunkSize = DefaultChunkSize
	}
	return &Arena[T]{chunkSize: chunkSize}
}

// Next returns a zeroed record. A new chunk is allocated only when every
// retained chunk is full.
func (a *Arena[T]) Next() *T {
	if a.chunkSize == 0 {
		a.chunkSize = DefaultChunkSize
	}
	if len(a.chunks) == 0 || a.n == a.chunkSize {
		if len(a.chunks) > 0 {
			a.cur++
		}
		if a.cur == len(a.chunks) {
			a.chunks = append(a.chunks, make([]T, a.chunkSize))
		}
		a.n = 0
	}
	p := &a.chunks[a.cur][a.n]
	a.n++
	var zero T
	*p = zero
	return p
}

// Len returns the number of records handed out since the last Reset.
func (a *Arena[T]) Len() int {
	if len(a.chunks) == 0 {
		return 0
	}
	return a.cur*a.chunkSize + a.n
}

// Chunks returns the number of chunks retained.
func (a *Arena[T]) Chunks() int {
	return len(a.chunks)
}

// Reset rewinds the arena. Chunks are kept for reuse.
func (a *Arena[T]) Reset() {
	a.cur = 0
	a.n = 0
}

// Release drops every chunk.
func (a *Arena[T]) Release() {
	a.chunks = nil
	a.cur = 0
	a.n = 0
}
