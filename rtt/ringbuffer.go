// rtt/ringbuffer.go

package rtt

import "sync/atomic"

// Mode selects what a write does when the buffer cannot take all of it.
type Mode uint8

const (
	// NoBlockSkip drops the whole write if it does not fit.
	NoBlockSkip Mode = iota
	// NoBlockTrim writes as much as fits.
	NoBlockTrim
)

// MaxBufferSize is the largest accepted ring size.
const MaxBufferSize = 1 << 16

// Buffer is a single-producer single-consumer byte ring. The producer only
// stores wr and the consumer only stores rd, so neither side needs a lock.
// Indices run freely and wrap through the size mask.
type Buffer struct {
	Name string
	Mode Mode

	data []byte
	mask uint32
	wr   atomic.Uint32
	rd   atomic.Uint32
}

func newBuffer(name string, size int, mode Mode) (*Buffer, error) {
	if size <= 0 || size > MaxBufferSize {
		return nil, ErrInvalidSize
	}
	n := roundPow2(uint32(size))
	return &Buffer{
		Name: name,
		Mode: mode,
		data: make([]byte, n),
		mask: n - 1,
	}, nil
}

// Size returns the capacity in bytes.
func (b *Buffer) Size() int { return len(b.data) }

// Used returns how many bytes are waiting to be read.
func (b *Buffer) Used() int { return int(b.wr.Load() - b.rd.Load()) }

// Free returns how many bytes can be written now.
func (b *Buffer) Free() int { return b.Size() - b.Used() }

// Write stores p according to Mode and returns the number of bytes taken.
// Producer side only.
func (b *Buffer) Write(p []byte) int {
	n := len(p)
	if free := b.Free(); n > free {
		if b.Mode == NoBlockSkip {
			return 0
		}
		n = free
	}
	w := b.wr.Load()
	for i := 0; i < n; i++ {
		b.data[(w+uint32(i))&b.mask] = p[i] // 1) write data
	}
	b.wr.Store(w + uint32(n)) // 2) publish
	return n
}

// Read copies up to len(p) bytes out and returns the count. Consumer side only.
func (b *Buffer) Read(p []byte) int {
	n := b.Used()
	if n > len(p) {
		n = len(p)
	}
	r := b.rd.Load()
	for i := 0; i < n; i++ {
		p[i] = b.data[(r+uint32(i))&b.mask] // 1) read element
	}
	b.rd.Store(r + uint32(n)) // 2) publish consumption
	return n
}

func roundPow2(v uint32) uint32 {
	n := uint32(1)
	for n < v {
		n <<= 1
	}
	return n
}
