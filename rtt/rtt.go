// rtt/rtt.go

// Package rtt implements an RTT-style control block: numbered up
// (device→host) and down (host→device) byte rings shared between the
// application and a transport such as svuart.
//
// Every ring has exactly one producer and one consumer. For up buffers the
// application writes and the transport reads; for down buffers it is the
// other way round. Nothing here locks.
package rtt

import "errors"

var (
	// ErrInvalidChannel is returned for a channel outside the control block.
	ErrInvalidChannel = errors.New("rtt: invalid channel")
	// ErrInvalidSize is returned for a non-positive or oversized buffer.
	ErrInvalidSize = errors.New("rtt: invalid buffer size")
)

// DefaultBufferSize is used by New for a non-positive size.
const DefaultBufferSize = 1024

// ControlBlock groups the up and down buffers.
type ControlBlock struct {
	up   []*Buffer
	down []*Buffer

	upNotify func()
}

// New returns a control block with numUp and numDown buffers of size bytes
// each, rounded up to a power of two. Channel 0 is named "Terminal".
func New(numUp, numDown, size int) *ControlBlock {
	if size <= 0 || size > MaxBufferSize {
		size = DefaultBufferSize
	}
	cb := &ControlBlock{
		up:   make([]*Buffer, numUp),
		down: make([]*Buffer, numDown),
	}
	for i := range cb.up {
		cb.up[i], _ = newBuffer(defaultName(i), size, NoBlockSkip)
	}
	for i := range cb.down {
		cb.down[i], _ = newBuffer(defaultName(i), size, NoBlockSkip)
	}
	return cb
}

func defaultName(ch int) string {
	if ch == 0 {
		return "Terminal"
	}
	return ""
}

// ConfigUpBuffer replaces up buffer ch. Call it before the transport runs.
func (cb *ControlBlock) ConfigUpBuffer(ch int, name string, size int, mode Mode) error {
	return configure(cb.up, ch, name, size, mode)
}

// ConfigDownBuffer replaces down buffer ch. Call it before the transport runs.
func (cb *ControlBlock) ConfigDownBuffer(ch int, name string, size int, mode Mode) error {
	return configure(cb.down, ch, name, size, mode)
}

func configure(bufs []*Buffer, ch int, name string, size int, mode Mode) error {
	if ch < 0 || ch >= len(bufs) {
		return ErrInvalidChannel
	}
	b, err := newBuffer(name, size, mode)
	if err != nil {
		return err
	}
	bufs[ch] = b
	return nil
}

// SetUpNotify registers fn to run after every up write that stored at least
// one byte. Transports use it to re-arm their transmit interrupt. Set it
// before any writes.
func (cb *ControlBlock) SetUpNotify(fn func()) { cb.upNotify = fn }

// Up returns up buffer ch, or nil.
func (cb *ControlBlock) Up(ch int) *Buffer { return pick(cb.up, ch) }

// Down returns down buffer ch, or nil.
func (cb *ControlBlock) Down(ch int) *Buffer { return pick(cb.down, ch) }

func pick(bufs []*Buffer, ch int) *Buffer {
	if ch < 0 || ch >= len(bufs) {
		return nil
	}
	return bufs[ch]
}

// WriteUpBuffer queues device→host bytes. Application side.
func (cb *ControlBlock) WriteUpBuffer(ch int, p []byte) int {
	b := cb.Up(ch)
	if b == nil {
		return 0
	}
	n := b.Write(p)
	if n > 0 && cb.upNotify != nil {
		cb.upNotify()
	}
	return n
}

// ReadUpBufferNoLock takes device→host bytes. Transport side; safe from
// interrupt context.
func (cb *ControlBlock) ReadUpBufferNoLock(ch int, p []byte) int {
	b := cb.Up(ch)
	if b == nil {
		return 0
	}
	return b.Read(p)
}

// WriteDownBuffer queues host→device bytes. Transport side; safe from
// interrupt context.
func (cb *ControlBlock) WriteDownBuffer(ch int, p []byte) int {
	b := cb.Down(ch)
	if b == nil {
		return 0
	}
	return b.Write(p)
}

// ReadDownBuffer takes host→device bytes. Application side.
func (cb *ControlBlock) ReadDownBuffer(ch int, p []byte) int {
	b := cb.Down(ch)
	if b == nil {
		return 0
	}
	return b.Read(p)
}

// HasDataUp returns the number of bytes pending in up buffer ch.
func (cb *ControlBlock) HasDataUp(ch int) int {
	if b := cb.Up(ch); b != nil {
		return b.Used()
	}
	return 0
}

// HasDataDown returns the number of bytes pending in down buffer ch.
func (cb *ControlBlock) HasDataDown(ch int) int {
	if b := cb.Down(ch); b != nil {
		return b.Used()
	}
	return 0
}
