// svuart/link.go

package svuart

const (
	// ServerHelloSize is the number of bytes the host sends before relay data.
	ServerHelloSize = 4
	// TargetHelloSize is the number of identification bytes sent to the host.
	TargetHelloSize = 4
	// DefaultChannel is the RTT channel carrying the SystemView stream.
	DefaultChannel = 1
)

// Buffers is the RTT-style buffer pair a Link relays to and from.
type Buffers interface {
	// WriteDownBuffer appends host→device bytes. Overflow handling is the
	// implementation's concern.
	WriteDownBuffer(channel int, p []byte) int
	// ReadUpBufferNoLock takes device→host bytes without locking. It
	// returns 0 when nothing is buffered.
	ReadUpBufferNoLock(channel int, p []byte) int
}

// Tracer is the recorder lifecycle a Link kicks once relay data arrives.
type Tracer interface {
	IsStarted() bool
	// Start must be idempotent.
	Start()
}

// HelloFromVersion builds the target hello ['S', 'V', major, minor] from a
// SystemView version number such as 35200 (3.52).
func HelloFromVersion(version uint32) [TargetHelloSize]byte {
	return [TargetHelloSize]byte{'S', 'V', byte(version / 10000), byte((version / 1000) % 10)}
}

// Link is the handshake and relay state for one serial line. It implements
// Callbacks and is mutated only from the interrupt handler.
//
// Both hello counters saturate. Once a direction's hello is done it stays
// done until reset; there is no renegotiation.
type Link struct {
	helloRcvd uint8
	helloSent uint8
	channel   int
	hello     [TargetHelloSize]byte

	bufs   Buffers
	tracer Tracer

	rx [1]byte
	tx [1]byte
}

// NewLink returns a Link relaying on channel and greeting the host with hello.
func NewLink(channel int, hello [TargetHelloSize]byte, bufs Buffers, tr Tracer) *Link {
	return &Link{
		channel: channel,
		hello:   hello,
		bufs:    bufs,
		tracer:  tr,
	}
}

// Channel returns the relay channel.
func (l *Link) Channel() int { return l.channel }

// OnReceive implements Callbacks. The first ServerHelloSize bytes are the
// host hello and are dropped, whatever their value. Every later byte goes
// to the down buffer and makes sure the tracer is running.
func (l *Link) OnReceive(b byte) {
	if l.helloRcvd < ServerHelloSize {
		l.helloRcvd++
		return
	}
	l.rx[0] = b
	l.bufs.WriteDownBuffer(l.channel, l.rx[:])
	if !l.tracer.IsStarted() {
		l.tracer.Start()
	}
}

// OnTransmit implements Callbacks. It yields the target hello first, then
// whatever the up buffer holds. It never waits.
func (l *Link) OnTransmit() (byte, bool) {
	if l.helloSent < TargetHelloSize {
		b := l.hello[l.helloSent]
		l.helloSent++
		return b, true
	}
	if l.bufs.ReadUpBufferNoLock(l.channel, l.tx[:]) <= 0 {
		return 0, false
	}
	return l.tx[0], true
}
