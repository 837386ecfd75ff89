package svuart

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testHello = [TargetHelloSize]byte{0x53, 0x56, 3, 4}

func newTestLink() (*Link, *fakeBuffers, *fakeTracer) {
	bufs := &fakeBuffers{}
	tr := &fakeTracer{}
	return NewLink(DefaultChannel, testHello, bufs, tr), bufs, tr
}

func TestHelloFromVersion(t *testing.T) {
	assert.Equal(t, testHello, HelloFromVersion(34000))
	assert.Equal(t, [TargetHelloSize]byte{'S', 'V', 3, 5}, HelloFromVersion(35200))
	assert.Equal(t, [TargetHelloSize]byte{'S', 'V', 2, 4}, HelloFromVersion(24200))
}

func TestLink_ServerHelloDiscarded(t *testing.T) {
	l, bufs, tr := newTestLink()

	for _, b := range []byte{0xAA, 0xBB, 0xCC, 0xDD} {
		l.OnReceive(b)
	}
	assert.Empty(t, bufs.down)
	assert.Zero(t, tr.starts)
	assert.Zero(t, tr.checks, "tracer untouched during the handshake")

	l.OnReceive('x')
	l.OnReceive('y')
	l.OnReceive('z')
	assert.Equal(t, []byte("xyz"), bufs.down)
	for _, ch := range bufs.channels {
		assert.Equal(t, DefaultChannel, ch)
	}
}

func TestLink_HelloBytesValueIndependent(t *testing.T) {
	// Bytes that look like relay data are still counted as hello.
	l, bufs, _ := newTestLink()
	for i := 0; i < ServerHelloSize; i++ {
		l.OnReceive('A')
	}
	l.OnReceive('B')
	assert.Equal(t, []byte("B"), bufs.down)
}

func TestLink_TracerStartedOnce(t *testing.T) {
	l, _, tr := newTestLink()
	for i := 0; i < ServerHelloSize; i++ {
		l.OnReceive(0)
	}
	for i := 0; i < 50; i++ {
		l.OnReceive(byte(i))
	}
	assert.Equal(t, 1, tr.starts)
	assert.True(t, tr.started)
	assert.Equal(t, 50, tr.checks)
}

func TestLink_TargetHelloFirst(t *testing.T) {
	l, bufs, _ := newTestLink()
	bufs.up = []byte{0x10, 0x20}

	var got []byte
	for i := 0; i < TargetHelloSize; i++ {
		b, ok := l.OnTransmit()
		require.True(t, ok)
		got = append(got, b)
	}
	assert.Equal(t, testHello[:], got)
	assert.Len(t, bufs.up, 2, "up buffer untouched during the handshake")

	b, ok := l.OnTransmit()
	require.True(t, ok)
	assert.Equal(t, byte(0x10), b)
	b, ok = l.OnTransmit()
	require.True(t, ok)
	assert.Equal(t, byte(0x20), b)
	_, ok = l.OnTransmit()
	assert.False(t, ok)
}

func TestLink_EmptyUpBufferIsNotAnError(t *testing.T) {
	l, bufs, _ := newTestLink()
	for i := 0; i < TargetHelloSize; i++ {
		l.OnTransmit()
	}
	for i := 0; i < 10; i++ {
		_, ok := l.OnTransmit()
		assert.False(t, ok)
	}
	bufs.up = []byte{0x99}
	b, ok := l.OnTransmit()
	require.True(t, ok)
	assert.Equal(t, byte(0x99), b)
}

func TestLink_CountersSaturate(t *testing.T) {
	l, _, _ := newTestLink()
	for i := 0; i < 1000; i++ {
		l.OnReceive(byte(i))
		l.OnTransmit()
	}
	assert.Equal(t, uint8(ServerHelloSize), l.helloRcvd)
	assert.Equal(t, uint8(TargetHelloSize), l.helloSent)
}

func TestLink_DirectionsIndependent(t *testing.T) {
	// Relay-out starts even if the host never sends its hello.
	l, bufs, _ := newTestLink()
	bufs.up = []byte{0x42}
	for i := 0; i < TargetHelloSize; i++ {
		l.OnTransmit()
	}
	b, ok := l.OnTransmit()
	require.True(t, ok)
	assert.Equal(t, byte(0x42), b)
	assert.Zero(t, l.helloRcvd)
}
