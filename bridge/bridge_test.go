package bridge

import (
	"context"
	"errors"
	"io"
	"net"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type memSink struct {
	lock   sync.Mutex
	data   []byte
	fail   bool
	closed bool
}

func (s *memSink) WriteTrace(p []byte) error {
	s.lock.Lock()
	defer s.lock.Unlock()
	if s.fail {
		return errors.New("sink failed")
	}
	s.data = append(s.data, p...)
	return nil
}

func (s *memSink) Close() error {
	s.lock.Lock()
	s.closed = true
	s.lock.Unlock()
	return nil
}

// fakeTarget reads the server hello and answers with reply.
func fakeTarget(t *testing.T, conn net.Conn, reply []byte) <-chan []byte {
	got := make(chan []byte, 1)
	go func() {
		hello := make([]byte, 4)
		if _, err := io.ReadFull(conn, hello); err != nil {
			got <- nil
			return
		}
		got <- hello
		if reply != nil {
			conn.Write(reply)
		}
	}()
	return got
}

func TestHandshake(t *testing.T) {
	host, target := net.Pipe()
	defer host.Close()
	defer target.Close()
	got := fakeTarget(t, target, []byte{'S', 'V', 3, 5})

	s, err := Handshake(context.Background(), host, 35200)
	require.NoError(t, err)
	assert.Equal(t, []byte{'S', 'V', 3, 5}, <-got)
	major, minor := s.TargetVersion()
	assert.Equal(t, byte(3), major)
	assert.Equal(t, byte(5), minor)
}

func TestHandshake_BadHello(t *testing.T) {
	host, target := net.Pipe()
	defer host.Close()
	defer target.Close()
	fakeTarget(t, target, []byte{'X', 'Y', 1, 2})

	_, err := Handshake(context.Background(), host, 35200)
	assert.ErrorIs(t, err, ErrBadHello)
}

func TestHandshake_Canceled(t *testing.T) {
	host, target := net.Pipe()
	defer target.Close()
	fakeTarget(t, target, nil)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	_, err := Handshake(ctx, host, 35200)
	assert.ErrorIs(t, err, context.Canceled)
}

// stuckReader never completes a Read and has no Close to interrupt it,
// like a tty left in blocking mode.
type stuckReader struct {
	release chan struct{}
	reply   []byte
}

func (r *stuckReader) Read(p []byte) (int, error) {
	<-r.release
	return copy(p, r.reply), nil
}

func (r *stuckReader) Write(p []byte) (int, error) { return len(p), nil }

func TestHandshake_CanceledWithoutCloser(t *testing.T) {
	rw := &stuckReader{release: make(chan struct{}), reply: []byte{'S'}}
	defer close(rw.release)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	done := make(chan error, 1)
	go func() {
		_, err := Handshake(ctx, rw, 35200)
		done <- err
	}()
	select {
	case err := <-done:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(time.Second):
		t.Fatal("Handshake did not return after its context expired")
	}
}

func TestSession_RunCanceledWithoutCloser(t *testing.T) {
	rw := &stuckReader{release: make(chan struct{}), reply: []byte{9}}
	s := &Session{rw: rw}
	sink := &memSink{}

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	done := make(chan error, 1)
	go func() { done <- s.Run(ctx, sink) }()
	select {
	case err := <-done:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(time.Second):
		t.Fatal("Run did not return after its context expired")
	}

	// A Read completing after cancel is not relayed.
	close(rw.release)
	time.Sleep(10 * time.Millisecond)
	sink.lock.Lock()
	defer sink.lock.Unlock()
	assert.Empty(t, sink.data)
}

func newSession(t *testing.T) (*Session, net.Conn) {
	host, target := net.Pipe()
	t.Cleanup(func() {
		host.Close()
		target.Close()
	})
	fakeTarget(t, target, []byte{'S', 'V', 3, 5})
	s, err := Handshake(context.Background(), host, 35200)
	require.NoError(t, err)
	return s, target
}

func TestSession_RunRelaysToSinks(t *testing.T) {
	s, target := newSession(t)
	good, bad := &memSink{}, &memSink{fail: true}

	go func() {
		target.Write([]byte{1, 2, 3})
		target.Write([]byte{4})
		target.Close()
	}()
	require.NoError(t, s.Run(context.Background(), good, bad))

	assert.Equal(t, []byte{1, 2, 3, 4}, good.data)
	assert.False(t, good.closed)
	assert.True(t, bad.closed)
	assert.Equal(t, uint64(4), s.Stats().TraceBytes)
}

func TestSession_RunCanceled(t *testing.T) {
	s, _ := newSession(t)
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	assert.ErrorIs(t, s.Run(ctx), context.Canceled)
}

func TestSession_SendCommand(t *testing.T) {
	s, target := newSession(t)
	got := make(chan byte, 1)
	go func() {
		var b [1]byte
		if _, err := io.ReadFull(target, b[:]); err == nil {
			got <- b[0]
		}
	}()
	require.NoError(t, s.SendCommand(2))
	assert.Equal(t, byte(2), <-got)
	assert.Equal(t, uint64(1), s.Stats().Commands)
}

func TestRunWithContextCancel(t *testing.T) {
	err := RunWithContextCancel(context.Background(), nil, func() error { return io.ErrUnexpectedEOF })
	assert.Equal(t, io.ErrUnexpectedEOF, err)

	ctx, cancel := context.WithCancel(context.Background())
	unblock := make(chan struct{})
	cancel()
	err = RunWithContextCancel(ctx, func() { close(unblock) }, func() error {
		<-unblock
		return nil
	})
	assert.Equal(t, context.Canceled, err)

	// A canceled fn that never returns does not hold the caller.
	never := make(chan struct{})
	defer close(never)
	err = RunWithContextCancel(ctx, nil, func() error {
		<-never
		return nil
	})
	assert.Equal(t, context.Canceled, err)
}

func TestFileSink(t *testing.T) {
	path := filepath.Join(t.TempDir(), "trace.bin")
	sink, err := CreateFileSink(path)
	require.NoError(t, err)
	require.NoError(t, sink.WriteTrace([]byte{0x53, 0x56}))
	require.NoError(t, sink.WriteTrace([]byte{0x01}))
	require.NoError(t, sink.Close())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, []byte{0x53, 0x56, 0x01}, data)
}
