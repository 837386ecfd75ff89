// Package bridge is the host side of the SystemView UART link. It performs
// the host half of the handshake over any io.ReadWriter, relays the trace
// stream to sinks and sends host commands back to the target.
package bridge

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"
	"sync/atomic"

	"github.com/golang/glog"

	"github.com/jangala-dev/tinygo-svuart/svuart"
)

var (
	// ErrBadHello indicates the target did not answer with 'S', 'V'.
	ErrBadHello = errors.New("unexpected target hello")
	// ErrClosed indicates the sink or session is closed.
	ErrClosed = errors.New("closed")
)

// Sink receives relayed trace bytes. p is only valid during the call.
type Sink interface {
	WriteTrace(p []byte) error
	Close() error
}

// Stats counts session traffic.
type Stats struct {
	TraceBytes uint64
	Commands   uint64
}

// Session is an established link to a target.
type Session struct {
	rw     io.ReadWriter
	target [svuart.TargetHelloSize]byte

	wlock    sync.Mutex
	rxBytes  atomic.Uint64
	commands atomic.Uint64
}

// Handshake sends the server hello for version and waits for the target
// hello. ctx bounds the wait: on cancel rw is closed if it is an io.Closer
// and Handshake returns without waiting for the pending Read.
func Handshake(ctx context.Context, rw io.ReadWriter, version uint32) (*Session, error) {
	hello := svuart.HelloFromVersion(version)
	if _, err := rw.Write(hello[:]); err != nil {
		return nil, fmt.Errorf("send hello: %w", err)
	}
	s := &Session{rw: rw}
	var target [svuart.TargetHelloSize]byte
	err := RunWithContextCancel(ctx, s.closeRW, func() error {
		var got [svuart.TargetHelloSize]byte
		_, err := io.ReadFull(rw, got[:])
		target = got
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("read target hello: %w", err)
	}
	s.target = target
	if s.target[0] != 'S' || s.target[1] != 'V' {
		return nil, fmt.Errorf("%w: % x", ErrBadHello, s.target[:])
	}
	glog.Infof("target SystemView %d.%d", s.target[2], s.target[3])
	return s, nil
}

// TargetVersion returns the major and minor version from the target hello.
func (s *Session) TargetVersion() (major, minor byte) {
	return s.target[2], s.target[3]
}

// Stats returns a snapshot of the traffic counters.
func (s *Session) Stats() Stats {
	return Stats{
		TraceBytes: s.rxBytes.Load(),
		Commands:   s.commands.Load(),
	}
}

// SendCommand writes one host command byte to the target.
func (s *Session) SendCommand(cmd byte) error {
	s.wlock.Lock()
	defer s.wlock.Unlock()
	if _, err := s.rw.Write([]byte{cmd}); err != nil {
		return fmt.Errorf("send command %d: %w", cmd, err)
	}
	s.commands.Add(1)
	glog.V(2).Infof("CMD %d", cmd)
	return nil
}

// Run relays trace bytes to sinks until the stream ends or ctx is done.
// A sink that fails is closed and dropped; the others keep receiving.
// End of stream returns nil; cancellation returns context.Canceled, after
// which no sink is written even if a pending Read still completes.
func (s *Session) Run(ctx context.Context, sinks ...Sink) error {
	active := append([]Sink(nil), sinks...)
	buf := make([]byte, 512)
	var stopped atomic.Bool
	err := RunWithContextCancel(ctx, func() {
		stopped.Store(true)
		s.closeRW()
	}, func() error {
		for {
			n, err := s.rw.Read(buf)
			if stopped.Load() {
				return context.Canceled
			}
			if n > 0 {
				s.rxBytes.Add(uint64(n))
				active = deliver(active, buf[:n])
			}
			if err != nil {
				if errors.Is(err, io.EOF) {
					return nil
				}
				return err
			}
		}
	})
	return err
}

func deliver(sinks []Sink, p []byte) []Sink {
	kept := sinks[:0]
	for _, sink := range sinks {
		if err := sink.WriteTrace(p); err != nil {
			glog.Warningf("dropping sink: %v", err)
			sink.Close()
			continue
		}
		kept = append(kept, sink)
	}
	return kept
}

func (s *Session) closeRW() {
	if c, ok := s.rw.(io.Closer); ok {
		c.Close()
	}
}
