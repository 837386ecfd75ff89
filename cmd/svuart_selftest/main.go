//go:build rp2040 || rp2350

// svuart_selftest exercises the trace link on UART1 with TX wired to RX
// (Pico: GP4 to GP5). The looped-back target hello stands in for the host
// hello, so every byte queued after it must come back in the down buffer.
package main

import (
	"context"
	"time"

	"machine"

	"github.com/jangala-dev/tinygo-svuart/rtt"
	"github.com/jangala-dev/tinygo-svuart/svuart"
	"github.com/jangala-dev/tinygo-svuart/sysview"
)

const (
	baud    = 115200
	channel = svuart.DefaultChannel
)

// startCounter is a Tracer that only counts start requests.
type startCounter struct {
	started bool
	starts  int
}

func (s *startCounter) IsStarted() bool { return s.started }

func (s *startCounter) Start() {
	s.started = true
	s.starts++
}

func ledBlink(times int, on time.Duration) {
	for i := 0; i < times; i++ {
		machine.LED.High()
		time.Sleep(on)
		machine.LED.Low()
		time.Sleep(on)
	}
}

// recvExact collects n bytes from the down buffer or gives up at ctx.
func recvExact(ctx context.Context, cb *rtt.ControlBlock, n int) []byte {
	out := make([]byte, 0, n)
	var tmp [32]byte
	for len(out) < n {
		if k := cb.ReadDownBuffer(channel, tmp[:]); k > 0 {
			out = append(out, tmp[:k]...)
			continue
		}
		select {
		case <-ctx.Done():
			return out
		case <-time.After(time.Millisecond):
		}
	}
	return out
}

func main() {
	// Give the monitor time to attach.
	time.Sleep(3 * time.Second)
	machine.LED.Configure(machine.PinConfig{Mode: machine.PinOutput})

	println("svuart self-test starting")

	bufs := rtt.New(2, 2, 256)
	tracer := &startCounter{}
	d := svuart.UART1
	link := svuart.NewLink(channel, svuart.HelloFromVersion(sysview.Version), bufs, tracer)
	bufs.SetUpNotify(d.EnableTxEmptyInterrupt)

	if err := d.Init(baud, link); err != nil {
		println("Init failed:", err.Error())
		for {
			ledBlink(1, 500*time.Millisecond)
		}
	}

	pass, fail := 0, 0
	defer func() {
		println("")
		println("Summary")
		println("  passed =", pass)
		println("  failed =", fail)
		if fail == 0 {
			ledBlink(3, 120*time.Millisecond)
		} else {
			for {
				ledBlink(1, 600*time.Millisecond)
				time.Sleep(800 * time.Millisecond)
			}
		}
	}()

	run := func(name string, f func() string) {
		println("")
		println("[Test]", name)
		if msg := f(); msg == "" {
			println("  PASS")
			pass++
		} else {
			println("  FAIL:", msg)
			fail++
		}
	}

	run("init: second Init is rejected", func() string {
		if err := d.Init(baud, link); err != svuart.ErrAlreadyInitialized {
			return "expected ErrAlreadyInitialized"
		}
		if d.Baud() != baud {
			return "baud not recorded"
		}
		return ""
	})

	run("handshake: looped hello is consumed", func() string {
		time.Sleep(20 * time.Millisecond)
		if n := bufs.HasDataDown(channel); n != 0 {
			return "hello bytes reached the down buffer"
		}
		if tracer.starts != 0 {
			return "tracer started during handshake"
		}
		return ""
	})

	run("relay: up bytes come back down", func() string {
		msg := []byte("svuart")
		if n := bufs.WriteUpBuffer(channel, msg); n != len(msg) {
			return "up buffer rejected data"
		}
		ctx, cancel := context.WithTimeout(context.Background(), 500*time.Millisecond)
		defer cancel()
		got := recvExact(ctx, bufs, len(msg))
		if string(got) != string(msg) {
			return "mismatch"
		}
		if tracer.starts != 1 {
			return "tracer not started exactly once"
		}
		return ""
	})

	run("relay: buffer-sized burst keeps order", func() string {
		burst := make([]byte, 200)
		for i := range burst {
			burst[i] = byte(i)
		}
		if n := bufs.WriteUpBuffer(channel, burst); n != len(burst) {
			return "up buffer rejected data"
		}
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		got := recvExact(ctx, bufs, len(burst))
		if len(got) != len(burst) {
			return "short burst"
		}
		for i := range got {
			if got[i] != burst[i] {
				return "out of order"
			}
		}
		return ""
	})

	run("drain: transmitter goes idle", func() string {
		ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
		defer cancel()
		if err := d.Drain(ctx); err != nil {
			return "drain timed out"
		}
		return ""
	})
}
