// svuart/driver.go

package svuart

import (
	"context"
	"time"
)

// Driver owns one Port and runs the interrupt side of the transport.
//
// Invariants:
//   - Init registers the callbacks before any interrupt source is unmasked,
//     so HandleInterrupt reads them without synchronisation.
//   - HandleInterrupt is the only caller of the callbacks and the only writer
//     of the data register after Init.
//   - The vector runs above every critical section of the scheduler, so it
//     never nests with itself and never waits on foreground code.
type Driver struct {
	Port Port

	// Spin waits until done reports true or bound has elapsed, and reports
	// whether done became true. nil selects a deadline-checked busy loop.
	Spin func(done func() bool, bound time.Duration) bool

	cb      Callbacks
	baud    uint32
	txBound time.Duration

	stats Stats
}

// New returns a Driver for p. Init must be called before interrupts fire.
func New(p Port) *Driver {
	return &Driver{Port: p}
}

// Init configures the port for 8N1 at baud, registers cb, unmasks the
// receive and transmit-empty sources and enables the vector at the highest
// priority. It is a one-time, foreground-only call.
func (d *Driver) Init(baud uint32, cb Callbacks) error {
	if d.cb != nil {
		return ErrAlreadyInitialized
	}
	if cb == nil {
		return ErrNoCallbacks
	}
	if baud == 0 {
		baud = DefaultBaudRate
	}
	if err := d.Port.Configure(baud); err != nil {
		return err
	}
	d.baud = baud
	d.txBound = frameTime(baud)
	d.cb = cb

	d.Port.EnableIRQ(RxIRQ | TxEmptyIRQ)
	d.Port.EnableInterrupt()
	return nil
}

// Baud returns the configured baud rate, or 0 before Init.
func (d *Driver) Baud() uint32 { return d.baud }

// HandleInterrupt services one interrupt. Status is sampled once; at most one
// byte is received and at most one byte is sent per call.
//
// RX: the byte is always read so the flag clears. It is dropped when any line
// error is flagged or no callbacks are registered.
//
// TX: without callbacks the handler returns and leaves the mask alone, since
// a pending TX-empty event can fire before Init finishes. When the callbacks
// have nothing to send, TX-empty is masked until EnableTxEmptyInterrupt.
func (d *Driver) HandleInterrupt() {
	st := d.Port.Status()
	d.dbgISR()

	if st.Has(RxReady) {
		b, errs := d.Port.ReadData()
		switch {
		case (st | errs).Any(LineErrors):
			d.dbgLineError()
		case d.cb != nil:
			d.cb.OnReceive(b)
			d.dbgRx()
		}
	}

	if !st.Has(TxEmpty) {
		return
	}
	if d.cb == nil {
		return
	}
	b, ok := d.cb.OnTransmit()
	if !ok {
		d.Port.DisableIRQ(TxEmptyIRQ)
		d.dbgTxIdle()
		return
	}
	// Writing the data register does not clear a stale transmission-complete
	// indication, so wait for it before the write.
	if !d.spin(d.txCompleteSet, d.txBound) {
		d.dbgSpinTimeout()
	}
	d.Port.WriteData(b)
	d.dbgTx()
}

// EnableTxEmptyInterrupt re-arms the transmit path. Producers call it after
// queueing data for the host; the handler masks the source again once the
// callbacks run dry.
func (d *Driver) EnableTxEmptyInterrupt() {
	d.Port.EnableIRQ(TxEmptyIRQ)
}

// WaitForTxEnd busy-polls until the data register is empty and the last
// byte has left the shift register, e.g. before changing the baud rate.
// It must never be called from interrupt context.
func (d *Driver) WaitForTxEnd() {
	for !d.Port.Status().Has(TxEmpty) {
	}
	for !d.Port.Status().Has(TxComplete) {
	}
}

// Drain blocks until the transmitter is idle or ctx is done. It polls every
// drainTick instead of spinning. Foreground only.
func (d *Driver) Drain(ctx context.Context) error {
	tick := d.drainTick()
	for {
		if d.Port.Status().Has(TxEmpty | TxComplete) {
			return nil
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(tick):
		}
	}
}

func (d *Driver) txCompleteSet() bool {
	return d.Port.Status().Has(TxComplete)
}

func (d *Driver) spin(done func() bool, bound time.Duration) bool {
	if d.Spin != nil {
		return d.Spin(done, bound)
	}
	return spinUntil(done, bound)
}

// spinUntil busy-waits on done with a deadline of bound.
func spinUntil(done func() bool, bound time.Duration) bool {
	if done() {
		return true
	}
	deadline := time.Now().Add(bound)
	for !done() {
		if !time.Now().Before(deadline) {
			return done()
		}
	}
	return true
}

// frameTime is one 8N1 character (10 bit-times) at baud with a 20 µs floor.
// The transmission-complete flag sets at most one character after the
// previous write, so this bounds the spin in HandleInterrupt.
func frameTime(baud uint32) time.Duration {
	if baud == 0 {
		return 20 * time.Microsecond
	}
	t := 10 * (time.Second / time.Duration(baud))
	if t < 20*time.Microsecond {
		t = 20 * time.Microsecond
	}
	return t
}

// drainTick is about two character times at the configured baud.
func (d *Driver) drainTick() time.Duration {
	if d.baud == 0 {
		return 50 * time.Microsecond
	}
	return 2 * frameTime(d.baud)
}
