package svuart

import "time"

type wireByte struct {
	b    byte
	errs Status
}

// fakePort is a scripted Port. TxEmpty is always set; TxComplete clears on
// every write and comes back after tcDelay further Status reads.
type fakePort struct {
	rx []wireByte
	// lineErrs is reported in Status while the head byte is pending, the way
	// STM32 latches errors in SR.
	lineErrs Status
	tx       []byte

	irq     IRQ
	vector  bool
	baud    uint32
	confErr error

	tcDelay   int
	tcPending int
	txBusy    bool

	statusFn func() Status
	reads    int
}

func newFakePort() *fakePort { return &fakePort{} }

func (f *fakePort) Configure(baud uint32) error {
	if f.confErr != nil {
		return f.confErr
	}
	f.baud = baud
	return nil
}

func (f *fakePort) Status() Status {
	f.reads++
	if f.statusFn != nil {
		return f.statusFn()
	}
	s := TxEmpty
	if f.txBusy {
		if f.tcPending > 0 {
			f.tcPending--
		}
		if f.tcPending == 0 && f.tcDelay >= 0 {
			f.txBusy = false
		}
	}
	if !f.txBusy {
		s |= TxComplete
	}
	if len(f.rx) > 0 {
		s |= RxReady | f.lineErrs
	}
	return s
}

func (f *fakePort) ReadData() (byte, Status) {
	if len(f.rx) == 0 {
		return 0, 0
	}
	w := f.rx[0]
	f.rx = f.rx[1:]
	f.lineErrs = 0
	return w.b, w.errs
}

func (f *fakePort) WriteData(b byte) {
	f.tx = append(f.tx, b)
	f.txBusy = true
	f.tcPending = f.tcDelay
}

func (f *fakePort) EnableIRQ(irq IRQ)  { f.irq |= irq }
func (f *fakePort) DisableIRQ(irq IRQ) { f.irq &^= irq }
func (f *fakePort) EnableInterrupt()   { f.vector = true }

// receive queues bytes from the host.
func (f *fakePort) receive(p ...byte) {
	for _, b := range p {
		f.rx = append(f.rx, wireByte{b: b})
	}
}

// pending reports whether an unmasked source is asserted.
func (f *fakePort) pending() bool {
	if !f.vector {
		return false
	}
	rx := len(f.rx) > 0 && f.irq&RxIRQ != 0
	tx := f.irq&TxEmptyIRQ != 0
	return rx || tx
}

// run services interrupts until none are pending or limit calls were made.
func (f *fakePort) run(d *Driver, limit int) int {
	n := 0
	for n < limit && f.pending() {
		d.HandleInterrupt()
		n++
	}
	return n
}

// instantSpin never waits and reports the condition as observed once.
func instantSpin(done func() bool, _ time.Duration) bool { return done() }

type fakeBuffers struct {
	down     []byte
	up       []byte
	channels []int
}

func (b *fakeBuffers) WriteDownBuffer(ch int, p []byte) int {
	b.channels = append(b.channels, ch)
	b.down = append(b.down, p...)
	return len(p)
}

func (b *fakeBuffers) ReadUpBufferNoLock(ch int, p []byte) int {
	b.channels = append(b.channels, ch)
	n := copy(p, b.up)
	b.up = b.up[n:]
	return n
}

type fakeTracer struct {
	started bool
	starts  int
	checks  int
}

func (t *fakeTracer) IsStarted() bool { t.checks++; return t.started }

func (t *fakeTracer) Start() {
	t.starts++
	t.started = true
}

type recordingCallbacks struct {
	received []byte
	out      []byte
}

func (c *recordingCallbacks) OnReceive(b byte) { c.received = append(c.received, b) }

func (c *recordingCallbacks) OnTransmit() (byte, bool) {
	if len(c.out) == 0 {
		return 0, false
	}
	b := c.out[0]
	c.out = c.out[1:]
	return b, true
}
