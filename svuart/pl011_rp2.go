// svuart/pl011_rp2.go

//go:build rp2040 || rp2350

package svuart

import (
	"device/rp"
	"errors"
	"runtime/interrupt"

	"machine"
)

var errInvalidBaud = errors.New("svuart: invalid baud rate")

// PL011 is the Port for the RP2040/RP2350 UARTs. FIFOs are left disabled so
// every RX and TX interrupt corresponds to exactly one byte.
//
// Flag mapping:
//   - RxReady    = !FR.RXFE
//   - TxEmpty    = !FR.TXFF (single holding register)
//   - TxComplete = !FR.BUSY
//
// Line errors are per byte on the PL011, so they come back from ReadData.
type PL011 struct {
	Bus       *rp.UART0_Type
	TX, RX    machine.Pin
	Interrupt interrupt.Interrupt
}

// Configure resets the block, muxes the pins and programs 8N1 at baud.
func (p *PL011) Configure(baud uint32) error {
	if baud == 0 {
		return errInvalidBaud
	}
	p.reset()

	p.Bus.UARTCR.ClearBits(rp.UART0_UARTCR_UARTEN | rp.UART0_UARTCR_RXE | rp.UART0_UARTCR_TXE)

	if p.TX != machine.NoPin {
		p.TX.Configure(machine.PinConfig{Mode: machine.PinUART})
	}
	if p.RX != machine.NoPin {
		p.RX.Configure(machine.PinConfig{Mode: machine.PinUART})
	}

	p.setBaudRate(baud)
	// WLEN=8, one stop bit, no parity, FEN clear.
	p.Bus.UARTLCR_H.Set(3 << rp.UART0_UARTLCR_H_WLEN_Pos)

	p.Bus.UARTICR.Set(0x7FF)
	for !p.Bus.UARTFR.HasBits(rp.UART0_UARTFR_RXFE) {
		_ = p.Bus.UARTDR.Get()
	}
	p.Bus.UARTRSR.Set(0)

	p.Bus.UARTCR.Set(rp.UART0_UARTCR_UARTEN | rp.UART0_UARTCR_RXE | rp.UART0_UARTCR_TXE)
	return nil
}

// Status implements Port.
func (p *PL011) Status() Status {
	fr := p.Bus.UARTFR.Get()
	var s Status
	if fr&rp.UART0_UARTFR_RXFE == 0 {
		s |= RxReady
	}
	if fr&rp.UART0_UARTFR_TXFF == 0 {
		s |= TxEmpty
	}
	if fr&rp.UART0_UARTFR_BUSY == 0 {
		s |= TxComplete
	}
	return s
}

// ReadData implements Port. Reading DR clears the per-byte error bits; the
// sticky copies in RSR are cleared when any were set.
func (p *PL011) ReadData() (byte, Status) {
	dr := p.Bus.UARTDR.Get()
	var errs Status
	if dr&rp.UART0_UARTDR_OE != 0 {
		errs |= Overrun
	}
	if dr&rp.UART0_UARTDR_BE != 0 {
		errs |= Break
	}
	if dr&rp.UART0_UARTDR_PE != 0 {
		errs |= Parity
	}
	if dr&rp.UART0_UARTDR_FE != 0 {
		errs |= Framing
	}
	if errs != 0 {
		p.Bus.UARTRSR.Set(0)
	}
	return byte(dr & 0xFF), errs
}

// WriteData implements Port.
func (p *PL011) WriteData(b byte) {
	p.Bus.UARTDR.Set(uint32(b))
}

// EnableIRQ implements Port.
func (p *PL011) EnableIRQ(irq IRQ) {
	p.Bus.UARTIMSC.SetBits(imsc(irq))
}

// DisableIRQ implements Port.
func (p *PL011) DisableIRQ(irq IRQ) {
	p.Bus.UARTIMSC.ClearBits(imsc(irq))
}

// EnableInterrupt implements Port. Priority 0 is the most urgent level on
// Cortex-M, above any BASEPRI the scheduler uses for its critical sections.
func (p *PL011) EnableInterrupt() {
	p.Interrupt.SetPriority(0x00)
	p.Interrupt.Enable()
}

func imsc(irq IRQ) uint32 {
	var m uint32
	if irq&RxIRQ != 0 {
		m |= rp.UART0_UARTIMSC_RXIM
	}
	if irq&TxEmptyIRQ != 0 {
		m |= rp.UART0_UARTIMSC_TXIM
	}
	return m
}

// setBaudRate programs the integer and fractional divisors. PL011 latches
// them on the next LCR_H write, which Configure performs right after.
func (p *PL011) setBaudRate(br uint32) {
	div := 8 * machine.CPUFrequency() / br

	ibrd := div >> 7
	var fbrd uint32
	switch {
	case ibrd == 0:
		ibrd = 1
		fbrd = 0
	case ibrd >= 65535:
		ibrd = 65535
		fbrd = 0
	default:
		fbrd = ((div & 0x7f) + 1) / 2
	}

	p.Bus.UARTIBRD.Set(ibrd)
	p.Bus.UARTFBRD.Set(fbrd)
}

// reset asserts and releases the peripheral reset for this PL011.
func (p *PL011) reset() {
	var mask uint32
	switch p.Bus {
	case rp.UART0:
		mask = rp.RESETS_RESET_UART0
	case rp.UART1:
		mask = rp.RESETS_RESET_UART1
	}
	rp.RESETS.RESET.SetBits(mask)
	rp.RESETS.RESET.ClearBits(mask)
	for !rp.RESETS.RESET_DONE.HasBits(mask) {
	}
}
