// svuart/svuart.go

// Package svuart provides an interrupt-driven UART transport for a
// SystemView-style trace link. A single interrupt handler multiplexes the
// fixed four-byte handshake in each direction with a transparent byte relay
// between the wire and a pair of RTT-style ring buffers.
//
// The package is split in three layers:
//   - Link decides what every received byte means and what to send next.
//   - Driver is the interrupt service routine plus the foreground
//     initialisation and drain calls.
//   - Port is the board seam. PL011 (RP2040/RP2350), USART (STM32F4) and
//     LPUART (i.MX RT1062) implement it behind build tags; host builds only
//     see the interface.
package svuart

import "errors"

var (
	// ErrAlreadyInitialized is returned by Init when callbacks are already registered.
	ErrAlreadyInitialized = errors.New("svuart: already initialized")
	// ErrNoCallbacks is returned by Init when no callbacks are supplied.
	ErrNoCallbacks = errors.New("svuart: nil callbacks")
)

// DefaultBaudRate is used by Init when a zero baud rate is given.
const DefaultBaudRate = 115200

// Status is a snapshot of the peripheral status flags.
type Status uint32

const (
	// RxReady reports that a received byte is waiting in the data register.
	RxReady Status = 1 << iota
	// TxEmpty reports that the transmit data register can accept a byte.
	// The shift register may still be sending the previous one.
	TxEmpty
	// TxComplete reports that the shift register is idle.
	TxComplete
	// Overrun reports a byte lost because the previous one was not read in time.
	Overrun
	// Noise reports noise detected on the received byte.
	Noise
	// Framing reports a missing stop bit.
	Framing
	// Parity reports a parity mismatch.
	Parity
	// Break reports a break condition (PL011 only).
	Break
)

// LineErrors is the set of flags that invalidate a received byte.
const LineErrors = Overrun | Noise | Framing | Parity | Break

// Has reports whether all flags in f are set.
func (s Status) Has(f Status) bool { return s&f == f }

// Any reports whether at least one flag in f is set.
func (s Status) Any(f Status) bool { return s&f != 0 }

// IRQ selects peripheral interrupt sources.
type IRQ uint8

const (
	// RxIRQ fires when RxReady is set.
	RxIRQ IRQ = 1 << iota
	// TxEmptyIRQ fires when TxEmpty is set.
	TxEmptyIRQ
)

// Port is the board-specific half of the driver. Implementations touch
// registers only; all decisions live in Driver and Link.
type Port interface {
	// Configure sets 8 data bits, no parity, one stop bit, full duplex.
	Configure(baud uint32) error
	// Status returns one consistent snapshot of the status flags.
	Status() Status
	// ReadData reads the data register, which clears RxReady. Peripherals
	// that report line errors next to the data return them here; others
	// return 0 and report errors through Status.
	ReadData() (byte, Status)
	// WriteData writes the data register and starts transmission.
	WriteData(b byte)
	// EnableIRQ unmasks the given sources at the peripheral.
	EnableIRQ(irq IRQ)
	// DisableIRQ masks the given sources at the peripheral.
	DisableIRQ(irq IRQ)
	// EnableInterrupt sets the vector to the highest priority in the system
	// and enables it at the interrupt controller.
	EnableInterrupt()
}

// Callbacks is what the interrupt handler delegates content decisions to.
// Both methods run in interrupt context and must not block.
type Callbacks interface {
	// OnReceive is given every error-free received byte.
	OnReceive(b byte)
	// OnTransmit returns the next byte to send, or false when there is none.
	OnTransmit() (b byte, ok bool)
}
