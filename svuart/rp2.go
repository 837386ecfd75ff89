// svuart/rp2.go

//go:build rp2040 || rp2350

package svuart

import (
	"device/rp"
	"runtime/interrupt"

	"machine"
)

// Trace links on the RP2040/RP2350 UARTs. Pins default to the board's
// UART pins and may be changed before Init.
var (
	UART0  = &_UART0
	_UART0 = Driver{Port: &PL0}
	PL0    = PL011{Bus: rp.UART0, TX: machine.UART0_TX_PIN, RX: machine.UART0_RX_PIN}

	UART1  = &_UART1
	_UART1 = Driver{Port: &PL1}
	PL1    = PL011{Bus: rp.UART1, TX: machine.UART1_TX_PIN, RX: machine.UART1_RX_PIN}
)

func init() {
	PL0.Interrupt = interrupt.New(rp.IRQ_UART0_IRQ, _UART0.handleInterrupt)
	PL1.Interrupt = interrupt.New(rp.IRQ_UART1_IRQ, _UART1.handleInterrupt)
}
