// svuart/mimxrt1062.go

//go:build mimxrt1062

package svuart

import (
	"device/nxp"
	"runtime/interrupt"

	"machine"
)

// uartClockRoot is the UART clock root set up by the runtime (24 MHz OSC).
const uartClockRoot = 24000000

// Trace links on the i.MX RT1062 LPUARTs. LPUART6 sits on the Teensy 4.x
// serial 1 pins; LPUART4 pins are left to the board.
var (
	LPUART6  = &_LPUART6
	_LPUART6 = Driver{Port: &Port6}
	Port6    = LPUART{
		Bus:      nxp.LPUART6,
		Clock:    nxp.ClockIpLpuart6,
		SourceHz: uartClockRoot,
		TX:       machine.UART1_TX_PIN,
		RX:       machine.UART1_RX_PIN,
	}

	LPUART4  = &_LPUART4
	_LPUART4 = Driver{Port: &Port4}
	Port4    = LPUART{
		Bus:      nxp.LPUART4,
		Clock:    nxp.ClockIpLpuart4,
		SourceHz: uartClockRoot,
		TX:       machine.NoPin,
		RX:       machine.NoPin,
	}
)

func init() {
	Port6.Interrupt = interrupt.New(nxp.IRQ_LPUART6, _LPUART6.handleInterrupt)
	Port4.Interrupt = interrupt.New(nxp.IRQ_LPUART4, _LPUART4.handleInterrupt)
}
