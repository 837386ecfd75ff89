// svuart/stm32f4.go

//go:build stm32f4

package svuart

import (
	"device/stm32"
	"runtime/interrupt"

	"machine"
)

// Trace links on STM32F4 USART2 and USART3. Boards set Clock, pins and
// AltFunc on the port before Init.
var (
	USART2  = &_USART2
	_USART2 = Driver{Port: &Port2}
	Port2   = USART{Bus: stm32.USART2, TX: machine.NoPin, RX: machine.NoPin, AltFunc: 7}

	USART3  = &_USART3
	_USART3 = Driver{Port: &Port3}
	Port3   = USART{Bus: stm32.USART3, TX: machine.NoPin, RX: machine.NoPin, AltFunc: 7}
)

func init() {
	Port2.Interrupt = interrupt.New(stm32.IRQ_USART2, _USART2.handleInterrupt)
	Port3.Interrupt = interrupt.New(stm32.IRQ_USART3, _USART3.handleInterrupt)
}
