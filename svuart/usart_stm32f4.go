// svuart/usart_stm32f4.go

//go:build stm32f4

package svuart

import (
	"device/stm32"
	"errors"
	"runtime/interrupt"

	"machine"
)

var (
	errInvalidBaud = errors.New("svuart: invalid baud rate")
	errNoClock     = errors.New("svuart: USART clock not set")
)

// USART is the Port for the STM32F4 USART blocks. Errors are latched in SR
// next to RXNE, so the snapshot taken by Status already carries them.
//
// Reading SR in Status followed by the DR write in WriteData is also the
// sequence that clears a stale TC flag on this part.
type USART struct {
	Bus *stm32.USART_Type
	// Clock is the APB clock feeding Bus, in Hz.
	Clock     uint32
	TX, RX    machine.Pin
	AltFunc   uint8
	Interrupt interrupt.Interrupt
}

// Configure enables the bus clock, muxes the pins and programs 8N1 at baud
// with 16x oversampling.
func (u *USART) Configure(baud uint32) error {
	if baud == 0 {
		return errInvalidBaud
	}
	if u.Clock == 0 {
		return errNoClock
	}
	u.enableClock()
	u.Bus.CR1.Set(0)

	if u.TX != machine.NoPin {
		u.TX.ConfigureAltFunc(machine.PinConfig{Mode: machine.PinModeUARTTX}, u.AltFunc)
	}
	if u.RX != machine.NoPin {
		u.RX.ConfigureAltFunc(machine.PinConfig{Mode: machine.PinModeUARTRX}, u.AltFunc)
	}

	u.Bus.BRR.Set((u.Clock + baud/2) / baud)
	u.Bus.CR2.Set(0) // one stop bit
	u.Bus.CR3.Set(0) // no flow control
	u.Bus.CR1.Set(stm32.USART_CR1_UE | stm32.USART_CR1_TE | stm32.USART_CR1_RE)
	return nil
}

// Status implements Port.
func (u *USART) Status() Status {
	sr := u.Bus.SR.Get()
	var s Status
	if sr&stm32.USART_SR_RXNE != 0 {
		s |= RxReady
	}
	if sr&stm32.USART_SR_TXE != 0 {
		s |= TxEmpty
	}
	if sr&stm32.USART_SR_TC != 0 {
		s |= TxComplete
	}
	if sr&stm32.USART_SR_ORE != 0 {
		s |= Overrun
	}
	if sr&stm32.USART_SR_NF != 0 {
		s |= Noise
	}
	if sr&stm32.USART_SR_FE != 0 {
		s |= Framing
	}
	if sr&stm32.USART_SR_PE != 0 {
		s |= Parity
	}
	return s
}

// ReadData implements Port. The SR read in Status followed by this DR read
// clears the error flags.
func (u *USART) ReadData() (byte, Status) {
	return byte(u.Bus.DR.Get() & 0xFF), 0
}

// WriteData implements Port.
func (u *USART) WriteData(b byte) {
	u.Bus.DR.Set(uint32(b))
}

// EnableIRQ implements Port.
func (u *USART) EnableIRQ(irq IRQ) {
	u.Bus.CR1.SetBits(cr1(irq))
}

// DisableIRQ implements Port.
func (u *USART) DisableIRQ(irq IRQ) {
	u.Bus.CR1.ClearBits(cr1(irq))
}

// EnableInterrupt implements Port.
func (u *USART) EnableInterrupt() {
	u.Interrupt.SetPriority(0x00)
	u.Interrupt.Enable()
}

func cr1(irq IRQ) uint32 {
	var m uint32
	if irq&RxIRQ != 0 {
		m |= stm32.USART_CR1_RXNEIE
	}
	if irq&TxEmptyIRQ != 0 {
		m |= stm32.USART_CR1_TXEIE
	}
	return m
}

func (u *USART) enableClock() {
	switch u.Bus {
	case stm32.USART1:
		stm32.RCC.APB2ENR.SetBits(stm32.RCC_APB2ENR_USART1EN)
	case stm32.USART2:
		stm32.RCC.APB1ENR.SetBits(stm32.RCC_APB1ENR_USART2EN)
	case stm32.USART3:
		stm32.RCC.APB1ENR.SetBits(stm32.RCC_APB1ENR_USART3EN)
	}
}
