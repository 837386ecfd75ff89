// svuart/lpuart_mimxrt1062.go

//go:build mimxrt1062

package svuart

import (
	"device/nxp"
	"errors"
	"runtime/interrupt"

	"machine"
)

var (
	errInvalidBaud = errors.New("svuart: invalid baud rate")
	errNoClock     = errors.New("svuart: LPUART clock not set")
)

// lpuartFlagsW1C are the write-one-to-clear bits of STAT: LBKDIF, RXEDGIF,
// IDLE, OR, NF, FE, PF, MA1F, MA2F.
const lpuartFlagsW1C = 0xC01FC000

const lpuartLineErrors = nxp.LPUART_STAT_OR | nxp.LPUART_STAT_NF | nxp.LPUART_STAT_FE | nxp.LPUART_STAT_PF

// LPUART is the Port for the i.MX RT LPUART blocks. Errors are latched in
// STAT next to RDRF, so the snapshot taken by Status already carries them.
// They stay latched until written back, and a latched overrun stops the
// receiver, so ReadData clears them.
type LPUART struct {
	Bus *nxp.LPUART_Type
	// Clock gates the block; SourceHz is the UART clock root feeding it.
	Clock     nxp.Clock
	SourceHz  uint32
	TX, RX    machine.Pin
	Interrupt interrupt.Interrupt
}

// Configure ungates the block, muxes the pins and programs 8N1 at baud with
// the oversampling ratio closest to it.
func (u *LPUART) Configure(baud uint32) error {
	if baud == 0 {
		return errInvalidBaud
	}
	if u.SourceHz == 0 {
		return errNoClock
	}
	u.Clock.Enable(true)

	u.Bus.GLOBAL.SetBits(nxp.LPUART_GLOBAL_RST)
	u.Bus.GLOBAL.ClearBits(nxp.LPUART_GLOBAL_RST)

	if u.TX != machine.NoPin {
		u.TX.Configure(machine.PinConfig{Mode: machine.PinModeUARTTX})
	}
	if u.RX != machine.NoPin {
		u.RX.Configure(machine.PinConfig{Mode: machine.PinModeUARTRX})
	}

	u.Bus.BAUD.Set(lpuartBaud(u.SourceHz, baud))
	u.Bus.FIFO.Set(0) // FIFOs off, one byte per flag
	u.Bus.STAT.Set(lpuartFlagsW1C)
	u.Bus.CTRL.Set(nxp.LPUART_CTRL_TE | nxp.LPUART_CTRL_RE)
	return nil
}

func lpuartBaud(src, baud uint32) uint32 {
	osr, sbr := lpuartDivisors(src, baud)
	v := (osr-1)<<nxp.LPUART_BAUD_OSR_Pos | sbr<<nxp.LPUART_BAUD_SBR_Pos
	if osr < 8 {
		v |= nxp.LPUART_BAUD_BOTHEDGE
	}
	return v
}

// Status implements Port.
func (u *LPUART) Status() Status {
	stat := u.Bus.STAT.Get()
	var s Status
	if stat&nxp.LPUART_STAT_RDRF != 0 {
		s |= RxReady
	}
	if stat&nxp.LPUART_STAT_TDRE != 0 {
		s |= TxEmpty
	}
	if stat&nxp.LPUART_STAT_TC != 0 {
		s |= TxComplete
	}
	if stat&nxp.LPUART_STAT_OR != 0 {
		s |= Overrun
	}
	if stat&nxp.LPUART_STAT_NF != 0 {
		s |= Noise
	}
	if stat&nxp.LPUART_STAT_FE != 0 {
		s |= Framing
	}
	if stat&nxp.LPUART_STAT_PF != 0 {
		s |= Parity
	}
	return s
}

// ReadData implements Port. Latched line errors are cleared after the read;
// the other STAT bits are written back unchanged.
func (u *LPUART) ReadData() (byte, Status) {
	b := byte(u.Bus.DATA.Get() & 0xFF)
	if stat := u.Bus.STAT.Get(); stat&lpuartLineErrors != 0 {
		u.Bus.STAT.Set(stat&^lpuartFlagsW1C | stat&lpuartLineErrors)
	}
	return b, 0
}

// WriteData implements Port.
func (u *LPUART) WriteData(b byte) {
	u.Bus.DATA.Set(uint32(b))
}

// EnableIRQ implements Port.
func (u *LPUART) EnableIRQ(irq IRQ) {
	u.Bus.CTRL.SetBits(lpuartCtrl(irq))
}

// DisableIRQ implements Port.
func (u *LPUART) DisableIRQ(irq IRQ) {
	u.Bus.CTRL.ClearBits(lpuartCtrl(irq))
}

// EnableInterrupt implements Port.
func (u *LPUART) EnableInterrupt() {
	u.Interrupt.SetPriority(0x00)
	u.Interrupt.Enable()
}

func lpuartCtrl(irq IRQ) uint32 {
	var m uint32
	if irq&RxIRQ != 0 {
		m |= nxp.LPUART_CTRL_RIE
	}
	if irq&TxEmptyIRQ != 0 {
		m |= nxp.LPUART_CTRL_TIE
	}
	return m
}
