//go:build svuartdebug

package svuart

import "sync/atomic"

// Stats holds counters since the last reset.
type Stats struct {
	ISRCount     uint32 // handler entries
	RxForwarded  uint32 // bytes handed to OnReceive
	RxLineErrors uint32 // bytes dropped for overrun, noise, framing, parity or break
	TxBytes      uint32 // bytes written to the data register
	TxIdle       uint32 // times TX-empty was masked for lack of data
	SpinTimeouts uint32 // transmission-complete waits that ran out
}

func (d *Driver) dbgISR()         { atomic.AddUint32(&d.stats.ISRCount, 1) }
func (d *Driver) dbgRx()          { atomic.AddUint32(&d.stats.RxForwarded, 1) }
func (d *Driver) dbgLineError()   { atomic.AddUint32(&d.stats.RxLineErrors, 1) }
func (d *Driver) dbgTx()          { atomic.AddUint32(&d.stats.TxBytes, 1) }
func (d *Driver) dbgTxIdle()      { atomic.AddUint32(&d.stats.TxIdle, 1) }
func (d *Driver) dbgSpinTimeout() { atomic.AddUint32(&d.stats.SpinTimeouts, 1) }

// DebugReset zeroes the counters.
func (d *Driver) DebugReset() {
	atomic.StoreUint32(&d.stats.ISRCount, 0)
	atomic.StoreUint32(&d.stats.RxForwarded, 0)
	atomic.StoreUint32(&d.stats.RxLineErrors, 0)
	atomic.StoreUint32(&d.stats.TxBytes, 0)
	atomic.StoreUint32(&d.stats.TxIdle, 0)
	atomic.StoreUint32(&d.stats.SpinTimeouts, 0)
}

// DebugStats returns a copy of the counters.
func (d *Driver) DebugStats() Stats {
	return Stats{
		ISRCount:     atomic.LoadUint32(&d.stats.ISRCount),
		RxForwarded:  atomic.LoadUint32(&d.stats.RxForwarded),
		RxLineErrors: atomic.LoadUint32(&d.stats.RxLineErrors),
		TxBytes:      atomic.LoadUint32(&d.stats.TxBytes),
		TxIdle:       atomic.LoadUint32(&d.stats.TxIdle),
		SpinTimeouts: atomic.LoadUint32(&d.stats.SpinTimeouts),
	}
}
