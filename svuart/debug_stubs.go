//go:build !svuartdebug

package svuart

type Stats struct{}

func (d *Driver) DebugReset()       {}
func (d *Driver) DebugStats() Stats { return Stats{} }

func (d *Driver) dbgISR()         {}
func (d *Driver) dbgRx()          {}
func (d *Driver) dbgLineError()   {}
func (d *Driver) dbgTx()          {}
func (d *Driver) dbgTxIdle()      {}
func (d *Driver) dbgSpinTimeout() {}
