// sysview/recorder.go

package sysview

import (
	"sync/atomic"
	"time"

	"github.com/jangala-dev/tinygo-svuart/rtt"
)

// Recorder writes SystemView packets to one RTT channel. The up buffer for
// that channel must use rtt.NoBlockSkip so a packet is stored whole or not
// at all.
type Recorder struct {
	// Desc is sent as the system description when recording starts and
	// whenever the host asks for it. Empty means none.
	Desc string

	bufs    *rtt.ControlBlock
	channel int
	clock   func() uint32

	started     atomic.Bool
	syncPending atomic.Bool

	lastTime uint32
	dropped  uint32

	pkt     [maxPacketLen]byte
	payload []byte
	cmd     [1]byte
}

// NewRecorder returns a stopped Recorder on channel. clock returns the
// timestamp base; nil selects microseconds since NewRecorder.
func NewRecorder(bufs *rtt.ControlBlock, channel int, clock func() uint32) *Recorder {
	if clock == nil {
		start := time.Now()
		clock = func() uint32 { return uint32(time.Since(start) / time.Microsecond) }
	}
	return &Recorder{
		bufs:    bufs,
		channel: channel,
		clock:   clock,
		payload: make([]byte, 0, MaxStringLen+1),
	}
}

// Channel returns the RTT channel used for the trace.
func (r *Recorder) Channel() int { return r.channel }

// IsStarted reports whether recording is on.
func (r *Recorder) IsStarted() bool { return r.started.Load() }

// Start turns recording on. Repeated calls do nothing. The start sequence
// is written by the next Poll, so Start is safe from interrupt context.
func (r *Recorder) Start() {
	if r.started.CompareAndSwap(false, true) {
		r.syncPending.Store(true)
	}
}

// Stop records a trace-stop event and turns recording off.
func (r *Recorder) Stop() {
	if !r.started.Load() {
		return
	}
	r.put(EvtTraceStop, nil)
	r.syncPending.Store(false)
	r.started.Store(false)
}

// Dropped returns the number of packets lost since the last overflow report.
func (r *Recorder) Dropped() uint32 { return r.dropped }

// Poll writes a pending start sequence and applies every host command in
// the down buffer. It returns the number of commands handled.
func (r *Recorder) Poll() int {
	handled := 0
	r.flushStart()
	for r.bufs.ReadDownBuffer(r.channel, r.cmd[:]) == 1 {
		r.handle(r.cmd[0])
		handled++
		r.flushStart()
	}
	return handled
}

func (r *Recorder) handle(cmd byte) {
	switch cmd {
	case CmdStart:
		r.Start()
	case CmdStop:
		r.Stop()
	case CmdGetSysTime:
		r.Record(EvtSysTimeCycles, r.clock())
	case CmdGetSysDesc:
		r.sendSysDesc()
	case CmdGetModuleDesc:
		// No modules are registered; consume the index.
		var idx [1]byte
		r.bufs.ReadDownBuffer(r.channel, idx[:])
	}
}

// flushStart emits sync, trace-start and the system description once per
// Start. Sync and trace-start go out together or not at all; a buffer
// without room for both leaves the sequence pending for the next Poll.
func (r *Recorder) flushStart() {
	if !r.syncPending.Load() || !r.IsStarted() {
		return
	}
	up := r.bufs.Up(r.channel)
	if up == nil || up.Free() < len(syncPattern)+maxStartLen {
		return
	}
	r.bufs.WriteUpBuffer(r.channel, syncPattern[:])
	r.syncPending.Store(false)
	r.dropped = 0
	r.lastTime = r.clock()
	r.put(EvtTraceStart, nil)
	r.sendSysDesc()
}

func (r *Recorder) sendSysDesc() {
	if r.Desc == "" || !r.IsStarted() {
		return
	}
	r.payload = AppendString(r.payload[:0], r.Desc)
	r.send(EvtSysDesc, r.payload)
}

// Record writes event id with params encoded as varints. It reports false
// when recording is off or the packet did not fit; lost packets are
// reported to the host with an overflow event before the next one.
func (r *Recorder) Record(id EventID, params ...uint32) bool {
	if !r.IsStarted() {
		return false
	}
	r.payload = r.payload[:0]
	for _, v := range params {
		r.payload = AppendU32(r.payload, v)
	}
	return r.send(id, r.payload)
}

func (r *Recorder) send(id EventID, payload []byte) bool {
	if r.dropped > 0 {
		var ov [5]byte
		if !r.put(EvtOverflow, AppendU32(ov[:0], r.dropped)) {
			r.dropped++
			return false
		}
		r.dropped = 0
	}
	if !r.put(id, payload) {
		r.dropped++
		return false
	}
	return true
}

// put encodes [id][len if id >= 24][payload][timestamp delta] and writes it.
func (r *Recorder) put(id EventID, payload []byte) bool {
	now := r.clock()
	p := AppendU32(r.pkt[:0], uint32(id))
	if id >= lengthPrefixedID {
		p = AppendU32(p, uint32(len(payload)))
	}
	p = append(p, payload...)
	p = AppendU32(p, now-r.lastTime)
	if r.bufs.WriteUpBuffer(r.channel, p) != len(p) {
		return false
	}
	r.lastTime = now
	return true
}
