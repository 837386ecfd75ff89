// sysview/sysview.go

// Package sysview is a small SystemView recorder. It keeps the started
// flag the transport kicks, applies host commands read from the down
// buffer and encodes events into the up buffer.
//
// Start may be called from interrupt context and only flips flags. Every
// write to the up buffer happens from Poll, Record and Stop, which keeps the
// application the single producer of that ring.
package sysview

// Version is the SystemView protocol version announced in the target hello.
const Version = 35200

// Host commands, one byte each on the down channel.
const (
	CmdStart         byte = 1
	CmdStop          byte = 2
	CmdGetSysTime    byte = 3
	CmdGetTaskList   byte = 4
	CmdGetSysDesc    byte = 5
	CmdGetNumModules byte = 6
	CmdGetModuleDesc byte = 7 // followed by a module index byte
	CmdHeartbeat     byte = 127
)

// EventID identifies a SystemView packet.
type EventID uint32

const (
	EvtNop            EventID = 0
	EvtOverflow       EventID = 1
	EvtISREnter       EventID = 2
	EvtISRExit        EventID = 3
	EvtTaskStartExec  EventID = 4
	EvtTaskStopExec   EventID = 5
	EvtTaskStartReady EventID = 6
	EvtTaskStopReady  EventID = 7
	EvtTaskCreate     EventID = 8
	EvtTaskInfo       EventID = 9
	EvtTraceStart     EventID = 10
	EvtTraceStop      EventID = 11
	EvtSysTimeCycles  EventID = 12
	EvtSysTimeUS      EventID = 13
	EvtSysDesc        EventID = 14
	EvtUserStart      EventID = 15
	EvtUserStop       EventID = 16
	EvtIdle           EventID = 17
)

// Packets with an ID of lengthPrefixedID or above carry an explicit
// payload length after the ID.
const lengthPrefixedID = 24

// MaxStringLen caps strings encoded by AppendString.
const MaxStringLen = 128

const (
	// maxPacketLen fits the largest packet put builds: a two-byte id, a
	// two-byte length, a string payload and a five-byte delta.
	maxPacketLen = MaxStringLen + 16
	// maxStartLen is a trace-start packet: one-byte id, five-byte delta.
	maxStartLen = 6
)

// syncPattern resynchronises the host decoder at the start of a recording.
var syncPattern [10]byte

// AppendU32 appends v as a little-endian base-128 varint.
func AppendU32(dst []byte, v uint32) []byte {
	for v >= 0x80 {
		dst = append(dst, byte(v)|0x80)
		v >>= 7
	}
	return append(dst, byte(v))
}

// AppendString appends a length byte followed by at most MaxStringLen bytes of s.
func AppendString(dst []byte, s string) []byte {
	if len(s) > MaxStringLen {
		s = s[:MaxStringLen]
	}
	dst = append(dst, byte(len(s)))
	return append(dst, s...)
}
