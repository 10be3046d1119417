// nec implements the framing of the NEC pulse-distance IR protocol: a 9ms
// leader mark, a 4.5ms leader space, 32 bits sent LSB first and a stop mark.
// Every bit is a 562us mark; the space after it is 562us for a zero and
// 1687us for a one.
//
// The standard layout sends the address, the inverted address, the command
// and the inverted command, one byte each. Extended addressing drops the
// inverted address byte. Frame keeps the raw 16 bit halves so both layouts
// round-trip.
package nec

import (
	"errors"
	"time"

	"github.com/sparques/irmux"
)

var (
	// ErrFrameAlloc is returned when an attempt to unmarshal to a nil Frame is done--the frame must be allocated ahead of time
	ErrFrameAlloc = errors.New("tried to unmarshal to unallocated frame")
)

var (
	LeaderPair = irmux.TimePair{9 * time.Millisecond, 4500 * time.Microsecond}
	ZeroPair   = irmux.TimePair{562 * time.Microsecond, 562 * time.Microsecond}
	OnePair    = irmux.TimePair{562 * time.Microsecond, 1687 * time.Microsecond}
	// StopPair is the trailing mark; the line then idles.
	StopPair = irmux.TimePair{562 * time.Microsecond, 0}
)

// FramePairs is the number of TimePairs in a marshalled frame.
const FramePairs = 34

// Code is a raw 32 bit NEC payload as decoded by irmux.DecodeNEC.
type Code uint32

// MarshalFrame implements irmux.FrameMarshaller.
func (c Code) MarshalFrame() []irmux.TimePair {
	out := make([]irmux.TimePair, FramePairs)
	out[0] = LeaderPair
	for bit := 0; bit < 32; bit++ {
		if (c>>bit)&1 == 1 {
			out[bit+1] = OnePair
		} else {
			out[bit+1] = ZeroPair
		}
	}
	out[33] = StopPair
	return out
}

// Frame splits a Code into its address and command halves.
type Frame struct {
	Addr uint16
	Cmd  uint16
}

// NewFrame builds a standard frame, filling in the inverted bytes.
func NewFrame(addr, cmd uint8) Frame {
	return Frame{
		Addr: uint16(^addr)<<8 | uint16(addr),
		Cmd:  uint16(^cmd)<<8 | uint16(cmd),
	}
}

// Code packs the frame back into the order it is sent.
func (f Frame) Code() Code {
	return Code(uint32(f.Cmd)<<16 | uint32(f.Addr))
}

// Address returns the low address byte.
func (f Frame) Address() uint8 {
	return uint8(f.Addr)
}

// Command returns the low command byte.
func (f Frame) Command() uint8 {
	return uint8(f.Cmd)
}

func (f Frame) MarshalFrame() []irmux.TimePair {
	return f.Code().MarshalFrame()
}

func (f *Frame) UnmarshalFrame(buf uint32) error {
	if f == nil {
		return ErrFrameAlloc
	}
	f.Addr = uint16(buf & 0xFFFF)
	f.Cmd = uint16((buf >> 16) & 0xFFFF)
	return nil
}

// Trace returns the capture timestamps a receiver running at rate Hz latches
// while fm is transmitted, starting at start. Since the leader restarts any
// capture, feeding it to a channel leaves a completed frame carrying fm whatever state
// the channel was in.
func Trace(fm irmux.FrameMarshaller, start irmux.Tick, rate uint32) []irmux.Tick {
	return irmux.EdgeTrace(start, rate, fm.MarshalFrame()...)
}
