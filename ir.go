// Package irmux decodes pulse-distance (NEC) infrared frames captured on
// several inputs at once.
//
// Each input gets a Channel. Whatever owns the capture hardware calls
// Channel.OnEdge from its interrupt handler with the counter value latched at
// that edge; a Dispatcher running in the main loop polls the channels and
// hands every completed frame, decoded to a uint32, to a Consumer.
//
//	bank := irmux.NewBank(3)
//	d := irmux.NewDispatcher(bank, irmux.ConsumerFunc(func(ch int, code uint32) {
//		fmt.Printf("ch%d %08x\r\n", ch, code)
//	}))
//	// capture ISR: bank.Channel(n).OnEdge(counter)
//	for {
//		d.Poll()
//	}
package irmux

import (
	"math/bits"
	"time"
)

const (
	// Freq38Khz is the most commonly used frequency for IR remotes
	Freq38Khz = 38000

	// DefaultTickRate is the capture counter frequency the timing constants
	// are expressed in: one tick per microsecond.
	DefaultTickRate = 1_000_000
)

// Tick is a free-running 16 bit capture counter value. It wraps modulo 2^16.
type Tick uint16

// Elapsed returns the number of ticks from last to now. The subtraction wraps,
// so a counter that rolled over between the two readings still yields the
// true elapsed count as long as less than 2^16 ticks passed.
func Elapsed(last, now Tick) Tick {
	return now - last
}

// TicksOf converts a duration to ticks of a counter running at rate Hz.
// Durations longer than one counter period are truncated modulo 2^16.
func TicksOf(d time.Duration, rate uint32) Tick {
	hi, lo := bits.Mul64(uint64(d), uint64(rate))
	q, _ := bits.Div64(hi%uint64(time.Second), lo, uint64(time.Second))
	return Tick(q)
}

// DurationOf converts a tick count at rate Hz back to a duration.
func DurationOf(t Tick, rate uint32) time.Duration {
	return time.Duration(uint64(t) * uint64(time.Second) / uint64(rate))
}

// TimePair encodes two durations used to encode an on-off or off-on amount of time.
type TimePair [2]time.Duration

// FrameMarshaller defines an interface for marshalling data to slice of TimePairs
type FrameMarshaller interface {
	MarshalFrame() []TimePair
}
