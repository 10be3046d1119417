package irmux

import (
	"fmt"
	"sync/atomic"
)

const (
	// Capacity is the number of duration samples a channel can hold.
	Capacity = 68
	// TotalTimings is the number of samples in a complete frame: leader mark,
	// leader space, 32 mark/space pairs and the stop mark.
	TotalTimings = 67

	// A delta strictly between LowerLeaderTicks and UpperLeaderTicks is the
	// 9ms leader mark and (re)starts a capture.
	LowerLeaderTicks = 8500
	UpperLeaderTicks = 9500
)

// State is where a channel is in capturing a frame.
type State uint8

const (
	// Idle channels are waiting for a leader. Buffer contents are stale.
	Idle State = iota
	// Capturing channels have seen a leader and are collecting samples.
	Capturing
	// Complete channels hold a full frame the dispatcher has not consumed yet.
	Complete
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Capturing:
		return "capturing"
	case Complete:
		return "complete"
	}
	return fmt.Sprintf("State(%d)", uint8(s))
}

// Frame is the sample view of a completed capture.
type Frame [TotalTimings]Tick

// Stats are running counters for a channel.
type Stats struct {
	// Edges is every edge handed to OnEdge.
	Edges uint32
	// Frames is the number of captures that reached TotalTimings samples.
	Frames uint32
	// Restarts counts leaders that arrived while a capture was in progress,
	// abandoning it.
	Restarts uint32
	// Overwrites counts leaders that arrived while a completed frame was still
	// unread. The new capture writes over that frame.
	Overwrites uint32
	// Aborts counts captures the dispatcher dropped after an idle timeout.
	Aborts uint32
}

// Channel is the capture state of one IR input.
//
// OnEdge is the producer and must only be called from one context at a time
// per channel (the capture interrupt). The Dispatcher is the consumer. The
// edge handler owns last, cursor and buf; leader and complete are set by the
// handler and cleared by the dispatcher.
type Channel struct {
	id int

	last   Tick
	cursor int
	// buf slots are atomic: a leader may start overwriting an unread frame
	// while the dispatcher is copying it.
	buf [Capacity]atomic.Uint32

	leader   atomic.Bool
	complete atomic.Bool

	edges      atomic.Uint32
	frames     atomic.Uint32
	restarts   atomic.Uint32
	overwrites atomic.Uint32
	aborts     atomic.Uint32
}

// NewChannel returns an idle channel with the given id.
func NewChannel(id int) *Channel {
	return &Channel{id: id}
}

// ID returns the channel's identifier.
func (c *Channel) ID() int {
	return c.id
}

// OnEdge records an edge captured at counter value ts. It is meant to be
// called from the capture interrupt for every rising and falling edge; it
// never blocks, allocates or logs.
func (c *Channel) OnEdge(ts Tick) {
	delta := Elapsed(c.last, ts)
	c.last = ts
	c.edges.Add(1)

	if delta > LowerLeaderTicks && delta < UpperLeaderTicks {
		// A leader always wins, even over a capture in progress or a frame
		// the dispatcher has not read yet.
		switch {
		case c.complete.Load():
			c.overwrites.Add(1)
		case c.leader.Load():
			c.restarts.Add(1)
		}
		c.leader.Store(true)
		c.cursor = 0
	}

	if !c.leader.Load() {
		return
	}

	if c.cursor < Capacity {
		c.buf[c.cursor].Store(uint32(delta))
		c.cursor++
	}

	if c.cursor == TotalTimings {
		c.cursor = 0
		c.leader.Store(false)
		c.frames.Add(1)
		// Release: every sample store above happens before a dispatcher that
		// loads complete == true reads the buffer.
		c.complete.Store(true)
	}
}

// State reports the channel's capture state.
func (c *Channel) State() State {
	if c.complete.Load() {
		return Complete
	}
	if c.leader.Load() {
		return Capturing
	}
	return Idle
}

// Stats returns a snapshot of the channel counters.
func (c *Channel) Stats() Stats {
	return Stats{
		Edges:      c.edges.Load(),
		Frames:     c.frames.Load(),
		Restarts:   c.restarts.Load(),
		Overwrites: c.overwrites.Load(),
		Aborts:     c.aborts.Load(),
	}
}

// take copies the completed frame into f. It reports false, leaving f
// untouched, if no frame is complete.
func (c *Channel) take(f *Frame) bool {
	// Acquire: pairs with the Store(true) in OnEdge.
	if !c.complete.Load() {
		return false
	}
	for i := range f {
		f[i] = Tick(c.buf[i].Load())
	}
	return true
}

// release returns the channel to idle after its frame has been consumed.
// Clearing leader here also cancels a capture that a new leader started
// while the frame was unread.
func (c *Channel) release() {
	c.complete.Store(false)
	c.leader.Store(false)
}

// abandon drops a capture in progress. Used by the dispatcher's idle timeout.
func (c *Channel) abandon() bool {
	if c.leader.CompareAndSwap(true, false) {
		c.aborts.Add(1)
		return true
	}
	return false
}

// Bank is the fixed set of channels a decoder serves, indexed by id.
type Bank []*Channel

// NewBank creates n idle channels with ids 0 through n-1.
func NewBank(n int) Bank {
	b := make(Bank, n)
	for i := range b {
		b[i] = NewChannel(i)
	}
	return b
}

// Channel returns the channel with the given id, or nil if out of range.
func (b Bank) Channel(id int) *Channel {
	if id < 0 || id >= len(b) {
		return nil
	}
	return b[id]
}
