//go:build tinygo

package irmux

import (
	"machine"
	"time"
)

// RxDevice feeds a Channel from a pin interrupt, for boards where the IR
// receiver is on a plain GPIO rather than a timer capture input. The handler
// timestamps the edge itself with a 16 bit tick counter derived from the
// monotonic clock, so the Channel sees the same wrapping counter it would
// get from capture hardware.
type RxDevice struct {
	pin     machine.Pin
	channel *Channel
	rate    uint32
	epoch   time.Time
}

// NewRxDevice configures pin as an input feeding ch. Ticks run at
// DefaultTickRate.
func NewRxDevice(pin machine.Pin, ch *Channel) *RxDevice {
	// the most common receivers have a pull up pin builtin
	// but in the future, may want to add the option to use PinPullupInput
	pin.Configure(machine.PinConfig{Mode: machine.PinInput})
	return &RxDevice{
		pin:     pin,
		channel: ch,
		rate:    DefaultTickRate,
		epoch:   time.Now(),
	}
}

// Channel returns the channel this device feeds.
func (rx *RxDevice) Channel() *Channel {
	return rx.channel
}

func (rx *RxDevice) interruptHandler(machine.Pin) {
	rx.channel.OnEdge(TicksOf(time.Since(rx.epoch), rx.rate))
}

// Start sets the interrupt handler and thus starts processing signals.
// Both edges are captured; the mark/space polarity of the receiver doesn't
// matter since every interval between edges is recorded.
func (rx *RxDevice) Start() {
	rx.pin.SetInterrupt(machine.PinFalling|machine.PinRising, rx.interruptHandler)
}

// Stop disables the interrupt handler.
func (rx *RxDevice) Stop() {
	rx.pin.SetInterrupt(machine.PinFalling|machine.PinRising, nil)
}

// StartAll starts every device. On most chips each pin interrupt is its own
// handler invocation, so channels are serviced as if by ServiceSignaled.
func StartAll(rxs ...*RxDevice) {
	for _, rx := range rxs {
		rx.Start()
	}
}
