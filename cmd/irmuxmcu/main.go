//go:build tinygo

// irmuxmcu runs the decoder on an RP2040 with three IR receivers and prints
// every code on the default UART. An IR LED on GPIO15 sends one frame at boot
// so the receivers can be checked without a remote.
package main

import (
	"machine"
	"time"

	"github.com/sparques/irmux"
	"github.com/sparques/irmux/nec"
)

var (
	rxPins = []machine.Pin{machine.GPIO2, machine.GPIO3, machine.GPIO4}
	txPin  = machine.GPIO15
)

func main() {
	bank := irmux.NewBank(len(rxPins))
	rxs := make([]*irmux.RxDevice, len(rxPins))
	for i, pin := range rxPins {
		rxs[i] = irmux.NewRxDevice(pin, bank[i])
	}
	irmux.StartAll(rxs...)

	d := irmux.NewDispatcher(bank, irmux.ConsumerFunc(func(ch int, code uint32) {
		var f nec.Frame
		f.UnmarshalFrame(code)
		println("ch", ch, "addr", f.Address(), "cmd", f.Command())
	}), irmux.WithIdleTimeout(120*time.Millisecond))

	if tx, err := irmux.NewTxDevice(txPin, irmux.Freq38Khz); err != nil {
		println("tx disabled:", err.Error())
	} else {
		go tx.SendFrames(nec.NewFrame(0x00, 0x45))
	}

	for {
		d.Poll()
		time.Sleep(time.Millisecond)
	}
}
