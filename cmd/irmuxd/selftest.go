package main

import (
	"fmt"
	"log/slog"

	"github.com/sparques/irmux"
	"github.com/sparques/irmux/config"
	"github.com/sparques/irmux/nec"
)

// runSelfTest pushes one synthesized frame per channel through a shared
// vector configured like the real receivers and checks that the dispatcher
// hands back the code that was sent. No hardware is touched.
func runSelfTest(cfg *config.Config, log *slog.Logger) error {
	policy, err := irmux.ParseVectorPolicy(cfg.Dispatch.VectorPolicy)
	if err != nil {
		return err
	}

	n := len(cfg.Channels)
	bank := irmux.NewBank(n)
	got := make(map[int]uint32, n)
	d := irmux.NewDispatcher(bank, irmux.ConsumerFunc(func(ch int, code uint32) {
		got[ch] = code
	}), irmux.WithLogger(log))

	latched := make([]irmux.Tick, n)
	sources := make([]irmux.CaptureSource, n)
	for i := range sources {
		i := i
		sources[i] = irmux.CaptureSource{
			Channel: bank[i],
			Capture: func() irmux.Tick { return latched[i] },
		}
	}
	vector := irmux.NewVector(policy, sources...)

	want := make([]uint32, n)
	for i := range want {
		want[i] = uint32(nec.NewFrame(uint8(i), uint8(0x40+i)).Code())
		// start near the top of the counter so every trace wraps
		for _, ts := range nec.Trace(nec.Code(want[i]), 0xF000, cfg.TickRate) {
			latched[i] = ts
			vector.Interrupt(i)
		}
		d.Poll()
	}

	for i := range want {
		code, ok := got[i]
		if !ok {
			return fmt.Errorf("channel %s: no frame decoded", cfg.Channels[i].Name)
		}
		if code != want[i] {
			return fmt.Errorf("channel %s: decoded %08x, sent %08x", cfg.Channels[i].Name, code, want[i])
		}
	}
	return nil
}
