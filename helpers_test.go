package irmux_test

import (
	"io"
	"log/slog"

	"github.com/sparques/irmux"
)

var quiet = slog.New(slog.NewTextHandler(io.Discard, nil))

// stamps turns a list of edge-to-edge deltas into capture timestamps,
// starting with an edge at start.
func stamps(start irmux.Tick, deltas ...irmux.Tick) []irmux.Tick {
	out := make([]irmux.Tick, 0, len(deltas)+1)
	out = append(out, start)
	t := start
	for _, d := range deltas {
		t += d
		out = append(out, t)
	}
	return out
}

// frameDeltas returns the 67 samples of a frame: leader, 32 bits with the
// given mark and spaces, stop mark.
func frameDeltas(mark irmux.Tick, spaces [32]irmux.Tick) []irmux.Tick {
	out := make([]irmux.Tick, 0, irmux.TotalTimings)
	out = append(out, 9000, 4500)
	for _, s := range spaces {
		out = append(out, mark, s)
	}
	return append(out, mark)
}

// codeDeltas encodes v LSB first with 600/1700 tick spaces.
func codeDeltas(v uint32) []irmux.Tick {
	var spaces [32]irmux.Tick
	for bit := range spaces {
		spaces[bit] = 600
		if v>>bit&1 == 1 {
			spaces[bit] = 1700
		}
	}
	return frameDeltas(560, spaces)
}

// collector is a Consumer remembering everything it was handed.
type collector struct {
	codes []code
}

type code struct {
	channel int
	value   uint32
}

func (c *collector) HandleCode(channel int, value uint32) {
	c.codes = append(c.codes, code{channel, value})
}
