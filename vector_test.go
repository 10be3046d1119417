package irmux_test

import (
	"errors"
	"testing"

	"github.com/sparques/irmux"
)

// latches emulates capture registers: one latched value per source.
type latches struct {
	bank    irmux.Bank
	values  []irmux.Tick
	sources []irmux.CaptureSource
}

func newLatches(n int) *latches {
	l := &latches{bank: irmux.NewBank(n), values: make([]irmux.Tick, n)}
	for i := range l.bank {
		i := i
		l.sources = append(l.sources, irmux.CaptureSource{
			Channel: l.bank[i],
			Capture: func() irmux.Tick { return l.values[i] },
		})
	}
	return l
}

func (l *latches) edge(v *irmux.Vector, src int, ts irmux.Tick) {
	l.values[src] = ts
	v.Interrupt(src)
}

func TestVectorServiceSignaled(t *testing.T) {
	l := newLatches(3)
	v := irmux.NewVector(irmux.ServiceSignaled, l.sources...)

	l.edge(v, 1, 500)
	l.edge(v, 1, 900)

	want := []uint32{0, 2, 0}
	for i, ch := range l.bank {
		if got := ch.Stats().Edges; got != want[i] {
			t.Errorf("channel %d edges = %d, want %d", i, got, want[i])
		}
	}
}

func TestVectorServiceFallthrough(t *testing.T) {
	l := newLatches(3)
	v := irmux.NewVector(irmux.ServiceFallthrough, l.sources...)

	l.edge(v, 1, 500)
	l.edge(v, 0, 700)

	want := []uint32{1, 2, 2}
	for i, ch := range l.bank {
		if got := ch.Stats().Edges; got != want[i] {
			t.Errorf("channel %d edges = %d, want %d", i, got, want[i])
		}
	}
}

// Under fallthrough a channel serviced without a new capture records a
// zero-length sample, shifting every later sample of a frame it is in the
// middle of. Spaces then land on mark slots and decode as zeros.
func TestVectorFallthroughCorruptsLaterChannel(t *testing.T) {
	for _, tt := range []struct {
		policy irmux.VectorPolicy
		want   uint32
	}{
		{irmux.ServiceSignaled, 0x0F0F0F0F},
		// bits 0..13 come from samples before the inserted one
		{irmux.ServiceFallthrough, 0x00000F0F},
	} {
		t.Run(tt.policy.String(), func(t *testing.T) {
			l := newLatches(2)
			v := irmux.NewVector(tt.policy, l.sources...)
			var c collector
			d := irmux.NewDispatcher(l.bank, &c, irmux.WithLogger(quiet))

			trace := stamps(100, codeDeltas(0x0F0F0F0F)...)
			for i, ts := range trace {
				l.edge(v, 1, ts)
				if i == 30 {
					// unrelated edge on source 0 mid-frame
					l.edge(v, 0, 4242)
				}
			}
			d.Poll()
			if len(c.codes) != 1 || c.codes[0] != (code{1, tt.want}) {
				t.Errorf("codes = %+v, want channel 1 %08x", c.codes, tt.want)
			}
		})
	}
}

func TestVectorIgnoresOutOfRange(t *testing.T) {
	l := newLatches(2)
	v := irmux.NewVector(irmux.ServiceFallthrough, l.sources...)
	v.Interrupt(-1)
	v.Interrupt(2)
	for i, ch := range l.bank {
		if ch.Stats().Edges != 0 {
			t.Errorf("channel %d serviced", i)
		}
	}
	if v.Policy() != irmux.ServiceFallthrough {
		t.Errorf("Policy() = %v", v.Policy())
	}
}

func TestParseVectorPolicy(t *testing.T) {
	tests := []struct {
		in   string
		want irmux.VectorPolicy
		err  bool
	}{
		{"", irmux.ServiceSignaled, false},
		{"signaled", irmux.ServiceSignaled, false},
		{"fallthrough", irmux.ServiceFallthrough, false},
		{"both", 0, true},
	}
	for _, tt := range tests {
		got, err := irmux.ParseVectorPolicy(tt.in)
		if tt.err {
			if !errors.Is(err, irmux.ErrUnknownPolicy) {
				t.Errorf("ParseVectorPolicy(%q) error = %v, want ErrUnknownPolicy", tt.in, err)
			}
			continue
		}
		if err != nil || got != tt.want {
			t.Errorf("ParseVectorPolicy(%q) = %v, %v, want %v", tt.in, got, err, tt.want)
		}
		if tt.in != "" && got.String() != tt.in {
			t.Errorf("%v.String() = %q, want %q", got, got.String(), tt.in)
		}
	}
}
