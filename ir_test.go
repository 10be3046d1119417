package irmux

import (
	"testing"
	"time"
)

func TestElapsedWraps(t *testing.T) {
	tests := []struct {
		last, now Tick
		want      Tick
	}{
		{0, 0, 0},
		{100, 9100, 9000},
		{65530, 10, 16},
		{65535, 0, 1},
		{1, 0, 65535},
		{60000, 3464, 9000},
	}
	for _, tt := range tests {
		if got := Elapsed(tt.last, tt.now); got != tt.want {
			t.Errorf("Elapsed(%d, %d) = %d, want %d", tt.last, tt.now, got, tt.want)
		}
	}
}

func TestTicksOf(t *testing.T) {
	tests := []struct {
		d    time.Duration
		rate uint32
		want Tick
	}{
		{9 * time.Millisecond, DefaultTickRate, 9000},
		{562 * time.Microsecond, DefaultTickRate, 562},
		{1687 * time.Microsecond, DefaultTickRate, 1687},
		{time.Millisecond, 8_000_000, 8000},
		// a full counter period wraps back to zero
		{65536 * time.Microsecond, DefaultTickRate, 0},
		{65546 * time.Microsecond, DefaultTickRate, 10},
		// large monotonic timestamps must not overflow the intermediate product
		{1000*time.Hour + 5*time.Microsecond, DefaultTickRate, Tick((uint64(1000*3600)*1_000_000 + 5) % 65536)},
	}
	for _, tt := range tests {
		if got := TicksOf(tt.d, tt.rate); got != tt.want {
			t.Errorf("TicksOf(%v, %d) = %d, want %d", tt.d, tt.rate, got, tt.want)
		}
	}
}

func TestDurationOf(t *testing.T) {
	if got := DurationOf(9000, DefaultTickRate); got != 9*time.Millisecond {
		t.Errorf("DurationOf(9000) = %v, want 9ms", got)
	}
	if got := DurationOf(8000, 8_000_000); got != time.Millisecond {
		t.Errorf("DurationOf(8000, 8MHz) = %v, want 1ms", got)
	}
}

func TestEdgeTrace(t *testing.T) {
	trace := EdgeTrace(65000, DefaultTickRate,
		TimePair{9 * time.Millisecond, 4500 * time.Microsecond},
		TimePair{562 * time.Microsecond, 0})

	want := []Tick{65000, 65000 + 9000 - 65536, 65000 + 13500 - 65536, 65000 + 14062 - 65536}
	if len(trace) != len(want) {
		t.Fatalf("len(trace) = %d, want %d", len(trace), len(want))
	}
	for i := range want {
		if trace[i] != want[i] {
			t.Errorf("trace[%d] = %d, want %d", i, trace[i], want[i])
		}
	}
}
