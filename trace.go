package irmux

// EdgeTrace returns the counter values a capture unit running at rate Hz
// would latch for the mark/space pairs, starting with an edge at start. Every
// pair contributes the edge ending its mark and, unless the space is zero, the
// edge ending its space. The counter wraps exactly as hardware would.
func EdgeTrace(start Tick, rate uint32, pairs ...TimePair) []Tick {
	out := make([]Tick, 1, 1+2*len(pairs))
	out[0] = start
	t := start
	for _, p := range pairs {
		t += TicksOf(p[0], rate)
		out = append(out, t)
		if p[1] == 0 {
			continue
		}
		t += TicksOf(p[1], rate)
		out = append(out, t)
	}
	return out
}

// Feed hands every timestamp in trace to ch in order.
func Feed(ch *Channel, trace []Tick) {
	for _, ts := range trace {
		ch.OnEdge(ts)
	}
}
