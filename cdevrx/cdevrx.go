// cdevrx feeds irmux channels from Linux GPIO lines through the GPIO
// character device. The kernel timestamps each edge when it happens, so the
// intervals the channels see are as good as the interrupt latency of the
// GPIO controller, not the scheduling latency of this process.
//
// All lines on one chip are requested together and share one event handler,
// the same way capture units on one timer share an interrupt vector. Which
// channels that handler services per event is the irmux.VectorPolicy.
package cdevrx

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/warthog618/go-gpiocdev"

	"github.com/sparques/irmux"
)

// Binding connects one GPIO line to a channel.
type Binding struct {
	Chip    string
	Line    int
	Channel *irmux.Channel
}

// chipVector is the shared handler state for the lines of one chip. Only the
// request's event goroutine touches it.
type chipVector struct {
	rate    uint32
	offsets map[int]int // line offset -> source index
	latched []irmux.Tick
	vector  *irmux.Vector
}

func newChipVector(rate uint32, policy irmux.VectorPolicy, bindings []Binding) *chipVector {
	cv := &chipVector{
		rate:    rate,
		offsets: make(map[int]int, len(bindings)),
		latched: make([]irmux.Tick, len(bindings)),
	}
	sources := make([]irmux.CaptureSource, len(bindings))
	for i, b := range bindings {
		i := i
		cv.offsets[b.Line] = i
		sources[i] = irmux.CaptureSource{
			Channel: b.Channel,
			Capture: func() irmux.Tick { return cv.latched[i] },
		}
	}
	cv.vector = irmux.NewVector(policy, sources...)
	return cv
}

// handle latches the event's timestamp for its line and enters the vector.
func (cv *chipVector) handle(evt gpiocdev.LineEvent) {
	i, ok := cv.offsets[evt.Offset]
	if !ok {
		return
	}
	cv.latched[i] = irmux.TicksOf(evt.Timestamp, cv.rate)
	cv.vector.Interrupt(i)
}

// Receiver owns the requested lines.
type Receiver struct {
	requests []*gpiocdev.Lines
	log      *slog.Logger
}

// Open requests every bound line as an input watching both edges. Edge
// timestamps are converted to ticks of a counter running at rate Hz.
func Open(rate uint32, policy irmux.VectorPolicy, log *slog.Logger, bindings ...Binding) (*Receiver, error) {
	if log == nil {
		log = slog.Default()
	}
	rx := &Receiver{log: log}
	for _, chip := range groupByChip(bindings) {
		cv := newChipVector(rate, policy, chip)
		offsets := make([]int, len(chip))
		for i, b := range chip {
			offsets[i] = b.Line
		}
		name := chip[0].Chip
		lines, err := gpiocdev.RequestLines(name, offsets,
			gpiocdev.AsInput,
			gpiocdev.WithConsumer("irmux"),
			gpiocdev.WithBothEdges,
			gpiocdev.WithEventHandler(cv.handle))
		if err != nil {
			rx.Close()
			return nil, fmt.Errorf("request %s lines %v: %w", name, offsets, err)
		}
		rx.requests = append(rx.requests, lines)
		log.Info("ir lines requested",
			"chip", name,
			"lines", offsets,
			"policy", policy)
	}
	return rx, nil
}

// groupByChip splits bindings per chip, keeping their order.
func groupByChip(bindings []Binding) [][]Binding {
	var (
		out   [][]Binding
		index = map[string]int{}
	)
	for _, b := range bindings {
		i, ok := index[b.Chip]
		if !ok {
			i = len(out)
			index[b.Chip] = i
			out = append(out, nil)
		}
		out[i] = append(out[i], b)
	}
	return out
}

// Close releases every line.
func (rx *Receiver) Close() error {
	var errs []error
	for _, l := range rx.requests {
		if err := l.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	rx.requests = nil
	return errors.Join(errs...)
}
