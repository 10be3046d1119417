// periphrx feeds irmux channels from GPIO pins through periph.io. Edges are
// timestamped when WaitForEdge returns, so the measured intervals carry the
// scheduling jitter of the waiting goroutine. Prefer cdevrx where the kernel
// supports it.
package periphrx

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/pkg/errors"
	"periph.io/x/periph/conn/gpio"
	"periph.io/x/periph/conn/gpio/gpioreg"
	"periph.io/x/periph/host"

	"github.com/sparques/irmux"
)

// pollTimeout bounds each WaitForEdge so Run notices cancellation.
const pollTimeout = 100 * time.Millisecond

// edgeWaiter is the part of gpio.PinIO the receive loop uses.
type edgeWaiter interface {
	Name() string
	WaitForEdge(timeout time.Duration) bool
}

type binding struct {
	pin     edgeWaiter
	channel *irmux.Channel
}

// Receiver waits for edges on a set of pins.
type Receiver struct {
	bindings []binding
	rate     uint32
	epoch    time.Time
	log      *slog.Logger
}

// Open initializes the periph host drivers and configures every named pin as
// a pulled-up input watching both edges. pins[i] feeds channels[i].
func Open(rate uint32, log *slog.Logger, pins []string, channels []*irmux.Channel) (*Receiver, error) {
	if len(pins) != len(channels) {
		return nil, errors.Errorf("%d pins for %d channels", len(pins), len(channels))
	}
	if _, err := host.Init(); err != nil {
		return nil, errors.Wrap(err, "periph host init")
	}

	rx := newReceiver(rate, log)
	for i, name := range pins {
		pin := gpioreg.ByName(name)
		if pin == nil {
			return nil, errors.New("invalid pin: " + name)
		}
		if err := pin.In(gpio.PullUp, gpio.BothEdges); err != nil {
			return nil, errors.Wrapf(err, "configure %s", name)
		}
		rx.bindings = append(rx.bindings, binding{pin: pin, channel: channels[i]})
		rx.log.Info("ir pin configured", "pin", name, "channel", channels[i].ID())
	}
	return rx, nil
}

func newReceiver(rate uint32, log *slog.Logger) *Receiver {
	if log == nil {
		log = slog.Default()
	}
	return &Receiver{
		rate:  rate,
		epoch: time.Now(),
		log:   log,
	}
}

func (rx *Receiver) stamp() irmux.Tick {
	return irmux.TicksOf(time.Since(rx.epoch), rx.rate)
}

// Run starts one goroutine per pin and returns once ctx is done and all of
// them have stopped.
func (rx *Receiver) Run(ctx context.Context) error {
	var wg sync.WaitGroup
	for _, b := range rx.bindings {
		wg.Add(1)
		go func(b binding) {
			defer wg.Done()
			rx.watch(ctx, b)
		}(b)
	}
	wg.Wait()
	return ctx.Err()
}

func (rx *Receiver) watch(ctx context.Context, b binding) {
	for ctx.Err() == nil {
		if b.pin.WaitForEdge(pollTimeout) {
			b.channel.OnEdge(rx.stamp())
		}
	}
	rx.log.Debug("ir pin watcher stopped", "pin", b.pin.Name())
}
