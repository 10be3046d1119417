package irmux

import (
	"context"
	"fmt"
	"log/slog"
	"time"
)

// Dispatcher is the consumer half of every channel in a Bank. It polls for
// completed frames, decodes them and forwards the value. It never blocks the
// edge handlers and keeps no queue: each channel has room for exactly one
// unread frame.
//
// A leader that arrives on a channel before the dispatcher has read its
// completed frame overwrites that frame, and the dispatcher's release of the
// frame then also cancels the new capture. Poll often enough that a frame is
// read well within the ~40ms gap between NEC transmissions. Overwrites are
// counted in Stats and logged.
type Dispatcher struct {
	bank     Bank
	consumer Consumer
	log      *slog.Logger

	idleTimeout  time.Duration
	pollInterval time.Duration
	now          func() time.Time

	watch []watch
}

// watch is the dispatcher's private view of a channel between polls.
type watch struct {
	edges      uint32
	since      time.Time
	overwrites uint32
}

// Option configures a Dispatcher.
type Option func(*Dispatcher)

// WithLogger sets the logger. Decoded frames are logged at debug level,
// overwritten frames and idle aborts at warn.
func WithLogger(l *slog.Logger) Option {
	return func(d *Dispatcher) {
		d.log = l
	}
}

// WithIdleTimeout makes the dispatcher abandon a capture that has seen no
// edge for d, returning the channel to Idle. A transmitter that stops
// mid-frame otherwise leaves the channel Capturing until the next leader.
// Zero, the default, disables the timeout.
func WithIdleTimeout(d time.Duration) Option {
	return func(dp *Dispatcher) {
		dp.idleTimeout = d
	}
}

// WithPollInterval makes Run sleep between polls instead of spinning.
func WithPollInterval(d time.Duration) Option {
	return func(dp *Dispatcher) {
		dp.pollInterval = d
	}
}

// NewDispatcher returns a dispatcher that forwards every frame decoded on
// bank to consumer.
func NewDispatcher(bank Bank, consumer Consumer, opts ...Option) *Dispatcher {
	d := &Dispatcher{
		bank:     bank,
		consumer: consumer,
		log:      slog.Default(),
		now:      time.Now,
		watch:    make([]watch, len(bank)),
	}
	for _, opt := range opts {
		opt(d)
	}
	start := d.now()
	for i := range d.watch {
		d.watch[i].since = start
	}
	return d
}

// Poll services every channel once and returns the number of frames
// forwarded to the consumer.
func (d *Dispatcher) Poll() int {
	var (
		f Frame
		n int
	)
	for i, ch := range d.bank {
		w := &d.watch[i]

		if ow := ch.overwrites.Load(); ow != w.overwrites {
			d.log.Warn("unread frame overwritten by new leader",
				"channel", ch.id,
				"count", ow-w.overwrites)
			w.overwrites = ow
		}

		if !ch.take(&f) {
			d.checkIdle(w, ch)
			continue
		}

		code := DecodeNEC(&f)
		ch.release()
		n++

		d.log.Debug("frame decoded",
			"channel", ch.id,
			"code", fmt.Sprintf("%08x", code))
		d.consumer.HandleCode(ch.id, code)
	}
	return n
}

func (d *Dispatcher) checkIdle(w *watch, ch *Channel) {
	if d.idleTimeout <= 0 {
		return
	}
	now := d.now()
	edges := ch.edges.Load()
	if edges != w.edges || ch.State() != Capturing {
		w.edges = edges
		w.since = now
		return
	}
	if now.Sub(w.since) < d.idleTimeout {
		return
	}
	if ch.abandon() {
		d.log.Warn("capture abandoned after idle timeout",
			"channel", ch.id,
			"timeout", d.idleTimeout)
	}
	w.since = now
}

// Run polls until ctx is done and returns ctx.Err().
func (d *Dispatcher) Run(ctx context.Context) error {
	if d.pollInterval <= 0 {
		for {
			select {
			case <-ctx.Done():
				return ctx.Err()
			default:
				d.Poll()
			}
		}
	}

	ticker := time.NewTicker(d.pollInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			d.Poll()
		}
	}
}
