// irmuxd decodes NEC remote codes from IR receivers wired to Linux GPIO
// lines and logs them, optionally publishing each code to MQTT.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/sparques/irmux"
	"github.com/sparques/irmux/cdevrx"
	"github.com/sparques/irmux/config"
	"github.com/sparques/irmux/mqttsink"
	"github.com/sparques/irmux/periphrx"
)

func main() {
	configPath := flag.String("config", "/etc/irmux.yaml", "path to configuration file")
	selftest := flag.Bool("selftest", false, "decode synthesized frames on every channel and exit")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "irmuxd: %v\n", err)
		os.Exit(1)
	}

	log := newLogger(cfg.Log)
	slog.SetDefault(log)

	if *selftest {
		if err := runSelfTest(cfg, log); err != nil {
			log.Error("self test failed", "error", err)
			os.Exit(1)
		}
		log.Info("self test passed", "channels", len(cfg.Channels))
		return
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, log); err != nil && !errors.Is(err, context.Canceled) {
		log.Error("irmuxd stopped", "error", err)
		os.Exit(1)
	}
	log.Info("irmuxd stopped")
}

// newLogger builds the slog logger described by the log section.
func newLogger(lc config.LogConfig) *slog.Logger {
	// already validated
	level, _ := config.ParseLevel(lc.Level)
	opts := &slog.HandlerOptions{Level: level}
	if lc.Format == "json" {
		return slog.New(slog.NewJSONHandler(os.Stdout, opts))
	}
	return slog.New(slog.NewTextHandler(os.Stdout, opts))
}

func run(ctx context.Context, cfg *config.Config, log *slog.Logger) error {
	bank := irmux.NewBank(len(cfg.Channels))
	names := channelNames(cfg)

	consumer, err := consumers(cfg, names, log)
	if err != nil {
		return err
	}

	d := irmux.NewDispatcher(bank, consumer,
		irmux.WithLogger(log),
		irmux.WithIdleTimeout(cfg.Dispatch.IdleTimeout),
		irmux.WithPollInterval(cfg.Dispatch.PollInterval))

	policy, _ := irmux.ParseVectorPolicy(cfg.Dispatch.VectorPolicy)

	log.Info("irmuxd starting",
		"instance_id", cfg.InstanceID,
		"source", cfg.Source,
		"channels", names,
		"tick_rate", cfg.TickRate)

	switch cfg.Source {
	case config.SourceGPIOCDev:
		bindings := make([]cdevrx.Binding, len(cfg.Channels))
		for i, ch := range cfg.Channels {
			bindings[i] = cdevrx.Binding{Chip: ch.Chip, Line: ch.Line, Channel: bank[i]}
		}
		rx, err := cdevrx.Open(cfg.TickRate, policy, log, bindings...)
		if err != nil {
			return err
		}
		defer rx.Close()
		return d.Run(ctx)

	case config.SourcePeriph:
		pins := make([]string, len(cfg.Channels))
		for i, ch := range cfg.Channels {
			pins[i] = ch.Pin
		}
		rx, err := periphrx.Open(cfg.TickRate, log, pins, bank)
		if err != nil {
			return err
		}
		go rx.Run(ctx)
		return d.Run(ctx)
	}
	return fmt.Errorf("unknown source %q", cfg.Source)
}

func channelNames(cfg *config.Config) []string {
	names := make([]string, len(cfg.Channels))
	for i, ch := range cfg.Channels {
		names[i] = ch.Name
	}
	return names
}

// consumers returns the log consumer, plus an MQTT publisher when a broker
// is configured.
func consumers(cfg *config.Config, names []string, log *slog.Logger) (irmux.Consumer, error) {
	logged := irmux.ConsumerFunc(func(ch int, code uint32) {
		log.Info("ir code", "channel", names[ch], "code", fmt.Sprintf("%08x", code))
	})
	if cfg.MQTT.Broker == "" {
		return logged, nil
	}

	client, err := mqttsink.Connect(cfg.MQTT.Broker, "irmux-"+cfg.InstanceID, log)
	if err != nil {
		return nil, err
	}
	pub := mqttsink.New(client, cfg.MQTT.Topic, cfg.MQTT.QoS, cfg.InstanceID, names, log)
	return irmux.MultiConsumer(logged, pub), nil
}
