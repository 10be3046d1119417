package config

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/sparques/irmux"
	"github.com/sparques/irmux/nec"
)

var (
	ErrNoChannels = errors.New("no channels configured")
)

// Validate checks a configuration for values irmuxd can't run with.
func Validate(cfg *Config) error {
	if len(cfg.Channels) == 0 {
		return ErrNoChannels
	}

	switch cfg.Source {
	case SourceGPIOCDev, SourcePeriph:
	default:
		return fmt.Errorf("source: unknown backend %q", cfg.Source)
	}

	if cfg.TickRate == 0 {
		return fmt.Errorf("tick_rate: must be positive")
	}
	// The decoder's timing constants are in ticks, so the rate must put the
	// 9ms leader inside the leader window.
	if leader := irmux.TicksOf(nec.LeaderPair[0], cfg.TickRate); leader <= irmux.LowerLeaderTicks || leader >= irmux.UpperLeaderTicks {
		return fmt.Errorf("tick_rate: %d Hz makes the leader %d ticks, outside (%d, %d)",
			cfg.TickRate, leader, irmux.LowerLeaderTicks, irmux.UpperLeaderTicks)
	}

	names := make(map[string]bool, len(cfg.Channels))
	for i, ch := range cfg.Channels {
		if ch.Name == "" {
			return fmt.Errorf("channels[%d]: name is required", i)
		}
		if names[ch.Name] {
			return fmt.Errorf("channels[%d]: duplicate name %q", i, ch.Name)
		}
		names[ch.Name] = true

		switch cfg.Source {
		case SourceGPIOCDev:
			if ch.Chip == "" {
				return fmt.Errorf("channels[%d]: chip is required for %s", i, SourceGPIOCDev)
			}
			if ch.Line < 0 {
				return fmt.Errorf("channels[%d]: line must not be negative", i)
			}
		case SourcePeriph:
			if ch.Pin == "" {
				return fmt.Errorf("channels[%d]: pin is required for %s", i, SourcePeriph)
			}
		}
	}

	if cfg.Dispatch.PollInterval < 0 {
		return fmt.Errorf("dispatch.poll_interval: must not be negative")
	}
	if cfg.Dispatch.IdleTimeout < 0 {
		return fmt.Errorf("dispatch.idle_timeout: must not be negative")
	}
	if _, err := irmux.ParseVectorPolicy(cfg.Dispatch.VectorPolicy); err != nil {
		return fmt.Errorf("dispatch.vector_policy: %w", err)
	}

	if cfg.MQTT.Broker != "" {
		if cfg.MQTT.Topic == "" {
			return fmt.Errorf("mqtt.topic: required when a broker is set")
		}
		if cfg.MQTT.QoS > 2 {
			return fmt.Errorf("mqtt.qos: must be 0, 1 or 2")
		}
	}

	if _, err := ParseLevel(cfg.Log.Level); err != nil {
		return fmt.Errorf("log.level: %w", err)
	}
	switch cfg.Log.Format {
	case "text", "json":
	default:
		return fmt.Errorf("log.format: unknown format %q", cfg.Log.Format)
	}

	return nil
}

// ParseLevel maps a level name to a slog.Level.
func ParseLevel(s string) (slog.Level, error) {
	var l slog.Level
	if err := l.UnmarshalText([]byte(strings.ToUpper(s))); err != nil {
		return 0, err
	}
	return l, nil
}
