package config

import (
	"fmt"
	"os"
	"time"

	"github.com/google/uuid"
	"gopkg.in/yaml.v3"

	"github.com/sparques/irmux"
)

// Source backends.
const (
	SourceGPIOCDev = "gpiocdev"
	SourcePeriph   = "periph"
)

// Config is the irmuxd configuration.
type Config struct {
	InstanceID string          `yaml:"instance_id"` // defaults to a random UUID
	Source     string          `yaml:"source"`      // gpiocdev, periph
	TickRate   uint32          `yaml:"tick_rate"`   // capture counter Hz
	Channels   []ChannelConfig `yaml:"channels"`
	Dispatch   DispatchConfig  `yaml:"dispatch"`
	MQTT       MQTTConfig      `yaml:"mqtt"`
	Log        LogConfig       `yaml:"log"`
}

// ChannelConfig binds one IR receiver to a channel. Chip and Line are used
// by the gpiocdev source, Pin by the periph source.
type ChannelConfig struct {
	Name string `yaml:"name"`
	Chip string `yaml:"chip"` // e.g. gpiochip0
	Line int    `yaml:"line"`
	Pin  string `yaml:"pin"` // e.g. GPIO17
}

// DispatchConfig tunes the dispatcher.
type DispatchConfig struct {
	PollInterval time.Duration `yaml:"poll_interval"`
	IdleTimeout  time.Duration `yaml:"idle_timeout"` // 0 keeps stalled captures until the next leader
	VectorPolicy string        `yaml:"vector_policy"`
}

// MQTTConfig contains MQTT broker settings. An empty Broker disables
// publishing.
type MQTTConfig struct {
	Broker string `yaml:"broker"`
	Topic  string `yaml:"topic"`
	QoS    byte   `yaml:"qos"`
}

// LogConfig selects the slog handler.
type LogConfig struct {
	Level  string `yaml:"level"`  // debug, info, warn, error
	Format string `yaml:"format"` // text, json
}

// Default returns the configuration used for anything a file leaves out.
func Default() Config {
	return Config{
		Source:   SourceGPIOCDev,
		TickRate: irmux.DefaultTickRate,
		Dispatch: DispatchConfig{
			PollInterval: time.Millisecond,
			VectorPolicy: irmux.ServiceSignaled.String(),
		},
		MQTT: MQTTConfig{
			Topic: "irmux",
		},
		Log: LogConfig{
			Level:  "info",
			Format: "text",
		},
	}
}

// Load reads and parses a YAML configuration file
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	return Parse(data)
}

// Parse decodes YAML over Default, fills in the instance id and validates.
func Parse(data []byte) (*Config, error) {
	cfg := Default()
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	if cfg.InstanceID == "" {
		cfg.InstanceID = uuid.NewString()
	}
	if err := Validate(&cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return &cfg, nil
}
