package config

import (
	"fmt"

	"github.com/kelseyhightower/envconfig"
)

// EnvPrefix prefixes every environment variable read by Load.
const EnvPrefix = "PROCYON"

// Config holds the runtime configuration of the procyon CLI.
type Config struct {
	LogLevel string `envconfig:"LOG_LEVEL" default:"info"`
	LogDev   bool   `envconfig:"LOG_DEV" default:"false"`

	// Manifest is the boot manifest path. Empty boots DefaultManifest.
	Manifest        string `envconfig:"MANIFEST"`
	CheckInvariants bool   `envconfig:"CHECK_INVARIANTS" default:"false"`

	TickHz       int    `envconfig:"TICK_HZ" default:"1000"`
	TickLimit    uint64 `envconfig:"TICK_LIMIT" default:"0"`
	VirtualClock bool   `envconfig:"VIRTUAL_CLOCK" default:"false"`
	IRQLine      uint8  `envconfig:"IRQ_LINE" default:"1"`
	IRQEvery     uint64 `envconfig:"IRQ_EVERY" default:"0"`

	// MetricsAddr enables the Prometheus endpoint when set.
	MetricsAddr string `envconfig:"METRICS_ADDR"`
}

// Load loads configuration from PROCYON_* environment variables.
func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// LoadOrDefault loads configuration from environment or returns default.
func LoadOrDefault() *Config {
	cfg, err := Load()
	if err != nil {
		return Default()
	}
	return cfg
}

// Default returns default configuration.
func Default() *Config {
	return &Config{
		LogLevel: "info",
		TickHz:   1000,
		IRQLine:  1,
	}
}

// Validate rejects settings the runtime cannot honor.
func (c *Config) Validate() error {
	if c.TickHz <= 0 {
		return fmt.Errorf("config: tick rate must be positive, got %d", c.TickHz)
	}
	return nil
}
