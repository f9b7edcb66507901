package main

import (
	"errors"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/mastercactapus/grblstream/machine"
	"github.com/mastercactapus/grblstream/machine/grbl"
)

const (
	transportSerial = "serial"
	transportSPJS   = "spjs"
)

// Config is the daemon configuration, read from YAML and overridden by flags.
type Config struct {
	Transport string `yaml:"transport"`
	Port      string `yaml:"port"`
	Baud      int    `yaml:"baud"`
	SPJS      string `yaml:"spjs"`

	Addr string `yaml:"addr"`
	Dir  string `yaml:"dir"`

	StatusInterval time.Duration `yaml:"status_interval"`
	Capacity       int           `yaml:"capacity"`
	Startup        []string      `yaml:"startup"`
	HoldOnError    bool          `yaml:"hold_on_error"`
	HistoryLength  int           `yaml:"history_length"`

	// Strict rejects programs that fail a full G-code parse before loading.
	Strict bool `yaml:"strict"`
}

// DefaultConfig returns the configuration used when no file is given.
func DefaultConfig() Config {
	return Config{
		Transport:      transportSerial,
		Port:           "/dev/ttyUSB0",
		Baud:           115200,
		SPJS:           "ws://cnc-bridge:8989/ws",
		Addr:           ":9091",
		Dir:            "./data",
		StatusInterval: grbl.DefaultStatusInterval,
		Capacity:       grbl.DefaultCapacity,
		HistoryLength:  machine.DefaultHistoryLength,
	}
}

// Load reads a YAML config file on top of the defaults.
func Load(path string) (Config, error) {
	cfg := DefaultConfig()
	f, err := os.Open(path)
	if err != nil {
		return cfg, fmt.Errorf("open config: %w", err)
	}
	defer f.Close()

	dec := yaml.NewDecoder(f)
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil {
		return cfg, fmt.Errorf("decode config %s: %w", path, err)
	}
	return cfg, nil
}

// Validate checks the configuration for values the daemon cannot use.
func (c Config) Validate() error {
	switch c.Transport {
	case transportSerial:
		if c.Port == "" {
			return errors.New("port is required")
		}
	case transportSPJS:
		if c.SPJS == "" {
			return errors.New("spjs url is required")
		}
		if c.Port == "" {
			return errors.New("port name is required")
		}
	default:
		return fmt.Errorf("unknown transport %q", c.Transport)
	}
	if c.Baud <= 0 {
		return fmt.Errorf("invalid baud rate %d", c.Baud)
	}
	if c.Capacity <= 0 {
		return fmt.Errorf("invalid capacity %d", c.Capacity)
	}
	if c.StatusInterval < 0 {
		return fmt.Errorf("invalid status interval %s", c.StatusInterval)
	}
	if c.HistoryLength <= 0 {
		return fmt.Errorf("invalid history length %d", c.HistoryLength)
	}
	for _, s := range c.Startup {
		if len(s)+1 > c.Capacity {
			return fmt.Errorf("startup instruction %q exceeds capacity", s)
		}
	}
	return nil
}

// MachineConfig converts c into the settings for machine.NewMachine.
func (c Config) MachineConfig() machine.Config {
	var startup []grbl.Instruction
	for _, s := range c.Startup {
		startup = append(startup, grbl.NewCommand(s))
	}
	return machine.Config{
		Board: grbl.BoardConfig{
			Capacity:       c.Capacity,
			StatusInterval: c.StatusInterval,
			Startup:        startup,
		},
		HistoryLength: c.HistoryLength,
		HoldOnError:   c.HoldOnError,
	}
}
