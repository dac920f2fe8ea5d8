// Package config loads the host tool settings from puzzlebox.yaml.
package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"puzzlebox/core"
	"puzzlebox/host/serial"
)

// DefaultPath is the file Load reads when no path is given
const DefaultPath = "puzzlebox.yaml"

// Config is the top-level puzzlebox.yaml document
type Config struct {
	Serial SerialConfig `yaml:"serial"`
	Link   LinkConfig   `yaml:"link"`
	Sim    SimConfig    `yaml:"sim"`
}

// SerialConfig selects the USB serial port of a real box
type SerialConfig struct {
	Device        string `yaml:"device"`
	Baud          int    `yaml:"baud"`
	ReadTimeoutMs int    `yaml:"read_timeout_ms"`
}

// LinkConfig bounds protocol exchanges
type LinkConfig struct {
	AckTimeoutMs      int `yaml:"ack_timeout_ms"`
	ResponseTimeoutMs int `yaml:"response_timeout_ms"`
}

// SimConfig configures the host simulator. Lock timings left at zero keep
// the firmware defaults.
type SimConfig struct {
	Store  string     `yaml:"store"`   // record file; empty keeps it in memory
	TickMs uint32     `yaml:"tick_ms"` // real-time step interval
	Lock   LockConfig `yaml:"lock"`
}

// LockConfig mirrors core.Config in milliseconds
type LockConfig struct {
	ShortPressMinMs    uint32  `yaml:"short_press_min_ms"`
	LongHoldMinMs      uint32  `yaml:"long_hold_min_ms"`
	LockHoldMs         uint32  `yaml:"lock_hold_ms"`
	PollIntervalMs     uint32  `yaml:"poll_interval_ms"`
	RemovalSettleMs    uint32  `yaml:"removal_settle_ms"`
	IncrementSettleMs  uint32  `yaml:"increment_settle_ms"`
	DefaultCombination []uint8 `yaml:"default_combination,flow"`
}

// Default returns the built-in settings
func Default() *Config {
	return &Config{
		Serial: SerialConfig{
			Device:        serial.AutoDevice,
			Baud:          115200,
			ReadTimeoutMs: 100,
		},
		Link: LinkConfig{
			AckTimeoutMs:      2000,
			ResponseTimeoutMs: 1000,
		},
		Sim: SimConfig{
			Store:  "puzzlebox-sim.bin",
			TickMs: 5,
		},
	}
}

// Load reads path over the defaults. A missing file at DefaultPath is not
// an error; a missing file anywhere else is.
func Load(path string) (*Config, error) {
	explicit := path != ""
	if !explicit {
		path = DefaultPath
	}

	cfg := Default()
	data, err := os.ReadFile(path)
	if err != nil {
		if !explicit && errors.Is(err, os.ErrNotExist) {
			return cfg, nil
		}
		return nil, fmt.Errorf("failed to read config %s: %w", path, err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config %s: %w", path, err)
	}
	return cfg, nil
}

// Validate checks value ranges
func (c *Config) Validate() error {
	if c.Serial.Baud <= 0 {
		return fmt.Errorf("serial.baud must be positive, got %d", c.Serial.Baud)
	}
	if c.Serial.ReadTimeoutMs < 0 {
		return fmt.Errorf("serial.read_timeout_ms must not be negative")
	}
	if c.Link.AckTimeoutMs <= 0 || c.Link.ResponseTimeoutMs <= 0 {
		return fmt.Errorf("link timeouts must be positive")
	}
	if c.Sim.TickMs == 0 {
		return fmt.Errorf("sim.tick_ms must be positive")
	}

	lock := c.Sim.Lock
	if n := len(lock.DefaultCombination); n > core.MaxCards {
		return fmt.Errorf("sim.lock.default_combination has %d cards, at most %d allowed", n, core.MaxCards)
	}
	if lock.LongHoldMinMs != 0 || lock.ShortPressMinMs != 0 {
		short, long := lock.ShortPressMinMs, lock.LongHoldMinMs
		def := core.DefaultConfig()
		if short == 0 {
			short = def.ShortPressMin
		}
		if long == 0 {
			long = def.LongHoldMin
		}
		if long <= short {
			return fmt.Errorf("sim.lock.long_hold_min_ms (%d) must exceed short_press_min_ms (%d)", long, short)
		}
	}
	return nil
}

// SerialPort returns the serial port settings
func (c *Config) SerialPort() *serial.Config {
	return &serial.Config{
		Device:      c.Serial.Device,
		Baud:        c.Serial.Baud,
		ReadTimeout: c.Serial.ReadTimeoutMs,
	}
}

// AckTimeout returns the ACK wait bound
func (c *Config) AckTimeout() time.Duration {
	return time.Duration(c.Link.AckTimeoutMs) * time.Millisecond
}

// ResponseTimeout returns the response wait bound
func (c *Config) ResponseTimeout() time.Duration {
	return time.Duration(c.Link.ResponseTimeoutMs) * time.Millisecond
}

// TickInterval returns the simulator step interval
func (c *Config) TickInterval() time.Duration {
	return time.Duration(c.Sim.TickMs) * time.Millisecond
}

// CoreConfig returns the lock configuration for the simulator. Zero
// fields are filled in by core.NewMachine.
func (c *Config) CoreConfig() core.Config {
	lock := c.Sim.Lock
	return core.Config{
		ShortPressMin:      lock.ShortPressMinMs,
		LongHoldMin:        lock.LongHoldMinMs,
		LockHold:           lock.LockHoldMs,
		PollInterval:       lock.PollIntervalMs,
		RemovalSettle:      lock.RemovalSettleMs,
		IncrementSettle:    lock.IncrementSettleMs,
		TickDelay:          c.Sim.TickMs,
		DefaultCombination: lock.DefaultCombination,
	}
}
