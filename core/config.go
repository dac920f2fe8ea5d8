package core

// Config holds the timing and persistence parameters of the lock.
// Zero fields are filled from DefaultConfig by NewMachine.
type Config struct {
	// Button gesture thresholds in milliseconds
	ShortPressMin uint32 // presses shorter than this are bounce
	LongHoldMin   uint32 // presses at least this long select SetCombo

	// Lock relay hold time in milliseconds
	LockHold uint32

	// Card polling
	PollInterval  uint32 // minimum spacing between reader polls
	RemovalSettle uint32 // absence needed before the same card counts again; 0 forgets it at once

	// Program mode increment settle delay
	IncrementSettle uint32

	// Main loop yield between ticks
	TickDelay uint32

	// Persisted record location and sentinel. A zero RecordMagic means
	// the default 0xA5, so 0x00 cannot be used as a sentinel.
	RecordBase  uint16
	RecordMagic byte

	// Combination used when no valid record is stored
	DefaultCombination []uint8
}

// DefaultConfig returns the stock configuration
func DefaultConfig() Config {
	return Config{
		ShortPressMin:      100,
		LongHoldMin:        4000,
		LockHold:           3000,
		PollInterval:       20,
		RemovalSettle:      0,
		IncrementSettle:    250,
		TickDelay:          5,
		RecordBase:         0,
		RecordMagic:        0xA5,
		DefaultCombination: []uint8{1, 2, 3, 4},
	}
}

// applyDefaults fills in missing configuration values
func applyDefaults(cfg *Config) {
	def := DefaultConfig()

	if cfg.ShortPressMin == 0 {
		cfg.ShortPressMin = def.ShortPressMin
	}
	if cfg.LongHoldMin == 0 {
		cfg.LongHoldMin = def.LongHoldMin
	}
	if cfg.LockHold == 0 {
		cfg.LockHold = def.LockHold
	}
	if cfg.PollInterval == 0 {
		cfg.PollInterval = def.PollInterval
	}
	if cfg.IncrementSettle == 0 {
		cfg.IncrementSettle = def.IncrementSettle
	}
	if cfg.TickDelay == 0 {
		cfg.TickDelay = def.TickDelay
	}
	if cfg.RecordMagic == 0 {
		cfg.RecordMagic = def.RecordMagic
	}
	if len(cfg.DefaultCombination) == 0 {
		cfg.DefaultCombination = def.DefaultCombination
	}
	// RemovalSettle and RecordBase are meaningful at zero
}

// validate checks relationships between fields
func (cfg *Config) validate() error {
	if cfg.LongHoldMin <= cfg.ShortPressMin {
		return ErrInvalidConfig
	}
	if len(cfg.DefaultCombination) > MaxCards {
		return ErrInvalidConfig
	}
	return nil
}
