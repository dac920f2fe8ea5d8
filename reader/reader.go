// Package reader adapts a low-level RFID tag interface to core.CardReader.
// It owns the retry and timeout policy so the lock logic only sees success
// or failure.
package reader

import (
	"errors"

	"puzzlebox/core"
)

// Errors returned by CardReader operations. They are the core taxonomy so
// callers can test with errors.Is against either package.
var (
	ErrTimeout  = core.ErrTransportTimeout
	ErrProtocol = core.ErrTransportProtocol
	ErrNoCard   = errors.New("reader: no card selected")
)

// BlockSize is the MIFARE Classic data block size
const BlockSize = 16

// Tag is a contactless frontend able to select one card and access its
// data blocks. Errors that are timeouts must satisfy errors.Is(err,
// ErrTimeout).
type Tag interface {
	// Detect wakes and selects a card in the field
	Detect() bool

	// UID returns the UID of the selected card
	UID() []byte

	// SetTimeout bounds each following operation to ms milliseconds
	SetTimeout(ms uint32)

	// Authenticate unlocks the sector holding block
	Authenticate(block uint8) error

	// ReadBlock reads one block into buf (BlockSize bytes)
	ReadBlock(block uint8, buf []byte) error

	// WriteBlock writes one block from data (BlockSize bytes)
	WriteBlock(block uint8, data []byte) error

	// Halt ends the session with the selected card
	Halt()
}

// Config holds the card access policy
type Config struct {
	Attempts    int    // tries per operation
	AuthTimeout uint32 // ms per authenticate
	OpTimeout   uint32 // ms per block read or write
	ValueBlock  uint8  // block whose first byte holds the card value
}

// DefaultConfig returns the stock policy: three attempts, 500ms bounds,
// value in block 4 (first data block of sector 1)
func DefaultConfig() Config {
	return Config{
		Attempts:    3,
		AuthTimeout: 500,
		OpTimeout:   500,
		ValueBlock:  4,
	}
}

func applyDefaults(cfg *Config) {
	def := DefaultConfig()
	if cfg.Attempts <= 0 {
		cfg.Attempts = def.Attempts
	}
	if cfg.AuthTimeout == 0 {
		cfg.AuthTimeout = def.AuthTimeout
	}
	if cfg.OpTimeout == 0 {
		cfg.OpTimeout = def.OpTimeout
	}
	// ValueBlock 0 is the manufacturer block and never writable
	if cfg.ValueBlock == 0 {
		cfg.ValueBlock = def.ValueBlock
	}
}

// Retrying implements core.CardReader on top of a Tag
type Retrying struct {
	tag      Tag
	cfg      Config
	uid      [core.MaxIdentityLen]byte
	uidLen   int
	selected bool
	block    [BlockSize]byte
}

// New creates a Retrying reader. Zero config fields take their defaults.
func New(tag Tag, cfg Config) *Retrying {
	applyDefaults(&cfg)
	return &Retrying{tag: tag, cfg: cfg}
}

// Present looks for a card and remembers its UID
func (r *Retrying) Present() bool {
	r.tag.SetTimeout(r.cfg.OpTimeout)
	r.selected = r.tag.Detect()
	if r.selected {
		r.uidLen = copy(r.uid[:], r.tag.UID())
	}
	return r.selected
}

// Identity returns the UID found by the last successful Present
func (r *Retrying) Identity() []byte {
	return r.uid[:r.uidLen]
}

// ReadValue reads the value byte from the card
func (r *Retrying) ReadValue() (byte, error) {
	err := r.retry(func() error {
		return r.tag.ReadBlock(r.cfg.ValueBlock, r.block[:])
	})
	if err != nil {
		return 0, err
	}
	return r.block[0], nil
}

// WriteValue stores v in the first byte of the value block and zeroes the
// rest of the block
func (r *Retrying) WriteValue(v byte) error {
	return r.retry(func() error {
		r.block = [BlockSize]byte{v}
		return r.tag.WriteBlock(r.cfg.ValueBlock, r.block[:])
	})
}

// retry runs authenticate then op up to Attempts times. A failed attempt
// leaves the card unselected, so later attempts select it again.
func (r *Retrying) retry(op func() error) error {
	var err error
	for attempt := 0; attempt < r.cfg.Attempts; attempt++ {
		if !r.selected {
			r.tag.SetTimeout(r.cfg.OpTimeout)
			if r.selected = r.tag.Detect(); !r.selected {
				err = ErrNoCard
				continue
			}
		}

		r.tag.SetTimeout(r.cfg.AuthTimeout)
		if err = r.tag.Authenticate(r.cfg.ValueBlock); err == nil {
			r.tag.SetTimeout(r.cfg.OpTimeout)
			err = op()
		}
		r.tag.Halt()
		r.selected = false
		if err == nil {
			return nil
		}
		core.DebugPrintln("reader: attempt failed: " + err.Error())
	}
	return classify(err)
}

// classify maps a tag error to the transport taxonomy
func classify(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, ErrTimeout), errors.Is(err, ErrNoCard):
		return ErrTimeout
	default:
		return ErrProtocol
	}
}
