package core

// MaxCards is the longest combination the lock accepts
const MaxCards = 10

// Persisted record layout
const (
	recordOffsetMagic  = 0
	recordOffsetLength = 1
	recordOffsetValues = 2

	// RecordSize is the storage footprint of a full-length record
	RecordSize = recordOffsetValues + MaxCards
)

// Sequence is an ordered list of card values bounded by MaxCards. Both the
// stored combination and the entered cards use it.
type Sequence struct {
	values [MaxCards]uint8
	n      uint8
}

// NewSequence builds a sequence from values
func NewSequence(values ...uint8) (Sequence, error) {
	var s Sequence
	if len(values) > MaxCards {
		return s, ErrInvalidLength
	}
	s.n = uint8(copy(s.values[:], values))
	return s, nil
}

// Len returns the number of values
func (s *Sequence) Len() int {
	return int(s.n)
}

// At returns the value at position i
func (s *Sequence) At(i int) uint8 {
	return s.values[i]
}

// Values returns a copy of the values
func (s *Sequence) Values() []uint8 {
	out := make([]uint8, s.n)
	copy(out, s.values[:s.n])
	return out
}

// Append adds v and returns false if the sequence is full
func (s *Sequence) Append(v uint8) bool {
	if int(s.n) >= MaxCards {
		return false
	}
	s.values[s.n] = v
	s.n++
	return true
}

// Reset empties the sequence
func (s *Sequence) Reset() {
	s.n = 0
}

// Matches reports whether other holds exactly the same values in order
func (s *Sequence) Matches(other *Sequence) bool {
	if s.n != other.n {
		return false
	}
	for i := uint8(0); i < s.n; i++ {
		if s.values[i] != other.values[i] {
			return false
		}
	}
	return true
}

// ComboStore reads and writes the persisted combination record:
// magic, length, then one byte per value.
type ComboStore struct {
	storage  Storage
	base     uint16
	magic    byte
	fallback Sequence
}

// NewComboStore creates a store for the record at cfg.RecordBase
func NewComboStore(storage Storage, cfg *Config) (*ComboStore, error) {
	fallback, err := NewSequence(cfg.DefaultCombination...)
	if err != nil {
		return nil, err
	}
	if fallback.Len() == 0 {
		return nil, ErrInvalidLength
	}
	return &ComboStore{
		storage:  storage,
		base:     cfg.RecordBase,
		magic:    cfg.RecordMagic,
		fallback: fallback,
	}, nil
}

// Default returns the compiled-in combination
func (s *ComboStore) Default() Sequence {
	return s.fallback
}

// Load reads the stored combination. An invalid record yields the default
// combination together with ErrInvalidRecord; nothing is written back.
// Values are not range checked.
func (s *ComboStore) Load() (Sequence, error) {
	if s.storage.LoadByte(s.base+recordOffsetMagic) != s.magic {
		return s.fallback, ErrInvalidRecord
	}
	length := s.storage.LoadByte(s.base + recordOffsetLength)
	if length < 1 || length > MaxCards {
		return s.fallback, ErrInvalidRecord
	}

	var combo Sequence
	for i := uint16(0); i < uint16(length); i++ {
		combo.Append(s.storage.LoadByte(s.base + recordOffsetValues + i))
	}
	return combo, nil
}

// Save writes combo synchronously. Page-backed storage is committed before
// returning.
func (s *ComboStore) Save(combo *Sequence) error {
	if combo.Len() < 1 || combo.Len() > MaxCards {
		return ErrInvalidLength
	}

	s.storage.StoreByte(s.base+recordOffsetMagic, s.magic)
	s.storage.StoreByte(s.base+recordOffsetLength, uint8(combo.Len()))
	for i := 0; i < combo.Len(); i++ {
		s.storage.StoreByte(s.base+recordOffsetValues+uint16(i), combo.At(i))
	}

	if c, ok := s.storage.(Committer); ok {
		return c.Commit()
	}
	return nil
}
