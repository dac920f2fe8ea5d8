package core

// MaxIdentityLen bounds the card UID length (triple-size ISO 14443A UID)
const MaxIdentityLen = 10

// CardReader is the abstract card transport that core code uses.
// Implementations own their retry and timeout policy; the core only sees
// success or failure.
type CardReader interface {
	// Present reports whether a card is currently on the reader
	Present() bool

	// Identity returns the UID of the card found by the last Present call
	Identity() []byte

	// ReadValue reads the single value byte stored on the card
	ReadValue() (byte, error)

	// WriteValue stores a single value byte on the card
	WriteValue(v byte) error
}

// CardIdentity is a fixed-size copy of a card UID, comparable without
// allocation.
type CardIdentity struct {
	b [MaxIdentityLen]byte
	n uint8
}

// NewCardIdentity copies uid, truncating past MaxIdentityLen
func NewCardIdentity(uid []byte) CardIdentity {
	var id CardIdentity
	id.n = uint8(copy(id.b[:], uid))
	return id
}

// Bytes returns the identity bytes
func (id CardIdentity) Bytes() []byte {
	return id.b[:id.n]
}

// Len returns the identity length
func (id CardIdentity) Len() int {
	return int(id.n)
}

// Equal reports whether two identities are the same card
func (id CardIdentity) Equal(other CardIdentity) bool {
	return id == other
}
