package core

// Storage is the byte-addressable persistent memory the combination lives in
type Storage interface {
	// LoadByte returns the byte stored at addr
	LoadByte(addr uint16) byte

	// StoreByte stores b at addr
	StoreByte(addr uint16, b byte)
}

// Committer is implemented by page-backed storage (flash) that buffers
// StoreByte calls and needs an explicit flush.
type Committer interface {
	Commit() error
}
