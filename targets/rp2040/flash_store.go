//go:build rp2040

package main

import (
	"errors"
	"machine"
)

// flashPageSize is the RAM copy of the storage page
const flashPageSize = 256

var errFlashShort = errors.New("flash: short write")

// flashStore keeps the combination record in the first erase block of the
// flash data area. Writes go to a RAM copy and reach flash on Commit.
type flashStore struct {
	page  [flashPageSize]byte
	dirty bool
}

func newFlashStore() *flashStore {
	s := &flashStore{}
	if _, err := machine.Flash.ReadAt(s.page[:], 0); err != nil {
		// Erased flash reads back as 0xFF, which never matches the magic
		for i := range s.page {
			s.page[i] = 0xFF
		}
	}
	return s
}

func (s *flashStore) LoadByte(addr uint16) byte {
	if int(addr) >= flashPageSize {
		return 0xFF
	}
	return s.page[addr]
}

func (s *flashStore) StoreByte(addr uint16, b byte) {
	if int(addr) >= flashPageSize || s.page[addr] == b {
		return
	}
	s.page[addr] = b
	s.dirty = true
}

// Commit erases the block and programs the page. Power loss between the
// two leaves an erased record, which loads as the default combination.
func (s *flashStore) Commit() error {
	if !s.dirty {
		return nil
	}
	if err := machine.Flash.EraseBlocks(0, 1); err != nil {
		return err
	}
	n, err := machine.Flash.WriteAt(s.page[:], 0)
	if err != nil {
		return err
	}
	if n != flashPageSize {
		return errFlashShort
	}
	s.dirty = false
	return nil
}
