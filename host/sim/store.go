package sim

import (
	"errors"
	"fmt"
	"os"
)

// StorePageSize matches the firmware's flash page image
const StorePageSize = 256

// FileStore is a page-backed store kept in a file, standing in for the
// firmware flash page. An empty path keeps the page in memory only.
type FileStore struct {
	path  string
	page  [StorePageSize]byte
	dirty bool

	// FailCommits makes the next n commits fail
	FailCommits int
}

var errInjected = errors.New("sim: injected failure")

// OpenFileStore loads path, or starts from an erased page when the file
// does not exist yet
func OpenFileStore(path string) (*FileStore, error) {
	s := &FileStore{path: path}
	for i := range s.page {
		s.page[i] = 0xFF
	}
	if path == "" {
		return s, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return s, nil
		}
		return nil, fmt.Errorf("failed to read store %s: %w", path, err)
	}
	copy(s.page[:], data)
	return s, nil
}

func (s *FileStore) LoadByte(addr uint16) byte {
	if int(addr) >= StorePageSize {
		return 0xFF
	}
	return s.page[addr]
}

func (s *FileStore) StoreByte(addr uint16, b byte) {
	if int(addr) >= StorePageSize || s.page[addr] == b {
		return
	}
	s.page[addr] = b
	s.dirty = true
}

// Commit writes the page to the file
func (s *FileStore) Commit() error {
	if s.FailCommits > 0 {
		s.FailCommits--
		return errInjected
	}
	if !s.dirty || s.path == "" {
		s.dirty = false
		return nil
	}
	if err := os.WriteFile(s.path, s.page[:], 0o644); err != nil {
		return fmt.Errorf("failed to write store %s: %w", s.path, err)
	}
	s.dirty = false
	return nil
}

// Path returns the backing file, empty for an in-memory store
func (s *FileStore) Path() string {
	return s.path
}
