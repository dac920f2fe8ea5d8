package serial

import (
	"io"
	"path/filepath"
)

// Port is an open link to a box. The native implementation uses
// github.com/tarm/serial; tests and the simulator use in-memory pipes.
type Port interface {
	io.ReadWriteCloser

	// Flush discards unread input
	Flush() error
}

// Config holds serial port configuration
type Config struct {
	// Device path (e.g., "/dev/ttyACM0", "COM3"), or AutoDevice
	Device string

	// Baud rate; USB CDC ignores it
	Baud int

	// Read timeout in milliseconds (0 = blocking)
	ReadTimeout int
}

// AutoDevice makes Open use the first port Candidates finds
const AutoDevice = "auto"

// DefaultConfig returns the configuration for the puzzle box USB port
func DefaultConfig(device string) *Config {
	return &Config{
		Device:      device,
		Baud:        115200,
		ReadTimeout: 100,
	}
}

// candidatePatterns are tried in order. The RP2040 enumerates as a CDC ACM
// device, named ttyACM on Linux and usbmodem on macOS.
var candidatePatterns = []string{
	"/dev/serial/by-id/*puzzlebox*",
	"/dev/ttyACM*",
	"/dev/cu.usbmodem*",
}

// Candidates lists ports that may be a puzzle box, most specific first
func Candidates() []string {
	seen := make(map[string]bool)
	var out []string
	for _, pattern := range candidatePatterns {
		matches, _ := filepath.Glob(pattern)
		for _, m := range matches {
			if !seen[m] {
				seen[m] = true
				out = append(out, m)
			}
		}
	}
	return out
}
