//go:build rp2040

package main

import "machine"

// Pin assignments for the puzzle box carrier board
const (
	pinReaderSCK  = machine.GPIO18
	pinReaderSDO  = machine.GPIO19
	pinReaderSDI  = machine.GPIO16
	pinReaderCS   = machine.GPIO17
	pinReaderRST  = machine.GPIO20
	pinButton     = machine.GPIO15
	pinLockRelay  = machine.GPIO14
	pinPixels     = machine.GPIO13
	pinBuzzer     = machine.GPIO8
	readerSPIFreq = 4000000
)

// pixelCount is the number of LEDs on the ring
const pixelCount = 12
