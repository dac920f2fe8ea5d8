//go:build rp2040

package main

import (
	"machine"
	"time"

	"puzzlebox/core"
	"puzzlebox/reader"
	"puzzlebox/reader/mfrc522"
)

// InitReader brings up the MFRC522 on SPI0 and wraps it in the retrying
// card reader. A chip that fails to answer is reported but still returned;
// every later poll then simply finds no card.
func InitReader() *reader.Retrying {
	pinReaderRST.Configure(machine.PinConfig{Mode: machine.PinOutput})
	pinReaderRST.Low()
	time.Sleep(time.Millisecond)
	pinReaderRST.High()
	time.Sleep(50 * time.Millisecond)

	pinReaderCS.Configure(machine.PinConfig{Mode: machine.PinOutput})
	pinReaderCS.High()

	err := machine.SPI0.Configure(machine.SPIConfig{
		Frequency: readerSPIFreq,
		SCK:       pinReaderSCK,
		SDO:       pinReaderSDO,
		SDI:       pinReaderSDI,
		Mode:      0,
	})
	if err != nil {
		core.DebugPrintln("reader: spi: " + err.Error())
	}

	chip := mfrc522.New(machine.SPI0, pinReaderCS, Millis)
	if err := chip.Configure(); err != nil {
		core.DebugPrintln("reader: " + err.Error())
	}
	return reader.New(chip, reader.DefaultConfig())
}
