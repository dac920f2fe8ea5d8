// Package mfrc522 drives an NXP MFRC522 contactless reader over SPI and
// implements reader.Tag for MIFARE Classic cards.
package mfrc522

import (
	"errors"

	"tinygo.org/x/drivers"

	"puzzlebox/reader"
)

var (
	ErrTimeout   = reader.ErrTimeout
	ErrCollision = errors.New("mfrc522: collision")
	ErrCRC       = errors.New("mfrc522: CRC mismatch")
	ErrNAK       = errors.New("mfrc522: card refused command")
	ErrProtocol  = errors.New("mfrc522: communication error")
	ErrNoRoom    = errors.New("mfrc522: response larger than buffer")
	ErrVersion   = errors.New("mfrc522: unknown chip version")
)

// Pin is a chip-select output. machine.Pin satisfies it.
type Pin interface {
	Set(high bool)
}

// Clock returns a free-running millisecond count
type Clock func() uint32

// DefaultTimeout bounds a single chip command in milliseconds
const DefaultTimeout = 500

// Device is one MFRC522 on an SPI bus
type Device struct {
	bus drivers.SPI
	cs  Pin
	now Clock

	timeout uint32

	// Key A used for authentication
	Key [6]byte

	uid    [10]byte
	uidLen uint8
	sak    byte

	tx [65]byte
	rx [65]byte
}

// New creates a driver. Call Configure before use.
func New(bus drivers.SPI, cs Pin, now Clock) *Device {
	return &Device{
		bus:     bus,
		cs:      cs,
		now:     now,
		timeout: DefaultTimeout,
		Key:     [6]byte{0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF},
	}
}

// Configure resets the chip, sets the protocol timer, and turns on the
// antenna
func (d *Device) Configure() error {
	d.cs.Set(true)

	d.writeReg(CommandReg, CmdSoftReset)
	start := d.now()
	for d.readReg(CommandReg)&powerDown != 0 {
		if d.now()-start >= d.timeout {
			return ErrTimeout
		}
	}

	switch d.Version() {
	case VersionClone, Version0, Version1, Version2, VersionFM:
	default:
		return ErrVersion
	}

	d.writeReg(TxModeReg, 0x00)
	d.writeReg(RxModeReg, 0x00)
	d.writeReg(ModWidthReg, 0x26)

	// Timer: TAuto, 40kHz tick, 25ms reload. Bounds waiting for a card
	// response inside the chip.
	d.writeReg(TModeReg, 0x80)
	d.writeReg(TPrescalerReg, 0xA9)
	d.writeReg(TReloadRegH, 0x03)
	d.writeReg(TReloadRegL, 0xE8)

	d.writeReg(TxASKReg, 0x40) // 100% ASK
	d.writeReg(ModeReg, 0x3D)  // CRC preset 0x6363
	d.setBits(TxControlReg, antennaOn)
	return nil
}

// Version returns the VersionReg value
func (d *Device) Version() byte {
	return d.readReg(VersionReg)
}

// SetTimeout bounds each following chip command to ms milliseconds
func (d *Device) SetTimeout(ms uint32) {
	d.timeout = ms
}

// UID returns the UID of the selected card
func (d *Device) UID() []byte {
	return d.uid[:d.uidLen]
}

// SAK returns the select acknowledge of the selected card
func (d *Device) SAK() byte {
	return d.sak
}

func (d *Device) writeReg(reg, value byte) {
	d.tx[0] = reg << 1 & 0x7E
	d.tx[1] = value
	d.cs.Set(false)
	d.bus.Tx(d.tx[:2], nil)
	d.cs.Set(true)
}

func (d *Device) writeRegs(reg byte, values []byte) {
	d.tx[0] = reg << 1 & 0x7E
	n := copy(d.tx[1:], values)
	d.cs.Set(false)
	d.bus.Tx(d.tx[:n+1], nil)
	d.cs.Set(true)
}

func (d *Device) readReg(reg byte) byte {
	d.tx[0] = 0x80 | reg<<1&0x7E
	d.tx[1] = 0
	d.cs.Set(false)
	d.bus.Tx(d.tx[:2], d.rx[:2])
	d.cs.Set(true)
	return d.rx[1]
}

// readRegs reads len(out) bytes from reg, as used for the FIFO. The
// address is clocked out once per byte; data lags by one byte.
func (d *Device) readRegs(reg byte, out []byte) {
	n := len(out)
	if n == 0 {
		return
	}
	addr := 0x80 | reg<<1&0x7E
	for i := 0; i < n; i++ {
		d.tx[i] = addr
	}
	d.tx[n] = 0
	d.cs.Set(false)
	d.bus.Tx(d.tx[:n+1], d.rx[:n+1])
	d.cs.Set(true)
	copy(out, d.rx[1:n+1])
}

func (d *Device) setBits(reg, mask byte) {
	d.writeReg(reg, d.readReg(reg)|mask)
}

func (d *Device) clearBits(reg, mask byte) {
	d.writeReg(reg, d.readReg(reg)&^mask)
}

// calculateCRC computes CRC_A over data with the chip coprocessor
func (d *Device) calculateCRC(data []byte) ([2]byte, error) {
	d.writeReg(CommandReg, CmdIdle)
	d.writeReg(DivIrqReg, divIrqCRC)
	d.writeReg(FIFOLevelReg, fifoFlush)
	d.writeRegs(FIFODataReg, data)
	d.writeReg(CommandReg, CmdCalcCRC)

	start := d.now()
	for d.readReg(DivIrqReg)&divIrqCRC == 0 {
		if d.now()-start >= d.timeout {
			return [2]byte{}, ErrTimeout
		}
	}
	d.writeReg(CommandReg, CmdIdle)
	return [2]byte{d.readReg(CRCResultRegL), d.readReg(CRCResultRegH)}, nil
}

// exchange is one chip command round trip
type exchange struct {
	command   byte
	waitIRq   byte
	send      []byte
	back      []byte // receive buffer, nil for none
	txBits    byte   // valid bits in the last sent byte, 0 for all 8
	checkCRC  bool
	received  int  // filled in: bytes received
	validBits byte // filled in: valid bits in the last received byte
}

// communicate runs ex and waits for its completion IRQ
func (d *Device) communicate(ex *exchange) error {
	d.writeReg(CommandReg, CmdIdle)
	d.writeReg(ComIrqReg, 0x7F)
	d.writeReg(FIFOLevelReg, fifoFlush)
	d.writeRegs(FIFODataReg, ex.send)
	d.writeReg(BitFramingReg, ex.txBits)
	d.writeReg(CommandReg, ex.command)
	if ex.command == CmdTransceive {
		d.setBits(BitFramingReg, startSend)
	}

	start := d.now()
	for {
		irq := d.readReg(ComIrqReg)
		if irq&ex.waitIRq != 0 {
			break
		}
		if irq&irqTimer != 0 {
			return ErrTimeout
		}
		if d.now()-start >= d.timeout {
			return ErrTimeout
		}
	}

	errs := d.readReg(ErrorReg)
	if errs&errFatal != 0 {
		return ErrProtocol
	}

	if ex.back != nil {
		n := int(d.readReg(FIFOLevelReg))
		if n > len(ex.back) {
			return ErrNoRoom
		}
		d.readRegs(FIFODataReg, ex.back[:n])
		ex.received = n
		ex.validBits = d.readReg(ControlReg) & 0x07
	}

	if errs&errColl != 0 {
		return ErrCollision
	}

	if ex.back != nil && ex.checkCRC {
		if ex.received == 1 && ex.validBits == 4 {
			return ErrNAK
		}
		if ex.received < 2 || ex.validBits != 0 {
			return ErrCRC
		}
		crc, err := d.calculateCRC(ex.back[:ex.received-2])
		if err != nil {
			return err
		}
		if ex.back[ex.received-2] != crc[0] || ex.back[ex.received-1] != crc[1] {
			return ErrCRC
		}
	}
	return nil
}

// transceive sends data to the card and reads its answer into back
func (d *Device) transceive(send, back []byte, txBits byte, checkCRC bool) (int, byte, error) {
	ex := exchange{
		command:  CmdTransceive,
		waitIRq:  irqRx | irqIdle,
		send:     send,
		back:     back,
		txBits:   txBits,
		checkCRC: checkCRC,
	}
	err := d.communicate(&ex)
	return ex.received, ex.validBits, err
}
