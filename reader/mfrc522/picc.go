package mfrc522

// Detect halts any card left active by a previous exchange, wakes every
// card in the field, and selects one. It reports false when no card
// answers or the anticollision loop fails.
func (d *Device) Detect() bool {
	d.uidLen = 0
	d.stopCrypto()
	d.haltA()

	if err := d.wakeupA(); err != nil {
		return false
	}
	return d.selectCard() == nil
}

// wakeupA sends WUPA, which reaches idle and halted cards
func (d *Device) wakeupA() error {
	var atqa [2]byte
	d.clearBits(CollReg, valuesColl)
	n, bits, err := d.transceive([]byte{PiccWUPA}, atqa[:], 7, false)
	if err != nil {
		return err
	}
	if n != 2 || bits != 0 {
		return ErrProtocol
	}
	return nil
}

// selectCard runs the anticollision and SELECT cascade. Collisions are
// reported rather than resolved; the lock only ever expects one card.
func (d *Device) selectCard() error {
	levels := [3]byte{PiccSelCL1, PiccSelCL2, PiccSelCL3}
	var resp [5]byte
	var frame [9]byte
	var sak [3]byte

	for _, sel := range levels {
		// Anticollision: ask for the full 4 byte UID part plus BCC
		d.clearBits(CollReg, valuesColl)
		n, _, err := d.transceive([]byte{sel, piccNVBAnti}, resp[:], 0, false)
		if err != nil {
			return err
		}
		if n != 5 || resp[0]^resp[1]^resp[2]^resp[3] != resp[4] {
			return ErrProtocol
		}

		frame[0] = sel
		frame[1] = piccNVBSelect
		copy(frame[2:7], resp[:5])
		crc, err := d.calculateCRC(frame[:7])
		if err != nil {
			return err
		}
		frame[7], frame[8] = crc[0], crc[1]

		n, _, err = d.transceive(frame[:], sak[:], 0, true)
		if err != nil {
			return err
		}
		if n != 3 {
			return ErrProtocol
		}
		d.sak = sak[0]

		if resp[0] == PiccCT {
			d.uidLen += uint8(copy(d.uid[d.uidLen:], resp[1:4]))
			continue
		}
		d.uidLen += uint8(copy(d.uid[d.uidLen:], resp[:4]))
		return nil
	}
	return ErrProtocol
}

// Authenticate unlocks the sector of block with Key A. The card must be
// selected.
func (d *Device) Authenticate(block uint8) error {
	if d.uidLen < 4 {
		return ErrProtocol
	}

	var send [12]byte
	send[0] = PiccAuthKeyA
	send[1] = block
	copy(send[2:8], d.Key[:])
	// The last four UID bytes go into the authentication
	copy(send[8:], d.uid[d.uidLen-4:d.uidLen])

	ex := exchange{
		command: CmdMFAuthent,
		waitIRq: irqIdle,
		send:    send[:],
	}
	if err := d.communicate(&ex); err != nil {
		return err
	}
	if d.readReg(Status2Reg)&crypto1On == 0 {
		return ErrNAK
	}
	return nil
}

// ReadBlock reads a 16 byte block into buf
func (d *Device) ReadBlock(block uint8, buf []byte) error {
	cmd := [4]byte{PiccRead, block}
	crc, err := d.calculateCRC(cmd[:2])
	if err != nil {
		return err
	}
	cmd[2], cmd[3] = crc[0], crc[1]

	var back [18]byte
	n, _, err := d.transceive(cmd[:], back[:], 0, true)
	if err != nil {
		return err
	}
	if n != 18 {
		return ErrProtocol
	}
	copy(buf, back[:16])
	return nil
}

// WriteBlock writes 16 bytes to block using the two-phase MIFARE write
func (d *Device) WriteBlock(block uint8, data []byte) error {
	if len(data) < 16 {
		return ErrProtocol
	}
	if err := d.mifareTransceive([]byte{PiccWrite, block}); err != nil {
		return err
	}
	return d.mifareTransceive(data[:16])
}

// mifareTransceive sends data with CRC_A and expects a 4 bit ACK
func (d *Device) mifareTransceive(data []byte) error {
	var frame [18]byte
	n := copy(frame[:16], data)
	crc, err := d.calculateCRC(frame[:n])
	if err != nil {
		return err
	}
	frame[n], frame[n+1] = crc[0], crc[1]

	var back [1]byte
	got, bits, err := d.transceive(frame[:n+2], back[:], 0, false)
	if err != nil {
		return err
	}
	if got != 1 || bits != 4 || back[0]&0x0F != PiccAck {
		return ErrNAK
	}
	return nil
}

// Halt puts the selected card to sleep and turns off encryption
func (d *Device) Halt() {
	d.haltA()
	d.stopCrypto()
}

// haltA sends HLTA. A card acknowledges by staying silent, so a timeout is
// the expected outcome.
func (d *Device) haltA() {
	cmd := [4]byte{PiccHLTA, 0}
	crc, err := d.calculateCRC(cmd[:2])
	if err != nil {
		return
	}
	cmd[2], cmd[3] = crc[0], crc[1]
	d.transceive(cmd[:], nil, 0, false)
}

func (d *Device) stopCrypto() {
	d.clearBits(Status2Reg, crypto1On)
}
