package mfrc522

// fakeCard is a MIFARE Classic card in the field of a fakeChip
type fakeCard struct {
	uid    []byte
	key    [6]byte
	blocks map[uint8][16]byte

	halted bool
	active bool
	authed bool

	pendingWrite int // block awaiting phase two of a write, or -1
}

func newFakeCard(uid ...byte) *fakeCard {
	return &fakeCard{
		uid:          uid,
		key:          [6]byte{0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF},
		blocks:       make(map[uint8][16]byte),
		pendingWrite: -1,
	}
}

// cascade returns the UID part answered at select level 0..2
func (c *fakeCard) cascade(level int) ([]byte, bool) {
	var part []byte
	last := false
	switch {
	case len(c.uid) == 4 && level == 0:
		part, last = c.uid, true
	case len(c.uid) == 7 && level == 0:
		part = append([]byte{PiccCT}, c.uid[:3]...)
	case len(c.uid) == 7 && level == 1:
		part, last = c.uid[3:7], true
	case len(c.uid) == 10 && level < 2:
		part = append([]byte{PiccCT}, c.uid[level*3:level*3+3]...)
	case len(c.uid) == 10 && level == 2:
		part, last = c.uid[6:10], true
	default:
		return nil, false
	}
	out := append([]byte(nil), part...)
	return append(out, out[0]^out[1]^out[2]^out[3]), last
}

// fakeChip emulates the MFRC522 register interface closely enough for the
// driver: FIFO, IRQ flags, the CRC coprocessor, and card exchanges.
type fakeChip struct {
	regs    [64]byte
	fifo    []byte
	card    *fakeCard
	version byte
	clock   uint32
	level   int // select level of the card being selected
}

func newFakeChip() *fakeChip {
	return &fakeChip{version: Version2}
}

func (c *fakeChip) now() uint32 {
	c.clock++
	return c.clock
}

type fakePin struct{ high bool }

func (p *fakePin) Set(high bool) { p.high = high }

// Tx decodes one SPI transaction. Read data lags the address by one byte.
func (c *fakeChip) Tx(w, r []byte) error {
	if len(w) == 0 {
		return nil
	}
	if w[0]&0x80 != 0 {
		if r != nil {
			r[0] = 0
			for i := 1; i < len(w); i++ {
				r[i] = c.read((w[i-1] >> 1) & 0x3F)
			}
		}
		return nil
	}
	reg := (w[0] >> 1) & 0x3F
	for _, v := range w[1:] {
		c.write(reg, v)
	}
	return nil
}

func (c *fakeChip) Transfer(b byte) (byte, error) {
	return 0, nil
}

func (c *fakeChip) read(reg byte) byte {
	switch reg {
	case FIFODataReg:
		if len(c.fifo) == 0 {
			return 0
		}
		b := c.fifo[0]
		c.fifo = c.fifo[1:]
		return b
	case FIFOLevelReg:
		return byte(len(c.fifo))
	case VersionReg:
		return c.version
	}
	return c.regs[reg]
}

func (c *fakeChip) write(reg, v byte) {
	switch reg {
	case FIFODataReg:
		c.fifo = append(c.fifo, v)
	case FIFOLevelReg:
		if v&fifoFlush != 0 {
			c.fifo = nil
		}
	case ComIrqReg, DivIrqReg:
		// Bit 7 selects set or clear of the marked bits
		if v&0x80 != 0 {
			c.regs[reg] |= v & 0x7F
		} else {
			c.regs[reg] &^= v & 0x7F
		}
	case CommandReg:
		c.regs[reg] = v & 0x0F
		c.execute(v & 0x0F)
	case BitFramingReg:
		c.regs[reg] = v
		if v&startSend != 0 && c.regs[CommandReg] == CmdTransceive {
			c.regs[reg] &^= startSend
			c.transceive(c.fifo, v&0x07)
		}
	default:
		c.regs[reg] = v
	}
}

func (c *fakeChip) execute(cmd byte) {
	switch cmd {
	case CmdSoftReset:
		c.regs = [64]byte{}
		c.fifo = nil
	case CmdCalcCRC:
		lo, hi := crcA(c.fifo)
		c.regs[CRCResultRegL] = lo
		c.regs[CRCResultRegH] = hi
		c.fifo = nil
		c.regs[DivIrqReg] |= divIrqCRC
	case CmdMFAuthent:
		c.authenticate(c.fifo)
		c.fifo = nil
	}
}

func (c *fakeChip) authenticate(data []byte) {
	card := c.card
	if card == nil || !card.active || len(data) != 12 {
		c.regs[ComIrqReg] |= irqTimer
		return
	}
	uidTail := card.uid[len(card.uid)-4:]
	if string(data[2:8]) != string(card.key[:]) || string(data[8:12]) != string(uidTail) {
		card.active = false
		c.regs[ComIrqReg] |= irqTimer
		return
	}
	card.authed = true
	c.regs[Status2Reg] |= crypto1On
	c.regs[ComIrqReg] |= irqIdle
}

func (c *fakeChip) respond(data []byte, validBits byte) {
	c.fifo = append([]byte(nil), data...)
	c.regs[ControlReg] = validBits
	c.regs[ComIrqReg] |= irqRx | irqIdle
}

func (c *fakeChip) silent() {
	c.fifo = nil
	c.regs[ComIrqReg] |= irqTimer
}

func withCRC(data []byte) []byte {
	lo, hi := crcA(data)
	return append(append([]byte(nil), data...), lo, hi)
}

func (c *fakeChip) transceive(frame []byte, txBits byte) {
	frame = append([]byte(nil), frame...)
	c.fifo = nil
	card := c.card
	if card == nil || len(frame) == 0 {
		c.silent()
		return
	}

	switch {
	case card.pendingWrite >= 0 && len(frame) == 18:
		var block [16]byte
		copy(block[:], frame[:16])
		card.blocks[uint8(card.pendingWrite)] = block
		card.pendingWrite = -1
		c.respond([]byte{PiccAck}, 4)

	case txBits == 7 && frame[0] == PiccWUPA:
		if card.active {
			c.silent()
			return
		}
		card.halted = false
		c.level = 0
		c.respond([]byte{0x04, 0x00}, 0)

	case len(frame) == 2 && frame[1] == piccNVBAnti:
		part, _ := card.cascade(c.level)
		c.respond(part, 0)

	case len(frame) == 9 && frame[1] == piccNVBSelect:
		_, last := card.cascade(c.level)
		sak := byte(0x04)
		if last {
			sak = 0x08
			card.active = true
		}
		c.level++
		c.respond(withCRC([]byte{sak}), 0)

	case frame[0] == PiccHLTA:
		card.halted = true
		card.active = false
		card.authed = false
		c.silent()

	case frame[0] == PiccRead && card.authed:
		block := card.blocks[frame[1]]
		c.respond(withCRC(block[:]), 0)

	case frame[0] == PiccWrite && card.authed:
		card.pendingWrite = int(frame[1])
		c.respond([]byte{PiccAck}, 4)

	default:
		c.silent()
	}
}

// crcA is the ISO 14443-3 CRC_A, low byte first
func crcA(data []byte) (byte, byte) {
	crc := uint16(0x6363)
	for _, b := range data {
		b ^= byte(crc)
		b ^= b << 4
		crc = (crc >> 8) ^ uint16(b)<<8 ^ uint16(b)<<3 ^ uint16(b)>>4
	}
	return byte(crc), byte(crc >> 8)
}
