package protocol

// frameStatus is the result of examining the front of a receive buffer
type frameStatus uint8

const (
	frameNeedMore frameStatus = iota // not enough bytes yet
	frameValid                       // a complete frame of the returned length
	frameInvalid                     // framing error, resynchronize
)

// scanFrame checks whether data starts with a complete valid frame. The
// sequence byte is only checked for the 0x10 marker bits.
func scanFrame(data []byte) (int, frameStatus) {
	if len(data) < MessageLengthMin {
		return 0, frameNeedMore
	}

	msgLen := int(data[MessagePositionLen])
	if msgLen < MessageLengthMin || msgLen > MessageLengthMax {
		return 0, frameInvalid
	}
	if data[MessagePositionSeq]&^MessageSeqMask != MessageDest {
		return 0, frameInvalid
	}
	if len(data) < msgLen {
		return 0, frameNeedMore
	}
	if data[msgLen-MessageTrailerSync] != MessageValueSync {
		return 0, frameInvalid
	}

	frameCRC := uint16(data[msgLen-MessageTrailerCRC])<<8 |
		uint16(data[msgLen-MessageTrailerCRC+1])
	if frameCRC != CRC16(data[:msgLen-MessageTrailerSize]) {
		return 0, frameInvalid
	}
	return msgLen, frameValid
}

// skipToSync drops everything up to and including the next sync byte.
// It reports false when no sync byte was found.
func skipToSync(data []byte) ([]byte, bool) {
	for i, b := range data {
		if b == MessageValueSync {
			return data[i+1:], true
		}
	}
	return nil, false
}

// EncodeFrameBytes builds a complete frame around payload with the given
// sequence number. It returns nil when the frame would exceed
// MessageLengthMax.
func EncodeFrameBytes(seq uint8, payload []byte) []byte {
	msgLen := MessageHeaderSize + len(payload) + MessageTrailerSize
	if msgLen > MessageLengthMax {
		return nil
	}
	frame := make([]byte, 0, msgLen)
	frame = append(frame, uint8(msgLen), seq)
	frame = append(frame, payload...)
	return appendTrailer(frame)
}
