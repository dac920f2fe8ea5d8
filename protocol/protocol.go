// Package protocol implements the framed serial link between the lock
// firmware and the host tool.
//
// A frame is: length, sequence, payload, CRC16 (high, low), sync (0x7E).
// The payload is a VLQ-encoded message id followed by VLQ-encoded
// arguments. A frame with an empty payload is an ACK.
package protocol

// Version is the firmware and link protocol version
const Version = "0.3.0"

// Frame layout constants
const (
	MessageMax         = 256 // Scratch output buffer size
	MessageHeaderSize  = 2
	MessageTrailerSize = 3
	MessageLengthMin   = MessageHeaderSize + MessageTrailerSize
	MessageLengthMax   = 64
	MessagePositionLen = 0
	MessagePositionSeq = 1
	MessageTrailerCRC  = 3
	MessageTrailerSync = 1
	MessageValueSync   = 0x7E
	MessageDest        = 0x10
	MessageSeqMask     = 0x0F
)

// nextSeq advances a sequence number within the 0x10-0x1F window
func nextSeq(seq uint8) uint8 {
	return ((seq + 1) & MessageSeqMask) | MessageDest
}
