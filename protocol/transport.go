package protocol

import "sync/atomic"

// CommandHandler handles one decoded message. data is positioned after the
// message id and the handler consumes its arguments from it.
type CommandHandler func(msgID uint16, data *[]byte) error

// Transport is the device end of the link. It validates incoming frames,
// acknowledges them, and frames outgoing messages into an OutputBuffer.
type Transport struct {
	synchronized atomic.Bool
	// Expected sequence of the next host frame (0x10-0x1F). Outgoing
	// frames carry the same value.
	nextSequence atomic.Uint32

	output        OutputBuffer
	handler       CommandHandler
	resetCallback func()
	flushCallback func()
}

// NewTransport creates a synchronized transport expecting sequence 0x10
func NewTransport(output OutputBuffer, handler CommandHandler) *Transport {
	t := &Transport{
		output:  output,
		handler: handler,
	}
	t.synchronized.Store(true)
	t.nextSequence.Store(MessageDest)
	return t
}

// Receive consumes complete frames from input, dispatching the messages of
// in-sequence frames. Every valid frame is answered with an ACK carrying the
// next expected sequence, which doubles as a NAK for out-of-sequence frames.
func (t *Transport) Receive(input InputBuffer) {
	data := input.Data()

	for len(data) > 0 {
		if !t.synchronized.Load() {
			var found bool
			data, found = skipToSync(data)
			if found {
				t.synchronized.Store(true)
				t.encodeAck()
			}
			continue
		}

		if data[0] == MessageValueSync {
			data = data[1:]
			continue
		}

		msgLen, status := scanFrame(data)
		if status == frameNeedMore {
			break
		}
		if status == frameInvalid {
			t.synchronized.Store(false)
			continue
		}

		seq := data[MessagePositionSeq]
		frame := data[MessageHeaderSize : msgLen-MessageTrailerSize]
		data = data[msgLen:]

		expected := uint8(t.nextSequence.Load())
		if seq == MessageDest && expected != MessageDest {
			// Host restarted its sequence
			expected = MessageDest
			t.nextSequence.Store(MessageDest)
			if t.resetCallback != nil {
				t.resetCallback()
			}
		}

		if seq == expected {
			t.nextSequence.Store(uint32(nextSeq(seq)))
			_ = t.parseFrame(frame)
		}
		t.encodeAck()
	}

	if consumed := input.Available() - len(data); consumed > 0 {
		input.Pop(consumed)
	}
}

// parseFrame dispatches every message in frame
func (t *Transport) parseFrame(frame []byte) (err error) {
	defer func() {
		if r := recover(); r != nil {
			t.synchronized.Store(false)
		}
	}()

	for len(frame) > 0 {
		msgID, err := DecodeVLQUint(&frame)
		if err != nil {
			t.synchronized.Store(false)
			return err
		}
		if t.handler == nil {
			return nil
		}
		if err := t.handler(uint16(msgID), &frame); err != nil {
			return err
		}
	}
	return nil
}

// encodeAck writes an empty frame and flushes it immediately
func (t *Transport) encodeAck() {
	ack := appendTrailer([]byte{MessageLengthMin, uint8(t.nextSequence.Load())})
	t.output.Output(ack)
	if t.flushCallback != nil {
		t.flushCallback()
	}
}

// EncodeFrame writes one frame whose payload is produced by frameData
func (t *Transport) EncodeFrame(frameData func(output OutputBuffer)) {
	cursor := t.output.CurPosition()
	t.output.Output([]byte{0, uint8(t.nextSequence.Load())})

	frameData(t.output)

	t.output.Update(cursor, uint8(len(t.output.DataSince(cursor))+MessageTrailerSize))
	crc := CRC16(t.output.DataSince(cursor))
	t.output.Output([]byte{uint8(crc >> 8), uint8(crc), MessageValueSync})
}

// SendMessage frames a message id followed by its arguments
func (t *Transport) SendMessage(msgID uint16, args func(output OutputBuffer)) {
	t.EncodeFrame(func(output OutputBuffer) {
		EncodeVLQUint(output, uint32(msgID))
		if args != nil {
			args(output)
		}
	})
}

// Reset returns to the initial sequence, as after a USB reconnect
func (t *Transport) Reset() {
	t.synchronized.Store(true)
	t.nextSequence.Store(MessageDest)
	if t.resetCallback != nil {
		t.resetCallback()
	}
}

// Synchronized reports whether the receiver is aligned to frame boundaries
func (t *Transport) Synchronized() bool {
	return t.synchronized.Load()
}

// SetResetCallback sets the function called when the host restarts
func (t *Transport) SetResetCallback(callback func()) {
	t.resetCallback = callback
}

// SetFlushCallback sets the function that pushes ACKs out without waiting
// for the main loop
func (t *Transport) SetFlushCallback(callback func()) {
	t.flushCallback = callback
}
