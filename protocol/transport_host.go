package protocol

import (
	"errors"
	"fmt"
	"io"
	"sync"
	"sync/atomic"
	"time"
)

var (
	ErrClosed          = errors.New("transport closed")
	ErrAckTimeout      = errors.New("ack timeout")
	ErrResponseTimeout = errors.New("response timeout")
	ErrSequence        = errors.New("sequence mismatch")
	ErrMessageTooLong  = errors.New("message too long")
)

// DefaultAckTimeout bounds SendCommand
const DefaultAckTimeout = 2 * time.Second

// ResponseHandler receives every non-ACK message from the device, on the
// read goroutine. data is positioned after the message id.
type ResponseHandler func(msgID uint16, data *[]byte) error

// Message is a frame received from the device
type Message struct {
	Sequence uint8
	ID       uint16
	Payload  []byte // frame data without header and trailer
	Args     []byte // payload after the message id
}

// HostTransport is the host end of the link. It sends commands and waits
// for their ACKs while a background goroutine parses incoming frames.
type HostTransport struct {
	port io.ReadWriteCloser

	currentSeq   atomic.Uint32 // sequence of the next command (0x10-0x1F)
	synchronized atomic.Bool

	inputBuffer  *FifoBuffer
	ackChan      chan *Message
	responseChan chan *Message

	handlerMutex    sync.Mutex
	responseHandler ResponseHandler

	// Serializes command/ACK exchanges
	sendMutex sync.Mutex

	stopChan  chan struct{}
	doneChan  chan struct{}
	closeOnce sync.Once
}

// NewHostTransport starts reading from port
func NewHostTransport(port io.ReadWriteCloser) *HostTransport {
	t := &HostTransport{
		port:         port,
		inputBuffer:  NewFifoBuffer(512),
		ackChan:      make(chan *Message, 1),
		responseChan: make(chan *Message, 16),
		stopChan:     make(chan struct{}),
		doneChan:     make(chan struct{}),
	}
	t.currentSeq.Store(MessageDest)
	t.synchronized.Store(true)

	go t.readLoop()
	return t
}

// SendCommand sends a message and waits for its ACK
func (t *HostTransport) SendCommand(msgID uint16, args func(output OutputBuffer)) error {
	return t.SendCommandWithTimeout(msgID, args, DefaultAckTimeout)
}

// SendCommandWithTimeout sends a message and waits up to timeout for its ACK
func (t *HostTransport) SendCommandWithTimeout(msgID uint16, args func(output OutputBuffer), timeout time.Duration) error {
	t.sendMutex.Lock()
	defer t.sendMutex.Unlock()

	select {
	case <-t.stopChan:
		return ErrClosed
	default:
	}

	seq := uint8(t.currentSeq.Load())
	msg, err := buildMessage(seq, msgID, args)
	if err != nil {
		return err
	}

	// Drop a stale ACK left by an earlier timeout
	select {
	case <-t.ackChan:
	default:
	}

	if _, err := t.port.Write(msg); err != nil {
		return fmt.Errorf("write message: %w", err)
	}
	return t.waitForAck(seq, timeout)
}

// Request sends a message and returns the first response with respID
func (t *HostTransport) Request(msgID uint16, args func(output OutputBuffer), respID uint16, timeout time.Duration) (*Message, error) {
	if err := t.SendCommandWithTimeout(msgID, args, timeout); err != nil {
		return nil, err
	}

	deadline := time.After(timeout)
	for {
		select {
		case msg := <-t.responseChan:
			if msg.ID == respID {
				return msg, nil
			}
		case <-deadline:
			return nil, fmt.Errorf("%w: waiting for message %d", ErrResponseTimeout, respID)
		case <-t.stopChan:
			return nil, ErrClosed
		}
	}
}

func buildMessage(seq uint8, msgID uint16, args func(output OutputBuffer)) ([]byte, error) {
	scratch := NewScratchOutput()
	EncodeVLQUint(scratch, uint32(msgID))
	if args != nil {
		args(scratch)
	}

	frame := EncodeFrameBytes(seq, scratch.Result())
	if frame == nil {
		return nil, fmt.Errorf("%w: %d byte payload", ErrMessageTooLong, scratch.CurPosition())
	}
	return frame, nil
}

// waitForAck waits for the ACK of the frame sent with seq. The device
// acknowledges with the sequence it expects next.
func (t *HostTransport) waitForAck(seq uint8, timeout time.Duration) error {
	select {
	case ack := <-t.ackChan:
		want := nextSeq(seq)
		// Follow the device either way so the next command is in sequence
		t.currentSeq.Store(uint32(ack.Sequence))
		if ack.Sequence != want {
			return fmt.Errorf("%w: expected 0x%02x, got 0x%02x", ErrSequence, want, ack.Sequence)
		}
		return nil

	case <-time.After(timeout):
		return fmt.Errorf("%w after %v", ErrAckTimeout, timeout)

	case <-t.stopChan:
		return ErrClosed
	}
}

// ReceiveResponse returns the next non-ACK message
func (t *HostTransport) ReceiveResponse(timeout time.Duration) (*Message, error) {
	select {
	case resp := <-t.responseChan:
		return resp, nil
	case <-time.After(timeout):
		return nil, fmt.Errorf("%w after %v", ErrResponseTimeout, timeout)
	case <-t.stopChan:
		return nil, ErrClosed
	}
}

// SetResponseHandler sets a callback for asynchronous messages
func (t *HostTransport) SetResponseHandler(handler ResponseHandler) {
	t.handlerMutex.Lock()
	t.responseHandler = handler
	t.handlerMutex.Unlock()
}

func (t *HostTransport) readLoop() {
	defer close(t.doneChan)

	buffer := make([]byte, 256)
	for {
		n, err := t.port.Read(buffer)
		if n > 0 {
			t.inputBuffer.Write(buffer[:n])
			t.processMessages()
		}
		if err == nil {
			continue
		}

		select {
		case <-t.stopChan:
			return
		default:
		}
		if errors.Is(err, io.EOF) || errors.Is(err, io.ErrClosedPipe) {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
}

// processMessages parses every complete frame in the input buffer
func (t *HostTransport) processMessages() {
	data := t.inputBuffer.Data()

	for len(data) > 0 {
		if !t.synchronized.Load() {
			var found bool
			data, found = skipToSync(data)
			if found {
				t.synchronized.Store(true)
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

		payload := make([]byte, msgLen-MessageHeaderSize-MessageTrailerSize)
		copy(payload, data[MessageHeaderSize:msgLen-MessageTrailerSize])
		msg := &Message{
			Sequence: data[MessagePositionSeq],
			Payload:  payload,
		}
		data = data[msgLen:]

		t.dispatchMessage(msg)
	}

	if consumed := t.inputBuffer.Available() - len(data); consumed > 0 {
		t.inputBuffer.Pop(consumed)
	}
}

func (t *HostTransport) dispatchMessage(msg *Message) {
	if len(msg.Payload) == 0 {
		select {
		case t.ackChan <- msg:
		default:
		}
		return
	}

	args := msg.Payload
	id, err := DecodeVLQUint(&args)
	if err != nil {
		return
	}
	msg.ID = uint16(id)
	msg.Args = args

	t.handlerMutex.Lock()
	handler := t.responseHandler
	t.handlerMutex.Unlock()
	if handler != nil {
		handlerArgs := msg.Args
		_ = handler(msg.ID, &handlerArgs)
	}

	select {
	case t.responseChan <- msg:
	default:
		// Full: drop the oldest response
		select {
		case <-t.responseChan:
		default:
		}
		t.responseChan <- msg
	}
}

// Close stops the read goroutine and closes the port
func (t *HostTransport) Close() error {
	var err error
	t.closeOnce.Do(func() {
		close(t.stopChan)
		// Closing the port unblocks the pending Read
		err = t.port.Close()
		<-t.doneChan
	})
	return err
}

// CurrentSequence returns the sequence of the next command
func (t *HostTransport) CurrentSequence() uint8 {
	return uint8(t.currentSeq.Load())
}
