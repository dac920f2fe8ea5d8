// Package box talks to a puzzle box over its serial link.
package box

import (
	"errors"
	"fmt"
	"io"
	"time"

	"go.uber.org/zap"

	"puzzlebox/host/serial"
	"puzzlebox/protocol"
)

// ErrNotConnected is returned after Close
var ErrNotConnected = errors.New("box: not connected")

// Options tune a connection. Zero values take the defaults.
type Options struct {
	AckTimeout      time.Duration
	ResponseTimeout time.Duration
	Logger          *zap.Logger
}

func (o *Options) applyDefaults() {
	if o.AckTimeout == 0 {
		o.AckTimeout = protocol.DefaultAckTimeout
	}
	if o.ResponseTimeout == 0 {
		o.ResponseTimeout = time.Second
	}
	if o.Logger == nil {
		o.Logger = zap.NewNop()
	}
}

const streamDepth = 64

// Box is a connection to one puzzle box. Events and debug text the box
// sends on its own are delivered on the Events and Debug channels; when a
// channel is full the oldest entry is dropped.
type Box struct {
	transport *protocol.HostTransport
	opts      Options
	log       *zap.Logger

	events chan protocol.EventReport
	debug  chan string
}

// Connect opens the serial port and starts the link
func Connect(cfg *serial.Config, opts Options) (*Box, error) {
	port, err := serial.Open(cfg)
	if err != nil {
		return nil, err
	}
	b := New(port, opts)
	b.log.Debug("connected", zap.String("device", cfg.Device), zap.Int("baud", cfg.Baud))
	return b, nil
}

// New starts the link over an already open port
func New(port io.ReadWriteCloser, opts Options) *Box {
	opts.applyDefaults()
	b := &Box{
		opts:   opts,
		log:    opts.Logger,
		events: make(chan protocol.EventReport, streamDepth),
		debug:  make(chan string, streamDepth),
	}
	b.transport = protocol.NewHostTransport(port)
	b.transport.SetResponseHandler(b.handleResponse)
	return b
}

// Close stops the link and closes the port
func (b *Box) Close() error {
	return b.transport.Close()
}

// Events returns the stream of lock events
func (b *Box) Events() <-chan protocol.EventReport {
	return b.events
}

// Debug returns the stream of firmware debug lines
func (b *Box) Debug() <-chan string {
	return b.debug
}

// Identify asks the firmware for its version
func (b *Box) Identify() (protocol.Identity, error) {
	msg, err := b.request(protocol.MsgIdentify, nil, protocol.MsgIdentifyResponse)
	if err != nil {
		return protocol.Identity{}, err
	}
	args := msg.Args
	id, err := protocol.DecodeIdentity(&args)
	if err != nil {
		return protocol.Identity{}, fmt.Errorf("failed to decode identify response: %w", err)
	}
	return id, nil
}

// State asks for the current lock state
func (b *Box) State() (protocol.StateReport, error) {
	msg, err := b.request(protocol.MsgGetState, nil, protocol.MsgState)
	if err != nil {
		return protocol.StateReport{}, err
	}
	args := msg.Args
	s, err := protocol.DecodeStateReport(&args)
	if err != nil {
		return protocol.StateReport{}, fmt.Errorf("failed to decode state: %w", err)
	}
	return s, nil
}

// DumpEvents returns the box's recent event history, oldest first. Live
// events still queued on the Events channel are consumed as well, so the
// result may start with events the caller has not seen yet.
func (b *Box) DumpEvents() ([]protocol.EventReport, error) {
	b.drainEvents()
	if err := b.transport.SendCommandWithTimeout(protocol.MsgDumpEvents, nil, b.opts.AckTimeout); err != nil {
		return nil, fmt.Errorf("failed to send dump_events: %w", err)
	}
	// The box answers in order, so once the state reply is in, every
	// dumped event has already passed through handleResponse
	if _, err := b.State(); err != nil {
		return nil, err
	}
	return b.drainEvents(), nil
}

// SetDebug turns firmware debug output on or off
func (b *Box) SetDebug(enabled bool) error {
	var v uint32
	if enabled {
		v = 1
	}
	err := b.transport.SendCommandWithTimeout(protocol.MsgSetDebug, func(output protocol.OutputBuffer) {
		protocol.EncodeVLQUint(output, v)
	}, b.opts.AckTimeout)
	if err != nil {
		return fmt.Errorf("failed to send set_debug: %w", err)
	}
	return nil
}

func (b *Box) request(msgID uint16, args func(output protocol.OutputBuffer), respID uint16) (*protocol.Message, error) {
	b.log.Debug("request", zap.String("message", protocol.MessageName(msgID)))
	msg, err := b.transport.Request(msgID, args, respID, b.opts.ResponseTimeout)
	if err != nil {
		if errors.Is(err, protocol.ErrClosed) {
			return nil, ErrNotConnected
		}
		return nil, fmt.Errorf("%s failed: %w", protocol.MessageName(msgID), err)
	}
	return msg, nil
}

// handleResponse runs on the transport's read goroutine
func (b *Box) handleResponse(msgID uint16, data *[]byte) error {
	switch msgID {
	case protocol.MsgEvent:
		ev, err := protocol.DecodeEventReport(data)
		if err != nil {
			b.log.Warn("bad event", zap.Error(err))
			return err
		}
		pushDropOldest(b.events, ev)
	case protocol.MsgDebug:
		text, err := protocol.DecodeVLQString(data)
		if err != nil {
			return err
		}
		pushDropOldest(b.debug, text)
	default:
		b.log.Debug("response", zap.String("message", protocol.MessageName(msgID)))
	}
	return nil
}

func (b *Box) drainEvents() []protocol.EventReport {
	var out []protocol.EventReport
	for {
		select {
		case ev := <-b.events:
			out = append(out, ev)
		default:
			return out
		}
	}
}

func pushDropOldest[T any](ch chan T, v T) {
	for {
		select {
		case ch <- v:
			return
		default:
		}
		select {
		case <-ch:
		default:
		}
	}
}
