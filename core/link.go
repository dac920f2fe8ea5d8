package core

import "puzzlebox/protocol"

// debugTextMax keeps a debug message inside one frame: id and length
// prefix take up to two bytes of the payload.
const debugTextMax = protocol.MessageLengthMax - protocol.MessageHeaderSize -
	protocol.MessageTrailerSize - 3

// Link exposes a Machine over the serial protocol. It answers host
// requests and forwards every emitted event. All methods run on the loop
// goroutine.
type Link struct {
	machine   *Machine
	registry  *CommandRegistry
	transport *protocol.Transport
	flush     func()
}

// NewLink registers the host commands for m and subscribes to its events
func NewLink(m *Machine) *Link {
	l := &Link{
		machine:  m,
		registry: NewCommandRegistry(),
	}
	l.registry.Register(protocol.MsgIdentify, "identify", l.handleIdentify)
	l.registry.Register(protocol.MsgGetState, "get_state", l.handleGetState)
	l.registry.Register(protocol.MsgDumpEvents, "dump_events", l.handleDumpEvents)
	l.registry.Register(protocol.MsgSetDebug, "set_debug", l.handleSetDebug)
	m.SetObserver(l)
	return l
}

// Attach sets the transport used for outgoing messages
func (l *Link) Attach(t *protocol.Transport) {
	l.transport = t
}

// SetFlush sets a function called after every outgoing message, so that
// bursts such as an event dump never overrun the output buffer
func (l *Link) SetFlush(flush func()) {
	l.flush = flush
}

// Handle dispatches one host message; it is the transport's command handler
func (l *Link) Handle(msgID uint16, data *[]byte) error {
	err := l.registry.Dispatch(msgID, data)
	if err != nil {
		DebugPrintln("link: message " + itoa(int(msgID)) + ": " + err.Error())
	}
	return err
}

// Observe forwards an event to the host
func (l *Link) Observe(ev Event) {
	l.sendEvent(ev)
}

// WriteDebug sends text as a debug message, truncated to fit one frame.
// It can be installed with SetDebugWriter.
func (l *Link) WriteDebug(text string) {
	if l.transport == nil {
		return
	}
	if len(text) > debugTextMax {
		text = text[:debugTextMax]
	}
	l.send(protocol.MsgDebug, func(output protocol.OutputBuffer) {
		protocol.EncodeVLQString(output, text)
	})
}

func (l *Link) send(msgID uint16, args func(output protocol.OutputBuffer)) {
	if l.transport == nil {
		return
	}
	l.transport.SendMessage(msgID, args)
	if l.flush != nil {
		l.flush()
	}
}

func (l *Link) sendEvent(ev Event) {
	l.send(protocol.MsgEvent, func(output protocol.OutputBuffer) {
		protocol.EventReport{
			Clock: ev.Clock,
			Kind:  uint8(ev.Kind),
			Mode:  uint8(ev.Mode),
			A:     ev.A,
			B:     ev.B,
		}.Encode(output)
	})
}

func (l *Link) handleIdentify(data *[]byte) error {
	l.send(protocol.MsgIdentifyResponse, func(output protocol.OutputBuffer) {
		protocol.Identity{Version: protocol.Version, MaxCards: MaxCards}.Encode(output)
	})
	return nil
}

func (l *Link) handleGetState(data *[]byte) error {
	s := l.machine.State()
	l.send(protocol.MsgState, func(output protocol.OutputBuffer) {
		protocol.StateReport{
			Mode:      uint8(s.Mode),
			Selection: s.Selection,
			Entered:   s.Entered,
			Length:    s.Length,
			Present:   s.Present,
		}.Encode(output)
	})
	return nil
}

func (l *Link) handleDumpEvents(data *[]byte) error {
	for _, ev := range RecentEvents() {
		l.sendEvent(ev)
	}
	return nil
}

func (l *Link) handleSetDebug(data *[]byte) error {
	enabled, err := protocol.DecodeVLQUint(data)
	if err != nil {
		return err
	}
	SetDebugEnabled(enabled != 0)
	return nil
}
