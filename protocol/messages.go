package protocol

// Message ids sent by the host
const (
	MsgIdentify   uint16 = 1 // no arguments
	MsgGetState   uint16 = 2 // no arguments
	MsgDumpEvents uint16 = 3 // no arguments; answered with one MsgEvent per ring entry
	MsgSetDebug   uint16 = 4 // enabled
)

// Message ids sent by the device
const (
	MsgIdentifyResponse uint16 = 16 // version, max_cards
	MsgState            uint16 = 17 // mode, selection, entered, length, present
	MsgEvent            uint16 = 18 // clock, kind, mode, a, b
	MsgDebug            uint16 = 19 // text
)

// MessageName returns a readable name for a message id
func MessageName(id uint16) string {
	switch id {
	case MsgIdentify:
		return "identify"
	case MsgGetState:
		return "get_state"
	case MsgDumpEvents:
		return "dump_events"
	case MsgSetDebug:
		return "set_debug"
	case MsgIdentifyResponse:
		return "identify_response"
	case MsgState:
		return "state"
	case MsgEvent:
		return "event"
	case MsgDebug:
		return "debug"
	default:
		return "unknown"
	}
}

// Identity describes the firmware
type Identity struct {
	Version  string
	MaxCards uint8
}

func (m Identity) Encode(output OutputBuffer) {
	EncodeVLQString(output, m.Version)
	EncodeVLQUint(output, uint32(m.MaxCards))
}

func DecodeIdentity(data *[]byte) (Identity, error) {
	var m Identity
	var err error
	if m.Version, err = DecodeVLQString(data); err != nil {
		return m, err
	}
	m.MaxCards, err = decodeUint8(data)
	return m, err
}

// StateReport is a snapshot of the lock
type StateReport struct {
	Mode      uint8
	Selection uint8
	Entered   uint8
	Length    uint8
	Present   bool
}

func (m StateReport) Encode(output OutputBuffer) {
	EncodeVLQUint(output, uint32(m.Mode))
	EncodeVLQUint(output, uint32(m.Selection))
	EncodeVLQUint(output, uint32(m.Entered))
	EncodeVLQUint(output, uint32(m.Length))
	var present uint32
	if m.Present {
		present = 1
	}
	EncodeVLQUint(output, present)
}

func DecodeStateReport(data *[]byte) (StateReport, error) {
	var m StateReport
	fields := []*uint8{&m.Mode, &m.Selection, &m.Entered, &m.Length}
	for _, f := range fields {
		v, err := decodeUint8(data)
		if err != nil {
			return m, err
		}
		*f = v
	}
	present, err := DecodeVLQUint(data)
	if err != nil {
		return m, err
	}
	m.Present = present != 0
	return m, nil
}

// EventReport carries one lock event
type EventReport struct {
	Clock uint32
	Kind  uint8
	Mode  uint8
	A, B  uint8
}

func (m EventReport) Encode(output OutputBuffer) {
	EncodeVLQUint(output, m.Clock)
	EncodeVLQUint(output, uint32(m.Kind))
	EncodeVLQUint(output, uint32(m.Mode))
	EncodeVLQUint(output, uint32(m.A))
	EncodeVLQUint(output, uint32(m.B))
}

func DecodeEventReport(data *[]byte) (EventReport, error) {
	var m EventReport
	var err error
	if m.Clock, err = DecodeVLQUint(data); err != nil {
		return m, err
	}
	fields := []*uint8{&m.Kind, &m.Mode, &m.A, &m.B}
	for _, f := range fields {
		if *f, err = decodeUint8(data); err != nil {
			return m, err
		}
	}
	return m, nil
}

func decodeUint8(data *[]byte) (uint8, error) {
	v, err := DecodeVLQUint(data)
	if err != nil {
		return 0, err
	}
	if v > 0xFF {
		return 0, ErrInvalidVLQ
	}
	return uint8(v), nil
}
