package core

// DebugWriter is a function type for writing debug messages
type DebugWriter func(string)

const (
	EventRingSize = 32 // Keep last 32 events for post-mortem
)

var (
	// debugPrintln is the global debug print function (set by platform code)
	debugPrintln DebugWriter = func(s string) {} // No-op by default

	// debugEnabled controls whether DebugPrintln output is active
	debugEnabled bool = false

	// Event ring buffer, written by the machine on every emitted event
	eventRing     [EventRingSize]Event
	eventRingHead uint8
	eventRingLen  uint8
)

// SetDebugWriter sets the platform-specific debug output function
func SetDebugWriter(writer DebugWriter) {
	debugPrintln = writer
}

// SetDebugEnabled enables or disables debug output
func SetDebugEnabled(enabled bool) {
	debugEnabled = enabled
}

// IsDebugEnabled returns whether debug output is enabled
func IsDebugEnabled() bool {
	return debugEnabled
}

// DebugPrintln writes a debug message using the platform-specific writer
func DebugPrintln(msg string) {
	if debugEnabled && debugPrintln != nil {
		debugPrintln(msg)
	}
}

// RecordEvent stores ev in the ring, overwriting the oldest entry
func RecordEvent(ev Event) {
	eventRing[eventRingHead] = ev
	eventRingHead = (eventRingHead + 1) % EventRingSize
	if eventRingLen < EventRingSize {
		eventRingLen++
	}
}

// RecentEvents returns the ring contents from oldest to newest
func RecentEvents() []Event {
	out := make([]Event, 0, eventRingLen)
	start := (eventRingHead + EventRingSize - eventRingLen) % EventRingSize
	for i := uint8(0); i < eventRingLen; i++ {
		out = append(out, eventRing[(start+i)%EventRingSize])
	}
	return out
}

// DumpEventRing writes the ring through the debug writer, ignoring the
// enabled flag (call on fault or on request)
func DumpEventRing() {
	if debugPrintln == nil {
		return
	}

	debugPrintln("[EVENTS] === Event Ring Dump ===")
	for _, ev := range RecentEvents() {
		debugPrintln(FormatEvent(ev))
	}
	debugPrintln("[EVENTS] === End Dump ===")
}

// FormatEvent renders an event as a single debug line
func FormatEvent(ev Event) string {
	return "[EVENTS] " + ev.Kind.String() +
		" t=" + utoa(ev.Clock) +
		" mode=" + ev.Mode.String() +
		" a=" + itoa(int(ev.A)) +
		" b=" + itoa(int(ev.B))
}

// ClearEventRing clears the event buffer
func ClearEventRing() {
	for i := range eventRing {
		eventRing[i] = Event{}
	}
	eventRingHead = 0
	eventRingLen = 0
}
