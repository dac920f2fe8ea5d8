package core

// EventKind identifies something the lock did
type EventKind uint8

// Event kinds. Values are part of the link protocol and must not be reordered.
const (
	EventNone         EventKind = iota
	EventComboLoaded            // A=length, B=1 when the default was used
	EventModeChanged            // Mode=new mode
	EventCardRead               // A=value, B=position (1-based)
	EventCardError              // read or write failed for this placement
	EventPuzzleSolved           // lock released after this
	EventPuzzleFailed           // A=entered length
	EventCardWritten            // A=value written
	EventSelection              // A=new Program selection
	EventComboSaved             // A=length
	EventSaveFailed             // storage commit returned an error
)

var eventKindNames = [...]string{
	EventNone:         "none",
	EventComboLoaded:  "combo_loaded",
	EventModeChanged:  "mode_changed",
	EventCardRead:     "card_read",
	EventCardError:    "card_error",
	EventPuzzleSolved: "puzzle_solved",
	EventPuzzleFailed: "puzzle_failed",
	EventCardWritten:  "card_written",
	EventSelection:    "selection",
	EventComboSaved:   "combo_saved",
	EventSaveFailed:   "save_failed",
}

func (k EventKind) String() string {
	if int(k) < len(eventKindNames) {
		return eventKindNames[k]
	}
	return "unknown"
}

// Event is a record of one lock action
type Event struct {
	Clock uint32 // core time in ms
	Kind  EventKind
	Mode  Mode // mode after the event
	A, B  uint8
}

// Observer receives every event the machine emits, synchronously, from the
// loop goroutine.
type Observer interface {
	Observe(ev Event)
}

// ObserverFunc adapts a function to Observer
type ObserverFunc func(ev Event)

func (f ObserverFunc) Observe(ev Event) {
	f(ev)
}
