package core

import (
	"strings"
	"testing"
)

func TestEventRingKeepsNewest(t *testing.T) {
	ClearEventRing()
	defer ClearEventRing()

	for i := 0; i < EventRingSize+5; i++ {
		RecordEvent(Event{Clock: uint32(i), Kind: EventCardRead})
	}

	events := RecentEvents()
	if len(events) != EventRingSize {
		t.Fatalf("Expected %d events, got %d", EventRingSize, len(events))
	}
	if events[0].Clock != 5 || events[len(events)-1].Clock != EventRingSize+4 {
		t.Errorf("Ring order wrong: first=%d last=%d", events[0].Clock, events[len(events)-1].Clock)
	}
}

func TestDumpEventRing(t *testing.T) {
	ClearEventRing()
	defer ClearEventRing()

	var lines []string
	SetDebugWriter(func(s string) { lines = append(lines, s) })
	defer SetDebugWriter(func(string) {})

	RecordEvent(Event{Clock: 42, Kind: EventPuzzleSolved, Mode: ModePuzzle, A: 4})
	DumpEventRing()

	if len(lines) != 3 {
		t.Fatalf("Expected header, one event, footer; got %v", lines)
	}
	want := "[EVENTS] puzzle_solved t=42 mode=puzzle a=4 b=0"
	if lines[1] != want {
		t.Errorf("Got %q, want %q", lines[1], want)
	}
}

func TestDebugPrintlnGated(t *testing.T) {
	var lines []string
	SetDebugWriter(func(s string) { lines = append(lines, s) })
	defer SetDebugWriter(func(string) {})

	SetDebugEnabled(false)
	DebugPrintln("hidden")
	SetDebugEnabled(true)
	DebugPrintln("shown")
	SetDebugEnabled(false)

	if strings.Join(lines, ",") != "shown" {
		t.Errorf("Expected only enabled output, got %v", lines)
	}
}

func TestEventKindNames(t *testing.T) {
	if EventSaveFailed.String() != "save_failed" {
		t.Errorf("Got %q", EventSaveFailed.String())
	}
	if EventKind(200).String() != "unknown" {
		t.Errorf("Got %q", EventKind(200).String())
	}
}

func TestItoa(t *testing.T) {
	testCases := map[int]string{0: "0", 7: "7", -12: "-12", 4000: "4000"}
	for n, want := range testCases {
		if got := itoa(n); got != want {
			t.Errorf("itoa(%d) = %q, want %q", n, got, want)
		}
	}
	if got := utoa(4294967295); got != "4294967295" {
		t.Errorf("utoa(max) = %q", got)
	}
}
