// Package printer writes user-facing host tool output.
package printer

import (
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/fatih/color"

	"puzzlebox/core"
	"puzzlebox/protocol"
)

var (
	green   = color.New(color.FgGreen)
	yellow  = color.New(color.FgYellow)
	red     = color.New(color.FgRed, color.Bold)
	cyan    = color.New(color.FgCyan)
	magenta = color.New(color.FgMagenta)
	faint   = color.New(color.Faint)
)

// Out and Err receive all output; tests replace them. Writes are
// serialized so that lines from different goroutines do not interleave.
var (
	mu  sync.Mutex
	Out io.Writer = color.Output
	Err io.Writer = color.Error
)

// Success prints a message in green with a checkmark prefix
func Success(format string, a ...any) {
	mu.Lock()
	defer mu.Unlock()

	green.Fprintf(Out, "✓ "+format, a...)
}

// Info prints a message in the default colour
func Info(format string, a ...any) {
	mu.Lock()
	defer mu.Unlock()

	fmt.Fprintf(Out, format, a...)
}

// Warning prints a message in yellow
func Warning(format string, a ...any) {
	mu.Lock()
	defer mu.Unlock()

	yellow.Fprintf(Out, "! "+format, a...)
}

// Error prints a title, an explanation and numbered suggestions to Err,
// and returns an error carrying the title for cobra
func Error(title string, explanation string, suggestions []string) error {
	mu.Lock()
	defer mu.Unlock()

	red.Fprintf(Err, "%s\n\n", title)
	fmt.Fprintf(Err, "%s\n", explanation)

	if len(suggestions) > 0 {
		fmt.Fprintf(Err, "\n")
		if len(suggestions) == 1 {
			fmt.Fprintf(Err, "%s\n", suggestions[0])
		} else {
			fmt.Fprintf(Err, "Either:\n")
			for i, s := range suggestions {
				fmt.Fprintf(Err, "  %d. %s\n", i+1, s)
			}
		}
	}
	return fmt.Errorf("%s", title)
}

// Identity prints the firmware identity
func Identity(id protocol.Identity) {
	mu.Lock()
	defer mu.Unlock()

	cyan.Fprintf(Out, "puzzlebox firmware %s", id.Version)
	fmt.Fprintf(Out, " (up to %d cards)\n", id.MaxCards)
}

// State prints a state report on one line
func State(s protocol.StateReport) {
	mu.Lock()
	defer mu.Unlock()

	card := "no card"
	if s.Present {
		card = "card present"
	}
	cyan.Fprintf(Out, "%-8s", core.Mode(s.Mode).String())
	fmt.Fprintf(Out, " entered %d/%d  selection %d  %s\n", s.Entered, s.Length, s.Selection, card)
}

// Event prints one lock event, coloured by outcome
func Event(ev protocol.EventReport) {
	mu.Lock()
	defer mu.Unlock()

	kind := core.EventKind(ev.Kind)
	c := colorFor(kind)

	faint.Fprintf(Out, "%10d ", ev.Clock)
	c.Fprintf(Out, "%-14s", kind.String())
	fmt.Fprintf(Out, " %s\n", describe(ev))
}

// Debug prints a firmware debug line
func Debug(text string) {
	mu.Lock()
	defer mu.Unlock()

	faint.Fprintf(Out, "[debug] %s\n", strings.TrimRight(text, "\r\n"))
}

// Device prints a simulated device action
func Device(text string) {
	mu.Lock()
	defer mu.Unlock()

	magenta.Fprintf(Out, "» %s\n", text)
}

func colorFor(kind core.EventKind) *color.Color {
	switch kind {
	case core.EventPuzzleSolved, core.EventCardWritten, core.EventComboSaved:
		return green
	case core.EventPuzzleFailed, core.EventCardError, core.EventSaveFailed:
		return red
	case core.EventModeChanged:
		return cyan
	default:
		return yellow
	}
}

func describe(ev protocol.EventReport) string {
	mode := core.Mode(ev.Mode).String()
	switch core.EventKind(ev.Kind) {
	case core.EventComboLoaded:
		if ev.B != 0 {
			return fmt.Sprintf("%d cards (default)", ev.A)
		}
		return fmt.Sprintf("%d cards", ev.A)
	case core.EventModeChanged:
		return "now " + mode
	case core.EventCardRead:
		return fmt.Sprintf("value %d at position %d", ev.A, ev.B)
	case core.EventPuzzleSolved, core.EventPuzzleFailed:
		return fmt.Sprintf("%d cards entered", ev.A)
	case core.EventCardWritten, core.EventSelection:
		return fmt.Sprintf("value %d", ev.A)
	case core.EventComboSaved, core.EventSaveFailed:
		return fmt.Sprintf("%d cards", ev.A)
	default:
		return "in " + mode
	}
}
