package core

// Presenter renders lock events as light and sound. Every call blocks until
// its animation is finished; input arriving meanwhile is not seen.
type Presenter interface {
	// ModeChanged plays the mode entry animation
	ModeChanged(mode Mode)

	// CardAccepted shows puzzle progress after a card is read
	CardAccepted(position, total int)

	// ProgressAdvanced shows combination setup progress
	ProgressAdvanced(current, total int)

	// SelectionChanged shows the value Program mode will write next
	SelectionChanged(value uint8)

	// ReadFailed signals that a placed card could not be read
	ReadFailed()

	// WriteResult reports the outcome of a Program mode write
	WriteResult(ok bool)

	// PuzzleResult reports the outcome of a full puzzle attempt
	PuzzleResult(ok bool)

	// ComboSaved confirms a new combination was stored
	ComboSaved()
}

// Lock drives the lock relay
type Lock interface {
	Engage()
	Release()
}

// Button is the single push-button, polled once per tick
type Button interface {
	// Pressed reports the debounced-by-sampling button level
	Pressed() bool
}

// SleepFunc blocks for ms milliseconds. Targets use time.Sleep; tests
// advance the core clock instead.
type SleepFunc func(ms uint32)
