package core

import "errors"

// Card transport failures. The machine treats both the same way: the
// operation is abandoned for the current placement.
var (
	ErrTransportTimeout  = errors.New("card transport timeout")
	ErrTransportProtocol = errors.New("card transport protocol error")
)

var (
	// ErrInvalidRecord reports a persisted combination that failed the magic
	// or length check. Load falls back to the default combination.
	ErrInvalidRecord = errors.New("invalid persisted combination record")

	ErrInvalidLength  = errors.New("combination length out of range")
	ErrInvalidConfig  = errors.New("invalid lock configuration")
	ErrMissingDevice  = errors.New("device not configured")
	ErrUnknownCommand = errors.New("unknown command")
)
