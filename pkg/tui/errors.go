package tui

import "errors"

var (
	// ErrAborted signals the user aborted input (e.g., Ctrl+C).
	ErrAborted = errors.New("tui: aborted")
	// ErrUnknownOption is returned when a driver answers with an index outside
	// the offered options.
	ErrUnknownOption = errors.New("tui: selection out of range")
)
