package chat

import (
	"errors"
	"fmt"
)

var (
	// ErrBlankInput is returned by Submit for empty or whitespace-only
	// input; nothing is appended to the transcript.
	ErrBlankInput = errors.New("chat: input is empty")

	// ErrBusy is returned when a submission is already in flight for the
	// session.
	ErrBusy = errors.New("chat: a submission is already in flight")

	// ErrInvalidMode and ErrInvalidK reject setting updates without
	// touching the session state.
	ErrInvalidMode = errors.New("chat: invalid search mode")
	ErrInvalidK    = errors.New("chat: k out of range")
)

// DocumentNotFoundError is returned by OpenDocument when the requested
// filename is not in the document registry.
type DocumentNotFoundError struct {
	Filename string
}

func (e *DocumentNotFoundError) Error() string {
	return fmt.Sprintf("chat: document %q not found in registry", e.Filename)
}
