package host

import (
	"errors"
	"fmt"
)

// Host capability errors.
var (
	// ErrUnknownCommand is returned when no command is registered under an id.
	ErrUnknownCommand = errors.New("host: unknown command")

	// ErrNilHandler is returned when subscribing a nil handler.
	ErrNilHandler = errors.New("host: handler cannot be nil")

	// ErrEmptyEvent is returned when subscribing to or emitting an empty event name.
	ErrEmptyEvent = errors.New("host: empty event name")

	// ErrSubscriptionNotFound is returned when unsubscribing twice or from the wrong source.
	ErrSubscriptionNotFound = errors.New("host: subscription not found")
)

// PanicError wraps a value recovered from a panicking handler or command.
type PanicError struct {
	Source string
	Value  any
}

// Error implements the error interface.
func (e *PanicError) Error() string {
	return fmt.Sprintf("host: %s panicked: %v", e.Source, e.Value)
}
