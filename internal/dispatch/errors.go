package dispatch

import (
	"errors"
	"fmt"

	"github.com/dshills/tasker/internal/task"
)

var (
	// ErrClosed is returned by Rebuild after Close.
	ErrClosed = errors.New("dispatch: dispatcher is closed")

	// ErrNoSource is returned when an event trigger names an object with no
	// registered event source.
	ErrNoSource = errors.New("dispatch: no event source for object")

	// ErrInvalidOverlap is returned by ParseOverlapPolicy.
	ErrInvalidOverlap = errors.New("dispatch: invalid overlap policy")
)

// BindError reports a trigger that could not be bound.
type BindError struct {
	Trigger task.Trigger
	Err     error
}

// Error implements the error interface.
func (e *BindError) Error() string {
	return fmt.Sprintf("dispatch: bind %s: %v", task.DescribeTrigger(e.Trigger), e.Err)
}

// Unwrap returns the underlying error.
func (e *BindError) Unwrap() error {
	return e.Err
}
