package step

import (
	"errors"
	"fmt"
)

var (
	// ErrEmptyCommand is returned when a request has no command text.
	ErrEmptyCommand = errors.New("step: empty command")

	// ErrNoShell is returned when the spawner has no shell configured.
	ErrNoShell = errors.New("step: no shell configured")
)

// SpawnError reports a process that could not be started or did not finish.
type SpawnError struct {
	Shell string
	Err   error
}

// Error implements the error interface.
func (e *SpawnError) Error() string {
	return fmt.Sprintf("step: spawn %s: %v", e.Shell, e.Err)
}

// Unwrap returns the underlying error.
func (e *SpawnError) Unwrap() error {
	return e.Err
}
