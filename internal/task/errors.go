package task

import (
	"errors"
	"fmt"
)

// Registry and validation errors.
var (
	// ErrIndexOutOfRange is returned when a task index is not in the registry.
	ErrIndexOutOfRange = errors.New("task: index out of range")

	// ErrDanglingReference indicates a Before/After entry that is not in the registry.
	ErrDanglingReference = errors.New("task: dependency is not in the registry")

	// ErrCycle indicates a task that transitively depends on itself.
	ErrCycle = errors.New("task: dependency cycle")

	// ErrSharedTrigger indicates a trigger owned by more than one task.
	ErrSharedTrigger = errors.New("task: trigger belongs to more than one task")

	// ErrInvalidInterval indicates a timer interval below one second.
	ErrInvalidInterval = errors.New("task: timer interval must be at least 1 second")

	// ErrUnknownEvent indicates an event trigger with an unknown object or event name.
	ErrUnknownEvent = errors.New("task: unknown event")

	// ErrEmptyName indicates a manual trigger or manual step with no name.
	ErrEmptyName = errors.New("task: empty trigger name")

	// ErrEmptyCommand indicates a step with no command text.
	ErrEmptyCommand = errors.New("task: empty command")

	// ErrInvalidSettings indicates a settings blob that cannot be decoded.
	ErrInvalidSettings = errors.New("task: invalid settings")
)

// ValidationError describes one problem found by Registry.Validate.
type ValidationError struct {
	Task  string // label of the offending task
	Index int    // position of the task in the registry
	Field string // e.g. "before[1]", "triggers[0]", "steps[2]"
	Err   error
}

// Error implements the error interface.
func (e *ValidationError) Error() string {
	if e.Field == "" {
		return fmt.Sprintf("task %d %q: %v", e.Index, e.Task, e.Err)
	}
	return fmt.Sprintf("task %d %q %s: %v", e.Index, e.Task, e.Field, e.Err)
}

// Unwrap returns the underlying error.
func (e *ValidationError) Unwrap() error {
	return e.Err
}

// DecodeError reports a settings blob that parsed but does not describe a
// consistent task list.
type DecodeError struct {
	Path string // JSON path of the offending value
	Err  error
}

// Error implements the error interface.
func (e *DecodeError) Error() string {
	return fmt.Sprintf("decode settings at %s: %v", e.Path, e.Err)
}

// Unwrap returns the underlying error.
func (e *DecodeError) Unwrap() error {
	return e.Err
}
