package engine

import (
	"errors"
	"fmt"

	"github.com/dshills/tasker/internal/task"
)

// Errors returned by engine operations.
var (
	// ErrCycle is returned when a run re-enters a task that is already
	// executing in the same chain.
	ErrCycle = fmt.Errorf("engine: task re-entered: %w", task.ErrCycle)

	// ErrMaxDepth is returned when a chain of nested runs is too deep.
	ErrMaxDepth = errors.New("engine: maximum run depth exceeded")

	// ErrUnknownTask is returned when running a task that is not in the registry.
	ErrUnknownTask = errors.New("engine: task is not in the registry")

	// ErrNonZeroExit is returned by shell steps with BreakOnNonZero set.
	ErrNonZeroExit = errors.New("engine: shell command exited with non-zero status")

	// ErrNoCommandExecutor is returned by command steps when no executor is configured.
	ErrNoCommandExecutor = errors.New("engine: no command executor configured")

	// ErrNoSpawner is returned by shell steps when no spawner is configured.
	ErrNoSpawner = errors.New("engine: no spawner configured")

	// ErrNoScriptEvaluator is returned by script steps when no evaluator is configured.
	ErrNoScriptEvaluator = errors.New("engine: no script evaluator configured")

	// ErrShutdown is returned by activations started after Shutdown.
	ErrShutdown = errors.New("engine: shut down")
)

// Phase identifies which part of a task a failure came from.
type Phase string

const (
	PhaseBefore Phase = "before"
	PhaseStep   Phase = "step"
	PhaseAfter  Phase = "after"
)

// RunError reports the failure that stopped a task.
type RunError struct {
	Task  *task.Task
	Label string
	Phase Phase
	// Index is the position within the phase, or -1 when the task never
	// started.
	Index int
	Err   error
}

// Error implements the error interface.
func (e *RunError) Error() string {
	if e.Index < 0 {
		return fmt.Sprintf("run %q: %v", e.Label, e.Err)
	}
	return fmt.Sprintf("run %q: %s %d: %v", e.Label, e.Phase, e.Index, e.Err)
}

// Unwrap returns the underlying error.
func (e *RunError) Unwrap() error {
	return e.Err
}
