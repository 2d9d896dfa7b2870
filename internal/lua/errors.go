package lua

import (
	"errors"
	"fmt"
)

var (
	// ErrModuleNotFound is returned by require for unknown modules.
	ErrModuleNotFound = errors.New("lua: module not found")

	// ErrInvalidModuleName is returned by require for names that could
	// escape the module directory.
	ErrInvalidModuleName = errors.New("lua: invalid module name")

	// ErrNoHost is raised when a script calls a host function that was not
	// configured.
	ErrNoHost = errors.New("lua: host function not available")
)

// ScriptError is returned when a script fails to compile or raises an error.
type ScriptError struct {
	// Message is the Lua error message, including position when known.
	Message string

	// Err is the underlying Go error: a host failure raised through the
	// tasker module, a context error, or the interpreter's own error.
	Err error
}

// Error implements the error interface.
func (e *ScriptError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("lua: %v", e.Err)
	}
	return "lua: " + e.Message
}

// Unwrap returns the underlying error.
func (e *ScriptError) Unwrap() error {
	return e.Err
}
