package lua

import (
	"errors"
	"fmt"
)

// Errors for Lua state operations.
var (
	// ErrStateClosed is returned when operating on a closed state.
	ErrStateClosed = errors.New("lua state is closed")

	// ErrExecutionTimeout is returned when execution times out.
	ErrExecutionTimeout = errors.New("lua execution timeout")

	// ErrInvalidTimeout is returned for a negative execution timeout.
	ErrInvalidTimeout = errors.New("lua: negative execution timeout")

	// ErrInvalidScript is returned when a script's result is not a list of
	// entry tables.
	ErrInvalidScript = errors.New("lua: invalid command script")

	// ErrOutsideTransaction is raised by mutating session functions called
	// outside execute.
	ErrOutsideTransaction = errors.New("lua: document mutation outside execute")
)

// ScriptError reports a problem with one entry of a script.
type ScriptError struct {
	Script string
	Index  int
	Msg    string
}

func (e *ScriptError) Error() string {
	return fmt.Sprintf("lua: %s: entry %d: %s", e.Script, e.Index, e.Msg)
}

// Is matches ErrInvalidScript.
func (e *ScriptError) Is(target error) bool {
	return target == ErrInvalidScript
}
