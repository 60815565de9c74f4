package dispatcher

import (
	"errors"
	"fmt"
)

// Dispatcher errors.
var (
	// ErrUnknownCommand indicates the key is not in the registry.
	ErrUnknownCommand = errors.New("dispatcher: unknown command")

	// ErrReentrantDispatch indicates Dispatch was called while another
	// dispatch was running.
	ErrReentrantDispatch = errors.New("dispatcher: re-entrant dispatch")

	// ErrActionCancelled indicates the command was cancelled by a hook.
	ErrActionCancelled = errors.New("dispatcher: command cancelled by hook")

	// ErrPanic indicates the command panicked.
	ErrPanic = errors.New("dispatcher: command panic")

	// ErrNoRegistry indicates no registry is installed.
	ErrNoRegistry = errors.New("dispatcher: no registry")
)

// UnknownCommandError reports a dispatch for a key the registry never
// produced.
type UnknownCommandError struct {
	Key string
}

func (e *UnknownCommandError) Error() string {
	return fmt.Sprintf("dispatcher: unknown command %q", e.Key)
}

// Is matches ErrUnknownCommand.
func (e *UnknownCommandError) Is(target error) bool {
	return target == ErrUnknownCommand
}

// PanicError carries a recovered panic value and stack.
type PanicError struct {
	Key   string
	Value any
	Stack []byte
}

func (e *PanicError) Error() string {
	return fmt.Sprintf("dispatcher: command %q panicked: %v", e.Key, e.Value)
}

// Is matches ErrPanic.
func (e *PanicError) Is(target error) bool {
	return target == ErrPanic
}
