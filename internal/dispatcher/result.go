package dispatcher

import "time"

// ResultStatus indicates the outcome of a dispatch.
type ResultStatus uint8

const (
	// StatusOK indicates the command ran and changed the document.
	StatusOK ResultStatus = iota
	// StatusNoOp indicates the command ran without effect.
	StatusNoOp
	// StatusError indicates the command failed or was never run.
	StatusError
	// StatusCancelled indicates a pre-dispatch hook cancelled the command.
	StatusCancelled
)

// String returns a string representation of the status.
func (s ResultStatus) String() string {
	switch s {
	case StatusOK:
		return "ok"
	case StatusNoOp:
		return "no-op"
	case StatusError:
		return "error"
	case StatusCancelled:
		return "cancelled"
	default:
		return "unknown"
	}
}

// Result represents the outcome of dispatching a key.
type Result struct {
	// Key is the dispatched command key.
	Key string

	// Status indicates the result status.
	Status ResultStatus

	// Error contains any error that occurred.
	Error error

	// Message is an optional status message for display.
	Message string

	// Duration is the time spent in hooks and Execute.
	Duration time.Duration
}

// IsOK returns true if the result indicates success.
func (r Result) IsOK() bool {
	return r.Status == StatusOK
}

// IsError returns true if the result indicates an error.
func (r Result) IsError() bool {
	return r.Status == StatusError
}

// Success creates a successful result.
func Success() Result {
	return Result{Status: StatusOK}
}

// NoOp creates a no-operation result.
func NoOp() Result {
	return Result{Status: StatusNoOp}
}

// Failure creates an error result.
func Failure(err error) Result {
	return Result{Status: StatusError, Error: err}
}

// Cancelled creates a cancelled result.
func Cancelled(msg string) Result {
	return Result{Status: StatusCancelled, Error: ErrActionCancelled, Message: msg}
}
