package app

import (
	"errors"
	"fmt"
)

// Application errors.
var (
	// ErrUnknownDirective is returned for an unrecognized script line.
	ErrUnknownDirective = errors.New("unknown script directive")

	// ErrBadPosition is returned for a malformed select argument.
	ErrBadPosition = errors.New("malformed position")

	// ErrMetricsDisabled is returned by the metrics directive when the
	// dispatcher does not collect metrics.
	ErrMetricsDisabled = errors.New("dispatch metrics are disabled")
)

// InitError reports a component that failed to start.
type InitError struct {
	Component string
	Err       error
}

func (e *InitError) Error() string {
	return "init " + e.Component + ": " + e.Err.Error()
}

func (e *InitError) Unwrap() error {
	return e.Err
}

// ScriptError reports the script line that failed.
type ScriptError struct {
	Line int
	Text string
	Err  error
}

func (e *ScriptError) Error() string {
	return fmt.Sprintf("script line %d %q: %v", e.Line, e.Text, e.Err)
}

func (e *ScriptError) Unwrap() error {
	return e.Err
}
