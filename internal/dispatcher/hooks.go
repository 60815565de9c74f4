package dispatcher

import (
	"log/slog"
	"slices"

	"github.com/dshills/formtoolbar/internal/command"
	"github.com/dshills/formtoolbar/internal/logging"
)

// Request describes a dispatch in flight.
type Request struct {
	// Key is the dispatched key.
	Key string

	// Command is the resolved command.
	Command *command.Command
}

// PreDispatchHook is called before a command executes.
// Returning false cancels the dispatch.
type PreDispatchHook interface {
	PreDispatch(req *Request) bool
}

// PostDispatchHook is called after a command executes or is cancelled.
// It may inspect or modify the result.
type PostDispatchHook interface {
	PostDispatch(req *Request, result *Result)
}

// PreDispatchFunc is a function adapter for PreDispatchHook.
type PreDispatchFunc func(req *Request) bool

// PreDispatch implements PreDispatchHook.
func (f PreDispatchFunc) PreDispatch(req *Request) bool {
	return f(req)
}

// PostDispatchFunc is a function adapter for PostDispatchHook.
type PostDispatchFunc func(req *Request, result *Result)

// PostDispatch implements PostDispatchHook.
func (f PostDispatchFunc) PostDispatch(req *Request, result *Result) {
	f(req, result)
}

// LoggingHook logs every dispatch at debug level and failures at warn.
type LoggingHook struct {
	logger *slog.Logger
}

// NewLoggingHook creates a new logging hook.
func NewLoggingHook(logger *slog.Logger) *LoggingHook {
	return &LoggingHook{logger: logging.OrNop(logger)}
}

// PreDispatch logs the command being dispatched.
func (h *LoggingHook) PreDispatch(req *Request) bool {
	h.logger.Debug("dispatching command", "key", req.Key, "group", req.Command.Group)
	return true
}

// PostDispatch logs the dispatch result.
func (h *LoggingHook) PostDispatch(req *Request, result *Result) {
	if result.Status == StatusError {
		h.logger.Warn("command failed", "key", req.Key, "error", result.Error)
		return
	}
	h.logger.Debug("dispatch complete", "key", req.Key, "status", result.Status, "duration", result.Duration)
}

// GroupFilterHook cancels commands outside the allowed groups, for
// instance to disable block conversions while a field is read-only.
type GroupFilterHook struct {
	Allowed []command.Group
}

// PreDispatch cancels disallowed groups.
func (h *GroupFilterHook) PreDispatch(req *Request) bool {
	return slices.Contains(h.Allowed, req.Command.Group)
}
