// Package classifier derives the highlighted menu option from the live
// session state.
package classifier

import (
	"log/slog"

	"github.com/dshills/formtoolbar/internal/command"
	"github.com/dshills/formtoolbar/internal/logging"
	"github.com/dshills/formtoolbar/internal/resolver"
)

// Classification is the menu sequence annotated with its active option.
type Classification struct {
	// Entries is the input sequence, unchanged.
	Entries []command.Entry

	// ActiveOption is the first active option in sequence order, or nil.
	ActiveOption *command.Command

	// Ambiguous lists every active option when more than one matched.
	Ambiguous []string
}

// ActiveKey returns the key of the active option, or "".
func (c Classification) ActiveKey() string {
	if c.ActiveOption == nil {
		return ""
	}
	return c.ActiveOption.Key
}

// Icon returns the active option's icon or fallback.
func (c Classification) Icon(fallback string) string {
	if c.ActiveOption == nil || c.ActiveOption.Icon == "" {
		return fallback
	}
	return c.ActiveOption.Icon
}

// Label returns the active option's label or fallback.
func (c Classification) Label(fallback string) string {
	if c.ActiveOption == nil {
		return fallback
	}
	return c.ActiveOption.Label
}

// IsActive reports whether key is the highlighted option.
func (c Classification) IsActive(key string) bool {
	return c.ActiveOption != nil && c.ActiveOption.Key == key
}

// Classifier computes classifications.
type Classifier struct {
	logger      *slog.Logger
	development bool
}

// Option configures a Classifier.
type Option func(*Classifier)

// WithLogger sets the logger used for ambiguity warnings.
func WithLogger(l *slog.Logger) Option {
	return func(c *Classifier) { c.logger = logging.WithComponent(l, "classifier") }
}

// WithDevelopment enables ambiguity warnings.
func WithDevelopment(enabled bool) Option {
	return func(c *Classifier) { c.development = enabled }
}

// New creates a classifier.
func New(opts ...Option) *Classifier {
	c := &Classifier{logger: logging.Nop()}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Classify scans entries once against a resolved active set. Category
// entries never become active. When several options are active, the first
// in sequence order wins; this only happens with a misconfigured registry
// and is reported, not raised.
func (c *Classifier) Classify(entries []command.Entry, active resolver.ActiveSet) Classification {
	result := Classification{Entries: entries}

	for _, e := range entries {
		switch e.Kind {
		case command.KindOption:
			if !active.Has(e.Command.Key) {
				continue
			}
			if result.ActiveOption == nil {
				result.ActiveOption = e.Command
				continue
			}
			if result.Ambiguous == nil {
				result.Ambiguous = []string{result.ActiveOption.Key}
			}
			result.Ambiguous = append(result.Ambiguous, e.Command.Key)
		case command.KindCategory:
			// Display only.
		}
	}

	if len(result.Ambiguous) > 0 && c.development {
		c.logger.Warn("ambiguous active state, first option wins",
			"winner", result.ActiveOption.Key, "active", result.Ambiguous)
	}
	return result
}

// Classify resolves entries and runs a default classifier.
func Classify(entries []command.Entry) Classification {
	return New().Classify(entries, resolver.ResolveEntries(entries))
}

// Button is the state of one toggle button.
type Button struct {
	Key    string
	Label  string
	Icon   string
	Active bool
}

// Buttons builds independent toggle buttons from a resolved active set.
// Marks may co-activate.
func Buttons(commands []*command.Command, active resolver.ActiveSet) []Button {
	out := make([]Button, 0, len(commands))
	for _, c := range commands {
		out = append(out, Button{Key: c.Key, Label: c.Label, Icon: c.Icon, Active: active.Has(c.Key)})
	}
	return out
}
