// Package command defines the toolbar's menu entries: commands and the
// category labels that group them.
package command

import "fmt"

// Group separates independent inline marks from mutually-exclusive block types.
type Group uint8

const (
	// GroupMark commands toggle inline marks; several may be active at once.
	GroupMark Group = iota
	// GroupBlock commands select the block type; at most one should be active.
	GroupBlock
)

// String implements fmt.Stringer.
func (g Group) String() string {
	switch g {
	case GroupMark:
		return "mark"
	case GroupBlock:
		return "block"
	default:
		return "unknown"
	}
}

// ParseGroup parses "mark" or "block".
func ParseGroup(s string) (Group, error) {
	switch s {
	case "mark":
		return GroupMark, nil
	case "block":
		return GroupBlock, nil
	}
	return 0, fmt.Errorf("command: unknown group %q", s)
}

// Predicate reports whether a command applies to the live session state.
// It must not mutate the session.
type Predicate func() bool

// Action mutates the session. It is responsible for restoring focus and for
// applying its change as a single transaction.
type Action func() error

// Command is an immutable toolbar command. IsActive and Execute hold a
// non-owning reference to the session they were built for.
type Command struct {
	Key      string
	Label    string
	Icon     string
	Group    Group
	IsActive Predicate
	Execute  Action
}

// Active evaluates the predicate. A nil predicate is never active.
func (c *Command) Active() bool {
	return c != nil && c.IsActive != nil && c.IsActive()
}

// CategoryLabel is a display-only grouping header.
type CategoryLabel struct {
	Key   string
	Label string
}

// Kind discriminates Entry variants.
type Kind uint8

const (
	// KindOption marks an entry holding a Command.
	KindOption Kind = iota + 1
	// KindCategory marks an entry holding a CategoryLabel.
	KindCategory
)

// String implements fmt.Stringer.
func (k Kind) String() string {
	switch k {
	case KindOption:
		return "option"
	case KindCategory:
		return "category"
	default:
		return "invalid"
	}
}

// Entry is one item of the ordered menu sequence: exactly one of Command or
// Category is set, as named by Kind.
type Entry struct {
	Kind     Kind
	Command  *Command
	Category *CategoryLabel
}

// Option wraps a command as an entry.
func Option(c *Command) Entry {
	return Entry{Kind: KindOption, Command: c}
}

// Category wraps a category label as an entry.
func Category(key, label string) Entry {
	return Entry{Kind: KindCategory, Category: &CategoryLabel{Key: key, Label: label}}
}

// Key returns the key of whichever variant the entry holds.
func (e Entry) Key() string {
	switch e.Kind {
	case KindOption:
		if e.Command != nil {
			return e.Command.Key
		}
	case KindCategory:
		if e.Category != nil {
			return e.Category.Key
		}
	}
	return ""
}

// Label returns the display label of the entry.
func (e Entry) Label() string {
	switch e.Kind {
	case KindOption:
		if e.Command != nil {
			return e.Command.Label
		}
	case KindCategory:
		if e.Category != nil {
			return e.Category.Label
		}
	}
	return ""
}

// IsOption reports whether the entry holds a command.
func (e Entry) IsOption() bool {
	return e.Kind == KindOption && e.Command != nil
}

// IsCategory reports whether the entry holds a category label.
func (e Entry) IsCategory() bool {
	return e.Kind == KindCategory && e.Category != nil
}

// Validate checks that the entry's variant matches its kind.
func (e Entry) Validate() error {
	switch e.Kind {
	case KindOption:
		if e.Command == nil || e.Category != nil {
			return fmt.Errorf("command: option entry %q must hold only a command", e.Key())
		}
		if e.Command.IsActive == nil || e.Command.Execute == nil {
			return fmt.Errorf("command: option %q needs a predicate and an action", e.Command.Key)
		}
	case KindCategory:
		if e.Category == nil || e.Command != nil {
			return fmt.Errorf("command: category entry %q must hold only a label", e.Key())
		}
	default:
		return fmt.Errorf("command: entry has invalid kind %d", e.Kind)
	}
	return nil
}
