// Package registry builds the fixed, ordered catalog of toolbar entries.
//
// A Registry is constructed once per toolbar mount and never mutated;
// reconfiguring the toolbar means building a new one.
package registry

import (
	"fmt"

	"github.com/dshills/formtoolbar/internal/command"
)

// Registry is an immutable ordered sequence of menu entries with key lookup.
type Registry struct {
	entries  []command.Entry
	commands map[string]*command.Command
	labels   map[string]string
}

// New validates entries and builds a registry. Keys must be non-empty and
// unique across commands and categories. Entry order is preserved.
func New(entries ...command.Entry) (*Registry, error) {
	r := &Registry{
		entries:  make([]command.Entry, 0, len(entries)),
		commands: make(map[string]*command.Command),
		labels:   make(map[string]string),
	}
	seen := make(map[string]int, len(entries))

	for i, e := range entries {
		if err := e.Validate(); err != nil {
			return nil, fmt.Errorf("%w: entry %d: %v", ErrInvalidEntry, i, err)
		}

		key := e.Key()
		if key == "" {
			return nil, fmt.Errorf("%w: entry %d", ErrEmptyKey, i)
		}
		if first, dup := seen[key]; dup {
			return nil, &DuplicateKeyError{Key: key, First: first, Second: i}
		}
		seen[key] = i

		// Copy so callers cannot mutate a registered entry.
		switch e.Kind {
		case command.KindOption:
			c := *e.Command
			c.Label = SanitizeLabel(c.Label)
			r.commands[key] = &c
			r.labels[key] = PlainLabel(c.Label)
			r.entries = append(r.entries, command.Option(&c))
		case command.KindCategory:
			label := SanitizeLabel(e.Category.Label)
			r.labels[key] = PlainLabel(label)
			r.entries = append(r.entries, command.Category(key, label))
		}
	}

	return r, nil
}

// MustNew is New for static configurations; it panics on error.
func MustNew(entries ...command.Entry) *Registry {
	r, err := New(entries...)
	if err != nil {
		panic(err)
	}
	return r
}

// Entries returns every entry in registration order.
func (r *Registry) Entries() []command.Entry {
	return append([]command.Entry(nil), r.entries...)
}

// Menu returns the dropdown sequence: categories and block commands in
// registration order.
func (r *Registry) Menu() []command.Entry {
	out := make([]command.Entry, 0, len(r.entries))
	for _, e := range r.entries {
		switch e.Kind {
		case command.KindCategory:
			out = append(out, e)
		case command.KindOption:
			if e.Command.Group == command.GroupBlock {
				out = append(out, e)
			}
		}
	}
	return out
}

// Commands returns every command in registration order.
func (r *Registry) Commands() []*command.Command {
	out := make([]*command.Command, 0, len(r.commands))
	for _, e := range r.entries {
		if e.IsOption() {
			out = append(out, e.Command)
		}
	}
	return out
}

// Marks returns the inline mark commands in registration order.
func (r *Registry) Marks() []*command.Command {
	var out []*command.Command
	for _, c := range r.Commands() {
		if c.Group == command.GroupMark {
			out = append(out, c)
		}
	}
	return out
}

// Lookup returns the command registered under key.
func (r *Registry) Lookup(key string) (*command.Command, bool) {
	c, ok := r.commands[key]
	return c, ok
}

// Has reports whether key names a command.
func (r *Registry) Has(key string) bool {
	_, ok := r.commands[key]
	return ok
}

// PlainLabel returns the markup-free label of a command or category.
func (r *Registry) PlainLabel(key string) string {
	return r.labels[key]
}

// Keys returns every entry key in registration order.
func (r *Registry) Keys() []string {
	keys := make([]string, len(r.entries))
	for i, e := range r.entries {
		keys[i] = e.Key()
	}
	return keys
}

// Len returns the number of entries.
func (r *Registry) Len() int {
	return len(r.entries)
}
