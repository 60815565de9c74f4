package resolver

import "github.com/dshills/formtoolbar/internal/command"

// ActiveSet is the set of command keys whose predicate held at resolve time.
// It is a throwaway value: recompute it on every document change.
type ActiveSet struct {
	keys  []string
	index map[string]struct{}
}

// Resolve evaluates every command predicate once, in the given order.
func Resolve(commands []*command.Command) ActiveSet {
	set := ActiveSet{index: make(map[string]struct{})}
	for _, c := range commands {
		if c.Active() {
			set.keys = append(set.keys, c.Key)
			set.index[c.Key] = struct{}{}
		}
	}
	return set
}

// ResolveEntries evaluates the option entries of a menu sequence.
func ResolveEntries(entries []command.Entry) ActiveSet {
	commands := make([]*command.Command, 0, len(entries))
	for _, e := range entries {
		if e.IsOption() {
			commands = append(commands, e.Command)
		}
	}
	return Resolve(commands)
}

// Has reports whether key is active.
func (a ActiveSet) Has(key string) bool {
	_, ok := a.index[key]
	return ok
}

// Keys returns the active keys in evaluation order.
func (a ActiveSet) Keys() []string {
	return append([]string(nil), a.keys...)
}

// Len returns the number of active commands.
func (a ActiveSet) Len() int {
	return len(a.keys)
}
