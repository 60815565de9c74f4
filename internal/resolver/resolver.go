// Package resolver derives which toolbar commands apply to the current
// selection.
//
// Predicates built here close over a command.Session and only issue
// selection-scoped queries (mark coverage of the selected range, the type of
// the anchor block), so evaluating the whole registry on every keystroke never
// walks the full document. Evaluation is a pure read.
package resolver

import (
	"fmt"
	"strings"

	"github.com/dshills/formtoolbar/internal/command"
	"github.com/dshills/formtoolbar/internal/document"
)

// MarkRule decides when a non-empty selection counts as carrying a mark.
type MarkRule uint8

const (
	// RuleAll requires every selected character to carry the mark.
	RuleAll MarkRule = iota
	// RuleAny requires at least one selected character to carry the mark.
	RuleAny
)

// String implements fmt.Stringer.
func (r MarkRule) String() string {
	if r == RuleAny {
		return "any"
	}
	return "all"
}

// ParseMarkRule parses "all" or "any". Empty means RuleAll.
func ParseMarkRule(s string) (MarkRule, error) {
	switch strings.ToLower(s) {
	case "", "all":
		return RuleAll, nil
	case "any":
		return RuleAny, nil
	}
	return RuleAll, fmt.Errorf("resolver: unknown mark rule %q", s)
}

// MarkActive applies rule to a mark state. A collapsed cursor uses the typing
// state; a non-empty selection with no characters is never active.
func MarkActive(ms document.MarkState, rule MarkRule) bool {
	if ms.Collapsed {
		return ms.Inherited
	}
	if ms.Total == 0 {
		return false
	}
	if rule == RuleAny {
		return ms.Marked > 0
	}
	return ms.Marked == ms.Total
}

// Mark returns a predicate for inline mark m.
func Mark(s command.Session, m document.MarkType, rule MarkRule) command.Predicate {
	return func() bool {
		return MarkActive(s.MarkState(m), rule)
	}
}

// Block returns a predicate matching the block that contains the selection
// anchor. Level is only compared for headings.
func Block(s command.Session, t document.BlockType, level int) command.Predicate {
	return func() bool {
		info, ok := s.BlockAt(s.Selection().Anchor)
		return ok && info.Is(t, level)
	}
}

// Never is a predicate that is never active.
func Never() bool { return false }
