package command

import "github.com/dshills/formtoolbar/internal/document"

// Session is the view of the editing engine that commands need: state
// queries for predicates and a transaction entry point for actions.
// *document.Session satisfies it.
type Session interface {
	Selection() document.Selection
	MarkState(m document.MarkType) document.MarkState
	BlockAt(p document.Position) (document.BlockInfo, bool)
	Transact(fn func(tx *document.Tx) error) error
}

var _ Session = (*document.Session)(nil)
