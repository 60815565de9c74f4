package document

import "fmt"

// Position addresses a rune offset inside a block.
type Position struct {
	Block  int
	Offset int
}

// Pos builds a position.
func Pos(block, offset int) Position {
	return Position{Block: block, Offset: offset}
}

// Compare returns -1, 0 or 1 ordering p relative to q.
func (p Position) Compare(q Position) int {
	switch {
	case p.Block < q.Block:
		return -1
	case p.Block > q.Block:
		return 1
	case p.Offset < q.Offset:
		return -1
	case p.Offset > q.Offset:
		return 1
	}
	return 0
}

// String implements fmt.Stringer.
func (p Position) String() string {
	return fmt.Sprintf("%d:%d", p.Block, p.Offset)
}

// Selection is an anchor/head pair. The anchor stays fixed while the head
// follows the user; either may come first in document order.
type Selection struct {
	Anchor Position
	Head   Position
}

// Cursor returns a collapsed selection at p.
func Cursor(p Position) Selection {
	return Selection{Anchor: p, Head: p}
}

// Range returns a selection from anchor to head.
func Range(anchor, head Position) Selection {
	return Selection{Anchor: anchor, Head: head}
}

// Collapsed reports whether the selection is a bare cursor.
func (s Selection) Collapsed() bool {
	return s.Anchor == s.Head
}

// From returns the earlier end of the selection.
func (s Selection) From() Position {
	if s.Anchor.Compare(s.Head) <= 0 {
		return s.Anchor
	}
	return s.Head
}

// To returns the later end of the selection.
func (s Selection) To() Position {
	if s.Anchor.Compare(s.Head) <= 0 {
		return s.Head
	}
	return s.Anchor
}

// String implements fmt.Stringer.
func (s Selection) String() string {
	if s.Collapsed() {
		return s.Anchor.String()
	}
	return s.Anchor.String() + "-" + s.Head.String()
}

// MarkState describes how a mark applies to the current selection.
type MarkState struct {
	// Collapsed is true for a bare cursor; Inherited is then meaningful.
	Collapsed bool

	// Inherited reports whether text typed at the cursor would carry the mark.
	Inherited bool

	// Marked counts selected characters carrying the mark.
	Marked int

	// Total counts selected characters outside code blocks.
	Total int
}
