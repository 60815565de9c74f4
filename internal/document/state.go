package document

import "unicode/utf8"

// state is the document snapshot shared by Session reads and Tx drafts.
type state struct {
	blocks    []Block
	sel       Selection
	stored    MarkSet
	hasStored bool
	focused   bool
}

func (st *state) clone() state {
	out := *st
	out.blocks = make([]Block, len(st.blocks))
	for i, b := range st.blocks {
		out.blocks[i] = b.clone()
	}
	return out
}

func (st *state) validPosition(p Position) error {
	if p.Block < 0 || p.Block >= len(st.blocks) || p.Offset < 0 || p.Offset > st.blocks[p.Block].Len() {
		return &PositionError{Pos: p, Blocks: len(st.blocks)}
	}
	return nil
}

func (st *state) blockAt(p Position) (BlockInfo, bool) {
	if p.Block < 0 || p.Block >= len(st.blocks) {
		return BlockInfo{}, false
	}
	return st.blocks[p.Block].Info(), true
}

// typingMarks returns the marks text inserted at a collapsed cursor would get.
// Code blocks never carry marks.
func (st *state) typingMarks() MarkSet {
	p := st.sel.Head
	if p.Block < 0 || p.Block >= len(st.blocks) {
		return 0
	}
	b := st.blocks[p.Block]
	if b.Type == BlockCodeBlock {
		return 0
	}
	if st.hasStored {
		return st.stored
	}
	switch {
	case p.Offset > 0:
		return b.marksAt(p.Offset - 1)
	case b.Len() > 0:
		return b.marksAt(0)
	}
	return 0
}

// markState walks only the runs covered by the selection. Code blocks are
// skipped since marks cannot be applied to them.
func (st *state) markState(m MarkType) MarkState {
	if st.sel.Collapsed() {
		return MarkState{Collapsed: true, Inherited: st.typingMarks().Has(m)}
	}

	from, to := st.sel.From(), st.sel.To()
	var ms MarkState
	for bi := from.Block; bi <= to.Block && bi < len(st.blocks); bi++ {
		if st.blocks[bi].Type == BlockCodeBlock {
			continue
		}
		start, end := 0, -1
		if bi == from.Block {
			start = from.Offset
		}
		if bi == to.Block {
			end = to.Offset
		}

		pos := 0
		for _, r := range st.blocks[bi].Runs {
			n := utf8.RuneCountInString(r.Text)
			lo, hi := max(pos, start), pos+n
			if end >= 0 {
				hi = min(hi, end)
			}
			if hi > lo {
				ms.Total += hi - lo
				if r.Marks.Has(m) {
					ms.Marked += hi - lo
				}
			}
			pos += n
			if end >= 0 && pos >= end {
				break
			}
		}
	}
	return ms
}

// selectedBlocks returns the block indexes touched by the selection.
func (st *state) selectedBlocks() []int {
	from, to := st.sel.From(), st.sel.To()
	var out []int
	for bi := from.Block; bi <= to.Block && bi < len(st.blocks); bi++ {
		out = append(out, bi)
	}
	return out
}
