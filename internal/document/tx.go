package document

import (
	"fmt"
	"unicode/utf8"
)

// Tx is an open transaction. Operations chain; the first failure is kept
// and every later operation becomes a no-op, so a failing chain leaves the
// committed document untouched.
//
//	err := session.Transact(func(tx *document.Tx) error {
//	    return tx.Focus().ToggleMark(document.MarkBold).Err()
//	})
type Tx struct {
	st      state
	changed ChangeKind
	err     error
}

// Err returns the first error recorded by a chained operation.
func (tx *Tx) Err() error {
	return tx.err
}

// Selection returns the draft selection.
func (tx *Tx) Selection() Selection {
	return tx.st.sel
}

// MarkState reports mark coverage against the draft.
func (tx *Tx) MarkState(m MarkType) MarkState {
	return tx.st.markState(m)
}

// BlockAt returns the draft block type at p.
func (tx *Tx) BlockAt(p Position) (BlockInfo, bool) {
	return tx.st.blockAt(p)
}

func (tx *Tx) fail(err error) *Tx {
	if tx.err == nil {
		tx.err = err
	}
	return tx
}

// Focus gives the editor focus.
func (tx *Tx) Focus() *Tx {
	if tx.err != nil {
		return tx
	}
	if !tx.st.focused {
		tx.st.focused = true
		tx.changed |= ChangeSelection
	}
	return tx
}

// Select moves the selection and clears typing state.
func (tx *Tx) Select(sel Selection) *Tx {
	if tx.err != nil {
		return tx
	}
	if err := tx.st.validPosition(sel.Anchor); err != nil {
		return tx.fail(err)
	}
	if err := tx.st.validPosition(sel.Head); err != nil {
		return tx.fail(err)
	}
	if sel != tx.st.sel || tx.st.hasStored {
		tx.st.sel = sel
		tx.st.stored, tx.st.hasStored = 0, false
		tx.changed |= ChangeSelection
	}
	return tx
}

// ToggleMark removes m when the whole selection carries it and adds it
// otherwise. On a collapsed cursor it toggles the typing state, except
// inside a code block where it does nothing.
func (tx *Tx) ToggleMark(m MarkType) *Tx {
	if tx.err != nil {
		return tx
	}
	if !m.Valid() {
		return tx.fail(fmt.Errorf("%w: %q", ErrInvalidMark, m))
	}

	if tx.st.sel.Collapsed() {
		if info, ok := tx.st.blockAt(tx.st.sel.Head); ok && info.Type == BlockCodeBlock {
			return tx
		}
		marks := tx.st.typingMarks()
		if marks.Has(m) {
			marks = marks.Without(m)
		} else {
			marks = marks.With(m)
		}
		tx.st.stored, tx.st.hasStored = marks, true
		tx.changed |= ChangeSelection
		return tx
	}

	ms := tx.st.markState(m)
	add := ms.Total == 0 || ms.Marked < ms.Total
	tx.applyMark(m, add)
	return tx
}

func (tx *Tx) applyMark(m MarkType, add bool) {
	from, to := tx.st.sel.From(), tx.st.sel.To()
	for _, bi := range tx.st.selectedBlocks() {
		b := &tx.st.blocks[bi]
		if b.Type == BlockCodeBlock {
			continue
		}
		runes, marks := b.explode()
		start, end := 0, len(runes)
		if bi == from.Block {
			start = from.Offset
		}
		if bi == to.Block {
			end = min(to.Offset, len(runes))
		}
		dirty := false
		for i := start; i < end; i++ {
			next := marks[i].Without(m)
			if add {
				next = marks[i].With(m)
			}
			if next != marks[i] {
				marks[i] = next
				dirty = true
			}
		}
		if dirty {
			b.Runs = implode(runes, marks)
			tx.changed |= ChangeContent
		}
	}
}

// SetBlock converts every selected block to t. Level applies to headings.
// Converting to a code block strips inline marks.
func (tx *Tx) SetBlock(t BlockType, level int) *Tx {
	if tx.err != nil {
		return tx
	}
	if err := validateBlock(t, level); err != nil {
		return tx.fail(err)
	}
	if t != BlockHeading {
		level = 0
	}

	for _, bi := range tx.st.selectedBlocks() {
		b := &tx.st.blocks[bi]
		if b.Type == t && b.Level == level {
			continue
		}
		b.Type, b.Level = t, level
		if t == BlockCodeBlock {
			b.Runs = normalize([]Run{{Text: b.PlainText()}})
		}
		tx.changed |= ChangeContent
	}
	return tx
}

// ToggleBlock sets t, or reverts to a paragraph when the anchor block
// already is t (at the same heading level).
func (tx *Tx) ToggleBlock(t BlockType, level int) *Tx {
	if tx.err != nil {
		return tx
	}
	if err := validateBlock(t, level); err != nil {
		return tx.fail(err)
	}
	if info, ok := tx.st.blockAt(tx.st.sel.Anchor); ok && info.Is(t, level) && t != BlockParagraph {
		return tx.SetBlock(BlockParagraph, 0)
	}
	return tx.SetBlock(t, level)
}

// InsertText replaces the selection with text carrying the typing marks and
// leaves a collapsed cursor after it.
func (tx *Tx) InsertText(text string) *Tx {
	if tx.err != nil {
		return tx
	}

	marks := tx.st.typingMarks()
	if !tx.st.sel.Collapsed() {
		from := tx.st.sel.From()
		marks = tx.st.blocks[from.Block].marksAt(from.Offset)
		tx.deleteSelection()
	}

	p := tx.st.sel.Head
	b := &tx.st.blocks[p.Block]
	if b.Type == BlockCodeBlock {
		marks = 0
	}
	runes, ms := b.explode()
	ins := []rune(text)
	insMarks := make([]MarkSet, len(ins))
	for i := range insMarks {
		insMarks[i] = marks
	}

	runes = append(runes[:p.Offset], append(ins, runes[p.Offset:]...)...)
	ms = append(ms[:p.Offset], append(insMarks, ms[p.Offset:]...)...)
	b.Runs = implode(runes, ms)

	tx.st.sel = Cursor(Pos(p.Block, p.Offset+utf8.RuneCountInString(text)))
	tx.st.stored, tx.st.hasStored = 0, false
	tx.changed |= ChangeContent | ChangeSelection
	return tx
}

// deleteSelection removes the selected text, joining the end block into
// the start block.
func (tx *Tx) deleteSelection() {
	from, to := tx.st.sel.From(), tx.st.sel.To()
	first := &tx.st.blocks[from.Block]
	runes, ms := first.explode()
	lastRunes, lastMs := tx.st.blocks[to.Block].explode()

	runes = append(runes[:from.Offset:from.Offset], lastRunes[to.Offset:]...)
	ms = append(ms[:from.Offset:from.Offset], lastMs[to.Offset:]...)
	first.Runs = implode(runes, ms)

	if to.Block > from.Block {
		tx.st.blocks = append(tx.st.blocks[:from.Block+1], tx.st.blocks[to.Block+1:]...)
	}
	tx.st.sel = Cursor(from)
	tx.changed |= ChangeContent | ChangeSelection
}
