package document

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleSession() *Session {
	return New(
		Heading(1, Text("Title")),
		Paragraph(Text("plain "), Marked("bold", MarkBold), Text(" tail")),
		NewBlock(BlockBlockquote, 0, Text("quoted")),
		NewBlock(BlockCodeBlock, 0, Text("x := 1")),
	)
}

func TestNewEmptyDocument(t *testing.T) {
	s := New()
	require.Equal(t, 1, s.Len())
	info, ok := s.BlockAt(Pos(0, 0))
	require.True(t, ok)
	assert.Equal(t, BlockParagraph, info.Type)
	assert.NotEmpty(t, s.ID())
}

func TestBlockAt(t *testing.T) {
	s := sampleSession()

	tests := []struct {
		pos  Position
		want BlockInfo
		ok   bool
	}{
		{Pos(0, 2), BlockInfo{Type: BlockHeading, Level: 1}, true},
		{Pos(1, 0), BlockInfo{Type: BlockParagraph}, true},
		{Pos(2, 3), BlockInfo{Type: BlockBlockquote}, true},
		{Pos(3, 0), BlockInfo{Type: BlockCodeBlock}, true},
		{Pos(9, 0), BlockInfo{}, false},
		{Pos(-1, 0), BlockInfo{}, false},
	}

	for _, tt := range tests {
		got, ok := s.BlockAt(tt.pos)
		assert.Equal(t, tt.ok, ok, "pos %s", tt.pos)
		assert.Equal(t, tt.want, got, "pos %s", tt.pos)
	}
}

func TestMarkStateRange(t *testing.T) {
	s := sampleSession()

	// "plain bold tail": bold covers offsets 6..10.
	tests := []struct {
		name   string
		sel    Selection
		marked int
		total  int
	}{
		{"fully bold", Range(Pos(1, 6), Pos(1, 10)), 4, 4},
		{"backwards fully bold", Range(Pos(1, 10), Pos(1, 6)), 4, 4},
		{"partial", Range(Pos(1, 4), Pos(1, 8)), 2, 4},
		{"none", Range(Pos(1, 0), Pos(1, 5)), 0, 5},
		{"across blocks", Range(Pos(0, 3), Pos(1, 7)), 1, 9},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.NoError(t, s.Select(tt.sel))
			ms := s.MarkState(MarkBold)
			assert.False(t, ms.Collapsed)
			assert.Equal(t, tt.marked, ms.Marked)
			assert.Equal(t, tt.total, ms.Total)
		})
	}
}

func TestMarkStateCollapsedUsesPrecedingCharacter(t *testing.T) {
	s := sampleSession()

	tests := []struct {
		pos  Position
		want bool
	}{
		{Pos(1, 6), false}, // after "plain "
		{Pos(1, 7), true},  // inside "bold"
		{Pos(1, 10), true}, // right after "bold"
		{Pos(1, 11), false},
		{Pos(1, 0), false},
	}

	for _, tt := range tests {
		require.NoError(t, s.Select(Cursor(tt.pos)))
		ms := s.MarkState(MarkBold)
		assert.True(t, ms.Collapsed)
		assert.Equal(t, tt.want, ms.Inherited, "pos %s", tt.pos)
	}
}

func TestMarkStateCollapsedAtBlockStartUsesFollowingCharacter(t *testing.T) {
	s := New(Paragraph(Marked("b", MarkBold), Text("x")))
	assert.True(t, s.MarkState(MarkBold).Inherited)
}

func TestToggleMarkRangeTwiceRestores(t *testing.T) {
	s := sampleSession()
	require.NoError(t, s.Select(Range(Pos(1, 0), Pos(1, 5))))
	before := s.Blocks()

	toggle := func() {
		require.NoError(t, s.Transact(func(tx *Tx) error {
			return tx.Focus().ToggleMark(MarkItalic).Err()
		}))
	}

	toggle()
	ms := s.MarkState(MarkItalic)
	assert.Equal(t, ms.Total, ms.Marked)
	assert.True(t, s.Focused())

	toggle()
	assert.Equal(t, 0, s.MarkState(MarkItalic).Marked)
	assert.Equal(t, before, s.Blocks())
}

func TestToggleMarkPartialAddsEverywhere(t *testing.T) {
	s := sampleSession()
	require.NoError(t, s.Select(Range(Pos(1, 4), Pos(1, 8))))

	require.NoError(t, s.Transact(func(tx *Tx) error { return tx.ToggleMark(MarkBold).Err() }))

	ms := s.MarkState(MarkBold)
	assert.Equal(t, 4, ms.Marked)
	assert.Equal(t, 4, ms.Total)
}

func TestToggleMarkCollapsedSetsTypingState(t *testing.T) {
	s := sampleSession()
	require.NoError(t, s.Select(Cursor(Pos(1, 2))))

	require.NoError(t, s.Transact(func(tx *Tx) error { return tx.ToggleMark(MarkBold).Err() }))
	assert.True(t, s.MarkState(MarkBold).Inherited)

	require.NoError(t, s.Transact(func(tx *Tx) error { return tx.InsertText("!!").Err() }))
	blocks := s.Blocks()
	assert.Equal(t, "pl!!ain bold tail", blocks[1].PlainText())
	assert.Equal(t, Run{Text: "!!", Marks: NewMarkSet(MarkBold)}, blocks[1].Runs[1])
	assert.Equal(t, Cursor(Pos(1, 4)), s.Selection())
}

func TestSelectClearsTypingState(t *testing.T) {
	s := sampleSession()
	require.NoError(t, s.Select(Cursor(Pos(1, 2))))
	require.NoError(t, s.Transact(func(tx *Tx) error { return tx.ToggleMark(MarkBold).Err() }))
	require.True(t, s.MarkState(MarkBold).Inherited)

	require.NoError(t, s.Select(Cursor(Pos(1, 2))))
	assert.False(t, s.MarkState(MarkBold).Inherited)
}

func TestToggleMarkSkipsCodeBlock(t *testing.T) {
	s := sampleSession()
	require.NoError(t, s.Select(Range(Pos(3, 0), Pos(3, 6))))
	require.NoError(t, s.Transact(func(tx *Tx) error { return tx.ToggleMark(MarkBold).Err() }))
	assert.Equal(t, uint64(1), s.Version())
}

func TestToggleMarkTwiceAcrossCodeBlock(t *testing.T) {
	s := New(Paragraph(Text("ab")), NewBlock(BlockCodeBlock, 0, Text("cd")))
	require.NoError(t, s.Select(Range(Pos(0, 0), Pos(1, 2))))
	before := s.Blocks()

	toggle := func(tx *Tx) error { return tx.ToggleMark(MarkBold).Err() }

	require.NoError(t, s.Transact(toggle))
	assert.Equal(t, []Run{Marked("ab", MarkBold)}, s.Blocks()[0].Runs)
	assert.Equal(t, MarkState{Marked: 2, Total: 2}, s.MarkState(MarkBold))

	require.NoError(t, s.Transact(toggle))
	assert.Equal(t, before, s.Blocks())
	assert.Equal(t, MarkState{Total: 2}, s.MarkState(MarkBold))
}

func TestToggleMarkAtCursorInCodeBlock(t *testing.T) {
	s := sampleSession()
	require.NoError(t, s.Select(Cursor(Pos(3, 2))))

	require.NoError(t, s.Transact(func(tx *Tx) error { return tx.Focus().ToggleMark(MarkBold).Err() }))
	assert.False(t, s.MarkState(MarkBold).Inherited)

	require.NoError(t, s.Transact(func(tx *Tx) error { return tx.InsertText("y").Err() }))
	assert.Equal(t, []Run{Text("x y:= 1")}, s.Blocks()[3].Runs)
	assert.False(t, s.MarkState(MarkBold).Inherited)
}

func TestSetAndToggleBlock(t *testing.T) {
	s := sampleSession()
	require.NoError(t, s.Select(Cursor(Pos(2, 1))))

	require.NoError(t, s.Transact(func(tx *Tx) error {
		return tx.Focus().ToggleBlock(BlockHeading, 2).Err()
	}))
	info, _ := s.BlockAt(Pos(2, 0))
	assert.Equal(t, BlockInfo{Type: BlockHeading, Level: 2}, info)

	require.NoError(t, s.Transact(func(tx *Tx) error {
		return tx.ToggleBlock(BlockHeading, 2).Err()
	}))
	info, _ = s.BlockAt(Pos(2, 0))
	assert.Equal(t, BlockInfo{Type: BlockParagraph}, info)
}

func TestSetBlockCodeStripsMarks(t *testing.T) {
	s := sampleSession()
	require.NoError(t, s.Select(Cursor(Pos(1, 0))))
	require.NoError(t, s.Transact(func(tx *Tx) error { return tx.SetBlock(BlockCodeBlock, 0).Err() }))

	b := s.Blocks()[1]
	assert.Equal(t, BlockCodeBlock, b.Type)
	assert.Equal(t, []Run{{Text: "plain bold tail"}}, b.Runs)
}

func TestSetBlockAppliesToEverySelectedBlock(t *testing.T) {
	s := sampleSession()
	require.NoError(t, s.Select(Range(Pos(0, 0), Pos(2, 1))))
	require.NoError(t, s.Transact(func(tx *Tx) error { return tx.SetBlock(BlockBulletList, 3).Err() }))

	for i := 0; i < 3; i++ {
		info, _ := s.BlockAt(Pos(i, 0))
		assert.Equal(t, BlockInfo{Type: BlockBulletList}, info)
	}
	info, _ := s.BlockAt(Pos(3, 0))
	assert.Equal(t, BlockCodeBlock, info.Type)
}

func TestTransactIsAtomic(t *testing.T) {
	s := sampleSession()
	require.NoError(t, s.Select(Range(Pos(1, 0), Pos(1, 5))))
	before := s.Blocks()
	version := s.Version()

	notified := 0
	cancel := s.OnChange(func(Change) { notified++ })
	defer cancel()

	err := s.Transact(func(tx *Tx) error {
		return tx.ToggleMark(MarkBold).SetBlock(BlockHeading, 9).ToggleMark(MarkItalic).Err()
	})
	require.ErrorIs(t, err, ErrInvalidBlock)

	assert.Equal(t, before, s.Blocks())
	assert.Equal(t, version, s.Version())
	assert.Zero(t, notified)

	boom := errors.New("boom")
	err = s.Transact(func(tx *Tx) error {
		tx.ToggleMark(MarkBold)
		return boom
	})
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, before, s.Blocks())
}

func TestTransactDoesNotNest(t *testing.T) {
	s := sampleSession()
	err := s.Transact(func(tx *Tx) error {
		return s.Transact(func(*Tx) error { return nil })
	})
	assert.ErrorIs(t, err, ErrTransactionInProgress)
}

func TestDraftIsInvisibleUntilCommit(t *testing.T) {
	s := sampleSession()
	require.NoError(t, s.Select(Range(Pos(1, 0), Pos(1, 5))))

	require.NoError(t, s.Transact(func(tx *Tx) error {
		tx.ToggleMark(MarkBold)
		assert.Equal(t, 5, tx.MarkState(MarkBold).Marked)
		assert.Equal(t, 0, s.MarkState(MarkBold).Marked)
		return nil
	}))
	assert.Equal(t, 5, s.MarkState(MarkBold).Marked)
}

func TestOnChangeNotifiesOncePerCommit(t *testing.T) {
	s := sampleSession()

	var changes []Change
	cancel := s.OnChange(func(c Change) { changes = append(changes, c) })

	require.NoError(t, s.Select(Range(Pos(1, 0), Pos(1, 5))))
	require.NoError(t, s.Transact(func(tx *Tx) error {
		return tx.Focus().ToggleMark(MarkBold).ToggleMark(MarkItalic).Err()
	}))
	require.NoError(t, s.Transact(func(tx *Tx) error { return nil }))

	require.Len(t, changes, 2)
	assert.Equal(t, ChangeSelection, changes[0].Kind)
	assert.True(t, changes[1].Kind.Has(ChangeContent))
	assert.True(t, changes[1].Kind.Has(ChangeSelection))
	assert.Equal(t, uint64(2), changes[1].Version)

	cancel()
	s.Blur()
	assert.Len(t, changes, 2)
	assert.False(t, s.Focused())
}

func TestSelectRejectsInvalidPosition(t *testing.T) {
	s := sampleSession()

	err := s.Select(Cursor(Pos(1, 99)))
	require.ErrorIs(t, err, ErrInvalidPosition)

	var pe *PositionError
	require.ErrorAs(t, err, &pe)
	assert.Equal(t, Pos(1, 99), pe.Pos)
	assert.Equal(t, Cursor(Pos(0, 0)), s.Selection())
}

func TestInsertTextReplacesSelectionAcrossBlocks(t *testing.T) {
	s := New(Paragraph(Text("hello")), Paragraph(Text("world")), Paragraph(Text("end")))
	require.NoError(t, s.Select(Range(Pos(0, 2), Pos(1, 3))))

	require.NoError(t, s.Transact(func(tx *Tx) error { return tx.InsertText("y").Err() }))

	blocks := s.Blocks()
	require.Len(t, blocks, 2)
	assert.Equal(t, "heyld", blocks[0].PlainText())
	assert.Equal(t, Cursor(Pos(0, 3)), s.Selection())
}

func TestMarkSet(t *testing.T) {
	set := NewMarkSet(MarkItalic, MarkBold, MarkType("nope"))
	assert.True(t, set.Has(MarkBold))
	assert.False(t, set.Has(MarkType("nope")))
	assert.Equal(t, []MarkType{MarkBold, MarkItalic}, set.Types())
	assert.Equal(t, "{bold,italic}", set.String())
	assert.Equal(t, "{italic}", set.Without(MarkBold).String())
}
