package document

import (
	"fmt"
	"strings"
	"unicode/utf8"
)

// MarkType identifies an inline mark.
type MarkType string

// Inline marks.
const (
	MarkBold      MarkType = "bold"
	MarkItalic    MarkType = "italic"
	MarkUnderline MarkType = "underline"
	MarkStrike    MarkType = "strike"
	MarkCode      MarkType = "code"
)

// markOrder fixes bit positions and export order.
var markOrder = []MarkType{MarkBold, MarkItalic, MarkUnderline, MarkStrike, MarkCode}

// Valid reports whether m is a known mark.
func (m MarkType) Valid() bool {
	return m.bit() != 0
}

func (m MarkType) bit() MarkSet {
	for i, known := range markOrder {
		if known == m {
			return 1 << i
		}
	}
	return 0
}

// MarkSet is a set of marks.
type MarkSet uint8

// NewMarkSet builds a set from marks. Unknown marks are ignored.
func NewMarkSet(marks ...MarkType) MarkSet {
	var s MarkSet
	for _, m := range marks {
		s |= m.bit()
	}
	return s
}

// Has reports whether m is in the set.
func (s MarkSet) Has(m MarkType) bool {
	b := m.bit()
	return b != 0 && s&b != 0
}

// With returns the set with m added.
func (s MarkSet) With(m MarkType) MarkSet { return s | m.bit() }

// Without returns the set with m removed.
func (s MarkSet) Without(m MarkType) MarkSet { return s &^ m.bit() }

// Types returns the marks in canonical order.
func (s MarkSet) Types() []MarkType {
	var out []MarkType
	for _, m := range markOrder {
		if s.Has(m) {
			out = append(out, m)
		}
	}
	return out
}

// String implements fmt.Stringer.
func (s MarkSet) String() string {
	types := s.Types()
	parts := make([]string, len(types))
	for i, m := range types {
		parts[i] = string(m)
	}
	return "{" + strings.Join(parts, ",") + "}"
}

// BlockType identifies the kind of a block.
type BlockType string

// Block types.
const (
	BlockParagraph   BlockType = "paragraph"
	BlockHeading     BlockType = "heading"
	BlockBlockquote  BlockType = "blockquote"
	BlockCodeBlock   BlockType = "codeBlock"
	BlockBulletList  BlockType = "bulletList"
	BlockOrderedList BlockType = "orderedList"
)

// MaxHeadingLevel is the deepest heading the document accepts.
const MaxHeadingLevel = 6

// Valid reports whether t is a known block type.
func (t BlockType) Valid() bool {
	switch t {
	case BlockParagraph, BlockHeading, BlockBlockquote, BlockCodeBlock, BlockBulletList, BlockOrderedList:
		return true
	}
	return false
}

// IsList reports whether t is a list item type.
func (t BlockType) IsList() bool {
	return t == BlockBulletList || t == BlockOrderedList
}

// BlockInfo describes the type of the block containing a position.
type BlockInfo struct {
	Type  BlockType
	Level int
}

// Is reports whether the block matches t and, for headings, level.
func (b BlockInfo) Is(t BlockType, level int) bool {
	if b.Type != t {
		return false
	}
	return t != BlockHeading || b.Level == level
}

// String implements fmt.Stringer.
func (b BlockInfo) String() string {
	if b.Type == BlockHeading {
		return fmt.Sprintf("heading%d", b.Level)
	}
	return string(b.Type)
}

func validateBlock(t BlockType, level int) error {
	if !t.Valid() {
		return fmt.Errorf("%w: %q", ErrInvalidBlock, t)
	}
	if t == BlockHeading && (level < 1 || level > MaxHeadingLevel) {
		return fmt.Errorf("%w: heading level %d", ErrInvalidBlock, level)
	}
	return nil
}

// Run is a span of text sharing one mark set.
type Run struct {
	Text  string
	Marks MarkSet
}

// Block is one top-level block of the document.
type Block struct {
	Type  BlockType
	Level int
	Runs  []Run
}

// Paragraph builds a paragraph block.
func Paragraph(runs ...Run) Block {
	return Block{Type: BlockParagraph, Runs: normalize(runs)}
}

// Heading builds a heading block.
func Heading(level int, runs ...Run) Block {
	return Block{Type: BlockHeading, Level: level, Runs: normalize(runs)}
}

// NewBlock builds a block of any type.
func NewBlock(t BlockType, level int, runs ...Run) Block {
	if t != BlockHeading {
		level = 0
	}
	return Block{Type: t, Level: level, Runs: normalize(runs)}
}

// Text builds an unmarked run.
func Text(s string) Run { return Run{Text: s} }

// Marked builds a run carrying marks.
func Marked(s string, marks ...MarkType) Run { return Run{Text: s, Marks: NewMarkSet(marks...)} }

// Info returns the type information of the block.
func (b Block) Info() BlockInfo {
	return BlockInfo{Type: b.Type, Level: b.Level}
}

// Len returns the block length in runes.
func (b Block) Len() int {
	n := 0
	for _, r := range b.Runs {
		n += utf8.RuneCountInString(r.Text)
	}
	return n
}

// PlainText returns the block text without marks.
func (b Block) PlainText() string {
	var sb strings.Builder
	for _, r := range b.Runs {
		sb.WriteString(r.Text)
	}
	return sb.String()
}

func (b Block) clone() Block {
	out := b
	out.Runs = append([]Run(nil), b.Runs...)
	return out
}

// marksAt returns the marks of the rune at index i.
func (b Block) marksAt(i int) MarkSet {
	for _, r := range b.Runs {
		n := utf8.RuneCountInString(r.Text)
		if i < n {
			return r.Marks
		}
		i -= n
	}
	return 0
}

// explode returns per-rune text and marks.
func (b Block) explode() ([]rune, []MarkSet) {
	var runes []rune
	var marks []MarkSet
	for _, r := range b.Runs {
		for _, c := range r.Text {
			runes = append(runes, c)
			marks = append(marks, r.Marks)
		}
	}
	return runes, marks
}

// implode rebuilds runs from per-rune text and marks.
func implode(runes []rune, marks []MarkSet) []Run {
	var runs []Run
	for i := 0; i < len(runes); {
		j := i
		for j < len(runes) && marks[j] == marks[i] {
			j++
		}
		runs = append(runs, Run{Text: string(runes[i:j]), Marks: marks[i]})
		i = j
	}
	return runs
}

// normalize drops empty runs and merges neighbours with equal marks.
func normalize(runs []Run) []Run {
	var out []Run
	for _, r := range runs {
		if r.Text == "" {
			continue
		}
		if n := len(out); n > 0 && out[n-1].Marks == r.Marks {
			out[n-1].Text += r.Text
			continue
		}
		out = append(out, r)
	}
	return out
}
