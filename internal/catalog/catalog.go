// Package catalog builds the standard toolbar command set for a session:
// inline mark toggles and the categorized block-type menu.
package catalog

import (
	"fmt"
	"slices"

	"github.com/dshills/formtoolbar/internal/command"
	"github.com/dshills/formtoolbar/internal/document"
	"github.com/dshills/formtoolbar/internal/resolver"
)

// Default menu appearance.
const (
	FallbackIcon  = "Pilcrow"
	FallbackLabel = "Text"
	Separator     = "|"
)

// Category keys.
const (
	CategoryHierarchy = "hierarchy"
	CategoryLists     = "lists"
	CategoryBlocks    = "blocks"
)

// DefaultButtons is the toggle bar layout; Separator splits groups.
var DefaultButtons = []string{"bold", "italic", "underline", "strike", Separator, "codeBlock", "blockquote"}

// DefaultMarks are the inline marks offered as buttons.
var DefaultMarks = []document.MarkType{
	document.MarkBold, document.MarkItalic, document.MarkUnderline, document.MarkStrike,
}

// DefaultHeadingLevels are the heading levels offered in the menu.
var DefaultHeadingLevels = []int{1, 2, 3, 4}

// Appearance overrides the label and icon of an entry.
type Appearance struct {
	Label string
	Icon  string
}

// Options configures the standard set.
type Options struct {
	// Marks lists inline marks, in button order.
	Marks []document.MarkType

	// HeadingLevels lists heading levels, in menu order.
	HeadingLevels []int

	// Rule decides mark activation on ranged selections.
	Rule resolver.MarkRule

	// HighlightParagraph wires the "Text" option to the paragraph predicate.
	// When false the option never reports active and a plain paragraph shows
	// the fallback icon.
	HighlightParagraph bool

	// Omit drops entries by key.
	Omit []string

	// Appearance overrides labels and icons by key.
	Appearance map[string]Appearance
}

// DefaultOptions returns the stock toolbar.
func DefaultOptions() Options {
	return Options{
		Marks:         slices.Clone(DefaultMarks),
		HeadingLevels: slices.Clone(DefaultHeadingLevels),
		Rule:          resolver.RuleAll,
	}
}

var markAppearance = map[document.MarkType]Appearance{
	document.MarkBold:      {"Bold", "Bold"},
	document.MarkItalic:    {"Italic", "Italic"},
	document.MarkUnderline: {"Underline", "Underline"},
	document.MarkStrike:    {"Strikethrough", "Strikethrough"},
	document.MarkCode:      {"Inline code", "CodeXml"},
}

// Standard returns the ordered entries for s: mark commands first, then the
// block menu grouped under Hierarchy, Lists and Blocks.
func Standard(s command.Session, opts Options) ([]command.Entry, error) {
	b := builder{session: s, opts: opts}

	for _, m := range opts.Marks {
		if !m.Valid() {
			return nil, fmt.Errorf("catalog: %w: %q", document.ErrInvalidMark, m)
		}
		a := markAppearance[m]
		b.option(MarkCommand(s, string(m), a.Label, a.Icon, m, opts.Rule))
	}

	b.category(CategoryHierarchy, "Hierarchy")
	paragraph := ParagraphCommand(s, "paragraph", FallbackLabel, FallbackIcon)
	if !opts.HighlightParagraph {
		paragraph.IsActive = resolver.Never
	}
	b.option(paragraph)
	for _, level := range opts.HeadingLevels {
		if level < 1 || level > document.MaxHeadingLevel {
			return nil, fmt.Errorf("catalog: %w: heading level %d", document.ErrInvalidBlock, level)
		}
		b.option(BlockCommand(s, fmt.Sprintf("heading%d", level), fmt.Sprintf("Heading %d", level),
			fmt.Sprintf("Heading%d", level), document.BlockHeading, level))
	}

	b.category(CategoryLists, "Lists")
	b.option(BlockCommand(s, "bulletList", "Bullet List", "List", document.BlockBulletList, 0))
	b.option(BlockCommand(s, "orderedList", "Numbered List", "ListOrdered", document.BlockOrderedList, 0))

	b.category(CategoryBlocks, "Blocks")
	b.option(BlockCommand(s, "blockquote", "Quote", "Quote", document.BlockBlockquote, 0))
	b.option(BlockCommand(s, "codeBlock", "Code", "Code", document.BlockCodeBlock, 0))

	return b.entries, nil
}

type builder struct {
	session command.Session
	opts    Options
	entries []command.Entry
}

func (b *builder) omitted(key string) bool {
	return slices.Contains(b.opts.Omit, key)
}

func (b *builder) option(c *command.Command) {
	if b.omitted(c.Key) {
		return
	}
	if a, ok := b.opts.Appearance[c.Key]; ok {
		if a.Label != "" {
			c.Label = a.Label
		}
		if a.Icon != "" {
			c.Icon = a.Icon
		}
	}
	b.entries = append(b.entries, command.Option(c))
}

func (b *builder) category(key, label string) {
	if b.omitted(key) {
		return
	}
	if a, ok := b.opts.Appearance[key]; ok && a.Label != "" {
		label = a.Label
	}
	b.entries = append(b.entries, command.Category(key, label))
}

// MarkCommand toggles inline mark m.
func MarkCommand(s command.Session, key, label, icon string, m document.MarkType, rule resolver.MarkRule) *command.Command {
	return &command.Command{
		Key:      key,
		Label:    label,
		Icon:     icon,
		Group:    command.GroupMark,
		IsActive: resolver.Mark(s, m, rule),
		Execute: func() error {
			return s.Transact(func(tx *document.Tx) error {
				return tx.Focus().ToggleMark(m).Err()
			})
		},
	}
}

// BlockCommand toggles the selected blocks to t; selecting it while active
// reverts to a paragraph.
func BlockCommand(s command.Session, key, label, icon string, t document.BlockType, level int) *command.Command {
	return &command.Command{
		Key:      key,
		Label:    label,
		Icon:     icon,
		Group:    command.GroupBlock,
		IsActive: resolver.Block(s, t, level),
		Execute: func() error {
			return s.Transact(func(tx *document.Tx) error {
				return tx.Focus().ToggleBlock(t, level).Err()
			})
		},
	}
}

// ParagraphCommand converts the selected blocks to paragraphs.
func ParagraphCommand(s command.Session, key, label, icon string) *command.Command {
	return &command.Command{
		Key:      key,
		Label:    label,
		Icon:     icon,
		Group:    command.GroupBlock,
		IsActive: resolver.Block(s, document.BlockParagraph, 0),
		Execute: func() error {
			return s.Transact(func(tx *document.Tx) error {
				return tx.Focus().SetBlock(document.BlockParagraph, 0).Err()
			})
		},
	}
}
