package catalog

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dshills/formtoolbar/internal/command"
	"github.com/dshills/formtoolbar/internal/document"
	"github.com/dshills/formtoolbar/internal/resolver"
)

func keys(entries []command.Entry) []string {
	out := make([]string, len(entries))
	for i, e := range entries {
		out[i] = e.Key()
	}
	return out
}

func find(t *testing.T, entries []command.Entry, key string) *command.Command {
	t.Helper()
	for _, e := range entries {
		if e.IsOption() && e.Key() == key {
			return e.Command
		}
	}
	t.Fatalf("command %q not found", key)
	return nil
}

func TestStandardOrder(t *testing.T) {
	entries, err := Standard(document.New(), DefaultOptions())
	require.NoError(t, err)

	assert.Equal(t, []string{
		"bold", "italic", "underline", "strike",
		CategoryHierarchy, "paragraph", "heading1", "heading2", "heading3", "heading4",
		CategoryLists, "bulletList", "orderedList",
		CategoryBlocks, "blockquote", "codeBlock",
	}, keys(entries))

	h2 := find(t, entries, "heading2")
	assert.Equal(t, "Heading 2", h2.Label)
	assert.Equal(t, "Heading2", h2.Icon)
	assert.Equal(t, command.GroupBlock, h2.Group)
	assert.Equal(t, command.GroupMark, find(t, entries, "strike").Group)
	assert.Equal(t, FallbackIcon, find(t, entries, "paragraph").Icon)
}

func TestStandardOptions(t *testing.T) {
	tests := []struct {
		name    string
		opts    Options
		want    []string
		wantErr error
	}{
		{
			name: "omit and levels",
			opts: Options{
				Marks:         []document.MarkType{document.MarkBold, document.MarkCode},
				HeadingLevels: []int{1},
				Omit:          []string{CategoryLists, "bulletList", "orderedList", "codeBlock"},
			},
			want: []string{"bold", "code", CategoryHierarchy, "paragraph", "heading1", CategoryBlocks, "blockquote"},
		},
		{
			name:    "invalid heading level",
			opts:    Options{HeadingLevels: []int{7}},
			wantErr: document.ErrInvalidBlock,
		},
		{
			name:    "invalid mark",
			opts:    Options{Marks: []document.MarkType{"shout"}},
			wantErr: document.ErrInvalidMark,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			entries, err := Standard(document.New(), tt.opts)
			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, keys(entries))
		})
	}
}

func TestStandardAppearance(t *testing.T) {
	opts := DefaultOptions()
	opts.Appearance = map[string]Appearance{
		"heading1":        {Label: "Title"},
		"bold":            {Icon: "B"},
		CategoryHierarchy: {Label: "Headings"},
	}
	entries, err := Standard(document.New(), opts)
	require.NoError(t, err)

	h1 := find(t, entries, "heading1")
	assert.Equal(t, "Title", h1.Label)
	assert.Equal(t, "Heading1", h1.Icon)

	bold := find(t, entries, "bold")
	assert.Equal(t, "Bold", bold.Label)
	assert.Equal(t, "B", bold.Icon)

	assert.Equal(t, "Headings", entries[4].Label())
}

func TestMarkCommandRoundTrip(t *testing.T) {
	s := document.New(document.Paragraph(document.Text("hello world")))
	require.NoError(t, s.Select(document.Range(document.Pos(0, 0), document.Pos(0, 5))))
	before := s.Blocks()

	bold := MarkCommand(s, "bold", "Bold", "Bold", document.MarkBold, resolver.RuleAll)
	assert.False(t, bold.Active())

	require.NoError(t, bold.Execute())
	assert.True(t, bold.Active())
	assert.True(t, s.Focused())

	require.NoError(t, bold.Execute())
	assert.False(t, bold.Active())
	assert.Equal(t, before, s.Blocks())
}

func TestBlockCommandToggles(t *testing.T) {
	s := document.New(document.Paragraph(document.Text("quote me")))
	quote := BlockCommand(s, "blockquote", "Quote", "Quote", document.BlockBlockquote, 0)

	require.NoError(t, quote.Execute())
	assert.True(t, quote.Active())
	info, ok := s.BlockAt(document.Pos(0, 0))
	require.True(t, ok)
	assert.Equal(t, document.BlockBlockquote, info.Type)

	require.NoError(t, quote.Execute())
	assert.False(t, quote.Active())
	info, _ = s.BlockAt(document.Pos(0, 0))
	assert.Equal(t, document.BlockParagraph, info.Type)
}

func TestParagraphHighlight(t *testing.T) {
	s := document.New(document.Paragraph(document.Text("plain")))

	entries, err := Standard(s, DefaultOptions())
	require.NoError(t, err)
	assert.False(t, find(t, entries, "paragraph").Active())

	opts := DefaultOptions()
	opts.HighlightParagraph = true
	entries, err = Standard(s, opts)
	require.NoError(t, err)
	assert.True(t, find(t, entries, "paragraph").Active())
}

func TestParagraphCommandResetsHeading(t *testing.T) {
	s := document.New(document.Heading(3, document.Text("title")))
	require.NoError(t, ParagraphCommand(s, "paragraph", FallbackLabel, FallbackIcon).Execute())

	info, ok := s.BlockAt(document.Pos(0, 0))
	require.True(t, ok)
	assert.Equal(t, document.BlockParagraph, info.Type)
	assert.Equal(t, 0, info.Level)
}

func TestDeriveLabel(t *testing.T) {
	tests := []struct {
		key  string
		want string
	}{
		{"orderedList", "Ordered List"},
		{"heading2", "Heading 2"},
		{"heading_2", "Heading 2"},
		{"call-out", "Call Out"},
		{"bold", "Bold"},
		{"", ""},
	}
	for _, tt := range tests {
		t.Run(tt.key, func(t *testing.T) {
			assert.Equal(t, tt.want, DeriveLabel(tt.key))
		})
	}
}
