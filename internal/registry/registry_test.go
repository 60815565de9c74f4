package registry

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dshills/formtoolbar/internal/command"
)

func cmd(key string, group command.Group) *command.Command {
	return &command.Command{
		Key:      key,
		Label:    key,
		Group:    group,
		IsActive: func() bool { return false },
		Execute:  func() error { return nil },
	}
}

func TestNewPreservesOrder(t *testing.T) {
	r, err := New(
		command.Category("hierarchy", "Hierarchy"),
		command.Option(cmd("paragraph", command.GroupBlock)),
		command.Option(cmd("bold", command.GroupMark)),
		command.Option(cmd("heading1", command.GroupBlock)),
		command.Category("lists", "Lists"),
		command.Option(cmd("bulletList", command.GroupBlock)),
		command.Option(cmd("italic", command.GroupMark)),
	)
	require.NoError(t, err)

	assert.Equal(t, []string{"hierarchy", "paragraph", "bold", "heading1", "lists", "bulletList", "italic"}, r.Keys())
	assert.Equal(t, 7, r.Len())

	var menu []string
	for _, e := range r.Menu() {
		menu = append(menu, e.Key())
	}
	assert.Equal(t, []string{"hierarchy", "paragraph", "heading1", "lists", "bulletList"}, menu)

	var marks []string
	for _, c := range r.Marks() {
		marks = append(marks, c.Key)
	}
	assert.Equal(t, []string{"bold", "italic"}, marks)
	assert.Len(t, r.Commands(), 5)
}

func TestNewRejectsDuplicateKeys(t *testing.T) {
	tests := []struct {
		name    string
		entries []command.Entry
		key     string
	}{
		{
			"two commands",
			[]command.Entry{command.Option(cmd("bold", command.GroupMark)), command.Option(cmd("bold", command.GroupMark))},
			"bold",
		},
		{
			"command and category",
			[]command.Entry{command.Category("lists", "Lists"), command.Option(cmd("lists", command.GroupBlock))},
			"lists",
		},
		{
			"two categories far apart",
			[]command.Entry{
				command.Category("c", "C"),
				command.Option(cmd("a", command.GroupBlock)),
				command.Option(cmd("b", command.GroupBlock)),
				command.Category("c", "C again"),
			},
			"c",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r, err := New(tt.entries...)
			require.Error(t, err)
			assert.Nil(t, r)
			assert.ErrorIs(t, err, ErrDuplicateKey)

			var dup *DuplicateKeyError
			require.True(t, errors.As(err, &dup))
			assert.Equal(t, tt.key, dup.Key)
			assert.Less(t, dup.First, dup.Second)
		})
	}
}

func TestNewRejectsInvalidEntries(t *testing.T) {
	_, err := New(command.Option(cmd("", command.GroupMark)))
	assert.ErrorIs(t, err, ErrEmptyKey)

	_, err = New(command.Entry{Kind: command.KindOption})
	assert.ErrorIs(t, err, ErrInvalidEntry)

	assert.Panics(t, func() {
		MustNew(command.Category("x", "X"), command.Category("x", "X"))
	})
}

func TestLookupIsTotalForRegisteredKeys(t *testing.T) {
	r := MustNew(
		command.Option(cmd("bold", command.GroupMark)),
		command.Category("blocks", "Blocks"),
		command.Option(cmd("blockquote", command.GroupBlock)),
	)

	for _, c := range r.Commands() {
		got, ok := r.Lookup(c.Key)
		require.True(t, ok, c.Key)
		assert.Same(t, c, got)
	}

	_, ok := r.Lookup("blocks")
	assert.False(t, ok, "categories are not commands")
	assert.False(t, r.Has("nonexistent"))
}

func TestRegistryCopiesCommands(t *testing.T) {
	c := cmd("bold", command.GroupMark)
	r := MustNew(command.Option(c))

	c.Label = "changed"
	got, _ := r.Lookup("bold")
	assert.Equal(t, "bold", got.Label)
}

func TestLabelsAreSanitized(t *testing.T) {
	c := cmd("heading1", command.GroupBlock)
	c.Label = `Heading <b>1</b><script>alert(1)</script>`
	r := MustNew(command.Option(c), command.Category("misc", `Tools &amp; <i onclick="x()">more</i>`))

	got, _ := r.Lookup("heading1")
	assert.Equal(t, "Heading <b>1</b>", got.Label)
	assert.Equal(t, "Heading 1", r.PlainLabel("heading1"))

	menu := r.Menu()
	assert.Equal(t, "Tools &amp; <i>more</i>", menu[1].Label())
	assert.Equal(t, "Tools & more", r.PlainLabel("misc"))
}
