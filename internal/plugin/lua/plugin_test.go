package lua

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dshills/formtoolbar/internal/catalog"
	"github.com/dshills/formtoolbar/internal/command"
	"github.com/dshills/formtoolbar/internal/document"
	"github.com/dshills/formtoolbar/internal/registry"
)

const script = `
return {
  { kind = "category", key = "custom", label = "Custom" },
  { key = "heading5", icon = "Heading5", category = "hierarchy", block = "heading", level = 5 },
  { key = "highlight", label = "Highlight", mark = "code" },
  { key = "shout", label = "Shout", category = "custom",
    is_active = function() return session.block() == "heading" and session.level() == 1 end,
    execute = function()
      session.set_block("heading", 1)
      session.toggle_mark("bold")
      session.insert_text("!")
    end },
}
`

func newPlugin(t *testing.T, s *document.Session, opts ...Option) *Plugin {
	t.Helper()
	p, err := New(s, opts...)
	require.NoError(t, err)
	t.Cleanup(func() { _ = p.Close() })
	return p
}

func TestLoadContributions(t *testing.T) {
	s := document.New(document.Paragraph(document.Text("hi")))
	p := newPlugin(t, s)

	contribs, err := p.LoadString("custom.lua", script)
	require.NoError(t, err)
	require.Len(t, contribs, 4)

	assert.True(t, contribs[0].Entry.IsCategory())
	assert.Equal(t, "Custom", contribs[0].Entry.Label())

	h5 := contribs[1]
	assert.Equal(t, "hierarchy", h5.After)
	assert.Equal(t, "Heading 5", h5.Entry.Command.Label)
	assert.Equal(t, command.GroupBlock, h5.Entry.Command.Group)

	assert.Equal(t, command.GroupMark, contribs[2].Entry.Command.Group)
	assert.Equal(t, "custom", contribs[3].After)
}

func TestScriptedExecuteIsOneTransaction(t *testing.T) {
	s := document.New(document.Paragraph(document.Text("hi")))
	require.NoError(t, s.Select(document.Cursor(document.Pos(0, 2))))
	p := newPlugin(t, s)

	contribs, err := p.LoadString("custom.lua", script)
	require.NoError(t, err)
	shout := contribs[3].Entry.Command

	var changes int
	cancel := s.OnChange(func(document.Change) { changes++ })
	defer cancel()

	assert.False(t, shout.Active())
	require.NoError(t, shout.Execute())
	assert.Equal(t, 1, changes)
	assert.True(t, shout.Active())

	blocks := s.Blocks()
	require.Len(t, blocks, 1)
	assert.Equal(t, document.BlockHeading, blocks[0].Type)
	assert.Equal(t, []document.Run{
		document.Text("hi"),
		document.Marked("!", document.MarkBold),
	}, blocks[0].Runs)
}

func TestDeclarativeCommands(t *testing.T) {
	s := document.New(document.Paragraph(document.Text("hi")))
	p := newPlugin(t, s)

	contribs, err := p.LoadString("custom.lua", script)
	require.NoError(t, err)

	h5 := contribs[1].Entry.Command
	require.NoError(t, h5.Execute())
	assert.True(t, h5.Active())
	info, _ := s.BlockAt(document.Pos(0, 0))
	assert.Equal(t, 5, info.Level)

	require.NoError(t, h5.Execute())
	assert.False(t, h5.Active())
}

func TestFailedExecuteRollsBack(t *testing.T) {
	s := document.New(document.Paragraph(document.Text("hi")))
	p := newPlugin(t, s)

	contribs, err := p.LoadString("broken.lua", `
return {
  { key = "broken", execute = function()
      session.set_block("heading", 2)
      error("nope")
    end },
  { key = "badlevel", execute = function() session.set_block("heading", 9) end },
}`)
	require.NoError(t, err)

	version := s.Version()
	for _, c := range contribs {
		assert.Error(t, c.Entry.Command.Execute(), c.Entry.Key())
	}
	assert.Equal(t, version, s.Version())
	info, _ := s.BlockAt(document.Pos(0, 0))
	assert.Equal(t, document.BlockParagraph, info.Type)
}

func TestMutationOutsideExecute(t *testing.T) {
	s := document.New(document.Paragraph(document.Text("hi")))
	p := newPlugin(t, s)

	contribs, err := p.LoadString("sneaky.lua", `
return {
  { key = "sneaky", is_active = function() session.toggle_mark("bold"); return true end,
    execute = function() end },
}`)
	require.NoError(t, err)
	assert.False(t, contribs[0].Entry.Command.Active())
	assert.Equal(t, uint64(0), s.Version())
}

func TestSandbox(t *testing.T) {
	p := newPlugin(t, document.New())

	for _, code := range []string{
		`return os.exit(1)`,
		`return io.open("/etc/passwd")`,
		`return require("os")`,
		`return dofile("/etc/passwd")`,
		`return load("return 1")()`,
	} {
		_, err := p.state.DoString(code)
		assert.Error(t, err, code)
	}

	v, err := p.state.DoString(`return string.upper("ok") .. math.floor(1.5) .. table.concat({"a","b"})`)
	require.NoError(t, err)
	assert.Equal(t, "OK1ab", v.String())
}

func TestExecutionTimeout(t *testing.T) {
	p := newPlugin(t, document.New(), WithStateOptions(WithExecutionTimeout(50*time.Millisecond)))

	_, err := p.state.DoString(`while true do end`)
	assert.ErrorIs(t, err, ErrExecutionTimeout)
}

func TestInvalidStateOptions(t *testing.T) {
	p, err := New(document.New(), WithStateOptions(WithExecutionTimeout(-time.Second)))
	require.ErrorIs(t, err, ErrInvalidTimeout)
	assert.Nil(t, p)
}

func TestInvalidScripts(t *testing.T) {
	p := newPlugin(t, document.New())

	tests := []struct {
		name string
		code string
	}{
		{"not a table", `return 42`},
		{"entry not a table", `return { 1 }`},
		{"missing key", `return { { label = "x", block = "paragraph" } }`},
		{"no action", `return { { key = "x" } }`},
		{"bad group", `return { { key = "x", group = "inline", block = "paragraph" } }`},
		{"bad block", `return { { key = "x", block = "table" } }`},
		{"bad mark", `return { { key = "x", mark = "blink" } }`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := p.LoadString("bad.lua", tt.code)
			assert.ErrorIs(t, err, ErrInvalidScript)
		})
	}
}

func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "custom.lua")
	require.NoError(t, os.WriteFile(path, []byte(script), 0o644))

	p := newPlugin(t, document.New())
	contribs, err := p.LoadFile(path)
	require.NoError(t, err)
	assert.Len(t, contribs, 4)

	_, err = p.LoadFile(filepath.Join(t.TempDir(), "missing.lua"))
	assert.Error(t, err)
}

func TestMerge(t *testing.T) {
	s := document.New()
	p := newPlugin(t, s)
	base, err := catalog.Standard(s, catalog.DefaultOptions())
	require.NoError(t, err)
	contribs, err := p.LoadString("custom.lua", script)
	require.NoError(t, err)

	merged := Merge(base, contribs)
	reg, err := registry.New(merged...)
	require.NoError(t, err)

	var keys []string
	for _, e := range reg.Menu() {
		keys = append(keys, e.Key())
	}
	assert.Equal(t, []string{
		catalog.CategoryHierarchy, "paragraph", "heading1", "heading2", "heading3", "heading4", "heading5",
		catalog.CategoryLists, "bulletList", "orderedList",
		catalog.CategoryBlocks, "blockquote", "codeBlock",
		"custom", "shout",
	}, keys)
	assert.True(t, reg.Has("highlight"))
}
