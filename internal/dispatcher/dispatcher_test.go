package dispatcher_test

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dshills/formtoolbar/internal/catalog"
	"github.com/dshills/formtoolbar/internal/command"
	"github.com/dshills/formtoolbar/internal/dispatcher"
	"github.com/dshills/formtoolbar/internal/document"
	"github.com/dshills/formtoolbar/internal/registry"
	"github.com/dshills/formtoolbar/internal/resolver"
)

func standard(t *testing.T, s *document.Session) *registry.Registry {
	t.Helper()
	entries, err := catalog.Standard(s, catalog.DefaultOptions())
	require.NoError(t, err)
	return registry.MustNew(entries...)
}

func fixed(key string, exec command.Action) command.Entry {
	return command.Option(&command.Command{
		Key:      key,
		Label:    key,
		Group:    command.GroupBlock,
		IsActive: resolver.Never,
		Execute:  exec,
	})
}

func TestNewWithDefaults(t *testing.T) {
	d := dispatcher.NewWithDefaults()
	assert.Nil(t, d.Metrics())
	assert.True(t, d.Config().RecoverFromPanic)

	d = dispatcher.New(dispatcher.DefaultConfig().WithMetrics())
	assert.NotNil(t, d.Metrics())
}

func TestDispatchWithoutRegistry(t *testing.T) {
	result := dispatcher.NewWithDefaults().Dispatch("bold")
	assert.True(t, result.IsError())
	assert.ErrorIs(t, result.Error, dispatcher.ErrNoRegistry)
}

func TestDispatchToggleBold(t *testing.T) {
	s := document.New(document.Paragraph(document.Text("hello world")))
	require.NoError(t, s.Select(document.Range(document.Pos(0, 0), document.Pos(0, 5))))
	reg := standard(t, s)
	d := dispatcher.NewWithDefaults(dispatcher.WithCommands(reg), dispatcher.WithVersion(s.Version))

	bold, ok := reg.Lookup("bold")
	require.True(t, ok)
	require.False(t, bold.Active())

	result := d.Dispatch("bold")
	require.True(t, result.IsOK(), "%v", result.Error)
	assert.Equal(t, "bold", result.Key)
	assert.True(t, bold.Active())

	result = d.Dispatch("bold")
	require.True(t, result.IsOK())
	assert.False(t, bold.Active())
}

func TestDispatchUnknownKey(t *testing.T) {
	s := document.New(document.Heading(1, document.Marked("title", document.MarkBold)))
	reg := standard(t, s)
	d := dispatcher.New(dispatcher.DefaultConfig().WithMetrics(), dispatcher.WithCommands(reg))

	blocks, version := s.Blocks(), s.Version()
	active := resolver.ResolveEntries(reg.Entries()).Keys()

	result := d.Dispatch("nonexistent")
	assert.Equal(t, dispatcher.StatusError, result.Status)
	assert.ErrorIs(t, result.Error, dispatcher.ErrUnknownCommand)

	var unknown *dispatcher.UnknownCommandError
	require.True(t, errors.As(result.Error, &unknown))
	assert.Equal(t, "nonexistent", unknown.Key)

	assert.Equal(t, blocks, s.Blocks())
	assert.Equal(t, version, s.Version())
	assert.Equal(t, active, resolver.ResolveEntries(reg.Entries()).Keys())
	assert.Equal(t, uint64(1), d.Metrics().Snapshot().TotalErrors)
}

func TestDispatchNoOp(t *testing.T) {
	s := document.New(document.Paragraph(document.Text("plain")))
	reg := standard(t, s)
	d := dispatcher.NewWithDefaults(dispatcher.WithCommands(reg), dispatcher.WithVersion(s.Version))

	// Focus is a change; the second conversion to paragraph is not.
	require.True(t, d.Dispatch("paragraph").IsOK())
	assert.Equal(t, dispatcher.StatusNoOp, d.Dispatch("paragraph").Status)
}

func TestDispatchCommandError(t *testing.T) {
	boom := errors.New("boom")
	d := dispatcher.NewWithDefaults(dispatcher.WithCommands(registry.MustNew(
		fixed("fail", func() error { return boom }),
	)))

	result := d.Dispatch("fail")
	assert.True(t, result.IsError())
	assert.ErrorIs(t, result.Error, boom)
}

func TestDispatchPanicRecovery(t *testing.T) {
	d := dispatcher.New(dispatcher.DefaultConfig().WithMetrics(), dispatcher.WithCommands(registry.MustNew(
		fixed("panic", func() error { panic("test panic") }),
	)))

	result := d.Dispatch("panic")
	assert.True(t, result.IsError())
	assert.ErrorIs(t, result.Error, dispatcher.ErrPanic)

	var pe *dispatcher.PanicError
	require.True(t, errors.As(result.Error, &pe))
	assert.Equal(t, "test panic", pe.Value)
	assert.NotEmpty(t, pe.Stack)
	assert.Equal(t, uint64(1), d.Metrics().Snapshot().TotalPanics)
	assert.Equal(t, uint64(1), d.Metrics().CommandStats("panic").PanicCount)

	again := d.Dispatch("panic")
	assert.NotErrorIs(t, again.Error, dispatcher.ErrReentrantDispatch)
}

func TestDispatchWithoutPanicRecovery(t *testing.T) {
	d := dispatcher.New(dispatcher.DefaultConfig().WithPanicRecovery(false), dispatcher.WithCommands(registry.MustNew(
		fixed("panic", func() error { panic("test panic") }),
	)))

	assert.Panics(t, func() { d.Dispatch("panic") })
}

func TestDispatchReentrant(t *testing.T) {
	var d *dispatcher.Dispatcher
	var inner dispatcher.Result
	d = dispatcher.NewWithDefaults(dispatcher.WithCommands(registry.MustNew(
		fixed("outer", func() error {
			inner = d.Dispatch("inner")
			return nil
		}),
		fixed("inner", func() error { return nil }),
	)))

	assert.True(t, d.Dispatch("outer").IsOK())
	assert.ErrorIs(t, inner.Error, dispatcher.ErrReentrantDispatch)
	assert.True(t, d.Dispatch("inner").IsOK())
}

func TestHooks(t *testing.T) {
	ran := false
	d := dispatcher.NewWithDefaults(dispatcher.WithCommands(registry.MustNew(
		fixed("codeBlock", func() error { ran = true; return nil }),
		fixed("quote", func() error { return nil }),
	)))

	var seen []string
	d.RegisterPreHook(dispatcher.PreDispatchFunc(func(r *dispatcher.Request) bool {
		return r.Key != "codeBlock"
	}))
	d.RegisterPostHook(dispatcher.PostDispatchFunc(func(r *dispatcher.Request, res *dispatcher.Result) {
		seen = append(seen, r.Key+":"+res.Status.String())
	}))

	result := d.Dispatch("codeBlock")
	assert.Equal(t, dispatcher.StatusCancelled, result.Status)
	assert.ErrorIs(t, result.Error, dispatcher.ErrActionCancelled)
	assert.False(t, ran)

	assert.True(t, d.Dispatch("quote").IsOK())
	assert.Equal(t, []string{"codeBlock:cancelled", "quote:ok"}, seen)
}

func TestGroupFilterHook(t *testing.T) {
	s := document.New(document.Paragraph(document.Text("text")))
	d := dispatcher.NewWithDefaults(dispatcher.WithCommands(standard(t, s)))
	d.RegisterPreHook(&dispatcher.GroupFilterHook{Allowed: []command.Group{command.GroupMark}})

	assert.Equal(t, dispatcher.StatusCancelled, d.Dispatch("heading1").Status)
	assert.True(t, d.Dispatch("bold").IsOK())
}

func TestSetCommands(t *testing.T) {
	d := dispatcher.NewWithDefaults(dispatcher.WithCommands(registry.MustNew(
		fixed("a", func() error { return nil }),
	)))
	require.True(t, d.Dispatch("a").IsOK())

	d.SetCommands(registry.MustNew(fixed("b", func() error { return nil })))
	assert.ErrorIs(t, d.Dispatch("a").Error, dispatcher.ErrUnknownCommand)
	assert.True(t, d.Dispatch("b").IsOK())
}
