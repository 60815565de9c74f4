package lua

import (
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"

	lua "github.com/yuin/gopher-lua"

	"github.com/dshills/formtoolbar/internal/catalog"
	"github.com/dshills/formtoolbar/internal/command"
	"github.com/dshills/formtoolbar/internal/document"
	"github.com/dshills/formtoolbar/internal/logging"
	"github.com/dshills/formtoolbar/internal/resolver"
)

// Contribution is one scripted entry plus where it goes in the menu.
type Contribution struct {
	Entry command.Entry

	// After is the category the option is placed under; empty appends it.
	After string
}

// Plugin runs command scripts against one session.
type Plugin struct {
	state   *State
	session command.Session
	rule    resolver.MarkRule
	logger  *slog.Logger

	// tx is set while an execute function runs. Guarded by state.mu.
	tx *document.Tx

	// err records a failed option; New returns it.
	err error
}

// Option configures a Plugin.
type Option func(*Plugin)

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(p *Plugin) { p.logger = logging.WithComponent(l, "plugin.lua") }
}

// WithMarkRule sets the rule used by session.has_mark.
func WithMarkRule(r resolver.MarkRule) Option {
	return func(p *Plugin) { p.rule = r }
}

// WithStateOptions configures the underlying Lua state.
func WithStateOptions(opts ...StateOption) Option {
	return func(p *Plugin) {
		if p.state != nil {
			_ = p.state.Close()
			p.state = nil
		}
		st, err := NewState(opts...)
		if err != nil {
			p.err = fmt.Errorf("lua: creating state: %w", err)
			return
		}
		p.state = st
	}
}

// New creates a plugin host bound to session.
func New(session command.Session, opts ...Option) (*Plugin, error) {
	p := &Plugin{session: session, logger: logging.Nop()}
	for _, opt := range opts {
		opt(p)
	}
	if p.err != nil {
		if p.state != nil {
			_ = p.state.Close()
		}
		return nil, p.err
	}
	if p.state == nil {
		st, err := NewState()
		if err != nil {
			return nil, err
		}
		p.state = st
	}
	p.state.RegisterModule("session", p.sessionAPI())
	return p, nil
}

// Close releases the Lua state. Commands built by the plugin fail afterwards.
func (p *Plugin) Close() error {
	return p.state.Close()
}

// LoadFile runs a script file and builds its contributions.
func (p *Plugin) LoadFile(path string) ([]Contribution, error) {
	v, err := p.state.DoFile(path)
	if err != nil {
		return nil, fmt.Errorf("lua: loading %s: %w", path, err)
	}
	return p.contributions(filepath.Base(path), v)
}

// LoadString runs script source and builds its contributions.
func (p *Plugin) LoadString(name, code string) ([]Contribution, error) {
	v, err := p.state.DoString(code)
	if err != nil {
		return nil, fmt.Errorf("lua: loading %s: %w", name, err)
	}
	return p.contributions(name, v)
}

func (p *Plugin) contributions(script string, v lua.LValue) ([]Contribution, error) {
	list, ok := v.(*lua.LTable)
	if !ok {
		return nil, fmt.Errorf("%w: %s returned %s, want a table", ErrInvalidScript, script, v.Type())
	}

	var out []Contribution
	for i := 1; i <= list.Len(); i++ {
		item, ok := list.RawGetInt(i).(*lua.LTable)
		if !ok {
			return nil, &ScriptError{Script: script, Index: i, Msg: "not a table"}
		}
		c, err := p.contribution(item)
		if err != nil {
			return nil, &ScriptError{Script: script, Index: i, Msg: err.Error()}
		}
		out = append(out, c)
	}
	return out, nil
}

func (p *Plugin) contribution(t *lua.LTable) (Contribution, error) {
	key := field(t, "key")
	if key == "" {
		return Contribution{}, fmt.Errorf("missing key")
	}
	label := field(t, "label")
	if label == "" {
		label = catalog.DeriveLabel(key)
	}

	if field(t, "kind") == command.KindCategory.String() {
		return Contribution{Entry: command.Category(key, label)}, nil
	}

	group := command.GroupBlock
	if g := field(t, "group"); g != "" {
		var err error
		if group, err = command.ParseGroup(g); err != nil {
			return Contribution{}, err
		}
	}

	c := &command.Command{
		Key:   key,
		Label: label,
		Icon:  field(t, "icon"),
		Group: group,
	}

	if err := p.bindDeclarative(c, t); err != nil {
		return Contribution{}, err
	}
	if fn := t.RawGetString("is_active"); fn.Type() == lua.LTFunction {
		c.IsActive = p.predicate(key, fn)
	}
	if fn := t.RawGetString("execute"); fn.Type() == lua.LTFunction {
		c.Execute = p.action(fn)
	}
	if c.IsActive == nil {
		c.IsActive = resolver.Never
	}
	if c.Execute == nil {
		return Contribution{}, fmt.Errorf("%q needs execute, block or mark", key)
	}

	return Contribution{Entry: command.Option(c), After: field(t, "category")}, nil
}

// bindDeclarative wires block= or mark= entries to the standard toggles.
func (p *Plugin) bindDeclarative(c *command.Command, t *lua.LTable) error {
	if b := field(t, "block"); b != "" {
		bt := document.BlockType(b)
		level := int(lua.LVAsNumber(t.RawGetString("level")))
		if !bt.Valid() || (bt == document.BlockHeading && (level < 1 || level > document.MaxHeadingLevel)) {
			return fmt.Errorf("invalid block %q level %d", b, level)
		}
		std := catalog.BlockCommand(p.session, c.Key, c.Label, c.Icon, bt, level)
		c.IsActive, c.Execute = std.IsActive, std.Execute
		return nil
	}
	if m := field(t, "mark"); m != "" {
		mt := document.MarkType(m)
		if !mt.Valid() {
			return fmt.Errorf("invalid mark %q", m)
		}
		std := catalog.MarkCommand(p.session, c.Key, c.Label, c.Icon, mt, p.rule)
		c.IsActive, c.Execute = std.IsActive, std.Execute
		c.Group = command.GroupMark
	}
	return nil
}

func (p *Plugin) predicate(key string, fn lua.LValue) command.Predicate {
	return func() bool {
		v, err := p.state.Call(fn)
		if err != nil {
			p.logger.Warn("is_active failed", "key", key, "error", err)
			return false
		}
		return lua.LVAsBool(v)
	}
}

func (p *Plugin) action(fn lua.LValue) command.Action {
	return func() error {
		return p.session.Transact(func(tx *document.Tx) error {
			p.state.mu.Lock()
			p.tx = tx.Focus()
			p.state.mu.Unlock()
			defer func() {
				p.state.mu.Lock()
				p.tx = nil
				p.state.mu.Unlock()
			}()

			if _, err := p.state.Call(fn); err != nil {
				return err
			}
			return tx.Err()
		})
	}
}

func field(t *lua.LTable, name string) string {
	v := t.RawGetString(name)
	if v.Type() != lua.LTString {
		return ""
	}
	return strings.TrimSpace(v.String())
}

// Merge places contributions into base. Options go after the last entry of
// their category (after the category label when it is empty); categories
// and options without a known category are appended.
func Merge(base []command.Entry, contribs []Contribution) []command.Entry {
	out := append([]command.Entry(nil), base...)
	for _, c := range contribs {
		at := len(out)
		if c.After != "" {
			if i := categoryEnd(out, c.After); i >= 0 {
				at = i
			}
		}
		out = append(out[:at], append([]command.Entry{c.Entry}, out[at:]...)...)
	}
	return out
}

// categoryEnd returns the index just past the last entry under category
// key, or -1.
func categoryEnd(entries []command.Entry, key string) int {
	start := -1
	for i, e := range entries {
		if e.IsCategory() && e.Key() == key {
			start = i
			break
		}
	}
	if start < 0 {
		return -1
	}
	end := start + 1
	for end < len(entries) && !entries[end].IsCategory() {
		end++
	}
	return end
}
