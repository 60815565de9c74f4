package lua

import (
	lua "github.com/yuin/gopher-lua"

	"github.com/dshills/formtoolbar/internal/document"
	"github.com/dshills/formtoolbar/internal/resolver"
)

// sessionAPI builds the global session table. Functions run with
// state.mu held by the caller of the Lua code.
func (p *Plugin) sessionAPI() map[string]lua.LGFunction {
	return map[string]lua.LGFunction{
		"has_mark":     p.luaHasMark,
		"block":        p.luaBlock,
		"level":        p.luaLevel,
		"toggle_mark":  p.luaToggleMark,
		"set_block":    p.luaSetBlock,
		"toggle_block": p.luaToggleBlock,
		"insert_text":  p.luaInsertText,
	}
}

// view reads through the open transaction when there is one so scripts
// see their own edits.
type view interface {
	Selection() document.Selection
	MarkState(document.MarkType) document.MarkState
	BlockAt(document.Position) (document.BlockInfo, bool)
}

func (p *Plugin) view() view {
	if p.tx != nil {
		return p.tx
	}
	return p.session
}

func (p *Plugin) luaHasMark(L *lua.LState) int {
	m := document.MarkType(L.CheckString(1))
	if !m.Valid() {
		L.ArgError(1, "unknown mark")
	}
	L.Push(lua.LBool(resolver.MarkActive(p.view().MarkState(m), p.rule)))
	return 1
}

func (p *Plugin) anchorBlock() document.BlockInfo {
	v := p.view()
	info, _ := v.BlockAt(v.Selection().Anchor)
	return info
}

func (p *Plugin) luaBlock(L *lua.LState) int {
	L.Push(lua.LString(p.anchorBlock().Type))
	return 1
}

func (p *Plugin) luaLevel(L *lua.LState) int {
	L.Push(lua.LNumber(p.anchorBlock().Level))
	return 1
}

func (p *Plugin) requireTx(L *lua.LState) *document.Tx {
	if p.tx == nil {
		L.RaiseError("%s", ErrOutsideTransaction.Error())
	}
	return p.tx
}

func (p *Plugin) checkTx(L *lua.LState, tx *document.Tx) int {
	if err := tx.Err(); err != nil {
		L.RaiseError("%s", err.Error())
	}
	return 0
}

func (p *Plugin) luaToggleMark(L *lua.LState) int {
	tx := p.requireTx(L)
	return p.checkTx(L, tx.ToggleMark(document.MarkType(L.CheckString(1))))
}

func (p *Plugin) luaSetBlock(L *lua.LState) int {
	tx := p.requireTx(L)
	return p.checkTx(L, tx.SetBlock(document.BlockType(L.CheckString(1)), L.OptInt(2, 0)))
}

func (p *Plugin) luaToggleBlock(L *lua.LState) int {
	tx := p.requireTx(L)
	return p.checkTx(L, tx.ToggleBlock(document.BlockType(L.CheckString(1)), L.OptInt(2, 0)))
}

func (p *Plugin) luaInsertText(L *lua.LState) int {
	tx := p.requireTx(L)
	return p.checkTx(L, tx.InsertText(L.CheckString(1)))
}
