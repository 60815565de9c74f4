// Package lua lets Lua scripts contribute toolbar commands.
//
// Scripts run in a sandboxed gopher-lua state with only the base, table,
// string and math libraries. A script returns a list of entry tables:
//
//	return {
//	  { kind = "category", key = "custom", label = "Custom" },
//	  { key = "heading5", label = "Heading 5", icon = "Heading5",
//	    category = "hierarchy", block = "heading", level = 5 },
//	  { key = "shout", label = "Shout", group = "mark",
//	    is_active = function() return session.has_mark("bold") end,
//	    execute = function()
//	      session.toggle_mark("bold")
//	      session.insert_text("!")
//	    end },
//	}
//
// An entry with block (and level) or mark but no functions gets the
// standard toggle behaviour. Each execute runs inside one document
// transaction; the session table's mutating functions raise an error
// anywhere else.
//
// The session table exposes:
//   - has_mark(name) -> bool
//   - block() -> type name
//   - level() -> heading level (0 unless a heading)
//   - toggle_mark(name)
//   - set_block(type [, level])
//   - toggle_block(type [, level])
//   - insert_text(text)
package lua
