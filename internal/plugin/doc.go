// Package plugin discovers toolbar plugins on disk.
//
// A plugin is either a single Lua file in a search directory or a
// directory holding an entry script (init.lua or plugin.lua) and an
// optional plugin.json manifest:
//
//	{
//	  "name": "callouts",
//	  "version": "1.0.0",
//	  "description": "Callout blocks",
//	  "main": "callouts.lua"
//	}
//
// Discovery only locates entry scripts. Scripts are executed by package
// lua, which turns them into toolbar commands.
package plugin
