// Package lua evaluates script steps with gopher-lua.
//
// Every evaluation gets a fresh sandboxed state, so scripts cannot leak
// globals into each other and concurrent runs never share an LState.
//
// The sandbox:
//   - opens only the base, table, string and math libraries
//   - removes dofile, loadfile, load and loadstring
//   - replaces require with a resolver that knows the built-in modules,
//     the tasker module, and *.lua files under the configured module dir
//   - binds execution to the caller's context and an optional timeout
//
// Scripts reach the host through the tasker module:
//
//	local tasker = require("tasker")
//	tasker.log("opened " .. (tasker.params[1] or "?"))
//	tasker.command("tasker:save")
//	tasker.trigger("sync")
package lua
