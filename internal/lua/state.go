package lua

import (
	"fmt"

	lua "github.com/yuin/gopher-lua"
)

// Default state limits.
const (
	DefaultCallStackSize   = 200
	DefaultRegistryMaxSize = 1024 * 80
)

// newState creates a Lua state with only the safe standard libraries.
func newState(callStack, registryMax int) *lua.LState {
	if callStack <= 0 {
		callStack = DefaultCallStackSize
	}
	if registryMax <= 0 {
		registryMax = DefaultRegistryMaxSize
	}

	L := lua.NewState(lua.Options{
		SkipOpenLibs:        true,
		CallStackSize:       callStack,
		RegistrySize:        1024,
		RegistryMaxSize:     registryMax,
		RegistryGrowStep:    32,
		IncludeGoStackTrace: false,
	})
	openSafeLibraries(L)
	return L
}

// openSafeLibraries opens only safe Lua standard libraries.
func openSafeLibraries(L *lua.LState) {
	lua.OpenBase(L)
	lua.OpenTable(L)
	lua.OpenString(L)
	lua.OpenMath(L)

	// Not opened: io, os, debug, package, channel, coroutine.
}

// doWithRecovery executes fn, converting a Go panic into an error.
func doWithRecovery(fn func() error) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("lua panic: %v", r)
		}
	}()
	return fn()
}
