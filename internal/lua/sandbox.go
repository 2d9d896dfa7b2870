package lua

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	lua "github.com/yuin/gopher-lua"
)

// builtinModules are the library tables require may hand out.
var builtinModules = map[string]bool{
	"string": true,
	"table":  true,
	"math":   true,
}

var moduleNamePattern = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*(\.[A-Za-z_][A-Za-z0-9_]*)*$`)

// sandbox installs the restrictions on one state.
type sandbox struct {
	L         *lua.LState
	moduleDir string
	preload   map[string]lua.LGFunction
	loaded    *lua.LTable
}

func newSandbox(L *lua.LState, moduleDir string) *sandbox {
	return &sandbox{
		L:         L,
		moduleDir: moduleDir,
		preload:   make(map[string]lua.LGFunction),
		loaded:    L.NewTable(),
	}
}

// preloadModule makes name available to require through loader.
func (s *sandbox) preloadModule(name string, loader lua.LGFunction) {
	s.preload[name] = loader
}

// install removes the escape hatches and replaces require.
func (s *sandbox) install() {
	for _, name := range []string{"dofile", "loadfile", "load", "loadstring"} {
		s.L.SetGlobal(name, lua.LNil)
	}
	s.L.SetGlobal("require", s.L.NewFunction(s.require))
}

func (s *sandbox) require(L *lua.LState) int {
	name := L.CheckString(1)

	if v := s.loaded.RawGetString(name); v != lua.LNil {
		L.Push(v)
		return 1
	}

	var mod lua.LValue
	switch {
	case builtinModules[name]:
		mod = L.GetGlobal(name)
	case s.preload[name] != nil:
		mod = s.callLoader(L, L.NewFunction(s.preload[name]), name)
	default:
		path, err := s.resolve(name)
		if err != nil {
			L.RaiseError("%s", err.Error())
			return 0
		}
		fn, err := L.LoadFile(path)
		if err != nil {
			L.RaiseError("loading module %q: %s", name, err.Error())
			return 0
		}
		mod = s.callLoader(L, fn, name)
	}

	if mod == lua.LNil {
		mod = lua.LTrue
	}
	s.loaded.RawSetString(name, mod)
	L.Push(mod)
	return 1
}

func (s *sandbox) callLoader(L *lua.LState, fn *lua.LFunction, name string) lua.LValue {
	L.Push(fn)
	L.Push(lua.LString(name))
	L.Call(1, 1)
	mod := L.Get(-1)
	L.Pop(1)
	return mod
}

// resolve maps a dotted module name to a file under the module directory.
func (s *sandbox) resolve(name string) (string, error) {
	if s.moduleDir == "" {
		return "", fmt.Errorf("%w: %q", ErrModuleNotFound, name)
	}
	if !moduleNamePattern.MatchString(name) {
		return "", fmt.Errorf("%w: %q", ErrInvalidModuleName, name)
	}

	rel := strings.ReplaceAll(name, ".", string(filepath.Separator)) + ".lua"
	path := filepath.Join(s.moduleDir, rel)

	info, err := os.Stat(path)
	if err != nil || info.IsDir() {
		return "", fmt.Errorf("%w: %q", ErrModuleNotFound, name)
	}
	return path, nil
}
