package lua

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	lua "github.com/yuin/gopher-lua"

	"github.com/dshills/tasker/internal/logging"
)

// ModuleName is the name scripts pass to require for host access.
const ModuleName = "tasker"

// Host is the part of the application scripts can drive.
type Host interface {
	// ActivateManualTrigger fires every task bound to the named manual trigger.
	ActivateManualTrigger(ctx context.Context, name string) error

	// ExecuteCommand runs a host command by id.
	ExecuteCommand(ctx context.Context, id string) error
}

// call holds the per-evaluation state the tasker module closes over.
type call struct {
	ctx    context.Context
	host   Host
	params []any
	env    map[string]string
	logger *logging.Logger
	stdout io.Writer

	// hostErr is the first host failure raised into the script.
	hostErr error
}

func (c *call) fail(L *lua.LState, err error) int {
	if c.hostErr == nil {
		c.hostErr = err
	}
	L.RaiseError("%s", err.Error())
	return 0
}

// loader builds the tasker module table.
func (c *call) loader(L *lua.LState) int {
	mod := L.NewTable()

	L.SetField(mod, "params", sliceToTable(L, c.params))
	L.SetField(mod, "trigger", L.NewFunction(c.trigger))
	L.SetField(mod, "command", L.NewFunction(c.command))
	L.SetField(mod, "log", L.NewFunction(c.log))
	L.SetField(mod, "getenv", L.NewFunction(c.getenv))

	L.Push(mod)
	return 1
}

func (c *call) trigger(L *lua.LState) int {
	name := L.CheckString(1)
	if c.host == nil {
		return c.fail(L, ErrNoHost)
	}
	if err := c.host.ActivateManualTrigger(c.ctx, name); err != nil {
		return c.fail(L, err)
	}
	return 0
}

func (c *call) command(L *lua.LState) int {
	id := L.CheckString(1)
	if c.host == nil {
		return c.fail(L, ErrNoHost)
	}
	if err := c.host.ExecuteCommand(c.ctx, id); err != nil {
		return c.fail(L, err)
	}
	return 0
}

func (c *call) log(L *lua.LState) int {
	c.logger.Info("%s", joinArgs(L))
	return 0
}

// getenv reads the script environment first, then the process environment.
func (c *call) getenv(L *lua.LState) int {
	name := L.CheckString(1)
	if v, ok := c.env[name]; ok {
		L.Push(lua.LString(v))
		return 1
	}
	if v, ok := os.LookupEnv(name); ok {
		L.Push(lua.LString(v))
		return 1
	}
	L.Push(lua.LNil)
	return 1
}

// print replaces the base print so output goes to the configured writer.
func (c *call) print(L *lua.LState) int {
	if c.stdout != nil {
		fmt.Fprintln(c.stdout, joinArgs(L))
	}
	return 0
}

func joinArgs(L *lua.LState) string {
	top := L.GetTop()
	parts := make([]string, 0, top)
	for i := 1; i <= top; i++ {
		parts = append(parts, L.ToStringMeta(L.Get(i)).String())
	}
	return strings.Join(parts, "\t")
}
