package lua

import (
	"context"
	"errors"
	"io"
	"os"
	"time"

	lua "github.com/yuin/gopher-lua"

	"github.com/dshills/tasker/internal/logging"
)

// DefaultTimeout bounds a single evaluation.
const DefaultTimeout = 30 * time.Second

// Config configures an Evaluator.
type Config struct {
	// ModuleDir is searched by require for <name>.lua. Empty disables
	// file modules.
	ModuleDir string

	// Timeout bounds each evaluation. Zero means no timeout beyond the
	// caller's context.
	Timeout time.Duration

	// CallStackSize and RegistryMaxSize bound the interpreter.
	CallStackSize   int
	RegistryMaxSize int

	// Env is visible to tasker.getenv ahead of the process environment.
	Env map[string]string

	// Stdout receives print output. Nil discards it.
	Stdout io.Writer
}

// DefaultConfig returns the default evaluator configuration.
func DefaultConfig() Config {
	return Config{
		Timeout:         DefaultTimeout,
		CallStackSize:   DefaultCallStackSize,
		RegistryMaxSize: DefaultRegistryMaxSize,
		Stdout:          os.Stdout,
	}
}

// Evaluator runs script source in a sandboxed Lua state.
//
// Evaluator is safe for concurrent use; every call builds its own state.
type Evaluator struct {
	config Config
	host   Host
	params func(ctx context.Context) []any
	logger *logging.Logger
}

// Option configures an Evaluator.
type Option func(*Evaluator)

// WithHost lets scripts call tasker.trigger and tasker.command.
func WithHost(h Host) Option {
	return func(e *Evaluator) {
		e.host = h
	}
}

// WithParams sets how event parameters are read from the run context.
func WithParams(fn func(ctx context.Context) []any) Option {
	return func(e *Evaluator) {
		e.params = fn
	}
}

// WithLogger sets the logger used by tasker.log.
func WithLogger(l *logging.Logger) Option {
	return func(e *Evaluator) {
		e.logger = l
	}
}

// NewEvaluator creates an evaluator.
func NewEvaluator(config Config, opts ...Option) *Evaluator {
	e := &Evaluator{
		config: config,
		logger: logging.NullLogger,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Evaluate compiles and runs source. It returns a *ScriptError when the
// script fails to compile, raises an error, or is cut off by its context.
func (e *Evaluator) Evaluate(ctx context.Context, source string) error {
	if e.config.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, e.config.Timeout)
		defer cancel()
	}

	L := newState(e.config.CallStackSize, e.config.RegistryMaxSize)
	defer L.Close()
	L.SetContext(ctx)

	c := &call{
		ctx:    ctx,
		host:   e.host,
		env:    e.config.Env,
		logger: e.logger,
		stdout: e.config.Stdout,
	}
	if e.params != nil {
		c.params = e.params(ctx)
	}

	sb := newSandbox(L, e.config.ModuleDir)
	sb.preloadModule(ModuleName, c.loader)
	sb.install()
	L.SetGlobal("print", L.NewFunction(c.print))

	err := doWithRecovery(func() error {
		return L.DoString(source)
	})
	if err == nil {
		return nil
	}
	return e.wrap(ctx, c, err)
}

func (e *Evaluator) wrap(ctx context.Context, c *call, err error) error {
	serr := &ScriptError{Message: err.Error(), Err: err}

	var apiErr *lua.ApiError
	if errors.As(err, &apiErr) && apiErr.Object != nil {
		serr.Message = apiErr.Object.String()
	}

	switch {
	case c.hostErr != nil:
		serr.Err = c.hostErr
	case ctx.Err() != nil:
		serr.Err = ctx.Err()
	}
	return serr
}
