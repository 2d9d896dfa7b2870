package engine

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/dshills/tasker/internal/dispatch"
	"github.com/dshills/tasker/internal/host"
	"github.com/dshills/tasker/internal/logging"
	"github.com/dshills/tasker/internal/step"
	"github.com/dshills/tasker/internal/task"
)

// ScriptEvaluator runs the source of a script step.
type ScriptEvaluator interface {
	Evaluate(ctx context.Context, source string) error
}

// Engine runs tasks and activates triggers.
//
// Engine is safe for concurrent use.
type Engine struct {
	registry  *task.Registry
	commands  host.CommandExecutor
	spawner   step.Spawner
	scripts   ScriptEvaluator
	observers observers
	logger    *logging.Logger
	maxDepth  int

	dispatch   dispatch.Config
	dispatcher *dispatch.Dispatcher

	// runMu orders the shutdown flag against active.Add so that no top-level
	// run is added once Shutdown has started waiting.
	runMu    sync.Mutex
	active   sync.WaitGroup
	shutdown bool
}

// New creates an engine. Timer and event triggers are not bound until Load
// or Rebind is called.
func New(opts ...Option) *Engine {
	e := &Engine{
		registry: task.NewRegistry(),
		logger:   logging.NullLogger,
		maxDepth: DefaultMaxDepth,
	}
	for _, opt := range opts {
		opt(e)
	}

	e.logger = e.logger.WithComponent("engine")
	e.dispatch.Logger = e.logger
	e.dispatcher = dispatch.New(e.registry, e, e.dispatch)
	return e
}

// Registry returns the task registry.
func (e *Engine) Registry() *task.Registry {
	return e.registry
}

// Dispatcher returns the trigger dispatcher.
func (e *Engine) Dispatcher() *dispatch.Dispatcher {
	return e.dispatcher
}

// Load replaces the registry contents with the settings in data and
// rebinds timer and event triggers. Empty data loads an empty task list.
// On decode failure the registry is left unchanged.
func (e *Engine) Load(data []byte) error {
	settings, err := task.Decode(data)
	if err != nil {
		return err
	}

	e.registry.Replace(settings.Tasks)
	e.logger.Info("loaded %d tasks", len(settings.Tasks))

	if err := e.registry.Validate(); err != nil {
		e.logger.Warn("settings have problems: %v", err)
	}
	return e.Rebind()
}

// Save encodes the registry as a settings blob. Before/After references to
// tasks no longer in the registry are left out.
func (e *Engine) Save() ([]byte, error) {
	var data []byte
	err := e.registry.Update(func(tasks []*task.Task) error {
		settings := task.Settings{Tasks: tasks}
		if n := task.DanglingRefs(settings); n > 0 {
			e.logger.Warn("dropping %d references to removed tasks", n)
		}
		var err error
		data, err = task.Encode(settings)
		return err
	})
	return data, err
}

// Rebind releases every timer and event binding and installs them again
// from the registry.
func (e *Engine) Rebind() error {
	return e.dispatcher.Rebuild()
}

// ExecuteCommand runs a host command through the configured executor.
func (e *Engine) ExecuteCommand(ctx context.Context, id string) error {
	if e.commands == nil {
		return ErrNoCommandExecutor
	}
	return e.commands.ExecuteCommand(ctx, id)
}

// ActivateTrigger runs every task owning tr, in registry order. params are
// made available to the run through Params.
//
// A failing task does not stop the others; the result joins every failure.
func (e *Engine) ActivateTrigger(ctx context.Context, tr task.Trigger, params []any) error {
	if params != nil {
		ctx = WithParams(ctx, params)
	}
	tasks := e.registry.TasksWithTrigger(tr)
	if len(tasks) == 0 {
		e.logger.Debug("%s matches no task", task.DescribeTrigger(tr))
	}
	return e.runAll(ctx, tasks)
}

// ActivateManualTrigger runs every task owning a manual trigger named name,
// ignoring case. No match is not an error.
func (e *Engine) ActivateManualTrigger(ctx context.Context, name string) error {
	tasks := e.registry.TasksWithManual(name)
	if len(tasks) == 0 {
		e.logger.Debug("manual trigger %q matches no task", name)
	}
	return e.runAll(ctx, tasks)
}

// enter registers a top-level run. It fails once Shutdown has begun.
func (e *Engine) enter() bool {
	e.runMu.Lock()
	defer e.runMu.Unlock()
	if e.shutdown {
		return false
	}
	e.active.Add(1)
	return true
}

func (e *Engine) runAll(ctx context.Context, tasks []*task.Task) error {
	var errs []error
	for _, t := range tasks {
		if err := e.RunTask(ctx, t); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Shutdown releases every trigger binding, rejects new top-level runs and
// waits for runs in flight until ctx is done.
func (e *Engine) Shutdown(ctx context.Context) error {
	e.runMu.Lock()
	e.shutdown = true
	e.runMu.Unlock()
	e.dispatcher.Close()

	done := make(chan struct{})
	go func() {
		e.active.Wait()
		e.dispatcher.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return fmt.Errorf("engine: waiting for runs: %w", ctx.Err())
	}
}
