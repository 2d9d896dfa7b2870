package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"sync"
	"sync/atomic"
	"time"

	"github.com/dshills/tasker/internal/config"
	"github.com/dshills/tasker/internal/dispatch"
	"github.com/dshills/tasker/internal/engine"
	"github.com/dshills/tasker/internal/host"
	"github.com/dshills/tasker/internal/logging"
	"github.com/dshills/tasker/internal/lua"
	"github.com/dshills/tasker/internal/step"
	"github.com/dshills/tasker/internal/store"
	"github.com/dshills/tasker/internal/task"
)

// Options configures the application.
type Options struct {
	// ConfigPath is the path to the configuration file.
	ConfigPath string

	// SettingsPath overrides [settings] path.
	SettingsPath string

	// LogLevel overrides [logging] level.
	LogLevel string

	// NoWatch disables the vault watcher regardless of configuration.
	NoWatch bool

	// Stdout receives command and script output. Defaults to os.Stdout.
	Stdout io.Writer

	// Stderr receives logs and shell stderr. Defaults to os.Stderr.
	Stderr io.Writer

	// Scheduler replaces the ticker-based timer primitive.
	Scheduler dispatch.Scheduler

	// Loader replaces the configuration loader.
	Loader *config.Loader
}

// Application is the tasker host. It owns the engine and every host
// capability the engine is given.
type Application struct {
	opts   Options
	config *config.Config
	logger *logging.Logger

	store     store.Store
	engine    *engine.Engine
	commands  *host.CommandRegistry
	emitters  map[task.EventObject]*host.Emitter
	evaluator *lua.Evaluator
	spawner   *step.ShellSpawner

	mu      sync.Mutex
	watcher *host.VaultWatcher

	running  atomic.Bool
	quit     chan struct{}
	quitOnce sync.Once
}

// New creates an Application with the given options.
func New(opts Options) (*Application, error) {
	if opts.Stdout == nil {
		opts.Stdout = os.Stdout
	}
	if opts.Stderr == nil {
		opts.Stderr = os.Stderr
	}

	app := &Application{
		opts:     opts,
		emitters: make(map[task.EventObject]*host.Emitter),
		quit:     make(chan struct{}),
	}
	if err := app.bootstrap(); err != nil {
		return nil, err
	}
	return app, nil
}

// bootstrap initializes all components in dependency order.
func (app *Application) bootstrap() error {
	// 1. Config
	loader := app.opts.Loader
	if loader == nil {
		loader = config.NewLoader()
	}
	cfg, err := loader.Load(app.opts.ConfigPath)
	if err != nil {
		return &InitError{Component: "config", Err: err}
	}
	if app.opts.SettingsPath != "" {
		cfg.Settings.Path = app.opts.SettingsPath
	}
	if app.opts.LogLevel != "" {
		if !logging.ValidLevel(app.opts.LogLevel) {
			return &InitError{Component: "logger", Err: fmt.Errorf("unknown level %q", app.opts.LogLevel)}
		}
		cfg.Logging.Level = app.opts.LogLevel
	}
	app.config = cfg

	// 2. Logger
	app.logger = logging.New(logging.Config{
		Level:  cfg.LogLevel(),
		Output: app.opts.Stderr,
		Prefix: "tasker",
	})

	// 3. Store
	fs, err := store.NewFileStore(cfg.Settings.Path)
	if err != nil {
		return &InitError{Component: "store", Err: err}
	}
	app.store = fs

	// 4. Host capabilities
	app.commands = host.NewCommandRegistry()
	onPanic := host.WithPanicHandler(func(err *host.PanicError) {
		app.logger.Error("%v", err)
	})
	for _, obj := range task.Objects {
		app.emitters[obj] = host.NewEmitter(string(obj), onPanic)
	}

	app.spawner = step.NewShellSpawner(step.ShellConfig{
		Shell:      cfg.Shell.Program,
		Args:       cfg.Shell.Args,
		DefaultEnv: cfg.Shell.Env,
		WorkingDir: cfg.Shell.Dir,
		Stdout:     app.opts.Stdout,
		Stderr:     app.opts.Stderr,
		MaxOutput:  1 << 20,
	})

	// 5. Engine
	var lazy lazyHost
	app.evaluator = lua.NewEvaluator(lua.Config{
		ModuleDir:       cfg.Script.ModuleDir,
		Timeout:         cfg.Script.Timeout.Duration,
		CallStackSize:   cfg.Script.CallStackSize,
		RegistryMaxSize: cfg.Script.RegistryMaxSize,
		Env:             cfg.Shell.Env,
		Stdout:          app.opts.Stdout,
	},
		lua.WithHost(&lazy),
		lua.WithParams(engine.Params),
		lua.WithLogger(app.logger.WithComponent("script")),
	)

	engineOpts := []engine.Option{
		engine.WithCommandExecutor(app.commands),
		engine.WithSpawner(app.spawner),
		engine.WithScriptEvaluator(app.evaluator),
		engine.WithObserver(newRunLogger(app.logger)),
		engine.WithLogger(app.logger),
		engine.WithMaxDepth(cfg.Engine.MaxDepth),
		engine.WithOverlapPolicy(cfg.OverlapPolicy()),
	}
	if app.opts.Scheduler != nil {
		engineOpts = append(engineOpts, engine.WithScheduler(app.opts.Scheduler))
	}
	for obj, em := range app.emitters {
		engineOpts = append(engineOpts, engine.WithEventSource(obj, em))
	}
	app.engine = engine.New(engineOpts...)
	lazy.engine = app.engine

	app.registerCommands()

	app.logger.Debug("bootstrapped (config=%q settings=%q)", cfg.Source, cfg.Settings.Path)
	return nil
}

// lazyHost lets the script evaluator reach the engine that is built after it.
type lazyHost struct {
	engine *engine.Engine
}

func (h *lazyHost) ActivateManualTrigger(ctx context.Context, name string) error {
	return h.engine.ActivateManualTrigger(ctx, name)
}

func (h *lazyHost) ExecuteCommand(ctx context.Context, id string) error {
	return h.engine.ExecuteCommand(ctx, id)
}

// Load reads the settings from the store into the engine and rebinds
// triggers.
func (app *Application) Load() error {
	data, err := app.store.Load()
	if err != nil {
		return NewOperationError("load", app.config.Settings.Path, err)
	}
	if err := app.engine.Load(data); err != nil {
		return NewOperationError("load", app.config.Settings.Path, err)
	}
	return nil
}

// Save writes the engine's settings to the store.
func (app *Application) Save() error {
	data, err := app.engine.Save()
	if err != nil {
		return NewOperationError("save", app.config.Settings.Path, err)
	}
	if err := app.store.Save(data); err != nil {
		return NewOperationError("save", app.config.Settings.Path, err)
	}
	app.logger.Debug("saved %d bytes", len(data))
	return nil
}

// Run loads the settings, binds triggers and blocks until ctx is done or
// Quit is called. The settings are saved on the way out.
func (app *Application) Run(ctx context.Context) error {
	if !app.running.CompareAndSwap(false, true) {
		return ErrAlreadyRunning
	}

	if err := app.Load(); err != nil {
		var be *dispatch.BindError
		if !errors.As(err, &be) {
			app.running.Store(false)
			return err
		}
		app.logger.Warn("%v", err)
	}

	if app.config.Vault.Watch && !app.opts.NoWatch {
		if err := app.startWatcher(); err != nil {
			app.logger.Warn("vault watcher disabled: %v", err)
		}
	}

	app.logger.Info("running with %d tasks, %d bindings",
		app.engine.Registry().Len(), app.engine.Dispatcher().Bindings())

	select {
	case <-ctx.Done():
	case <-app.quit:
	}

	return app.shutdown()
}

// Quit asks a running application to stop.
func (app *Application) Quit() {
	app.quitOnce.Do(func() { close(app.quit) })
}

func (app *Application) startWatcher() error {
	w, err := host.NewVaultWatcher(app.config.Vault.Dir, app.emitters[task.ObjectVault], func(err error) {
		app.logger.Warn("vault watcher: %v", err)
	})
	if err != nil {
		return NewOperationError("watch", app.config.Vault.Dir, err)
	}

	app.mu.Lock()
	app.watcher = w
	app.mu.Unlock()

	app.logger.Info("watching %s", w.Root())
	return nil
}

// shutdown performs cleanup in reverse initialization order.
func (app *Application) shutdown() error {
	var errs []error

	// Activations started by the farewell events must begin before the
	// engine stops accepting runs.
	ctx := context.Background()
	app.emitters[task.ObjectWorkspace].Emit(ctx, "quit")
	app.engine.Dispatcher().Wait()

	app.mu.Lock()
	w := app.watcher
	app.watcher = nil
	app.mu.Unlock()
	if w != nil {
		if err := w.Close(); err != nil {
			errs = append(errs, NewOperationError("close watcher", app.config.Vault.Dir, err))
		}
	}
	app.emitters[task.ObjectVault].Emit(ctx, "closed")
	app.engine.Dispatcher().Wait()

	timeout := app.config.Engine.ShutdownTimeout.Duration
	if timeout <= 0 {
		timeout = config.DefaultShutdownTimeout
	}
	sctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	if err := app.engine.Shutdown(sctx); err != nil {
		errs = append(errs, err)
	}

	if err := app.Save(); err != nil {
		errs = append(errs, err)
	}

	app.running.Store(false)
	app.logger.Info("stopped")
	return errors.Join(errs...)
}

// Trigger runs every task bound to the named manual trigger.
func (app *Application) Trigger(ctx context.Context, name string) error {
	return app.engine.ActivateManualTrigger(ctx, name)
}

// Emit raises event on object and waits for the activations it starts.
// Their failures are returned joined, along with the number of bindings
// that received the event.
func (app *Application) Emit(ctx context.Context, object task.EventObject, event string, params ...any) (int, error) {
	em, ok := app.emitters[object]
	if !ok {
		return 0, fmt.Errorf("%w: %q", ErrUnknownObject, object)
	}
	if _, ok := task.LookupEvent(object, event); !ok {
		return 0, fmt.Errorf("%w: %s::%s", ErrUnknownEvent, object, event)
	}

	d := app.engine.Dispatcher()
	d.Wait()
	// Earlier failures were logged when they happened.
	_ = d.DrainErrors()

	n := em.Emit(ctx, event, params...)
	d.Wait()
	return n, d.DrainErrors()
}

// Wait blocks until every activation started by a timer or event returns.
func (app *Application) Wait(timeout time.Duration) error {
	done := make(chan struct{})
	go func() {
		app.engine.Dispatcher().Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-time.After(timeout):
		return context.DeadlineExceeded
	}
}

// Config returns the loaded configuration.
func (app *Application) Config() *config.Config {
	return app.config
}

// Logger returns the application logger.
func (app *Application) Logger() *logging.Logger {
	return app.logger
}

// Engine returns the task engine.
func (app *Application) Engine() *engine.Engine {
	return app.engine
}

// Commands returns the host command registry.
func (app *Application) Commands() *host.CommandRegistry {
	return app.commands
}

// Emitter returns the event source for object.
func (app *Application) Emitter(object task.EventObject) (*host.Emitter, bool) {
	em, ok := app.emitters[object]
	return em, ok
}

// IsRunning reports whether Run is active.
func (app *Application) IsRunning() bool {
	return app.running.Load()
}
