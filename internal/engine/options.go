package engine

import (
	"github.com/dshills/tasker/internal/dispatch"
	"github.com/dshills/tasker/internal/host"
	"github.com/dshills/tasker/internal/logging"
	"github.com/dshills/tasker/internal/step"
	"github.com/dshills/tasker/internal/task"
)

// DefaultMaxDepth bounds nested runs.
const DefaultMaxDepth = 32

// Option configures an Engine during creation.
type Option func(*Engine)

// WithRegistry sets the task registry. By default the engine starts with an
// empty one.
func WithRegistry(r *task.Registry) Option {
	return func(e *Engine) {
		if r != nil {
			e.registry = r
		}
	}
}

// WithCommandExecutor sets the executor used by command steps.
func WithCommandExecutor(c host.CommandExecutor) Option {
	return func(e *Engine) {
		e.commands = c
	}
}

// WithSpawner sets the spawner used by shell steps.
func WithSpawner(s step.Spawner) Option {
	return func(e *Engine) {
		e.spawner = s
	}
}

// WithScriptEvaluator sets the evaluator used by script steps.
func WithScriptEvaluator(s ScriptEvaluator) Option {
	return func(e *Engine) {
		e.scripts = s
	}
}

// WithObserver adds a run observer.
func WithObserver(o Observer) Option {
	return func(e *Engine) {
		if o != nil {
			e.observers = append(e.observers, o)
		}
	}
}

// WithLogger sets the engine logger.
func WithLogger(l *logging.Logger) Option {
	return func(e *Engine) {
		if l != nil {
			e.logger = l
		}
	}
}

// WithMaxDepth sets the maximum chain of nested runs.
func WithMaxDepth(n int) Option {
	return func(e *Engine) {
		if n > 0 {
			e.maxDepth = n
		}
	}
}

// WithScheduler sets the timer primitive used for timer triggers.
func WithScheduler(s dispatch.Scheduler) Option {
	return func(e *Engine) {
		e.dispatch.Scheduler = s
	}
}

// WithEventSource registers the event source for an event object.
func WithEventSource(object task.EventObject, src host.EventSource) Option {
	return func(e *Engine) {
		if e.dispatch.Sources == nil {
			e.dispatch.Sources = make(map[task.EventObject]host.EventSource)
		}
		e.dispatch.Sources[object] = src
	}
}

// WithOverlapPolicy sets how overlapping timer ticks are handled.
func WithOverlapPolicy(p dispatch.OverlapPolicy) Option {
	return func(e *Engine) {
		e.dispatch.Overlap = p
	}
}
