package app

import (
	"time"

	"github.com/dshills/tasker/internal/engine"
	"github.com/dshills/tasker/internal/logging"
	"github.com/dshills/tasker/internal/task"
)

// runLogger reports task runs through the application logger.
type runLogger struct {
	logger *logging.Logger
}

func newRunLogger(l *logging.Logger) *runLogger {
	return &runLogger{logger: l.WithComponent("engine")}
}

func (r *runLogger) OnRunStarted(run engine.RunInfo) {
	r.logger.WithField("run", run.ID).Info("task %q started (depth %d)", run.Label, run.Depth)
}

func (r *runLogger) OnStepFinished(run engine.RunInfo, res engine.StepResult) {
	l := r.logger.WithFields(map[string]any{"run": run.ID, "step": res.Index})
	switch {
	case res.Err == nil:
		l.Debug("%s done in %s", task.Describe(res.Step), res.Duration.Round(time.Millisecond))
	case res.Masked:
		l.Warn("%s failed, continuing: %v", task.Describe(res.Step), res.Err)
	default:
		l.Error("%s failed: %v", task.Describe(res.Step), res.Err)
	}
}

func (r *runLogger) OnRunFinished(run engine.RunInfo, err error) {
	l := r.logger.WithField("run", run.ID)
	elapsed := time.Since(run.Started).Round(time.Millisecond)
	if err != nil {
		l.Error("task %q failed after %s: %v", run.Label, elapsed, err)
		return
	}
	l.Info("task %q finished in %s", run.Label, elapsed)
}
