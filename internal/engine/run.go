package engine

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/dshills/tasker/internal/step"
	"github.com/dshills/tasker/internal/task"
)

// RunTask runs t: its before tasks, its steps, then its after tasks.
//
// A failing before task stops the run. A step failure that breaks the
// task skips the remaining steps; the after tasks still run and the step
// failure is returned as a *RunError, joined with any after failure.
func (e *Engine) RunTask(ctx context.Context, t *task.Task) (err error) {
	parent := chainFrom(ctx)
	if parent == nil {
		if !e.enter() {
			return ErrShutdown
		}
		defer e.active.Done()
	}

	label := ""
	if t != nil {
		label = t.Label
	}
	fail := func(cause error) error {
		return &RunError{Task: t, Label: label, Index: -1, Err: cause}
	}

	snap, ok := e.registry.Snapshot(t)
	if !ok {
		return fail(ErrUnknownTask)
	}
	if parent.contains(t) {
		return fail(ErrCycle)
	}
	if parent.level() >= e.maxDepth {
		return fail(fmt.Errorf("%w (%d)", ErrMaxDepth, e.maxDepth))
	}

	runID := uuid.NewString()
	ctx, _ = parent.push(ctx, t, runID)
	info := RunInfo{
		ID:       runID,
		ParentID: parent.id(),
		Task:     t,
		Label:    snap.Label,
		Depth:    parent.level() + 1,
		Started:  time.Now(),
	}

	e.observers.OnRunStarted(info)
	defer func() { e.observers.OnRunFinished(info, err) }()

	log := e.logger.WithFields(map[string]any{"task": snap.Label, "run": runID[:8]})
	log.Debug("run started")

	for i, dep := range snap.Before {
		if err := e.RunTask(ctx, dep); err != nil {
			return &RunError{Task: t, Label: snap.Label, Phase: PhaseBefore, Index: i, Err: err}
		}
	}

	// A failing step that is not masked stops the remaining steps but not
	// the after phase.
	var stepFailure error
	for i, s := range snap.Steps {
		start := time.Now()
		fatal, stepErr := e.runStep(ctx, s)
		e.observers.OnStepFinished(info, StepResult{
			Index:    i,
			Step:     s,
			Duration: time.Since(start),
			Err:      stepErr,
			Masked:   stepErr != nil && !fatal,
		})
		if stepErr == nil {
			continue
		}
		if fatal {
			stepFailure = &RunError{Task: t, Label: snap.Label, Phase: PhaseStep, Index: i, Err: stepErr}
			log.Debug("step %d (%s) stopped the steps: %v", i, task.Describe(s), stepErr)
			break
		}
		log.Warn("step %d (%s) failed, continuing: %v", i, task.Describe(s), stepErr)
	}

	for i, dep := range snap.After {
		if err := e.RunTask(ctx, dep); err != nil {
			afterErr := &RunError{Task: t, Label: snap.Label, Phase: PhaseAfter, Index: i, Err: err}
			if stepFailure != nil {
				return errors.Join(stepFailure, afterErr)
			}
			return afterErr
		}
	}
	if stepFailure != nil {
		return stepFailure
	}

	log.Debug("run finished in %s", time.Since(info.Started).Round(time.Millisecond))
	return nil
}

// runStep executes one step. fatal reports whether err must stop the task.
func (e *Engine) runStep(ctx context.Context, s task.Step) (fatal bool, err error) {
	switch s := s.(type) {
	case *task.CommandStep:
		return true, e.ExecuteCommand(ctx, s.Command)

	case *task.ManualStep:
		return true, e.ActivateManualTrigger(ctx, s.Command)

	case *task.ShellStep:
		return e.runShell(ctx, s)

	case *task.ScriptStep:
		if e.scripts == nil {
			return true, ErrNoScriptEvaluator
		}
		if err := e.scripts.Evaluate(ctx, s.Command); err != nil {
			return s.BreakOnError, err
		}
		return false, nil

	default:
		panic(fmt.Sprintf("engine: unknown step type %T", s))
	}
}

func (e *Engine) runShell(ctx context.Context, s *task.ShellStep) (bool, error) {
	if e.spawner == nil {
		return true, ErrNoSpawner
	}

	res, err := e.spawner.Spawn(ctx, step.Request{
		Command: s.Command,
		Env:     s.Env,
		Extra:   step.ParamsEnv(Params(ctx)),
	})
	if err != nil {
		return true, err
	}

	if out := strings.TrimSpace(string(res.Stdout)); out != "" {
		e.logger.Debug("shell output: %s", out)
	}
	if res.Success() {
		return false, nil
	}
	return s.BreakOnNonZero, fmt.Errorf("%w: exit status %d", ErrNonZeroExit, res.ExitCode)
}
