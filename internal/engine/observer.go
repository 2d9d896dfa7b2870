package engine

import (
	"time"

	"github.com/dshills/tasker/internal/task"
)

// RunInfo identifies one task run.
type RunInfo struct {
	ID       string
	ParentID string
	Task     *task.Task
	Label    string
	Depth    int
	Started  time.Time
}

// StepResult describes one finished step.
type StepResult struct {
	Index    int
	Step     task.Step
	Duration time.Duration
	// Err is the step failure, including failures masked by break flags.
	Err error
	// Masked is true when Err did not stop the task.
	Masked bool
}

// Observer receives run lifecycle notifications. Calls happen on the
// goroutine executing the run.
type Observer interface {
	OnRunStarted(run RunInfo)
	OnStepFinished(run RunInfo, result StepResult)
	OnRunFinished(run RunInfo, err error)
}

// observers fans out to several observers.
type observers []Observer

func (o observers) OnRunStarted(run RunInfo) {
	for _, x := range o {
		x.OnRunStarted(run)
	}
}

func (o observers) OnStepFinished(run RunInfo, result StepResult) {
	for _, x := range o {
		x.OnStepFinished(run, result)
	}
}

func (o observers) OnRunFinished(run RunInfo, err error) {
	for _, x := range o {
		x.OnRunFinished(run, err)
	}
}
