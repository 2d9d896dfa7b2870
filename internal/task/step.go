package task

import (
	"fmt"
	"strings"
)

// StepKind identifies a Step variant.
type StepKind string

// Step kinds. The values are the persisted "type" tags.
const (
	StepCommand StepKind = "command"
	StepManual  StepKind = "manual"
	StepShell   StepKind = "shell"
	StepScript  StepKind = "script"
)

// Step is one action performed when a task runs.
//
// The variants are *CommandStep, *ManualStep, *ShellStep and *ScriptStep.
type Step interface {
	Kind() StepKind
	isStep()
}

// CommandStep invokes a command registered with the host by id.
type CommandStep struct {
	Command string
}

// ManualStep activates every task owning a manual trigger named Command.
type ManualStep struct {
	Command string
}

// ShellStep runs Command through the shell.
type ShellStep struct {
	Command string

	// Env is added to the process environment, overriding inherited values.
	Env map[string]string

	// BreakOnNonZero stops the remaining steps when the exit code is non-zero.
	BreakOnNonZero bool
}

// ScriptStep evaluates Command as a script fragment.
type ScriptStep struct {
	Command string

	// BreakOnError stops the remaining steps when evaluation fails.
	BreakOnError bool
}

func (*CommandStep) Kind() StepKind { return StepCommand }
func (*ManualStep) Kind() StepKind  { return StepManual }
func (*ShellStep) Kind() StepKind   { return StepShell }
func (*ScriptStep) Kind() StepKind  { return StepScript }

func (*CommandStep) isStep() {}
func (*ManualStep) isStep()  {}
func (*ShellStep) isStep()   {}
func (*ScriptStep) isStep()  {}

// Describe renders a one-line label for s.
func Describe(s Step) string {
	switch v := s.(type) {
	case *CommandStep:
		return fmt.Sprintf("Command: %s", v.Command)
	case *ManualStep:
		return fmt.Sprintf("Trigger: %s", v.Command)
	case *ShellStep:
		return fmt.Sprintf("Shell: %s", firstLine(v.Command))
	case *ScriptStep:
		return fmt.Sprintf("Script: %s", firstLine(v.Command))
	default:
		panic(fmt.Sprintf("task: unhandled step type %T", s))
	}
}

// CommandText returns the command string of any step variant.
func CommandText(s Step) string {
	switch v := s.(type) {
	case *CommandStep:
		return v.Command
	case *ManualStep:
		return v.Command
	case *ShellStep:
		return v.Command
	case *ScriptStep:
		return v.Command
	default:
		panic(fmt.Sprintf("task: unhandled step type %T", s))
	}
}

func firstLine(s string) string {
	s = strings.TrimSpace(s)
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		return s[:i] + " …"
	}
	return s
}
