package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/dshills/tasker/internal/task"
)

type addFlags struct {
	manual   []string
	every    []int
	on       []string
	commands []string
	triggers []string
	shell    []string
	scripts  []string
	breaks   bool
}

func newAddCommand(g *globalFlags) *cobra.Command {
	f := &addFlags{}

	cmd := &cobra.Command{
		Use:   "add [label]",
		Short: "Append a task to the settings file",
		Long: `Add appends a task with the given triggers and steps and saves the
settings. Steps are added in kind order: commands, manual triggers, shell
commands, scripts. An empty label becomes "New Task (n)".`,
		Example: `  tasker add Backup --every 3600 --shell 'rsync -a notes/ backup/'
  tasker add "On new note" --on vault::create --script 'print(require("tasker").params[1])'`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			t, err := f.build()
			if err != nil {
				return err
			}

			a, err := g.loadApp(cmd)
			if err != nil {
				return err
			}

			label := ""
			if len(args) == 1 {
				label = args[0]
			}
			created := a.Engine().Registry().AddTask(label)
			created.Triggers = append(created.Triggers, t.Triggers...)
			created.Steps = append(created.Steps, t.Steps...)

			if err := a.Save(); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "added %q (%s)\n", created.Label, created.ID)
			return nil
		},
	}

	fl := cmd.Flags()
	fl.StringArrayVar(&f.manual, "manual", nil, "manual trigger name (repeatable)")
	fl.IntSliceVar(&f.every, "every", nil, "timer trigger interval in seconds (repeatable)")
	fl.StringArrayVar(&f.on, "on", nil, "event trigger as object::event (repeatable)")
	fl.StringArrayVar(&f.commands, "command", nil, "host command step (repeatable)")
	fl.StringArrayVar(&f.triggers, "trigger", nil, "manual trigger step (repeatable)")
	fl.StringArrayVar(&f.shell, "shell", nil, "shell step (repeatable)")
	fl.StringArrayVar(&f.scripts, "script", nil, "Lua script step (repeatable)")
	fl.BoolVar(&f.breaks, "break", false, "stop the task when a shell or script step fails")
	return cmd
}

// build turns the flags into an unregistered task holding the triggers and
// steps.
func (f *addFlags) build() (*task.Task, error) {
	t := task.NewTask("")

	for _, name := range f.manual {
		if name == "" {
			return nil, task.ErrEmptyName
		}
		t.AddTrigger(&task.ManualTrigger{Name: name})
	}
	for _, secs := range f.every {
		if secs < 1 {
			return nil, fmt.Errorf("%w: %d", task.ErrInvalidInterval, secs)
		}
		t.AddTrigger(&task.TimerTrigger{Interval: secs})
	}
	for _, s := range f.on {
		key, ok := task.ParseEventKey(s)
		if !ok {
			return nil, fmt.Errorf("%w: %q", task.ErrUnknownEvent, s)
		}
		t.AddTrigger(&task.EventTrigger{Object: key.Object, Event: key.Event})
	}

	for _, c := range f.commands {
		t.AddStep(&task.CommandStep{Command: c})
	}
	for _, c := range f.triggers {
		t.AddStep(&task.ManualStep{Command: c})
	}
	for _, c := range f.shell {
		t.AddStep(&task.ShellStep{Command: c, BreakOnNonZero: f.breaks})
	}
	for _, c := range f.scripts {
		t.AddStep(&task.ScriptStep{Command: c, BreakOnError: f.breaks})
	}
	return t, nil
}
