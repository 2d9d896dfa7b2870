package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/dshills/tasker/internal/task"
)

func newEmitCommand(g *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "emit <object> <event> [params...]",
		Short: "Raise a host event once and run the tasks bound to it",
		Long: `Emit raises object::event with the given parameters and waits for the
activations it starts. Shell steps see the parameters as TASKER_EVENT_0..n
and scripts as tasker.params.

Objects: vault, workspace. Use "tasker list --events" for the event names.`,
		Args: cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := g.loadApp(cmd)
			if err != nil {
				return err
			}

			params := make([]any, 0, len(args)-2)
			for _, p := range args[2:] {
				params = append(params, p)
			}
			n, err := a.Emit(cmd.Context(), task.EventObject(args[0]), args[1], params...)
			if err != nil {
				return err
			}
			a.Logger().Debug("%s::%s delivered to %d bindings", args[0], args[1], n)
			if n == 0 {
				fmt.Fprintf(cmd.ErrOrStderr(), "no task is bound to %s::%s\n", args[0], args[1])
			}
			return nil
		},
	}
}
