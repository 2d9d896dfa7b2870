package cli

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/dshills/tasker/internal/task"
)

func newListCommand(g *globalFlags) *cobra.Command {
	var events bool

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List manual triggers and tasks",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			if events {
				printEvents(out)
				return nil
			}

			a, err := g.loadApp(cmd)
			if err != nil {
				return err
			}
			printRegistry(out, a.Engine().Registry())
			return nil
		},
	}
	cmd.Flags().BoolVar(&events, "events", false, "list the known host events instead")
	return cmd
}

func printEvents(w io.Writer) {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	for _, e := range task.Events("") {
		fmt.Fprintf(tw, "%s\t%s\n", e.EventKey, e.Name)
	}
	tw.Flush()
}

func printRegistry(w io.Writer, reg *task.Registry) {
	manual := reg.ManualTriggers()
	if len(manual) > 0 {
		fmt.Fprintln(w, "Manual triggers:")
		for _, m := range manual {
			fmt.Fprintf(w, "  %s\n", m.Name)
		}
		fmt.Fprintln(w)
	}

	tasks := reg.Tasks()
	if len(tasks) == 0 {
		fmt.Fprintln(w, "No tasks.")
		return
	}

	fmt.Fprintln(w, "Tasks:")
	for i, t := range tasks {
		fmt.Fprintf(w, "  %d. %s\n", i+1, t)
		if len(t.Before) > 0 {
			fmt.Fprintf(w, "     before: %s\n", joinTasks(t.Before))
		}
		for _, tr := range t.Triggers {
			fmt.Fprintf(w, "     on %s\n", task.DescribeTrigger(tr))
		}
		for _, s := range t.Steps {
			fmt.Fprintf(w, "     - %s\n", task.Describe(s))
		}
		if len(t.After) > 0 {
			fmt.Fprintf(w, "     after: %s\n", joinTasks(t.After))
		}
	}
}

func joinTasks(list []*task.Task) string {
	names := make([]string, len(list))
	for i, t := range list {
		names[i] = t.String()
	}
	return strings.Join(names, ", ")
}
