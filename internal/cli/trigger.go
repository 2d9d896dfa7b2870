package cli

import (
	"github.com/spf13/cobra"
)

func newTriggerCommand(g *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "trigger <name>",
		Short: "Run every task with the named manual trigger",
		Long: `Trigger activates a manual trigger by name. Names match without regard to
case, and every task owning a matching trigger runs in list order. An
unknown name runs nothing.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := g.loadApp(cmd)
			if err != nil {
				return err
			}
			return a.Trigger(cmd.Context(), args[0])
		},
	}
}
