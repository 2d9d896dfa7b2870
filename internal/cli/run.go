package cli

import (
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/dshills/tasker/internal/app"
)

func newRunCommand(g *globalFlags) *cobra.Command {
	var noWatch bool

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Bind every trigger and run until interrupted",
		Long: `Run loads the task settings, starts timers, subscribes event triggers and
watches the vault directory for file changes. On SIGINT or SIGTERM the
workspace "quit" and vault "closed" events fire, running tasks finish and
the settings are saved.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := g.newApp(cmd, app.Options{NoWatch: noWatch})
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			return a.Run(ctx)
		},
	}
	cmd.Flags().BoolVar(&noWatch, "no-watch", false, "do not watch the vault directory")
	return cmd
}
