package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"
)

// ErrInvalidSettings is returned by validate when problems were found.
var ErrInvalidSettings = errors.New("settings have problems")

func newValidateCommand(g *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "validate",
		Short: "Check the configuration and task settings",
		Long: `Validate loads the configuration and the task settings and reports
missing before/after references, bad timer intervals, unknown events and
empty step commands.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := g.loadApp(cmd)
			if err != nil {
				return err
			}

			reg := a.Engine().Registry()
			if err := reg.Validate(); err != nil {
				out := cmd.OutOrStdout()
				for _, e := range unjoin(err) {
					fmt.Fprintf(out, "  %v\n", e)
				}
				return ErrInvalidSettings
			}
			fmt.Fprintf(cmd.OutOrStdout(), "ok: %d tasks\n", reg.Len())
			return nil
		},
	}
}

// unjoin flattens an errors.Join result.
func unjoin(err error) []error {
	if j, ok := err.(interface{ Unwrap() []error }); ok {
		return j.Unwrap()
	}
	return []error{err}
}
