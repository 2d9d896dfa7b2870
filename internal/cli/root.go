// Package cli implements the tasker command-line interface.
package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/dshills/tasker/internal/app"
	"github.com/dshills/tasker/internal/dispatch"
)

var (
	appVersion = "dev"
	appCommit  = "none"
	appDate    = "unknown"
)

// SetVersionInfo sets the version information injected via ldflags.
func SetVersionInfo(version, commit, date string) {
	appVersion = version
	appCommit = commit
	appDate = date
}

// globalFlags are shared by every subcommand.
type globalFlags struct {
	configPath   string
	settingsPath string
	logLevel     string
}

// NewRootCommand builds the tasker command tree.
func NewRootCommand() *cobra.Command {
	g := &globalFlags{}

	root := &cobra.Command{
		Use:   "tasker",
		Short: "Run tasks from manual, timer and event triggers",
		Long: `Tasker keeps a list of tasks. Each task runs its steps (host commands,
other manual triggers, shell commands and Lua scripts) when one of its
triggers fires: by name, on a timer, or on a vault or workspace event.

Tasks live in a settings file (JSON or YAML). Host options live in a TOML
config file.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	pf := root.PersistentFlags()
	pf.StringVarP(&g.configPath, "config", "c", "tasker.toml", "path to the configuration file")
	pf.StringVarP(&g.settingsPath, "settings", "s", "", "path to the task settings file (overrides config)")
	pf.StringVar(&g.logLevel, "log-level", "", "log level (debug, info, warn, error)")

	root.AddCommand(
		newRunCommand(g),
		newTriggerCommand(g),
		newListCommand(g),
		newAddCommand(g),
		newValidateCommand(g),
		newEmitCommand(g),
		newVersionCommand(),
	)
	return root
}

// Execute runs the root command.
func Execute() error {
	return NewRootCommand().Execute()
}

func newVersionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "tasker %s\ncommit: %s\nbuilt:  %s\n", appVersion, appCommit, appDate)
		},
	}
}

// newApp creates an application for a subcommand.
func (g *globalFlags) newApp(cmd *cobra.Command, opts app.Options) (*app.Application, error) {
	opts.ConfigPath = g.configPath
	opts.SettingsPath = g.settingsPath
	opts.LogLevel = g.logLevel
	opts.Stdout = cmd.OutOrStdout()
	opts.Stderr = cmd.ErrOrStderr()
	return app.New(opts)
}

// loadApp creates an application for a one-shot command and loads its
// settings. One-shot commands never watch the vault and their timers never
// fire. Triggers that fail to bind are reported but do not stop the command.
func (g *globalFlags) loadApp(cmd *cobra.Command) (*app.Application, error) {
	a, err := g.newApp(cmd, app.Options{
		NoWatch:   true,
		Scheduler: dispatch.NewManualScheduler(),
	})
	if err != nil {
		return nil, err
	}
	if err := a.Load(); err != nil {
		var be *dispatch.BindError
		if !errors.As(err, &be) {
			return nil, err
		}
		a.Logger().Warn("%v", err)
	}
	return a, nil
}
