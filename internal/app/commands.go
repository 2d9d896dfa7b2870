package app

import (
	"context"
	"fmt"
)

// Host command identifiers registered by the application.
const (
	CommandSave   = "tasker:save"
	CommandReload = "tasker:reload"
	CommandList   = "tasker:list"
)

// registerCommands installs the application's own host commands so that
// command steps can save, reload and list tasks.
func (app *Application) registerCommands() {
	app.commands.RegisterFunc(CommandSave, func(ctx context.Context) error {
		return app.Save()
	})
	app.commands.RegisterFunc(CommandReload, func(ctx context.Context) error {
		return app.Load()
	})
	app.commands.RegisterFunc(CommandList, func(ctx context.Context) error {
		for _, t := range app.engine.Registry().Tasks() {
			fmt.Fprintln(app.opts.Stdout, t.String())
		}
		return nil
	})
}
