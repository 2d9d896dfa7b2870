// Package host provides the capabilities the engine consumes from the
// application it runs in: a command registry, named event sources, and a
// file-system watcher that raises vault events.
//
// The engine depends only on the CommandExecutor and EventSource
// interfaces. CommandRegistry, Emitter and VaultWatcher are the in-process
// implementations used by the command-line host and by tests.
//
//	┌──────────────┐  Emit("modify", path)  ┌─────────────┐
//	│ VaultWatcher │ ─────────────────────▶ │ Emitter     │
//	│  (fsnotify)  │                        │  "vault"    │
//	└──────────────┘                        └──────┬──────┘
//	                                               │ Handler(ctx, params)
//	                                               ▼
//	                                        dispatch.Dispatcher
package host
