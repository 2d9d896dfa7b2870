// Package dispatch binds timer and event triggers to their sources.
//
// The Dispatcher reads the trigger registry and installs one repeating
// schedule per timer trigger and one subscription per event trigger.
// Rebuild releases every binding and installs them again from the current
// registry, so it can be called after any edit.
//
//	Registry ──Rebuild──> Dispatcher ──Every──> Scheduler
//	                         │
//	                         └──Subscribe──> EventSource (vault, workspace)
//
//	tick / event ──> Activator.ActivateTrigger(ctx, trigger, params)
//
// Activations run on their own goroutines. Close releases the bindings
// but does not cancel activations already in flight; Wait blocks until
// they finish.
package dispatch
