// Package engine runs tasks and activates triggers.
//
// RunTask executes a task in three phases:
//
//	before[0..n]  each run recursively, in order
//	steps[0..n]   command, manual, shell, script
//	after[0..n]   each run recursively, in order
//
// Shell and script steps may fail without stopping the task unless their
// break flag is set. Command and manual steps always stop the task on
// failure. A stopped step list skips the after phase.
//
// Every run carries the chain of tasks currently executing on its context.
// Entering a task already on the chain fails with ErrCycle, and chains
// longer than the configured depth fail with ErrMaxDepth.
//
// The engine owns a dispatch.Dispatcher for timer and event triggers; Load
// and Rebind refresh its bindings from the registry.
package engine
