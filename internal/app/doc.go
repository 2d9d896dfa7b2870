// Package app wires the tasker host together and manages its lifecycle.
//
// Bootstrap order:
//
//  1. configuration (TOML, environment, dotenv)
//  2. logger
//  3. settings store
//  4. host capabilities: command registry, vault and workspace emitters,
//     shell spawner, Lua evaluator
//  5. engine (owns the trigger dispatcher)
//
// Run loads the settings, binds triggers, optionally watches the vault and
// blocks until its context is cancelled or Quit is called. On the way out
// it raises workspace "quit" and vault "closed", waits for in-flight runs
// and saves the settings.
package app
