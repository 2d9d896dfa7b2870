// Package task holds the automation data model: tasks, their triggers and
// steps, the registry that owns them, and the persisted settings format.
//
// # Model
//
// A Task combines an ordered list of Steps, a list of Triggers, and two lists
// of dependency tasks that run before and after the steps:
//
//	┌──────────────────────────────────────────────┐
//	│ Task "Publish"                               │
//	│   Before:   [*Task "Build"]                  │
//	│   Triggers: [Manual "publish", Timer 3600s]  │
//	│   Steps:    [Shell, Script, Command, Manual] │
//	│   After:    [*Task "Notify"]                 │
//	└──────────────────────────────────────────────┘
//
// Before and After hold pointers into the Registry; the same task may be
// referenced from many places. Triggers and Steps are owned by their task.
//
// Trigger and Step are sealed interfaces. Every operation over them (label
// rendering, encoding, execution in package engine) is an exhaustive type
// switch, so adding a variant is a compile-visible change at each site.
//
// # Identity
//
// Tasks are identified by pointer at run time. Each task also carries a
// stable ID which is only used to persist Before/After edges.
//
// # Persistence
//
// Encode and Decode convert between a Registry's tasks and the JSON settings
// blob. Decode runs Migrate first, which rewrites blobs written by older
// versions (tasks without IDs, dependency lists stored as labels or embedded
// copies, legacy step tags) into the current shape.
package task
