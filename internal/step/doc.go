// Package step provides the subprocess primitive used by shell steps.
//
// A Spawner runs one command line through a shell and reports its exit
// status. Non-zero exit is not an error at this level; the caller decides
// whether it aborts the task. An error is returned only when the process
// could not be started or was interrupted.
//
//	Request{Command, Env, Extra}
//	        │
//	        ▼
//	ShellSpawner ── os/exec ──> /bin/sh -c <command>
//	        │                       │ stdout (captured)
//	        │                       │ stderr (forwarded)
//	        ▼
//	Result{ExitCode, Stdout, Duration}
package step
