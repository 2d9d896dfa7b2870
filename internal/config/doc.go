// Package config loads the tasker configuration.
//
// Values are layered, later layers winning:
//
//  1. Default()
//  2. the TOML file (missing file is not an error)
//  3. TASKER_* environment variables
//
// The optional [shell] env_file is read with godotenv and merged beneath
// [shell.env]. Relative paths are resolved against the directory of the
// configuration file.
//
// Example:
//
//	[settings]
//	path = "tasks.json"
//
//	[vault]
//	dir = "~/notes"
//	watch = true
//
//	[shell]
//	program = "/bin/bash"
//	args = ["-c"]
//	env_file = ".env"
//
//	[shell.env]
//	VAULT = "~/notes"
//
//	[script]
//	module_dir = "lua"
//	timeout = "30s"
//
//	[engine]
//	max_depth = 32
//	timer_overlap = "skip"
//	shutdown_timeout = "10s"
//
//	[logging]
//	level = "debug"
package config
