package config

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"
)

// EnvPrefix is the prefix of every environment override.
const EnvPrefix = "TASKER_"

// envSetter applies one environment value to a Config.
type envSetter func(c *Config, v string) error

// envMapping maps environment variables to the settings they override.
var envMapping = map[string]envSetter{
	"TASKER_SETTINGS_PATH":           func(c *Config, v string) error { c.Settings.Path = v; return nil },
	"TASKER_VAULT_DIR":               func(c *Config, v string) error { c.Vault.Dir = v; return nil },
	"TASKER_VAULT_WATCH":             func(c *Config, v string) error { return setBool(&c.Vault.Watch, v) },
	"TASKER_SHELL_PROGRAM":           func(c *Config, v string) error { c.Shell.Program = v; return nil },
	"TASKER_SHELL_ARGS":              func(c *Config, v string) error { c.Shell.Args = strings.Fields(v); return nil },
	"TASKER_SHELL_ENV_FILE":          func(c *Config, v string) error { c.Shell.EnvFile = v; return nil },
	"TASKER_SCRIPT_MODULE_DIR":       func(c *Config, v string) error { c.Script.ModuleDir = v; return nil },
	"TASKER_SCRIPT_TIMEOUT":          func(c *Config, v string) error { return setDuration(&c.Script.Timeout, v) },
	"TASKER_ENGINE_MAX_DEPTH":        func(c *Config, v string) error { return setInt(&c.Engine.MaxDepth, v) },
	"TASKER_ENGINE_TIMER_OVERLAP":    func(c *Config, v string) error { c.Engine.TimerOverlap = v; return nil },
	"TASKER_ENGINE_SHUTDOWN_TIMEOUT": func(c *Config, v string) error { return setDuration(&c.Engine.ShutdownTimeout, v) },
	"TASKER_LOG_LEVEL":               func(c *Config, v string) error { c.Logging.Level = v; return nil },
}

// EnvVars returns the supported environment variable names.
func EnvVars() []string {
	names := make([]string, 0, len(envMapping))
	for name := range envMapping {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// applyEnv applies every mapped variable that is set.
// Note: Empty string values are treated as valid values, not as unset.
func applyEnv(c *Config, lookup func(string) (string, bool)) error {
	for _, name := range EnvVars() {
		v, ok := lookup(name)
		if !ok {
			continue
		}
		if err := envMapping[name](c, v); err != nil {
			return fmt.Errorf("%w: %s: %v", ErrInvalidEnv, name, err)
		}
	}
	return nil
}

func setBool(dst *bool, v string) error {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "1", "true", "yes", "on":
		*dst = true
	case "0", "false", "no", "off", "":
		*dst = false
	default:
		return fmt.Errorf("not a boolean: %q", v)
	}
	return nil
}

func setInt(dst *int, v string) error {
	n, err := strconv.Atoi(strings.TrimSpace(v))
	if err != nil {
		return err
	}
	*dst = n
	return nil
}

func setDuration(dst *Duration, v string) error {
	d, err := time.ParseDuration(strings.TrimSpace(v))
	if err != nil {
		return err
	}
	dst.Duration = d
	return nil
}
