package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/dshills/tasker/internal/dispatch"
	"github.com/dshills/tasker/internal/logging"
)

// Default configuration values.
const (
	DefaultSettingsPath    = "tasks.json"
	DefaultShell           = "/bin/sh"
	DefaultScriptTimeout   = 30 * time.Second
	DefaultMaxDepth        = 32
	DefaultShutdownTimeout = 10 * time.Second
	DefaultCallStackSize   = 200
	DefaultRegistryMaxSize = 1024 * 80
)

// Duration is a time.Duration written as a string such as "30s" in TOML.
type Duration struct {
	time.Duration
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (d *Duration) UnmarshalText(text []byte) error {
	v, err := time.ParseDuration(strings.TrimSpace(string(text)))
	if err != nil {
		return err
	}
	d.Duration = v
	return nil
}

// MarshalText implements encoding.TextMarshaler.
func (d Duration) MarshalText() ([]byte, error) {
	return []byte(d.Duration.String()), nil
}

// Config is the complete tasker configuration.
type Config struct {
	Settings SettingsConfig `toml:"settings"`
	Vault    VaultConfig    `toml:"vault"`
	Shell    ShellConfig    `toml:"shell"`
	Script   ScriptConfig   `toml:"script"`
	Engine   EngineConfig   `toml:"engine"`
	Logging  LoggingConfig  `toml:"logging"`

	// Source is the file the configuration was read from, if any.
	Source string `toml:"-"`
}

// SettingsConfig locates the persisted task settings.
type SettingsConfig struct {
	// Path is the settings file; .json, .yaml and .yml are supported.
	Path string `toml:"path"`
}

// VaultConfig configures the watched vault directory.
type VaultConfig struct {
	Dir   string `toml:"dir"`
	Watch bool   `toml:"watch"`
}

// ShellConfig configures shell steps.
type ShellConfig struct {
	Program string            `toml:"program"`
	Args    []string          `toml:"args"`
	EnvFile string            `toml:"env_file"`
	Env     map[string]string `toml:"env"`
	Dir     string            `toml:"dir"`
}

// ScriptConfig configures script steps.
type ScriptConfig struct {
	ModuleDir       string   `toml:"module_dir"`
	Timeout         Duration `toml:"timeout"`
	CallStackSize   int      `toml:"call_stack_size"`
	RegistryMaxSize int      `toml:"registry_max_size"`
}

// EngineConfig configures task execution.
type EngineConfig struct {
	MaxDepth        int      `toml:"max_depth"`
	TimerOverlap    string   `toml:"timer_overlap"`
	ShutdownTimeout Duration `toml:"shutdown_timeout"`
}

// LoggingConfig configures the logger.
type LoggingConfig struct {
	Level string `toml:"level"`
}

// Default returns a configuration with every value set.
func Default() *Config {
	return &Config{
		Settings: SettingsConfig{Path: DefaultSettingsPath},
		Vault:    VaultConfig{Dir: ".", Watch: true},
		Shell: ShellConfig{
			Program: DefaultShell,
			Args:    []string{"-c"},
			Env:     map[string]string{},
		},
		Script: ScriptConfig{
			Timeout:         Duration{DefaultScriptTimeout},
			CallStackSize:   DefaultCallStackSize,
			RegistryMaxSize: DefaultRegistryMaxSize,
		},
		Engine: EngineConfig{
			MaxDepth:        DefaultMaxDepth,
			TimerOverlap:    "allow",
			ShutdownTimeout: Duration{DefaultShutdownTimeout},
		},
		Logging: LoggingConfig{Level: "info"},
	}
}

// Validate checks every setting and returns the first problem found.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.Settings.Path) == "" {
		return &ValidationError{Path: "settings.path", Message: "must not be empty"}
	}
	if strings.TrimSpace(c.Shell.Program) == "" {
		return &ValidationError{Path: "shell.program", Message: "must not be empty"}
	}
	if c.Script.Timeout.Duration < 0 {
		return &ValidationError{Path: "script.timeout", Message: "must not be negative"}
	}
	if c.Script.CallStackSize < 0 {
		return &ValidationError{Path: "script.call_stack_size", Message: "must not be negative"}
	}
	if c.Script.RegistryMaxSize < 0 {
		return &ValidationError{Path: "script.registry_max_size", Message: "must not be negative"}
	}
	if c.Engine.MaxDepth < 1 {
		return &ValidationError{Path: "engine.max_depth", Message: "must be at least 1"}
	}
	if _, err := dispatch.ParseOverlapPolicy(c.Engine.TimerOverlap); err != nil {
		return &ValidationError{Path: "engine.timer_overlap", Message: `must be "allow" or "skip"`}
	}
	if c.Engine.ShutdownTimeout.Duration <= 0 {
		return &ValidationError{Path: "engine.shutdown_timeout", Message: "must be positive"}
	}
	if !logging.ValidLevel(c.Logging.Level) {
		return &ValidationError{Path: "logging.level", Message: fmt.Sprintf("unknown level %q", c.Logging.Level)}
	}
	return nil
}

// OverlapPolicy returns the parsed timer overlap policy.
func (c *Config) OverlapPolicy() dispatch.OverlapPolicy {
	p, _ := dispatch.ParseOverlapPolicy(c.Engine.TimerOverlap)
	return p
}

// LogLevel returns the parsed log level.
func (c *Config) LogLevel() logging.Level {
	return logging.ParseLevel(c.Logging.Level)
}
