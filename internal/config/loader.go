package config

import (
	"bytes"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
	"github.com/pelletier/go-toml/v2"
)

// FileSystem is the file access the loader needs.
type FileSystem interface {
	ReadFile(path string) ([]byte, error)
}

// OSFS implements FileSystem using the real OS file system.
type OSFS struct{}

// ReadFile reads the entire file at path.
func (OSFS) ReadFile(path string) ([]byte, error) {
	return os.ReadFile(path)
}

// Loader builds a Config from defaults, a TOML file and the environment.
type Loader struct {
	fs     FileSystem
	lookup func(string) (string, bool)
}

// NewLoader creates a loader using the OS file system and environment.
func NewLoader() *Loader {
	return &Loader{fs: OSFS{}, lookup: os.LookupEnv}
}

// NewLoaderWithFS creates a loader with a custom file system and
// environment lookup. A nil lookup ignores the environment.
func NewLoaderWithFS(fsys FileSystem, lookup func(string) (string, bool)) *Loader {
	if lookup == nil {
		lookup = func(string) (string, bool) { return "", false }
	}
	return &Loader{fs: fsys, lookup: lookup}
}

// Load reads the configuration at path. An empty path or a missing file
// yields the defaults with environment overrides applied.
func Load(path string) (*Config, error) {
	return NewLoader().Load(path)
}

// Load reads the configuration at path.
func (l *Loader) Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := l.fs.ReadFile(path)
		switch {
		case err == nil:
			if err := decode(path, data, cfg); err != nil {
				return nil, err
			}
			cfg.Source = path
		case errors.Is(err, fs.ErrNotExist):
			// Defaults only.
		default:
			return nil, fmt.Errorf("reading config file %s: %w", path, err)
		}
	}

	if err := applyEnv(cfg, l.lookup); err != nil {
		return nil, err
	}

	base := "."
	if cfg.Source != "" {
		base = filepath.Dir(cfg.Source)
	}
	cfg.resolvePaths(base)

	if err := l.loadEnvFile(cfg); err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// decode parses TOML into cfg, keeping defaults for absent keys. Unknown
// keys are rejected.
func decode(path string, data []byte, cfg *Config) error {
	dec := toml.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()

	if err := dec.Decode(cfg); err != nil {
		perr := &ParseError{Path: path, Message: err.Error(), Err: err}

		var derr *toml.DecodeError
		if errors.As(err, &derr) {
			perr.Line, perr.Column = derr.Position()
		}
		var serr *toml.StrictMissingError
		if errors.As(err, &serr) {
			perr.Message = strings.TrimSpace(serr.String())
		}
		return perr
	}
	return nil
}

// loadEnvFile merges the dotenv file beneath the explicit [shell.env] table.
func (l *Loader) loadEnvFile(cfg *Config) error {
	if cfg.Shell.EnvFile == "" {
		return nil
	}

	data, err := l.fs.ReadFile(cfg.Shell.EnvFile)
	if err != nil {
		return fmt.Errorf("reading env file %s: %w", cfg.Shell.EnvFile, err)
	}

	vars, err := godotenv.Unmarshal(string(data))
	if err != nil {
		return &ParseError{Path: cfg.Shell.EnvFile, Message: err.Error(), Err: err}
	}

	merged := make(map[string]string, len(vars)+len(cfg.Shell.Env))
	for k, v := range vars {
		merged[k] = v
	}
	for k, v := range cfg.Shell.Env {
		merged[k] = v
	}
	cfg.Shell.Env = merged
	return nil
}

// resolvePaths makes relative file settings relative to base.
func (c *Config) resolvePaths(base string) {
	c.Settings.Path = resolve(base, c.Settings.Path)
	c.Vault.Dir = resolve(base, c.Vault.Dir)
	c.Shell.EnvFile = resolve(base, c.Shell.EnvFile)
	c.Shell.Dir = resolve(base, c.Shell.Dir)
	c.Script.ModuleDir = resolve(base, c.Script.ModuleDir)
}

func resolve(base, p string) string {
	if p == "" {
		return ""
	}
	if strings.HasPrefix(p, "~/") {
		if home, err := os.UserHomeDir(); err == nil {
			return filepath.Join(home, p[2:])
		}
	}
	if filepath.IsAbs(p) {
		return filepath.Clean(p)
	}
	return filepath.Join(base, p)
}
