package step

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	osexec "os/exec"
	"sort"
	"strings"
	"syscall"
	"time"
)

// Request describes one shell invocation.
type Request struct {
	// Command is the command text handed to the shell.
	Command string

	// Env holds the step's own variables.
	Env map[string]string

	// Extra holds variables that override Env, such as event parameters.
	Extra map[string]string
}

// Result is the outcome of a process that ran to completion.
type Result struct {
	ExitCode int
	Stdout   []byte
	Duration time.Duration
}

// Success reports whether the process exited with status 0.
func (r Result) Success() bool {
	return r.ExitCode == 0
}

// Spawner runs shell commands.
type Spawner interface {
	Spawn(ctx context.Context, req Request) (Result, error)
}

// SpawnerFunc adapts a function to the Spawner interface.
type SpawnerFunc func(ctx context.Context, req Request) (Result, error)

// Spawn calls f.
func (f SpawnerFunc) Spawn(ctx context.Context, req Request) (Result, error) {
	return f(ctx, req)
}

// ShellConfig configures a ShellSpawner.
type ShellConfig struct {
	// Shell is the program used to interpret commands.
	Shell string

	// Args are passed to Shell before the command text.
	Args []string

	// DefaultEnv is added to every process, below the step's own Env.
	DefaultEnv map[string]string

	// WorkingDir is the process working directory. Empty means inherit.
	WorkingDir string

	// Stdout, when set, also receives the process's standard output as it
	// is produced. Capture into Result.Stdout happens either way.
	Stdout io.Writer

	// Stderr receives the process's standard error. Nil discards it.
	Stderr io.Writer

	// MaxOutput caps captured stdout in bytes (0 = unlimited).
	MaxOutput int
}

// DefaultShellConfig returns a configuration using /bin/sh -c.
func DefaultShellConfig() ShellConfig {
	return ShellConfig{
		Shell:     "/bin/sh",
		Args:      []string{"-c"},
		Stderr:    os.Stderr,
		MaxOutput: 1 << 20,
	}
}

// ShellSpawner runs commands through a shell using os/exec.
type ShellSpawner struct {
	config ShellConfig
}

// NewShellSpawner creates a spawner.
func NewShellSpawner(config ShellConfig) *ShellSpawner {
	return &ShellSpawner{config: config}
}

// Config returns the spawner configuration.
func (s *ShellSpawner) Config() ShellConfig {
	return s.config
}

// Spawn runs req.Command and waits for it to exit.
func (s *ShellSpawner) Spawn(ctx context.Context, req Request) (Result, error) {
	if s.config.Shell == "" {
		return Result{ExitCode: -1}, ErrNoShell
	}
	if strings.TrimSpace(req.Command) == "" {
		return Result{ExitCode: -1}, ErrEmptyCommand
	}

	args := append(append([]string(nil), s.config.Args...), req.Command)
	cmd := osexec.CommandContext(ctx, s.config.Shell, args...)
	cmd.Dir = s.config.WorkingDir
	cmd.Env = s.buildEnvironment(req)

	// Own process group so cancellation reaches children too.
	cmd.SysProcAttr = &syscall.SysProcAttr{Setpgid: true}
	cmd.Cancel = func() error {
		if cmd.Process == nil {
			return nil
		}
		return syscall.Kill(-cmd.Process.Pid, syscall.SIGKILL)
	}

	stdout := &limitedBuffer{max: s.config.MaxOutput}
	cmd.Stdout = stdout
	if s.config.Stdout != nil {
		cmd.Stdout = io.MultiWriter(stdout, s.config.Stdout)
	}
	if s.config.Stderr != nil {
		cmd.Stderr = s.config.Stderr
	}

	start := time.Now()
	if err := cmd.Start(); err != nil {
		return Result{ExitCode: -1}, &SpawnError{Shell: s.config.Shell, Err: err}
	}

	err := cmd.Wait()
	res := Result{
		ExitCode: 0,
		Stdout:   stdout.Bytes(),
		Duration: time.Since(start),
	}

	if ctx.Err() != nil {
		res.ExitCode = -1
		return res, &SpawnError{Shell: s.config.Shell, Err: ctx.Err()}
	}

	if err != nil {
		var exitErr *osexec.ExitError
		if errors.As(err, &exitErr) {
			res.ExitCode = exitErr.ExitCode()
			if res.ExitCode < 0 {
				// Killed by a signal.
				return res, &SpawnError{Shell: s.config.Shell, Err: fmt.Errorf("terminated: %w", err)}
			}
			return res, nil
		}
		res.ExitCode = -1
		return res, &SpawnError{Shell: s.config.Shell, Err: err}
	}

	return res, nil
}

// buildEnvironment creates the process environment.
// Precedence (highest to lowest): Extra > Env > DefaultEnv > os.Environ()
func (s *ShellSpawner) buildEnvironment(req Request) []string {
	envMap := make(map[string]string)

	for _, kv := range os.Environ() {
		if idx := strings.Index(kv, "="); idx > 0 {
			envMap[kv[:idx]] = kv[idx+1:]
		}
	}
	for k, v := range s.config.DefaultEnv {
		envMap[k] = v
	}
	for k, v := range req.Env {
		envMap[k] = v
	}
	for k, v := range req.Extra {
		envMap[k] = v
	}

	keys := make([]string, 0, len(envMap))
	for k := range envMap {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	env := make([]string, 0, len(envMap))
	for _, k := range keys {
		env = append(env, k+"="+envMap[k])
	}
	return env
}

// limitedBuffer keeps at most max bytes and silently drops the rest.
type limitedBuffer struct {
	buf bytes.Buffer
	max int
}

func (b *limitedBuffer) Write(p []byte) (int, error) {
	n := len(p)
	if b.max > 0 {
		room := b.max - b.buf.Len()
		if room <= 0 {
			return n, nil
		}
		if len(p) > room {
			p = p[:room]
		}
	}
	b.buf.Write(p)
	return n, nil
}

func (b *limitedBuffer) Bytes() []byte {
	return b.buf.Bytes()
}
