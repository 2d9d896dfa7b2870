package step

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"
	"time"
)

func newTestSpawner(stderr *bytes.Buffer) *ShellSpawner {
	cfg := DefaultShellConfig()
	cfg.Stderr = nil
	if stderr != nil {
		cfg.Stderr = stderr
	}
	return NewShellSpawner(cfg)
}

func TestShellSpawnerStdoutTee(t *testing.T) {
	var live bytes.Buffer
	cfg := DefaultShellConfig()
	cfg.Stderr = nil
	cfg.Stdout = &live
	s := NewShellSpawner(cfg)

	res, err := s.Spawn(context.Background(), Request{Command: "echo both"})
	if err != nil {
		t.Fatal(err)
	}
	if live.String() != "both\n" {
		t.Errorf("live = %q", live.String())
	}
	if string(res.Stdout) != "both\n" {
		t.Errorf("captured = %q", res.Stdout)
	}
}

func TestShellSpawnerSuccess(t *testing.T) {
	s := newTestSpawner(nil)

	res, err := s.Spawn(context.Background(), Request{Command: "echo hi"})
	if err != nil {
		t.Fatalf("Spawn failed: %v", err)
	}
	if !res.Success() {
		t.Errorf("ExitCode = %d, want 0", res.ExitCode)
	}
	if got := strings.TrimSpace(string(res.Stdout)); got != "hi" {
		t.Errorf("Stdout = %q, want hi", got)
	}
}

func TestShellSpawnerNonZeroExit(t *testing.T) {
	s := newTestSpawner(nil)

	res, err := s.Spawn(context.Background(), Request{Command: "exit 3"})
	if err != nil {
		t.Fatalf("non-zero exit should not be an error, got %v", err)
	}
	if res.ExitCode != 3 || res.Success() {
		t.Errorf("ExitCode = %d, want 3", res.ExitCode)
	}
}

func TestShellSpawnerStderrForwarded(t *testing.T) {
	var stderr bytes.Buffer
	s := newTestSpawner(&stderr)

	if _, err := s.Spawn(context.Background(), Request{Command: "echo oops >&2"}); err != nil {
		t.Fatal(err)
	}
	if got := strings.TrimSpace(stderr.String()); got != "oops" {
		t.Errorf("stderr = %q, want oops", got)
	}
}

func TestShellSpawnerEnvironmentPrecedence(t *testing.T) {
	cfg := DefaultShellConfig()
	cfg.Stderr = nil
	cfg.DefaultEnv = map[string]string{"A": "default", "B": "default", "C": "default"}
	s := NewShellSpawner(cfg)

	res, err := s.Spawn(context.Background(), Request{
		Command: `printf "%s %s %s" "$A" "$B" "$C"`,
		Env:     map[string]string{"B": "step", "C": "step"},
		Extra:   map[string]string{"C": "extra"},
	})
	if err != nil {
		t.Fatal(err)
	}
	if got := string(res.Stdout); got != "default step extra" {
		t.Errorf("env = %q, want %q", got, "default step extra")
	}
}

func TestShellSpawnerMissingShell(t *testing.T) {
	cfg := DefaultShellConfig()
	cfg.Shell = "/nonexistent/shell"
	s := NewShellSpawner(cfg)

	_, err := s.Spawn(context.Background(), Request{Command: "true"})
	var se *SpawnError
	if !errors.As(err, &se) {
		t.Fatalf("got %v, want *SpawnError", err)
	}
}

func TestShellSpawnerRejectsEmpty(t *testing.T) {
	s := newTestSpawner(nil)
	if _, err := s.Spawn(context.Background(), Request{Command: "  "}); !errors.Is(err, ErrEmptyCommand) {
		t.Errorf("got %v, want ErrEmptyCommand", err)
	}

	s = NewShellSpawner(ShellConfig{})
	if _, err := s.Spawn(context.Background(), Request{Command: "true"}); !errors.Is(err, ErrNoShell) {
		t.Errorf("got %v, want ErrNoShell", err)
	}
}

func TestShellSpawnerCancel(t *testing.T) {
	s := newTestSpawner(nil)

	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()

	start := time.Now()
	_, err := s.Spawn(ctx, Request{Command: "sleep 10"})
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("got %v, want DeadlineExceeded", err)
	}
	if time.Since(start) > 5*time.Second {
		t.Error("cancellation did not stop the process")
	}
}

func TestShellSpawnerOutputLimit(t *testing.T) {
	cfg := DefaultShellConfig()
	cfg.MaxOutput = 4
	s := NewShellSpawner(cfg)

	res, err := s.Spawn(context.Background(), Request{Command: "echo abcdefgh"})
	if err != nil {
		t.Fatal(err)
	}
	if string(res.Stdout) != "abcd" {
		t.Errorf("Stdout = %q, want abcd", res.Stdout)
	}
}

func TestParamsEnv(t *testing.T) {
	if env := ParamsEnv(nil); env != nil {
		t.Errorf("ParamsEnv(nil) = %v, want nil", env)
	}

	env := ParamsEnv([]any{"notes/a.md", 42, nil})
	want := map[string]string{
		"TASKER_EVENT_COUNT": "3",
		"TASKER_EVENT_0":     "notes/a.md",
		"TASKER_EVENT_1":     "42",
		"TASKER_EVENT_2":     "",
	}
	if len(env) != len(want) {
		t.Fatalf("len = %d, want %d: %v", len(env), len(want), env)
	}
	for k, v := range want {
		if env[k] != v {
			t.Errorf("%s = %q, want %q", k, env[k], v)
		}
	}
}
