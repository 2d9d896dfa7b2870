package engine

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/dshills/tasker/internal/dispatch"
	"github.com/dshills/tasker/internal/host"
	"github.com/dshills/tasker/internal/step"
	"github.com/dshills/tasker/internal/task"
)

// journal records side effects in order.
type journal struct {
	mu      sync.Mutex
	entries []string
}

func (j *journal) add(s string) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.entries = append(j.entries, s)
}

func (j *journal) list() []string {
	j.mu.Lock()
	defer j.mu.Unlock()
	return append([]string(nil), j.entries...)
}

// fakeSpawner treats "exit N" as exit code N and records everything else.
type fakeSpawner struct {
	mu       sync.Mutex
	j        *journal
	requests []step.Request
	err      error
}

func (f *fakeSpawner) Spawn(_ context.Context, req step.Request) (step.Result, error) {
	f.mu.Lock()
	f.requests = append(f.requests, req)
	f.mu.Unlock()
	f.j.add("shell:" + req.Command)
	if f.err != nil {
		return step.Result{ExitCode: -1}, f.err
	}
	code := 0
	if strings.HasPrefix(req.Command, "exit ") {
		code = int(req.Command[5] - '0')
	}
	return step.Result{ExitCode: code}, nil
}

type fakeScripts struct {
	j *journal
}

func (f *fakeScripts) Evaluate(_ context.Context, source string) error {
	f.j.add("script:" + source)
	if strings.Contains(source, "error") {
		return errors.New("script raised")
	}
	return nil
}

type fixture struct {
	engine   *Engine
	journal  *journal
	spawner  *fakeSpawner
	commands *host.CommandRegistry
	sched    *dispatch.ManualScheduler
	vault    *host.Emitter
}

func newFixture(opts ...Option) *fixture {
	j := &journal{}
	f := &fixture{
		journal:  j,
		spawner:  &fakeSpawner{j: j},
		commands: host.NewCommandRegistry(),
		sched:    dispatch.NewManualScheduler(),
		vault:    host.NewEmitter("vault"),
	}
	for _, id := range []string{"editor:save-file", "app:reload"} {
		id := id
		f.commands.RegisterFunc(id, func(context.Context) error {
			j.add("command:" + id)
			return nil
		})
	}

	base := []Option{
		WithCommandExecutor(f.commands),
		WithSpawner(f.spawner),
		WithScriptEvaluator(&fakeScripts{j: j}),
		WithScheduler(f.sched),
		WithEventSource(task.ObjectVault, f.vault),
	}
	f.engine = New(append(base, opts...)...)
	return f
}

func (f *fixture) add(label string, steps ...task.Step) *task.Task {
	t := f.engine.Registry().AddTask(label)
	for _, s := range steps {
		t.AddStep(s)
	}
	return t
}

func assertJournal(t *testing.T, j *journal, want ...string) {
	t.Helper()
	got := j.list()
	if strings.Join(got, "|") != strings.Join(want, "|") {
		t.Errorf("journal = %q, want %q", got, want)
	}
}

func TestRunTaskStepOrder(t *testing.T) {
	f := newFixture()
	other := f.add("other", &task.ShellStep{Command: "echo other"})
	other.AddTrigger(&task.ManualTrigger{Name: "Other"})

	main := f.add("main",
		&task.CommandStep{Command: "editor:save-file"},
		&task.ShellStep{Command: "echo one"},
		&task.ManualStep{Command: "other"},
		&task.ScriptStep{Command: "print(1)"},
	)

	if err := f.engine.RunTask(context.Background(), main); err != nil {
		t.Fatalf("RunTask failed: %v", err)
	}
	assertJournal(t, f.journal,
		"command:editor:save-file",
		"shell:echo one",
		"shell:echo other",
		"script:print(1)",
	)
}

func TestRunTaskPhases(t *testing.T) {
	f := newFixture()
	b1 := f.add("b1", &task.ShellStep{Command: "b1"})
	b2 := f.add("b2", &task.ShellStep{Command: "b2"})
	a1 := f.add("a1", &task.ShellStep{Command: "a1"})
	a2 := f.add("a2", &task.ShellStep{Command: "a2"})

	main := f.add("main", &task.ShellStep{Command: "main"})
	main.Before = []*task.Task{b1, b2}
	main.After = []*task.Task{a1, a2}

	if err := f.engine.RunTask(context.Background(), main); err != nil {
		t.Fatal(err)
	}
	// After tasks run after the steps, once each. An earlier run loop walked
	// Before in both phases, so After never ran and Before ran twice.
	assertJournal(t, f.journal, "shell:b1", "shell:b2", "shell:main", "shell:a1", "shell:a2")
}

func TestShellBreakOnNonZero(t *testing.T) {
	f := newFixture()
	after := f.add("after", &task.ShellStep{Command: "after"})
	main := f.add("main",
		&task.ShellStep{Command: "exit 1", BreakOnNonZero: true},
		&task.ShellStep{Command: "never"},
	)
	main.After = []*task.Task{after}

	err := f.engine.RunTask(context.Background(), main)
	if !errors.Is(err, ErrNonZeroExit) {
		t.Fatalf("got %v, want ErrNonZeroExit", err)
	}
	var re *RunError
	if !errors.As(err, &re) || re.Phase != PhaseStep || re.Index != 0 || re.Label != "main" {
		t.Errorf("RunError = %+v", re)
	}
	if len(f.spawner.requests) != 2 {
		t.Errorf("spawns = %d, want 2", len(f.spawner.requests))
	}
	// The break skips "never" but not the after list.
	assertJournal(t, f.journal, "shell:exit 1", "shell:after")
}

func TestScriptBreakStillRunsAfter(t *testing.T) {
	f := newFixture()
	after := f.add("after", &task.ShellStep{Command: "after"})
	main := f.add("main",
		&task.ScriptStep{Command: "error()", BreakOnError: true},
		&task.ShellStep{Command: "never"},
	)
	main.After = []*task.Task{after}

	err := f.engine.RunTask(context.Background(), main)
	var re *RunError
	if !errors.As(err, &re) || re.Phase != PhaseStep {
		t.Fatalf("got %v, want step RunError", err)
	}
	assertJournal(t, f.journal, "script:error()", "shell:after")
}

func TestStepAndAfterFailuresJoined(t *testing.T) {
	f := newFixture()
	after := f.add("after", &task.ShellStep{Command: "exit 2", BreakOnNonZero: true})
	main := f.add("main", &task.ShellStep{Command: "exit 1", BreakOnNonZero: true})
	main.After = []*task.Task{after}

	err := f.engine.RunTask(context.Background(), main)
	if err == nil {
		t.Fatal("expected failure")
	}
	msg := err.Error()
	if !strings.Contains(msg, "exit status 1") || !strings.Contains(msg, "exit status 2") {
		t.Errorf("err = %q, want both failures", msg)
	}
	var re *RunError
	if !errors.As(err, &re) || re.Phase != PhaseStep {
		t.Errorf("first RunError = %+v, want step phase", re)
	}
	assertJournal(t, f.journal, "shell:exit 1", "shell:exit 2")
}

func TestShellContinueOnNonZero(t *testing.T) {
	f := newFixture()
	main := f.add("main",
		&task.ShellStep{Command: "exit 2"},
		&task.ShellStep{Command: "next"},
	)

	if err := f.engine.RunTask(context.Background(), main); err != nil {
		t.Fatalf("masked failure should not fail the task: %v", err)
	}
	assertJournal(t, f.journal, "shell:exit 2", "shell:next")
}

func TestShellSpawnFailureIsFatal(t *testing.T) {
	f := newFixture()
	f.spawner.err = &step.SpawnError{Shell: "/missing", Err: errors.New("not found")}
	main := f.add("main",
		&task.ShellStep{Command: "anything"},
		&task.ShellStep{Command: "never"},
	)

	err := f.engine.RunTask(context.Background(), main)
	var se *step.SpawnError
	if !errors.As(err, &se) {
		t.Fatalf("got %v, want *step.SpawnError", err)
	}
	if len(f.spawner.requests) != 1 {
		t.Errorf("spawns = %d, want 1", len(f.spawner.requests))
	}
}

func TestScriptBreakOnError(t *testing.T) {
	tests := []struct {
		name    string
		brk     bool
		wantErr bool
		want    []string
	}{
		{"break", true, true, []string{"script:error()"}},
		{"continue", false, false, []string{"script:error()", "shell:next"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture()
			main := f.add("main",
				&task.ScriptStep{Command: "error()", BreakOnError: tt.brk},
				&task.ShellStep{Command: "next"},
			)

			err := f.engine.RunTask(context.Background(), main)
			if (err != nil) != tt.wantErr {
				t.Errorf("err = %v, wantErr %v", err, tt.wantErr)
			}
			assertJournal(t, f.journal, tt.want...)
		})
	}
}

func TestCommandFailureIsFatal(t *testing.T) {
	f := newFixture()
	main := f.add("main",
		&task.CommandStep{Command: "no:such-command"},
		&task.ShellStep{Command: "never"},
	)

	err := f.engine.RunTask(context.Background(), main)
	if !errors.Is(err, host.ErrUnknownCommand) {
		t.Fatalf("got %v, want ErrUnknownCommand", err)
	}
	assertJournal(t, f.journal)
}

func TestMissingCapabilities(t *testing.T) {
	e := New()
	reg := e.Registry()

	tests := []struct {
		step task.Step
		want error
	}{
		{&task.CommandStep{Command: "x"}, ErrNoCommandExecutor},
		{&task.ShellStep{Command: "x"}, ErrNoSpawner},
		{&task.ScriptStep{Command: "x"}, ErrNoScriptEvaluator},
	}
	for _, tt := range tests {
		tk := reg.AddTask("")
		tk.AddStep(tt.step)
		if err := e.RunTask(context.Background(), tk); !errors.Is(err, tt.want) {
			t.Errorf("%T: got %v, want %v", tt.step, err, tt.want)
		}
	}
}

func TestManualStepWithoutMatchIsNoop(t *testing.T) {
	f := newFixture()
	main := f.add("main",
		&task.ManualStep{Command: "nobody"},
		&task.ShellStep{Command: "next"},
	)

	if err := f.engine.RunTask(context.Background(), main); err != nil {
		t.Fatal(err)
	}
	assertJournal(t, f.journal, "shell:next")
}

func TestManualStepFailurePropagates(t *testing.T) {
	f := newFixture()
	failing := f.add("failing", &task.ShellStep{Command: "exit 1", BreakOnNonZero: true})
	failing.AddTrigger(&task.ManualTrigger{Name: "fail"})
	main := f.add("main",
		&task.ManualStep{Command: "FAIL"},
		&task.ShellStep{Command: "never"},
	)

	err := f.engine.RunTask(context.Background(), main)
	if !errors.Is(err, ErrNonZeroExit) {
		t.Fatalf("got %v, want ErrNonZeroExit", err)
	}
	assertJournal(t, f.journal, "shell:exit 1")
}

func TestActivateManualTriggerIgnoresCase(t *testing.T) {
	f := newFixture()
	one := f.add("one", &task.ShellStep{Command: "one"})
	one.AddTrigger(&task.ManualTrigger{Name: "Deploy"})
	two := f.add("two", &task.ShellStep{Command: "two"})
	two.AddTrigger(&task.ManualTrigger{Name: "deploy"})
	f.add("three", &task.ShellStep{Command: "three"}).AddTrigger(&task.ManualTrigger{Name: "other"})

	if err := f.engine.ActivateManualTrigger(context.Background(), "DEPLOY"); err != nil {
		t.Fatal(err)
	}
	assertJournal(t, f.journal, "shell:one", "shell:two")
}

func TestActivateTriggerByIdentity(t *testing.T) {
	f := newFixture()
	trA := &task.EventTrigger{Object: task.ObjectVault, Event: "create"}
	trB := &task.EventTrigger{Object: task.ObjectVault, Event: "create"}
	f.add("a", &task.ShellStep{Command: "a"}).AddTrigger(trA)
	f.add("b", &task.ShellStep{Command: "b"}).AddTrigger(trB)

	if err := f.engine.ActivateTrigger(context.Background(), trB, nil); err != nil {
		t.Fatal(err)
	}
	assertJournal(t, f.journal, "shell:b")
}

func TestActivationContinuesAfterFailure(t *testing.T) {
	f := newFixture()
	f.add("bad", &task.CommandStep{Command: "missing"}).AddTrigger(&task.ManualTrigger{Name: "go"})
	f.add("good", &task.ShellStep{Command: "good"}).AddTrigger(&task.ManualTrigger{Name: "go"})

	err := f.engine.ActivateManualTrigger(context.Background(), "go")
	if !errors.Is(err, host.ErrUnknownCommand) {
		t.Errorf("got %v, want ErrUnknownCommand", err)
	}
	assertJournal(t, f.journal, "shell:good")
}

func TestEventParamsReachShell(t *testing.T) {
	f := newFixture()
	tr := &task.EventTrigger{Object: task.ObjectVault, Event: "modify"}
	f.add("on modify", &task.ShellStep{Command: "echo $TASKER_EVENT_0"}).AddTrigger(tr)

	if err := f.engine.ActivateTrigger(context.Background(), tr, []any{"notes/a.md"}); err != nil {
		t.Fatal(err)
	}
	if len(f.spawner.requests) != 1 {
		t.Fatalf("spawns = %d", len(f.spawner.requests))
	}
	extra := f.spawner.requests[0].Extra
	if extra["TASKER_EVENT_0"] != "notes/a.md" || extra["TASKER_EVENT_COUNT"] != "1" {
		t.Errorf("Extra = %v", extra)
	}
}

func TestCycleThroughBefore(t *testing.T) {
	f := newFixture()
	a := f.add("a", &task.ShellStep{Command: "a"})
	b := f.add("b", &task.ShellStep{Command: "b"})
	a.Before = []*task.Task{b}
	b.Before = []*task.Task{a}

	err := f.engine.RunTask(context.Background(), a)
	if !errors.Is(err, ErrCycle) || !errors.Is(err, task.ErrCycle) {
		t.Fatalf("got %v, want ErrCycle", err)
	}
	assertJournal(t, f.journal)
}

func TestCycleThroughManualStep(t *testing.T) {
	f := newFixture()
	loop := f.add("loop", &task.ShellStep{Command: "tick"}, &task.ManualStep{Command: "again"})
	loop.AddTrigger(&task.ManualTrigger{Name: "again"})

	err := f.engine.ActivateManualTrigger(context.Background(), "again")
	if !errors.Is(err, ErrCycle) {
		t.Fatalf("got %v, want ErrCycle", err)
	}
	assertJournal(t, f.journal, "shell:tick")
}

func TestSharedDependencyIsNotACycle(t *testing.T) {
	f := newFixture()
	base := f.add("base", &task.ShellStep{Command: "base"})
	left := f.add("left", &task.ShellStep{Command: "left"})
	right := f.add("right", &task.ShellStep{Command: "right"})
	left.Before = []*task.Task{base}
	right.Before = []*task.Task{base}
	top := f.add("top")
	top.Before = []*task.Task{left, right}

	if err := f.engine.RunTask(context.Background(), top); err != nil {
		t.Fatal(err)
	}
	assertJournal(t, f.journal, "shell:base", "shell:left", "shell:base", "shell:right")
}

func TestMaxDepth(t *testing.T) {
	f := newFixture(WithMaxDepth(3))
	var prev *task.Task
	for i := 0; i < 5; i++ {
		tk := f.add("", &task.ShellStep{Command: "x"})
		if prev != nil {
			tk.Before = []*task.Task{prev}
		}
		prev = tk
	}

	err := f.engine.RunTask(context.Background(), prev)
	if !errors.Is(err, ErrMaxDepth) {
		t.Fatalf("got %v, want ErrMaxDepth", err)
	}
}

func TestUnknownTask(t *testing.T) {
	f := newFixture()
	ghost := task.NewTask("ghost")
	main := f.add("main", &task.ShellStep{Command: "main"})
	main.Before = []*task.Task{ghost}

	err := f.engine.RunTask(context.Background(), main)
	if !errors.Is(err, ErrUnknownTask) {
		t.Fatalf("got %v, want ErrUnknownTask", err)
	}
	var re *RunError
	if !errors.As(err, &re) || re.Phase != PhaseBefore {
		t.Errorf("RunError = %+v", re)
	}
}

func TestLoadSave(t *testing.T) {
	f := newFixture()
	src := `{"tasks":[
		{"id":"a","label":"A","before":[],"after":["b"],
		 "triggers":[{"type":"timer","interval":5}],
		 "steps":[{"type":"shell","command":"echo a","breakOnNonZero":true}]},
		{"id":"b","label":"B","before":[],"after":[],
		 "triggers":[{"type":"event","object":"vault","event":"create"}],"steps":[]}
	]}`

	if err := f.engine.Load([]byte(src)); err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	reg := f.engine.Registry()
	if reg.Len() != 2 {
		t.Fatalf("Len = %d, want 2", reg.Len())
	}
	if f.engine.Dispatcher().Bindings() != 2 {
		t.Errorf("Bindings = %d, want 2", f.engine.Dispatcher().Bindings())
	}

	data, err := f.engine.Save()
	if err != nil {
		t.Fatal(err)
	}

	g := newFixture()
	if err := g.engine.Load(data); err != nil {
		t.Fatalf("reload failed: %v", err)
	}
	a, _ := g.engine.Registry().At(0)
	b, _ := g.engine.Registry().At(1)
	if len(a.After) != 1 || a.After[0] != b {
		t.Errorf("after edge not restored: %v", a.After)
	}
}

func TestSaveAfterRemoveReloads(t *testing.T) {
	f := newFixture()
	dep := f.add("dep", &task.ShellStep{Command: "dep"})
	main := f.add("main", &task.ShellStep{Command: "main"})
	main.Before = []*task.Task{dep}
	if _, err := f.engine.Registry().RemoveTask(0); err != nil {
		t.Fatal(err)
	}

	data, err := f.engine.Save()
	if err != nil {
		t.Fatal(err)
	}
	g := newFixture()
	if err := g.engine.Load(data); err != nil {
		t.Fatalf("reload of saved settings failed: %v", err)
	}
	got, _ := g.engine.Registry().At(0)
	if got.Label != "main" || len(got.Before) != 0 {
		t.Errorf("reloaded %q with before %v", got.Label, got.Before)
	}
}

func TestLoadEmptyAndInvalid(t *testing.T) {
	f := newFixture()
	f.add("keep")

	if err := f.engine.Load([]byte(`{"tasks": 7}`)); err == nil {
		t.Fatal("expected error for invalid settings")
	}
	if f.engine.Registry().Len() != 1 {
		t.Errorf("registry changed on failed load")
	}

	if err := f.engine.Load(nil); err != nil {
		t.Fatal(err)
	}
	if f.engine.Registry().Len() != 0 {
		t.Errorf("Len = %d after empty load, want 0", f.engine.Registry().Len())
	}
}

func TestTimerDrivesEngine(t *testing.T) {
	f := newFixture()
	tk := f.add("tick", &task.ShellStep{Command: "tick"})
	tk.AddTrigger(&task.TimerTrigger{Interval: 5})

	if err := f.engine.Rebind(); err != nil {
		t.Fatal(err)
	}
	f.sched.Advance(15 * time.Second)
	f.engine.Dispatcher().Wait()

	if n := len(f.journal.list()); n != 3 {
		t.Errorf("runs = %d, want 3", n)
	}
}

func TestVaultEventDrivesEngine(t *testing.T) {
	f := newFixture()
	tk := f.add("on create", &task.ShellStep{Command: "created"})
	tk.AddTrigger(&task.EventTrigger{Object: task.ObjectVault, Event: "create"})

	if err := f.engine.Rebind(); err != nil {
		t.Fatal(err)
	}
	f.vault.Emit(context.Background(), "create", "a.md")
	f.engine.Dispatcher().Wait()

	if len(f.spawner.requests) != 1 || f.spawner.requests[0].Extra["TASKER_EVENT_0"] != "a.md" {
		t.Errorf("requests = %+v", f.spawner.requests)
	}
}

func TestShutdown(t *testing.T) {
	f := newFixture()
	tk := f.add("t", &task.ShellStep{Command: "x"})

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	if err := f.engine.Shutdown(ctx); err != nil {
		t.Fatal(err)
	}
	if err := f.engine.RunTask(context.Background(), tk); !errors.Is(err, ErrShutdown) {
		t.Errorf("got %v, want ErrShutdown", err)
	}
}

func TestShutdownWaitsForRuns(t *testing.T) {
	release := make(chan struct{})
	started := make(chan struct{})
	spawner := step.SpawnerFunc(func(context.Context, step.Request) (step.Result, error) {
		close(started)
		<-release
		return step.Result{}, nil
	})
	e := New(WithSpawner(spawner))
	tk := e.Registry().AddTask("slow")
	tk.AddStep(&task.ShellStep{Command: "sleep"})

	go func() { _ = e.RunTask(context.Background(), tk) }()
	<-started

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	if err := e.Shutdown(ctx); !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("got %v, want DeadlineExceeded while a run is active", err)
	}

	close(release)
	if err := e.Shutdown(context.Background()); err != nil {
		t.Errorf("second Shutdown = %v", err)
	}
}

type recordingObserver struct {
	mu     sync.Mutex
	events []string
}

func (o *recordingObserver) OnRunStarted(run RunInfo) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.events = append(o.events, "start:"+run.Label)
}

func (o *recordingObserver) OnStepFinished(run RunInfo, r StepResult) {
	o.mu.Lock()
	defer o.mu.Unlock()
	s := "step:" + run.Label
	if r.Masked {
		s += ":masked"
	}
	o.events = append(o.events, s)
}

func (o *recordingObserver) OnRunFinished(run RunInfo, err error) {
	o.mu.Lock()
	defer o.mu.Unlock()
	s := "finish:" + run.Label
	if err != nil {
		s += ":error"
	}
	o.events = append(o.events, s)
}

func TestObserver(t *testing.T) {
	obs := &recordingObserver{}
	f := newFixture(WithObserver(obs))
	dep := f.add("dep", &task.ShellStep{Command: "exit 1"})
	main := f.add("main", &task.ShellStep{Command: "ok"})
	main.Before = []*task.Task{dep}

	if err := f.engine.RunTask(context.Background(), main); err != nil {
		t.Fatal(err)
	}

	want := "start:main|start:dep|step:dep:masked|finish:dep|step:main|finish:main"
	if got := strings.Join(obs.events, "|"); got != want {
		t.Errorf("events = %s, want %s", got, want)
	}
}

func TestParamsContext(t *testing.T) {
	if Params(context.Background()) != nil {
		t.Error("Params on a bare context should be nil")
	}
	ctx := WithParams(context.Background(), []any{1, "two"})
	if p := Params(ctx); len(p) != 2 || p[1] != "two" {
		t.Errorf("Params = %v", p)
	}
	if RunID(ctx) != "" {
		t.Error("RunID outside a run should be empty")
	}
}

func TestExitOneWithRealShell(t *testing.T) {
	shell := step.NewShellSpawner(step.ShellConfig{Shell: "/bin/sh", Args: []string{"-c"}})
	spawns := 0
	counting := step.SpawnerFunc(func(ctx context.Context, req step.Request) (step.Result, error) {
		spawns++
		return shell.Spawn(ctx, req)
	})

	e := New(WithSpawner(counting))
	tk := e.Registry().AddTask("")
	tk.AddStep(&task.ShellStep{Command: "exit 1", BreakOnNonZero: true})
	tk.AddStep(&task.ShellStep{Command: "echo unreachable"})

	err := e.RunTask(context.Background(), tk)
	if !errors.Is(err, ErrNonZeroExit) {
		t.Fatalf("got %v, want ErrNonZeroExit", err)
	}
	if spawns != 1 {
		t.Errorf("spawns = %d, want 1", spawns)
	}
	if tk.Label != "New Task (0)" {
		t.Errorf("Label = %q, want %q", tk.Label, "New Task (0)")
	}
}

func TestShutdownRacesWithRuns(t *testing.T) {
	f := newFixture()
	tk := f.add("quick", &task.ShellStep{Command: "quick"})

	var wg sync.WaitGroup
	errs := make(chan error, 64)
	for i := 0; i < 64; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			errs <- f.engine.RunTask(context.Background(), tk)
		}()
	}
	if err := f.engine.Shutdown(context.Background()); err != nil {
		t.Fatalf("Shutdown = %v", err)
	}
	wg.Wait()
	close(errs)

	for err := range errs {
		if err != nil && !errors.Is(err, ErrShutdown) {
			t.Errorf("run = %v, want nil or ErrShutdown", err)
		}
	}
	if err := f.engine.RunTask(context.Background(), tk); !errors.Is(err, ErrShutdown) {
		t.Errorf("run after Shutdown = %v, want ErrShutdown", err)
	}
}
