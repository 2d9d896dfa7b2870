package task

import (
	"errors"
	"testing"
)

func TestRegistry_AddTaskDefaults(t *testing.T) {
	r := NewRegistry()

	got := r.AddTask("")
	if got.Label != "New Task (0)" {
		t.Errorf("Label = %q, want %q", got.Label, "New Task (0)")
	}
	if got.ID == "" {
		t.Error("ID is empty")
	}
	if got.Before == nil || len(got.Before) != 0 {
		t.Errorf("Before = %v, want empty non-nil", got.Before)
	}
	if got.After == nil || len(got.After) != 0 {
		t.Errorf("After = %v, want empty non-nil", got.After)
	}
	if len(got.Triggers) != 0 || len(got.Steps) != 0 {
		t.Errorf("Triggers/Steps not empty: %v %v", got.Triggers, got.Steps)
	}

	second := r.AddTask("")
	if second.Label != "New Task (1)" {
		t.Errorf("second Label = %q, want %q", second.Label, "New Task (1)")
	}
	if named := r.AddTask("Build"); named.Label != "Build" {
		t.Errorf("named Label = %q", named.Label)
	}
	if r.Len() != 3 {
		t.Errorf("Len() = %d, want 3", r.Len())
	}
}

func TestRegistry_RemoveTaskDoesNotCascade(t *testing.T) {
	r := NewRegistry()
	dep := r.AddTask("dep")
	user := r.AddTask("user")
	user.Before = append(user.Before, dep)

	removed, err := r.RemoveTask(0)
	if err != nil {
		t.Fatalf("RemoveTask: %v", err)
	}
	if removed != dep {
		t.Fatalf("removed wrong task: %v", removed)
	}
	if len(user.Before) != 1 {
		t.Errorf("Before pruned by RemoveTask: %v", user.Before)
	}
	if err := r.Validate(); !errors.Is(err, ErrDanglingReference) {
		t.Errorf("Validate() = %v, want ErrDanglingReference", err)
	}

	if _, err := r.RemoveTask(5); !errors.Is(err, ErrIndexOutOfRange) {
		t.Errorf("RemoveTask(5) = %v, want ErrIndexOutOfRange", err)
	}
	if _, err := r.RemoveTask(-1); !errors.Is(err, ErrIndexOutOfRange) {
		t.Errorf("RemoveTask(-1) = %v, want ErrIndexOutOfRange", err)
	}
}

func TestRegistry_RemoveTaskCascade(t *testing.T) {
	r := NewRegistry()
	dep := r.AddTask("dep")
	a := r.AddTask("a")
	b := r.AddTask("b")
	a.Before = []*Task{dep, b}
	b.After = []*Task{dep, dep}

	if _, err := r.RemoveTaskCascade(0); err != nil {
		t.Fatalf("RemoveTaskCascade: %v", err)
	}
	if len(a.Before) != 1 || a.Before[0] != b {
		t.Errorf("a.Before = %v, want [b]", a.Before)
	}
	if len(b.After) != 0 {
		t.Errorf("b.After = %v, want empty", b.After)
	}
	if err := r.Validate(); err != nil {
		t.Errorf("Validate() = %v", err)
	}
}

func TestRegistry_PruneReferences(t *testing.T) {
	r := NewRegistry()
	x := r.AddTask("x")
	y := r.AddTask("y")
	y.Before = []*Task{x}
	y.After = []*Task{x}

	if n := r.PruneReferences(x); n != 2 {
		t.Errorf("PruneReferences = %d, want 2", n)
	}
	if !r.Contains(x) {
		t.Error("PruneReferences removed the task itself")
	}
}

func TestRegistry_Swap(t *testing.T) {
	r := NewRegistry()
	a := r.AddTask("a")
	b := r.AddTask("b")
	c := r.AddTask("c")

	tests := []struct {
		name string
		i, j int
		want bool
	}{
		{"same index", 1, 1, false},
		{"negative", -1, 0, false},
		{"past end", 0, 3, false},
		{"both out", 7, 9, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := r.Swap(tt.i, tt.j); got != tt.want {
				t.Errorf("Swap(%d, %d) = %v, want %v", tt.i, tt.j, got, tt.want)
			}
			tasks := r.Tasks()
			if tasks[0] != a || tasks[1] != b || tasks[2] != c {
				t.Errorf("registry changed on rejected swap: %v", tasks)
			}
		})
	}

	if !r.Swap(0, 2) {
		t.Fatal("Swap(0, 2) = false")
	}
	tasks := r.Tasks()
	if tasks[0] != c || tasks[2] != a {
		t.Errorf("after swap = %v, want [c b a]", tasks)
	}
}

func TestRegistry_TriggersOfKind(t *testing.T) {
	r := NewRegistry()
	a := r.AddTask("a")
	b := r.AddTask("b")
	m1 := a.AddTrigger(&ManualTrigger{Name: "one"})
	a.AddTrigger(&TimerTrigger{Interval: 5})
	m2 := b.AddTrigger(&ManualTrigger{Name: "two"})
	b.AddTrigger(&EventTrigger{Object: ObjectVault, Event: "create"})

	manual := r.TriggersOfKind(TriggerManual)
	if len(manual) != 2 || manual[0] != m1 || manual[1] != m2 {
		t.Errorf("manual triggers = %v, want [one two]", manual)
	}
	if got := len(r.TriggersOfKind(TriggerTimer)); got != 1 {
		t.Errorf("timer triggers = %d, want 1", got)
	}
	if got := len(r.TriggersOfKind(TriggerEvent)); got != 1 {
		t.Errorf("event triggers = %d, want 1", got)
	}
}

func TestRegistry_ManualTriggersDeduplicated(t *testing.T) {
	r := NewRegistry()
	first := r.AddTask("a").AddTrigger(&ManualTrigger{Name: "Deploy"})
	r.AddTask("b").AddTrigger(&ManualTrigger{Name: "deploy"})
	r.AddTask("c").AddTrigger(&ManualTrigger{Name: "DEPLOY"})
	r.AddTask("d").AddTrigger(&ManualTrigger{Name: "test"})

	got := r.ManualTriggers()
	if len(got) != 2 {
		t.Fatalf("ManualTriggers() = %d entries, want 2", len(got))
	}
	if got[0] != first {
		t.Errorf("first entry = %q, want the first declared trigger", got[0].Name)
	}
	if got[1].Name != "test" {
		t.Errorf("second entry = %q, want test", got[1].Name)
	}

	if n := len(r.TasksWithManual("deploy")); n != 3 {
		t.Errorf("TasksWithManual(deploy) = %d, want 3", n)
	}
}

func TestRegistry_TasksWithTriggerIsIdentity(t *testing.T) {
	r := NewRegistry()
	a := r.AddTask("a")
	b := r.AddTask("b")
	trA := a.AddTrigger(&TimerTrigger{Interval: 1})
	b.AddTrigger(&TimerTrigger{Interval: 1})

	got := r.TasksWithTrigger(trA)
	if len(got) != 1 || got[0] != a {
		t.Errorf("TasksWithTrigger = %v, want [a]", got)
	}
	if owner, ok := r.OwnerOf(trA); !ok || owner != a {
		t.Errorf("OwnerOf = %v, %v", owner, ok)
	}
}

func TestRegistry_SnapshotIsACopy(t *testing.T) {
	r := NewRegistry()
	a := r.AddTask("a")
	a.AddStep(&ShellStep{Command: "true"})

	snap, ok := r.Snapshot(a)
	if !ok {
		t.Fatal("Snapshot reported task missing")
	}
	_ = r.Update(func([]*Task) error {
		a.Steps = append(a.Steps, &ShellStep{Command: "false"})
		return nil
	})
	if len(snap.Steps) != 1 {
		t.Errorf("snapshot observed later edit: %d steps", len(snap.Steps))
	}

	if _, ok := r.Snapshot(NewTask("stranger")); ok {
		t.Error("Snapshot of unregistered task reported ok")
	}
}

func TestRegistry_LookupAndFind(t *testing.T) {
	r := NewRegistry()
	a := r.AddTask("Build")
	r.AddTask("build")

	if got, ok := r.Lookup(a.ID); !ok || got != a {
		t.Errorf("Lookup(%s) = %v, %v", a.ID, got, ok)
	}
	if _, ok := r.Lookup("missing"); ok {
		t.Error("Lookup(missing) = ok")
	}
	if n := len(r.FindByLabel("BUILD")); n != 2 {
		t.Errorf("FindByLabel = %d, want 2", n)
	}
	if got, ok := r.At(0); !ok || got != a {
		t.Errorf("At(0) = %v, %v", got, ok)
	}
	if _, ok := r.At(2); ok {
		t.Error("At(2) = ok")
	}
}
