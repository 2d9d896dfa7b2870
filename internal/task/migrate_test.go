package task

import (
	"testing"

	"github.com/tidwall/gjson"
)

func TestMigrate_AssignsIDsAndResolvesLabels(t *testing.T) {
	legacy := `{"tasks":[
		{"label":"build","before":[],"after":[],"triggers":[],"steps":[]},
		{"label":"ship","before":["build"],"after":null,"triggers":[],"steps":[]}
	]}`

	out, err := Migrate([]byte(legacy))
	if err != nil {
		t.Fatalf("Migrate: %v", err)
	}

	buildID := gjson.GetBytes(out, "tasks.0.id").String()
	if buildID == "" {
		t.Fatal("task 0 has no id after migration")
	}
	if got := gjson.GetBytes(out, "tasks.1.before.0").String(); got != buildID {
		t.Errorf("before[0] = %q, want %q", got, buildID)
	}
	if got := gjson.GetBytes(out, "tasks.1.after").Raw; got != "[]" {
		t.Errorf("after = %s, want []", got)
	}
}

func TestMigrate_EmbeddedCopies(t *testing.T) {
	legacy := `{"tasks":[
		{"id":"t1","label":"lint","steps":[{"type":"shell","command":"golint"}]},
		{"id":"t2","label":"ci","before":[{"id":"t1","label":"lint"}],"after":[{"label":"lint"}]}
	]}`

	s, err := Decode([]byte(legacy))
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	lint, ci := s.Tasks[0], s.Tasks[1]
	if len(ci.Before) != 1 || ci.Before[0] != lint {
		t.Errorf("ci.Before = %v, want [lint]", ci.Before)
	}
	if len(ci.After) != 1 || ci.After[0] != lint {
		t.Errorf("ci.After = %v, want [lint]", ci.After)
	}
}

func TestMigrate_LegacyStepTags(t *testing.T) {
	legacy := `{"tasks":[{"id":"a","steps":[
		{"type":"obsidian","command":"app:reload"},
		{"type":"javascript","command":"1+1","breakOnError":true}
	]}]}`

	s, err := Decode([]byte(legacy))
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	steps := s.Tasks[0].Steps
	if _, ok := steps[0].(*CommandStep); !ok {
		t.Errorf("steps[0] = %T, want *CommandStep", steps[0])
	}
	if sc, ok := steps[1].(*ScriptStep); !ok || !sc.BreakOnError {
		t.Errorf("steps[1] = %#v, want *ScriptStep with BreakOnError", steps[1])
	}
}

func TestMigrate_MissingTasks(t *testing.T) {
	out, err := Migrate([]byte(`{"version":2}`))
	if err != nil {
		t.Fatalf("Migrate: %v", err)
	}
	if got := gjson.GetBytes(out, "tasks").Raw; got != "[]" {
		t.Errorf("tasks = %s, want []", got)
	}
	if got := gjson.GetBytes(out, "version").Int(); got != 2 {
		t.Errorf("unrelated key lost: version = %d", got)
	}
}

func TestMigrate_CurrentShapeUnchanged(t *testing.T) {
	current := []byte(`{"tasks":[{"id":"a","label":"a","before":[],"after":[],"triggers":[],"steps":[]}]}`)
	out, err := Migrate(current)
	if err != nil {
		t.Fatalf("Migrate: %v", err)
	}
	if string(out) != string(current) {
		t.Errorf("Migrate rewrote a current blob:\n%s", out)
	}
}
