package task

import (
	"bytes"
	"encoding/json"
	"fmt"
)

type settingsJSON struct {
	Tasks []taskJSON `json:"tasks"`
}

type taskJSON struct {
	ID       string        `json:"id"`
	Label    string        `json:"label"`
	Before   []string      `json:"before"`
	After    []string      `json:"after"`
	Triggers []triggerJSON `json:"triggers"`
	Steps    []stepJSON    `json:"steps"`
}

type triggerJSON struct {
	Type     TriggerKind `json:"type"`
	Name     string      `json:"name,omitempty"`
	Interval int         `json:"interval,omitempty"`
	Object   EventObject `json:"object,omitempty"`
	Event    string      `json:"event,omitempty"`
}

type stepJSON struct {
	Type           StepKind          `json:"type"`
	Command        string            `json:"command"`
	Env            map[string]string `json:"env,omitempty"`
	BreakOnNonZero bool              `json:"breakOnNonZero,omitempty"`
	BreakOnError   bool              `json:"breakOnError,omitempty"`
}

// Encode serializes settings to the JSON blob handed to the host.
//
// Before/After entries are written as task IDs. References to tasks that
// are not in s.Tasks (removed without pruning) are dropped so the blob
// always decodes.
func Encode(s Settings) ([]byte, error) {
	out := settingsJSON{Tasks: make([]taskJSON, 0, len(s.Tasks))}
	present := make(map[*Task]bool, len(s.Tasks))
	for _, t := range s.Tasks {
		if t.ID == "" {
			t.ID = NewID()
		}
		present[t] = true
	}
	for _, t := range s.Tasks {
		tj := taskJSON{
			ID:       t.ID,
			Label:    t.Label,
			Before:   refIDs(t.Before, present),
			After:    refIDs(t.After, present),
			Triggers: make([]triggerJSON, 0, len(t.Triggers)),
			Steps:    make([]stepJSON, 0, len(t.Steps)),
		}
		for _, tr := range t.Triggers {
			tj.Triggers = append(tj.Triggers, encodeTrigger(tr))
		}
		for _, st := range t.Steps {
			tj.Steps = append(tj.Steps, encodeStep(st))
		}
		out.Tasks = append(out.Tasks, tj)
	}
	return json.MarshalIndent(out, "", "  ")
}

func refIDs(list []*Task, present map[*Task]bool) []string {
	ids := make([]string, 0, len(list))
	for _, t := range list {
		if present[t] {
			ids = append(ids, t.ID)
		}
	}
	return ids
}

// DanglingRefs counts the Before/After references in s that point at
// tasks outside s.Tasks. Encode drops exactly these.
func DanglingRefs(s Settings) int {
	present := make(map[*Task]bool, len(s.Tasks))
	for _, t := range s.Tasks {
		present[t] = true
	}
	n := 0
	for _, t := range s.Tasks {
		for _, dep := range t.Before {
			if !present[dep] {
				n++
			}
		}
		for _, dep := range t.After {
			if !present[dep] {
				n++
			}
		}
	}
	return n
}

func encodeTrigger(tr Trigger) triggerJSON {
	switch v := tr.(type) {
	case *ManualTrigger:
		return triggerJSON{Type: TriggerManual, Name: v.Name}
	case *TimerTrigger:
		return triggerJSON{Type: TriggerTimer, Interval: v.Interval}
	case *EventTrigger:
		return triggerJSON{Type: TriggerEvent, Object: v.Object, Event: v.Event}
	default:
		panic(fmt.Sprintf("task: unhandled trigger type %T", tr))
	}
}

func encodeStep(s Step) stepJSON {
	switch v := s.(type) {
	case *CommandStep:
		return stepJSON{Type: StepCommand, Command: v.Command}
	case *ManualStep:
		return stepJSON{Type: StepManual, Command: v.Command}
	case *ShellStep:
		return stepJSON{Type: StepShell, Command: v.Command, Env: v.Env, BreakOnNonZero: v.BreakOnNonZero}
	case *ScriptStep:
		return stepJSON{Type: StepScript, Command: v.Command, BreakOnError: v.BreakOnError}
	default:
		panic(fmt.Sprintf("task: unhandled step type %T", s))
	}
}

// Decode parses a settings blob. Empty input yields DefaultSettings.
// Blobs written by older versions are migrated first (see Migrate).
func Decode(data []byte) (Settings, error) {
	if len(bytes.TrimSpace(data)) == 0 {
		return DefaultSettings(), nil
	}

	migrated, err := Migrate(data)
	if err != nil {
		return Settings{}, err
	}

	var raw settingsJSON
	if err := json.Unmarshal(migrated, &raw); err != nil {
		return Settings{}, fmt.Errorf("%w: %v", ErrInvalidSettings, err)
	}

	tasks := make([]*Task, len(raw.Tasks))
	byID := make(map[string]*Task, len(raw.Tasks))
	for i, tj := range raw.Tasks {
		t := &Task{
			ID:       tj.ID,
			Label:    tj.Label,
			Triggers: make([]Trigger, 0, len(tj.Triggers)),
			Steps:    make([]Step, 0, len(tj.Steps)),
		}
		if _, dup := byID[t.ID]; dup {
			return Settings{}, &DecodeError{
				Path: fmt.Sprintf("tasks.%d.id", i),
				Err:  fmt.Errorf("%w: duplicate id %q", ErrInvalidSettings, t.ID),
			}
		}
		byID[t.ID] = t

		for j, trj := range tj.Triggers {
			tr, err := decodeTrigger(trj)
			if err != nil {
				return Settings{}, &DecodeError{Path: fmt.Sprintf("tasks.%d.triggers.%d", i, j), Err: err}
			}
			t.Triggers = append(t.Triggers, tr)
		}
		for j, sj := range tj.Steps {
			st, err := decodeStep(sj)
			if err != nil {
				return Settings{}, &DecodeError{Path: fmt.Sprintf("tasks.%d.steps.%d", i, j), Err: err}
			}
			t.Steps = append(t.Steps, st)
		}
		tasks[i] = t
	}

	for i, tj := range raw.Tasks {
		var err error
		if tasks[i].Before, err = resolveRefs(byID, tj.Before, fmt.Sprintf("tasks.%d.before", i)); err != nil {
			return Settings{}, err
		}
		if tasks[i].After, err = resolveRefs(byID, tj.After, fmt.Sprintf("tasks.%d.after", i)); err != nil {
			return Settings{}, err
		}
	}

	return Settings{Tasks: tasks}, nil
}

func resolveRefs(byID map[string]*Task, ids []string, path string) ([]*Task, error) {
	out := make([]*Task, 0, len(ids))
	for j, id := range ids {
		t, ok := byID[id]
		if !ok {
			return nil, &DecodeError{
				Path: fmt.Sprintf("%s.%d", path, j),
				Err:  fmt.Errorf("%w: %q", ErrDanglingReference, id),
			}
		}
		out = append(out, t)
	}
	return out, nil
}

func decodeTrigger(j triggerJSON) (Trigger, error) {
	switch j.Type {
	case TriggerManual:
		return &ManualTrigger{Name: j.Name}, nil
	case TriggerTimer:
		return &TimerTrigger{Interval: j.Interval}, nil
	case TriggerEvent:
		return &EventTrigger{Object: j.Object, Event: j.Event}, nil
	default:
		return nil, fmt.Errorf("%w: unknown trigger type %q", ErrInvalidSettings, j.Type)
	}
}

func decodeStep(j stepJSON) (Step, error) {
	switch j.Type {
	case StepCommand:
		return &CommandStep{Command: j.Command}, nil
	case StepManual:
		return &ManualStep{Command: j.Command}, nil
	case StepShell:
		return &ShellStep{Command: j.Command, Env: j.Env, BreakOnNonZero: j.BreakOnNonZero}, nil
	case StepScript:
		return &ScriptStep{Command: j.Command, BreakOnError: j.BreakOnError}, nil
	default:
		return nil, fmt.Errorf("%w: unknown step type %q", ErrInvalidSettings, j.Type)
	}
}
