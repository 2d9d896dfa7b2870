package task

import (
	"fmt"

	"github.com/google/uuid"
)

// Task is a named unit of automation.
type Task struct {
	// ID is stable across save/load and is used to persist Before/After.
	ID string

	// Label is the display name. Labels are not unique.
	Label string

	// Before lists tasks run, in order, before Steps.
	Before []*Task

	// After lists tasks run, in order, after Steps.
	After []*Task

	// Triggers activate this task. Owned.
	Triggers []Trigger

	// Steps run in list order. Owned.
	Steps []Step
}

// NewTask creates a task with a fresh ID and empty lists.
func NewTask(label string) *Task {
	return &Task{
		ID:       NewID(),
		Label:    label,
		Before:   []*Task{},
		After:    []*Task{},
		Triggers: []Trigger{},
		Steps:    []Step{},
	}
}

// NewID returns a fresh task ID.
func NewID() string {
	return uuid.NewString()
}

// String returns the label, or the ID when the label is empty.
func (t *Task) String() string {
	if t == nil {
		return "<nil>"
	}
	if t.Label == "" {
		return t.ID
	}
	return t.Label
}

// HasTrigger reports whether tr is one of t's triggers (identity match).
func (t *Task) HasTrigger(tr Trigger) bool {
	for _, own := range t.Triggers {
		if own == tr {
			return true
		}
	}
	return false
}

// HasManual reports whether t owns a manual trigger whose name matches name
// case-insensitively.
func (t *Task) HasManual(name string) bool {
	for _, tr := range t.Triggers {
		if m, ok := tr.(*ManualTrigger); ok && m.Matches(name) {
			return true
		}
	}
	return false
}

// AddTrigger appends tr and returns it.
func (t *Task) AddTrigger(tr Trigger) Trigger {
	t.Triggers = append(t.Triggers, tr)
	return tr
}

// AddStep appends s and returns it.
func (t *Task) AddStep(s Step) Step {
	t.Steps = append(t.Steps, s)
	return s
}

// Snapshot is an immutable copy of the lists a run reads from a task.
type Snapshot struct {
	Task   *Task
	Label  string
	Before []*Task
	Steps  []Step
	After  []*Task
}

func (t *Task) snapshot() Snapshot {
	s := Snapshot{
		Task:   t,
		Label:  t.Label,
		Before: make([]*Task, len(t.Before)),
		Steps:  make([]Step, len(t.Steps)),
		After:  make([]*Task, len(t.After)),
	}
	copy(s.Before, t.Before)
	copy(s.Steps, t.Steps)
	copy(s.After, t.After)
	return s
}

// Settings is the persisted root.
type Settings struct {
	Tasks []*Task
}

// DefaultSettings returns the settings used when the host has none stored.
func DefaultSettings() Settings {
	return Settings{Tasks: []*Task{}}
}

// autoLabel is the label given to tasks created without one.
func autoLabel(n int) string {
	return fmt.Sprintf("New Task (%d)", n)
}
