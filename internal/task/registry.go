package task

import (
	"strings"
	"sync"
)

// Registry is the ordered collection of all tasks.
//
// Registry is safe for concurrent use. Tasks are mutated in place; edits
// that touch a task's fields must happen inside Update so that runs, which
// read through Snapshot, never observe a half-edited task.
type Registry struct {
	mu    sync.RWMutex
	tasks []*Task
}

// NewRegistry creates a registry holding tasks.
func NewRegistry(tasks ...*Task) *Registry {
	r := &Registry{tasks: make([]*Task, 0, len(tasks))}
	r.tasks = append(r.tasks, tasks...)
	return r
}

// AddTask creates and appends a task. An empty label becomes
// "New Task (<n>)" where n is the number of tasks before the insert.
func (r *Registry) AddTask(label string) *Task {
	r.mu.Lock()
	defer r.mu.Unlock()

	if label == "" {
		label = autoLabel(len(r.tasks))
	}
	t := NewTask(label)
	r.tasks = append(r.tasks, t)
	return t
}

// Append adds existing tasks to the end of the registry.
func (r *Registry) Append(tasks ...*Task) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.tasks = append(r.tasks, tasks...)
}

// RemoveTask removes the task at index i and returns it.
//
// References to the removed task from other tasks' Before/After lists are
// left in place; use RemoveTaskCascade or PruneReferences to drop them.
func (r *Registry) RemoveTask(i int) (*Task, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if i < 0 || i >= len(r.tasks) {
		return nil, ErrIndexOutOfRange
	}
	t := r.tasks[i]
	r.tasks = append(r.tasks[:i], r.tasks[i+1:]...)
	return t, nil
}

// RemoveTaskCascade removes the task at index i and drops every reference
// to it from the remaining tasks.
func (r *Registry) RemoveTaskCascade(i int) (*Task, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if i < 0 || i >= len(r.tasks) {
		return nil, ErrIndexOutOfRange
	}
	t := r.tasks[i]
	r.tasks = append(r.tasks[:i], r.tasks[i+1:]...)
	r.pruneLocked(t)
	return t, nil
}

// PruneReferences drops every Before/After reference to t and returns the
// number of references removed.
func (r *Registry) PruneReferences(t *Task) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.pruneLocked(t)
}

func (r *Registry) pruneLocked(t *Task) int {
	removed := 0
	for _, other := range r.tasks {
		var n int
		other.Before, n = without(other.Before, t)
		removed += n
		other.After, n = without(other.After, t)
		removed += n
	}
	return removed
}

func without(list []*Task, t *Task) ([]*Task, int) {
	out := list[:0]
	n := 0
	for _, x := range list {
		if x == t {
			n++
			continue
		}
		out = append(out, x)
	}
	return out, n
}

// Swap exchanges the tasks at i and j. It returns false, leaving the
// registry unchanged, when i == j or either index is out of range.
func (r *Registry) Swap(i, j int) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	if i == j || i < 0 || j < 0 || i >= len(r.tasks) || j >= len(r.tasks) {
		return false
	}
	r.tasks[i], r.tasks[j] = r.tasks[j], r.tasks[i]
	return true
}

// Len returns the number of tasks.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.tasks)
}

// Tasks returns a copy of the task list in registry order.
func (r *Registry) Tasks() []*Task {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]*Task, len(r.tasks))
	copy(out, r.tasks)
	return out
}

// At returns the task at index i.
func (r *Registry) At(i int) (*Task, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if i < 0 || i >= len(r.tasks) {
		return nil, false
	}
	return r.tasks[i], true
}

// IndexOf returns the position of t, or -1.
func (r *Registry) IndexOf(t *Task) int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.indexLocked(t)
}

func (r *Registry) indexLocked(t *Task) int {
	for i, x := range r.tasks {
		if x == t {
			return i
		}
	}
	return -1
}

// Contains reports whether t is in the registry.
func (r *Registry) Contains(t *Task) bool {
	return r.IndexOf(t) >= 0
}

// Lookup returns the task with the given ID.
func (r *Registry) Lookup(id string) (*Task, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, t := range r.tasks {
		if t.ID == id {
			return t, true
		}
	}
	return nil, false
}

// FindByLabel returns every task whose label matches, ignoring case.
func (r *Registry) FindByLabel(label string) []*Task {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var out []*Task
	for _, t := range r.tasks {
		if strings.EqualFold(t.Label, label) {
			out = append(out, t)
		}
	}
	return out
}

// Update runs fn with exclusive access to the task list. fn may mutate the
// tasks in place but must not retain the slice.
func (r *Registry) Update(fn func(tasks []*Task) error) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return fn(r.tasks)
}

// Replace swaps the whole task list.
func (r *Registry) Replace(tasks []*Task) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.tasks = make([]*Task, len(tasks))
	copy(r.tasks, tasks)
}

// Snapshot copies the lists a run needs from t. The second result is false
// when t is not in the registry.
func (r *Registry) Snapshot(t *Task) (Snapshot, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if r.indexLocked(t) < 0 {
		return Snapshot{}, false
	}
	return t.snapshot(), true
}

// TriggersOfKind returns every trigger of kind across all tasks, flattened
// in registry order.
func (r *Registry) TriggersOfKind(kind TriggerKind) []Trigger {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var out []Trigger
	for _, t := range r.tasks {
		for _, tr := range t.Triggers {
			if tr.Kind() == kind {
				out = append(out, tr)
			}
		}
	}
	return out
}

// ManualTriggers returns one manual trigger per distinct case-insensitive
// name. The first occurrence in registry order wins.
func (r *Registry) ManualTriggers() []*ManualTrigger {
	seen := make(map[string]bool)
	var out []*ManualTrigger
	for _, tr := range r.TriggersOfKind(TriggerManual) {
		m := tr.(*ManualTrigger)
		key := strings.ToLower(m.Name)
		if seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, m)
	}
	return out
}

// TasksWithTrigger returns every task whose Triggers contain tr by identity.
func (r *Registry) TasksWithTrigger(tr Trigger) []*Task {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var out []*Task
	for _, t := range r.tasks {
		if t.HasTrigger(tr) {
			out = append(out, t)
		}
	}
	return out
}

// TasksWithManual returns every task owning a manual trigger named name,
// ignoring case.
func (r *Registry) TasksWithManual(name string) []*Task {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var out []*Task
	for _, t := range r.tasks {
		if t.HasManual(name) {
			out = append(out, t)
		}
	}
	return out
}

// OwnerOf returns the task owning tr.
func (r *Registry) OwnerOf(tr Trigger) (*Task, bool) {
	owners := r.TasksWithTrigger(tr)
	if len(owners) == 0 {
		return nil, false
	}
	return owners[0], true
}
