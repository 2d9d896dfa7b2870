package task

import (
	"errors"
	"fmt"
	"strings"
)

// Validate checks the registry for problems the engine cannot recover from
// at run time. It returns nil or an errors.Join of *ValidationError values.
//
// Checked: dangling Before/After references, dependency cycles, triggers
// owned by more than one task, timer intervals below one second, unknown
// event objects or names, empty manual names and empty step commands.
func (r *Registry) Validate() error {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var errs []error
	add := func(i int, t *Task, field string, err error) {
		errs = append(errs, &ValidationError{Task: t.Label, Index: i, Field: field, Err: err})
	}

	owner := make(map[Trigger]int)
	for i, t := range r.tasks {
		for j, dep := range t.Before {
			if r.indexLocked(dep) < 0 {
				add(i, t, fmt.Sprintf("before[%d]", j), fmt.Errorf("%w: %s", ErrDanglingReference, dep))
			}
		}
		for j, dep := range t.After {
			if r.indexLocked(dep) < 0 {
				add(i, t, fmt.Sprintf("after[%d]", j), fmt.Errorf("%w: %s", ErrDanglingReference, dep))
			}
		}

		for j, tr := range t.Triggers {
			field := fmt.Sprintf("triggers[%d]", j)
			if prev, ok := owner[tr]; ok && prev != i {
				add(i, t, field, fmt.Errorf("%w: also owned by task %d", ErrSharedTrigger, prev))
			}
			owner[tr] = i
			if err := validateTrigger(tr); err != nil {
				add(i, t, field, err)
			}
		}

		for j, s := range t.Steps {
			if err := validateStep(s); err != nil {
				add(i, t, fmt.Sprintf("steps[%d]", j), err)
			}
		}
	}

	if path := r.findCycleLocked(); path != nil {
		i := r.indexLocked(path[0])
		labels := make([]string, len(path))
		for k, t := range path {
			labels[k] = t.String()
		}
		add(i, path[0], "", fmt.Errorf("%w: %s", ErrCycle, strings.Join(labels, " -> ")))
	}

	return errors.Join(errs...)
}

func validateTrigger(tr Trigger) error {
	switch v := tr.(type) {
	case *ManualTrigger:
		if strings.TrimSpace(v.Name) == "" {
			return ErrEmptyName
		}
	case *TimerTrigger:
		if v.Interval < 1 {
			return fmt.Errorf("%w: got %d", ErrInvalidInterval, v.Interval)
		}
	case *EventTrigger:
		if _, ok := LookupEvent(v.Object, v.Event); !ok {
			return fmt.Errorf("%w: %s", ErrUnknownEvent, v.Key())
		}
	default:
		panic(fmt.Sprintf("task: unhandled trigger type %T", tr))
	}
	return nil
}

func validateStep(s Step) error {
	switch v := s.(type) {
	case *ManualStep:
		if strings.TrimSpace(v.Command) == "" {
			return ErrEmptyName
		}
	case *CommandStep, *ShellStep, *ScriptStep:
		if strings.TrimSpace(CommandText(v)) == "" {
			return ErrEmptyCommand
		}
	default:
		panic(fmt.Sprintf("task: unhandled step type %T", s))
	}
	return nil
}

// FindCycle returns one dependency cycle as a path whose first and last
// elements are the same task, or nil when the Before/After graph is acyclic.
func (r *Registry) FindCycle() []*Task {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.findCycleLocked()
}

// findCycleLocked is a depth-first search over Before then After edges in
// registry order, so the reported witness is stable.
func (r *Registry) findCycleLocked() []*Task {
	const (
		white = iota
		gray
		black
	)

	color := make(map[*Task]int, len(r.tasks))
	parent := make(map[*Task]*Task, len(r.tasks))
	var cycle []*Task

	var visit func(u *Task) bool
	visit = func(u *Task) bool {
		color[u] = gray
		edges := make([]*Task, 0, len(u.Before)+len(u.After))
		edges = append(edges, u.Before...)
		edges = append(edges, u.After...)
		for _, v := range edges {
			switch color[v] {
			case white:
				parent[v] = u
				if visit(v) {
					return true
				}
			case gray:
				// Back edge u -> v closes v ... u -> v.
				path := []*Task{u}
				for cur := u; cur != v; {
					cur = parent[cur]
					path = append(path, cur)
				}
				for k := len(path) - 1; k >= 0; k-- {
					cycle = append(cycle, path[k])
				}
				cycle = append(cycle, v)
				return true
			}
		}
		color[u] = black
		return false
	}

	for _, t := range r.tasks {
		if color[t] == white && visit(t) {
			return cycle
		}
	}
	return nil
}
