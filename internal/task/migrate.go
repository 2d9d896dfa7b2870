package task

import (
	"fmt"

	"github.com/tidwall/gjson"
	"github.com/tidwall/sjson"
)

// legacyStepTypes maps step tags written by older versions to current ones.
var legacyStepTypes = map[string]StepKind{
	"obsidian":   StepCommand,
	"javascript": StepScript,
}

// Migrate rewrites a settings blob into the current shape:
//
//   - a missing or null "tasks" becomes an empty list
//   - tasks without an "id" are given one
//   - Before/After entries that are labels, or embedded copies of a task,
//     are replaced by the referenced task's ID
//   - legacy step tags are renamed
//
// Entries that cannot be resolved are left as they are so that Decode can
// report them. Migrate never drops data.
func Migrate(data []byte) ([]byte, error) {
	if !gjson.ValidBytes(data) {
		return nil, fmt.Errorf("%w: not valid JSON", ErrInvalidSettings)
	}
	root := gjson.ParseBytes(data)
	if root.Type == gjson.Null {
		return []byte(`{"tasks":[]}`), nil
	}
	if !root.IsObject() {
		return nil, fmt.Errorf("%w: root must be an object", ErrInvalidSettings)
	}

	tasks := root.Get("tasks")
	if !tasks.Exists() || tasks.Type == gjson.Null {
		return sjson.SetRawBytes(data, "tasks", []byte("[]"))
	}
	if !tasks.IsArray() {
		return nil, fmt.Errorf("%w: tasks must be a list", ErrInvalidSettings)
	}

	var err error
	list := tasks.Array()
	ids := make([]string, len(list))
	known := make(map[string]bool, len(list))
	byLabel := make(map[string]string, len(list))

	for i, t := range list {
		id := t.Get("id").String()
		if id == "" {
			id = NewID()
			if data, err = sjson.SetBytes(data, fmt.Sprintf("tasks.%d.id", i), id); err != nil {
				return nil, err
			}
		}
		ids[i] = id
		known[id] = true
		label := t.Get("label").String()
		if _, ok := byLabel[label]; !ok {
			byLabel[label] = id
		}
	}

	for i, t := range list {
		for _, field := range []string{"before", "after"} {
			path := fmt.Sprintf("tasks.%d.%s", i, field)
			refs := t.Get(field)
			if !refs.Exists() || refs.Type == gjson.Null {
				if data, err = sjson.SetRawBytes(data, path, []byte("[]")); err != nil {
					return nil, err
				}
				continue
			}

			resolved := make([]string, 0, len(refs.Array()))
			changed := false
			for _, ref := range refs.Array() {
				id, rewritten := resolveLegacyRef(ref, known, byLabel)
				resolved = append(resolved, id)
				changed = changed || rewritten
			}
			if changed {
				if data, err = sjson.SetBytes(data, path, resolved); err != nil {
					return nil, err
				}
			}
		}

		for j, st := range t.Get("steps").Array() {
			kind, ok := legacyStepTypes[st.Get("type").String()]
			if !ok {
				continue
			}
			if data, err = sjson.SetBytes(data, fmt.Sprintf("tasks.%d.steps.%d.type", i, j), string(kind)); err != nil {
				return nil, err
			}
		}
	}

	return data, nil
}

// resolveLegacyRef maps one Before/After entry to a task ID. The second
// result reports whether the entry had to be rewritten.
func resolveLegacyRef(ref gjson.Result, known map[string]bool, byLabel map[string]string) (string, bool) {
	switch {
	case ref.Type == gjson.String:
		s := ref.String()
		if known[s] {
			return s, false
		}
		if id, ok := byLabel[s]; ok {
			return id, true
		}
		return s, false
	case ref.IsObject():
		if id := ref.Get("id").String(); known[id] {
			return id, true
		}
		label := ref.Get("label").String()
		if id, ok := byLabel[label]; ok {
			return id, true
		}
		return label, true
	default:
		return ref.Raw, true
	}
}
