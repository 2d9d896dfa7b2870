package task

import "sort"

// EventObject names a host event source.
type EventObject string

// Host event sources.
const (
	ObjectVault     EventObject = "vault"
	ObjectWorkspace EventObject = "workspace"
)

// Objects lists every event source, in binding order.
var Objects = []EventObject{ObjectVault, ObjectWorkspace}

// EventKey identifies one host event.
type EventKey struct {
	Object EventObject
	Event  string
}

// String renders the key as "object::event".
func (k EventKey) String() string {
	return string(k.Object) + "::" + k.Event
}

// EventInfo describes a known host event.
type EventInfo struct {
	EventKey
	Name string
}

var knownEvents = []EventInfo{
	{EventKey{ObjectVault, "create"}, "Note created"},
	{EventKey{ObjectVault, "modify"}, "Note modified"},
	{EventKey{ObjectVault, "delete"}, "Note deleted"},
	{EventKey{ObjectVault, "rename"}, "Note renamed"},
	{EventKey{ObjectVault, "closed"}, "Editor closed"},

	{EventKey{ObjectWorkspace, "quick-preview"}, "Quick Preview"},
	{EventKey{ObjectWorkspace, "resize"}, "Workspace Resized"},
	{EventKey{ObjectWorkspace, "active-leaf-change"}, "Active Leaf Changed"},
	{EventKey{ObjectWorkspace, "file-open"}, "File Opened"},
	{EventKey{ObjectWorkspace, "layout-change"}, "Layout Changed"},
	{EventKey{ObjectWorkspace, "window-open"}, "Window Opened"},
	{EventKey{ObjectWorkspace, "window-close"}, "Window Closed"},
	{EventKey{ObjectWorkspace, "css-change"}, "CSS Changed"},
	{EventKey{ObjectWorkspace, "file-menu"}, "File menu opened (single file)"},
	{EventKey{ObjectWorkspace, "files-menu"}, "File menu opened (multiple files)"},
	{EventKey{ObjectWorkspace, "url-menu"}, "URL Menu opened"},
	{EventKey{ObjectWorkspace, "editor-menu"}, "Editor Menu opened"},
	{EventKey{ObjectWorkspace, "editor-change"}, "Editor changed"},
	{EventKey{ObjectWorkspace, "editor-paste"}, "Editor received Paste"},
	{EventKey{ObjectWorkspace, "editor-drop"}, "Editor received Drop"},
	{EventKey{ObjectWorkspace, "quit"}, "Quit"},
}

var eventIndex = func() map[EventKey]EventInfo {
	m := make(map[EventKey]EventInfo, len(knownEvents))
	for _, e := range knownEvents {
		m[e.EventKey] = e
	}
	return m
}()

// LookupEvent returns the description of object::event.
func LookupEvent(object EventObject, event string) (EventInfo, bool) {
	info, ok := eventIndex[EventKey{Object: object, Event: event}]
	return info, ok
}

// ParseEventKey parses "object::event" into a known key.
func ParseEventKey(s string) (EventKey, bool) {
	for _, e := range knownEvents {
		if e.String() == s {
			return e.EventKey, true
		}
	}
	return EventKey{}, false
}

// Events returns every known event for object, sorted by event name.
// An empty object returns all events.
func Events(object EventObject) []EventInfo {
	var out []EventInfo
	for _, e := range knownEvents {
		if object == "" || e.Object == object {
			out = append(out, e)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Object != out[j].Object {
			return out[i].Object > out[j].Object // vault before workspace
		}
		return out[i].Event < out[j].Event
	})
	return out
}

// ValidObject reports whether o is a known event source.
func ValidObject(o EventObject) bool {
	return o == ObjectVault || o == ObjectWorkspace
}
