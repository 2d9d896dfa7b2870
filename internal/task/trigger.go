package task

import (
	"fmt"
	"strings"
)

// TriggerKind identifies a Trigger variant.
type TriggerKind string

// Trigger kinds. The values are the persisted "type" tags.
const (
	TriggerManual TriggerKind = "manual"
	TriggerTimer  TriggerKind = "timer"
	TriggerEvent  TriggerKind = "event"
)

// Trigger is a condition that activates the task owning it.
//
// The variants are *ManualTrigger, *TimerTrigger and *EventTrigger. Triggers
// are compared by identity, so always hold them by pointer.
type Trigger interface {
	Kind() TriggerKind
	isTrigger()
}

// ManualTrigger is activated by name. Names match case-insensitively, and
// activating a name runs every task that owns a trigger with that name.
type ManualTrigger struct {
	Name string
}

// TimerTrigger fires every Interval seconds.
type TimerTrigger struct {
	Interval int
}

// EventTrigger fires when the host raises Event on Object.
type EventTrigger struct {
	Object EventObject
	Event  string
}

func (*ManualTrigger) Kind() TriggerKind { return TriggerManual }
func (*TimerTrigger) Kind() TriggerKind  { return TriggerTimer }
func (*EventTrigger) Kind() TriggerKind  { return TriggerEvent }

func (*ManualTrigger) isTrigger() {}
func (*TimerTrigger) isTrigger()  {}
func (*EventTrigger) isTrigger()  {}

// Matches reports whether name equals the trigger's name, ignoring case.
func (m *ManualTrigger) Matches(name string) bool {
	return strings.EqualFold(m.Name, name)
}

// Key is the EventKey of the trigger.
func (e *EventTrigger) Key() EventKey {
	return EventKey{Object: e.Object, Event: e.Event}
}

// DescribeTrigger renders a one-line label for tr.
func DescribeTrigger(tr Trigger) string {
	switch v := tr.(type) {
	case *ManualTrigger:
		return fmt.Sprintf("Manual: %s", v.Name)
	case *TimerTrigger:
		return fmt.Sprintf("Every %ds", v.Interval)
	case *EventTrigger:
		if info, ok := LookupEvent(v.Object, v.Event); ok {
			return fmt.Sprintf("Event: %s", info.Name)
		}
		return fmt.Sprintf("Event: %s::%s", v.Object, v.Event)
	default:
		panic(fmt.Sprintf("task: unhandled trigger type %T", tr))
	}
}
