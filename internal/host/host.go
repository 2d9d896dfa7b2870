package host

import "context"

// CommandExecutor runs commands registered with the host by id.
type CommandExecutor interface {
	ExecuteCommand(ctx context.Context, id string) error
}

// Handler receives an event raised on an EventSource.
type Handler func(ctx context.Context, params []any)

// Subscription is a handle returned by EventSource.Subscribe.
type Subscription interface {
	ID() string
	Event() string
}

// EventSource is a named host object that raises lifecycle events.
type EventSource interface {
	Subscribe(event string, h Handler) (Subscription, error)
	Unsubscribe(sub Subscription) error
}
