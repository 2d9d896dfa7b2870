package host

import (
	"context"
	"sort"
	"sync"
	"sync/atomic"

	"github.com/google/uuid"
)

// subscription is the Subscription implementation handed out by Emitter.
type subscription struct {
	id        string
	event     string
	handler   Handler
	cancelled atomic.Bool
}

func (s *subscription) ID() string    { return s.id }
func (s *subscription) Event() string { return s.event }

// Emitter is an in-process EventSource. Handlers run synchronously on the
// goroutine calling Emit, in subscription order.
//
// Emitter is safe for concurrent use.
type Emitter struct {
	name string

	mu     sync.RWMutex
	byID   map[string]*subscription
	byName map[string][]*subscription

	emitted atomic.Uint64
	panics  atomic.Uint64

	// onPanic, when set, is told about handlers that panicked.
	onPanic func(err *PanicError)
}

// EmitterOption configures an Emitter.
type EmitterOption func(*Emitter)

// WithPanicHandler sets a callback for handlers that panic.
func WithPanicHandler(fn func(err *PanicError)) EmitterOption {
	return func(e *Emitter) {
		e.onPanic = fn
	}
}

// NewEmitter creates an emitter for the named host object.
func NewEmitter(name string, opts ...EmitterOption) *Emitter {
	e := &Emitter{
		name:   name,
		byID:   make(map[string]*subscription),
		byName: make(map[string][]*subscription),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Name returns the host object name.
func (e *Emitter) Name() string {
	return e.name
}

// Subscribe registers h for event.
func (e *Emitter) Subscribe(event string, h Handler) (Subscription, error) {
	if h == nil {
		return nil, ErrNilHandler
	}
	if event == "" {
		return nil, ErrEmptyEvent
	}

	sub := &subscription{id: uuid.NewString(), event: event, handler: h}

	e.mu.Lock()
	defer e.mu.Unlock()
	e.byID[sub.id] = sub
	e.byName[event] = append(e.byName[event], sub)
	return sub, nil
}

// Unsubscribe removes sub. Removing the same subscription twice returns
// ErrSubscriptionNotFound.
func (e *Emitter) Unsubscribe(sub Subscription) error {
	if sub == nil {
		return ErrSubscriptionNotFound
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	s, ok := e.byID[sub.ID()]
	if !ok {
		return ErrSubscriptionNotFound
	}
	s.cancelled.Store(true)
	delete(e.byID, s.id)

	list := e.byName[s.event]
	for i, x := range list {
		if x == s {
			e.byName[s.event] = append(list[:i:i], list[i+1:]...)
			break
		}
	}
	if len(e.byName[s.event]) == 0 {
		delete(e.byName, s.event)
	}
	return nil
}

// Emit raises event with params and returns the number of handlers called.
// A handler unsubscribed while Emit is running is not called.
func (e *Emitter) Emit(ctx context.Context, event string, params ...any) int {
	e.mu.RLock()
	subs := make([]*subscription, len(e.byName[event]))
	copy(subs, e.byName[event])
	e.mu.RUnlock()

	e.emitted.Add(1)
	called := 0
	for _, s := range subs {
		if s.cancelled.Load() {
			continue
		}
		e.deliver(ctx, s, params)
		called++
	}
	return called
}

func (e *Emitter) deliver(ctx context.Context, s *subscription, params []any) {
	defer func() {
		if r := recover(); r != nil {
			e.panics.Add(1)
			if e.onPanic != nil {
				e.onPanic(&PanicError{Source: e.name + "::" + s.event, Value: r})
			}
		}
	}()
	s.handler(ctx, params)
}

// Count returns the number of live subscriptions.
func (e *Emitter) Count() int {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return len(e.byID)
}

// CountFor returns the number of live subscriptions for event.
func (e *Emitter) CountFor(event string) int {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return len(e.byName[event])
}

// Events returns the event names that have at least one subscription.
func (e *Emitter) Events() []string {
	e.mu.RLock()
	defer e.mu.RUnlock()

	names := make([]string, 0, len(e.byName))
	for name := range e.byName {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// EmitterStats reports emitter counters.
type EmitterStats struct {
	Emitted       uint64
	HandlerPanics uint64
	Subscriptions int
}

// Stats returns the emitter counters.
func (e *Emitter) Stats() EmitterStats {
	return EmitterStats{
		Emitted:       e.emitted.Load(),
		HandlerPanics: e.panics.Load(),
		Subscriptions: e.Count(),
	}
}
