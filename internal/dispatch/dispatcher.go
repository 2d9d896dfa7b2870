package dispatch

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/dshills/tasker/internal/host"
	"github.com/dshills/tasker/internal/logging"
	"github.com/dshills/tasker/internal/task"
)

// Activator runs the tasks bound to a trigger.
type Activator interface {
	ActivateTrigger(ctx context.Context, tr task.Trigger, params []any) error
}

// OverlapPolicy decides what happens when a timer fires while its previous
// activation is still running.
type OverlapPolicy int

const (
	// OverlapAllow runs overlapping activations concurrently.
	OverlapAllow OverlapPolicy = iota
	// OverlapSkip drops a tick while the previous one is in flight.
	OverlapSkip
)

// String returns the policy name.
func (p OverlapPolicy) String() string {
	switch p {
	case OverlapAllow:
		return "allow"
	case OverlapSkip:
		return "skip"
	default:
		return fmt.Sprintf("OverlapPolicy(%d)", int(p))
	}
}

// ParseOverlapPolicy parses "allow" or "skip".
func ParseOverlapPolicy(s string) (OverlapPolicy, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "allow":
		return OverlapAllow, nil
	case "skip":
		return OverlapSkip, nil
	default:
		return OverlapAllow, fmt.Errorf("%w: %q", ErrInvalidOverlap, s)
	}
}

// Config configures a Dispatcher.
type Config struct {
	// Scheduler drives timer triggers. Defaults to TickerScheduler.
	Scheduler Scheduler

	// Sources maps event objects to their event sources.
	Sources map[task.EventObject]host.EventSource

	// Overlap is the timer overlap policy.
	Overlap OverlapPolicy

	// Logger receives activation failures. Defaults to NullLogger.
	Logger *logging.Logger

	// Context is the parent of every activation. Defaults to Background.
	Context context.Context
}

// binding is one installed timer or subscription.
type binding struct {
	trigger task.Trigger
	release func()
	running atomic.Bool
}

// Dispatcher binds timer and event triggers to their sources.
type Dispatcher struct {
	registry  *task.Registry
	activator Activator
	config    Config
	logger    *logging.Logger

	mu       sync.Mutex
	bindings []*binding
	closed   bool

	inflight *activity
	stopped  atomic.Bool
	fired    atomic.Uint64
	skipped  atomic.Uint64

	errMu  sync.Mutex
	recent []error
}

// maxRecentErrors bounds the activation failures kept for DrainErrors.
const maxRecentErrors = 32

// New creates a dispatcher. No bindings exist until Rebuild is called.
func New(registry *task.Registry, activator Activator, config Config) *Dispatcher {
	if config.Scheduler == nil {
		config.Scheduler = TickerScheduler{}
	}
	if config.Logger == nil {
		config.Logger = logging.NullLogger
	}
	if config.Context == nil {
		config.Context = context.Background()
	}
	return &Dispatcher{
		registry:  registry,
		activator: activator,
		config:    config,
		logger:    config.Logger.WithComponent("dispatch"),
		inflight:  newActivity(),
	}
}

// Rebuild releases every binding and installs one per timer and event
// trigger in the registry. Triggers that cannot be bound are skipped and
// reported in the joined error; the rest are still bound.
func (d *Dispatcher) Rebuild() error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.closed {
		return ErrClosed
	}

	d.releaseLocked()

	var errs []error
	for _, tr := range d.registry.TriggersOfKind(task.TriggerTimer) {
		if err := d.bindTimerLocked(tr.(*task.TimerTrigger)); err != nil {
			errs = append(errs, &BindError{Trigger: tr, Err: err})
		}
	}
	for _, tr := range d.registry.TriggersOfKind(task.TriggerEvent) {
		if err := d.bindEventLocked(tr.(*task.EventTrigger)); err != nil {
			errs = append(errs, &BindError{Trigger: tr, Err: err})
		}
	}

	d.logger.Debug("rebuilt %d bindings", len(d.bindings))
	return errors.Join(errs...)
}

func (d *Dispatcher) bindTimerLocked(tr *task.TimerTrigger) error {
	if tr.Interval < 1 {
		return fmt.Errorf("%w: %d", task.ErrInvalidInterval, tr.Interval)
	}

	b := &binding{trigger: tr}
	b.release = d.config.Scheduler.Every(time.Duration(tr.Interval)*time.Second, func() {
		d.fire(b, nil)
	})
	d.bindings = append(d.bindings, b)
	return nil
}

func (d *Dispatcher) bindEventLocked(tr *task.EventTrigger) error {
	src, ok := d.config.Sources[tr.Object]
	if !ok || src == nil {
		return fmt.Errorf("%w %q", ErrNoSource, tr.Object)
	}

	b := &binding{trigger: tr}
	sub, err := src.Subscribe(tr.Event, func(_ context.Context, params []any) {
		d.fire(b, params)
	})
	if err != nil {
		return err
	}
	b.release = func() {
		if err := src.Unsubscribe(sub); err != nil {
			d.logger.Warn("unsubscribe %s: %v", tr.Key(), err)
		}
	}
	d.bindings = append(d.bindings, b)
	return nil
}

// fire starts an activation for b. Timer ticks honor the overlap policy.
func (d *Dispatcher) fire(b *binding, params []any) {
	if d.stopped.Load() {
		return
	}
	_, isTimer := b.trigger.(*task.TimerTrigger)
	if isTimer && d.config.Overlap == OverlapSkip {
		if !b.running.CompareAndSwap(false, true) {
			d.skipped.Add(1)
			d.logger.Debug("skipping %s: previous run still active", task.DescribeTrigger(b.trigger))
			return
		}
	}

	d.fired.Add(1)
	d.inflight.add()
	go func() {
		defer d.inflight.done()
		if isTimer && d.config.Overlap == OverlapSkip {
			defer b.running.Store(false)
		}

		if err := d.activator.ActivateTrigger(d.config.Context, b.trigger, params); err != nil {
			d.logger.Error("%s: %v", task.DescribeTrigger(b.trigger), err)
			d.record(err)
		}
	}()
}

func (d *Dispatcher) releaseLocked() {
	for _, b := range d.bindings {
		if b.release != nil {
			b.release()
		}
	}
	d.bindings = nil
}

// Bindings returns the number of live bindings.
func (d *Dispatcher) Bindings() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.bindings)
}

// Wait blocks until no activation is in flight. It is safe to call while
// timers and events keep firing.
func (d *Dispatcher) Wait() {
	d.inflight.wait()
}

func (d *Dispatcher) record(err error) {
	d.errMu.Lock()
	defer d.errMu.Unlock()
	if len(d.recent) == maxRecentErrors {
		d.recent = d.recent[1:]
	}
	d.recent = append(d.recent, err)
}

// DrainErrors returns the activation failures recorded since the last call,
// joined, and forgets them. Only the most recent failures are kept.
func (d *Dispatcher) DrainErrors() error {
	d.errMu.Lock()
	defer d.errMu.Unlock()
	err := errors.Join(d.recent...)
	d.recent = nil
	return err
}

// Stats reports how many activations were started and skipped.
func (d *Dispatcher) Stats() (fired, skipped uint64) {
	return d.fired.Load(), d.skipped.Load()
}

// Close releases every binding. Activations in flight keep running; a
// tick or event racing with Close starts nothing.
func (d *Dispatcher) Close() {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.closed {
		return
	}
	d.closed = true
	d.stopped.Store(true)
	d.releaseLocked()
}

// activity counts activations in flight. Unlike sync.WaitGroup, wait may
// run concurrently with add.
type activity struct {
	mu   sync.Mutex
	cond *sync.Cond
	n    int
}

func newActivity() *activity {
	a := &activity{}
	a.cond = sync.NewCond(&a.mu)
	return a
}

func (a *activity) add() {
	a.mu.Lock()
	a.n++
	a.mu.Unlock()
}

func (a *activity) done() {
	a.mu.Lock()
	a.n--
	if a.n == 0 {
		a.cond.Broadcast()
	}
	a.mu.Unlock()
}

func (a *activity) wait() {
	a.mu.Lock()
	for a.n > 0 {
		a.cond.Wait()
	}
	a.mu.Unlock()
}
