package dispatch

import (
	"sync"
	"time"
)

// Scheduler is the repeating-timer primitive.
type Scheduler interface {
	// Every calls fn once per period d until cancel is called.
	Every(d time.Duration, fn func()) (cancel func())
}

// TickerScheduler implements Scheduler with time.Ticker.
type TickerScheduler struct{}

// Every starts a ticker goroutine calling fn.
func (TickerScheduler) Every(d time.Duration, fn func()) func() {
	if d <= 0 {
		return func() {}
	}
	ticker := time.NewTicker(d)
	done := make(chan struct{})

	go func() {
		for {
			select {
			case <-done:
				return
			case <-ticker.C:
				fn()
			}
		}
	}()

	var once sync.Once
	return func() {
		once.Do(func() {
			ticker.Stop()
			close(done)
		})
	}
}

// ManualScheduler is a Scheduler driven by Advance. Timers fire on the
// goroutine calling Advance, in deadline order.
type ManualScheduler struct {
	mu     sync.Mutex
	now    time.Duration
	nextID int
	timers map[int]*manualTimer
}

type manualTimer struct {
	id     int
	period time.Duration
	next   time.Duration
	fn     func()
}

// NewManualScheduler creates a scheduler at time zero.
func NewManualScheduler() *ManualScheduler {
	return &ManualScheduler{timers: make(map[int]*manualTimer)}
}

// Every registers fn to fire every d of advanced time.
func (s *ManualScheduler) Every(d time.Duration, fn func()) func() {
	if d <= 0 {
		return func() {}
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	s.nextID++
	id := s.nextID
	s.timers[id] = &manualTimer{id: id, period: d, next: s.now + d, fn: fn}

	return func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		delete(s.timers, id)
	}
}

// Advance moves the clock forward by d, firing every timer whose deadline
// is reached. It returns the number of fires.
func (s *ManualScheduler) Advance(d time.Duration) int {
	s.mu.Lock()
	target := s.now + d
	s.mu.Unlock()

	fired := 0
	for {
		s.mu.Lock()
		var due *manualTimer
		for _, t := range s.timers {
			if t.next > target {
				continue
			}
			if due == nil || t.next < due.next || (t.next == due.next && t.id < due.id) {
				due = t
			}
		}
		if due == nil {
			s.now = target
			s.mu.Unlock()
			return fired
		}
		s.now = due.next
		due.next += due.period
		fn := due.fn
		s.mu.Unlock()

		fn()
		fired++
	}
}

// Len returns the number of live timers.
func (s *ManualScheduler) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.timers)
}
