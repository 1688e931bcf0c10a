package scheduler

import (
	"context"
	"fmt"
	"sync"
	"time"
)

// Scheduler is a cooperative event loop. Every callback runs on
// the single goroutine executing Run (or RunDue), one at a time,
// so state touched only from callbacks needs no locking.
//
// The scheduler is a linked list of events, sorted by the time
// at which they are due. Events due at the same time run in the
// order they were scheduled. Post and After may be called from
// any goroutine; this is how input from UI threads is marshalled
// onto the loop.
type Scheduler struct {
	mu    sync.Mutex
	clock Clock
	root  *Event
	seq   uint64

	wake     chan struct{}
	done     chan struct{}
	doneOnce sync.Once
}

// New returns a Scheduler reading time from clock. A nil clock
// uses the SystemClock.
func New(clock Clock) *Scheduler {
	if clock == nil {
		clock = SystemClock{}
	}
	return &Scheduler{
		clock: clock,
		wake:  make(chan struct{}, 1),
		done:  make(chan struct{}),
	}
}

// Now returns the current time of the scheduler's clock.
func (s *Scheduler) Now() time.Time {
	return s.clock.Now()
}

// Post schedules fn to run as soon as possible, after every
// event already due.
func (s *Scheduler) Post(fn func()) *Event {
	return s.After(0, fn)
}

// After schedules fn to run once d has elapsed. A negative d is
// treated as zero.
func (s *Scheduler) After(d time.Duration, fn func()) *Event {
	if d < 0 {
		d = 0
	}

	s.mu.Lock()
	s.seq++
	e := &Event{at: s.clock.Now().Add(d), seq: s.seq, fn: fn}
	s.insert(e)
	first := s.root == e
	s.mu.Unlock()

	// the loop may be sleeping until a later event
	if first {
		select {
		case s.wake <- struct{}{}:
		default:
		}
	}
	return e
}

// insert places e after every event due at or before it.
func (s *Scheduler) insert(e *Event) {
	if s.root == nil || e.at.Before(s.root.at) {
		e.next = s.root
		s.root = e
		return
	}

	prev := s.root
	for prev.next != nil && !e.at.Before(prev.next.at) {
		prev = prev.next
	}
	e.next = prev.next
	prev.next = e
}

// Deschedule removes e from the scheduler. It reports whether
// the event was still pending; false means it has already run
// or was already descheduled.
func (s *Scheduler) Deschedule(e *Event) bool {
	if e == nil {
		return false
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if e.fired || e.cancelled {
		return false
	}
	e.cancelled = true

	var prev *Event
	for event := s.root; event != nil; event = event.next {
		if event == e {
			if prev == nil {
				s.root = event.next
			} else {
				prev.next = event.next
			}
			event.next = nil
			return true
		}
		prev = event
	}
	return false
}

// RunDue runs every event that is due and was scheduled before
// RunDue was called, returning how many ran. Events scheduled by
// those callbacks wait for the next call, so a callback that
// re-arms itself with no delay cannot starve the loop.
func (s *Scheduler) RunDue() int {
	s.mu.Lock()
	limit := s.seq
	s.mu.Unlock()

	n := 0
	for {
		s.mu.Lock()
		now := s.clock.Now()

		var prev *Event
		e := s.root
		for e != nil && !e.at.After(now) && e.seq > limit {
			prev = e
			e = e.next
		}
		if e == nil || e.at.After(now) {
			s.mu.Unlock()
			return n
		}

		if prev == nil {
			s.root = e.next
		} else {
			prev.next = e.next
		}
		e.next = nil
		e.fired = true
		s.mu.Unlock()

		e.fn()
		n++
	}
}

// Next returns the time at which the earliest pending event is
// due, and false if nothing is pending.
func (s *Scheduler) Next() (time.Time, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.root == nil {
		return time.Time{}, false
	}
	return s.root.at, true
}

// Len returns the number of pending events.
func (s *Scheduler) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for e := s.root; e != nil; e = e.next {
		n++
	}
	return n
}

// Run executes events as they fall due until ctx is done. It
// must be called from one goroutine only.
func (s *Scheduler) Run(ctx context.Context) error {
	defer s.doneOnce.Do(func() { close(s.done) })

	for {
		s.RunDue()

		var timeout <-chan time.Time
		var timer *time.Timer
		if at, ok := s.Next(); ok {
			wait := at.Sub(s.clock.Now())
			if wait < 0 {
				wait = 0
			}
			timer = time.NewTimer(wait)
			timeout = timer.C
		}

		select {
		case <-ctx.Done():
			if timer != nil {
				timer.Stop()
			}
			return nil
		case <-s.wake:
		case <-timeout:
		}
		if timer != nil {
			timer.Stop()
		}
	}
}

// Done returns a channel that is closed once Run has returned.
func (s *Scheduler) Done() <-chan struct{} {
	return s.done
}

func (s *Scheduler) String() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	result := ""
	for e := s.root; e != nil; e = e.next {
		result += fmt.Sprintf("%d:%s->", e.seq, e.at.Format("15:04:05.000000"))
	}
	return result
}
