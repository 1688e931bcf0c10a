package scheduler

import "time"

// Event is a callback scheduled to run at a point in time.
type Event struct {
	at   time.Time
	seq  uint64
	fn   func()
	next *Event

	fired     bool
	cancelled bool
}

// At returns the time at which the event is due.
func (e *Event) At() time.Time {
	return e.at
}
