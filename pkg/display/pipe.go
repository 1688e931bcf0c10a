package display

import (
	"sync/atomic"

	"github.com/thelolagemann/nesfront/pkg/display/event"
	"github.com/thelolagemann/nesfront/pkg/emulator"
)

// Pipe carries frames and events from a session to a Driver.
// Sends never block the session: when the driver falls behind,
// the oldest queued frame is dropped in favour of the newest.
type Pipe struct {
	frames  chan *emulator.Framebuffer
	events  chan event.Event
	dropped atomic.Uint64
}

// NewPipe returns a Pipe queueing up to buffer frames.
func NewPipe(buffer int) *Pipe {
	if buffer < 1 {
		buffer = 1
	}
	return &Pipe{
		frames: make(chan *emulator.Framebuffer, buffer),
		events: make(chan event.Event, 16),
	}
}

// Present queues a copy of fb, as the core reuses its buffer.
func (p *Pipe) Present(fb *emulator.Framebuffer) {
	f := fb.Clone()
	for {
		select {
		case p.frames <- f:
			return
		default:
		}
		select {
		case <-p.frames:
			p.dropped.Add(1)
		default:
		}
	}
}

// SetStatus sends a Title event.
func (p *Pipe) SetStatus(status string) {
	p.Send(event.Event{Type: event.Title, Data: status})
}

// Send queues e without blocking the session. When the event
// queue is full a Title event replaces the oldest queued event,
// as drivers gate their controls on it, and any other event is
// dropped. Quit events are always delivered.
//
// Send must only be called from one goroutine.
func (p *Pipe) Send(e event.Event) {
	if e.Type == event.Quit {
		p.events <- e
		return
	}
	select {
	case p.events <- e:
		return
	default:
	}
	if e.Type != event.Title {
		return
	}
	select {
	case old := <-p.events:
		if old.Type == event.Quit {
			// keep the Quit, the title no longer matters
			p.events <- old
			return
		}
	default:
	}
	select {
	case p.events <- e:
	default:
	}
}

// Frames returns the frame channel for Driver.Start.
func (p *Pipe) Frames() <-chan *emulator.Framebuffer {
	return p.frames
}

// Events returns the event channel for Driver.Start.
func (p *Pipe) Events() <-chan event.Event {
	return p.events
}

// Dropped returns the number of frames dropped so far.
func (p *Pipe) Dropped() uint64 {
	return p.dropped.Load()
}
