// Package pacer decides how long to wait between frames so that
// a chain of self-scheduled steps settles on a fixed target
// frequency.
//
// After every completed step the session asks Next for the wait
// before the following step. The wait is the target period minus
// the time that passed outside of the previous wait, which is the
// step itself plus any lateness of the scheduler. Lateness is
// therefore paid back on the next wait, where a frontend that
// only subtracts the step time would let late wakeups accumulate
// as drift. A step that
// overruns the period gets a wait of zero: frames are never
// skipped to catch up, they simply run back to back until timing
// recovers.
//
// Waits are truncated to the configured granularity (a
// millisecond by default, matching a millisecond timer). The
// truncated remainder is never paid back, so long sessions run
// marginally faster than the target.
package pacer

import "time"

// DefaultFPS is the NTSC frame rate of the console.
const DefaultFPS = 60.098814

// Pacer tracks the timestamp of the last completed step and
// computes the wait before the next one.
type Pacer struct {
	fps         float64
	period      time.Duration
	granularity time.Duration

	last     time.Time     // time of the last scheduling decision
	lastWait time.Duration // wait returned by that decision
	seeded   bool
	fromStep bool // last was set by Next rather than Seed

	frames   uint64
	overruns uint64
	history  *ring
}

// Opt configures a Pacer.
type Opt func(p *Pacer)

// Granularity sets the resolution waits are truncated to. Zero
// disables truncation.
func Granularity(d time.Duration) Opt {
	return func(p *Pacer) {
		if d < 0 {
			d = 0
		}
		p.granularity = d
	}
}

// History sets how many step intervals are kept for Stats.
func History(n int) Opt {
	return func(p *Pacer) {
		if n > 0 {
			p.history = newRing(n)
		}
	}
}

// New returns a Pacer targeting fps frames per second. A
// non-positive fps uses DefaultFPS.
func New(fps float64, opts ...Opt) *Pacer {
	if fps <= 0 {
		fps = DefaultFPS
	}
	p := &Pacer{
		fps:         fps,
		period:      time.Duration(float64(time.Second) / fps),
		granularity: time.Millisecond,
		history:     newRing(300),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Period returns the target time between frames.
func (p *Pacer) Period() time.Duration {
	return p.period
}

// FPS returns the target frequency.
func (p *Pacer) FPS() float64 {
	return p.fps
}

// Seed sets the last tick timestamp to now without counting a
// step. It is called whenever stepping starts afresh: on open,
// reset, resume and state restore, so that time spent without
// stepping is not mistaken for drift.
func (p *Pacer) Seed(now time.Time) {
	p.last = now
	p.lastWait = 0
	p.seeded = true
	p.fromStep = false
}

// Next is called immediately after a step completes at now. It
// advances the last tick timestamp to now and returns how long
// to wait before the next step.
func (p *Pacer) Next(now time.Time) time.Duration {
	if !p.seeded {
		p.Seed(now)
	}

	// the timestamp never moves backwards
	if now.Before(p.last) {
		now = p.last
	}

	interval := now.Sub(p.last)
	elapsed := interval - p.lastWait
	if elapsed < 0 {
		elapsed = 0
	}

	if p.fromStep {
		p.history.add(interval)
	}
	p.frames++
	p.last = now
	p.fromStep = true

	wait := p.period - elapsed
	if wait <= 0 {
		p.overruns++
		p.lastWait = 0
		return 0
	}
	if p.granularity > 0 {
		wait = wait.Truncate(p.granularity)
	}
	p.lastWait = wait
	return wait
}

// Last returns the timestamp of the last scheduling decision.
func (p *Pacer) Last() time.Time {
	return p.last
}
